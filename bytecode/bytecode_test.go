package bytecode

import (
	"testing"

	"github.com/radlr-lang/radlr/ir"
)

func simpleModule() *ir.Module {
	exit := &ir.State{Name: "exit_P", Branch: ir.Branch{Kind: ir.BranchAccept}}
	reduce := &ir.State{
		Name:      "s_reduce",
		NonBranch: []ir.NonBranch{{ReduceRaw: true, NonTerm: "S", RuleID: 1, Length: 1}},
		Branch:    ir.Branch{Kind: ir.BranchPass},
	}
	root := &ir.State{
		Name:       "s_root",
		Transitive: ir.TransShift,
		Branch:     ir.Branch{Kind: ir.BranchGoto, GotoChain: []string{reduce.Name}},
	}
	entry := &ir.State{Name: "entry_P", Branch: ir.Branch{Kind: ir.BranchGoto, GotoChain: []string{exit.Name, root.Name}}}

	m := &ir.Module{Entries: map[string]string{"P": entry.Name}}
	m.States = []*ir.State{root, reduce, exit, entry}
	m.ByName = map[string]*ir.State{
		root.Name: root, reduce.Name: reduce, exit.Name: exit, entry.Name: entry,
	}
	return m
}

func TestEmitHeaderAtWellKnownAddresses(t *testing.T) {
	out, err := Emit(simpleModule(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Opcode((out.Words[PassThroughAddress]&InstructionHeaderMask)>>28) != OpPass {
		t.Fatalf("expected PassThroughAddress to hold a Pass instruction")
	}
	if Opcode((out.Words[FailAddress]&InstructionHeaderMask)>>28) != OpFail {
		t.Fatalf("expected FailAddress to hold a Fail instruction")
	}
	if uint32(len(out.Words)) < FirstStateAddress {
		t.Fatalf("expected at least FirstStateAddress words before any state body")
	}
}

func TestEmitResolvesGotoProxiesToRealAddresses(t *testing.T) {
	out, err := Emit(simpleModule(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decoded := Disassemble(out.Words)

	var sawGoto bool
	for _, in := range decoded {
		if in.Type() == OpGoto && in.GotoTarget() != 0 {
			sawGoto = true
			if int(in.GotoTarget()) >= len(out.Words) {
				t.Fatalf("goto target %d out of range (len=%d)", in.GotoTarget(), len(out.Words))
			}
		}
	}
	if !sawGoto {
		t.Fatalf("expected at least one resolved goto instruction in %v", decoded)
	}
}

func TestEmitEntryPointsResolveToEmittedStates(t *testing.T) {
	out, err := Emit(simpleModule(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	addr, ok := out.Entries["P"]
	if !ok {
		t.Fatalf("expected entry P to be present")
	}
	if int(addr) >= len(out.Words) {
		t.Fatalf("entry address %d out of range", addr)
	}
}

func TestEmitUnresolvableGotoErrors(t *testing.T) {
	dangling := &ir.State{Name: "s_dangling", Branch: ir.Branch{Kind: ir.BranchGoto, GotoChain: []string{"does_not_exist"}}}
	m := &ir.Module{States: []*ir.State{dangling}, ByName: map[string]*ir.State{dangling.Name: dangling}, Entries: map[string]string{}}
	if _, err := Emit(m, false); err == nil {
		t.Fatalf("expected an error for a goto target that was never emitted")
	}
}

func TestSelectBranchKindPrefersVectorForSmallSpan(t *testing.T) {
	keys := []int{1}
	branches := [][]uint32{{0}}
	if selectBranchKind(keys, branches) != branchVector {
		t.Fatalf("expected a single-key span to fall back to vector dispatch")
	}
}

func TestSelectBranchKindUsesHashForLargerGrammars(t *testing.T) {
	keys := make([]int, 16)
	branches := make([][]uint32, 16)
	for i := range keys {
		keys[i] = i
		branches[i] = []uint32{0}
	}
	if selectBranchKind(keys, branches) != branchHash {
		t.Fatalf("expected a well-spread key set to select hash dispatch")
	}
}

func TestSelectBranchKindFallsBackWhenKeyExceedsMax(t *testing.T) {
	keys := []int{1, 2, 3, MaxHashKeyValue + 1}
	branches := make([][]uint32, len(keys))
	for i := range branches {
		branches[i] = []uint32{0}
	}
	if selectBranchKind(keys, branches) != branchVector {
		t.Fatalf("expected an over-max key to force vector dispatch")
	}
}

func TestEmitHashBranchDispatchesEveryKeyToItsTarget(t *testing.T) {
	clauses := []ir.MatchClause{
		{Keys: []int{10}, Target: "s_a"},
		{Keys: []int{20}, Target: "s_b"},
		{Keys: []int{30}, Target: "s_c"},
	}
	match := &ir.State{
		Name:   "s_match",
		Branch: ir.Branch{Kind: ir.BranchMatch, Input: ir.InputToken, Clauses: clauses, Default: ""},
	}
	targets := []*ir.State{
		{Name: "s_a", Branch: ir.Branch{Kind: ir.BranchAccept}},
		{Name: "s_b", Branch: ir.Branch{Kind: ir.BranchAccept}},
		{Name: "s_c", Branch: ir.Branch{Kind: ir.BranchAccept}},
	}
	m := &ir.Module{ByName: map[string]*ir.State{match.Name: match}, Entries: map[string]string{}}
	m.States = append([]*ir.State{match}, targets...)
	for _, s := range targets {
		m.ByName[s.Name] = s
	}

	out, err := Emit(m, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Words) <= int(FirstStateAddress) {
		t.Fatalf("expected emitted words beyond the header")
	}

	decoded := Disassemble(out.Words)
	var headerAddr uint32
	var foundHeader bool
	for _, in := range decoded {
		if in.Type() == OpHashBranch {
			headerAddr = in.Address
			foundHeader = true
			break
		}
	}
	if !foundHeader {
		t.Fatalf("expected a HashBranch instruction in %v", decoded)
	}

	// s_match's block ends with its default arm at headerAddr +
	// default_offset (the word recorded right after the header); the
	// target states begin on the next word.
	targetBase := headerAddr + out.Words[headerAddr+1] + 1

	for i, c := range clauses {
		key := uint32(c.Keys[0])
		offset, found := ResolveHashBranch(out.Words, headerAddr, key)
		if !found {
			t.Fatalf("key %d did not resolve via the hash table", key)
		}

		tableLen := out.Words[headerAddr+3]
		bodyStart := headerAddr + 5 + tableLen
		in := At(out.Words, bodyStart+offset)
		if in.Type() != OpGoto {
			t.Fatalf("key %d: expected a Goto at body offset %d, got %s", key, offset, in.Type())
		}

		wantAddr := targetBase + uint32(i)
		if in.GotoTarget() != wantAddr {
			t.Fatalf("key %d: expected dispatch to %s at address %d, got %d", key, c.Target, wantAddr, in.GotoTarget())
		}
	}
}
