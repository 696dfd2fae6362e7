package bytecode

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/npillmayer/schuko/tracing"
	"github.com/radlr-lang/radlr"
	"github.com/radlr-lang/radlr/ir"
)

// tracer traces with key 'radlr.bytecode'.
func tracer() tracing.Trace {
	return tracing.Select("radlr.bytecode")
}

// Output is the emitted artifact: a flat little-endian u32 instruction
// stream plus the entry_name → byte-offset map spec.md §6 describes.
type Output struct {
	Words   []uint32
	Entries map[string]uint32
}

// Bytes returns the little-endian byte encoding of the instruction
// stream (spec.md §6: "addresses are little-endian u32").
func (o *Output) Bytes() []byte {
	buf := make([]byte, len(o.Words)*4)
	for i, w := range o.Words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return buf
}

// proxy is a not-yet-resolved forward reference: the word index of a
// Goto instruction whose state address operand must be rewritten once
// every state is placed. A hash branch's scanner_address field is never
// recorded here.
type proxy struct {
	wordIndex int
	target    string
}

// emitter accumulates instruction words for one Module, tracking a
// state-name → proxy-address map during the first pass and a list of
// unresolved references to patch in the second, per spec.md §4.9 /
// §9 "Proxy addresses".
type emitter struct {
	words       []uint32
	proxyOf     map[string]int // state name -> its own first-word index, once placed
	pending     []proxy
	debugSymbol bool
}

// Emit lowers m into an Output: a header of FirstStateAddress words,
// then one block per state in m.States (in the module's
// already-deterministic order), with every Goto operand initially
// written as a word-index proxy and rewritten to its real offset in a
// final remap pass. A hash branch's scanner_address field holds the
// branch's own header address and is not remapped.
func Emit(m *ir.Module, debugSymbols bool) (*Output, error) {
	e := &emitter{proxyOf: make(map[string]int), debugSymbol: debugSymbols}
	e.writeHeader()

	for _, st := range m.States {
		e.proxyOf[st.Name] = len(e.words)
		if err := e.emitState(st); err != nil {
			return nil, err
		}
	}

	if err := e.remap(); err != nil {
		return nil, err
	}

	entries := make(map[string]uint32, len(m.Entries))
	for name, stateName := range m.Entries {
		idx, ok := e.proxyOf[stateName]
		if !ok {
			return nil, radlr.NewBuildError(radlr.ErrEmitConstraintExceeded, name, stateName, "entry state was never emitted")
		}
		entries[name] = uint32(idx)
	}

	return &Output{Words: e.words, Entries: entries}, nil
}

// writeHeader writes the fixed preamble of FirstStateAddress (six)
// words: a pass-through word, a pass word, and a fail word, at the
// well-known addresses spec.md's "Supplemented features" section fixes
// (0, 1, 2), padded with Pass words up to FirstStateAddress.
func (e *emitter) writeHeader() {
	e.words = append(e.words, encode(OpPass, 0)) // PassThroughAddress = 0
	e.words = append(e.words, encode(OpPass, 0)) // PassAddress = 1
	e.words = append(e.words, encode(OpFail, 0)) // FailAddress = 2
	for uint32(len(e.words)) < FirstStateAddress {
		e.words = append(e.words, encode(OpPass, 0))
	}
}

func (e *emitter) push(w uint32) int {
	e.words = append(e.words, w)
	return len(e.words) - 1
}

// pushProxyGoto emits a Goto instruction whose target operand is not
// yet known, recording a pending proxy to patch in the remap pass.
func (e *emitter) pushProxyGoto(target string) {
	idx := e.push(encode(OpGoto, 0))
	e.pending = append(e.pending, proxy{wordIndex: idx, target: target})
}

func (e *emitter) emitState(st *ir.State) error {
	// e.debugSymbol (spec.md's Debug flag) is plumbed through for a future
	// DebugSymbol instruction; the original's DebugSymbol carries a
	// variable-length name operand that doesn't fit this format's fixed
	// one-word-per-instruction, 4-bit opcode tag (already full at 16
	// values), so until that's designed no marker is emitted — a foreign
	// opcode in its place would corrupt decoding rather than annotate it.

	switch st.Transitive {
	case ir.TransShift:
		e.push(encode(OpShiftToken, 0))
	case ir.TransPeek:
		e.push(encode(OpPeekToken, 0))
	case ir.TransScan:
		e.push(encode(OpShiftScanner, 0))
	case ir.TransSkip:
		e.push(encode(OpSkip, 0))
	case ir.TransReset:
		e.push(encode(OpResetPeek, 0))
	case ir.TransPop:
		e.push(encode(OpPop, 0))
	}

	for _, nb := range st.NonBranch {
		if nb.ReduceRaw {
			e.push(encode(OpReduce, uint32(nb.RuleID)&0xFFFF|uint32(nb.Length)<<16))
		}
		if nb.SetTokID {
			e.push(encode(OpToken, uint32(nb.TokID)) | TokenAssignFlag)
		}
	}

	switch st.Branch.Kind {
	case ir.BranchPass, ir.BranchNone:
		e.push(encode(OpPass, 0))
	case ir.BranchFail:
		e.push(encode(OpFail, 0))
	case ir.BranchAccept:
		e.push(encode(OpPass, 1))
	case ir.BranchGoto:
		for _, target := range st.Branch.GotoChain {
			e.pushProxyGoto(target)
		}
	case ir.BranchMatch:
		return e.emitMatch(st.Branch)
	}
	return nil
}

func (e *emitter) emitMatch(br ir.Branch) error {
	branches := make([][]uint32, len(br.Clauses))
	keys := make([]int, len(br.Clauses))
	targets := make([]string, len(br.Clauses))
	for i, c := range br.Clauses {
		keys[i] = c.Keys[0]
		targets[i] = c.Target
		branches[i] = []uint32{encode(OpGoto, 0)} // one proxy Goto per clause body
	}

	if selectBranchKind(keys, branches) == branchVector {
		return e.emitVectorBranch(InputType(br.Input), keys, branches, targets, br.Default)
	}
	return e.emitHashBranch(InputType(br.Input), keys, branches, targets, br.Default)
}

type branchKind int

const (
	branchHash branchKind = iota
	branchVector
)

// selectBranchKind mirrors the original's default_get_branch_selector:
// vector dispatch is used when the key span is too small to benefit
// from hashing, the combined sub-block length exceeds the limit, or any
// key exceeds the maximum supported value (spec.md §4.9 "Constraints").
func selectBranchKind(keys []int, branches [][]uint32) branchKind {
	total := 0
	maxKey := 0
	for i, b := range branches {
		total += len(b)
		if keys[i] > maxKey {
			maxKey = keys[i]
		}
	}
	if len(keys) < 2 || total > MaxHashSubBlockLength || maxKey > MaxHashKeyValue || len(keys) > MaxHashKeys {
		return branchVector
	}
	return branchHash
}

// hashEntry packs a hash-branch table slot: key|offset|Δ, with Δ a
// 10-bit signed value biased by 512 (Δ=0 stored as 512), per the
// original's 22-bit shift for the delta field.
func hashEntry(key, offset int, delta int32) uint32 {
	biased := uint32(delta+512) & 0x3FF
	return (uint32(key) & 0x7FF) | ((uint32(offset) & 0x7FF) << 11) | (biased << 22)
}

// hashEntryDelta reads a slot's Δ field back out (0 meaning "end of
// collision chain").
func hashEntryDelta(word uint32) int32 {
	return int32((word>>22)&0x3FF) - 512
}

// setHashEntryDelta rewrites only a slot's Δ field, preserving its
// key|offset bits — used when linear probing must patch a prior node
// in the collision chain to point at the slot it was just bumped to.
func setHashEntryDelta(word uint32, delta int) uint32 {
	biased := uint32(delta+512) & 0x3FF
	return (word &^ (uint32(0x3FF) << 22)) | (biased << 22)
}

// emitHashBranch implements spec.md §4.9's hash-branch construction
// algorithm: a table_len = n slot array (table_len is the key count,
// not 2^mod_base — mod_base only bounds which slots a key can hash to
// directly), with linear probing on collision chained via each slot's
// Δ field. mod_base = floor(log2(n)) per spec §4.9 step 3, which
// guarantees 2^mod_base < n whenever n isn't a power of two, so home
// slots alone can't cover the table and collisions — and therefore the
// Δ chain — are the common case, not an edge case.
func (e *emitter) emitHashBranch(input InputType, keys []int, branches [][]uint32, targets []string, defaultTarget string) error {
	n := len(keys)
	if n == 0 {
		return radlr.NewBuildError(radlr.ErrEmitConstraintExceeded, "", "", "hash branch with zero keys")
	}
	modBase := uint32(math.Log2(float64(n)))
	modMask := (uint32(1) << modBase) - 1

	headerIdx := e.push(encode(OpHashBranch, uint32(input)))
	defaultOffsetIdx := e.push(0)
	scannerAddrIdx := e.push(0)
	e.push(uint32(n)) // table_len
	e.push(modBase)

	order := sortedKeyOrder(keys)

	offsets := make([]int, n)
	cursor := 0
	for _, idx := range order {
		offsets[idx] = cursor
		cursor += len(branches[idx])
	}

	occupied := make([]bool, n)
	words := make([]uint32, n)

	var leftover []int
	for _, idx := range order {
		home := int(uint32(keys[idx]) & modMask)
		if !occupied[home] {
			occupied[home] = true
			words[home] = hashEntry(keys[idx], offsets[idx], 0)
		} else {
			leftover = append(leftover, idx)
		}
	}

	for _, idx := range leftover {
		prev := int(uint32(keys[idx]) & modMask)
		for {
			delta := hashEntryDelta(words[prev])
			if delta == 0 {
				break
			}
			prev += int(delta)
		}
		free := -1
		for i := 0; i < n; i++ {
			if !occupied[i] {
				free = i
				break
			}
		}
		if free == -1 {
			return radlr.NewBuildError(radlr.ErrEmitConstraintExceeded, "", "", "hash branch table exhausted while resolving a collision")
		}
		words[prev] = setHashEntryDelta(words[prev], free-prev)
		occupied[free] = true
		words[free] = hashEntry(keys[idx], offsets[idx], 0)
	}

	for _, w := range words {
		e.push(w)
	}

	for _, idx := range order {
		for _, w := range branches[idx] {
			e.words = append(e.words, w)
		}
		e.pending = append(e.pending, proxy{wordIndex: len(e.words) - 1, target: targets[idx]})
	}

	defaultOffset := len(e.words) - headerIdx
	e.words[defaultOffsetIdx] = uint32(defaultOffset)
	e.words[scannerAddrIdx] = uint32(headerIdx)
	if defaultTarget != "" {
		e.pending = append(e.pending, proxy{wordIndex: len(e.words), target: defaultTarget})
		e.push(encode(OpGoto, 0))
	} else {
		e.push(encode(OpFail, 0))
	}
	return nil
}

// emitVectorBranch is the linear-dispatch fallback used when
// selectBranchKind rejects hashing (spec.md §4.9 "If exceeded, emit a
// VectorBranch instead").
func (e *emitter) emitVectorBranch(input InputType, keys []int, branches [][]uint32, targets []string, defaultTarget string) error {
	e.push(encode(OpVectorBranch, uint32(input)))
	e.push(uint32(len(keys)))
	order := sortedKeyOrder(keys)
	for _, idx := range order {
		e.push(uint32(keys[idx]))
		e.pending = append(e.pending, proxy{wordIndex: len(e.words), target: targets[idx]})
		e.push(encode(OpGoto, 0))
	}
	if defaultTarget != "" {
		e.pending = append(e.pending, proxy{wordIndex: len(e.words), target: defaultTarget})
		e.push(encode(OpGoto, 0))
	} else {
		e.push(encode(OpFail, 0))
	}
	return nil
}

func sortedKeyOrder(keys []int) []int {
	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return keys[order[i]] < keys[order[j]] })
	return order
}

// remap implements spec.md §4.9's final pass: walk every pending proxy
// and rewrite its operand word to the real byte (word) offset of its
// target state, using the proxyOf map built during emission.
func (e *emitter) remap() error {
	for _, p := range e.pending {
		if p.target == "" {
			continue
		}
		real, ok := e.proxyOf[p.target]
		if !ok {
			return radlr.NewBuildError(radlr.ErrEmitConstraintExceeded, "", p.target, "goto target was never emitted")
		}
		e.words[p.wordIndex] = encode(OpGoto, uint32(real)&StateAddressMask)
	}
	return nil
}
