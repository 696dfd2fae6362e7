package ir

import (
	"strings"
	"testing"

	"github.com/radlr-lang/radlr/graph"
	"github.com/radlr-lang/radlr/item"
	"github.com/radlr-lang/radlr/symbol"
)

func TestLowerNamesAreStableAcrossRuns(t *testing.T) {
	buildHost := func() *graph.Host {
		h := graph.NewHost()
		rule := &item.Rule{ID: 1, LHS: symbol.NewNonTerminal("S", 0), RHS: []symbol.Symbol{symbol.NewTerminal("a", 'a', 1)}}
		root := h.NewRoot(graph.Parser, []item.Item{item.StartItem(rule)})
		h.PopPending()
		sym := symbol.NewTerminal("a", 'a', 1)
		child := h.NewState(root, graph.Normal, sym, graph.StateShift, []item.Item{item.StartItem(rule).Advance()})
		h.Commit(root, []*graph.StagedNode{child}, false, true)
		return h
	}

	m1 := Lower(buildHost(), "")
	m2 := Lower(buildHost(), "")

	if len(m1.States) != len(m2.States) {
		t.Fatalf("expected same number of states across runs, got %d vs %d", len(m1.States), len(m2.States))
	}
	for i := range m1.States {
		if m1.States[i].Name != m2.States[i].Name {
			t.Fatalf("expected deterministic state names, got %q vs %q", m1.States[i].Name, m2.States[i].Name)
		}
	}
}

func TestLowerShiftStateGotoesToChild(t *testing.T) {
	h := graph.NewHost()
	rule := &item.Rule{ID: 1, LHS: symbol.NewNonTerminal("S", 0), RHS: []symbol.Symbol{symbol.NewTerminal("a", 'a', 1)}}
	root := h.NewRoot(graph.Parser, []item.Item{item.StartItem(rule)})
	h.PopPending()
	sym := symbol.NewTerminal("a", 'a', 1)
	child := h.NewState(root, graph.Normal, sym, graph.StateReduce, []item.Item{item.StartItem(rule).Advance()}).MakeLeaf()
	h.Commit(root, []*graph.StagedNode{child}, false, true)

	m := Lower(h, "")
	rootState := m.States[0]
	if rootState.Branch.Kind != BranchGoto || len(rootState.Branch.GotoChain) != 1 {
		t.Fatalf("expected root shift state to goto its single child, got %v", rootState.Branch)
	}
	childState := m.States[1]
	if rootState.Branch.GotoChain[0] != childState.Name {
		t.Fatalf("expected root goto chain to name the child state, got %q want %q", rootState.Branch.GotoChain[0], childState.Name)
	}
}

func TestLowerShiftStateWithMultipleChildrenMatchesOnInputType(t *testing.T) {
	h := graph.NewHost()
	rule := &item.Rule{ID: 1, LHS: symbol.NewNonTerminal("S", 0), RHS: []symbol.Symbol{symbol.NewTerminal("a", 'a', 1)}}
	root := h.NewRoot(graph.Parser, []item.Item{item.StartItem(rule)})
	h.PopPending()

	a := symbol.NewTerminal("a", 'a', 1)
	bb := symbol.NewTerminal("b", 'b', 1)
	left := h.NewState(root, graph.Normal, a, graph.StateReduce, []item.Item{item.StartItem(rule).Advance()}).MakeLeaf()
	right := h.NewState(root, graph.Normal, bb, graph.StateReduce, []item.Item{item.StartItem(rule).Advance()}).MakeLeaf()
	h.Commit(root, []*graph.StagedNode{left, right}, false, true)

	m := Lower(h, "")
	rootState := m.States[0]
	if rootState.Branch.Kind != BranchMatch {
		t.Fatalf("expected root shift state with multiple children to lower to a match branch, got %v", rootState.Branch.Kind)
	}
	if rootState.Branch.Input != InputByte {
		t.Fatalf("expected match branch to discriminate on InputByte for Char-literal children, got %v", rootState.Branch.Input)
	}
	if len(rootState.Branch.Clauses) != 2 {
		t.Fatalf("expected one match clause per child, got %d", len(rootState.Branch.Clauses))
	}
}

func TestReduceStateEmitsReduceRawAndPass(t *testing.T) {
	rule := &item.Rule{ID: 3, LHS: symbol.NewNonTerminal("S", 0), RHS: []symbol.Symbol{symbol.NewTerminal("a", 'a', 1)}}
	n := &graph.Node{ID: 0, Type: graph.StateReduce, RuleID: 3, PopCount: 1, Symbol: rule.LHS}
	st := lowerNode(n, nil, "")
	if len(st.NonBranch) != 1 || !st.NonBranch[0].ReduceRaw {
		t.Fatalf("expected a reduce-raw non-branch, got %v", st.NonBranch)
	}
	if st.Branch.Kind != BranchPass {
		t.Fatalf("expected reduce state to terminate with pass, got %v", st.Branch.Kind)
	}
	rendered := st.String()
	if !strings.Contains(rendered, "reduce-raw") || !strings.Contains(rendered, "pass") {
		t.Fatalf("expected rendering to mention reduce-raw and pass, got %q", rendered)
	}
}

func TestEntryExitSynthesizesAcceptingExit(t *testing.T) {
	m := &Module{ByName: make(map[string]*State), Entries: make(map[string]string)}
	EntryExit(m, "Program", "Program", "s_0_Shift_S")

	entry, ok := m.ByName["entry_Program"]
	if !ok {
		t.Fatalf("expected an entry_Program state")
	}
	if entry.Branch.Kind != BranchGoto || len(entry.Branch.GotoChain) != 2 {
		t.Fatalf("expected entry state to goto exit then root, got %v", entry.Branch)
	}
	exit, ok := m.ByName["exit_Program"]
	if !ok || exit.Branch.Kind != BranchAccept {
		t.Fatalf("expected an accepting exit_Program state, got %+v ok=%v", exit, ok)
	}
	if m.Entries["Program"] != entry.Name {
		t.Fatalf("expected Entries map to point at the synthesized entry name")
	}
}
