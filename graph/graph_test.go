package graph

import (
	"testing"

	"github.com/radlr-lang/radlr/item"
	"github.com/radlr-lang/radlr/symbol"
)

func sampleRule(id uint32) *item.Rule {
	s := symbol.NewNonTerminal("S", 0)
	a := symbol.NewTerminal("a", 'a', 1)
	return &item.Rule{ID: 1, LHS: s, RHS: []symbol.Symbol{a}}
}

func TestNewRootEnqueues(t *testing.T) {
	h := NewHost()
	rule := sampleRule(0)
	root := h.NewRoot(Parser, []item.Item{item.StartItem(rule)})
	if h.PendingLen() != 1 {
		t.Fatalf("expected root to be pending, got len=%d", h.PendingLen())
	}
	id, ok := h.PopPending()
	if !ok || id != root {
		t.Fatalf("expected to pop the root id, got %d ok=%v", id, ok)
	}
	if !h.IsRoot(root) {
		t.Fatalf("expected root node to report IsRoot")
	}
}

func TestCommitDedupsIdenticalSiblings(t *testing.T) {
	h := NewHost()
	rule := sampleRule(0)
	root := h.NewRoot(Parser, []item.Item{item.StartItem(rule)})
	h.PopPending()

	sym := symbol.NewTerminal("a", 'a', 1)
	items := []item.Item{item.StartItem(rule).Advance()}

	a := h.NewState(root, Normal, sym, StateShift, items)
	b := h.NewState(root, Normal, sym, StateShift, items)

	queued := h.Commit(root, []*StagedNode{a, b}, false, true)
	if queued != 1 {
		t.Fatalf("expected duplicate sibling to be deduped, queued=%d", queued)
	}
	if h.PendingLen() != 1 {
		t.Fatalf("expected exactly one new pending node, got %d", h.PendingLen())
	}
}

func TestCommitWithoutDedupKeepsBoth(t *testing.T) {
	h := NewHost()
	rule := sampleRule(0)
	root := h.NewRoot(Parser, []item.Item{item.StartItem(rule)})
	h.PopPending()

	sym := symbol.NewTerminal("a", 'a', 1)
	items := []item.Item{item.StartItem(rule).Advance()}

	a := h.NewState(root, Normal, sym, StateShift, items)
	b := h.NewState(root, Normal, sym, StateShift, items)

	queued := h.Commit(root, []*StagedNode{a, b}, false, false)
	if queued != 2 {
		t.Fatalf("expected both siblings to commit when dedup disabled, queued=%d", queued)
	}
}

func TestMakeLeafIsNeverEnqueued(t *testing.T) {
	h := NewHost()
	rule := sampleRule(0)
	root := h.NewRoot(Parser, []item.Item{item.StartItem(rule)})
	h.PopPending()

	sym := symbol.NewTerminal("a", 'a', 1)
	leaf := h.NewState(root, LeafState, sym, StateReduce, nil).MakeLeaf()

	h.Commit(root, []*StagedNode{leaf}, false, true)
	if h.PendingLen() != 0 {
		t.Fatalf("expected leaf node to never be enqueued, pending=%d", h.PendingLen())
	}
}

func TestIncrementGotosLockedAdvancesMatchingOrigin(t *testing.T) {
	h := NewHost()
	rule := sampleRule(0)
	root := h.NewRoot(Parser, []item.Item{item.StartItem(rule)})
	h.PopPending()

	sym := symbol.NewTerminal("a", 'a', 1)
	matchingOriginItem := item.StartItem(rule)
	matchingOriginItem.OriginState = root
	child := h.NewState(root, Normal, sym, StateShift, []item.Item{matchingOriginItem})
	h.Commit(root, []*StagedNode{child}, true, true)

	id, ok := h.PopPending()
	if !ok {
		t.Fatalf("expected the committed child to be pending")
	}
	n := h.Node(id)
	if n.KernelItems[0].GotoDistance != 1 {
		t.Fatalf("expected goto_distance to increment for matching origin, got %+v", n.KernelItems[0])
	}
}

func TestSetPeekResolveStateReturnsDistinctKeys(t *testing.T) {
	h := NewHost()
	rule := sampleRule(0)
	root := h.NewRoot(Parser, []item.Item{item.StartItem(rule)})

	k1 := h.SetPeekResolveState(root, []item.Item{item.StartItem(rule)})
	k2 := h.SetPeekResolveState(root, []item.Item{item.StartItem(rule)})
	if k1 == k2 {
		t.Fatalf("expected distinct peek resolve keys, got %d twice", k1)
	}
}

func TestAllNodesPreservesCreationOrder(t *testing.T) {
	h := NewHost()
	rule := sampleRule(0)
	root := h.NewRoot(Parser, []item.Item{item.StartItem(rule)})
	h.PopPending()

	sym := symbol.NewTerminal("a", 'a', 1)
	a := h.NewState(root, Normal, sym, StateShift, []item.Item{item.StartItem(rule).Advance()})
	h.Commit(root, []*StagedNode{a}, false, true)

	nodes := h.AllNodes()
	if len(nodes) != 2 || nodes[0].ID != root {
		t.Fatalf("expected creation-order nodes starting with root, got %v", nodes)
	}
}
