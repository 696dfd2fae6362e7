package item

import (
	"testing"

	"github.com/radlr-lang/radlr"
	"github.com/radlr-lang/radlr/symbol"
)

// stubDB is a minimal RuleProvider over a hand-built rule
// set, grounding closure/follow tests without depending on package
// grammar (avoiding an import cycle test -> grammar -> item).
type stubDB struct {
	rulesByNT map[radlr.SymbolID][]*Rule
	recursion map[radlr.SymbolID]radlr.RecursionType
}

func (s *stubDB) NonTermRules(nt symbol.Symbol) []*Rule           { return s.rulesByNT[nt.Value] }
func (s *stubDB) RecursionType(nt symbol.Symbol) radlr.RecursionType { return s.recursion[nt.Value] }
func (s *stubDB) NonTermFollowItems(nt symbol.Symbol) []Item {
	var out []Item
	for _, rules := range s.rulesByNT {
		for _, r := range rules {
			for idx, sym := range r.RHS {
				if sym.Equal(nt) {
					out = append(out, Item{Rule: r, Dot: uint16(idx + 1), Goal: r.LHS})
				}
			}
		}
	}
	return out
}

// grammar: S -> A a EOF ; A -> B D ; B -> 'b' ; B -> ; D -> 'd' ; D -> ;
func buildTestGrammar() (*stubDB, *Rule) {
	S := symbol.NewNonTerminal("S", 0)
	A := symbol.NewNonTerminal("A", 1)
	B := symbol.NewNonTerminal("B", 2)
	D := symbol.NewNonTerminal("D", 3)
	a := symbol.NewTerminal("a", 'a', 1)
	b := symbol.NewTerminal("b", 'b', 2)
	d := symbol.NewTerminal("d", 'd', 3)

	rS := &Rule{ID: 0, LHS: S, RHS: []symbol.Symbol{A, a, symbol.EOF}}
	rA := &Rule{ID: 1, LHS: A, RHS: []symbol.Symbol{B, D}}
	rB := &Rule{ID: 2, LHS: B, RHS: []symbol.Symbol{b}}
	rBEps := &Rule{ID: 3, LHS: B, RHS: nil}
	rD := &Rule{ID: 4, LHS: D, RHS: []symbol.Symbol{d}}
	rDEps := &Rule{ID: 5, LHS: D, RHS: nil}

	db := &stubDB{
		rulesByNT: map[radlr.SymbolID][]*Rule{
			S.Value: {rS},
			A.Value: {rA},
			B.Value: {rB, rBEps},
			D.Value: {rD, rDEps},
		},
		recursion: map[radlr.SymbolID]radlr.RecursionType{},
	}
	return db, rS
}

func TestClosureExpandsNonTerminals(t *testing.T) {
	db, rS := buildTestGrammar()
	start := StartItem(rS)
	closure := Closure(start, db)

	found := make(map[radlr.RuleID]bool)
	for _, v := range closure.Values() {
		found[v.(Item).Rule.ID] = true
	}
	for _, id := range []radlr.RuleID{0, 1, 2, 3} {
		if !found[id] {
			t.Fatalf("expected closure of S's start item to include rule %d, got %v", id, found)
		}
	}
}

func TestAdvanceAndIsComplete(t *testing.T) {
	db, rS := buildTestGrammar()
	_ = db
	it := StartItem(rS)
	if it.IsComplete() {
		t.Fatalf("fresh start item should not be complete")
	}
	it = it.Advance()
	it = it.Advance()
	it = it.Advance()
	if !it.IsComplete() {
		t.Fatalf("expected item to be complete after advancing past all 3 RHS symbols")
	}
	if it.Advance() != Null {
		t.Fatalf("expected advancing a complete item to yield Null")
	}
}

func TestCanonicalIgnoresOrigin(t *testing.T) {
	db, rS := buildTestGrammar()
	_ = db
	a := StartItem(rS)
	b := StartItem(rS)
	b.Origin = Origin{Kind: OriginPeek, PeekKey: 42}
	if a.Canonical() != b.Canonical() {
		t.Fatalf("expected canonical equality to ignore origin")
	}
}

// stubNodes implements NodeProvider over a tiny 2-level parent chain for
// Follow tests.
type stubNodes struct {
	kernel map[radlr.NodeID][]Item
	parent map[radlr.NodeID]radlr.NodeID
	root   radlr.NodeID
}

func (n *stubNodes) KernelItems(id radlr.NodeID) []Item { return n.kernel[id] }
func (n *stubNodes) Parent(id radlr.NodeID) (radlr.NodeID, bool) {
	if id == n.root {
		return 0, false
	}
	p, ok := n.parent[id]
	return p, ok
}
func (n *stubNodes) IsRoot(id radlr.NodeID) bool { return id == n.root }

func TestFollowWalksParentChain(t *testing.T) {
	db, rS := buildTestGrammar()
	start := StartItem(rS) // [S -> • A a EOF]

	// node 0 is root with kernel [S -> • A a EOF]; node 1 is a child
	// whose kernel is [S -> A • a EOF], reached by advancing on A.
	advanced := start.Advance()
	nodes := &stubNodes{
		kernel: map[radlr.NodeID][]Item{0: {start}, 1: {advanced}},
		parent: map[radlr.NodeID]radlr.NodeID{1: 0},
		root:   0,
	}

	// an item representing "A -> B D •" whose origin_state is node 1
	rA := db.rulesByNT[symbol.NewNonTerminal("A", 1).Value][0]
	reduceA := Item{Rule: rA, Dot: uint16(len(rA.RHS)), Goal: rA.LHS, OriginState: 1}

	follow, _ := Follow(reduceA, true, FollowDefault, nodes, db, false)
	if len(follow) != 1 || follow[0].Canonical() != advanced.Canonical() {
		t.Fatalf("expected follow to find root's kernel item advanced past A, got %v", follow)
	}
}

func TestItemsAreTheSameRule(t *testing.T) {
	_, rS := buildTestGrammar()
	a := StartItem(rS)
	b := StartItem(rS).Advance()
	if !ItemsAreTheSameRule([]Item{a, b}) {
		t.Fatalf("expected items from the same rule to report true")
	}
}
