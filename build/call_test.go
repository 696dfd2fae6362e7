package build

import (
	"testing"

	"github.com/radlr-lang/radlr"
	"github.com/radlr-lang/radlr/grammar"
	"github.com/radlr-lang/radlr/item"
	"github.com/radlr-lang/radlr/symbol"
)

func TestAllPairsCallAtDot(t *testing.T) {
	nt := symbol.NewNonTerminal("A", 1)
	rule := &item.Rule{ID: 0, LHS: symbol.NewNonTerminal("S", 0), RHS: []symbol.Symbol{nt}}
	it := item.StartItem(rule)

	g := &TransitionGroup{Symbol: nt, Pairs: []TransitionPair{{Item: it, Symbol: nt}}}
	if !allPairsCallAtDot(g) {
		t.Fatalf("expected a single non-terminal pair to be callable at dot")
	}

	term := symbol.NewTerminal("a", 'a', 1)
	rule2 := &item.Rule{ID: 1, LHS: symbol.NewNonTerminal("S", 0), RHS: []symbol.Symbol{term}}
	it2 := item.StartItem(rule2)
	g2 := &TransitionGroup{Symbol: term, Pairs: []TransitionPair{{Item: it2, Symbol: term}}}
	if allPairsCallAtDot(g2) {
		t.Fatalf("did not expect a terminal pair to be callable at dot")
	}
}

func TestIncrementPairsAdvancesEachItem(t *testing.T) {
	nt := symbol.NewNonTerminal("A", 1)
	rule := &item.Rule{ID: 0, LHS: symbol.NewNonTerminal("S", 0), RHS: []symbol.Symbol{nt, symbol.EOF}}
	it := item.StartItem(rule)
	g := &TransitionGroup{Symbol: nt, Pairs: []TransitionPair{{Item: it, Symbol: nt}}}

	next := incrementPairs(g)
	if len(next) != 1 || next[0].Dot != 1 {
		t.Fatalf("expected dot to advance to 1, got %+v", next)
	}
}

// stubDB satisfies grammar.DB for createCall tests, which only exercise
// the RuleProvider half (RecursionType).
type stubDB struct {
	recursion map[radlr.SymbolID]radlr.RecursionType
}

func (s *stubDB) NonTermRules(symbol.Symbol) []*item.Rule { return nil }
func (s *stubDB) RecursionType(nt symbol.Symbol) radlr.RecursionType {
	return s.recursion[nt.Value]
}
func (s *stubDB) NonTermFollowItems(symbol.Symbol) []item.Item { return nil }
func (s *stubDB) Rule(radlr.RuleID) *item.Rule                 { return nil }
func (s *stubDB) Token(radlr.SymbolID) (grammar.TokenInfo, bool) {
	return grammar.TokenInfo{}, false
}
func (s *stubDB) EntryPoints() []grammar.EntryPoint    { return nil }
func (s *stubDB) Intern(string) symbol.Symbol          { return symbol.Symbol{} }
func (s *stubDB) EachSymbol(func(symbol.Symbol))       {}
func (s *stubDB) EachNonTerminal(func(symbol.Symbol))  {}

func TestCreateCallKernelForNonLeftRecursiveTarget(t *testing.T) {
	nt := symbol.NewNonTerminal("A", 1)
	db := &stubDB{recursion: map[radlr.SymbolID]radlr.RecursionType{nt.Value: radlr.RecursionNone}}
	d := &Driver{DB: db, Config: radlr.ParserConfig{AllowCalls: true, AllowLR: true}}

	rule := &item.Rule{ID: 0, LHS: symbol.NewNonTerminal("S", 0), RHS: []symbol.Symbol{nt}}
	it := item.StartItem(rule)
	g := &TransitionGroup{Symbol: nt, Pairs: []TransitionPair{{Item: it, Symbol: nt}}}

	res := d.createCall(nil, g)
	if res == nil {
		t.Fatalf("expected a call result for a non-left-recursive target")
	}
}

func TestCreateCallNoneForLeftRecursiveWithoutLR(t *testing.T) {
	nt := symbol.NewNonTerminal("A", 1)
	db := &stubDB{recursion: map[radlr.SymbolID]radlr.RecursionType{nt.Value: radlr.RecursionLeftDirect}}
	d := &Driver{DB: db, Config: radlr.ParserConfig{AllowCalls: true, AllowLR: false}}

	rule := &item.Rule{ID: 0, LHS: nt, RHS: []symbol.Symbol{nt, symbol.NewTerminal("a", 'a', 1)}}
	it := item.StartItem(rule)
	g := &TransitionGroup{Symbol: nt, Pairs: []TransitionPair{{Item: it, Symbol: nt}}}

	res := d.createCall(nil, g)
	if res != nil {
		t.Fatalf("expected no call result for a left-recursive target without ALLOW_LR, got %+v", res)
	}
}
