/*
Package grammar defines the read-only grammar database interface the
parse-graph builder consumes (spec.md §6, "Consumed from the grammar
DB"), together with a grammar builder and in-memory implementation of
that interface, modeled directly on the teacher package's documented
builder API (lr/doc.go's `lr.NewGrammarBuilder` example):

    b := grammar.NewBuilder("G")
    b.LHS("S").N("A").T("a", 1).EOF()  // S  ->  A a EOF
    b.LHS("A").N("B").N("D").End()     // A  ->  B D
    b.LHS("B").T("b", 2).End()         // B  ->  b
    b.LHS("B").Epsilon()               // B  ->
    g, err := b.Grammar()

Source grammar parsing — turning grammar *text* into these calls — is an
explicit Non-goal (spec.md §1); this package only defines and constructs
the normalized database the builder consumes.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2026 The Radlr Authors
*/
package grammar

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
	"github.com/radlr-lang/radlr"
	"github.com/radlr-lang/radlr/item"
	"github.com/radlr-lang/radlr/symbol"
)

// tracer traces with key 'radlr.grammar'.
func tracer() tracing.Trace {
	return tracing.Select("radlr.grammar")
}

// TokenInfo is the "Token" record of spec.md §6: `token(tok_id) → Token
// { nonterm_id, precedence }`.
type TokenInfo struct {
	NonTermID radlr.SymbolID
	Precedence uint16
}

// EntryPoint is the "EntryPoint" record of spec.md §6:
// `entry_points() → [EntryPoint { nonterm, entry_name, exit_name }]`.
type EntryPoint struct {
	NonTerm   symbol.Symbol
	EntryName string
	ExitName  string
}

// DB is the read-only grammar database the builder consumes. It is
// implemented by *Grammar below, but callers (package build, package
// graph) only ever see this interface, matching spec.md §1's framing of
// "the grammar database treated as a consumed interface".
type DB interface {
	item.RuleProvider
	Rule(id radlr.RuleID) *item.Rule
	Token(id radlr.SymbolID) (TokenInfo, bool)
	EntryPoints() []EntryPoint
	Intern(name string) symbol.Symbol
	EachSymbol(fn func(symbol.Symbol))
	EachNonTerminal(fn func(symbol.Symbol))
}

// Grammar is an in-memory implementation of DB, built incrementally via
// Builder and then fixed by a call to Builder.Grammar(), which runs
// recursion classification over the rules. No FIRST/FOLLOW or
// epsilon-derivability analysis is computed.
type Grammar struct {
	Name        string
	rules       []*item.Rule
	byNonTerm   map[radlr.SymbolID][]*item.Rule
	recursion   map[radlr.SymbolID]radlr.RecursionType
	symbols     map[string]symbol.Symbol
	entryPoints []EntryPoint
	tokens      map[radlr.SymbolID]TokenInfo
	nextSymID   radlr.SymbolID
}

var _ DB = (*Grammar)(nil)

// Rule returns the rule with the given ID, or nil if out of range.
func (g *Grammar) Rule(id radlr.RuleID) *item.Rule {
	if int(id) >= len(g.rules) {
		return nil
	}
	return g.rules[id]
}

// NonTermRules returns every rule whose LHS is nt, in declaration order
// (spec.md §6 "nonterm_rules").
func (g *Grammar) NonTermRules(nt symbol.Symbol) []*item.Rule {
	return g.byNonTerm[nt.Value]
}

// RecursionType reports how nt recurses within its own rules (spec.md §6
// "nonterm_recursion_type").
func (g *Grammar) RecursionType(nt symbol.Symbol) radlr.RecursionType {
	return g.recursion[nt.Value]
}

// NonTermFollowItems returns, for every rule that mentions nt anywhere in
// its RHS, the LR(0) item with the dot advanced just past that occurrence
// (spec.md §6 "nonterm_follow_items"). These are the items used to inject
// out-of-scope follow information when a reduction's scope crosses the
// root of the current graph slice (spec.md §4.1, §4.5).
func (g *Grammar) NonTermFollowItems(nt symbol.Symbol) []item.Item {
	var out []item.Item
	for _, r := range g.rules {
		for idx, s := range r.RHS {
			if s.Equal(nt) {
				out = append(out, item.Item{Rule: r, Dot: uint16(idx + 1), Goal: r.LHS})
			}
		}
	}
	return out
}

// Token returns the scanner token metadata for id.
func (g *Grammar) Token(id radlr.SymbolID) (TokenInfo, bool) {
	t, ok := g.tokens[id]
	return t, ok
}

// EntryPoints returns the grammar's exported entry points.
func (g *Grammar) EntryPoints() []EntryPoint {
	return g.entryPoints
}

// Intern returns the (possibly freshly allocated) Symbol for name.
func (g *Grammar) Intern(name string) symbol.Symbol {
	if s, ok := g.symbols[name]; ok {
		return s
	}
	s := symbol.NewNonTerminal(name, g.nextSymID)
	g.nextSymID++
	g.symbols[name] = s
	return s
}

// EachSymbol calls fn for every symbol known to the grammar (terminals
// and non-terminals), in a stable, insertion-derived order — mirroring
// gorgo's Grammar.EachSymbol, which gorgo's table generator uses to size
// parser tables.
func (g *Grammar) EachSymbol(fn func(symbol.Symbol)) {
	for _, r := range g.rules {
		fn(r.LHS)
		for _, s := range r.RHS {
			fn(s)
		}
	}
}

// EachNonTerminal calls fn for every distinct non-terminal LHS.
func (g *Grammar) EachNonTerminal(fn func(symbol.Symbol)) {
	seen := make(map[radlr.SymbolID]bool)
	for _, r := range g.rules {
		if !seen[r.LHS.Value] {
			seen[r.LHS.Value] = true
			fn(r.LHS)
		}
	}
}

func (g *Grammar) String() string {
	return fmt.Sprintf("Grammar(%s, %d rules)", g.Name, len(g.rules))
}

// Dump writes a human-readable rule listing to the tracer at debug level,
// mirroring gorgo's Grammar.Dump() (lr/doc.go's worked example).
func (g *Grammar) Dump() {
	for i, r := range g.rules {
		tracer().Debugf("%d: %v", i, r)
	}
}
