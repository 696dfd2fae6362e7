package grammar

import (
	"fmt"

	"github.com/radlr-lang/radlr"
	"github.com/radlr-lang/radlr/item"
	"github.com/radlr-lang/radlr/symbol"
)

// Builder accumulates rules for a Grammar, following the fluent API
// documented for the teacher package's lr.GrammarBuilder:
//
//	b := grammar.NewBuilder("G")
//	b.LHS("S").N("A").T("a", 1).EOF()
//	b.LHS("A").N("B").N("D").End()
//	b.LHS("B").T("b", 2).End()
//	b.LHS("B").Epsilon()
//	g, err := b.Grammar()
type Builder struct {
	name    string
	g       *Grammar
	pending []*ruleBuilder
	err     error
}

// NewBuilder creates an empty grammar builder named name.
func NewBuilder(name string) *Builder {
	return &Builder{
		name: name,
		g: &Grammar{
			Name:      name,
			byNonTerm: make(map[radlr.SymbolID][]*item.Rule),
			recursion: make(map[radlr.SymbolID]radlr.RecursionType),
			symbols:   make(map[string]symbol.Symbol),
			tokens:    make(map[radlr.SymbolID]TokenInfo),
		},
	}
}

// ruleBuilder accumulates the RHS of a single rule under construction.
type ruleBuilder struct {
	b   *Builder
	lhs symbol.Symbol
	rhs []symbol.Symbol
}

// LHS starts a new rule with left-hand side name.
func (b *Builder) LHS(name string) *ruleBuilder {
	return &ruleBuilder{b: b, lhs: b.g.Intern(name)}
}

// N appends a non-terminal reference to the rule under construction.
func (r *ruleBuilder) N(name string) *ruleBuilder {
	r.rhs = append(r.rhs, r.b.g.Intern(name))
	return r
}

// T appends a character-literal terminal with the given precedence.
func (r *ruleBuilder) T(lexeme string, prec uint16) *ruleBuilder {
	var ch byte
	if len(lexeme) > 0 {
		ch = lexeme[0]
	}
	r.rhs = append(r.rhs, symbol.NewTerminal(lexeme, ch, prec))
	return r
}

// Tok appends an already-interned token symbol to the rule under
// construction.
func (r *ruleBuilder) Tok(tok symbol.Symbol) *ruleBuilder {
	r.rhs = append(r.rhs, tok)
	return r
}

// EOF appends the end-of-file symbol and terminates the rule.
func (r *ruleBuilder) EOF() {
	r.rhs = append(r.rhs, symbol.EOF)
	r.End()
}

// End terminates the rule under construction, adding it to the builder.
func (r *ruleBuilder) End() {
	rule := &item.Rule{ID: radlr.RuleID(len(r.b.g.rules)), LHS: r.lhs, RHS: r.rhs}
	r.b.g.rules = append(r.b.g.rules, rule)
	r.b.g.byNonTerm[r.lhs.Value] = append(r.b.g.byNonTerm[r.lhs.Value], rule)
}

// Epsilon terminates the rule under construction as an empty production.
func (r *ruleBuilder) Epsilon() {
	r.rhs = nil
	r.End()
}

// Grammar finalizes the builder: it runs recursion classification over
// the accumulated rules and returns the resulting Grammar.
func (b *Builder) Grammar() (*Grammar, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.g.rules) == 0 {
		return nil, fmt.Errorf("grammar %q has no rules", b.name)
	}
	classifyRecursion(b.g)
	return b.g, nil
}

// AddEntryPoint registers a callable entry point for non-terminal nt
// (spec.md §6 "entry_points").
func (b *Builder) AddEntryPoint(nt, entryName, exitName string) {
	b.g.entryPoints = append(b.g.entryPoints, EntryPoint{
		NonTerm:   b.g.Intern(nt),
		EntryName: entryName,
		ExitName:  exitName,
	})
}

// AddToken registers token metadata for tok (spec.md §6 "token").
func (b *Builder) AddToken(tok symbol.Symbol, nontermID radlr.SymbolID, prec uint16) {
	b.g.tokens[tok.Value] = TokenInfo{NonTermID: nontermID, Precedence: prec}
}

// classifyRecursion determines, for every non-terminal, whether it
// recurses directly on the left, indirectly on the left (via another
// non-terminal that is itself left-recursive into it), on the right, or
// not at all (spec.md §3 "Item", "recursion_type").
func classifyRecursion(g *Grammar) {
	// direct left/right recursion: nt appears as the first/last symbol of
	// one of its own rules.
	direct := make(map[radlr.SymbolID]bool)
	right := make(map[radlr.SymbolID]bool)
	// leftmost non-terminal reachable at position 0 of each rule, used for
	// indirect-left-recursion detection via closure over that relation.
	firstNonTerm := make(map[radlr.SymbolID]map[radlr.SymbolID]bool)

	for nt, rules := range g.byNonTerm {
		for _, r := range rules {
			if len(r.RHS) == 0 {
				continue
			}
			first := r.RHS[0]
			last := r.RHS[len(r.RHS)-1]
			if first.IsNonTerminal() {
				if first.Value == nt {
					direct[nt] = true
				}
				if firstNonTerm[nt] == nil {
					firstNonTerm[nt] = make(map[radlr.SymbolID]bool)
				}
				firstNonTerm[nt][first.Value] = true
			}
			if last.IsNonTerminal() && last.Value == nt {
				right[nt] = true
			}
		}
	}
	// transitive closure of firstNonTerm to find indirect left recursion:
	// nt ⇒* nt through a chain of "first non-terminal of a rule" hops.
	indirect := make(map[radlr.SymbolID]bool)
	for nt := range g.byNonTerm {
		if direct[nt] {
			continue
		}
		visited := make(map[radlr.SymbolID]bool)
		var walk func(radlr.SymbolID) bool
		walk = func(cur radlr.SymbolID) bool {
			if visited[cur] {
				return false
			}
			visited[cur] = true
			for next := range firstNonTerm[cur] {
				if next == nt {
					return true
				}
				if walk(next) {
					return true
				}
			}
			return false
		}
		if walk(nt) {
			indirect[nt] = true
		}
	}

	for nt := range g.byNonTerm {
		switch {
		case direct[nt]:
			g.recursion[nt] = radlr.RecursionLeftDirect
		case indirect[nt]:
			g.recursion[nt] = radlr.RecursionLeftIndirect
		case right[nt]:
			g.recursion[nt] = radlr.RecursionRight
		default:
			g.recursion[nt] = radlr.RecursionNone
		}
	}
}
