/*
Package item implements dotted-rule items and their closure, following the
same "Crafting A Compiler"-flavoured LR(0) vocabulary as the teacher
package's lr/tables.go (closure, gotoSet, gotoSetClosure), generalized to
carry the extra provenance (origin, lane, goto distance) the parse-graph
builder needs to resolve calls, peeks and out-of-scope follow items.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2026 The Radlr Authors
*/
package item

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
	"github.com/radlr-lang/radlr"
	"github.com/radlr-lang/radlr/iteratable"
	"github.com/radlr-lang/radlr/symbol"
)

// tracer traces with key 'radlr.item'.
func tracer() tracing.Trace {
	return tracing.Select("radlr.item")
}

// Rule is a single grammar production, as delivered by the grammar
// database (spec.md §6, "rule(rule_id) → Rule").
type Rule struct {
	ID  radlr.RuleID
	LHS symbol.Symbol
	RHS []symbol.Symbol
	AST interface{} // opaque AST-construction hook; AST codegen is out of scope
}

func (r *Rule) String() string {
	return fmt.Sprintf("%s ::= %v", r.LHS, r.RHS)
}

// OriginKind discriminates the variants of Origin (spec.md §3, Item).
type OriginKind uint8

const (
	OriginNone OriginKind = iota
	OriginNonTermGoal
	OriginTerminalGoal
	OriginPeek
	OriginGoto
	OriginGoalCompleteOOS
	OriginScanCompleteOOS
)

func (k OriginKind) String() string {
	switch k {
	case OriginNonTermGoal:
		return "NonTermGoal"
	case OriginTerminalGoal:
		return "TerminalGoal"
	case OriginPeek:
		return "Peek"
	case OriginGoto:
		return "Goto"
	case OriginGoalCompleteOOS:
		return "GoalCompleteOOS"
	case OriginScanCompleteOOS:
		return "ScanCompleteOOS"
	default:
		return "None"
	}
}

// Origin is a tagged union over the item-origin variants of spec.md §3.
// Only the fields relevant to Kind are meaningful.
type Origin struct {
	Kind      OriginKind
	NonTerm   symbol.Symbol  // NonTermGoal
	Tok       symbol.Symbol  // TerminalGoal: (tok, prec) — prec lives on Tok
	PeekKey   uint64         // Peek
	PeekState radlr.NodeID   // Peek
	GotoState radlr.NodeID   // Goto
}

func (o Origin) String() string {
	switch o.Kind {
	case OriginNonTermGoal:
		return fmt.Sprintf("NonTermGoal(%s)", o.NonTerm)
	case OriginTerminalGoal:
		return fmt.Sprintf("TerminalGoal(%s)", o.Tok)
	case OriginPeek:
		return fmt.Sprintf("Peek(%d,%d)", o.PeekKey, o.PeekState)
	case OriginGoto:
		return fmt.Sprintf("Goto(%d)", o.GotoState)
	default:
		return o.Kind.String()
	}
}

// Lane identifies the peek-exploration universe an item belongs to. Lanes
// split when peek explores alternatives and merge when peek resolves
// (spec.md §3 "Item Lane").
type Lane struct {
	Current  uint32
	Previous uint32
}

// Item is a dotted position within a Rule, carrying the provenance the
// graph builder needs to resolve shift/reduce/call/goto/peek/fork
// decisions (spec.md §3 "Item").
type Item struct {
	Rule           *Rule
	Dot            uint16
	Goal           symbol.Symbol
	Origin         Origin
	OriginState    radlr.NodeID
	FromGotoOrigin bool
	GotoDistance   uint16
	Lane           Lane
}

// Null is the zero-value sentinel item, returned by operations that would
// otherwise advance past an already-complete item.
var Null = Item{}

// IsNull reports whether i is the Null sentinel.
func (i Item) IsNull() bool {
	return i.Rule == nil
}

// StartItem creates the zero-dot item for rule, with Goal set to the
// rule's own LHS (the entry-point convention of StartItem(G.rules[0]) in
// the teacher package).
func StartItem(rule *Rule) Item {
	return Item{Rule: rule, Dot: 0, Goal: rule.LHS}
}

// Length returns the number of symbols in the item's rule.
func (i Item) Length() int {
	return len(i.Rule.RHS)
}

// IsComplete reports whether the dot has reached the end of the rule.
func (i Item) IsComplete() bool {
	return int(i.Dot) == i.Length()
}

// IsPenultimate reports whether the dot sits one symbol before the end.
func (i Item) IsPenultimate() bool {
	return int(i.Dot) == i.Length()-1
}

// PeekSymbol returns the symbol immediately after the dot, or false if the
// item is complete.
func (i Item) PeekSymbol() (symbol.Symbol, bool) {
	if i.IsComplete() {
		return symbol.Symbol{}, false
	}
	return i.Rule.RHS[i.Dot], true
}

// Prefix returns the symbols consumed so far (before the dot) — the
// "handle" of a completed item.
func (i Item) Prefix() []symbol.Symbol {
	return i.Rule.RHS[:i.Dot]
}

// TryIncrement advances the dot by one if the item is not complete.
// Returns Null, false if the item was already complete.
func (i Item) TryIncrement() (Item, bool) {
	if i.IsComplete() {
		return Null, false
	}
	i.Dot++
	return i, true
}

// Advance is TryIncrement without the ok flag, returning Null for an
// already-complete item (mirrors gorgo's Item.Advance()).
func (i Item) Advance() Item {
	next, ok := i.TryIncrement()
	if !ok {
		return Null
	}
	return next
}

// CanonicalKey is the (rule, dot) pair used for canonical equality:
// spec.md §3 defines items as "canonically equal when (rule, dot) match,
// ignoring origin/lane" — used by the graph host to decide whether two
// staged nodes denote the same parse state regardless of how their kernel
// items were derived.
type CanonicalKey struct {
	RuleID radlr.RuleID
	Dot    uint16
}

// Canonical returns i's canonical (rule, dot) key.
func (i Item) Canonical() CanonicalKey {
	return CanonicalKey{RuleID: i.Rule.ID, Dot: i.Dot}
}

func (i Item) String() string {
	rhs := make([]string, 0, len(i.Rule.RHS)+1)
	for idx, s := range i.Rule.RHS {
		if uint16(idx) == i.Dot {
			rhs = append(rhs, "•")
		}
		rhs = append(rhs, s.String())
	}
	if int(i.Dot) == len(i.Rule.RHS) {
		rhs = append(rhs, "•")
	}
	return fmt.Sprintf("[%s ::= %v, %s]", i.Rule.LHS, rhs, i.Origin)
}

// ItemsAreTheSameRule reports whether every item in items shares the same
// RuleID (spec.md §4.1 "items_are_the_same_rule").
func ItemsAreTheSameRule(items []Item) bool {
	if len(items) == 0 {
		return true
	}
	id := items[0].Rule.ID
	for _, it := range items[1:] {
		if it.Rule.ID != id {
			return false
		}
	}
	return true
}

// RuleProvider is the subset of the grammar database (spec.md §6) that
// closure/follow computations need: rule lookup by non-terminal and
// recursion classification. Package grammar implements this interface;
// package item does not import package grammar, avoiding an import cycle
// (grammar needs item.Item for its NonTermFollowItems return type).
type RuleProvider interface {
	NonTermRules(nt symbol.Symbol) []*Rule
	RecursionType(nt symbol.Symbol) radlr.RecursionType
	NonTermFollowItems(nt symbol.Symbol) []Item
}

func newItemSet(items ...interface{}) *iteratable.Set {
	return iteratable.NewSet(0, items...)
}

// asItem unwraps a set element back into an Item (sets store
// interface{}).
func asItem(v interface{}) Item {
	return v.(Item)
}

// Closure computes the closure of a single item: the item itself plus the
// transitive expansion of every non-terminal found at a dot (spec.md
// §4.1 "closure"). Finite, because rule sets are finite.
func Closure(i Item, db RuleProvider) *iteratable.Set {
	S := newItemSet()
	S.Add(i)
	return ClosureSet(S, db)
}

// ClosureSet computes the closure of a set of items, exactly the way
// lr/tables.go's closureSet walks a growing iteratable.Set: items
// discovered by expanding a non-terminal at the dot are appended to the
// very set being iterated, so the iteration drains itself to completion.
func ClosureSet(S *iteratable.Set, db RuleProvider) *iteratable.Set {
	C := S.Copy()
	C.IterateOnce()
	for C.Next() {
		it := asItem(C.Item())
		A, ok := it.PeekSymbol()
		if !ok || !A.IsNonTerminal() {
			continue
		}
		for _, rule := range db.NonTermRules(A) {
			start := StartItem(rule)
			start.Goal = it.Goal
			start.OriginState = it.OriginState
			start.Lane = it.Lane
			if !C.Contains(start) {
				C.Add(start)
			}
		}
	}
	return C
}

// ClosureIterAlignWithLaneSplit behaves like Closure, but tags the first
// synthesized closure element (the first expansion of base's dot symbol)
// as having come from a goto origin. The non-terminal shift / goto-loop
// construction of package build uses this to mark items whose origin must
// be rewritten to Origin{Kind: OriginGoto} (spec.md §4.1, §4.5).
func ClosureIterAlignWithLaneSplit(base Item, db RuleProvider) []Item {
	set := Closure(base, db)
	values := set.Values()
	out := make([]Item, 0, len(values))
	first := true
	for _, v := range values {
		it := asItem(v)
		if it.Canonical() == base.Canonical() {
			out = append(out, it)
			continue
		}
		if first {
			it.FromGotoOrigin = true
			first = false
		}
		out = append(out, it)
	}
	return out
}

// FollowType selects the follow-computation variant used by C6's scanner
// completions (spec.md §4.5 "Scanner completions").
type FollowType uint8

const (
	FollowDefault FollowType = iota
	FollowScannerCompleted
)

// NodeProvider is the minimal view of the graph host's parent chain that
// Follow needs: kernel items of a node and its parent link. Package graph
// implements this; package item does not import package graph.
type NodeProvider interface {
	KernelItems(node radlr.NodeID) []Item
	Parent(node radlr.NodeID) (radlr.NodeID, bool)
	IsRoot(node radlr.NodeID) bool
}

// Follow walks item's origin_state parent chain to find kernel items that
// reduce item's non-terminal, incremented past the dot (spec.md §4.1
// "follow"). It returns the follow items found and, when a chain of
// completions was crossed, the intermediate completed items too. If
// item is not complete, Follow returns (nil, nil) — only complete items
// have a meaningful follow set.
//
// When the walk reaches the root, OOS follow items are injected from
// db.NonTermFollowItems, tagged OriginScanCompleteOOS when isScanner is
// set and OriginGoalCompleteOOS otherwise. This happens for parser and
// scanner graphs alike, and the item's scope is not checked.
func Follow(it Item, singleReductionOnly bool, ft FollowType, nodes NodeProvider, db RuleProvider, isScanner bool) (follow []Item, completed []Item) {
	if !it.IsComplete() {
		return nil, nil
	}
	return followRec(it, singleReductionOnly, ft, nodes, db, isScanner, make(map[radlr.NodeID]bool))
}

func followRec(it Item, singleReductionOnly bool, ft FollowType, nodes NodeProvider, db RuleProvider, isScanner bool, visited map[radlr.NodeID]bool) (follow []Item, completed []Item) {
	lhs := it.Rule.LHS
	node := it.OriginState
	if visited[node] {
		return nil, nil
	}
	visited[node] = true
	parent, hasParent := nodes.Parent(node)
	if !hasParent {
		if !isScanner && !nodes.IsRoot(node) {
			return nil, nil
		}
		// crossing the root: inject OOS follow items from the grammar DB,
		// unless the item is out of scope already.
		oosKind := OriginGoalCompleteOOS
		if isScanner {
			oosKind = OriginScanCompleteOOS
		}
		for _, fi := range db.NonTermFollowItems(lhs) {
			fi.Origin = Origin{Kind: oosKind}
			fi.OriginState = node
			follow = append(follow, fi)
		}
		return follow, completed
	}
	kernel := nodes.KernelItems(parent)
	for _, k := range kernel {
		sym, ok := k.PeekSymbol()
		if !ok || !sym.Equal(lhs) {
			continue
		}
		adv := k.Advance()
		if adv.IsNull() {
			continue
		}
		if adv.IsComplete() {
			completed = append(completed, adv)
			subFollow, subCompleted := followRec(adv, singleReductionOnly, ft, nodes, db, isScanner, visited)
			follow = append(follow, subFollow...)
			completed = append(completed, subCompleted...)
			if singleReductionOnly && len(subFollow) > 0 {
				return follow, completed
			}
			continue
		}
		follow = append(follow, adv)
		if singleReductionOnly {
			return follow, completed
		}
	}
	return follow, completed
}
