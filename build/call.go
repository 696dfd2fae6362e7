package build

import (
	"github.com/radlr-lang/radlr"
	"github.com/radlr-lang/radlr/graph"
	"github.com/radlr-lang/radlr/item"
	"github.com/radlr-lang/radlr/symbol"
)

// CallResult is the outcome of create_call: either a KernelCall or an
// InternalCall state, with the incremented kernel items it should carry
// (spec.md §4.5 "create_call").
type CallResult struct {
	Type  graph.StateType
	NT    symbol.Symbol
	Items []item.Item
}

// handleRegularIncomplete implements spec.md §4.5 "Regular incomplete"
// for a single-symbol transition group: either a call (KernelCall or
// InternalCall), a peek (when the group's pairs disagree on which rule
// resolves it, spec.md §4.6), or a plain Shift.
func (d *Driver) handleRegularIncomplete(node *graph.Node, g *TransitionGroup) ([]*graph.StagedNode, error) {
	if !d.isScan && d.shouldPeek(g) {
		return d.buildPeekState(node, g)
	}

	if g.Symbol.IsNonTerminal() && (d.Config.AllowCalls || d.isScan) && allPairsCallAtDot(g) {
		if res := d.createCall(node, g); res != nil {
			d.class.CallsPresent = true
			next := res.Items
			sn := d.Host.NewState(node.ID, graph.Normal, res.NT, res.Type, next)
			return []*graph.StagedNode{sn}, nil
		}
		if !d.Config.AllowLR {
			return nil, radlr.NewBuildError(radlr.ErrLeftRecursionWithoutLR, g.Symbol.Name, g.Symbol.String(), "call path blocked by left recursion and ALLOW_LR is false")
		}
	}

	next := incrementPairs(g)
	sn := d.Host.NewState(node.ID, graph.Normal, g.Symbol, graph.StateShift, next)
	return []*graph.StagedNode{sn}, nil
}

// allPairsCallAtDot reports whether every pair in g targets a
// non-terminal at the dot (spec.md §4.5: "If all pairs are a
// non-terminal call at the dot").
func allPairsCallAtDot(g *TransitionGroup) bool {
	for _, p := range g.Pairs {
		sym, ok := p.Item.PeekSymbol()
		if !ok || !sym.IsNonTerminal() {
			return false
		}
	}
	return len(g.Pairs) > 0
}

// incrementPairs advances every pair's item past the dot, the "next_item
// set from the group, incremented" of spec.md §4.5.
func incrementPairs(g *TransitionGroup) []item.Item {
	out := make([]item.Item, 0, len(g.Pairs))
	for _, p := range g.Pairs {
		out = append(out, p.Item.Advance())
	}
	return out
}

// createCall implements spec.md §4.5 "create_call(group, sym) →
// Option<CallResult>":
//   - if all kernels are at the same non-terminal and it is not
//     left-recursive, emit KernelCall(nt) with incremented items;
//   - else, if ALLOW_LR, look for a Goal non-terminal shared by every
//     pair that is not left-recursive (climbForAncestor) and emit
//     InternalCall(nt) with the pairs' incremented items;
//   - otherwise, no call (caller falls back to Shift, or raises
//     LeftRecursionWithoutLR).
func (d *Driver) createCall(node *graph.Node, g *TransitionGroup) *CallResult {
	nt := g.Symbol
	if d.DB.RecursionType(nt) == radlr.RecursionNone || d.DB.RecursionType(nt) == radlr.RecursionRight {
		return &CallResult{Type: graph.StateCallKernel, NT: nt, Items: incrementPairs(g)}
	}
	if !d.Config.AllowLR {
		return nil
	}
	if nt, items, ok := d.climbForAncestor(node, g); ok {
		return &CallResult{Type: graph.StateCallInternal, NT: nt, Items: items}
	}
	return nil
}

// climbForAncestor checks whether every pair carries the same Goal
// non-terminal and that Goal is not left-recursive; if so it returns
// that Goal with the pairs' incremented items. Only the pairs' own Goal
// is examined: no further ancestors in the closure chain are searched.
func (d *Driver) climbForAncestor(node *graph.Node, g *TransitionGroup) (symbol.Symbol, []item.Item, bool) {
	if len(g.Pairs) == 0 {
		return symbol.Symbol{}, nil, false
	}
	candidate := g.Pairs[0].Item.Goal
	for _, p := range g.Pairs[1:] {
		if !p.Item.Goal.Equal(candidate) {
			return symbol.Symbol{}, nil, false
		}
	}
	rt := d.DB.RecursionType(candidate)
	if rt == radlr.RecursionLeftDirect || rt == radlr.RecursionLeftIndirect {
		return symbol.Symbol{}, nil, false
	}
	return candidate, incrementPairs(g), true
}
