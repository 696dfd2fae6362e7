package build

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/radlr-lang/radlr"
	"github.com/radlr-lang/radlr/graph"
	"github.com/radlr-lang/radlr/item"
	"github.com/radlr-lang/radlr/symbol"
)

// buildGotoLoop implements spec.md §4.5 "Non-terminal shift (Goto
// loop)": produces a NonTerminalShiftLoop state per target non-terminal
// reachable from the kernel's non-terminal-at-dot items, plus
// NonTerminalComplete leaves for kernel non-terminals that weren't
// targeted, and (for left-recursive goals at root) OOS follow-item
// injection.
func (d *Driver) buildGotoLoop(node *graph.Node) ([]*graph.StagedNode, error) {
	ntermItems := d.collectNontermItems(node)
	if len(ntermItems) == 0 {
		return nil, nil
	}

	groups := linkedhashmap.New()
	for _, it := range ntermItems {
		sym, ok := it.PeekSymbol()
		if !ok || !sym.IsNonTerminal() {
			continue
		}
		var bucket []item.Item
		if v, ok := groups.Get(sym.Value); ok {
			bucket = v.([]item.Item)
		}
		bucket = append(bucket, it)
		groups.Put(sym.Value, bucket)
	}

	atRoot := node.ID == node.Root
	var out []*graph.StagedNode
	targeted := make(map[radlr.SymbolID]bool)

	it := groups.Iterator()
	for it.Next() {
		bucket := it.Value().([]item.Item)
		nt := firstNonTermSymbol(bucket)
		targeted[nt.Value] = true

		next := make([]item.Item, 0, len(bucket))
		for _, k := range bucket {
			next = append(next, k.Advance())
		}

		hasCompleted := false
		for _, n := range next {
			if n.IsComplete() {
				hasCompleted = true
				break
			}
		}

		if atRoot && d.DB.RecursionType(nt) == radlr.RecursionLeftDirect && !hasCompleted {
			for _, f := range d.DB.NonTermFollowItems(nt) {
				if containsNonTerm(next, f) {
					continue
				}
				f.Origin = item.Origin{Kind: item.OriginGoalCompleteOOS, NonTerm: nt}
				f.OriginState = node.Root
				next = append(next, f)
			}
		}

		sn := d.Host.NewState(node.ID, graph.NormalGoto, nt, graph.StateNonTerminalShiftLoop, next)
		d.class.GotosPresent = true
		out = append(out, sn)

		if atRoot && d.isGoalNonTerm(nt) && !hasCompleted {
			leaf := d.Host.NewState(node.ID, graph.LeafState, nt, graph.StateNonTermCompleteOOS, nil)
			leaf.MakeLeaf()
			out = append(out, leaf)
		}
	}

	for _, k := range node.KernelItems {
		sym, ok := k.PeekSymbol()
		if !ok || !sym.IsNonTerminal() || targeted[sym.Value] {
			continue
		}
		leaf := d.Host.NewState(node.ID, graph.LeafState, sym, graph.StateNonTerminalComplete, []item.Item{k})
		leaf.MakeLeaf()
		out = append(out, leaf)
	}

	return out, nil
}

// collectNontermItems computes spec.md §4.5's `nterm_items`: the union
// of kernel items with a non-terminal at the dot, and the closure of
// each incomplete kernel filtered to non-terminal-at-dot items, with
// non-kernel items stamped origin=Goto(current) and tagged goto_origin.
func (d *Driver) collectNontermItems(node *graph.Node) []item.Item {
	var out []item.Item
	seen := make(map[item.CanonicalKey]bool)
	add := func(it item.Item) {
		key := it.Canonical()
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, it)
	}

	for _, k := range node.KernelItems {
		sym, ok := k.PeekSymbol()
		if ok && sym.IsNonTerminal() {
			add(k)
		}
		if k.IsComplete() {
			continue
		}
		for _, closed := range item.ClosureIterAlignWithLaneSplit(k, d.DB) {
			csym, ok := closed.PeekSymbol()
			if !ok || !csym.IsNonTerminal() {
				continue
			}
			if closed.Canonical() == k.Canonical() {
				add(closed)
				continue
			}
			closed.Origin = item.Origin{Kind: item.OriginGoto, GotoState: node.ID}
			closed.FromGotoOrigin = true
			add(closed)
		}
	}
	return out
}

func firstNonTermSymbol(items []item.Item) symbol.Symbol {
	sym, _ := items[0].PeekSymbol()
	return sym
}

func containsNonTerm(items []item.Item, target item.Item) bool {
	for _, it := range items {
		if it.Canonical() == target.Canonical() {
			return true
		}
	}
	return false
}

// isGoalNonTerm reports whether nt is one of the grammar's exported
// entry-point non-terminals (spec.md §4.5: "the target is a goal
// non-terminal").
func (d *Driver) isGoalNonTerm(nt symbol.Symbol) bool {
	for _, ep := range d.DB.EntryPoints() {
		if ep.NonTerm.Equal(nt) {
			return true
		}
	}
	return false
}
