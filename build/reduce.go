package build

import (
	"github.com/cnf/structhash"
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/radlr-lang/radlr"
	"github.com/radlr-lang/radlr/graph"
	"github.com/radlr-lang/radlr/item"
	"github.com/radlr-lang/radlr/symbol"
)

// handleCompletions implements spec.md §4.4 step 4, dispatching the
// Default group computed by groupedFirsts to either the parser-side
// "Regular complete" handler (§4.5) or the scanner-side "Scanner
// completions" handler (§4.5 "Scanner completions"), depending on
// whether this driver is building a scanner graph.
func (d *Driver) handleCompletions(node *graph.Node, def *TransitionGroup) ([]*graph.StagedNode, error) {
	if len(def.Pairs) == 0 {
		return nil, nil
	}
	if d.isScan {
		return d.handleScannerCompletions(node, def)
	}
	return d.handleRegularComplete(node, def)
}

// handleRegularComplete implements spec.md §4.5 "Regular complete".
func (d *Driver) handleRegularComplete(node *graph.Node, def *TransitionGroup) ([]*graph.StagedNode, error) {
	items := completedItems(def)
	if len(items) == 1 {
		return []*graph.StagedNode{d.reduceState(node, items[0])}, nil
	}

	if item.ItemsAreTheSameRule(items) {
		return []*graph.StagedNode{d.reduceState(node, items[0])}, nil
	}

	// Group by the resolving symbol of each item's follow set; items with
	// no usable lookahead (EOI-complete) fall back to a default reduction.
	type bucket struct {
		sym   symbol.Symbol
		items []item.Item
	}
	bySymbol := linkedhashmap.New()
	var eoiComplete []item.Item
	for _, it := range items {
		follow, _ := item.Follow(it, true, item.FollowDefault, d.Host, d.DB, d.isScan)
		if len(follow) == 0 {
			eoiComplete = append(eoiComplete, it)
			continue
		}
		for _, f := range follow {
			sym, ok := f.PeekSymbol()
			if !ok {
				continue
			}
			b := bucket{sym: sym}
			if v, ok := bySymbol.Get(sym.Value); ok {
				b = v.(bucket)
			}
			b.items = append(b.items, it)
			bySymbol.Put(sym.Value, b)
		}
	}

	var out []*graph.StagedNode
	it := bySymbol.Iterator()
	for it.Next() {
		b := it.Value().(bucket)
		if d.Config.AllowPeeking && d.Config.MaxK > 1 && !item.ItemsAreTheSameRule(b.items) {
			staged, err := d.buildPeekState(node, &TransitionGroup{Symbol: b.sym, Pairs: pairsOf(b.items)})
			if err != nil {
				return nil, err
			}
			out = append(out, staged...)
			continue
		}
		out = append(out, d.reduceState(node, b.items[0]))
	}
	for _, it := range eoiComplete {
		out = append(out, d.reduceState(node, it))
	}
	return out, nil
}

// pairsOf wraps completed items as TransitionPair so a reduce/reduce
// conflict's candidates can be handed to buildPeekState the same way a
// shift/shift conflict's group is.
func pairsOf(items []item.Item) []TransitionPair {
	out := make([]TransitionPair, len(items))
	for i, it := range items {
		out[i] = TransitionPair{Item: it}
	}
	return out
}

// reduceState builds the Reduce(rule, pop_count) state for a single
// reducing item, with pop_count = goto_distance - from_goto_origin
// (spec.md §4.5, Testable Property 3).
func (d *Driver) reduceState(node *graph.Node, it item.Item) *graph.StagedNode {
	pop := int(it.GotoDistance)
	if it.FromGotoOrigin {
		pop--
	}
	if pop < 0 {
		pop = 0
	}
	sn := d.Host.NewState(node.ID, graph.Normal, it.Rule.LHS, graph.StateReduce, []item.Item{it})
	sn.RuleID = it.Rule.ID
	sn.PopCount = uint16(pop)
	sn.MakeLeaf()
	return sn
}

func completedItems(def *TransitionGroup) []item.Item {
	out := make([]item.Item, 0, len(def.Pairs))
	for _, p := range def.Pairs {
		out = append(out, p.Item)
	}
	return out
}

// handleScannerCompletions implements spec.md §4.5 "Scanner
// completions": for each completed kernel, compute its follow and
// completed-item sets via Follow(..., FollowScannerCompleted), then
// select a state type from the (is_continue, completes_goal) table.
func (d *Driver) handleScannerCompletions(node *graph.Node, def *TransitionGroup) ([]*graph.StagedNode, error) {
	var out []*graph.StagedNode
	for _, it := range completedItems(def) {
		follow, completed := item.Follow(it, false, item.FollowScannerCompleted, d.Host, d.DB, true)
		isContinue := len(follow) > 0
		completesGoal := hasTerminalGoal(completed) || it.Origin.Kind == item.OriginTerminalGoal

		var st graph.StateType
		switch {
		case isContinue && completesGoal:
			st = graph.StateAssignAndFollow
		case !isContinue && completesGoal:
			st = graph.StateAssignToken
		case isContinue && !completesGoal:
			st = graph.StateFollow
		default:
			st = graph.StateCompleteToken
		}

		sn := d.Host.NewState(node.ID, graph.Normal, it.Rule.LHS, st, append([]item.Item{it}, follow...))
		sn.FollowHash = followHash(completed)
		if st == graph.StateAssignToken || st == graph.StateAssignAndFollow {
			sn.TokenID = it.Origin.Tok.Value
		}
		if !isContinue {
			sn.MakeLeaf()
		} else {
			sn.MakeEnqueuedLeaf()
		}
		out = append(out, sn)
	}
	return out, nil
}

func hasTerminalGoal(items []item.Item) bool {
	for _, it := range items {
		if it.Origin.Kind == item.OriginTerminalGoal {
			return true
		}
	}
	return false
}

// followHash hashes completed items' (rule_index, from, origin) triples
// so the graph host can deduplicate Follow states (spec.md §4.5
// "follow_hash").
func followHash(items []item.Item) uint64 {
	type triple struct {
		Rule   radlr.RuleID
		Dot    uint16
		Origin item.OriginKind
	}
	triples := make([]triple, len(items))
	for i, it := range items {
		triples[i] = triple{Rule: it.Rule.ID, Dot: it.Dot, Origin: it.Origin.Kind}
	}
	h, err := structhash.Hash(triples, 1)
	if err != nil {
		return 0
	}
	var sum uint64
	for i := 0; i < len(h); i++ {
		sum = sum*131 + uint64(h[i])
	}
	return sum
}
