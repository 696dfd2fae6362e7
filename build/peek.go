package build

import (
	"sort"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/radlr-lang/radlr"
	"github.com/radlr-lang/radlr/graph"
	"github.com/radlr-lang/radlr/item"
)

// shouldPeek reports whether a transition group needs peek resolution:
// more than one conflicting resolving item, with peeking allowed and
// max_k > 1 (spec.md §4.6).
func (d *Driver) shouldPeek(g *TransitionGroup) bool {
	return len(distinctResolutions(g)) > 1 && d.Config.AllowPeeking && d.Config.MaxK > 1
}

// distinctResolutions groups a transition group's pairs by the rule
// they resolve to, which stands in for "conflicting resolutions" when
// more than one rule is represented.
func distinctResolutions(g *TransitionGroup) map[radlr.RuleID][]TransitionPair {
	out := make(map[radlr.RuleID][]TransitionPair)
	for _, p := range g.Pairs {
		out[p.Item.Rule.ID] = append(out[p.Item.Rule.ID], p)
	}
	return out
}

// handlePeekIncomplete implements spec.md §4.6's peek-state construction
// for a transition group discovered while the current node is already a
// Peek state: bump the peek level, or resolve if the group collapses to
// a single winner.
func (d *Driver) handlePeekIncomplete(node *graph.Node, g *TransitionGroup) ([]*graph.StagedNode, error) {
	if !d.shouldPeek(g) {
		next := incrementPairs(g)
		sn := d.Host.NewState(node.ID, graph.Normal, g.Symbol, graph.StateShift, next)
		return []*graph.StagedNode{sn}, nil
	}
	return d.buildPeekState(node, g)
}

// buildPeekState implements spec.md §4.6 steps 1–4. Step 1 calls for "a
// fresh peek key per distinct set of resolving kernel items", so this
// assigns one key per rule represented in g (via distinctResolutions)
// rather than a single key for the whole group — that per-candidate key
// is what later lets handle_peek_complete_groups tell candidates apart.
// Incomplete items under a rule advance past the dot under
// Peek(key, node_id) origin; completed items under a rule contribute
// their follow items, filtered against the incomplete set, under the
// same key. The peek level advances, failing with MaxKExceeded if it
// would exceed max_k.
func (d *Driver) buildPeekState(node *graph.Node, g *TransitionGroup) ([]*graph.StagedNode, error) {
	level := node.PeekLevel + 1
	if level > d.Config.MaxK {
		return nil, radlr.NewBuildError(radlr.ErrMaxKExceeded, g.Symbol.Name, g.Symbol.String(), "peek level would exceed max_k")
	}

	byRule := distinctResolutions(g)
	ruleIDs := make([]radlr.RuleID, 0, len(byRule))
	for id := range byRule {
		ruleIDs = append(ruleIDs, id)
	}
	sort.Slice(ruleIDs, func(i, j int) bool { return ruleIDs[i] < ruleIDs[j] })

	var kernel []item.Item
	incompleteSeen := make(map[item.CanonicalKey]bool)
	for _, ruleID := range ruleIDs {
		pairs := byRule[ruleID]
		resolving := make([]item.Item, 0, len(pairs))
		for _, p := range pairs {
			resolving = append(resolving, p.Item)
		}
		key := d.Host.SetPeekResolveState(node.ID, resolving)

		var completed []item.Item
		for _, p := range pairs {
			if p.Item.IsComplete() {
				completed = append(completed, p.Item)
				continue
			}
			next := p.Item.Advance()
			next.Origin = item.Origin{Kind: item.OriginPeek, PeekKey: key, PeekState: node.ID}
			kernel = append(kernel, next)
			incompleteSeen[next.Canonical()] = true
		}
		for _, it := range completed {
			follow, _ := item.Follow(it, true, item.FollowDefault, d.Host, d.DB, d.isScan)
			for _, f := range follow {
				if incompleteSeen[f.Canonical()] {
					continue
				}
				f.Origin = item.Origin{Kind: item.OriginPeek, PeekKey: key, PeekState: node.ID}
				kernel = append(kernel, f)
				incompleteSeen[f.Canonical()] = true
			}
		}
	}

	d.class.PeeksPresent = true
	if level > d.class.MaxK {
		d.class.MaxK = level
	}

	sn := d.Host.NewState(node.ID, graph.PeekState, g.Symbol, graph.StatePeek, kernel)
	sn.PeekLevel = level
	return []*graph.StagedNode{sn}, nil
}

// peekResolveSets buckets every item currently in play at a Peek-state
// node — both the completed Default group and every still-incomplete
// symbol group — by the peek key its Origin carries, giving
// handlePeekCompleteGroups the full "resolve set" spec.md §4.6 asks it
// to classify (a candidate with both a completed and an incomplete item
// under the same key is still "has some incomplete item", not settled).
func peekResolveSets(groups *linkedhashmap.Map, def *TransitionGroup) map[uint64][]item.Item {
	out := make(map[uint64][]item.Item)
	add := func(g *TransitionGroup) {
		for _, p := range g.Pairs {
			if p.Item.Origin.Kind != item.OriginPeek {
				continue
			}
			out[p.Item.Origin.PeekKey] = append(out[p.Item.Origin.PeekKey], p.Item)
		}
	}
	if def != nil {
		add(def)
	}
	it := groups.Iterator()
	for it.Next() {
		if it.Key() == completionGroupKey {
			continue
		}
		add(it.Value().(*TransitionGroup))
	}
	return out
}

// handlePeekCompleteGroups implements spec.md §4.6 "Resolving a peek":
// classify resolve candidates by OOS/completed/incomplete membership
// and emit either a PeekEndComplete re-entry, or a single
// shift/reduce resolution, or raise AmbiguityRequiresFork.
func (d *Driver) handlePeekCompleteGroups(node *graph.Node, resolveSets map[uint64][]item.Item) ([]*graph.StagedNode, error) {
	if len(resolveSets) == 0 {
		return nil, nil
	}

	if len(resolveSets) == 1 {
		for key, items := range resolveSets {
			sn := d.Host.NewState(node.ID, graph.LeafState, node.Symbol, graph.StatePeekEndComplete, items)
			sn.TokenID = radlr.SymbolID(key)
			sn.MakeEnqueuedLeaf()
			return []*graph.StagedNode{sn}, nil
		}
	}

	keys := make([]uint64, 0, len(resolveSets))
	for key := range resolveSets {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	incompleteWinners := linkedhashmap.New()
	completeWinners := linkedhashmap.New()
	for _, key := range keys {
		items := resolveSets[key]
		allOOS, allComplete, anyIncomplete := classifyResolveSet(items)
		switch {
		case allOOS:
			continue
		case anyIncomplete:
			incompleteWinners.Put(key, items)
		case allComplete:
			completeWinners.Put(key, items)
		}
	}

	if incompleteWinners.Size() == 1 {
		it := incompleteWinners.Values()[0].([]item.Item)
		sn := d.Host.NewState(node.ID, graph.Normal, node.Symbol, graph.StateShift, incrementAll(it))
		return []*graph.StagedNode{sn}, nil
	}
	if incompleteWinners.Size() == 0 && completeWinners.Size() == 1 {
		items := completeWinners.Values()[0].([]item.Item)
		return []*graph.StagedNode{d.reduceState(node, items[0])}, nil
	}

	if d.Config.AllowContextSplitting {
		return d.emitForkChildren(node, resolveSets)
	}
	return nil, radlr.NewBuildError(radlr.ErrAmbiguityRequiresFork, node.Symbol.Name, "", "multiple peek resolutions survive and context splitting is disabled")
}

func classifyResolveSet(items []item.Item) (allOOS, allComplete, anyIncomplete bool) {
	allOOS, allComplete = true, true
	for _, it := range items {
		if it.Origin.Kind != item.OriginGoalCompleteOOS && it.Origin.Kind != item.OriginScanCompleteOOS {
			allOOS = false
		}
		if it.IsComplete() {
			continue
		}
		allComplete = false
		anyIncomplete = true
	}
	return
}

func incrementAll(items []item.Item) []item.Item {
	out := make([]item.Item, 0, len(items))
	for _, it := range items {
		if it.IsComplete() {
			out = append(out, it)
			continue
		}
		out = append(out, it.Advance())
	}
	return out
}
