package build

import (
	"sort"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/radlr-lang/radlr"
	"github.com/radlr-lang/radlr/graph"
	"github.com/radlr-lang/radlr/item"
	"github.com/radlr-lang/radlr/symbol"
)

// handleFork implements spec.md §4.7 "handle_fork": only invoked when
// ALLOW_CONTEXT_SPLITTING. It returns true iff it consumed the node —
// i.e. the kernel has irreducible ambiguity peek cannot handle, so a
// distinct Fork child is emitted per kernel partition and the normal
// dispatch steps are skipped for this node.
//
// Per DESIGN.md's Open Question decision 3 (spec.md §9, third
// bullet), this always uses the ALLOW_CONTEXT_SPLITTING-gated path —
// the disabled `&& false` variant mentioned in source is not
// reproduced here.
func (d *Driver) handleFork(node *graph.Node, groups *linkedhashmap.Map) (bool, error) {
	if def, ok := groups.Get(completionGroupKey); ok {
		g := def.(*TransitionGroup)
		partitions := partitionByRule(g)
		if len(partitions) > 1 && !allResolvableByLookahead(partitions) {
			staged, err := d.emitForkPartitions(node, partitions)
			if err != nil {
				return false, err
			}
			d.Host.Commit(node.ID, staged, false, true)
			return true, nil
		}
	}
	return false, nil
}

// partitionByRule groups a transition group's completed pairs by the
// rule they would reduce, the irreducible-ambiguity signal handleFork
// checks for (distinct rules reducing the same handle with no
// lookahead to distinguish them).
func partitionByRule(g *TransitionGroup) map[uint32][]item.Item {
	out := make(map[uint32][]item.Item)
	for _, p := range g.Pairs {
		out[uint32(p.Item.Rule.ID)] = append(out[uint32(p.Item.Rule.ID)], p.Item)
	}
	return out
}

// allResolvableByLookahead reports whether the partitions, despite
// being distinct rules, can still be told apart by a one-token follow
// set — in which case ordinary peek handling (not fork) applies.
func allResolvableByLookahead(partitions map[uint32][]item.Item) bool {
	seen := make(map[radlr.SymbolID]bool)
	for _, items := range partitions {
		for _, it := range items {
			sym, ok := it.PeekSymbol()
			if !ok {
				return false
			}
			if seen[sym.Value] {
				return false
			}
			seen[sym.Value] = true
		}
	}
	return true
}

// emitForkPartitions emits one Fork child state per kernel partition
// found in handleFork (spec.md §4.7: "For each distinct kernel
// partition, emit a child state of type Fork").
func (d *Driver) emitForkPartitions(node *graph.Node, partitions map[uint32][]item.Item) ([]*graph.StagedNode, error) {
	var out []*graph.StagedNode
	for _, items := range partitions {
		sn := d.Host.NewState(node.ID, graph.Normal, node.Symbol, graph.StateFork, items)
		out = append(out, sn)
		d.class.ForksPresent = true
	}
	return out, nil
}

// emitForkChildren is the peek-resolution fallback of spec.md §4.6's
// last paragraph: when multiple winners remain after classifying a
// peek's resolve sets, fork per surviving candidate.
func (d *Driver) emitForkChildren(node *graph.Node, resolveSets map[uint64][]item.Item) ([]*graph.StagedNode, error) {
	keys := make([]uint64, 0, len(resolveSets))
	for key := range resolveSets {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var out []*graph.StagedNode
	for _, key := range keys {
		sn := d.Host.NewState(node.ID, graph.Normal, node.Symbol, graph.StateFork, resolveSets[key])
		out = append(out, sn)
		d.class.ForksPresent = true
	}
	return out, nil
}

// handleScannerItems implements spec.md §4.7 "handle_scanner_items":
// drop groups whose strongest precedence is below the overall max, as
// ordered by symbol.ComparePrecedence (under which only a zero
// precedence never dominates; symbol.CustomTokenBaseline is not
// consulted), then fold occluding groups together.
func (d *Driver) handleScannerItems(groups *linkedhashmap.Map) *linkedhashmap.Map {
	maxPrec := uint16(0)
	it := groups.Iterator()
	for it.Next() {
		g := it.Value().(*TransitionGroup)
		if symbol.ComparePrecedence(g.MaxPrec, maxPrec) > 0 {
			maxPrec = g.MaxPrec
		}
	}

	filtered := linkedhashmap.New()
	it = groups.Iterator()
	for it.Next() {
		g := it.Value().(*TransitionGroup)
		if symbol.ComparePrecedence(g.MaxPrec, maxPrec) < 0 {
			continue
		}
		filtered.Put(it.Key(), g)
	}

	return mergeOccluding(filtered)
}

// mergeOccluding folds groups whose symbol occludes (or is occluded by)
// another remaining group's symbol into a single group, per spec.md
// §4.2 / §4.7.
func mergeOccluding(groups *linkedhashmap.Map) *linkedhashmap.Map {
	keys := groups.Keys()
	merged := make(map[interface{}]bool)
	out := linkedhashmap.New()

	for _, k := range keys {
		if merged[k] {
			continue
		}
		gv, _ := groups.Get(k)
		g := gv.(*TransitionGroup)
		for _, k2 := range keys {
			if k2 == k || merged[k2] {
				continue
			}
			gv2, _ := groups.Get(k2)
			g2 := gv2.(*TransitionGroup)
			if symbol.Occludes(g.Symbol, g2.Symbol) || symbol.Occludes(g2.Symbol, g.Symbol) {
				g.Pairs = append(g.Pairs, g2.Pairs...)
				merged[k2] = true
			}
		}
		out.Put(k, g)
	}
	return out
}
