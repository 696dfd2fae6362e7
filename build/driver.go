/*
Package build implements the builder driver (spec.md §4.4–§4.7): the
main `handle_kernel_items` dispatch loop that drains a graph host's
pending queue, computing transition groups from item closures and
emitting Shift/Reduce/Call/Goto/Peek/Fork states accordingly.

Grouping uses github.com/emirpasic/gods/maps/linkedhashmap wherever
grouping order must be deterministic and reproducible independent of
map iteration (spec.md §5 "Determinism") — mirroring how the teacher
package reaches for gods container types (lr/glr.go's use of
gods/sets/treeset for its active-stack frontier) rather than hand-rolled
ordered maps.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2026 The Radlr Authors
*/
package build

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/npillmayer/schuko/tracing"
	"github.com/radlr-lang/radlr"
	"github.com/radlr-lang/radlr/graph"
	"github.com/radlr-lang/radlr/grammar"
	"github.com/radlr-lang/radlr/item"
	"github.com/radlr-lang/radlr/symbol"
)

// tracer traces with key 'radlr.build'.
func tracer() tracing.Trace {
	return tracing.Select("radlr.build")
}

// TransitionPair is a single (item, symbol-at-dot) pairing discovered
// while computing a kernel's firsts (spec.md §3 "Transition Pair").
type TransitionPair struct {
	Item      item.Item
	Symbol    symbol.Symbol
	Kernel    item.Item // the originating kernel item, pre-closure
	IsScanner bool
}

// TransitionGroup is one entry of GroupedFirsts: the symbol, the
// strongest precedence observed among its pairs, and the pairs
// themselves.
type TransitionGroup struct {
	Symbol   symbol.Symbol
	MaxPrec  uint16
	Pairs    []TransitionPair
}

// Driver runs the builder dispatch loop against a single graph host for
// a single non-terminal's private compile task (spec.md §5: each worker
// owns a private graph host and journal).
type Driver struct {
	DB     grammar.DB
	Host   *graph.Host
	Config radlr.ParserConfig

	class  radlr.Classification
	errs   []error
	isScan bool
}

// NewDriver creates a driver over host using db and config. isScanner
// selects the scanner-graph variant of completions/goto handling
// (spec.md §4.5 "Scanner completions", §4.7 "handle_scanner_items").
func NewDriver(db grammar.DB, host *graph.Host, config radlr.ParserConfig, isScanner bool) *Driver {
	return &Driver{DB: db, Host: host, Config: config, isScan: isScanner}
}

// Classification returns the classification accumulated so far.
func (d *Driver) Classification() radlr.Classification { return d.class }

// Errors returns the fatal errors raised while draining the queue. Run
// stops at the first one, so this holds at most one error; a driver
// serves one non-terminal's task, so the error ends only this driver's
// Run.
func (d *Driver) Errors() []error { return d.errs }

// Run drains the host's pending queue until empty or a fatal error is
// raised, calling handleKernelItems for each popped node (spec.md §4.4).
func (d *Driver) Run() error {
	for {
		id, ok := d.Host.PopPending()
		if !ok {
			return nil
		}
		if err := d.handleKernelItems(id); err != nil {
			d.errs = append(d.errs, err)
			return err
		}
	}
}

// handleKernelItems is spec.md §4.4's eight-step per-node pipeline.
func (d *Driver) handleKernelItems(id radlr.NodeID) error {
	node := d.Host.Node(id)
	tracer().Debugf("handle_kernel_items node=%d kernel=%d", id, len(node.KernelItems))

	groups := d.groupedFirsts(node)

	if d.Config.AllowContextSplitting {
		consumed, err := d.handleFork(node, groups)
		if err != nil {
			return err
		}
		if consumed {
			return nil
		}
	}

	var staged []*graph.StagedNode

	if d.Config.AllowCSTNonTermShift && node.Build == graph.Normal {
		staged = append(staged, d.cstActions(node)...)
	}

	def, hasCompletions := groups.Get(completionGroupKey)

	if node.Build == graph.PeekState && !d.isScan && hasCompletions {
		// Spec.md §4.6 "Resolving a peek": once any candidate completes at
		// a Peek node, the whole node's fate is decided by classifying
		// every candidate's current items (completed and still-incomplete
		// alike) rather than by the ordinary completions/incomplete split.
		resolveSets := peekResolveSets(groups, def.(*TransitionGroup))
		s, err := d.handlePeekCompleteGroups(node, resolveSets)
		if err != nil {
			return err
		}
		staged = append(staged, s...)
	} else {
		if hasCompletions {
			s, err := d.handleCompletions(node, def.(*TransitionGroup))
			if err != nil {
				return err
			}
			staged = append(staged, s...)
		}
		groups.Remove(completionGroupKey)

		if d.isScan {
			groups = d.handleScannerItems(groups)
		}

		it := groups.Iterator()
		for it.Next() {
			g := it.Value().(*TransitionGroup)
			var s []*graph.StagedNode
			var err error
			if node.Build == graph.PeekState {
				s, err = d.handlePeekIncomplete(node, g)
			} else {
				s, err = d.handleRegularIncomplete(node, g)
			}
			if err != nil {
				return err
			}
			staged = append(staged, s...)
		}
	}

	updateGotos := false
	if !d.isScan && node.Build != graph.PeekState && d.Config.AllowLR {
		gotoStaged, err := d.buildGotoLoop(node)
		if err != nil {
			return err
		}
		staged = append(staged, gotoStaged...)
		updateGotos = len(gotoStaged) > 0
	}

	queued := d.Host.Commit(id, staged, updateGotos, true)
	if queued == 0 && node.Build == graph.PeekState && node.PeekLevel > 0 {
		return radlr.NewBuildError(radlr.ErrNonDeterministicPeek, node.Symbol.Name, "", "no successor produced at peek level > 0")
	}
	return nil
}

// completionGroupKey is the sentinel key GroupedFirsts files complete
// items under (spec.md §4.4 step 1's "Default" group).
const completionGroupKey = "__default__"

// groupedFirsts computes spec.md §4.4 step 1: closing each kernel item
// and grouping its transition by the symbol at the dot (or the Default
// group, for complete items). Returned as a linkedhashmap so subsequent
// iteration is in first-discovered order, not Go's randomized map order.
func (d *Driver) groupedFirsts(node *graph.Node) *linkedhashmap.Map {
	groups := linkedhashmap.New()
	add := func(key interface{}, pair TransitionPair, prec uint16) {
		var g *TransitionGroup
		if v, ok := groups.Get(key); ok {
			g = v.(*TransitionGroup)
		} else {
			g = &TransitionGroup{Symbol: pair.Symbol}
			groups.Put(key, g)
		}
		g.Pairs = append(g.Pairs, pair)
		if prec > g.MaxPrec {
			g.MaxPrec = prec
		}
	}
	for _, kernel := range node.KernelItems {
		closure := item.Closure(kernel, d.DB)
		for _, v := range closure.Values() {
			it := v.(item.Item)
			if it.IsComplete() {
				add(completionGroupKey, TransitionPair{Item: it, Kernel: kernel, IsScanner: d.isScan}, 0)
				continue
			}
			sym, _ := it.PeekSymbol()
			add(sym.Value, TransitionPair{Item: it, Symbol: sym, Kernel: kernel, IsScanner: d.isScan}, sym.Precedence())
		}
	}
	return groups
}

// cstActions implements spec.md §4.4 step 3: emit a CSTNodeAccept leaf
// for every kernel item whose dot sits on a non-terminal, when
// ALLOW_CST_NONTERM_SHIFT is set and the node is in Normal build state.
func (d *Driver) cstActions(node *graph.Node) []*graph.StagedNode {
	var out []*graph.StagedNode
	for _, kernel := range node.KernelItems {
		sym, ok := kernel.PeekSymbol()
		if !ok || !sym.IsNonTerminal() {
			continue
		}
		sn := d.Host.NewState(node.ID, graph.LeafState, sym, graph.StateCSTNodeAccept, []item.Item{kernel})
		sn.MakeLeaf()
		out = append(out, sn)
	}
	return out
}
