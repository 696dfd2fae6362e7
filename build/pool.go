package build

import (
	"context"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"github.com/radlr-lang/radlr"
	"github.com/radlr-lang/radlr/graph"
	"github.com/radlr-lang/radlr/grammar"
	"github.com/radlr-lang/radlr/item"
	"github.com/radlr-lang/radlr/symbol"
)

// Result is one non-terminal's compiled parser graph, returned from a
// worker task and merged into the shared states map after completion
// (spec.md §5).
type Result struct {
	NonTerm symbol.Symbol
	Host    *graph.Host
	Class   radlr.Classification
	RunID   uuid.UUID
}

// ScannerSeed is one scanner-graph compile task discovered while
// compiling a parser graph, queued for the second parallel pass
// (spec.md §5: "Scanner compilation is a subsequent pass").
type ScannerSeed struct {
	Token  symbol.Symbol
	Kernel []item.Item
}

// CompileAll runs the builder driver once per entry-point non-terminal,
// sharded across a worker pool sized max(1, min(requested,
// host_cores)), then compiles the scanner seeds discovered along the
// way in a second pass (spec.md §5). Each worker owns a private graph
// host; results are merged into the returned slice only after every
// worker completes, so no host is ever shared across goroutines.
func CompileAll(ctx context.Context, db grammar.DB, config radlr.ParserConfig, requestedWorkers int) ([]Result, error) {
	workers := requestedWorkers
	if workers <= 0 {
		workers = 1
	}
	if cores := runtime.GOMAXPROCS(0); workers > cores {
		workers = cores
	}

	entries := db.EntryPoints()
	results := make([]Result, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, ep := range entries {
		i, ep := i, ep
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			host := graph.NewHost()
			rules := db.NonTermRules(ep.NonTerm)
			kernel := make([]item.Item, 0, len(rules))
			for _, r := range rules {
				kernel = append(kernel, item.StartItem(r))
			}
			root := host.NewRoot(graph.Parser, kernel)
			_ = root

			d := NewDriver(db, host, config, false)
			if err := d.Run(); err != nil {
				return err
			}
			results[i] = Result{NonTerm: ep.NonTerm, Host: host, Class: d.Classification(), RunID: uuid.New()}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	scanners, err := compileScanners(ctx, db, config, results, workers)
	if err != nil {
		return nil, err
	}

	return append(results, scanners...), nil
}

// compileScanners collects every token symbol referenced by the
// compiled parser graphs into a deduplicated set and compiles each in a
// second parallel pass, the way spec.md §5 separates scanner
// compilation from parser compilation. The resulting scanner graphs are
// returned as ordinary Results (named after their token) so the caller
// lowers and emits them alongside the parser graphs.
func compileScanners(ctx context.Context, db grammar.DB, config radlr.ParserConfig, results []Result, workers int) ([]Result, error) {
	seen := make(map[radlr.SymbolID]bool)
	var seeds []ScannerSeed

	for _, r := range results {
		for _, n := range r.Host.AllNodes() {
			for _, it := range n.KernelItems {
				sym, ok := it.PeekSymbol()
				if !ok || sym.Kind != symbol.Token || seen[sym.Value] {
					continue
				}
				seen[sym.Value] = true
				info, ok := db.Token(sym.Value)
				if !ok {
					continue
				}
				nt := symbol.NewNonTerminal(sym.Name, info.NonTermID)
				rules := db.NonTermRules(nt)
				kernel := make([]item.Item, 0, len(rules))
				for _, r := range rules {
					kernel = append(kernel, item.StartItem(r))
				}
				seeds = append(seeds, ScannerSeed{Token: sym, Kernel: kernel})
			}
		}
	}

	scanned := make([]Result, len(seeds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, seed := range seeds {
		i, seed := i, seed
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			host := graph.NewHost()
			host.NewRoot(graph.Scanner, seed.Kernel)
			d := NewDriver(db, host, config, true)
			if err := d.Run(); err != nil {
				return err
			}
			scanned[i] = Result{NonTerm: seed.Token, Host: host, Class: d.Classification(), RunID: uuid.New()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scanned, nil
}
