package radlr

import (
	"context"

	"github.com/radlr-lang/radlr/build"
	"github.com/radlr-lang/radlr/bytecode"
	"github.com/radlr-lang/radlr/grammar"
	"github.com/radlr-lang/radlr/ir"
)

// Artifact is the complete output of Compile: a single IR module merged
// from every compiled non-terminal/scanner graph, the bytecode emitted
// from it, the configuration it was compiled with (field Classification),
// and the classification accumulated across every graph (field Classes)
// (spec.md §3 "Classification", §6 "Produced").
type Artifact struct {
	Modules       []*ir.Module
	Bytecode      *bytecode.Output
	Classification ParserConfig
	Classes       Classification
}

// Compile runs the full pipeline described by spec.md §2: shard the
// grammar's entry points across a worker pool (package build), lower
// every compiled graph to IR (package ir), then emit a single bytecode
// image from the concatenation of those modules (package bytecode).
//
// workers selects the worker-pool size (spec.md §5); a value below 1
// means one worker, and larger values are capped at runtime.GOMAXPROCS(0).
func Compile(ctx context.Context, db grammar.DB, config ParserConfig, workers int) (*Artifact, error) {
	results, err := build.CompileAll(ctx, db, config, workers)
	if err != nil {
		return nil, err
	}

	entries := db.EntryPoints()
	merged := &ir.Module{ByName: make(map[string]*ir.State), Entries: make(map[string]string)}
	var classes Classification
	for i, r := range results {
		scannerName := ""
		if i >= len(entries) {
			scannerName = r.NonTerm.Name
		}
		m := ir.Lower(r.Host, scannerName)
		merged.States = append(merged.States, m.States...)
		for name, st := range m.ByName {
			merged.ByName[name] = st
		}
		classes = classes.Join(Classification{
			BottomUp:     true,
			GotosPresent: r.Class.GotosPresent,
			CallsPresent: r.Class.CallsPresent,
			PeeksPresent: r.Class.PeeksPresent,
			ForksPresent: r.Class.ForksPresent,
			MaxK:         r.Class.MaxK,
		})
		if i < len(entries) {
			ir.EntryExit(merged, entries[i].EntryName, entries[i].ExitName, rootStateNameOf(m))
		}
	}

	out, err := bytecode.Emit(merged, config.Debug)
	if err != nil {
		return nil, err
	}

	return &Artifact{Modules: []*ir.Module{merged}, Bytecode: out, Classification: config, Classes: classes}, nil
}

// rootStateNameOf finds the entry non-terminal's root state within a
// freshly lowered module: the lowering of a host's root node (the first
// state produced, since graph.Host.AllNodes preserves creation order).
func rootStateNameOf(m *ir.Module) string {
	if len(m.States) == 0 {
		return ""
	}
	return m.States[0].Name
}
