/*
Package radlr compiles context-free grammars with semantic actions into
deterministic (and optionally forking) parse tables.

Radlr builds an incremental, lane-tracked parse graph from a normalized
grammar database (package grammar), lowers the resolved graph to an
intermediate representation of parse states (package ir), and emits that
IR as a dense bytecode instruction stream (package bytecode). Package
structure is as follows:

■ symbol: symbol taxonomy, precedence and occlusion rules.

■ item: dotted-rule items, closure, follow-sets, recursion classification.

■ grammar: the read-only grammar database interface consumed by the
builder, plus a grammar builder and in-memory implementation.

■ iteratable: a destructive, iteratable Set used throughout closure and
graph construction.

■ graph: the graph host — an owning arena of parse-graph nodes.

■ build: the builder driver and its flow handlers (shift/reduce/goto/call,
peek, fork, scanner).

■ ir: lowering of a resolved graph to parse-state IR.

■ bytecode: lowering of IR to a bytecode instruction stream.

The base package contains data types used throughout all the other
packages: token categories, source spans, and the shared error and
configuration types.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2026 The Radlr Authors

*/
package radlr
