package radlr

import "fmt"

// TokType is a category type for a token produced by a scanner and consumed
// by the grammar database. Applications (and the grammar database) are free
// to assign whatever numbering scheme fits; radlr treats it as an opaque,
// ordered identifier.
type TokType int32

// SymbolID identifies an interned symbol (terminal or non-terminal) within a
// grammar database. It is the value carried by Symbol.Value in package
// symbol.
type SymbolID int32

// RuleID identifies a grammar rule within a grammar database.
type RuleID uint32

// NodeID identifies a node within a Graph Host's arena (package graph).
type NodeID uint32

// --- Spans ------------------------------------------------------------

// Span captures the extent of an input token run, (from…to). It is a
// standalone value type: symbols, graph nodes and IR states in this
// module do not carry a Span.
type Span [2]uint64

// From returns the start offset of a span.
func (s Span) From() uint64 { return s[0] }

// To returns the end offset of a span (exclusive).
func (s Span) To() uint64 { return s[1] }

// Len returns the length of the span.
func (s Span) Len() uint64 { return s[1] - s[0] }

// IsNull reports whether the span carries no extent.
func (s Span) IsNull() bool { return s == Span{} }

// Extend grows s to also cover other.
func (s Span) Extend(other Span) Span {
	if other[0] < s[0] {
		s[0] = other[0]
	}
	if other[1] > s[1] {
		s[1] = other[1]
	}
	return s
}

func (s Span) String() string {
	return fmt.Sprintf("(%d…%d)", s[0], s[1])
}
