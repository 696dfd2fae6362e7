/*
Package symbol implements the symbol taxonomy consumed by item closures and
the parse-graph builder: terminals, non-terminals, character/codepoint
literals, scanner character classes, and the occlusion relation scanner
graphs use to decide which transition pairs must be considered together.

All "polymorphism" here is expressed as a tagged sum type (Kind + payload
fields), never dynamic dispatch, following the teacher package's own
"tagged variants, no dynamic dispatch" convention (see gorgo's Symbol/Item
usage in lr/tables.go) and spec.md's design note of the same name.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2026 The Radlr Authors
*/
package symbol

import (
	"fmt"
	"text/scanner"

	"github.com/npillmayer/schuko/tracing"
	"github.com/radlr-lang/radlr"
)

// tracer traces with key 'radlr.symbol'.
func tracer() tracing.Trace {
	return tracing.Select("radlr.symbol")
}

// Kind discriminates the variants of a Symbol.
type Kind uint8

const (
	Default Kind = iota // epsilon / reduce symbol
	EndOfFile
	CharLit          // a single byte literal
	CodepointLit      // a single Unicode codepoint literal
	Token             // an interned, scanner-produced token
	ClassSpace        // scanner character class: whitespace
	ClassID           // scanner character class: identifier-start/-continue
	ClassNum          // scanner character class: digit
	ClassSym          // scanner character class: symbol/punctuation
	ClassNewLine      // scanner character class: newline
	ClassHTab         // scanner character class: horizontal tab
	NonTerminal       // a grammar non-terminal
	NonTerminalToken  // a non-terminal that also carries a token precedence
	DBToken           // an opaque token key resolved only through the grammar DB
)

func (k Kind) String() string {
	switch k {
	case Default:
		return "Default"
	case EndOfFile:
		return "EndOfFile"
	case CharLit:
		return "Char"
	case CodepointLit:
		return "Codepoint"
	case Token:
		return "Token"
	case ClassSpace:
		return "Space"
	case ClassID:
		return "Id"
	case ClassNum:
		return "Num"
	case ClassSym:
		return "Sym"
	case ClassNewLine:
		return "NewLine"
	case ClassHTab:
		return "HTab"
	case NonTerminal:
		return "NonTerminal"
	case NonTerminalToken:
		return "NonTerminalToken"
	case DBToken:
		return "DBToken"
	default:
		return "?"
	}
}

// CustomTokenBaseline is the precedence constant that marks a scanner token
// as custom-defined (as opposed to a structural/class token);
// IsCustomPrecedence reports precedences above it. Scanner group
// filtering and occlusion merging in package build do not consult it.
const CustomTokenBaseline uint16 = 1 << 14

// Symbol is a dotted-rule alphabet element: a terminal, non-terminal,
// character/codepoint literal, or scanner character class, tagged with a
// Kind and carrying only the payload its Kind needs.
type Symbol struct {
	Kind    Kind
	Name    string        // human-readable name, used for debugging/printing
	Value   radlr.SymbolID // interned id; EOF uses scanner.EOF (-1), class symbols leave it 0
	Char    byte          // valid for CharLit
	Rune    rune          // valid for CodepointLit
	Prec    uint16        // precedence; valid for CharLit/CodepointLit/Token/NonTerminalToken
	NontermID radlr.SymbolID // valid for NonTerminal/NonTerminalToken: the non-terminal's id
	DBKey   uint64        // valid for DBToken
}

// EOF is the shared end-of-file symbol, mirroring text/scanner.EOF the way
// lr/glr/glr.go and lr/scanner/scanner.go reuse scanner.EOF rather than
// inventing a fresh sentinel.
var EOF = Symbol{Kind: EndOfFile, Name: "#eof", Value: radlr.SymbolID(scanner.EOF)}

// Epsilon is the shared "Default" (empty/reduce) symbol.
var Epsilon = Symbol{Kind: Default, Name: "ε"}

// NewTerminal creates a Char-literal terminal.
func NewTerminal(name string, ch byte, prec uint16) Symbol {
	return Symbol{Kind: CharLit, Name: name, Char: ch, Prec: prec, Value: radlr.SymbolID(ch)}
}

// NewCodepoint creates a Codepoint-literal terminal.
func NewCodepoint(name string, r rune, prec uint16) Symbol {
	return Symbol{Kind: CodepointLit, Name: name, Rune: r, Prec: prec, Value: radlr.SymbolID(r)}
}

// NewToken creates an interned scanner token symbol.
func NewToken(name string, id radlr.SymbolID, prec uint16) Symbol {
	return Symbol{Kind: Token, Name: name, Value: id, Prec: prec}
}

// NewNonTerminal creates a non-terminal symbol.
func NewNonTerminal(name string, id radlr.SymbolID) Symbol {
	return Symbol{Kind: NonTerminal, Name: name, Value: id, NontermID: id}
}

// NewNonTerminalToken creates a non-terminal symbol that also carries a
// token precedence (used when a non-terminal is shifted like a token in a
// scanner graph).
func NewNonTerminalToken(name string, id radlr.SymbolID, prec uint16) Symbol {
	return Symbol{Kind: NonTerminalToken, Name: name, Value: id, NontermID: id, Prec: prec}
}

// NewClass creates a scanner character-class symbol.
func NewClass(kind Kind, name string) Symbol {
	return Symbol{Kind: kind, Name: name}
}

// NewDBToken creates an opaque, DB-resolved token key symbol.
func NewDBToken(name string, key uint64) Symbol {
	return Symbol{Kind: DBToken, Name: name, DBKey: key}
}

// IsTerminal reports whether the symbol can be shifted directly from
// input (as opposed to being reduced via closure).
func (s Symbol) IsTerminal() bool {
	switch s.Kind {
	case NonTerminal:
		return false
	default:
		return true
	}
}

// IsNonTerminal reports whether the symbol is a grammar non-terminal
// (including the NonTerminalToken variant, which still drives a closure
// expansion).
func (s Symbol) IsNonTerminal() bool {
	return s.Kind == NonTerminal || s.Kind == NonTerminalToken
}

// IsClass reports whether the symbol is one of the scanner character
// classes.
func (s Symbol) IsClass() bool {
	switch s.Kind {
	case ClassSpace, ClassID, ClassNum, ClassSym, ClassNewLine, ClassHTab:
		return true
	default:
		return false
	}
}

// IsEpsilon reports whether the symbol is the Default/epsilon symbol.
func (s Symbol) IsEpsilon() bool {
	return s.Kind == Default
}

// TokenType returns the symbol's token category as a radlr.TokType, the
// way gorgo's Symbol.TokenType() does for its parser tables.
func (s Symbol) TokenType() radlr.TokType {
	return radlr.TokType(s.Value)
}

// Precedence returns the symbol's precedence, or 0 for symbols that don't
// carry one (non-terminals, classes, epsilon, EOF).
func (s Symbol) Precedence() uint16 {
	return s.Prec
}

// IsCustomPrecedence reports whether the symbol's precedence dominates
// scanner disambiguation (spec.md §3, "a custom-token baseline").
func (s Symbol) IsCustomPrecedence() bool {
	return s.Prec > CustomTokenBaseline
}

func (s Symbol) String() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("<%s:%d>", s.Kind, s.Value)
}

// Equal reports whether two symbols denote the same alphabet element.
// Symbols compare by Kind and Value/Char/Rune/DBKey, not by Prec or Name —
// two occurrences of the same terminal with different locally-observed
// precedences (e.g. in different rules) are still the same symbol.
func (a Symbol) Equal(b Symbol) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case CharLit:
		return a.Char == b.Char
	case CodepointLit:
		return a.Rune == b.Rune
	case DBToken:
		return a.DBKey == b.DBKey
	case Default, EndOfFile:
		return true
	default:
		return a.Value == b.Value
	}
}

// charClass classifies a single codepoint into the scanner class it
// belongs to, or the zero Kind if it belongs to none of the recognized
// classes. Used by Occludes below.
func charClass(r rune) (Kind, bool) {
	switch {
	case r == ' ':
		return ClassSpace, true
	case r == '\t':
		return ClassHTab, true
	case r == '\n' || r == '\r':
		return ClassNewLine, true
	case r >= '0' && r <= '9':
		return ClassNum, true
	case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		return ClassID, true
	case r > 0:
		return ClassSym, true
	default:
		return 0, false
	}
}

// Occludes implements the occlusion relation of spec.md §4.2: a occludes
// b iff a is a single-codepoint Char/Codepoint belonging to the character
// class b denotes, or a and b are the same symbol. Occlusion is consulted
// only in scanner mode, to merge transition pairs that might conflict on
// the same input codepoint into one group (spec.md §4.7).
func Occludes(a, b Symbol) bool {
	if a.Equal(b) {
		return true
	}
	if !b.IsClass() {
		return false
	}
	var r rune
	switch a.Kind {
	case CharLit:
		r = rune(a.Char)
	case CodepointLit:
		r = a.Rune
	default:
		return false
	}
	class, ok := charClass(r)
	if !ok {
		return false
	}
	occludes := class == b.Kind
	tracer().Debugf("occludes(%v, %v) = %v", a, b, occludes)
	return occludes
}

// ComparePrecedence compares two precedences the way merging decisions
// must (spec.md §4.2): non-positive precedences never dominate, so a
// precedence of 0 always loses to any positive precedence, and two
// non-positive precedences are considered equal (neither dominates).
func ComparePrecedence(a, b uint16) int {
	switch {
	case a == 0 && b == 0:
		return 0
	case a == 0:
		return -1
	case b == 0:
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
