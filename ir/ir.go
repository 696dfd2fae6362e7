/*
Package ir lowers committed graph nodes into the textual/AST parse-state
intermediate representation of spec.md §3 "Parse State IR" and §4.8 "IR
Lowering": a stable `state [name] <transitive>? <non-branch>* <branch>?`
shape that package bytecode then emits.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2026 The Radlr Authors
*/
package ir

import (
	"fmt"
	"sort"
	"strings"

	"github.com/npillmayer/schuko/tracing"
	"github.com/radlr-lang/radlr"
	"github.com/radlr-lang/radlr/graph"
	"github.com/radlr-lang/radlr/symbol"
)

// tracer traces with key 'radlr.ir'.
func tracer() tracing.Trace {
	return tracing.Select("radlr.ir")
}

// Transitive is the optional leading action of a state (spec.md §3
// "Parse State IR").
type Transitive uint8

const (
	TransNone Transitive = iota
	TransShift
	TransPeek
	TransScan
	TransSkip
	TransReset
	TransPop
)

func (t Transitive) String() string {
	switch t {
	case TransShift:
		return "shift"
	case TransPeek:
		return "peek"
	case TransScan:
		return "scan"
	case TransSkip:
		return "skip"
	case TransReset:
		return "reset"
	case TransPop:
		return "pop"
	default:
		return ""
	}
}

// NonBranch is a non-branch statement: `reduce-raw(nt, rule, length)` or
// `set-tok-id(id)` (spec.md §3, §4.8).
type NonBranch struct {
	ReduceRaw bool
	NonTerm   string
	RuleID    radlr.RuleID
	Length    int

	SetTokID bool
	TokID    radlr.SymbolID
}

func (n NonBranch) String() string {
	if n.ReduceRaw {
		return fmt.Sprintf("reduce-raw(%s, %d, %d)", n.NonTerm, n.RuleID, n.Length)
	}
	return fmt.Sprintf("set-tok-id(%d)", n.TokID)
}

// InputType discriminates the kind of a match branch's dispatch key
// (spec.md §4.8: "match over input-type").
type InputType uint8

const (
	InputNonTerm InputType = iota
	InputToken
	InputClass
	InputCodepoint
	InputByte
	InputEndOfFile
)

func (t InputType) String() string {
	switch t {
	case InputNonTerm:
		return "nonterm"
	case InputToken:
		return "tok"
	case InputClass:
		return "class"
	case InputCodepoint:
		return "codepoint"
	case InputByte:
		return "byte"
	case InputEndOfFile:
		return "end-of-file"
	default:
		return "?"
	}
}

// BranchKind discriminates a state's terminal branch form.
type BranchKind uint8

const (
	BranchNone BranchKind = iota
	BranchPass
	BranchFail
	BranchAccept
	BranchGoto
	BranchMatch
)

// MatchClause is one `<int>|<int>,… { <stmt> }` arm of a match branch.
type MatchClause struct {
	Keys   []int
	Target string // target state name
}

// Branch is the optional terminal construct of a state (spec.md §3).
type Branch struct {
	Kind      BranchKind
	GotoChain []string // for BranchGoto: "goto X then goto Y ..."
	Input     InputType
	Clauses   []MatchClause
	Default   string // target state name for the match default arm, or "" for fail
}

// State is one lowered parse state (spec.md §4.8).
type State struct {
	Name       string
	Scanner    string // non-empty for scanner-associated states
	Transitive Transitive
	NonBranch  []NonBranch
	Branch     Branch
}

// String renders a State using the textual grammar of spec.md §6
// "Parse state IR".
func (s *State) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "state [ %s ]\n", s.Name)
	if s.Scanner != "" {
		fmt.Fprintf(&b, "  scanner [ %s ]\n", s.Scanner)
	}
	if s.Transitive != TransNone {
		fmt.Fprintf(&b, "  %s\n", s.Transitive)
	}
	for _, n := range s.NonBranch {
		fmt.Fprintf(&b, "  %s\n", n)
	}
	switch s.Branch.Kind {
	case BranchPass:
		b.WriteString("  pass\n")
	case BranchFail:
		b.WriteString("  fail\n")
	case BranchAccept:
		b.WriteString("  accept\n")
	case BranchGoto:
		b.WriteString("  " + strings.Join(gotoChain(s.Branch.GotoChain), " then ") + "\n")
	case BranchMatch:
		fmt.Fprintf(&b, "  match: %s {\n", s.Branch.Input)
		for _, c := range s.Branch.Clauses {
			keys := make([]string, len(c.Keys))
			for i, k := range c.Keys {
				keys[i] = fmt.Sprintf("%d", k)
			}
			fmt.Fprintf(&b, "    %s { goto %s }\n", strings.Join(keys, ","), c.Target)
		}
		if s.Branch.Default != "" {
			fmt.Fprintf(&b, "    default { goto %s }\n", s.Branch.Default)
		} else {
			b.WriteString("    default { fail }\n")
		}
		b.WriteString("  }\n")
	}
	return b.String()
}

func gotoChain(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = "goto " + n
	}
	return out
}

// Module is a fully lowered set of states plus the entry_name→state_name
// map spec.md §4.8 "Entry/exit states" describes.
type Module struct {
	States  []*State
	ByName  map[string]*State
	Entries map[string]string // entry_name -> entry state name
}

// stateName derives a stable, deterministic name for node id — every
// lowering of the same committed graph produces the same names, which
// Testable Property 6 (byte-for-byte reproducibility) depends on.
func stateName(n *graph.Node) string {
	return fmt.Sprintf("s_%d_%s_%s", n.ID, n.Type, n.Symbol)
}

// Lower walks every committed node of host (in creation order, which is
// already deterministic — see graph.Host.AllNodes) and produces one IR
// state per node, leaves included (spec.md §4.8). Scanner-originated hosts are tagged with scannerName
// so their states carry a `scanner [...]` clause.
func Lower(host *graph.Host, scannerName string) *Module {
	nodes := host.AllNodes()
	m := &Module{ByName: make(map[string]*State), Entries: make(map[string]string)}

	childrenOf := make(map[radlr.NodeID][]*graph.Node)
	for _, n := range nodes {
		if n.HasParent {
			childrenOf[n.Parent] = append(childrenOf[n.Parent], n)
		}
	}

	for _, n := range nodes {
		st := lowerNode(n, childrenOf[n.ID], scannerName)
		m.States = append(m.States, st)
		m.ByName[st.Name] = st
	}
	return m
}

func lowerNode(n *graph.Node, children []*graph.Node, scannerName string) *State {
	st := &State{Name: stateName(n), Scanner: scannerName}

	switch n.Type {
	case graph.StateShift:
		st.Transitive = TransShift
		st.Branch = childBranch(children)
	case graph.StatePeek:
		st.Transitive = TransPeek
		st.Branch = childBranch(children)
	case graph.StatePeekEndComplete:
		st.Transitive = TransReset
		st.Branch = Branch{Kind: BranchPass}
	case graph.StateReduce:
		st.NonBranch = append(st.NonBranch, NonBranch{ReduceRaw: true, NonTerm: n.Symbol.Name, RuleID: n.RuleID, Length: int(n.PopCount)})
		st.Branch = Branch{Kind: BranchPass}
	case graph.StateNonTerminalShiftLoop:
		st.Branch = childMatchBranch(children, InputNonTerm)
	case graph.StateNonTerminalComplete, graph.StateNonTermCompleteOOS:
		st.Branch = Branch{Kind: BranchPass}
	case graph.StateCallKernel, graph.StateCallInternal:
		st.Branch = Branch{Kind: BranchGoto, GotoChain: []string{n.Symbol.Name}}
	case graph.StateFork:
		st.Branch = Branch{Kind: BranchGoto, GotoChain: childNames(children)}
	case graph.StateAssignToken:
		st.NonBranch = append(st.NonBranch, NonBranch{SetTokID: true, TokID: n.TokenID})
		st.Branch = Branch{Kind: BranchPass}
	case graph.StateAssignAndFollow:
		st.NonBranch = append(st.NonBranch, NonBranch{SetTokID: true, TokID: n.TokenID})
		st.Transitive = TransScan
		st.Branch = childGotoBranch(children)
	case graph.StateFollow:
		st.Transitive = TransScan
		st.Branch = childGotoBranch(children)
	case graph.StateCompleteToken:
		st.Branch = Branch{Kind: BranchPass}
	case graph.StateCSTNodeAccept:
		st.Branch = Branch{Kind: BranchPass}
	default:
		st.Branch = Branch{Kind: BranchFail}
	}

	if n.IsLeaf() && len(children) == 0 && st.Branch.Kind == BranchNone {
		st.Branch = Branch{Kind: BranchPass}
	}
	return st
}

func childNames(children []*graph.Node) []string {
	names := make([]string, len(children))
	for i, c := range children {
		names[i] = stateName(c)
	}
	sort.Strings(names)
	return names
}

func childGotoBranch(children []*graph.Node) Branch {
	names := childNames(children)
	if len(names) == 0 {
		return Branch{Kind: BranchPass}
	}
	return Branch{Kind: BranchGoto, GotoChain: names}
}

// inputTypeOf maps a symbol's Kind to the InputType a match branch
// dispatches on (spec.md §4.8 "match over input-type").
func inputTypeOf(sym symbol.Symbol) InputType {
	switch sym.Kind {
	case symbol.EndOfFile:
		return InputEndOfFile
	case symbol.CharLit:
		return InputByte
	case symbol.CodepointLit:
		return InputCodepoint
	case symbol.ClassSpace, symbol.ClassID, symbol.ClassNum, symbol.ClassSym, symbol.ClassNewLine, symbol.ClassHTab:
		return InputClass
	case symbol.NonTerminal, symbol.NonTerminalToken:
		return InputNonTerm
	default: // Token, DBToken, Default
		return InputToken
	}
}

// childBranch lowers a Shift/Peek node's children into a `match` branch
// discriminated by each child's resolving symbol, falling back to a plain
// goto (or goto chain) when there's at most one child — a single
// successor has nothing to discriminate on, so a chain is exact rather
// than an approximation of a match with one clause.
func childBranch(children []*graph.Node) Branch {
	if len(children) <= 1 {
		return childGotoBranch(children)
	}
	input := inputTypeOf(children[0].Symbol)
	return childMatchBranch(children, input)
}

func childMatchBranch(children []*graph.Node, input InputType) Branch {
	type keyed struct {
		key    int
		target string
	}
	var entries []keyed
	for _, c := range children {
		entries = append(entries, keyed{key: int(c.Symbol.Value), target: stateName(c)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	clauses := make([]MatchClause, 0, len(entries))
	for _, e := range entries {
		clauses = append(clauses, MatchClause{Keys: []int{e.key}, Target: e.target})
	}
	return Branch{Kind: BranchMatch, Input: input, Clauses: clauses}
}

// EntryExit synthesizes entry/exit states for an exported entry
// non-terminal (spec.md §4.8 "Entry/exit states"): the entry state
// pushes an exit state then gotos the non-terminal's root state; the
// exit state's body is `accept`.
func EntryExit(m *Module, entryName, exitName string, rootStateName string) {
	exit := &State{Name: "exit_" + exitName, Branch: Branch{Kind: BranchAccept}}
	entry := &State{
		Name:   "entry_" + entryName,
		Branch: Branch{Kind: BranchGoto, GotoChain: []string{exit.Name, rootStateName}},
	}
	m.States = append(m.States, exit, entry)
	m.ByName[exit.Name] = exit
	m.ByName[entry.Name] = entry
	m.Entries[entryName] = entry.Name
	tracer().Debugf("synthesized entry %s -> %s, exit %s", entry.Name, rootStateName, exit.Name)
}
