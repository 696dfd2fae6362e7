/*
Package graph implements the parse-graph host: an owning arena of graph
nodes (spec.md §3 "Graph Node", "Graph Host"), a pending queue of
not-yet-expanded nodes, and the staging/commit/dedup protocol the
builder driver (package build) uses to grow the graph one kernel-item
set at a time (spec.md §4.3).

The arena itself follows the teacher package's id-indexed value-arena
convention (see lr/dss.go's StateId-indexed stack frames); sibling dedup
uses github.com/cnf/structhash the way the rest of this module hashes
canonical structures for deterministic dedup, while peek-resolve sets
are keyed by a per-host sequence number.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2026 The Radlr Authors
*/
package graph

import (
	"fmt"
	"sync"

	"github.com/cnf/structhash"
	"github.com/npillmayer/schuko/tracing"
	"github.com/radlr-lang/radlr"
	"github.com/radlr-lang/radlr/item"
	"github.com/radlr-lang/radlr/symbol"
)

// tracer traces with key 'radlr.graph'.
func tracer() tracing.Trace {
	return tracing.Select("radlr.graph")
}

// GraphType discriminates a node's parser/scanner universe (spec.md §3
// "graph_type").
type GraphType uint8

const (
	Parser GraphType = iota
	Scanner
)

func (g GraphType) String() string {
	if g == Scanner {
		return "Scanner"
	}
	return "Parser"
}

// BuildState discriminates the build-state machine a node belongs to
// (spec.md §3 "build_state").
type BuildState uint8

const (
	Normal BuildState = iota
	NormalGoto
	PeekState
	LeafState
)

func (b BuildState) String() string {
	switch b {
	case NormalGoto:
		return "NormalGoto"
	case PeekState:
		return "Peek"
	case LeafState:
		return "Leaf"
	default:
		return "Normal"
	}
}

// StateType discriminates the action a node represents (spec.md §3
// "state_type"). Modeled as a tagged sum type rather than an interface
// hierarchy, matching the teacher package's convention for Symbol/Item.
type StateType uint8

const (
	StateShift StateType = iota
	StateReduce
	StatePeek
	StatePeekEndComplete
	StateNonTerminalShiftLoop
	StateNonTerminalComplete
	StateNonTermCompleteOOS
	StateCallKernel
	StateCallInternal
	StateFork
	StateFollow
	StateAssignToken
	StateAssignAndFollow
	StateCompleteToken
	StateCSTNodeAccept
)

func (s StateType) String() string {
	switch s {
	case StateShift:
		return "Shift"
	case StateReduce:
		return "Reduce"
	case StatePeek:
		return "Peek"
	case StatePeekEndComplete:
		return "PeekEndComplete"
	case StateNonTerminalShiftLoop:
		return "NonTerminalShiftLoop"
	case StateNonTerminalComplete:
		return "NonTerminalComplete"
	case StateNonTermCompleteOOS:
		return "NonTermCompleteOOS"
	case StateCallKernel:
		return "KernelCall"
	case StateCallInternal:
		return "InternalCall"
	case StateFork:
		return "Fork"
	case StateFollow:
		return "Follow"
	case StateAssignToken:
		return "AssignToken"
	case StateAssignAndFollow:
		return "AssignAndFollow"
	case StateCompleteToken:
		return "CompleteToken"
	case StateCSTNodeAccept:
		return "CSTNodeAccept"
	default:
		return "?"
	}
}

// Node is a committed graph node (spec.md §3 "Graph Node"). Every
// non-root node has a Parent; kernel items are either derived from the
// parent's closure by advancing on Symbol, or synthesized for peek/OOS
// processing.
type Node struct {
	ID        radlr.NodeID
	Parent    radlr.NodeID
	HasParent bool
	Root      radlr.NodeID
	GraphType GraphType
	Build     BuildState
	Type      StateType

	Symbol    symbol.Symbol
	Precedence uint16

	KernelItems      []item.Item
	PeekResolveItems map[uint64][]item.Item
	ReduceItem       *item.Item
	FollowHash       uint64
	NonTermItems     []item.Item
	GotoItems        []item.Item

	PeekLevel int    // valid when Build == PeekState
	RuleID    radlr.RuleID
	PopCount  uint16
	CallTarget symbol.Symbol
	TokenID   radlr.SymbolID

	leaf bool
}

// IsLeaf reports whether the node was marked terminal via MakeLeaf.
func (n *Node) IsLeaf() bool { return n.leaf }

func (n *Node) String() string {
	return fmt.Sprintf("Node#%d(%s/%s %s sym=%s)", n.ID, n.GraphType, n.Build, n.Type, n.Symbol)
}

// StagedNode is a not-yet-published Node under construction by the
// builder driver. It becomes a committed Node once Host.Commit runs
// dedup against already-present siblings (spec.md §4.3 "new_state" /
// "commit").
type StagedNode struct {
	Node
	dedupKey string
}

// dedupKeyOf computes the (parent, symbol, kernel_items, state_type)
// hash spec.md §4.3 mandates for sibling deduplication, via
// cnf/structhash over the canonical (rule, dot) projection of the
// kernel items (origin/lane are provenance, not part of node identity).
func dedupKeyOf(parent radlr.NodeID, sym symbol.Symbol, items []item.Item, st StateType) string {
	type canon struct {
		Parent radlr.NodeID
		Sym    symbol.Symbol
		Keys   []item.CanonicalKey
		Type   StateType
	}
	keys := make([]item.CanonicalKey, len(items))
	for i, it := range items {
		keys[i] = it.Canonical()
	}
	h, err := structhash.Hash(canon{Parent: parent, Sym: sym, Keys: keys, Type: st}, 1)
	if err != nil {
		// structhash only fails on unhashable types, which canon is not;
		// fall back to a coarse but still deterministic key.
		return fmt.Sprintf("%d:%v:%d:%v", parent, sym, st, keys)
	}
	return h
}

// Host owns the node arena and the pending queue (spec.md §3 "Graph
// Host"). The host exclusively owns nodes; builders (package build)
// hold only NodeIDs and talk to the host through this type, mirroring
// the ownership split the teacher package draws between lr/dss.go's
// stack and the frames it indexes.
type Host struct {
	mu sync.Mutex

	nodes   []*Node
	pending []radlr.NodeID

	// siblingKeys indexes already-committed children of a parent by
	// their dedup key, so Commit can reject duplicates in O(1).
	siblingKeys map[radlr.NodeID]map[string]radlr.NodeID

	peekResolveSeq uint64
	nextRoot       radlr.NodeID
}

// NewHost creates an empty graph host.
func NewHost() *Host {
	return &Host{siblingKeys: make(map[radlr.NodeID]map[string]radlr.NodeID)}
}

// NewRoot commits a root node (no parent) with the given kernel items and
// returns its id. Roots are enqueued for expansion immediately.
func (h *Host) NewRoot(gt GraphType, kernel []item.Item) radlr.NodeID {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := radlr.NodeID(len(h.nodes))
	n := &Node{ID: id, Root: id, GraphType: gt, Build: Normal, KernelItems: kernel}
	h.nodes = append(h.nodes, n)
	h.pending = append(h.pending, id)
	return id
}

// NewState stages (but does not publish) a child node of parent, per
// spec.md §4.3 "new_state(parent, build_state, symbol, state_type,
// kernel_items) → StagedNode". The builder accretes staged nodes and
// later hands them to Commit.
func (h *Host) NewState(parent radlr.NodeID, build BuildState, sym symbol.Symbol, st StateType, kernel []item.Item) *StagedNode {
	h.mu.Lock()
	root := h.nodes[parent].Root
	h.mu.Unlock()
	return &StagedNode{
		Node: Node{
			Parent:    parent,
			HasParent: true,
			Root:      root,
			GraphType: h.GraphTypeOf(parent),
			Build:     build,
			Type:      st,
			Symbol:    sym,
			KernelItems: kernel,
		},
		dedupKey: dedupKeyOf(parent, sym, kernel, st),
	}
}

// GraphTypeOf reports the graph_type of node id.
func (h *Host) GraphTypeOf(id radlr.NodeID) GraphType {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.nodes[id].GraphType
}

// Commit publishes every staged node in staged that is not a duplicate
// of an already-committed sibling, enqueues the survivors, and reports
// how many states were queued (spec.md §4.3 "commit"). When
// updateGotos is true, it additionally runs incrementGotosLocked on parent's
// still-pending children (spec.md §4.5 "increment gotos").
func (h *Host) Commit(parent radlr.NodeID, staged []*StagedNode, updateGotos bool, allowDedup bool) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.siblingKeys[parent] == nil {
		h.siblingKeys[parent] = make(map[string]radlr.NodeID)
	}
	queued := 0
	for _, sn := range staged {
		if allowDedup {
			if _, dup := h.siblingKeys[parent][sn.dedupKey]; dup {
				tracer().Debugf("commit: dedup hit for parent=%d sym=%s", parent, sn.Symbol)
				continue
			}
		}
		id := radlr.NodeID(len(h.nodes))
		n := sn.Node
		n.ID = id
		h.nodes = append(h.nodes, &n)
		h.siblingKeys[parent][sn.dedupKey] = id
		if !n.leaf {
			h.pending = append(h.pending, id)
		}
		queued++
	}
	if updateGotos {
		h.incrementGotosLocked(parent)
	}
	return queued
}

// incrementGotosLocked implements spec.md §4.5's "increment gotos":
// for every pending child of parent, every kernel item whose
// origin_state matches parent gets goto_distance+=1; others are marked
// as having come from a goto origin. Peek resolve sets receive the same
// treatment. Caller must hold h.mu.
func (h *Host) incrementGotosLocked(parent radlr.NodeID) {
	for _, id := range h.pending {
		n := h.nodes[id]
		if n.Parent != parent {
			continue
		}
		for i, it := range n.KernelItems {
			if it.OriginState == parent {
				it.GotoDistance++
			} else {
				it.FromGotoOrigin = true
			}
			n.KernelItems[i] = it
		}
		for key, items := range n.PeekResolveItems {
			for i, it := range items {
				if it.OriginState == parent {
					it.GotoDistance++
				} else {
					it.FromGotoOrigin = true
				}
				items[i] = it
			}
			n.PeekResolveItems[key] = items
		}
	}
}

// MakeLeaf marks sn as terminal: it publishes with no children and is
// never enqueued (spec.md §4.3 "make_leaf").
func (sn *StagedNode) MakeLeaf() *StagedNode {
	sn.leaf = true
	return sn
}

// MakeEnqueuedLeaf marks sn as a leaf that still participates in one
// further processing round — the peek-boundary case of spec.md §4.3
// "make_enqueued_leaf": the node is terminal with respect to expansion
// bookkeeping but is still pushed to the pending queue once.
func (sn *StagedNode) MakeEnqueuedLeaf() *StagedNode {
	sn.leaf = false
	sn.Build = LeafState
	return sn
}

// SetPeekResolveState interns items as a peek-resolve set on node id and
// returns the opaque key, which callers embed into child items' Origin
// as item.Origin{Kind: item.OriginPeek, PeekKey: key, PeekState: id}
// (spec.md §4.3 "set_peek_resolve_state").
func (h *Host) SetPeekResolveState(id radlr.NodeID, items []item.Item) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := h.nodes[id]
	if n.PeekResolveItems == nil {
		n.PeekResolveItems = make(map[uint64][]item.Item)
	}
	h.peekResolveSeq++
	key := h.peekResolveSeq
	n.PeekResolveItems[key] = items
	return key
}

// IterPendingStatesMut traverses not-yet-expanded children of node id,
// calling fn with a mutable view of each; used by the goto-distance
// patching pass (spec.md §4.3 "iter_pending_states_mut").
func (h *Host) IterPendingStatesMut(id radlr.NodeID, fn func(*Node)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, pid := range h.pending {
		n := h.nodes[pid]
		if n.Parent == id {
			fn(n)
		}
	}
}

// PopPending removes and returns the next not-yet-expanded node, or
// (0, false) if the queue is empty.
func (h *Host) PopPending() (radlr.NodeID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.pending) == 0 {
		return 0, false
	}
	id := h.pending[0]
	h.pending = h.pending[1:]
	return id, true
}

// PendingLen reports how many nodes remain to be expanded.
func (h *Host) PendingLen() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending)
}

// Node returns the committed node with the given id.
func (h *Host) Node(id radlr.NodeID) *Node {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.nodes[id]
}

// KernelItems implements item.NodeProvider.
func (h *Host) KernelItems(id radlr.NodeID) []item.Item {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.nodes[id].KernelItems
}

// Parent implements item.NodeProvider.
func (h *Host) Parent(id radlr.NodeID) (radlr.NodeID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := h.nodes[id]
	return n.Parent, n.HasParent
}

// IsRoot implements item.NodeProvider.
func (h *Host) IsRoot(id radlr.NodeID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.nodes[id].HasParent
}

var _ item.NodeProvider = (*Host)(nil)

// AllNodes returns every committed node, in creation (and therefore
// deterministic) order — used by package ir to walk the whole graph for
// lowering.
func (h *Host) AllNodes() []*Node {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Node, len(h.nodes))
	copy(out, h.nodes)
	return out
}
