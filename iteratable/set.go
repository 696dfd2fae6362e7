package iteratable

import "fmt"

// Set is a special-purpose set type suitable for implementing algorithms
// around closures, graph construction and peek exploration, which are
// often far more straightforward to describe as set constructions and
// operations than as loops over slices.
//
// Union mutates the receiver and returns it, in the spirit of the
// teacher package's "Unusually, all set operations are destructive!"
// contract (lr/iteratable/doc.go); Difference and Subset return new sets
// and leave the receiver unchanged. IterateOnce/Next/Item provide a restartable
// external iterator so that algorithms can grow the set being iterated —
// closure(), in particular, relies on being able to append newly
// discovered items to a set it is still walking (see lr/tables.go's
// closureSet, ported to package item).
type Set struct {
	id     int
	items  []interface{}
	index  map[interface{}]int
	cursor int
	active bool
}

// NewSet creates an empty set tagged with id (purely for debugging/dump
// purposes, mirroring iteratable.NewSet(id) in the teacher package).
func NewSet(id int, items ...interface{}) *Set {
	s := &Set{id: id, items: make([]interface{}, 0, len(items)), index: make(map[interface{}]int)}
	for _, it := range items {
		s.Add(it)
	}
	return s
}

// Copy returns a shallow copy of s, detached from any in-progress
// iteration.
func (s *Set) Copy() *Set {
	cp := &Set{id: s.id, items: make([]interface{}, len(s.items)), index: make(map[interface{}]int, len(s.index))}
	copy(cp.items, s.items)
	for k, v := range s.index {
		cp.index[k] = v
	}
	return cp
}

// Size returns the number of elements in s.
func (s *Set) Size() int {
	return len(s.items)
}

// Empty reports whether s has no elements.
func (s *Set) Empty() bool {
	return len(s.items) == 0
}

// Values returns all elements of s, in insertion order.
func (s *Set) Values() []interface{} {
	return s.items
}

// Contains reports whether item is already a member of s.
func (s *Set) Contains(item interface{}) bool {
	_, ok := s.index[item]
	return ok
}

// Add appends item to s if it is not already present. Returns true if the
// set changed.
func (s *Set) Add(item interface{}) bool {
	if _, ok := s.index[item]; ok {
		return false
	}
	s.index[item] = len(s.items)
	s.items = append(s.items, item)
	return true
}

// Union merges other into s destructively, returning s.
func (s *Set) Union(other *Set) *Set {
	for _, it := range other.items {
		s.Add(it)
	}
	return s
}

// Difference returns a *new* set of the elements in s that are not in
// other (the teacher's `if New := R.Difference(C)` idiom).
func (s *Set) Difference(other *Set) *Set {
	d := NewSet(s.id)
	for _, it := range s.items {
		if !other.Contains(it) {
			d.Add(it)
		}
	}
	return d
}

// Subset returns a new set containing the elements of s for which pred
// returns true.
func (s *Set) Subset(pred func(interface{}) bool) *Set {
	sub := NewSet(s.id)
	for _, it := range s.items {
		if pred(it) {
			sub.Add(it)
		}
	}
	return sub
}

// Each calls fn for every element of s, in insertion order.
func (s *Set) Each(fn func(interface{})) {
	for _, it := range s.items {
		fn(it)
	}
}

// Equals reports whether s and other contain the same elements,
// irrespective of order.
func (s *Set) Equals(other *Set) bool {
	if other == nil || len(s.items) != len(other.items) {
		return false
	}
	for _, it := range s.items {
		if !other.Contains(it) {
			return false
		}
	}
	return true
}

// IterateOnce (re)starts an external iteration pass over s. Because Next()
// re-reads len(s.items) on every call, items appended to s by Add() while
// the iteration is in progress (as closure construction does) are visited
// too — this is the destructive-set idiom the teacher relies on to drain
// a work queue represented as a set.
func (s *Set) IterateOnce() {
	s.cursor = -1
	s.active = true
}

// Next advances the iterator and reports whether another element is
// available.
func (s *Set) Next() bool {
	if !s.active {
		return false
	}
	s.cursor++
	if s.cursor >= len(s.items) {
		s.active = false
		return false
	}
	return true
}

// Item returns the element at the iterator's current position. Only
// valid after a call to Next() that returned true.
func (s *Set) Item() interface{} {
	return s.items[s.cursor]
}

func (s *Set) String() string {
	return fmt.Sprintf("Set#%d[%d]", s.id, len(s.items))
}
