// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package aggregate

import (
	"cmp"
	"fmt"
	"sort"

	"github.com/grailbio/base/errors"
)

// IsOutOfDomain reports whether err was returned because a seeded Table was
// asked to update a key that is not part of its domain.
func IsOutOfDomain(err error) bool {
	return err != nil && errors.Is(errors.Precondition, err)
}

// Value is the accumulated value of one key. Count tables only use A. Sum-pair
// tables use both, e.g., methylated calls in A and unmethylated calls in B.
type Value struct {
	A, B int64
}

// One is the value of a single counted observation.
var One = Value{A: 1}

// Table maps keys to accumulated Values. The zero Table is not usable; create
// one with NewSeeded, DenseRange or NewDiscovered. Thread compatible.
type Table[K comparable] struct {
	seeded bool
	index  map[K]int
	keys   []K
	vals   []Value
}

// NewSeeded creates a table whose domain is exactly keys, each initialized to
// zero. Keys are reported in the given order; duplicates are dropped.
func NewSeeded[K comparable](keys []K) *Table[K] {
	t := &Table[K]{
		seeded: true,
		index:  make(map[K]int, len(keys)),
		keys:   make([]K, 0, len(keys)),
		vals:   make([]Value, 0, len(keys)),
	}
	for _, k := range keys {
		t.insert(k)
	}
	return t
}

// DenseRange creates a seeded table over the integers [min, max], inclusive.
// The domain is empty if max < min.
func DenseRange(min, max int) *Table[int] {
	var keys []int
	for k := min; k <= max; k++ {
		keys = append(keys, k)
		if k == max {
			break
		}
	}
	return NewSeeded(keys)
}

// Product returns key(a, b) for every pair of as and bs, with bs varying
// fastest. It is used to seed tables keyed by, e.g., (read end, base).
func Product[A, B any, K comparable](as []A, bs []B, key func(A, B) K) []K {
	keys := make([]K, 0, len(as)*len(bs))
	for _, a := range as {
		for _, b := range bs {
			keys = append(keys, key(a, b))
		}
	}
	return keys
}

// NewDiscovered creates an empty table that adds keys on first sight.
func NewDiscovered[K comparable]() *Table[K] {
	return &Table[K]{index: make(map[K]int)}
}

func (t *Table[K]) insert(k K) int {
	if i, ok := t.index[k]; ok {
		return i
	}
	i := len(t.keys)
	t.index[k] = i
	t.keys = append(t.keys, k)
	t.vals = append(t.vals, Value{})
	return i
}

// Increment adds one to the count of k.
func (t *Table[K]) Increment(k K) error {
	return t.Add(k, 1, 0)
}

// Add adds (a, b) to the value of k. Values never decrease, so negative deltas
// are rejected.
func (t *Table[K]) Add(k K, a, b int64) error {
	if a < 0 || b < 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("aggregate: negative delta (%d, %d) for key %v", a, b, k))
	}
	i, ok := t.index[k]
	if !ok {
		if t.seeded {
			return errors.E(errors.Precondition, fmt.Sprintf("aggregate: key %v outside of the seeded domain", k))
		}
		i = t.insert(k)
	}
	t.vals[i].A += a
	t.vals[i].B += b
	return nil
}

// Get returns the value of k, or the zero Value if k is unknown.
func (t *Table[K]) Get(k K) Value {
	if i, ok := t.index[k]; ok {
		return t.vals[i]
	}
	return Value{}
}

// Keys returns the keys in domain order for seeded tables, and in first-seen
// order for discovered ones. The caller may modify the result.
func (t *Table[K]) Keys() []K {
	return append([]K(nil), t.keys...)
}

// Len returns the number of keys.
func (t *Table[K]) Len() int { return len(t.keys) }

// Total returns the sum of all values.
func (t *Table[K]) Total() Value {
	var v Value
	for _, x := range t.vals {
		v.A += x.A
		v.B += x.B
	}
	return v
}

// SortedKeys returns the keys of t ordered by less.
func (t *Table[K]) SortedKeys(less func(a, b K) bool) []K {
	keys := t.Keys()
	sort.SliceStable(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
	return keys
}

// Ascending returns the keys of t in ascending order.
func Ascending[K cmp.Ordered](t *Table[K]) []K {
	return t.SortedKeys(func(a, b K) bool { return a < b })
}
