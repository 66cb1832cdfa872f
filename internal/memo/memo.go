/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package memo holds the publish-once caches used by the descriptor layer.
//
// Every first population in the process is serialized by one lock. Reads
// never take it: a published value is loaded straight from the table.
// Builders run with the lock held, so a builder that needs another memo
// must use the Locked variants.
package memo

import (
	"iter"
	"sync"
	"sync/atomic"
)

// mu guards first population of every Table and Cell.
var mu sync.Mutex

// Locked runs fn with the population lock held.
func Locked(fn func()) {
	mu.Lock()
	defer mu.Unlock()
	fn()
}

// Table maps keys to values published at most once each. Only successful
// builds are stored; a failing key stays unpopulated.
type Table[K comparable, V any] struct {
	m sync.Map // map[K]V
}

// Load returns the published value for k.
func (t *Table[K, V]) Load(k K) (V, bool) {
	if v, ok := t.m.Load(k); ok {
		return v.(V), true
	}
	var zero V
	return zero, false
}

// Get returns the value for k, building and publishing it on first use.
// A caller that loses the race reuses the winner's value.
func (t *Table[K, V]) Get(k K, build func() (V, error)) (V, error) {
	if v, ok := t.Load(k); ok {
		return v, nil
	}
	mu.Lock()
	defer mu.Unlock()
	return t.GetLocked(k, build)
}

// GetLocked is Get for callers already holding the population lock.
func (t *Table[K, V]) GetLocked(k K, build func() (V, error)) (V, error) {
	if v, ok := t.Load(k); ok {
		return v, nil
	}
	v, err := build()
	if err != nil {
		var zero V
		return zero, err
	}
	t.m.Store(k, v)
	return v, nil
}

// Delete drops the value for k.
func (t *Table[K, V]) Delete(k K) { t.m.Delete(k) }

// Clear drops every value.
func (t *Table[K, V]) Clear() { t.m.Clear() }

// All yields every published pair. Order is unspecified.
func (t *Table[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		t.m.Range(func(k, v any) bool {
			return yield(k.(K), v.(V))
		})
	}
}

// Len counts the published values.
func (t *Table[K, V]) Len() int {
	n := 0
	t.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Cell is a single publish-once value.
type Cell[V any] struct {
	p atomic.Pointer[V]
}

// Load returns the published value.
func (c *Cell[V]) Load() (V, bool) {
	if p := c.p.Load(); p != nil {
		return *p, true
	}
	var zero V
	return zero, false
}

// Loaded reports whether a value has been published.
func (c *Cell[V]) Loaded() bool { return c.p.Load() != nil }

// Get returns the value, building and publishing it on first use.
func (c *Cell[V]) Get(build func() (V, error)) (V, error) {
	if v, ok := c.Load(); ok {
		return v, nil
	}
	mu.Lock()
	defer mu.Unlock()
	return c.GetLocked(build)
}

// GetLocked is Get for callers already holding the population lock.
func (c *Cell[V]) GetLocked(build func() (V, error)) (V, error) {
	if v, ok := c.Load(); ok {
		return v, nil
	}
	v, err := build()
	if err != nil {
		var zero V
		return zero, err
	}
	c.p.Store(&v)
	return v, nil
}
