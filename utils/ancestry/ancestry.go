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

// Package ancestry provides explicit, ordered traversals over a type's
// ancestors: its base-class chain and the interfaces it implements.
package ancestry

import (
	"errors"
	"fmt"

	"dirpx.dev/tdx/apis"
	"dirpx.dev/tdx/config"
	"dirpx.dev/tdx/metadata"
	"dirpx.dev/tdx/typegraph"
)

var (
	// ErrNilType is returned when a nil node is provided.
	ErrNilType = errors.New("tdx(ancestry): nil type provided")
	// ErrDepthExceeded indicates a walk longer than the configured MaxDepth,
	// which only happens for cyclic or pathological metadata.
	ErrDepthExceeded = errors.New("tdx(ancestry): ancestor walk exceeded max depth")
)

// Walker performs depth-bounded ancestor traversals.
type Walker struct {
	maxDepth int
}

// New returns a Walker bounded by cfg.MaxDepth.
// If MaxDepth <= 0, DefaultMaxDepth is used.
func New(cfg apis.Config) Walker {
	d := cfg.MaxDepth
	if d <= 0 {
		d = config.DefaultMaxDepth
	}
	return Walker{maxDepth: d}
}

// MaxDepth returns the walk bound.
func (w Walker) MaxDepth() int {
	if w.maxDepth <= 0 {
		return config.DefaultMaxDepth
	}
	return w.maxDepth
}

// Lineage returns t followed by its base chain, nearest first.
func (w Walker) Lineage(t *typegraph.Node) ([]*typegraph.Node, error) {
	if t == nil {
		return nil, ErrNilType
	}
	out := []*typegraph.Node{t}
	cur := t
	for {
		b, err := cur.BaseType()
		if err != nil {
			return nil, err
		}
		if b == nil {
			return out, nil
		}
		if len(out) > w.MaxDepth() {
			return nil, fmt.Errorf("%w: %s", ErrDepthExceeded, t)
		}
		out = append(out, b)
		cur = b
	}
}

// BaseChain returns the base types of t, nearest first, excluding t.
func (w Walker) BaseChain(t *typegraph.Node) ([]*typegraph.Node, error) {
	l, err := w.Lineage(t)
	if err != nil {
		return nil, err
	}
	return l[1:], nil
}

// DirectInterfaces returns the interfaces t itself declares, in
// declaration order. Interfaces' base interfaces are not included.
func (w Walker) DirectInterfaces(t *typegraph.Node) ([]*typegraph.Node, error) {
	if t == nil {
		return nil, ErrNilType
	}
	return t.Interfaces()
}

// AllInterfaces returns every interface implemented by t: the interfaces
// declared along the base chain (nearest first) and, breadth first, the
// interfaces those interfaces extend. Duplicates keep their first position.
func (w Walker) AllInterfaces(t *typegraph.Node) ([]*typegraph.Node, error) {
	lineage, err := w.Lineage(t)
	if err != nil {
		return nil, err
	}
	seen := make(map[*typegraph.Node]struct{})
	var out, queue []*typegraph.Node
	push := func(ns []*typegraph.Node) {
		for _, n := range ns {
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
			queue = append(queue, n)
		}
	}
	for _, n := range lineage {
		ifaces, err := n.Interfaces()
		if err != nil {
			return nil, err
		}
		push(ifaces)
	}
	for depth := 0; len(queue) > 0; depth++ {
		if depth > w.MaxDepth()*w.MaxDepth() {
			return nil, fmt.Errorf("%w: interfaces of %s", ErrDepthExceeded, t)
		}
		n := queue[0]
		queue = queue[1:]
		ifaces, err := n.Interfaces()
		if err != nil {
			return nil, err
		}
		push(ifaces)
	}
	return out, nil
}

// ImplementsRef reports whether t implements an interface whose definition
// is ref, either directly or as an instantiation of it.
func (w Walker) ImplementsRef(t *typegraph.Node, ref metadata.TypeRef) (bool, error) {
	ifaces, err := w.AllInterfaces(t)
	if err != nil {
		return false, err
	}
	for _, in := range ifaces {
		if in.Ref() == ref {
			return true, nil
		}
	}
	return false, nil
}

// FindInLineage returns the first node of t's lineage accepted by match.
func (w Walker) FindInLineage(t *typegraph.Node, match func(*typegraph.Node) bool) (*typegraph.Node, error) {
	lineage, err := w.Lineage(t)
	if err != nil {
		return nil, err
	}
	for _, n := range lineage {
		if match(n) {
			return n, nil
		}
	}
	return nil, nil
}

// IsAssignableFrom reports whether a value of type from can be used where
// target is expected: identity, a base class of from, or an interface from
// implements.
func (w Walker) IsAssignableFrom(target, from *typegraph.Node) (bool, error) {
	if target == nil || from == nil {
		return false, ErrNilType
	}
	if target == from {
		return true, nil
	}
	if target.IsInterface() {
		ifaces, err := w.AllInterfaces(from)
		if err != nil {
			return false, err
		}
		for _, in := range ifaces {
			if in == target {
				return true, nil
			}
		}
		return false, nil
	}
	chain, err := w.BaseChain(from)
	if err != nil {
		return false, err
	}
	for _, b := range chain {
		if b == target {
			return true, nil
		}
	}
	return false, nil
}
