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

// Package typegraph turns metadata records into a lazily evaluated,
// generic-aware graph of type nodes.
//
// Every node is created at most once per identity: one definition node per
// TypeRef and one instantiation node per (definition, argument list) pair,
// so nodes can be compared with ==. Derived facts (base type, interfaces,
// full name) are computed on first use and then shared.
package typegraph

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"dirpx.dev/tdx/metadata"
)

var (
	// ErrArityMismatch is returned by Instantiate when the argument count
	// differs from the definition's generic parameter count.
	ErrArityMismatch = errors.New("tdx(typegraph): type argument count mismatch")
	// ErrGenericArityMismatch is the MakeGeneric flavour of ErrArityMismatch.
	ErrGenericArityMismatch = errors.New("tdx(typegraph): generic argument count mismatch")
	// ErrForeignArgument is returned when a node from another graph is used.
	ErrForeignArgument = errors.New("tdx(typegraph): type argument belongs to another metadata source")
	// ErrNullArgument is returned for nil node arguments.
	ErrNullArgument = errors.New("tdx(typegraph): nil type argument")
	// ErrNotGenericDefinition is returned by MakeGeneric on a node that is
	// not an open generic definition.
	ErrNotGenericDefinition = errors.New("tdx(typegraph): not a generic type definition")
	// ErrSourceUnloaded is returned by every operation after Unload.
	ErrSourceUnloaded = errors.New("tdx(typegraph): metadata source unloaded")
	// ErrUnknownType is returned when a signature cannot be bound to a node.
	ErrUnknownType = errors.New("tdx(typegraph): unresolvable type reference")
	// ErrViewMismatch is returned when a member view is requested through a
	// type that does not derive from the declaring node.
	ErrViewMismatch = errors.New("tdx(typegraph): view type does not derive from declaring type")
)

// maxBaseDepth bounds base-chain walks done inside the graph itself.
const maxBaseDepth = 256

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger used for graph diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.log = l
		}
	}
}

// Graph owns every node built from one metadata source.
type Graph struct {
	src metadata.Source
	log *zap.Logger

	nextID   atomic.Uint64
	unloaded atomic.Bool

	// defs maps metadata.TypeRef to its definition node.
	defs      sync.Map
	defFlight singleflight.Group

	// insts maps an instantiation key to its node.
	insts      sync.Map
	instFlight singleflight.Group

	// shapes holds array and generic-parameter nodes keyed by shapeKey.
	shapes sync.Map
}

type shapeKey struct {
	kind  Kind
	node  *Node
	value int
}

// New returns an empty graph over src.
func New(src metadata.Source, opts ...Option) *Graph {
	g := &Graph{src: src, log: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Source returns the metadata source the graph reads from.
func (g *Graph) Source() metadata.Source { return g.src }

// Unloaded reports whether Unload has been called.
func (g *Graph) Unloaded() bool { return g.unloaded.Load() }

// Unload invalidates every node of the graph together. Subsequent
// operations on the graph or its nodes fail with ErrSourceUnloaded.
func (g *Graph) Unload() {
	if g.unloaded.Swap(true) {
		return
	}
	g.defs.Clear()
	g.insts.Clear()
	g.shapes.Clear()
	g.log.Info("metadata source unloaded", zap.String("source", g.src.Name()))
}

func (g *Graph) alive() error {
	if g.unloaded.Load() {
		return fmt.Errorf("%w: %s", ErrSourceUnloaded, g.src.Name())
	}
	return nil
}

// ResolveDefinition returns the canonical definition node for ref.
func (g *Graph) ResolveDefinition(ref metadata.TypeRef) (*Node, error) {
	if err := g.alive(); err != nil {
		return nil, err
	}
	if v, ok := g.defs.Load(ref); ok {
		return v.(*Node), nil
	}
	v, err, _ := g.defFlight.Do(string(ref), func() (any, error) {
		if v, ok := g.defs.Load(ref); ok {
			return v, nil
		}
		def, err := g.src.TypeDefinition(ref)
		if err != nil {
			g.log.Debug("definition lookup failed", zap.String("ref", string(ref)), zap.Error(err))
			return nil, err
		}
		n := g.newNode(KindDefinition)
		n.def = def
		n.init()
		actual, _ := g.defs.LoadOrStore(ref, n)
		return actual, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Node), nil
}

// Instantiate returns the canonical instantiation of def with args.
// A definition without generic parameters instantiated with no arguments
// is returned unchanged.
func (g *Graph) Instantiate(def *Node, args ...*Node) (*Node, error) {
	if err := g.alive(); err != nil {
		return nil, err
	}
	if def == nil {
		return nil, ErrNullArgument
	}
	if def.g != g {
		return nil, fmt.Errorf("%w: %s", ErrForeignArgument, def)
	}
	if def.kind != KindDefinition {
		return nil, fmt.Errorf("%w: %s", ErrNotGenericDefinition, def)
	}
	if len(args) != def.def.GenericParameterCount() {
		return nil, fmt.Errorf("%w: %s expects %d, got %d",
			ErrArityMismatch, def, def.def.GenericParameterCount(), len(args))
	}
	if len(args) == 0 {
		return def, nil
	}
	if err := g.checkArgs(args); err != nil {
		return nil, err
	}
	return g.instantiate(def, args)
}

func (g *Graph) checkArgs(args []*Node) error {
	for i, a := range args {
		if a == nil {
			return fmt.Errorf("%w: position %d", ErrNullArgument, i)
		}
		if a.g != g {
			return fmt.Errorf("%w: %s at position %d", ErrForeignArgument, a, i)
		}
	}
	return nil
}

func (g *Graph) instantiate(def *Node, args []*Node) (*Node, error) {
	key := instKey(def, args)
	if v, ok := g.insts.Load(key); ok {
		return v.(*Node), nil
	}
	v, _, _ := g.instFlight.Do(key, func() (any, error) {
		if v, ok := g.insts.Load(key); ok {
			return v, nil
		}
		n := g.newNode(KindInstantiation)
		n.def = def.def
		n.generic = def
		n.args = append([]*Node(nil), args...)
		n.init()
		actual, loaded := g.insts.LoadOrStore(key, n)
		if !loaded {
			g.log.Debug("instantiation created", zap.Stringer("type", n))
		}
		return actual, nil
	})
	return v.(*Node), nil
}

func instKey(def *Node, args []*Node) string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(def.id, 10))
	for _, a := range args {
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(a.id, 10))
	}
	return b.String()
}

// ArrayOf returns the canonical array node of elem with the given rank.
func (g *Graph) ArrayOf(elem *Node, rank int) (*Node, error) {
	if err := g.alive(); err != nil {
		return nil, err
	}
	if elem == nil {
		return nil, ErrNullArgument
	}
	if elem.g != g {
		return nil, fmt.Errorf("%w: %s", ErrForeignArgument, elem)
	}
	if rank < 1 {
		rank = 1
	}
	key := shapeKey{kind: KindArray, node: elem, value: rank}
	if v, ok := g.shapes.Load(key); ok {
		return v.(*Node), nil
	}
	n := g.newNode(KindArray)
	n.elem = elem
	n.rank = rank
	n.init()
	actual, _ := g.shapes.LoadOrStore(key, n)
	return actual.(*Node), nil
}

// genericParam returns the node standing for owner's position-th parameter.
func (g *Graph) genericParam(owner *Node, position int) (*Node, error) {
	if owner == nil || owner.def == nil || position < 0 || position >= owner.def.GenericParameterCount() {
		return nil, fmt.Errorf("%w: generic parameter !%d", ErrUnknownType, position)
	}
	key := shapeKey{kind: KindGenericParameter, node: owner, value: position}
	if v, ok := g.shapes.Load(key); ok {
		return v.(*Node), nil
	}
	n := g.newNode(KindGenericParameter)
	n.owner = owner
	n.position = position
	n.init()
	actual, _ := g.shapes.LoadOrStore(key, n)
	return actual.(*Node), nil
}

// Resolve binds a context-free signature to a node. Generic parameters
// cannot be resolved without a declaring type and fail with ErrUnknownType.
func (g *Graph) Resolve(sig metadata.TypeSig) (*Node, error) {
	if err := g.alive(); err != nil {
		return nil, err
	}
	return g.resolve(sig, nil, nil)
}

// resolve binds sig using ctx as the argument list for generic parameters.
// When ctx is nil, parameters resolve to owner's generic parameter nodes.
func (g *Graph) resolve(sig metadata.TypeSig, ctx []*Node, owner *Node) (*Node, error) {
	switch sig.Kind {
	case metadata.SigNamed:
		return g.ResolveDefinition(sig.Ref)
	case metadata.SigGenericParam:
		if ctx != nil {
			if sig.Position < 0 || sig.Position >= len(ctx) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownType, sig)
			}
			return ctx[sig.Position], nil
		}
		return g.genericParam(owner, sig.Position)
	case metadata.SigArray:
		if sig.Elem == nil {
			return nil, fmt.Errorf("%w: array without element", ErrUnknownType)
		}
		elem, err := g.resolve(*sig.Elem, ctx, owner)
		if err != nil {
			return nil, err
		}
		return g.ArrayOf(elem, sig.Rank)
	case metadata.SigGeneric:
		def, err := g.ResolveDefinition(sig.Ref)
		if err != nil {
			return nil, err
		}
		args := make([]*Node, len(sig.Args))
		for i, a := range sig.Args {
			if args[i], err = g.resolve(a, ctx, owner); err != nil {
				return nil, err
			}
		}
		return g.Instantiate(def, args...)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, sig)
	}
}

// Nodes yields every definition and instantiation node built so far.
// Order is unspecified.
func (g *Graph) Nodes() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		cont := true
		g.defs.Range(func(_, v any) bool {
			cont = yield(v.(*Node))
			return cont
		})
		if !cont {
			return
		}
		g.insts.Range(func(_, v any) bool {
			return yield(v.(*Node))
		})
	}
}

func (g *Graph) newNode(kind Kind) *Node {
	return &Node{g: g, id: g.nextID.Add(1), kind: kind}
}
