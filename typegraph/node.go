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

package typegraph

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"dirpx.dev/tdx/metadata"
)

// Kind is the shape of a Node.
type Kind int

const (
	// KindDefinition is a plain or open generic type definition.
	KindDefinition Kind = iota
	// KindInstantiation is a definition bound to type arguments.
	KindInstantiation
	// KindArray is an array of an element node.
	KindArray
	// KindGenericParameter stands for a definition's generic parameter.
	KindGenericParameter
)

func (k Kind) String() string {
	switch k {
	case KindDefinition:
		return "definition"
	case KindInstantiation:
		return "instantiation"
	case KindArray:
		return "array"
	case KindGenericParameter:
		return "generic-parameter"
	default:
		return "unknown"
	}
}

// Node is one type in the graph. Nodes are immutable after publication and
// safe to share across goroutines; lazily computed facts are guarded by
// sync.OnceValues.
type Node struct {
	g    *Graph
	id   uint64
	kind Kind

	// def is the definition record for definition and instantiation nodes.
	def *metadata.TypeDefinition
	// generic and args describe an instantiation.
	generic *Node
	args    []*Node
	// elem and rank describe an array.
	elem *Node
	rank int
	// owner and position describe a generic parameter.
	owner    *Node
	position int

	declaring  func() (*Node, error)
	base       func() (*Node, error)
	interfaces func() ([]*Node, error)
	underlying func() (*Node, error)
	fullName   func() (string, bool)
}

func (n *Node) init() {
	n.declaring = sync.OnceValues(n.computeDeclaring)
	n.base = sync.OnceValues(n.computeBase)
	n.interfaces = sync.OnceValues(n.computeInterfaces)
	n.underlying = sync.OnceValues(n.computeUnderlying)
	n.fullName = sync.OnceValues(n.computeFullName)
}

// Graph returns the graph that owns n.
func (n *Node) Graph() *Graph { return n.g }

// Kind returns the node shape.
func (n *Node) Kind() Kind { return n.kind }

// Definition returns the definition record behind n, or nil for arrays and
// generic parameters. Instantiations return their generic definition's record.
func (n *Node) Definition() *metadata.TypeDefinition { return n.def }

// Ref returns the definition ref, or "" for arrays and generic parameters.
func (n *Node) Ref() metadata.TypeRef {
	if n.def == nil {
		return ""
	}
	return n.def.Ref
}

// IsDefinition reports whether n is a definition node.
func (n *Node) IsDefinition() bool { return n.kind == KindDefinition }

// IsGenericDefinition reports whether n is an open generic definition.
func (n *Node) IsGenericDefinition() bool {
	return n.kind == KindDefinition && n.def.GenericParameterCount() > 0
}

// IsConstructedGeneric reports whether n is an instantiation.
func (n *Node) IsConstructedGeneric() bool { return n.kind == KindInstantiation }

// IsArray reports whether n is an array shape.
func (n *Node) IsArray() bool { return n.kind == KindArray }

// IsGenericParameter reports whether n stands for a generic parameter.
func (n *Node) IsGenericParameter() bool { return n.kind == KindGenericParameter }

// IsInterface reports whether n is an interface type.
func (n *Node) IsInterface() bool { return n.def != nil && n.def.Kind == metadata.KindInterface }

// IsEnum reports whether n is an enum type.
func (n *Node) IsEnum() bool { return n.def != nil && n.def.Kind == metadata.KindEnum }

// IsValueType reports whether n is a struct or enum.
func (n *Node) IsValueType() bool {
	return n.def != nil && (n.def.Kind == metadata.KindStruct || n.def.Kind == metadata.KindEnum)
}

// IsPublic reports the declared visibility of the definition.
func (n *Node) IsPublic() bool {
	switch n.kind {
	case KindArray:
		return n.elem.IsPublic()
	case KindGenericParameter:
		return true
	}
	return n.def.Public
}

// GenericDefinition returns the open definition of an instantiation, n
// itself for a generic definition, and nil otherwise.
func (n *Node) GenericDefinition() *Node {
	switch {
	case n.kind == KindInstantiation:
		return n.generic
	case n.IsGenericDefinition():
		return n
	}
	return nil
}

// Args returns a copy of the type arguments of an instantiation.
func (n *Node) Args() []*Node {
	return append([]*Node(nil), n.args...)
}

// Elem returns the element of an array node.
func (n *Node) Elem() *Node { return n.elem }

// Rank returns the rank of an array node, 0 otherwise.
func (n *Node) Rank() int { return n.rank }

// Position returns the index of a generic parameter node.
func (n *Node) Position() int { return n.position }

// MakeGeneric binds n's generic parameters. It is only legal on a generic
// definition and the argument count must match exactly.
func (n *Node) MakeGeneric(args ...*Node) (*Node, error) {
	if err := n.g.alive(); err != nil {
		return nil, err
	}
	if !n.IsGenericDefinition() {
		return nil, fmt.Errorf("%w: %s", ErrNotGenericDefinition, n)
	}
	if len(args) != n.def.GenericParameterCount() {
		return nil, fmt.Errorf("%w: %s expects %d, got %d",
			ErrGenericArityMismatch, n, n.def.GenericParameterCount(), len(args))
	}
	if err := n.g.checkArgs(args); err != nil {
		return nil, err
	}
	return n.g.instantiate(n, args)
}

// Name returns the simple name.
func (n *Node) Name() string {
	switch n.kind {
	case KindArray:
		return n.elem.Name() + rankSuffix(n.rank)
	case KindGenericParameter:
		if p := n.owner.def.GenericParams; n.position < len(p) && p[n.position] != "" {
			return p[n.position]
		}
		return fmt.Sprintf("!%d", n.position)
	}
	return n.def.Name
}

// Namespace returns the declared namespace.
func (n *Node) Namespace() string {
	switch n.kind {
	case KindArray:
		return n.elem.Namespace()
	case KindGenericParameter:
		return n.owner.Namespace()
	}
	return n.def.Namespace
}

// FullName returns the metadata full name. It is only defined for plain
// definitions: a nested type yields Declaring.FullName+"+"+Name, a
// namespaced type Namespace+"."+Name and a global type its Name.
func (n *Node) FullName() (string, bool) {
	return n.fullName()
}

// computeFullName walks the declaring chain without entering the outer
// types' own fullName, so a declaring cycle ends in ("", false) instead of
// waiting on itself.
func (n *Node) computeFullName() (string, bool) {
	if n.kind != KindDefinition {
		return "", false
	}
	names := []string{n.def.Name}
	cur := n
	for range maxBaseDepth {
		if cur.def.Declaring == "" {
			slices.Reverse(names)
			name := strings.Join(names, "+")
			if cur.def.Namespace == "" {
				return name, true
			}
			return cur.def.Namespace + "." + name, true
		}
		decl, err := cur.declaring()
		if err != nil || decl == nil || decl == n || decl.kind != KindDefinition {
			return "", false
		}
		names = append(names, decl.def.Name)
		cur = decl
	}
	return "", false
}

// String renders a display name for every node shape.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	switch n.kind {
	case KindInstantiation:
		var b strings.Builder
		b.WriteString(n.generic.String())
		b.WriteByte('[')
		for i, a := range n.args {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(a.String())
		}
		b.WriteByte(']')
		return b.String()
	case KindArray:
		return n.elem.String() + rankSuffix(n.rank)
	case KindGenericParameter:
		return n.Name()
	}
	if s, ok := n.FullName(); ok {
		return s
	}
	return string(n.def.Ref)
}

func rankSuffix(rank int) string {
	return "[" + strings.Repeat(",", max(rank-1, 0)) + "]"
}

// DeclaringType returns the enclosing type of a nested definition, or nil.
func (n *Node) DeclaringType() (*Node, error) {
	if err := n.g.alive(); err != nil {
		return nil, err
	}
	return n.declaring()
}

func (n *Node) computeDeclaring() (*Node, error) {
	if n.def == nil || n.def.Declaring == "" {
		return nil, nil
	}
	return n.g.ResolveDefinition(n.def.Declaring)
}

// BaseType returns the direct base type with generic arguments substituted,
// or nil for System.Object, interfaces and generic parameters.
func (n *Node) BaseType() (*Node, error) {
	if err := n.g.alive(); err != nil {
		return nil, err
	}
	return n.base()
}

func (n *Node) computeBase() (*Node, error) {
	switch n.kind {
	case KindArray:
		return n.g.ResolveDefinition(metadata.RefArray)
	case KindGenericParameter:
		return nil, nil
	}
	if n.def.Base == nil || n.def.Kind == metadata.KindInterface {
		return nil, nil
	}
	return n.g.resolve(*n.def.Base, n.args, n.owningDefinition())
}

// Interfaces returns the directly declared interfaces in declaration order,
// with generic arguments substituted.
func (n *Node) Interfaces() ([]*Node, error) {
	if err := n.g.alive(); err != nil {
		return nil, err
	}
	out, err := n.interfaces()
	if err != nil {
		return nil, err
	}
	return append([]*Node(nil), out...), nil
}

func (n *Node) computeInterfaces() ([]*Node, error) {
	if n.def == nil || len(n.def.Interfaces) == 0 {
		return nil, nil
	}
	out := make([]*Node, 0, len(n.def.Interfaces))
	for _, sig := range n.def.Interfaces {
		in, err := n.g.resolve(sig, n.args, n.owningDefinition())
		if err != nil {
			return nil, fmt.Errorf("interface %s of %s: %w", sig, n, err)
		}
		out = append(out, in)
	}
	return out, nil
}

// EnumUnderlying returns the storage type of an enum, or nil.
func (n *Node) EnumUnderlying() (*Node, error) {
	if err := n.g.alive(); err != nil {
		return nil, err
	}
	return n.underlying()
}

func (n *Node) computeUnderlying() (*Node, error) {
	if !n.IsEnum() {
		return nil, nil
	}
	ref := n.def.Underlying
	if ref == "" {
		ref = metadata.RefInt32
	}
	return n.g.ResolveDefinition(ref)
}

// Layout returns the declared physical layout. Interfaces, arrays and
// generic parameters have none.
func (n *Node) Layout() (metadata.Layout, bool) {
	if n.def == nil || n.kind == KindGenericParameter || n.IsInterface() {
		return metadata.Layout{}, false
	}
	return n.def.Layout, true
}

// Attributes returns the raw attributes declared on the definition itself.
func (n *Node) Attributes() ([]metadata.Attribute, error) {
	if err := n.g.alive(); err != nil {
		return nil, err
	}
	if n.def == nil {
		return nil, nil
	}
	return n.g.src.Attributes(n.def, nil)
}

// GUID returns the identifier declared by a GuidAttribute with a single
// string argument, or uuid.Nil.
func (n *Node) GUID() uuid.UUID {
	attrs, err := n.Attributes()
	if err != nil {
		return uuid.Nil
	}
	for _, a := range attrs {
		if a.Type != metadata.AttrGuid {
			continue
		}
		if len(a.Args) != 1 {
			return uuid.Nil
		}
		s, ok := a.StringArg(0)
		if !ok {
			return uuid.Nil
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return uuid.Nil
		}
		return id
	}
	return uuid.Nil
}

// owningDefinition is the definition node whose parameters stand in for
// unbound generic parameters in n's own signatures.
func (n *Node) owningDefinition() *Node {
	if n.kind == KindInstantiation {
		return n.generic
	}
	return n
}
