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
	"iter"

	"dirpx.dev/tdx/metadata"
)

// MemberView is a member signature as seen through a particular node, with
// that node's type arguments substituted for generic parameters.
type MemberView struct {
	Kind metadata.MemberKind
	Name string
	// Index is the member's position within its category on the declaring
	// definition; together with Kind it addresses the raw record.
	Index int
	// DeclaringType is the node that declares the member.
	DeclaringType *Node
	// ReflectedType is the node the member was requested through.
	ReflectedType *Node
	// Type is the field, property or event handler type, or a method's
	// return type (nil for void and constructors).
	Type *Node
	// Params are method parameters or indexer parameters.
	Params []*Node
	Public bool
	Static bool

	Get, Set    *metadata.Accessor
	Add, Remove *metadata.Accessor

	// Literal is the constant value of a literal field.
	Literal any
}

// Ref addresses the raw member record for attribute lookups.
func (m *MemberView) Ref() *metadata.MemberRef {
	return &metadata.MemberRef{Kind: m.Kind, Index: m.Index}
}

// Attributes returns the raw attributes of the member.
func (m *MemberView) Attributes() ([]metadata.Attribute, error) {
	d := m.DeclaringType
	if err := d.g.alive(); err != nil {
		return nil, err
	}
	return d.g.src.Attributes(d.def, m.Ref())
}

// Members collects SpecializeMembers(filter, nil).
func (n *Node) Members(filter metadata.MemberKind) ([]*MemberView, error) {
	var out []*MemberView
	for m, err := range n.SpecializeMembers(filter, nil) {
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// SpecializeMembers yields the members of n selected by filter, with n's
// type arguments substituted into each signature. For a definition node the
// substitution is the identity. view names the node the members are seen
// through; nil means n. The sequence is lazy and can be ranged over again.
//
// A failing member yields (nil, err) and ends the sequence.
func (n *Node) SpecializeMembers(filter metadata.MemberKind, view *Node) iter.Seq2[*MemberView, error] {
	return func(yield func(*MemberView, error) bool) {
		if err := n.g.alive(); err != nil {
			yield(nil, err)
			return
		}
		v := view
		if v == nil {
			v = n
		} else if err := n.checkView(v); err != nil {
			yield(nil, err)
			return
		}
		if n.kind != KindDefinition && n.kind != KindInstantiation {
			return
		}
		raw, err := n.g.src.Members(n.def)
		if err != nil {
			yield(nil, fmt.Errorf("members of %s: %w", n, err))
			return
		}
		s := specializer{n: n, view: v}
		if filter&metadata.MemberField != 0 {
			for i := range raw.Fields {
				m, err := s.field(i, &raw.Fields[i])
				if !emit(yield, m, err) {
					return
				}
			}
		}
		if filter&metadata.MemberConstructor != 0 {
			for i := range raw.Constructors {
				m, err := s.method(metadata.MemberConstructor, i, &raw.Constructors[i])
				if !emit(yield, m, err) {
					return
				}
			}
		}
		if filter&metadata.MemberMethod != 0 {
			for i := range raw.Methods {
				m, err := s.method(metadata.MemberMethod, i, &raw.Methods[i])
				if !emit(yield, m, err) {
					return
				}
			}
		}
		if filter&metadata.MemberProperty != 0 {
			for i := range raw.Properties {
				m, err := s.property(i, &raw.Properties[i])
				if !emit(yield, m, err) {
					return
				}
			}
		}
		if filter&metadata.MemberEvent != 0 {
			for i := range raw.Events {
				m, err := s.event(i, &raw.Events[i])
				if !emit(yield, m, err) {
					return
				}
			}
		}
	}
}

// checkView verifies that view is n or derives from n.
func (n *Node) checkView(view *Node) error {
	if view.g != n.g {
		return fmt.Errorf("%w: %s", ErrForeignArgument, view)
	}
	t := view
	for range maxBaseDepth {
		if t == nil {
			break
		}
		if t == n {
			return nil
		}
		b, err := t.base()
		if err != nil {
			return err
		}
		t = b
	}
	return fmt.Errorf("%w: %s through %s", ErrViewMismatch, n, view)
}

type specializer struct {
	n    *Node
	view *Node
}

func emit(yield func(*MemberView, error) bool, m *MemberView, err error) bool {
	if err != nil {
		yield(nil, err)
		return false
	}
	return yield(m, nil)
}

func (s specializer) bind(sig metadata.TypeSig) (*Node, error) {
	t, err := s.n.g.resolve(sig, s.n.args, s.n.owningDefinition())
	if err != nil {
		return nil, fmt.Errorf("signature %s on %s: %w", sig, s.n, err)
	}
	return t, nil
}

func (s specializer) bindAll(sigs []metadata.TypeSig) ([]*Node, error) {
	if len(sigs) == 0 {
		return nil, nil
	}
	out := make([]*Node, len(sigs))
	for i, sig := range sigs {
		t, err := s.bind(sig)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func (s specializer) base(kind metadata.MemberKind, i int, name string) *MemberView {
	return &MemberView{Kind: kind, Index: i, Name: name, DeclaringType: s.n, ReflectedType: s.view}
}

func (s specializer) field(i int, f *metadata.Field) (*MemberView, error) {
	m := s.base(metadata.MemberField, i, f.Name)
	t, err := s.bind(f.Type)
	if err != nil {
		return nil, err
	}
	m.Type, m.Public, m.Static, m.Literal = t, f.Public, f.Static, f.Literal
	return m, nil
}

func (s specializer) method(kind metadata.MemberKind, i int, f *metadata.Method) (*MemberView, error) {
	m := s.base(kind, i, f.Name)
	if f.Return != nil {
		t, err := s.bind(*f.Return)
		if err != nil {
			return nil, err
		}
		m.Type = t
	}
	params, err := s.bindAll(f.Params)
	if err != nil {
		return nil, err
	}
	m.Params, m.Public, m.Static = params, f.Public, f.Static
	return m, nil
}

func (s specializer) property(i int, p *metadata.Property) (*MemberView, error) {
	m := s.base(metadata.MemberProperty, i, p.Name)
	t, err := s.bind(p.Type)
	if err != nil {
		return nil, err
	}
	params, err := s.bindAll(p.Index)
	if err != nil {
		return nil, err
	}
	m.Type, m.Params, m.Static = t, params, p.Static
	m.Get, m.Set = p.Get, p.Set
	m.Public = (p.Get != nil && p.Get.Public) || (p.Set != nil && p.Set.Public)
	return m, nil
}

func (s specializer) event(i int, e *metadata.Event) (*MemberView, error) {
	m := s.base(metadata.MemberEvent, i, e.Name)
	t, err := s.bind(e.Handler)
	if err != nil {
		return nil, err
	}
	m.Type, m.Static = t, e.Static
	m.Add, m.Remove = e.Add, e.Remove
	m.Public = (e.Add != nil && e.Add.Public) || (e.Remove != nil && e.Remove.Public)
	return m, nil
}
