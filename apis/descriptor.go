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

package apis

import (
	"iter"
	"slices"
	"strings"

	"dirpx.dev/tdx/metadata"
	"dirpx.dev/tdx/typegraph"
)

// AttributeSet is an immutable ordered list of attribute records.
type AttributeSet struct {
	attrs []metadata.Attribute
}

// NewAttributeSet copies attrs into a new set.
func NewAttributeSet(attrs ...metadata.Attribute) *AttributeSet {
	return &AttributeSet{attrs: slices.Clone(attrs)}
}

// Len returns the number of attributes.
func (s *AttributeSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.attrs)
}

// All yields the attributes in order.
func (s *AttributeSet) All() iter.Seq[metadata.Attribute] {
	return func(yield func(metadata.Attribute) bool) {
		if s == nil {
			return
		}
		for _, a := range s.attrs {
			if !yield(a) {
				return
			}
		}
	}
}

// Slice returns a copy of the attributes.
func (s *AttributeSet) Slice() []metadata.Attribute {
	if s == nil {
		return nil
	}
	return slices.Clone(s.attrs)
}

// Find returns the first attribute of type ref.
func (s *AttributeSet) Find(ref metadata.TypeRef) (metadata.Attribute, bool) {
	for a := range s.All() {
		if a.Type == ref {
			return a, true
		}
	}
	return metadata.Attribute{}, false
}

// Has reports whether an attribute of type ref is present.
func (s *AttributeSet) Has(ref metadata.TypeRef) bool {
	_, ok := s.Find(ref)
	return ok
}

// PropertyDescriptor describes one property independent of any instance.
type PropertyDescriptor struct {
	Name string
	// Type is the property type.
	Type *typegraph.Node
	// ComponentType is the type that declares the property. For extended
	// properties it is the receiver type.
	ComponentType *typegraph.Node
	ReadOnly      bool
	Attributes    *AttributeSet

	// Member is the property as seen through ComponentType. It is nil for
	// extended properties.
	Member *typegraph.MemberView

	// Provider, Getter and Setter are set for extended properties only.
	// Setter is nil when the provider has no matching Set method.
	Provider       Provider
	Getter, Setter *typegraph.MemberView
}

// DescriptorName implements Named.
func (p *PropertyDescriptor) DescriptorName() string { return p.Name }

// IsExtended reports whether p was contributed by an extender provider.
func (p *PropertyDescriptor) IsExtended() bool { return p.Provider != nil }

// EventDescriptor describes one event independent of any instance.
type EventDescriptor struct {
	Name          string
	HandlerType   *typegraph.Node
	ComponentType *typegraph.Node
	Attributes    *AttributeSet
	Member        *typegraph.MemberView
}

// DescriptorName implements Named.
func (e *EventDescriptor) DescriptorName() string { return e.Name }

// Named is implemented by descriptors held in a Collection.
type Named interface {
	DescriptorName() string
}

// Collection is an immutable ordered list of descriptors.
type Collection[D Named] struct {
	items []D
}

// PropertyCollection is the ordered property list of a type.
type PropertyCollection = Collection[*PropertyDescriptor]

// EventCollection is the ordered event list of a type.
type EventCollection = Collection[*EventDescriptor]

// NewCollection copies items into a new collection.
func NewCollection[D Named](items ...D) *Collection[D] {
	return &Collection[D]{items: slices.Clone(items)}
}

// Len returns the number of descriptors.
func (c *Collection[D]) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// At returns the i-th descriptor.
func (c *Collection[D]) At(i int) D { return c.items[i] }

// All yields the descriptors in order.
func (c *Collection[D]) All() iter.Seq[D] {
	return func(yield func(D) bool) {
		if c == nil {
			return
		}
		for _, d := range c.items {
			if !yield(d) {
				return
			}
		}
	}
}

// Slice returns a copy of the descriptors.
func (c *Collection[D]) Slice() []D {
	if c == nil {
		return nil
	}
	return slices.Clone(c.items)
}

// Names returns the descriptor names in order.
func (c *Collection[D]) Names() []string {
	out := make([]string, 0, c.Len())
	for d := range c.All() {
		out = append(out, d.DescriptorName())
	}
	return out
}

// Find returns the first descriptor called name.
func (c *Collection[D]) Find(name string, ignoreCase bool) (D, bool) {
	for d := range c.All() {
		n := d.DescriptorName()
		if n == name || (ignoreCase && strings.EqualFold(n, name)) {
			return d, true
		}
	}
	var zero D
	return zero, false
}
