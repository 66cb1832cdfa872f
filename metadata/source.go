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

package metadata

import (
	"fmt"
	"slices"
	"sync"
)

// MemorySource is an in-memory Source. Definitions are added up front and
// are read-only afterwards; reads are safe for concurrent use.
type MemorySource struct {
	name string

	mu   sync.RWMutex
	defs map[TypeRef]*TypeDefinition
}

// NewMemorySource returns an empty source named name.
func NewMemorySource(name string, defs ...*TypeDefinition) (*MemorySource, error) {
	s := &MemorySource{name: name, defs: make(map[TypeRef]*TypeDefinition, len(defs))}
	if err := s.Add(defs...); err != nil {
		return nil, err
	}
	return s, nil
}

// Add inserts definitions. Adding a ref twice fails with ErrDuplicateType.
func (s *MemorySource) Add(defs ...*TypeDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range defs {
		if d == nil || d.Ref == "" {
			return fmt.Errorf("tdx(metadata): definition without ref")
		}
		if _, dup := s.defs[d.Ref]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateType, d.Ref)
		}
		s.defs[d.Ref] = d
	}
	return nil
}

// Name implements Source.
func (s *MemorySource) Name() string { return s.name }

// TypeDefinition implements Source.
func (s *MemorySource) TypeDefinition(ref TypeRef) (*TypeDefinition, error) {
	s.mu.RLock()
	d, ok := s.defs[ref]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, ref, s.name)
	}
	return d, nil
}

// Members implements Source.
func (s *MemorySource) Members(def *TypeDefinition) (*Members, error) {
	if def == nil {
		return nil, fmt.Errorf("%w: nil definition", ErrNotFound)
	}
	return &def.Members, nil
}

// Attributes implements Source.
func (s *MemorySource) Attributes(def *TypeDefinition, member *MemberRef) ([]Attribute, error) {
	if def == nil {
		return nil, fmt.Errorf("%w: nil definition", ErrNotFound)
	}
	if member == nil {
		return def.Attributes, nil
	}
	m := &def.Members
	i := member.Index
	var attrs []Attribute
	ok := i >= 0
	switch member.Kind {
	case MemberField:
		if ok = ok && i < len(m.Fields); ok {
			attrs = m.Fields[i].Attributes
		}
	case MemberConstructor:
		if ok = ok && i < len(m.Constructors); ok {
			attrs = m.Constructors[i].Attributes
		}
	case MemberMethod:
		if ok = ok && i < len(m.Methods); ok {
			attrs = m.Methods[i].Attributes
		}
	case MemberProperty:
		if ok = ok && i < len(m.Properties); ok {
			attrs = m.Properties[i].Attributes
		}
	case MemberEvent:
		if ok = ok && i < len(m.Events); ok {
			attrs = m.Events[i].Attributes
		}
	default:
		ok = false
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s member %s#%d", ErrNotFound, def.Ref, member.Kind, member.Index)
	}
	return attrs, nil
}

// Refs returns every definition ref in sorted order.
func (s *MemorySource) Refs() []TypeRef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]TypeRef, 0, len(s.defs))
	for r := range s.defs {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}
