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

// Package metadata defines the raw, already-validated type records that the
// type graph is built from, and the Source contract that supplies them.
//
// Records are immutable once handed out by a Source. The graph keeps shared
// references to them and never mutates them.
package metadata

import (
	"errors"
)

var (
	// ErrNotFound is returned when a Source has no definition for a TypeRef.
	ErrNotFound = errors.New("tdx(metadata): type definition not found")
	// ErrDuplicateType is returned when a definition is added twice to a source.
	ErrDuplicateType = errors.New("tdx(metadata): duplicate type definition")
)

// TypeRef identifies a type definition within a Source. It is the
// definition's full metadata name, e.g. "System.Int32" or
// "System.Collections.Generic.List`1" or "Outer+Inner".
type TypeRef string

// TypeKind classifies a type definition.
type TypeKind int

const (
	// KindClass is a reference type.
	KindClass TypeKind = iota
	// KindStruct is a value type.
	KindStruct
	// KindInterface is an interface type.
	KindInterface
	// KindEnum is an enum; its storage type is TypeDefinition.Underlying.
	KindEnum
)

// String returns the lowercase kind token used in YAML metadata.
func (k TypeKind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindStruct:
		return "struct"
	case KindInterface:
		return "interface"
	case KindEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// LayoutKind mirrors the layout flags of a type definition.
type LayoutKind int

const (
	LayoutAuto LayoutKind = iota
	LayoutSequential
	LayoutExplicit
)

// CharSet mirrors the string-format flags of a type definition.
type CharSet int

const (
	CharSetNone CharSet = iota
	CharSetAnsi
	CharSetUnicode
	CharSetAuto
)

// Layout is the physical layout declared for a type.
type Layout struct {
	Kind    LayoutKind `yaml:"kind"`
	CharSet CharSet    `yaml:"charset"`
	Pack    int        `yaml:"pack"`
	Size    int        `yaml:"size"`
}

// Attribute is one raw attribute record: the attribute type and its
// constructor arguments in declaration order.
type Attribute struct {
	Type TypeRef `yaml:"type"`
	Args []any   `yaml:"args,omitempty"`
}

// StringArg returns the i-th constructor argument if it is a string.
func (a Attribute) StringArg(i int) (string, bool) {
	if i < 0 || i >= len(a.Args) {
		return "", false
	}
	s, ok := a.Args[i].(string)
	return s, ok
}

// Accessor is a property or event accessor. A nil *Accessor means the
// accessor is absent.
type Accessor struct {
	Public bool `yaml:"public"`
}

// MemberKind is a bit set of member categories.
type MemberKind uint8

const (
	MemberField MemberKind = 1 << iota
	MemberConstructor
	MemberMethod
	MemberProperty
	MemberEvent

	// MemberAll selects every member category.
	MemberAll = MemberField | MemberConstructor | MemberMethod | MemberProperty | MemberEvent
)

// String returns a short name for a single member kind.
func (k MemberKind) String() string {
	switch k {
	case MemberField:
		return "field"
	case MemberConstructor:
		return "constructor"
	case MemberMethod:
		return "method"
	case MemberProperty:
		return "property"
	case MemberEvent:
		return "event"
	default:
		return "members"
	}
}

// Field is a raw field record.
type Field struct {
	Name       string      `yaml:"name"`
	Type       TypeSig     `yaml:"type"`
	Public     bool        `yaml:"public"`
	Static     bool        `yaml:"static"`
	Literal    any         `yaml:"literal,omitempty"`
	Attributes []Attribute `yaml:"attributes,omitempty"`
}

// Method is a raw method or constructor record. Return is nil for void.
type Method struct {
	Name       string      `yaml:"name"`
	Return     *TypeSig    `yaml:"return,omitempty"`
	Params     []TypeSig   `yaml:"params,omitempty"`
	Public     bool        `yaml:"public"`
	Static     bool        `yaml:"static"`
	Attributes []Attribute `yaml:"attributes,omitempty"`
}

// Property is a raw property record. Index is non-empty for indexers.
type Property struct {
	Name       string      `yaml:"name"`
	Type       TypeSig     `yaml:"type"`
	Get        *Accessor   `yaml:"get,omitempty"`
	Set        *Accessor   `yaml:"set,omitempty"`
	Index      []TypeSig   `yaml:"index,omitempty"`
	Static     bool        `yaml:"static"`
	Attributes []Attribute `yaml:"attributes,omitempty"`
}

// Event is a raw event record.
type Event struct {
	Name       string      `yaml:"name"`
	Handler    TypeSig     `yaml:"handler"`
	Add        *Accessor   `yaml:"add,omitempty"`
	Remove     *Accessor   `yaml:"remove,omitempty"`
	Static     bool        `yaml:"static"`
	Attributes []Attribute `yaml:"attributes,omitempty"`
}

// Members is the raw member list of one type definition, each category in
// declaration order.
type Members struct {
	Constructors []Method   `yaml:"constructors,omitempty"`
	Methods      []Method   `yaml:"methods,omitempty"`
	Fields       []Field    `yaml:"fields,omitempty"`
	Properties   []Property `yaml:"properties,omitempty"`
	Events       []Event    `yaml:"events,omitempty"`
}

// TypeDefinition is an immutable type definition record.
type TypeDefinition struct {
	Ref           TypeRef     `yaml:"ref"`
	Name          string      `yaml:"name"`
	Namespace     string      `yaml:"namespace,omitempty"`
	Declaring     TypeRef     `yaml:"declaring,omitempty"`
	GenericParams []string    `yaml:"generic_params,omitempty"`
	Kind          TypeKind    `yaml:"kind"`
	Underlying    TypeRef     `yaml:"underlying,omitempty"`
	Base          *TypeSig    `yaml:"base,omitempty"`
	Interfaces    []TypeSig   `yaml:"interfaces,omitempty"`
	Public        bool        `yaml:"public"`
	Layout        Layout      `yaml:"layout"`
	Attributes    []Attribute `yaml:"attributes,omitempty"`
	Members       `yaml:",inline"`
}

// GenericParameterCount returns the number of generic parameters declared.
func (d *TypeDefinition) GenericParameterCount() int {
	return len(d.GenericParams)
}

// MemberRef addresses one member of a definition for attribute lookups.
type MemberRef struct {
	Kind  MemberKind
	Index int
}

// Source supplies type definitions, member lists and attribute records.
// Implementations must be safe for concurrent use and side-effect free.
type Source interface {
	// Name identifies the source in diagnostics.
	Name() string
	// TypeDefinition returns the definition for ref or an error wrapping ErrNotFound.
	TypeDefinition(ref TypeRef) (*TypeDefinition, error)
	// Members returns the raw member lists of def.
	Members(def *TypeDefinition) (*Members, error)
	// Attributes returns the raw attributes of def itself (member == nil)
	// or of one of its members.
	Attributes(def *TypeDefinition, member *MemberRef) ([]Attribute, error)
}
