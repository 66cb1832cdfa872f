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

// Package intrinsic maps well-known types to their built-in converters.
//
// Lookup order for a calling type T:
//
//  1. exact match on T
//  2. T is an enum: enum converter for T
//  3. T is an array: array converter for T
//  4. T is Nullable<U>: nullable converter wrapping U's converter
//  5. T implements System.Collections.ICollection: collection converter
//  6. T is an interface: reference converter for T
//  7. the nearest base of T that is Uri or CultureInfo
//  8. the universal Object converter
//
// Entries for steps 2, 3, 4 and 6 close over T and are built per call;
// the others are built once and shared.
package intrinsic

import (
	"errors"
	"fmt"
	"sync"

	"dirpx.dev/tdx/apis"
	"dirpx.dev/tdx/config"
	"dirpx.dev/tdx/converter"
	"dirpx.dev/tdx/metadata"
	"dirpx.dev/tdx/typegraph"
	"dirpx.dev/tdx/utils/ancestry"
)

// ErrNilType is returned when Lookup is called with a nil node.
var ErrNilType = errors.New("tdx(intrinsic): nil type provided")

type entry struct {
	name      string
	cacheable bool
	build     func(t *typegraph.Node) (converter.Converter, error)
	shared    func() (converter.Converter, error)
}

func newEntry(name string, cacheable bool, build func(*typegraph.Node) (converter.Converter, error)) *entry {
	e := &entry{name: name, cacheable: cacheable, build: build}
	if cacheable {
		e.shared = sync.OnceValues(func() (converter.Converter, error) { return build(nil) })
	}
	return e
}

func (e *entry) get(t *typegraph.Node) (converter.Converter, error) {
	if e.cacheable {
		return e.shared()
	}
	return e.build(t)
}

func shared(c converter.Converter) func(*typegraph.Node) (converter.Converter, error) {
	return func(*typegraph.Node) (converter.Converter, error) { return c, nil }
}

func scalar(k converter.Kind) func(*typegraph.Node) (converter.Converter, error) {
	return func(*typegraph.Node) (converter.Converter, error) { return converter.NewScalar(k), nil }
}

// inheritable lists the only intrinsics a derived type inherits through its
// base chain.
var inheritable = map[metadata.TypeRef]struct{}{
	metadata.RefUri:         {},
	metadata.RefCultureInfo: {},
}

// Table is the intrinsic converter table. It is immutable after New and
// safe for concurrent use.
type Table struct {
	walker ancestry.Walker

	exact      map[metadata.TypeRef]*entry
	enum       *entry
	array      *entry
	nullable   *entry
	collection *entry
	reference  *entry
	object     *entry
}

// New builds the table. cfg.MaxDepth bounds the base-chain walk.
func New(cfg apis.Config) *Table {
	t := &Table{walker: ancestry.New(cfg)}

	t.object = newEntry("Object", true, shared(converter.Object{}))
	t.collection = newEntry("Collection", true, shared(converter.Collection{}))
	t.enum = newEntry("Enum", false, func(n *typegraph.Node) (converter.Converter, error) {
		return converter.NewEnum(n)
	})
	t.array = newEntry("Array", false, func(n *typegraph.Node) (converter.Converter, error) {
		return converter.NewArray(n), nil
	})
	t.reference = newEntry("Reference", false, func(n *typegraph.Node) (converter.Converter, error) {
		return converter.NewReference(n), nil
	})
	t.nullable = newEntry("Nullable", false, t.buildNullable)

	t.exact = map[metadata.TypeRef]*entry{
		metadata.RefBoolean:        newEntry("Boolean", true, scalar(converter.KindBoolean)),
		metadata.RefChar:           newEntry("Char", true, scalar(converter.KindChar)),
		metadata.RefSByte:          newEntry("SByte", true, scalar(converter.KindSByte)),
		metadata.RefByte:           newEntry("Byte", true, scalar(converter.KindByte)),
		metadata.RefInt16:          newEntry("Int16", true, scalar(converter.KindInt16)),
		metadata.RefUInt16:         newEntry("UInt16", true, scalar(converter.KindUInt16)),
		metadata.RefInt32:          newEntry("Int32", true, scalar(converter.KindInt32)),
		metadata.RefUInt32:         newEntry("UInt32", true, scalar(converter.KindUInt32)),
		metadata.RefInt64:          newEntry("Int64", true, scalar(converter.KindInt64)),
		metadata.RefUInt64:         newEntry("UInt64", true, scalar(converter.KindUInt64)),
		metadata.RefInt128:         newEntry("Int128", true, scalar(converter.KindInt128)),
		metadata.RefUInt128:        newEntry("UInt128", true, scalar(converter.KindUInt128)),
		metadata.RefHalf:           newEntry("Half", true, scalar(converter.KindHalf)),
		metadata.RefSingle:         newEntry("Single", true, scalar(converter.KindSingle)),
		metadata.RefDouble:         newEntry("Double", true, scalar(converter.KindDouble)),
		metadata.RefString:         newEntry("String", true, scalar(converter.KindString)),
		metadata.RefDateTime:       newEntry("DateTime", true, scalar(converter.KindDateTime)),
		metadata.RefDateTimeOffset: newEntry("DateTimeOffset", true, scalar(converter.KindDateTimeOffset)),
		metadata.RefDateOnly:       newEntry("DateOnly", true, scalar(converter.KindDateOnly)),
		metadata.RefTimeOnly:       newEntry("TimeOnly", true, scalar(converter.KindTimeOnly)),
		metadata.RefTimeSpan:       newEntry("TimeSpan", true, scalar(converter.KindTimeSpan)),
		metadata.RefDecimal:        newEntry("Decimal", true, shared(converter.NewDecimal())),
		metadata.RefGuid:           newEntry("Guid", true, shared(converter.NewGuid())),
		metadata.RefUri:            newEntry("Uri", true, shared(converter.NewUri())),
		metadata.RefVersion:        newEntry("Version", true, shared(converter.NewVersion())),
		metadata.RefCultureInfo:    newEntry("CultureInfo", true, shared(converter.NewCulture())),
		metadata.RefArray:          newEntry("Array", true, shared(converter.NewArray(nil))),
		metadata.RefICollection:    t.collection,
		metadata.RefObject:         t.object,
	}
	return t
}

var defaultTable = sync.OnceValue(func() *Table { return New(config.DefaultConfig()) })

// Default returns the process-wide table built with the default config.
func Default() *Table { return defaultTable() }

// Len returns the number of exact-match entries.
func (t *Table) Len() int { return len(t.exact) }

// Lookup resolves the intrinsic converter for calling type n.
func (t *Table) Lookup(n *typegraph.Node) (converter.Converter, error) {
	if n == nil {
		return nil, ErrNilType
	}
	if n.IsDefinition() {
		if e, ok := t.exact[n.Ref()]; ok {
			return e.get(n)
		}
	}
	if n.IsEnum() {
		return t.enum.get(n)
	}
	if n.IsArray() {
		return t.array.get(n)
	}
	if n.IsConstructedGeneric() && n.Ref() == metadata.RefNullable {
		return t.nullable.get(n)
	}
	if !n.IsGenericParameter() {
		ok, err := t.walker.ImplementsRef(n, metadata.RefICollection)
		if err != nil {
			return nil, err
		}
		if ok {
			return t.collection.get(n)
		}
	}
	if n.IsInterface() {
		return t.reference.get(n)
	}
	base, err := t.walker.BaseChain(n)
	if err != nil {
		return nil, err
	}
	for _, b := range base {
		if !b.IsDefinition() {
			continue
		}
		if _, ok := inheritable[b.Ref()]; ok {
			return t.exact[b.Ref()].get(b)
		}
	}
	return t.object.get(n)
}

func (t *Table) buildNullable(n *typegraph.Node) (converter.Converter, error) {
	args := n.Args()
	if len(args) != 1 {
		return nil, fmt.Errorf("tdx(intrinsic): %s: nullable without argument", n)
	}
	u, err := t.Lookup(args[0])
	if err != nil {
		return nil, err
	}
	return converter.NewNullable(n, u), nil
}

// IsFallback reports whether c is the universal Object converter.
func (t *Table) IsFallback(c converter.Converter) bool {
	_, ok := c.(converter.Object)
	return ok
}

// IsIntrinsic reports whether n resolves to anything but the universal
// Object converter.
func (t *Table) IsIntrinsic(n *typegraph.Node) (bool, error) {
	c, err := t.Lookup(n)
	if err != nil {
		return false, err
	}
	return !t.IsFallback(c), nil
}
