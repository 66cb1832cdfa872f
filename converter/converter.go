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

// Package converter defines value converters and the built-in converters
// used for intrinsic types.
//
// A converter turns arbitrary input (usually strings) into the value
// representation of one type and renders values back to strings.
package converter

import (
	"errors"
	"fmt"

	"dirpx.dev/tdx/typegraph"
)

var (
	// ErrNotSupported is returned when a converter cannot handle the input.
	ErrNotSupported = errors.New("tdx(converter): conversion not supported")
	// ErrInvalidValue is returned when the input is of the right shape but
	// cannot be parsed.
	ErrInvalidValue = errors.New("tdx(converter): invalid value")
)

// Kind names a converter family.
type Kind string

const (
	KindBoolean        Kind = "Boolean"
	KindChar           Kind = "Char"
	KindSByte          Kind = "SByte"
	KindByte           Kind = "Byte"
	KindInt16          Kind = "Int16"
	KindUInt16         Kind = "UInt16"
	KindInt32          Kind = "Int32"
	KindUInt32         Kind = "UInt32"
	KindInt64          Kind = "Int64"
	KindUInt64         Kind = "UInt64"
	KindInt128         Kind = "Int128"
	KindUInt128        Kind = "UInt128"
	KindHalf           Kind = "Half"
	KindSingle         Kind = "Single"
	KindDouble         Kind = "Double"
	KindDecimal        Kind = "Decimal"
	KindString         Kind = "String"
	KindDateTime       Kind = "DateTime"
	KindDateTimeOffset Kind = "DateTimeOffset"
	KindDateOnly       Kind = "DateOnly"
	KindTimeOnly       Kind = "TimeOnly"
	KindTimeSpan       Kind = "TimeSpan"
	KindGuid           Kind = "Guid"
	KindUri            Kind = "Uri"
	KindVersion        Kind = "Version"
	KindCulture        Kind = "CultureInfo"
	KindEnum           Kind = "Enum"
	KindArray          Kind = "Array"
	KindCollection     Kind = "Collection"
	KindNullable       Kind = "Nullable"
	KindReference      Kind = "Reference"
	KindObject         Kind = "Object"
	KindCustom         Kind = "Custom"
)

// Converter converts values of one type to and from other representations.
type Converter interface {
	// Kind returns the converter family.
	Kind() Kind
	// Type returns the type a parameterized converter was built for, or nil
	// for shared converters.
	Type() *typegraph.Node
	// ConvertFrom converts value into the converter's target representation.
	ConvertFrom(value any) (any, error)
	// ConvertTo renders value as a string.
	ConvertTo(value any) (string, error)
}

func notSupported(k Kind, value any) error {
	return fmt.Errorf("%w: %s from %T", ErrNotSupported, k, value)
}

func invalid(k Kind, value any, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %s %q: %v", ErrInvalidValue, k, fmt.Sprint(value), err)
	}
	return fmt.Errorf("%w: %s %q", ErrInvalidValue, k, fmt.Sprint(value))
}

// Object is the universal fallback converter. It renders any value with
// fmt and converts nothing.
type Object struct{}

var _ Converter = Object{}

// Kind implements Converter.
func (Object) Kind() Kind { return KindObject }

// Type implements Converter.
func (Object) Type() *typegraph.Node { return nil }

// ConvertFrom implements Converter.
func (Object) ConvertFrom(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	return nil, notSupported(KindObject, value)
}

// ConvertTo implements Converter.
func (Object) ConvertTo(value any) (string, error) {
	if value == nil {
		return "", nil
	}
	return fmt.Sprint(value), nil
}
