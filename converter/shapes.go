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

package converter

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"dirpx.dev/tdx/metadata"
	"dirpx.dev/tdx/typegraph"
)

// Enum converts between member names and literal values of one enum type.
// Comma separated names are combined with bitwise or.
type Enum struct {
	t      *typegraph.Node
	names  []string
	values []int64
}

// NewEnum builds the converter for enum type t from its literal fields.
func NewEnum(t *typegraph.Node) (*Enum, error) {
	if t == nil || !t.IsEnum() {
		return nil, fmt.Errorf("%w: %s is not an enum", ErrNotSupported, t)
	}
	fields, err := t.Members(metadata.MemberField)
	if err != nil {
		return nil, err
	}
	e := &Enum{t: t}
	for _, f := range fields {
		if !f.Static || f.Literal == nil {
			continue
		}
		v, err := toInt64(f.Literal)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s literal %v", ErrInvalidValue, t, f.Name, f.Literal)
		}
		e.names = append(e.names, f.Name)
		e.values = append(e.values, v)
	}
	return e, nil
}

// Kind implements Converter.
func (e *Enum) Kind() Kind { return KindEnum }

// Type implements Converter.
func (e *Enum) Type() *typegraph.Node { return e.t }

// Names returns the member names in declaration order.
func (e *Enum) Names() []string { return append([]string(nil), e.names...) }

// ConvertFrom implements Converter. Strings are member names (case
// insensitive) or numbers; numbers are accepted as is.
func (e *Enum) ConvertFrom(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		v, err := toInt64(value)
		if err != nil {
			return nil, notSupported(KindEnum, value)
		}
		return v, nil
	}
	var acc int64
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if n, err := strconv.ParseInt(part, 10, 64); err == nil {
			acc |= n
			continue
		}
		found := false
		for i, name := range e.names {
			if strings.EqualFold(name, part) {
				acc |= e.values[i]
				found = true
				break
			}
		}
		if !found {
			return nil, invalid(KindEnum, s, fmt.Errorf("no member %q in %s", part, e.t))
		}
	}
	return acc, nil
}

// ConvertTo implements Converter. Values without an exact member are
// rendered as a comma separated list of flags, or as a number.
func (e *Enum) ConvertTo(value any) (string, error) {
	v, err := toInt64(value)
	if err != nil {
		return "", notSupported(KindEnum, value)
	}
	for i, x := range e.values {
		if x == v {
			return e.names[i], nil
		}
	}
	var parts []string
	rest := v
	for i, x := range e.values {
		if x != 0 && rest&x == x {
			parts = append(parts, e.names[i])
			rest &^= x
		}
	}
	if rest == 0 && len(parts) > 0 {
		return strings.Join(parts, ", "), nil
	}
	return strconv.FormatInt(v, 10), nil
}

func toInt64(v any) (int64, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), nil
	}
	return 0, fmt.Errorf("not an integer: %T", v)
}

// Array renders arrays by their type name; it converts nothing.
type Array struct{ t *typegraph.Node }

// NewArray returns the converter for array type t.
func NewArray(t *typegraph.Node) *Array { return &Array{t: t} }

func (a *Array) Kind() Kind            { return KindArray }
func (a *Array) Type() *typegraph.Node { return a.t }

func (a *Array) ConvertFrom(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	return nil, notSupported(KindArray, value)
}

func (a *Array) ConvertTo(value any) (string, error) {
	if value == nil {
		return "", nil
	}
	if a.t == nil {
		return "Array", nil
	}
	return a.t.String() + " Array", nil
}

// Collection renders any collection as "(Collection)".
type Collection struct{}

func (Collection) Kind() Kind            { return KindCollection }
func (Collection) Type() *typegraph.Node { return nil }

func (Collection) ConvertFrom(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	return nil, notSupported(KindCollection, value)
}

func (Collection) ConvertTo(value any) (string, error) {
	if value == nil {
		return "", nil
	}
	return "(Collection)", nil
}

// Nullable wraps the converter of the underlying type. The empty string
// and nil both mean "no value".
type Nullable struct {
	t          *typegraph.Node
	underlying Converter
}

// NewNullable returns the converter for nullable type t delegating to
// underlying.
func NewNullable(t *typegraph.Node, underlying Converter) *Nullable {
	return &Nullable{t: t, underlying: underlying}
}

func (n *Nullable) Kind() Kind            { return KindNullable }
func (n *Nullable) Type() *typegraph.Node { return n.t }

// Underlying returns the converter for the wrapped type.
func (n *Nullable) Underlying() Converter { return n.underlying }

func (n *Nullable) ConvertFrom(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return n.underlying.ConvertFrom(value)
}

func (n *Nullable) ConvertTo(value any) (string, error) {
	if value == nil {
		return "", nil
	}
	return n.underlying.ConvertTo(value)
}

// Reference converts references to instances of an interface type. Without
// a container to look names up in it only handles nil.
type Reference struct{ t *typegraph.Node }

// NewReference returns the reference converter for t.
func NewReference(t *typegraph.Node) *Reference { return &Reference{t: t} }

func (r *Reference) Kind() Kind            { return KindReference }
func (r *Reference) Type() *typegraph.Node { return r.t }

func (r *Reference) ConvertFrom(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if s, ok := value.(string); ok && (s == "" || s == "(none)") {
		return nil, nil
	}
	return nil, notSupported(KindReference, value)
}

func (r *Reference) ConvertTo(value any) (string, error) {
	if value == nil {
		return "(none)", nil
	}
	return fmt.Sprint(value), nil
}
