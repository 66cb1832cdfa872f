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
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cast"
	"github.com/x448/float16"

	"dirpx.dev/tdx/typegraph"
)

// Layouts used by the date and time converters.
const (
	DateOnlyLayout = "2006-01-02"
	TimeOnlyLayout = "15:04:05"
)

// Scalar converts between strings and one primitive representation.
type Scalar struct {
	kind Kind
	from func(any) (any, error)
	to   func(any) (string, error)
}

var _ Converter = (*Scalar)(nil)

// Kind implements Converter.
func (s *Scalar) Kind() Kind { return s.kind }

// Type implements Converter.
func (s *Scalar) Type() *typegraph.Node { return nil }

// ConvertFrom implements Converter.
func (s *Scalar) ConvertFrom(value any) (any, error) {
	if str, ok := value.(string); ok {
		value = strings.TrimSpace(str)
	}
	v, err := s.from(value)
	if err != nil {
		return nil, invalid(s.kind, value, err)
	}
	return v, nil
}

// ConvertTo implements Converter.
func (s *Scalar) ConvertTo(value any) (string, error) {
	if value == nil {
		return "", nil
	}
	if s.to != nil {
		return s.to(value)
	}
	str, err := cast.ToStringE(value)
	if err != nil {
		return "", invalid(s.kind, value, err)
	}
	return str, nil
}

func wrap[T any](f func(any) (T, error)) func(any) (any, error) {
	return func(v any) (any, error) { return f(v) }
}

// signed parses a bits-wide integer. Strings are read as base 10 so a
// leading zero is not an octal prefix.
func signed[T ~int8 | ~int16 | ~int32 | ~int64](bits int) func(any) (any, error) {
	return func(v any) (any, error) {
		if s, ok := v.(string); ok {
			n, err := strconv.ParseInt(s, 10, bits)
			if err != nil {
				return nil, err
			}
			return T(n), nil
		}
		n, err := cast.ToInt64E(v)
		if err != nil {
			return nil, err
		}
		if bits < 64 && (n < -1<<(bits-1) || n > 1<<(bits-1)-1) {
			return nil, fmt.Errorf("%d out of range for %d-bit integer", n, bits)
		}
		return T(n), nil
	}
}

func unsigned[T ~uint8 | ~uint16 | ~uint32 | ~uint64](bits int) func(any) (any, error) {
	return func(v any) (any, error) {
		if s, ok := v.(string); ok {
			n, err := strconv.ParseUint(s, 10, bits)
			if err != nil {
				return nil, err
			}
			return T(n), nil
		}
		n, err := cast.ToUint64E(v)
		if err != nil {
			return nil, err
		}
		if bits < 64 && n > 1<<bits-1 {
			return nil, fmt.Errorf("%d out of range for %d-bit unsigned integer", n, bits)
		}
		return T(n), nil
	}
}

// NewScalar returns the built-in converter for a primitive kind, or nil if
// kind is not a scalar kind.
func NewScalar(kind Kind) *Scalar {
	s := &Scalar{kind: kind}
	switch kind {
	case KindBoolean:
		s.from = wrap(cast.ToBoolE)
	case KindChar:
		s.from = toChar
		s.to = func(v any) (string, error) {
			if r, ok := v.(rune); ok {
				return string(r), nil
			}
			return cast.ToStringE(v)
		}
	case KindSByte:
		s.from = signed[int8](8)
	case KindByte:
		s.from = unsigned[uint8](8)
	case KindInt16:
		s.from = signed[int16](16)
	case KindUInt16:
		s.from = unsigned[uint16](16)
	case KindInt32:
		s.from = signed[int32](32)
	case KindUInt32:
		s.from = unsigned[uint32](32)
	case KindInt64:
		s.from = signed[int64](64)
	case KindUInt64:
		s.from = unsigned[uint64](64)
	case KindInt128:
		s.from = func(v any) (any, error) { return toBig(v, true) }
		s.to = bigString
	case KindUInt128:
		s.from = func(v any) (any, error) { return toBig(v, false) }
		s.to = bigString
	case KindHalf:
		s.from = func(v any) (any, error) {
			f, err := cast.ToFloat32E(v)
			if err != nil {
				return nil, err
			}
			return float16.Fromfloat32(f), nil
		}
		s.to = func(v any) (string, error) {
			if h, ok := v.(float16.Float16); ok {
				return h.String(), nil
			}
			return cast.ToStringE(v)
		}
	case KindSingle:
		s.from = wrap(cast.ToFloat32E)
	case KindDouble:
		s.from = wrap(cast.ToFloat64E)
	case KindString:
		s.from = wrap(cast.ToStringE)
	case KindDateTime, KindDateTimeOffset:
		s.from = wrap(cast.ToTimeE)
		s.to = timeFormatter(time.RFC3339Nano)
	case KindDateOnly:
		s.from = layoutParser(DateOnlyLayout)
		s.to = timeFormatter(DateOnlyLayout)
	case KindTimeOnly:
		s.from = layoutParser(TimeOnlyLayout)
		s.to = timeFormatter(TimeOnlyLayout)
	case KindTimeSpan:
		s.from = wrap(cast.ToDurationE)
	default:
		return nil
	}
	return s
}

func toChar(v any) (any, error) {
	switch x := v.(type) {
	case rune:
		return x, nil
	case string:
		if utf8.RuneCountInString(x) != 1 {
			return nil, fmt.Errorf("want exactly one character")
		}
		r, _ := utf8.DecodeRuneInString(x)
		return r, nil
	}
	n, err := cast.ToInt32E(v)
	if err != nil {
		return nil, err
	}
	return rune(n), nil
}

var (
	int128Min  = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	int128Max  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	uint128Max = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
)

func toBig(v any, signed bool) (*big.Int, error) {
	var n *big.Int
	switch x := v.(type) {
	case *big.Int:
		n = new(big.Int).Set(x)
	case string:
		var ok bool
		if n, ok = new(big.Int).SetString(x, 10); !ok {
			return nil, fmt.Errorf("not an integer")
		}
	default:
		i, err := cast.ToInt64E(v)
		if err != nil {
			return nil, err
		}
		n = big.NewInt(i)
	}
	lo, hi := int128Min, int128Max
	if !signed {
		lo, hi = new(big.Int), uint128Max
	}
	if n.Cmp(lo) < 0 || n.Cmp(hi) > 0 {
		return nil, fmt.Errorf("out of range")
	}
	return n, nil
}

func bigString(v any) (string, error) {
	if n, ok := v.(*big.Int); ok {
		return n.String(), nil
	}
	return cast.ToStringE(v)
}

func layoutParser(layout string) func(any) (any, error) {
	return func(v any) (any, error) {
		if s, ok := v.(string); ok {
			return time.Parse(layout, s)
		}
		return cast.ToTimeE(v)
	}
}

func timeFormatter(layout string) func(any) (string, error) {
	return func(v any) (string, error) {
		if t, ok := v.(time.Time); ok {
			return t.Format(layout), nil
		}
		return cast.ToStringE(v)
	}
}
