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
	"net/url"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"golang.org/x/text/language"

	"dirpx.dev/tdx/typegraph"
)

// textual is a shared converter built from a parse and a format function.
type textual struct {
	kind   Kind
	parse  func(string) (any, error)
	format func(any) (string, bool)
}

func (c *textual) Kind() Kind { return c.kind }

func (c *textual) Type() *typegraph.Node { return nil }

func (c *textual) ConvertFrom(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		out, err := c.parse(strings.TrimSpace(v))
		if err != nil {
			return nil, invalid(c.kind, v, err)
		}
		return out, nil
	}
	if _, ok := c.format(value); ok {
		return value, nil
	}
	return nil, notSupported(c.kind, value)
}

func (c *textual) ConvertTo(value any) (string, error) {
	if value == nil {
		return "", nil
	}
	if s, ok := c.format(value); ok {
		return s, nil
	}
	if s, ok := value.(string); ok {
		return s, nil
	}
	return "", notSupported(c.kind, value)
}

// NewGuid returns the Guid converter.
func NewGuid() Converter {
	return &textual{
		kind:  KindGuid,
		parse: func(s string) (any, error) { return uuid.Parse(s) },
		format: func(v any) (string, bool) {
			id, ok := v.(uuid.UUID)
			if !ok {
				return "", false
			}
			return id.String(), true
		},
	}
}

// NewUri returns the Uri converter.
func NewUri() Converter {
	return &textual{
		kind: KindUri,
		parse: func(s string) (any, error) {
			if s == "" {
				return nil, nil
			}
			return url.Parse(s)
		},
		format: func(v any) (string, bool) {
			u, ok := v.(*url.URL)
			if !ok {
				return "", false
			}
			return u.String(), true
		},
	}
}

// NewCulture returns the CultureInfo converter over BCP 47 language tags.
// The empty string is the invariant culture (language.Und).
func NewCulture() Converter {
	return &textual{
		kind: KindCulture,
		parse: func(s string) (any, error) {
			if s == "" {
				return language.Und, nil
			}
			return language.Parse(s)
		},
		format: func(v any) (string, bool) {
			t, ok := v.(language.Tag)
			if !ok {
				return "", false
			}
			if t == language.Und {
				return "", true
			}
			return t.String(), true
		},
	}
}

// NewDecimal returns the Decimal converter backed by apd.
func NewDecimal() Converter {
	return &textual{
		kind: KindDecimal,
		parse: func(s string) (any, error) {
			d, _, err := apd.NewFromString(s)
			return d, err
		},
		format: func(v any) (string, bool) {
			d, ok := v.(*apd.Decimal)
			if !ok {
				return "", false
			}
			return d.String(), true
		},
	}
}

// Version is a major.minor[.build[.revision]] version number. Absent
// components are -1.
type Version struct {
	Major, Minor, Build, Revision int
}

func (v Version) String() string {
	parts := []int{v.Major, v.Minor, v.Build, v.Revision}
	n := 2
	if v.Build >= 0 {
		n = 3
		if v.Revision >= 0 {
			n = 4
		}
	}
	s := make([]string, n)
	for i := range n {
		s[i] = strconv.Itoa(parts[i])
	}
	return strings.Join(s, ".")
}

// ParseVersion parses a two to four component version string.
func ParseVersion(s string) (Version, error) {
	fields := strings.Split(s, ".")
	if len(fields) < 2 || len(fields) > 4 {
		return Version{}, fmt.Errorf("want 2 to 4 components, got %d", len(fields))
	}
	v := Version{Build: -1, Revision: -1}
	dst := []*int{&v.Major, &v.Minor, &v.Build, &v.Revision}
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("component %d: %q", i, f)
		}
		*dst[i] = n
	}
	return v, nil
}

// NewVersion returns the Version converter.
func NewVersion() Converter {
	return &textual{
		kind:  KindVersion,
		parse: func(s string) (any, error) { return ParseVersion(s) },
		format: func(v any) (string, bool) {
			ver, ok := v.(Version)
			if !ok {
				return "", false
			}
			return ver.String(), true
		},
	}
}
