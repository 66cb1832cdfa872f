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
	"errors"
	"fmt"
	"sync"

	"dirpx.dev/tdx/typegraph"
)

var (
	// ErrEmptyName is returned when a factory is registered without a name.
	ErrEmptyName = errors.New("tdx(converter): empty factory name")
	// ErrNilFactory is returned when a nil factory is registered.
	ErrNilFactory = errors.New("tdx(converter): nil factory")
	// ErrDuplicateFactory is returned when a name is registered twice.
	ErrDuplicateFactory = errors.New("tdx(converter): factory already registered")
)

// Factory builds the converter named by a TypeConverterAttribute for the
// type carrying the attribute.
type Factory func(t *typegraph.Node) (Converter, error)

var (
	factoryMu sync.Mutex
	factories sync.Map // map[string]Factory
)

// RegisterFactory associates a converter name with a factory. Names are the
// first argument of TypeConverterAttribute records.
func RegisterFactory(name string, f Factory) error {
	if name == "" {
		return ErrEmptyName
	}
	if f == nil {
		return ErrNilFactory
	}
	if _, ok := factories.Load(name); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateFactory, name)
	}

	factoryMu.Lock()
	defer factoryMu.Unlock()
	if _, ok := factories.Load(name); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateFactory, name)
	}
	factories.Store(name, f)
	return nil
}

// LookupFactory returns the factory registered under name.
func LookupFactory(name string) (Factory, bool) {
	v, ok := factories.Load(name)
	if !ok {
		return nil, false
	}
	return v.(Factory), true
}

// UnregisterFactory removes name. Intended for tests.
func UnregisterFactory(name string) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factories.Delete(name)
}

// Custom adapts plain functions to a Converter.
type Custom struct {
	T    *typegraph.Node
	From func(any) (any, error)
	To   func(any) (string, error)
}

var _ Converter = (*Custom)(nil)

func (c *Custom) Kind() Kind            { return KindCustom }
func (c *Custom) Type() *typegraph.Node { return c.T }

func (c *Custom) ConvertFrom(value any) (any, error) {
	if c.From == nil {
		return nil, notSupported(KindCustom, value)
	}
	return c.From(value)
}

func (c *Custom) ConvertTo(value any) (string, error) {
	if c.To == nil {
		return Object{}.ConvertTo(value)
	}
	return c.To(value)
}
