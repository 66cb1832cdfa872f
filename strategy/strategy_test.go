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

package strategy_test

import (
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/tdx/apis"
	"dirpx.dev/tdx/config"
	"dirpx.dev/tdx/converter"
	"dirpx.dev/tdx/internal/testfixture"
	"dirpx.dev/tdx/metadata"
	"dirpx.dev/tdx/strategy"
	"dirpx.dev/tdx/typegraph"
)

type withConverter struct{ c converter.Converter }

func (w withConverter) Converter() converter.Converter { return w.c }

func def(t *testing.T, g *typegraph.Graph, ref metadata.TypeRef) *typegraph.Node {
	t.Helper()
	n, err := g.ResolveDefinition(ref)
	require.NoError(t, err)
	return n
}

func registerShapeFactory(t *testing.T) {
	t.Helper()
	require.NoError(t, converter.RegisterFactory(testfixture.ShapeConverterName,
		func(n *typegraph.Node) (converter.Converter, error) {
			return &converter.Custom{T: n}, nil
		}))
	t.Cleanup(func() {
		converter.UnregisterFactory(testfixture.ShapeConverterName)
		strategy.ClearCache()
	})
}

func TestInstanceStrategy(t *testing.T) {
	s := strategy.NewInstanceStrategy()
	cfg := config.DefaultConfig()

	c, ok, err := s.TryResolve(nil, withConverter{c: converter.Object{}}, cfg)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, converter.KindObject, c.Kind())

	_, ok, _ = s.TryResolve(nil, withConverter{}, cfg)
	assert.False(t, ok)
	_, ok, _ = s.TryResolve(nil, 42, cfg)
	assert.False(t, ok)
	_, ok, _ = s.TryResolve(nil, nil, cfg)
	assert.False(t, ok)
}

func TestIntrinsicStrategy_SkipsFallback(t *testing.T) {
	g := typegraph.New(testfixture.Source())
	s := strategy.NewIntrinsicStrategy(nil)
	cfg := config.DefaultConfig()

	c, ok, err := s.TryResolve(def(t, g, metadata.RefInt32), nil, cfg)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, converter.KindInt32, c.Kind())

	_, ok, err = s.TryResolve(def(t, g, testfixture.RefWidget), nil, cfg)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = s.TryResolve(def(t, g, testfixture.RefBadBase), nil, cfg)
	assert.ErrorIs(t, err, metadata.ErrNotFound)
}

func TestAttributeStrategy(t *testing.T) {
	registerShapeFactory(t)
	g := typegraph.New(testfixture.Source())
	s := strategy.NewAttributeStrategy(nil)
	cfg := config.DefaultConfig()

	shape := def(t, g, testfixture.RefShape)
	c, ok, err := s.TryResolve(shape, nil, cfg)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, converter.KindCustom, c.Kind())
	assert.Same(t, shape, c.Type())

	// Inherited through the base chain, parameterized by the derived type.
	circle := def(t, g, testfixture.RefCircle)
	c, ok, err = s.TryResolve(circle, nil, cfg)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, circle, c.Type())

	// Named but unregistered: known absent, falls through.
	_, ok, err = s.TryResolve(def(t, g, testfixture.RefBroken), nil, cfg)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.TryResolve(def(t, g, testfixture.RefWidget), nil, cfg)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAttributeStrategy_KnownAbsentIsMemoized(t *testing.T) {
	g := typegraph.New(testfixture.Source())
	s := strategy.NewAttributeStrategy(nil)
	cfg := config.DefaultConfig()
	broken := def(t, g, testfixture.RefBroken)

	_, ok, err := s.TryResolve(broken, nil, cfg)
	require.NoError(t, err)
	require.False(t, ok)

	// A factory registered afterwards is not seen until the cache is cleared.
	require.NoError(t, converter.RegisterFactory(testfixture.MissingConverterName,
		func(n *typegraph.Node) (converter.Converter, error) { return &converter.Custom{T: n}, nil }))
	t.Cleanup(func() {
		converter.UnregisterFactory(testfixture.MissingConverterName)
		strategy.ClearCache()
	})

	_, ok, _ = s.TryResolve(broken, nil, cfg)
	assert.False(t, ok)

	strategy.ClearCache()
	_, ok, err = s.TryResolve(broken, nil, cfg)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAttributeStrategy_Concurrent(t *testing.T) {
	registerShapeFactory(t)
	g := typegraph.New(testfixture.Source())
	s := strategy.NewAttributeStrategy(nil)
	cfg := config.DefaultConfig()
	types := []*typegraph.Node{
		def(t, g, testfixture.RefShape),
		def(t, g, testfixture.RefCircle),
		def(t, g, testfixture.RefBroken),
		def(t, g, testfixture.RefWidget),
	}
	want := []bool{true, true, false, false}

	workers := runtime.GOMAXPROCS(0) * 4
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for i := range 1000 {
				j := i % len(types)
				_, ok, err := s.TryResolve(types[j], nil, cfg)
				if err != nil || ok != want[j] {
					t.Errorf("TryResolve(%s) = %v, %v; want %v", types[j], ok, err, want[j])
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestFallbackStrategy(t *testing.T) {
	c, ok, err := strategy.NewFallbackStrategy().TryResolve(nil, nil, config.DefaultConfig())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, converter.Object{}, c)
}

var (
	_ apis.Strategy = strategy.NewInstanceStrategy()
	_ apis.Strategy = strategy.NewFallbackStrategy()
)
