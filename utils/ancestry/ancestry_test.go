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

package ancestry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/tdx/config"
	"dirpx.dev/tdx/internal/testfixture"
	"dirpx.dev/tdx/metadata"
	"dirpx.dev/tdx/typegraph"
	"dirpx.dev/tdx/utils/ancestry"
)

func setup(t *testing.T) (*typegraph.Graph, func(metadata.TypeRef) *typegraph.Node) {
	t.Helper()
	g := typegraph.New(testfixture.Source())
	return g, func(ref metadata.TypeRef) *typegraph.Node {
		n, err := g.ResolveDefinition(ref)
		require.NoError(t, err)
		return n
	}
}

func refs(ns []*typegraph.Node) []metadata.TypeRef {
	out := make([]metadata.TypeRef, len(ns))
	for i, n := range ns {
		out[i] = n.Ref()
	}
	return out
}

func TestLineage(t *testing.T) {
	_, def := setup(t)
	w := ancestry.New(config.NewConfig())

	l, err := w.Lineage(def(testfixture.RefFancyWidget))
	require.NoError(t, err)
	assert.Equal(t, []metadata.TypeRef{testfixture.RefFancyWidget, testfixture.RefWidget, metadata.RefObject}, refs(l))

	chain, err := w.BaseChain(def(testfixture.RefFancyWidget))
	require.NoError(t, err)
	assert.Equal(t, []metadata.TypeRef{testfixture.RefWidget, metadata.RefObject}, refs(chain))

	_, err = w.Lineage(nil)
	assert.ErrorIs(t, err, ancestry.ErrNilType)
}

func TestLineage_DepthGuard(t *testing.T) {
	_, def := setup(t)
	w := ancestry.New(config.NewConfig(config.WithMaxDepth(1)))
	_, err := w.Lineage(def(testfixture.RefFancyWidget))
	assert.ErrorIs(t, err, ancestry.ErrDepthExceeded)

	_, err = w.Lineage(def(testfixture.RefWidget))
	assert.NoError(t, err)
}

func TestInterfaces(t *testing.T) {
	_, def := setup(t)
	w := ancestry.New(config.NewConfig())

	direct, err := w.DirectInterfaces(def(testfixture.RefFancyWidget))
	require.NoError(t, err)
	assert.Empty(t, direct)

	all, err := w.AllInterfaces(def(testfixture.RefFancyWidget))
	require.NoError(t, err)
	assert.Equal(t, []metadata.TypeRef{testfixture.RefMarker, testfixture.RefOther}, refs(all))

	ok, err := w.ImplementsRef(def(testfixture.RefIntList), metadata.RefICollection)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = w.ImplementsRef(def(testfixture.RefWidget), metadata.RefICollection)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsAssignableFrom(t *testing.T) {
	_, def := setup(t)
	w := ancestry.New(config.NewConfig())
	widget, fancy := def(testfixture.RefWidget), def(testfixture.RefFancyWidget)

	cases := []struct {
		name         string
		target, from *typegraph.Node
		want         bool
	}{
		{"identity", widget, widget, true},
		{"base from derived", widget, fancy, true},
		{"derived from base", fancy, widget, false},
		{"interface", def(testfixture.RefMarker), fancy, true},
		{"unrelated interface", def(testfixture.RefService), fancy, false},
		{"object", def(metadata.RefObject), fancy, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := w.IsAssignableFrom(tc.target, tc.from)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFindInLineage(t *testing.T) {
	_, def := setup(t)
	w := ancestry.New(config.NewConfig())
	found, err := w.FindInLineage(def(testfixture.RefMyUri), func(n *typegraph.Node) bool {
		return n.Ref() == metadata.RefUri
	})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, metadata.RefUri, found.Ref())

	found, err = w.FindInLineage(def(testfixture.RefPlain), func(n *typegraph.Node) bool { return false })
	require.NoError(t, err)
	assert.Nil(t, found)
}
