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

package extender_test

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/tdx/apis"
	"dirpx.dev/tdx/config"
	"dirpx.dev/tdx/extender"
	"dirpx.dev/tdx/internal/testfixture"
	"dirpx.dev/tdx/metadata"
	"dirpx.dev/tdx/typegraph"
)

type site struct {
	mu        sync.Mutex
	providers []apis.Provider
	store     apis.Store
}

func (s *site) Extenders() []apis.Provider {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]apis.Provider(nil), s.providers...)
}

func (s *site) Store() apis.Store { return s.store }

func (s *site) set(ps ...apis.Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers = ps
}

type component struct{ s *site }

func (c *component) Site() apis.Site {
	if c.s == nil {
		return nil
	}
	return c.s
}

type provider struct {
	t     *typegraph.Node
	yes   bool
	asked atomic.Int32
	site  apis.Site
}

func (p *provider) CanExtend(any) bool {
	p.asked.Add(1)
	return p.yes
}

func (p *provider) Type() *typegraph.Node { return p.t }

type sitedProvider struct {
	*provider
}

func (p sitedProvider) Site() apis.Site { return p.site }

func setup(t *testing.T) (*typegraph.Graph, *extender.Resolver, *typegraph.Node) {
	t.Helper()
	g := typegraph.New(testfixture.Source())
	pt, err := g.ResolveDefinition(testfixture.RefWidgetExtender)
	require.NoError(t, err)
	return g, extender.New(config.DefaultConfig()), pt
}

func def(t *testing.T, g *typegraph.Graph, ref metadata.TypeRef) *typegraph.Node {
	t.Helper()
	n, err := g.ResolveDefinition(ref)
	require.NoError(t, err)
	return n
}

func TestBitmap(t *testing.T) {
	var b extender.Bitmap
	assert.True(t, b.Set(0))
	assert.True(t, b.Set(63))
	assert.False(t, b.Set(64))
	assert.True(t, b.Has(0))
	assert.True(t, b.Has(63))
	assert.False(t, b.Has(1))
	assert.False(t, b.Has(64))
	assert.False(t, extender.Tracked(-1))
}

func TestProperties_Templates(t *testing.T) {
	g, r, pt := setup(t)
	s := &site{store: extender.NewStore()}
	s.set(&provider{t: pt, yes: true})

	props, err := r.Properties(def(t, g, testfixture.RefWidget), &component{s: s})
	require.NoError(t, err)
	assert.Equal(t, []string{"ToolTip", "HelpText"}, props.Names())

	tip := props.At(0)
	assert.True(t, tip.IsExtended())
	assert.False(t, tip.ReadOnly)
	assert.Equal(t, metadata.RefString, tip.Type.Ref())
	assert.Equal(t, "GetToolTip", tip.Getter.Name)
	assert.Equal(t, "SetToolTip", tip.Setter.Name)
	assert.True(t, tip.Attributes.Has(metadata.AttrExtenderProvided))
	assert.True(t, props.At(1).ReadOnly)
	assert.Nil(t, props.At(1).Setter)

	// Margin is declared for FancyWidget only.
	s2 := &site{store: extender.NewStore()}
	s2.set(&provider{t: pt, yes: true})
	props, err = r.Properties(def(t, g, testfixture.RefFancyWidget), &component{s: s2})
	require.NoError(t, err)
	assert.Equal(t, []string{"ToolTip", "HelpText", "Margin"}, props.Names())
}

func TestProperties_StableWhileProvidersUnchanged(t *testing.T) {
	g, r, pt := setup(t)
	widget := def(t, g, testfixture.RefWidget)
	p1 := &provider{t: pt, yes: true}
	p2 := &provider{t: pt, yes: true}
	s := &site{store: extender.NewStore()}
	s.set(p1, p2)
	c := &component{s: s}

	first, err := r.Properties(widget, c)
	require.NoError(t, err)
	assert.Equal(t, 4, first.Len())
	second, err := r.Properties(widget, c)
	require.NoError(t, err)
	assert.Same(t, first, second)

	s.set(p1)
	third, err := r.Properties(widget, c)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, third.Len())
	assert.Equal(t, []apis.Provider{p1}, r.Providers(c))

	// Same count, different member: rebuilt too.
	s.set(p2)
	fourth, err := r.Properties(widget, c)
	require.NoError(t, err)
	assert.NotSame(t, third, fourth)
	assert.Same(t, apis.Provider(p2), fourth.At(0).Provider)
}

func TestProperties_CanExtendFilters(t *testing.T) {
	g, r, pt := setup(t)
	no := &provider{t: pt, yes: false}
	yes := &provider{t: pt, yes: true}
	s := &site{store: extender.NewStore()}
	s.set(no, yes)
	c := &component{s: s}

	props, err := r.Properties(def(t, g, testfixture.RefWidget), c)
	require.NoError(t, err)
	for p := range props.All() {
		assert.Same(t, apis.Provider(yes), p.Provider)
	}
	assert.Equal(t, []apis.Provider{yes}, r.Providers(c))
}

func TestProviders_BeyondBitmapAskedAgain(t *testing.T) {
	_, r, pt := setup(t)
	ps := make([]*provider, extender.Width+2)
	list := make([]apis.Provider, len(ps))
	for i := range ps {
		// The last provider cannot extend, so the second pass runs.
		ps[i] = &provider{t: pt, yes: i != len(ps)-1}
		list[i] = ps[i]
	}
	s := &site{store: extender.NewStore()}
	s.set(list...)

	got := r.Providers(&component{s: s})
	assert.Len(t, got, extender.Width+1)
	assert.Equal(t, int32(1), ps[0].asked.Load())
	assert.Equal(t, int32(1), ps[extender.Width-1].asked.Load())
	assert.Equal(t, int32(2), ps[extender.Width].asked.Load())
}

func TestProperties_Unsited(t *testing.T) {
	g, r, _ := setup(t)
	widget := def(t, g, testfixture.RefWidget)

	props, err := r.Properties(widget, &component{})
	require.NoError(t, err)
	assert.Zero(t, props.Len())

	props, err = r.Properties(widget, 42)
	require.NoError(t, err)
	assert.Zero(t, props.Len())
	assert.Nil(t, r.Providers(nil))
}

func TestProperties_NoStoreRebuilds(t *testing.T) {
	g, r, pt := setup(t)
	widget := def(t, g, testfixture.RefWidget)
	s := &site{}
	s.set(&provider{t: pt, yes: true})
	c := &component{s: s}

	a, err := r.Properties(widget, c)
	require.NoError(t, err)
	b, err := r.Properties(widget, c)
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.Equal(t, a.Names(), b.Names())
}

func TestBoundDescriptorsCachedOnSitedProvider(t *testing.T) {
	g, r, pt := setup(t)
	widget := def(t, g, testfixture.RefWidget)
	p := sitedProvider{&provider{t: pt, yes: true, site: &site{store: extender.NewStore()}}}

	s1 := &site{store: extender.NewStore()}
	s1.set(p)
	s2 := &site{store: extender.NewStore()}
	s2.set(p)

	a, err := r.Properties(widget, &component{s: s1})
	require.NoError(t, err)
	b, err := r.Properties(widget, &component{s: s2})
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.Same(t, a.At(0), b.At(0))
}

func TestProperties_Concurrent(t *testing.T) {
	g, r, pt := setup(t)
	widget := def(t, g, testfixture.RefWidget)
	s := &site{store: extender.NewStore()}
	s.set(&provider{t: pt, yes: true})
	c := &component{s: s}

	workers := runtime.GOMAXPROCS(0) * 4
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for range 200 {
				props, err := r.Properties(widget, c)
				if err != nil || props.Len() != 2 {
					t.Errorf("Properties: len=%d err=%v", props.Len(), err)
					return
				}
			}
		}()
	}
	wg.Wait()

	extender.ClearAll()
	props, err := r.Properties(widget, c)
	require.NoError(t, err)
	assert.Equal(t, 2, props.Len())
}

// pausingStore blocks after its first write until release is closed.
type pausingStore struct {
	*extender.MapStore
	first   atomic.Bool
	paused  chan struct{}
	release chan struct{}
}

func (s *pausingStore) Store(key, value any) {
	s.MapStore.Store(key, value)
	if s.first.CompareAndSwap(false, true) {
		close(s.paused)
		<-s.release
	}
}

func TestProperties_SnapshotWriteRace(t *testing.T) {
	g, r, pt := setup(t)
	widget := def(t, g, testfixture.RefWidget)
	store := &pausingStore{
		MapStore: extender.NewStore(),
		paused:   make(chan struct{}),
		release:  make(chan struct{}),
	}
	s := &site{store: store}
	s.set(&provider{t: pt, yes: true})
	c := &component{s: s}

	var (
		slow    *apis.PropertyCollection
		slowErr error
		done    = make(chan struct{})
	)
	go func() {
		defer close(done)
		slow, slowErr = r.Properties(widget, c)
	}()
	<-store.paused

	fast, err := r.Properties(widget, c)
	require.NoError(t, err)
	close(store.release)
	<-done
	require.NoError(t, slowErr)
	assert.Same(t, fast, slow)

	later, err := r.Properties(widget, c)
	require.NoError(t, err)
	assert.Same(t, fast, later)
}

func TestProperties_KeyedByType(t *testing.T) {
	g, r, pt := setup(t)
	widget := def(t, g, testfixture.RefWidget)
	fancy := def(t, g, testfixture.RefFancyWidget)
	s := &site{store: extender.NewStore()}
	s.set(&provider{t: pt, yes: true})
	c := &component{s: s}

	props, err := r.Properties(widget, c)
	require.NoError(t, err)
	assert.Equal(t, 2, props.Len())

	props, err = r.Properties(fancy, c)
	require.NoError(t, err)
	assert.Equal(t, []string{"ToolTip", "HelpText", "Margin"}, props.Names())

	props, err = r.Properties(widget, c)
	require.NoError(t, err)
	assert.Equal(t, []string{"ToolTip", "HelpText"}, props.Names())
}
