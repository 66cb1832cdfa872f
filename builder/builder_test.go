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

package builder_test

import (
	"errors"
	"runtime"
	"sync"
	"testing"

	"go.uber.org/multierr"

	"dirpx.dev/tdx/apis"
	"dirpx.dev/tdx/builder"
	"dirpx.dev/tdx/config"
	"dirpx.dev/tdx/converter"
	"dirpx.dev/tdx/internal/testfixture"
	"dirpx.dev/tdx/metadata"
	"dirpx.dev/tdx/typegraph"
)

// selfConverting implements apis.ConverterProvider and is used to verify
// that the instance strategy takes priority over other strategies.
type selfConverting struct{}

func (selfConverting) Converter() converter.Converter {
	return &converter.Custom{}
}

func mustDef(t *testing.T, g *typegraph.Graph, ref metadata.TypeRef) *typegraph.Node {
	t.Helper()
	n, err := g.ResolveDefinition(ref)
	if err != nil {
		t.Fatalf("ResolveDefinition(%s): %v", ref, err)
	}
	return n
}

// TestBuildRegistry_Basic asserts that BuildRegistry returns a non-nil,
// working Registry.
func TestBuildRegistry_Basic(t *testing.T) {
	g := typegraph.New(testfixture.Source())
	reg, err := builder.New().BuildRegistry(config.DefaultConfig(), nil, nil)
	if err != nil || reg == nil {
		t.Fatalf("BuildRegistry: reg=%v err=%v", reg, err)
	}
	w := mustDef(t, g, testfixture.RefWidget)
	if err := reg.Register(w); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !reg.IsRegistered(w) || reg.Count() != 1 {
		t.Fatalf("registration not visible: registered=%v count=%d", reg.IsRegistered(w), reg.Count())
	}
}

// TestBuildRegistry_MigratesRegistrations checks that rebuilding keeps
// explicit registrations and drops plain records.
func TestBuildRegistry_MigratesRegistrations(t *testing.T) {
	g := typegraph.New(testfixture.Source())
	b := builder.New()
	prev, _ := b.BuildRegistry(config.DefaultConfig(), nil, nil)

	w := mustDef(t, g, testfixture.RefWidget)
	p := mustDef(t, g, testfixture.RefPlain)
	_ = prev.Register(w)
	if _, err := prev.Acquire(p); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	strict := config.NewConfig(config.WithRequireRegistration(true))
	next, err := b.BuildRegistry(strict, prev, nil)
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}
	if !next.IsRegistered(w) {
		t.Fatal("registration lost during rebuild")
	}
	if _, ok := next.Find(p); ok {
		t.Fatal("unregistered record migrated")
	}
	if _, err := next.Acquire(p); !errors.Is(err, apis.ErrRegistrationRequired) {
		t.Fatalf("strict registry accepted unregistered type: %v", err)
	}
}

// TestBuildRegistry_ReportsDroppedTypes checks that every failed migration
// is reported and the rest still carry over.
func TestBuildRegistry_ReportsDroppedTypes(t *testing.T) {
	b := builder.New()
	prev, _ := b.BuildRegistry(config.DefaultConfig(), nil, nil)

	gone := typegraph.New(testfixture.Source())
	kept := typegraph.New(testfixture.Source())
	_ = prev.Register(mustDef(t, gone, testfixture.RefWidget))
	_ = prev.Register(mustDef(t, gone, testfixture.RefPlain))
	k := mustDef(t, kept, testfixture.RefWidget)
	_ = prev.Register(k)
	gone.Unload()

	next, err := b.BuildRegistry(config.DefaultConfig(), prev, nil)
	if err == nil {
		t.Fatal("expected migration errors")
	}
	if n := len(multierr.Errors(err)); n != 2 {
		t.Fatalf("got %d migration errors, want 2: %v", n, err)
	}
	if !errors.Is(err, typegraph.ErrSourceUnloaded) {
		t.Fatalf("errors should wrap ErrSourceUnloaded: %v", err)
	}
	if next == nil || !next.IsRegistered(k) || next.Count() != 1 {
		t.Fatal("surviving registration not migrated")
	}
}

// TestBuildResolver_Order verifies resolution priority:
// instance override, intrinsic, attribute, Object fallback.
func TestBuildResolver_Order(t *testing.T) {
	t.Cleanup(func() { converter.UnregisterFactory(testfixture.ShapeConverterName) })
	if err := converter.RegisterFactory(testfixture.ShapeConverterName, func(n *typegraph.Node) (converter.Converter, error) {
		return &converter.Custom{T: n}, nil
	}); err != nil {
		t.Fatalf("RegisterFactory: %v", err)
	}

	g := typegraph.New(testfixture.Source())
	cfg := config.DefaultConfig()
	b := builder.New()
	reg, _ := b.BuildRegistry(cfg, nil, nil)
	res := b.BuildResolver(cfg, reg, nil, nil)

	cases := []struct {
		name     string
		ref      metadata.TypeRef
		instance any
		want     converter.Kind
	}{
		{"instance wins over intrinsic", metadata.RefInt32, selfConverting{}, converter.KindCustom},
		{"intrinsic", metadata.RefInt32, nil, converter.KindInt32},
		{"attribute", testfixture.RefCircle, nil, converter.KindCustom},
		{"missing factory falls back", testfixture.RefBroken, nil, converter.KindObject},
		{"fallback", testfixture.RefWidget, nil, converter.KindObject},
	}
	for _, tc := range cases {
		c, err := res.Resolve(mustDef(t, g, tc.ref), tc.instance, cfg)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if c.Kind() != tc.want {
			t.Fatalf("%s: got %s want %s", tc.name, c.Kind(), tc.want)
		}
	}
}

// TestBuildResolver_Concurrency_Smoke hammers the resolver in parallel to ensure
// it is safe to call Resolve concurrently after being built.
func TestBuildResolver_Concurrency_Smoke(t *testing.T) {
	g := typegraph.New(testfixture.Source())
	cfg := config.DefaultConfig()
	b := builder.New()
	reg, _ := b.BuildRegistry(cfg, nil, nil)
	res := b.BuildResolver(cfg, reg, nil, nil)

	types := []*typegraph.Node{
		mustDef(t, g, metadata.RefString),
		mustDef(t, g, testfixture.RefColor),
		mustDef(t, g, testfixture.RefWidget),
		mustDef(t, g, testfixture.RefService),
	}

	workers := runtime.GOMAXPROCS(0) * 4
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := range workers {
		go func() {
			defer wg.Done()
			for i := range 2000 {
				tt := types[(i+w)%len(types)]
				if _, err := res.Resolve(tt, nil, cfg); err != nil {
					t.Errorf("Resolve(%s): %v", tt, err)
					return
				}
				_, _ = res.Resolve(tt, selfConverting{}, cfg)
			}
		}()
	}
	wg.Wait()
}

// Compile-time check: builder.New() must satisfy apis.Builder.
var _ apis.Builder = builder.New()
