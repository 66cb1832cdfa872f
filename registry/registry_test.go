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

package registry_test

import (
	"errors"
	"testing"

	"dirpx.dev/tdx/apis"
	"dirpx.dev/tdx/config"
	"dirpx.dev/tdx/internal/testfixture"
	"dirpx.dev/tdx/metadata"
	"dirpx.dev/tdx/registry"
	"dirpx.dev/tdx/typegraph"
)

func node(t *testing.T, g *typegraph.Graph, ref metadata.TypeRef) *typegraph.Node {
	t.Helper()
	n, err := g.ResolveDefinition(ref)
	if err != nil {
		t.Fatalf("ResolveDefinition(%s): %v", ref, err)
	}
	return n
}

func TestRegister_Idempotent(t *testing.T) {
	g := typegraph.New(testfixture.Source())
	reg := registry.New(config.DefaultConfig())
	w := node(t, g, testfixture.RefWidget)

	if reg.IsRegistered(w) {
		t.Fatal("Widget registered before Register")
	}
	for range 3 {
		if err := reg.Register(w); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	if !reg.IsRegistered(w) {
		t.Fatal("Widget not registered after Register")
	}
	if reg.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", reg.Count())
	}
}

func TestRegister_KeepsExistingTypeData(t *testing.T) {
	g := typegraph.New(testfixture.Source())
	reg := registry.New(config.DefaultConfig())
	w := node(t, g, testfixture.RefWidget)

	before, err := reg.Acquire(w)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := reg.Register(w); err != nil {
		t.Fatalf("Register: %v", err)
	}
	after, _ := reg.Find(w)
	if before != after {
		t.Fatal("Register replaced existing TypeData")
	}
}

func TestRefresh_KeepsRegistration(t *testing.T) {
	g := typegraph.New(testfixture.Source())
	reg := registry.New(config.DefaultConfig())
	w := node(t, g, testfixture.RefWidget)

	_ = reg.Register(w)
	before, _ := reg.Acquire(w)
	if _, err := before.Attributes.Get(func() (*apis.AttributeSet, error) {
		return apis.NewAttributeSet(), nil
	}); err != nil {
		t.Fatalf("populate: %v", err)
	}
	if !before.IsPopulated() {
		t.Fatal("expected populated TypeData")
	}

	reg.Refresh(w)

	after, _ := reg.Find(w)
	if after == before || after.IsPopulated() {
		t.Fatal("Refresh did not drop populated state")
	}
	if !reg.IsRegistered(w) {
		t.Fatal("Refresh cleared registration")
	}
}

func TestIsRegistered_Intrinsic(t *testing.T) {
	g := typegraph.New(testfixture.Source())
	reg := registry.New(config.DefaultConfig())

	for _, ref := range []metadata.TypeRef{metadata.RefInt32, testfixture.RefColor, testfixture.RefService} {
		if !reg.IsRegistered(node(t, g, ref)) {
			t.Fatalf("%s should count as registered", ref)
		}
	}
	if reg.IsRegistered(nil) {
		t.Fatal("nil should not be registered")
	}
	if reg.Count() != 0 {
		t.Fatalf("intrinsics must not be counted, got %d", reg.Count())
	}
}

func TestAcquire_StrictMode(t *testing.T) {
	g := typegraph.New(testfixture.Source())
	reg := registry.New(config.NewConfig(config.WithRequireRegistration(true)))
	w := node(t, g, testfixture.RefWidget)

	if _, err := reg.Acquire(w); !errors.Is(err, registry.ErrRegistrationRequired) {
		t.Fatalf("want ErrRegistrationRequired, got %v", err)
	}
	if _, ok := reg.Find(w); ok {
		t.Fatal("failed Acquire must not create a record")
	}

	if _, err := reg.Acquire(node(t, g, metadata.RefString)); err != nil {
		t.Fatalf("intrinsic type rejected: %v", err)
	}

	_ = reg.Register(w)
	if _, err := reg.Acquire(w); err != nil {
		t.Fatalf("registered type rejected: %v", err)
	}
}

func TestAcquire_LenientModeCreatesRecord(t *testing.T) {
	g := typegraph.New(testfixture.Source())
	reg := registry.New(config.DefaultConfig())
	w := node(t, g, testfixture.RefWidget)

	d1, err := reg.Acquire(w)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	d2, _ := reg.Acquire(w)
	if d1 != d2 {
		t.Fatal("Acquire returned different TypeData")
	}
	if reg.IsRegistered(w) {
		t.Fatal("Acquire must not register")
	}
	entries := reg.Entries()
	if len(entries) != 1 || entries[0].Type != w || entries[0].Registered {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestRegister_Errors(t *testing.T) {
	reg := registry.New(config.DefaultConfig())
	if err := reg.Register(nil); err != registry.ErrNilType {
		t.Fatalf("nil type: want ErrNilType, got %v", err)
	}
	if _, err := reg.Acquire(nil); err != registry.ErrNilType {
		t.Fatalf("nil type: want ErrNilType, got %v", err)
	}

	g := typegraph.New(testfixture.Source())
	w := node(t, g, testfixture.RefWidget)
	g.Unload()
	if err := reg.Register(w); !errors.Is(err, typegraph.ErrSourceUnloaded) {
		t.Fatalf("unloaded: want ErrSourceUnloaded, got %v", err)
	}
}
