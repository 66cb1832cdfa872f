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

// Package extender computes the extended properties that container-supplied
// providers contribute to an instance.
//
// The set of providers that can extend an instance is recomputed on every
// query and compared with the snapshot kept in the instance's site store.
// The cached property list records the type and provider list it was built
// from and is returned as is while both still match; otherwise it is rebuilt
// from scratch under the population lock.
package extender

import (
	"reflect"
	"slices"

	"go.uber.org/zap"

	"dirpx.dev/tdx/apis"
	"dirpx.dev/tdx/internal/memo"
	"dirpx.dev/tdx/metadata"
	"dirpx.dev/tdx/typegraph"
	"dirpx.dev/tdx/utils/ancestry"
)

// Store keys.
type (
	providersKey  struct{}
	propertiesKey struct{}
	boundKey      struct{}
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger. nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// Resolver resolves extended properties. It holds no per-instance state;
// snapshots live in each instance's store.
type Resolver struct {
	walker ancestry.Walker
	log    *zap.Logger
}

// New returns a Resolver whose walks are bounded by cfg.MaxDepth.
func New(cfg apis.Config, opts ...Option) *Resolver {
	r := &Resolver{walker: ancestry.New(cfg), log: zap.NewNop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// ClearAll drops the per provider type template cache.
func ClearAll() { templateCache.Clear() }

var empty = apis.NewCollection[*apis.PropertyDescriptor]()

func siteOf(v any) apis.Site {
	c, ok := v.(apis.Component)
	if !ok {
		return nil
	}
	return c.Site()
}

// Providers returns the providers of instance's container that can extend
// it, in container order. It updates the snapshot in the instance's store.
func (r *Resolver) Providers(instance any) []apis.Provider {
	site := siteOf(instance)
	if site == nil {
		return nil
	}
	return selectProviders(site.Extenders(), instance, site.Store())
}

// entry is the cached property list. It is valid only for the type and the
// provider list it was built from.
type entry struct {
	t         *typegraph.Node
	providers []apis.Provider
	props     *apis.PropertyCollection
}

func (e *entry) valid(t *typegraph.Node, providers []apis.Provider) bool {
	return e != nil && e.t == t && sameProviders(e.providers, providers)
}

func loadEntry(store apis.Store) *entry {
	if store == nil {
		return nil
	}
	v, _ := store.Load(propertiesKey{})
	e, _ := v.(*entry)
	return e
}

// Properties returns the extended properties for instance of type t. The
// result is the same collection across calls while t and the provider set
// are unchanged.
func (r *Resolver) Properties(t *typegraph.Node, instance any) (*apis.PropertyCollection, error) {
	site := siteOf(instance)
	if site == nil {
		return empty, nil
	}
	store := site.Store()
	current := selectProviders(site.Extenders(), instance, store)
	if len(current) == 0 {
		return empty, nil
	}
	if e := loadEntry(store); e.valid(t, current) {
		return e.props, nil
	}

	var (
		out *apis.PropertyCollection
		err error
	)
	memo.Locked(func() {
		if e := loadEntry(store); e.valid(t, current) {
			out = e.props
			return
		}
		out, err = r.build(t, current)
		if err == nil && store != nil {
			store.Store(propertiesKey{}, &entry{t: t, providers: current, props: out})
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// build binds every provider's templates and keeps those whose receiver
// type accepts t. Duplicate names are allowed. Callers hold the population
// lock.
func (r *Resolver) build(t *typegraph.Node, providers []apis.Provider) (*apis.PropertyCollection, error) {
	var out []*apis.PropertyDescriptor
	for _, p := range providers {
		bound, err := r.boundLocked(p)
		if err != nil {
			return nil, err
		}
		for _, d := range bound {
			ok, err := r.walker.IsAssignableFrom(d.ComponentType, t)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, d)
			}
		}
	}
	r.log.Debug("extended properties rebuilt",
		zap.Stringer("type", t), zap.Int("providers", len(providers)), zap.Int("properties", len(out)))
	return apis.NewCollection(out...), nil
}

// boundLocked returns p's extended property descriptors, cached in p's own
// site store when it has one.
func (r *Resolver) boundLocked(p apis.Provider) ([]*apis.PropertyDescriptor, error) {
	var store apis.Store
	if site := siteOf(p); site != nil {
		store = site.Store()
	}
	if store != nil {
		if v, ok := store.Load(boundKey{}); ok {
			return v.([]*apis.PropertyDescriptor), nil
		}
	}
	pt := p.Type()
	if pt == nil {
		return nil, nil
	}
	tpls, err := templatesLocked(r.walker, pt)
	if err != nil {
		return nil, err
	}
	out := make([]*apis.PropertyDescriptor, 0, len(tpls))
	for _, tpl := range tpls {
		out = append(out, &apis.PropertyDescriptor{
			Name:          tpl.name,
			Type:          tpl.typ,
			ComponentType: tpl.receiver,
			ReadOnly:      tpl.set == nil,
			Attributes: apis.NewAttributeSet(metadata.Attribute{
				Type: metadata.AttrExtenderProvided,
				Args: []any{string(pt.Ref()), string(tpl.receiver.Ref())},
			}),
			Provider: p,
			Getter:   tpl.get,
			Setter:   tpl.set,
		})
	}
	if store != nil {
		store.Store(boundKey{}, out)
	}
	return out, nil
}

// selectProviders computes the providers in list that can extend instance
// and compares them with the snapshot in store. On any difference the new
// set is stored.
//
// CanExtend answers for the first Width providers are kept in a Bitmap so
// the second pass does not ask again; later providers are asked twice.
func selectProviders(list []apis.Provider, instance any, store apis.Store) []apis.Provider {
	var existing []apis.Provider
	known := false
	if store != nil {
		if v, ok := store.Load(providersKey{}); ok {
			existing, known = v.([]apis.Provider), true
		}
	}
	changed := !known

	var bits Bitmap
	count, idx := 0, 0
	for i, p := range list {
		if p == nil || !p.CanExtend(instance) {
			continue
		}
		count++
		bits.Set(i)
		if !changed && (idx >= len(existing) || !same(existing[idx], p)) {
			changed = true
		}
		idx++
	}
	if known && count != len(existing) {
		changed = true
	}
	if !changed {
		return existing
	}

	current := make([]apis.Provider, 0, count)
	if count == len(list) {
		current = append(current, list...)
	} else if count > 0 {
		for i, p := range list {
			if p == nil {
				continue
			}
			if bits.Has(i) || (!Tracked(i) && p.CanExtend(instance)) {
				current = append(current, p)
			}
		}
	}
	if store != nil {
		store.Store(providersKey{}, slices.Clip(current))
	}
	return current
}

func sameProviders(a, b []apis.Provider) bool {
	return slices.EqualFunc(a, b, same)
}

// same compares provider identity. Providers of an uncomparable dynamic
// type never match, which forces a rebuild.
func same(a, b apis.Provider) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
