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

package tdx

import (
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"dirpx.dev/tdx/apis"
	"dirpx.dev/tdx/builder"
	"dirpx.dev/tdx/config"
	"dirpx.dev/tdx/converter"
	"dirpx.dev/tdx/descriptor"
	"dirpx.dev/tdx/extender"
	"dirpx.dev/tdx/strategy"
	"dirpx.dev/tdx/typegraph"
)

func init() {
	cfg := config.DefaultConfig()
	b := builder.New()
	reg, _ := b.BuildRegistry(cfg, nil, nil)
	res := b.BuildResolver(cfg, reg, nil, nil)
	st.Store(newState(cfg, nil, reg, res, b, false, false))
}

var (
	// ErrNilRegistry is returned when a builder returns a nil registry.
	ErrNilRegistry = errors.New("tdx: builder returned nil registry")
	// ErrNilResolver is returned when a builder returns a nil resolver.
	ErrNilResolver = errors.New("tdx: builder returned nil resolver")
)

// AttributesOf returns the merged attributes of t.
func AttributesOf(t *typegraph.Node) (*apis.AttributeSet, error) {
	return st.Load().desc.Attributes(t)
}

// PropertiesOf returns the merged properties of t. When instance sits in a
// container, the extended properties its providers contribute follow the
// declared ones.
func PropertiesOf(t *typegraph.Node, instance any) (*apis.PropertyCollection, error) {
	s := st.Load()
	props, err := s.desc.Properties(t)
	if err != nil || instance == nil {
		return props, err
	}
	ext, err := s.ext.Properties(t, instance)
	if err != nil {
		return nil, err
	}
	if ext.Len() == 0 {
		return props, nil
	}
	return apis.NewCollection(append(props.Slice(), ext.Slice()...)...), nil
}

// ExtendedPropertiesOf returns only the extended properties of instance.
func ExtendedPropertiesOf(t *typegraph.Node, instance any) (*apis.PropertyCollection, error) {
	s := st.Load()
	if _, err := s.reg.Acquire(t); err != nil {
		return nil, err
	}
	return s.ext.Properties(t, instance)
}

// EventsOf returns the merged events of t.
func EventsOf(t *typegraph.Node) (*apis.EventCollection, error) {
	return st.Load().desc.Events(t)
}

// ConverterOf returns the converter for t, or the one instance supplies.
func ConverterOf(t *typegraph.Node, instance any) (converter.Converter, error) {
	return st.Load().desc.Converter(t, instance)
}

// DefaultPropertyOf returns the default property of t, or nil.
func DefaultPropertyOf(t *typegraph.Node) (*apis.PropertyDescriptor, error) {
	return st.Load().desc.DefaultProperty(t)
}

// DefaultEventOf returns the default event of t, or nil.
func DefaultEventOf(t *typegraph.Node) (*apis.EventDescriptor, error) {
	return st.Load().desc.DefaultEvent(t)
}

// Register marks t as registered in the current registry. Registrations
// are carried over when the registry is rebuilt.
func Register(t *typegraph.Node) error {
	return st.Load().reg.Register(t)
}

// Refresh discards the merged descriptors of t. Registration is kept.
func Refresh(t *typegraph.Node) {
	st.Load().reg.Refresh(t)
}

// IsRegistered reports whether t is registered or intrinsic.
func IsRegistered(t *typegraph.Node) bool {
	return st.Load().reg.IsRegistered(t)
}

// ClassName returns the display name of t.
func ClassName(t *typegraph.Node) string {
	return st.Load().desc.ClassName(t)
}

// ClearAll drops every process-wide memo: declared descriptors, extender
// templates and attribute-named converter lookups. Per-type merged data is
// left to Refresh.
func ClearAll() {
	descriptor.ClearAll()
	extender.ClearAll()
	strategy.ClearCache()
	st.Load().log.Info("process-wide descriptor caches cleared")
}

// SetAll explicitly sets all global tdx state components.
//
// Nil arguments leave the corresponding component unchanged,
// except for ext which is always replaced. A non-nil reg or res is pinned.
//
// The snapshot is published even when an error is returned; the error
// lists registrations the rebuilt registry could not take over.
func SetAll(cfg *apis.Config, ext any, reg apis.Registry, res apis.Resolver, bld apis.Builder) error {
	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()

	ncfg := old.cfg
	if cfg != nil {
		ncfg = *cfg
	}
	nbld := old.bld
	if bld != nil {
		nbld = bld
	}

	var err error
	nreg, npreg := reg, reg != nil
	if nreg == nil {
		nreg, err = nbld.BuildRegistry(ncfg, old.reg, ext)
	}
	nres, npres := res, res != nil
	if nres == nil {
		nres = nbld.BuildResolver(ncfg, nreg, old.res, ext)
	}
	mustBuild(nreg, nres)

	st.Store(newState(ncfg, ext, nreg, nres, nbld, npreg, npres))
	return err
}

// Config returns the global tdx configuration.
func Config() apis.Config {
	return st.Load().cfg
}

// SetConfig sets the global configuration and rebuilds the layers that are
// not pinned.
func SetConfig(cfg apis.Config) error {
	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()
	return rebuild(old, cfg, old.extv, old.bld)
}

// Registry returns the global registry.
func Registry() apis.Registry {
	return st.Load().reg
}

// SetRegistry pins reg as the global registry and rebuilds the resolver
// unless it is pinned. A nil reg is ignored.
func SetRegistry(reg apis.Registry) {
	if reg == nil {
		return
	}

	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()
	nres := old.res
	if !old.pres {
		nres = old.bld.BuildResolver(old.cfg, reg, old.res, old.extv)
	}
	mustBuild(reg, nres)

	st.Store(newState(old.cfg, old.extv, reg, nres, old.bld, true, old.pres))
}

// Resolver returns the global converter resolver.
func Resolver() apis.Resolver {
	return st.Load().res
}

// SetResolver pins res as the global resolver. A nil res is ignored.
func SetResolver(res apis.Resolver) {
	if res == nil {
		return
	}

	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()
	st.Store(newState(old.cfg, old.extv, old.reg, res, old.bld, old.preg, true))
}

// Builder returns the global builder.
func Builder() apis.Builder {
	return st.Load().bld
}

// SetBuilder replaces the builder and rebuilds the layers that are not
// pinned with it. A nil b is ignored.
func SetBuilder(b apis.Builder) error {
	if b == nil {
		return nil
	}

	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()
	return rebuild(old, old.cfg, old.extv, b)
}

// SetExt replaces the extension value handed to the builder and rebuilds
// the layers that are not pinned.
func SetExt[T any](ext T) error {
	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()
	return rebuild(old, old.cfg, ext, old.bld)
}

// ExtAs returns the global extension value as type T.
func ExtAs[T any]() (T, bool) {
	ext, ok := st.Load().extv.(T)
	return ext, ok
}

// IsRegistryPinned reports whether the global registry is pinned.
func IsRegistryPinned() bool { return st.Load().preg }

// PinRegistry stops rebuilds of the global registry.
func PinRegistry() { setPins(func(s *state) { s.preg = true }) }

// UnpinRegistry lets the global registry be rebuilt again.
func UnpinRegistry() { setPins(func(s *state) { s.preg = false }) }

// IsResolverPinned reports whether the global resolver is pinned.
func IsResolverPinned() bool { return st.Load().pres }

// PinResolver stops rebuilds of the global resolver.
func PinResolver() { setPins(func(s *state) { s.pres = true }) }

// UnpinResolver lets the global resolver be rebuilt again.
func UnpinResolver() { setPins(func(s *state) { s.pres = false }) }

// setPins publishes a copy of the current state with pins changed by fn.
// The derived layers are shared with the old snapshot.
func setPins(fn func(*state)) {
	buildMu.Lock()
	defer buildMu.Unlock()

	next := *st.Load()
	fn(&next)
	st.Store(&next)
}

// rebuild publishes a state for cfg, ext and b, rebuilding unpinned layers.
// Callers hold buildMu.
func rebuild(old *state, cfg apis.Config, ext any, b apis.Builder) error {
	var err error
	nreg := old.reg
	if !old.preg {
		nreg, err = b.BuildRegistry(cfg, old.reg, ext)
	}
	nres := old.res
	if !old.pres {
		nres = b.BuildResolver(cfg, nreg, old.res, ext)
	}
	mustBuild(nreg, nres)

	st.Store(newState(cfg, ext, nreg, nres, b, old.preg, old.pres))
	return err
}

func mustBuild(reg apis.Registry, res apis.Resolver) {
	if reg == nil {
		panic(ErrNilRegistry)
	}
	if res == nil {
		panic(ErrNilResolver)
	}
}

// buildMu serializes writers so a partially built snapshot is never
// published.
var buildMu sync.Mutex

// st is the global tdx state.
var st atomic.Pointer[state]

// state is an immutable snapshot published through st. Writers build a new
// state and swap it in; published fields are never mutated.
type state struct {
	cfg  apis.Config
	extv any
	reg  apis.Registry
	res  apis.Resolver
	bld  apis.Builder
	// preg and pres pin the registry and resolver against rebuilds.
	preg bool
	pres bool

	// Derived from the fields above.
	log  *zap.Logger
	desc *descriptor.Cache
	ext  *extender.Resolver
}

func newState(cfg apis.Config, extv any, reg apis.Registry, res apis.Resolver, bld apis.Builder, preg, pres bool) *state {
	log, err := config.NewLogger(cfg)
	if err != nil {
		log = zap.NewNop()
	}
	return &state{
		cfg:  cfg,
		extv: extv,
		reg:  reg,
		res:  res,
		bld:  bld,
		preg: preg,
		pres: pres,
		log:  log,
		desc: descriptor.New(cfg, reg, res, descriptor.WithLogger(log)),
		ext:  extender.New(cfg, extender.WithLogger(log)),
	}
}
