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

package registry

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"dirpx.dev/tdx/apis"
	"dirpx.dev/tdx/intrinsic"
	"dirpx.dev/tdx/typegraph"
)

var (
	// ErrNilType is returned when a nil node is provided.
	ErrNilType = errors.New("tdx(registry): nil type provided")
	// ErrRegistrationRequired aliases apis.ErrRegistrationRequired.
	ErrRegistrationRequired = apis.ErrRegistrationRequired
)

// Option configures a registry.
type Option func(*registry)

// WithIntrinsics sets the table used to recognize intrinsic types.
func WithIntrinsics(t *intrinsic.Table) Option {
	return func(r *registry) {
		if t != nil {
			r.intr = t
		}
	}
}

// WithLogger sets the logger. nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *registry) {
		if l != nil {
			r.log = l
		}
	}
}

// New constructs a Registry. cfg.RequireRegistration selects strict mode.
func New(cfg apis.Config, opts ...Option) apis.Registry {
	r := &registry{cfg: cfg, log: zap.NewNop()}
	for _, o := range opts {
		o(r)
	}
	if r.intr == nil {
		r.intr = intrinsic.New(cfg)
	}
	return r
}

// registry is a Registry implementation backed by sync.Map.
type registry struct {
	cfg  apis.Config
	intr *intrinsic.Table
	log  *zap.Logger
	// mu guards record creation and the registered counter.
	mu sync.Mutex
	// m maps *typegraph.Node to *record.
	m sync.Map
	// count tracks the number of registered records.
	count int
}

type record struct {
	t          *typegraph.Node
	registered atomic.Bool
	data       atomic.Pointer[apis.TypeData]
}

func newRecord(t *typegraph.Node) *record {
	rec := &record{t: t}
	rec.data.Store(apis.NewTypeData(t))
	return rec
}

func (r *registry) load(t *typegraph.Node) (*record, bool) {
	if v, ok := r.m.Load(t); ok {
		return v.(*record), true
	}
	return nil, false
}

// Register marks t as explicitly registered. Existing TypeData is kept.
func (r *registry) Register(t *typegraph.Node) error {
	if t == nil {
		return ErrNilType
	}
	if t.Graph().Unloaded() {
		return fmt.Errorf("%w: %s", typegraph.ErrSourceUnloaded, t)
	}

	// Fast read path.
	if rec, ok := r.load(t); ok && rec.registered.Load() {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.load(t)
	if !ok {
		rec = newRecord(t)
		r.m.Store(t, rec)
	}
	if !rec.registered.Swap(true) {
		r.count++
		r.log.Debug("type registered", zap.Stringer("type", t))
	}
	return nil
}

// IsRegistered reports explicit registration or intrinsic status.
func (r *registry) IsRegistered(t *typegraph.Node) bool {
	if t == nil {
		return false
	}
	if rec, ok := r.load(t); ok && rec.registered.Load() {
		return true
	}
	ok, err := r.intr.IsIntrinsic(t)
	return err == nil && ok
}

// Acquire returns the TypeData for t, enforcing strict mode.
func (r *registry) Acquire(t *typegraph.Node) (*apis.TypeData, error) {
	if t == nil {
		return nil, ErrNilType
	}
	rec, ok := r.load(t)
	if ok && (rec.registered.Load() || !r.cfg.RequireRegistration) {
		return rec.data.Load(), nil
	}
	if r.cfg.RequireRegistration {
		intr, err := r.intr.IsIntrinsic(t)
		if err != nil {
			return nil, err
		}
		if !intr {
			return nil, fmt.Errorf("%w: %s", ErrRegistrationRequired, t)
		}
		if ok {
			return rec.data.Load(), nil
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.load(t); ok {
		return rec.data.Load(), nil
	}
	rec = newRecord(t)
	r.m.Store(t, rec)
	return rec.data.Load(), nil
}

// Find returns the TypeData for t without creating a record.
func (r *registry) Find(t *typegraph.Node) (*apis.TypeData, bool) {
	if t == nil {
		return nil, false
	}
	if rec, ok := r.load(t); ok {
		return rec.data.Load(), true
	}
	return nil, false
}

// Refresh swaps in empty TypeData for t so the next query repopulates.
func (r *registry) Refresh(t *typegraph.Node) {
	if rec, ok := r.load(t); ok {
		rec.data.Store(apis.NewTypeData(t))
		r.log.Debug("type refreshed", zap.Stringer("type", t))
	}
}

// Entries returns a snapshot (order is unspecified).
func (r *registry) Entries() []apis.Record {
	entries := make([]apis.Record, 0, r.Count())
	r.m.Range(func(_, value any) bool {
		rec := value.(*record)
		entries = append(entries, apis.Record{
			Type:       rec.t,
			Registered: rec.registered.Load(),
			Populated:  rec.data.Load().IsPopulated(),
		})
		return true
	})
	return entries
}

// Count returns the number of registered types.
func (r *registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Reset clears all records.
func (r *registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m.Clear()
	r.count = 0
}
