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

package builder

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"dirpx.dev/tdx/apis"
	"dirpx.dev/tdx/intrinsic"
	"dirpx.dev/tdx/registry"
	"dirpx.dev/tdx/resolver"
	"dirpx.dev/tdx/strategy"
)

// Option configures a builder.
type Option func(*builder)

// WithLogger sets the logger handed to the registries and strategies it
// builds.
func WithLogger(l *zap.Logger) Option {
	return func(b *builder) {
		if l != nil {
			b.log = l
		}
	}
}

// New creates and returns a new instance of an apis.Builder.
func New(opts ...Option) apis.Builder {
	b := &builder{log: zap.NewNop()}
	for _, o := range opts {
		o(b)
	}
	return b
}

type builder struct {
	log *zap.Logger
}

// BuildRegistry builds a registry for cfg. Registered types of preg are
// registered again so registration survives reconfiguration; types whose
// source was unloaded are dropped and reported in the returned error.
func (b *builder) BuildRegistry(cfg apis.Config, preg apis.Registry, _ any) (apis.Registry, error) {
	nreg := registry.New(cfg,
		registry.WithIntrinsics(intrinsic.New(cfg)),
		registry.WithLogger(b.log),
	)
	if preg == nil {
		return nreg, nil
	}
	var errs error
	for _, e := range preg.Entries() {
		if !e.Registered {
			continue
		}
		if err := nreg.Register(e.Type); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("migrate %s: %w", e.Type, err))
		}
	}
	if errs != nil {
		b.log.Warn("registrations dropped during rebuild", zap.Error(errs))
	}
	return nreg, errs
}

// BuildResolver builds the converter chain:
// instance override, intrinsic table, TypeConverter attribute, Object fallback.
func (b *builder) BuildResolver(cfg apis.Config, _ apis.Registry, _ apis.Resolver, _ any) apis.Resolver {
	return resolver.New(
		strategy.NewInstanceStrategy(),
		strategy.NewIntrinsicStrategy(intrinsic.New(cfg)),
		strategy.NewAttributeStrategy(b.log),
		strategy.NewFallbackStrategy(),
	)
}
