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

// Package descriptor discovers and memoizes the attributes, properties,
// events and converter of a type.
//
// Two cache levels exist. Process-wide tables hold what each node declares
// itself and are dropped only by ClearAll. The merged, per-type view lives
// in the registry's TypeData and is dropped by Refresh. Both are populated
// under the single lock of internal/memo.
package descriptor

import (
	"go.uber.org/zap"

	"dirpx.dev/tdx/apis"
	"dirpx.dev/tdx/converter"
	"dirpx.dev/tdx/metadata"
	"dirpx.dev/tdx/typegraph"
	"dirpx.dev/tdx/utils/ancestry"
)

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger. nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

// Cache answers descriptor queries for one registry and resolver.
// It holds no state of its own and is cheap to create.
type Cache struct {
	cfg    apis.Config
	reg    apis.Registry
	res    apis.Resolver
	walker ancestry.Walker
	log    *zap.Logger
}

// New returns a Cache over reg and res.
func New(cfg apis.Config, reg apis.Registry, res apis.Resolver, opts ...Option) *Cache {
	c := &Cache{cfg: cfg, reg: reg, res: res, walker: ancestry.New(cfg), log: zap.NewNop()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Registry returns the registry the cache reads TypeData from.
func (c *Cache) Registry() apis.Registry { return c.reg }

// Register marks t as explicitly registered.
func (c *Cache) Register(t *typegraph.Node) error { return c.reg.Register(t) }

// IsRegistered reports explicit registration or intrinsic status.
func (c *Cache) IsRegistered(t *typegraph.Node) bool { return c.reg.IsRegistered(t) }

// Refresh forces t to repopulate on the next query.
func (c *Cache) Refresh(t *typegraph.Node) { c.reg.Refresh(t) }

// IsPopulated reports whether any facet of t has been computed.
func (c *Cache) IsPopulated(t *typegraph.Node) bool {
	d, ok := c.reg.Find(t)
	return ok && d.IsPopulated()
}

// PopulatedTypes returns the populated types that belong to g.
func (c *Cache) PopulatedTypes(g *typegraph.Graph) []*typegraph.Node {
	var out []*typegraph.Node
	for _, e := range c.reg.Entries() {
		if e.Populated && e.Type.Graph() == g {
			out = append(out, e.Type)
		}
	}
	return out
}

// ClassName returns the full name of t, or its display string for
// constructed shapes.
func (c *Cache) ClassName(t *typegraph.Node) string {
	if name, ok := t.FullName(); ok {
		return name
	}
	return t.String()
}

// Attributes returns t's own attributes followed by those inherited from
// its interfaces and base types. Once an attribute type has been taken from
// a type's own list or from one of its interfaces, later groups and base
// types cannot add it again; repeats inside a single list are kept. Interface attributes on the skip
// list never appear, and interfaces of interfaces are not visited.
func (c *Cache) Attributes(t *typegraph.Node) (*apis.AttributeSet, error) {
	d, err := c.reg.Acquire(t)
	if err != nil {
		return nil, err
	}
	return d.Attributes.Get(func() (*apis.AttributeSet, error) {
		set, err := c.mergeAttributes(t)
		if err != nil {
			return nil, err
		}
		c.log.Debug("attributes populated", zap.Stringer("type", t), zap.Int("count", set.Len()))
		return set, nil
	})
}

func (c *Cache) mergeAttributes(t *typegraph.Node) (*apis.AttributeSet, error) {
	lineage, err := c.walker.Lineage(t)
	if err != nil {
		return nil, err
	}
	var out []metadata.Attribute
	seen := map[metadata.TypeRef]struct{}{}
	add := func(attrs []metadata.Attribute, skip map[metadata.TypeRef]struct{}) {
		level := map[metadata.TypeRef]struct{}{}
		for _, a := range attrs {
			if _, ok := skip[a.Type]; ok {
				continue
			}
			if _, ok := seen[a.Type]; ok {
				continue
			}
			out = append(out, a)
			level[a.Type] = struct{}{}
		}
		for ref := range level {
			seen[ref] = struct{}{}
		}
	}
	for _, n := range lineage {
		own, err := declaredAttributes(n)
		if err != nil {
			return nil, err
		}
		add(own, nil)
		ifaces, err := c.walker.DirectInterfaces(n)
		if err != nil {
			return nil, err
		}
		for _, i := range ifaces {
			attrs, err := declaredAttributes(i)
			if err != nil {
				return nil, err
			}
			add(attrs, skipInterfaceAttributes)
		}
	}
	return apis.NewAttributeSet(out...), nil
}

// Properties returns the public, readable, non-indexed instance properties
// of t, most derived declarations first. A property hidden by a derived
// declaration of the same name appears once.
func (c *Cache) Properties(t *typegraph.Node) (*apis.PropertyCollection, error) {
	d, err := c.reg.Acquire(t)
	if err != nil {
		return nil, err
	}
	return d.Properties.Get(func() (*apis.PropertyCollection, error) {
		lineage, err := c.walker.Lineage(t)
		if err != nil {
			return nil, err
		}
		var out []*apis.PropertyDescriptor
		names := map[string]struct{}{}
		for _, n := range lineage {
			declared, err := declaredProperties(n)
			if err != nil {
				return nil, err
			}
			for _, p := range declared {
				if _, ok := names[p.Name]; ok {
					continue
				}
				names[p.Name] = struct{}{}
				out = append(out, p)
			}
		}
		c.log.Debug("properties populated", zap.Stringer("type", t), zap.Int("count", len(out)))
		return apis.NewCollection(out...), nil
	})
}

// Events returns the public instance events of t whose add and remove
// accessors are declared together, most derived first.
func (c *Cache) Events(t *typegraph.Node) (*apis.EventCollection, error) {
	d, err := c.reg.Acquire(t)
	if err != nil {
		return nil, err
	}
	return d.Events.Get(func() (*apis.EventCollection, error) {
		lineage, err := c.walker.Lineage(t)
		if err != nil {
			return nil, err
		}
		var out []*apis.EventDescriptor
		names := map[string]struct{}{}
		for _, n := range lineage {
			declared, err := declaredEvents(n)
			if err != nil {
				return nil, err
			}
			for _, e := range declared {
				if _, ok := names[e.Name]; ok {
					continue
				}
				names[e.Name] = struct{}{}
				out = append(out, e)
			}
		}
		c.log.Debug("events populated", zap.Stringer("type", t), zap.Int("count", len(out)))
		return apis.NewCollection(out...), nil
	})
}

// Converter returns the converter for t. An instance implementing
// apis.ConverterProvider is asked first and its answer is not cached.
func (c *Cache) Converter(t *typegraph.Node, instance any) (converter.Converter, error) {
	d, err := c.reg.Acquire(t)
	if err != nil {
		return nil, err
	}
	if _, ok := instance.(apis.ConverterProvider); ok {
		return c.res.Resolve(t, instance, c.cfg)
	}
	return d.Converter.Get(func() (converter.Converter, error) {
		conv, err := c.res.Resolve(t, nil, c.cfg)
		if err != nil {
			return nil, err
		}
		c.log.Debug("converter populated", zap.Stringer("type", t), zap.String("kind", string(conv.Kind())))
		return conv, nil
	})
}

// DefaultProperty returns the property named by a DefaultProperty
// attribute on t or its bases, or nil.
func (c *Cache) DefaultProperty(t *typegraph.Node) (*apis.PropertyDescriptor, error) {
	name, ok, err := c.defaultName(t, metadata.AttrDefaultProperty)
	if err != nil || !ok {
		return nil, err
	}
	props, err := c.Properties(t)
	if err != nil {
		return nil, err
	}
	p, _ := props.Find(name, false)
	return p, nil
}

// DefaultEvent returns the event named by a DefaultEvent attribute on t or
// its bases, or nil.
func (c *Cache) DefaultEvent(t *typegraph.Node) (*apis.EventDescriptor, error) {
	name, ok, err := c.defaultName(t, metadata.AttrDefaultEvent)
	if err != nil || !ok {
		return nil, err
	}
	events, err := c.Events(t)
	if err != nil {
		return nil, err
	}
	e, _ := events.Find(name, false)
	return e, nil
}

func (c *Cache) defaultName(t *typegraph.Node, ref metadata.TypeRef) (string, bool, error) {
	attrs, err := c.Attributes(t)
	if err != nil {
		return "", false, err
	}
	a, ok := attrs.Find(ref)
	if !ok {
		return "", false, nil
	}
	name, ok := a.StringArg(0)
	return name, ok && name != "", nil
}
