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

package strategy

import (
	"sync"

	"go.uber.org/zap"

	"dirpx.dev/tdx/apis"
	"dirpx.dev/tdx/converter"
	"dirpx.dev/tdx/internal/memo"
	"dirpx.dev/tdx/metadata"
	"dirpx.dev/tdx/typegraph"
	"dirpx.dev/tdx/utils/ancestry"
)

// NewAttributeStrategy creates an apis.Strategy that discovers converters
// named by a TypeConverter attribute on the type or its base chain.
func NewAttributeStrategy(log *zap.Logger) apis.Strategy {
	if log == nil {
		log = zap.NewNop()
	}
	return &attributeStrategy{log: log}
}

// attributeStrategy resolves the converter name once per type and memoizes
// the outcome, including "no converter", as a tri-state slot.
type attributeStrategy struct {
	log *zap.Logger
}

var _ apis.Strategy = (*attributeStrategy)(nil)

// cacheKey ensures memoization respects the walk depth.
type cacheKey struct {
	t        *typegraph.Node
	maxDepth int
}

// factoryCache caches discovered factories by (type, depth).
var factoryCache sync.Map // key: cacheKey, val: memo.Slot[converter.Factory]

// ClearCache drops every memoized attribute lookup.
func ClearCache() { factoryCache.Clear() }

// TryResolve builds the attribute-named converter for t.
func (s *attributeStrategy) TryResolve(t *typegraph.Node, _ any, cfg apis.Config) (converter.Converter, bool, error) {
	if t == nil {
		return nil, false, nil
	}
	slot, err := s.lookup(t, cfg)
	if err != nil {
		return nil, false, err
	}
	f, ok := slot.Get()
	if !ok {
		return nil, false, nil
	}
	c, err := f(t)
	if err != nil {
		return nil, false, err
	}
	return c, c != nil, nil
}

func (s *attributeStrategy) lookup(t *typegraph.Node, cfg apis.Config) (memo.Slot[converter.Factory], error) {
	w := ancestry.New(cfg)
	key := cacheKey{t: t, maxDepth: w.MaxDepth()}
	if v, ok := factoryCache.Load(key); ok {
		return v.(memo.Slot[converter.Factory]), nil
	}

	name, found, err := converterName(w, t)
	if err != nil {
		return memo.Slot[converter.Factory]{}, err
	}
	slot := memo.Absent[converter.Factory]()
	if found {
		if f, ok := converter.LookupFactory(name); ok {
			slot = memo.ResolvedTo(f)
		} else {
			s.log.Warn("converter factory not registered",
				zap.Stringer("type", t), zap.String("converter", name))
		}
	}
	v, _ := factoryCache.LoadOrStore(key, slot)
	return v.(memo.Slot[converter.Factory]), nil
}

// converterName returns the first TypeConverter attribute argument found
// walking from t up its base chain.
func converterName(w ancestry.Walker, t *typegraph.Node) (string, bool, error) {
	lineage, err := w.Lineage(t)
	if err != nil {
		return "", false, err
	}
	for _, n := range lineage {
		attrs, err := n.Attributes()
		if err != nil {
			return "", false, err
		}
		for _, a := range attrs {
			if a.Type != metadata.AttrTypeConverter {
				continue
			}
			if name, ok := a.StringArg(0); ok && name != "" {
				return name, true, nil
			}
		}
	}
	return "", false, nil
}
