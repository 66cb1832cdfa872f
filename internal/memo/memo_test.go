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

package memo_test

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/tdx/internal/memo"
)

func TestTable_BuildsOnceUnderContention(t *testing.T) {
	var tab memo.Table[string, *int]
	var builds atomic.Int32

	workers := runtime.GOMAXPROCS(0) * 4
	results := make([]*int, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := range workers {
		go func() {
			defer wg.Done()
			v, err := tab.Get("k", func() (*int, error) {
				builds.Add(1)
				n := 42
				return &n, nil
			})
			if err != nil {
				t.Errorf("get: %v", err)
				return
			}
			results[w] = v
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
	assert.Equal(t, 1, tab.Len())
}

func TestTable_ErrorsAreNotCached(t *testing.T) {
	var tab memo.Table[int, string]
	boom := errors.New("boom")

	_, err := tab.Get(1, func() (string, error) { return "", boom })
	require.ErrorIs(t, err, boom)
	_, ok := tab.Load(1)
	assert.False(t, ok)

	v, err := tab.Get(1, func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)

	v, err = tab.Get(2, func() (string, error) { return "two", nil })
	require.NoError(t, err)
	assert.Equal(t, "two", v)

	seen := map[int]string{}
	for k, v := range tab.All() {
		seen[k] = v
	}
	assert.Equal(t, map[int]string{1: "ok", 2: "two"}, seen)

	tab.Delete(1)
	assert.Equal(t, 1, tab.Len())
	tab.Clear()
	assert.Equal(t, 0, tab.Len())
}

func TestNestedPopulation(t *testing.T) {
	var outer memo.Cell[int]
	var inner memo.Table[string, int]

	v, err := outer.Get(func() (int, error) {
		n, err := inner.GetLocked("x", func() (int, error) { return 20, nil })
		return n + 1, err
	})
	require.NoError(t, err)
	assert.Equal(t, 21, v)
	assert.True(t, outer.Loaded())

	v, err = outer.Get(func() (int, error) { return 0, errors.New("rebuilt") })
	require.NoError(t, err)
	assert.Equal(t, 21, v)
}

func TestSlot(t *testing.T) {
	var s memo.Slot[string]
	assert.Equal(t, memo.Unresolved, s.State)
	_, ok := s.Get()
	assert.False(t, ok)

	s = memo.ResolvedTo("conv")
	v, ok := s.Get()
	assert.True(t, ok)
	assert.Equal(t, "conv", v)

	s = memo.Absent[string]()
	_, ok = s.Get()
	assert.False(t, ok)
	assert.Equal(t, "known-absent", s.State.String())
}
