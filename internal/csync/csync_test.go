// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package csync

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapBasicOperations(t *testing.T) {
	m := NewMap[string, int]()

	_, ok := m.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())

	m.Set("a", 1)
	m.Set("b", 2)
	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, m.Len())

	m.Delete("a")
	_, ok = m.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())
}

func TestMapGetOrSet(t *testing.T) {
	m := NewMap[string, int]()

	calls := 0
	v := m.GetOrSet("k", func() int { calls++; return 7 })
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, calls)

	v = m.GetOrSet("k", func() int { calls++; return 99 })
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, calls)
}

func TestMapTake(t *testing.T) {
	m := NewMap[string, string]()
	m.Set("k", "v")

	v, ok := m.Take("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	_, ok = m.Get("k")
	assert.False(t, ok)

	_, ok = m.Take("k")
	assert.False(t, ok)
}

func TestMapIteration(t *testing.T) {
	m := NewMap[string, int]()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)

	seen := make(map[string]int)
	for k, v := range m.Seq2() {
		seen[k] = v
	}
	assert.Equal(t, map[string]int{"a": 1, "b": 2, "c": 3}, seen)

	sum := 0
	for v := range m.Values() {
		sum += v
	}
	assert.Equal(t, 6, sum)

	keys := m.Keys()
	sort.Strings(keys)
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestMapClear(t *testing.T) {
	m := NewMap[int, int]()
	for i := 0; i < 10; i++ {
		m.Set(i, i)
	}
	m.Clear()
	assert.Equal(t, 0, m.Len())
}

func TestMapConcurrentAccess(t *testing.T) {
	m := NewMap[int, int]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Set(i, i*10)
			m.Get(i)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, m.Len())
	v, ok := m.Get(25)
	require.True(t, ok)
	assert.Equal(t, 250, v)
}
