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

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teradata-labs/spindle/pkg/types"
)

// runStoreContract exercises the Store interface against any backend.
func runStoreContract(t *testing.T, store Store) {
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))

	t.Run("put and get", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, NamespaceBehaviors, "agent-1", []byte(`{"a":1}`)))

		got, err := store.Get(ctx, NamespaceBehaviors, "agent-1")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"a":1}`), got)
	})

	t.Run("put overwrites", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, NamespaceBehaviors, "agent-1", []byte(`{"a":2}`)))

		got, err := store.Get(ctx, NamespaceBehaviors, "agent-1")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"a":2}`), got)
	})

	t.Run("get missing key", func(t *testing.T) {
		_, err := store.Get(ctx, NamespaceBehaviors, "nope")
		require.Error(t, err)
		assert.True(t, types.IsKind(err, types.KindNotFound))
	})

	t.Run("namespaces are isolated", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, NamespacePatterns, "agent-1", []byte("pattern")))

		got, err := store.Get(ctx, NamespaceBehaviors, "agent-1")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"a":2}`), got)
	})

	t.Run("list", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, NamespaceKnowledge, "k1", []byte("one")))
		require.NoError(t, store.Put(ctx, NamespaceKnowledge, "k2", []byte("two")))

		all, err := store.List(ctx, NamespaceKnowledge)
		require.NoError(t, err)
		assert.Len(t, all, 2)
		assert.Equal(t, []byte("one"), all["k1"])
		assert.Equal(t, []byte("two"), all["k2"])
	})

	t.Run("list empty namespace", func(t *testing.T) {
		all, err := store.List(ctx, "empty-ns")
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, NamespaceKnowledge, "gone", []byte("x")))
		require.NoError(t, store.Delete(ctx, NamespaceKnowledge, "gone"))

		_, err := store.Get(ctx, NamespaceKnowledge, "gone")
		assert.True(t, types.IsKind(err, types.KindNotFound))
	})

	t.Run("delete absent key is not an error", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, NamespaceKnowledge, "never-existed"))
	})
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	runStoreContract(t, store)
}

func TestSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "spindle.db")
	store, err := NewSQLiteStore(context.Background(), dbPath, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	runStoreContract(t, store)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "spindle.db")

	store, err := NewSQLiteStore(ctx, dbPath, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, NamespaceBehaviors, "agent-1", []byte("durable")))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(ctx, dbPath, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, NamespaceBehaviors, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("durable"), got)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close()

	original := []byte("immutable")
	require.NoError(t, store.Put(ctx, NamespaceBehaviors, "k", original))
	original[0] = 'X'

	got, err := store.Get(ctx, NamespaceBehaviors, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("immutable"), got)

	got[0] = 'Y'
	again, err := store.Get(ctx, NamespaceBehaviors, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("immutable"), again)
}
