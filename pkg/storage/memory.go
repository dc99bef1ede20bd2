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

	"github.com/teradata-labs/spindle/internal/csync"
	"github.com/teradata-labs/spindle/pkg/types"
)

// MemoryStore is an in-memory Store for tests and ephemeral deployments.
type MemoryStore struct {
	namespaces *csync.Map[string, *csync.Map[string, []byte]]
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		namespaces: csync.NewMap[string, *csync.Map[string, []byte]](),
	}
}

// Put stores value under (namespace, key).
func (s *MemoryStore) Put(ctx context.Context, namespace, key string, value []byte) error {
	ns := s.namespaces.GetOrSet(namespace, func() *csync.Map[string, []byte] {
		return csync.NewMap[string, []byte]()
	})
	cp := make([]byte, len(value))
	copy(cp, value)
	ns.Set(key, cp)
	return nil
}

// Get returns the value under (namespace, key).
func (s *MemoryStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	ns, ok := s.namespaces.Get(namespace)
	if !ok {
		return nil, types.NotFound("key", namespace+"/"+key)
	}
	v, ok := ns.Get(key)
	if !ok {
		return nil, types.NotFound("key", namespace+"/"+key)
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

// Delete removes the value under (namespace, key).
func (s *MemoryStore) Delete(ctx context.Context, namespace, key string) error {
	if ns, ok := s.namespaces.Get(namespace); ok {
		ns.Delete(key)
	}
	return nil
}

// List returns all entries in the namespace.
func (s *MemoryStore) List(ctx context.Context, namespace string) (map[string][]byte, error) {
	out := make(map[string][]byte)
	ns, ok := s.namespaces.Get(namespace)
	if !ok {
		return out, nil
	}
	for k, v := range ns.Seq2() {
		cp := make([]byte, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out, nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
