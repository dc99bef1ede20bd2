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

// Package storage provides the pluggable key-value store behind the
// behavior registry, pattern map, and knowledge store snapshots.
//
// Values are opaque byte slices (the callers persist JSON); keys are
// namespaced strings. Two backends ship with spindle: MemoryStore for
// tests and ephemeral deployments, and SQLiteStore for durable state.
package storage

import "context"

// Namespaces used by the spindle core.
const (
	NamespaceBehaviors = "behaviors"
	NamespacePatterns  = "patterns"
	NamespaceKnowledge = "knowledge"
)

// Store is the persistence boundary of the spindle core.
// Implementations must be safe for concurrent use.
type Store interface {
	// Put stores value under (namespace, key), overwriting any previous value.
	Put(ctx context.Context, namespace, key string, value []byte) error

	// Get returns the value stored under (namespace, key).
	// Returns a types.KindNotFound error when the key is absent.
	Get(ctx context.Context, namespace, key string) ([]byte, error)

	// Delete removes the value under (namespace, key). Deleting an absent
	// key is not an error.
	Delete(ctx context.Context, namespace, key string) error

	// List returns all key-value pairs in the namespace.
	List(ctx context.Context, namespace string) (map[string][]byte, error)

	// Ping verifies the store is reachable and healthy.
	Ping(ctx context.Context) error

	// Close releases underlying resources.
	Close() error
}
