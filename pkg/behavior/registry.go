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

package behavior

import (
	"sort"
	"sync"

	"github.com/teradata-labs/spindle/pkg/types"
)

// Registry holds the live Behavior per tracked agent. The learning
// coordinator is the only mutator; every read hands out a deep copy so no
// caller can alias the live record.
type Registry struct {
	mu        sync.RWMutex
	behaviors map[string]*Behavior
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{behaviors: make(map[string]*Behavior)}
}

// Track registers an agent, creating a default behavior when absent.
// Returns a copy of the tracked behavior.
func (r *Registry) Track(agentID string) *Behavior {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.behaviors[agentID]
	if !ok {
		b = New(agentID)
		r.behaviors[agentID] = b
	}
	return b.Clone()
}

// Get returns a copy of the behavior for agentID.
func (r *Registry) Get(agentID string) (*Behavior, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.behaviors[agentID]
	if !ok {
		return nil, types.NotFound("agent", agentID)
	}
	return b.Clone(), nil
}

// Replace swaps in a new behavior for the agent. The input is cloned so
// the registry never aliases caller memory. Scores are normalized on the
// way in to hold the [0,1] invariant.
func (r *Registry) Replace(b *Behavior) error {
	if b == nil || b.AgentID == "" {
		return types.Validation("behavior", "agent id is required")
	}
	cp := b.Clone()
	cp.Performance.Normalize()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.behaviors[cp.AgentID] = cp
	return nil
}

// Update applies fn to the live behavior under the registry lock.
// fn receives the live record; scores are re-normalized afterwards.
func (r *Registry) Update(agentID string, fn func(*Behavior)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.behaviors[agentID]
	if !ok {
		return types.NotFound("agent", agentID)
	}
	fn(b)
	b.Performance.Normalize()
	return nil
}

// AgentIDs returns the tracked agent ids, sorted.
func (r *Registry) AgentIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.behaviors))
	for id := range r.behaviors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// All returns copies of every tracked behavior, keyed by agent id.
func (r *Registry) All() map[string]*Behavior {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*Behavior, len(r.behaviors))
	for id, b := range r.behaviors {
		out[id] = b.Clone()
	}
	return out
}

// Len returns the number of tracked agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.behaviors)
}
