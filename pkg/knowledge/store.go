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

package knowledge

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teradata-labs/spindle/pkg/events"
	"github.com/teradata-labs/spindle/pkg/pattern"
	"github.com/teradata-labs/spindle/pkg/types"
)

// Store defaults.
const (
	// DefaultRetention is how long an unrefreshed item survives pruning.
	DefaultRetention = 24 * time.Hour

	// DefaultMinConfidence is the confidence floor below which unprotected
	// items are pruned.
	DefaultMinConfidence = 0.5

	// DefaultDeprecateThreshold marks merged items as deprecated when their
	// combined confidence lands below it.
	DefaultDeprecateThreshold = 0.3

	// DefaultDecayFactor is applied to expertise confidence per decay pass.
	DefaultDecayFactor = 0.95
)

// Config configures a knowledge store. Zero values take the defaults
// above; Logger defaults to a no-op.
type Config struct {
	Retention          time.Duration
	MinConfidence      float64
	DeprecateThreshold float64
	DecayFactor        float64

	Logger *zap.Logger
	Bus    *events.Bus

	// Clock is injectable for tests. Defaults to time.Now.
	Clock func() time.Time
}

// Store is the knowledge store. It is the sole owner of its item map;
// all accessors return deep copies.
type Store struct {
	mu    sync.RWMutex
	items map[string]*Item

	retention          time.Duration
	minConfidence      float64
	deprecateThreshold float64
	decayFactor        float64

	logger *zap.Logger
	bus    *events.Bus
	now    func() time.Time
}

// NewStore creates an empty knowledge store.
func NewStore(cfg Config) *Store {
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = DefaultMinConfidence
	}
	if cfg.DeprecateThreshold <= 0 {
		cfg.DeprecateThreshold = DefaultDeprecateThreshold
	}
	if cfg.DecayFactor <= 0 {
		cfg.DecayFactor = DefaultDecayFactor
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Store{
		items:              make(map[string]*Item),
		retention:          cfg.Retention,
		minConfidence:      cfg.MinConfidence,
		deprecateThreshold: cfg.DeprecateThreshold,
		decayFactor:        cfg.DecayFactor,
		logger:             cfg.Logger,
		bus:                cfg.Bus,
		now:                cfg.Clock,
	}
}

// Add inserts an item, assigning an ID and timestamps when missing, and
// returns the stored copy.
func (s *Store) Add(item *Item) (*Item, error) {
	if item == nil || item.Content == "" {
		return nil, types.Validation("knowledge item", "content is required")
	}
	cp := item.Clone()
	if cp.ID == "" {
		cp.ID = uuid.New().String()
	}
	now := s.now()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	if cp.LastVerified.IsZero() {
		cp.LastVerified = now
	}
	cp.Confidence = types.Clamp01(cp.Confidence)

	s.mu.Lock()
	s.items[cp.ID] = cp
	s.mu.Unlock()

	s.publish(events.KnowledgeUpdated, cp.ID)
	return cp.Clone(), nil
}

// Get returns a copy of the item or a not-found error.
func (s *Store) Get(id string) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, types.NotFound("knowledge item", id)
	}
	return item.Clone(), nil
}

// Filter narrows Items results. Zero fields match everything.
type Filter struct {
	Domain        string
	Kind          Kind
	MinConfidence float64
	Deprecated    *bool
}

// Items returns copies of all items matching the filter, sorted by
// confidence descending with ID as the tie-break.
func (s *Store) Items(f Filter) []*Item {
	s.mu.RLock()
	out := make([]*Item, 0, len(s.items))
	for _, item := range s.items {
		if f.Domain != "" && item.Domain != f.Domain {
			continue
		}
		if f.Kind != "" && item.Kind != f.Kind {
			continue
		}
		if item.Confidence < f.MinConfidence {
			continue
		}
		if f.Deprecated != nil && item.Deprecated != *f.Deprecated {
			continue
		}
		out = append(out, item.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of stored items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// MergePatterns folds aggregated patterns into the store. A pattern
// already known (matched by pattern ID held in Tags) has its confidence
// averaged and frequency summed; a new pattern becomes a pattern-kind
// item.
func (s *Store) MergePatterns(patterns []pattern.Pattern, domain string) int {
	now := s.now()
	merged := 0

	s.mu.Lock()
	byPattern := make(map[string]*Item)
	for _, item := range s.items {
		if item.Kind != KindPattern {
			continue
		}
		for _, tag := range item.Tags {
			byPattern[tag] = item
		}
	}
	for _, p := range patterns {
		if existing, ok := byPattern[p.ID]; ok {
			existing.Confidence = types.Clamp01((existing.Confidence + p.Confidence) / 2)
			existing.Frequency += p.Frequency
			existing.LastVerified = now
			merged++
			continue
		}
		item := &Item{
			ID:         uuid.New().String(),
			Kind:       KindPattern,
			Domain:     domain,
			Content:    string(p.Type) + " pattern " + p.ID,
			Confidence: types.Clamp01(p.Confidence),
			Frequency:  p.Frequency,
			Tags:       []string{p.ID, string(p.Type)},
			Applicability: Applicability{
				Contexts: contextStrings(p.Context),
			},
			CreatedAt:    now,
			LastVerified: now,
		}
		s.items[item.ID] = item
		merged++
	}
	s.mu.Unlock()

	if merged > 0 {
		s.publish(events.KnowledgeUpdated, domain)
	}
	return merged
}

// Merge combines item b into item a: evidence, tags, relations, and
// guidance are unioned, confidence is the evidence-weighted recompute,
// and the merged item replaces both under a fresh ID. The merged item is
// deprecated when its confidence falls below the deprecate threshold.
func (s *Store) Merge(aID, bID string) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.items[aID]
	if !ok {
		return nil, types.NotFound("knowledge item", aID)
	}
	b, ok := s.items[bID]
	if !ok {
		return nil, types.NotFound("knowledge item", bID)
	}
	if a.Kind != b.Kind {
		return nil, types.Validation("knowledge merge", "items have different kinds")
	}

	merged := a.Clone()
	merged.ID = uuid.New().String()
	merged.Evidence = append(merged.Evidence, b.Evidence...)
	merged.Tags = unionStrings(a.Tags, b.Tags)
	merged.Guidance = unionStrings(a.Guidance, b.Guidance)
	merged.Relations = append(merged.Relations, b.Relations...)
	merged.Frequency = a.Frequency + b.Frequency
	merged.Protected = a.Protected || b.Protected
	if b.LastVerified.After(merged.LastVerified) {
		merged.LastVerified = b.LastVerified
	}
	if b.CreatedAt.Before(merged.CreatedAt) {
		merged.CreatedAt = b.CreatedAt
	}
	if len(merged.Evidence) > 0 {
		merged.RecomputeConfidence()
	} else {
		merged.Confidence = types.Clamp01((a.Confidence + b.Confidence) / 2)
	}
	merged.Deprecated = merged.Confidence < s.deprecateThreshold

	delete(s.items, aID)
	delete(s.items, bID)
	s.items[merged.ID] = merged

	s.logger.Debug("merged knowledge items",
		zap.String("a", aID), zap.String("b", bID), zap.String("merged", merged.ID))
	return merged.Clone(), nil
}

// Prune removes unprotected items that are stale (older than the
// retention window with no verification) or below the confidence floor,
// and returns how many were removed.
func (s *Store) Prune() int {
	now := s.now()
	var removed []string

	s.mu.Lock()
	for id, item := range s.items {
		if item.Protected {
			continue
		}
		stale := now.Sub(item.LastVerified) > s.retention
		weak := item.Confidence < s.minConfidence
		if stale || weak {
			delete(s.items, id)
			removed = append(removed, id)
		}
	}
	s.mu.Unlock()

	if len(removed) > 0 {
		s.logger.Debug("pruned knowledge items", zap.Int("count", len(removed)))
		s.publish(events.KnowledgePruned, len(removed))
	}
	return len(removed)
}

// DecayExpertise multiplies the confidence of expertise items that have
// not been verified within the retention window by the decay factor.
func (s *Store) DecayExpertise() int {
	now := s.now()
	decayed := 0

	s.mu.Lock()
	for _, item := range s.items {
		if item.Kind != KindExpertise {
			continue
		}
		if now.Sub(item.LastVerified) <= s.retention {
			continue
		}
		item.Confidence = types.Clamp01(item.Confidence * s.decayFactor)
		decayed++
	}
	s.mu.Unlock()
	return decayed
}

func (s *Store) publish(name string, payload any) {
	if s.bus != nil {
		s.bus.Publish(name, payload)
	}
}

func contextStrings(ctx pattern.Context) []string {
	var out []string
	if ctx.TaskType != "" {
		out = append(out, "task:"+ctx.TaskType)
	}
	if ctx.Topology != "" {
		out = append(out, "topology:"+ctx.Topology)
	}
	if ctx.Environment != "" {
		out = append(out, "env:"+ctx.Environment)
	}
	return out
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
