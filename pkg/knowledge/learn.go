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
	"context"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teradata-labs/spindle/pkg/behavior"
	"github.com/teradata-labs/spindle/pkg/events"
	"github.com/teradata-labs/spindle/pkg/pattern"
	"github.com/teradata-labs/spindle/pkg/types"
)

// expertiseOverall is the overall score above which an agent's
// specialization is recorded as expertise.
const expertiseOverall = 0.75

// LearningResult summarizes one learning pass.
type LearningResult struct {
	Domain        string  `json:"domain"`
	ItemsMerged   int     `json:"items_merged"`
	BestPractices []*Item `json:"best_practices,omitempty"`
	AntiPatterns  []*Item `json:"anti_patterns,omitempty"`
	Expertise     []*Item `json:"expertise,omitempty"`
}

// LearnFromInteractions folds one aggregation cycle's output into the
// store: patterns are merged, practice items are mined from the pattern
// and failure sets, and high-performing specializations become expertise
// items. Derived items are deduplicated against existing items by tag
// overlap; a rediscovered item gains supporting evidence instead of a
// duplicate record.
func (s *Store) LearnFromInteractions(ctx context.Context, domain string, patterns []pattern.Pattern, failures []pattern.FailurePattern, behaviors []*behavior.Behavior) (*LearningResult, error) {
	if domain == "" {
		return nil, types.Validation("learning", "domain is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := s.now()

	result := &LearningResult{Domain: domain}
	result.ItemsMerged = s.MergePatterns(patterns, domain)

	for _, item := range DeriveBestPractices(patterns, domain, now) {
		stored := s.upsertDerived(item)
		result.BestPractices = append(result.BestPractices, stored)
		s.publish(events.BestPracticeIdentified, stored.ID)
	}
	for _, item := range DeriveAntiPatterns(failures, domain, now) {
		stored := s.upsertDerived(item)
		result.AntiPatterns = append(result.AntiPatterns, stored)
		s.publish(events.AntiPatternDetected, stored.ID)
	}

	for _, b := range behaviors {
		if b == nil || b.Specialization == "" || b.Overall() < expertiseOverall {
			continue
		}
		item := s.reinforceExpertise(b, domain)
		result.Expertise = append(result.Expertise, item)
	}

	s.logger.Debug("learning pass complete",
		zap.String("domain", domain),
		zap.Int("merged", result.ItemsMerged),
		zap.Int("best_practices", len(result.BestPractices)),
		zap.Int("anti_patterns", len(result.AntiPatterns)))
	return result, nil
}

// upsertDerived stores a freshly mined item, or folds it into an existing
// item of the same kind that shares a source tag.
func (s *Store) upsertDerived(item *Item) *Item {
	s.mu.Lock()
	for _, existing := range s.items {
		if existing.Kind != item.Kind || !sharesString(existing.Tags, item.Tags) {
			continue
		}
		existing.AddEvidence(Evidence{
			Source:    "learning-cycle",
			Strength:  2*item.Confidence - 1,
			Timestamp: s.now(),
		})
		existing.Tags = unionStrings(existing.Tags, item.Tags)
		existing.Frequency += item.Frequency
		cp := existing.Clone()
		s.mu.Unlock()
		return cp
	}
	s.items[item.ID] = item.Clone()
	s.mu.Unlock()
	return item
}

// reinforceExpertise records or strengthens an expertise item for one
// agent specialization.
func (s *Store) reinforceExpertise(b *behavior.Behavior, domain string) *Item {
	now := s.now()
	tag := "agent:" + b.AgentID

	s.mu.Lock()
	for _, existing := range s.items {
		if existing.Kind != KindExpertise || !sharesString(existing.Tags, []string{tag}) {
			continue
		}
		existing.AddEvidence(Evidence{
			Source:    "scorecard",
			Strength:  2*b.Overall() - 1,
			Timestamp: now,
		})
		cp := existing.Clone()
		s.mu.Unlock()
		return cp
	}
	item := &Item{
		ID:           uuid.New().String(),
		Kind:         KindExpertise,
		Domain:       domain,
		Content:      b.AgentID + " is proficient at " + b.Specialization,
		Confidence:   types.Clamp01(b.Overall()),
		Tags:         []string{tag, "specialization:" + b.Specialization},
		CreatedAt:    now,
		LastVerified: now,
	}
	s.items[item.ID] = item
	cp := item.Clone()
	s.mu.Unlock()
	return cp
}

// Recommendation pairs an item with its relevance to a query context.
type Recommendation struct {
	Item      *Item   `json:"item"`
	Relevance float64 `json:"relevance"`
	Reason    string  `json:"reason"`
}

// Query scopes a recommendation request.
type Query struct {
	Domain   string
	Contexts []string
	Limit    int
}

// Recommendations returns non-deprecated items relevant to the query,
// ranked by confidence times context relevance. Anti-patterns rank with
// everything else so callers see what to avoid alongside what to prefer.
func (s *Store) Recommendations(q Query) []Recommendation {
	s.mu.RLock()
	var recs []Recommendation
	for _, item := range s.items {
		if item.Deprecated {
			continue
		}
		if q.Domain != "" && item.Domain != "" && item.Domain != q.Domain {
			continue
		}
		relevance := contextRelevance(item.Applicability.Contexts, q.Contexts)
		score := item.Confidence * relevance
		if score <= 0 {
			continue
		}
		recs = append(recs, Recommendation{
			Item:      item.Clone(),
			Relevance: score,
			Reason:    reasonFor(item),
		})
	}
	s.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Relevance != recs[j].Relevance {
			return recs[i].Relevance > recs[j].Relevance
		}
		return recs[i].Item.ID < recs[j].Item.ID
	})
	if q.Limit > 0 && len(recs) > q.Limit {
		recs = recs[:q.Limit]
	}
	return recs
}

// contextRelevance scores how well an item's applicability contexts match
// the query contexts. Items with no declared contexts apply everywhere at
// half weight.
func contextRelevance(itemContexts, queryContexts []string) float64 {
	if len(itemContexts) == 0 {
		return 0.5
	}
	if len(queryContexts) == 0 {
		return 0.5
	}
	matched := 0
	for _, c := range itemContexts {
		for _, qc := range queryContexts {
			if c == qc {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(itemContexts))
}

func reasonFor(item *Item) string {
	switch item.Kind {
	case KindBestPractice:
		return "proven approach in matching contexts"
	case KindAntiPattern:
		return "known failure mode; avoid"
	case KindExpertise:
		return "agent with matching proficiency"
	default:
		return "supported by accumulated evidence"
	}
}
