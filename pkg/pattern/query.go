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

package pattern

import (
	"sort"
)

// predictLimit caps the number of patterns returned by Predict.
const predictLimit = 10

// Filter selects patterns from the aggregator map.
type Filter struct {
	// Type restricts results to one pattern type. Empty matches all.
	Type Type

	// MinConfidence overrides the aggregator's confidence threshold.
	// Nil applies the configured threshold; point at 0 to disable
	// filtering entirely.
	MinConfidence *float64
}

// Patterns returns copies of patterns passing the filter, sorted by
// descending confidence (ties broken by id for deterministic output).
func (a *Aggregator) Patterns(filter Filter) []Pattern {
	a.mu.RLock()
	defer a.mu.RUnlock()

	minConf := a.confidenceThreshold
	if filter.MinConfidence != nil {
		minConf = *filter.MinConfidence
	}

	var out []Pattern
	for _, p := range a.patterns {
		if filter.Type != "" && p.Type != filter.Type {
			continue
		}
		if p.Confidence < minConf {
			continue
		}
		out = append(out, p.Clone())
	}
	sortByConfidence(out)
	return out
}

// Pattern returns a copy of one pattern by id.
func (a *Aggregator) Pattern(id string) (Pattern, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	p, ok := a.patterns[id]
	if !ok {
		return Pattern{}, false
	}
	return p.Clone(), true
}

// Predict returns up to 10 patterns, ranked by confidence, whose context
// overlaps the given context on task type, topology, or environment.
// No confidence threshold is applied; prediction trades precision for
// coverage.
func (a *Aggregator) Predict(pctx Context) []Pattern {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var out []Pattern
	for _, p := range a.patterns {
		if pctx.Overlaps(p.Context) {
			out = append(out, p.Clone())
		}
	}
	sortByConfidence(out)
	if len(out) > predictLimit {
		out = out[:predictLimit]
	}
	return out
}

// CommunicationPatterns returns communication aggregates, optionally
// filtered to pairs involving agentID as source or target.
func (a *Aggregator) CommunicationPatterns(agentID string) []CommunicationPattern {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var out []CommunicationPattern
	for _, c := range a.comm {
		if agentID != "" && c.Source != agentID && c.Target != agentID {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// FailurePatterns returns all failure aggregates sorted by severity.
func (a *Aggregator) FailurePatterns() []FailurePattern {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]FailurePattern, 0, len(a.failures))
	for _, f := range a.failures {
		cp := f
		cp.Contexts = append([]string(nil), f.Contexts...)
		cp.AgentIDs = append([]string(nil), f.AgentIDs...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return out[i].Severity > out[j].Severity
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func sortByConfidence(patterns []Pattern) {
	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Confidence != patterns[j].Confidence {
			return patterns[i].Confidence > patterns[j].Confidence
		}
		return patterns[i].ID < patterns[j].ID
	})
}
