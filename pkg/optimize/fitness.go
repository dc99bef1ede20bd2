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

// Package optimize searches for improved agent behaviors. The engine
// dispatches to pluggable local-search strategies sharing one fitness
// function; strategies are registered by name and never silently
// substituted for one another.
package optimize

import (
	"github.com/teradata-labs/spindle/pkg/behavior"
	"github.com/teradata-labs/spindle/pkg/pattern"
)

// Fitness weights and penalty bounds.
const (
	// maxPatternBonus caps the contribution of matching patterns.
	maxPatternBonus = 0.2

	// softBoundPenalty is deducted per parameter outside its documented
	// safe sub-range.
	softBoundPenalty = 0.08
)

// Objective scores a behavior variant. Higher is better. Pure function:
// strategies call it thousands of times per run.
type Objective func(*behavior.Behavior) float64

// NewObjective builds the shared fitness function: the weighted scorecard
// average, plus up to 0.2 bonus from the mean confidence of patterns whose
// context matches agentID, minus a penalty per soft-bound violation.
func NewObjective(patterns []pattern.Pattern, agentID string) Objective {
	bonus := patternBonus(patterns, agentID)
	return func(b *behavior.Behavior) float64 {
		return b.Overall() + bonus - softBoundPenalty*float64(behavior.Violations(b))
	}
}

func patternBonus(patterns []pattern.Pattern, agentID string) float64 {
	var sum float64
	n := 0
	for _, p := range patterns {
		if p.Context.AgentID == agentID {
			sum += p.Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return (sum / float64(n)) * maxPatternBonus
}
