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

package coordinator

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/teradata-labs/spindle/pkg/behavior"
	"github.com/teradata-labs/spindle/pkg/types"
)

// Priority ranks a recommendation.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Scorecard cutoffs for recommendation priority.
const (
	urgentOverall   = 0.4
	moderateOverall = 0.6
)

// Recommendation suggests an optimization action for one agent.
type Recommendation struct {
	ID       string   `json:"id"`
	AgentID  string   `json:"agent_id"`
	Priority Priority `json:"priority"`

	// ExpectedImprovement estimates the fitness headroom of the agent.
	ExpectedImprovement float64 `json:"expected_improvement"`

	Strategy string `json:"strategy"`
	Reason   string `json:"reason"`
}

// Recommendations surveys tracked behaviors and open failure patterns and
// returns suggested actions, sorted by priority (high, medium, low) and
// then by expected improvement within each band.
func (c *Coordinator) Recommendations() []Recommendation {
	behaviors := c.registry.All()
	cohort := make([]*behavior.Behavior, 0, len(behaviors))
	for _, b := range behaviors {
		cohort = append(cohort, b)
	}
	mode := SelectMode(cohort)

	var recs []Recommendation
	for agentID, b := range behaviors {
		overall := b.Overall()
		headroom := types.Clamp01(0.9 - overall)
		if headroom <= 0 {
			continue
		}

		var priority Priority
		switch {
		case overall < urgentOverall:
			priority = PriorityHigh
		case overall < moderateOverall:
			priority = PriorityMedium
		default:
			priority = PriorityLow
		}

		recs = append(recs, Recommendation{
			ID:                  uuid.New().String(),
			AgentID:             agentID,
			Priority:            priority,
			ExpectedImprovement: headroom,
			Strategy:            strategyFor(mode),
			Reason:              fmt.Sprintf("overall score %.2f leaves optimization headroom", overall),
		})
	}

	// Failure patterns promote the involved agents to high priority.
	for _, f := range c.aggregator.FailurePatterns() {
		for _, agentID := range f.AgentIDs {
			if _, ok := behaviors[agentID]; !ok {
				continue
			}
			recs = append(recs, Recommendation{
				ID:                  uuid.New().String(),
				AgentID:             agentID,
				Priority:            PriorityHigh,
				ExpectedImprovement: types.Clamp01(f.Severity),
				Strategy:            strategyFor(ModeExploration),
				Reason:              fmt.Sprintf("involved in recurring %s failures", f.ErrorType),
			})
		}
	}

	sort.Slice(recs, func(i, j int) bool {
		if pr, pj := priorityRank(recs[i].Priority), priorityRank(recs[j].Priority); pr != pj {
			return pr < pj
		}
		if recs[i].ExpectedImprovement != recs[j].ExpectedImprovement {
			return recs[i].ExpectedImprovement > recs[j].ExpectedImprovement
		}
		return recs[i].AgentID < recs[j].AgentID
	})
	return recs
}

func priorityRank(p Priority) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}
