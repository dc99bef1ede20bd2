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

// Package behavior defines the per-agent tunable configuration, its
// performance scorecard, and the registry owned by the learning
// coordinator.
package behavior

import (
	"time"

	"github.com/teradata-labs/spindle/pkg/types"
)

// MaxAdaptations caps the adaptation log; oldest entries drop first.
const MaxAdaptations = 50

// TaskSelectionConfig tunes how an agent picks work.
type TaskSelectionConfig struct {
	ExplorationRate float64 `json:"exploration_rate"`
	RiskTolerance   float64 `json:"risk_tolerance"`
	PriorityBias    float64 `json:"priority_bias"`
}

// CommunicationConfig tunes inter-agent messaging.
type CommunicationConfig struct {
	Verbosity          float64 `json:"verbosity"`
	BroadcastThreshold float64 `json:"broadcast_threshold"`
	ResponseTimeout    float64 `json:"response_timeout_s"`
}

// ResourceConfig tunes resource budgeting.
type ResourceConfig struct {
	CPUBudget         float64 `json:"cpu_budget"`
	MemoryBudget      float64 `json:"memory_budget"`
	ParallelismFactor float64 `json:"parallelism_factor"`
}

// CoordinationConfig tunes swarm-level cooperation.
type CoordinationConfig struct {
	SyncInterval   float64 `json:"sync_interval_s"`
	DelegationRate float64 `json:"delegation_rate"`
}

// LearningConfig tunes the agent's own adaptation behavior.
type LearningConfig struct {
	AdaptationRate   float64 `json:"adaptation_rate"`
	MemoryRetention  float64 `json:"memory_retention"`
	ExplorationDecay float64 `json:"exploration_decay"`
}

// Scorecard is the observed performance of an agent. Every field stays
// within [0,1]; Normalize enforces the invariant after any update.
type Scorecard struct {
	Efficiency          float64 `json:"efficiency"`
	Accuracy            float64 `json:"accuracy"`
	Reliability         float64 `json:"reliability"`
	Collaboration       float64 `json:"collaboration"`
	Adaptability        float64 `json:"adaptability"`
	ResourceUtilization float64 `json:"resource_utilization"`
	CompletionRate      float64 `json:"completion_rate"`
	ErrorRate           float64 `json:"error_rate"`
}

// Normalize clamps every scorecard field to [0,1].
func (s *Scorecard) Normalize() {
	s.Efficiency = types.Clamp01(s.Efficiency)
	s.Accuracy = types.Clamp01(s.Accuracy)
	s.Reliability = types.Clamp01(s.Reliability)
	s.Collaboration = types.Clamp01(s.Collaboration)
	s.Adaptability = types.Clamp01(s.Adaptability)
	s.ResourceUtilization = types.Clamp01(s.ResourceUtilization)
	s.CompletionRate = types.Clamp01(s.CompletionRate)
	s.ErrorRate = types.Clamp01(s.ErrorRate)
}

// Adaptation is one applied (or rejected) optimization attempt.
type Adaptation struct {
	Timestamp   time.Time `json:"timestamp"`
	Strategy    string    `json:"strategy"`
	Improvement float64   `json:"improvement"`
	Applied     bool      `json:"applied"`
	Note        string    `json:"note,omitempty"`
}

// Behavior is a per-agent configuration plus its scorecard and a bounded
// adaptation log. Owned by the coordinator's registry; everything handed
// out elsewhere is a deep copy.
type Behavior struct {
	AgentID string `json:"agent_id"`

	TaskSelection  TaskSelectionConfig  `json:"task_selection"`
	Communication  CommunicationConfig  `json:"communication"`
	Resources      ResourceConfig       `json:"resources"`
	Coordination   CoordinationConfig   `json:"coordination"`
	Learning       LearningConfig       `json:"learning"`
	Specialization string               `json:"specialization,omitempty"`

	Performance Scorecard    `json:"performance"`
	Adaptations []Adaptation `json:"adaptations,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// New returns a behavior with neutral defaults for the agent.
func New(agentID string) *Behavior {
	return &Behavior{
		AgentID: agentID,
		TaskSelection: TaskSelectionConfig{
			ExplorationRate: 0.2,
			RiskTolerance:   0.5,
			PriorityBias:    0.5,
		},
		Communication: CommunicationConfig{
			Verbosity:          0.5,
			BroadcastThreshold: 0.7,
			ResponseTimeout:    30,
		},
		Resources: ResourceConfig{
			CPUBudget:         0.5,
			MemoryBudget:      0.5,
			ParallelismFactor: 0.5,
		},
		Coordination: CoordinationConfig{
			SyncInterval:   60,
			DelegationRate: 0.3,
		},
		Learning: LearningConfig{
			AdaptationRate:   0.05,
			MemoryRetention:  0.8,
			ExplorationDecay: 0.99,
		},
		Performance: Scorecard{
			Efficiency:          0.5,
			Accuracy:            0.5,
			Reliability:         0.5,
			Collaboration:       0.5,
			Adaptability:        0.5,
			ResourceUtilization: 0.5,
			CompletionRate:      0.5,
		},
		UpdatedAt: time.Now(),
	}
}

// Overall is the weighted performance score used as the optimization
// baseline: efficiency .3, accuracy .25, reliability .2, collaboration
// .15, adaptability .1.
func (b *Behavior) Overall() float64 {
	p := b.Performance
	return p.Efficiency*0.3 +
		p.Accuracy*0.25 +
		p.Reliability*0.2 +
		p.Collaboration*0.15 +
		p.Adaptability*0.1
}

// Clone returns a deep copy.
func (b *Behavior) Clone() *Behavior {
	cp := *b
	cp.Adaptations = append([]Adaptation(nil), b.Adaptations...)
	return &cp
}

// RecordAdaptation appends to the adaptation log, dropping the oldest
// entry once the cap is reached.
func (b *Behavior) RecordAdaptation(a Adaptation) {
	b.Adaptations = append(b.Adaptations, a)
	if len(b.Adaptations) > MaxAdaptations {
		b.Adaptations = b.Adaptations[len(b.Adaptations)-MaxAdaptations:]
	}
}
