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

// Package pattern derives statistical aggregates from windowed execution
// traces and serves the pattern query API.
package pattern

import (
	"time"
)

// Type classifies a pattern by the dimension it aggregates.
type Type string

const (
	TypeTaskCompletion      Type = "task_completion"
	TypeCommunication       Type = "communication"
	TypeResourceUtilization Type = "resource_utilization"
	TypeFailure             Type = "failure"
	TypeCoordination        Type = "coordination"
)

// Trend is the coarse direction of the aggregated numeric series.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// Context describes where a pattern was observed.
type Context struct {
	SwarmID     string `json:"swarm_id,omitempty"`
	AgentID     string `json:"agent_id,omitempty"`
	TaskType    string `json:"task_type,omitempty"`
	Topology    string `json:"topology,omitempty"`
	Environment string `json:"environment,omitempty"`
}

// Overlaps reports whether two contexts share a task type, topology, or
// environment value.
func (c Context) Overlaps(other Context) bool {
	if c.TaskType != "" && c.TaskType == other.TaskType {
		return true
	}
	if c.Topology != "" && c.Topology == other.Topology {
		return true
	}
	if c.Environment != "" && c.Environment == other.Environment {
		return true
	}
	return false
}

// Stats carries the per-group statistics a pattern was derived from.
type Stats struct {
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	Trend    Trend   `json:"trend"`
}

// Metadata is the typed per-pattern annotation block. Unknown
// forward-compatible keys live in Extensions rather than loose fields.
type Metadata struct {
	Complexity     float64                `json:"complexity"`
	Predictability float64                `json:"predictability"`
	Stability      float64                `json:"stability"`
	AnomalyScore   float64                `json:"anomaly_score"`
	Correlations   []string               `json:"correlations,omitempty"`
	Extensions     map[string]interface{} `json:"extensions,omitempty"`
}

// Pattern is a derived aggregate over the group of window traces sharing
// one dimension value. Overwritten wholesale each aggregation cycle; no
// versioning.
type Pattern struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	Frequency  int       `json:"frequency"`
	Confidence float64   `json:"confidence"`
	Context    Context   `json:"context"`
	Stats      Stats     `json:"stats"`
	Metadata   Metadata  `json:"metadata"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Clone returns a deep copy. Callers outside the aggregator only ever see
// copies, never live map entries.
func (p Pattern) Clone() Pattern {
	cp := p
	if p.Metadata.Correlations != nil {
		cp.Metadata.Correlations = append([]string(nil), p.Metadata.Correlations...)
	}
	if p.Metadata.Extensions != nil {
		cp.Metadata.Extensions = make(map[string]interface{}, len(p.Metadata.Extensions))
		for k, v := range p.Metadata.Extensions {
			cp.Metadata.Extensions[k] = v
		}
	}
	return cp
}

// CommunicationPattern aggregates traces between one (source, target) pair.
type CommunicationPattern struct {
	ID           string        `json:"id"`
	Source       string        `json:"source"`
	Target       string        `json:"target"`
	MessageCount int           `json:"message_count"`
	MeanLatency  time.Duration `json:"mean_latency"`
	SuccessRate  float64       `json:"success_rate"`
	Confidence   float64       `json:"confidence"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// FailurePattern aggregates traces sharing a classified error type.
type FailurePattern struct {
	ID          string    `json:"id"`
	ErrorType   string    `json:"error_type"`
	Occurrences int       `json:"occurrences"`
	Contexts    []string  `json:"contexts,omitempty"`
	AgentIDs    []string  `json:"agent_ids,omitempty"`
	Severity    float64   `json:"severity"`
	Confidence  float64   `json:"confidence"`
	UpdatedAt   time.Time `json:"updated_at"`
}
