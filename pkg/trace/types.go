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

// Package trace defines execution trace records and the sliding window
// buffer that feeds pattern aggregation.
package trace

import (
	"time"
)

// ResourceUsage is a point-in-time utilization snapshot attached to a trace.
// Value type; copied, never shared.
type ResourceUsage struct {
	CPU       float64       `json:"cpu"`
	Memory    float64       `json:"memory"`
	Network   float64       `json:"network"`
	DiskIO    float64       `json:"disk_io"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
	Context   string        `json:"context,omitempty"`
}

// Result carries the outcome of a traced action. Error is the classified
// error string when Success is false.
type Result struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error,omitempty"`
	Output  map[string]interface{} `json:"output,omitempty"`
}

// ExecutionTrace is one observed action. Immutable once recorded: the
// window and aggregator only ever read it.
type ExecutionTrace struct {
	ID         string                 `json:"id"`
	SwarmID    string                 `json:"swarm_id"`
	AgentID    string                 `json:"agent_id"`
	Action     string                 `json:"action"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	Result     Result                 `json:"result"`
	Timestamp  time.Time              `json:"timestamp"`
	Duration   time.Duration          `json:"duration"`
	Resources  ResourceUsage          `json:"resources"`
	Source     string                 `json:"source,omitempty"`
	Target     string                 `json:"target,omitempty"`
	Topology   string                 `json:"topology,omitempty"`
}

// Failed reports whether the trace recorded a failure.
func (t ExecutionTrace) Failed() bool {
	return !t.Result.Success
}
