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
	"github.com/teradata-labs/spindle/pkg/types"
)

// ParamGroup names a sub-config; crossover in the genetic strategy swaps
// whole groups between parents.
type ParamGroup string

const (
	GroupTaskSelection ParamGroup = "task_selection"
	GroupCommunication ParamGroup = "communication"
	GroupResources     ParamGroup = "resources"
	GroupCoordination  ParamGroup = "coordination"
	GroupLearning      ParamGroup = "learning"
)

// ParamSpec describes one tunable scalar: its hard range (values are
// clamped here on every write) and its documented safe sub-range (values
// outside it draw a fitness penalty but are representable).
type ParamSpec struct {
	Name   string
	Group  ParamGroup
	Min    float64
	Max    float64
	SafeLo float64
	SafeHi float64

	Get func(*Behavior) float64
	Set func(*Behavior, float64)
}

// paramSpecs is the flat view of every tunable field. Strategies iterate
// this list instead of reflecting over the config structs.
var paramSpecs = []ParamSpec{
	{
		Name: "task_selection.exploration_rate", Group: GroupTaskSelection,
		Min: 0, Max: 1, SafeLo: 0.05, SafeHi: 0.5,
		Get: func(b *Behavior) float64 { return b.TaskSelection.ExplorationRate },
		Set: func(b *Behavior, v float64) { b.TaskSelection.ExplorationRate = v },
	},
	{
		Name: "task_selection.risk_tolerance", Group: GroupTaskSelection,
		Min: 0, Max: 1, SafeLo: 0.1, SafeHi: 0.9,
		Get: func(b *Behavior) float64 { return b.TaskSelection.RiskTolerance },
		Set: func(b *Behavior, v float64) { b.TaskSelection.RiskTolerance = v },
	},
	{
		Name: "task_selection.priority_bias", Group: GroupTaskSelection,
		Min: 0, Max: 1, SafeLo: 0.1, SafeHi: 0.9,
		Get: func(b *Behavior) float64 { return b.TaskSelection.PriorityBias },
		Set: func(b *Behavior, v float64) { b.TaskSelection.PriorityBias = v },
	},
	{
		Name: "communication.verbosity", Group: GroupCommunication,
		Min: 0, Max: 1, SafeLo: 0.1, SafeHi: 0.9,
		Get: func(b *Behavior) float64 { return b.Communication.Verbosity },
		Set: func(b *Behavior, v float64) { b.Communication.Verbosity = v },
	},
	{
		Name: "communication.broadcast_threshold", Group: GroupCommunication,
		Min: 0, Max: 1, SafeLo: 0.3, SafeHi: 0.95,
		Get: func(b *Behavior) float64 { return b.Communication.BroadcastThreshold },
		Set: func(b *Behavior, v float64) { b.Communication.BroadcastThreshold = v },
	},
	{
		Name: "communication.response_timeout_s", Group: GroupCommunication,
		Min: 1, Max: 600, SafeLo: 5, SafeHi: 120,
		Get: func(b *Behavior) float64 { return b.Communication.ResponseTimeout },
		Set: func(b *Behavior, v float64) { b.Communication.ResponseTimeout = v },
	},
	{
		Name: "resources.cpu_budget", Group: GroupResources,
		Min: 0, Max: 1, SafeLo: 0.1, SafeHi: 0.9,
		Get: func(b *Behavior) float64 { return b.Resources.CPUBudget },
		Set: func(b *Behavior, v float64) { b.Resources.CPUBudget = v },
	},
	{
		Name: "resources.memory_budget", Group: GroupResources,
		Min: 0, Max: 1, SafeLo: 0.1, SafeHi: 0.9,
		Get: func(b *Behavior) float64 { return b.Resources.MemoryBudget },
		Set: func(b *Behavior, v float64) { b.Resources.MemoryBudget = v },
	},
	{
		Name: "resources.parallelism_factor", Group: GroupResources,
		Min: 0, Max: 1, SafeLo: 0.1, SafeHi: 0.8,
		Get: func(b *Behavior) float64 { return b.Resources.ParallelismFactor },
		Set: func(b *Behavior, v float64) { b.Resources.ParallelismFactor = v },
	},
	{
		Name: "coordination.sync_interval_s", Group: GroupCoordination,
		Min: 1, Max: 3600, SafeLo: 10, SafeHi: 600,
		Get: func(b *Behavior) float64 { return b.Coordination.SyncInterval },
		Set: func(b *Behavior, v float64) { b.Coordination.SyncInterval = v },
	},
	{
		Name: "coordination.delegation_rate", Group: GroupCoordination,
		Min: 0, Max: 1, SafeLo: 0.05, SafeHi: 0.7,
		Get: func(b *Behavior) float64 { return b.Coordination.DelegationRate },
		Set: func(b *Behavior, v float64) { b.Coordination.DelegationRate = v },
	},
	{
		Name: "learning.adaptation_rate", Group: GroupLearning,
		Min: 0, Max: 1, SafeLo: 0.005, SafeHi: 0.3,
		Get: func(b *Behavior) float64 { return b.Learning.AdaptationRate },
		Set: func(b *Behavior, v float64) { b.Learning.AdaptationRate = v },
	},
	{
		Name: "learning.memory_retention", Group: GroupLearning,
		Min: 0, Max: 1, SafeLo: 0.3, SafeHi: 0.99,
		Get: func(b *Behavior) float64 { return b.Learning.MemoryRetention },
		Set: func(b *Behavior, v float64) { b.Learning.MemoryRetention = v },
	},
	{
		Name: "learning.exploration_decay", Group: GroupLearning,
		Min: 0.5, Max: 1, SafeLo: 0.9, SafeHi: 0.999,
		Get: func(b *Behavior) float64 { return b.Learning.ExplorationDecay },
		Set: func(b *Behavior, v float64) { b.Learning.ExplorationDecay = v },
	},
}

// Params returns the specs of every tunable scalar.
func Params() []ParamSpec {
	return paramSpecs
}

// ParamGroups returns the distinct group names in declaration order.
func ParamGroups() []ParamGroup {
	return []ParamGroup{
		GroupTaskSelection,
		GroupCommunication,
		GroupResources,
		GroupCoordination,
		GroupLearning,
	}
}

// SetParam writes a value through its spec, clamping to the hard range.
func SetParam(b *Behavior, spec ParamSpec, v float64) {
	spec.Set(b, types.Clamp(v, spec.Min, spec.Max))
}

// Violations counts parameters outside their documented safe sub-range.
func Violations(b *Behavior) int {
	n := 0
	for _, spec := range paramSpecs {
		v := spec.Get(b)
		if v < spec.SafeLo || v > spec.SafeHi {
			n++
		}
	}
	return n
}

// CopyGroup copies every parameter of one group from src to dst.
func CopyGroup(dst, src *Behavior, group ParamGroup) {
	for _, spec := range paramSpecs {
		if spec.Group == group {
			spec.Set(dst, spec.Get(src))
		}
	}
}
