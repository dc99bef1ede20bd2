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
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	b := New("agent-1")

	assert.Equal(t, "agent-1", b.AgentID)
	assert.Equal(t, 0.05, b.Learning.AdaptationRate)
	assert.Equal(t, 0.5, b.Performance.Efficiency)
	assert.InDelta(t, 0.5, b.Overall(), 1e-9)
	assert.Zero(t, Violations(b), "defaults must sit inside every safe range")
}

func TestScorecardNormalizeClamps(t *testing.T) {
	s := Scorecard{
		Efficiency:  1.7,
		Accuracy:    -0.3,
		Reliability: 0.4,
	}
	s.Normalize()

	assert.Equal(t, 1.0, s.Efficiency)
	assert.Equal(t, 0.0, s.Accuracy)
	assert.Equal(t, 0.4, s.Reliability)
}

func TestOverallWeights(t *testing.T) {
	b := New("agent-1")
	b.Performance = Scorecard{
		Efficiency:    1.0,
		Accuracy:      1.0,
		Reliability:   1.0,
		Collaboration: 1.0,
		Adaptability:  1.0,
	}
	// Weights sum to 1.0.
	assert.InDelta(t, 1.0, b.Overall(), 1e-9)

	b.Performance = Scorecard{Efficiency: 1.0}
	assert.InDelta(t, 0.3, b.Overall(), 1e-9)
}

func TestCloneIsDeep(t *testing.T) {
	b := New("agent-1")
	b.RecordAdaptation(Adaptation{Strategy: "genetic", Improvement: 0.1, Applied: true})

	cp := b.Clone()
	cp.TaskSelection.ExplorationRate = 0.99
	cp.Adaptations[0].Strategy = "mutated"

	assert.Equal(t, 0.2, b.TaskSelection.ExplorationRate)
	assert.Equal(t, "genetic", b.Adaptations[0].Strategy)
}

func TestAdaptationLogCap(t *testing.T) {
	b := New("agent-1")
	for i := 0; i < MaxAdaptations+10; i++ {
		b.RecordAdaptation(Adaptation{
			Timestamp: time.Now(),
			Strategy:  fmt.Sprintf("s-%d", i),
		})
	}

	require.Len(t, b.Adaptations, MaxAdaptations)
	// FIFO truncation: the oldest entries are gone, the newest survive.
	assert.Equal(t, "s-10", b.Adaptations[0].Strategy)
	assert.Equal(t, fmt.Sprintf("s-%d", MaxAdaptations+9), b.Adaptations[MaxAdaptations-1].Strategy)
}

func TestSetParamClampsToHardRange(t *testing.T) {
	b := New("agent-1")
	var spec ParamSpec
	for _, s := range Params() {
		if s.Name == "learning.adaptation_rate" {
			spec = s
		}
	}
	require.NotNil(t, spec.Set)

	SetParam(b, spec, 5.0)
	assert.Equal(t, 1.0, b.Learning.AdaptationRate)

	SetParam(b, spec, -5.0)
	assert.Equal(t, 0.0, b.Learning.AdaptationRate)
}

func TestViolationsCountsUnsafeValues(t *testing.T) {
	b := New("agent-1")
	require.Zero(t, Violations(b))

	// Representable but outside the documented safe range.
	b.Learning.AdaptationRate = 0.9
	assert.Equal(t, 1, Violations(b))

	b.TaskSelection.ExplorationRate = 0.99
	assert.Equal(t, 2, Violations(b))
}

func TestCopyGroup(t *testing.T) {
	src := New("src")
	src.Resources.CPUBudget = 0.9
	src.Resources.MemoryBudget = 0.8
	src.Resources.ParallelismFactor = 0.7
	src.Learning.AdaptationRate = 0.2

	dst := New("dst")
	CopyGroup(dst, src, GroupResources)

	assert.Equal(t, 0.9, dst.Resources.CPUBudget)
	assert.Equal(t, 0.8, dst.Resources.MemoryBudget)
	assert.Equal(t, 0.7, dst.Resources.ParallelismFactor)
	// Other groups untouched.
	assert.Equal(t, 0.05, dst.Learning.AdaptationRate)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	t.Run("track creates defaults", func(t *testing.T) {
		b := r.Track("agent-1")
		require.NotNil(t, b)
		assert.Equal(t, "agent-1", b.AgentID)
		assert.Equal(t, 1, r.Len())
	})

	t.Run("track is idempotent", func(t *testing.T) {
		r.Track("agent-1")
		assert.Equal(t, 1, r.Len())
	})

	t.Run("get returns a copy", func(t *testing.T) {
		b, err := r.Get("agent-1")
		require.NoError(t, err)
		b.TaskSelection.ExplorationRate = 0.99

		again, err := r.Get("agent-1")
		require.NoError(t, err)
		assert.Equal(t, 0.2, again.TaskSelection.ExplorationRate)
	})

	t.Run("get unknown agent", func(t *testing.T) {
		_, err := r.Get("ghost")
		assert.Error(t, err)
	})

	t.Run("replace swaps the stored behavior", func(t *testing.T) {
		b := New("agent-1")
		b.Specialization = "analysis"
		require.NoError(t, r.Replace(b))

		got, err := r.Get("agent-1")
		require.NoError(t, err)
		assert.Equal(t, "analysis", got.Specialization)
	})

	t.Run("update mutates in place", func(t *testing.T) {
		err := r.Update("agent-1", func(b *Behavior) {
			b.Performance.Efficiency = 0.8
		})
		require.NoError(t, err)

		got, err := r.Get("agent-1")
		require.NoError(t, err)
		assert.Equal(t, 0.8, got.Performance.Efficiency)
	})

	t.Run("all returns copies", func(t *testing.T) {
		all := r.All()
		require.Len(t, all, 1)
		all["agent-1"].Performance.Efficiency = 0.1

		got, _ := r.Get("agent-1")
		assert.Equal(t, 0.8, got.Performance.Efficiency)
	})
}
