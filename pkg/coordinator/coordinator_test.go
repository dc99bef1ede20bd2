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
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/spindle/pkg/behavior"
	"github.com/teradata-labs/spindle/pkg/events"
	"github.com/teradata-labs/spindle/pkg/knowledge"
	"github.com/teradata-labs/spindle/pkg/optimize"
	"github.com/teradata-labs/spindle/pkg/pattern"
	"github.com/teradata-labs/spindle/pkg/storage"
	"github.com/teradata-labs/spindle/pkg/trace"
	"github.com/teradata-labs/spindle/pkg/types"
)

var coordNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

type coordDeps struct {
	window     *trace.Window
	aggregator *pattern.Aggregator
	engine     *optimize.Engine
	know       *knowledge.Store
	store      *storage.MemoryStore
	bus        *events.Bus
}

func newTestDeps() coordDeps {
	clock := func() time.Time { return coordNow }
	bus := events.NewBus()
	return coordDeps{
		window:     trace.NewWindow(trace.WindowConfig{Clock: clock}),
		aggregator: pattern.NewAggregator(pattern.Config{Clock: clock, Bus: bus}),
		engine: optimize.NewEngine(optimize.EngineConfig{
			Search: optimize.SearchConfig{
				MaxIterations: 30,
				Rand:          rand.New(rand.NewSource(1)),
			},
		}),
		know:  knowledge.NewStore(knowledge.Config{Clock: clock}),
		store: storage.NewMemoryStore(),
		bus:   bus,
	}
}

func newTestCoordinator(t *testing.T, deps coordDeps) *Coordinator {
	t.Helper()
	c, err := New(Config{
		Window:     deps.window,
		Aggregator: deps.aggregator,
		Engine:     deps.engine,
		Knowledge:  deps.know,
		Storage:    deps.store,
		Bus:        deps.bus,
		Domain:     "swarm",
		Clock:      func() time.Time { return coordNow },
	})
	require.NoError(t, err)
	return c
}

func TestNewValidatesRequiredDeps(t *testing.T) {
	deps := newTestDeps()

	cases := map[string]Config{
		"window":     {Aggregator: deps.aggregator, Engine: deps.engine, Knowledge: deps.know},
		"aggregator": {Window: deps.window, Engine: deps.engine, Knowledge: deps.know},
		"engine":     {Window: deps.window, Aggregator: deps.aggregator, Knowledge: deps.know},
		"knowledge":  {Window: deps.window, Aggregator: deps.aggregator, Engine: deps.engine},
	}
	for name, cfg := range cases {
		_, err := New(cfg)
		assert.Error(t, err, "missing %s must be rejected", name)
	}
}

func TestTrackAndState(t *testing.T) {
	c := newTestCoordinator(t, newTestDeps())

	b := c.Track("agent-1")
	require.NotNil(t, b)
	assert.Equal(t, "agent-1", b.AgentID)

	state, err := c.State("agent-1")
	require.NoError(t, err)
	assert.Equal(t, StateIdle, state)

	_, err = c.State("ghost")
	assert.True(t, types.IsKind(err, types.KindNotFound))
}

func TestStartStop(t *testing.T) {
	c := newTestCoordinator(t, newTestDeps())

	require.NoError(t, c.Start(context.Background()))
	assert.Error(t, c.Start(context.Background()), "double start must fail")

	c.Stop()
	// A stopped coordinator can start again.
	require.NoError(t, c.Start(context.Background()))
	c.Stop()
}

func TestSelectMode(t *testing.T) {
	withScores := func(eff, adapt float64, specialization string) *behavior.Behavior {
		b := behavior.New("agent")
		b.Performance.Efficiency = eff
		b.Performance.Adaptability = adapt
		b.Specialization = specialization
		return b
	}

	cases := []struct {
		name   string
		cohort []*behavior.Behavior
		want   Mode
	}{
		{"empty cohort", nil, ModeExploitation},
		{"low efficiency", []*behavior.Behavior{withScores(0.3, 0.9, "x")}, ModeExploration},
		{"specialized and efficient", []*behavior.Behavior{withScores(0.8, 0.3, "analysis")}, ModeSpecialization},
		{"adaptable", []*behavior.Behavior{withScores(0.6, 0.7, "")}, ModeAdaptive},
		{"default", []*behavior.Behavior{withScores(0.6, 0.4, "")}, ModeExploitation},
		{"efficient but unspecialized", []*behavior.Behavior{withScores(0.8, 0.4, "")}, ModeExploitation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SelectMode(tc.cohort))
		})
	}
}

func TestStrategyForMode(t *testing.T) {
	assert.Equal(t, optimize.StrategyGenetic, strategyFor(ModeExploration))
	assert.Equal(t, optimize.StrategyGradient, strategyFor(ModeSpecialization))
	assert.Equal(t, optimize.StrategyQLearning, strategyFor(ModeAdaptive))
	assert.Equal(t, optimize.StrategyAnnealing, strategyFor(ModeExploitation))
}

func TestRunLearningCycleEmptyCohort(t *testing.T) {
	c := newTestCoordinator(t, newTestDeps())

	ensemble, err := c.RunLearningCycle(context.Background())
	require.NoError(t, err)
	assert.Zero(t, ensemble.Agents)
	assert.Equal(t, ModeExploitation, ensemble.Mode)
	assert.Equal(t, "swarm", ensemble.Domain)
}

func TestRunLearningCycleAppliesImprovement(t *testing.T) {
	deps := newTestDeps()
	c := newTestCoordinator(t, deps)

	// A specialized, efficient agent with unsafe parameters: the cohort
	// selects specialization mode and gradient descent recovers the
	// soft-bound penalty, clearing the apply threshold.
	c.Track("agent-1")
	b := behavior.New("agent-1")
	b.Specialization = "analysis"
	b.Performance.Efficiency = 0.8
	b.Learning.AdaptationRate = 0.9
	b.TaskSelection.ExplorationRate = 0.95
	b.Resources.ParallelismFactor = 0.95
	require.NoError(t, c.Registry().Replace(b))

	ensemble, err := c.RunLearningCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ModeSpecialization, ensemble.Mode)
	assert.Equal(t, 1, ensemble.Agents)
	assert.Equal(t, 1, ensemble.Applied)
	assert.Empty(t, ensemble.Failures)
	require.Len(t, ensemble.Results, 1)
	assert.Greater(t, ensemble.MeanImprovement, 0.05)
	assert.Equal(t, ensemble.MeanImprovement, ensemble.MaxImprovement)

	// The registry now holds the optimized behavior with the adaptation
	// recorded.
	got, err := c.Registry().Get("agent-1")
	require.NoError(t, err)
	assert.Less(t, behavior.Violations(got), 3)
	require.NotEmpty(t, got.Adaptations)
	last := got.Adaptations[len(got.Adaptations)-1]
	assert.True(t, last.Applied)
	assert.Equal(t, optimize.StrategyGradient, last.Strategy)

	// States return to idle once the cycle finishes.
	state, err := c.State("agent-1")
	require.NoError(t, err)
	assert.Equal(t, StateIdle, state)
}

func TestRunLearningCycleRejectsNoHeadroom(t *testing.T) {
	deps := newTestDeps()
	c := newTestCoordinator(t, deps)

	// Default behaviors have no recoverable penalty, so no strategy can
	// clear the apply threshold.
	c.Track("agent-1")
	before, err := c.Registry().Get("agent-1")
	require.NoError(t, err)

	ensemble, err := c.RunLearningCycle(context.Background())
	require.NoError(t, err)
	assert.Zero(t, ensemble.Applied)
	require.Len(t, ensemble.Results, 1)
	assert.False(t, ensemble.Results[0].Applied)

	after, err := c.Registry().Get("agent-1")
	require.NoError(t, err)
	assert.Equal(t, before, after, "rejected cycles leave the registry untouched")
}

func TestOptimizeAgentUnknownAgent(t *testing.T) {
	c := newTestCoordinator(t, newTestDeps())

	_, err := c.OptimizeAgent(context.Background(), "ghost", nil, optimize.StrategyGradient)
	assert.True(t, types.IsKind(err, types.KindNotFound))
}

func TestOptimizeAgentUnknownStrategy(t *testing.T) {
	c := newTestCoordinator(t, newTestDeps())
	c.Track("agent-1")

	_, err := c.OptimizeAgent(context.Background(), "agent-1", nil, "hill_climbing")
	assert.True(t, types.IsKind(err, types.KindUnsupported))

	// A failed run leaves the agent idle.
	state, err := c.State("agent-1")
	require.NoError(t, err)
	assert.Equal(t, StateIdle, state)
}

func TestOptimizeAgentAppliesImprovement(t *testing.T) {
	deps := newTestDeps()
	c := newTestCoordinator(t, deps)

	// Three soft-bound violations give gradient descent enough headroom
	// to clear the apply threshold.
	c.Track("agent-1")
	b := behavior.New("agent-1")
	b.Learning.AdaptationRate = 0.9
	b.TaskSelection.ExplorationRate = 0.95
	b.Resources.ParallelismFactor = 0.95
	require.NoError(t, c.Registry().Replace(b))

	result, err := c.OptimizeAgent(context.Background(), "agent-1", nil, optimize.StrategyGradient)
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, optimize.StrategyGradient, result.Strategy)
	assert.Greater(t, result.Improvement, 0.05)

	// The registry holds the optimized behavior with the adaptation
	// recorded.
	got, err := c.Registry().Get("agent-1")
	require.NoError(t, err)
	assert.Less(t, behavior.Violations(got), 3)
	require.NotEmpty(t, got.Adaptations)
	last := got.Adaptations[len(got.Adaptations)-1]
	assert.True(t, last.Applied)
	assert.Equal(t, optimize.StrategyGradient, last.Strategy)

	state, err := c.State("agent-1")
	require.NoError(t, err)
	assert.Equal(t, StateApplied, state)

	// The applied behavior is persisted.
	saved, err := deps.store.List(context.Background(), storage.NamespaceBehaviors)
	require.NoError(t, err)
	assert.Contains(t, saved, "agent-1")
}

func TestOptimizeAgentRejectsWithoutHeadroom(t *testing.T) {
	deps := newTestDeps()
	c := newTestCoordinator(t, deps)

	c.Track("agent-1")
	before, err := c.Registry().Get("agent-1")
	require.NoError(t, err)

	result, err := c.OptimizeAgent(context.Background(), "agent-1", nil, optimize.StrategyAnnealing)
	require.NoError(t, err)
	assert.False(t, result.Applied)

	after, err := c.Registry().Get("agent-1")
	require.NoError(t, err)
	assert.Equal(t, before, after, "rejected runs leave the registry untouched")

	state, err := c.State("agent-1")
	require.NoError(t, err)
	assert.Equal(t, StateRejected, state)
}

func TestRunLearningCycleCancellation(t *testing.T) {
	c := newTestCoordinator(t, newTestDeps())
	c.Track("agent-1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.RunLearningCycle(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunLearningCyclePersistsSnapshots(t *testing.T) {
	deps := newTestDeps()
	c := newTestCoordinator(t, deps)
	c.Track("agent-1")

	_, err := c.RunLearningCycle(context.Background())
	require.NoError(t, err)

	saved, err := deps.store.List(context.Background(), storage.NamespaceBehaviors)
	require.NoError(t, err)
	assert.Contains(t, saved, "agent-1")
}

func TestRestore(t *testing.T) {
	deps := newTestDeps()
	first := newTestCoordinator(t, deps)

	first.Track("agent-1")
	b := behavior.New("agent-1")
	b.Specialization = "analysis"
	require.NoError(t, first.Registry().Replace(b))

	_, err := deps.know.Add(&knowledge.Item{
		Kind: knowledge.KindFact, Domain: "swarm", Content: "persisted fact", Confidence: 0.9,
	})
	require.NoError(t, err)

	_, err = first.RunLearningCycle(context.Background())
	require.NoError(t, err)

	// A fresh coordinator over the same store picks the state back up.
	second := newTestCoordinator(t, deps2(deps))
	require.NoError(t, second.Restore(context.Background()))

	got, err := second.Registry().Get("agent-1")
	require.NoError(t, err)
	assert.Equal(t, "analysis", got.Specialization)

	state, err := second.State("agent-1")
	require.NoError(t, err)
	assert.Equal(t, StateIdle, state)

	items := second.knowledgeItems()
	assert.NotEmpty(t, items)
}

// deps2 shares the persistent store but gives the second coordinator its
// own registry-backed runtime state.
func deps2(d coordDeps) coordDeps {
	clock := func() time.Time { return coordNow }
	d.window = trace.NewWindow(trace.WindowConfig{Clock: clock})
	d.aggregator = pattern.NewAggregator(pattern.Config{Clock: clock, Bus: d.bus})
	d.know = knowledge.NewStore(knowledge.Config{Clock: clock})
	return d
}

func (c *Coordinator) knowledgeItems() []*knowledge.Item {
	return c.know.Items(knowledge.Filter{})
}

func TestSafeTickRecoversPanics(t *testing.T) {
	deps := newTestDeps()
	c := newTestCoordinator(t, deps)
	errors := deps.bus.Subscribe(events.LearningError)

	c.safeTick(context.Background(), "boom", func(context.Context) {
		panic("tick exploded")
	})

	ev := <-errors.C
	assert.Equal(t, events.LearningError, ev.Name)
}

func TestRunAggregationFeedsWindowThroughAggregator(t *testing.T) {
	deps := newTestDeps()
	c := newTestCoordinator(t, deps)
	updates := deps.bus.Subscribe(events.PatternUpdated)

	for i := 0; i < 3; i++ {
		deps.window.Record(trace.ExecutionTrace{
			ID:        string(rune('a' + i)),
			SwarmID:   "swarm-1",
			AgentID:   "agent-1",
			Action:    "build",
			Timestamp: coordNow,
			Duration:  100 * time.Millisecond,
			Result:    trace.Result{Success: true},
		})
	}
	c.runAggregation(context.Background())

	ev := <-updates.C
	assert.Equal(t, events.PatternUpdated, ev.Name)
	assert.Len(t, updates.C, 0, "one pattern-updated event per aggregation")

	_, ok := deps.aggregator.Pattern("task_completion_build")
	assert.True(t, ok)

	// The aggregated patterns land in the kv store.
	saved, err := deps.store.List(context.Background(), storage.NamespacePatterns)
	require.NoError(t, err)
	assert.Contains(t, saved, "task_completion_build")
}
