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

// Package coordinator drives the learning loop: periodic aggregation of
// the trace window, per-agent optimization cycles, knowledge maintenance,
// and recommendations. It owns the behavior registry and the knowledge
// store; other components only ever see snapshots.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/teradata-labs/spindle/pkg/behavior"
	"github.com/teradata-labs/spindle/pkg/events"
	"github.com/teradata-labs/spindle/pkg/knowledge"
	"github.com/teradata-labs/spindle/pkg/observability"
	"github.com/teradata-labs/spindle/pkg/optimize"
	"github.com/teradata-labs/spindle/pkg/pattern"
	"github.com/teradata-labs/spindle/pkg/storage"
	"github.com/teradata-labs/spindle/pkg/trace"
	"github.com/teradata-labs/spindle/pkg/types"
)

// Tick defaults.
const (
	DefaultAggregationInterval = time.Minute
	DefaultLearningInterval    = 5 * time.Minute
	DefaultValidationInterval  = 15 * time.Minute
	DefaultDecayInterval       = time.Hour
)

// CycleState tracks where an agent is in the learning cycle.
type CycleState string

const (
	StateIdle     CycleState = "idle"
	StateLearning CycleState = "learning"
	StateApplied  CycleState = "applied"
	StateRejected CycleState = "rejected"
)

// Config configures a Coordinator. Window, Aggregator, Engine, and
// Knowledge are required; Storage and Bus are optional.
type Config struct {
	Window     *trace.Window
	Aggregator *pattern.Aggregator
	Engine     *optimize.Engine
	Knowledge  *knowledge.Store
	Storage    storage.Store
	Bus        *events.Bus

	Tracer observability.Tracer
	Logger *zap.Logger

	// Domain labels knowledge items produced by learning cycles.
	Domain string

	AggregationInterval time.Duration
	LearningInterval    time.Duration
	ValidationInterval  time.Duration
	DecayInterval       time.Duration

	// Clock overrides time.Now for tests.
	Clock func() time.Time
}

type agentCycle struct {
	state      CycleState
	lastCycle  time.Time
	lastResult *optimize.Result
}

// Coordinator runs the learning loop. Create with New, then Start; Stop
// halts all ticks deterministically.
type Coordinator struct {
	window     *trace.Window
	aggregator *pattern.Aggregator
	engine     *optimize.Engine
	know       *knowledge.Store
	store      storage.Store
	bus        *events.Bus
	tracer     observability.Tracer
	logger     *zap.Logger

	domain string
	now    func() time.Time

	aggregationInterval time.Duration
	learningInterval    time.Duration
	validationInterval  time.Duration
	decayInterval       time.Duration

	registry *behavior.Registry

	mu      sync.Mutex
	cycles  map[string]*agentCycle
	started bool

	cronEngine *cron.Cron
}

// New validates the config and creates a stopped coordinator.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Window == nil {
		return nil, fmt.Errorf("window is required")
	}
	if cfg.Aggregator == nil {
		return nil, fmt.Errorf("aggregator is required")
	}
	if cfg.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if cfg.Knowledge == nil {
		return nil, fmt.Errorf("knowledge store is required")
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observability.NewNoOpTracer()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Domain == "" {
		cfg.Domain = "default"
	}
	if cfg.AggregationInterval <= 0 {
		cfg.AggregationInterval = DefaultAggregationInterval
	}
	if cfg.LearningInterval <= 0 {
		cfg.LearningInterval = DefaultLearningInterval
	}
	if cfg.ValidationInterval <= 0 {
		cfg.ValidationInterval = DefaultValidationInterval
	}
	if cfg.DecayInterval <= 0 {
		cfg.DecayInterval = DefaultDecayInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Coordinator{
		window:              cfg.Window,
		aggregator:          cfg.Aggregator,
		engine:              cfg.Engine,
		know:                cfg.Knowledge,
		store:               cfg.Storage,
		bus:                 cfg.Bus,
		tracer:              cfg.Tracer,
		logger:              cfg.Logger,
		domain:              cfg.Domain,
		now:                 cfg.Clock,
		aggregationInterval: cfg.AggregationInterval,
		learningInterval:    cfg.LearningInterval,
		validationInterval:  cfg.ValidationInterval,
		decayInterval:       cfg.DecayInterval,
		registry:            behavior.NewRegistry(),
		cycles:              make(map[string]*agentCycle),
	}, nil
}

// Registry exposes the coordinator-owned behavior registry. The registry
// itself only hands out deep copies.
func (c *Coordinator) Registry() *behavior.Registry { return c.registry }

// Track registers an agent for learning cycles and returns a copy of its
// behavior.
func (c *Coordinator) Track(agentID string) *behavior.Behavior {
	b := c.registry.Track(agentID)
	c.mu.Lock()
	if _, ok := c.cycles[agentID]; !ok {
		c.cycles[agentID] = &agentCycle{state: StateIdle}
	}
	c.mu.Unlock()
	return b
}

// State returns the agent's cycle state, or a not-found error.
func (c *Coordinator) State(agentID string) (CycleState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cycle, ok := c.cycles[agentID]
	if !ok {
		return "", types.NotFound("agent", agentID)
	}
	return cycle.state, nil
}

// Start registers the periodic ticks and starts the cron engine.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return fmt.Errorf("coordinator already started")
	}
	c.started = true
	c.cronEngine = cron.New()
	c.mu.Unlock()

	ticks := []struct {
		name     string
		interval time.Duration
		run      func(context.Context)
	}{
		{"aggregation", c.aggregationInterval, c.runAggregation},
		{"learning", c.learningInterval, func(ctx context.Context) { _, _ = c.RunLearningCycle(ctx) }},
		{"knowledge-validation", c.validationInterval, c.runValidation},
		{"expertise-decay", c.decayInterval, c.runDecay},
	}
	for _, tick := range ticks {
		tick := tick
		spec := fmt.Sprintf("@every %s", tick.interval)
		if _, err := c.cronEngine.AddFunc(spec, func() {
			c.safeTick(ctx, tick.name, tick.run)
		}); err != nil {
			return fmt.Errorf("failed to schedule %s tick: %w", tick.name, err)
		}
	}

	c.cronEngine.Start()
	c.logger.Info("learning coordinator started",
		zap.Duration("aggregation_interval", c.aggregationInterval),
		zap.Duration("learning_interval", c.learningInterval))
	return nil
}

// Stop halts the cron engine and waits for any in-flight tick to finish.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	engine := c.cronEngine
	c.started = false
	c.cronEngine = nil
	c.mu.Unlock()

	if engine != nil {
		<-engine.Stop().Done()
	}
	c.logger.Info("learning coordinator stopped")
}

// safeTick runs one tick handler, converting panics and errors into
// learning-error events so the cron goroutine never dies.
func (c *Coordinator) safeTick(ctx context.Context, name string, run func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("tick handler panicked",
				zap.String("tick", name), zap.Any("panic", r))
			c.publishError(name, fmt.Errorf("panic: %v", r))
		}
	}()
	run(ctx)
}

// runAggregation feeds the current window snapshot through the aggregator
// and persists the resulting pattern map. The aggregator publishes the
// pattern-updated event itself.
func (c *Coordinator) runAggregation(ctx context.Context) {
	ctx, span := c.tracer.StartSpan(ctx, "coordinator.aggregation")
	defer c.tracer.EndSpan(span)

	snapshot := c.window.Snapshot()
	c.aggregator.Aggregate(ctx, snapshot)
	c.persistPatterns(ctx)
}

// runValidation prunes the knowledge store.
func (c *Coordinator) runValidation(ctx context.Context) {
	ctx, span := c.tracer.StartSpan(ctx, "coordinator.validation")
	defer c.tracer.EndSpan(span)

	pruned := c.know.Prune()
	if pruned > 0 {
		c.logger.Debug("knowledge validation pruned items", zap.Int("count", pruned))
	}
	c.persistKnowledge(ctx)
}

// runDecay applies expertise decay.
func (c *Coordinator) runDecay(ctx context.Context) {
	_, span := c.tracer.StartSpan(ctx, "coordinator.decay")
	defer c.tracer.EndSpan(span)

	decayed := c.know.DecayExpertise()
	if decayed > 0 {
		c.logger.Debug("expertise decay applied", zap.Int("count", decayed))
	}
}

func (c *Coordinator) publishError(scope string, err error) {
	if c.bus != nil {
		c.bus.Publish(events.LearningError, map[string]string{
			"scope": scope,
			"error": err.Error(),
		})
	}
}
