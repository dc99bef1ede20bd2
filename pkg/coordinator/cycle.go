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
	"sort"

	"go.uber.org/zap"

	"github.com/teradata-labs/spindle/pkg/behavior"
	"github.com/teradata-labs/spindle/pkg/optimize"
	"github.com/teradata-labs/spindle/pkg/pattern"
	"github.com/teradata-labs/spindle/pkg/types"
)

// Mode is the learning mode chosen for the current agent cohort.
type Mode string

const (
	// ModeExploration favors broad search when the cohort performs poorly.
	ModeExploration Mode = "exploration"

	// ModeSpecialization refines already-specialized, well-performing agents.
	ModeSpecialization Mode = "specialization"

	// ModeAdaptive favors incremental policy learning for adaptable cohorts.
	ModeAdaptive Mode = "adaptive"

	// ModeExploitation is the conservative default.
	ModeExploitation Mode = "exploitation"
)

// Mode thresholds for the cohort decision table.
const (
	lowEfficiency    = 0.5
	highEfficiency   = 0.7
	highAdaptability = 0.6
)

// SelectMode picks the cohort learning mode from aggregate signals:
// average efficiency, presence of specializations, and average
// adaptability. A decision table, not a classifier.
func SelectMode(behaviors []*behavior.Behavior) Mode {
	if len(behaviors) == 0 {
		return ModeExploitation
	}
	var effSum, adaptSum float64
	specialized := false
	for _, b := range behaviors {
		effSum += b.Performance.Efficiency
		adaptSum += b.Performance.Adaptability
		if b.Specialization != "" {
			specialized = true
		}
	}
	avgEff := effSum / float64(len(behaviors))
	avgAdapt := adaptSum / float64(len(behaviors))

	switch {
	case avgEff < lowEfficiency:
		return ModeExploration
	case specialized && avgEff >= highEfficiency:
		return ModeSpecialization
	case avgAdapt >= highAdaptability:
		return ModeAdaptive
	default:
		return ModeExploitation
	}
}

// strategyFor maps a learning mode to the engine strategy it runs.
func strategyFor(mode Mode) string {
	switch mode {
	case ModeExploration:
		return optimize.StrategyGenetic
	case ModeSpecialization:
		return optimize.StrategyGradient
	case ModeAdaptive:
		return optimize.StrategyQLearning
	default:
		return optimize.StrategyAnnealing
	}
}

// EnsembleResult aggregates one learning cycle across the cohort.
// Per-agent results are concatenated; the metadata fields are averaged or
// maxed over the succeeding runs.
type EnsembleResult struct {
	Mode    Mode   `json:"mode"`
	Domain  string `json:"domain"`
	Agents  int    `json:"agents"`
	Applied int    `json:"applied"`

	Results []*optimize.Result `json:"results,omitempty"`

	MeanImprovement float64 `json:"mean_improvement"`
	MaxImprovement  float64 `json:"max_improvement"`
	TotalIterations int     `json:"total_iterations"`

	Failures []types.ItemFailure `json:"failures,omitempty"`
}

// RunLearningCycle runs one full cycle: cohort mode selection, a per-agent
// optimization run, knowledge learning and pruning, and a persistence
// snapshot. One agent's failure is recorded and emitted as a
// learning-error event without blocking the other agents.
func (c *Coordinator) RunLearningCycle(ctx context.Context) (*EnsembleResult, error) {
	ctx, span := c.tracer.StartSpan(ctx, "coordinator.learning_cycle")
	defer c.tracer.EndSpan(span)

	behaviors := c.registry.All()
	if len(behaviors) == 0 {
		return &EnsembleResult{Mode: ModeExploitation, Domain: c.domain}, nil
	}

	cohort := make([]*behavior.Behavior, 0, len(behaviors))
	for _, b := range behaviors {
		cohort = append(cohort, b)
	}
	sort.Slice(cohort, func(i, j int) bool { return cohort[i].AgentID < cohort[j].AgentID })

	mode := SelectMode(cohort)
	strategy := strategyFor(mode)
	zero := 0.0
	patterns := c.aggregator.Patterns(pattern.Filter{MinConfidence: &zero})

	ensemble := &EnsembleResult{Mode: mode, Domain: c.domain, Agents: len(cohort)}
	now := c.now()

	for _, b := range cohort {
		if err := ctx.Err(); err != nil {
			return ensemble, err
		}
		c.setState(b.AgentID, StateLearning)

		result, err := c.engine.Optimize(ctx, b, patterns, strategy)
		if err != nil {
			c.setState(b.AgentID, StateIdle)
			c.publishError("agent:"+b.AgentID, err)
			ensemble.Failures = append(ensemble.Failures, types.ItemFailure{
				Key: b.AgentID,
				Err: err,
			})
			c.logger.Warn("agent learning cycle failed",
				zap.String("agent_id", b.AgentID), zap.Error(err))
			continue
		}

		if result.Applied {
			applied := result.Optimized.Clone()
			applied.RecordAdaptation(behavior.Adaptation{
				Timestamp:   now,
				Strategy:    result.Strategy,
				Improvement: result.Improvement,
				Applied:     true,
			})
			if err := c.registry.Replace(applied); err != nil {
				c.publishError("agent:"+b.AgentID, err)
				ensemble.Failures = append(ensemble.Failures, types.ItemFailure{
					Key: b.AgentID,
					Err: err,
				})
				c.setState(b.AgentID, StateIdle)
				continue
			}
			c.setState(b.AgentID, StateApplied)
			ensemble.Applied++
		} else {
			c.setState(b.AgentID, StateRejected)
		}

		c.setResult(b.AgentID, result)
		ensemble.Results = append(ensemble.Results, result)
		ensemble.TotalIterations += result.Iterations
		if result.Improvement > ensemble.MaxImprovement {
			ensemble.MaxImprovement = result.Improvement
		}
	}

	if n := len(ensemble.Results); n > 0 {
		var sum float64
		for _, r := range ensemble.Results {
			sum += r.Improvement
		}
		ensemble.MeanImprovement = sum / float64(n)
	}

	// Knowledge maintenance: fold the cycle's patterns and behaviors in,
	// then prune.
	failures := c.aggregator.FailurePatterns()
	if _, err := c.know.LearnFromInteractions(ctx, c.domain, patterns, failures, cohort); err != nil {
		c.publishError("knowledge", err)
	}
	c.know.Prune()

	c.persistBehaviors(ctx)
	c.persistKnowledge(ctx)
	c.resetStates()

	span.SetAttribute("agents", len(cohort))
	span.SetAttribute("applied", ensemble.Applied)
	c.logger.Info("learning cycle complete",
		zap.String("mode", string(mode)),
		zap.Int("agents", ensemble.Agents),
		zap.Int("applied", ensemble.Applied),
		zap.Float64("mean_improvement", ensemble.MeanImprovement))
	return ensemble, nil
}

// OptimizeAgent runs one optimization for a single agent with an explicit
// strategy, outside the cohort cycle. The agent must be tracked; unknown
// agents return a not-found error. A nil patterns slice falls back to the
// aggregator's current pattern map. When the engine applies the result the
// optimized behavior replaces the registry entry with the adaptation
// recorded; the agent is left in the applied or rejected state until the
// next learning cycle returns it to idle.
func (c *Coordinator) OptimizeAgent(ctx context.Context, agentID string, patterns []pattern.Pattern, strategy string) (*optimize.Result, error) {
	ctx, span := c.tracer.StartSpan(ctx, "coordinator.optimize_agent")
	defer c.tracer.EndSpan(span)

	b, err := c.registry.Get(agentID)
	if err != nil {
		return nil, err
	}
	if patterns == nil {
		zero := 0.0
		patterns = c.aggregator.Patterns(pattern.Filter{MinConfidence: &zero})
	}

	c.setState(agentID, StateLearning)
	result, err := c.engine.Optimize(ctx, b, patterns, strategy)
	if err != nil {
		c.setState(agentID, StateIdle)
		c.publishError("agent:"+agentID, err)
		return nil, err
	}

	if result.Applied {
		applied := result.Optimized.Clone()
		applied.RecordAdaptation(behavior.Adaptation{
			Timestamp:   c.now(),
			Strategy:    result.Strategy,
			Improvement: result.Improvement,
			Applied:     true,
		})
		if err := c.registry.Replace(applied); err != nil {
			c.setState(agentID, StateIdle)
			c.publishError("agent:"+agentID, err)
			return nil, err
		}
		c.setState(agentID, StateApplied)
	} else {
		c.setState(agentID, StateRejected)
	}
	c.setResult(agentID, result)

	c.persistBehaviors(ctx)
	c.logger.Info("agent optimization complete",
		zap.String("agent_id", agentID),
		zap.String("strategy", result.Strategy),
		zap.Bool("applied", result.Applied),
		zap.Float64("improvement", result.Improvement))
	return result, nil
}

func (c *Coordinator) setState(agentID string, state CycleState) {
	c.mu.Lock()
	cycle, ok := c.cycles[agentID]
	if !ok {
		cycle = &agentCycle{}
		c.cycles[agentID] = cycle
	}
	cycle.state = state
	cycle.lastCycle = c.now()
	c.mu.Unlock()
}

func (c *Coordinator) setResult(agentID string, r *optimize.Result) {
	c.mu.Lock()
	if cycle, ok := c.cycles[agentID]; ok {
		cycle.lastResult = r
	}
	c.mu.Unlock()
}

// resetStates returns every applied/rejected agent to idle at the end of
// the cycle.
func (c *Coordinator) resetStates() {
	c.mu.Lock()
	for _, cycle := range c.cycles {
		if cycle.state == StateApplied || cycle.state == StateRejected {
			cycle.state = StateIdle
		}
	}
	c.mu.Unlock()
}
