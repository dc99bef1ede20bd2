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

package optimize

import (
	"context"
	"math"

	"github.com/teradata-labs/spindle/pkg/behavior"
)

// Gradient search tuning.
const (
	defaultLearningRate = 0.05
	gradientEpsilon     = 1e-3
)

// GradientStrategy climbs the fitness surface by central finite
// differences over every tunable parameter. Parameters are normalized to
// their hard range for the step so wide ranges (timeouts) and narrow ones
// (rates) move proportionally.
type GradientStrategy struct {
	// LearningRate overrides the step size when > 0.
	LearningRate float64
}

// Name returns "gradient_descent".
func (s *GradientStrategy) Name() string { return StrategyGradient }

// Optimize runs gradient ascent until convergence or the iteration cap.
func (s *GradientStrategy) Optimize(ctx context.Context, base *behavior.Behavior, objective Objective, cfg SearchConfig) (*behavior.Behavior, SearchStats, error) {
	cfg = cfg.normalized()

	lr := s.LearningRate
	if lr <= 0 {
		lr = defaultLearningRate
	}

	specs := behavior.Params()
	current := base.Clone()
	stats := SearchStats{InitialFitness: objective(base)}
	prevFitness := stats.InitialFitness

	for iter := 0; iter < cfg.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		stats.Iterations = iter + 1

		// Central differences in normalized parameter space.
		grad := make([]float64, len(specs))
		for i, spec := range specs {
			span := spec.Max - spec.Min
			eps := gradientEpsilon * span

			orig := spec.Get(current)
			behavior.SetParam(current, spec, orig+eps)
			fPlus := objective(current)
			behavior.SetParam(current, spec, orig-eps)
			fMinus := objective(current)
			behavior.SetParam(current, spec, orig)

			grad[i] = (fPlus - fMinus) / (2 * gradientEpsilon)
		}

		for i, spec := range specs {
			span := spec.Max - spec.Min
			behavior.SetParam(current, spec, spec.Get(current)+lr*grad[i]*span)
		}

		fitness := objective(current)
		if math.Abs(fitness-prevFitness) < cfg.Convergence {
			prevFitness = fitness
			break
		}
		prevFitness = fitness
	}

	stats.BestFitness = prevFitness

	// The surface is piecewise-linear in the penalty terms; a step can
	// overshoot. Fall back to the base when the walk ended up worse.
	if stats.BestFitness < stats.InitialFitness {
		stats.BestFitness = stats.InitialFitness
		return base.Clone(), stats, nil
	}
	return current, stats, nil
}
