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

// Annealing schedule.
const (
	initialTemperature = 1.0
	coolingRate        = 0.95
	minTemperature     = 1e-6
	neighborScale      = 0.05
)

// AnnealingStrategy is simulated annealing: a random-neighbor walk that
// accepts worse moves with probability exp(delta/T) under geometric
// cooling. Best-seen is tracked separately from the current state, so the
// returned behavior never scores below the base.
type AnnealingStrategy struct{}

// Name returns "simulated_annealing".
func (s *AnnealingStrategy) Name() string { return StrategyAnnealing }

// Optimize runs the annealing walk.
func (s *AnnealingStrategy) Optimize(ctx context.Context, base *behavior.Behavior, objective Objective, cfg SearchConfig) (*behavior.Behavior, SearchStats, error) {
	cfg = cfg.normalized()
	rng := cfg.Rand
	specs := behavior.Params()

	current := base.Clone()
	currentFitness := objective(current)
	stats := SearchStats{InitialFitness: currentFitness}

	best := current.Clone()
	bestFitness := currentFitness

	temperature := initialTemperature
	for iter := 0; iter < cfg.MaxIterations && temperature > minTemperature; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		stats.Iterations = iter + 1

		neighbor := current.Clone()
		perturb(neighbor, specs[rng.Intn(len(specs))], neighborScale, rng)
		neighborFitness := objective(neighbor)

		delta := neighborFitness - currentFitness
		if delta > 0 || rng.Float64() < math.Exp(delta/temperature) {
			current = neighbor
			currentFitness = neighborFitness
		}
		if currentFitness > bestFitness {
			best = current.Clone()
			bestFitness = currentFitness
		}

		temperature *= coolingRate
	}

	stats.BestFitness = bestFitness
	return best.Clone(), stats, nil
}
