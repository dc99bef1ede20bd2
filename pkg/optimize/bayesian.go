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

	"github.com/teradata-labs/spindle/pkg/behavior"
)

// Acquisition tuning.
const (
	candidatesPerRound = 8
	noveltyWeight      = 0.3
	improvementWeight  = 0.7
	bayesianScale      = 0.15
)

// BayesianStrategy keeps a pool of evaluated candidates and each round
// appends the proposal with the best acquisition value: a novelty term
// (distance to the nearest pool member) plus an expected-improvement term
// over the pool's best fitness. Not a real Gaussian-process optimizer;
// the acquisition shape is what matters for the search contract.
type BayesianStrategy struct{}

// Name returns "bayesian".
func (s *BayesianStrategy) Name() string { return StrategyBayesian }

type candidate struct {
	b       *behavior.Behavior
	fitness float64
}

// Optimize runs the pool search.
func (s *BayesianStrategy) Optimize(ctx context.Context, base *behavior.Behavior, objective Objective, cfg SearchConfig) (*behavior.Behavior, SearchStats, error) {
	cfg = cfg.normalized()
	rng := cfg.Rand

	pool := []candidate{{b: base.Clone(), fitness: objective(base)}}
	stats := SearchStats{InitialFitness: pool[0].fitness}
	best := pool[0]

	for round := 0; round < cfg.MaxIterations; round++ {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		stats.Iterations = round + 1

		var picked candidate
		var pickedScore float64
		for i := 0; i < candidatesPerRound; i++ {
			proposal := randomVariant(best.b, bayesianScale, rng)
			fitness := objective(proposal)

			novelty := minDistance(proposal, pool)
			improvement := fitness - best.fitness
			score := noveltyWeight*novelty + improvementWeight*improvement

			if i == 0 || score > pickedScore {
				picked = candidate{b: proposal, fitness: fitness}
				pickedScore = score
			}
		}

		pool = append(pool, picked)
		prevBest := best.fitness
		if picked.fitness > best.fitness {
			best = picked
		}
		if round > 0 && best.fitness-prevBest < cfg.Convergence {
			break
		}
	}

	stats.BestFitness = best.fitness
	return best.b.Clone(), stats, nil
}

func minDistance(b *behavior.Behavior, pool []candidate) float64 {
	min := -1.0
	for _, c := range pool {
		d := paramDistance(b, c.b)
		if min < 0 || d < min {
			min = d
		}
	}
	if min < 0 {
		return 0
	}
	return min
}
