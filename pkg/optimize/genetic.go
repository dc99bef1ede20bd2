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
	"math/rand"
	"sort"

	"github.com/teradata-labs/spindle/pkg/behavior"
)

// Genetic search tuning.
const (
	defaultPopulation = 20
	tournamentSize    = 3
	mutationRate      = 0.15
	perturbScale      = 0.1
)

// GeneticStrategy is hill-climbing over a population of behavior variants:
// tournament selection, whole-group crossover, single-field mutation, and
// elitist replacement. Elitism means the best-seen individual survives
// every generation, so the result never scores below the base.
type GeneticStrategy struct {
	// Population overrides the population size when > 0.
	Population int
}

// Name returns "genetic".
func (s *GeneticStrategy) Name() string { return StrategyGenetic }

type individual struct {
	b       *behavior.Behavior
	fitness float64
}

// Optimize runs the genetic search.
func (s *GeneticStrategy) Optimize(ctx context.Context, base *behavior.Behavior, objective Objective, cfg SearchConfig) (*behavior.Behavior, SearchStats, error) {
	cfg = cfg.normalized()
	rng := cfg.Rand

	popSize := s.Population
	if popSize <= 0 {
		popSize = defaultPopulation
	}

	stats := SearchStats{InitialFitness: objective(base)}

	// Seed population: the unmodified base plus bounded random variants.
	pop := make([]individual, 0, popSize)
	pop = append(pop, individual{b: base.Clone(), fitness: stats.InitialFitness})
	for len(pop) < popSize {
		v := randomVariant(base, perturbScale, rng)
		pop = append(pop, individual{b: v, fitness: objective(v)})
	}
	sortPop(pop)
	best := pop[0]

	for gen := 0; gen < cfg.MaxIterations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		stats.Iterations = gen + 1

		offspring := make([]individual, 0, popSize)
		for len(offspring) < popSize {
			p1 := tournament(pop, rng)
			p2 := tournament(pop, rng)
			child := crossover(p1.b, p2.b, rng)
			if rng.Float64() < mutationRate {
				specs := behavior.Params()
				perturb(child, specs[rng.Intn(len(specs))], perturbScale, rng)
			}
			offspring = append(offspring, individual{b: child, fitness: objective(child)})
		}

		// Elitist replacement: best of parents+offspring survive.
		merged := append(pop, offspring...)
		sortPop(merged)
		pop = merged[:popSize]

		improvement := pop[0].fitness - best.fitness
		if pop[0].fitness > best.fitness {
			best = pop[0]
		}
		if gen > 0 && improvement < cfg.Convergence {
			break
		}
	}

	stats.BestFitness = best.fitness
	return best.b.Clone(), stats, nil
}

// tournament samples tournamentSize individuals and keeps the fittest.
func tournament(pop []individual, rng *rand.Rand) individual {
	best := pop[rng.Intn(len(pop))]
	for i := 1; i < tournamentSize; i++ {
		c := pop[rng.Intn(len(pop))]
		if c.fitness > best.fitness {
			best = c
		}
	}
	return best
}

// crossover copies p1 and swaps in whole parameter groups from p2 with
// even probability.
func crossover(p1, p2 *behavior.Behavior, rng *rand.Rand) *behavior.Behavior {
	child := p1.Clone()
	for _, group := range behavior.ParamGroups() {
		if rng.Float64() < 0.5 {
			behavior.CopyGroup(child, p2, group)
		}
	}
	return child
}

func sortPop(pop []individual) {
	sort.SliceStable(pop, func(i, j int) bool {
		return pop[i].fitness > pop[j].fitness
	})
}
