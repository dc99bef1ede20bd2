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

	"github.com/teradata-labs/spindle/pkg/behavior"
)

// Built-in strategy names.
const (
	StrategyGenetic   = "genetic"
	StrategyGradient  = "gradient_descent"
	StrategyAnnealing = "simulated_annealing"
	StrategyBayesian  = "bayesian"
	StrategyQLearning = "reinforcement"
)

// Search limits.
const (
	// DefaultMaxIterations bounds a run when the config leaves it zero.
	DefaultMaxIterations = 100

	// HardIterationCap guards misconfigured runs: no strategy iterates
	// past this regardless of SearchConfig.
	HardIterationCap = 10000

	// DefaultConvergence stops a run when per-iteration improvement of
	// the best fitness falls under this threshold.
	DefaultConvergence = 1e-4
)

// SearchConfig tunes one optimization run.
type SearchConfig struct {
	// MaxIterations caps generations/iterations. Clamped to HardIterationCap.
	MaxIterations int

	// Convergence stops the run when best-fitness improvement per
	// iteration falls below it.
	Convergence float64

	// Rand drives all stochastic choices. Seeding it makes a run
	// reproducible.
	Rand *rand.Rand
}

// normalized fills defaults and enforces the hard cap.
func (c SearchConfig) normalized() SearchConfig {
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.MaxIterations > HardIterationCap {
		c.MaxIterations = HardIterationCap
	}
	if c.Convergence <= 0 {
		c.Convergence = DefaultConvergence
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewSource(rand.Int63()))
	}
	return c
}

// SearchStats reports what a run did.
type SearchStats struct {
	Iterations     int
	InitialFitness float64
	BestFitness    float64
}

// Strategy is one local-search algorithm. Implementations must be
// deterministic under a seeded SearchConfig.Rand, check ctx between
// iterations, and never mutate the base behavior.
type Strategy interface {
	// Name is the registration key (e.g. "genetic").
	Name() string

	// Optimize returns the best variant found and run statistics.
	// The returned behavior is always a fresh copy.
	Optimize(ctx context.Context, base *behavior.Behavior, objective Objective, cfg SearchConfig) (*behavior.Behavior, SearchStats, error)
}

// perturb nudges one parameter by a fraction of its hard range.
// scale 0.1 means steps up to ±10% of the range.
func perturb(b *behavior.Behavior, spec behavior.ParamSpec, scale float64, rng *rand.Rand) {
	step := (rng.Float64()*2 - 1) * scale * (spec.Max - spec.Min)
	behavior.SetParam(b, spec, spec.Get(b)+step)
}

// randomVariant copies base and perturbs every parameter.
func randomVariant(base *behavior.Behavior, scale float64, rng *rand.Rand) *behavior.Behavior {
	v := base.Clone()
	for _, spec := range behavior.Params() {
		perturb(v, spec, scale, rng)
	}
	return v
}

// paramDistance is the normalized euclidean distance between two
// behaviors in parameter space, in [0, ~1].
func paramDistance(a, b *behavior.Behavior) float64 {
	specs := behavior.Params()
	var sum float64
	for _, spec := range specs {
		d := (spec.Get(a) - spec.Get(b)) / (spec.Max - spec.Min)
		sum += d * d
	}
	return sum / float64(len(specs))
}
