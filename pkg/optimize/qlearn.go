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
	"fmt"
	"strings"

	"github.com/teradata-labs/spindle/pkg/behavior"
)

// Tabular Q-learning parameters.
const (
	qAlpha       = 0.1  // learning rate
	qGamma       = 0.9  // discount factor
	qEpsilon     = 0.1  // exploration probability
	qNudge       = 0.05 // parameter step as a fraction of the hard range
	qStateDigits = 1    // decimals kept when discretizing a parameter
)

// QLearningStrategy walks parameter space with a tabular Q policy.
// State is the coarse discretization of every parameter; an action nudges
// one parameter up or down by a fixed fraction of its range; reward is the
// fitness delta. Updates follow Q += alpha*(r + gamma*maxQ' - Q) with an
// epsilon-greedy policy.
type QLearningStrategy struct{}

// Name returns "reinforcement".
func (s *QLearningStrategy) Name() string { return StrategyQLearning }

// Optimize runs the Q-learning walk.
func (s *QLearningStrategy) Optimize(ctx context.Context, base *behavior.Behavior, objective Objective, cfg SearchConfig) (*behavior.Behavior, SearchStats, error) {
	cfg = cfg.normalized()
	rng := cfg.Rand
	specs := behavior.Params()

	// Actions: (param index, direction). Even index = up, odd = down.
	numActions := len(specs) * 2
	qtable := make(map[string][]float64)
	qrow := func(state string) []float64 {
		row, ok := qtable[state]
		if !ok {
			row = make([]float64, numActions)
			qtable[state] = row
		}
		return row
	}

	current := base.Clone()
	currentFitness := objective(current)
	stats := SearchStats{InitialFitness: currentFitness}

	best := current.Clone()
	bestFitness := currentFitness

	for iter := 0; iter < cfg.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		stats.Iterations = iter + 1

		state := discretize(current, specs)
		row := qrow(state)

		var action int
		if rng.Float64() < qEpsilon {
			action = rng.Intn(numActions)
		} else {
			action = argmax(row)
		}

		next := current.Clone()
		spec := specs[action/2]
		step := qNudge * (spec.Max - spec.Min)
		if action%2 == 1 {
			step = -step
		}
		behavior.SetParam(next, spec, spec.Get(next)+step)

		nextFitness := objective(next)
		reward := nextFitness - currentFitness

		nextRow := qrow(discretize(next, specs))
		row[action] += qAlpha * (reward + qGamma*maxOf(nextRow) - row[action])

		current = next
		currentFitness = nextFitness
		if currentFitness > bestFitness {
			best = current.Clone()
			bestFitness = currentFitness
		}
	}

	stats.BestFitness = bestFitness
	return best.Clone(), stats, nil
}

// discretize rounds every parameter (normalized to its range) to one
// decimal and joins them into the state key.
func discretize(b *behavior.Behavior, specs []behavior.ParamSpec) string {
	parts := make([]string, len(specs))
	for i, spec := range specs {
		norm := (spec.Get(b) - spec.Min) / (spec.Max - spec.Min)
		parts[i] = fmt.Sprintf("%.*f", qStateDigits, norm)
	}
	return strings.Join(parts, "|")
}

func argmax(row []float64) int {
	best := 0
	for i, v := range row {
		if v > row[best] {
			best = i
		}
	}
	return best
}

func maxOf(row []float64) float64 {
	max := row[0]
	for _, v := range row[1:] {
		if v > max {
			max = v
		}
	}
	return max
}
