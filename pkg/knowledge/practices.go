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

package knowledge

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/teradata-labs/spindle/pkg/pattern"
	"github.com/teradata-labs/spindle/pkg/types"
)

// Practice mining thresholds.
const (
	BestPracticeMinCluster = 3
	BestPracticeSimilarity = 0.8

	AntiPatternMinCluster = 2
	AntiPatternSimilarity = 0.7
)

// Similarity scores two patterns in [0, 1]: type match, context overlap,
// confidence closeness, and frequency closeness (log-scaled).
func Similarity(a, b pattern.Pattern) float64 {
	var score float64
	if a.Type == b.Type {
		score += 0.35
	}
	if a.Context.Overlaps(b.Context) {
		score += 0.25
	}
	score += 0.2 * (1 - math.Abs(a.Confidence-b.Confidence))

	fa := math.Log1p(float64(a.Frequency))
	fb := math.Log1p(float64(b.Frequency))
	if max := math.Max(fa, fb); max > 0 {
		score += 0.2 * (math.Min(fa, fb) / max)
	} else {
		score += 0.2
	}
	return types.Clamp01(score)
}

// DeriveBestPractices clusters successful patterns and emits one
// best-practice item per cluster of at least BestPracticeMinCluster
// members whose pairwise similarity to the seed is at least
// BestPracticeSimilarity. Failure-type patterns never contribute.
func DeriveBestPractices(patterns []pattern.Pattern, domain string, now time.Time) []*Item {
	var eligible []pattern.Pattern
	for _, p := range patterns {
		if p.Type != pattern.TypeFailure {
			eligible = append(eligible, p)
		}
	}
	clusters := clusterPatterns(eligible, BestPracticeSimilarity, BestPracticeMinCluster)

	items := make([]*Item, 0, len(clusters))
	for _, cluster := range clusters {
		seed := cluster[0]
		item := &Item{
			ID:         uuid.New().String(),
			Kind:       KindBestPractice,
			Domain:     domain,
			Content:    fmt.Sprintf("recurring %s pattern across %d observations", seed.Type, clusterFrequency(cluster)),
			Confidence: types.Clamp01(meanConfidence(cluster)),
			Frequency:  clusterFrequency(cluster),
			Tags:       clusterTags(cluster),
			Guidance: []string{
				"prefer the " + string(seed.Type) + " configuration observed in this cluster",
				"reinforce agents whose traces match this pattern",
			},
			Applicability: Applicability{
				Contexts: contextStrings(seed.Context),
			},
			CreatedAt:    now,
			LastVerified: now,
		}
		items = append(items, item)
	}
	return items
}

// DeriveAntiPatterns clusters failure patterns and emits one anti-pattern
// item per cluster of at least AntiPatternMinCluster members, with
// avoidance and prevention guidance derived from the dominant error type.
func DeriveAntiPatterns(failures []pattern.FailurePattern, domain string, now time.Time) []*Item {
	clusters := clusterFailures(failures, AntiPatternSimilarity, AntiPatternMinCluster)

	items := make([]*Item, 0, len(clusters))
	for _, cluster := range clusters {
		seed := cluster[0]
		occurrences := 0
		var conf float64
		for _, f := range cluster {
			occurrences += f.Occurrences
			conf += f.Confidence
		}
		item := &Item{
			ID:         uuid.New().String(),
			Kind:       KindAntiPattern,
			Domain:     domain,
			Content:    fmt.Sprintf("recurring %s failures (%d occurrences)", seed.ErrorType, occurrences),
			Confidence: types.Clamp01(conf / float64(len(cluster))),
			Frequency:  occurrences,
			Tags:       failureTags(cluster),
			Guidance:   antiPatternGuidance(seed.ErrorType),
			Applicability: Applicability{
				Contexts:    seed.Contexts,
				Limitations: []string{"derived from windowed traces; revalidate before acting outside the observed contexts"},
			},
			CreatedAt:    now,
			LastVerified: now,
		}
		items = append(items, item)
	}
	return items
}

// clusterPatterns greedily groups patterns: each unassigned pattern seeds
// a cluster of all unassigned patterns within the similarity threshold.
// Patterns are visited in sorted ID order so clustering is deterministic.
func clusterPatterns(patterns []pattern.Pattern, threshold float64, minSize int) [][]pattern.Pattern {
	sorted := append([]pattern.Pattern(nil), patterns...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	assigned := make([]bool, len(sorted))
	var clusters [][]pattern.Pattern
	for i := range sorted {
		if assigned[i] {
			continue
		}
		cluster := []pattern.Pattern{sorted[i]}
		assigned[i] = true
		for j := i + 1; j < len(sorted); j++ {
			if assigned[j] {
				continue
			}
			if Similarity(sorted[i], sorted[j]) >= threshold {
				cluster = append(cluster, sorted[j])
				assigned[j] = true
			}
		}
		if len(cluster) >= minSize {
			clusters = append(clusters, cluster)
		}
	}
	return clusters
}

func clusterFailures(failures []pattern.FailurePattern, threshold float64, minSize int) [][]pattern.FailurePattern {
	sorted := append([]pattern.FailurePattern(nil), failures...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	assigned := make([]bool, len(sorted))
	var clusters [][]pattern.FailurePattern
	for i := range sorted {
		if assigned[i] {
			continue
		}
		cluster := []pattern.FailurePattern{sorted[i]}
		assigned[i] = true
		for j := i + 1; j < len(sorted); j++ {
			if assigned[j] {
				continue
			}
			if failureSimilarity(sorted[i], sorted[j]) >= threshold {
				cluster = append(cluster, sorted[j])
				assigned[j] = true
			}
		}
		if len(cluster) >= minSize {
			clusters = append(clusters, cluster)
		}
	}
	return clusters
}

// failureSimilarity scores two failure patterns: error type match,
// shared context, and severity closeness.
func failureSimilarity(a, b pattern.FailurePattern) float64 {
	var score float64
	if a.ErrorType == b.ErrorType {
		score += 0.5
	}
	if sharesString(a.Contexts, b.Contexts) {
		score += 0.25
	}
	score += 0.25 * (1 - math.Abs(a.Severity-b.Severity))
	return types.Clamp01(score)
}

func antiPatternGuidance(errorType string) []string {
	avoid := "avoid repeating the action sequence that produced " + errorType + " failures"
	var prevent string
	switch {
	case strings.Contains(errorType, "timeout"):
		prevent = "raise timeouts or reduce task payload before retrying"
	case strings.Contains(errorType, "resource"):
		prevent = "lower concurrency or batch sizes to stay inside resource limits"
	case strings.Contains(errorType, "network"):
		prevent = "add retry with backoff on the affected communication path"
	case strings.Contains(errorType, "permission"):
		prevent = "verify credentials and scopes before dispatching the task"
	case strings.Contains(errorType, "validation"):
		prevent = "validate task parameters at ingestion instead of at execution"
	default:
		prevent = "quarantine the triggering input and review the trace context"
	}
	return []string{avoid, prevent}
}

func meanConfidence(cluster []pattern.Pattern) float64 {
	var sum float64
	for _, p := range cluster {
		sum += p.Confidence
	}
	return sum / float64(len(cluster))
}

func clusterFrequency(cluster []pattern.Pattern) int {
	total := 0
	for _, p := range cluster {
		total += p.Frequency
	}
	return total
}

func clusterTags(cluster []pattern.Pattern) []string {
	tags := make([]string, 0, len(cluster))
	for _, p := range cluster {
		tags = append(tags, p.ID)
	}
	return tags
}

func failureTags(cluster []pattern.FailurePattern) []string {
	tags := make([]string, 0, len(cluster))
	for _, f := range cluster {
		tags = append(tags, f.ID)
	}
	return tags
}

func sharesString(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
