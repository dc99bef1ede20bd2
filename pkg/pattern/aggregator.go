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

package pattern

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/spindle/pkg/events"
	"github.com/teradata-labs/spindle/pkg/observability"
	"github.com/teradata-labs/spindle/pkg/trace"
	"github.com/teradata-labs/spindle/pkg/types"
)

// Default aggregation tuning.
const (
	// DefaultMinFrequency is the minimum group size that produces a pattern.
	DefaultMinFrequency = 3

	// DefaultConfidenceThreshold filters low-confidence patterns out of
	// Patterns() unless the caller relaxes the filter.
	DefaultConfidenceThreshold = 0.7

	// trendDeadband is the relative difference below which the first-half
	// and second-half means count as stable.
	trendDeadband = 0.10

	// anomalySigma bounds the metadata anomaly score normalization.
	anomalySigma = 3.0
)

// Config configures the Aggregator.
type Config struct {
	MinFrequency        int
	ConfidenceThreshold float64

	Tracer observability.Tracer
	Logger *zap.Logger
	Bus    *events.Bus

	// Clock overrides time.Now for tests.
	Clock func() time.Time
}

// Aggregator owns the pattern map. It recomputes all dimensions from a
// window snapshot each cycle and replaces superseded entries wholesale, so
// a pattern's frequency always equals the count of matching traces inside
// the window.
type Aggregator struct {
	mu       sync.RWMutex
	patterns map[string]Pattern
	comm     map[string]CommunicationPattern
	failures map[string]FailurePattern

	minFrequency        int
	confidenceThreshold float64

	tracer observability.Tracer
	logger *zap.Logger
	bus    *events.Bus
	clock  func() time.Time
}

// NewAggregator creates an aggregator with the given config.
func NewAggregator(cfg Config) *Aggregator {
	if cfg.MinFrequency <= 0 {
		cfg.MinFrequency = DefaultMinFrequency
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observability.NewNoOpTracer()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Aggregator{
		patterns:            make(map[string]Pattern),
		comm:                make(map[string]CommunicationPattern),
		failures:            make(map[string]FailurePattern),
		minFrequency:        cfg.MinFrequency,
		confidenceThreshold: cfg.ConfidenceThreshold,
		tracer:              cfg.Tracer,
		logger:              cfg.Logger,
		bus:                 cfg.Bus,
		clock:               cfg.Clock,
	}
}

// SetTuning updates the aggregation thresholds. Takes effect on the next
// cycle. Zero values leave the current setting unchanged.
func (a *Aggregator) SetTuning(minFrequency int, confidenceThreshold float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if minFrequency > 0 {
		a.minFrequency = minFrequency
	}
	if confidenceThreshold > 0 {
		a.confidenceThreshold = confidenceThreshold
	}
}

// Aggregate recomputes every dimension from the window snapshot and
// replaces the pattern maps. A failure in one dimension is logged and
// yields an empty set for that dimension only; the other dimensions are
// unaffected.
func (a *Aggregator) Aggregate(ctx context.Context, traces []trace.ExecutionTrace) {
	ctx, span := a.tracer.StartSpan(ctx, "pattern.aggregate",
		observability.WithAttribute("window_size", len(traces)))
	defer a.tracer.EndSpan(span)

	a.mu.RLock()
	minFreq := a.minFrequency
	a.mu.RUnlock()

	now := a.clock()

	patterns := make(map[string]Pattern)
	var comm map[string]CommunicationPattern
	var failures map[string]FailurePattern

	// Dimensions are independent; each computes in isolation into its own
	// map so one failing dimension cannot abort the rest or leave partial
	// entries behind. Completed output merges after the dimension returns.
	a.runDimension(ctx, "task_completion", func() {
		part := make(map[string]Pattern)
		a.aggregateTasks(traces, minFreq, now, part)
		mergePatterns(patterns, part)
	})
	a.runDimension(ctx, "coordination", func() {
		part := make(map[string]Pattern)
		a.aggregateCoordination(traces, minFreq, now, part)
		mergePatterns(patterns, part)
	})
	a.runDimension(ctx, "resource_utilization", func() {
		part := make(map[string]Pattern)
		a.aggregateResources(traces, minFreq, now, part)
		mergePatterns(patterns, part)
	})
	a.runDimension(ctx, "communication", func() {
		part := make(map[string]Pattern)
		comm = a.aggregateCommunication(traces, minFreq, now, part)
		mergePatterns(patterns, part)
	})
	a.runDimension(ctx, "failure", func() {
		part := make(map[string]Pattern)
		failures = a.aggregateFailures(traces, minFreq, now, part)
		mergePatterns(patterns, part)
	})

	if comm == nil {
		comm = make(map[string]CommunicationPattern)
	}
	if failures == nil {
		failures = make(map[string]FailurePattern)
	}

	correlate(patterns)

	a.mu.Lock()
	a.patterns = patterns
	a.comm = comm
	a.failures = failures
	a.mu.Unlock()

	span.SetAttribute("patterns", len(patterns))
	a.tracer.RecordMetric("pattern.count", float64(len(patterns)), nil)

	if a.bus != nil {
		a.bus.Publish(events.PatternUpdated, len(patterns))
	}
}

// runDimension isolates one dimension's computation. A panic becomes a
// computation error and an empty set for that dimension.
func (a *Aggregator) runDimension(ctx context.Context, name string, fn func()) {
	_, span := a.tracer.StartSpan(ctx, "pattern.dimension."+name)
	defer a.tracer.EndSpan(span)

	defer func() {
		if r := recover(); r != nil {
			err := types.Computation("dimension", name, fmt.Errorf("%v", r))
			span.RecordError(err)
			a.logger.Error("dimension aggregation failed",
				zap.String("dimension", name),
				zap.Any("panic", r))
		}
	}()
	fn()
}

// mergePatterns folds one dimension's completed output into dst. A
// dimension that panicked never reaches its merge, so dst only ever holds
// fully computed dimensions.
func mergePatterns(dst, src map[string]Pattern) {
	for id, p := range src {
		dst[id] = p
	}
}

// groupStats computes the shared statistics for one dimension group.
func groupStats(values []float64) Stats {
	mean := types.Mean(values)
	variance := types.Variance(values)
	return Stats{
		Mean:     mean,
		Variance: variance,
		Trend:    computeTrend(values),
	}
}

// computeTrend compares first-half and second-half means with a 10%
// deadband relative to the first half.
func computeTrend(values []float64) Trend {
	if len(values) < 4 {
		return TrendStable
	}
	half := len(values) / 2
	first := types.Mean(values[:half])
	second := types.Mean(values[half:])
	if first == 0 {
		if second == 0 {
			return TrendStable
		}
		return TrendIncreasing
	}
	delta := (second - first) / math.Abs(first)
	switch {
	case delta > trendDeadband:
		return TrendIncreasing
	case delta < -trendDeadband:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// confidence combines a frequency term with a stability term. When the
// mean is 0 the variance/mean ratio is treated as 0 (fully stable).
func confidence(freq int, stats Stats) (conf, stability float64) {
	freqTerm := math.Min(float64(freq)/10.0, 1.0)
	ratio := 0.0
	if stats.Mean != 0 {
		ratio = stats.Variance / stats.Mean
	}
	stability = types.Clamp01(1.0 - ratio)
	return types.Clamp01((freqTerm + stability) / 2), stability
}

// anomalyScore is the largest absolute z-score in the group, normalized
// by the sigma bound. Small groups with one extreme value score high;
// that is accepted behavior, not smoothed away.
func anomalyScore(values []float64, stats Stats) float64 {
	stddev := math.Sqrt(stats.Variance)
	if stddev == 0 {
		return 0
	}
	var maxZ float64
	for _, v := range values {
		z := math.Abs(v-stats.Mean) / stddev
		if z > maxZ {
			maxZ = z
		}
	}
	return types.Clamp01(maxZ / anomalySigma)
}

// dominant returns the most frequent non-empty value in keys.
func dominant(keys []string) string {
	counts := make(map[string]int)
	for _, k := range keys {
		if k != "" {
			counts[k]++
		}
	}
	best, bestCount := "", 0
	for k, c := range counts {
		// Ties break lexicographically so recomputation is deterministic.
		if c > bestCount || (c == bestCount && k < best) {
			best, bestCount = k, c
		}
	}
	return best
}

func buildMetadata(group []trace.ExecutionTrace, values []float64, stats Stats, stability float64) Metadata {
	agents := make(map[string]struct{})
	success := 0
	for _, t := range group {
		agents[t.AgentID] = struct{}{}
		if t.Result.Success {
			success++
		}
	}
	successRate := float64(success) / float64(len(group))
	return Metadata{
		Complexity:     types.Clamp01(float64(len(agents)) / 5.0),
		Predictability: types.Clamp01(stability*0.5 + successRate*0.5),
		Stability:      stability,
		AnomalyScore:   anomalyScore(values, stats),
	}
}

func (a *Aggregator) aggregateTasks(traces []trace.ExecutionTrace, minFreq int, now time.Time, out map[string]Pattern) {
	groups := make(map[string][]trace.ExecutionTrace)
	for _, t := range traces {
		if t.Action != "" {
			groups[t.Action] = append(groups[t.Action], t)
		}
	}
	for action, group := range groups {
		if len(group) < minFreq {
			continue
		}
		values := durationsMS(group)
		stats := groupStats(values)
		conf, stability := confidence(len(group), stats)

		out["task_completion_"+action] = Pattern{
			ID:         "task_completion_" + action,
			Type:       TypeTaskCompletion,
			Frequency:  len(group),
			Confidence: conf,
			Context: Context{
				SwarmID:  dominant(fieldOf(group, func(t trace.ExecutionTrace) string { return t.SwarmID })),
				AgentID:  dominant(fieldOf(group, func(t trace.ExecutionTrace) string { return t.AgentID })),
				TaskType: action,
				Topology: dominant(fieldOf(group, func(t trace.ExecutionTrace) string { return t.Topology })),
			},
			Stats:     stats,
			Metadata:  buildMetadata(group, values, stats, stability),
			UpdatedAt: now,
		}
	}
}

func (a *Aggregator) aggregateCoordination(traces []trace.ExecutionTrace, minFreq int, now time.Time, out map[string]Pattern) {
	groups := make(map[string][]trace.ExecutionTrace)
	for _, t := range traces {
		if t.Topology != "" {
			groups[t.Topology] = append(groups[t.Topology], t)
		}
	}
	for topology, group := range groups {
		if len(group) < minFreq {
			continue
		}
		values := durationsMS(group)
		stats := groupStats(values)
		conf, stability := confidence(len(group), stats)

		out["coordination_"+topology] = Pattern{
			ID:         "coordination_" + topology,
			Type:       TypeCoordination,
			Frequency:  len(group),
			Confidence: conf,
			Context: Context{
				SwarmID:  dominant(fieldOf(group, func(t trace.ExecutionTrace) string { return t.SwarmID })),
				AgentID:  dominant(fieldOf(group, func(t trace.ExecutionTrace) string { return t.AgentID })),
				Topology: topology,
			},
			Stats:     stats,
			Metadata:  buildMetadata(group, values, stats, stability),
			UpdatedAt: now,
		}
	}
}

func (a *Aggregator) aggregateResources(traces []trace.ExecutionTrace, minFreq int, now time.Time, out map[string]Pattern) {
	groups := make(map[string][]trace.ExecutionTrace)
	for _, t := range traces {
		groups[resourceType(t.Resources)] = append(groups[resourceType(t.Resources)], t)
	}
	for resType, group := range groups {
		if len(group) < minFreq {
			continue
		}
		values := make([]float64, len(group))
		for i, t := range group {
			values[i] = resourceValue(t.Resources, resType)
		}
		stats := groupStats(values)
		conf, stability := confidence(len(group), stats)

		out["resource_utilization_"+resType] = Pattern{
			ID:         "resource_utilization_" + resType,
			Type:       TypeResourceUtilization,
			Frequency:  len(group),
			Confidence: conf,
			Context: Context{
				SwarmID: dominant(fieldOf(group, func(t trace.ExecutionTrace) string { return t.SwarmID })),
				AgentID: dominant(fieldOf(group, func(t trace.ExecutionTrace) string { return t.AgentID })),
			},
			Stats:     stats,
			Metadata:  buildMetadata(group, values, stats, stability),
			UpdatedAt: now,
		}
	}
}

func (a *Aggregator) aggregateCommunication(traces []trace.ExecutionTrace, minFreq int, now time.Time, out map[string]Pattern) map[string]CommunicationPattern {
	comm := make(map[string]CommunicationPattern)
	groups := make(map[string][]trace.ExecutionTrace)
	for _, t := range traces {
		if t.Source == "" || t.Target == "" {
			continue
		}
		key := t.Source + "->" + t.Target
		groups[key] = append(groups[key], t)
	}
	for key, group := range groups {
		if len(group) < minFreq {
			continue
		}
		values := durationsMS(group)
		stats := groupStats(values)
		conf, stability := confidence(len(group), stats)

		success := 0
		var totalLatency time.Duration
		for _, t := range group {
			if t.Result.Success {
				success++
			}
			totalLatency += t.Duration
		}

		comm[key] = CommunicationPattern{
			ID:           "communication_" + key,
			Source:       group[0].Source,
			Target:       group[0].Target,
			MessageCount: len(group),
			MeanLatency:  totalLatency / time.Duration(len(group)),
			SuccessRate:  float64(success) / float64(len(group)),
			Confidence:   conf,
			UpdatedAt:    now,
		}

		out["communication_"+key] = Pattern{
			ID:         "communication_" + key,
			Type:       TypeCommunication,
			Frequency:  len(group),
			Confidence: conf,
			Context: Context{
				SwarmID: dominant(fieldOf(group, func(t trace.ExecutionTrace) string { return t.SwarmID })),
				AgentID: group[0].Source,
			},
			Stats:     stats,
			Metadata:  buildMetadata(group, values, stats, stability),
			UpdatedAt: now,
		}
	}
	return comm
}

func (a *Aggregator) aggregateFailures(traces []trace.ExecutionTrace, minFreq int, now time.Time, out map[string]Pattern) map[string]FailurePattern {
	failures := make(map[string]FailurePattern)
	groups := make(map[string][]trace.ExecutionTrace)
	total := 0
	for _, t := range traces {
		if t.Failed() {
			errType := ClassifyError(t.Result.Error)
			groups[errType] = append(groups[errType], t)
			total++
		}
	}
	for errType, group := range groups {
		if len(group) < minFreq {
			continue
		}
		values := durationsMS(group)
		stats := groupStats(values)
		conf, stability := confidence(len(group), stats)

		contexts := make(map[string]struct{})
		agents := make(map[string]struct{})
		for _, t := range group {
			if t.Action != "" {
				contexts[t.Action] = struct{}{}
			}
			if t.AgentID != "" {
				agents[t.AgentID] = struct{}{}
			}
		}

		share := float64(len(group)) / float64(total)
		failures[errType] = FailurePattern{
			ID:          "failure_" + errType,
			ErrorType:   errType,
			Occurrences: len(group),
			Contexts:    sortedKeys(contexts),
			AgentIDs:    sortedKeys(agents),
			Severity:    types.Clamp01(share*0.5 + math.Min(float64(len(group))/10.0, 1.0)*0.5),
			Confidence:  conf,
			UpdatedAt:   now,
		}

		out["failure_"+errType] = Pattern{
			ID:         "failure_" + errType,
			Type:       TypeFailure,
			Frequency:  len(group),
			Confidence: conf,
			Context: Context{
				SwarmID: dominant(fieldOf(group, func(t trace.ExecutionTrace) string { return t.SwarmID })),
				AgentID: dominant(fieldOf(group, func(t trace.ExecutionTrace) string { return t.AgentID })),
			},
			Stats:     stats,
			Metadata:  buildMetadata(group, values, stats, stability),
			UpdatedAt: now,
		}
	}
	return failures
}

// correlate links patterns that share a swarm and overlap on context.
// Correlation lists are sorted so re-aggregation is idempotent.
func correlate(patterns map[string]Pattern) {
	ids := make([]string, 0, len(patterns))
	for id := range patterns {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		p := patterns[id]
		var related []string
		for _, otherID := range ids {
			if otherID == id {
				continue
			}
			o := patterns[otherID]
			if p.Context.SwarmID != "" && p.Context.SwarmID == o.Context.SwarmID && p.Context.Overlaps(o.Context) {
				related = append(related, otherID)
			}
		}
		p.Metadata.Correlations = related
		patterns[id] = p
	}
}

// ClassifyError maps a raw error string to a coarse failure class.
func ClassifyError(msg string) string {
	lower := strings.ToLower(msg)
	switch {
	case msg == "":
		return "unknown"
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline"):
		return "timeout"
	case strings.Contains(lower, "memory") || strings.Contains(lower, "resource") || strings.Contains(lower, "exhaust"):
		return "resource_exhausted"
	case strings.Contains(lower, "permission") || strings.Contains(lower, "denied") || strings.Contains(lower, "unauthorized"):
		return "permission"
	case strings.Contains(lower, "network") || strings.Contains(lower, "connection") || strings.Contains(lower, "refused"):
		return "network"
	case strings.Contains(lower, "invalid") || strings.Contains(lower, "validation") || strings.Contains(lower, "malformed"):
		return "validation"
	default:
		return "unknown"
	}
}

func durationsMS(group []trace.ExecutionTrace) []float64 {
	values := make([]float64, len(group))
	for i, t := range group {
		values[i] = float64(t.Duration.Milliseconds())
	}
	return values
}

func fieldOf(group []trace.ExecutionTrace, get func(trace.ExecutionTrace) string) []string {
	out := make([]string, len(group))
	for i, t := range group {
		out[i] = get(t)
	}
	return out
}

func resourceType(r trace.ResourceUsage) string {
	if r.Context != "" {
		return r.Context
	}
	best, bestVal := "cpu", r.CPU
	if r.Memory > bestVal {
		best, bestVal = "memory", r.Memory
	}
	if r.Network > bestVal {
		best, bestVal = "network", r.Network
	}
	if r.DiskIO > bestVal {
		best = "disk_io"
	}
	return best
}

func resourceValue(r trace.ResourceUsage, resType string) float64 {
	switch resType {
	case "memory":
		return r.Memory
	case "network":
		return r.Network
	case "disk_io":
		return r.DiskIO
	case "cpu":
		return r.CPU
	default:
		// Tagged contexts fall back to the dominant utilization field.
		return math.Max(math.Max(r.CPU, r.Memory), math.Max(r.Network, r.DiskIO))
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
