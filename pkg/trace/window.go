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

package trace

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default window tuning.
const (
	// DefaultWindowSize is the recency bound for buffered traces.
	DefaultWindowSize = 1 * time.Hour

	// DefaultTriggerThreshold is the buffer size at which the trigger
	// callback fires between timer ticks.
	DefaultTriggerThreshold = 1000
)

// WindowConfig configures the sliding window.
type WindowConfig struct {
	// Size is the recency bound; traces older than now-Size are evicted.
	Size time.Duration

	// TriggerThreshold fires OnTrigger when the live buffer reaches this
	// many entries. Zero disables the size trigger.
	TriggerThreshold int

	// OnTrigger is called (on the recording goroutine) once when the live
	// count crosses the threshold, not on every record above it. It re-arms
	// when eviction drops the count back below the threshold. Typically
	// wired to the aggregation cycle.
	OnTrigger func()

	// Clock overrides time.Now for tests.
	Clock func() time.Time

	Logger *zap.Logger
}

// Window is the bounded-recency trace buffer feeding aggregation.
// There is no duplicate suppression and no backpressure: between ticks the
// buffer grows with arrival rate, bounded only by eviction.
type Window struct {
	mu     sync.Mutex
	traces []ExecutionTrace

	size      time.Duration
	threshold int
	onTrigger func()
	triggered bool
	clock     func() time.Time
	logger    *zap.Logger
}

// NewWindow creates a sliding window with the given config.
func NewWindow(cfg WindowConfig) *Window {
	if cfg.Size <= 0 {
		cfg.Size = DefaultWindowSize
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Window{
		size:      cfg.Size,
		threshold: cfg.TriggerThreshold,
		onTrigger: cfg.OnTrigger,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
	}
}

// Record appends a trace and immediately evicts entries older than the
// window. Fires the trigger callback once when the live count crosses the
// threshold; further records above it stay silent until eviction re-arms
// the trigger.
func (w *Window) Record(t ExecutionTrace) {
	w.mu.Lock()
	w.traces = append(w.traces, t)
	w.evictLocked()
	trigger := false
	if w.threshold > 0 && len(w.traces) >= w.threshold && !w.triggered {
		w.triggered = true
		trigger = true
	}
	size := len(w.traces)
	w.mu.Unlock()

	if trigger && w.onTrigger != nil {
		w.logger.Debug("window trigger threshold reached", zap.Int("buffered", size))
		w.onTrigger()
	}
}

// Snapshot returns a copy of the live (unevicted) traces.
// Eviction runs first so the snapshot never contains stale entries.
func (w *Window) Snapshot() []ExecutionTrace {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.evictLocked()
	out := make([]ExecutionTrace, len(w.traces))
	copy(out, w.traces)
	return out
}

// Len returns the current buffer size after eviction.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.evictLocked()
	return len(w.traces)
}

// SetSize updates the window size. Takes effect on the next eviction.
func (w *Window) SetSize(size time.Duration) {
	if size <= 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.size = size
}

// BucketStats summarizes one aligned time bucket of the window.
type BucketStats struct {
	Start        time.Time     `json:"start"`
	Count        int           `json:"count"`
	Failures     int           `json:"failures"`
	SuccessRate  float64       `json:"success_rate"`
	MeanDuration time.Duration `json:"mean_duration"`
}

// Stats groups the live traces into buckets whose starts are aligned with
// time.Truncate, in chronological order. A non-positive bucket defaults to
// one minute.
func (w *Window) Stats(bucket time.Duration) []BucketStats {
	if bucket <= 0 {
		bucket = time.Minute
	}

	w.mu.Lock()
	w.evictLocked()
	byStart := make(map[time.Time]*BucketStats)
	totals := make(map[time.Time]time.Duration)
	for _, t := range w.traces {
		start := t.Timestamp.Truncate(bucket)
		b, ok := byStart[start]
		if !ok {
			b = &BucketStats{Start: start}
			byStart[start] = b
		}
		b.Count++
		if t.Failed() {
			b.Failures++
		}
		totals[start] += t.Duration
	}
	w.mu.Unlock()

	out := make([]BucketStats, 0, len(byStart))
	for start, b := range byStart {
		b.SuccessRate = float64(b.Count-b.Failures) / float64(b.Count)
		b.MeanDuration = totals[start] / time.Duration(b.Count)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// evictLocked drops traces older than now-size. Traces arrive roughly in
// order but eviction does not assume it; the buffer is compacted in place.
func (w *Window) evictLocked() {
	cutoff := w.clock().Add(-w.size)
	live := w.traces[:0]
	for _, t := range w.traces {
		if t.Timestamp.After(cutoff) {
			live = append(live, t)
		}
	}
	// Zero the tail so evicted traces are collectable.
	for i := len(live); i < len(w.traces); i++ {
		w.traces[i] = ExecutionTrace{}
	}
	w.traces = live
	if w.threshold > 0 && len(w.traces) < w.threshold {
		w.triggered = false
	}
}
