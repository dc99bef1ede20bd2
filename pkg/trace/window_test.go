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
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock steps time manually.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func traceAt(id string, ts time.Time) ExecutionTrace {
	return ExecutionTrace{
		ID:        id,
		SwarmID:   "swarm-1",
		AgentID:   "agent-1",
		Action:    "build",
		Timestamp: ts,
		Duration:  100 * time.Millisecond,
		Result:    Result{Success: true},
	}
}

func TestWindowEvictsOldTraces(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	w := NewWindow(WindowConfig{
		Size:  time.Hour,
		Clock: clock.Now,
	})

	w.Record(traceAt("old", clock.now))
	assert.Equal(t, 1, w.Len())

	clock.Advance(30 * time.Minute)
	w.Record(traceAt("mid", clock.now))

	clock.Advance(45 * time.Minute)
	w.Record(traceAt("new", clock.now))

	// "old" is 75 minutes old now and must be gone; "mid" is 45 minutes
	// old and must remain.
	snapshot := w.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "mid", snapshot[0].ID)
	assert.Equal(t, "new", snapshot[1].ID)
}

func TestWindowEvictionProperty(t *testing.T) {
	// After any Record, no snapshot entry may be older than now - Size.
	clock := &fakeClock{now: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)}
	w := NewWindow(WindowConfig{Size: 10 * time.Minute, Clock: clock.Now})

	for i := 0; i < 100; i++ {
		clock.Advance(time.Minute)
		w.Record(traceAt(fmt.Sprintf("t-%d", i), clock.now))

		cutoff := clock.now.Add(-10 * time.Minute)
		for _, tr := range w.Snapshot() {
			assert.False(t, tr.Timestamp.Before(cutoff),
				"trace %s is older than the window", tr.ID)
		}
	}
}

func TestWindowTriggerThreshold(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	fired := 0
	w := NewWindow(WindowConfig{
		Size:             time.Hour,
		TriggerThreshold: 3,
		OnTrigger:        func() { fired++ },
		Clock:            clock.Now,
	})

	w.Record(traceAt("1", clock.now))
	w.Record(traceAt("2", clock.now))
	assert.Equal(t, 0, fired)

	w.Record(traceAt("3", clock.now))
	assert.Equal(t, 1, fired)

	// Records above the threshold do not fire again.
	w.Record(traceAt("4", clock.now))
	w.Record(traceAt("5", clock.now))
	w.Record(traceAt("6", clock.now))
	assert.Equal(t, 1, fired)

	// Once eviction drops the count below the threshold the trigger
	// re-arms and fires on the next crossing.
	clock.Advance(2 * time.Hour)
	w.Record(traceAt("7", clock.now))
	w.Record(traceAt("8", clock.now))
	assert.Equal(t, 1, fired)
	w.Record(traceAt("9", clock.now))
	assert.Equal(t, 2, fired)
}

func TestWindowSnapshotIsACopy(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	w := NewWindow(WindowConfig{Size: time.Hour, Clock: clock.Now})
	w.Record(traceAt("a", clock.now))

	snap := w.Snapshot()
	snap[0].ID = "mutated"

	again := w.Snapshot()
	assert.Equal(t, "a", again[0].ID)
}

func TestWindowSetSize(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	w := NewWindow(WindowConfig{Size: time.Hour, Clock: clock.Now})

	w.Record(traceAt("a", clock.now))
	clock.Advance(20 * time.Minute)
	w.Record(traceAt("b", clock.now))

	// Shrinking the window evicts immediately.
	w.SetSize(10 * time.Minute)
	snap := w.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "b", snap[0].ID)
}

func TestWindowStats(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: base}
	w := NewWindow(WindowConfig{Size: time.Hour, Clock: clock.Now})

	// Three traces in the first minute (one failed), one in the third.
	w.Record(traceAt("a", base.Add(10*time.Second)))
	w.Record(traceAt("b", base.Add(20*time.Second)))
	failed := traceAt("c", base.Add(30*time.Second))
	failed.Result = Result{Success: false, Error: "timeout after 30s"}
	w.Record(failed)
	w.Record(traceAt("d", base.Add(2*time.Minute+10*time.Second)))

	stats := w.Stats(time.Minute)
	require.Len(t, stats, 2)

	assert.Equal(t, base, stats[0].Start)
	assert.Equal(t, 3, stats[0].Count)
	assert.Equal(t, 1, stats[0].Failures)
	assert.InDelta(t, 2.0/3.0, stats[0].SuccessRate, 1e-9)
	assert.Equal(t, 100*time.Millisecond, stats[0].MeanDuration)

	assert.Equal(t, base.Add(2*time.Minute), stats[1].Start)
	assert.Equal(t, 1, stats[1].Count)
	assert.Equal(t, 1.0, stats[1].SuccessRate)
}

func TestTraceFailed(t *testing.T) {
	ok := ExecutionTrace{Result: Result{Success: true}}
	failed := ExecutionTrace{Result: Result{Success: false, Error: "timeout after 30s"}}

	assert.False(t, ok.Failed())
	assert.True(t, failed.Failed())
}
