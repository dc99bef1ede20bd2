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
	"math"
	"sort"

	"github.com/teradata-labs/spindle/pkg/types"
)

// anomalySigma is the z-score above which a duration counts as anomalous.
const anomalySigma = 3.0

// Cluster groups batch traces that share an action.
type Cluster struct {
	Action       string        `json:"action"`
	Size         int           `json:"size"`
	MeanDuration float64       `json:"mean_duration_ms"`
	SuccessRate  float64       `json:"success_rate"`
	Members      []string      `json:"members"`
	Resources    ResourceUsage `json:"resources"`
}

// Anomaly flags one batch trace whose duration deviates from its cluster.
type Anomaly struct {
	TraceID  string  `json:"trace_id"`
	Action   string  `json:"action"`
	Score    float64 `json:"score"` // z-score of the duration
	Expected float64 `json:"expected_ms"`
	Observed float64 `json:"observed_ms"`
}

// ExecutionAnalysis is the synchronous batch-analysis result.
type ExecutionAnalysis struct {
	Clusters   []Cluster `json:"clusters"`
	Anomalies  []Anomaly `json:"anomalies"`
	Insights   []string  `json:"insights"`
	Confidence float64   `json:"confidence"`
}

// AnalyzeExecution clusters a batch of traces by action, flags duration
// anomalies, and derives coarse insights. It is a pure function of the
// batch: no window state is consulted or mutated.
func AnalyzeExecution(batch []ExecutionTrace) ExecutionAnalysis {
	analysis := ExecutionAnalysis{}
	if len(batch) == 0 {
		return analysis
	}

	groups := make(map[string][]ExecutionTrace)
	for _, t := range batch {
		groups[t.Action] = append(groups[t.Action], t)
	}

	actions := make([]string, 0, len(groups))
	for action := range groups {
		actions = append(actions, action)
	}
	sort.Strings(actions)

	var totalSuccess int
	for _, action := range actions {
		members := groups[action]
		durations := make([]float64, len(members))
		ids := make([]string, len(members))
		success := 0
		var res ResourceUsage
		for i, t := range members {
			durations[i] = float64(t.Duration.Milliseconds())
			ids[i] = t.ID
			if t.Result.Success {
				success++
			}
			res.CPU += t.Resources.CPU
			res.Memory += t.Resources.Memory
			res.Network += t.Resources.Network
			res.DiskIO += t.Resources.DiskIO
		}
		totalSuccess += success

		n := float64(len(members))
		res.CPU /= n
		res.Memory /= n
		res.Network /= n
		res.DiskIO /= n

		mean := types.Mean(durations)
		stddev := math.Sqrt(types.Variance(durations))

		analysis.Clusters = append(analysis.Clusters, Cluster{
			Action:       action,
			Size:         len(members),
			MeanDuration: mean,
			SuccessRate:  float64(success) / n,
			Members:      ids,
			Resources:    res,
		})

		if stddev > 0 {
			for i, d := range durations {
				score := (d - mean) / stddev
				if score > anomalySigma {
					analysis.Anomalies = append(analysis.Anomalies, Anomaly{
						TraceID:  ids[i],
						Action:   action,
						Score:    score,
						Expected: mean,
						Observed: d,
					})
				}
			}
		}
	}

	successRate := float64(totalSuccess) / float64(len(batch))
	analysis.Insights = buildInsights(analysis.Clusters, analysis.Anomalies, successRate)

	// Confidence grows with sample size and shrinks with anomaly density.
	sampleTerm := math.Min(float64(len(batch))/50.0, 1.0)
	anomalyTerm := 1.0 - float64(len(analysis.Anomalies))/float64(len(batch))
	analysis.Confidence = types.Clamp01((sampleTerm + anomalyTerm) / 2)

	return analysis
}

func buildInsights(clusters []Cluster, anomalies []Anomaly, successRate float64) []string {
	var insights []string

	if successRate < 0.8 {
		insights = append(insights, fmt.Sprintf("overall success rate %.0f%% is below the 80%% baseline", successRate*100))
	}
	for _, c := range clusters {
		if c.SuccessRate < 0.5 && c.Size >= 3 {
			insights = append(insights, fmt.Sprintf("action %q fails more often than it succeeds (%d samples)", c.Action, c.Size))
		}
	}
	if len(anomalies) > 0 {
		insights = append(insights, fmt.Sprintf("%d duration outliers detected; investigate before tuning behaviors", len(anomalies)))
	}
	return insights
}
