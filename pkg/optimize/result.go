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
	"time"

	"github.com/teradata-labs/spindle/pkg/behavior"
)

// Result pairs the original and optimized behavior snapshots of one run.
// Immutable after creation; the engine's history is append-only.
type Result struct {
	ID       string `json:"id"`
	AgentID  string `json:"agent_id"`
	Strategy string `json:"strategy"`

	Original  *behavior.Behavior `json:"original"`
	Optimized *behavior.Behavior `json:"optimized"`

	// Improvement is best fitness minus initial fitness.
	Improvement float64 `json:"improvement"`

	// Applied reports whether the improvement cleared the apply threshold.
	// Rejected attempts stay in history for auditability.
	Applied bool `json:"applied"`

	Elapsed    time.Duration `json:"elapsed"`
	Iterations int           `json:"iterations"`
	Timestamp  time.Time     `json:"timestamp"`
}
