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

// Package knowledge keeps the long-lived knowledge store: facts, rules,
// pattern records, best practices, anti-patterns, and expertise derived
// from observed patterns and behaviors.
package knowledge

import (
	"math"
	"time"

	"github.com/teradata-labs/spindle/pkg/types"
)

// Kind classifies a knowledge item.
type Kind string

const (
	KindFact         Kind = "fact"
	KindRule         Kind = "rule"
	KindPattern      Kind = "pattern"
	KindBestPractice Kind = "best_practice"
	KindAntiPattern  Kind = "anti_pattern"
	KindExpertise    Kind = "expertise"
)

// Evidence supports or contradicts an item. Strength is in [-1, 1];
// negative strength is contradicting evidence.
type Evidence struct {
	Source    string    `json:"source"`
	Strength  float64   `json:"strength"`
	Timestamp time.Time `json:"timestamp"`
}

// Relation links an item to another item.
type Relation struct {
	TargetID string  `json:"target_id"`
	Kind     string  `json:"kind"`
	Strength float64 `json:"strength"`
}

// Applicability bounds where an item applies.
type Applicability struct {
	Contexts      []string `json:"contexts,omitempty"`
	Conditions    []string `json:"conditions,omitempty"`
	Limitations   []string `json:"limitations,omitempty"`
	Prerequisites []string `json:"prerequisites,omitempty"`
}

// Item is one knowledge record. Confidence is recomputed whenever the
// evidence list changes and always stays in [0, 1].
type Item struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"kind"`
	Domain  string `json:"domain"`
	Content string `json:"content"`

	Confidence    float64       `json:"confidence"`
	Evidence      []Evidence    `json:"evidence,omitempty"`
	Relations     []Relation    `json:"relations,omitempty"`
	Applicability Applicability `json:"applicability"`
	Tags          []string      `json:"tags,omitempty"`

	// Frequency accumulates for pattern-kind items merged across cycles.
	Frequency int `json:"frequency,omitempty"`

	// Guidance holds generated avoidance/prevention or recommendation
	// strings for practice items.
	Guidance []string `json:"guidance,omitempty"`

	// Protected items survive pruning regardless of age or confidence.
	Protected  bool `json:"protected,omitempty"`
	Deprecated bool `json:"deprecated,omitempty"`

	CreatedAt    time.Time `json:"created_at"`
	LastVerified time.Time `json:"last_verified"`
}

// AddEvidence appends an evidence entry and recomputes confidence.
func (i *Item) AddEvidence(e Evidence) {
	i.Evidence = append(i.Evidence, e)
	i.RecomputeConfidence()
	if e.Timestamp.After(i.LastVerified) {
		i.LastVerified = e.Timestamp
	}
}

// RecomputeConfidence rederives confidence from the evidence list: a 0.5
// prior shifted by the mean evidence strength, weighted by sample size.
// The result is clamped to [0, 1] unconditionally.
func (i *Item) RecomputeConfidence() {
	if len(i.Evidence) == 0 {
		i.Confidence = types.Clamp01(i.Confidence)
		return
	}
	var sum float64
	for _, e := range i.Evidence {
		sum += types.Clamp(e.Strength, -1, 1)
	}
	mean := sum / float64(len(i.Evidence))
	weight := math.Min(float64(len(i.Evidence))/5.0, 1.0)
	i.Confidence = types.Clamp01(0.5 + 0.5*mean*weight)
}

// Clone returns a deep copy.
func (i *Item) Clone() *Item {
	cp := *i
	cp.Evidence = append([]Evidence(nil), i.Evidence...)
	cp.Relations = append([]Relation(nil), i.Relations...)
	cp.Tags = append([]string(nil), i.Tags...)
	cp.Guidance = append([]string(nil), i.Guidance...)
	cp.Applicability.Contexts = append([]string(nil), i.Applicability.Contexts...)
	cp.Applicability.Conditions = append([]string(nil), i.Applicability.Conditions...)
	cp.Applicability.Limitations = append([]string(nil), i.Applicability.Limitations...)
	cp.Applicability.Prerequisites = append([]string(nil), i.Applicability.Prerequisites...)
	return &cp
}
