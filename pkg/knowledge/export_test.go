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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/spindle/pkg/types"
)

func TestExportJSON(t *testing.T) {
	s := newTestStore()
	_, err := s.Add(&Item{Kind: KindFact, Domain: "swarm", Content: "fact one", Confidence: 0.9})
	require.NoError(t, err)
	_, err = s.Add(&Item{Kind: KindRule, Domain: "swarm", Content: "rule one", Confidence: 0.7})
	require.NoError(t, err)

	data, err := s.Export(Filter{}, FormatJSON)
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, 2, snap.Count)
	assert.Len(t, snap.Items, 2)
	assert.Equal(t, storeNow, snap.ExportedAt.UTC())
}

func TestExportHonorsFilter(t *testing.T) {
	s := newTestStore()
	_, err := s.Add(&Item{Kind: KindFact, Domain: "swarm", Content: "keep", Confidence: 0.9})
	require.NoError(t, err)
	_, err = s.Add(&Item{Kind: KindFact, Domain: "other", Content: "drop", Confidence: 0.9})
	require.NoError(t, err)

	data, err := s.Export(Filter{Domain: "swarm"}, FormatJSON)
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	require.Equal(t, 1, snap.Count)
	assert.Equal(t, "keep", snap.Items[0].Content)
}

func TestExportUnsupportedFormat(t *testing.T) {
	s := newTestStore()
	_, err := s.Export(Filter{}, "toml")
	assert.True(t, types.IsKind(err, types.KindUnsupported))
}

func TestExportImportRoundTrip(t *testing.T) {
	for _, format := range []string{FormatJSON, FormatYAML} {
		t.Run(format, func(t *testing.T) {
			src := newTestStore()
			stored, err := src.Add(&Item{
				Kind: KindBestPractice, Domain: "swarm", Content: "prefer mesh",
				Confidence: 0.85,
				Tags:       []string{"p1"},
				Guidance:   []string{"keep fan-out under eight"},
			})
			require.NoError(t, err)

			data, err := src.Export(Filter{}, format)
			require.NoError(t, err)

			dst := newTestStore()
			n, err := dst.Import(data, format)
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			got, err := dst.Get(stored.ID)
			require.NoError(t, err)
			assert.Equal(t, stored.Content, got.Content)
			assert.Equal(t, stored.Confidence, got.Confidence)
			assert.Equal(t, stored.Tags, got.Tags)
			assert.Equal(t, stored.Guidance, got.Guidance)
		})
	}
}

func TestImportReplacesByID(t *testing.T) {
	s := newTestStore()
	stored, err := s.Add(&Item{Kind: KindFact, Domain: "swarm", Content: "old wording", Confidence: 0.5})
	require.NoError(t, err)

	update := Snapshot{Items: []*Item{{
		ID: stored.ID, Kind: KindFact, Domain: "swarm", Content: "new wording", Confidence: 1.9,
	}}}
	data, err := json.Marshal(update)
	require.NoError(t, err)

	n, err := s.Import(data, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, s.Len())

	got, err := s.Get(stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "new wording", got.Content)
	assert.Equal(t, 1.0, got.Confidence, "imported confidence is clamped")
}

func TestImportRejectsGarbage(t *testing.T) {
	s := newTestStore()

	_, err := s.Import([]byte("{not json"), FormatJSON)
	assert.True(t, types.IsKind(err, types.KindValidation))

	_, err = s.Import([]byte("items: [1, 2"), FormatYAML)
	assert.True(t, types.IsKind(err, types.KindValidation))

	_, err = s.Import(nil, "toml")
	assert.True(t, types.IsKind(err, types.KindUnsupported))
}
