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
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teradata-labs/spindle/pkg/types"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Snapshot is the export envelope.
type Snapshot struct {
	ExportedAt time.Time `json:"exported_at" yaml:"exported_at"`
	Count      int       `json:"count" yaml:"count"`
	Items      []*Item   `json:"items" yaml:"items"`
}

// Export serializes the items matching the filter. Formats other than
// json and yaml return an unsupported error.
func (s *Store) Export(f Filter, format string) ([]byte, error) {
	snap := Snapshot{
		ExportedAt: s.now(),
		Items:      s.Items(f),
	}
	snap.Count = len(snap.Items)

	switch format {
	case FormatJSON:
		return json.MarshalIndent(snap, "", "  ")
	case FormatYAML:
		return yaml.Marshal(snap)
	default:
		return nil, types.Unsupported("export format", format)
	}
}

// Import loads previously exported items, replacing existing items with
// the same ID. Used to restore the store from a persisted snapshot.
func (s *Store) Import(data []byte, format string) (int, error) {
	var snap Snapshot
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &snap); err != nil {
			return 0, types.Validation("knowledge import", err.Error())
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &snap); err != nil {
			return 0, types.Validation("knowledge import", err.Error())
		}
	default:
		return 0, types.Unsupported("import format", format)
	}

	s.mu.Lock()
	for _, item := range snap.Items {
		if item == nil || item.ID == "" {
			continue
		}
		item.Confidence = types.Clamp01(item.Confidence)
		s.items[item.ID] = item.Clone()
	}
	s.mu.Unlock()
	return len(snap.Items), nil
}
