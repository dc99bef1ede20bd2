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

package coordinator

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/teradata-labs/spindle/pkg/behavior"
	"github.com/teradata-labs/spindle/pkg/knowledge"
	"github.com/teradata-labs/spindle/pkg/pattern"
	"github.com/teradata-labs/spindle/pkg/storage"
)

// Snapshots are JSON values in the namespaced kv store. Persistence is
// best-effort: a storage failure is logged and emitted as a learning-error
// event, never propagated to the cycle.

func (c *Coordinator) persistBehaviors(ctx context.Context) {
	if c.store == nil {
		return
	}
	for agentID, b := range c.registry.All() {
		data, err := json.Marshal(b)
		if err != nil {
			c.logger.Error("failed to encode behavior snapshot",
				zap.String("agent_id", agentID), zap.Error(err))
			continue
		}
		if err := c.store.Put(ctx, storage.NamespaceBehaviors, agentID, data); err != nil {
			c.logger.Error("failed to persist behavior snapshot",
				zap.String("agent_id", agentID), zap.Error(err))
			c.publishError("persist:behaviors", err)
			return
		}
	}
}

func (c *Coordinator) persistPatterns(ctx context.Context) {
	if c.store == nil {
		return
	}
	zero := 0.0
	for _, p := range c.aggregator.Patterns(pattern.Filter{MinConfidence: &zero}) {
		data, err := json.Marshal(p)
		if err != nil {
			c.logger.Error("failed to encode pattern snapshot",
				zap.String("pattern_id", p.ID), zap.Error(err))
			continue
		}
		if err := c.store.Put(ctx, storage.NamespacePatterns, p.ID, data); err != nil {
			c.logger.Error("failed to persist pattern snapshot",
				zap.String("pattern_id", p.ID), zap.Error(err))
			c.publishError("persist:patterns", err)
			return
		}
	}
}

func (c *Coordinator) persistKnowledge(ctx context.Context) {
	if c.store == nil {
		return
	}
	for _, item := range c.know.Items(knowledge.Filter{}) {
		data, err := json.Marshal(item)
		if err != nil {
			c.logger.Error("failed to encode knowledge snapshot",
				zap.String("item_id", item.ID), zap.Error(err))
			continue
		}
		if err := c.store.Put(ctx, storage.NamespaceKnowledge, item.ID, data); err != nil {
			c.logger.Error("failed to persist knowledge snapshot",
				zap.String("item_id", item.ID), zap.Error(err))
			c.publishError("persist:knowledge", err)
			return
		}
	}
}

// Restore reloads behavior and knowledge snapshots from the store. Called
// before Start when resuming from persisted state.
func (c *Coordinator) Restore(ctx context.Context) error {
	if c.store == nil {
		return nil
	}

	saved, err := c.store.List(ctx, storage.NamespaceBehaviors)
	if err != nil {
		return err
	}
	for agentID, data := range saved {
		var b behavior.Behavior
		if err := json.Unmarshal(data, &b); err != nil {
			c.logger.Warn("skipping corrupt behavior snapshot",
				zap.String("agent_id", agentID), zap.Error(err))
			continue
		}
		c.Track(agentID)
		if err := c.registry.Replace(&b); err != nil {
			c.logger.Warn("skipping invalid behavior snapshot",
				zap.String("agent_id", agentID), zap.Error(err))
		}
	}

	items, err := c.store.List(ctx, storage.NamespaceKnowledge)
	if err != nil {
		return err
	}
	restored := 0
	for id, data := range items {
		var item knowledge.Item
		if err := json.Unmarshal(data, &item); err != nil {
			c.logger.Warn("skipping corrupt knowledge snapshot",
				zap.String("item_id", id), zap.Error(err))
			continue
		}
		if _, err := c.know.Add(&item); err == nil {
			restored++
		}
	}

	c.logger.Info("restored persisted state",
		zap.Int("behaviors", len(saved)),
		zap.Int("knowledge_items", restored))
	return nil
}
