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

// Package events provides the named-event bus used by the pattern,
// optimization, and learning components to notify external observers.
//
// Delivery is per-name FIFO: events published under the same name are
// received in publication order by every subscriber of that name. No
// ordering is guaranteed across different names. Delivery is non-blocking;
// a subscriber whose buffer is full loses the event and the drop counter
// is incremented.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event names emitted by the spindle core.
const (
	PatternUpdated         = "pattern-updated"
	OptimizationStarted    = "optimization-started"
	OptimizationCompleted  = "optimization-completed"
	KnowledgeUpdated       = "knowledge-updated"
	KnowledgePruned        = "knowledge-pruned"
	AntiPatternDetected    = "anti-pattern-detected"
	BestPracticeIdentified = "best-practice-identified"
	LearningError          = "learning-error"
)

// DefaultBufferSize is the default per-subscriber channel buffer.
const DefaultBufferSize = 100

// Event is one emitted occurrence.
type Event struct {
	ID        string
	Name      string
	Timestamp time.Time
	Payload   interface{}
}

// Subscription is an active subscription to one event name.
type Subscription struct {
	ID   string
	Name string
	// C receives events in publication order for this name.
	C <-chan Event

	ch chan Event
}

// Bus is a topic-per-name publish/subscribe bus.
// All operations are safe for concurrent use.
type Bus struct {
	mu sync.RWMutex

	// Event name -> subscription id -> subscription.
	subs map[string]map[string]*Subscription

	bufferSize int
	logger     *zap.Logger

	totalPublished atomic.Int64
	totalDelivered atomic.Int64
	totalDropped   atomic.Int64

	closed atomic.Bool
}

// Option configures the Bus.
type Option func(*Bus)

// WithBufferSize sets the per-subscriber channel buffer size.
func WithBufferSize(size int) Option {
	return func(b *Bus) {
		if size > 0 {
			b.bufferSize = size
		}
	}
}

// WithLogger sets the bus logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBus creates a new event bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		subs:       make(map[string]map[string]*Subscription),
		bufferSize: DefaultBufferSize,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a subscriber for the given event name.
func (b *Bus) Subscribe(name string) *Subscription {
	ch := make(chan Event, b.bufferSize)
	sub := &Subscription{
		ID:   uuid.New().String(),
		Name: name,
		C:    ch,
		ch:   ch,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[name] == nil {
		b.subs[name] = make(map[string]*Subscription)
	}
	b.subs[name][sub.ID] = sub
	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := b.subs[sub.Name]; ok {
		if _, ok := m[sub.ID]; ok {
			delete(m, sub.ID)
			close(sub.ch)
		}
		if len(m) == 0 {
			delete(b.subs, sub.Name)
		}
	}
}

// Publish delivers an event to all subscribers of name.
// Returns the number of subscribers that received the event and the number
// whose buffers were full.
func (b *Bus) Publish(name string, payload interface{}) (delivered, dropped int) {
	if b.closed.Load() {
		return 0, 0
	}

	event := Event{
		ID:        uuid.New().String(),
		Name:      name,
		Timestamp: time.Now(),
		Payload:   payload,
	}

	// The write lock (not RLock) keeps publication order per name: two
	// concurrent publishers cannot interleave sends to the same channel.
	b.mu.Lock()
	for _, sub := range b.subs[name] {
		select {
		case sub.ch <- event:
			delivered++
		default:
			dropped++
		}
	}
	b.mu.Unlock()

	b.totalPublished.Add(1)
	b.totalDelivered.Add(int64(delivered))
	b.totalDropped.Add(int64(dropped))

	if dropped > 0 {
		b.logger.Warn("event dropped, subscriber buffer full",
			zap.String("event", name),
			zap.Int("dropped", dropped))
	}
	return delivered, dropped
}

// Stats reports cumulative bus counters.
func (b *Bus) Stats() (published, delivered, dropped int64) {
	return b.totalPublished.Load(), b.totalDelivered.Load(), b.totalDropped.Load()
}

// Close shuts down the bus and closes all subscriber channels.
func (b *Bus) Close() {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for name, m := range b.subs {
		for id, sub := range m {
			close(sub.ch)
			delete(m, id)
		}
		delete(b.subs, name)
	}
}
