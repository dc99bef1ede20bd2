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

package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reloadRecorder struct {
	mu   sync.Mutex
	cfgs []*Config
	errs []error
}

func (r *reloadRecorder) callback(cfg *Config, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfgs = append(r.cfgs, cfg)
	r.errs = append(r.errs, err)
}

func (r *reloadRecorder) last() (*Config, error, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.cfgs) == 0 {
		return nil, nil, false
	}
	return r.cfgs[len(r.cfgs)-1], r.errs[len(r.errs)-1], true
}

func TestNewWatcherRequiresCallback(t *testing.T) {
	_, err := NewWatcher("spindle.yaml", WatcherConfig{})
	assert.Error(t, err)
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spindle.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window:\n  trigger_threshold: 100\n"), 0o644))

	rec := &reloadRecorder{}
	w, err := NewWatcher(path, WatcherConfig{
		DebounceMs: 20,
		OnReload:   rec.callback,
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("window:\n  trigger_threshold: 200\n"), 0o644))

	require.Eventually(t, func() bool {
		cfg, err, ok := rec.last()
		return ok && err == nil && cfg != nil && cfg.Window.TriggerThreshold == 200
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatcherReportsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spindle.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window:\n  trigger_threshold: 100\n"), 0o644))

	rec := &reloadRecorder{}
	w, err := NewWatcher(path, WatcherConfig{
		DebounceMs: 20,
		OnReload:   rec.callback,
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: etcd\n"), 0o644))

	require.Eventually(t, func() bool {
		cfg, err, ok := rec.last()
		return ok && err != nil && cfg == nil
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spindle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	w, err := NewWatcher(path, WatcherConfig{
		OnReload: func(*Config, error) {},
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	w.Stop()
	w.Stop()
}
