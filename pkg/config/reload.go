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
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teradata-labs/spindle/internal/log"
)

// ReloadCallback receives the freshly loaded config after a file change.
// A file that fails to load or validate is reported through err with a
// nil config; the previous config stays in effect.
type ReloadCallback func(cfg *Config, err error)

// WatcherConfig configures the tuning-file watcher.
type WatcherConfig struct {
	// DebounceMs collapses rapid successive writes. Default 500ms.
	DebounceMs int
	Logger     *zap.Logger
	OnReload   ReloadCallback
}

// Watcher hot-reloads the tuning file on change.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	onReload ReloadCallback
	debounce time.Duration

	timerMu sync.Mutex
	timer   *time.Timer

	stopCh  chan struct{}
	doneCh  chan struct{}
	stopped bool
	stopMu  sync.Mutex
}

// NewWatcher creates a watcher for one tuning file.
func NewWatcher(path string, cfg WatcherConfig) (*Watcher, error) {
	if cfg.OnReload == nil {
		return nil, fmt.Errorf("reload callback is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Logger()
	}
	if cfg.DebounceMs <= 0 {
		cfg.DebounceMs = 500
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		path:     path,
		watcher:  fw,
		logger:   cfg.Logger,
		onReload: cfg.OnReload,
		debounce: time.Duration(cfg.DebounceMs) * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching the tuning file.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.path); err != nil {
		return fmt.Errorf("failed to watch config file: %w", err)
	}
	w.logger.Info("started config watcher", zap.String("path", w.path))
	go w.watchLoop(ctx)
	return nil
}

// Stop halts the watcher and waits for the watch loop to exit.
func (w *Watcher) Stop() {
	w.stopMu.Lock()
	if w.stopped {
		w.stopMu.Unlock()
		return
	}
	w.stopped = true
	close(w.stopCh)
	w.stopMu.Unlock()

	_ = w.watcher.Close()
	<-w.doneCh
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.doneCh)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", zap.Error(err))

		case <-w.stopCh:
			return

		case <-ctx.Done():
			w.logger.Info("config watcher context cancelled")
			return
		}
	}
}

// handleEvent debounces write/create events before reloading; editors
// often emit several events per save.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	if strings.HasSuffix(event.Name, "~") || strings.HasSuffix(event.Name, ".swp") {
		return
	}

	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		cfg, err := Load(w.path)
		if err != nil {
			w.logger.Warn("config reload failed; keeping previous config",
				zap.String("path", w.path), zap.Error(err))
			w.onReload(nil, err)
			return
		}
		w.logger.Info("config reloaded", zap.String("path", w.path))
		w.onReload(cfg, nil)
	})
}
