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

// Package log holds the process-global logger components fall back to
// when no logger is injected. The default is a no-op so the library
// stays silent inside a host application until it opts in with
// SetLogger.
package log

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var global atomic.Pointer[zap.Logger]

func init() {
	global.Store(zap.NewNop())
}

// Logger returns the current global logger.
func Logger() *zap.Logger {
	return global.Load()
}

// SetLogger replaces the global logger. Passing nil resets to no-op.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	global.Store(l)
}

// Development installs a zap development logger and returns it.
// Convenience for examples and debugging sessions.
func Development() *zap.Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		l = zap.NewNop()
	}
	global.Store(l)
	return l
}

// Sync flushes the global logger.
func Sync() error {
	return global.Load().Sync()
}
