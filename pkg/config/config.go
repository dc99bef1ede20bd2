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

// Package config loads the spindle tuning file: window sizing, aggregator
// thresholds, search limits, and tick intervals. The file is YAML;
// missing fields take the documented defaults. A file watcher can push
// tuning changes into a running pipeline without a restart.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvDataDir overrides Storage.Path's directory when set.
const EnvDataDir = "SPINDLE_DATA_DIR"

// WindowConfig tunes the trace window.
type WindowConfig struct {
	Size             time.Duration `yaml:"size"`
	TriggerThreshold int           `yaml:"trigger_threshold"`
}

// AggregatorConfig tunes pattern aggregation.
type AggregatorConfig struct {
	MinFrequency        int     `yaml:"min_frequency"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
}

// OptimizeConfig tunes the search strategies.
type OptimizeConfig struct {
	MaxIterations int     `yaml:"max_iterations"`
	Convergence   float64 `yaml:"convergence"`
}

// CoordinatorConfig tunes the periodic ticks.
type CoordinatorConfig struct {
	Domain              string        `yaml:"domain"`
	AggregationInterval time.Duration `yaml:"aggregation_interval"`
	LearningInterval    time.Duration `yaml:"learning_interval"`
	ValidationInterval  time.Duration `yaml:"validation_interval"`
	DecayInterval       time.Duration `yaml:"decay_interval"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `yaml:"backend"`
	// Path is the SQLite database path; ignored for memory.
	Path string `yaml:"path"`
}

// Config is the full tuning file.
type Config struct {
	Window      WindowConfig      `yaml:"window"`
	Aggregator  AggregatorConfig  `yaml:"aggregator"`
	Optimize    OptimizeConfig    `yaml:"optimize"`
	Coordinator CoordinatorConfig `yaml:"coordinator"`
	Storage     StorageConfig     `yaml:"storage"`
}

// Default returns the config with every field at its documented default.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Size:             time.Hour,
			TriggerThreshold: 1000,
		},
		Aggregator: AggregatorConfig{
			MinFrequency:        3,
			ConfidenceThreshold: 0.7,
		},
		Optimize: OptimizeConfig{
			MaxIterations: 100,
			Convergence:   1e-4,
		},
		Coordinator: CoordinatorConfig{
			Domain:              "default",
			AggregationInterval: time.Minute,
			LearningInterval:    5 * time.Minute,
			ValidationInterval:  15 * time.Minute,
			DecayInterval:       time.Hour,
		},
		Storage: StorageConfig{
			Backend: "memory",
		},
	}
}

// Load reads a YAML tuning file, fills gaps with defaults, applies the
// data-dir env override, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes into a validated config.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	if dir := os.Getenv(EnvDataDir); dir != "" && cfg.Storage.Backend == "sqlite" {
		cfg.Storage.Path = filepath.Join(expandPath(dir), "spindle.db")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults backfills zero values left by a sparse file.
func (c *Config) applyDefaults() {
	def := Default()
	if c.Window.Size <= 0 {
		c.Window.Size = def.Window.Size
	}
	if c.Window.TriggerThreshold < 0 {
		c.Window.TriggerThreshold = def.Window.TriggerThreshold
	}
	if c.Aggregator.MinFrequency <= 0 {
		c.Aggregator.MinFrequency = def.Aggregator.MinFrequency
	}
	if c.Aggregator.ConfidenceThreshold <= 0 {
		c.Aggregator.ConfidenceThreshold = def.Aggregator.ConfidenceThreshold
	}
	if c.Optimize.MaxIterations <= 0 {
		c.Optimize.MaxIterations = def.Optimize.MaxIterations
	}
	if c.Optimize.Convergence <= 0 {
		c.Optimize.Convergence = def.Optimize.Convergence
	}
	if c.Coordinator.Domain == "" {
		c.Coordinator.Domain = def.Coordinator.Domain
	}
	if c.Coordinator.AggregationInterval <= 0 {
		c.Coordinator.AggregationInterval = def.Coordinator.AggregationInterval
	}
	if c.Coordinator.LearningInterval <= 0 {
		c.Coordinator.LearningInterval = def.Coordinator.LearningInterval
	}
	if c.Coordinator.ValidationInterval <= 0 {
		c.Coordinator.ValidationInterval = def.Coordinator.ValidationInterval
	}
	if c.Coordinator.DecayInterval <= 0 {
		c.Coordinator.DecayInterval = def.Coordinator.DecayInterval
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = def.Storage.Backend
	}
}

// Validate rejects configs that would misbehave at runtime.
func (c *Config) Validate() error {
	if c.Aggregator.ConfidenceThreshold > 1 {
		return fmt.Errorf("aggregator confidence_threshold must be in (0, 1], got %v", c.Aggregator.ConfidenceThreshold)
	}
	switch c.Storage.Backend {
	case "memory":
	case "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}
