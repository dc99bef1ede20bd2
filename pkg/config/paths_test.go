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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataDir(t *testing.T) {
	originalEnv := os.Getenv(EnvDataDir)
	defer func() {
		if originalEnv != "" {
			_ = os.Setenv(EnvDataDir, originalEnv)
		} else {
			_ = os.Unsetenv(EnvDataDir)
		}
	}()

	t.Run("default to ~/.spindle", func(t *testing.T) {
		_ = os.Unsetenv(EnvDataDir)

		dataDir := DataDir()

		homeDir, err := os.UserHomeDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(homeDir, ".spindle"), dataDir)
	})

	t.Run("use SPINDLE_DATA_DIR when set", func(t *testing.T) {
		customDir := "/custom/spindle/data"
		_ = os.Setenv(EnvDataDir, customDir)

		assert.Equal(t, customDir, DataDir())
	})

	t.Run("expand ~ in SPINDLE_DATA_DIR", func(t *testing.T) {
		_ = os.Setenv(EnvDataDir, "~/custom/.spindle")

		dataDir := DataDir()

		homeDir, err := os.UserHomeDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(homeDir, "custom", ".spindle"), dataDir)
	})

	t.Run("make relative path absolute", func(t *testing.T) {
		_ = os.Setenv(EnvDataDir, "relative/path")

		dataDir := DataDir()

		assert.True(t, filepath.IsAbs(dataDir))
		assert.True(t, strings.HasSuffix(dataDir, "relative/path") || strings.HasSuffix(dataDir, "relative\\path"))
	})
}

func TestSubDir(t *testing.T) {
	originalEnv := os.Getenv(EnvDataDir)
	defer func() {
		if originalEnv != "" {
			_ = os.Setenv(EnvDataDir, originalEnv)
		} else {
			_ = os.Unsetenv(EnvDataDir)
		}
	}()

	t.Run("return subdirectory path", func(t *testing.T) {
		_ = os.Unsetenv(EnvDataDir)

		stateDir := SubDir("state")

		homeDir, err := os.UserHomeDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(homeDir, ".spindle", "state"), stateDir)
	})

	t.Run("respect SPINDLE_DATA_DIR for subdirectories", func(t *testing.T) {
		customDir := "/custom/spindle"
		_ = os.Setenv(EnvDataDir, customDir)

		assert.Equal(t, filepath.Join(customDir, "state"), SubDir("state"))
	})
}

func TestExpandPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	t.Run("expand tilde", func(t *testing.T) {
		assert.Equal(t, filepath.Join(homeDir, "test", "path"), expandPath("~/test/path"))
	})

	t.Run("absolute path unchanged", func(t *testing.T) {
		assert.Equal(t, "/absolute/path", expandPath("/absolute/path"))
	})

	t.Run("relative path made absolute", func(t *testing.T) {
		result := expandPath("relative/path")
		assert.True(t, filepath.IsAbs(result))
		assert.True(t, strings.HasSuffix(result, "relative/path") || strings.HasSuffix(result, "relative\\path"))
	})
}
