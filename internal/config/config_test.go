// Copyright 2025 MMEC Campus Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
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
	"go.uber.org/zap"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GEMINI_API_KEY", "OPENAI_API_KEY", "DATA_DIR", "PORT",
		"LOG_LEVEL", "LOG_FORMAT", "CONFIG_PATH",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "substring", cfg.Matcher.Strategy)
	assert.Equal(t, "auto", cfg.History.Backend)
	assert.Equal(t, 30, cfg.Providers.TimeoutSeconds)
	assert.Equal(t, filepath.Join("./data", "knowledge"), cfg.Data.KnowledgeDir)
	assert.Equal(t, filepath.Join("./data", "mmec.db"), cfg.Data.DBPath)
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	configContent := `
server:
  port: "9090"
matcher:
  strategy: "similarity"
providers:
  gemini_api_key: "test-gemini-key"  # pragma: allowlist secret
  timeout_seconds: 10
history:
  backend: "file"
logging:
  level: "debug"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o600))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "similarity", cfg.Matcher.Strategy)
	assert.Equal(t, "test-gemini-key", cfg.Providers.GeminiAPIKey)
	assert.Equal(t, 10, cfg.Providers.TimeoutSeconds)
	assert.Equal(t, "file", cfg.History.Backend)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  port: \"9090\"\n"), 0o600))

	t.Setenv("PORT", "7070")
	t.Setenv("GEMINI_API_KEY", "env-key")

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "env-key", cfg.Providers.GeminiAPIKey)
}

func TestDataDirDerivesLayout(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATA_DIR", "/var/lib/campus")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/var/lib/campus", "histories"), cfg.Data.HistoriesDir)
	assert.Equal(t, filepath.Join("/var/lib/campus", "settings.json"), cfg.Data.SettingsPath)
	assert.Equal(t, filepath.Join("/var/lib/campus", "users.json"), cfg.Data.UsersPath)
}

func TestValidationRejectsBadStrategy(t *testing.T) {
	clearEnv(t)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("matcher:\n  strategy: \"fuzzy\"\n"), 0o600))

	_, err := Load(configPath)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "matcher.strategy"))
}

func TestValidationRejectsBadBackend(t *testing.T) {
	clearEnv(t)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("history:\n  backend: \"postgres\"\n"), 0o600))

	_, err := Load(configPath)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "history.backend"))
}

func TestMissingExplicitConfigFileFails(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestWatchConfigMissingExplicitFileFails(t *testing.T) {
	clearEnv(t)
	err := WatchConfig(filepath.Join(t.TempDir(), "nope.yaml"), zap.NewNop(), func(*Config) {})
	require.Error(t, err)
}

func TestWatchConfigAcceptsExistingFile(t *testing.T) {
	clearEnv(t)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  port: \"9090\"\n"), 0o600))

	assert.NoError(t, WatchConfig(configPath, zap.NewNop(), func(*Config) {}))
}

func TestMaskSensitiveValues(t *testing.T) {
	cfg := &Config{}
	cfg.Providers.GeminiAPIKey = "abcdefgh12345678"
	cfg.Providers.OpenAIAPIKey = "short"

	masked := cfg.MaskSensitiveValues()
	assert.Equal(t, "abcdefgh********", masked.Providers.GeminiAPIKey)
	assert.Equal(t, "*****", masked.Providers.OpenAIAPIKey)
	// Original untouched.
	assert.Equal(t, "abcdefgh12345678", cfg.Providers.GeminiAPIKey)
}
