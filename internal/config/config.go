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

// Package config loads the application configuration from an optional YAML
// file and environment variables. Environment variables take precedence over
// file values; the server runs on defaults alone.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config represents the complete application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Data      DataConfig      `mapstructure:"data"`
	Matcher   MatcherConfig   `mapstructure:"matcher"`
	Providers ProvidersConfig `mapstructure:"providers"`
	History   HistoryConfig   `mapstructure:"history"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig contains the HTTP server settings.
type ServerConfig struct {
	Port      string `mapstructure:"port"`
	StaticDir string `mapstructure:"static_dir"`
}

// DataConfig contains the data directory layout.
type DataConfig struct {
	Dir          string `mapstructure:"dir"`
	KnowledgeDir string `mapstructure:"knowledge_dir"`
	HistoriesDir string `mapstructure:"histories_dir"`
	DBPath       string `mapstructure:"db_path"`
	SettingsPath string `mapstructure:"settings_path"`
	UsersPath    string `mapstructure:"users_path"`
}

// MatcherConfig selects the FAQ matching strategy.
type MatcherConfig struct {
	Strategy string `mapstructure:"strategy"`
}

// ProvidersConfig contains the generative provider credentials and limits.
type ProvidersConfig struct {
	GeminiAPIKey   string `mapstructure:"gemini_api_key"`
	GeminiModel    string `mapstructure:"gemini_model"`
	OpenAIAPIKey   string `mapstructure:"openai_api_key"`
	OpenAIModel    string `mapstructure:"openai_model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// HistoryConfig selects the history backend.
type HistoryConfig struct {
	Backend string `mapstructure:"backend"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed for field '%s': %s", e.Field, e.Message)
}

// Load loads configuration from an optional config file and environment
// variables. A .env file in the working directory is honored first.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("CAMPUS_ASSISTANT")

	if err := readConfigFile(v, configPath); err != nil {
		return nil, err
	}
	setEnvironmentMappings(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDataDir(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.static_dir", "./static")

	v.SetDefault("data.dir", "./data")

	v.SetDefault("matcher.strategy", "substring")

	v.SetDefault("providers.gemini_model", "gemini-2.0-flash")
	v.SetDefault("providers.openai_model", "gpt-4o-mini")
	v.SetDefault("providers.timeout_seconds", 30)

	v.SetDefault("history.backend", "auto")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// readConfigFile wires the config file when one exists. The assistant runs
// happily on defaults, so a missing file is not an error unless the path
// was given explicitly.
func readConfigFile(v *viper.Viper, configPath string) error {
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return fmt.Errorf("config file does not exist: %s", configPath)
		}
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// setEnvironmentMappings maps the well-known environment variables onto
// config keys.
func setEnvironmentMappings(v *viper.Viper) {
	envMappings := map[string]string{
		"GEMINI_API_KEY": "providers.gemini_api_key",
		"OPENAI_API_KEY": "providers.openai_api_key",
		"DATA_DIR":       "data.dir",
		"PORT":           "server.port",
		"LOG_LEVEL":      "logging.level",
		"LOG_FORMAT":     "logging.format",
	}

	for envVar, configKey := range envMappings {
		if value := os.Getenv(envVar); value != "" {
			v.Set(configKey, value)
		}
	}
}

// applyDataDir derives the standard data layout for any path left unset.
func applyDataDir(cfg *Config) {
	dir := cfg.Data.Dir
	if dir == "" {
		dir = "./data"
		cfg.Data.Dir = dir
	}
	if cfg.Data.KnowledgeDir == "" {
		cfg.Data.KnowledgeDir = filepath.Join(dir, "knowledge")
	}
	if cfg.Data.HistoriesDir == "" {
		cfg.Data.HistoriesDir = filepath.Join(dir, "histories")
	}
	if cfg.Data.DBPath == "" {
		cfg.Data.DBPath = filepath.Join(dir, "mmec.db")
	}
	if cfg.Data.SettingsPath == "" {
		cfg.Data.SettingsPath = filepath.Join(dir, "settings.json")
	}
	if cfg.Data.UsersPath == "" {
		cfg.Data.UsersPath = filepath.Join(dir, "users.json")
	}
}

func validate(cfg *Config) error {
	var errs []ValidationError

	switch cfg.Matcher.Strategy {
	case "substring", "similarity":
	default:
		errs = append(errs, ValidationError{
			Field:   "matcher.strategy",
			Message: "strategy must be one of: substring, similarity",
		})
	}

	switch cfg.History.Backend {
	case "auto", "file", "sqlite":
	default:
		errs = append(errs, ValidationError{
			Field:   "history.backend",
			Message: "backend must be one of: auto, file, sqlite",
		})
	}

	if cfg.Providers.TimeoutSeconds <= 0 {
		errs = append(errs, ValidationError{
			Field:   "providers.timeout_seconds",
			Message: "timeout_seconds must be greater than 0",
		})
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, cfg.Logging.Level) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("log level must be one of: %s", strings.Join(validLogLevels, ", ")),
		})
	}

	if len(errs) > 0 {
		messages := make([]string, len(errs))
		for i, e := range errs {
			messages[i] = e.Error()
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(messages, "\n"))
	}
	return nil
}

// MaskSensitiveValues returns a copy of the config with credentials masked
// for logging.
func (c *Config) MaskSensitiveValues() *Config {
	masked := *c
	masked.Providers.GeminiAPIKey = maskValue(masked.Providers.GeminiAPIKey)
	masked.Providers.OpenAIAPIKey = maskValue(masked.Providers.OpenAIAPIKey)
	return &masked
}

func maskValue(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:8] + strings.Repeat("*", len(value)-8)
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// WatchConfig invokes the callback with a freshly loaded configuration
// whenever the config file changes. A reload that fails validation is logged
// and dropped; the running configuration stays in effect.
func WatchConfig(configPath string, logger *zap.Logger, callback func(*Config)) error {
	v := viper.New()
	if err := readConfigFile(v, configPath); err != nil {
		return err
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := Load(configPath)
		if err != nil {
			logger.Warn("failed to reload configuration",
				zap.String("file", e.Name), zap.Error(err))
			return
		}
		callback(cfg)
	})
	return nil
}
