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

// Package settings holds the single runtime-mutable flag: whether external
// AI queries are allowed. The flag is file-backed and can be overridden per
// read by an environment variable; the override is never persisted.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// EnvOverride names the environment variable that, when set, supersedes the
// persisted value for the duration of each read.
const EnvOverride = "ALLOW_EXTERNAL_QUERIES"

// fileSettings is the persisted JSON shape.
type fileSettings struct {
	AllowExternalQueries bool `json:"allow_external_queries"`
}

// Store is the process-wide settings provider. All access is serialized; two
// concurrent admin toggles cannot lose a write.
type Store struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

// NewStore creates a store backed by the given JSON file. The file is
// created with the default value (true) on first access if absent.
func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// ExternalAllowed resolves the flag: environment override first, persisted
// value second, defaulting to true when the file is absent or unreadable.
func (s *Store) ExternalAllowed() bool {
	if v, ok := os.LookupEnv(EnvOverride); ok && v != "" {
		return isTruthy(v)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

// Toggle flips the persisted value and returns the new one. An active
// environment override is unaffected: it keeps winning reads until the
// process restarts, but the file still records the flip.
func (s *Store) Toggle() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := !s.readLocked()
	if err := s.writeLocked(next); err != nil {
		return false, fmt.Errorf("failed to persist settings: %w", err)
	}

	s.logger.Info("external query setting toggled", zap.Bool("allow_external_queries", next))
	return next, nil
}

func (s *Store) readLocked() bool {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read settings file", zap.Error(err))
		}
		// Create the file with the default so the admin page has
		// something to toggle.
		if werr := s.writeLocked(true); werr != nil {
			s.logger.Warn("failed to create settings file", zap.Error(werr))
		}
		return true
	}

	var fs fileSettings
	if err := json.Unmarshal(data, &fs); err != nil {
		s.logger.Warn("settings file is malformed, using default", zap.Error(err))
		return true
	}
	return fs.AllowExternalQueries
}

func (s *Store) writeLocked(value bool) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return err
	}
	data, err := json.MarshalIndent(fileSettings{AllowExternalQueries: value}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// isTruthy parses the fixed truthy-string set accepted by the override.
func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
