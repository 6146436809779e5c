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

package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mmec-labs/campus-assistant/internal/config"
	"github.com/mmec-labs/campus-assistant/internal/history"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Import per-user JSON histories and settings into the SQLite database",
		RunE: func(*cobra.Command, []string) error {
			return runMigrate()
		},
	}
}

func runMigrate() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := sql.Open("sqlite3", cfg.Data.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := createMigrationSchema(db); err != nil {
		return err
	}

	imported, err := importHistories(db, cfg.Data.HistoriesDir, logger)
	if err != nil {
		return err
	}

	if err := importSettings(db, cfg.Data.SettingsPath, logger); err != nil {
		return err
	}

	logger.Info("migration complete",
		zap.Int("history_rows", imported),
		zap.String("db_path", cfg.Data.DBPath),
	)
	return nil
}

func createMigrationSchema(db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE,
			role TEXT,
			extra TEXT
		);
		CREATE TABLE IF NOT EXISTS histories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL,
			sender TEXT NOT NULL,
			text TEXT NOT NULL,
			ts TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_histories_username ON histories(username, id);
		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT
		);
	`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// legacyItem tolerates both field spellings found in deployed history files.
type legacyItem struct {
	From      string `json:"from"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Message   string `json:"message"`
	TS        string `json:"ts"`
	Timestamp string `json:"timestamp"`
}

func (it legacyItem) sender() string {
	if it.From != "" {
		return it.From
	}
	if it.Sender != "" {
		return it.Sender
	}
	return "user"
}

func (it legacyItem) text() string {
	if it.Text != "" {
		return it.Text
	}
	return it.Message
}

func (it legacyItem) timestamp() string {
	if it.TS != "" {
		return it.TS
	}
	return it.Timestamp
}

// importHistories loads every data/histories/*.json file, one array per
// user, the username taken from the filename. The name is sanitized the same
// way the row store keys it, so rows written here stay readable through the
// store. A broken file is skipped, not fatal; the rest of the import still
// runs.
func importHistories(db *sql.DB, dir string, logger *zap.Logger) (int, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return 0, fmt.Errorf("failed to list history files: %w", err)
	}

	imported := 0
	for _, path := range paths {
		username := history.SanitizeUser(strings.TrimSuffix(filepath.Base(path), ".json"))

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("failed to read history file", zap.String("path", path), zap.Error(err))
			continue
		}

		var items []legacyItem
		if err := json.Unmarshal(data, &items); err != nil {
			logger.Warn("history file is malformed, skipping", zap.String("path", path), zap.Error(err))
			continue
		}

		for _, item := range items {
			_, err := db.Exec(
				`INSERT INTO histories (username, sender, text, ts) VALUES (?, ?, ?, ?)`,
				username, item.sender(), item.text(), item.timestamp(),
			)
			if err != nil {
				return imported, fmt.Errorf("failed to insert history row for %s: %w", username, err)
			}
			imported++
		}
		logger.Info("imported history file", zap.String("user", username), zap.Int("items", len(items)))
	}
	return imported, nil
}

// importSettings copies settings.json keys into the settings table, values
// stored as JSON so non-string settings survive.
func importSettings(db *sql.DB, path string, logger *zap.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("no settings file to import", zap.String("path", path))
			return nil
		}
		return fmt.Errorf("failed to read settings file: %w", err)
	}

	var values map[string]interface{}
	if err := json.Unmarshal(data, &values); err != nil {
		logger.Warn("settings file is malformed, skipping import", zap.Error(err))
		return nil
	}

	for key, value := range values {
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode setting %s: %w", key, err)
		}
		if _, err := db.Exec(
			`INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`,
			key, string(encoded),
		); err != nil {
			return fmt.Errorf("failed to import setting %s: %w", key, err)
		}
	}
	logger.Info("imported settings", zap.Int("keys", len(values)))
	return nil
}
