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

// Package chatlog keeps the flat audit log shared across all users: one row
// per answered query, independent of per-user history.
package chatlog

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Entry is one audited exchange. Offline marks answers that never reached
// an external provider.
type Entry struct {
	TS      string `json:"ts"`
	User    string `json:"user"`
	UserMsg string `json:"user_msg"`
	BotMsg  string `json:"bot_msg"`
	Offline bool   `json:"offline"`
}

// Log is the append-only audit store.
type Log struct {
	db     *sql.DB
	logger *zap.Logger
}

// New opens (or creates) the audit log database.
func New(dbPath string, logger *zap.Logger) (*Log, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open chat log database: %w", err)
	}

	l := &Log{db: db, logger: logger}
	if err := l.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize chat log schema: %w", err)
	}
	return l, nil
}

func (l *Log) initSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS chat_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts TEXT NOT NULL,
			user TEXT NOT NULL,
			user_msg TEXT NOT NULL,
			bot_msg TEXT NOT NULL,
			offline INTEGER NOT NULL
		)
	`
	_, err := l.db.Exec(query)
	return err
}

// Append records one exchange. A missing timestamp is filled in.
func (l *Log) Append(entry Entry) error {
	if entry.TS == "" {
		entry.TS = time.Now().UTC().Format(time.RFC3339)
	}

	offline := 0
	if entry.Offline {
		offline = 1
	}
	_, err := l.db.Exec(
		`INSERT INTO chat_logs (ts, user, user_msg, bot_msg, offline) VALUES (?, ?, ?, ?, ?)`,
		entry.TS, entry.User, entry.UserMsg, entry.BotMsg, offline,
	)
	if err != nil {
		return fmt.Errorf("failed to append chat log entry: %w", err)
	}
	return nil
}

// List returns entries newest first, capped at limit (0 means no cap).
func (l *Log) List(limit int) ([]Entry, error) {
	query := `SELECT ts, user, user_msg, bot_msg, offline FROM chat_logs ORDER BY id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var offline int
		if err := rows.Scan(&e.TS, &e.User, &e.UserMsg, &e.BotMsg, &offline); err != nil {
			return nil, fmt.Errorf("failed to scan chat log row: %w", err)
		}
		e.Offline = offline != 0
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chat log rows: %w", err)
	}
	return entries, nil
}

// Clear deletes all entries.
func (l *Log) Clear() error {
	if _, err := l.db.Exec(`DELETE FROM chat_logs`); err != nil {
		return fmt.Errorf("failed to clear chat log: %w", err)
	}
	l.logger.Info("chat log cleared")
	return nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}
