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

// Package history persists per-user conversation logs. Two interchangeable
// backends exist behind the Store interface: a per-user JSON document store
// and a SQLite row store, selected once at startup.
package history

import (
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Sender values for Item.From.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Backend selection values accepted by Open.
const (
	BackendAuto   = "auto"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Item is one history entry. Ordering is insertion order; newest-first is a
// view applied at read time.
type Item struct {
	From string `json:"from"`
	Text string `json:"text"`
	TS   string `json:"ts"`
}

// Stamp fills a missing timestamp with the current time in RFC 3339.
func (i *Item) Stamp() {
	if i.TS == "" {
		i.TS = time.Now().UTC().Format(time.RFC3339)
	}
}

// Store is the per-user history contract. Read is paginated newest-first
// with 1-indexed pages. Total reports the item count where the backend
// supports it (ok=false otherwise; callers detect end-of-data by a short or
// empty page).
type Store interface {
	Append(user string, item Item) error
	Read(user string, page, size int) ([]Item, error)
	Clear(user string) error
	Total(user string) (int, bool)
	Close() error
}

// Open selects a backend. BackendAuto picks SQLite when the database file
// already exists (the original deployments migrated in place), falling back
// to the per-user document store otherwise.
func Open(backend, dbPath, dir string, logger *zap.Logger) (Store, error) {
	switch backend {
	case BackendSQLite:
		return NewSQLiteStore(dbPath, logger)
	case BackendFile:
		return NewFileStore(dir, logger), nil
	default:
		if _, err := os.Stat(dbPath); err == nil {
			logger.Info("history database found, using sqlite backend", zap.String("db_path", dbPath))
			return NewSQLiteStore(dbPath, logger)
		}
		return NewFileStore(dir, logger), nil
	}
}

// SanitizeUser reduces a username to a filesystem- and query-safe key. Both
// backends key rows by the sanitized form, so anything importing legacy data
// must apply it too.
func SanitizeUser(user string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(user)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "anonymous"
	}
	return b.String()
}

// paginate applies newest-first, 1-indexed pagination to an insertion-order
// slice.
func paginate(items []Item, page, size int) []Item {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}

	// Newest first.
	reversed := make([]Item, len(items))
	for i, item := range items {
		reversed[len(items)-1-i] = item
	}

	offset := (page - 1) * size
	if offset >= len(reversed) {
		return []Item{}
	}
	end := offset + size
	if end > len(reversed) {
		end = len(reversed)
	}
	return reversed[offset:end]
}
