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

package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// FileStore keeps one JSON array per user under a histories directory.
// Writes are read-modify-write, so a per-user mutex serializes them;
// concurrent appends for the same user cannot lose items.
type FileStore struct {
	dir    string
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore creates a document-backed history store.
func NewFileStore(dir string, logger *zap.Logger) *FileStore {
	return &FileStore{
		dir:    dir,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Append implements Store.
func (f *FileStore) Append(user string, item Item) error {
	item.Stamp()

	lock := f.userLock(user)
	lock.Lock()
	defer lock.Unlock()

	items, err := f.load(user)
	if err != nil {
		return err
	}
	items = append(items, item)
	return f.save(user, items)
}

// Read implements Store.
func (f *FileStore) Read(user string, page, size int) ([]Item, error) {
	lock := f.userLock(user)
	lock.Lock()
	defer lock.Unlock()

	items, err := f.load(user)
	if err != nil {
		return nil, err
	}
	return paginate(items, page, size), nil
}

// Clear implements Store.
func (f *FileStore) Clear(user string) error {
	lock := f.userLock(user)
	lock.Lock()
	defer lock.Unlock()

	err := os.Remove(f.path(user))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Total implements Store. The document backend knows the count whenever the
// document is readable; an unreadable document withholds the total rather
// than reporting a confident zero.
func (f *FileStore) Total(user string) (int, bool) {
	lock := f.userLock(user)
	lock.Lock()
	defer lock.Unlock()

	items, err := f.load(user)
	if err != nil {
		f.logger.Warn("failed to count history items",
			zap.String("user", SanitizeUser(user)), zap.Error(err))
		return 0, false
	}
	return len(items), true
}

// Close implements Store.
func (f *FileStore) Close() error { return nil }

func (f *FileStore) path(user string) string {
	return filepath.Join(f.dir, SanitizeUser(user)+".json")
}

func (f *FileStore) userLock(user string) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := SanitizeUser(user)
	if l, ok := f.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	f.locks[key] = l
	return l
}

func (f *FileStore) load(user string) ([]Item, error) {
	data, err := os.ReadFile(f.path(user))
	if err != nil {
		if os.IsNotExist(err) {
			return []Item{}, nil
		}
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		// A corrupt document loses its history rather than wedging the
		// user's chat.
		f.logger.Warn("history document is malformed, starting fresh",
			zap.String("user", SanitizeUser(user)), zap.Error(err))
		return []Item{}, nil
	}
	return items, nil
}

func (f *FileStore) save(user string, items []Item) error {
	if err := os.MkdirAll(f.dir, 0o750); err != nil {
		return fmt.Errorf("failed to create histories directory: %w", err)
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := os.WriteFile(f.path(user), data, 0o600); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}
