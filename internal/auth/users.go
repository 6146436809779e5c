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

// Package auth provides login verification against the users file and the
// in-memory session token map. Passwords are stored as bcrypt hashes, never
// in plaintext.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Roles known to the assistant.
const (
	RoleAdmin   = "Admin"
	RoleStudent = "Student"
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// userRecord is the persisted per-user shape.
type userRecord struct {
	PasswordHash string `json:"password_hash"`
	Role         string `json:"role"`
}

// UserStore verifies credentials against a JSON users file.
type UserStore struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

// NewUserStore creates a store over the given users file.
func NewUserStore(path string, logger *zap.Logger) *UserStore {
	return &UserStore{path: path, logger: logger}
}

// Verify checks a username/password pair and returns the user's role.
func (s *UserStore) Verify(username, password string) (string, error) {
	s.mu.Lock()
	users, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return "", err
	}

	rec, ok := users[username]
	if !ok {
		// Burn a comparison anyway so unknown users cost the same as
		// wrong passwords.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000000000000000000000000000000000"), []byte(password))
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	role := rec.Role
	if role == "" {
		role = RoleStudent
	}
	return role, nil
}

// Upsert creates or replaces a user with a freshly hashed password. Used by
// the migrate command and by tests.
func (s *UserStore) Upsert(username, password, role string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return err
	}
	users[username] = userRecord{PasswordHash: string(hash), Role: role}
	return s.save(users)
}

func (s *UserStore) load() (map[string]userRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]userRecord{}, nil
		}
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}

	users := map[string]userRecord{}
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("users file is malformed: %w", err)
	}
	return users, nil
}

func (s *UserStore) save(users map[string]userRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("failed to create users directory: %w", err)
	}
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode users: %w", err)
	}
	return os.WriteFile(s.path, data, 0o600)
}
