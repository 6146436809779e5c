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

package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session maps a token to the user it was issued to. Sessions never expire
// and never persist; a restart drops them all.
type Session struct {
	Username  string
	Role      string
	CreatedAt time.Time
}

// SessionManager is the in-memory token registry.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewSessionManager creates an empty session registry.
func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]Session)}
}

// Create issues a fresh token for a user.
func (m *SessionManager) Create(username, role string) string {
	token := uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = Session{Username: username, Role: role, CreatedAt: time.Now()}
	return token
}

// Resolve looks up a token.
func (m *SessionManager) Resolve(token string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[token]
	return s, ok
}

// Revoke drops a token. Revoking an unknown token is a no-op.
func (m *SessionManager) Revoke(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}
