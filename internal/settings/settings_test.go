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

package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	t.Setenv(EnvOverride, "")
	return NewStore(filepath.Join(t.TempDir(), "settings.json"), zap.NewNop())
}

func TestDefaultIsTrue(t *testing.T) {
	s := newTestStore(t)
	assert.True(t, s.ExternalAllowed())
}

func TestFirstAccessCreatesFile(t *testing.T) {
	t.Setenv(EnvOverride, "")
	path := filepath.Join(t.TempDir(), "settings.json")
	s := NewStore(path, zap.NewNop())
	s.ExternalAllowed()

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestToggleFlipsAndPersists(t *testing.T) {
	s := newTestStore(t)

	next, err := s.Toggle()
	require.NoError(t, err)
	assert.False(t, next)
	assert.False(t, s.ExternalAllowed())

	next, err = s.Toggle()
	require.NoError(t, err)
	assert.True(t, next)
	assert.True(t, s.ExternalAllowed())
}

func TestEnvOverrideWinsReads(t *testing.T) {
	s := newTestStore(t)

	t.Setenv(EnvOverride, "no")
	assert.False(t, s.ExternalAllowed())

	// Toggle changes only the file; the override keeps winning.
	_, err := s.Toggle()
	require.NoError(t, err)
	assert.False(t, s.ExternalAllowed())

	t.Setenv(EnvOverride, "YES")
	assert.True(t, s.ExternalAllowed())
}

func TestTruthySet(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "yes", "Yes"} {
		assert.True(t, isTruthy(v), v)
	}
	for _, v := range []string{"0", "false", "no", "on", "enabled", "2"} {
		assert.False(t, isTruthy(v), v)
	}
}

func TestMalformedFileFallsBackToDefault(t *testing.T) {
	t.Setenv(EnvOverride, "")
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))

	s := NewStore(path, zap.NewNop())
	assert.True(t, s.ExternalAllowed())
}
