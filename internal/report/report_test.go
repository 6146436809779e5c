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

package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCollegeInfoDefaults(t *testing.T) {
	g := NewGenerator(t.TempDir(), zap.NewNop())
	info := g.CollegeInfo()
	assert.Equal(t, "MMEC", info.ShortName)
	assert.Equal(t, 1984, info.Established)
}

func TestCollegeInfoFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `{"name": "Test College", "short_name": "TC", "established": 2000}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "college_info.json"), []byte(content), 0o600))

	g := NewGenerator(dir, zap.NewNop())
	info := g.CollegeInfo()
	assert.Equal(t, "TC", info.ShortName)
}

func TestClassStrengthsMalformedFileDegrades(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "class_strengths.json"), []byte("{broken"), 0o600))

	g := NewGenerator(dir, zap.NewNop())
	rows := g.ClassStrengths()
	assert.NotEmpty(t, rows, "malformed source degrades to defaults")
}

func TestClassStrengthsPDF(t *testing.T) {
	g := NewGenerator(t.TempDir(), zap.NewNop())
	data, err := g.ClassStrengthsPDF()
	require.NoError(t, err)
	assert.True(t, len(data) > 4)
	assert.Equal(t, "%PDF", string(data[:4]))
}
