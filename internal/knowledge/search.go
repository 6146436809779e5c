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

// Package knowledge provides the second answer tier: a verbatim text search
// over the local knowledge directory. A missing directory or unreadable file
// is treated as "no match", never as an error.
package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	// FreeTextFile is the unstructured knowledge document.
	FreeTextFile = "college_info.txt"

	// snippetBefore bounds how far before the first occurrence the snippet
	// window starts; snippetTotal bounds the whole window.
	snippetBefore = 120
	snippetTotal  = 400
)

// StructuredFiles lists the structured documents in precedence order.
var StructuredFiles = []string{"college_info.json", "class_strengths.json"}

// Searcher scans the knowledge directory for verbatim, case-folded
// occurrences of a query.
type Searcher struct {
	dir    string
	logger *zap.Logger
}

// NewSearcher creates a searcher over the given knowledge directory.
func NewSearcher(dir string, logger *zap.Logger) *Searcher {
	return &Searcher{dir: dir, logger: logger}
}

// Search looks for the query (already case-folded by the caller) in the
// free-text document first, then in the structured documents in listing
// order. Free-text hits return a bounded snippet of surrounding text;
// structured hits return a pointer message naming the source document.
func (s *Searcher) Search(queryLower string) (string, bool) {
	if queryLower == "" {
		return "", false
	}

	if snippet, ok := s.searchFreeText(queryLower); ok {
		return snippet, true
	}

	for _, name := range StructuredFiles {
		if s.structuredContains(name, queryLower) {
			return fmt.Sprintf(
				"I found a mention of that in our %s records. Please check the college data section of the site for the full details.",
				name,
			), true
		}
	}
	return "", false
}

func (s *Searcher) searchFreeText(queryLower string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(s.dir, FreeTextFile))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read knowledge document",
				zap.String("file", FreeTextFile), zap.Error(err))
		}
		return "", false
	}

	doc := string(data)
	idx := strings.Index(strings.ToLower(doc), queryLower)
	if idx < 0 {
		return "", false
	}

	start := idx - snippetBefore
	if start < 0 {
		start = 0
	}
	// The window is byte-counted; pull both edges back onto rune
	// boundaries so the snippet stays valid UTF-8.
	for start > 0 && !utf8.RuneStart(doc[start]) {
		start--
	}
	end := start + snippetTotal
	if end > len(doc) {
		end = len(doc)
	}
	for end < len(doc) && !utf8.RuneStart(doc[end]) {
		end--
	}
	return strings.TrimSpace(doc[start:end]), true
}

// structuredContains reports whether the flattened, case-folded form of a
// structured document contains the query.
func (s *Searcher) structuredContains(name, queryLower string) bool {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read structured document",
				zap.String("file", name), zap.Error(err))
		}
		return false
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("failed to parse structured document",
			zap.String("file", name), zap.Error(err))
		return false
	}

	return strings.Contains(strings.ToLower(flatten(doc)), queryLower)
}

// flatten serializes a decoded JSON value to a flat space-separated text
// form, keys included.
func flatten(v interface{}) string {
	var b strings.Builder
	flattenInto(&b, v)
	return b.String()
}

func flattenInto(b *strings.Builder, v interface{}) {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, child := range val {
			b.WriteString(k)
			b.WriteByte(' ')
			flattenInto(b, child)
		}
	case []interface{}:
		for _, child := range val {
			flattenInto(b, child)
		}
	case string:
		b.WriteString(val)
		b.WriteByte(' ')
	case float64:
		b.WriteString(strconv.FormatFloat(val, 'f', -1, 64))
		b.WriteByte(' ')
	case bool:
		b.WriteString(strconv.FormatBool(val))
		b.WriteByte(' ')
	}
}
