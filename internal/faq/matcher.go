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

package faq

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Matching strategy names accepted by NewMatcher.
const (
	StrategySubstring  = "substring"
	StrategySimilarity = "similarity"
)

// SimilarityThreshold is the minimum ratio a (token, keyword) pair must
// strictly exceed for an entry to qualify under the similarity strategy.
const SimilarityThreshold = 0.6

// Matcher resolves a normalized user message to an FAQ entry. Match is a
// pure function over the static table; callers must reject empty messages
// before matching.
type Matcher interface {
	Match(message string) (*Entry, bool)
}

// NewMatcher returns the matcher for the given strategy name.
func NewMatcher(strategy string, entries []Entry) (Matcher, error) {
	switch strategy {
	case StrategySubstring:
		return &SubstringMatcher{entries: entries}, nil
	case StrategySimilarity:
		return &SimilarityMatcher{entries: entries, threshold: SimilarityThreshold}, nil
	default:
		return nil, fmt.Errorf("unknown matcher strategy: %s", strategy)
	}
}

// SubstringMatcher matches when a trigger phrase is a substring of the
// message or vice versa. The first matching entry in table order wins;
// there is no scoring.
type SubstringMatcher struct {
	entries []Entry
}

// Match implements Matcher.
func (m *SubstringMatcher) Match(message string) (*Entry, bool) {
	for i := range m.entries {
		for _, trigger := range m.entries[i].Triggers {
			if strings.Contains(message, trigger) || strings.Contains(trigger, message) {
				return &m.entries[i], true
			}
		}
	}
	return nil, false
}

// SimilarityMatcher scores every (message token, entry keyword) pair with a
// Ratcliff/Obershelp ratio and picks the entry holding the globally highest
// score, provided it strictly exceeds the threshold.
type SimilarityMatcher struct {
	entries   []Entry
	threshold float64
}

// Match implements Matcher.
func (m *SimilarityMatcher) Match(message string) (*Entry, bool) {
	tokens := Tokenize(message)
	if len(tokens) == 0 {
		return nil, false
	}

	var best *Entry
	bestScore := m.threshold
	for i := range m.entries {
		for _, keyword := range m.entries[i].Keywords {
			for _, token := range tokens {
				if score := similarityRatio(token, keyword); score > bestScore {
					bestScore = score
					best = &m.entries[i]
				}
			}
		}
	}
	return best, best != nil
}

// similarityRatio computes the character-level Gestalt ratio in [0,1]
// between two words.
func similarityRatio(a, b string) float64 {
	sm := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return sm.Ratio()
}
