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

package provider

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProvider struct {
	name   string
	budget int
	text   string
	err    error
	calls  int
}

func (f *fakeProvider) Name() string    { return f.name }
func (f *fakeProvider) CharBudget() int { return f.budget }

func (f *fakeProvider) Generate(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeGate struct {
	allowed bool
}

func (g *fakeGate) ExternalAllowed() bool { return g.allowed }

func TestDispatchPrimarySucceeds(t *testing.T) {
	primary := &fakeProvider{name: "primary", budget: 800, text: "MMEC was established in 1984."}
	secondary := &fakeProvider{name: "secondary", budget: 600, text: "unused"}
	d := NewDispatcher(NewRegistry(primary, secondary), &fakeGate{allowed: true}, 0, zap.NewNop())

	text, status := d.Dispatch(context.Background(), "when was the college founded", "Student")
	assert.Equal(t, StatusOK, status)
	assert.Equal(t, "MMEC was established in 1984.", text)
	assert.Equal(t, 0, secondary.calls, "secondary must not be consulted when primary answers")
}

func TestDispatchFallsThroughToSecondary(t *testing.T) {
	primary := &fakeProvider{name: "primary", budget: 800, err: errors.New("network down")}
	secondary := &fakeProvider{name: "secondary", budget: 600, text: "Admissions open in May."}
	d := NewDispatcher(NewRegistry(primary, secondary), &fakeGate{allowed: true}, 0, zap.NewNop())

	text, status := d.Dispatch(context.Background(), "admission dates", "Student")
	assert.Equal(t, StatusOK, status)
	assert.Equal(t, "Admissions open in May.", text)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestDispatchSecondaryGatedBySettings(t *testing.T) {
	primary := &fakeProvider{name: "primary", budget: 800, err: errors.New("boom")}
	secondary := &fakeProvider{name: "secondary", budget: 600, text: "should not run"}
	d := NewDispatcher(NewRegistry(primary, secondary), &fakeGate{allowed: false}, 0, zap.NewNop())

	_, status := d.Dispatch(context.Background(), "anything", "")
	assert.Equal(t, StatusProviderError, status)
	assert.Equal(t, 0, secondary.calls)
}

func TestDispatchNotConfigured(t *testing.T) {
	d := NewDispatcher(NewRegistry(nil, nil), &fakeGate{allowed: true}, 0, zap.NewNop())

	text, status := d.Dispatch(context.Background(), "anything", "")
	assert.Equal(t, StatusNotConfigured, status)
	assert.Empty(t, text)
	assert.NotEmpty(t, status.UserMessage())
}

func TestDispatchSecondaryOnlyGateClosed(t *testing.T) {
	secondary := &fakeProvider{name: "secondary", budget: 600, text: "x"}
	d := NewDispatcher(NewRegistry(nil, secondary), &fakeGate{allowed: false}, 0, zap.NewNop())

	_, status := d.Dispatch(context.Background(), "anything", "")
	assert.Equal(t, StatusNotConfigured, status)
}

func TestDispatchAppliesCharBudget(t *testing.T) {
	long := strings.Repeat("a", 700) + ". " + strings.Repeat("b", 200)
	primary := &fakeProvider{name: "primary", budget: 800, text: long}
	d := NewDispatcher(NewRegistry(primary, nil), &fakeGate{allowed: true}, 0, zap.NewNop())

	text, status := d.Dispatch(context.Background(), "q", "")
	require.Equal(t, StatusOK, status)
	assert.LessOrEqual(t, len(text), 800)
	assert.True(t, strings.HasSuffix(text, "."))
}

func TestTruncateAtSentence(t *testing.T) {
	testCases := []struct {
		name   string
		text   string
		budget int
		want   string
	}{
		{
			name:   "short text untouched",
			text:   "MMEC is in Belagavi.",
			budget: 400,
			want:   "MMEC is in Belagavi.",
		},
		{
			name:   "cut at sentence boundary",
			text:   "First sentence. Second sentence that runs well past the budget and keeps going",
			budget: 30,
			want:   "First sentence.",
		},
		{
			name:   "no boundary cuts at word",
			text:   "word1 word2 word3 word4 word5",
			budget: 17,
			want:   "word1 word2.",
		},
		{
			name:   "budget landing mid-rune clamps to rune boundary",
			text:   "ab₹cd",
			budget: 4,
			want:   "ab.",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TruncateAtSentence(tc.text, tc.budget))
		})
	}
}

// A 900-character answer with its only sentence boundary at position 380
// truncates to exactly that sentence plus its period.
func TestTruncateLongAnswerProperty(t *testing.T) {
	text := strings.Repeat("a", 380) + "." + strings.Repeat("b", 519)
	require.Len(t, text, 900)

	got := TruncateAtSentence(text, 400)
	assert.Equal(t, strings.Repeat("a", 380)+".", got)
	assert.LessOrEqual(t, len(got), 400)
}

// Rupee amounts in provider answers must survive truncation as valid UTF-8.
func TestTruncateKeepsValidUTF8(t *testing.T) {
	text := strings.Repeat("a", 398) + "₹₹"
	require.Greater(t, len(text), 400)

	got := TruncateAtSentence(text, 400)
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), 400)
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("what are the fees", "Student")
	assert.Contains(t, prompt, "Maratha Mandal Engineering College (MMEC)")
	assert.Contains(t, prompt, "what are the fees")
	assert.Contains(t, prompt, "Student")

	prompt = BuildPrompt("q", "")
	assert.Contains(t, prompt, "visitor")
}

func TestStatusUserMessages(t *testing.T) {
	assert.NotEqual(t, StatusNotConfigured.UserMessage(), StatusProviderError.UserMessage())
	assert.Empty(t, StatusOK.UserMessage())
}
