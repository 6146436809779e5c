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

package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmec-labs/campus-assistant/internal/chatlog"
	"github.com/mmec-labs/campus-assistant/internal/faq"
	"github.com/mmec-labs/campus-assistant/internal/history"
	"github.com/mmec-labs/campus-assistant/internal/provider"
	"github.com/mmec-labs/campus-assistant/internal/scope"
)

type fakeSearcher struct {
	snippet string
	ok      bool
	calls   int
}

func (f *fakeSearcher) Search(string) (string, bool) {
	f.calls++
	return f.snippet, f.ok
}

type fakeDispatcher struct {
	text   string
	status provider.Status
	calls  int
}

func (f *fakeDispatcher) Dispatch(context.Context, string, string) (string, provider.Status) {
	f.calls++
	return f.text, f.status
}

type fakeAudit struct {
	entries []chatlog.Entry
}

func (f *fakeAudit) Append(e chatlog.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

func newTestPipeline(t *testing.T, searcher *fakeSearcher, dispatcher *fakeDispatcher) (*Pipeline, history.Store, *fakeAudit) {
	t.Helper()

	matcher, err := faq.NewMatcher(faq.StrategySubstring, faq.DefaultEntries())
	require.NoError(t, err)

	store := history.NewFileStore(t.TempDir(), zap.NewNop())
	audit := &fakeAudit{}
	p := NewPipeline(matcher, searcher, scope.NewGate(), dispatcher, store, audit, zap.NewNop())
	return p, store, audit
}

func TestGreetingDominates(t *testing.T) {
	searcher := &fakeSearcher{}
	dispatcher := &fakeDispatcher{}
	p, _, _ := newTestPipeline(t, searcher, dispatcher)

	for _, msg := range []string{"hello", "hi, what are the fees?", "hey there namaste"} {
		answer := p.Handle(context.Background(), "ravi", msg, "")
		assert.Equal(t, faq.GreetingResponse, answer.Text, msg)
		assert.Equal(t, SourceOffline, answer.Source, msg)
	}
	assert.Zero(t, searcher.calls)
	assert.Zero(t, dispatcher.calls)
}

func TestFaqShortCircuitsKnowledge(t *testing.T) {
	searcher := &fakeSearcher{snippet: "should never appear", ok: true}
	dispatcher := &fakeDispatcher{}
	p, _, _ := newTestPipeline(t, searcher, dispatcher)

	answer := p.Handle(context.Background(), "ravi", "What are the fees?", "")
	assert.Equal(t, SourceOffline, answer.Source)
	assert.Contains(t, answer.Text, "₹")
	assert.Zero(t, searcher.calls, "knowledge must not be consulted on an FAQ hit")
	assert.Zero(t, dispatcher.calls)
}

func TestKnowledgeTier(t *testing.T) {
	searcher := &fakeSearcher{snippet: "The annual day is in March.", ok: true}
	dispatcher := &fakeDispatcher{}
	p, _, _ := newTestPipeline(t, searcher, dispatcher)

	answer := p.Handle(context.Background(), "ravi", "when is the annual day", "")
	assert.Equal(t, SourceCollegeData, answer.Source)
	assert.Equal(t, "The annual day is in March.", answer.Text)
	assert.Zero(t, dispatcher.calls)
}

func TestOffTopicPolicy(t *testing.T) {
	searcher := &fakeSearcher{}
	dispatcher := &fakeDispatcher{}
	p, _, _ := newTestPipeline(t, searcher, dispatcher)

	answer := p.Handle(context.Background(), "ravi", "weather today", "")
	assert.Equal(t, SourcePolicy, answer.Source)
	assert.Contains(t, answer.Text, "Maratha Mandal Engineering College (MMEC) only")
	assert.Zero(t, dispatcher.calls, "off-topic questions never reach a provider")
}

func TestAITier(t *testing.T) {
	searcher := &fakeSearcher{}
	dispatcher := &fakeDispatcher{
		text:   "The college auditorium seats around six hundred people and hosts the annual day.",
		status: provider.StatusOK,
	}
	p, _, _ := newTestPipeline(t, searcher, dispatcher)

	answer := p.Handle(context.Background(), "ravi", "how big is the auditorium", "Student")
	assert.Equal(t, SourceAI, answer.Source)
	assert.True(t, strings.HasPrefix(answer.Text, "Note: this is AI-generated guidance"))
	assert.Contains(t, answer.Text, "auditorium")
}

func TestAIShortAnswerRedirected(t *testing.T) {
	searcher := &fakeSearcher{}
	dispatcher := &fakeDispatcher{text: "yes.", status: provider.StatusOK}
	p, _, _ := newTestPipeline(t, searcher, dispatcher)

	answer := p.Handle(context.Background(), "ravi", "is the canteen any good", "")
	assert.Equal(t, scope.PolicyMessage, answer.Text)
}

func TestAIIrrelevantMarkerRedirected(t *testing.T) {
	searcher := &fakeSearcher{}
	dispatcher := &fakeDispatcher{
		text:   "That question is irrelevant to the college domain, sorry.",
		status: provider.StatusOK,
	}
	p, _, _ := newTestPipeline(t, searcher, dispatcher)

	answer := p.Handle(context.Background(), "ravi", "tell me something on topic enough", "")
	assert.Equal(t, scope.PolicyMessage, answer.Text)
}

func TestAIAnswerCappedAt400(t *testing.T) {
	long := strings.Repeat("a", 380) + ". " + strings.Repeat("b", 500)
	searcher := &fakeSearcher{}
	dispatcher := &fakeDispatcher{text: long, status: provider.StatusOK}
	p, _, _ := newTestPipeline(t, searcher, dispatcher)

	answer := p.Handle(context.Background(), "ravi", "long answer please right now", "")
	require.Equal(t, SourceAI, answer.Source)
	body := strings.TrimPrefix(answer.Text, aiDisclaimer)
	assert.LessOrEqual(t, len(body), 400)
	assert.True(t, strings.HasSuffix(body, "."))
}

func TestProviderFailureBecomesSafeError(t *testing.T) {
	searcher := &fakeSearcher{}
	dispatcher := &fakeDispatcher{status: provider.StatusProviderError}
	p, _, _ := newTestPipeline(t, searcher, dispatcher)

	answer := p.Handle(context.Background(), "ravi", "an on topic college question with no faq hit", "")
	assert.Equal(t, SourceError, answer.Source)
	assert.Equal(t, provider.StatusProviderError.UserMessage(), answer.Text)
}

func TestEmptyMessageRejected(t *testing.T) {
	searcher := &fakeSearcher{}
	dispatcher := &fakeDispatcher{}
	p, _, audit := newTestPipeline(t, searcher, dispatcher)

	answer := p.Handle(context.Background(), "ravi", "   ", "")
	assert.Equal(t, SourceError, answer.Source)
	assert.Zero(t, searcher.calls)
	assert.Zero(t, dispatcher.calls)
	assert.Empty(t, audit.entries, "rejected queries are not audited")
}

func TestExchangeIsRecorded(t *testing.T) {
	searcher := &fakeSearcher{}
	dispatcher := &fakeDispatcher{}
	p, store, audit := newTestPipeline(t, searcher, dispatcher)

	p.Handle(context.Background(), "ravi", "What are the fees?", "")

	items, err := store.Read("ravi", 1, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, history.SenderBot, items[0].From)
	assert.Equal(t, history.SenderUser, items[1].From)
	assert.Equal(t, "What are the fees?", items[1].Text)

	require.Len(t, audit.entries, 1)
	assert.True(t, audit.entries[0].Offline)
	assert.Equal(t, "ravi", audit.entries[0].User)
}

func TestAIExchangeAuditedAsOnline(t *testing.T) {
	searcher := &fakeSearcher{}
	dispatcher := &fakeDispatcher{
		text:   "A long enough AI answer about campus life at the college.",
		status: provider.StatusOK,
	}
	p, _, audit := newTestPipeline(t, searcher, dispatcher)

	p.Handle(context.Background(), "asha", "describe campus life in the evenings", "")
	require.Len(t, audit.entries, 1)
	assert.False(t, audit.entries[0].Offline)
}
