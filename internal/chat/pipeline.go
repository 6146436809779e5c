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

// Package chat wires the answer tiers into the decision pipeline: greeting,
// FAQ table, knowledge search, scope gate, then the AI fallback. Every query
// produces exactly one answer with a source tag.
package chat

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mmec-labs/campus-assistant/internal/chatlog"
	"github.com/mmec-labs/campus-assistant/internal/faq"
	"github.com/mmec-labs/campus-assistant/internal/history"
	"github.com/mmec-labs/campus-assistant/internal/provider"
	"github.com/mmec-labs/campus-assistant/internal/scope"
)

// Source tags where an answer came from.
type Source string

const (
	// SourceOffline marks answers from the static FAQ table.
	SourceOffline Source = "offline"
	// SourceCollegeData marks answers from the local knowledge files.
	SourceCollegeData Source = "college_data"
	// SourcePolicy marks the fixed off-topic redirect.
	SourcePolicy Source = "policy"
	// SourceAI marks answers from an external provider.
	SourceAI Source = "ai"
	// SourceError marks safe messages produced for failures.
	SourceError Source = "error"
)

const (
	// minAIAnswerLen rejects provider answers too short to be useful.
	minAIAnswerLen = 20
	// irrelevantMarker is the literal the prompt instructs providers to
	// emit for off-topic questions.
	irrelevantMarker = "irrelevant"
	// finalAnswerCap bounds every externally visible AI answer.
	finalAnswerCap = 400
	// aiDisclaimer prefixes every AI answer.
	aiDisclaimer = "Note: this is AI-generated guidance, not official MMEC data. "

	emptyMessageReply = "Please type a question so I can help."
)

// Answer is the single response object every query produces.
type Answer struct {
	Text   string `json:"response"`
	Source Source `json:"source"`
}

// Searcher is the knowledge tier consumed by the pipeline.
type Searcher interface {
	Search(queryLower string) (string, bool)
}

// Dispatcher is the AI tier consumed by the pipeline.
type Dispatcher interface {
	Dispatch(ctx context.Context, message, role string) (string, provider.Status)
}

// Auditor records one row per answered query.
type Auditor interface {
	Append(entry chatlog.Entry) error
}

// Pipeline resolves chat queries through the tiers in order.
type Pipeline struct {
	matcher    faq.Matcher
	searcher   Searcher
	gate       *scope.Gate
	dispatcher Dispatcher
	store      history.Store
	audit      Auditor
	logger     *zap.Logger
}

// NewPipeline assembles the pipeline. Store and audit may be nil when
// recording is not wanted (tests, dry runs).
func NewPipeline(
	matcher faq.Matcher,
	searcher Searcher,
	gate *scope.Gate,
	dispatcher Dispatcher,
	store history.Store,
	audit Auditor,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		matcher:    matcher,
		searcher:   searcher,
		gate:       gate,
		dispatcher: dispatcher,
		store:      store,
		audit:      audit,
		logger:     logger,
	}
}

// Handle resolves one query and records the exchange. It never returns an
// error: every failure becomes a safe answer with an error source.
func (p *Pipeline) Handle(ctx context.Context, user, message, role string) Answer {
	normalized := faq.Normalize(message)
	if normalized == "" {
		return Answer{Text: emptyMessageReply, Source: SourceError}
	}

	answer := p.resolve(ctx, normalized, strings.TrimSpace(message), role)
	p.record(user, strings.TrimSpace(message), answer)

	p.logger.Info("query resolved",
		zap.String("user", user),
		zap.String("source", string(answer.Source)),
	)
	return answer
}

func (p *Pipeline) resolve(ctx context.Context, normalized, original, role string) Answer {
	// Greetings bypass every tier, including FAQ entries that might also
	// match.
	if faq.IsGreeting(normalized) {
		return Answer{Text: faq.GreetingResponse, Source: SourceOffline}
	}

	if entry, ok := p.matcher.Match(normalized); ok {
		return Answer{Text: entry.Answer, Source: SourceOffline}
	}

	if snippet, ok := p.searcher.Search(normalized); ok {
		return Answer{Text: snippet, Source: SourceCollegeData}
	}

	if !p.gate.OnTopic(normalized) {
		return Answer{Text: scope.PolicyMessage, Source: SourcePolicy}
	}

	text, status := p.dispatcher.Dispatch(ctx, original, role)
	if status != provider.StatusOK {
		return Answer{Text: status.UserMessage(), Source: SourceError}
	}
	return Answer{Text: p.finalizeAI(text), Source: SourceAI}
}

// finalizeAI applies the caller-side policy to a provider answer: replace
// too-short or self-declared irrelevant answers with the redirect, then cap
// and prefix the rest.
func (p *Pipeline) finalizeAI(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minAIAnswerLen || strings.Contains(strings.ToLower(trimmed), irrelevantMarker) {
		return scope.PolicyMessage
	}
	return aiDisclaimer + provider.TruncateAtSentence(trimmed, finalAnswerCap)
}

// record appends the exchange to the user's history and the shared audit
// log. Recording failures are logged, never surfaced to the chat caller.
func (p *Pipeline) record(user, message string, answer Answer) {
	if p.store != nil && user != "" {
		if err := p.store.Append(user, history.Item{From: history.SenderUser, Text: message}); err != nil {
			p.logger.Error("failed to record user message", zap.String("user", user), zap.Error(err))
		}
		if err := p.store.Append(user, history.Item{From: history.SenderBot, Text: answer.Text}); err != nil {
			p.logger.Error("failed to record bot message", zap.String("user", user), zap.Error(err))
		}
	}

	if p.audit != nil {
		entry := chatlog.Entry{
			User:    user,
			UserMsg: message,
			BotMsg:  answer.Text,
			Offline: answer.Source != SourceAI,
		}
		if err := p.audit.Append(entry); err != nil {
			p.logger.Error("failed to append audit log entry", zap.Error(err))
		}
	}
}
