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
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// DefaultTimeout bounds every provider call. A timed-out call is classified
// as a provider error, never left hanging.
const DefaultTimeout = 30 * time.Second

// Gate controls whether the secondary (external) provider may be consulted.
type Gate interface {
	ExternalAllowed() bool
}

// Dispatcher escalates a chat message through the configured providers:
// primary first, then the secondary gated by the settings flag. Failures are
// classified, not retried.
type Dispatcher struct {
	registry *Registry
	gate     Gate
	timeout  time.Duration
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher. A zero timeout falls back to
// DefaultTimeout.
func NewDispatcher(registry *Registry, gate Gate, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{registry: registry, gate: gate, timeout: timeout, logger: logger}
}

// Dispatch sends the message through the provider chain and returns the
// post-processed text together with the outcome status. On a non-OK status
// the returned text is empty; callers map the status to user-facing text.
func (d *Dispatcher) Dispatch(ctx context.Context, message, role string) (string, Status) {
	prompt := BuildPrompt(message, role)
	attempted := false

	if primary := d.registry.Primary(); primary != nil {
		attempted = true
		if text, err := d.generate(ctx, primary, prompt); err == nil {
			return text, StatusOK
		}
	}

	if secondary := d.registry.Secondary(); secondary != nil && d.gate.ExternalAllowed() {
		attempted = true
		if text, err := d.generate(ctx, secondary, prompt); err == nil {
			return text, StatusOK
		}
	}

	if !attempted {
		return "", StatusNotConfigured
	}
	return "", StatusProviderError
}

// generate runs one provider call under the dispatcher timeout and applies
// the provider's character budget to the result.
func (d *Dispatcher) generate(ctx context.Context, p Provider, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	text, err := p.Generate(ctx, prompt)
	if err != nil {
		d.logger.Warn("provider call failed",
			zap.String("provider", p.Name()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return "", err
	}

	d.logger.Info("provider call succeeded",
		zap.String("provider", p.Name()),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("raw_chars", len(text)),
	)
	return TruncateAtSentence(strings.TrimSpace(text), p.CharBudget()), nil
}

// BuildPrompt wraps the raw user message in the fixed framing that scopes
// the assistant to the college domain.
func BuildPrompt(message, role string) string {
	if role == "" {
		role = "visitor"
	}
	return fmt.Sprintf(
		"You are the campus assistant for Maratha Mandal Engineering College (MMEC), Belagavi. "+
			"Answer only questions about MMEC: admissions, courses, fees, hostels, placements, "+
			"faculty, and campus life. If the question is not about MMEC, reply with the single "+
			"word irrelevant. Keep answers short and factual. The user is a %s.\n\nQuestion: %s",
		role, message,
	)
}

// TruncateAtSentence cuts text to at most budget bytes at the last sentence
// boundary at or before the budget, appending a period so the result never
// ends mid-sentence. The cut point is clamped to a rune boundary so the
// result stays valid UTF-8.
func TruncateAtSentence(text string, budget int) string {
	if len(text) <= budget {
		return text
	}

	for budget > 0 && !utf8.RuneStart(text[budget]) {
		budget--
	}
	cut := text[:budget]
	if idx := strings.LastIndexAny(cut, ".!?"); idx > 0 {
		return strings.TrimSpace(cut[:idx]) + "."
	}

	// No boundary inside the budget: cut at the last space instead.
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "."
}
