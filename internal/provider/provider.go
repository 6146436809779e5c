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

// Package provider implements the external generative-AI tier: a registry of
// configured providers and a dispatcher that escalates from the primary to
// the secondary provider and classifies failures.
package provider

import (
	"context"
)

// Status discriminates dispatch outcomes for the caller.
type Status string

const (
	// StatusOK means a provider produced a usable answer.
	StatusOK Status = "configured-ok"
	// StatusNotConfigured means no provider could be attempted at all.
	StatusNotConfigured Status = "not-configured"
	// StatusProviderError means at least one provider was attempted and
	// every attempt failed.
	StatusProviderError Status = "provider-error"
)

// UserMessage maps a non-OK status to the fixed user-facing text. Failures
// are never retried and never surface raw errors to the chat caller.
func (s Status) UserMessage() string {
	switch s {
	case StatusNotConfigured:
		return "AI assistance is not set up right now. I can still help with MMEC admissions, courses, fees, hostels, and placements."
	case StatusProviderError:
		return "I couldn't reach the AI service just now. Please try again in a moment, or ask me about MMEC directly."
	default:
		return ""
	}
}

// Provider is one external generative text service. Generate blocks until
// the provider answers or ctx is done.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string
	// CharBudget is the provider-specific character budget applied to its
	// responses.
	CharBudget() int
	// Generate produces text for a prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Registry holds the configured providers. Selection happens at construction
// time from configuration, never by probing at dispatch time. A nil slot
// means that provider is not configured.
type Registry struct {
	primary   Provider
	secondary Provider
}

// NewRegistry builds a registry; either slot may be nil.
func NewRegistry(primary, secondary Provider) *Registry {
	return &Registry{primary: primary, secondary: secondary}
}

// Primary returns the primary provider or nil.
func (r *Registry) Primary() Provider { return r.primary }

// Secondary returns the secondary provider or nil.
func (r *Registry) Secondary() Provider { return r.secondary }
