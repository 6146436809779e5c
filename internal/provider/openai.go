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
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	// OpenAICharBudget is the character budget applied to secondary-provider
	// responses.
	OpenAICharBudget = 600

	// DefaultOpenAIModel is used when no model is configured.
	DefaultOpenAIModel = openai.GPT4oMini

	openAIMaxTokens   = 512
	openAITemperature = 0.3
)

// OpenAIProvider is the secondary provider, backed by the OpenAI chat
// completion API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIProvider creates an OpenAI-backed provider.
func NewOpenAIProvider(apiKey, model string, logger *zap.Logger) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAIProvider{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}, nil
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return "openai" }

// CharBudget implements Provider.
func (p *OpenAIProvider) CharBudget() int { return OpenAICharBudget }

// Generate implements Provider.
func (p *OpenAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   openAIMaxTokens,
		Temperature: openAITemperature,
	})
	if err != nil {
		return "", p.wrapAPIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	content := resp.Choices[0].Message.Content
	p.logger.Debug("openai response received",
		zap.String("model", p.model),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)
	return content, nil
}

// wrapAPIError annotates OpenAI API errors with their HTTP status so the
// dispatcher log line carries the cause.
func (p *OpenAIProvider) wrapAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("openai rejected the API key: %w", err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("openai rate limit hit: %w", err)
		default:
			return fmt.Errorf("openai API error (status %d): %w", apiErr.HTTPStatusCode, err)
		}
	}
	return fmt.Errorf("openai request failed: %w", err)
}
