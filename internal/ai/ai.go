// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package ai drafts deal descriptions with the OpenAI API. The feature
// is optional and disabled when no API key is configured.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = errors.New("ai: not configured")

const requestTimeout = 60 * time.Second

const systemPrompt = "You write short Markdown descriptions for software deals " +
	"aimed at a professional community. Two or three sentences, factual tone, " +
	"no exclamation marks, no invented pricing or terms."

// Generator drafts deal descriptions.
type Generator struct {
	client  openai.Client
	model   string
	enabled bool
}

// NewGenerator creates a Generator. An empty apiKey disables the feature.
func NewGenerator(apiKey, model string) *Generator {
	if apiKey == "" {
		return &Generator{}
	}
	return &Generator{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		enabled: true,
	}
}

// Enabled reports whether description drafting is available.
func (g *Generator) Enabled() bool {
	return g.enabled
}

// SuggestDescription drafts a Markdown description for a deal from its
// title, category and access type.
func (g *Generator) SuggestDescription(ctx context.Context, title, category, accessType string) (string, error) {
	if !g.enabled {
		return "", ErrDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	prompt := fmt.Sprintf("Deal title: %s\nCategory: %s\nOffer type: %s\n\nWrite the description.",
		title, category, accessType)

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		MaxCompletionTokens: openai.Int(300),
	})
	if err != nil {
		return "", fmt.Errorf("ai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("ai: no choices returned")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("ai: empty completion")
	}
	return content, nil
}
