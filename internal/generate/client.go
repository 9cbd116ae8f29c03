// Copyright 2025 Convo Helper Project
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

// Package generate wraps the OpenAI chat-completion API for the
// direct-completion path: drafting a reply over retrieved examples when the
// vector-search vendor returned no inline generation text.
package generate

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	// DefaultMaxTokens caps one drafted reply
	DefaultMaxTokens = 1000
	// DefaultTemperature keeps drafts close to the retrieved phrasing
	DefaultTemperature = 0.3
)

const systemPrompt = `You help a support agent draft replies to customer emails. You are given examples of the agent's previous replies and the inbound email. Reuse the agent's phrasing verbatim wherever possible and answer only with the JSON object you are asked for.`

// Client produces chat completions for reply drafting. The API key arrives
// per call because the connection provider refreshes it from the credential
// store.
type Client struct {
	logger *zap.Logger
}

// NewClient creates a completion client
func NewClient(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{logger: logger}
}

// Complete drafts a reply for the given prompt. The returned string is the
// raw model output; the caller runs it through the same parse chain as
// vendor-generated text.
func (c *Client) Complete(ctx context.Context, apiKey, model, prompt string) (string, error) {
	if apiKey == "" {
		return "", fmt.Errorf("API key is required")
	}
	if model == "" {
		model = openai.GPT4o
	}

	client := openai.NewClient(apiKey)

	c.logger.Debug("Creating chat completion",
		zap.String("model", model),
		zap.Int("prompt_length", len(prompt)))

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from completion")
	}

	c.logger.Debug("Chat completion successful",
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return resp.Choices[0].Message.Content, nil
}
