/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type openaiProvider struct {
	client openai.Client
	name   string
	model  string
}

func newOpenAI(name, apiKey, model string) *openaiProvider {
	return &openaiProvider{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		name:   name,
		model:  model,
	}
}

func (p *openaiProvider) Name() string { return p.name }

func (p *openaiProvider) Model() string { return p.model }

func (p *openaiProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.User))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, p.wrapError(err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("%s: %w", p.name, ErrMalformedResponse)
	}

	return &Response{
		Text: completion.Choices[0].Message.Content,
		Usage: Usage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
		},
	}, nil
}

// wrapError converts throttling and transient server errors into
// *RateLimitError, carrying the server's reset hint when present.
func (p *openaiProvider) wrapError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	if apiErr.StatusCode == 429 || apiErr.StatusCode >= 500 {
		rle := &RateLimitError{Provider: p.name, Err: err}
		if apiErr.Response != nil {
			if d, ok := retryAfterFromHeader(apiErr.Response.Header, time.Now()); ok {
				rle.RetryAfter = d
			}
		}
		return rle
	}
	return err
}
