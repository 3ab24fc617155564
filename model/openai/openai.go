//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package openai provides an OpenAI-compatible model implementation. It
// talks to Groq by default.
package openai

import (
	"context"
	"errors"
	"time"

	openai "github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"trpc.group/trpc-go/trpc-science-agent/log"
	"trpc.group/trpc-go/trpc-science-agent/model"
)

// Model implements model.Model on top of the chat completions API.
type Model struct {
	client      openai.Client
	name        string
	baseURL     string
	observer    model.Observer
	extraFields map[string]any
}

var _ model.Model = (*Model)(nil)

// New creates a new OpenAI-like model. An empty name selects DefaultModel.
func New(name string, opts ...Option) *Model {
	o := defaultOptions
	for _, opt := range opts {
		opt(&o)
	}
	if name == "" {
		name = DefaultModel
	}

	clientOpts := []openaiopt.RequestOption{
		openaiopt.WithBaseURL(o.BaseURL),
		openaiopt.WithMaxRetries(o.MaxRetries),
	}
	if o.HTTPClient != nil {
		clientOpts = append(clientOpts, openaiopt.WithHTTPClient(o.HTTPClient))
	}
	if o.APIKey != "" {
		clientOpts = append(clientOpts, openaiopt.WithAPIKey(o.APIKey))
	}
	if o.Timeout > 0 {
		clientOpts = append(clientOpts, openaiopt.WithRequestTimeout(o.Timeout))
	}
	clientOpts = append(clientOpts, o.OpenAIOptions...)

	return &Model{
		client:      openai.NewClient(clientOpts...),
		name:        name,
		baseURL:     o.BaseURL,
		observer:    o.Observer,
		extraFields: o.ExtraFields,
	}
}

// Info implements the model.Model interface.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.name}
}

// Generate implements the model.Model interface.
func (m *Model) Generate(ctx context.Context, request *model.Request) (rsp *model.Response, err error) {
	if request == nil {
		return nil, errors.New("request cannot be nil")
	}
	if m.observer != nil {
		start := time.Now()
		defer func() {
			call := model.Call{Model: m.name, Elapsed: time.Since(start), Err: err}
			if rsp != nil {
				call.Usage = rsp.Usage
			}
			m.observer(ctx, call)
		}()
	}

	chatRequest, opts := m.buildChatRequest(request)
	log.Tracef("openai: %s request: %d messages, last: %q", m.name, len(chatRequest.Messages),
		lastContent(request.Messages))
	chatCompletion, err := m.client.Chat.Completions.New(ctx, chatRequest, opts...)
	if err != nil {
		log.Debugf("openai: chat completion against %s failed: %v", m.baseURL, err)
		return nil, err
	}
	if len(chatCompletion.Choices) == 0 {
		return nil, model.ErrEmptyResponse
	}

	choice := chatCompletion.Choices[0]
	log.Tracef("openai: %s reply (%s): %q", m.name, choice.FinishReason, choice.Message.Content)
	rsp = &model.Response{
		ID:           chatCompletion.ID,
		Model:        chatCompletion.Model,
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
		Timestamp:    time.Now(),
	}
	if u := chatCompletion.Usage; u.PromptTokens > 0 || u.CompletionTokens > 0 {
		rsp.Usage = &model.Usage{
			PromptTokens:     int(u.PromptTokens),
			CompletionTokens: int(u.CompletionTokens),
			TotalTokens:      int(u.TotalTokens),
		}
	}
	return rsp, nil
}

func lastContent(msgs []model.Message) string {
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Content
}

// buildChatRequest converts our Request to OpenAI request params and options.
func (m *Model) buildChatRequest(request *model.Request) (openai.ChatCompletionNewParams, []openaiopt.RequestOption) {
	chatRequest := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(m.name),
		Messages: convertMessages(request.Messages),
	}
	// MaxTokens is deprecated upstream; MaxCompletionTokens replaces it.
	if request.MaxTokens != nil {
		chatRequest.MaxCompletionTokens = openai.Int(int64(*request.MaxTokens))
	}
	if request.Temperature != nil {
		chatRequest.Temperature = openai.Float(*request.Temperature)
	}
	switch len(request.Stop) {
	case 0:
	case 1:
		chatRequest.Stop = openai.ChatCompletionNewParamsStopUnion{
			OfString: openai.String(request.Stop[0]),
		}
	default:
		chatRequest.Stop = openai.ChatCompletionNewParamsStopUnion{
			OfStringArray: request.Stop,
		}
	}
	var opts []openaiopt.RequestOption
	for key, value := range m.extraFields {
		opts = append(opts, openaiopt.WithJSONSet(key, value))
	}
	return chatRequest, opts
}

func convertMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			result = append(result, openai.SystemMessage(msg.Content))
		case model.RoleAssistant:
			result = append(result, openai.AssistantMessage(msg.Content))
		default:
			result = append(result, openai.UserMessage(msg.Content))
		}
	}
	return result
}
