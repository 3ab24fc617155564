//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

package model

import "time"

// Usage is the token usage reported by the provider.
type Usage struct {
	// PromptTokens is the number of tokens in the prompt.
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of tokens in the completion.
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is the total number of tokens in the response.
	TotalTokens int `json:"total_tokens"`
}

// Response is a single, complete model reply.
type Response struct {
	// ID is the provider's completion identifier.
	ID string `json:"id,omitempty"`
	// Model is the model that produced the reply.
	Model string `json:"model,omitempty"`
	// Content is the text of the first choice.
	Content string `json:"content"`
	// FinishReason is the provider's stop reason, e.g. "stop" or "length".
	FinishReason string `json:"finish_reason,omitempty"`
	// Usage is the token usage, if reported.
	Usage *Usage `json:"usage,omitempty"`
	// Timestamp is when the reply was received.
	Timestamp time.Time `json:"timestamp"`
}
