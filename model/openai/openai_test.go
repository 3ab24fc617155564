//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"trpc.group/trpc-go/trpc-science-agent/model"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gemma2-9b-it",
  "choices": [{
    "index": 0,
    "message": {"role": "assistant", "content": "/*FINAL_ANSWER*/\n299,792,458 m/s"},
    "finish_reason": "stop"
  }],
  "usage": {"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20}
}`

func newServer(t *testing.T, status int, body string, captured *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if captured != nil {
			raw, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(raw, captured))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNew_Defaults(t *testing.T) {
	m := New("", WithAPIKey("k"))
	assert.Equal(t, DefaultModel, m.Info().Name)
	assert.Equal(t, DefaultBaseURL, m.baseURL)

	m = New("llama3", WithBaseURL(""))
	assert.Equal(t, "llama3", m.Info().Name)
	assert.Equal(t, DefaultBaseURL, m.baseURL)
}

func TestGenerate(t *testing.T) {
	var body map[string]any
	srv := newServer(t, http.StatusOK, completionBody, &body)

	var calls []model.Call
	m := New("gemma2-9b-it",
		WithAPIKey("test-key"),
		WithBaseURL(srv.URL),
		WithMaxRetries(0),
		WithExtraFields(map[string]any{"user": "scibot"}),
		WithObserver(func(_ context.Context, c model.Call) { calls = append(calls, c) }),
		WithHTTPClient(srv.Client()),
	)

	rsp, err := m.Generate(context.Background(), &model.Request{
		Messages: []model.Message{
			model.NewSystemMessage("You are a science assistant."),
			model.NewUserMessage("What is the speed of light in a vacuum?"),
		},
		GenerationConfig: model.GenerationConfig{
			Temperature: model.Float64(0),
			Stop:        []string{"\nObservation:"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "/*FINAL_ANSWER*/\n299,792,458 m/s", rsp.Content)
	assert.Equal(t, "stop", rsp.FinishReason)
	require.NotNil(t, rsp.Usage)
	assert.Equal(t, 20, rsp.Usage.TotalTokens)
	require.Len(t, calls, 1)
	assert.NoError(t, calls[0].Err)
	assert.Equal(t, "gemma2-9b-it", calls[0].Model)
	require.NotNil(t, calls[0].Usage)
	assert.Equal(t, 12, calls[0].Usage.PromptTokens)

	assert.Equal(t, "gemma2-9b-it", body["model"])
	assert.Equal(t, "\nObservation:", body["stop"])
	assert.Equal(t, "scibot", body["user"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
}

func TestGenerate_StopSequences(t *testing.T) {
	var body map[string]any
	srv := newServer(t, http.StatusOK, completionBody, &body)
	m := New("gemma2-9b-it", WithAPIKey("test-key"), WithBaseURL(srv.URL), WithMaxRetries(0))

	_, err := m.Generate(context.Background(), &model.Request{
		Messages: []model.Message{model.NewUserMessage("q")},
		GenerationConfig: model.GenerationConfig{
			Stop: []string{"\nObservation:", "\nQuestion:"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"\nObservation:", "\nQuestion:"}, body["stop"])

	body = nil
	_, err = m.Generate(context.Background(), &model.Request{
		Messages: []model.Message{model.NewUserMessage("q")},
	})
	require.NoError(t, err)
	assert.NotContains(t, body, "stop")
}

func TestGenerate_NoChoices(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"id":"x","object":"chat.completion","choices":[]}`, nil)
	m := New("m", WithAPIKey("test-key"), WithBaseURL(srv.URL), WithMaxRetries(0))
	_, err := m.Generate(context.Background(), &model.Request{Messages: []model.Message{model.NewUserMessage("hi")}})
	assert.ErrorIs(t, err, model.ErrEmptyResponse)
}

func TestGenerate_APIError(t *testing.T) {
	srv := newServer(t, http.StatusUnauthorized, `{"error":{"message":"invalid key","type":"invalid_request_error"}}`, nil)
	var observed error
	m := New("m", WithAPIKey("test-key"), WithBaseURL(srv.URL), WithMaxRetries(0),
		WithObserver(func(_ context.Context, c model.Call) { observed = c.Err }))
	_, err := m.Generate(context.Background(), &model.Request{Messages: []model.Message{model.NewUserMessage("hi")}})
	require.Error(t, err)
	assert.Equal(t, err, observed)
	var apiErr *openai.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestGenerate_NilRequest(t *testing.T) {
	_, err := New("m").Generate(context.Background(), nil)
	assert.Error(t, err)
}

func TestConvertMessages(t *testing.T) {
	out := convertMessages([]model.Message{
		model.NewSystemMessage("s"),
		model.NewUserMessage("u"),
		model.NewAssistantMessage("a"),
	})
	require.Len(t, out, 3)
	assert.NotNil(t, out[0].OfSystem)
	assert.NotNil(t, out[1].OfUser)
	assert.NotNil(t, out[2].OfAssistant)
}
