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
	"net/http"
	"time"

	openaiopt "github.com/openai/openai-go/option"

	"trpc.group/trpc-go/trpc-science-agent/model"
)

const (
	// DefaultBaseURL is the Groq OpenAI-compatible endpoint.
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	// DefaultModel is the hosted model used when none is configured.
	DefaultModel = "gemma2-9b-it"

	defaultMaxRetries = 2
)

// options contains configuration options for creating a Model.
type options struct {
	// API key for the client.
	APIKey string
	// Base URL of the OpenAI-compatible API.
	BaseURL string
	// Request timeout applied by the underlying client.
	Timeout time.Duration
	// MaxRetries is the SDK level retry count for transient HTTP failures.
	MaxRetries int
	// HTTPClient replaces the SDK's default client.
	HTTPClient *http.Client
	// Observer is told about every completion call.
	Observer model.Observer
	// Options for the OpenAI client.
	OpenAIOptions []openaiopt.RequestOption
	// Extra fields to be added to the HTTP request body.
	ExtraFields map[string]any
}

var defaultOptions = options{
	BaseURL:    DefaultBaseURL,
	MaxRetries: defaultMaxRetries,
}

// Option is a function that configures an OpenAI model.
type Option func(*options)

// WithAPIKey sets the API key for the client.
func WithAPIKey(key string) Option {
	return func(opts *options) {
		opts.APIKey = key
	}
}

// WithBaseURL sets the base URL for the client. An empty url keeps the
// default.
func WithBaseURL(url string) Option {
	return func(opts *options) {
		if url != "" {
			opts.BaseURL = url
		}
	}
}

// WithTimeout bounds each completion request.
func WithTimeout(d time.Duration) Option {
	return func(opts *options) {
		opts.Timeout = d
	}
}

// WithMaxRetries sets the SDK retry count. Negative values are ignored.
func WithMaxRetries(n int) Option {
	return func(opts *options) {
		if n >= 0 {
			opts.MaxRetries = n
		}
	}
}

// WithHTTPClient sets the HTTP client, e.g. one with a custom transport.
func WithHTTPClient(c *http.Client) Option {
	return func(opts *options) {
		opts.HTTPClient = c
	}
}

// WithObserver sets a function called after every completion request.
func WithObserver(fn model.Observer) Option {
	return func(opts *options) {
		opts.Observer = fn
	}
}

// WithOpenAIOptions appends raw SDK request options, e.g. a middleware:
//
//	WithOpenAIOptions(openaiopt.WithMiddleware(
//		func(req *http.Request, next openaiopt.MiddlewareNext) (*http.Response, error) {
//			return next(req)
//		},
//	))
func WithOpenAIOptions(openaiOpts ...openaiopt.RequestOption) Option {
	return func(opts *options) {
		opts.OpenAIOptions = append(opts.OpenAIOptions, openaiOpts...)
	}
}

// WithHeaders appends static HTTP headers to all requests.
func WithHeaders(headers map[string]string) Option {
	return func(opts *options) {
		for k, v := range headers {
			opts.OpenAIOptions = append(opts.OpenAIOptions, openaiopt.WithHeader(k, v))
		}
	}
}

// WithExtraFields sets extra fields to be added to every request body.
func WithExtraFields(extraFields map[string]any) Option {
	return func(opts *options) {
		if opts.ExtraFields == nil {
			opts.ExtraFields = make(map[string]any)
		}
		for k, v := range extraFields {
			opts.ExtraFields[k] = v
		}
	}
}
