//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package provider constructs model.Model instances by provider name.
package provider

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"trpc.group/trpc-go/trpc-science-agent/model"
	"trpc.group/trpc-go/trpc-science-agent/model/openai"
)

const openAIBaseURL = "https://api.openai.com/v1"

func init() {
	Register("groq", groqProvider)
	Register("openai", openaiProvider)
}

// Options are the resolved settings handed to a Provider.
type Options struct {
	ProviderName string
	ModelName    string
	APIKey       string
	BaseURL      string
	Timeout      time.Duration
	Observer     model.Observer
}

// Option configures Options.
type Option func(*Options)

// WithAPIKey sets the credential.
func WithAPIKey(key string) Option {
	return func(o *Options) { o.APIKey = key }
}

// WithBaseURL overrides the provider's default endpoint.
func WithBaseURL(url string) Option {
	return func(o *Options) { o.BaseURL = url }
}

// WithTimeout bounds each completion request.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithObserver sets the function told about every completion call.
func WithObserver(fn model.Observer) Option {
	return func(o *Options) { o.Observer = fn }
}

// Provider builds a model.Model instance.
type Provider func(opts *Options) (model.Model, error)

var (
	providersMu sync.RWMutex
	providers   = make(map[string]Provider)
)

// Register registers a provider by name.
func Register(name string, provider Provider) {
	providersMu.Lock()
	defer providersMu.Unlock()
	providers[name] = provider
}

// Get returns the provider by name.
func Get(name string) (Provider, bool) {
	providersMu.RLock()
	defer providersMu.RUnlock()
	provider, ok := providers[name]
	return provider, ok
}

// Names lists the registered providers in sorted order.
func Names() []string {
	providersMu.RLock()
	defer providersMu.RUnlock()
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Model constructs a model.Model with the given provider name, model name and options.
func Model(providerName, modelName string, opt ...Option) (model.Model, error) {
	opts := &Options{
		ProviderName: providerName,
		ModelName:    modelName,
	}
	for _, o := range opt {
		o(opts)
	}
	provider, ok := Get(providerName)
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", providerName)
	}
	return provider(opts)
}

func groqProvider(opts *Options) (model.Model, error) {
	return openai.New(opts.ModelName, openaiOptions(opts, openai.DefaultBaseURL)...), nil
}

func openaiProvider(opts *Options) (model.Model, error) {
	return openai.New(opts.ModelName, openaiOptions(opts, openAIBaseURL)...), nil
}

func openaiOptions(opts *Options, defaultBaseURL string) []openai.Option {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	res := []openai.Option{openai.WithBaseURL(baseURL), openai.WithAPIKey(opts.APIKey)}
	if opts.Timeout > 0 {
		res = append(res, openai.WithTimeout(opts.Timeout))
	}
	if opts.Observer != nil {
		res = append(res, openai.WithObserver(opts.Observer))
	}
	return res
}
