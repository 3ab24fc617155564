//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

package provider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"trpc.group/trpc-go/trpc-science-agent/model"
)

type fakeModel struct{ name string }

func (f *fakeModel) Generate(context.Context, *model.Request) (*model.Response, error) {
	return &model.Response{Content: f.name}, nil
}

func (f *fakeModel) Info() model.Info { return model.Info{Name: f.name} }

func TestModel_Builtin(t *testing.T) {
	assert.Contains(t, Names(), "groq")
	assert.Contains(t, Names(), "openai")

	m, err := Model("groq", "gemma2-9b-it", WithAPIKey("k"), WithTimeout(time.Second))
	require.NoError(t, err)
	assert.Equal(t, "gemma2-9b-it", m.Info().Name)
}

func TestModel_Unknown(t *testing.T) {
	_, err := Model("nope", "x")
	assert.EqualError(t, err, "unknown provider: nope")
}

func TestRegister(t *testing.T) {
	var got *Options
	Register("fake", func(opts *Options) (model.Model, error) {
		got = opts
		return &fakeModel{name: opts.ModelName}, nil
	})
	m, err := Model("fake", "tiny", WithBaseURL("http://local"), WithAPIKey("secret"))
	require.NoError(t, err)
	assert.Equal(t, "tiny", m.Info().Name)
	require.NotNil(t, got)
	assert.Equal(t, "http://local", got.BaseURL)
	assert.Equal(t, "secret", got.APIKey)
	assert.Equal(t, "fake", got.ProviderName)
}
