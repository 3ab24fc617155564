//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigurationError(t *testing.T) {
	err := fmt.Errorf("startup: %w", NewConfigurationError("GROQ_API_KEY", ErrMissingCredential))
	assert.True(t, IsConfiguration(err))
	assert.True(t, errors.Is(err, ErrMissingCredential))
	assert.Contains(t, err.Error(), "GROQ_API_KEY")

	bare := NewConfigurationError("no capabilities", nil)
	assert.Equal(t, "configuration error: no capabilities", bare.Error())
}

func TestParseError(t *testing.T) {
	var err error = &ParseError{Stage: "calculator", Output: "???", Reason: "no expr block"}
	assert.True(t, IsParse(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsConfiguration(err))
	assert.Equal(t, "calculator: could not parse model output: no expr block", err.Error())
}

func TestAdapterError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewAdapterError("wikipedia", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "wikipedia: connection refused", err.Error())
}
