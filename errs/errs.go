//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package errs defines the error types shared by the registry, the
// capability adapters and the dispatch loop.
//
// Only ConfigurationError is meant to reach the process boundary. ParseError
// and AdapterError are absorbed by the dispatch loop and turned into
// observations.
package errs

import (
	"errors"
	"fmt"
)

// ErrMissingCredential is wrapped by the ConfigurationError returned when
// the language model credential is absent.
var ErrMissingCredential = errors.New("language model credential is not set")

// ErrDuplicateCapability is wrapped by the ConfigurationError returned when
// two capabilities share a name.
var ErrDuplicateCapability = errors.New("duplicate capability name")

// ConfigurationError is fatal at startup and never surfaces mid-dispatch.
type ConfigurationError struct {
	Reason string
	Err    error
}

// NewConfigurationError creates a ConfigurationError.
func NewConfigurationError(reason string, err error) *ConfigurationError {
	return &ConfigurationError{Reason: reason, Err: err}
}

func (e *ConfigurationError) Error() string {
	if e.Err == nil {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ParseError reports model output that could not be parsed into the
// expected shape, even after the corrective retry.
type ParseError struct {
	// Stage names the parser, e.g. "decision" or "calculator".
	Stage string
	// Output is the raw text that failed to parse.
	Output string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: could not parse model output: %s", e.Stage, e.Reason)
}

// AdapterError reports a failed call against an external service.
type AdapterError struct {
	Capability string
	Err        error
}

// NewAdapterError wraps err as an AdapterError for capability.
func NewAdapterError(capability string, err error) *AdapterError {
	return &AdapterError{Capability: capability, Err: err}
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s: %v", e.Capability, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// IsConfiguration reports whether err is, or wraps, a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsParse reports whether err is, or wraps, a ParseError.
func IsParse(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
