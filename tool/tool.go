//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package tool defines the capability contract the dispatch loop selects
// from, and the registry that holds the capabilities of a process.
package tool

import "context"

// Declaration is what the language model sees of a capability.
type Declaration struct {
	// Name is the identifier the model writes to select the capability.
	Name string `json:"name"`
	// Description tells the model when the capability is useful.
	Description string `json:"description"`
}

// Tool is a capability: a named operation from a query string to an
// observation string. Implementations must be safe for concurrent use and
// keep no per-call state.
type Tool interface {
	// Declaration returns the name and description of the capability.
	Declaration() *Declaration
	// Call runs the capability. ctx carries the per-call timeout.
	Call(ctx context.Context, query string) (string, error)
}
