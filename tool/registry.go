//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

package tool

import (
	"errors"
	"fmt"
	"sync"

	"trpc.group/trpc-go/trpc-science-agent/errs"
)

var errFrozen = errors.New("registry is frozen")

// Registry is an ordered set of capabilities keyed by name. It is built
// once at startup and read concurrently afterwards.
type Registry struct {
	mu     sync.RWMutex
	tools  []Tool
	byName map[string]Tool
	frozen bool
}

// NewRegistry creates a registry holding tools, in order.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{byName: make(map[string]Tool)}
	if err := r.Register(tools...); err != nil {
		return nil, err
	}
	return r, nil
}

// Register appends tools in order. A duplicate or empty name, or a call
// after Freeze, returns a *errs.ConfigurationError and registers nothing.
func (r *Registry) Register(tools ...Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return errs.NewConfigurationError("register capability", errFrozen)
	}
	if r.byName == nil {
		r.byName = make(map[string]Tool)
	}
	seen := make(map[string]struct{}, len(tools))
	for _, t := range tools {
		decl := t.Declaration()
		if decl == nil || decl.Name == "" {
			return errs.NewConfigurationError("capability has no name", nil)
		}
		_, dup := seen[decl.Name]
		if _, exists := r.byName[decl.Name]; exists || dup {
			return errs.NewConfigurationError(fmt.Sprintf("capability %q", decl.Name), errs.ErrDuplicateCapability)
		}
		seen[decl.Name] = struct{}{}
	}
	for _, t := range tools {
		r.tools = append(r.tools, t)
		r.byName[t.Declaration().Name] = t
	}
	return nil
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// List returns the capabilities in registration order. The slice is a copy.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Lookup finds a capability by exact name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return t, ok
}

// Names returns the capability names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.tools))
	for i, t := range r.tools {
		names[i] = t.Declaration().Name
	}
	return names
}

// Declarations returns the declarations in registration order.
func (r *Registry) Declarations() []Declaration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	decls := make([]Declaration, len(r.tools))
	for i, t := range r.tools {
		decls[i] = *t.Declaration()
	}
	return decls
}

// Len returns the number of registered capabilities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
