//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

package tool

// FilterFunc decides whether a capability is kept.
type FilterFunc func(t Tool) bool

// FilterTools returns the tools accepted by filter, preserving order.
// A nil filter keeps everything.
func FilterTools(tools []Tool, filter FilterFunc) []Tool {
	if filter == nil {
		return tools
	}
	filtered := make([]Tool, 0, len(tools))
	for _, t := range tools {
		if filter(t) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// NewIncludeToolNamesFilter keeps only the named capabilities. With no
// names it keeps everything, so an empty config list means "all".
func NewIncludeToolNamesFilter(names ...string) FilterFunc {
	if len(names) == 0 {
		return nil
	}
	allowed := make(map[string]struct{}, len(names))
	for _, name := range names {
		allowed[name] = struct{}{}
	}
	return func(t Tool) bool {
		decl := t.Declaration()
		if decl == nil {
			return false
		}
		_, ok := allowed[decl.Name]
		return ok
	}
}

// NewExcludeToolNamesFilter drops the named capabilities.
func NewExcludeToolNamesFilter(names ...string) FilterFunc {
	excluded := make(map[string]struct{}, len(names))
	for _, name := range names {
		excluded[name] = struct{}{}
	}
	return func(t Tool) bool {
		decl := t.Declaration()
		if decl == nil {
			return false
		}
		_, ok := excluded[decl.Name]
		return !ok
	}
}
