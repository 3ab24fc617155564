//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package util provides internal text helpers shared by the capability
// adapters.
package util

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	spaceRe   = regexp.MustCompile(`[ \t\r\f\v]+`)
	newlineRe = regexp.MustCompile(`\n{3,}`)
	tagRe     = regexp.MustCompile(`<[^>]*>`)
)

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&#x27;", "'",
	"&nbsp;", " ",
)

// Truncate cuts s to at most max runes. max <= 0 disables the limit.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// CollapseSpace squeezes runs of horizontal whitespace to one space and
// runs of blank lines to one blank line.
func CollapseSpace(s string) string {
	s = spaceRe.ReplaceAllString(s, " ")
	s = newlineRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// StripTags removes HTML tags and decodes the common entities.
func StripTags(s string) string {
	s = tagRe.ReplaceAllString(s, "")
	return strings.TrimSpace(entityReplacer.Replace(s))
}
