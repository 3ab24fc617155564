//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

package codeexecutor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBlocks(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		delimiter Delimiter
		want      []Block
	}{
		{
			name:      "single expr block",
			input:     "Question: 2+2\n```expr\n2 + 2\n```\n",
			delimiter: DefaultDelimiter,
			want:      []Block{{Code: "2 + 2\n", Language: "expr"}},
		},
		{
			name:      "language is lower cased",
			input:     "```FSOLVE\n{}\n```",
			delimiter: DefaultDelimiter,
			want:      []Block{{Code: "{}\n", Language: "fsolve"}},
		},
		{
			name:      "multiple blocks",
			input:     "```expr\n1\n```\ntext\n```output\n1\n```",
			delimiter: DefaultDelimiter,
			want: []Block{
				{Code: "1\n", Language: "expr"},
				{Code: "1\n", Language: "output"},
			},
		},
		{
			name:      "fence inside a list item",
			input:     "Steps:\n\n1. Compute:\n\n   ```expr\n   sqrt(16)\n   ```\n",
			delimiter: DefaultDelimiter,
			want:      []Block{{Code: "sqrt(16)\n", Language: "expr"}},
		},
		{
			name:      "fence without language",
			input:     "```\n6 * 7\n```",
			delimiter: DefaultDelimiter,
			want:      []Block{{Code: "6 * 7\n", Language: ""}},
		},
		{
			name:      "custom delimiter",
			input:     "<<<text\nhello>>>",
			delimiter: Delimiter{Start: "<<<", End: ">>>"},
			want:      []Block{{Code: "hello", Language: "text"}},
		},
		{
			name:      "no block",
			input:     "Answer: 4",
			delimiter: DefaultDelimiter,
			want:      nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractBlocks(tt.input, tt.delimiter))
		})
	}
}

func TestFirstBlock(t *testing.T) {
	blocks := []Block{{Language: "output"}, {Language: "json", Code: "{}"}}
	b, ok := FirstBlock(blocks, "fsolve", "json")
	require.True(t, ok)
	assert.Equal(t, "{}", b.Code)

	_, ok = FirstBlock(blocks, "expr")
	assert.False(t, ok)
}

func TestResult_String(t *testing.T) {
	assert.Equal(t, "4", Result{Output: "4"}.String())
	assert.Equal(t, "(no output)", Result{}.String())
}

func TestExtractBlocks_PatternCached(t *testing.T) {
	d := Delimiter{Start: "[[", End: "]]"}
	first := ExtractBlocks("[[expr\n1]]", d)
	second := ExtractBlocks("[[expr\n2]]", d)
	assert.Equal(t, []Block{{Code: "1", Language: "expr"}}, first)
	assert.Equal(t, []Block{{Code: "2", Language: "expr"}}, second)
	_, ok := patterns.Load(d)
	assert.True(t, ok)
}
