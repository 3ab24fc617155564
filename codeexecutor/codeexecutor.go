//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package codeexecutor defines how model-written code blocks are pulled out
// of a reply and handed to a sandboxed evaluator.
package codeexecutor

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ErrUnsupportedLanguage is returned for a block whose language the
// executor does not run.
var ErrUnsupportedLanguage = errors.New("unsupported code block language")

// Executor runs code blocks. Implementations must not touch the host: no
// files, no processes, no network.
type Executor interface {
	// Execute runs the blocks in order and joins their output.
	Execute(context.Context, Input) (Result, error)
	// Delimiter returns the fence the executor expects around blocks.
	Delimiter() Delimiter
}

// Input is what Execute runs.
type Input struct {
	Blocks []Block
}

// Result is the joined output of the executed blocks, one line per value.
type Result struct {
	Output string
}

// String returns the output, or a note that there was none.
func (r Result) String() string {
	if r.Output == "" {
		return "(no output)"
	}
	return r.Output
}

// Block is one fenced block. Language is lower case and may be empty.
type Block struct {
	Code     string
	Language string
}

// Delimiter is the opening and closing fence of a block.
type Delimiter struct {
	Start string
	End   string
}

// DefaultDelimiter is the markdown fence.
var DefaultDelimiter = Delimiter{Start: "```", End: "```"}

var patterns sync.Map // Delimiter -> *regexp.Regexp

func pattern(d Delimiter) *regexp.Regexp {
	if p, ok := patterns.Load(d); ok {
		return p.(*regexp.Regexp)
	}
	p := regexp.MustCompile(`(?s)` + regexp.QuoteMeta(d.Start) + `([^\n]*)\n(.*?)` + regexp.QuoteMeta(d.End))
	patterns.Store(d, p)
	return p
}

// ExtractBlocks returns the blocks of input in order. The word after the
// opening fence is the language:
//
//	"```expr\n2 + 2\n```" -> []Block{{Code: "2 + 2\n", Language: "expr"}}
//
// Markdown fences are read with a CommonMark parser, so blocks nested in
// lists or quotes are found too; other delimiters are matched literally.
func ExtractBlocks(input string, d Delimiter) []Block {
	if d == DefaultDelimiter {
		if blocks := markdownBlocks(input); len(blocks) > 0 {
			return blocks
		}
	}
	var blocks []Block
	for _, m := range pattern(d).FindAllStringSubmatch(input, -1) {
		blocks = append(blocks, Block{
			Code:     m[2],
			Language: strings.ToLower(strings.TrimSpace(m[1])),
		})
	}
	return blocks
}

var markdown = goldmark.New()

func markdownBlocks(input string) []Block {
	source := []byte(input)
	doc := markdown.Parser().Parse(text.NewReader(source))
	var blocks []Block
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fenced, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		var code strings.Builder
		lines := fenced.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			code.Write(seg.Value(source))
		}
		blocks = append(blocks, Block{
			Code:     code.String(),
			Language: strings.ToLower(string(fenced.Language(source))),
		})
		return ast.WalkSkipChildren, nil
	})
	return blocks
}

// FirstBlock returns the first block written in one of languages.
func FirstBlock(blocks []Block, languages ...string) (Block, bool) {
	for _, b := range blocks {
		for _, lang := range languages {
			if b.Language == lang {
				return b, true
			}
		}
	}
	return Block{}, false
}
