//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

package equation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-science-agent/codeexecutor"
	"trpc.group/trpc-go/trpc-science-agent/codeexecutor/cel"
	"trpc.group/trpc-go/trpc-science-agent/errs"
	"trpc.group/trpc-go/trpc-science-agent/model/modeltest"
)

const exampleBlock = "{\n" +
	"  # Define the system of equations\n" +
	"  \"variables\": [\"x\", \"y\"],\n" +
	"  \"equations\": [\"6^x + 6^y = 42\", \"x + y = 3\"],\n" +
	"  \"initial_guess\": [0.9, 2.1]\n" +
	"}"

func TestCall(t *testing.T) {
	m := modeltest.New("Question: ...\n```fsolve\n" + exampleBlock + "\n```")
	s, err := New(m)
	require.NoError(t, err)

	got, err := s.Call(context.Background(), "6^x + 6^y = 42\nx + y = 3")
	require.NoError(t, err)
	want := "```fsolve\n" + exampleBlock + "\n```\n" +
		"```output\nx = 1, y = 2\n```\n" +
		"Answer: x = 1, y = 2"
	assert.Equal(t, want, got)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Messages[0].Content, "6^x + 6^y = 42")
	assert.Equal(t, "Now, solve this question: 6^x + 6^y = 42\nx + y = 3", reqs[0].Messages[1].Content)
}

func TestCall_JSONFence(t *testing.T) {
	m := modeltest.New("```json\n{\"variables\": [\"x\"], \"equations\": [\"2*x = 8\"]}\n```")
	s, err := New(m)
	require.NoError(t, err)

	got, err := s.Call(context.Background(), "2x = 8")
	require.NoError(t, err)
	assert.Contains(t, got, "Answer: x = 4")
}

func TestCall_TextOnlyIsRejected(t *testing.T) {
	m := modeltest.New("Answer: x = 1, y = 2", "x is 1 and y is 2")
	s, err := New(m)
	require.NoError(t, err)

	_, err = s.Call(context.Background(), "x + y = 3\nx - y = -1")
	var pe *errs.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, Name, pe.Stage)
	assert.Len(t, m.Requests(), 2)
}

func TestCall_CorrectsSolverError(t *testing.T) {
	m := modeltest.New(
		"```fsolve\n{\"variables\": [\"x\", \"y\"], \"equations\": [\"x = 1\"]}\n```",
		"```fsolve\n{\"variables\": [\"x\", \"y\"], \"equations\": [\"x = 1\", \"x + y = 3\"]}\n```",
	)
	s, err := New(m)
	require.NoError(t, err)

	got, err := s.Call(context.Background(), "x = 1, x + y = 3")
	require.NoError(t, err)
	assert.Contains(t, got, "Answer: x = 1, y = 2")

	correction := m.Requests()[1].Messages
	assert.Contains(t, correction[len(correction)-1].Content, "1 equations")
}

func TestFormat(t *testing.T) {
	sol := cel.Solution{Variables: []string{"x"}, Values: []float64{1.5}}
	assert.Equal(t, "```fsolve\n{}\n```\n```output\nx = 1.5\n```\nAnswer: x = 1.5", Format("{}\n", sol.String()))
}

type recordingExecutor struct {
	inputs []codeexecutor.Input
	output string
}

func (r *recordingExecutor) Execute(_ context.Context, in codeexecutor.Input) (codeexecutor.Result, error) {
	r.inputs = append(r.inputs, in)
	return codeexecutor.Result{Output: r.output}, nil
}

func (r *recordingExecutor) Delimiter() codeexecutor.Delimiter { return codeexecutor.DefaultDelimiter }

func TestCall_RunsBlockThroughExecutor(t *testing.T) {
	exec := &recordingExecutor{output: "x = 7"}
	s, err := New(modeltest.New("```json\n{\"variables\": [\"x\"]}\n```"), WithExecutor(exec))
	require.NoError(t, err)

	got, err := s.Call(context.Background(), "x = 7")
	require.NoError(t, err)
	assert.Contains(t, got, "Answer: x = 7")
	require.Len(t, exec.inputs, 1)
	assert.Equal(t, []codeexecutor.Block{{Code: "{\"variables\": [\"x\"]}\n", Language: cel.LanguageFSolve}}, exec.inputs[0].Blocks)
}

func TestCall_EmptySolverOutput(t *testing.T) {
	m := modeltest.New("```fsolve\n{}\n```", "```fsolve\n{}\n```")
	s, err := New(m, WithExecutor(&recordingExecutor{}))
	require.NoError(t, err)

	_, err = s.Call(context.Background(), "x = 7")
	var pe *errs.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Error(), "no solution")
}
