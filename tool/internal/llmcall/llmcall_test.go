//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

package llmcall

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-science-agent/errs"
	"trpc.group/trpc-go/trpc-science-agent/model"
	"trpc.group/trpc-go/trpc-science-agent/model/modeltest"
)

func parseOK(_ context.Context, reply string) (string, error) {
	if reply != "ok" {
		return "", errors.New("want ok")
	}
	return "parsed", nil
}

func TestRun_FirstReply(t *testing.T) {
	m := modeltest.New("ok")
	out, err := Run(context.Background(), Call{Stage: "s", Model: m, System: "sys", User: "u"}, parseOK)
	require.NoError(t, err)
	assert.Equal(t, "parsed", out)
	require.Len(t, m.Requests(), 1)
	assert.Equal(t, []model.Message{model.NewSystemMessage("sys"), model.NewUserMessage("u")}, m.Requests()[0].Messages)
}

func TestRun_CorrectedOnce(t *testing.T) {
	m := modeltest.New("bad", "ok")
	out, err := Run(context.Background(), Call{
		Stage:      "s",
		Model:      m,
		User:       "u",
		Correction: func(reason string) string { return "fix: " + reason },
	}, parseOK)
	require.NoError(t, err)
	assert.Equal(t, "parsed", out)

	reqs := m.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, []model.Message{
		model.NewUserMessage("u"),
		model.NewAssistantMessage("bad"),
		model.NewUserMessage("fix: want ok"),
	}, reqs[1].Messages)
}

func TestRun_ParseError(t *testing.T) {
	m := modeltest.New("bad", "worse", "ok")
	_, err := Run(context.Background(), Call{Stage: "calculator", Model: m, User: "u"}, parseOK)
	var pe *errs.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "calculator", pe.Stage)
	assert.Equal(t, "worse", pe.Output)
	assert.Len(t, m.Requests(), 2)
}

func TestRun_ModelError(t *testing.T) {
	m := modeltest.New()
	m.Fail(errors.New("503"))
	_, err := Run(context.Background(), Call{Stage: "reasoning", Model: m, User: "u"}, parseOK)
	var ae *errs.AdapterError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "reasoning", ae.Capability)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := modeltest.New("ok")
	_, err := Run(ctx, Call{Stage: "s", Model: m, User: "u"}, parseOK)
	assert.ErrorIs(t, err, context.Canceled)
}
