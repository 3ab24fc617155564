//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package llmcall runs the prompt, parse and correct-once cycle shared by
// the capabilities that delegate to the language model.
package llmcall

import (
	"context"
	"fmt"
	"strings"

	"trpc.group/trpc-go/trpc-science-agent/errs"
	"trpc.group/trpc-go/trpc-science-agent/log"
	"trpc.group/trpc-go/trpc-science-agent/model"
)

// ParseFunc turns a reply into the capability output. A non-nil error
// triggers the corrective retry; its message is shown to the model.
type ParseFunc func(ctx context.Context, reply string) (string, error)

// Call describes one capability invocation.
type Call struct {
	// Stage names the capability in errors, e.g. "calculator".
	Stage string
	// Model answers the prompt.
	Model model.Model
	// System is the system instruction.
	System string
	// User is the first user message.
	User string
	// Config holds the generation parameters.
	Config model.GenerationConfig
	// Correction builds the follow-up message from the parse failure.
	Correction func(reason string) string
}

// Run asks the model, parses the reply and, if parsing fails, asks once
// more with the correction appended. A second failure is a ParseError.
// Model failures are returned as AdapterError.
func Run(ctx context.Context, c Call, parse ParseFunc) (string, error) {
	msgs := make([]model.Message, 0, 4)
	if c.System != "" {
		msgs = append(msgs, model.NewSystemMessage(c.System))
	}
	msgs = append(msgs, model.NewUserMessage(c.User))

	reply, err := generate(ctx, c, msgs)
	if err != nil {
		return "", err
	}
	out, perr := parse(ctx, reply)
	if perr == nil {
		return out, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	log.Debugf("%s: retrying after unusable reply: %v", c.Stage, perr)

	correction := fmt.Sprintf("That reply could not be used: %v. Follow the required format exactly.", perr)
	if c.Correction != nil {
		correction = c.Correction(perr.Error())
	}
	msgs = append(msgs, model.NewAssistantMessage(reply), model.NewUserMessage(correction))
	reply, err = generate(ctx, c, msgs)
	if err != nil {
		return "", err
	}
	out, perr = parse(ctx, reply)
	if perr != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &errs.ParseError{Stage: c.Stage, Output: reply, Reason: perr.Error()}
	}
	return out, nil
}

func generate(ctx context.Context, c Call, msgs []model.Message) (string, error) {
	rsp, err := c.Model.Generate(ctx, &model.Request{Messages: msgs, GenerationConfig: c.Config})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", errs.NewAdapterError(c.Stage, err)
	}
	return strings.TrimSpace(rsp.Content), nil
}
