//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package react implements the ReAct decision policy: the prompt that asks
// the model to pick the next capability, and the strict parser that turns
// its reply into a Decision.
//
// The model answers in one of two tagged shapes:
//
//	/*REASONING*/
//	The speed of light is a physical constant; look it up.
//	/*ACTION*/
//	Capability: wikipedia
//	Query: speed of light
//
// or
//
//	/*FINAL_ANSWER*/
//	299,792,458 metres per second.
//
// The classic "Action:" / "Action Input:" / "Final Answer:" lines are
// accepted as well. A reply holding both an action and a final answer is
// Malformed.
package react

import (
	"fmt"
	"regexp"
	"strings"

	"trpc.group/trpc-go/trpc-science-agent/agent"
	"trpc.group/trpc-go/trpc-science-agent/model"
	"trpc.group/trpc-go/trpc-science-agent/tool"
)

// Tags used to structure the LLM response.
const (
	PlanningTag    = "/*PLANNING*/"
	ReasoningTag   = "/*REASONING*/"
	ActionTag      = "/*ACTION*/"
	FinalAnswerTag = "/*FINAL_ANSWER*/"
)

// StopSequence keeps the model from writing observations itself.
const StopSequence = "\nObservation:"

const (
	capabilityField = "Capability:"
	queryField      = "Query:"
	observationLine = "Observation:"
)

var (
	capabilityRe = regexp.MustCompile(`(?im)^[ \t]*(?:capability|action)[ \t]*:[ \t]*(.*)$`)
	queryRe      = regexp.MustCompile(`(?im)^[ \t]*(?:query|action[ \t]+input)[ \t]*:[ \t]*(.*)$`)
	finalRe      = regexp.MustCompile(`(?ims)^[ \t]*final[ \t_]+answer[ \t]*:[ \t]*(.*)`)
)

// Decision is what the model chose to do next: Act, Finish or Malformed.
type Decision interface {
	isDecision()
}

// Act asks the loop to invoke a capability.
type Act struct {
	Capability string
	Query      string
}

// Finish ends the loop with an answer.
type Finish struct {
	Answer string
}

// Malformed is a reply that fits neither shape.
type Malformed struct {
	Reason string
}

func (Act) isDecision()       {}
func (Finish) isDecision()    {}
func (Malformed) isDecision() {}

// Planner builds dispatch prompts and parses the replies.
type Planner struct {
	cfg model.GenerationConfig
}

// Option configures a Planner.
type Option func(*Planner)

// WithGenerationConfig sets the generation parameters of every request.
// StopSequence is always added to the stop list.
func WithGenerationConfig(cfg model.GenerationConfig) Option {
	return func(p *Planner) {
		p.cfg = cfg
	}
}

// New creates a new ReAct planner.
func New(opts ...Option) *Planner {
	p := &Planner{}
	for _, opt := range opts {
		opt(p)
	}
	p.cfg.Stop = withStop(p.cfg.Stop)
	return p
}

func withStop(stop []string) []string {
	for _, s := range stop {
		if s == StopSequence {
			return stop
		}
	}
	out := make([]string, 0, len(stop)+1)
	out = append(out, StopSequence)
	return append(out, stop...)
}

// BuildRequest builds the request for the next decision from the question,
// the steps taken so far and the available capabilities.
func (p *Planner) BuildRequest(question string, decls []tool.Declaration, trace []agent.Step) *model.Request {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\n")
	if len(trace) > 0 {
		b.WriteString("\nSteps so far:\n")
		b.WriteString(Scratchpad(trace))
	}
	b.WriteString("\nDecide the next step.")
	return &model.Request{
		Messages: []model.Message{
			model.NewSystemMessage(p.BuildInstruction(decls)),
			model.NewUserMessage(b.String()),
		},
		GenerationConfig: p.cfg,
	}
}

// CorrectiveRequest extends req with the rejected reply and a reminder of
// the expected format.
func (p *Planner) CorrectiveRequest(req *model.Request, reply, reason string) *model.Request {
	msgs := make([]model.Message, 0, len(req.Messages)+2)
	msgs = append(msgs, req.Messages...)
	msgs = append(msgs,
		model.NewAssistantMessage(reply),
		model.NewUserMessage(fmt.Sprintf(
			"Your reply could not be used: %s.\n"+
				"Answer again with exactly one %s section holding a %s line and a %s line, "+
				"or with a %s section holding the answer. Do not write both.",
			reason, ActionTag, capabilityField, queryField, FinalAnswerTag)),
	)
	return &model.Request{Messages: msgs, GenerationConfig: req.GenerationConfig}
}

// Scratchpad renders the trace the way the model is asked to write it.
func Scratchpad(trace []agent.Step) string {
	var b strings.Builder
	for _, s := range trace {
		b.WriteString(ActionTag)
		b.WriteString("\n")
		b.WriteString(capabilityField + " " + s.Capability + "\n")
		b.WriteString(queryField + " " + s.Query + "\n")
		b.WriteString(observationLine + " " + s.Observation + "\n\n")
	}
	return b.String()
}

// BuildInstruction builds the system instruction listing the
// capabilities in registry order.
func (p *Planner) BuildInstruction(decls []tool.Declaration) string {
	names := make([]string, 0, len(decls))
	var caps strings.Builder
	for _, d := range decls {
		names = append(names, d.Name)
		fmt.Fprintf(&caps, "- %s: %s\n", d.Name, d.Description)
	}

	return strings.Join([]string{
		"You answer science questions step by step. You cannot look things up or compute " +
			"anything yourself; use the capabilities below.",
		"CAPABILITIES:\n" + strings.TrimRight(caps.String(), "\n"),
		strings.Join([]string{
			"WORKFLOW (one step per reply):",
			"1. Optionally write " + PlanningTag + " or " + ReasoningTag + " followed by a short thought.",
			"2. To use a capability write " + ActionTag + " followed by exactly two lines:",
			"   " + capabilityField + " <one of [" + strings.Join(names, ", ") + "]>",
			"   " + queryField + " <the input for the capability>",
			"   Then stop. The observation will be given to you.",
			"3. When you know the answer write " + FinalAnswerTag + " followed by ONLY the answer.",
		}, "\n"),
		strings.Join([]string{
			"CRITICAL RULES:",
			"- Never write both " + ActionTag + " and " + FinalAnswerTag + " in the same reply.",
			"- Never write an Observation line yourself.",
			"- Only use capabilities from the list.",
		}, "\n"),
		p.buildFewShotExample(),
	}, "\n\n")
}

func (p *Planner) buildFewShotExample() string {
	return strings.Join([]string{
		"=== EXAMPLE ===",
		"Question: What is 3 to the power of 4, plus 1?",
		"",
		ReasoningTag,
		"This is arithmetic.",
		ActionTag,
		capabilityField + " calculator",
		queryField + " 3^4 + 1",
		observationLine + " Answer: 82",
		"",
		ReasoningTag,
		"The calculator returned the result.",
		FinalAnswerTag,
		"82",
		"=== END EXAMPLE ===",
	}, "\n")
}

// Parse turns a model reply into a Decision.
func (p *Planner) Parse(reply string) Decision {
	return Parse(reply)
}

// Parse turns a model reply into a Decision. It never returns nil. The
// query is the rest of its own line; later lines are ignored.
func Parse(reply string) Decision {
	text := strings.TrimSpace(reply)
	if text == "" {
		return Malformed{Reason: "empty reply"}
	}
	// A model that ignores the stop sequence invents observations; only the
	// part before the first one counts.
	if i := observationIndex(text); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}

	actionPart, finalPart, hasFinal := splitFinal(text)
	act, hasAct := parseAct(actionPart)

	switch {
	case hasAct && hasFinal:
		return Malformed{Reason: "reply contains both an action and a final answer"}
	case hasFinal:
		answer := strings.TrimSpace(finalPart)
		if answer == "" {
			return Malformed{Reason: "final answer is empty"}
		}
		return Finish{Answer: answer}
	case hasAct:
		if act.Capability == "" {
			return Malformed{Reason: "capability name is empty"}
		}
		if act.Query == "" {
			return Malformed{Reason: fmt.Sprintf("query for %q is empty", act.Capability)}
		}
		return act
	default:
		return Malformed{Reason: "reply contains neither an action nor a final answer"}
	}
}

// splitFinal separates the final answer, if any, from the rest.
func splitFinal(text string) (rest, final string, ok bool) {
	if i := strings.Index(text, FinalAnswerTag); i >= 0 {
		return text[:i], stripTags(text[i+len(FinalAnswerTag):]), true
	}
	if loc := finalRe.FindStringSubmatchIndex(text); loc != nil {
		return text[:loc[0]], text[loc[2]:loc[3]], true
	}
	return text, "", false
}

func parseAct(text string) (Act, bool) {
	if i := strings.Index(text, ActionTag); i >= 0 {
		text = text[i+len(ActionTag):]
	} else if !capabilityRe.MatchString(text) {
		return Act{}, false
	}
	m := capabilityRe.FindStringSubmatch(text)
	if m == nil {
		return Act{}, true
	}
	act := Act{Capability: cleanName(m[1])}
	if q := queryRe.FindStringSubmatch(text); q != nil {
		act.Query = unquote(strings.TrimSpace(q[1]))
	}
	return act, true
}

func observationIndex(text string) int {
	if strings.HasPrefix(text, observationLine) {
		return 0
	}
	return strings.Index(text, "\n"+observationLine)
}

// stripTags drops thought tags a model sometimes repeats after the final
// answer tag.
func stripTags(s string) string {
	for _, tag := range []string{PlanningTag, ReasoningTag} {
		s = strings.ReplaceAll(s, tag, "")
	}
	return s
}

func cleanName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "`'\"*[]")
	return strings.TrimSpace(s)
}

func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') || (first == '`' && last == '`') {
			return strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}
