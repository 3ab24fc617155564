//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"trpc.group/trpc-go/trpc-science-agent/agent"
	"trpc.group/trpc-go/trpc-science-agent/model"
)

func newAskCmd(a *app) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question, showing each step",
		Long:  "Answer one question. Without arguments the question is \"" + defaultQuestion + "\".",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(); err != nil {
				return err
			}
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				question = defaultQuestion
			}
			var live io.Writer
			if !quiet {
				live = a.out
			}
			s, err := a.buildStack(cmd.Context(), live)
			if err != nil {
				return err
			}
			defer s.Close()

			return a.show(s.runner.Run(cmd.Context(), question))
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only the answer")
	return cmd
}

// show prints the answer, or the error the way the UI renders it.
func (a *app) show(result agent.Result) error {
	if !result.OK() {
		fmt.Fprintln(a.errOut, result.Display())
		return errAnswerFailed
	}
	fmt.Fprintln(a.out, result.Display())
	return nil
}

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Ask questions interactively",
		Long: "Ask questions interactively. An empty line asks \"" + defaultQuestion + "\", " +
			"/history prints the conversation and /quit leaves.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loadConfig(); err != nil {
				return err
			}
			s, err := a.buildStack(cmd.Context(), a.out)
			if err != nil {
				return err
			}
			defer s.Close()
			return a.chat(cmd.Context(), s.runner)
		},
	}
}

type questionRunner interface {
	Run(ctx context.Context, question string) agent.Result
}

func (a *app) chat(ctx context.Context, r questionRunner) error {
	conv := agent.NewConversation(welcomeMessage)
	fmt.Fprintln(a.out, welcomeMessage)

	scanner := bufio.NewScanner(a.in)
	for {
		fmt.Fprintf(a.out, "\nQuestion [%s]: ", defaultQuestion)
		if !scanner.Scan() {
			fmt.Fprintln(a.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "/quit", "/exit":
			return nil
		case "/history":
			printHistory(a.out, conv)
			continue
		case "":
			line = defaultQuestion
		}
		conv.Append(model.RoleUser, line)

		result := r.Run(ctx, line)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !result.OK() {
			fmt.Fprintln(a.out, result.Display())
			continue
		}
		conv.Append(model.RoleAssistant, result.FinalAnswer)
		fmt.Fprintf(a.out, "\nResponse:\n%s\n", result.FinalAnswer)
	}
}

func printHistory(w io.Writer, conv *agent.Conversation) {
	for _, m := range conv.Messages() {
		fmt.Fprintf(w, "%s: %s\n", m.Role, m.Content)
	}
}

func newBatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "batch <file>",
		Short: "Answer the questions in a file, one per line, as JSON lines",
		Long: "Answer the questions in a file concurrently. Blank lines and lines " +
			"starting with # are skipped; \"-\" reads standard input.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(); err != nil {
				return err
			}
			questions, err := a.readQuestions(args[0])
			if err != nil {
				return err
			}
			s, err := a.buildStack(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer s.Close()

			results := s.runner.RunBatch(cmd.Context(), questions)
			enc := json.NewEncoder(a.out)
			failed := false
			for i, result := range results {
				failed = failed || !result.OK()
				if err := enc.Encode(batchLine{Question: questions[i], Result: result}); err != nil {
					return err
				}
			}
			if failed {
				return errAnswerFailed
			}
			return nil
		},
	}
}

type batchLine struct {
	Question string `json:"question"`
	agent.Result
}

func (a *app) readQuestions(path string) ([]string, error) {
	var r io.Reader = a.in
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var questions []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		questions = append(questions, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("no questions in %s", path)
	}
	return questions, nil
}
