//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Command scibot answers science questions by letting a language model
// dispatch to search, lookup and math capabilities.
//
//	scibot ask "What is the speed of light in a vacuum?"
//	scibot chat
//	scibot batch questions.txt
//	scibot serve --addr :8080
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"trpc.group/trpc-go/trpc-science-agent/errs"
)

const (
	welcomeMessage  = "Hello! I can assist you with scientific, mathematical, and reasoning-based questions."
	defaultQuestion = "What is the speed of light in a vacuum?"
)

// errAnswerFailed marks a command whose answer was already shown as an
// error; only the exit code is left to report.
var errAnswerFailed = errors.New("answer failed")

func main() {
	os.Exit(execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, defaultModelFactory))
}

// execute runs the CLI and returns the process exit code.
func execute(args []string, in io.Reader, out, errOut io.Writer, newModel ModelFactory) int {
	a := &app{in: in, out: out, errOut: errOut, newModel: newModel}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.Execute()
	if err == nil {
		return 0
	}
	var cfgErr *errs.ConfigurationError
	switch {
	case errors.Is(err, errAnswerFailed):
	case errors.As(err, &cfgErr):
		fmt.Fprintln(errOut, cfgErr.Error())
	default:
		fmt.Fprintf(errOut, "An error occurred: %v\n", err)
	}
	return 1
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "scibot",
		Short:         "Answer science questions with an LLM that dispatches to capabilities",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default scibot.yaml in . or ./config)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	root.AddCommand(
		newAskCmd(a),
		newChatCmd(a),
		newBatchCmd(a),
		newServeCmd(a),
	)
	return root
}
