//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

package cel

import (
	"fmt"
	"regexp"
	"strings"
)

// tokenRe matches identifiers and numeric literals.
var tokenRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*|\d+(\.\d*)?([eE][+-]?\d+)?|\.\d+([eE][+-]?\d+)?`)

var symbolReplacer = strings.NewReplacer(
	"**", "^",
	"×", "*",
	"÷", "/",
	"−", "-",
	"π", "pi",
)

// normalize turns conventional arithmetic notation into CEL: power
// operators become pow calls and every numeric literal becomes a double,
// because CEL does not mix int and double operands.
func normalize(expr string) (string, error) {
	expr = strings.TrimSpace(symbolReplacer.Replace(expr))
	if expr == "" {
		return "", fmt.Errorf("expression is empty")
	}
	expr = tokenRe.ReplaceAllStringFunc(expr, func(tok string) string {
		c := tok[0]
		if c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
			return tok
		}
		if strings.HasPrefix(tok, ".") {
			tok = "0" + tok
		}
		if strings.ContainsAny(tok, "eE") {
			if strings.Contains(tok, ".") && !strings.Contains(tok, ".e") && !strings.Contains(tok, ".E") {
				return tok
			}
			mant, exp, _ := strings.Cut(strings.ToLower(tok), "e")
			return strings.TrimSuffix(mant, ".") + ".0e" + exp
		}
		if strings.HasSuffix(tok, ".") {
			return tok + "0"
		}
		if !strings.Contains(tok, ".") {
			return tok + ".0"
		}
		return tok
	})
	return rewritePow(expr)
}

// rewritePow replaces a ^ b with pow(a, b), innermost right operand
// first so the operator is right associative.
func rewritePow(s string) (string, error) {
	for {
		idx := strings.LastIndex(s, "^")
		if idx < 0 {
			return s, nil
		}
		lstart, err := leftOperand(s, idx)
		if err != nil {
			return "", err
		}
		rend, err := rightOperand(s, idx)
		if err != nil {
			return "", err
		}
		left := strings.TrimSpace(s[lstart:idx])
		right := strings.TrimSpace(s[idx+1 : rend])
		s = s[:lstart] + "pow(" + left + ", " + right + ")" + s[rend:]
	}
}

func isOperandChar(c byte) bool {
	return c == '_' || c == '.' || (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isDigitOrDot(c byte) bool {
	return c == '.' || (c >= '0' && c <= '9')
}

// leftOperand returns the start index of the operand ending before idx.
func leftOperand(s string, idx int) (int, error) {
	i := idx - 1
	for i >= 0 && s[i] == ' ' {
		i--
	}
	if i < 0 {
		return 0, fmt.Errorf("missing base before '^'")
	}
	if s[i] == ')' {
		depth := 0
		for ; i >= 0; i-- {
			switch s[i] {
			case ')':
				depth++
			case '(':
				depth--
			}
			if depth == 0 {
				break
			}
		}
		if i < 0 {
			return 0, fmt.Errorf("unbalanced parentheses")
		}
		// include a function name, e.g. sqrt(2)^2
		for i > 0 && isOperandChar(s[i-1]) {
			i--
		}
		return i, nil
	}
	end := i
	for i >= 0 && isOperandChar(s[i]) {
		i--
	}
	// keep the exponent sign of a literal such as 1.0e-3
	if i > 1 && (s[i] == '-' || s[i] == '+') && (s[i-1] == 'e' || s[i-1] == 'E') && isDigitOrDot(s[i-2]) {
		i--
		for i >= 0 && isOperandChar(s[i]) {
			i--
		}
	}
	if i == end {
		return 0, fmt.Errorf("missing base before '^'")
	}
	return i + 1, nil
}

// rightOperand returns the end index of the operand starting after idx.
func rightOperand(s string, idx int) (int, error) {
	i := idx + 1
	for i < len(s) && s[i] == ' ' {
		i++
	}
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	start := i
	for i < len(s) && isOperandChar(s[i]) {
		i++
		if i < len(s) && (s[i] == '-' || s[i] == '+') && (s[i-1] == 'e' || s[i-1] == 'E') &&
			isDigitOrDot(s[start]) {
			i++
		}
	}
	if i < len(s) && s[i] == '(' {
		depth := 0
		for ; i < len(s); i++ {
			switch s[i] {
			case '(':
				depth++
			case ')':
				depth--
			}
			if depth == 0 {
				return i + 1, nil
			}
		}
		return 0, fmt.Errorf("unbalanced parentheses")
	}
	if i == start {
		return 0, fmt.Errorf("missing exponent after '^'")
	}
	return i, nil
}
