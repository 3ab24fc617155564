//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

package constants

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCall(t *testing.T) {
	c := New()
	assert.Equal(t, "physical_constants", c.Declaration().Name)

	tests := []struct {
		query string
		want  string
	}{
		{"speed of light", "speed of light in vacuum (c) = 299792458 m s^-1 (exact)"},
		{"What is the speed of light in a vacuum?", "speed of light in vacuum (c) = 299792458 m s^-1 (exact)"},
		{"G", "Newtonian constant of gravitation (G) = 6.67430e-11 m^3 kg^-1 s^-2"},
		{"g_n", "standard acceleration of gravity (g_n) = 9.80665 m s^-2 (exact)"},
		{"Planck constant", "Planck constant (h) = 6.62607015e-34 J Hz^-1 (exact)"},
		{"reduced Planck constant", "reduced Planck constant (hbar) = 1.054571817e-34 J s"},
		{"Stefan-Boltzmann constant", "Stefan-Boltzmann constant (sigma) = 5.670374419e-8 W m^-2 K^-4"},
		{"mass of the electron", "electron mass (m_e) = 9.1093837015e-31 kg"},
		{"fine structure constant", "fine-structure constant (alpha) = 7.2973525693e-3"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			out, err := c.Call(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestCall_NoMatch(t *testing.T) {
	out, err := New().Call(context.Background(), "the answer to everything")
	require.NoError(t, err)
	assert.Contains(t, out, `No constant matches "the answer to everything".`)
	assert.Contains(t, out, "Boltzmann constant")

	out, err = New().Call(context.Background(), "  ?  ")
	require.NoError(t, err)
	assert.Contains(t, out, "No constant matches")
}
