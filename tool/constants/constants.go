//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package constants provides a capability that looks up CODATA 2018 values
// of physical constants.
package constants

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"trpc.group/trpc-go/trpc-science-agent/tool"
	"trpc.group/trpc-go/trpc-science-agent/tool/function"
)

const (
	name        = "physical_constants"
	description = "Looks up the recommended value and unit of a physical constant, such as " +
		"the speed of light, Planck constant or Boltzmann constant. Input should be the " +
		"name or symbol of one constant."
)

// Constant is one entry of the table.
type Constant struct {
	Name    string
	Symbol  string
	Value   string
	Unit    string
	Exact   bool
	aliases []string
}

// String renders the constant as an observation line.
func (c Constant) String() string {
	s := fmt.Sprintf("%s (%s) = %s", c.Name, c.Symbol, c.Value)
	if c.Unit != "" {
		s += " " + c.Unit
	}
	if c.Exact {
		s += " (exact)"
	}
	return s
}

var table = []Constant{
	{Name: "speed of light in vacuum", Symbol: "c", Value: "299792458", Unit: "m s^-1", Exact: true, aliases: []string{"speed of light", "light speed"}},
	{Name: "Planck constant", Symbol: "h", Value: "6.62607015e-34", Unit: "J Hz^-1", Exact: true, aliases: []string{"planck"}},
	{Name: "reduced Planck constant", Symbol: "hbar", Value: "1.054571817e-34", Unit: "J s", aliases: []string{"h bar", "dirac constant"}},
	{Name: "elementary charge", Symbol: "e", Value: "1.602176634e-19", Unit: "C", Exact: true, aliases: []string{"electron charge", "charge of an electron", "charge of the electron"}},
	{Name: "Boltzmann constant", Symbol: "k", Value: "1.380649e-23", Unit: "J K^-1", Exact: true, aliases: []string{"boltzmann"}},
	{Name: "Avogadro constant", Symbol: "N_A", Value: "6.02214076e23", Unit: "mol^-1", Exact: true, aliases: []string{"avogadro", "avogadro number"}},
	{Name: "molar gas constant", Symbol: "R", Value: "8.314462618", Unit: "J mol^-1 K^-1", aliases: []string{"gas constant", "ideal gas constant"}},
	{Name: "Faraday constant", Symbol: "F", Value: "96485.33212", Unit: "C mol^-1", aliases: []string{"faraday"}},
	{Name: "standard acceleration of gravity", Symbol: "g_n", Value: "9.80665", Unit: "m s^-2", Exact: true, aliases: []string{"acceleration due to gravity", "standard gravity", "gravitational acceleration"}},
	{Name: "Newtonian constant of gravitation", Symbol: "G", Value: "6.67430e-11", Unit: "m^3 kg^-1 s^-2", aliases: []string{"gravitational constant", "newton constant"}},
	{Name: "electron mass", Symbol: "m_e", Value: "9.1093837015e-31", Unit: "kg", aliases: []string{"mass of an electron", "mass of the electron"}},
	{Name: "proton mass", Symbol: "m_p", Value: "1.67262192369e-27", Unit: "kg", aliases: []string{"mass of a proton", "mass of the proton"}},
	{Name: "neutron mass", Symbol: "m_n", Value: "1.67492749804e-27", Unit: "kg", aliases: []string{"mass of a neutron", "mass of the neutron"}},
	{Name: "vacuum electric permittivity", Symbol: "epsilon_0", Value: "8.8541878128e-12", Unit: "F m^-1", aliases: []string{"permittivity of free space", "electric constant"}},
	{Name: "vacuum magnetic permeability", Symbol: "mu_0", Value: "1.25663706212e-6", Unit: "N A^-2", aliases: []string{"permeability of free space", "magnetic constant"}},
	{Name: "Stefan-Boltzmann constant", Symbol: "sigma", Value: "5.670374419e-8", Unit: "W m^-2 K^-4", aliases: []string{"stefan boltzmann"}},
	{Name: "fine-structure constant", Symbol: "alpha", Value: "7.2973525693e-3", aliases: []string{"fine structure"}},
	{Name: "Rydberg constant", Symbol: "R_inf", Value: "10973731.568160", Unit: "m^-1", aliases: []string{"rydberg"}},
	{Name: "Bohr radius", Symbol: "a_0", Value: "5.29177210903e-11", Unit: "m", aliases: []string{"bohr"}},
}

// New creates the physical constants capability.
func New() tool.Tool {
	return function.NewFunctionTool(Lookup,
		function.WithName(name),
		function.WithDescription(description),
	)
}

// Lookup finds the constant named by query. A symbol must match exactly,
// since "G" and "g_n" differ only in case. Otherwise the longest name or
// alias found in the query wins, compared word by word after folding case
// and punctuation. No match is not an error: the observation lists the
// known constants instead.
func Lookup(_ context.Context, query string) (fmt.Stringer, error) {
	symbol := strings.TrimSpace(query)
	for _, c := range table {
		if c.Symbol == symbol {
			return c, nil
		}
	}
	q := " " + normalize(query) + " "
	if strings.TrimSpace(q) == "" {
		return notFound(query), nil
	}
	var (
		best    Constant
		bestLen int
	)
	for _, c := range table {
		for _, a := range append([]string{c.Name}, c.aliases...) {
			a = normalize(a)
			if len(a) > bestLen && strings.Contains(q, " "+a+" ") {
				best, bestLen = c, len(a)
			}
		}
	}
	if bestLen == 0 {
		return notFound(query), nil
	}
	return best, nil
}

type notFound string

func (n notFound) String() string {
	names := make([]string, 0, len(table))
	for _, c := range table {
		names = append(names, c.Name)
	}
	return fmt.Sprintf("No constant matches %q. Known constants: %s.", string(n), strings.Join(names, ", "))
}

func normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if w != "the" && w != "what" && w != "is" && w != "value" && w != "of" {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}
