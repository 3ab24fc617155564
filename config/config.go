//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package config loads the process configuration from defaults, an
// optional config file and SCIBOT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"trpc.group/trpc-go/trpc-science-agent/errs"
	"trpc.group/trpc-go/trpc-science-agent/log"
)

// EnvPrefix prefixes every environment variable, e.g. SCIBOT_LLM_MODEL.
const EnvPrefix = "SCIBOT"

// CredentialEnv is the conventional variable holding the model credential.
const CredentialEnv = "GROQ_API_KEY"

// Config holds all configuration.
type Config struct {
	LLM       LLMConfig       `mapstructure:"llm"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Lookup    LookupConfig    `mapstructure:"lookup"`
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// LLMConfig configures the language model.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// AgentConfig configures the dispatch loop.
type AgentConfig struct {
	MaxIterations int           `mapstructure:"max_iterations"`
	CallTimeout   time.Duration `mapstructure:"call_timeout"`
	Retries       int           `mapstructure:"retries"`
	// RunTimeout bounds one whole question; zero means no limit.
	RunTimeout time.Duration `mapstructure:"run_timeout"`
	// Capabilities limits the registered capabilities; empty means all.
	Capabilities []string `mapstructure:"capabilities"`
}

// LookupConfig bounds the search and document lookup capabilities.
type LookupConfig struct {
	MaxResults int `mapstructure:"max_results"`
	MaxChars   int `mapstructure:"max_chars"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Address     string   `mapstructure:"address"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// BatchConfig configures batch answering.
type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// TelemetryConfig configures span export. An empty endpoint disables it.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPProtocol string `mapstructure:"otlp_protocol"`
}

var defaults = map[string]any{
	"llm.provider":            "groq",
	"llm.api_key":             "",
	"llm.base_url":            "",
	"llm.model":               "gemma2-9b-it",
	"llm.temperature":         0.0,
	"llm.max_tokens":          1024,
	"llm.timeout":             "60s",
	"agent.max_iterations":    15,
	"agent.call_timeout":      "30s",
	"agent.retries":           1,
	"agent.run_timeout":       "0s",
	"agent.capabilities":      []string{},
	"lookup.max_results":      1,
	"lookup.max_chars":        1000,
	"log.level":               "info",
	"log.format":              "console",
	"server.address":          ":8080",
	"server.cors_origins":     []string{"*"},
	"batch.concurrency":       4,
	"telemetry.otlp_endpoint": "",
	"telemetry.otlp_protocol": "grpc",
}

// New returns a viper instance with the defaults and environment
// bindings installed.
func New() (*viper.Viper, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// SCIBOT_LLM_API_KEY wins over the conventional variable.
	if err := v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", CredentialEnv); err != nil {
		return nil, errs.NewConfigurationError("bind llm.api_key", err)
	}
	return v, nil
}

// Load reads the configuration. path may be empty, in which case a
// scibot.{yaml,json,toml} in the working directory or ./config is used if
// present. The result is not validated.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		var err error
		if v, err = New(); err != nil {
			return nil, err
		}
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("scibot")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errs.NewConfigurationError("read config file", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errs.NewConfigurationError("decode config", err)
	}
	cfg.LLM.APIKey = strings.TrimSpace(cfg.LLM.APIKey)
	return &cfg, nil
}

// Validate checks the values the dispatch loop cannot run without. It
// returns a *errs.ConfigurationError.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return errs.NewConfigurationError(
			fmt.Sprintf("set %s (or %s_LLM_API_KEY)", CredentialEnv, EnvPrefix), errs.ErrMissingCredential)
	}
	checks := []struct {
		name string
		ok   bool
	}{
		{"agent.max_iterations must be positive", c.Agent.MaxIterations > 0},
		{"agent.call_timeout must be positive", c.Agent.CallTimeout > 0},
		{"agent.retries must not be negative", c.Agent.Retries >= 0},
		{"agent.run_timeout must not be negative", c.Agent.RunTimeout >= 0},
		{"lookup.max_results must be positive", c.Lookup.MaxResults > 0},
		{"lookup.max_chars must be positive", c.Lookup.MaxChars > 0},
		{"batch.concurrency must be positive", c.Batch.Concurrency > 0},
		{"llm.model must be set", strings.TrimSpace(c.LLM.Model) != ""},
	}
	for _, check := range checks {
		if !check.ok {
			return errs.NewConfigurationError(check.name, nil)
		}
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errs.NewConfigurationError("log.level", err)
	}
	return nil
}
