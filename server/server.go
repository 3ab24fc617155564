//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package server exposes the dispatch agent over HTTP.
//
//	POST /v1/answer  {"question": "..."}     -> agent.Result
//	POST /v1/batch   {"questions": ["..."]}  -> {"results": [agent.Result]}
//	GET  /v1/info                            -> agent name and capabilities
//	GET  /healthz
//	GET  /metrics                            (when a metrics handler is set)
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"trpc.group/trpc-go/trpc-science-agent/agent"
	"trpc.group/trpc-go/trpc-science-agent/log"
)

// DefaultMaxBodyBytes bounds request bodies.
const DefaultMaxBodyBytes = 1 << 20

// DefaultMaxBatch bounds the number of questions in one batch request.
const DefaultMaxBatch = 64

// Runner answers questions. *runner.Runner implements it.
type Runner interface {
	Run(ctx context.Context, question string) agent.Result
	RunBatch(ctx context.Context, questions []string) []agent.Result
}

// Server serves the answer API.
type Server struct {
	runner       Runner
	info         agent.Info
	capabilities []string
	router       *mux.Router
	handler      http.Handler

	corsOrigins  []string
	metrics      http.Handler
	maxBodyBytes int64
	maxBatch     int
}

// Option configures a Server.
type Option func(*Server)

// WithCORSOrigins sets the allowed CORS origins. The default is "*".
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithAgentInfo sets what GET /v1/info reports.
func WithAgentInfo(info agent.Info, capabilities ...string) Option {
	return func(s *Server) {
		s.info = info
		s.capabilities = capabilities
	}
}

// WithMaxBodyBytes bounds request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithMaxBatch bounds the number of questions per batch request.
func WithMaxBatch(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBatch = n
		}
	}
}

// New creates a Server for r.
func New(r Runner, opts ...Option) (*Server, error) {
	if r == nil {
		return nil, errors.New("server: runner is nil")
	}
	s := &Server{
		runner:       r,
		router:       mux.NewRouter(),
		corsOrigins:  []string{"*"},
		maxBodyBytes: DefaultMaxBodyBytes,
		maxBatch:     DefaultMaxBatch,
	}
	for _, opt := range opts {
		opt(s)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Length", "Content-Type"},
	})
	s.registerRoutes()
	s.handler = c.Handler(s.router)
	return s, nil
}

// Handler returns the HTTP handler, CORS included.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/info", s.handleInfo).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/answer", s.handleAnswer).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/batch", s.handleBatch).Methods(http.MethodPost)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}
}

type answerRequest struct {
	Question string `json:"question"`
}

type batchRequest struct {
	Questions []string `json:"questions"`
}

type batchResponse struct {
	Results []agent.Result `json:"results"`
}

type infoResponse struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Capabilities []string `json:"capabilities"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	caps := s.capabilities
	if caps == nil {
		caps = []string{}
	}
	writeJSON(w, http.StatusOK, infoResponse{
		Name:         s.info.Name,
		Description:  s.info.Description,
		Capabilities: caps,
	})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	result := s.runner.Run(r.Context(), req.Question)
	log.Debugf("server: run %s answered (ok=%t)", result.RunID, result.OK())
	writeJSON(w, statusOf(result), result)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Questions) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("questions is empty"))
		return
	}
	if len(req.Questions) > s.maxBatch {
		writeError(w, http.StatusBadRequest,
			fmt.Errorf("too many questions: %d > %d", len(req.Questions), s.maxBatch))
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Results: s.runner.RunBatch(r.Context(), req.Questions)})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return fmt.Errorf("unsupported content type %q", ct)
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

// statusOf maps a Result to an HTTP status. Loop failures are still
// answers, so only rejected input is a client error.
func statusOf(result agent.Result) int {
	switch result.Error {
	case agent.ErrorInvalidInput:
		return http.StatusBadRequest
	case agent.ErrorInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("server: encode response: %v", err)
	}
}
