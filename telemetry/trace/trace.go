//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package trace provides the tracer used by the dispatch loop and the
// OTLP exporter setup.
//
// Until Start is called, Tracer comes from the global otel provider, which
// is a no-op by default.
package trace

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentName is the instrumentation scope of every span.
const InstrumentName = "trpc.group/trpc-go/trpc-science-agent"

// Protocols accepted by WithProtocol.
const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http"
)

// Span attribute keys.
const (
	KeyRunID      = attribute.Key("scibot.run_id")
	KeyCapability = attribute.Key("scibot.capability")
	KeyIteration  = attribute.Key("scibot.iteration")
	KeyErrorKind  = attribute.Key("scibot.error_kind")
	KeySynthetic  = attribute.Key("scibot.synthetic")
)

// Tracer is the shared tracer.
var Tracer trace.Tracer = otel.Tracer(InstrumentName)

type options struct {
	protocol    string
	endpoint    string
	endpointURL string
	headers     map[string]string
	serviceName string
}

// Option configures Start.
type Option func(*options)

// WithProtocol selects "grpc" (default) or "http".
func WithProtocol(protocol string) Option {
	return func(o *options) {
		o.protocol = protocol
	}
}

// WithEndpoint sets the collector host:port.
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		o.endpoint = endpoint
	}
}

// WithEndpointURL sets the collector URL. For http the path is kept.
func WithEndpointURL(endpointURL string) Option {
	return func(o *options) {
		o.endpointURL = endpointURL
	}
}

// WithHeaders sets headers sent with every export.
func WithHeaders(headers map[string]string) Option {
	return func(o *options) {
		o.headers = headers
	}
}

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) Option {
	return func(o *options) {
		o.serviceName = name
	}
}

// Start installs an OTLP exporting tracer provider. The returned function
// flushes and shuts it down.
func Start(ctx context.Context, opts ...Option) (clean func() error, err error) {
	o := &options{protocol: ProtocolGRPC, serviceName: "scibot"}
	for _, opt := range opts {
		opt(o)
	}
	if o.endpoint == "" {
		o.endpoint = tracesEndpoint(o.protocol)
	}

	var exporter sdktrace.SpanExporter
	switch o.protocol {
	case ProtocolHTTP:
		exporter, err = newHTTPExporter(ctx, o)
	case ProtocolGRPC, "":
		exporter, err = newGRPCExporter(ctx, o)
	default:
		return nil, fmt.Errorf("trace: unknown protocol %q", o.protocol)
	}
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(attribute.String("service.name", o.serviceName)))
	if err != nil {
		return nil, fmt.Errorf("trace: create resource: %w", err)
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	Tracer = provider.Tracer(InstrumentName)

	return func() error {
		return provider.Shutdown(context.Background())
	}, nil
}

func newGRPCExporter(ctx context.Context, o *options) (sdktrace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(o.endpoint),
		otlptracegrpc.WithInsecure(),
	}
	if o.endpointURL != "" {
		opts = append(opts, otlptracegrpc.WithEndpointURL(o.endpointURL))
	}
	if len(o.headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(o.headers))
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("trace: create grpc exporter: %w", err)
	}
	return exporter, nil
}

func newHTTPExporter(ctx context.Context, o *options) (sdktrace.SpanExporter, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(o.endpoint),
		otlptracehttp.WithInsecure(),
	}
	if o.endpointURL != "" {
		endpoint, path, err := parseEndpointURL(o.endpointURL)
		if err != nil {
			return nil, err
		}
		opts = append(opts, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithURLPath(path))
	}
	if len(o.headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(o.headers))
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("trace: create http exporter: %w", err)
	}
	return exporter, nil
}

// tracesEndpoint resolves the endpoint from the standard OTLP variables.
func tracesEndpoint(protocol string) string {
	if ep := os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"); ep != "" {
		return ep
	}
	if ep := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); ep != "" {
		return ep
	}
	if protocol == ProtocolHTTP {
		return "localhost:4318"
	}
	return "localhost:4317"
}

// parseEndpointURL splits a collector URL into host:port and path.
func parseEndpointURL(raw string) (endpoint, path string, err error) {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("trace: parse endpoint url: %w", err)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("trace: endpoint url %q has no host", raw)
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	return u.Host, path, nil
}
