// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otelconfig

import (
	"context"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// OTLPConfig
type OTLPConfig struct {
	Common

	// host:port of the collector
	Endpoint string            `config:"endpoint"`
	Insecure bool              `config:"insecure"`
	Headers  map[string]string `config:"headers"`
}

// OTLPOption
type OTLPOption interface {
	ApplyOTLP(*OTLPConfig)
}

type otlpOptionFunc func(*OTLPConfig)

func (f otlpOptionFunc) ApplyOTLP(cfg *OTLPConfig) {
	f(cfg)
}

// Endpoint sets the collector address.
func Endpoint(addr string) OTLPOption {
	return otlpOptionFunc(func(oc *OTLPConfig) {
		oc.Endpoint = addr
	})
}

// Insecure disables TLS when connecting to the collector.
func Insecure() OTLPOption {
	return otlpOptionFunc(func(oc *OTLPConfig) {
		oc.Insecure = true
	})
}

// Headers are sent with every export, e.g. for authentication.
func Headers(h map[string]string) OTLPOption {
	return otlpOptionFunc(func(oc *OTLPConfig) {
		oc.Headers = h
	})
}

// OTLP returns an Initializer which exports spans to an OTLP collector over gRPC.
func OTLP(opts ...OTLPOption) Initializer {
	c := OTLPConfig{}
	for _, opt := range opts {
		opt.ApplyOTLP(&c)
	}
	return c
}

// Init implements Initializer interface.
func (cfg OTLPConfig) Init(ctx context.Context) (trace.TracerProvider, error) {
	res, err := newResource(ctx, cfg.Common)
	if err != nil {
		return nil, err
	}

	exporterOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithHeaders(cfg.Headers))
	}

	// the connection is established lazily so an unreachable collector
	// does not block startup
	traceExporter, err := otlptracegrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(traceExporter),
	)
	return tp, nil
}
