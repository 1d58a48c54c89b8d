// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Tracer is the package-level tracer every hook workflow span derives
// from, mirroring the teacher's prefilterTracer package var.
var Tracer = otel.Tracer("memsearch.hooks")

// Provider wraps the SDK TracerProvider so main() can shut it down on
// every exit path, matching §4.5's "no background threads that outlive
// the process" within a short-lived hook invocation.
type Provider struct {
	tp *trace.TracerProvider
}

// NewProvider constructs a minimal SDK TracerProvider with no exporter
// configured by default; callers that want spans shipped somewhere attach
// an exporter via options before calling this from cmd/memsearch-hook's
// main. Exporter wiring is deliberately left to the caller: this hook
// runtime has no mandated backend.
func NewProvider(opts ...trace.TracerProviderOption) *Provider {
	tp := trace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	return &Provider{tp: tp}
}

// Shutdown flushes and releases the provider's resources. Safe to call
// even if NewProvider was never invoked with a real exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	if err := p.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("telemetry: shutdown tracer provider: %w", err)
	}
	return nil
}

// StartSpan is a thin convenience wrapper kept next to Tracer so call
// sites don't need to import the otel/trace package directly just to
// start a span.
func StartSpan(ctx context.Context, name string) (context.Context, oteltrace.Span) {
	return Tracer.Start(ctx, name)
}
