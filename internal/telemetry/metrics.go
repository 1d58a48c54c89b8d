// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry holds the Prometheus metrics and OTel tracer shared
// across the hook workflows, in the same package-level promauto.New*
// pattern the teacher uses for its prefilter metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are process-wide counters/histograms. A hook process is
// short-lived, so these exist to be scraped by a sidecar pushgateway or
// surfaced in logs at exit rather than polled over time within one run.
var (
	HookLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "memsearch",
		Subsystem: "hooks",
		Name:      "latency_seconds",
		Help:      "End-to-end hook invocation latency by event name and exit code",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"event", "exit_code"})

	IngestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "memsearch",
		Subsystem: "ingest",
		Name:      "entries_total",
		Help:      "Entries ingested by content_type and whether embedding succeeded",
	}, []string{"content_type", "embedded"})

	SearchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "memsearch",
		Subsystem: "search",
		Name:      "latency_seconds",
		Help:      "Hybrid search latency",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})

	SearchDegradedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "memsearch",
		Subsystem: "search",
		Name:      "degraded_total",
		Help:      "Searches that fell back to lexical-only ranking",
	})

	EmbedCacheHitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "memsearch",
		Subsystem: "embed",
		Name:      "cache_total",
		Help:      "Embedding cache lookups by outcome: hit, miss, evicted",
	}, []string{"outcome"})
)
