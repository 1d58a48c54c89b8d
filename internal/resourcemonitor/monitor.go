// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package resourcemonitor implements the §9 Open Question "resource
// monitor": a lightweight RAM/CPU read, cached for 8 seconds, that gates
// whether pre-tool-use context injection runs at all. It has no effect on
// any other workflow.
package resourcemonitor

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Status is the three-value health gate pre-tool-use checks.
type Status string

const (
	StatusHealthy  Status = "HEALTHY"
	StatusWarning  Status = "WARNING"
	StatusCritical Status = "CRITICAL"
)

// CacheTTL is how long a Reading stays valid before the next Check call
// re-samples the host (§9: "under an 8-second cache").
const CacheTTL = 8 * time.Second

// Default thresholds, expressed as fractions of capacity. Not named by the
// spec text as numbers; recorded here as the module's one open choice.
const (
	DefaultCPUWarning      = 0.80
	DefaultCPUCritical     = 0.95
	DefaultMemWarning      = 0.80
	DefaultMemCritical     = 0.95
	DefaultProcessMemBytes = 512 * 1024 * 1024 // per-process RSS critical floor
)

// Reading is one sampled snapshot of host resource pressure.
type Reading struct {
	CPUPercent      float64
	MemPercent      float64
	ProcessRSSBytes uint64
	Status          Status
	SampledAt       time.Time
}

// Monitor samples host RAM/CPU/process memory and caches the result for
// CacheTTL, matching the teacher's warm/cache-then-reuse shape used
// elsewhere in this module (ToolEmbeddingCache) but applied to host
// metrics instead of embeddings.
type Monitor struct {
	mu       sync.Mutex
	cached   Reading
	cachedAt time.Time
}

// New constructs a Monitor with an empty cache.
func New() *Monitor {
	return &Monitor{}
}

// Check returns the current Status, sampling the host only if the cached
// Reading is older than CacheTTL.
func (m *Monitor) Check(ctx context.Context) (Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.cachedAt) < CacheTTL {
		return m.cached, nil
	}

	reading, err := sample(ctx)
	if err != nil {
		return Reading{}, err
	}
	m.cached = reading
	m.cachedAt = reading.SampledAt
	return reading, nil
}

func sample(ctx context.Context) (Reading, error) {
	now := time.Now()

	cpuPercents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return Reading{}, err
	}
	var cpuPct float64
	if len(cpuPercents) > 0 {
		cpuPct = cpuPercents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Reading{}, err
	}

	var rss uint64
	if proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if info, err := proc.MemoryInfoWithContext(ctx); err == nil && info != nil {
			rss = info.RSS
		}
	}

	reading := Reading{
		CPUPercent:      cpuPct,
		MemPercent:      vm.UsedPercent,
		ProcessRSSBytes: rss,
		SampledAt:       now,
	}
	reading.Status = classify(reading)
	return reading, nil
}

func classify(r Reading) Status {
	if r.CPUPercent >= DefaultCPUCritical*100 || r.MemPercent >= DefaultMemCritical*100 ||
		r.ProcessRSSBytes >= DefaultProcessMemBytes {
		return StatusCritical
	}
	if r.CPUPercent >= DefaultCPUWarning*100 || r.MemPercent >= DefaultMemWarning*100 {
		return StatusWarning
	}
	return StatusHealthy
}
