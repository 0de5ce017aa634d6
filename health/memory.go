package health

import (
	"context"
	"fmt"
	"runtime"
)

// MemoryProbeConfig configures the memory probe.
type MemoryProbeConfig struct {
	// WarningThreshold is the heap usage ratio reported as degraded.
	// Value should be between 0 and 1. Default: 0.8
	WarningThreshold float64

	// CriticalThreshold is the heap usage ratio reported as unhealthy.
	// Value should be between 0 and 1. Default: 0.95
	CriticalThreshold float64

	// MaxAlloc is the heap budget in bytes. Zero uses the memory obtained from the OS.
	MaxAlloc uint64
}

// MemoryProbe reports heap usage against a budget.
type MemoryProbe struct {
	config MemoryProbeConfig
	read   func(*runtime.MemStats)
}

// NewMemoryProbe creates a memory probe, replacing out-of-range thresholds with defaults.
func NewMemoryProbe(config MemoryProbeConfig) *MemoryProbe {
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.8
	}
	if config.CriticalThreshold <= 0 || config.CriticalThreshold >= 1 {
		config.CriticalThreshold = 0.95
	}
	if config.CriticalThreshold < config.WarningThreshold {
		config.CriticalThreshold = min(config.WarningThreshold+0.1, 0.99)
	}
	return &MemoryProbe{config: config, read: runtime.ReadMemStats}
}

// Check reads runtime memory statistics.
func (m *MemoryProbe) Check(ctx context.Context, _ *CheckContext) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var stats runtime.MemStats
	m.read(&stats)

	maxAlloc := m.config.MaxAlloc
	if maxAlloc == 0 {
		maxAlloc = stats.Sys
	}
	if maxAlloc == 0 {
		return Healthy("memory stats unavailable").WithData(map[string]any{
			"alloc_bytes": stats.Alloc,
			"num_gc":      stats.NumGC,
		}), nil
	}

	ratio := float64(stats.Alloc) / float64(maxAlloc)
	data := map[string]any{
		"alloc_bytes":   stats.Alloc,
		"max_alloc":     maxAlloc,
		"usage_percent": ratio * 100,
		"heap_in_use":   stats.HeapInuse,
		"heap_objects":  stats.HeapObjects,
		"num_gc":        stats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	switch {
	case ratio >= m.config.CriticalThreshold:
		return Unhealthy(fmt.Sprintf("memory usage critical: %.1f%%", ratio*100), ErrCheckFailed).WithData(data), nil
	case ratio >= m.config.WarningThreshold:
		return Degraded(fmt.Sprintf("memory usage high: %.1f%%", ratio*100)).WithData(data), nil
	default:
		return Healthy(fmt.Sprintf("memory usage normal: %.1f%%", ratio*100)).WithData(data), nil
	}
}
