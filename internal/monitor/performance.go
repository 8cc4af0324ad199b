package monitor

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"
)

// Stats is one sample of process and scan health.
type Stats struct {
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryPercent float64   `json:"memory_percent"`
	MemoryUsedMB  uint64    `json:"memory_used_mb"`
	Goroutines    int       `json:"goroutines"`
	ScansRun      int64     `json:"scans_run"`
	LastScanAt    time.Time `json:"last_scan_at"`
	LastScanTime  float64   `json:"last_scan_seconds"`
	SampledAt     time.Time `json:"sampled_at"`
}

// Monitor samples system load and tracks scan counters for the health
// endpoint and periodic status logs.
type Monitor struct {
	mu       sync.RWMutex
	scans    int64
	lastScan time.Time
	lastDur  time.Duration
	logger   *logrus.Logger
}

// NewMonitor creates a performance monitor.
func NewMonitor(logger *logrus.Logger) *Monitor {
	return &Monitor{logger: logger}
}

// RecordScan notes a completed scan and its duration.
func (m *Monitor) RecordScan(dur time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans++
	m.lastScan = time.Now()
	m.lastDur = dur
}

// Sample returns current stats. CPU sampling failures degrade to zero
// rather than failing the health check.
func (m *Monitor) Sample(ctx context.Context) Stats {
	stats := Stats{
		Goroutines: runtime.NumGoroutine(),
		SampledAt:  time.Now(),
	}

	if cpuPercent, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(cpuPercent) > 0 {
		stats.CPUPercent = cpuPercent[0]
	}
	if memInfo, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.MemoryPercent = memInfo.UsedPercent
		stats.MemoryUsedMB = memInfo.Used / 1024 / 1024
	}

	m.mu.RLock()
	stats.ScansRun = m.scans
	stats.LastScanAt = m.lastScan
	stats.LastScanTime = m.lastDur.Seconds()
	m.mu.RUnlock()

	return stats
}

// LogPeriodically emits a status line on the given interval until the
// context is canceled.
func (m *Monitor) LogPeriodically(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := m.Sample(ctx)
			m.logger.WithFields(logrus.Fields{
				"cpu_percent": stats.CPUPercent,
				"mem_percent": stats.MemoryPercent,
				"goroutines":  stats.Goroutines,
				"scans_run":   stats.ScansRun,
			}).Info("Performance sample")
		}
	}
}
