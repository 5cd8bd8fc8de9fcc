package profiler

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/Carmen-Shannon/oxy-term/common"
)

const (
	// HealthyFPS is the frame rate at or above which reports are logged at info level.
	HealthyFPS = 50

	// DegradedFPS is the frame rate at or above which reports are logged at warn level.
	// Anything lower is logged at error level.
	DegradedFPS = 30
)

// Profiler turns the per-second frame count from the frame clock into a diagnostic log line
// with heap and GC statistics. It has no effect on control flow.
type Profiler struct {
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	reports        int
}

// NewProfiler creates a new Profiler.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		memStats: runtime.MemStats{},
	}
}

// Level maps a frame rate onto the log level used to report it.
//
// Parameters:
//   - fps: frames counted in the last second
//
// Returns:
//   - slog.Level: info for healthy, warn for degraded, error for anything slower
func Level(fps int) slog.Level {
	switch {
	case fps >= HealthyFPS:
		return slog.LevelInfo
	case fps >= DegradedFPS:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// Report logs one second's worth of frame statistics.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory.
//
// Parameters:
//   - fps: frames counted in the last one-second window
func (p *Profiler) Report(fps int) {
	runtime.ReadMemStats(&p.memStats)
	// Alloc: Bytes of allocated heap objects (live memory)
	// TotalAlloc: Cumulative bytes allocated for heap objects (tracks churn)
	// Sys: Total bytes of memory obtained from the OS
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocRateMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of last 256 GC pauses
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	common.Logger().Log(context.Background(), Level(fps), "frame stats",
		slog.String("component", "profiler"),
		slog.Int("fps", fps),
		slog.Float64("heapMB", allocMB),
		slog.Float64("allocRateMBps", allocRateMB),
		slog.Uint64("gc", uint64(gcCount)),
		slog.Uint64("gcLastPauseUs", lastPauseUs),
		slog.Uint64("gcMaxPauseUs", maxPauseUs),
		slog.Float64("sysMB", sysMB),
	)

	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.reports++
}

// Reports returns how many reports have been logged.
func (p *Profiler) Reports() int {
	return p.reports
}
