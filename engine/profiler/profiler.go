package profiler

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/voxels/common"
)

// Stats is one profiler report covering the frames since the previous report.
type Stats struct {
	FPS          float64
	Frames       int
	HeapMB       float64
	AllocRateMBs float64
	GCCount      uint32
	LastPauseUs  uint64
	MaxPauseUs   uint64
	SysMB        float64
	VertexCount  uint32
}

// Profiler tracks frame rate and memory statistics for performance monitoring.
// Reports are logged at Info level through common.Logger at a fixed interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	now            func() time.Time
	last           Stats
}

// NewProfiler creates a new Profiler with a one second update interval.
//
// Parameters:
//   - options: functional options applied after the defaults
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// ProfilerOption is a functional option for configuring a Profiler.
type ProfilerOption func(*Profiler)

// WithInterval sets how often the profiler reports. Non-positive values are ignored.
func WithInterval(d time.Duration) ProfilerOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithNow replaces the time source.
func WithNow(now func() time.Time) ProfilerOption {
	return func(p *Profiler) {
		if now != nil {
			p.now = now
		}
	}
}

// Tick should be called once per rendered frame. When the update interval has elapsed it
// gathers FPS, heap usage, allocation rate and GC pauses and logs them.
//
// Parameters:
//   - vertexCount: the number of vertices drawn in the frame, reported as-is
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(vertexCount uint32) bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	s := Stats{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		Frames:      p.frameCount,
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:       float64(p.memStats.Sys) / 1024 / 1024,
		GCCount:     p.memStats.NumGC,
		VertexCount: vertexCount,
	}
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	s.AllocRateMBs = float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	if s.GCCount > 0 {
		// PauseNs is a ring of the last 256 pauses.
		s.LastPauseUs = p.memStats.PauseNs[(s.GCCount+255)%256] / 1000
		startIdx := p.lastGCCount
		if s.GCCount-startIdx > 256 {
			startIdx = s.GCCount - 256
		}
		for i := startIdx; i < s.GCCount; i++ {
			s.MaxPauseUs = max(s.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	common.Logger().Info("profiler",
		slog.Float64("fps", s.FPS),
		slog.Int("frames", s.Frames),
		slog.Uint64("vertices", uint64(s.VertexCount)),
		slog.Float64("heap_mb", s.HeapMB),
		slog.Float64("alloc_rate_mb_s", s.AllocRateMBs),
		slog.Uint64("gc", uint64(s.GCCount)),
		slog.Uint64("gc_last_pause_us", s.LastPauseUs),
		slog.Uint64("gc_max_pause_us", s.MaxPauseUs),
		slog.Float64("sys_mb", s.SysMB),
	)

	p.last = s
	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = s.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Last returns the most recent report. The zero value is returned before the first report.
func (p *Profiler) Last() Stats {
	return p.last
}
