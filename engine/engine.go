package engine

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/voxels/common"
	"github.com/Carmen-Shannon/voxels/engine/profiler"
	"github.com/Carmen-Shannon/voxels/engine/renderer"
	"github.com/Carmen-Shannon/voxels/engine/window"
)

// minimizedPollInterval is how long Run sleeps between polls while the framebuffer has no area.
const minimizedPollInterval = 50 * time.Millisecond

var (
	// ErrNotConfigured is returned by Run when the engine has no window or no renderer.
	ErrNotConfigured = errors.New("engine requires a window and a renderer")

	// ErrAlreadyRunning is returned by Run when the loop is already running or has finished.
	ErrAlreadyRunning = errors.New("engine loop already started")
)

// engine implements the Engine interface.
type engine struct {
	window   window.Window
	renderer renderer.Renderer

	profiler         *profiler.Profiler
	profilingEnabled bool

	tickCallback     func(deltaTime float32)
	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	started      atomic.Bool
	teardownOnce sync.Once

	now   func() time.Time
	sleep func(time.Duration)
}

// Engine owns the window and the renderer and drives them from a single-threaded loop.
// Each iteration polls window events, runs the tick callback, then renders one frame.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the frame renderer.
	//
	// Returns:
	//   - renderer.Renderer: the renderer instance
	Renderer() renderer.Renderer

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickCallback registers the function called once per loop iteration before the frame is rendered.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds since the previous iteration
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run blocks until the window closes or a frame fails fatally. Recoverable presentation
	// errors reconfigure the surface to the current window size and the loop continues.
	// The renderer and then the window are released before Run returns.
	//
	// Returns:
	//   - error: the fatal frame error, or nil after a requested close
	Run() error

	// Quit requests the window to close. The loop exits at the next poll.
	// Safe to call multiple times.
	Quit()

	// Close releases the renderer and then the window without running the loop.
	// Run calls it on return; further calls are no-ops.
	Close()
}

// NewEngine creates a new Engine instance with the provided options.
// The resize callback of the window is wired to the renderer.
//
// Parameters:
//   - options: functional options for engine configuration (window, renderer, profiling, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		profiler: profiler.NewProfiler(),
		now:      time.Now,
		sleep:    time.Sleep,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			if e.renderer == nil {
				return
			}
			if err := e.renderer.Resize(width, height); err != nil {
				common.Logger().Warn("resize failed", "width", width, "height", height, "err", err)
			}
		})
		e.window.SetCloseCallback(func() {
			common.Logger().Info("window close requested")
		})
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Run() error {
	if e.window == nil || e.renderer == nil {
		return ErrNotConfigured
	}
	if e.started.Swap(true) {
		return ErrAlreadyRunning
	}
	defer e.Close()

	lastFrame := e.now()
	for e.window.PollEvents() {
		if e.window.Width() == 0 || e.window.Height() == 0 {
			e.sleep(minimizedPollInterval)
			lastFrame = e.now()
			continue
		}

		frameStart := e.now()
		dt := float32(frameStart.Sub(lastFrame).Seconds())
		lastFrame = frameStart

		if e.tickCallback != nil {
			e.tickCallback(dt)
		}

		if err := e.renderer.Render(); err != nil {
			if !renderer.IsRecoverable(err) {
				common.Logger().Error("frame failed", "err", err)
				return err
			}
			if rerr := e.renderer.Resize(e.window.Width(), e.window.Height()); rerr != nil {
				common.Logger().Error("surface reconfigure failed", "err", rerr)
				return rerr
			}
			continue
		}

		if e.profilingEnabled && e.profiler != nil {
			e.profiler.Tick(e.renderer.FrameStats().VertexCount)
		}

		// Frame rate limiting
		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - e.now().Sub(frameStart); remaining > 0 {
				e.sleep(remaining)
			}
		}
	}
	return nil
}

// Close releases GPU resources before the window that backs their surface.
func (e *engine) Close() {
	e.teardownOnce.Do(func() {
		if e.renderer != nil {
			e.renderer.Release()
		}
		if e.window == nil {
			return
		}
		if err := e.window.Close(); err != nil && !errors.Is(err, window.ErrNotInitialized) {
			common.Logger().Warn("window close failed", "err", err)
		}
	})
}

func (e *engine) Quit() {
	if e.window != nil {
		e.window.RequestClose()
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickCallback registers the function called each loop iteration.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit = frameDuration(fps)
}

// frameDuration converts a frame rate cap into the minimum frame duration.
func frameDuration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
