package renderer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSurfaceOutdated is returned when the surface no longer matches the window, usually after a resize.
	// The caller should reconfigure the surface and render again.
	ErrSurfaceOutdated = errors.New("surface outdated")

	// ErrSurfaceLost is returned when the surface was lost and must be reconfigured before the next frame.
	ErrSurfaceLost = errors.New("surface lost")

	// ErrSurfaceTimeout is returned when no surface texture became available in time.
	ErrSurfaceTimeout = errors.New("surface texture acquisition timed out")

	// ErrOutOfMemory is returned when the GPU ran out of memory. It is not recoverable.
	ErrOutOfMemory = errors.New("gpu out of memory")

	// ErrDeviceLost is returned when the GPU device was lost. It is not recoverable.
	ErrDeviceLost = errors.New("gpu device lost")

	// ErrNoPipeline is returned by Render when no pipeline has been selected with UsePipeline.
	ErrNoPipeline = errors.New("no pipeline selected")

	// ErrFragmentRequired is returned when a pipeline without a fragment stage is built for the color pass.
	ErrFragmentRequired = errors.New("the color pass requires a fragment shader")

	// ErrQueueFull is returned by Enqueue when the mutation queue has no free slots.
	ErrQueueFull = errors.New("mesh mutation queue is full")

	// ErrReleased is returned by operations on a released Renderer.
	ErrReleased = errors.New("renderer has been released")
)

// StartupStage names the initialization step a StartupError occurred in.
type StartupStage string

const (
	StageSurface       StartupStage = "surface"
	StageAdapter       StartupStage = "adapter"
	StageDevice        StartupStage = "device"
	StageSurfaceConfig StartupStage = "surface-config"
	StageShader        StartupStage = "shader"
	StagePipeline      StartupStage = "pipeline"
	StageUniform       StartupStage = "uniform"
)

// StartupError is a fatal initialization failure. Startup never retries these; they describe
// an environment that cannot run the renderer.
type StartupError struct {
	Stage StartupStage
	Err   error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("renderer startup failed at %s: %v", e.Stage, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// ConfigError reports renderer state that is inconsistent with the active pipeline, such as a
// vertex buffer whose length is not a whole number of vertices.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("renderer configuration error: %s: %v", e.Reason, e.Err)
	}
	return "renderer configuration error: " + e.Reason
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsRecoverable reports whether err is a presentation condition the caller can recover from by
// reconfiguring the surface for the current window size and rendering again.
//
// Parameters:
//   - err: the error returned by Render
//
// Returns:
//   - bool: true for outdated, lost and timed out surfaces
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrSurfaceOutdated) || errors.Is(err, ErrSurfaceLost) || errors.Is(err, ErrSurfaceTimeout)
}

// checkSurfaceSize reports whether the surface can be acquired for the window's current
// framebuffer size. The wgpu bindings hand back a texture without its acquisition status, so a
// surface configured for a size other than the window's is treated as outdated before acquiring.
//
// Parameters:
//   - configured: whether the surface has been configured at least once
//   - surfaceWidth, surfaceHeight: the size the surface was last configured with
//   - windowWidth, windowHeight: the window's current framebuffer size
//
// Returns:
//   - error: an error wrapping ErrSurfaceOutdated, or nil when the sizes match
func checkSurfaceSize(configured bool, surfaceWidth, surfaceHeight, windowWidth, windowHeight int) error {
	if !configured {
		return fmt.Errorf("%w: surface has not been configured", ErrSurfaceOutdated)
	}
	if surfaceWidth != windowWidth || surfaceHeight != windowHeight {
		return fmt.Errorf("%w: surface is %dx%d, window is %dx%d",
			ErrSurfaceOutdated, surfaceWidth, surfaceHeight, windowWidth, windowHeight)
	}
	return nil
}

// classifyAcquireError maps an error raised while acquiring the surface texture onto the
// presentation error taxonomy. Only device validation errors reach this point, as
// "wgpu.(*Surface).GetCurrentTexture(): <message>", so the message text is all there is to match.
func classifyAcquireError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(strings.NewReplacer(" ", "", "_", "").Replace(err.Error()))
	switch {
	case strings.Contains(msg, "devicelost"), strings.Contains(msg, "deviceislost"):
		return fmt.Errorf("%w: %v", ErrDeviceLost, err)
	case strings.Contains(msg, "outofmemory"):
		return fmt.Errorf("%w: %v", ErrOutOfMemory, err)
	case strings.Contains(msg, "outdated"):
		return fmt.Errorf("%w: %v", ErrSurfaceOutdated, err)
	case strings.Contains(msg, "lost"):
		return fmt.Errorf("%w: %v", ErrSurfaceLost, err)
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timedout"):
		return fmt.Errorf("%w: %v", ErrSurfaceTimeout, err)
	default:
		return fmt.Errorf("failed to acquire surface texture: %w", err)
	}
}
