package engine

import (
	"fmt"

	"github.com/Carmen-Shannon/voxels/common"
	"github.com/Carmen-Shannon/voxels/engine/config"
	"github.com/Carmen-Shannon/voxels/engine/renderer"
	"github.com/Carmen-Shannon/voxels/engine/window"
)

// New opens the window, initializes the graphics context, creates the renderer and builds the
// configured pipeline. On failure everything created so far is released in reverse order.
// Options are applied after the ones derived from cfg.
//
// Must be called from the main goroutine; the window and the GPU surface are bound to it.
//
// Parameters:
//   - cfg: a validated configuration
//   - options: additional engine options (tick callback, profiler, etc.)
//
// Returns:
//   - Engine: an engine ready to Run
//   - error: the first startup failure, a *renderer.StartupError for GPU stages
func New(cfg config.Config, options ...EngineBuilderOption) (Engine, error) {
	contextOptions, err := cfg.GraphicsContextOptions()
	if err != nil {
		return nil, err
	}
	pipelineOptions, err := cfg.PipelineOptions()
	if err != nil {
		return nil, err
	}

	win, err := window.NewWindow(cfg.WindowOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to open window: %w", err)
	}

	ctx, err := renderer.NewGraphicsContext(win, contextOptions...)
	if err != nil {
		win.Close()
		return nil, err
	}

	r, err := renderer.NewRenderer(ctx, cfg.RendererOptions()...)
	if err != nil {
		ctx.Release()
		win.Close()
		return nil, err
	}

	p, err := r.BuildPipeline(cfg.Shaders.Vertex, &cfg.Shaders.Fragment, pipelineOptions...)
	if err != nil {
		r.Release()
		win.Close()
		return nil, err
	}
	common.Logger().Info("engine ready", "pipeline", p.Key(), "width", win.Width(), "height", win.Height())

	base := []EngineBuilderOption{
		WithWindow(win),
		WithRenderer(r),
		WithProfiling(cfg.Profiling),
		WithRenderFrameLimit(cfg.FrameLimit),
	}
	return NewEngine(append(base, options...)...), nil
}
