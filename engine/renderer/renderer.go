package renderer

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/voxels/common"
	"github.com/Carmen-Shannon/voxels/engine/mesh"
	"github.com/Carmen-Shannon/voxels/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/voxels/engine/renderer/shader"
	"github.com/Carmen-Shannon/voxels/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

// DefaultClearColor is the background color each frame is cleared to unless WithClearColor is used.
var DefaultClearColor = wgpu.Color{R: 0.1, G: 0.2, B: 0.3, A: 1.0}

const defaultMutationQueueSize = 64

// FrameStats is a snapshot of renderer counters.
type FrameStats struct {
	// Frames is the number of frames presented.
	Frames uint64

	// Rebuilds is the number of combined vertex buffer rebuilds.
	Rebuilds uint64

	// VertexCount is the vertex count of the last draw call.
	VertexCount uint32

	// Elapsed is the time uniform value of the last frame, in seconds.
	Elapsed float32
}

// cachedPipeline is a compiled pipeline together with its uniform bind group.
type cachedPipeline struct {
	pipeline  pipeline.Pipeline
	bindGroup BindGroup
}

func (c *cachedPipeline) release() {
	if c.bindGroup != nil {
		c.bindGroup.Release()
		c.bindGroup = nil
	}
	if h, ok := c.pipeline.Handle().(releaser); ok {
		h.Release()
	}
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	ctx           GraphicsContext
	pipelineCache map[string]*cachedPipeline
	active        *cachedPipeline

	meshes     mesh.Collection
	meshBuffer *MeshBuffer
	mutations  chan func(mesh.Collection)

	uniform    *uniformBinding
	clearColor wgpu.Color
	stats      FrameStats
	released   atomic.Bool

	// Pre-creation config collected from builder options
	updater           uniform.Updater
	mutationQueueSize int
}

// Renderer draws a mesh collection with one cached pipeline per frame.
//
// The renderer owns the GraphicsContext, the combined vertex buffer built from its mesh
// collection, the time uniform buffer, and every pipeline it compiles. Pipelines are cached by a
// hash of their shader configs and fixed-function state, so building an identical configuration
// twice returns the cached pipeline.
//
// All methods except Enqueue must be called from the thread that owns the window.
type Renderer interface {
	// BuildPipeline loads and compiles the shader pair and fixed-function state into a Pipeline,
	// or returns the cached Pipeline for an identical configuration. The sample count defaults
	// to the GraphicsContext's. The first pipeline built becomes the active pipeline.
	//
	// Parameters:
	//   - vertex: the vertex shader config
	//   - fragment: the fragment shader config, required for the color pass
	//   - opts: variadic list of PipelineBuilderOption functions
	//
	// Returns:
	//   - pipeline.Pipeline: the compiled pipeline
	//   - error: a *StartupError if a shader failed to load or the pipeline could not be built
	BuildPipeline(vertex shader.ShaderConfig, fragment *shader.ShaderConfig, opts ...pipeline.PipelineBuilderOption) (pipeline.Pipeline, error)

	// Pipeline retrieves the cached Pipeline associated with the given key.
	//
	// Parameters:
	//   - key: the pipeline key
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// Pipelines retrieves a copy of the pipeline cache.
	//
	// Returns:
	//   - map[string]pipeline.Pipeline: pipeline keys to their compiled Pipelines
	Pipelines() map[string]pipeline.Pipeline

	// UsePipeline selects the cached pipeline used by Render.
	//
	// Parameters:
	//   - key: the pipeline key
	//
	// Returns:
	//   - error: an error if no pipeline is cached under key
	UsePipeline(key string) error

	// Meshes returns the mesh collection drawn each frame.
	//
	// Returns:
	//   - mesh.Collection: the collection
	Meshes() mesh.Collection

	// Enqueue schedules fn to mutate the mesh collection on the render thread at the start of the
	// next Render. It is safe to call from any goroutine and never blocks.
	//
	// Parameters:
	//   - fn: the mutation
	//
	// Returns:
	//   - error: ErrQueueFull when the queue has no free slot, ErrReleased after Release
	Enqueue(fn func(mesh.Collection)) error

	// Render draws one frame: apply queued mutations, advance and upload the time uniform,
	// rebuild the combined vertex buffer if the collection is dirty, then acquire, encode,
	// submit and present. Nothing is drawn while the surface has a zero size.
	//
	// Returns:
	//   - error: a recoverable presentation error (see IsRecoverable), a *ConfigError, or a fatal error
	Render() error

	// Resize reconfigures the surface for a new framebuffer size.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: an error if the surface could not be reconfigured
	Resize(width, height int) error

	// MeshBuffer returns the current combined vertex buffer.
	//
	// Returns:
	//   - *MeshBuffer: the buffer, or nil before the first frame
	MeshBuffer() *MeshBuffer

	// SetClearColor sets the color each frame is cleared to.
	//
	// Parameters:
	//   - color: the clear color
	SetClearColor(color wgpu.Color)

	// FrameStats returns a snapshot of the renderer counters.
	//
	// Returns:
	//   - FrameStats: the counters
	FrameStats() FrameStats

	// Release frees every pipeline and buffer, then the GraphicsContext. The window is not released.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer that draws through ctx and takes ownership of it.
//
// Parameters:
//   - ctx: the initialized GraphicsContext
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the new renderer
//   - error: a *StartupError if the time uniform buffer could not be created
func NewRenderer(ctx GraphicsContext, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:                &sync.Mutex{},
		ctx:               ctx,
		pipelineCache:     make(map[string]*cachedPipeline),
		clearColor:        DefaultClearColor,
		mutationQueueSize: defaultMutationQueueSize,
	}
	for _, opt := range options {
		opt(r)
	}

	if r.meshes == nil {
		r.meshes = mesh.NewCollection()
	}
	if r.updater == nil {
		r.updater = uniform.NewUpdater()
	}
	r.mutations = make(chan func(mesh.Collection), max(r.mutationQueueSize, 1))

	u, err := newUniformBinding(ctx, r.updater)
	if err != nil {
		return nil, &StartupError{Stage: StageUniform, Err: err}
	}
	r.uniform = u
	return r, nil
}

func (r *renderer) BuildPipeline(vertex shader.ShaderConfig, fragment *shader.ShaderConfig, opts ...pipeline.PipelineBuilderOption) (pipeline.Pipeline, error) {
	if r.released.Load() {
		return nil, ErrReleased
	}
	if fragment == nil {
		return nil, &StartupError{Stage: StagePipeline, Err: ErrFragmentRequired}
	}

	state := pipeline.NewState(append([]pipeline.PipelineBuilderOption{pipeline.WithSampleCount(r.ctx.SampleCount())}, opts...)...)
	if state.SampleCount != r.ctx.SampleCount() {
		return nil, &StartupError{Stage: StagePipeline, Err: fmt.Errorf("%w: pipeline uses %d samples, render target has %d",
			pipeline.ErrInvalidSampleCount, state.SampleCount, r.ctx.SampleCount())}
	}

	key := pipeline.Key(vertex, fragment, state)
	r.mu.Lock()
	cached, ok := r.pipelineCache[key]
	r.mu.Unlock()
	if ok {
		common.Logger().Debug("pipeline cache hit", "key", key)
		return cached.pipeline, nil
	}

	vs, fs, err := shader.LoadPair(vertex, fragment)
	if err != nil {
		return nil, &StartupError{Stage: StageShader, Err: err}
	}
	p, err := pipeline.NewPipeline(vs, fs, state)
	if err != nil {
		return nil, &StartupError{Stage: StagePipeline, Err: err}
	}
	compiled, err := r.ctx.CompilePipeline(p)
	if err != nil {
		return nil, &StartupError{Stage: StagePipeline, Err: err}
	}

	entry := &cachedPipeline{pipeline: compiled}
	if compiled.UniformLayout() != nil {
		entry.bindGroup, err = r.ctx.CreateUniformBindGroup(compiled, r.uniform.buffer)
		if err != nil {
			entry.release()
			return nil, &StartupError{Stage: StagePipeline, Err: err}
		}
	}

	r.mu.Lock()
	r.pipelineCache[key] = entry
	if r.active == nil {
		r.active = entry
	}
	r.mu.Unlock()

	common.Logger().Info("pipeline built",
		"key", key,
		"vertex", vertex.DisplayLabel(),
		"fragment", fragment.DisplayLabel(),
		"uniform", entry.bindGroup != nil,
	)
	return compiled, nil
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.pipelineCache[key]; ok {
		return entry.pipeline
	}
	return nil
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()

	pipelines := make(map[string]pipeline.Pipeline, len(r.pipelineCache))
	for key, entry := range r.pipelineCache {
		pipelines[key] = entry.pipeline
	}
	return pipelines
}

func (r *renderer) UsePipeline(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.pipelineCache[key]
	if !ok {
		return fmt.Errorf("%w: no pipeline cached under key %q", ErrNoPipeline, key)
	}
	r.active = entry
	return nil
}

func (r *renderer) Meshes() mesh.Collection {
	return r.meshes
}

func (r *renderer) Enqueue(fn func(mesh.Collection)) error {
	if r.released.Load() {
		return ErrReleased
	}
	select {
	case r.mutations <- fn:
		return nil
	default:
		return ErrQueueFull
	}
}

func (r *renderer) Render() error {
	if r.released.Load() {
		return ErrReleased
	}
	r.drainMutations()

	if w, h := r.ctx.Size(); w <= 0 || h <= 0 {
		return nil
	}

	r.mu.Lock()
	active := r.active
	r.mu.Unlock()
	if active == nil {
		return &ConfigError{Reason: "render called before a pipeline was built", Err: ErrNoPipeline}
	}

	if err := r.uniform.upload(r.ctx); err != nil {
		return err
	}

	if r.meshBuffer == nil || r.meshes.Dirty() {
		rebuilt, err := RebuildMeshBuffer(r.ctx, r.meshes, r.meshBuffer)
		if err != nil {
			return err
		}
		r.meshBuffer = rebuilt
		r.stats.Rebuilds++
	}
	if err := validateMeshBuffer(r.meshBuffer, active.pipeline.VertexLayout()); err != nil {
		return err
	}

	if err := r.ctx.AcquireSurfaceTexture(); err != nil {
		if IsRecoverable(err) {
			common.Logger().Warn("surface texture unavailable, reconfigure required", "err", err)
		}
		return err
	}
	if err := r.ctx.BeginRenderPass(r.clearColor); err != nil {
		return err
	}
	r.ctx.SetPipeline(active.pipeline)
	if active.bindGroup != nil {
		r.ctx.SetBindGroup(pipeline.UniformGroup, active.bindGroup)
	}
	r.ctx.SetVertexBuffer(r.meshBuffer.Buffer)
	r.ctx.Draw(r.meshBuffer.VertexCount)
	r.ctx.EndRenderPass()
	if err := r.ctx.Submit(); err != nil {
		return err
	}
	r.ctx.Present()

	r.stats.Frames++
	r.stats.VertexCount = r.meshBuffer.VertexCount
	r.stats.Elapsed = r.uniform.current.Elapsed
	return nil
}

func (r *renderer) Resize(width, height int) error {
	if r.released.Load() {
		return ErrReleased
	}
	return r.ctx.Reconfigure(width, height)
}

func (r *renderer) MeshBuffer() *MeshBuffer {
	return r.meshBuffer
}

func (r *renderer) SetClearColor(color wgpu.Color) {
	r.clearColor = color
}

func (r *renderer) FrameStats() FrameStats {
	return r.stats
}

func (r *renderer) Release() {
	if r.released.Swap(true) {
		return
	}

	r.mu.Lock()
	for _, entry := range r.pipelineCache {
		entry.release()
	}
	clear(r.pipelineCache)
	r.active = nil
	r.mu.Unlock()

	r.meshBuffer.Release()
	r.meshBuffer = nil
	r.uniform.release()
	r.ctx.Release()
	common.Logger().Info("renderer released")
}

// drainMutations applies every queued mutation without blocking.
func (r *renderer) drainMutations() {
	for {
		select {
		case fn := <-r.mutations:
			fn(r.meshes)
		default:
			return
		}
	}
}

// validateMeshBuffer checks that the combined vertex buffer holds a whole number of vertices of
// the pipeline's stride and that the count matches the draw range.
func validateMeshBuffer(buf *MeshBuffer, layout wgpu.VertexBufferLayout) error {
	size := buf.Buffer.Size()
	stride := layout.ArrayStride
	if stride == 0 || size%stride != 0 || size/stride != uint64(buf.VertexCount) {
		return &ConfigError{Reason: fmt.Sprintf("vertex buffer of %d bytes does not hold %d vertices of stride %d",
			size, buf.VertexCount, stride)}
	}
	return nil
}
