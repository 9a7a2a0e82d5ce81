package renderer

import (
	"github.com/Carmen-Shannon/voxels/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// WebGPU guarantees support for 1 (off) and 4; higher values are adapter-dependent.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1). This is the default.
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4x multisample anti-aliasing.
	MSAA4x MSAASampleCount = 4

	// MSAA8x enables 8x multisample anti-aliasing. Adapter-dependent.
	MSAA8x MSAASampleCount = 8

	// MSAA16x enables 16x multisample anti-aliasing. Adapter-dependent.
	MSAA16x MSAASampleCount = 16
)

// SurfaceSource is the window a GraphicsContext presents into. The window must outlive the
// context bound to it.
type SurfaceSource interface {
	// SurfaceDescriptor returns the platform-specific descriptor for creating a surface on the window.
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int
}

// Buffer is a GPU buffer owned by the GraphicsContext that created it.
type Buffer interface {
	// Size returns the buffer length in bytes.
	Size() uint64

	// Release frees the GPU buffer. It is safe to call more than once.
	Release()
}

// BindGroup is a GPU bind group owned by the GraphicsContext that created it.
type BindGroup interface {
	// Release frees the GPU bind group. It is safe to call more than once.
	Release()
}

// GraphicsContext is the exclusive owner of the GPU device, its submission queue and the
// presentation surface bound to one window.
//
// Frame recording is stateful: AcquireSurfaceTexture, BeginRenderPass, the pass commands,
// EndRenderPass, Submit and Present must be called in that order, once per frame, from the
// thread that owns the window. At most one surface texture is held between
// AcquireSurfaceTexture and Present. A failing call releases any frame state it held.
type GraphicsContext interface {
	// CreateVertexBuffer creates a vertex buffer of exactly len(data) bytes and uploads data
	// with a single queue write. A zero-length buffer is valid.
	//
	// Parameters:
	//   - label: the debug label of the buffer
	//   - data: the vertex bytes
	//
	// Returns:
	//   - Buffer: the new buffer
	//   - error: an error if the buffer could not be created
	CreateVertexBuffer(label string, data []byte) (Buffer, error)

	// CreateUniformBuffer creates a zeroed uniform buffer that can be written with WriteBuffer.
	//
	// Parameters:
	//   - label: the debug label of the buffer
	//   - size: the buffer size in bytes
	//
	// Returns:
	//   - Buffer: the new buffer
	//   - error: an error if the buffer could not be created
	CreateUniformBuffer(label string, size uint64) (Buffer, error)

	// WriteBuffer queues a write of data at the start of buf.
	//
	// Parameters:
	//   - buf: a buffer created by this context
	//   - data: the bytes to write
	//
	// Returns:
	//   - error: an error if buf was not created by this context
	WriteBuffer(buf Buffer, data []byte) error

	// CompilePipeline creates the GPU shader modules, layouts and render pipeline described by p.
	//
	// Parameters:
	//   - p: the uncompiled pipeline
	//
	// Returns:
	//   - pipeline.Pipeline: a copy of p carrying the compiled handle
	//   - error: an error if any GPU object could not be created
	CompilePipeline(p pipeline.Pipeline) (pipeline.Pipeline, error)

	// CreateUniformBindGroup binds buf to the uniform layout of the compiled pipeline p.
	//
	// Parameters:
	//   - p: a pipeline compiled by this context with a non-nil UniformLayout
	//   - buf: the uniform buffer
	//
	// Returns:
	//   - BindGroup: the new bind group
	//   - error: an error if the bind group could not be created
	CreateUniformBindGroup(p pipeline.Pipeline, buf Buffer) (BindGroup, error)

	// AcquireSurfaceTexture acquires the next presentable surface texture, blocking until one is free.
	//
	// Returns:
	//   - error: ErrSurfaceOutdated, ErrSurfaceLost or ErrSurfaceTimeout when recoverable,
	//     any other error when fatal
	AcquireSurfaceTexture() error

	// BeginRenderPass opens the frame's command encoder and begins a render pass that clears
	// the acquired texture to clear.
	//
	// Parameters:
	//   - clear: the clear color
	//
	// Returns:
	//   - error: an error if the encoder or texture view could not be created
	BeginRenderPass(clear wgpu.Color) error

	// SetPipeline binds a compiled pipeline on the open render pass.
	SetPipeline(p pipeline.Pipeline)

	// SetBindGroup binds group at index on the open render pass.
	SetBindGroup(index uint32, group BindGroup)

	// SetVertexBuffer binds buf to vertex slot 0 on the open render pass.
	SetVertexBuffer(buf Buffer)

	// Draw records one non-instanced draw of vertexCount vertices starting at vertex 0.
	Draw(vertexCount uint32)

	// EndRenderPass closes the open render pass.
	EndRenderPass()

	// Submit finishes the command encoder and submits it to the queue.
	//
	// Returns:
	//   - error: an error if the command buffer could not be finished
	Submit() error

	// Present presents the acquired surface texture and releases it.
	Present()

	// Reconfigure applies the surface configuration for a new framebuffer size. A zero width or
	// height is recorded but not applied.
	//
	// Parameters:
	//   - width: the framebuffer width in pixels
	//   - height: the framebuffer height in pixels
	//
	// Returns:
	//   - error: an error if the multisample target could not be recreated
	Reconfigure(width, height int) error

	// Size returns the framebuffer size of the last Reconfigure.
	Size() (width, height int)

	// SampleCount returns the multisample count of the render target.
	SampleCount() uint32

	// Release frees the surface, device, queue, adapter and instance in that order.
	// The window is not released.
	Release()
}

// releaser is implemented by compiled pipeline handles.
type releaser interface {
	Release()
}
