package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/voxels/common"
	"github.com/Carmen-Shannon/voxels/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/voxels/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuGraphicsContext struct {
	mu *sync.Mutex

	window SurfaceSource

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	alphaMode     wgpu.CompositeAlphaMode
	presentMode   wgpu.PresentMode
	sampleCount   MSAASampleCount
	width, height int
	configured    bool

	msaaTexture          *wgpu.Texture
	msaaTextureView      *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor

	// Frame state between AcquireSurfaceTexture and Present
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
}

// wgpuBuffer wraps a GPU buffer created by a wgpuGraphicsContext.
type wgpuBuffer struct {
	buf  *wgpu.Buffer
	size uint64
}

func (b *wgpuBuffer) Size() uint64 {
	return b.size
}

func (b *wgpuBuffer) Release() {
	if b.buf != nil {
		b.buf.Release()
		b.buf = nil
	}
}

// wgpuBindGroup wraps a GPU bind group created by a wgpuGraphicsContext.
type wgpuBindGroup struct {
	group *wgpu.BindGroup
}

func (g *wgpuBindGroup) Release() {
	if g.group != nil {
		g.group.Release()
		g.group = nil
	}
}

// wgpuPipelineHandle holds the GPU objects behind a compiled pipeline.
type wgpuPipelineHandle struct {
	render           *wgpu.RenderPipeline
	layout           *wgpu.PipelineLayout
	bindGroupLayouts []*wgpu.BindGroupLayout
	modules          []*wgpu.ShaderModule
}

func (h *wgpuPipelineHandle) Release() {
	if h.render != nil {
		h.render.Release()
		h.render = nil
	}
	if h.layout != nil {
		h.layout.Release()
		h.layout = nil
	}
	for _, l := range h.bindGroupLayouts {
		l.Release()
	}
	h.bindGroupLayouts = nil
	for _, m := range h.modules {
		m.Release()
	}
	h.modules = nil
}

var _ GraphicsContext = &wgpuGraphicsContext{}

// NewGraphicsContext binds a WebGPU device and presentation surface to the window.
//
// It creates an instance and a surface from the window's native handle, selects a
// high-performance adapter compatible with that surface, requests a device with the default
// limits and no optional features, and configures the surface from the adapter's capabilities
// and the window's framebuffer size. The calling goroutine is locked to its OS thread, which
// must be the thread that owns the window.
//
// Parameters:
//   - window: the window to present into
//   - opts: variadic list of GraphicsContextOption functions
//
// Returns:
//   - GraphicsContext: the initialized context
//   - error: a *StartupError naming the failed stage
func NewGraphicsContext(window SurfaceSource, opts ...GraphicsContextOption) (GraphicsContext, error) {
	runtime.LockOSThread()

	cfg := defaultGraphicsContextConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	g := &wgpuGraphicsContext{
		mu:          &sync.Mutex{},
		window:      window,
		instance:    wgpu.CreateInstance(nil),
		sampleCount: cfg.sampleCount,
	}

	desc := window.SurfaceDescriptor()
	if desc == nil {
		g.Release()
		return nil, &StartupError{Stage: StageSurface, Err: errors.New("window has no native surface descriptor")}
	}
	g.surface = g.instance.CreateSurface(desc)
	if g.surface == nil {
		g.Release()
		return nil, &StartupError{Stage: StageSurface, Err: errors.New("failed to create surface")}
	}

	adapter, err := g.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference:      wgpu.PowerPreferenceHighPerformance,
		ForceFallbackAdapter: cfg.forceFallbackAdapter,
		CompatibleSurface:    g.surface,
	})
	if err != nil {
		g.Release()
		return nil, &StartupError{Stage: StageAdapter, Err: err}
	}
	g.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		g.Release()
		return nil, &StartupError{Stage: StageDevice, Err: err}
	}
	g.device = device
	g.queue = device.GetQueue()

	capabilities := g.surface.GetCapabilities(g.adapter)
	if len(capabilities.Formats) == 0 || len(capabilities.AlphaModes) == 0 {
		g.Release()
		return nil, &StartupError{Stage: StageSurfaceConfig, Err: errors.New("surface reports no supported format for this adapter")}
	}
	g.surfaceFormat = capabilities.Formats[0]
	g.alphaMode = capabilities.AlphaModes[0]
	g.presentMode = wgpu.PresentModeFifo
	if cfg.presentMode == PresentModeUncapped && slices.Contains(capabilities.PresentModes, wgpu.PresentModeImmediate) {
		g.presentMode = wgpu.PresentModeImmediate
	}

	if err := g.Reconfigure(window.Width(), window.Height()); err != nil {
		g.Release()
		return nil, &StartupError{Stage: StageSurfaceConfig, Err: err}
	}

	common.Logger().Info("graphics context ready",
		"format", g.surfaceFormat,
		"presentMode", g.presentMode,
		"sampleCount", uint32(g.sampleCount),
		"width", g.width,
		"height", g.height,
		"fallbackAdapter", cfg.forceFallbackAdapter,
	)
	return g, nil
}

func (g *wgpuGraphicsContext) Reconfigure(width, height int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.width, g.height = width, height
	if width <= 0 || height <= 0 {
		common.Logger().Debug("surface reconfigure deferred for zero size", "width", width, "height", height)
		return nil
	}

	g.surface.Configure(g.adapter, g.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      g.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: g.presentMode,
		AlphaMode:   g.alphaMode,
	})
	g.configured = true

	msaaEnabled := g.sampleCount > 1
	if msaaEnabled {
		// The pass draws into the MSAA texture and resolves into the swapchain view. The new
		// target replaces the old one only once both objects exist.
		msaaTexture, err := g.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: "MSAA Texture",
			Size: wgpu.Extent3D{
				Width:              uint32(width),
				Height:             uint32(height),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   uint32(g.sampleCount),
			Dimension:     wgpu.TextureDimension2D,
			Format:        g.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			g.invalidateTarget()
			return fmt.Errorf("failed to create MSAA texture: %w", err)
		}
		view, err := msaaTexture.CreateView(nil)
		if err != nil {
			msaaTexture.Release()
			g.invalidateTarget()
			return fmt.Errorf("failed to create MSAA texture view: %w", err)
		}
		g.releaseMSAATarget()
		g.msaaTexture = msaaTexture
		g.msaaTextureView = view
	}

	storeOp := wgpu.StoreOpStore
	if msaaEnabled {
		storeOp = wgpu.StoreOpDiscard
	}
	g.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		Label: "Main Render Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    g.msaaTextureView, // nil when MSAA is off; set in BeginRenderPass
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: storeOp,
			},
		},
	}

	common.Logger().Debug("surface configured", "width", width, "height", height)
	return nil
}

func (g *wgpuGraphicsContext) Size() (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.width, g.height
}

func (g *wgpuGraphicsContext) SampleCount() uint32 {
	return uint32(g.sampleCount)
}

func (g *wgpuGraphicsContext) CreateVertexBuffer(label string, data []byte) (Buffer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	buf, err := g.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex buffer %q: %w", label, err)
	}
	if len(data) > 0 {
		g.queue.WriteBuffer(buf, 0, data)
	}
	return &wgpuBuffer{buf: buf, size: uint64(len(data))}, nil
}

func (g *wgpuGraphicsContext) CreateUniformBuffer(label string, size uint64) (Buffer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	buf, err := g.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create uniform buffer %q: %w", label, err)
	}
	return &wgpuBuffer{buf: buf, size: size}, nil
}

func (g *wgpuGraphicsContext) WriteBuffer(buf Buffer, data []byte) error {
	b, ok := buf.(*wgpuBuffer)
	if !ok || b.buf == nil {
		return fmt.Errorf("buffer %T was not created by this context", buf)
	}
	if len(data) == 0 {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.queue.WriteBuffer(b.buf, 0, data)
	return nil
}

func (g *wgpuGraphicsContext) CompilePipeline(p pipeline.Pipeline) (pipeline.Pipeline, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)
	handle := &wgpuPipelineHandle{}

	vs, err := g.device.CreateShaderModule(vertexShader.Module())
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex shader module: %w", err)
	}
	handle.modules = append(handle.modules, vs)

	var fragment *wgpu.FragmentState
	if fragmentShader != nil {
		fs, err := g.device.CreateShaderModule(fragmentShader.Module())
		if err != nil {
			handle.Release()
			return nil, fmt.Errorf("failed to create fragment shader module: %w", err)
		}
		handle.modules = append(handle.modules, fs)

		state := p.State()
		fragment = &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets: []wgpu.ColorTargetState{{
				Format:    g.surfaceFormat,
				Blend:     state.BlendState(),
				WriteMask: state.WriteMask,
			}},
		}
	}

	if desc := p.UniformLayout(); desc != nil {
		layout, err := g.device.CreateBindGroupLayout(desc)
		if err != nil {
			handle.Release()
			return nil, fmt.Errorf("failed to create uniform bind group layout: %w", err)
		}
		handle.bindGroupLayouts = append(handle.bindGroupLayouts, layout)
	}

	handle.layout, err = g.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.Key() + " Layout",
		BindGroupLayouts: handle.bindGroupLayouts,
	})
	if err != nil {
		handle.Release()
		return nil, fmt.Errorf("failed to create pipeline layout: %w", err)
	}

	state := p.State()
	handle.render, err = g.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.Key() + " Render Pipeline",
		Layout: handle.layout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    []wgpu.VertexBufferLayout{p.VertexLayout()},
		},
		Fragment: fragment,
		Primitive: wgpu.PrimitiveState{
			Topology:  state.Topology,
			FrontFace: state.FrontFace,
			CullMode:  state.CullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: state.SampleCount,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		handle.Release()
		return nil, fmt.Errorf("failed to create render pipeline: %w", err)
	}

	return p.WithHandle(handle), nil
}

func (g *wgpuGraphicsContext) CreateUniformBindGroup(p pipeline.Pipeline, buf Buffer) (BindGroup, error) {
	handle, ok := p.Handle().(*wgpuPipelineHandle)
	if !ok || len(handle.bindGroupLayouts) == 0 {
		return nil, errors.New("pipeline has no compiled uniform layout")
	}
	b, ok := buf.(*wgpuBuffer)
	if !ok || b.buf == nil {
		return nil, fmt.Errorf("buffer %T was not created by this context", buf)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	group, err := g.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Time Uniform Bind Group",
		Layout: handle.bindGroupLayouts[0],
		Entries: []wgpu.BindGroupEntry{{
			Binding: pipeline.UniformBinding,
			Buffer:  b.buf,
			Offset:  0,
			Size:    wgpu.WholeSize,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create uniform bind group: %w", err)
	}
	return &wgpuBindGroup{group: group}, nil
}

func (g *wgpuGraphicsContext) AcquireSurfaceTexture() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.frameSurface != nil {
		return errors.New("previous frame surface not yet presented")
	}
	if err := checkSurfaceSize(g.configured, g.width, g.height, g.window.Width(), g.window.Height()); err != nil {
		return err
	}

	surfaceTexture, err := g.surface.GetCurrentTexture()
	if err != nil {
		return classifyAcquireError(err)
	}
	g.frameSurface = surfaceTexture
	return nil
}

func (g *wgpuGraphicsContext) BeginRenderPass(clear wgpu.Color) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.renderPassDescriptor == nil {
		g.releaseFrame()
		return fmt.Errorf("%w: no render target for the current surface size", ErrSurfaceOutdated)
	}
	if g.frameSurface == nil {
		return errors.New("no surface texture acquired")
	}

	view, err := g.frameSurface.CreateView(nil)
	if err != nil {
		g.releaseFrame()
		return fmt.Errorf("failed to create surface texture view: %w", err)
	}
	g.frameView = view

	encoder, err := g.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "Frame Encoder"})
	if err != nil {
		g.releaseFrame()
		return fmt.Errorf("failed to create command encoder: %w", err)
	}
	g.frameEncoder = encoder

	attachment := &g.renderPassDescriptor.ColorAttachments[0]
	if g.sampleCount > 1 {
		attachment.ResolveTarget = view
	} else {
		attachment.View = view
	}
	attachment.ClearValue = clear
	g.framePass = encoder.BeginRenderPass(g.renderPassDescriptor)
	return nil
}

func (g *wgpuGraphicsContext) SetPipeline(p pipeline.Pipeline) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if handle, ok := p.Handle().(*wgpuPipelineHandle); ok && g.framePass != nil {
		g.framePass.SetPipeline(handle.render)
	}
}

func (g *wgpuGraphicsContext) SetBindGroup(index uint32, group BindGroup) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if bg, ok := group.(*wgpuBindGroup); ok && g.framePass != nil {
		g.framePass.SetBindGroup(index, bg.group, nil)
	}
}

func (g *wgpuGraphicsContext) SetVertexBuffer(buf Buffer) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if b, ok := buf.(*wgpuBuffer); ok && g.framePass != nil {
		g.framePass.SetVertexBuffer(0, b.buf, 0, wgpu.WholeSize)
	}
}

func (g *wgpuGraphicsContext) Draw(vertexCount uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.framePass != nil {
		g.framePass.Draw(vertexCount, 1, 0, 0)
	}
}

func (g *wgpuGraphicsContext) EndRenderPass() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.framePass != nil {
		g.framePass.End()
		g.framePass = nil
	}
}

func (g *wgpuGraphicsContext) Submit() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.frameEncoder == nil {
		return errors.New("no command encoder open")
	}

	commandBuffer, err := g.frameEncoder.Finish(nil)
	if err != nil {
		g.releaseFrame()
		return fmt.Errorf("failed to finish command buffer: %w", err)
	}
	g.queue.Submit(commandBuffer)
	commandBuffer.Release()
	g.frameEncoder.Release()
	g.frameEncoder = nil
	return nil
}

func (g *wgpuGraphicsContext) Present() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.frameSurface == nil {
		return
	}
	g.surface.Present()
	g.releaseFrame()
}

func (g *wgpuGraphicsContext) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.releaseFrame()
	g.releaseMSAATarget()
	if g.surface != nil {
		g.surface.Release()
		g.surface = nil
	}
	if g.queue != nil {
		g.queue.Release()
		g.queue = nil
	}
	if g.device != nil {
		g.device.Release()
		g.device = nil
	}
	if g.adapter != nil {
		g.adapter.Release()
		g.adapter = nil
	}
	if g.instance != nil {
		g.instance.Release()
		g.instance = nil
	}
	g.configured = false
}

// releaseFrame drops every object held for the current frame. Callers must hold g.mu.
func (g *wgpuGraphicsContext) releaseFrame() {
	if g.framePass != nil {
		g.framePass.End()
		g.framePass = nil
	}
	if g.frameEncoder != nil {
		g.frameEncoder.Release()
		g.frameEncoder = nil
	}
	if g.frameView != nil {
		g.frameView.Release()
		g.frameView = nil
	}
	if g.frameSurface != nil {
		g.frameSurface.Release()
		g.frameSurface = nil
	}
}

// invalidateTarget drops the render target after a failed reconfigure, so frames report an
// outdated surface until the next successful Reconfigure. Callers must hold g.mu.
func (g *wgpuGraphicsContext) invalidateTarget() {
	g.releaseMSAATarget()
	g.renderPassDescriptor = nil
	g.configured = false
}

// releaseMSAATarget drops the multisample texture. Callers must hold g.mu.
func (g *wgpuGraphicsContext) releaseMSAATarget() {
	if g.msaaTextureView != nil {
		g.msaaTextureView.Release()
		g.msaaTextureView = nil
	}
	if g.msaaTexture != nil {
		g.msaaTexture.Release()
		g.msaaTexture = nil
	}
}
