package renderer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/voxels/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/voxels/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

type fakeBuffer struct {
	label    string
	data     []byte
	size     uint64
	released bool
}

func (b *fakeBuffer) Size() uint64 { return b.size }
func (b *fakeBuffer) Release()     { b.released = true }

type fakeBindGroup struct {
	released bool
}

func (g *fakeBindGroup) Release() { g.released = true }

type fakeHandle struct {
	released bool
}

func (h *fakeHandle) Release() { h.released = true }

// fakeContext is a GraphicsContext that records every call instead of talking to a GPU.
type fakeContext struct {
	calls         []string
	width, height int
	sampleCount   uint32

	// windowWidth and windowHeight are the framebuffer size of the window behind the surface.
	windowWidth, windowHeight int

	// acquireErrs are returned by successive AcquireSurfaceTexture calls before succeeding.
	acquireErrs []error
	// padVertexBuffers makes vertex buffers one byte longer than their data.
	padVertexBuffers bool
	failVertexBuffer bool

	vertexBuffers []*fakeBuffer
	uniformBuffer *fakeBuffer
	uniformWrites [][]byte
	handles       []*fakeHandle
	bindGroups    []*fakeBindGroup
	clearColors   []wgpu.Color
	released      bool
}

var _ GraphicsContext = &fakeContext{}

func newFakeContext() *fakeContext {
	return &fakeContext{width: 800, height: 600, windowWidth: 800, windowHeight: 600, sampleCount: 1}
}

func (f *fakeContext) CreateVertexBuffer(label string, data []byte) (Buffer, error) {
	if f.failVertexBuffer {
		return nil, errors.New("out of device memory")
	}
	f.calls = append(f.calls, "create-vertex")
	size := uint64(len(data))
	if f.padVertexBuffers {
		size++
	}
	b := &fakeBuffer{label: label, data: append([]byte(nil), data...), size: size}
	f.vertexBuffers = append(f.vertexBuffers, b)
	return b, nil
}

func (f *fakeContext) CreateUniformBuffer(label string, size uint64) (Buffer, error) {
	f.uniformBuffer = &fakeBuffer{label: label, size: size}
	return f.uniformBuffer, nil
}

func (f *fakeContext) WriteBuffer(buf Buffer, data []byte) error {
	b, ok := buf.(*fakeBuffer)
	if !ok {
		return fmt.Errorf("foreign buffer %T", buf)
	}
	if b == f.uniformBuffer {
		f.calls = append(f.calls, "write-uniform")
		f.uniformWrites = append(f.uniformWrites, append([]byte(nil), data...))
	}
	b.data = append(b.data[:0], data...)
	return nil
}

func (f *fakeContext) CompilePipeline(p pipeline.Pipeline) (pipeline.Pipeline, error) {
	h := &fakeHandle{}
	f.handles = append(f.handles, h)
	return p.WithHandle(h), nil
}

func (f *fakeContext) CreateUniformBindGroup(p pipeline.Pipeline, buf Buffer) (BindGroup, error) {
	if buf != f.uniformBuffer {
		return nil, errors.New("bind group must reference the uniform buffer")
	}
	g := &fakeBindGroup{}
	f.bindGroups = append(f.bindGroups, g)
	return g, nil
}

func (f *fakeContext) AcquireSurfaceTexture() error {
	f.calls = append(f.calls, "acquire")
	if err := checkSurfaceSize(true, f.width, f.height, f.windowWidth, f.windowHeight); err != nil {
		return err
	}
	if len(f.acquireErrs) > 0 {
		err := f.acquireErrs[0]
		f.acquireErrs = f.acquireErrs[1:]
		return err
	}
	return nil
}

func (f *fakeContext) BeginRenderPass(clear wgpu.Color) error {
	f.calls = append(f.calls, "begin")
	f.clearColors = append(f.clearColors, clear)
	return nil
}

func (f *fakeContext) SetPipeline(p pipeline.Pipeline) {
	if _, ok := p.Handle().(*fakeHandle); ok {
		f.calls = append(f.calls, "pipeline")
	}
}

func (f *fakeContext) SetBindGroup(index uint32, group BindGroup) {
	f.calls = append(f.calls, fmt.Sprintf("bindgroup:%d", index))
}

func (f *fakeContext) SetVertexBuffer(buf Buffer) {
	f.calls = append(f.calls, fmt.Sprintf("vertexbuffer:%d", buf.Size()))
}

func (f *fakeContext) Draw(vertexCount uint32) {
	f.calls = append(f.calls, fmt.Sprintf("draw:%d", vertexCount))
}

func (f *fakeContext) EndRenderPass() { f.calls = append(f.calls, "end") }

func (f *fakeContext) Submit() error {
	f.calls = append(f.calls, "submit")
	return nil
}

func (f *fakeContext) Present() { f.calls = append(f.calls, "present") }

func (f *fakeContext) Reconfigure(width, height int) error {
	f.calls = append(f.calls, fmt.Sprintf("reconfigure:%dx%d", width, height))
	f.width, f.height = width, height
	return nil
}

func (f *fakeContext) Size() (int, int)    { return f.width, f.height }
func (f *fakeContext) SampleCount() uint32 { return f.sampleCount }
func (f *fakeContext) Release()            { f.released = true }

// count returns how many recorded calls equal name.
func (f *fakeContext) count(name string) int {
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

// frameCalls returns the calls recorded from the last acquire onward.
func (f *fakeContext) frameCalls() []string {
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i] == "acquire" {
			return f.calls[i:]
		}
	}
	return nil
}

const testVertexShader = `//@voxels:include vertex
//@voxels:include time
//@voxels:group 0 0 uniform time time

struct VertexOutput {
    @builtin(position) clip_position: vec4<f32>,
    @location(0) color: vec3<f32>,
};

@vertex
fn vs_main(vert: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.clip_position = vec4<f32>(vert.position + vec3<f32>(0.0, 0.0, time.elapsed * 0.0), 1.0);
    out.color = vert.color;
    return out;
}
`

const testFragmentShader = `@fragment
fn fs_main(@location(0) color: vec3<f32>) -> @location(0) vec4<f32> {
    return vec4<f32>(color, 1.0);
}
`

// shaderConfigs writes the test shader pair to a temporary directory.
func shaderConfigs(t *testing.T) (shader.ShaderConfig, *shader.ShaderConfig) {
	t.Helper()
	dir := t.TempDir()
	vertexPath := filepath.Join(dir, "vertex.wgsl")
	fragmentPath := filepath.Join(dir, "fragment.wgsl")
	if err := os.WriteFile(vertexPath, []byte(testVertexShader), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fragmentPath, []byte(testFragmentShader), 0o644); err != nil {
		t.Fatal(err)
	}
	return shader.ShaderConfig{Path: vertexPath, Label: "Test Vertex"}, &shader.ShaderConfig{Path: fragmentPath, Label: "Test Fragment"}
}
