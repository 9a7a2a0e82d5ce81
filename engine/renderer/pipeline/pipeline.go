package pipeline

import (
	"errors"
	"fmt"
	"hash/fnv"
	"slices"

	"github.com/Carmen-Shannon/voxels/engine/mesh"
	"github.com/Carmen-Shannon/voxels/engine/renderer/shader"
	"github.com/Carmen-Shannon/voxels/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrVertexLayoutMismatch is returned when the vertex shader's inputs do not match the mesh vertex layout.
	ErrVertexLayoutMismatch = errors.New("vertex shader inputs do not match the mesh vertex layout")

	// ErrUnsupportedPolygonMode is returned for polygon modes that need optional device features.
	ErrUnsupportedPolygonMode = errors.New("unsupported polygon mode")

	// ErrInvalidSampleCount is returned for multisample counts other than 1, 4, 8 or 16.
	ErrInvalidSampleCount = errors.New("invalid sample count")

	// ErrUnsupportedUniform is returned when shaders declare bindings other than the time uniform.
	ErrUnsupportedUniform = errors.New("only the time uniform at group 0 binding 0 is supported")

	// ErrShaderStage is returned when a shader is passed for the wrong stage.
	ErrShaderStage = errors.New("shader stage mismatch")
)

// UniformGroup and UniformBinding locate the time uniform.
const (
	UniformGroup   = 0
	UniformBinding = 0
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	key            string
	vertexShader   shader.Shader
	fragmentShader shader.Shader
	state          State
	uniformLayout  *wgpu.BindGroupLayoutDescriptor

	// handle is the backend pipeline object. It is only set on the copy returned by WithHandle.
	handle any
}

// Pipeline is an immutable render pipeline description: a vertex shader, an optional fragment
// shader, fixed-function state, and the optional uniform layout reflected from the shaders.
// Any change requires building a new Pipeline. The compiled backend object is attached with
// WithHandle, which returns a new value and leaves the receiver untouched.
type Pipeline interface {
	// Key returns the cache key: a hash of both ShaderConfigs and the fixed-function State.
	//
	// Returns:
	//   - string: the cache key
	Key() string

	// Shader returns the shader for the given stage.
	//
	// Parameters:
	//   - shaderType: the stage
	//
	// Returns:
	//   - shader.Shader: the shader, or nil for a missing fragment stage
	Shader(shaderType shader.ShaderType) shader.Shader

	// State returns the fixed-function state.
	//
	// Returns:
	//   - State: the state
	State() State

	// VertexLayout returns the vertex buffer layout the pipeline consumes.
	//
	// Returns:
	//   - wgpu.VertexBufferLayout: the mesh vertex layout
	VertexLayout() wgpu.VertexBufferLayout

	// UniformLayout returns the layout of the time uniform bind group, visible to the vertex
	// and fragment stages.
	//
	// Returns:
	//   - *wgpu.BindGroupLayoutDescriptor: the layout, or nil when neither shader reads the uniform
	UniformLayout() *wgpu.BindGroupLayoutDescriptor

	// Handle returns the compiled backend pipeline object.
	//
	// Returns:
	//   - any: the backend object, or nil if the pipeline has not been compiled
	Handle() any

	// WithHandle returns a copy of the pipeline carrying the compiled backend object.
	//
	// Parameters:
	//   - handle: the backend pipeline object
	//
	// Returns:
	//   - Pipeline: the compiled pipeline
	WithHandle(handle any) Pipeline
}

var _ Pipeline = &pipeline{}

// NewPipeline validates the shaders against the mesh vertex layout and the supported uniform
// binding, and assembles an uncompiled Pipeline.
//
// Parameters:
//   - vertexShader: the vertex stage, required
//   - fragmentShader: the fragment stage, or nil
//   - state: the fixed-function state
//
// Returns:
//   - Pipeline: the uncompiled pipeline
//   - error: an error describing the first invalid part of the configuration
func NewPipeline(vertexShader, fragmentShader shader.Shader, state State) (Pipeline, error) {
	if vertexShader == nil || vertexShader.ShaderType() != shader.ShaderTypeVertex {
		return nil, fmt.Errorf("%w: a vertex shader is required", ErrShaderStage)
	}
	if fragmentShader != nil && fragmentShader.ShaderType() != shader.ShaderTypeFragment {
		return nil, fmt.Errorf("%w: %s shader passed as fragment", ErrShaderStage, fragmentShader.ShaderType())
	}
	if err := state.validate(); err != nil {
		return nil, err
	}
	if err := checkVertexLayout(vertexShader.VertexLayouts()); err != nil {
		return nil, err
	}

	var fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor
	var fragmentConfig *shader.ShaderConfig
	if fragmentShader != nil {
		fragmentLayouts = fragmentShader.BindGroupLayoutDescriptors()
		cfg := fragmentShader.Config()
		fragmentConfig = &cfg
	}
	uniformLayout, err := uniformLayoutOf(mergeBindGroupLayouts(vertexShader.BindGroupLayoutDescriptors(), fragmentLayouts))
	if err != nil {
		return nil, err
	}

	return &pipeline{
		key:            Key(vertexShader.Config(), fragmentConfig, state),
		vertexShader:   vertexShader,
		fragmentShader: fragmentShader,
		state:          state,
		uniformLayout:  uniformLayout,
	}, nil
}

// Key computes the cache key for a pipeline configuration without loading any shader.
//
// Parameters:
//   - vertex: the vertex shader config
//   - fragment: the fragment shader config, or nil
//   - state: the fixed-function state
//
// Returns:
//   - string: a hex-encoded 64-bit FNV-1a hash of the configuration
func Key(vertex shader.ShaderConfig, fragment *shader.ShaderConfig, state State) string {
	h := fnv.New64a()
	fmt.Fprint(h, "vertex{")
	vertex.WriteKey(h)
	fmt.Fprint(h, "}fragment{")
	if fragment != nil {
		fragment.WriteKey(h)
	} else {
		fmt.Fprint(h, "none")
	}
	fmt.Fprintf(h, "}state{%d;%d;%d;%d;%d;%d;%d}",
		state.Topology, state.FrontFace, state.CullMode, state.PolygonMode,
		state.SampleCount, state.BlendMode, state.WriteMask)
	return fmt.Sprintf("%016x", h.Sum64())
}

func (p *pipeline) Key() string {
	return p.key
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) State() State {
	return p.state
}

func (p *pipeline) VertexLayout() wgpu.VertexBufferLayout {
	return mesh.VertexBufferLayout()
}

func (p *pipeline) UniformLayout() *wgpu.BindGroupLayoutDescriptor {
	if p.uniformLayout == nil {
		return nil
	}
	layout := *p.uniformLayout
	layout.Entries = slices.Clone(p.uniformLayout.Entries)
	return &layout
}

func (p *pipeline) Handle() any {
	return p.handle
}

func (p *pipeline) WithHandle(handle any) Pipeline {
	compiled := *p
	compiled.handle = handle
	return &compiled
}

// checkVertexLayout compares the reflected vertex inputs with the mesh vertex layout.
func checkVertexLayout(layouts []wgpu.VertexBufferLayout) error {
	want := mesh.VertexBufferLayout()
	if len(layouts) != 1 {
		return fmt.Errorf("%w: shader declares %d vertex buffers, want 1", ErrVertexLayoutMismatch, len(layouts))
	}
	got := layouts[0]
	if got.ArrayStride != want.ArrayStride {
		return fmt.Errorf("%w: stride %d, want %d", ErrVertexLayoutMismatch, got.ArrayStride, want.ArrayStride)
	}
	if !slices.Equal(got.Attributes, want.Attributes) {
		return fmt.Errorf("%w: attributes %+v, want %+v", ErrVertexLayoutMismatch, got.Attributes, want.Attributes)
	}
	return nil
}

// uniformLayoutOf checks that the merged shader bindings consist of at most the time uniform
// and returns its layout with vertex and fragment visibility.
func uniformLayoutOf(merged map[int]wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayoutDescriptor, error) {
	if len(merged) == 0 {
		return nil, nil
	}
	desc, ok := merged[UniformGroup]
	if len(merged) > 1 || !ok || len(desc.Entries) != 1 {
		return nil, ErrUnsupportedUniform
	}
	entry := desc.Entries[0]
	if entry.Binding != UniformBinding || entry.Buffer.Type != wgpu.BufferBindingTypeUniform {
		return nil, ErrUnsupportedUniform
	}
	if entry.Buffer.MinBindingSize > uniform.TimeUniformSize {
		return nil, fmt.Errorf("%w: binding needs %d bytes, time uniform has %d",
			ErrUnsupportedUniform, entry.Buffer.MinBindingSize, uniform.TimeUniformSize)
	}
	entry.Visibility = wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
	entry.Buffer.MinBindingSize = uniform.TimeUniformSize
	return &wgpu.BindGroupLayoutDescriptor{
		Label:   "Time Uniform Layout",
		Entries: []wgpu.BindGroupLayoutEntry{entry},
	}, nil
}

// mergeBindGroupLayouts merges the bind group layout descriptors of the vertex and fragment
// shaders. Entries sharing a binding number have their visibility flags ORed together.
//
// Parameters:
//   - vertexLayouts: descriptors from the vertex shader
//   - fragmentLayouts: descriptors from the fragment shader, may be nil
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged descriptors keyed by group index
func mergeBindGroupLayouts(vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor)
	for _, layouts := range []map[int]wgpu.BindGroupLayoutDescriptor{vertexLayouts, fragmentLayouts} {
		for g, desc := range layouts {
			existing := merged[g]
			for _, e := range desc.Entries {
				i := slices.IndexFunc(existing.Entries, func(x wgpu.BindGroupLayoutEntry) bool {
					return x.Binding == e.Binding
				})
				if i < 0 {
					existing.Entries = append(existing.Entries, e)
					continue
				}
				existing.Entries[i].Visibility |= e.Visibility
				existing.Entries[i].Buffer.MinBindingSize = max(existing.Entries[i].Buffer.MinBindingSize, e.Buffer.MinBindingSize)
			}
			slices.SortFunc(existing.Entries, func(a, b wgpu.BindGroupLayoutEntry) int {
				return int(a.Binding) - int(b.Binding)
			})
			merged[g] = existing
		}
	}
	return merged
}
