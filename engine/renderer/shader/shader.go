package shader

import (
	"errors"
	"fmt"
	"os"

	"github.com/Carmen-Shannon/voxels/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// ShaderType identifies the pipeline stage a shader is loaded for.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex stage of a render pipeline.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment stage of a render pipeline.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

var (
	// ErrNoSource is returned when a ShaderConfig has no source path.
	ErrNoSource = errors.New("shader source path is empty")

	// ErrEntryPointNotFound is returned when the requested entry point does not exist for the stage.
	ErrEntryPointNotFound = errors.New("entry point not found")

	// ErrUnknownConstant is returned when a configured constant matches no override declaration.
	ErrUnknownConstant = errors.New("constant does not match any override")

	// ErrUnsupportedBinding is returned for resource bindings the renderer cannot create.
	ErrUnsupportedBinding = errors.New("unsupported resource binding")

	// ErrUnsupportedVertexInput is returned for vertex inputs with no matching vertex format.
	ErrUnsupportedVertexInput = errors.New("unsupported vertex input type")
)

// LoadError describes a shader that could not be read, pre-processed, or compiled.
type LoadError struct {
	Path  string
	Label string
	Stage ShaderType
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("shader %q (%s, %s): %v", e.Label, e.Stage, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// shader is the implementation of the Shader interface.
type shader struct {
	config                     ShaderConfig
	shaderType                 ShaderType
	source                     string
	entryPoint                 string
	vertexLayouts              []wgpu.VertexBufferLayout
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	module                     *wgpu.ShaderModuleDescriptor
}

// Shader is a loaded, pre-processed and CPU-compiled WGSL shader stage. It exposes the final
// source handed to the GPU along with the layouts reflected from the compiled module.
type Shader interface {
	// Config returns the ShaderConfig the shader was loaded from.
	//
	// Returns:
	//   - ShaderConfig: the originating config
	Config() ShaderConfig

	// ShaderType returns the stage the shader was loaded for.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex or ShaderTypeFragment
	ShaderType() ShaderType

	// Source returns the final WGSL source with annotations expanded and override constants baked in.
	//
	// Returns:
	//   - string: the WGSL source
	Source() string

	// EntryPoint returns the resolved entry function name.
	//
	// Returns:
	//   - string: the entry point name
	EntryPoint() string

	// VertexLayouts returns the vertex buffer layouts reflected from the vertex entry point's inputs.
	// Fragment shaders return nil.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: one layout per vertex buffer slot
	VertexLayouts() []wgpu.VertexBufferLayout

	// BindGroupLayoutDescriptors returns the buffer bindings declared by the shader, keyed by group index.
	// Entry visibility is set to this shader's stage.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName returns the WGSL variable name declared at the given group and binding.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if nothing is bound there
	BindGroupVarName(group, binding int) string

	// Module returns the descriptor used to create the GPU shader module.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the WGSL module descriptor
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// Load reads, pre-processes and compiles the shader described by cfg for the given stage.
//
// The source is compiled on the CPU so that missing entry points, unknown override constants and
// WGSL errors are reported at load time instead of surfacing as GPU validation failures.
// No partially loaded shader is ever returned.
//
// Parameters:
//   - cfg: the shader configuration
//   - shaderType: the pipeline stage the shader is loaded for
//
// Returns:
//   - Shader: the loaded shader
//   - error: a *LoadError wrapping the cause when loading fails
func Load(cfg ShaderConfig, shaderType ShaderType) (Shader, error) {
	fail := func(err error) (Shader, error) {
		return nil, &LoadError{Path: cfg.Path, Label: cfg.DisplayLabel(), Stage: shaderType, Err: err}
	}

	if cfg.Path == "" {
		return fail(ErrNoSource)
	}
	data, err := os.ReadFile(cfg.Path)
	if err != nil {
		return fail(err)
	}

	s, err := compile(cfg, shaderType, string(data))
	if err != nil {
		return fail(err)
	}

	common.Logger().Debug("shader loaded",
		"label", cfg.DisplayLabel(),
		"stage", shaderType.String(),
		"entry_point", s.entryPoint,
		"bind_groups", len(s.bindGroupLayoutDescriptors),
	)
	return s, nil
}

// compile runs the pre-processor and the CPU compiler over raw WGSL source and reflects the
// layouts the pipeline builder needs.
func compile(cfg ShaderConfig, shaderType ShaderType, raw string) (*shader, error) {
	pp := NewPreProcessor()
	expanded, err := pp.Process(raw)
	if err != nil {
		return nil, fmt.Errorf("pre-process: %w", err)
	}

	ast, err := naga.Parse(expanded)
	if err != nil {
		return nil, err
	}
	module, err := naga.LowerWithSource(ast, expanded)
	if err != nil {
		return nil, err
	}

	if err := checkConstants(module, cfg.Constants); err != nil {
		return nil, err
	}
	if err := ir.ProcessOverrides(module, ir.PipelineConstants(cfg.Constants)); err != nil {
		return nil, err
	}
	validationErrors, err := naga.Validate(module)
	if err != nil {
		return nil, err
	}
	if len(validationErrors) > 0 {
		return nil, fmt.Errorf("validation failed: %w", &validationErrors[0])
	}

	entry, err := findEntryPoint(module, shaderType, cfg.EntryPoint)
	if err != nil {
		return nil, err
	}

	s := &shader{
		config:     cfg,
		shaderType: shaderType,
		entryPoint: entry.Name,
	}
	if shaderType == ShaderTypeVertex {
		layout, err := reflectVertexLayout(module, entry)
		if err != nil {
			return nil, err
		}
		if len(layout.Attributes) > 0 {
			s.vertexLayouts = []wgpu.VertexBufferLayout{layout}
		}
	}
	s.bindGroupLayoutDescriptors, s.bindingVarNames, err = reflectBindGroupLayouts(module, shaderType)
	if err != nil {
		return nil, err
	}

	s.source, err = pp.BakeConstants(expanded, cfg.Constants)
	if err != nil {
		return nil, fmt.Errorf("bake constants: %w", err)
	}
	s.module = &wgpu.ShaderModuleDescriptor{
		Label: cfg.DisplayLabel(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.source,
		},
	}
	return s, nil
}

func (s *shader) Config() ShaderConfig {
	return s.config
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	if s.bindingVarNames[group] == nil {
		return ""
	}
	return s.bindingVarNames[group][binding]
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}
