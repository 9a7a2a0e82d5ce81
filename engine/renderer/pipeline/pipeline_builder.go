package pipeline

import "github.com/cogentcore/webgpu/wgpu"

// PipelineBuilderOption is a functional option used to configure the fixed-function State of a Pipeline.
type PipelineBuilderOption func(*State)

// WithTopology sets the primitive topology.
//
// Parameters:
//   - topology: the primitive topology (e.g. wgpu.PrimitiveTopologyTriangleList)
//
// Returns:
//   - PipelineBuilderOption: a function that sets the topology
func WithTopology(topology wgpu.PrimitiveTopology) PipelineBuilderOption {
	return func(s *State) {
		s.Topology = topology
	}
}

// WithFrontFace sets the winding order that identifies front-facing triangles.
//
// Parameters:
//   - frontFace: the front face winding (wgpu.FrontFaceCCW or wgpu.FrontFaceCW)
//
// Returns:
//   - PipelineBuilderOption: a function that sets the front face
func WithFrontFace(frontFace wgpu.FrontFace) PipelineBuilderOption {
	return func(s *State) {
		s.FrontFace = frontFace
	}
}

// WithCullMode sets which triangle faces are culled.
//
// Parameters:
//   - mode: the cull mode (wgpu.CullModeNone, wgpu.CullModeFront, wgpu.CullModeBack)
//
// Returns:
//   - PipelineBuilderOption: a function that sets the cull mode
func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(s *State) {
		s.CullMode = mode
	}
}

// WithPolygonMode sets the polygon rasterization mode. Only PolygonModeFill can be built
// with the default device features.
//
// Parameters:
//   - mode: the polygon mode
//
// Returns:
//   - PipelineBuilderOption: a function that sets the polygon mode
func WithPolygonMode(mode PolygonMode) PipelineBuilderOption {
	return func(s *State) {
		s.PolygonMode = mode
	}
}

// WithSampleCount sets the multisample count. It must match the sample count of the render
// target the pipeline draws into.
//
// Parameters:
//   - count: the sample count (1, 4, 8, or 16)
//
// Returns:
//   - PipelineBuilderOption: a function that sets the sample count
func WithSampleCount(count uint32) PipelineBuilderOption {
	return func(s *State) {
		s.SampleCount = count
	}
}

// WithBlendMode sets the color blend mode.
//
// Parameters:
//   - mode: the blend mode
//
// Returns:
//   - PipelineBuilderOption: a function that sets the blend mode
func WithBlendMode(mode BlendMode) PipelineBuilderOption {
	return func(s *State) {
		s.BlendMode = mode
	}
}

// WithWriteMask sets which color channels are written.
//
// Parameters:
//   - mask: the color write mask
//
// Returns:
//   - PipelineBuilderOption: a function that sets the write mask
func WithWriteMask(mask wgpu.ColorWriteMask) PipelineBuilderOption {
	return func(s *State) {
		s.WriteMask = mask
	}
}
