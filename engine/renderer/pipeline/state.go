package pipeline

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// PolygonMode controls how triangles are rasterized.
type PolygonMode int

const (
	// PolygonModeFill rasterizes filled triangles. This is the only mode available without
	// optional device features.
	PolygonModeFill PolygonMode = iota

	// PolygonModeLine rasterizes triangle edges. Requires a non-default device feature.
	PolygonModeLine

	// PolygonModePoint rasterizes triangle vertices. Requires a non-default device feature.
	PolygonModePoint
)

func (m PolygonMode) String() string {
	switch m {
	case PolygonModeFill:
		return "fill"
	case PolygonModeLine:
		return "line"
	case PolygonModePoint:
		return "point"
	default:
		return fmt.Sprintf("PolygonMode(%d)", int(m))
	}
}

// BlendMode selects the color blend equation of the single color target.
type BlendMode int

const (
	// BlendModeReplace writes fragment colors without blending.
	BlendModeReplace BlendMode = iota

	// BlendModeAlpha blends fragment colors over the target using source alpha.
	BlendModeAlpha
)

func (m BlendMode) String() string {
	switch m {
	case BlendModeReplace:
		return "replace"
	case BlendModeAlpha:
		return "alpha"
	default:
		return fmt.Sprintf("BlendMode(%d)", int(m))
	}
}

// State is the fixed-function configuration of a render pipeline. It is a comparable value
// and participates in the pipeline cache key.
type State struct {
	Topology    wgpu.PrimitiveTopology
	FrontFace   wgpu.FrontFace
	CullMode    wgpu.CullMode
	PolygonMode PolygonMode
	SampleCount uint32
	BlendMode   BlendMode
	WriteMask   wgpu.ColorWriteMask
}

// NewState returns the default fixed-function state with all options applied. The defaults
// are a counter-clockwise triangle list with no culling, filled polygons, one sample,
// no blending, and all color channels written.
//
// Parameters:
//   - opts: variadic list of PipelineBuilderOption functions
//
// Returns:
//   - State: the configured state
func NewState(opts ...PipelineBuilderOption) State {
	s := State{
		Topology:    wgpu.PrimitiveTopologyTriangleList,
		FrontFace:   wgpu.FrontFaceCCW,
		CullMode:    wgpu.CullModeNone,
		PolygonMode: PolygonModeFill,
		SampleCount: 1,
		BlendMode:   BlendModeReplace,
		WriteMask:   wgpu.ColorWriteMaskAll,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// BlendState returns the wgpu blend state for the configured blend mode.
//
// Returns:
//   - *wgpu.BlendState: the blend state, or nil when blending is disabled
func (s State) BlendState() *wgpu.BlendState {
	if s.BlendMode != BlendModeAlpha {
		return nil
	}
	return &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorSrcAlpha,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
	}
}

// validate reports fixed-function settings the renderer cannot create.
func (s State) validate() error {
	if s.PolygonMode != PolygonModeFill {
		return fmt.Errorf("%w: %s", ErrUnsupportedPolygonMode, s.PolygonMode)
	}
	switch s.SampleCount {
	case 1, 4, 8, 16:
	default:
		return fmt.Errorf("%w: %d", ErrInvalidSampleCount, s.SampleCount)
	}
	return nil
}
