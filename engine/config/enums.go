package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/voxels/engine/renderer"
	"github.com/Carmen-Shannon/voxels/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

var presentModes = map[string]renderer.PresentMode{
	"vsync":    renderer.PresentModeVSync,
	"uncapped": renderer.PresentModeUncapped,
}

var topologies = map[string]wgpu.PrimitiveTopology{
	"point-list":     wgpu.PrimitiveTopologyPointList,
	"line-list":      wgpu.PrimitiveTopologyLineList,
	"line-strip":     wgpu.PrimitiveTopologyLineStrip,
	"triangle-list":  wgpu.PrimitiveTopologyTriangleList,
	"triangle-strip": wgpu.PrimitiveTopologyTriangleStrip,
}

var frontFaces = map[string]wgpu.FrontFace{
	"ccw": wgpu.FrontFaceCCW,
	"cw":  wgpu.FrontFaceCW,
}

var cullModes = map[string]wgpu.CullMode{
	"none":  wgpu.CullModeNone,
	"front": wgpu.CullModeFront,
	"back":  wgpu.CullModeBack,
}

var polygonModes = map[string]pipeline.PolygonMode{
	"fill":  pipeline.PolygonModeFill,
	"line":  pipeline.PolygonModeLine,
	"point": pipeline.PolygonModePoint,
}

var blendModes = map[string]pipeline.BlendMode{
	"replace": pipeline.BlendModeReplace,
	"alpha":   pipeline.BlendModeAlpha,
}

// lookup resolves a case-insensitive enum name. The error lists the accepted names.
func lookup[T any](field, name string, table map[string]T) (T, error) {
	if v, ok := table[strings.ToLower(strings.TrimSpace(name))]; ok {
		return v, nil
	}
	var zero T
	names := slices.Sorted(maps.Keys(table))
	return zero, fmt.Errorf("%w: %s %q is not one of %s", ErrInvalid, field, name, strings.Join(names, ", "))
}
