package shader

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga/ir"
)

// stageMap maps shader types to the naga IR stage used to find entry points.
var stageMap = map[ShaderType]ir.ShaderStage{
	ShaderTypeVertex:   ir.StageVertex,
	ShaderTypeFragment: ir.StageFragment,
}

// visibilityMap maps shader types to the wgpu stage flag applied to reflected bindings.
var visibilityMap = map[ShaderType]wgpu.ShaderStage{
	ShaderTypeVertex:   wgpu.ShaderStageVertex,
	ShaderTypeFragment: wgpu.ShaderStageFragment,
}

// findEntryPoint locates the entry point for the given stage. When name is empty the first
// entry point of that stage is returned.
//
// Parameters:
//   - module: the lowered IR module
//   - shaderType: the stage to search for
//   - name: the requested entry point name, or empty for the first match
//
// Returns:
//   - *ir.EntryPoint: the matching entry point
//   - error: ErrEntryPointNotFound when nothing matches
func findEntryPoint(module *ir.Module, shaderType ShaderType, name string) (*ir.EntryPoint, error) {
	stage := stageMap[shaderType]
	for i := range module.EntryPoints {
		ep := &module.EntryPoints[i]
		if name == "" {
			if ep.Stage == stage {
				return ep, nil
			}
			continue
		}
		if ep.Name != name {
			continue
		}
		if ep.Stage != stage {
			return nil, fmt.Errorf("%w: %q is not a %s entry point", ErrEntryPointNotFound, name, shaderType)
		}
		return ep, nil
	}
	if name == "" {
		return nil, fmt.Errorf("%w: no %s entry point", ErrEntryPointNotFound, shaderType)
	}
	return nil, fmt.Errorf("%w: %q", ErrEntryPointNotFound, name)
}

// checkConstants rejects constant keys that match neither the name nor the numeric @id of
// any override declared by the module.
//
// Parameters:
//   - module: the lowered IR module
//   - constants: the configured constant values
//
// Returns:
//   - error: ErrUnknownConstant naming the first unmatched key, in sorted order
func checkConstants(module *ir.Module, constants map[string]float64) error {
	known := make(map[string]struct{}, len(module.Overrides)*2)
	for _, ov := range module.Overrides {
		known[ov.Name] = struct{}{}
		if ov.ID != nil {
			known[strconv.Itoa(int(*ov.ID))] = struct{}{}
		}
	}

	keys := make([]string, 0, len(constants))
	for k := range constants {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if _, ok := known[k]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownConstant, k)
		}
	}
	return nil
}

// vertexInput is one @location input collected from a vertex entry point.
type vertexInput struct {
	location uint32
	ty       ir.TypeHandle
}

// reflectVertexLayout builds the vertex buffer layout consumed by a vertex entry point.
// Inputs may be declared as bare @location arguments or as members of an argument struct.
// Attributes are laid out tightly packed in location order, which is the layout a single
// interleaved vertex buffer uses.
//
// Parameters:
//   - module: the lowered IR module
//   - entry: the vertex entry point
//
// Returns:
//   - wgpu.VertexBufferLayout: the reflected layout, with no attributes if the entry point takes no inputs
//   - error: ErrUnsupportedVertexInput when an input type has no vertex format
func reflectVertexLayout(module *ir.Module, entry *ir.EntryPoint) (wgpu.VertexBufferLayout, error) {
	var inputs []vertexInput
	for _, arg := range entry.Function.Arguments {
		if arg.Binding != nil {
			if loc, ok := (*arg.Binding).(ir.LocationBinding); ok {
				inputs = append(inputs, vertexInput{location: loc.Location, ty: arg.Type})
			}
			continue
		}
		st, ok := module.Types[arg.Type].Inner.(ir.StructType)
		if !ok {
			continue
		}
		for _, member := range st.Members {
			if member.Binding == nil {
				continue
			}
			if loc, ok := (*member.Binding).(ir.LocationBinding); ok {
				inputs = append(inputs, vertexInput{location: loc.Location, ty: member.Type})
			}
		}
	}
	slices.SortFunc(inputs, func(a, b vertexInput) int {
		return int(a.location) - int(b.location)
	})

	attrs := make([]wgpu.VertexAttribute, 0, len(inputs))
	var offset uint64
	for _, in := range inputs {
		info, ok := vertexFormatOf(module.Types[in.ty].Inner)
		if !ok {
			return wgpu.VertexBufferLayout{}, fmt.Errorf("%w at location %d", ErrUnsupportedVertexInput, in.location)
		}
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         info.format,
			Offset:         offset,
			ShaderLocation: in.location,
		})
		offset += info.size
	}

	return wgpu.VertexBufferLayout{
		ArrayStride: offset,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}, nil
}

// vertexFormatOf maps an IR scalar or vector type to its wgpu vertex format.
func vertexFormatOf(inner ir.TypeInner) (vertexFormatInfo, bool) {
	switch t := inner.(type) {
	case ir.ScalarType:
		return lookupVertexFormat(t, 1)
	case ir.VectorType:
		return lookupVertexFormat(t.Scalar, int(t.Size))
	}
	return vertexFormatInfo{}, false
}

func lookupVertexFormat(scalar ir.ScalarType, components int) (vertexFormatInfo, bool) {
	info, ok := vertexFormatTable[vertexFormatKey{kind: scalar.Kind, width: scalar.Width, components: components}]
	return info, ok
}

// reflectBindGroupLayouts collects the buffer bindings declared by the module as bind group
// layout descriptors keyed by group index, with entries sorted by binding.
//
// Parameters:
//   - module: the lowered IR module
//   - shaderType: the stage whose visibility flag is applied to every entry
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: layout descriptors keyed by group index
//   - map[int]map[int]string: variable names keyed by group and binding index
//   - error: ErrUnsupportedBinding for texture, sampler, or other handle bindings
func reflectBindGroupLayouts(module *ir.Module, shaderType ShaderType) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string, error) {
	groups := make(map[int][]wgpu.BindGroupLayoutEntry)
	varNames := make(map[int]map[int]string)
	visibility := visibilityMap[shaderType]

	for _, gv := range module.GlobalVariables {
		if gv.Binding == nil {
			continue
		}
		entry := wgpu.BindGroupLayoutEntry{
			Binding:    gv.Binding.Binding,
			Visibility: visibility,
		}
		switch gv.Space {
		case ir.SpaceUniform:
			entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		case ir.SpaceStorage:
			entry.Buffer.Type = wgpu.BufferBindingTypeStorage
			if gv.Access == ir.StorageRead {
				entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
			}
		default:
			return nil, nil, fmt.Errorf("%w: %q at group %d binding %d", ErrUnsupportedBinding, gv.Name, gv.Binding.Group, gv.Binding.Binding)
		}
		entry.Buffer.MinBindingSize = uint64(ir.TypeSize(module, gv.Type))

		g := int(gv.Binding.Group)
		groups[g] = append(groups[g], entry)
		if varNames[g] == nil {
			varNames[g] = make(map[int]string)
		}
		varNames[g][int(gv.Binding.Binding)] = gv.Name
	}

	result := make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
	for g, entries := range groups {
		slices.SortFunc(entries, func(a, b wgpu.BindGroupLayoutEntry) int {
			return int(a.Binding) - int(b.Binding)
		})
		result[g] = wgpu.BindGroupLayoutDescriptor{Entries: entries}
	}
	return result, varNames, nil
}
