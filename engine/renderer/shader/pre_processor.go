// pre_processor.go implements the WGSL pre-processor. It expands @voxels: annotations into
// the canonical WGSL definitions of engine GPU types and bakes configured override constants
// into the source, since the GPU backend takes no pipeline-constant table.
package shader

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/voxels/engine/mesh"
	"github.com/Carmen-Shannon/voxels/engine/renderer/uniform"
)

// registryEntry pairs a WGSL struct source with the struct's WGSL type name.
type registryEntry struct {
	Source string
	Type   string
}

// overrideDeclRegex matches a single-line override declaration and captures the optional @id,
// the name, the optional type, and the optional default initializer.
var overrideDeclRegex = regexp.MustCompile(`^(\s*)(?:@id\(\s*(\d+)\s*\)\s*)?override\s+(\w+)\s*(?::\s*(\w+)\s*)?(?:=\s*([^;]+?)\s*)?;(.*)$`)

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	structRegistry       map[AnnotationArg]registryEntry
	addressSpaceRegistry map[AnnotationArg]string
	declarations         []Annotation
}

// PreProcessor rewrites WGSL source before it is compiled.
type PreProcessor interface {
	// Process expands annotations. Include annotations are replaced with the registered struct
	// source and group annotations with a generated binding declaration. The declarations
	// list is reset on every call.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//
	// Returns:
	//   - string: the expanded WGSL source
	//   - error: an error if an annotation is malformed
	Process(source string) (string, error)

	// BakeConstants rewrites every override declaration that has a configured value into a
	// const declaration holding that value. Overrides without a configured value are left
	// untouched. Keys match by override name or numeric @id.
	//
	// Parameters:
	//   - source: the expanded WGSL source
	//   - constants: override values keyed by name or @id
	//
	// Returns:
	//   - string: the WGSL source with configured overrides baked in
	//   - error: an error if a value cannot be represented in the override's type
	BakeConstants(source string, constants map[string]float64) (string, error)

	// Declarations returns the group annotations collected by the last Process call, in source order.
	//
	// Returns:
	//   - []Annotation: the collected declarations
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the engine GPU types registered.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		structRegistry: map[AnnotationArg]registryEntry{
			AnnotationArgVertex: {Source: mesh.GPUVertexSource, Type: "VertexInput"},
			AnnotationArgTime:   {Source: uniform.GPUTimeUniformSource, Type: "TimeUniform"},
		},
		addressSpaceRegistry: map[AnnotationArg]string{
			annotationArgAddressUniform:   "var<uniform>",
			annotationArgAddressRead:      "var<storage, read>",
			annotationArgAddressReadWrite: "var<storage, read_write>",
		},
	}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case AnnotationTypeInclude:
			out = append(out, strings.TrimRight(p.structRegistry[a.Args[0]].Source, "\n"))
		case AnnotationTypeBindingGroup:
			entry := p.structRegistry[a.Args[2]]
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;",
				*a.Group, *a.Binding, p.addressSpaceRegistry[a.Args[0]], a.Args[1], entry.Type))
			p.declarations = append(p.declarations, *a)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) BakeConstants(source string, constants map[string]float64) (string, error) {
	if len(constants) == 0 {
		return source, nil
	}

	lines := strings.Split(source, "\n")
	for i, line := range lines {
		m := overrideDeclRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		indent, id, name, typeName, init, rest := m[1], m[2], m[3], m[4], m[5], m[6]

		value, ok := constants[name]
		if id != "" {
			if v, byID := constants[id]; byID {
				value, ok = v, true
			}
		}
		if !ok {
			continue
		}

		literal, err := formatLiteral(typeName, init, value)
		if err != nil {
			return "", fmt.Errorf("line %d: override %q: %w", i+1, name, err)
		}
		decl := "const " + name
		if typeName != "" {
			decl += ": " + typeName
		}
		lines[i] = fmt.Sprintf("%s%s = %s;%s", indent, decl, literal, rest)
	}
	return strings.Join(lines, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}

// formatLiteral renders value as a WGSL literal of the given scalar type. Untyped overrides
// take their kind from the default initializer, falling back to an abstract float.
func formatLiteral(typeName, init string, value float64) (string, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		if typeName == "bool" {
			return "false", nil
		}
		return "", fmt.Errorf("value %v is not finite", value)
	}

	switch typeName {
	case "bool":
		return strconv.FormatBool(value != 0), nil
	case "i32":
		if value != math.Trunc(value) || value < math.MinInt32 || value > math.MaxInt32 {
			return "", fmt.Errorf("value %v is not a valid i32", value)
		}
		return strconv.FormatInt(int64(value), 10) + "i", nil
	case "u32":
		if value != math.Trunc(value) || value < 0 || value > math.MaxUint32 {
			return "", fmt.Errorf("value %v is not a valid u32", value)
		}
		return strconv.FormatUint(uint64(value), 10) + "u", nil
	case "f32":
		return floatLiteral(value) + "f", nil
	case "f16":
		return floatLiteral(value) + "h", nil
	case "":
		if isIntLiteral(init) && value == math.Trunc(value) {
			return strconv.FormatInt(int64(value), 10), nil
		}
		return floatLiteral(value), nil
	default:
		return "", fmt.Errorf("unsupported override type %q", typeName)
	}
}

// floatLiteral formats value so that WGSL always reads it as a floating point literal.
func floatLiteral(value float64) string {
	s := strconv.FormatFloat(value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// isIntLiteral reports whether a default initializer is a plain integer literal.
func isIntLiteral(init string) bool {
	init = strings.TrimSpace(init)
	if init == "" {
		return false
	}
	init = strings.TrimRight(init, "iu")
	_, err := strconv.ParseInt(init, 0, 64)
	return err == nil
}
