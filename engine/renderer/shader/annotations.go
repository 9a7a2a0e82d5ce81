// annotations.go defines the annotation syntax understood by the WGSL pre-processor.
// Annotations are single-line WGSL comments prefixed with @voxels: that inject the canonical
// WGSL definitions of engine GPU types and generate matching binding declarations, so shader
// sources cannot drift from the Go-side byte layouts.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix marks an annotation within a WGSL comment line.
const annotationPrefix = "@voxels:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// AnnotationTypeInclude injects the WGSL struct definition of a registered GPU type.
	//
	// Syntax: //@voxels:include <struct_type>
	//
	// Example: //@voxels:include vertex
	AnnotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup generates a @group/@binding variable declaration for a
	// registered GPU type.
	//
	// Syntax: //@voxels:group <group> <binding> <address_space> <var_name> <struct_type>
	//
	// Example: //@voxels:group 0 0 uniform time time
	AnnotationTypeBindingGroup AnnotationType = "group"
)

// Annotation is one parsed annotation line.
type Annotation struct {
	// Type is the annotation kind.
	Type AnnotationType

	// Args are the annotation arguments after the type. Include carries the struct type;
	// group carries the address space, variable name, and struct type.
	Args []AnnotationArg

	// Line is the 1-based source line the annotation was found on.
	Line int

	// Group and Binding are set for AnnotationTypeBindingGroup.
	Group   *int
	Binding *int
}

// AnnotationArg is a single annotation argument token.
type AnnotationArg string

// Registered struct types.
const (
	// AnnotationArgVertex is the VertexInput struct matching mesh.Vertex.
	AnnotationArgVertex AnnotationArg = "vertex"

	// AnnotationArgTime is the TimeUniform struct matching uniform.TimeUniform.
	AnnotationArgTime AnnotationArg = "time"
)

// Address spaces accepted by group annotations.
const (
	annotationArgAddressUniform   AnnotationArg = "uniform"
	annotationArgAddressRead      AnnotationArg = "storage_read"
	annotationArgAddressReadWrite AnnotationArg = "storage_read_write"
)

var validStructTypes = []AnnotationArg{
	AnnotationArgVertex,
	AnnotationArgTime,
}

var validAddressSpaces = []AnnotationArg{
	annotationArgAddressUniform,
	annotationArgAddressRead,
	annotationArgAddressReadWrite,
}

// parseAnnotation parses a single source line. Lines without the annotation prefix return nil
// with no error.
//
// Parameters:
//   - line: the raw source line
//   - lineNum: the 1-based line number used in error messages
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line has none
//   - error: an error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return nil, nil
	}
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case AnnotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: include annotation requires exactly one argument", lineNum)
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in include annotation", lineNum, args[1])
		}
		return &Annotation{
			Type: AnnotationTypeInclude,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	case AnnotationTypeBindingGroup:
		if len(args) != 6 {
			return nil, fmt.Errorf("line %d: group annotation requires five arguments (group, binding, address space, name, struct type)", lineNum)
		}
		group, err := strconv.Atoi(args[1])
		if err != nil || group < 0 {
			return nil, fmt.Errorf("line %d: invalid group number %q", lineNum, args[1])
		}
		binding, err := strconv.Atoi(args[2])
		if err != nil || binding < 0 {
			return nil, fmt.Errorf("line %d: invalid binding number %q", lineNum, args[2])
		}
		if !slices.Contains(validAddressSpaces, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown address space %q in group annotation", lineNum, args[3])
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[5])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in group annotation", lineNum, args[5])
		}
		return &Annotation{
			Type:    AnnotationTypeBindingGroup,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4]), AnnotationArg(args[5])},
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown annotation type %q", lineNum, args[0])
	}
}
