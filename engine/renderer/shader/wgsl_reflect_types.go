package shader

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga/ir"
)

// vertexFormatInfo holds the wgpu vertex format and its byte size for offset calculation.
type vertexFormatInfo struct {
	format wgpu.VertexFormat
	size   uint64
}

// vertexFormatKey identifies a scalar or vector type by scalar kind, scalar width in bytes,
// and component count.
type vertexFormatKey struct {
	kind       ir.ScalarKind
	width      uint8
	components int
}

// vertexFormatTable maps IR scalar and vector types to vertex formats.
var vertexFormatTable = map[vertexFormatKey]vertexFormatInfo{
	{ir.ScalarFloat, 4, 1}: {wgpu.VertexFormatFloat32, 4},
	{ir.ScalarFloat, 4, 2}: {wgpu.VertexFormatFloat32x2, 8},
	{ir.ScalarFloat, 4, 3}: {wgpu.VertexFormatFloat32x3, 12},
	{ir.ScalarFloat, 4, 4}: {wgpu.VertexFormatFloat32x4, 16},
	{ir.ScalarSint, 4, 1}:  {wgpu.VertexFormatSint32, 4},
	{ir.ScalarSint, 4, 2}:  {wgpu.VertexFormatSint32x2, 8},
	{ir.ScalarSint, 4, 3}:  {wgpu.VertexFormatSint32x3, 12},
	{ir.ScalarSint, 4, 4}:  {wgpu.VertexFormatSint32x4, 16},
	{ir.ScalarUint, 4, 1}:  {wgpu.VertexFormatUint32, 4},
	{ir.ScalarUint, 4, 2}:  {wgpu.VertexFormatUint32x2, 8},
	{ir.ScalarUint, 4, 3}:  {wgpu.VertexFormatUint32x3, 12},
	{ir.ScalarUint, 4, 4}:  {wgpu.VertexFormatUint32x4, 16},
	{ir.ScalarFloat, 2, 2}: {wgpu.VertexFormatFloat16x2, 4},
	{ir.ScalarFloat, 2, 4}: {wgpu.VertexFormatFloat16x4, 8},
}
