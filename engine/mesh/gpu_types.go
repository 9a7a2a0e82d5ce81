package mesh

import (
	_ "embed"
	"encoding/binary"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
)

// VertexSize is the byte size of one Vertex in the combined vertex buffer.
const VertexSize = 24

// GPUVertexSource is the canonical WGSL definition of the VertexInput struct.
// Matches the Vertex wire layout exactly (24 bytes, tightly packed).
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

// Vertex is the fixed-layout record uploaded to the GPU for every mesh vertex.
// Matches the WGSL VertexInput struct (see GPUVertexSource).
type Vertex struct {
	Position [3]float32 // offset  0: position (12 bytes)
	Color    [3]float32 // offset 12: RGB color (12 bytes)
}

// Marshal serializes the Vertex into a 24-byte little-endian buffer.
//
// Returns:
//   - []byte: 24-byte buffer ready for GPU upload
func (v Vertex) Marshal() []byte {
	buf := make([]byte, VertexSize)
	v.MarshalTo(buf)
	return buf
}

// MarshalTo writes the Vertex into dst, which must be at least VertexSize bytes long.
//
// Parameters:
//   - dst: the destination slice
func (v Vertex) MarshalTo(dst []byte) {
	_ = dst[VertexSize-1]
	binary.LittleEndian.PutUint32(dst[0:4], math.Float32bits(v.Position[0]))
	binary.LittleEndian.PutUint32(dst[4:8], math.Float32bits(v.Position[1]))
	binary.LittleEndian.PutUint32(dst[8:12], math.Float32bits(v.Position[2]))
	binary.LittleEndian.PutUint32(dst[12:16], math.Float32bits(v.Color[0]))
	binary.LittleEndian.PutUint32(dst[16:20], math.Float32bits(v.Color[1]))
	binary.LittleEndian.PutUint32(dst[20:24], math.Float32bits(v.Color[2]))
}

// VertexBufferLayout returns the vertex buffer layout matching the Vertex wire layout:
// attribute 0 is the position at offset 0 and attribute 1 is the color at offset 12.
//
// Returns:
//   - wgpu.VertexBufferLayout: the layout for pipeline vertex state
func VertexBufferLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: VertexSize,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
		},
	}
}
