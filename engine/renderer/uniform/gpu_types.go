package uniform

import (
	_ "embed"
	"encoding/binary"
	"math"
)

// TimeUniformSize is the byte size of the TimeUniform GPU record.
const TimeUniformSize = 4

// GPUTimeUniformSource is the canonical WGSL definition of the TimeUniform struct.
// Matches TimeUniform layout exactly (4 bytes).
//
//go:embed assets/time_uniform.wgsl
var GPUTimeUniformSource string

// TimeUniform is the GPU-side record holding the elapsed seconds since the graphics context
// was created. It is bound at group 0 binding 0 and visible to the vertex and fragment stages.
type TimeUniform struct {
	Elapsed float32 // offset 0: elapsed seconds (4 bytes)
}

// Marshal serializes the TimeUniform into a 4-byte little-endian buffer.
//
// Returns:
//   - []byte: 4-byte buffer ready for GPU upload
func (u TimeUniform) Marshal() []byte {
	buf := make([]byte, TimeUniformSize)
	binary.LittleEndian.PutUint32(buf, math.Float32bits(u.Elapsed))
	return buf
}
