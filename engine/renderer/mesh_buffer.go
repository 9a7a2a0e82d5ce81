package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/voxels/common"
	"github.com/Carmen-Shannon/voxels/engine/mesh"
)

// MeshBuffer is the combined vertex buffer: every mesh of a Collection concatenated in
// collection order into one GPU buffer.
type MeshBuffer struct {
	// Buffer is the GPU vertex buffer. Its size is exactly VertexCount * mesh.VertexSize bytes.
	Buffer Buffer

	// VertexCount is the number of vertices in Buffer.
	VertexCount uint32

	// Ranges holds each mesh's vertex sub-range, in collection order.
	Ranges []mesh.Range
}

// Release frees the GPU buffer. It is safe to call on a nil MeshBuffer.
func (b *MeshBuffer) Release() {
	if b == nil || b.Buffer == nil {
		return
	}
	b.Buffer.Release()
	b.Buffer = nil
}

// RebuildMeshBuffer replaces the combined vertex buffer with one built from the current
// contents of collection.
//
// The collection is flattened in order and uploaded into a new buffer with a single write.
// Only after the new buffer exists is previous released and the collection's dirty flag
// cleared, so a failed rebuild leaves both the old buffer and the dirty flag in place.
// An empty collection produces a zero-length buffer drawing zero vertices.
//
// Parameters:
//   - ctx: the GraphicsContext that owns the buffer
//   - collection: the mesh collection to flatten
//   - previous: the buffer being replaced, may be nil
//
// Returns:
//   - *MeshBuffer: the new combined vertex buffer
//   - error: an error if the GPU buffer could not be created
func RebuildMeshBuffer(ctx GraphicsContext, collection mesh.Collection, previous *MeshBuffer) (*MeshBuffer, error) {
	data, ranges := collection.Flatten()
	vertexCount := uint32(len(data) / mesh.VertexSize)

	buf, err := ctx.CreateVertexBuffer("Combined Vertex Buffer", data)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild mesh buffer: %w", err)
	}

	previous.Release()
	collection.MarkClean()

	if vertexCount == 0 {
		common.Logger().Debug("mesh buffer rebuilt empty", "meshes", len(ranges))
	} else {
		common.Logger().Debug("mesh buffer rebuilt", "meshes", len(ranges), "vertices", vertexCount, "bytes", len(data))
	}

	return &MeshBuffer{
		Buffer:      buf,
		VertexCount: vertexCount,
		Ranges:      ranges,
	}, nil
}
