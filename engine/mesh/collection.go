package mesh

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrMeshOwned is returned when adding a Mesh that already belongs to a Collection.
	ErrMeshOwned = errors.New("mesh already belongs to a collection")

	// ErrIndexOutOfRange is returned when a Collection index does not refer to a mesh.
	ErrIndexOutOfRange = errors.New("mesh index out of range")
)

// Range locates one mesh inside the combined vertex buffer.
type Range struct {
	Label       string
	FirstVertex uint32
	VertexCount uint32
}

// collection is the implementation of the Collection interface.
type collection struct {
	meshes []*mesh
	dirty  bool
}

// Collection is an ordered sequence of meshes. The order determines the layout of the combined
// vertex buffer and each mesh's vertex offset within it.
//
// Every mutation, including SetVertices on a member Mesh, sets the dirty flag. The renderer
// clears it with MarkClean after rebuilding GPU state. A Collection is not safe for concurrent use.
type Collection interface {
	// Add appends meshes to the end of the collection. Either every mesh is added or, on error,
	// none is and the collection is unchanged.
	//
	// Parameters:
	//   - meshes: the meshes to append, in order
	//
	// Returns:
	//   - error: ErrMeshOwned if a mesh already belongs to a collection or is passed twice
	Add(meshes ...Mesh) error

	// Mesh returns the mesh at index i.
	//
	// Parameters:
	//   - i: the mesh index
	//
	// Returns:
	//   - Mesh: the mesh, or nil when i is out of range
	Mesh(i int) Mesh

	// Len returns the number of meshes.
	//
	// Returns:
	//   - int: the mesh count
	Len() int

	// SetVertices replaces all vertices of the mesh at index i.
	//
	// Parameters:
	//   - i: the mesh index
	//   - vertices: the new vertex data
	//
	// Returns:
	//   - error: ErrIndexOutOfRange when i is out of range
	SetVertices(i int, vertices []Vertex) error

	// Remove deletes the mesh at index i, shifting later meshes down.
	//
	// Parameters:
	//   - i: the mesh index
	//
	// Returns:
	//   - error: ErrIndexOutOfRange when i is out of range
	Remove(i int) error

	// Clear removes every mesh.
	Clear()

	// VertexCount returns the total vertex count across all meshes.
	//
	// Returns:
	//   - int: the total vertex count
	VertexCount() int

	// Dirty reports whether the collection changed since the last MarkClean.
	//
	// Returns:
	//   - bool: true when derived GPU state is stale
	Dirty() bool

	// MarkClean clears the dirty flag.
	MarkClean()

	// Flatten concatenates the vertices of every mesh in collection order.
	//
	// Returns:
	//   - []byte: the marshalled vertex data, VertexSize bytes per vertex
	//   - []Range: the vertex range occupied by each mesh, in collection order
	Flatten() ([]byte, []Range)
}

var _ Collection = &collection{}

// NewCollection creates an empty Collection. A new collection starts dirty so the first
// render always builds its vertex buffer, even when nothing has been added.
//
// Returns:
//   - Collection: the new collection
func NewCollection() Collection {
	return &collection{dirty: true}
}

func (c *collection) Add(meshes ...Mesh) error {
	impls := make([]*mesh, 0, len(meshes))
	for _, m := range meshes {
		impl, ok := m.(*mesh)
		if !ok {
			impl = NewMesh(m.Label(), m.Vertices()).(*mesh)
		}
		if impl.owner != nil || slices.Contains(impls, impl) {
			return fmt.Errorf("add %q: %w", impl.label, ErrMeshOwned)
		}
		impls = append(impls, impl)
	}
	if len(impls) == 0 {
		return nil
	}

	for _, impl := range impls {
		impl.owner = c
	}
	c.meshes = append(c.meshes, impls...)
	c.dirty = true
	return nil
}

func (c *collection) Mesh(i int) Mesh {
	if i < 0 || i >= len(c.meshes) {
		return nil
	}
	return c.meshes[i]
}

func (c *collection) Len() int {
	return len(c.meshes)
}

func (c *collection) SetVertices(i int, vertices []Vertex) error {
	if i < 0 || i >= len(c.meshes) {
		return fmt.Errorf("set vertices at %d: %w", i, ErrIndexOutOfRange)
	}
	c.meshes[i].SetVertices(vertices)
	return nil
}

func (c *collection) Remove(i int) error {
	if i < 0 || i >= len(c.meshes) {
		return fmt.Errorf("remove at %d: %w", i, ErrIndexOutOfRange)
	}
	c.meshes[i].owner = nil
	c.meshes = slices.Delete(c.meshes, i, i+1)
	c.dirty = true
	return nil
}

func (c *collection) Clear() {
	for _, m := range c.meshes {
		m.owner = nil
	}
	c.meshes = nil
	c.dirty = true
}

func (c *collection) VertexCount() int {
	total := 0
	for _, m := range c.meshes {
		total += len(m.vertices)
	}
	return total
}

func (c *collection) Dirty() bool {
	return c.dirty
}

func (c *collection) MarkClean() {
	c.dirty = false
}

func (c *collection) Flatten() ([]byte, []Range) {
	data := make([]byte, c.VertexCount()*VertexSize)
	ranges := make([]Range, 0, len(c.meshes))

	offset := 0
	for _, m := range c.meshes {
		ranges = append(ranges, Range{
			Label:       m.label,
			FirstVertex: uint32(offset),
			VertexCount: uint32(len(m.vertices)),
		})
		for _, v := range m.vertices {
			v.MarshalTo(data[offset*VertexSize:])
			offset++
		}
	}
	return data, ranges
}
