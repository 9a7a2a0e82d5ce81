package mesh

import "slices"

// mesh is the implementation of the Mesh interface.
type mesh struct {
	label    string
	vertices []Vertex

	// owner is notified whenever the vertex data is replaced. Nil until the mesh is added to a Collection.
	owner *collection
}

// Mesh is a labelled sequence of vertices. The vertex data can only be replaced as a whole,
// and every replacement marks the owning Collection dirty.
type Mesh interface {
	// Label returns the mesh label used in debug output and GPU object labels.
	//
	// Returns:
	//   - string: the label, possibly empty
	Label() string

	// Vertices returns a copy of the mesh vertices.
	//
	// Returns:
	//   - []Vertex: the current vertex data
	Vertices() []Vertex

	// VertexCount returns the number of vertices in the mesh.
	//
	// Returns:
	//   - int: the vertex count
	VertexCount() int

	// SetVertices replaces all vertices of the mesh with a copy of the given slice.
	// If the mesh belongs to a Collection the Collection is marked dirty.
	//
	// Parameters:
	//   - vertices: the new vertex data
	SetVertices(vertices []Vertex)
}

var _ Mesh = &mesh{}

// NewMesh creates a Mesh holding a copy of the given vertices.
//
// Parameters:
//   - label: the mesh label
//   - vertices: the initial vertex data
//
// Returns:
//   - Mesh: the new mesh
func NewMesh(label string, vertices []Vertex) Mesh {
	return &mesh{
		label:    label,
		vertices: slices.Clone(vertices),
	}
}

func (m *mesh) Label() string {
	return m.label
}

func (m *mesh) Vertices() []Vertex {
	return slices.Clone(m.vertices)
}

func (m *mesh) VertexCount() int {
	return len(m.vertices)
}

func (m *mesh) SetVertices(vertices []Vertex) {
	m.vertices = slices.Clone(vertices)
	if m.owner != nil {
		m.owner.dirty = true
	}
}
