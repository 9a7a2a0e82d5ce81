package mesh

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func tri(label string, z float32) Mesh {
	return NewMesh(label, []Vertex{
		{Position: [3]float32{0, 0.5, z}, Color: [3]float32{1, 0, 0}},
		{Position: [3]float32{-0.5, -0.5, z}, Color: [3]float32{0, 1, 0}},
		{Position: [3]float32{0.5, -0.5, z}, Color: [3]float32{0, 0, 1}},
	})
}

func readFloat(b []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off : off+4]))
}

func TestVertexMarshalLayout(t *testing.T) {
	v := Vertex{Position: [3]float32{1, 2, 3}, Color: [3]float32{0.25, 0.5, 0.75}}
	b := v.Marshal()
	if len(b) != VertexSize {
		t.Fatalf("len(Marshal()) = %d, want %d", len(b), VertexSize)
	}
	want := []float32{1, 2, 3, 0.25, 0.5, 0.75}
	for i, w := range want {
		if got := readFloat(b, i*4); got != w {
			t.Errorf("float at offset %d = %v, want %v", i*4, got, w)
		}
	}
}

func TestVertexBufferLayoutMatchesVertex(t *testing.T) {
	layout := VertexBufferLayout()
	if layout.ArrayStride != VertexSize {
		t.Errorf("ArrayStride = %d, want %d", layout.ArrayStride, VertexSize)
	}
	if layout.StepMode != wgpu.VertexStepModeVertex {
		t.Errorf("StepMode = %v, want vertex", layout.StepMode)
	}
	if len(layout.Attributes) != 2 {
		t.Fatalf("len(Attributes) = %d, want 2", len(layout.Attributes))
	}
	for i, want := range []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
	} {
		if layout.Attributes[i] != want {
			t.Errorf("Attributes[%d] = %+v, want %+v", i, layout.Attributes[i], want)
		}
	}
}

func TestMeshSetVerticesCopies(t *testing.T) {
	src := []Vertex{{Position: [3]float32{1, 1, 1}}}
	m := NewMesh("m", src)
	src[0].Position[0] = 9
	if m.Vertices()[0].Position[0] != 1 {
		t.Error("NewMesh should copy the vertex slice")
	}

	out := m.Vertices()
	out[0].Position[0] = 7
	if m.Vertices()[0].Position[0] != 1 {
		t.Error("Vertices should return a copy")
	}

	m.SetVertices(nil)
	if m.VertexCount() != 0 {
		t.Errorf("VertexCount() = %d after clearing, want 0", m.VertexCount())
	}
}

func TestCollectionDirtyFlag(t *testing.T) {
	c := NewCollection()
	if !c.Dirty() {
		t.Fatal("new collection should start dirty")
	}
	c.MarkClean()

	tests := []struct {
		name   string
		mutate func(t *testing.T, c Collection)
	}{
		{"add", func(t *testing.T, c Collection) {
			if err := c.Add(tri("a", 0)); err != nil {
				t.Fatal(err)
			}
		}},
		{"collection set vertices", func(t *testing.T, c Collection) {
			if err := c.SetVertices(0, []Vertex{{}}); err != nil {
				t.Fatal(err)
			}
		}},
		{"mesh set vertices", func(t *testing.T, c Collection) {
			c.Mesh(0).SetVertices([]Vertex{{}, {}})
		}},
		{"remove", func(t *testing.T, c Collection) {
			if err := c.Remove(0); err != nil {
				t.Fatal(err)
			}
		}},
		{"clear", func(t *testing.T, c Collection) { c.Clear() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mutate(t, c)
			if !c.Dirty() {
				t.Errorf("%s did not set the dirty flag", tt.name)
			}
			c.MarkClean()
		})
	}
}

func TestCollectionFlattenLengthAndOffsets(t *testing.T) {
	c := NewCollection()
	if err := c.Add(tri("a", 0), Cube(), tri("b", 1)); err != nil {
		t.Fatal(err)
	}

	data, ranges := c.Flatten()
	if want := (3 + 8 + 3) * VertexSize; len(data) != want {
		t.Errorf("len(data) = %d, want %d", len(data), want)
	}
	want := []Range{
		{Label: "a", FirstVertex: 0, VertexCount: 3},
		{Label: "Cube", FirstVertex: 3, VertexCount: 8},
		{Label: "b", FirstVertex: 11, VertexCount: 3},
	}
	if len(ranges) != len(want) {
		t.Fatalf("len(ranges) = %d, want %d", len(ranges), len(want))
	}
	for i := range want {
		if ranges[i] != want[i] {
			t.Errorf("ranges[%d] = %+v, want %+v", i, ranges[i], want[i])
		}
	}

	// the last mesh starts at vertex 11 with z = 1
	if got := readFloat(data, 11*VertexSize+8); got != 1 {
		t.Errorf("z of vertex 11 = %v, want 1", got)
	}
}

func TestCollectionFlattenIdempotent(t *testing.T) {
	c := NewCollection()
	if err := c.Add(Cube(), tri("t", 0)); err != nil {
		t.Fatal(err)
	}
	first, _ := c.Flatten()
	second, _ := c.Flatten()
	if !bytes.Equal(first, second) {
		t.Error("Flatten is not idempotent without an intervening mutation")
	}
}

func TestCollectionFlattenEmpty(t *testing.T) {
	data, ranges := NewCollection().Flatten()
	if len(data) != 0 || len(ranges) != 0 {
		t.Errorf("Flatten() on empty collection = %d bytes, %d ranges; want 0, 0", len(data), len(ranges))
	}
}

func TestCollectionOwnership(t *testing.T) {
	a, b := NewCollection(), NewCollection()
	m := Cube()
	if err := a.Add(m); err != nil {
		t.Fatal(err)
	}
	if err := b.Add(m); !errors.Is(err, ErrMeshOwned) {
		t.Errorf("Add() of owned mesh = %v, want ErrMeshOwned", err)
	}
	if err := a.Remove(0); err != nil {
		t.Fatal(err)
	}
	if err := b.Add(m); err != nil {
		t.Errorf("Add() after Remove = %v, want nil", err)
	}

	a.MarkClean()
	m.SetVertices(nil)
	if a.Dirty() {
		t.Error("removed mesh should no longer mark its old collection dirty")
	}
	if !b.Dirty() {
		t.Error("mesh should mark its new collection dirty")
	}
}

func TestCollectionAddIsAllOrNothing(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) []Mesh
	}{
		{"same mesh twice", func(t *testing.T) []Mesh {
			m := tri("a", 0)
			return []Mesh{m, m}
		}},
		{"owned mesh last", func(t *testing.T) []Mesh {
			owned := tri("owned", 0)
			if err := NewCollection().Add(owned); err != nil {
				t.Fatal(err)
			}
			return []Mesh{tri("a", 0), tri("b", 1), owned}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meshes := tt.setup(t)
			c := NewCollection()
			c.MarkClean()

			if err := c.Add(meshes...); !errors.Is(err, ErrMeshOwned) {
				t.Fatalf("Add() error = %v, want ErrMeshOwned", err)
			}
			if c.Len() != 0 || c.Dirty() {
				t.Errorf("after failed Add: len = %d, dirty = %v, want 0 and false", c.Len(), c.Dirty())
			}
			// Nothing was claimed, so the first mesh can still join another collection.
			if err := NewCollection().Add(meshes[0]); err != nil {
				t.Errorf("Add() of unclaimed mesh = %v, want nil", err)
			}
		})
	}
}

func TestCollectionRemoveClearsSlot(t *testing.T) {
	c := NewCollection().(*collection)
	if err := c.Add(tri("a", 0), tri("b", 1), tri("c", 2)); err != nil {
		t.Fatal(err)
	}
	if err := c.Remove(0); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 2 || c.Mesh(0).Label() != "b" || c.Mesh(1).Label() != "c" {
		t.Fatalf("after Remove(0): len = %d", c.Len())
	}
	if tail := c.meshes[:3][2]; tail != nil {
		t.Errorf("removed mesh %q still referenced by the backing array", tail.label)
	}
}

func TestCollectionIndexErrors(t *testing.T) {
	c := NewCollection()
	if err := c.Remove(0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Remove(0) = %v, want ErrIndexOutOfRange", err)
	}
	if err := c.SetVertices(-1, nil); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("SetVertices(-1) = %v, want ErrIndexOutOfRange", err)
	}
	if c.Mesh(3) != nil {
		t.Error("Mesh(3) on empty collection should be nil")
	}
}

func TestCube(t *testing.T) {
	c := Cube()
	if c.Label() != "Cube" {
		t.Errorf("Label() = %q, want Cube", c.Label())
	}
	vs := c.Vertices()
	if len(vs) != 8 {
		t.Fatalf("cube has %d vertices, want 8", len(vs))
	}
	for i, v := range vs {
		wantColor := [3]float32{1, 0, 0}
		wantZ := float32(0.5)
		if i >= 4 {
			wantColor = [3]float32{0, 1, 0}
			wantZ = -0.5
		}
		if v.Color != wantColor || v.Position[2] != wantZ {
			t.Errorf("vertex %d = %+v, want z=%v color=%v", i, v, wantZ, wantColor)
		}
	}
}
