package shader

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/voxels/engine/mesh"
	"github.com/cogentcore/webgpu/wgpu"
)

const testVertexSource = `//@voxels:include vertex
//@voxels:include time
//@voxels:group 0 0 uniform time time

override scale: f32 = 1.0;
@id(7) override bias: f32 = 0.0;

struct VertexOutput {
    @builtin(position) clip_position: vec4<f32>,
    @location(0) color: vec3<f32>,
};

@vertex
fn vs_main(vert: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.clip_position = vec4<f32>(vert.position * scale + vec3<f32>(bias, 0.0, time.elapsed * 0.0), 1.0);
    out.color = vert.color;
    return out;
}
`

const testFragmentSource = `//@voxels:include time
//@voxels:group 0 0 uniform time time

@fragment
fn fs_main(@location(0) color: vec3<f32>) -> @location(0) vec4<f32> {
    return vec4<f32>(color * (0.5 + 0.5 * sin(time.elapsed)), 1.0);
}
`

const testBareVertexSource = `@vertex
fn main(@location(1) color: vec3<f32>, @location(0) position: vec3<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(position + color * 0.0, 1.0);
}
`

func writeShader(t *testing.T, name, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadVertexReflectsLayouts(t *testing.T) {
	path := writeShader(t, "vertex.wgsl", testVertexSource)
	s, err := Load(ShaderConfig{Path: path, Label: "Vertex"}, ShaderTypeVertex)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.EntryPoint() != "vs_main" {
		t.Errorf("EntryPoint() = %q, want vs_main", s.EntryPoint())
	}
	if s.Module().Label != "Vertex" {
		t.Errorf("Module().Label = %q, want Vertex", s.Module().Label)
	}

	layouts := s.VertexLayouts()
	if len(layouts) != 1 {
		t.Fatalf("len(VertexLayouts()) = %d, want 1", len(layouts))
	}
	want := mesh.VertexBufferLayout()
	if layouts[0].ArrayStride != want.ArrayStride {
		t.Errorf("ArrayStride = %d, want %d", layouts[0].ArrayStride, want.ArrayStride)
	}
	for i := range want.Attributes {
		if layouts[0].Attributes[i] != want.Attributes[i] {
			t.Errorf("Attributes[%d] = %+v, want %+v", i, layouts[0].Attributes[i], want.Attributes[i])
		}
	}

	desc, ok := s.BindGroupLayoutDescriptors()[0]
	if !ok || len(desc.Entries) != 1 {
		t.Fatalf("group 0 descriptor = %+v, want one entry", desc)
	}
	entry := desc.Entries[0]
	if entry.Binding != 0 || entry.Buffer.Type != wgpu.BufferBindingTypeUniform {
		t.Errorf("entry = %+v, want uniform at binding 0", entry)
	}
	if entry.Buffer.MinBindingSize != 4 {
		t.Errorf("MinBindingSize = %d, want 4", entry.Buffer.MinBindingSize)
	}
	if entry.Visibility != wgpu.ShaderStageVertex {
		t.Errorf("Visibility = %v, want vertex", entry.Visibility)
	}
	if name := s.BindGroupVarName(0, 0); name != "time" {
		t.Errorf("BindGroupVarName(0, 0) = %q, want time", name)
	}
	if !strings.Contains(s.Source(), "struct VertexInput") {
		t.Error("Source() should contain the injected VertexInput struct")
	}
}

func TestLoadBareArgumentsSortedByLocation(t *testing.T) {
	path := writeShader(t, "bare.wgsl", testBareVertexSource)
	s, err := Load(ShaderConfig{Path: path}, ShaderTypeVertex)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	layout := s.VertexLayouts()[0]
	if layout.ArrayStride != mesh.VertexSize {
		t.Errorf("ArrayStride = %d, want %d", layout.ArrayStride, mesh.VertexSize)
	}
	if layout.Attributes[0].ShaderLocation != 0 || layout.Attributes[1].Offset != 12 {
		t.Errorf("attributes not ordered by location: %+v", layout.Attributes)
	}
	if s.Module().Label != path {
		t.Errorf("Module().Label = %q, want the path when no label is set", s.Module().Label)
	}
}

func TestLoadFragment(t *testing.T) {
	path := writeShader(t, "fragment.wgsl", testFragmentSource)
	s, err := Load(ShaderConfig{Path: path, EntryPoint: "fs_main"}, ShaderTypeFragment)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.VertexLayouts() != nil {
		t.Errorf("fragment VertexLayouts() = %v, want nil", s.VertexLayouts())
	}
	if s.BindGroupLayoutDescriptors()[0].Entries[0].Visibility != wgpu.ShaderStageFragment {
		t.Error("fragment bindings should be visible to the fragment stage")
	}
}

func TestLoadErrors(t *testing.T) {
	vertexPath := writeShader(t, "vertex.wgsl", testVertexSource)
	brokenPath := writeShader(t, "broken.wgsl", "@vertex fn vs_main( -> {")

	tests := []struct {
		name       string
		cfg        ShaderConfig
		shaderType ShaderType
		want       error
	}{
		{"empty path", ShaderConfig{}, ShaderTypeVertex, ErrNoSource},
		{"missing file", ShaderConfig{Path: filepath.Join(t.TempDir(), "nope.wgsl")}, ShaderTypeVertex, fs.ErrNotExist},
		{"unknown entry point", ShaderConfig{Path: vertexPath, EntryPoint: "main"}, ShaderTypeVertex, ErrEntryPointNotFound},
		{"wrong stage", ShaderConfig{Path: vertexPath, EntryPoint: "vs_main"}, ShaderTypeFragment, ErrEntryPointNotFound},
		{"no fragment entry", ShaderConfig{Path: vertexPath}, ShaderTypeFragment, ErrEntryPointNotFound},
		{"unknown constant", ShaderConfig{Path: vertexPath, Constants: map[string]float64{"gain": 1}}, ShaderTypeVertex, ErrUnknownConstant},
		{"invalid wgsl", ShaderConfig{Path: brokenPath}, ShaderTypeVertex, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Load(tt.cfg, tt.shaderType)
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			if s != nil {
				t.Error("Load() returned a shader alongside an error")
			}
			var loadErr *LoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("error %T is not a *LoadError", err)
			}
			if loadErr.Stage != tt.shaderType {
				t.Errorf("LoadError.Stage = %v, want %v", loadErr.Stage, tt.shaderType)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Load() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadBakesConstants(t *testing.T) {
	path := writeShader(t, "vertex.wgsl", testVertexSource)
	s, err := Load(ShaderConfig{Path: path, Constants: map[string]float64{"scale": 2, "7": 0.5}}, ShaderTypeVertex)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	src := s.Source()
	for _, want := range []string{"const scale: f32 = 2.0f;", "const bias: f32 = 0.5f;"} {
		if !strings.Contains(src, want) {
			t.Errorf("Source() missing %q:\n%s", want, src)
		}
	}
	if strings.Contains(src, "override") {
		t.Error("Source() still contains an override declaration")
	}
}

func TestLoadPair(t *testing.T) {
	vertexPath := writeShader(t, "vertex.wgsl", testVertexSource)
	fragmentPath := writeShader(t, "fragment.wgsl", testFragmentSource)

	vs, fs, err := LoadPair(ShaderConfig{Path: vertexPath}, &ShaderConfig{Path: fragmentPath})
	if err != nil {
		t.Fatalf("LoadPair() error = %v", err)
	}
	if vs.ShaderType() != ShaderTypeVertex || fs.ShaderType() != ShaderTypeFragment {
		t.Errorf("LoadPair() stages = %v, %v", vs.ShaderType(), fs.ShaderType())
	}

	vs, fs, err = LoadPair(ShaderConfig{Path: vertexPath}, nil)
	if err != nil || vs == nil || fs != nil {
		t.Errorf("LoadPair(vertex only) = %v, %v, %v", vs, fs, err)
	}

	_, _, err = LoadPair(ShaderConfig{}, &ShaderConfig{Path: vertexPath})
	if !errors.Is(err, ErrNoSource) || !errors.Is(err, ErrEntryPointNotFound) {
		t.Errorf("LoadPair() error = %v, want both stage errors joined", err)
	}
}
