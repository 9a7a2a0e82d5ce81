package shader

import (
	"strings"
	"testing"
)

func TestProcessExpandsAnnotations(t *testing.T) {
	pp := NewPreProcessor()
	out, err := pp.Process("//@voxels:include time\n//@voxels:group 0 0 uniform time time\nfn f() {}")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !strings.Contains(out, "struct TimeUniform") {
		t.Errorf("output missing TimeUniform struct:\n%s", out)
	}
	if !strings.Contains(out, "@group(0) @binding(0) var<uniform> time: TimeUniform;") {
		t.Errorf("output missing binding declaration:\n%s", out)
	}
	decls := pp.Declarations()
	if len(decls) != 1 || *decls[0].Group != 0 || *decls[0].Binding != 0 || decls[0].Line != 2 {
		t.Errorf("Declarations() = %+v", decls)
	}

	if _, err := pp.Process("fn f() {}"); err != nil {
		t.Fatal(err)
	}
	if len(pp.Declarations()) != 0 {
		t.Error("Declarations() should reset on every Process call")
	}
}

func TestProcessAnnotationErrors(t *testing.T) {
	for _, src := range []string{
		"//@voxels:",
		"//@voxels:include",
		"//@voxels:include camera",
		"//@voxels:group 0 0 uniform time",
		"//@voxels:group x 0 uniform time time",
		"//@voxels:group 0 -1 uniform time time",
		"//@voxels:group 0 0 push time time",
		"//@voxels:group 0 0 uniform time light",
		"//@voxels:provider 0 0 time",
	} {
		if _, err := NewPreProcessor().Process(src); err == nil {
			t.Errorf("Process(%q) error = nil, want error", src)
		}
	}
}

func TestProcessIgnoresNonCommentPrefix(t *testing.T) {
	src := `let s = "@voxels:include time";`
	out, err := NewPreProcessor().Process(src)
	if err != nil || out != src {
		t.Errorf("Process() = %q, %v; want input unchanged", out, err)
	}
}

func TestBakeConstants(t *testing.T) {
	src := strings.Join([]string{
		"override a: f32 = 1.0;",
		"  @id(3) override b: i32;",
		"override c: u32 = 1u; // trailing",
		"override d: bool = true;",
		"override e = 2;",
		"override f = 2.5;",
		"override untouched: f32 = 9.0;",
	}, "\n")
	out, err := NewPreProcessor().BakeConstants(src, map[string]float64{
		"a": 0.25, "3": -4, "c": 8, "d": 0, "e": 3, "f": 1,
	})
	if err != nil {
		t.Fatalf("BakeConstants() error = %v", err)
	}
	want := strings.Join([]string{
		"const a: f32 = 0.25f;",
		"  const b: i32 = -4i;",
		"const c: u32 = 8u; // trailing",
		"const d: bool = false;",
		"const e = 3;",
		"const f = 1.0;",
		"override untouched: f32 = 9.0;",
	}, "\n")
	if out != want {
		t.Errorf("BakeConstants() =\n%s\nwant\n%s", out, want)
	}
}

func TestFormatLiteralErrors(t *testing.T) {
	tests := []struct {
		typeName string
		value    float64
	}{
		{"i32", 1.5},
		{"u32", -1},
		{"u32", 1 << 33},
		{"f32", posInf()},
		{"mat4x4<f32>", 1},
	}
	for _, tt := range tests {
		if _, err := formatLiteral(tt.typeName, "", tt.value); err == nil {
			t.Errorf("formatLiteral(%q, %v) error = nil, want error", tt.typeName, tt.value)
		}
	}
}

func posInf() float64 {
	var zero float64
	return 1 / zero
}
