package tessellate_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/brep/pkg/kernel"
	"github.com/chazu/brep/pkg/kernel/csg"
	"github.com/chazu/brep/pkg/solid"
	"github.com/chazu/brep/pkg/tessellate"
)

// newBox returns a box on an isolated engine.
func newBox(t *testing.T, name string, x, y, z float64) *solid.Solid {
	t.Helper()
	eng := csg.New(csg.WithAllocator(kernel.NewCounter(1)))
	s, err := solid.Box(name, v3.Vec{X: x, Y: y, Z: z}, solid.WithEngine(eng))
	if err != nil {
		t.Fatalf("Box: %v", err)
	}
	return s
}

func TestOneMeshPerFace(t *testing.T) {
	s := newBox(t, "B", 1, 2, 3)
	meshes := tessellate.Tessellate(s)
	if len(meshes) != 6 {
		t.Fatalf("expected 6 meshes, got %d", len(meshes))
	}
	for i, m := range meshes {
		if m.FaceName != s.FaceNames()[i] {
			t.Errorf("mesh %d: face %q, want %q", i, m.FaceName, s.FaceNames()[i])
		}
		if m.TriangleCount() != 2 {
			t.Errorf("%s: expected 2 triangles, got %d", m.FaceName, m.TriangleCount())
		}
		if m.VertexCount() != 6 {
			t.Errorf("%s: expected 6 unshared vertices, got %d", m.FaceName, m.VertexCount())
		}
		if len(m.Normals) != len(m.Vertices) {
			t.Errorf("%s: %d normals for %d vertex components", m.FaceName, len(m.Normals), len(m.Vertices))
		}
		id, _ := s.FaceID(m.FaceName)
		if m.FaceID != id {
			t.Errorf("%s: face ID %d, want %d", m.FaceName, m.FaceID, id)
		}
	}
}

func TestFlatNormals(t *testing.T) {
	s := newBox(t, "B", 1, 1, 1)
	want := map[string][3]float32{
		"B_NX": {-1, 0, 0}, "B_PX": {1, 0, 0},
		"B_NY": {0, -1, 0}, "B_PY": {0, 1, 0},
		"B_NZ": {0, 0, -1}, "B_PZ": {0, 0, 1},
	}
	for _, m := range tessellate.Tessellate(s) {
		w := want[m.FaceName]
		for i := 0; i < len(m.Normals); i += 3 {
			for k := range 3 {
				if math.Abs(float64(m.Normals[i+k]-w[k])) > 1e-6 {
					t.Fatalf("%s: normal %v, want %v", m.FaceName, m.Normals[i:i+3], w)
				}
			}
		}
	}
}

func TestBoundsMatchSolid(t *testing.T) {
	s := newBox(t, "B", 4, 5, 6).Translate(v3.Vec{X: 1, Y: 1, Z: 1})
	merged := tessellate.Merge(tessellate.Tessellate(s))
	if merged.TriangleCount() != 12 {
		t.Fatalf("expected 12 triangles, got %d", merged.TriangleCount())
	}
	hi := [3]float32{}
	for i := 0; i < len(merged.Vertices); i += 3 {
		for k := range 3 {
			if merged.Vertices[i+k] > hi[k] {
				hi[k] = merged.Vertices[i+k]
			}
		}
	}
	if hi != [3]float32{5, 6, 7} {
		t.Errorf("max corner %v, want [5 6 7]", hi)
	}
	for _, i := range merged.Indices {
		if int(i) >= merged.VertexCount() {
			t.Fatalf("index %d out of range", i)
		}
	}
}

func TestEmpty(t *testing.T) {
	if got := tessellate.Tessellate(nil); got != nil {
		t.Errorf("nil solid: got %v", got)
	}
	if got := tessellate.Tessellate(solid.New()); len(got) != 0 {
		t.Errorf("empty solid: got %d meshes", len(got))
	}
	if !tessellate.Merge(nil).IsEmpty() {
		t.Error("merge of nothing should be empty")
	}
}

func TestSaveSTL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "box.stl")
	if err := tessellate.SaveSTL(path, newBox(t, "B", 1, 1, 1)); err != nil {
		t.Fatalf("SaveSTL: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	// 80 byte header, 4 byte count, 50 bytes per triangle.
	if info.Size() != 84+12*50 {
		t.Errorf("file size %d", info.Size())
	}
	if err := tessellate.SaveSTL(path, solid.New()); err == nil {
		t.Error("expected error for empty solid")
	}
}
