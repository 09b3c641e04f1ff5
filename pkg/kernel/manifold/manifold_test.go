//go:build manifold

package manifold

import (
	"errors"
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/brep/pkg/kernel"
)

func mustNew(t *testing.T) kernel.Engine {
	t.Helper()
	e, err := New(kernel.NewCounter(1))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func box(min, max v3.Vec, firstID uint32) *kernel.MeshGL {
	verts := []v3.Vec{
		{X: min.X, Y: min.Y, Z: min.Z}, {X: max.X, Y: min.Y, Z: min.Z},
		{X: max.X, Y: max.Y, Z: min.Z}, {X: min.X, Y: max.Y, Z: min.Z},
		{X: min.X, Y: min.Y, Z: max.Z}, {X: max.X, Y: min.Y, Z: max.Z},
		{X: max.X, Y: max.Y, Z: max.Z}, {X: min.X, Y: max.Y, Z: max.Z},
	}
	tris := [][3]uint32{
		{0, 4, 7}, {0, 7, 3}, {1, 2, 6}, {1, 6, 5},
		{0, 1, 5}, {0, 5, 4}, {3, 7, 6}, {3, 6, 2},
		{0, 2, 1}, {0, 3, 2}, {4, 5, 6}, {4, 6, 7},
	}
	ids := make([]uint32, len(tris))
	for i := range ids {
		ids[i] = firstID + uint32(i/2)
	}
	return kernel.NewMeshGL(verts, tris, ids)
}

func volume(m *kernel.MeshGL) float64 {
	vol := 0.0
	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		a, b, c := m.Position(int(tri[0])), m.Position(int(tri[1])), m.Position(int(tri[2]))
		vol += a.Dot(b.Cross(c)) / 6
	}
	return vol
}

func TestBuildPreservesFaceIDs(t *testing.T) {
	e := mustNew(t)
	h, err := e.Build(box(v3.Vec{}, v3.Vec{X: 10, Y: 10, Z: 10}, 7))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer e.Delete(h)

	m, err := e.GetMesh(h)
	if err != nil {
		t.Fatalf("GetMesh() error = %v", err)
	}
	seen := map[uint32]bool{}
	for _, id := range m.FaceID {
		seen[id] = true
	}
	for id := uint32(7); id < 13; id++ {
		if !seen[id] {
			t.Errorf("face ID %d missing after round trip", id)
		}
	}
	if math.Abs(volume(m)-1000) > 1e-3 {
		t.Errorf("volume = %f, want 1000", volume(m))
	}
}

func TestDifference(t *testing.T) {
	e := mustNew(t)
	a, err := e.Build(box(v3.Vec{}, v3.Vec{X: 2, Y: 2, Z: 2}, 1))
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Build(box(v3.Vec{X: 1, Y: 1, Z: 1}, v3.Vec{X: 3, Y: 3, Z: 3}, 20))
	if err != nil {
		t.Fatal(err)
	}
	r, err := e.Difference(a, b)
	if err != nil {
		t.Fatalf("Difference() error = %v", err)
	}
	m, err := e.GetMesh(r)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(volume(m)-7) > 1e-4 {
		t.Errorf("volume = %f, want 7", volume(m))
	}
}

func TestHullSingleID(t *testing.T) {
	e := mustNew(t)
	h, err := e.Hull([]v3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}, {X: 0.1, Y: 0.1, Z: 0.1}})
	if err != nil {
		t.Fatalf("Hull() error = %v", err)
	}
	m, err := e.GetMesh(h)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range m.FaceID[1:] {
		if id != m.FaceID[0] {
			t.Fatalf("hull face IDs differ: %d vs %d", id, m.FaceID[0])
		}
	}
}

func TestReleased(t *testing.T) {
	e := mustNew(t)
	h, err := e.Build(box(v3.Vec{}, v3.Vec{X: 1, Y: 1, Z: 1}, 1))
	if err != nil {
		t.Fatal(err)
	}
	e.Delete(h)
	e.Delete(h)
	if _, err := e.GetMesh(h); !errors.Is(err, kernel.ErrReleased) {
		t.Errorf("GetMesh() after Delete error = %v, want ErrReleased", err)
	}
}
