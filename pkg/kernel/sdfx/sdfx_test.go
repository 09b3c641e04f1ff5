package sdfx

import (
	"math"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

func meshVolume(t *testing.T, s sdf.SDF3, cells int) float64 {
	t.Helper()
	m, err := New(cells).Mesh(s)
	if err != nil {
		t.Fatalf("Mesh failed: %v", err)
	}
	if m.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("invalid mesh: %v", err)
	}
	vol := 0.0
	for i := 0; i < m.TriangleCount(); i++ {
		tri := m.Triangle(i)
		a, b, c := m.Position(int(tri[0])), m.Position(int(tri[1])), m.Position(int(tri[2]))
		vol += a.Dot(b.Cross(c)) / 6
	}
	return vol
}

func TestSphere(t *testing.T) {
	s, err := Sphere(10)
	if err != nil {
		t.Fatal(err)
	}
	got := meshVolume(t, s, 48)
	want := 4.0 / 3.0 * math.Pi * 1000
	if math.Abs(got-want)/want > 0.05 {
		t.Fatalf("sphere volume %.1f, want about %.1f", got, want)
	}
}

func TestBoxAtOrigin(t *testing.T) {
	s, err := Box(10, 20, 30, 0)
	if err != nil {
		t.Fatal(err)
	}
	bb := s.BoundingBox()
	const tol = 0.5
	if bb.Min.Length() > tol {
		t.Fatalf("box min corner %v, want origin", bb.Min)
	}
	if math.Abs(bb.Max.X-10) > tol || math.Abs(bb.Max.Y-20) > tol || math.Abs(bb.Max.Z-30) > tol {
		t.Fatalf("box max corner %v, want (10,20,30)", bb.Max)
	}
	got := meshVolume(t, s, 32)
	if math.Abs(got-6000)/6000 > 0.1 {
		t.Fatalf("box volume %.1f, want about 6000", got)
	}
}

func TestTranslate(t *testing.T) {
	s, err := Cylinder(10, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	bb := Translate(s, v3.Vec{X: 100, Y: 200, Z: 300}).BoundingBox()
	c := bb.Center()
	if math.Abs(c.X-100) > 0.5 || math.Abs(c.Y-200) > 0.5 || math.Abs(c.Z-300) > 0.5 {
		t.Fatalf("translated center %v, want (100,200,300)", c)
	}
}

func TestRotate(t *testing.T) {
	s, err := Cylinder(20, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	bb := Rotate(s, 90, 0, 0).BoundingBox()
	size := bb.Size()
	if size.Y < 19 || size.Z > 5 {
		t.Fatalf("rotated cylinder size %v, want long along Y", size)
	}
}

func TestInvalidPrimitive(t *testing.T) {
	if _, err := Sphere(-1); err == nil {
		t.Fatal("expected error for negative radius")
	}
	if _, err := New(16).Mesh(nil); err == nil {
		t.Fatal("expected error for nil model")
	}
}

func TestNewClampsCells(t *testing.T) {
	if got := New(0).Cells(); got != DefaultCells {
		t.Fatalf("cells %d, want %d", got, DefaultCells)
	}
}
