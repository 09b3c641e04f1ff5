package solid

import (
	"errors"
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/brep/pkg/kernel"
)

// Box face suffixes, one per side, named by outward axis direction.
const (
	FaceNX = "_NX"
	FacePX = "_PX"
	FaceNY = "_NY"
	FacePY = "_PY"
	FaceNZ = "_NZ"
	FacePZ = "_PZ"
)

// Box creates an axis-aligned box with its minimum corner at the origin.
// Its six faces are named name+FaceNX and so on.
func Box(name string, size v3.Vec, opts ...Option) (*Solid, error) {
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 || !kernel.Finite(size) {
		return nil, &AuthoringError{Op: "box", Name: name, Err: fmt.Errorf("%w: size %v", ErrDegenerate, size)}
	}
	s := New(opts...)
	p := func(i, j, k float64) v3.Vec {
		return v3.Vec{X: i * size.X, Y: j * size.Y, Z: k * size.Z}
	}
	quads := []struct {
		suffix     string
		a, b, c, d v3.Vec
	}{
		{FaceNX, p(0, 0, 0), p(0, 0, 1), p(0, 1, 1), p(0, 1, 0)},
		{FacePX, p(1, 0, 0), p(1, 1, 0), p(1, 1, 1), p(1, 0, 1)},
		{FaceNY, p(0, 0, 0), p(1, 0, 0), p(1, 0, 1), p(0, 0, 1)},
		{FacePY, p(0, 1, 0), p(0, 1, 1), p(1, 1, 1), p(1, 1, 0)},
		{FaceNZ, p(0, 0, 0), p(0, 1, 0), p(1, 1, 0), p(1, 0, 0)},
		{FacePZ, p(0, 0, 1), p(1, 0, 1), p(1, 1, 1), p(0, 1, 1)},
	}
	for _, q := range quads {
		if err := s.AddQuad(name+q.suffix, q.a, q.b, q.c, q.d); err != nil {
			return nil, err
		}
		s.SetFaceMetadata(name+q.suffix, &Metadata{Source: "box", FeatureID: name})
	}
	return s, nil
}

// Cylinder creates a Z-aligned cylinder standing on the XY plane, with
// faces name_SIDE, name_BOTTOM and name_TOP.
func Cylinder(name string, radius, height float64, segments int, opts ...Option) (*Solid, error) {
	if radius <= 0 || height <= 0 || math.IsInf(radius, 0) || math.IsInf(height, 0) {
		return nil, &AuthoringError{Op: "cylinder", Name: name, Err: ErrDegenerate}
	}
	if segments < 3 {
		segments = 3
	}
	s := New(opts...)
	ring := func(i int, z float64) v3.Vec {
		a := 2 * math.Pi * float64(i%segments) / float64(segments)
		return v3.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a), Z: z}
	}
	bottom, top := v3.Vec{}, v3.Vec{Z: height}
	for i := 0; i < segments; i++ {
		b0, b1 := ring(i, 0), ring(i+1, 0)
		t0, t1 := ring(i, height), ring(i+1, height)
		if err := s.AddQuad(name+"_SIDE", b0, b1, t1, t0); err != nil {
			return nil, err
		}
		if err := s.AddTriangle(name+"_BOTTOM", bottom, b1, b0); err != nil {
			return nil, err
		}
		if err := s.AddTriangle(name+"_TOP", top, t0, t1); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Hull creates the convex hull of points as a single face called name.
func Hull(name string, points []v3.Vec, opts ...Option) (*Solid, error) {
	o := applyOptions(opts)
	for _, p := range points {
		if !kernel.Finite(p) {
			return nil, &AuthoringError{Op: "hull", Name: name, Err: ErrNonFinite}
		}
	}
	h, err := o.engine.Hull(points)
	if err != nil {
		return nil, fmt.Errorf("solid: hull %q: %w", name, err)
	}
	s, err := fromHandle(o.engine, h)
	if err != nil {
		return nil, fmt.Errorf("solid: hull %q: %w", name, err)
	}
	for _, f := range s.FaceNames() {
		if err := s.RenameFace(f, name); err != nil {
			s.Release()
			return nil, err
		}
	}
	return s, nil
}

// FromMesh imports raw triangles as a single face called name. Triangles
// whose corners coincide are skipped.
func FromMesh(name string, m *kernel.MeshGL, opts ...Option) (*Solid, error) {
	if err := m.Validate(); err != nil {
		return nil, &AuthoringError{Op: "import", Name: name, Err: err}
	}
	s := New(opts...)
	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		err := s.AddTriangle(name, m.Position(int(tri[0])), m.Position(int(tri[1])), m.Position(int(tri[2])))
		if errors.Is(err, ErrDegenerate) {
			continue
		}
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}
