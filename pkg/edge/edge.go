// Package edge resolves edge selections on a solid into oriented
// polylines with the face frames the fillet and chamfer builders sweep
// along.
//
// A selection is either "FACE_A|FACE_B", naming the boundary between two
// faces, or a single face name, selecting every boundary of that face.
package edge

import (
	"errors"
	"fmt"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"

	"github.com/chazu/brep/pkg/geom"
	"github.com/chazu/brep/pkg/solid"
)

var (
	// ErrNoBoundary is returned when a selection matches no boundary.
	ErrNoBoundary = errors.New("edge: no boundary matches selection")
	// ErrBadReference is returned for a malformed selection string.
	ErrBadReference = errors.New("edge: malformed selection")
)

// Edge is a resolved boundary polyline between faces A and B.
//
// Per point i: NormalA[i] and NormalB[i] are the outward face normals,
// InA[i] and InB[i] are unit directions lying in each face, perpendicular
// to the edge, pointing away from the edge into the face.
type Edge struct {
	FaceA, FaceB string
	Indices      []uint32
	Points       []v3.Vec
	Closed       bool

	NormalA, NormalB []v3.Vec
	InA, InB         []v3.Vec

	// Convex is true when the material angle between the faces is below
	// 180 degrees, as on the outside edges of a box.
	Convex bool
}

// Name returns "FaceA|FaceB".
func (e *Edge) Name() string {
	return e.FaceA + "|" + e.FaceB
}

// Length returns the polyline length, including the closing segment.
func (e *Edge) Length() float64 {
	return geom.NewSampler(e.Points, e.Closed).Length()
}

// Segments returns the number of segments.
func (e *Edge) Segments() int {
	if e.Closed {
		return len(e.Points)
	}
	return len(e.Points) - 1
}

// Tangent returns the unit direction of the polyline at point i.
func (e *Edge) Tangent(i int) v3.Vec {
	n := len(e.Points)
	prev, next := i-1, i+1
	if e.Closed {
		prev, next = (i+n-1)%n, (i+1)%n
	} else {
		prev, next = max(prev, 0), min(next, n-1)
	}
	return geom.SafeNormalize(e.Points[next].Sub(e.Points[prev]))
}

// ParseRef splits a selection into its face names. Single-face selections
// return an empty second name.
func ParseRef(ref string) (string, string, error) {
	parts := strings.Split(ref, "|")
	switch {
	case len(parts) == 1 && parts[0] != "":
		return parts[0], "", nil
	case len(parts) == 2 && parts[0] != "" && parts[1] != "" && parts[0] != parts[1]:
		return parts[0], parts[1], nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrBadReference, ref)
}

// Resolve returns the edges a selection names. FaceA of every result is
// the first face in the selection.
func Resolve(s *solid.Solid, ref string) ([]*Edge, error) {
	a, b, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}
	if !s.HasFace(a) {
		return nil, fmt.Errorf("edge: %q: %w: %q", ref, solid.ErrUnknownFace, a)
	}
	if b != "" && !s.HasFace(b) {
		return nil, fmt.Errorf("edge: %q: %w: %q", ref, solid.ErrUnknownFace, b)
	}

	lines := lo.Filter(s.BoundaryPolylines(), func(p solid.BoundaryPolyline, _ int) bool {
		if b == "" {
			return p.FaceA == a || p.FaceB == a
		}
		return (p.FaceA == a && p.FaceB == b) || (p.FaceA == b && p.FaceB == a)
	})
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoBoundary, ref)
	}

	adj := s.Adjacency()
	out := make([]*Edge, 0, len(lines))
	for _, pl := range lines {
		e, err := frame(s, adj, pl, a, pl.Other(a))
		if err != nil {
			return nil, fmt.Errorf("edge: %q: %w", ref, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// ResolveAll resolves every selection, dropping duplicate edges.
func ResolveAll(s *solid.Solid, refs []string) ([]*Edge, error) {
	var out []*Edge
	seen := make(map[string]bool)
	for _, ref := range refs {
		edges, err := Resolve(s, ref)
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			k := e.Key()
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, e)
		}
	}
	return out, nil
}

// Key identifies the boundary independently of which face was named first.
func (e *Edge) Key() string {
	ids := lo.Map(e.Indices, func(i uint32, _ int) string { return fmt.Sprint(i) })
	names := []string{e.FaceA, e.FaceB}
	if names[1] < names[0] {
		names[0], names[1] = names[1], names[0]
	}
	return names[0] + "|" + names[1] + ":" + strings.Join(ids, ",")
}

// frame computes the per-point face frames of a boundary polyline.
func frame(s *solid.Solid, adj *solid.Adjacency, pl solid.BoundaryPolyline, faceA, faceB string) (*Edge, error) {
	n := len(pl.Indices)
	if n < 2 {
		return nil, fmt.Errorf("boundary %s has %d points", pl.Faces(), n)
	}
	e := &Edge{
		FaceA:   faceA,
		FaceB:   faceB,
		Indices: append([]uint32(nil), pl.Indices...),
		Points:  append([]v3.Vec(nil), pl.Positions...),
		Closed:  pl.Closed,
		NormalA: make([]v3.Vec, n),
		NormalB: make([]v3.Vec, n),
		InA:     make([]v3.Vec, n),
		InB:     make([]v3.Vec, n),
	}

	convexVotes := 0.0
	for seg := 0; seg < e.Segments(); seg++ {
		i, j := seg, (seg+1)%n
		p, q := e.Points[i], e.Points[j]
		t := geom.SafeNormalize(q.Sub(p))
		var nA, nB, uA, uB v3.Vec
		for _, tri := range adj.Triangles(e.Indices[i], e.Indices[j]) {
			a, b, c := s.TrianglePoints(tri)
			normal := geom.TriangleNormal(a, b, c)
			third := thirdPoint(s, tri, e.Indices[i], e.Indices[j])
			w := third.Sub(p)
			u := geom.SafeNormalize(w.Sub(t.MulScalar(w.Dot(t))))
			switch s.TriangleFace(tri) {
			case faceA:
				nA, uA = normal, u
			case faceB:
				nB, uB = normal, u
			}
		}
		if nA == (v3.Vec{}) || nB == (v3.Vec{}) {
			return nil, fmt.Errorf("segment %d of %s is not shared by both faces", seg, pl.Faces())
		}
		for _, k := range []int{i, j} {
			e.NormalA[k] = e.NormalA[k].Add(nA)
			e.NormalB[k] = e.NormalB[k].Add(nB)
			e.InA[k] = e.InA[k].Add(uA)
			e.InB[k] = e.InB[k].Add(uB)
		}
		convexVotes += -uA.Dot(nB) * geom.Dist(p, q)
	}
	for k := 0; k < n; k++ {
		e.NormalA[k] = geom.SafeNormalize(e.NormalA[k])
		e.NormalB[k] = geom.SafeNormalize(e.NormalB[k])
		e.InA[k] = geom.SafeNormalize(e.InA[k])
		e.InB[k] = geom.SafeNormalize(e.InB[k])
	}
	e.Convex = convexVotes > 0
	return e, nil
}

func thirdPoint(s *solid.Solid, tri int, a, b uint32) v3.Vec {
	for _, v := range s.Triangle(tri) {
		if v != a && v != b {
			return s.Vertex(v)
		}
	}
	return s.Vertex(a)
}
