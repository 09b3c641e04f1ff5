package solid

import (
	"fmt"
	"math"
	"slices"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"

	"github.com/chazu/brep/pkg/geom"
	"github.com/chazu/brep/pkg/kernel"
)

// FaceTriangle is one triangle of a face.
type FaceTriangle struct {
	// Index is the triangle's position in the solid's triangle buffer.
	Index   int
	Indices [3]uint32
	Points  [3]v3.Vec
}

// FaceNames returns the names of all faces that own triangles, sorted.
func (s *Solid) FaceNames() []string {
	names := lo.Keys(s.faceToID)
	slices.Sort(names)
	return names
}

// HasFace reports whether name is a face of s.
func (s *Solid) HasFace(name string) bool {
	_, ok := s.faceToID[name]
	return ok
}

// Face returns the triangles of a face in buffer order.
func (s *Solid) Face(name string) []FaceTriangle {
	id, ok := s.faceToID[name]
	if !ok {
		return nil
	}
	var out []FaceTriangle
	for t, fid := range s.faceIDs {
		if fid != id {
			continue
		}
		tri := s.triangles[t]
		out = append(out, FaceTriangle{
			Index:   t,
			Indices: tri,
			Points:  [3]v3.Vec{s.vertices[tri[0]], s.vertices[tri[1]], s.vertices[tri[2]]},
		})
	}
	return out
}

// TriangleCount returns the number of triangles.
func (s *Solid) TriangleCount() int { return len(s.triangles) }

// VertexCount returns the number of vertices.
func (s *Solid) VertexCount() int { return len(s.vertices) }

// Vertex returns vertex i.
func (s *Solid) Vertex(i uint32) v3.Vec { return s.vertices[i] }

// Triangle returns the vertex indices of triangle t.
func (s *Solid) Triangle(t int) [3]uint32 { return s.triangles[t] }

// TriangleFace returns the face name of triangle t.
func (s *Solid) TriangleFace(t int) string { return s.idToFace[s.faceIDs[t]] }

// TrianglePoints returns the corners of triangle t.
func (s *Solid) TrianglePoints(t int) (v3.Vec, v3.Vec, v3.Vec) {
	tri := s.triangles[t]
	return s.vertices[tri[0]], s.vertices[tri[1]], s.vertices[tri[2]]
}

// SetVertex moves vertex i. Any vertex sharing the old position in the
// dedup index keeps its own entry.
func (s *Solid) SetVertex(i uint32, p v3.Vec) error {
	if !kernel.Finite(p) {
		return &AuthoringError{Op: "set vertex", Name: fmt.Sprint(i), Err: ErrNonFinite}
	}
	old := s.vertices[i]
	if j, ok := s.vertexIndex[old]; ok && j == i {
		delete(s.vertexIndex, old)
	}
	s.vertices[i] = p
	if _, ok := s.vertexIndex[p]; !ok {
		s.vertexIndex[p] = i
	}
	s.markDirty()
	return nil
}

// Volume returns the signed enclosed volume.
func (s *Solid) Volume() float64 {
	vol := 0.0
	for _, t := range s.triangles {
		a, b, c := s.vertices[t[0]], s.vertices[t[1]], s.vertices[t[2]]
		vol += a.Dot(b.Cross(c))
	}
	return vol / 6
}

// SurfaceArea returns the total triangle area.
func (s *Solid) SurfaceArea() float64 {
	area := 0.0
	for t := range s.triangles {
		area += s.triangleArea(t)
	}
	return area
}

func (s *Solid) triangleArea(t int) float64 {
	a, b, c := s.TrianglePoints(t)
	return geom.TriangleArea(a, b, c)
}

// FaceArea returns the area of a face, zero if it does not exist.
func (s *Solid) FaceArea(name string) float64 {
	id, ok := s.faceToID[name]
	if !ok {
		return 0
	}
	area := 0.0
	for t, fid := range s.faceIDs {
		if fid == id {
			area += s.triangleArea(t)
		}
	}
	return area
}

// FaceAreas returns the area of every face.
func (s *Solid) FaceAreas() map[string]float64 {
	out := make(map[string]float64, len(s.faceToID))
	for t, id := range s.faceIDs {
		out[s.idToFace[id]] += s.triangleArea(t)
	}
	return out
}

// FaceNormal returns the area-weighted unit normal of a face, or the zero
// vector when the face is unknown or its normals cancel.
func (s *Solid) FaceNormal(name string) v3.Vec {
	id, ok := s.faceToID[name]
	if !ok {
		return v3.Vec{}
	}
	var n v3.Vec
	for t, fid := range s.faceIDs {
		if fid == id {
			a, b, c := s.TrianglePoints(t)
			n = n.Add(geom.Cross(a, b, c))
		}
	}
	return geom.SafeNormalize(n)
}

// BoundingBox returns the axis-aligned bounds of the referenced vertices.
func (s *Solid) BoundingBox() sdf.Box3 {
	if len(s.triangles) == 0 {
		return sdf.Box3{}
	}
	inf := math.Inf(1)
	bb := sdf.Box3{Min: v3.Vec{X: inf, Y: inf, Z: inf}, Max: v3.Vec{X: -inf, Y: -inf, Z: -inf}}
	for _, t := range s.triangles {
		for _, i := range t {
			p := s.vertices[i]
			bb.Min = bb.Min.Min(p)
			bb.Max = bb.Max.Max(p)
		}
	}
	return bb
}

// Triangles returns the surface as sdfx triangles, e.g. for STL output.
func (s *Solid) Triangles() []*sdf.Triangle3 {
	out := make([]*sdf.Triangle3, len(s.triangles))
	for i := range s.triangles {
		a, b, c := s.TrianglePoints(i)
		out[i] = &sdf.Triangle3{a, b, c}
	}
	return out
}

// Transform returns a copy with every vertex and non world-space aux edge
// mapped through m. Mirroring transforms flip the winding so the result
// stays outward facing.
func (s *Solid) Transform(m sdf.M44) *Solid {
	c := s.Clone()
	for i, p := range c.vertices {
		c.vertices[i] = m.MulPosition(p)
	}
	c.vertexIndex = make(map[v3.Vec]uint32, len(c.vertices))
	for i, p := range c.vertices {
		if _, ok := c.vertexIndex[p]; !ok {
			c.vertexIndex[p] = uint32(i)
		}
	}
	if linearDeterminant(m) < 0 {
		for i := range c.triangles {
			c.triangles[i][1], c.triangles[i][2] = c.triangles[i][2], c.triangles[i][1]
		}
	}
	for i := range c.auxEdges {
		if c.auxEdges[i].WorldSpace {
			continue
		}
		for j, p := range c.auxEdges[i].Points {
			c.auxEdges[i].Points[j] = m.MulPosition(p)
		}
	}
	return c
}

// Translate returns a copy moved by d.
func (s *Solid) Translate(d v3.Vec) *Solid {
	return s.Transform(sdf.Translate3d(d))
}

func linearDeterminant(m sdf.M44) float64 {
	o := m.MulPosition(v3.Vec{})
	x := m.MulPosition(v3.Vec{X: 1}).Sub(o)
	y := m.MulPosition(v3.Vec{Y: 1}).Sub(o)
	z := m.MulPosition(v3.Vec{Z: 1}).Sub(o)
	return x.Dot(y.Cross(z))
}

// RenameFace renames a face. Renaming onto an existing face merges the two.
func (s *Solid) RenameFace(from, to string) error {
	id, ok := s.faceToID[from]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFace, from)
	}
	if from == to {
		return nil
	}
	if _, exists := s.faceToID[to]; exists {
		return s.MergeFaceInto(from, to)
	}
	delete(s.faceToID, from)
	s.faceToID[to] = id
	s.idToFace[id] = to
	if m, ok := s.faceMeta[from]; ok {
		delete(s.faceMeta, from)
		if _, taken := s.faceMeta[to]; !taken {
			s.faceMeta[to] = m
		}
	}
	return nil
}

// Simplify returns a copy rebuilt through the engine's simplifier.
func (s *Solid) Simplify(tolerance float64) (*Solid, error) {
	h, err := s.Manifold()
	if err != nil {
		return nil, err
	}
	r, err := s.eng.Simplify(h, tolerance)
	if err != nil {
		return nil, fmt.Errorf("solid: simplify: %w", err)
	}
	return fromHandle(s.eng, r, s)
}

// String summarizes the solid.
func (s *Solid) String() string {
	return fmt.Sprintf("Solid{faces: %d, triangles: %d, vertices: %d}",
		len(s.faceToID), len(s.triangles), len(s.vertices))
}
