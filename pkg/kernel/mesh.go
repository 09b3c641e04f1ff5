package kernel

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// MeshGL is the flat buffer layout exchanged with an engine.
// VertProperties has NumProp floats per vertex, the first three being the
// position. TriVerts has 3 indices per triangle and FaceID one ID per
// triangle.
type MeshGL struct {
	NumProp        int       `json:"numProp"`
	VertProperties []float64 `json:"vertProperties"`
	TriVerts       []uint32  `json:"triVerts"`
	FaceID         []uint32  `json:"faceID"`
}

// NewMeshGL builds a position-only MeshGL from vertices and triangles.
func NewMeshGL(vertices []v3.Vec, triangles [][3]uint32, faceIDs []uint32) *MeshGL {
	m := &MeshGL{
		NumProp:        3,
		VertProperties: make([]float64, 0, len(vertices)*3),
		TriVerts:       make([]uint32, 0, len(triangles)*3),
		FaceID:         append([]uint32(nil), faceIDs...),
	}
	for _, v := range vertices {
		m.VertProperties = append(m.VertProperties, v.X, v.Y, v.Z)
	}
	for _, t := range triangles {
		m.TriVerts = append(m.TriVerts, t[0], t[1], t[2])
	}
	return m
}

// VertexCount returns the number of vertices.
func (m *MeshGL) VertexCount() int {
	if m.NumProp == 0 {
		return 0
	}
	return len(m.VertProperties) / m.NumProp
}

// TriangleCount returns the number of triangles.
func (m *MeshGL) TriangleCount() int {
	return len(m.TriVerts) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *MeshGL) IsEmpty() bool {
	return len(m.TriVerts) == 0
}

// Position returns the position of vertex i.
func (m *MeshGL) Position(i int) v3.Vec {
	b := i * m.NumProp
	return v3.Vec{X: m.VertProperties[b], Y: m.VertProperties[b+1], Z: m.VertProperties[b+2]}
}

// Triangle returns the vertex indices of triangle t.
func (m *MeshGL) Triangle(t int) [3]uint32 {
	return [3]uint32{m.TriVerts[t*3], m.TriVerts[t*3+1], m.TriVerts[t*3+2]}
}

// Validate checks buffer shapes, index ranges and coordinate finiteness.
func (m *MeshGL) Validate() error {
	if m.NumProp < 3 {
		return fmt.Errorf("kernel: mesh has %d properties per vertex, need at least 3", m.NumProp)
	}
	if len(m.VertProperties)%m.NumProp != 0 {
		return fmt.Errorf("kernel: vertex buffer length %d is not a multiple of %d", len(m.VertProperties), m.NumProp)
	}
	if len(m.TriVerts)%3 != 0 {
		return fmt.Errorf("kernel: index buffer length %d is not a multiple of 3", len(m.TriVerts))
	}
	if len(m.FaceID) != 0 && len(m.FaceID) != m.TriangleCount() {
		return fmt.Errorf("kernel: %d face IDs for %d triangles", len(m.FaceID), m.TriangleCount())
	}
	n := uint32(m.VertexCount())
	for i, idx := range m.TriVerts {
		if idx >= n {
			return fmt.Errorf("kernel: triangle %d references vertex %d of %d: %w", i/3, idx, n, ErrIndexRange)
		}
	}
	for i := 0; i < int(n); i++ {
		p := m.Position(i)
		if !Finite(p) {
			return fmt.Errorf("kernel: vertex %d is %v: %w", i, p, ErrNonFinite)
		}
	}
	return nil
}

// Finite reports whether every coordinate of v is a finite number.
func Finite(v v3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsNaN(v.Z) &&
		!math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0) && !math.IsInf(v.Z, 0)
}
