// Package tessellate turns a solid into render meshes: one flat-shaded
// mesh per named face. It only reads the solid.
package tessellate

import (
	"fmt"

	"github.com/deadsy/sdfx/render"

	"github.com/chazu/brep/pkg/geom"
	"github.com/chazu/brep/pkg/solid"
)

// Mesh is the flat-shaded triangle mesh of one face.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	FaceName string    `json:"faceName"`
	FaceID   uint32    `json:"faceId"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Tessellate returns one mesh per face of s, in face name order. Each
// triangle gets its own three vertices so normals stay flat.
func Tessellate(s *solid.Solid) []*Mesh {
	if s == nil {
		return nil
	}
	var meshes []*Mesh
	for _, name := range s.FaceNames() {
		tris := s.Face(name)
		if len(tris) == 0 {
			continue
		}
		id, _ := s.FaceID(name)
		m := &Mesh{
			FaceName: name,
			FaceID:   id,
			Vertices: make([]float32, 0, 9*len(tris)),
			Normals:  make([]float32, 0, 9*len(tris)),
			Indices:  make([]uint32, 0, 3*len(tris)),
		}
		for _, t := range tris {
			n := geom.TriangleNormal(t.Points[0], t.Points[1], t.Points[2])
			for _, p := range t.Points {
				m.Indices = append(m.Indices, uint32(len(m.Vertices)/3))
				m.Vertices = append(m.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
				m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
			}
		}
		meshes = append(meshes, m)
	}
	return meshes
}

// Merge concatenates meshes into one, keeping the first face's name.
func Merge(meshes []*Mesh) *Mesh {
	out := &Mesh{}
	for _, m := range meshes {
		if out.FaceName == "" {
			out.FaceName, out.FaceID = m.FaceName, m.FaceID
		}
		base := uint32(out.VertexCount())
		out.Vertices = append(out.Vertices, m.Vertices...)
		out.Normals = append(out.Normals, m.Normals...)
		for _, i := range m.Indices {
			out.Indices = append(out.Indices, base+i)
		}
	}
	return out
}

// SaveSTL writes the triangles of s to an STL file.
func SaveSTL(path string, s *solid.Solid) error {
	tris := s.Triangles()
	if len(tris) == 0 {
		return fmt.Errorf("tessellate: %s: solid has no triangles", path)
	}
	if err := render.SaveSTL(path, tris); err != nil {
		return fmt.Errorf("tessellate: %w", err)
	}
	return nil
}
