// Package sdfx turns signed-distance models built with the
// github.com/deadsy/sdfx CAD library into engine meshes, so smooth
// primitives (spheres, rounded boxes, cylinders) can enter the kernel as
// ordinary triangulated solids.
package sdfx

import (
	"errors"
	"fmt"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/brep/pkg/geom"
	"github.com/chazu/brep/pkg/kernel"
)

// DefaultCells is the marching cubes resolution along the longest axis.
const DefaultCells = 64

// ErrEmpty is returned when marching cubes produces no surface.
var ErrEmpty = errors.New("sdfx: model produced no triangles")

// Mesher samples sdf.SDF3 models into kernel meshes.
type Mesher struct {
	cells int
}

// New returns a Mesher sampling at the given resolution. Values below 8
// fall back to DefaultCells.
func New(cells int) *Mesher {
	if cells < 8 {
		cells = DefaultCells
	}
	return &Mesher{cells: cells}
}

// Cells returns the sampling resolution.
func (m *Mesher) Cells() int {
	return m.cells
}

// Box creates a box with its minimum corner at the origin. sdf.Box3D
// centers the box, so it is shifted by half its size.
func Box(x, y, z, round float64) (sdf.SDF3, error) {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, round)
	if err != nil {
		return nil, fmt.Errorf("sdfx: box: %w", err)
	}
	return sdf.Transform3D(s, sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})), nil
}

// Cylinder creates a Z-aligned cylinder centered on the origin.
func Cylinder(height, radius, round float64) (sdf.SDF3, error) {
	s, err := sdf.Cylinder3D(height, radius, round)
	if err != nil {
		return nil, fmt.Errorf("sdfx: cylinder: %w", err)
	}
	return s, nil
}

// Sphere creates a sphere centered on the origin.
func Sphere(radius float64) (sdf.SDF3, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("sdfx: sphere: %w", err)
	}
	return s, nil
}

// Translate moves a model by d.
func Translate(s sdf.SDF3, d v3.Vec) sdf.SDF3 {
	return sdf.Transform3D(s, sdf.Translate3d(d))
}

// Rotate rotates a model by Euler angles in degrees, applied X then Y then Z.
func Rotate(s sdf.SDF3, x, y, z float64) sdf.SDF3 {
	m := sdf.RotateZ(sdf.DtoR(z)).Mul(sdf.RotateY(sdf.DtoR(y))).Mul(sdf.RotateX(sdf.DtoR(x)))
	return sdf.Transform3D(s, m)
}

// Mesh converts a model into a welded, outward-wound MeshGL. Every triangle
// carries face ID 0; callers assign real IDs when importing.
func (m *Mesher) Mesh(s sdf.SDF3) (*kernel.MeshGL, error) {
	if s == nil {
		return nil, fmt.Errorf("sdfx: mesh: nil model")
	}
	tris := render.ToTriangles(s, render.NewMarchingCubesUniform(m.cells))
	if len(tris) == 0 {
		return nil, ErrEmpty
	}

	bb := s.BoundingBox()
	size := bb.Size()
	tol := math.Max(size.X, math.Max(size.Y, size.Z)) / float64(m.cells) * 1e-6

	index := make(map[geom.Key]uint32, len(tris))
	var verts []v3.Vec
	out := make([][3]uint32, 0, len(tris))
	vol := 0.0
	for _, tri := range tris {
		var idx [3]uint32
		for j := 0; j < 3; j++ {
			k := geom.Quantize(tri[j], tol)
			i, ok := index[k]
			if !ok {
				i = uint32(len(verts))
				index[k] = i
				verts = append(verts, tri[j])
			}
			idx[j] = i
		}
		if idx[0] == idx[1] || idx[1] == idx[2] || idx[0] == idx[2] {
			continue
		}
		a, b, c := verts[idx[0]], verts[idx[1]], verts[idx[2]]
		vol += a.Dot(b.Cross(c)) / 6
		out = append(out, idx)
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	if vol < 0 {
		for i := range out {
			out[i][1], out[i][2] = out[i][2], out[i][1]
		}
	}
	kernel.Logger().Debug("sdfx: meshed model", "cells", m.cells, "vertices", len(verts), "triangles", len(out))
	return kernel.NewMeshGL(verts, out, make([]uint32, len(out))), nil
}
