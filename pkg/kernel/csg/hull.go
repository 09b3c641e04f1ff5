package csg

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/brep/pkg/geom"
	"github.com/chazu/brep/pkg/kernel"
)

// convexHull computes the hull of pts incrementally and returns the hull
// vertices and outward-facing triangles.
func convexHull(pts []v3.Vec, eps float64) ([]v3.Vec, [][3]uint32, error) {
	// Deduplicate.
	seen := make(map[geom.Key]bool, len(pts))
	var p []v3.Vec
	for _, v := range pts {
		if !kernel.Finite(v) {
			return nil, nil, kernel.ErrNonFinite
		}
		k := geom.Quantize(v, eps)
		if !seen[k] {
			seen[k] = true
			p = append(p, v)
		}
	}
	if len(p) < 4 {
		return nil, nil, kernel.ErrDegenerateHull
	}

	// Initial tetrahedron from extreme points.
	i0 := 0
	for i := range p {
		if p[i].X < p[i0].X {
			i0 = i
		}
	}
	i1, best := -1, 0.0
	for i := range p {
		if d := geom.Dist(p[i], p[i0]); d > best {
			i1, best = i, d
		}
	}
	i2, best := -1, 0.0
	for i := range p {
		if i == i0 || i == i1 {
			continue
		}
		q, _ := geom.ClosestPointOnSegment(p[i], p[i0], p[i1])
		if d := geom.Dist(p[i], q); d > best {
			i2, best = i, d
		}
	}
	if i1 < 0 || i2 < 0 || best <= eps {
		return nil, nil, kernel.ErrDegenerateHull
	}
	base, ok := planeFromPoints(p[i0], p[i1], p[i2])
	if !ok {
		return nil, nil, kernel.ErrDegenerateHull
	}
	i3, best := -1, 0.0
	for i := range p {
		if d := math.Abs(base.n.Dot(p[i]) - base.w); d > best {
			i3, best = i, d
		}
	}
	if i3 < 0 || best <= eps {
		return nil, nil, kernel.ErrDegenerateHull
	}

	faces := [][3]int{{i0, i1, i2}, {i0, i2, i3}, {i0, i3, i1}, {i1, i3, i2}}
	center := p[i0].Add(p[i1]).Add(p[i2]).Add(p[i3]).MulScalar(0.25)
	for f := range faces {
		a, b, c := p[faces[f][0]], p[faces[f][1]], p[faces[f][2]]
		if geom.Cross(a, b, c).Dot(a.Sub(center)) < 0 {
			faces[f][1], faces[f][2] = faces[f][2], faces[f][1]
		}
	}

	visible := func(f [3]int, q v3.Vec) bool {
		pl, ok := planeFromPoints(p[f[0]], p[f[1]], p[f[2]])
		return ok && pl.n.Dot(q)-pl.w > eps
	}

	for i := range p {
		if i == i0 || i == i1 || i == i2 || i == i3 {
			continue
		}
		var keep [][3]int
		lit := make(map[[2]int]bool)
		for _, f := range faces {
			if visible(f, p[i]) {
				for e := 0; e < 3; e++ {
					lit[[2]int{f[e], f[(e+1)%3]}] = true
				}
			} else {
				keep = append(keep, f)
			}
		}
		if len(lit) == 0 {
			continue
		}
		for e := range lit {
			if !lit[[2]int{e[1], e[0]}] {
				keep = append(keep, [3]int{e[0], e[1], i})
			}
		}
		faces = keep
	}

	remap := make(map[int]uint32)
	var verts []v3.Vec
	tris := make([][3]uint32, 0, len(faces))
	for _, f := range faces {
		var t [3]uint32
		for k, vi := range f {
			idx, ok := remap[vi]
			if !ok {
				idx = uint32(len(verts))
				remap[vi] = idx
				verts = append(verts, p[vi])
			}
			t[k] = idx
		}
		tris = append(tris, t)
	}
	return verts, tris, nil
}
