package csg

import (
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/brep/pkg/geom"
)

// ---------------------------------------------------------------------------
// Planes and polygons
// ---------------------------------------------------------------------------

type plane struct {
	n v3.Vec
	w float64
}

func (p plane) flip() plane {
	return plane{n: p.n.MulScalar(-1), w: -p.w}
}

// planeFromPoints returns the plane through a, b, c and false when the
// points are collinear.
func planeFromPoints(a, b, c v3.Vec) (plane, bool) {
	n := geom.Cross(a, b, c)
	l := n.Length()
	if l < 1e-20 {
		return plane{}, false
	}
	n = n.MulScalar(1 / l)
	return plane{n: n, w: n.Dot(a)}, true
}

// polygon is a convex planar polygon carrying the face ID of the triangle
// it was cut from. Splits inherit both the plane and the ID, which is what
// keeps face identity intact through a boolean.
type polygon struct {
	verts []v3.Vec
	plane plane
	id    uint32
}

func (p polygon) flip() polygon {
	vs := make([]v3.Vec, len(p.verts))
	for i, v := range p.verts {
		vs[len(vs)-1-i] = v
	}
	return polygon{verts: vs, plane: p.plane.flip(), id: p.id}
}

const (
	coplanar = 0
	front    = 1
	back     = 2
	spanning = 3
)

// lessVec orders points lexicographically so that an edge is always
// interpolated from the same endpoint regardless of traversal direction.
func lessVec(a, b v3.Vec) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}

// split classifies p against the plane and appends it, or its pieces, to
// the matching output list.
func (pl plane) split(p polygon, eps float64, cf, cb, f, b *[]polygon) {
	types := make([]int, len(p.verts))
	ptype := 0
	for i, v := range p.verts {
		t := pl.n.Dot(v) - pl.w
		typ := coplanar
		if t < -eps {
			typ = back
		} else if t > eps {
			typ = front
		}
		ptype |= typ
		types[i] = typ
	}

	switch ptype {
	case coplanar:
		if pl.n.Dot(p.plane.n) > 0 {
			*cf = append(*cf, p)
		} else {
			*cb = append(*cb, p)
		}
	case front:
		*f = append(*f, p)
	case back:
		*b = append(*b, p)
	case spanning:
		var fv, bv []v3.Vec
		n := len(p.verts)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			ti, tj := types[i], types[j]
			vi, vj := p.verts[i], p.verts[j]
			if ti != back {
				fv = append(fv, vi)
			}
			if ti != front {
				bv = append(bv, vi)
			}
			if ti|tj == spanning {
				a, c := vi, vj
				if lessVec(c, a) {
					a, c = c, a
				}
				t := (pl.w - pl.n.Dot(a)) / pl.n.Dot(c.Sub(a))
				v := geom.Lerp(a, c, t)
				fv = append(fv, v)
				bv = append(bv, v)
			}
		}
		if len(fv) >= 3 {
			*f = append(*f, polygon{verts: fv, plane: p.plane, id: p.id})
		}
		if len(bv) >= 3 {
			*b = append(*b, polygon{verts: bv, plane: p.plane, id: p.id})
		}
	}
}

// ---------------------------------------------------------------------------
// BSP tree
// ---------------------------------------------------------------------------

type node struct {
	plane    *plane
	front    *node
	back     *node
	polygons []polygon
	eps      float64
}

func newNode(polys []polygon, eps float64) *node {
	n := &node{eps: eps}
	n.build(polys)
	return n
}

// invert converts solid space to empty space and vice versa.
func (n *node) invert() {
	for i := range n.polygons {
		n.polygons[i] = n.polygons[i].flip()
	}
	if n.plane != nil {
		p := n.plane.flip()
		n.plane = &p
	}
	if n.front != nil {
		n.front.invert()
	}
	if n.back != nil {
		n.back.invert()
	}
	n.front, n.back = n.back, n.front
}

// clipPolygons removes the parts of polys that are inside this tree.
func (n *node) clipPolygons(polys []polygon) []polygon {
	if n.plane == nil {
		return append([]polygon(nil), polys...)
	}
	var f, b []polygon
	for _, p := range polys {
		n.plane.split(p, n.eps, &f, &b, &f, &b)
	}
	if n.front != nil {
		f = n.front.clipPolygons(f)
	}
	if n.back != nil {
		b = n.back.clipPolygons(b)
	} else {
		b = nil
	}
	return append(f, b...)
}

// clipTo removes every polygon of this tree that is inside other.
func (n *node) clipTo(other *node) {
	n.polygons = other.clipPolygons(n.polygons)
	if n.front != nil {
		n.front.clipTo(other)
	}
	if n.back != nil {
		n.back.clipTo(other)
	}
}

func (n *node) allPolygons() []polygon {
	out := append([]polygon(nil), n.polygons...)
	if n.front != nil {
		out = append(out, n.front.allPolygons()...)
	}
	if n.back != nil {
		out = append(out, n.back.allPolygons()...)
	}
	return out
}

func (n *node) build(polys []polygon) {
	if len(polys) == 0 {
		return
	}
	if n.plane == nil {
		p := polys[0].plane
		n.plane = &p
	}
	var f, b []polygon
	for _, p := range polys {
		n.plane.split(p, n.eps, &n.polygons, &n.polygons, &f, &b)
	}
	if len(f) > 0 {
		if n.front == nil {
			n.front = &node{eps: n.eps}
		}
		n.front.build(f)
	}
	if len(b) > 0 {
		if n.back == nil {
			n.back = &node{eps: n.eps}
		}
		n.back.build(b)
	}
}

// ---------------------------------------------------------------------------
// Boolean operations
// ---------------------------------------------------------------------------

func clonePolys(ps []polygon) []polygon {
	out := make([]polygon, len(ps))
	for i, p := range ps {
		out[i] = polygon{verts: append([]v3.Vec(nil), p.verts...), plane: p.plane, id: p.id}
	}
	return out
}

func union(pa, pb []polygon, eps float64) []polygon {
	a := newNode(clonePolys(pa), eps)
	b := newNode(clonePolys(pb), eps)
	a.clipTo(b)
	b.clipTo(a)
	b.invert()
	b.clipTo(a)
	b.invert()
	a.build(b.allPolygons())
	return a.allPolygons()
}

func subtract(pa, pb []polygon, eps float64) []polygon {
	a := newNode(clonePolys(pa), eps)
	b := newNode(clonePolys(pb), eps)
	a.invert()
	a.clipTo(b)
	b.clipTo(a)
	b.invert()
	b.clipTo(a)
	b.invert()
	a.build(b.allPolygons())
	a.invert()
	return a.allPolygons()
}

func intersect(pa, pb []polygon, eps float64) []polygon {
	a := newNode(clonePolys(pa), eps)
	b := newNode(clonePolys(pb), eps)
	a.invert()
	b.clipTo(a)
	b.invert()
	a.clipTo(b)
	b.clipTo(a)
	a.build(b.allPolygons())
	a.invert()
	return a.allPolygons()
}
