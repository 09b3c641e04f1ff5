package csg

import (
	"math"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/brep/pkg/geom"
)

// ---------------------------------------------------------------------------
// Readback repair: welding, degenerate removal and T-junction splitting.
// BSP output is a polygon soup whose shared edges may be cut at different
// points on either side; these passes turn it back into an indexed mesh in
// which every edge is seen from both sides.
// ---------------------------------------------------------------------------

// weld merges points closer than tol and returns the merged points and a
// remap from input index to output index.
func weld(pts []v3.Vec, tol float64) ([]v3.Vec, []uint32) {
	cells := make(map[geom.Key][]uint32, len(pts))
	out := make([]v3.Vec, 0, len(pts))
	remap := make([]uint32, len(pts))
	for i, p := range pts {
		k := geom.Quantize(p, tol)
		found := -1
	search:
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dz := int64(-1); dz <= 1; dz++ {
					for _, j := range cells[geom.Key{k[0] + dx, k[1] + dy, k[2] + dz}] {
						if geom.Dist(out[j], p) <= tol {
							found = int(j)
							break search
						}
					}
				}
			}
		}
		if found < 0 {
			found = len(out)
			out = append(out, p)
			cells[k] = append(cells[k], uint32(found))
		}
		remap[i] = uint32(found)
	}
	return out, remap
}

// dropDegenerate removes triangles that repeat a vertex or whose height
// over their longest edge is below tol.
func dropDegenerate(verts []v3.Vec, tris [][3]uint32, ids []uint32, tol float64) ([][3]uint32, []uint32) {
	outT := tris[:0:0]
	outI := ids[:0:0]
	for i, t := range tris {
		if t[0] == t[1] || t[1] == t[2] || t[0] == t[2] {
			continue
		}
		a, b, c := verts[t[0]], verts[t[1]], verts[t[2]]
		longest := math.Max(geom.Dist(a, b), math.Max(geom.Dist(b, c), geom.Dist(c, a)))
		if longest == 0 || geom.Cross(a, b, c).Length()/longest < tol {
			continue
		}
		outT = append(outT, t)
		outI = append(outI, ids[i])
	}
	return outT, outI
}

// vertexGrid is a uniform grid over vertex positions for edge queries.
type vertexGrid struct {
	cell  float64
	cells map[geom.Key][]uint32
}

func newVertexGrid(verts []v3.Vec, cell float64) *vertexGrid {
	g := &vertexGrid{cell: cell, cells: make(map[geom.Key][]uint32, len(verts))}
	for i, v := range verts {
		k := geom.Quantize(v, cell)
		g.cells[k] = append(g.cells[k], uint32(i))
	}
	return g
}

// near calls fn for every vertex whose cell intersects the box around a-b
// grown by pad.
func (g *vertexGrid) near(a, b v3.Vec, pad float64, fn func(uint32)) {
	lo := geom.Quantize(v3.Vec{
		X: math.Min(a.X, b.X) - pad, Y: math.Min(a.Y, b.Y) - pad, Z: math.Min(a.Z, b.Z) - pad,
	}, g.cell)
	hi := geom.Quantize(v3.Vec{
		X: math.Max(a.X, b.X) + pad, Y: math.Max(a.Y, b.Y) + pad, Z: math.Max(a.Z, b.Z) + pad,
	}, g.cell)
	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				for _, i := range g.cells[geom.Key{x, y, z}] {
					fn(i)
				}
			}
		}
	}
}

type edgePoint struct {
	t float64
	v uint32
}

// splitTJunctions re-triangulates every triangle that has foreign vertices
// lying on its edges so that both sides of each edge carry the same
// vertices.
func splitTJunctions(verts []v3.Vec, tris [][3]uint32, ids []uint32, tol float64) ([]v3.Vec, [][3]uint32, []uint32) {
	if len(tris) == 0 {
		return verts, tris, ids
	}
	total := 0.0
	for _, t := range tris {
		total += geom.Dist(verts[t[0]], verts[t[1]])
	}
	cell := math.Max(total/float64(len(tris)), tol*16)
	grid := newVertexGrid(verts, cell)

	outT := make([][3]uint32, 0, len(tris))
	outI := make([]uint32, 0, len(ids))
	for ti, t := range tris {
		var onEdge [3][]edgePoint
		split := 0
		for e := 0; e < 3; e++ {
			a, b := t[e], t[(e+1)%3]
			pa, pb := verts[a], verts[b]
			grid.near(pa, pb, tol, func(v uint32) {
				if v == a || v == b {
					return
				}
				q, u := geom.ClosestPointOnSegment(verts[v], pa, pb)
				if u <= 0 || u >= 1 || geom.Dist(q, verts[v]) > tol {
					return
				}
				if geom.Dist(verts[v], pa) <= tol || geom.Dist(verts[v], pb) <= tol {
					return
				}
				onEdge[e] = append(onEdge[e], edgePoint{t: u, v: v})
			})
			if len(onEdge[e]) > 0 {
				sort.Slice(onEdge[e], func(i, j int) bool { return onEdge[e][i].t < onEdge[e][j].t })
				split++
			}
		}
		if split == 0 {
			outT = append(outT, t)
			outI = append(outI, ids[ti])
			continue
		}

		ring := make([]uint32, 0, 8)
		for e := 0; e < 3; e++ {
			ring = append(ring, t[e])
			for _, p := range onEdge[e] {
				ring = append(ring, p.v)
			}
		}

		if split == 1 {
			// Fan from the corner opposite the split edge.
			e := 0
			for len(onEdge[e]) == 0 {
				e++
			}
			apex := t[(e+2)%3]
			chain := []uint32{t[e]}
			for _, p := range onEdge[e] {
				chain = append(chain, p.v)
			}
			chain = append(chain, t[(e+1)%3])
			for k := 0; k+1 < len(chain); k++ {
				outT = append(outT, [3]uint32{chain[k], chain[k+1], apex})
				outI = append(outI, ids[ti])
			}
			continue
		}

		c := uint32(len(verts))
		verts = append(verts, geom.Centroid(verts[t[0]], verts[t[1]], verts[t[2]]))
		for k := range ring {
			outT = append(outT, [3]uint32{ring[k], ring[(k+1)%len(ring)], c})
			outI = append(outI, ids[ti])
		}
	}
	return verts, outT, outI
}

// compact drops vertices no triangle references.
func compact(verts []v3.Vec, tris [][3]uint32) ([]v3.Vec, [][3]uint32) {
	remap := make([]int, len(verts))
	for i := range remap {
		remap[i] = -1
	}
	out := make([]v3.Vec, 0, len(verts))
	res := make([][3]uint32, len(tris))
	for i, t := range tris {
		for k, v := range t {
			if remap[v] < 0 {
				remap[v] = len(out)
				out = append(out, verts[v])
			}
			res[i][k] = uint32(remap[v])
		}
	}
	return out, res
}

// closed reports whether every directed edge is matched by the same number
// of edges running the other way.
func closed(tris [][3]uint32) bool {
	count := make(map[[2]uint32]int, len(tris)*3)
	for _, t := range tris {
		for e := 0; e < 3; e++ {
			count[[2]uint32{t[e], t[(e+1)%3]}]++
		}
	}
	for k, n := range count {
		if count[[2]uint32{k[1], k[0]}] != n {
			return false
		}
	}
	return true
}
