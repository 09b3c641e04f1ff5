package solid

import (
	"slices"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// BoundaryPolyline is a chain of edges separating two faces. FaceA sorts
// before FaceB. A closed polyline does not repeat its first vertex.
type BoundaryPolyline struct {
	FaceA     string
	FaceB     string
	Indices   []uint32
	Positions []v3.Vec
	Closed    bool
}

// Faces returns the pair as "FaceA|FaceB".
func (p BoundaryPolyline) Faces() string {
	return p.FaceA + "|" + p.FaceB
}

// Other returns the face on the far side from name.
func (p BoundaryPolyline) Other(name string) string {
	if p.FaceA == name {
		return p.FaceB
	}
	return p.FaceA
}

// BoundaryPolylines extracts the inter-face boundaries. An edge is a
// boundary edge when exactly two triangles use it and they carry different
// faces. Edges are grouped by face pair and chained into polylines; a
// polyline ends where the chain branches or stops.
func (s *Solid) BoundaryPolylines() []BoundaryPolyline {
	adj := s.Adjacency()
	groups := make(map[[2]string][]EdgeKey)
	for _, k := range adj.Edges() {
		ts := adj.edges[k]
		if len(ts) != 2 || s.faceIDs[ts[0]] == s.faceIDs[ts[1]] {
			continue
		}
		a, b := s.idToFace[s.faceIDs[ts[0]]], s.idToFace[s.faceIDs[ts[1]]]
		if b < a {
			a, b = b, a
		}
		groups[[2]string{a, b}] = append(groups[[2]string{a, b}], k)
	}

	pairs := make([][2]string, 0, len(groups))
	for p := range groups {
		pairs = append(pairs, p)
	}
	slices.SortFunc(pairs, func(x, y [2]string) int {
		if c := strings.Compare(x[0], y[0]); c != 0 {
			return c
		}
		return strings.Compare(x[1], y[1])
	})

	var out []BoundaryPolyline
	for _, p := range pairs {
		for _, chain := range walkEdges(groups[p]) {
			pl := BoundaryPolyline{FaceA: p[0], FaceB: p[1], Indices: chain.indices, Closed: chain.closed}
			pl.Positions = make([]v3.Vec, len(chain.indices))
			for i, v := range chain.indices {
				pl.Positions[i] = s.vertices[v]
			}
			out = append(out, pl)
		}
	}
	return out
}

// BoundaryBetween returns the polylines separating faces a and b.
func (s *Solid) BoundaryBetween(a, b string) []BoundaryPolyline {
	var out []BoundaryPolyline
	for _, p := range s.BoundaryPolylines() {
		if (p.FaceA == a && p.FaceB == b) || (p.FaceA == b && p.FaceB == a) {
			out = append(out, p)
		}
	}
	return out
}

type chain struct {
	indices []uint32
	closed  bool
}

// walkEdges chains sorted undirected edges. Open chains start at vertices
// whose degree is not two; what remains afterwards are cycles.
func walkEdges(edges []EdgeKey) []chain {
	incident := make(map[uint32][]int)
	for i, e := range edges {
		incident[e[0]] = append(incident[e[0]], i)
		incident[e[1]] = append(incident[e[1]], i)
	}
	used := make([]bool, len(edges))

	next := func(v uint32) (int, bool) {
		for _, i := range incident[v] {
			if !used[i] {
				return i, true
			}
		}
		return 0, false
	}
	other := func(i int, v uint32) uint32 {
		if edges[i][0] == v {
			return edges[i][1]
		}
		return edges[i][0]
	}
	follow := func(start uint32) chain {
		path := []uint32{start}
		v := start
		for {
			i, ok := next(v)
			if !ok {
				break
			}
			used[i] = true
			v = other(i, v)
			if v == start {
				return chain{indices: path, closed: true}
			}
			path = append(path, v)
			if len(incident[v]) != 2 {
				break
			}
		}
		return chain{indices: path}
	}

	verts := make([]uint32, 0, len(incident))
	for v := range incident {
		verts = append(verts, v)
	}
	slices.Sort(verts)

	var out []chain
	for _, v := range verts {
		if len(incident[v]) == 2 {
			continue
		}
		for {
			if _, ok := next(v); !ok {
				break
			}
			out = append(out, follow(v))
		}
	}
	for i, e := range edges {
		if used[i] {
			continue
		}
		out = append(out, follow(e[0]))
	}
	return out
}
