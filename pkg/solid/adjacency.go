package solid

import (
	"cmp"
	"slices"

	"github.com/chazu/brep/pkg/geom"
)

// EdgeKey is an undirected edge between two vertex indices, smaller first.
type EdgeKey [2]uint32

// MakeEdgeKey returns the key of edge ab.
func MakeEdgeKey(a, b uint32) EdgeKey {
	if a > b {
		a, b = b, a
	}
	return EdgeKey{a, b}
}

// Adjacency maps every undirected edge to the triangles using it. It is a
// snapshot: it goes stale when triangles are added or removed, but not when
// faces are relabeled.
type Adjacency struct {
	edges map[EdgeKey][]int
}

// Adjacency builds the edge to triangle map of the current buffers.
func (s *Solid) Adjacency() *Adjacency {
	adj := &Adjacency{edges: make(map[EdgeKey][]int, len(s.triangles)*3/2)}
	for t, tri := range s.triangles {
		for e := 0; e < 3; e++ {
			k := MakeEdgeKey(tri[e], tri[(e+1)%3])
			adj.edges[k] = append(adj.edges[k], t)
		}
	}
	return adj
}

// Triangles returns the triangles using edge ab.
func (a *Adjacency) Triangles(u, v uint32) []int {
	return a.edges[MakeEdgeKey(u, v)]
}

// Edges returns all edges in ascending order.
func (a *Adjacency) Edges() []EdgeKey {
	keys := make([]EdgeKey, 0, len(a.edges))
	for k := range a.edges {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(x, y EdgeKey) int {
		if c := cmp.Compare(x[0], y[0]); c != 0 {
			return c
		}
		return cmp.Compare(x[1], y[1])
	})
	return keys
}

// neighbors returns the boundary length shared between the triangle set in
// and each face outside it.
func (s *Solid) neighbors(adj *Adjacency, in func(t int) bool) map[string]float64 {
	out := make(map[string]float64)
	for k, ts := range adj.edges {
		if len(ts) != 2 {
			continue
		}
		a, b := in(ts[0]), in(ts[1])
		if a == b {
			continue
		}
		other := ts[1]
		if b {
			other = ts[0]
		}
		out[s.idToFace[s.faceIDs[other]]] += geom.Dist(s.vertices[k[0]], s.vertices[k[1]])
	}
	return out
}

// FaceNeighbors returns, for each face adjacent to name, the length of the
// boundary they share.
func (s *Solid) FaceNeighbors(name string) map[string]float64 {
	id, ok := s.faceToID[name]
	if !ok {
		return nil
	}
	return s.neighbors(s.Adjacency(), func(t int) bool { return s.faceIDs[t] == id })
}

// bestNeighbor picks the neighbor with the longest shared boundary, ties
// broken by name.
func bestNeighbor(nb map[string]float64) (string, bool) {
	best, bestLen := "", -1.0
	for name, l := range nb {
		if l > bestLen || (l == bestLen && name < best) {
			best, bestLen = name, l
		}
	}
	return best, bestLen >= 0
}

// components splits the triangles accepted by in into edge-connected
// groups. Two triangles are connected when link(t, u) holds for a shared
// edge.
func (s *Solid) components(adj *Adjacency, in func(t int) bool, link func(t, u int) bool) [][]int {
	seen := make([]bool, len(s.triangles))
	var out [][]int
	for start := range s.triangles {
		if seen[start] || !in(start) {
			continue
		}
		comp := []int{start}
		seen[start] = true
		for q := 0; q < len(comp); q++ {
			t := comp[q]
			tri := s.triangles[t]
			for e := 0; e < 3; e++ {
				for _, u := range adj.Triangles(tri[e], tri[(e+1)%3]) {
					if seen[u] || !in(u) || !link(t, u) {
						continue
					}
					seen[u] = true
					comp = append(comp, u)
				}
			}
		}
		out = append(out, comp)
	}
	return out
}

func (s *Solid) area(tris []int) float64 {
	a := 0.0
	for _, t := range tris {
		a += s.triangleArea(t)
	}
	return a
}
