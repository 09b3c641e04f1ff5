package solid

import (
	"fmt"
	"slices"

	"github.com/chazu/brep/pkg/geom"
	"github.com/chazu/brep/pkg/kernel"
)

// MergeFaceInto relabels every triangle of src as dst and forgets src.
func (s *Solid) MergeFaceInto(src, dst string) error {
	from, ok := s.faceToID[src]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFace, src)
	}
	to, ok := s.faceToID[dst]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFace, dst)
	}
	if from == to {
		return nil
	}
	for t, id := range s.faceIDs {
		if id == from {
			s.faceIDs[t] = to
		}
	}
	s.retired[from] = to
	delete(s.faceToID, src)
	delete(s.idToFace, from)
	delete(s.faceMeta, src)
	s.markDirty()
	return nil
}

// relabel moves the given triangles to face name.
func (s *Solid) relabel(tris []int, name string) {
	id := s.faceIDFor(name)
	for _, t := range tris {
		s.faceIDs[t] = id
	}
	s.markDirty()
}

// RemoveSmallIslands deletes edge-connected triangle components whose area
// is below areaThreshold. The largest component is always kept. It returns
// the number of triangles removed.
func (s *Solid) RemoveSmallIslands(areaThreshold float64) int {
	if len(s.triangles) == 0 {
		return 0
	}
	adj := s.Adjacency()
	all := func(int) bool { return true }
	comps := s.components(adj, all, func(int, int) bool { return true })
	if len(comps) < 2 {
		return 0
	}
	areas := make([]float64, len(comps))
	largest := 0
	for i, c := range comps {
		areas[i] = s.area(c)
		if areas[i] > areas[largest] {
			largest = i
		}
	}
	drop := make([]bool, len(s.triangles))
	removed := 0
	for i, c := range comps {
		if i == largest || areas[i] >= areaThreshold {
			continue
		}
		for _, t := range c {
			drop[t] = true
		}
		removed += len(c)
	}
	if removed == 0 {
		return 0
	}
	s.keepTriangles(func(t int) bool { return !drop[t] })
	kernel.Logger().Debug("solid: removed islands", "triangles", removed)
	return removed
}

// keepTriangles filters the triangle buffers and tidies vertices and names.
func (s *Solid) keepTriangles(keep func(t int) bool) {
	tris := s.triangles[:0]
	ids := s.faceIDs[:0]
	for t := range s.triangles {
		if keep(t) {
			tris = append(tris, s.triangles[t])
			ids = append(ids, s.faceIDs[t])
		}
	}
	s.triangles = tris
	s.faceIDs = ids
	s.compactVertices()
	s.prune()
	s.markDirty()
}

// CollapseTinyTriangles merges the shortest edge of every triangle whose
// area is below threshold, repeating until none is left. The endpoint
// touching more faces stays in place; between equals the edge collapses to
// its midpoint.
// Pairs of triangles folded onto each other by a collapse are removed. It
// returns the number of edge collapses.
func (s *Solid) CollapseTinyTriangles(threshold float64) int {
	collapsed := 0
	for {
		t := slices.IndexFunc(s.triangles, func(tri [3]uint32) bool {
			a, b, c := s.vertices[tri[0]], s.vertices[tri[1]], s.vertices[tri[2]]
			return geom.TriangleArea(a, b, c) < threshold
		})
		if t < 0 {
			break
		}
		tri := s.triangles[t]
		best, bestLen := 0, -1.0
		for e := 0; e < 3; e++ {
			l := geom.Dist(s.vertices[tri[e]], s.vertices[tri[(e+1)%3]])
			if bestLen < 0 || l < bestLen {
				best, bestLen = e, l
			}
		}
		keep, gone := tri[best], tri[(best+1)%3]
		fk, fg := s.vertexFaceCount(keep), s.vertexFaceCount(gone)
		switch {
		case fg > fk:
			keep, gone = gone, keep
		case fg == fk:
			s.vertices[keep] = geom.Lerp(s.vertices[keep], s.vertices[gone], 0.5)
		}
		for i := range s.triangles {
			for k := 0; k < 3; k++ {
				if s.triangles[i][k] == gone {
					s.triangles[i][k] = keep
				}
			}
		}
		s.dropFolded()
		collapsed++
	}
	if collapsed > 0 {
		s.compactVertices()
		s.prune()
		s.markDirty()
		kernel.Logger().Debug("solid: collapsed tiny triangles", "collapses", collapsed)
	}
	return collapsed
}

// vertexFaceCount returns the number of distinct faces around vertex v.
func (s *Solid) vertexFaceCount(v uint32) int {
	seen := make(map[uint32]bool, 4)
	for t, tri := range s.triangles {
		if tri[0] == v || tri[1] == v || tri[2] == v {
			seen[s.faceIDs[t]] = true
		}
	}
	return len(seen)
}

// dropFolded removes triangles with repeated corners and pairs of
// triangles over the same three vertices with opposite winding.
func (s *Solid) dropFolded() {
	type tkey [3]uint32
	sorted := func(t [3]uint32) tkey {
		k := tkey(t)
		slices.Sort(k[:])
		return k
	}
	count := make(map[tkey]int)
	for _, t := range s.triangles {
		if t[0] == t[1] || t[1] == t[2] || t[0] == t[2] {
			continue
		}
		count[sorted(t)]++
	}
	tris := s.triangles[:0]
	ids := s.faceIDs[:0]
	for i, t := range s.triangles {
		if t[0] == t[1] || t[1] == t[2] || t[0] == t[2] {
			continue
		}
		if count[sorted(t)] > 1 {
			continue
		}
		tris = append(tris, t)
		ids = append(ids, s.faceIDs[i])
	}
	s.triangles = tris
	s.faceIDs = ids
}

// MergeTinyFaces relabels every face whose area is below ratio times the
// total surface area into the neighbor it shares the longest boundary
// with. It returns the number of faces merged.
func (s *Solid) MergeTinyFaces(ratio float64) int {
	total := s.SurfaceArea()
	if total == 0 || ratio <= 0 {
		return 0
	}
	adj := s.Adjacency()
	areas := s.FaceAreas()
	names := s.FaceNames()
	slices.SortStableFunc(names, func(a, b string) int {
		switch {
		case areas[a] < areas[b]:
			return -1
		case areas[a] > areas[b]:
			return 1
		}
		return 0
	})

	merged := 0
	for _, name := range names {
		if len(s.faceToID) < 2 || areas[name] >= ratio*total {
			continue
		}
		id, ok := s.faceToID[name]
		if !ok {
			continue
		}
		nb := s.neighbors(adj, func(t int) bool { return s.faceIDs[t] == id })
		dst, ok := bestNeighbor(nb)
		if !ok {
			continue
		}
		if err := s.MergeFaceInto(name, dst); err != nil {
			continue
		}
		areas[dst] += areas[name]
		merged++
	}
	if merged > 0 {
		kernel.Logger().Debug("solid: merged tiny faces", "faces", merged)
	}
	return merged
}

// CleanupTinyFaceIslands relabels small disconnected pieces of a face.
// Every face keeps its largest piece; other pieces under areaThreshold move
// to the neighbor they share the longest boundary with. It returns the
// number of pieces moved.
func (s *Solid) CleanupTinyFaceIslands(areaThreshold float64) int {
	adj := s.Adjacency()
	moved := 0
	for _, name := range s.FaceNames() {
		id, ok := s.faceToID[name]
		if !ok {
			continue
		}
		in := func(t int) bool { return s.faceIDs[t] == id }
		comps := s.components(adj, in, func(int, int) bool { return true })
		if len(comps) < 2 {
			continue
		}
		largest, largestArea := 0, -1.0
		areas := make([]float64, len(comps))
		for i, c := range comps {
			areas[i] = s.area(c)
			if areas[i] > largestArea {
				largest, largestArea = i, areas[i]
			}
		}
		for i, c := range comps {
			if i == largest || areas[i] >= areaThreshold {
				continue
			}
			member := make(map[int]bool, len(c))
			for _, t := range c {
				member[t] = true
			}
			nb := s.neighbors(adj, func(t int) bool { return member[t] })
			delete(nb, name)
			dst, ok := bestNeighbor(nb)
			if !ok {
				continue
			}
			s.relabel(c, dst)
			moved++
		}
	}
	if moved > 0 {
		s.prune()
		kernel.Logger().Debug("solid: relabeled face islands", "pieces", moved)
	}
	return moved
}
