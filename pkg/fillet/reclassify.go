package fillet

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/chazu/brep/pkg/kernel"
	"github.com/chazu/brep/pkg/pipeline"
	"github.com/chazu/brep/pkg/solid"
)

// stages returns the post-boolean cleanup of s in its fixed order.
func (b *builder) stages(s *solid.Solid, pieces []*piece) []pipeline.Stage {
	st := []pipeline.Stage{
		{Name: "merge-degenerate-caps", Run: func(context.Context) error { return b.mergeDegenerate(s, pieces) }},
	}
	if b.opts.SnapSeams {
		st = append(st, pipeline.Stage{Name: "snap-seams", Run: func(context.Context) error { return b.snapSeams(s, pieces) }})
	}
	return append(st,
		pipeline.Stage{Name: "merge-tiny-faces", Run: func(context.Context) error {
			s.MergeTinyFaces(b.opts.TinyFaceRatio)
			return nil
		}},
		pipeline.Stage{Name: "merge-coplanar-caps", Run: func(context.Context) error { return b.mergeCoplanarCaps(s, pieces) }},
		pipeline.Stage{Name: "collapse-tiny-triangles", Run: func(context.Context) error {
			s.CollapseTinyTriangles(b.opts.TinyTriangleArea)
			return nil
		}},
		pipeline.Stage{Name: "remove-small-islands", Run: func(context.Context) error {
			s.RemoveSmallIslands(b.opts.IslandArea)
			return nil
		}},
	)
}

func roundFaces(s *solid.Solid) []string {
	var out []string
	for _, name := range s.FaceNames() {
		if strings.HasSuffix(name, SuffixRound) {
			out = append(out, name)
		}
	}
	return out
}

// mergeDegenerate folds caps and side strips that the boolean reduced to
// slivers into a round face.
func (b *builder) mergeDegenerate(s *solid.Solid, pieces []*piece) error {
	log := kernel.Logger()
	for _, p := range pieces {
		for _, name := range p.minorFaces() {
			ref := p.refArea[name]
			if !s.HasFace(name) || ref <= 0 || s.FaceArea(name) >= b.opts.CapMergeRatio*ref {
				continue
			}
			dst := roundTarget(s, name, p)
			if dst == "" {
				continue
			}
			if err := s.MergeFaceInto(name, dst); err != nil {
				return fmt.Errorf("merge %s into %s: %w", name, dst, err)
			}
			log.Debug("fillet: merged degenerate face", "face", name, "into", dst)
		}
	}
	return nil
}

// roundTarget picks the round face adjacent to name with the longest
// shared boundary, else the piece's own round face, else the largest
// round face left.
func roundTarget(s *solid.Solid, name string, p *piece) string {
	nb := s.FaceNeighbors(name)
	best, bestLen := "", 0.0
	for _, other := range slices.Sorted(maps.Keys(nb)) {
		if strings.HasSuffix(other, SuffixRound) && nb[other] > bestLen {
			best, bestLen = other, nb[other]
		}
	}
	if best != "" {
		return best
	}
	if s.HasFace(p.round()) {
		return p.round()
	}
	bestArea := 0.0
	for _, r := range roundFaces(s) {
		if a := s.FaceArea(r); a > bestArea {
			best, bestArea = r, a
		}
	}
	return best
}

// mergeCoplanarCaps merges end caps left flush with a neighboring face.
func (b *builder) mergeCoplanarCaps(s *solid.Solid, pieces []*piece) error {
	for _, p := range pieces {
		for _, c := range p.caps() {
			if !s.HasFace(c) {
				continue
			}
			n := s.FaceNormal(c)
			nb := s.FaceNeighbors(c)
			names := slices.SortedFunc(maps.Keys(nb), func(x, y string) int {
				if nb[x] != nb[y] {
					if nb[x] > nb[y] {
						return -1
					}
					return 1
				}
				return strings.Compare(x, y)
			})
			for _, other := range names {
				if s.FaceNormal(other).Dot(n) < b.opts.CoplanarDot {
					continue
				}
				if err := s.MergeFaceInto(c, other); err != nil {
					return fmt.Errorf("merge %s into %s: %w", c, other, err)
				}
				break
			}
		}
	}
	return nil
}
