package fillet

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"

	"github.com/chazu/brep/pkg/geom"
	"github.com/chazu/brep/pkg/kernel"
	"github.com/chazu/brep/pkg/solid"
)

// seam is an analytic tangent curve and the face it was tangent to,
// with that face's triangles as they were before the boolean.
type seam struct {
	curve *geom.Sampler
	face  string
	tris  [][3]v3.Vec
}

func (b *builder) seams(p *piece) [2]seam {
	mk := func(useB bool, face string) seam {
		tris := lo.Map(b.base.Face(face), func(t solid.FaceTriangle, _ int) [3]v3.Vec { return t.Points })
		return seam{curve: geom.NewSampler(p.tangentCurve(useB), p.edge.Closed), face: face, tris: tris}
	}
	return [2]seam{mk(false, p.edge.FaceA), mk(true, p.edge.FaceB)}
}

// snapSeams moves the boundary between each round face and its tangent
// faces onto the analytic tangent curves.
func (b *builder) snapSeams(s *solid.Solid, pieces []*piece) error {
	log := kernel.Logger()
	lines := s.BoundaryPolylines()
	for _, p := range pieces {
		round := p.round()
		if !s.HasFace(round) {
			continue
		}
		cands := lo.Filter(lines, func(l solid.BoundaryPolyline, _ int) bool {
			return l.FaceA == round || l.FaceB == round
		})
		locked := make(map[uint32]bool)
		for _, c := range p.caps() {
			for _, t := range s.Face(c) {
				for _, v := range t.Indices {
					locked[v] = true
				}
			}
		}

		sm := b.seams(p)
		var matched [2]*solid.BoundaryPolyline
		for i := range sm {
			matched[i] = bestSeam(cands, round, sm[i])
		}
		if matched[0] != nil && matched[1] != nil {
			for _, v := range lo.Intersect(matched[0].Indices, matched[1].Indices) {
				locked[v] = true
			}
		}
		for i := range sm {
			if matched[i] == nil {
				continue
			}
			n, err := snapLine(s, matched[i].Indices, sm[i].curve, b.opts.SnapClamp, locked)
			if err != nil {
				return err
			}
			log.Debug("fillet: snapped seam", "round", round, "face", matched[i].Other(round), "moved", n)
		}
	}
	return nil
}

// bestSeam prefers boundaries shared with the seam's own face, then
// boundaries lying closest to that face's original triangles.
func bestSeam(cands []solid.BoundaryPolyline, round string, sm seam) *solid.BoundaryPolyline {
	pool := lo.Filter(cands, func(l solid.BoundaryPolyline, _ int) bool { return l.Other(round) == sm.face })
	if len(pool) == 0 {
		pool = cands
	}
	if len(pool) == 0 {
		return nil
	}
	best, bestD := 0, math.Inf(1)
	for i, l := range pool {
		if d := meanDistance(l.Positions, sm.tris); d < bestD {
			best, bestD = i, d
		}
	}
	return &pool[best]
}

func meanDistance(pts []v3.Vec, tris [][3]v3.Vec) float64 {
	if len(pts) == 0 || len(tris) == 0 {
		return math.Inf(1)
	}
	sum := 0.0
	for _, p := range pts {
		d := math.Inf(1)
		for _, t := range tris {
			d = min(d, geom.PointTriangleDistance(p, t[0], t[1], t[2]))
		}
		sum += d
	}
	return sum / float64(len(pts))
}

// snapLine projects the polyline's vertices onto curve. Each move is
// clamped to clamp times the curve length.
func snapLine(s *solid.Solid, indices []uint32, curve *geom.Sampler, clamp float64, locked map[uint32]bool) (int, error) {
	n := len(indices)
	targets := make([]v3.Vec, n)
	params := make([]float64, n)
	for j, idx := range indices {
		targets[j], params[j], _ = curve.Project(s.Vertex(idx))
	}
	if !curve.Closed() {
		unfold(targets, params)
	}

	limit := clamp * curve.Length()
	moved := 0
	for j, idx := range indices {
		if locked[idx] {
			continue
		}
		p := s.Vertex(idx)
		d := targets[j].Sub(p)
		l := d.Length()
		if l == 0 {
			continue
		}
		if l > limit {
			d = d.MulScalar(limit / l)
		}
		if err := s.SetVertex(idx, p.Add(d)); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// unfold reverses every run whose parameters step against the overall
// direction of the polyline, so snapped points keep their order.
func unfold(targets []v3.Vec, params []float64) {
	n := len(params)
	if n < 3 {
		return
	}
	sign := math.Copysign(1, params[n-1]-params[0])
	if params[n-1] == params[0] {
		return
	}
	for j := 0; j+1 < n; {
		if (params[j+1]-params[j])*sign >= 0 {
			j++
			continue
		}
		k := j + 1
		for k+1 < n && (params[k+1]-params[k])*sign < 0 {
			k++
		}
		for a, z := j, k; a < z; a, z = a+1, z-1 {
			targets[a], targets[z] = targets[z], targets[a]
			params[a], params[z] = params[z], params[a]
		}
		j = k
	}
}
