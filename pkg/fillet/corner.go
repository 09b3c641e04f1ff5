package fillet

import (
	"fmt"
	"slices"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"

	"github.com/chazu/brep/pkg/geom"
	"github.com/chazu/brep/pkg/kernel"
	"github.com/chazu/brep/pkg/solid"
)

// cornerEnd is one open end of a fillet body.
type cornerEnd struct {
	piece *piece
	at    v3.Vec
	ring  []v3.Vec
}

// corner is a vertex shared by the ends of two or more fillets.
type corner struct {
	name string
	at   v3.Vec
	dir  Direction
	hull *solid.Solid
}

// quantum is the grouping tolerance for fillet ends, a small fraction of
// the shortest selected edge.
func quantum(pieces []*piece) float64 {
	shortest := lo.Min(lo.Map(pieces, func(p *piece, _ int) float64 { return p.edge.Length() }))
	return max(shortest*1e-4, 1e-9)
}

// corners builds a convex hull over the end sections meeting at each
// vertex shared by two or more open fillets. A vertex where inset and
// outset fillets meet gets no hull and is reported as a failure.
func (b *builder) corners(pieces []*piece) ([]*corner, []*EdgeError) {
	open := lo.Filter(pieces, func(p *piece, _ int) bool { return !p.edge.Closed })
	if len(open) < 2 {
		return nil, nil
	}
	tol := quantum(open)
	groups := make(map[geom.Key][]cornerEnd)
	var order []geom.Key
	for _, p := range open {
		last := len(p.sections) - 1
		for _, s := range []section{p.sections[0], p.sections[last]} {
			k := geom.Quantize(s.p, tol)
			if _, ok := groups[k]; !ok {
				order = append(order, k)
			}
			groups[k] = append(groups[k], cornerEnd{piece: p, at: s.p, ring: s.ring()})
		}
	}

	log := kernel.Logger()
	var out []*corner
	var failures []*EdgeError
	for _, k := range order {
		ends := groups[k]
		if len(lo.UniqBy(ends, func(e cornerEnd) *piece { return e.piece })) < 2 {
			continue
		}
		dirs := lo.Uniq(lo.Map(ends, func(e cornerEnd, _ int) Direction { return e.piece.dir }))
		if len(dirs) != 1 {
			at := ends[0].at
			log.Debug("fillet: mixed directions at corner, no hull", "at", at)
			failures = append(failures, &EdgeError{
				Edge: fmt.Sprintf("%s_CORNER(%g,%g,%g)", b.opts.Name, at.X, at.Y, at.Z),
				Err:  ErrMixedCorner,
			})
			continue
		}
		var pts []v3.Vec
		for _, e := range ends {
			pts = append(pts, e.ring...)
		}
		name := fmt.Sprintf("%s_CORNER_%d", b.opts.Name, len(out))
		hull, err := solid.Hull(name, pts, solid.WithEngine(b.eng))
		if err != nil {
			failures = append(failures, &EdgeError{Edge: name, Err: err})
			continue
		}
		names := lo.Map(ends, func(e cornerEnd, _ int) string { return e.piece.prefix })
		slices.Sort(names)
		meta := &solid.Metadata{Source: "fillet", FeatureID: name, Role: "corner", Radius: b.opts.Radius}
		meta.Set("fillets", solid.String(strings.Join(lo.Uniq(names), ",")))
		hull.SetFaceMetadata(name, meta)
		out = append(out, &corner{name: name, at: ends[0].at, dir: dirs[0], hull: hull})
	}
	return out, failures
}
