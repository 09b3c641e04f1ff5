package solid

import (
	"fmt"

	"github.com/chazu/brep/pkg/kernel"
)

// Op selects a boolean operation.
type Op int

const (
	OpUnion Op = iota
	OpSubtract
	OpIntersect
	OpDifference
)

func (o Op) String() string {
	switch o {
	case OpUnion:
		return "union"
	case OpSubtract:
		return "subtract"
	case OpIntersect:
		return "intersect"
	case OpDifference:
		return "difference"
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Union returns s ∪ o.
func (s *Solid) Union(o *Solid) (*Solid, error) { return Boolean(OpUnion, s, o) }

// Subtract returns s − o.
func (s *Solid) Subtract(o *Solid) (*Solid, error) { return Boolean(OpSubtract, s, o) }

// Intersect returns s ∩ o.
func (s *Solid) Intersect(o *Solid) (*Solid, error) { return Boolean(OpIntersect, s, o) }

// Difference is an alias of Subtract.
func (s *Solid) Difference(o *Solid) (*Solid, error) { return Boolean(OpDifference, s, o) }

// Boolean combines a and b into a new solid. Engine errors are returned
// unchanged apart from wrapping; the operands are never modified beyond
// refreshing their engine handles.
//
// Face names of both operands survive. Where both operands name a face
// identically the first operand's ID becomes canonical, and metadata is
// likewise taken from the first operand.
func Boolean(op Op, a, b *Solid) (*Solid, error) {
	if a.eng != b.eng {
		return nil, ErrEngineMismatch
	}
	ha, err := a.Manifold()
	if err != nil {
		return nil, fmt.Errorf("solid: %s: first operand: %w", op, err)
	}
	hb, err := b.Manifold()
	if err != nil {
		return nil, fmt.Errorf("solid: %s: second operand: %w", op, err)
	}

	var h kernel.Manifold
	switch op {
	case OpUnion:
		h, err = a.eng.Union(ha, hb)
	case OpSubtract:
		h, err = a.eng.Subtract(ha, hb)
	case OpIntersect:
		h, err = a.eng.Intersect(ha, hb)
	case OpDifference:
		h, err = a.eng.Difference(ha, hb)
	default:
		return nil, fmt.Errorf("solid: unknown boolean %v", op)
	}
	if err != nil {
		return nil, fmt.Errorf("solid: %s: %w", op, err)
	}

	out, err := fromHandle(a.eng, h, a, b)
	if err != nil {
		return nil, fmt.Errorf("solid: %s: %w", op, err)
	}
	kernel.Logger().Debug("solid: boolean",
		"op", op.String(),
		"triangles", len(out.triangles),
		"faces", len(out.faceToID))
	return out, nil
}

// fromHandle builds a solid that takes ownership of h, inheriting names,
// metadata and aux edges from sources in priority order.
func fromHandle(eng kernel.Engine, h kernel.Manifold, sources ...*Solid) (*Solid, error) {
	mesh, err := eng.GetMesh(h)
	if err != nil {
		eng.Delete(h)
		return nil, err
	}

	out := newSolid(eng)
	for _, src := range sources {
		for name, id := range src.faceToID {
			if _, ok := out.faceToID[name]; !ok {
				out.faceToID[name] = id
			}
		}
		for id, name := range src.idToFace {
			if _, ok := out.idToFace[id]; !ok {
				out.idToFace[id] = name
			}
		}
		for from, to := range src.retired {
			if _, ok := out.retired[from]; !ok {
				out.retired[from] = to
			}
		}
		mergeMeta(out.faceMeta, src.faceMeta)
		mergeMeta(out.edgeMeta, src.edgeMeta)
		out.auxEdges = append(out.auxEdges, src.AuxEdges()...)
	}

	out.load(mesh)
	out.collapse()
	out.handle = h
	out.dirty = false
	return out, nil
}
