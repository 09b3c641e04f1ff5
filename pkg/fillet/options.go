package fillet

import (
	"fmt"
	"strings"
)

// Direction selects whether a fillet removes or adds material.
type Direction int

const (
	// Auto insets convex edges and outsets concave ones.
	Auto Direction = iota
	// Inset subtracts the fillet body from the base.
	Inset
	// Outset unions the fillet body with the base.
	Outset
)

func (d Direction) String() string {
	switch d {
	case Inset:
		return "INSET"
	case Outset:
		return "OUTSET"
	default:
		return "AUTO"
	}
}

// ParseDirection accepts INSET, OUTSET or AUTO in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INSET":
		return Inset, nil
	case "OUTSET":
		return Outset, nil
	case "AUTO", "":
		return Auto, nil
	}
	return Auto, fmt.Errorf("fillet: unknown direction %q", s)
}

// Options configures Fillet. Zero thresholds are replaced by values scaled
// to the radius.
type Options struct {
	Radius float64
	// Resolution is the number of arc segments in a full turn.
	Resolution int
	Direction  Direction
	// Name prefixes every generated face. Edge k gets "<Name><k>".
	Name string

	// SnapSeams moves the boolean seams onto the analytic tangent curves.
	SnapSeams bool
	// SnapClamp bounds each snapped vertex displacement as a fraction of
	// the tangent curve length.
	SnapClamp float64
	// CornerBlend adds a convex hull at vertices shared by several edges.
	CornerBlend bool

	// CapMergeRatio: caps and side strips smaller than this fraction of
	// their pre-boolean area are merged into the round face.
	CapMergeRatio float64
	// TinyFaceRatio is passed to Solid.MergeTinyFaces.
	TinyFaceRatio float64
	// CoplanarDot is the normal dot product above which an end cap is
	// merged into its neighbor.
	CoplanarDot float64
	// TinyTriangleArea is passed to Solid.CollapseTinyTriangles.
	TinyTriangleArea float64
	// IslandArea is passed to Solid.RemoveSmallIslands.
	IslandArea float64

	// Debug keeps the tube, wedge, body and corner solids in
	// Result.Artifacts.
	Debug bool
}

// DefaultOptions returns the options used when a field is left zero.
func DefaultOptions() Options {
	return Options{
		Radius:        1,
		Resolution:    32,
		Direction:     Auto,
		Name:          "FILLET",
		SnapSeams:     true,
		SnapClamp:     0.1,
		CornerBlend:   true,
		CapMergeRatio: 0.05,
		TinyFaceRatio: 1e-5,
		CoplanarDot:   0.999,
	}
}

func (o Options) withDefaults() (Options, error) {
	if !(o.Radius > 0) {
		return o, fmt.Errorf("%w: %v", ErrInvalidRadius, o.Radius)
	}
	def := DefaultOptions()
	if o.Resolution < 4 {
		o.Resolution = def.Resolution
	}
	if o.Name == "" {
		o.Name = def.Name
	}
	if o.SnapClamp <= 0 {
		o.SnapClamp = def.SnapClamp
	}
	if o.CapMergeRatio <= 0 {
		o.CapMergeRatio = def.CapMergeRatio
	}
	if o.TinyFaceRatio <= 0 {
		o.TinyFaceRatio = def.TinyFaceRatio
	}
	if o.CoplanarDot <= 0 {
		o.CoplanarDot = def.CoplanarDot
	}
	if o.TinyTriangleArea <= 0 {
		o.TinyTriangleArea = 1e-10 * o.Radius * o.Radius
	}
	if o.IslandArea <= 0 {
		o.IslandArea = 1e-4 * o.Radius * o.Radius
	}
	return o, nil
}
