package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Sampler parameterizes a polyline by arclength.
type Sampler struct {
	points []v3.Vec
	cum    []float64 // cum[i] is the arclength at points[i]
	closed bool
}

// NewSampler builds a sampler over points. A closed sampler includes the
// segment from the last point back to the first.
func NewSampler(points []v3.Vec, closed bool) *Sampler {
	pts := append([]v3.Vec(nil), points...)
	if closed && len(pts) > 1 && pts[0] != pts[len(pts)-1] {
		pts = append(pts, pts[0])
	}
	cum := make([]float64, len(pts))
	for i := 1; i < len(pts); i++ {
		cum[i] = cum[i-1] + Dist(pts[i-1], pts[i])
	}
	return &Sampler{points: pts, cum: cum, closed: closed}
}

// Length returns the total arclength.
func (s *Sampler) Length() float64 {
	if len(s.cum) == 0 {
		return 0
	}
	return s.cum[len(s.cum)-1]
}

// Closed reports whether the curve wraps around.
func (s *Sampler) Closed() bool { return s.closed }

// At returns the point at arclength t, clamped to the curve.
func (s *Sampler) At(t float64) v3.Vec {
	n := len(s.points)
	switch {
	case n == 0:
		return v3.Vec{}
	case n == 1 || t <= 0:
		return s.points[0]
	case t >= s.Length():
		return s.points[n-1]
	}
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if s.cum[mid] <= t {
			lo = mid
		} else {
			hi = mid
		}
	}
	seg := s.cum[hi] - s.cum[lo]
	if seg == 0 {
		return s.points[lo]
	}
	return Lerp(s.points[lo], s.points[hi], (t-s.cum[lo])/seg)
}

// Project returns the point of the curve nearest to p, its arclength
// parameter and the distance to p. Every segment is scanned.
func (s *Sampler) Project(p v3.Vec) (v3.Vec, float64, float64) {
	if len(s.points) == 0 {
		return v3.Vec{}, 0, math.Inf(1)
	}
	best := s.points[0]
	bestT := 0.0
	bestD := Dist(p, best)
	for i := 0; i+1 < len(s.points); i++ {
		q, u := ClosestPointOnSegment(p, s.points[i], s.points[i+1])
		if d := Dist(p, q); d < bestD {
			best, bestD = q, d
			bestT = s.cum[i] + u*(s.cum[i+1]-s.cum[i])
		}
	}
	return best, bestT, bestD
}
