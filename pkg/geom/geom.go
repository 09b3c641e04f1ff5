// Package geom holds the small amount of vector and triangle arithmetic the
// kernel needs on top of sdfx's v3.Vec.
package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Lerp returns a + (b-a)*t.
func Lerp(a, b v3.Vec, t float64) v3.Vec {
	return a.Add(b.Sub(a).MulScalar(t))
}

// Dist returns the distance between a and b.
func Dist(a, b v3.Vec) float64 {
	return b.Sub(a).Length()
}

// Cross returns the unnormalized normal (b-a)x(c-a).
func Cross(a, b, c v3.Vec) v3.Vec {
	return b.Sub(a).Cross(c.Sub(a))
}

// TriangleArea returns the area of triangle abc.
func TriangleArea(a, b, c v3.Vec) float64 {
	return 0.5 * Cross(a, b, c).Length()
}

// TriangleNormal returns the unit normal of abc, or the zero vector when the
// triangle is degenerate.
func TriangleNormal(a, b, c v3.Vec) v3.Vec {
	return SafeNormalize(Cross(a, b, c))
}

// Centroid returns the centroid of triangle abc.
func Centroid(a, b, c v3.Vec) v3.Vec {
	return a.Add(b).Add(c).MulScalar(1.0 / 3.0)
}

// SafeNormalize normalizes v, returning the zero vector for (near) zero input.
func SafeNormalize(v v3.Vec) v3.Vec {
	l := v.Length()
	if l < 1e-300 || math.IsNaN(l) {
		return v3.Vec{}
	}
	return v.MulScalar(1 / l)
}

// Slerp rotates the direction a towards b by fraction t, keeping the
// interpolated length between |a| and |b|. The short way round is taken.
func Slerp(a, b v3.Vec, t float64) v3.Vec {
	la, lb := a.Length(), b.Length()
	ua, ub := SafeNormalize(a), SafeNormalize(b)
	cos := math.Max(-1, math.Min(1, ua.Dot(ub)))
	theta := math.Acos(cos)
	l := la + (lb-la)*t
	if theta < 1e-12 {
		return SafeNormalize(Lerp(ua, ub, t)).MulScalar(l)
	}
	s := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / s
	wb := math.Sin(t*theta) / s
	return ua.MulScalar(wa).Add(ub.MulScalar(wb)).MulScalar(l)
}

// Angle returns the unsigned angle between a and b in radians.
func Angle(a, b v3.Vec) float64 {
	c := SafeNormalize(a).Dot(SafeNormalize(b))
	return math.Acos(math.Max(-1, math.Min(1, c)))
}

// ClosestPointOnSegment returns the point of segment ab nearest to p and
// its parameter in [0,1].
func ClosestPointOnSegment(p, a, b v3.Vec) (v3.Vec, float64) {
	ab := b.Sub(a)
	den := ab.Dot(ab)
	if den == 0 {
		return a, 0
	}
	t := p.Sub(a).Dot(ab) / den
	t = math.Max(0, math.Min(1, t))
	return a.Add(ab.MulScalar(t)), t
}

// ClosestPointOnTriangle returns the point of triangle abc nearest to p
// (Ericson, Real-Time Collision Detection 5.1.5).
func ClosestPointOnTriangle(p, a, b, c v3.Vec) v3.Vec {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := p.Sub(a)
	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}
	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}
	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return a.Add(ab.MulScalar(d1 / (d1 - d3)))
	}
	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}
	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return a.Add(ac.MulScalar(d2 / (d2 - d6)))
	}
	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).MulScalar(w))
	}
	den := 1 / (va + vb + vc)
	v := vb * den
	w := vc * den
	return a.Add(ab.MulScalar(v)).Add(ac.MulScalar(w))
}

// PointTriangleDistance returns the distance from p to triangle abc.
func PointTriangleDistance(p, a, b, c v3.Vec) float64 {
	return Dist(p, ClosestPointOnTriangle(p, a, b, c))
}

// Key is an integer lattice key used for tolerance-based point hashing.
type Key [3]int64

// Quantize maps v onto a lattice with spacing tol.
func Quantize(v v3.Vec, tol float64) Key {
	return Key{
		int64(math.Round(v.X / tol)),
		int64(math.Round(v.Y / tol)),
		int64(math.Round(v.Z / tol)),
	}
}
