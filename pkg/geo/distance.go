package geo

import "math"

// EuclideanDistance between two points of the normalized map plane.
func EuclideanDistance(x1, y1, x2, y2 float64) float64 {
	dx := x1 - x2
	dy := y1 - y2
	return math.Sqrt(dx*dx + dy*dy)
}

// Normalize maps v from [lo, hi] to [0, 100]. A degenerate range maps to the
// middle of the plane.
func Normalize(v, lo, hi float64) float64 {
	if hi-lo == 0 {
		return 50
	}
	n := (v - lo) / (hi - lo) * 100
	return math.Max(0, math.Min(100, n))
}
