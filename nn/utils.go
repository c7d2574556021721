package nn

import (
	"math"
)

// MaxAbsDiff calculates the maximum absolute difference between two slices
func MaxAbsDiff(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	m := 0.0
	for i := 0; i < n; i++ {
		d := math.Abs(float64(a[i] - b[i]))
		if d > m {
			m = d
		}
	}
	return m
}

// MaxRelDiff calculates the maximum relative difference between two slices,
// with eps guarding near-zero denominators.
func MaxRelDiff(a, b []float32, eps float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	m := 0.0
	for i := 0; i < n; i++ {
		den := math.Abs(float64(b[i]))
		if den < eps {
			den = eps
		}
		d := math.Abs(float64(a[i]-b[i])) / den
		if d > m {
			m = d
		}
	}
	return m
}
