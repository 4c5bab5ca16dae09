// Package lpdist computes distances under the general L_p norm used
// throughout the index: ||x - y||_p = (sum_i |x_i - y_i|^p)^(1/p).
//
// Unlike the teacher's distance package, which only covers L2/Cosine/Dot/
// Hamming, QALSH must support any p in (0, 2], so this package generalizes
// the exponent rather than special-casing p=2.
package lpdist

import (
	"math"

	"qalsh/internal/math32"
)

// Func computes ||x - y||_p for vectors of equal length.
type Func func(x, y []float32) float64

// New returns the Func for exponent p, specializing the common p=1 and p=2
// cases to avoid repeated math.Pow calls in the query-hot path.
func New(p float64) Func {
	switch {
	case p == 1.0:
		return Manhattan
	case p == 2.0:
		return Euclidean
	default:
		return func(x, y []float32) float64 {
			return General(x, y, p)
		}
	}
}

// General computes the L_p distance for an arbitrary exponent p.
func General(x, y []float32, p float64) float64 {
	var sum float64
	for i := range x {
		d := math.Abs(float64(x[i]) - float64(y[i]))
		sum += math.Pow(d, p)
	}
	return math.Pow(sum, 1.0/p)
}

// Manhattan computes the L1 distance.
func Manhattan(x, y []float32) float64 {
	var sum float64
	for i := range x {
		sum += math.Abs(float64(x[i]) - float64(y[i]))
	}
	return sum
}

// Euclidean computes the L2 distance, using math32's SquaredL2 kernel since it is the distance the hash family is tuned for
// and so the one evaluated most often on the candidate-promotion path.
func Euclidean(x, y []float32) float64 {
	return math.Sqrt(float64(math32.SquaredL2(x, y)))
}

// Project computes the 1-D projection a . x used by a QALSH hash function,
// where a is one row of the hash-function matrix. It runs once per vector
// per hash function at build time and once per hash function per query,
// through math32's Dot kernel.
func Project(a, x []float32) float64 {
	return float64(math32.Dot(a, x))
}
