package qalsh

import (
	"math"

	"qalsh/stabledist"
)

// candidateConstant is C in beta = C/n, the fixed candidate-budget constant
// used both for deriving alpha/m and for the query-time threshold T = C+k-1.
const candidateConstant = 100

// Params holds every quantity derived from (n, d, p, c, zeta, B) before an
// index is built: the bucket width w, collision probabilities p1/p2, the
// false-positive/negative tuning knobs alpha/beta/delta, and the resulting
// hash-function count m and collision threshold l.
type Params struct {
	N     int
	Dim   int
	B     int     // page size in bytes
	P     float64 // L_p exponent
	Zeta  float64 // skewness of the p-stable family, for general p
	Ratio float64 // approximation ratio c

	W     float64
	P1    float64
	P2    float64
	Alpha float64
	Beta  float64
	Delta float64
	M     int
	L     int
}

// DeriveParams computes the full parameter set for an index over n points
// of dimension d, approximation ratio c, under the L_p norm, with page size
// B bytes. It follows qalsh.cc's calc_params: auto-tuned w for p in
// {0.5, 1, 2}, tabulated/interpolated w otherwise, and l = ceil(alpha*m)
// (the qalsh.cc variant, chosen over qalsh.cpp's alternate l formula).
func DeriveParams(n, d, b int, p, zeta, ratio float64) Params {
	params := Params{
		N: n, Dim: d, B: b,
		P: p, Zeta: zeta, Ratio: ratio,
		Delta: 1.0 / math.E,
		Beta:  candidateConstant / float64(n),
	}

	w0 := (ratio - 1.0) / math.Log(math.Sqrt(ratio))
	w1 := 2.0 * math.Sqrt(ratio)
	w2 := math.Sqrt((8.0 * ratio * ratio * math.Log(ratio)) / (ratio*ratio - 1.0))

	dist := stabledist.New(p, zeta)

	switch {
	case nearlyEqual(p, 0.5):
		params.W = w0
		params.P1, params.P2 = dist.CollisionProb(params.W, ratio)
	case nearlyEqual(p, 1.0):
		params.W = w1
		params.P1, params.P2 = dist.CollisionProb(params.W, ratio)
	case nearlyEqual(p, 2.0):
		params.W = w2
		params.P1, params.P2 = dist.CollisionProb(params.W, ratio)
	default:
		switch {
		case nearlyEqual(p, 0.8):
			params.W = 2.503
		case nearlyEqual(p, 1.2):
			params.W = 3.151
		case nearlyEqual(p, 1.5):
			params.W = 3.465
		default:
			params.W = (w2-w1)*p + (2.0*w1 - w2)
		}
		params.P1, params.P2 = dist.CollisionProb(params.W, ratio)
	}

	para1 := math.Sqrt(math.Log(2.0 / params.Beta))
	para2 := math.Sqrt(math.Log(1.0 / params.Delta))
	para3 := 2.0 * (params.P1 - params.P2) * (params.P1 - params.P2)

	eta := para1 / para2
	params.Alpha = (eta*params.P1 + params.P2) / (1.0 + eta)

	params.M = int(math.Ceil((para1 + para2) * (para1 + para2) / para3))
	params.L = int(math.Ceil(params.Alpha * float64(params.M)))

	return params
}

func nearlyEqual(a, b float64) bool {
	const floatZero = 1e-6
	return math.Abs(a-b) < floatZero
}
