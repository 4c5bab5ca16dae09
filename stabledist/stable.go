// Package stabledist provides p-stable distribution sampling and collision
// probability estimation for Query-Aware LSH hash functions.
//
// A hash function a_i is a d-dimensional vector whose entries are drawn iid
// from a p-stable distribution; projecting a dataset point x onto a_i gives
// h_i(x) = a_i . x. For the corresponding QALSH collision test to hold, the
// sampling family must match p: Levy for p=0.5, Cauchy for p=1, Gaussian for
// p=2, and the general Chambers-Mallows-Stuck construction otherwise.
//
// Rather than branching on p at every call site, Family selects one of four
// concrete distributions once at build time; each carries its own sampler
// and its own collision-probability function.
package stabledist

import (
	"math"

	"qalsh/rng"
)

// Family identifies a p-stable distribution kind.
type Family int

const (
	// Levy is the p=0.5 totally-skewed stable distribution.
	Levy Family = iota
	// Cauchy is the p=1.0 symmetric stable distribution.
	Cauchy
	// Gaussian is the p=2.0 stable distribution.
	Gaussian
	// PStable is the general Chambers-Mallows-Stuck construction for any
	// p in (0, 2] not covered by a closed form.
	PStable
)

func (f Family) String() string {
	switch f {
	case Levy:
		return "Levy"
	case Cauchy:
		return "Cauchy"
	case Gaussian:
		return "Gaussian"
	case PStable:
		return "PStable"
	default:
		return "Unknown"
	}
}

// FamilyFor picks the closed-form family for p when one exists, and
// PStable otherwise.
func FamilyFor(p float64) Family {
	switch {
	case nearlyEqual(p, 0.5):
		return Levy
	case nearlyEqual(p, 1.0):
		return Cauchy
	case nearlyEqual(p, 2.0):
		return Gaussian
	default:
		return PStable
	}
}

func nearlyEqual(a, b float64) bool {
	const floatZero = 1e-6
	return math.Abs(a-b) < floatZero
}

// monteCarloSamples is the sample count used to estimate collision
// probabilities for the general p-stable case (spec: 10^6 samples).
const monteCarloSamples = 1_000_000

// Distribution is a p-stable hash-function family bound to concrete
// parameters (p and, for the general case, the skewness zeta).
type Distribution struct {
	Family Family
	P      float64
	Zeta   float64
}

// New returns the Distribution that should be used to draw hash-function
// entries for the given p value (p in (0, 2]) and skewness zeta.
func New(p, zeta float64) Distribution {
	return Distribution{Family: FamilyFor(p), P: p, Zeta: zeta}
}

// Sample draws one scalar from the distribution using r.
func (d Distribution) Sample(r *rng.RNG) float64 {
	switch d.Family {
	case Levy:
		return sampleLevy(r)
	case Cauchy:
		return sampleCauchy(r)
	case Gaussian:
		return r.NormFloat64()
	default:
		return samplePStable(r, d.P, d.Zeta)
	}
}

// CollisionProb returns (p1, p2), the probabilities that two points at
// L_p-distance r1=1 and r2=c respectively collide in a bucket of width w,
// i.e. p_j = Pr[|X| < w/(2*r_j)] under the distribution's density.
func (d Distribution) CollisionProb(w, c float64) (p1, p2 float64) {
	x1 := w / 2.0
	x2 := w / (2.0 * c)

	switch d.Family {
	case Levy:
		return levyProb(x1), levyProb(x2)
	case Cauchy:
		return cauchyProb(x1), cauchyProb(x2)
	case Gaussian:
		return gaussianProb(x1), gaussianProb(x2)
	default:
		return monteCarloProb(d.P, d.Zeta, x1, x2)
	}
}

// --- Levy (p = 0.5, totally skewed beta = 1) ---------------------------

// sampleLevy draws from the standard Levy distribution (location 0, scale
// 1), which is the stable(0.5, 1) distribution: X = 1 / Z^2 for standard
// normal Z.
func sampleLevy(r *rng.RNG) float64 {
	z := r.NormFloat64()
	if z == 0 {
		z = 1e-12
	}
	return 1.0 / (z * z)
}

// levyProb returns Pr[X < x] for the standard Levy distribution (support
// x > 0), via its closed-form CDF F(x) = erfc(sqrt(1/(2x))).
func levyProb(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return math.Erfc(math.Sqrt(1.0 / (2.0 * x)))
}

// --- Cauchy (p = 1.0, symmetric) ----------------------------------------

func sampleCauchy(r *rng.RNG) float64 {
	u := r.Float64()
	return math.Tan(math.Pi * (u - 0.5))
}

// cauchyProb returns Pr[|X| < x] for the standard Cauchy distribution.
func cauchyProb(x float64) float64 {
	return 2.0 * math.Atan(x) / math.Pi
}

// --- Gaussian (p = 2.0) ---------------------------------------------------

// gaussianProb returns Pr[|X| < x] for the standard normal distribution.
func gaussianProb(x float64) float64 {
	return math.Erf(x / math.Sqrt2)
}

// --- General p-stable (Chambers-Mallows-Stuck) ---------------------------

// samplePStable draws one sample from the symmetric/skewed p-stable
// distribution with characteristic exponent alpha=p and skewness beta=zeta,
// scale 1, location 0, using the Chambers-Mallows-Stuck construction.
func samplePStable(r *rng.RNG, p, zeta float64) float64 {
	theta := math.Pi * (r.Float64() - 0.5) // Uniform(-pi/2, pi/2)
	w := r.ExpFloat64()                    // Exp(1)

	if nearlyEqual(p, 1.0) {
		if w == 0 {
			w = 1e-12
		}
		term := math.Pi/2 + zeta*theta
		return (2.0 / math.Pi) * (term*math.Tan(theta) - zeta*math.Log((math.Pi/2*w*math.Cos(theta))/term))
	}

	b := math.Atan(zeta*math.Tan(math.Pi*p/2)) / p
	s := math.Pow(1+zeta*zeta*math.Pow(math.Tan(math.Pi*p/2), 2), 1/(2*p))

	num := s * math.Sin(p*(theta+b))
	den := math.Pow(math.Cos(theta), 1/p)
	if w == 0 {
		w = 1e-12
	}
	ratio := math.Cos(theta-p*(theta+b)) / w

	return (num / den) * math.Pow(ratio, (1-p)/p)
}

// monteCarloProb estimates (Pr[|X| < x1], Pr[|X| < x2]) for the general
// p-stable distribution by drawing monteCarloSamples samples. It uses a
// fixed, package-local RNG seed so derivation of the same parameters always
// yields the same estimate.
func monteCarloProb(p, zeta, x1, x2 float64) (prob1, prob2 float64) {
	r := rng.New(0x51A15 ^ int64(p*1000) ^ int64(zeta*1000))

	var count1, count2 int
	for i := 0; i < monteCarloSamples; i++ {
		x := math.Abs(samplePStable(r, p, zeta))
		if x < x1 {
			count1++
		}
		if x < x2 {
			count2++
		}
	}
	return float64(count1) / monteCarloSamples, float64(count2) / monteCarloSamples
}
