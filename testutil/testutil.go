// Package testutil provides seeded random dataset generators for exercising
// the index across its supported L_p exponents (0.5, 1.0, 1.5, 2.0, and
// general p), plus a brute-force search helper for computing ground truth
// in tests.
package testutil

import (
	"math"
	"math/rand"
	"sort"
	"sync"
)

// SearchResult is one (id, distance) pair, as returned by BruteForceLpSearch
// and compared against an index's knn output in tests.
type SearchResult struct {
	ID       int32
	Distance float64
}

// RNG encapsulates a seeded random source. It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec // test data, not security
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 { return r.seed }

// UniformVectors generates num vectors of the given dimension with entries
// uniform in [-1, 1).
func (r *RNG) UniformVectors(num, dim int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	vectors := make([][]float32, num)
	for i := range vectors {
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = r.rand.Float32()*2 - 1
		}
		vectors[i] = vec
	}
	return vectors
}

// GaussianVectors generates num vectors with entries drawn from the
// standard normal distribution, suitable for exercising p=2.0 queries.
func (r *RNG) GaussianVectors(num, dim int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	vectors := make([][]float32, num)
	for i := range vectors {
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = float32(r.rand.NormFloat64())
		}
		vectors[i] = vec
	}
	return vectors
}

// CauchyVectors generates num vectors with entries drawn from the standard
// Cauchy distribution, suitable for exercising p=1.0 queries.
func (r *RNG) CauchyVectors(num, dim int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	vectors := make([][]float32, num)
	for i := range vectors {
		vec := make([]float32, dim)
		for j := range vec {
			u := r.rand.Float64()
			vec[j] = float32(math.Tan(math.Pi * (u - 0.5)))
		}
		vectors[i] = vec
	}
	return vectors
}

// BruteForceLpSearch performs exact L_p nearest-neighbor search against
// vectors, returning the k closest to query in ascending distance order.
// It is the ground-truth oracle tests compare an index's knn output
// against.
func BruteForceLpSearch(vectors [][]float32, query []float32, p float64, k int) []SearchResult {
	results := make([]SearchResult, len(vectors))
	for i, v := range vectors {
		results[i] = SearchResult{ID: int32(i), Distance: lpDistance(v, query, p)}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if len(results) > k {
		results = results[:k]
	}
	return results
}

func lpDistance(x, y []float32, p float64) float64 {
	var sum float64
	for i := range x {
		d := math.Abs(float64(x[i]) - float64(y[i]))
		sum += math.Pow(d, p)
	}
	return math.Pow(sum, 1.0/p)
}
