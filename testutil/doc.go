// Package testutil provides testing utilities for qalsh.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating seeded random vectors under the
// distributions relevant to the supported L_p exponents, and an exact
// brute-force search oracle to check an index's knn output against.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vecs := rng.UniformVectors(n, dim)
//	vecs = rng.GaussianVectors(n, dim) // for p=2.0
//	vecs = rng.CauchyVectors(n, dim)   // for p=1.0
//
// # Exact Search (Ground Truth)
//
//	results := testutil.BruteForceLpSearch(vectors, query, p, k)
package testutil
