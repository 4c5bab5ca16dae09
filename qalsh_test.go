package qalsh_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qalsh"
	"qalsh/testutil"
)

func TestBuildOpenKNNRoundTrip(t *testing.T) {
	rng := testutil.NewRNG(2024)
	vectors := rng.UniformVectors(300, 8)
	query := rng.UniformVectors(1, 8)[0]

	dir := filepath.Join(t.TempDir(), "index")
	idx, err := qalsh.Build(dir, vectors, 2.0, 0.0, 2.0, qalsh.WithSeed(1))
	require.NoError(t, err)
	defer idx.Close()

	const k = 5
	result, err := idx.KNN(query, k)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.Neighbors), k)
	assert.Greater(t, result.PageIO, 0)

	exact := testutil.BruteForceLpSearch(vectors, query, 2.0, k)
	require.NotEmpty(t, exact)

	// QALSH is approximate: the worst returned distance should not be
	// wildly larger than the true k-th nearest neighbor distance.
	if len(result.Neighbors) == k {
		assert.LessOrEqual(t, result.Neighbors[k-1].Dist, exact[k-1].Distance*4.0+1e-6)
	}

	reopened, err := qalsh.Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, idx.Params().M, reopened.Params().M)
	assert.Equal(t, idx.Params().L, reopened.Params().L)

	again, err := reopened.KNN(query, k)
	require.NoError(t, err)
	assert.Equal(t, len(result.Neighbors), len(again.Neighbors))
}

func TestBuildRejectsDimensionMismatch(t *testing.T) {
	vectors := [][]float32{{1, 2, 3}, {1, 2}}
	dir := filepath.Join(t.TempDir(), "index")

	_, err := qalsh.Build(dir, vectors, 2.0, 0.0, 2.0)
	require.Error(t, err)

	var dimErr *qalsh.ErrDimensionMismatch
	require.ErrorAs(t, err, &dimErr)
}

func TestBuildRejectsExistingIndex(t *testing.T) {
	rng := testutil.NewRNG(1)
	vectors := rng.UniformVectors(50, 4)
	dir := filepath.Join(t.TempDir(), "index")

	idx, err := qalsh.Build(dir, vectors, 2.0, 0.0, 2.0)
	require.NoError(t, err)
	defer idx.Close()

	_, err = qalsh.Build(dir, vectors, 2.0, 0.0, 2.0)
	require.Error(t, err)

	var existsErr *qalsh.ErrIndexExists
	require.ErrorAs(t, err, &existsErr)
}

func TestKNNRejectsInvalidK(t *testing.T) {
	rng := testutil.NewRNG(3)
	vectors := rng.UniformVectors(50, 4)
	dir := filepath.Join(t.TempDir(), "index")

	idx, err := qalsh.Build(dir, vectors, 2.0, 0.0, 2.0)
	require.NoError(t, err)
	defer idx.Close()

	_, err = idx.KNN(vectors[0], 0)
	assert.ErrorIs(t, err, qalsh.ErrInvalidK)
}

func TestBatchKNNMatchesSequentialResults(t *testing.T) {
	rng := testutil.NewRNG(5)
	vectors := rng.UniformVectors(200, 6)
	dir := filepath.Join(t.TempDir(), "index")

	idx, err := qalsh.Build(dir, vectors, 2.0, 0.0, 2.0)
	require.NoError(t, err)
	defer idx.Close()

	queries := rng.UniformVectors(4, 6)
	results, err := idx.BatchKNN(context.Background(), queries, 3)
	require.NoError(t, err)
	require.Len(t, results, len(queries))

	for i, q := range queries {
		single, err := idx.KNN(q, 3)
		require.NoError(t, err)
		assert.Equal(t, len(single.Neighbors), len(results[i].Neighbors))
	}
}
