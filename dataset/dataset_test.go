package dataset_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qalsh/dataset"
)

func TestVectorsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.txt")
	vectors := [][]float32{
		{1.5, -2.5, 3.0},
		{0, 0, 0},
	}

	require.NoError(t, dataset.WriteVectors(path, vectors))

	got, err := dataset.ReadVectors(path, 2, 3)
	require.NoError(t, err)
	for i := range vectors {
		for j := range vectors[i] {
			assert.InDelta(t, vectors[i][j], got[i][j], 1e-5)
		}
	}
}

func TestReadVectorsWrongCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.txt")
	require.NoError(t, dataset.WriteVectors(path, [][]float32{{1, 2}}))

	_, err := dataset.ReadVectors(path, 5, 2)
	assert.Error(t, err)
}

func TestGroundTruthRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "truth.txt")
	gt := &dataset.GroundTruth{
		MaxK: 3,
		Distances: [][]float64{
			{1.0, 2.0, 3.0},
			{0.5, 1.5, 2.5},
		},
	}
	require.NoError(t, dataset.WriteGroundTruth(path, gt))

	got, err := dataset.ReadGroundTruth(path)
	require.NoError(t, err)
	assert.Equal(t, gt.MaxK, got.MaxK)
	for i := range gt.Distances {
		for j := range gt.Distances[i] {
			assert.InDelta(t, gt.Distances[i][j], got.Distances[i][j], 1e-5)
		}
	}
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	rounds := []dataset.Round{
		{TopK: 1, OverallRatio: 1.02, IOCost: 42, RuntimeMs: 3.5},
		{TopK: 10, OverallRatio: 1.10, IOCost: 97, RuntimeMs: 7.1},
	}
	require.NoError(t, dataset.WriteReport(&buf, rounds))

	lines := buf.String()
	assert.Contains(t, lines, "1\t1.020000\t42\t3.500000")
	assert.Contains(t, lines, "10\t1.100000\t97\t7.100000")
}
