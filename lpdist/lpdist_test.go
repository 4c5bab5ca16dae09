package lpdist_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"qalsh/lpdist"
)

func TestManhattan(t *testing.T) {
	x := []float32{0, 0}
	y := []float32{3, 4}
	assert.InDelta(t, 7.0, lpdist.Manhattan(x, y), 1e-6)
}

func TestEuclidean(t *testing.T) {
	x := []float32{0, 0}
	y := []float32{3, 4}
	assert.InDelta(t, 5.0, lpdist.Euclidean(x, y), 1e-6)
}

func TestGeneralMatchesClosedForms(t *testing.T) {
	x := []float32{1, 2, 3}
	y := []float32{4, 0, -1}

	assert.InDelta(t, lpdist.Manhattan(x, y), lpdist.General(x, y, 1.0), 1e-6)
	assert.InDelta(t, lpdist.Euclidean(x, y), lpdist.General(x, y, 2.0), 1e-6)
}

func TestNewSpecializesByP(t *testing.T) {
	x := []float32{1, 2, 3}
	y := []float32{4, 0, -1}

	assert.InDelta(t, lpdist.Manhattan(x, y), lpdist.New(1.0)(x, y), 1e-6)
	assert.InDelta(t, lpdist.Euclidean(x, y), lpdist.New(2.0)(x, y), 1e-6)
	assert.InDelta(t, lpdist.General(x, y, 1.5), lpdist.New(1.5)(x, y), 1e-6)
}

func TestProject(t *testing.T) {
	a := []float32{1, 0, -1}
	x := []float32{2, 5, 3}
	assert.InDelta(t, -1.0, lpdist.Project(a, x), 1e-6)
}
