package qalsh_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"qalsh"
)

func TestDeriveParamsEuclidean(t *testing.T) {
	p := qalsh.DeriveParams(10000, 128, 4096, 2.0, 0.0, 2.0)

	assert.Equal(t, 10000, p.N)
	assert.Equal(t, 128, p.Dim)
	assert.Greater(t, p.M, 0)
	assert.Greater(t, p.L, 0)
	assert.LessOrEqual(t, p.L, p.M)
	assert.InDelta(t, 1.0/2.718281828, p.Delta, 1e-6)
	assert.Greater(t, p.P1, p.P2)
}

func TestDeriveParamsManhattan(t *testing.T) {
	p := qalsh.DeriveParams(5000, 32, 4096, 1.0, 0.0, 2.0)
	assert.Greater(t, p.M, 0)
	assert.Greater(t, p.W, 0.0)
}

func TestDeriveParamsTabulatedPUsesTableW(t *testing.T) {
	p := qalsh.DeriveParams(5000, 32, 4096, 1.2, 0.0, 2.0)
	assert.InDelta(t, 3.151, p.W, 1e-3)
}

func TestDeriveParamsHigherRatioReducesM(t *testing.T) {
	low := qalsh.DeriveParams(10000, 64, 4096, 2.0, 0.0, 1.5)
	high := qalsh.DeriveParams(10000, 64, 4096, 2.0, 0.0, 4.0)
	assert.Less(t, high.M, low.M)
}
