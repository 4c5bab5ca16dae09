package qerrors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"qalsh/internal/qerrors"
)

func TestIoFailureUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := qerrors.NewIoFailure("write", "/tmp/x", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "write")
	assert.Contains(t, err.Error(), "/tmp/x")
}

func TestCorruptedIndexUnwrap(t *testing.T) {
	cause := errors.New("bad checksum")
	err := qerrors.NewCorruptedIndex("/tmp/tree0.qalsh", "leaf checksum mismatch", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "leaf checksum mismatch")
}

func TestIndexAlreadyExistsMessage(t *testing.T) {
	err := qerrors.NewIndexAlreadyExists("/tmp/idx")
	assert.Contains(t, err.Error(), "/tmp/idx")
}

func TestDimensionMismatchMessage(t *testing.T) {
	err := &qerrors.DimensionMismatch{Expected: 128, Actual: 64}
	assert.Contains(t, err.Error(), "128")
	assert.Contains(t, err.Error(), "64")
}

func TestOutOfRangeIdMessage(t *testing.T) {
	err := &qerrors.OutOfRangeId{Id: 10, N: 5}
	assert.Contains(t, err.Error(), "10")
	assert.Contains(t, err.Error(), "5")
}

func TestAsMatchesConcreteTypes(t *testing.T) {
	var err error = &qerrors.DimensionMismatch{Expected: 1, Actual: 2}

	var dm *qerrors.DimensionMismatch
	assert.True(t, errors.As(err, &dm))
	assert.Equal(t, 1, dm.Expected)
}
