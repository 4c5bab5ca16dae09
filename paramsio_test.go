package qalsh_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qalsh"
	"qalsh/internal/qerrors"
	"qalsh/testutil"
)

// countOpenFDs returns the number of open file descriptors this process
// holds, via /proc/self/fd. It returns ok=false on platforms without /proc
// (the leak check is skipped there rather than failing).
func countOpenFDs(t *testing.T) (n int, ok bool) {
	t.Helper()
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		return 0, false
	}
	return len(entries), true
}

// TestOpenTruncatedParamsReturnsCorruptedIndex covers the boundary scenario
// where a build was interrupted (or the file was damaged) before the
// hash-function matrix was written: Open must fail with CorruptedIndex
// rather than a generic I/O or parse error, and must not leak the file
// handle it opened to read the truncated file.
func TestOpenTruncatedParamsReturnsCorruptedIndex(t *testing.T) {
	rng := testutil.NewRNG(7)
	vectors := rng.UniformVectors(40, 4)
	dir := filepath.Join(t.TempDir(), "index")

	idx, err := qalsh.Build(dir, vectors, 2.0, 0.0, 2.0)
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	paramsPath := filepath.Join(dir, "para")
	orig, err := os.ReadFile(paramsPath)
	require.NoError(t, err)

	// Truncate before the a_array section: keep only the scalar-parameter
	// lines, drop every hash-function row.
	lines := splitLines(orig)
	require.Greater(t, len(lines), 14, "expected at least the 14 scalar parameter lines plus hash rows")
	truncated := joinLines(lines[:14])
	require.NoError(t, os.WriteFile(paramsPath, truncated, 0o644))

	before, haveFDCount := countOpenFDs(t)

	_, err = qalsh.Open(dir)
	require.Error(t, err)

	var corrupted *qerrors.CorruptedIndex
	assert.ErrorAs(t, err, &corrupted)

	if haveFDCount {
		after, _ := countOpenFDs(t)
		assert.Equal(t, before, after, "Open must not leak the parameter file handle on a corrupted read")
	}
}

func splitLines(b []byte) [][]byte {
	var out [][]byte
	start := 0
	for i, c := range b {
		if c == '\n' {
			out = append(out, b[start:i])
			start = i + 1
		}
	}
	if start < len(b) {
		out = append(out, b[start:])
	}
	return out
}

func joinLines(lines [][]byte) []byte {
	var out []byte
	for _, l := range lines {
		out = append(out, l...)
		out = append(out, '\n')
	}
	return out
}
