package pagestore_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qalsh/pagestore"
)

func TestWriteReadPageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.bin")
	s, err := pagestore.Create(path, 64)
	require.NoError(t, err)
	defer s.Close()

	payload := []byte("hello page store")
	require.NoError(t, s.WritePage(0, payload))

	buf, err := s.ReadPage(0)
	require.NoError(t, err)
	assert.Equal(t, payload, buf[:len(payload)])
	assert.Equal(t, int64(1), s.NumPages())
}

func TestWritePageZeroPads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.bin")
	s, err := pagestore.Create(path, 16)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.WritePage(0, []byte("ab")))
	buf, err := s.ReadPage(0)
	require.NoError(t, err)
	assert.Len(t, buf, 16)
	for _, b := range buf[2:] {
		assert.Equal(t, byte(0), b)
	}
}

func TestAppendAssignsSequentialBlocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.bin")
	s, err := pagestore.Create(path, 8)
	require.NoError(t, err)
	defer s.Close()

	b0, err := s.Append([]byte("aaaaaaaa"))
	require.NoError(t, err)
	b1, err := s.Append([]byte("bbbbbbbb"))
	require.NoError(t, err)

	assert.Equal(t, int64(0), b0)
	assert.Equal(t, int64(1), b1)
	assert.Equal(t, int64(2), s.NumPages())
}

func TestOpenRestoresPageCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.bin")
	s, err := pagestore.Create(path, 8)
	require.NoError(t, err)
	_, err = s.Append([]byte("aaaaaaaa"))
	require.NoError(t, err)
	_, err = s.Append([]byte("bbbbbbbb"))
	require.NoError(t, err)
	require.NoError(t, s.Sync())
	require.NoError(t, s.Close())

	reopened, err := pagestore.Open(path, 8)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, int64(2), reopened.NumPages())
}

func TestDataStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	vectors := [][]float32{
		{1, 2, 3},
		{4, 5, 6},
		{7, 8, 9},
	}
	ds, err := pagestore.CreateDataStore(path, 24, 3, vectors)
	require.NoError(t, err)
	defer ds.Close()

	for i, want := range vectors {
		got, err := ds.Read(i)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestDataStoreReadOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	ds, err := pagestore.CreateDataStore(path, 24, 3, [][]float32{{1, 2, 3}})
	require.NoError(t, err)
	defer ds.Close()

	_, err = ds.Read(5)
	assert.Error(t, err)
}

func TestDataStoreScanVisitsEveryRecordOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	vectors := [][]float32{{1}, {2}, {3}, {4}, {5}}
	ds, err := pagestore.CreateDataStore(path, 8, 1, vectors)
	require.NoError(t, err)
	defer ds.Close()

	seen := map[int]float32{}
	pageIO, err := ds.Scan(func(id int, vec []float32) error {
		seen[id] = vec[0]
		return nil
	})
	require.NoError(t, err)
	assert.Greater(t, pageIO, 0)
	assert.Len(t, seen, 5)
	for i, v := range vectors {
		assert.Equal(t, v[0], seen[i])
	}
}

func TestOpenDataStoreReadsBackAfterCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	vectors := [][]float32{{1, 1}, {2, 2}}
	ds, err := pagestore.CreateDataStore(path, 32, 2, vectors)
	require.NoError(t, err)
	require.NoError(t, ds.Close())

	reopened, err := pagestore.OpenDataStore(path, 32, 2, 2)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Read(1)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 2}, got)
}
