package pagestore

import (
	"encoding/binary"
	"math"

	"qalsh/internal/fs"
	"qalsh/internal/qerrors"
)

// DataStore packs n d-dimensional float32 vectors into fixed-size pages,
// floor(PageSize / (d*4)) records per page, matching the reference
// implementation's read_data_new_format layout. It is written once at
// build time and read randomly, one record at a time, during knn search.
type DataStore struct {
	store          *Store
	dim            int
	n              int
	recordsPerPage int
}

func recordsPerPage(pageSize, dim int) int {
	bytesPerRecord := dim * 4
	rpp := pageSize / bytesPerRecord
	if rpp < 1 {
		rpp = 1
	}
	return rpp
}

// CreateDataStore writes vectors (len(vectors) == n, each of length dim) to
// a new data store at path.
func CreateDataStore(path string, pageSize, dim int, vectors [][]float32) (*DataStore, error) {
	return CreateDataStoreOn(fs.Default, path, pageSize, dim, vectors)
}

// CreateDataStoreOn is CreateDataStore through an explicit file system, for
// exercising build-time I/O failures with fs.FaultyFS.
func CreateDataStoreOn(fsys fs.FileSystem, path string, pageSize, dim int, vectors [][]float32) (*DataStore, error) {
	s, err := CreateOn(fsys, path, pageSize)
	if err != nil {
		return nil, err
	}
	rpp := recordsPerPage(pageSize, dim)
	ds := &DataStore{store: s, dim: dim, n: len(vectors), recordsPerPage: rpp}

	page := make([]byte, pageSize)
	var block int64
	count := 0
	for _, v := range vectors {
		if len(v) != dim {
			return nil, &qerrors.DimensionMismatch{Expected: dim, Actual: len(v)}
		}
		off := count * dim * 4
		for i, f := range v {
			binary.LittleEndian.PutUint32(page[off+i*4:], math.Float32bits(f))
		}
		count++
		if count == rpp {
			if err := s.WritePage(block, page); err != nil {
				return nil, err
			}
			block++
			count = 0
			page = make([]byte, pageSize)
		}
	}
	if count > 0 {
		if err := s.WritePage(block, page); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// OpenDataStore opens an existing data store previously written by
// CreateDataStore. n and dim must match the values used to build it (they
// are recorded separately, in the index's parameter file).
func OpenDataStore(path string, pageSize, dim, n int) (*DataStore, error) {
	s, err := Open(path, pageSize)
	if err != nil {
		return nil, err
	}
	return &DataStore{store: s, dim: dim, n: n, recordsPerPage: recordsPerPage(pageSize, dim)}, nil
}

// Read returns the vector stored for record id, performing exactly one
// page read.
func (d *DataStore) Read(id int) ([]float32, error) {
	if id < 0 || id >= d.n {
		return nil, &qerrors.OutOfRangeId{Id: id, N: d.n}
	}
	block := int64(id / d.recordsPerPage)
	slot := id % d.recordsPerPage
	page, err := d.store.ReadPage(block)
	if err != nil {
		return nil, err
	}
	off := slot * d.dim * 4
	v := make([]float32, d.dim)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(page[off+i*4:]))
	}
	return v, nil
}

// Scan visits every record in id order, reading each page once and handing
// every record it holds to fn before moving to the next page. It returns
// the number of pages read, matching the reference implementation's
// sequential linear-scan I/O accounting.
func (d *DataStore) Scan(fn func(id int, vec []float32) error) (pageIO int, err error) {
	d.store.AdviseSequential()
	var block int64
	for start := 0; start < d.n; start += d.recordsPerPage {
		page, err := d.store.ReadPage(block)
		if err != nil {
			return pageIO, err
		}
		pageIO++
		end := start + d.recordsPerPage
		if end > d.n {
			end = d.n
		}
		for id := start; id < end; id++ {
			off := (id - start) * d.dim * 4
			v := make([]float32, d.dim)
			for i := range v {
				v[i] = math.Float32frombits(binary.LittleEndian.Uint32(page[off+i*4:]))
			}
			if err := fn(id, v); err != nil {
				return pageIO, err
			}
		}
		block++
	}
	return pageIO, nil
}

// Close closes the underlying page store.
func (d *DataStore) Close() error { return d.store.Close() }

// Dim returns the configured vector dimensionality.
func (d *DataStore) Dim() int { return d.dim }

// N returns the configured record count.
func (d *DataStore) N() int { return d.n }
