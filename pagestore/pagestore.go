// Package pagestore implements fixed-size, block-addressed file I/O: the
// substrate both the B+-tree package and the raw-vector data store are
// built on. Every read and write moves exactly one page (B bytes), matching
// the external-memory cost model the index reports back to callers (page
// reads and data reads are counted separately and returned from knn calls).
package pagestore

import (
	"errors"
	"os"

	"qalsh/internal/fs"
	"qalsh/internal/mmap"
	"qalsh/internal/qerrors"
)

// Store is a page-addressed file: block i occupies bytes [i*PageSize,
// (i+1)*PageSize) in the underlying file. A Store opened with Open is
// backed by a read-only memory mapping rather than repeated ReadAt
// syscalls, since every Open caller (the B+-tree reader, the data store's
// query-time Read) builds once and then issues many small random reads
// against the same file for the life of the process.
type Store struct {
	f        fs.File
	mapping  *mmap.Mapping
	path     string
	PageSize int
	numPages int64
}

// Create creates a new page store at path on the default file system,
// truncating any existing file.
func Create(path string, pageSize int) (*Store, error) {
	return CreateOn(fs.Default, path, pageSize)
}

// CreateOn creates a new page store through fsys, the indirection the
// build path needs so tests can exercise partial-write and fsync-failure
// handling with fs.FaultyFS instead of against the real disk.
func CreateOn(fsys fs.FileSystem, path string, pageSize int) (*Store, error) {
	f, err := fsys.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, qerrors.NewIoFailure("create", path, err)
	}
	return &Store{f: f, path: path, PageSize: pageSize}, nil
}

// Open opens an existing page store read-only, mapping the whole file into
// memory so that page reads are slice accesses rather than syscalls. The
// mapping is advised for random access: B+-tree traversal and data-store
// lookups both jump between unrelated pages rather than scanning forward.
func Open(path string, pageSize int) (*Store, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, qerrors.NewIoFailure("open", path, err)
	}
	_ = m.Advise(mmap.AccessRandom)
	return &Store{
		mapping:  m,
		path:     path,
		PageSize: pageSize,
		numPages: int64(m.Size()) / int64(pageSize),
	}, nil
}

// NumPages returns the number of whole pages currently in the store.
func (s *Store) NumPages() int64 { return s.numPages }

// AdviseSequential re-hints a read-only store for forward, full-file scans,
// overriding the random-access hint set at Open. It is a no-op on a store
// created with Create, since there is nothing mapped to advise.
func (s *Store) AdviseSequential() {
	if s.mapping == nil {
		return
	}
	_ = s.mapping.Advise(mmap.AccessSequential)
}

// ReadPage reads block into a PageSize-byte buffer.
func (s *Store) ReadPage(block int64) ([]byte, error) {
	if s.mapping != nil {
		region, err := s.mapping.Region(int(block*int64(s.PageSize)), s.PageSize)
		if err != nil {
			return nil, qerrors.NewIoFailure("read", s.path, err)
		}
		buf := make([]byte, s.PageSize)
		copy(buf, region.Bytes())
		return buf, nil
	}
	buf := make([]byte, s.PageSize)
	n, err := s.f.ReadAt(buf, block*int64(s.PageSize))
	if err != nil && n == 0 {
		return nil, qerrors.NewIoFailure("read", s.path, err)
	}
	return buf, nil
}

// WritePage writes buf (which must be <= PageSize bytes) to block, zero
// padding the remainder of the page. Only stores created with Create
// support writes; a Store backed by a read-only mapping returns an error.
func (s *Store) WritePage(block int64, buf []byte) error {
	if s.mapping != nil {
		return qerrors.NewIoFailure("write", s.path, errReadOnly)
	}
	page := make([]byte, s.PageSize)
	copy(page, buf)
	if _, err := s.f.WriteAt(page, block*int64(s.PageSize)); err != nil {
		return qerrors.NewIoFailure("write", s.path, err)
	}
	if block+1 > s.numPages {
		s.numPages = block + 1
	}
	return nil
}

// Append writes buf as a new trailing page and returns its block number.
func (s *Store) Append(buf []byte) (int64, error) {
	block := s.numPages
	if err := s.WritePage(block, buf); err != nil {
		return 0, err
	}
	return block, nil
}

// Sync flushes buffered writes to stable storage.
func (s *Store) Sync() error {
	if s.mapping != nil {
		return nil
	}
	if err := s.f.Sync(); err != nil {
		return qerrors.NewIoFailure("sync", s.path, err)
	}
	return nil
}

// Close unmaps or closes the underlying file, whichever backs this store.
func (s *Store) Close() error {
	if s.mapping != nil {
		if err := s.mapping.Close(); err != nil {
			return qerrors.NewIoFailure("close", s.path, err)
		}
		return nil
	}
	if err := s.f.Close(); err != nil {
		return qerrors.NewIoFailure("close", s.path, err)
	}
	return nil
}

var errReadOnly = errors.New("pagestore: store opened read-only")
