// Package qalsh implements an external-memory index for approximate
// nearest-neighbor (c-k-ANN) search under L_p norms using Query-Aware LSH:
// m disk-resident B+-trees over 1-D random projections, traversed by a
// dual-cursor state machine that expands outward from a query's projected
// value, counts collisions across projections, and promotes frequent
// candidates to exact distance evaluation.
package qalsh

import (
	"context"
	"os"
	"strconv"
	"time"

	"qalsh/bptree"
	"qalsh/internal/qerrors"
	"qalsh/lpdist"
	"qalsh/pagestore"
	"qalsh/resource"
	"qalsh/rng"
	"qalsh/stabledist"
)

const dataFileName = "data.bin"

func treeFileName(dir string, i int) string {
	return dir + string(os.PathSeparator) + "tree" + strconv.Itoa(i) + ".qalsh"
}

// Index is an open, disk-resident QALSH index: m B+-trees over random
// projections plus a page-addressed vector store, ready to answer knn
// queries.
type Index struct {
	dir     string
	params  Params
	hashMat [][]float64 // m rows of Dim entries each
	trees   []*bptree.Tree
	data    *pagestore.DataStore
	dist    lpdist.Func

	logger      *Logger
	metrics     MetricsCollector
	resourceCtl *resource.Controller
}

// Build constructs a new index at dir from vectors (each of length dim)
// under the L_p norm given by p, targeting approximation ratio ratio. zeta
// is the skewness parameter of the general p-stable hash-function family
// (pass 0 for the symmetric case); the closed-form samplers used for
// p=0.5, 1.0 and 2.0 ignore it. Build writes the parameter file, the m hash-function
// B+-trees, and the raw vector data store, then returns the index opened
// for queries.
//
// Build fails if dir already holds an index (it never overwrites one).
func Build(dir string, vectors [][]float32, p, zeta, ratio float64, opts ...Option) (idx *Index, err error) {
	start := time.Now()
	o := applyOptions(opts)

	n := len(vectors)
	dim := 0
	if n > 0 {
		dim = len(vectors[0])
	}
	for _, v := range vectors {
		if len(v) != dim {
			return nil, translateError(&qerrors.DimensionMismatch{Expected: dim, Actual: len(v)})
		}
	}

	params := DeriveParams(n, dim, o.pageSize, p, zeta, ratio)

	defer func() {
		m := 0
		if idx != nil {
			m = len(idx.trees)
		}
		o.logger.LogBuild(context.Background(), n, dim, m, err)
		o.metricsCollector.RecordBuild(n, m, time.Since(start), err)
	}()

	if err := o.fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, qerrors.NewIoFailure("mkdir", dir, err)
	}

	r := rng.New(o.seed)
	hashMat := genHashMatrix(r, params.M, dim, p, zeta)

	if err := writeParams(o.fsys, dir, params, hashMat); err != nil {
		return nil, translateError(err)
	}

	trees := make([]*bptree.Tree, params.M)
	for i := 0; i < params.M; i++ {
		row := f64(hashMat[i])
		entries := make([]bptree.Entry, n)
		for j, v := range vectors {
			entries[j] = bptree.Entry{Key: lpdist.Project(row, v), Id: int32(j)}
		}
		t, err := bptree.BulkLoadOn(o.fsys, treeFileName(dir, i), params.B, entries)
		if err != nil {
			return nil, translateError(err)
		}
		trees[i] = t
	}

	ds, err := pagestore.CreateDataStoreOn(o.fsys, dir+string(os.PathSeparator)+dataFileName, params.B, dim, vectors)
	if err != nil {
		return nil, translateError(err)
	}

	return &Index{
		dir:         dir,
		params:      params,
		hashMat:     hashMat,
		trees:       trees,
		data:        ds,
		dist:        lpdist.New(p),
		logger:      o.logger,
		metrics:     o.metricsCollector,
		resourceCtl: resource.NewController(o.resourceConfig),
	}, nil
}

// Open restores a previously built index from dir.
func Open(dir string, opts ...Option) (idx *Index, err error) {
	o := applyOptions(opts)

	defer func() {
		m := 0
		if idx != nil {
			m = len(idx.trees)
		}
		o.logger.LogLoad(context.Background(), dir, m, err)
	}()

	params, hashMat, err := readParams(dir)
	if err != nil {
		return nil, translateError(err)
	}

	trees := make([]*bptree.Tree, params.M)
	for i := 0; i < params.M; i++ {
		t, err := bptree.Open(treeFileName(dir, i), params.B)
		if err != nil {
			return nil, translateError(err)
		}
		trees[i] = t
	}

	ds, err := pagestore.OpenDataStore(dir+string(os.PathSeparator)+dataFileName, params.B, params.Dim, params.N)
	if err != nil {
		return nil, translateError(err)
	}

	return &Index{
		dir:         dir,
		params:      params,
		hashMat:     hashMat,
		trees:       trees,
		data:        ds,
		dist:        lpdist.New(params.P),
		logger:      o.logger,
		metrics:     o.metricsCollector,
		resourceCtl: resource.NewController(o.resourceConfig),
	}, nil
}

// Close releases all open file handles.
func (idx *Index) Close() error {
	var first error
	for _, t := range idx.trees {
		if err := t.Close(); err != nil && first == nil {
			first = err
		}
	}
	if err := idx.data.Close(); err != nil && first == nil {
		first = err
	}
	return first
}

// Params returns the parameter set the index was built or opened with.
func (idx *Index) Params() Params { return idx.params }

func genHashMatrix(r *rng.RNG, m, dim int, p, zeta float64) [][]float64 {
	dist := stabledist.New(p, zeta)
	mat := make([][]float64, m)
	for i := range mat {
		row := make([]float64, dim)
		for j := range row {
			row[j] = dist.Sample(r)
		}
		mat[i] = row
	}
	return mat
}

func f64(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
