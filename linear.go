package qalsh

import (
	"qalsh/lpdist"
	"qalsh/pagestore"
	"qalsh/topk"
)

// LinearScan finds the exact k nearest neighbors of query under the L_p
// norm by sequentially scanning every record in data, one page at a time.
// It is the brute-force baseline the benchmark driver reports QALSH's
// approximation ratio and I/O cost against.
func LinearScan(data *pagestore.DataStore, query []float32, p float64, k int) (Result, error) {
	dist := lpdist.New(p)
	list := topk.New(k)

	pageIO, err := data.Scan(func(id int, vec []float32) error {
		list.Insert(dist(vec, query), int32(id))
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	return Result{Neighbors: list.Sorted(), PageIO: pageIO, DistIO: data.N()}, nil
}

// BruteForceTopK finds the exact k nearest neighbors of query within
// in-memory vectors under the L_p norm, used to compute ground-truth
// distances before an index exists.
func BruteForceTopK(vectors [][]float32, query []float32, p float64, k int) []topk.Neighbor {
	dist := lpdist.New(p)
	list := topk.New(k)
	for id, v := range vectors {
		list.Insert(dist(v, query), int32(id))
	}
	return list.Sorted()
}
