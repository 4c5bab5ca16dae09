package qalsh

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"qalsh/bptree"
	"qalsh/internal/qerrors"
	"qalsh/lpdist"
	"qalsh/topk"
)

// maxReal stands in for "no valid distance yet" (the reference
// implementation's MAXREAL), used for projected distances from an
// exhausted cursor and for the running k-th nearest distance before k
// candidates have been found.
const maxReal = 1.0e30

// cursor is one expanding edge of a projection's dual-cursor search: either
// the "left" (decreasing key) or "right" (increasing key) side. groupIdx
// indexes the leaf's representative-key buckets; entryPos/size describe
// the absolute entry window the current bucket covers.
type cursor struct {
	leaf     *bptree.LeafNode
	groupIdx int
	entryPos int
	size     int
}

func (c *cursor) valid() bool { return c.leaf != nil }

// Result is the outcome of a knn query: the ordered neighbors found and
// the external-memory cost incurred finding them.
type Result struct {
	Neighbors []topk.Neighbor
	PageIO    int
	DistIO    int
}

// KNN finds the approximate k nearest neighbors of query under the
// index's L_p norm, expanding each of the m projections' dual cursors in
// lockstep until either the candidate budget (100+k-1 distance
// evaluations) is exhausted or the provable early-termination condition
// fires: the current k-th candidate distance is below ratio*radius and at
// least k candidates have been evaluated.
func (idx *Index) KNN(query []float32, k int) (result Result, err error) {
	start := time.Now()
	defer func() {
		found := 0
		if err == nil {
			found = len(result.Neighbors)
		}
		idx.logger.LogKNN(context.Background(), k, found, result.PageIO, result.DistIO, err)
		idx.metrics.RecordKNN(k, result.PageIO, result.DistIO, time.Since(start), err)
	}()

	if k <= 0 {
		return Result{}, ErrInvalidK
	}
	if len(query) != idx.params.Dim {
		return Result{}, translateError(&qerrors.DimensionMismatch{Expected: idx.params.Dim, Actual: len(query)})
	}

	m := idx.params.M
	qvals := make([]float64, m)
	lefts := make([]cursor, m)
	rights := make([]cursor, m)

	pageIO := 0
	for i := 0; i < m; i++ {
		qvals[i] = lpdist.Project(f64(idx.hashMat[i]), query)
		l, r, io, ierr := initCursors(idx.trees[i], qvals[i])
		if ierr != nil {
			return Result{}, translateError(ierr)
		}
		lefts[i], rights[i] = l, r
		pageIO += io
	}

	candidates := candidateConstant + k - 1
	freq := make([]int32, idx.params.N)
	checked := roaring.New()
	flags := make([]bool, m)

	list := topk.New(k)
	knnDist := maxReal
	distIO := 0

	radius := findRadius(qvals, lefts, rights, idx.params.Ratio, idx.params.W)
	bucket := idx.params.W * radius / 2.0

	for {
		numFlag := 0
		for i := range flags {
			flags[i] = true
		}

		for numFlag < m {
			for i := 0; i < m; i++ {
				if !flags[i] {
					continue
				}

				ldist, rdist := maxReal, maxReal
				if lefts[i].valid() {
					ldist = calcDist(qvals[i], &lefts[i])
				}
				if rights[i].valid() {
					rdist = calcDist(qvals[i], &rights[i])
				}

				switch {
				case ldist < bucket && ldist <= rdist:
					start, end := windowLeft(&lefts[i])
					for j := end; j > start; j-- {
						id := lefts[i].leaf.EntryID(j)
						if checked.Contains(uint32(id)) {
							continue
						}
						freq[id]++
						if int(freq[id]) > idx.params.L {
							checked.Add(uint32(id))
							vec, rerr := idx.data.Read(int(id))
							if rerr != nil {
								return Result{}, translateError(rerr)
							}
							dist := idx.dist(vec, query)
							knnDist = list.Insert(dist, id)
							distIO++
							if distIO >= candidates {
								break
							}
						}
					}
					io, uerr := updateLeftBuffer(idx.trees[i], &rights[i], &lefts[i])
					if uerr != nil {
						return Result{}, translateError(uerr)
					}
					pageIO += io
				case rdist < bucket && ldist > rdist:
					start, end := windowRight(&rights[i])
					for j := start; j < end; j++ {
						id := rights[i].leaf.EntryID(j)
						if checked.Contains(uint32(id)) {
							continue
						}
						freq[id]++
						if int(freq[id]) > idx.params.L {
							checked.Add(uint32(id))
							vec, rerr := idx.data.Read(int(id))
							if rerr != nil {
								return Result{}, translateError(rerr)
							}
							dist := idx.dist(vec, query)
							knnDist = list.Insert(dist, id)
							distIO++
							if distIO >= candidates {
								break
							}
						}
					}
					io, uerr := updateRightBuffer(idx.trees[i], &lefts[i], &rights[i])
					if uerr != nil {
						return Result{}, translateError(uerr)
					}
					pageIO += io
				default:
					flags[i] = false
					numFlag++
				}

				if numFlag >= m || distIO >= candidates {
					break
				}
			}
			if numFlag >= m || distIO >= candidates {
				break
			}
		}

		if knnDist < idx.params.Ratio*radius && distIO >= k {
			break
		}
		if distIO >= candidates {
			break
		}

		radius = updateRadius(radius, qvals, lefts, rights, idx.params.Ratio, idx.params.W)
		bucket = radius * idx.params.W / 2.0
	}

	return Result{Neighbors: list.Sorted(), PageIO: pageIO, DistIO: distIO}, nil
}

// windowLeft returns the (exclusive, inclusive] absolute entry bounds the
// left cursor's current bucket covers.
func windowLeft(c *cursor) (start, end int) {
	end = c.entryPos
	start = end - c.size
	return
}

// windowRight returns the [inclusive, exclusive) absolute entry bounds the
// right cursor's current bucket covers.
func windowRight(c *cursor) (start, end int) {
	start = c.entryPos
	end = start + c.size
	return
}

func calcDist(qval float64, c *cursor) float64 {
	return math.Abs(c.leaf.Key(c.groupIdx) - qval)
}

// initCursors descends tree to locate the leaf bucket closest to qval and
// initializes the left/right cursor pair around it, following the
// reference implementation's init_search_params.
func initCursors(tree *bptree.Tree, qval float64) (left, right cursor, pageIO int, err error) {
	left, right = cursor{}, cursor{}

	if tree.Height() == 0 {
		leaf, rerr := tree.ReadLeaf(tree.RootBlock())
		if rerr != nil {
			return left, right, pageIO, rerr
		}
		pageIO++
		initAroundLeaf(tree, leaf, qval, &left, &right, &pageIO)
		return left, right, pageIO, nil
	}

	block := tree.RootBlock()
	node, rerr := tree.ReadIndex(block)
	if rerr != nil {
		return left, right, pageIO, rerr
	}
	pageIO++

	// escaped tracks whether qval fell left of every key at some shallower
	// level (qval smaller than the whole tree). Once that happens, every
	// deeper level legitimately finds no branch either, since it is routed
	// down the leftmost spine. A deeper level finding no branch before that
	// has ever happened means a child's key range disagrees with what its
	// parent claimed about it: the index is corrupted.
	follow := node.FindPositionByKey(qval)
	escaped := follow < 0
	if escaped {
		follow = 0
	}

	for node.Level > 1 {
		child := node.Son(follow)
		node, rerr = tree.ReadIndex(child)
		if rerr != nil {
			return left, right, pageIO, rerr
		}
		pageIO++

		follow = node.FindPositionByKey(qval)
		if follow < 0 {
			if !escaped {
				return left, right, pageIO, qerrors.NewCorruptedIndex(tree.Path(), "descent found no branch at a non-root node", nil)
			}
			follow = 0
		}
	}

	lescape := escaped

	if lescape {
		leaf, rerr := tree.ReadLeaf(node.Son(0))
		if rerr != nil {
			return left, right, pageIO, rerr
		}
		pageIO++
		right.leaf = leaf
		right.groupIdx = 0
		right.entryPos = 0
		right.size = minInt(leaf.Increment, leaf.NumEntries())
		return left, right, pageIO, nil
	}

	leaf, rerr := tree.ReadLeaf(node.Son(follow))
	if rerr != nil {
		return left, right, pageIO, rerr
	}
	pageIO++
	initAroundLeaf(tree, leaf, qval, &left, &right, &pageIO)
	return left, right, pageIO, nil
}

// initAroundLeaf places the left cursor's bucket at (or just below) qval
// within leaf, and the right cursor's bucket just after it, possibly in
// leaf's right sibling (one extra page read) or nowhere (end of tree).
func initAroundLeaf(tree *bptree.Tree, leaf *bptree.LeafNode, qval float64, left, right *cursor, pageIO *int) {
	pos := leaf.FindPositionByKey(qval)
	if pos < 0 {
		// qval is smaller than every key in this leaf: there is nothing to
		// its left, only the leaf's first group to its right.
		right.leaf = leaf
		right.groupIdx = 0
		right.entryPos = 0
		right.size = minInt(leaf.Increment, leaf.NumEntries())
		return
	}
	increment := leaf.Increment
	numEntries := leaf.NumEntries()

	left.leaf = leaf
	left.groupIdx = pos
	if pos == leaf.NumKeys()-1 {
		left.entryPos = numEntries - 1
		left.size = numEntries - pos*increment
	} else {
		left.entryPos = pos*increment + increment - 1
		left.size = increment
	}

	if pos < leaf.NumKeys()-1 {
		right.leaf = leaf
		right.groupIdx = pos + 1
		right.entryPos = (pos + 1) * increment
		if pos+1 == leaf.NumKeys()-1 {
			right.size = numEntries - (pos+1)*increment
		} else {
			right.size = increment
		}
		return
	}

	sib, err := tree.RightSibling(leaf)
	if err != nil || sib == nil {
		return
	}
	*pageIO++
	right.leaf = sib
	right.groupIdx = 0
	right.entryPos = 0
	right.size = minInt(sib.Increment, sib.NumEntries())
}

func updateLeftBuffer(tree *bptree.Tree, _right, left *cursor) (pageIO int, err error) {
	if left.groupIdx > 0 {
		left.groupIdx--
		pos := left.groupIdx
		increment := left.leaf.Increment
		left.entryPos = pos*increment + increment - 1
		left.size = increment
		return 0, nil
	}

	sib, err := tree.LeftSibling(left.leaf)
	if err != nil {
		return 0, err
	}
	if sib == nil {
		*left = cursor{}
		return 0, nil
	}
	left.leaf = sib
	left.groupIdx = sib.NumKeys() - 1
	pos := left.groupIdx
	numEntries := sib.NumEntries()
	left.entryPos = numEntries - 1
	left.size = numEntries - pos*sib.Increment
	return 1, nil
}

func updateRightBuffer(tree *bptree.Tree, _left, right *cursor) (pageIO int, err error) {
	if right.groupIdx < right.leaf.NumKeys()-1 {
		right.groupIdx++
		pos := right.groupIdx
		increment := right.leaf.Increment
		right.entryPos = pos * increment
		if pos == right.leaf.NumKeys()-1 {
			right.size = right.leaf.NumEntries() - pos*increment
		} else {
			right.size = increment
		}
		return 0, nil
	}

	sib, err := tree.RightSibling(right.leaf)
	if err != nil {
		return 0, err
	}
	if sib == nil {
		*right = cursor{}
		return 0, nil
	}
	right.leaf = sib
	right.groupIdx = 0
	right.entryPos = 0
	right.size = minInt(sib.Increment, sib.NumEntries())
	return 1, nil
}

func findRadius(qvals []float64, lefts, rights []cursor, ratio, w float64) float64 {
	radius := updateRadius(1.0/ratio, qvals, lefts, rights, ratio, w)
	if radius < 1.0 {
		radius = 1.0
	}
	return radius
}

func updateRadius(oldRadius float64, qvals []float64, lefts, rights []cursor, ratio, w float64) float64 {
	var dists []float64
	for i := range qvals {
		if lefts[i].valid() {
			dists = append(dists, calcDist(qvals[i], &lefts[i]))
		}
		if rights[i].valid() {
			dists = append(dists, calcDist(qvals[i], &rights[i]))
		}
	}
	if len(dists) == 0 {
		return ratio * oldRadius
	}
	sort.Float64s(dists)

	var median float64
	n := len(dists)
	if n%2 == 0 {
		median = (dists[n/2-1] + dists[n/2]) / 2.0
	} else {
		median = dists[n/2]
	}

	kappa := math.Ceil(math.Log(2.0*median/w) / math.Log(ratio))
	return math.Pow(ratio, kappa)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
