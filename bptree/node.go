// Package bptree is a bulk-loadable, disk-resident B+-tree over
// (float64 key, int32 id) pairs: one tree per QALSH hash-function
// projection. Trees are built once, in sorted order, and never mutated
// afterward, so there is no split/merge/rebalance logic — only bulk
// construction and cursor-based read traversal.
//
// Layout follows the representative-key grouping used by the reference
// b-tree: a leaf node holds its entries in order, and exposes one
// "representative" key per group of Increment consecutive entries (the
// group's minimum key), so that an index node above only needs one key per
// group rather than one key per entry. This keeps index fan-out high
// without needing to store every leaf key redundantly.
package bptree

// BlockID addresses one page within a tree's file. Block 0 is reserved for
// the tree header (root block number and height); node pages start
// at block 1.
type BlockID int64

const nilBlock BlockID = -1

// LeafNode is a disk page holding a contiguous run of (key, id) entries in
// ascending key order, grouped into buckets of Increment entries each.
type LeafNode struct {
	Block     BlockID
	Keys      []float64 // one representative (min) key per group
	Ids       []int32   // all entries, length = NumEntries
	Increment int
	Left      BlockID // nilBlock if none
	Right     BlockID // nilBlock if none
}

// NumKeys returns the number of representative-key groups in this leaf.
func (l *LeafNode) NumKeys() int { return len(l.Keys) }

// NumEntries returns the total number of (key, id) entries in this leaf.
func (l *LeafNode) NumEntries() int { return len(l.Ids) }

// Key returns the representative key of group i.
func (l *LeafNode) Key(i int) float64 { return l.Keys[i] }

// EntryID returns the id stored at absolute entry position pos.
func (l *LeafNode) EntryID(pos int) int32 { return l.Ids[pos] }

// FindPositionByKey returns the largest group index whose representative
// key is <= key (the group to descend into), or -1 if key is smaller than
// every representative key in this leaf. Same predicate as IndexNode's, so
// that a cursor initialized from this position sits at or below key rather
// than above it.
func (l *LeafNode) FindPositionByKey(key float64) int {
	lo, hi := 0, len(l.Keys)-1
	result := -1
	for lo <= hi {
		mid := (lo + hi) / 2
		if l.Keys[mid] <= key {
			result = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return result
}

// IndexNode is a disk page holding routing entries: one ascending minimum
// key per child subtree, plus the child's block number. Level counts
// distance from the leaf level (leaves are level 0).
type IndexNode struct {
	Block    BlockID
	Level    int
	Keys     []float64 // minimum key of each child subtree
	Children []BlockID
}

// Son returns the block number of child i.
func (n *IndexNode) Son(i int) BlockID { return n.Children[i] }

// FindPositionByKey returns the largest child index whose minimum key is
// <= key (the branch to descend into), or -1 if key is smaller than every
// child's minimum key (the "escape left" case: query is smaller than
// every key stored in the tree).
func (n *IndexNode) FindPositionByKey(key float64) int {
	lo, hi := 0, len(n.Keys)-1
	result := -1
	for lo <= hi {
		mid := (lo + hi) / 2
		if n.Keys[mid] <= key {
			result = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return result
}
