package bptree

import (
	"sort"

	"qalsh/internal/fs"
	"qalsh/pagestore"
)

// entrySize is the on-disk size of one (key, id) pair: an 8-byte float64
// key and a 4-byte int32 id.
const entrySize = 12

// indexEntrySize is the on-disk size of one index-node routing entry: an
// 8-byte float64 key and an 8-byte child block number.
const indexEntrySize = 16

// capacities returns the leaf entry capacity, the index-node child
// capacity, and the leaf-to-index representative-key grouping factor for a
// tree built over pages of pageSize bytes.
func capacities(pageSize int) (leafCap, indexCap, increment int) {
	avail := pageSize - headerSize
	leafCap = avail / entrySize
	if leafCap < 1 {
		leafCap = 1
	}
	indexCap = avail / indexEntrySize
	if indexCap < 1 {
		indexCap = 1
	}
	increment = (leafCap + indexCap - 1) / indexCap
	if increment < 1 {
		increment = 1
	}
	return leafCap, indexCap, increment
}

// BulkLoad builds a new B+-tree at path from entries, which need not
// already be sorted: BulkLoad sorts by Key before packing leaves. This
// mirrors the reference implementation's qsort-then-bulkload sequence
// (qalsh.cc's bulkload assumes the hashtable array is pre-sorted by
// key for each tree).
func BulkLoad(path string, pageSize int, entries []Entry) (*Tree, error) {
	return BulkLoadOn(fs.Default, path, pageSize, entries)
}

// BulkLoadOn is BulkLoad through an explicit file system, letting callers
// exercise build-time I/O failures with fs.FaultyFS.
func BulkLoadOn(fsys fs.FileSystem, path string, pageSize int, entries []Entry) (*Tree, error) {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	store, err := pagestore.CreateOn(fsys, path, pageSize)
	if err != nil {
		return nil, err
	}
	// Reserve block 0 for the tree header; node pages start at block 1.
	if _, err := store.Append(make([]byte, pageSize)); err != nil {
		return nil, err
	}

	leafCap, indexCap, increment := capacities(pageSize)

	leafBlocks, leafMinKeys, err := writeLeaves(store, sorted, leafCap, increment)
	if err != nil {
		return nil, err
	}

	root := leafBlocks[0]
	height := 0
	curBlocks, curKeys := leafBlocks, leafMinKeys
	for len(curBlocks) > 1 {
		height++
		curBlocks, curKeys, err = writeIndexLevel(store, curBlocks, curKeys, indexCap, height)
		if err != nil {
			return nil, err
		}
	}
	root = curBlocks[0]

	if err := writeHeader(store, root, height); err != nil {
		return nil, err
	}
	if err := store.Sync(); err != nil {
		return nil, err
	}

	return &Tree{store: store, path: path, pageSize: pageSize, root: root, height: height}, nil
}

// writeLeaves packs sorted entries into leaf pages of at most leafCap
// entries each, grouped into Increment-sized representative-key buckets,
// linked left-to-right. It returns each leaf's block number and minimum
// key (for the index level above).
func writeLeaves(store *pagestore.Store, sorted []Entry, leafCap, increment int) ([]BlockID, []float64, error) {
	var chunks [][]Entry
	for i := 0; i < len(sorted); i += leafCap {
		end := i + leafCap
		if end > len(sorted) {
			end = len(sorted)
		}
		chunks = append(chunks, sorted[i:end])
	}
	if len(chunks) == 0 {
		chunks = [][]Entry{{}}
	}

	blocks := make([]BlockID, len(chunks))
	minKeys := make([]float64, len(chunks))

	for i, chunk := range chunks {
		leaf := &LeafNode{Increment: increment, Left: nilBlock, Right: nilBlock}
		leaf.Ids = make([]int32, len(chunk))
		for j, e := range chunk {
			leaf.Ids[j] = e.Id
		}
		for g := 0; g < len(chunk); g += increment {
			leaf.Keys = append(leaf.Keys, chunk[g].Key)
		}
		if len(chunk) > 0 {
			minKeys[i] = chunk[0].Key
		}

		buf, err := encodeLeaf(store.PageSize, leaf)
		if err != nil {
			return nil, nil, err
		}
		block, err := store.Append(buf)
		if err != nil {
			return nil, nil, err
		}
		blocks[i] = BlockID(block)
	}

	// Link siblings and rewrite (sibling block numbers are only known once
	// every leaf has been appended).
	for i := range chunks {
		var left, right BlockID = nilBlock, nilBlock
		if i > 0 {
			left = blocks[i-1]
		}
		if i < len(chunks)-1 {
			right = blocks[i+1]
		}
		leaf, err := readLeafAt(store, blocks[i])
		if err != nil {
			return nil, nil, err
		}
		leaf.Left, leaf.Right = left, right
		buf, err := encodeLeaf(store.PageSize, leaf)
		if err != nil {
			return nil, nil, err
		}
		if err := store.WritePage(int64(blocks[i]), buf); err != nil {
			return nil, nil, err
		}
	}

	return blocks, minKeys, nil
}

func readLeafAt(store *pagestore.Store, block BlockID) (*LeafNode, error) {
	buf, err := store.ReadPage(int64(block))
	if err != nil {
		return nil, err
	}
	return decodeLeaf(block, buf)
}

// writeIndexLevel groups childBlocks (with their minimum keys) into index
// nodes of at most indexCap children each, one level up from level-1.
func writeIndexLevel(store *pagestore.Store, childBlocks []BlockID, childMinKeys []float64, indexCap, level int) ([]BlockID, []float64, error) {
	var blocks []BlockID
	var minKeys []float64

	for i := 0; i < len(childBlocks); i += indexCap {
		end := i + indexCap
		if end > len(childBlocks) {
			end = len(childBlocks)
		}
		node := &IndexNode{
			Level:    level,
			Keys:     append([]float64{}, childMinKeys[i:end]...),
			Children: append([]BlockID{}, childBlocks[i:end]...),
		}
		buf, err := encodeIndex(store.PageSize, node)
		if err != nil {
			return nil, nil, err
		}
		block, err := store.Append(buf)
		if err != nil {
			return nil, nil, err
		}
		blocks = append(blocks, BlockID(block))
		minKeys = append(minKeys, childMinKeys[i])
	}
	return blocks, minKeys, nil
}
