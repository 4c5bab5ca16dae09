package bptree

import (
	"encoding/binary"
	"hash/crc32"
	"math"

	"qalsh/internal/qerrors"
)

// Node-type tags, written as the first byte of every page, following the
// same length-prefixed binary layout style as a conventional on-disk
// B-tree node codec: fixed-width header fields first, variable-length
// arrays last.
const (
	nodeTypeLeaf  byte = 1
	nodeTypeIndex byte = 2
)

// headerSize is the fixed portion of every encoded node page: type (1) +
// level (4) + left sibling (8) + right sibling (8) + count (4) + checksum
// (4), leaving the remainder of the page for keys/ids/children.
const headerSize = 1 + 4 + 8 + 8 + 4 + 4

func encodeLeaf(pageSize int, l *LeafNode) ([]byte, error) {
	buf := make([]byte, pageSize)
	buf[0] = nodeTypeLeaf
	binary.LittleEndian.PutUint32(buf[1:], uint32(l.Increment))
	binary.LittleEndian.PutUint64(buf[5:], uint64(l.Left))
	binary.LittleEndian.PutUint64(buf[13:], uint64(l.Right))
	binary.LittleEndian.PutUint32(buf[21:], uint32(len(l.Ids)))

	off := headerSize
	off += putInt(buf[off:], len(l.Keys))
	for _, k := range l.Keys {
		binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(k))
		off += 8
	}
	for _, id := range l.Ids {
		binary.LittleEndian.PutUint32(buf[off:], uint32(id))
		off += 4
	}
	if off > pageSize {
		return nil, qerrors.NewCorruptedIndex("", "leaf node overflowed page size", nil)
	}

	checksum := crc32.ChecksumIEEE(buf[headerSize:])
	binary.LittleEndian.PutUint32(buf[25:], checksum)
	return buf, nil
}

func decodeLeaf(block BlockID, buf []byte) (*LeafNode, error) {
	if buf[0] != nodeTypeLeaf {
		return nil, qerrors.NewCorruptedIndex("", "expected leaf node tag", nil)
	}
	increment := int(binary.LittleEndian.Uint32(buf[1:]))
	left := BlockID(binary.LittleEndian.Uint64(buf[5:]))
	right := BlockID(binary.LittleEndian.Uint64(buf[13:]))
	wantSum := binary.LittleEndian.Uint32(buf[25:])

	gotSum := crc32.ChecksumIEEE(buf[headerSize:])
	if gotSum != wantSum {
		return nil, qerrors.NewCorruptedIndex("", "leaf node checksum mismatch", nil)
	}

	numEntries := int(binary.LittleEndian.Uint32(buf[21:]))
	off := headerSize
	numKeys, n := getInt(buf[off:])
	off += n

	keys := make([]float64, numKeys)
	for i := range keys {
		keys[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[off:]))
		off += 8
	}
	ids := make([]int32, numEntries)
	for i := range ids {
		ids[i] = int32(binary.LittleEndian.Uint32(buf[off:]))
		off += 4
	}
	return &LeafNode{Block: block, Keys: keys, Ids: ids, Increment: increment, Left: left, Right: right}, nil
}

func encodeIndex(pageSize int, n *IndexNode) ([]byte, error) {
	buf := make([]byte, pageSize)
	buf[0] = nodeTypeIndex
	binary.LittleEndian.PutUint32(buf[1:], uint32(n.Level))
	binary.LittleEndian.PutUint32(buf[21:], uint32(len(n.Keys)))

	off := headerSize
	for _, k := range n.Keys {
		binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(k))
		off += 8
	}
	for _, c := range n.Children {
		binary.LittleEndian.PutUint64(buf[off:], uint64(c))
		off += 8
	}
	if off > pageSize {
		return nil, qerrors.NewCorruptedIndex("", "index node overflowed page size", nil)
	}

	checksum := crc32.ChecksumIEEE(buf[headerSize:])
	binary.LittleEndian.PutUint32(buf[25:], checksum)
	return buf, nil
}

func decodeIndex(block BlockID, buf []byte) (*IndexNode, error) {
	if buf[0] != nodeTypeIndex {
		return nil, qerrors.NewCorruptedIndex("", "expected index node tag", nil)
	}
	level := int(binary.LittleEndian.Uint32(buf[1:]))
	wantSum := binary.LittleEndian.Uint32(buf[25:])
	gotSum := crc32.ChecksumIEEE(buf[headerSize:])
	if gotSum != wantSum {
		return nil, qerrors.NewCorruptedIndex("", "index node checksum mismatch", nil)
	}
	numKeys := int(binary.LittleEndian.Uint32(buf[21:]))

	off := headerSize
	keys := make([]float64, numKeys)
	for i := range keys {
		keys[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[off:]))
		off += 8
	}
	children := make([]BlockID, numKeys)
	for i := range children {
		children[i] = BlockID(binary.LittleEndian.Uint64(buf[off:]))
		off += 8
	}
	return &IndexNode{Block: block, Level: level, Keys: keys, Children: children}, nil
}

func putInt(buf []byte, v int) int {
	binary.LittleEndian.PutUint32(buf, uint32(v))
	return 4
}

func getInt(buf []byte) (int, int) {
	return int(binary.LittleEndian.Uint32(buf)), 4
}
