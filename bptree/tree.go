package bptree

import (
	"encoding/binary"

	"qalsh/pagestore"
)

// treeHeaderBlock is the fixed block holding the tree's root pointer and
// height, à la a superblock.
const treeHeaderBlock = 0

// Tree is an open, disk-resident B+-tree.
type Tree struct {
	store    *pagestore.Store
	path     string
	pageSize int
	root     BlockID
	height   int // 0 if the tree is a single leaf, >=1 otherwise
}

// Entry is one (key, id) pair submitted for bulk loading.
type Entry struct {
	Key float64
	Id  int32
}

func writeHeader(s *pagestore.Store, root BlockID, height int) error {
	buf := make([]byte, s.PageSize)
	binary.LittleEndian.PutUint64(buf[0:], uint64(root))
	binary.LittleEndian.PutUint32(buf[8:], uint32(height))
	return s.WritePage(treeHeaderBlock, buf)
}

func readHeader(s *pagestore.Store) (BlockID, int, error) {
	buf, err := s.ReadPage(treeHeaderBlock)
	if err != nil {
		return 0, 0, err
	}
	root := BlockID(binary.LittleEndian.Uint64(buf[0:]))
	height := int(binary.LittleEndian.Uint32(buf[8:]))
	return root, height, nil
}

// Open restores a tree previously built by BulkLoad.
func Open(path string, pageSize int) (*Tree, error) {
	s, err := pagestore.Open(path, pageSize)
	if err != nil {
		return nil, err
	}
	root, height, err := readHeader(s)
	if err != nil {
		return nil, err
	}
	return &Tree{store: s, path: path, pageSize: pageSize, root: root, height: height}, nil
}

// Close closes the underlying file.
func (t *Tree) Close() error { return t.store.Close() }

// RootBlock returns the tree's root block.
func (t *Tree) RootBlock() BlockID { return t.root }

// Path returns the tree's backing file path, for error reporting.
func (t *Tree) Path() string { return t.path }

// Height returns the number of index-node levels above the leaf level (0
// means the root is itself a leaf).
func (t *Tree) Height() int { return t.height }

// ReadLeaf loads the leaf node at block, counting as one page read by the
// caller's own accounting (this method does no I/O accounting itself).
func (t *Tree) ReadLeaf(block BlockID) (*LeafNode, error) {
	buf, err := t.store.ReadPage(int64(block))
	if err != nil {
		return nil, err
	}
	return decodeLeaf(block, buf)
}

// ReadIndex loads the index node at block.
func (t *Tree) ReadIndex(block BlockID) (*IndexNode, error) {
	buf, err := t.store.ReadPage(int64(block))
	if err != nil {
		return nil, err
	}
	return decodeIndex(block, buf)
}

// LeftSibling returns l's left sibling leaf, or nil if l is the leftmost
// leaf.
func (t *Tree) LeftSibling(l *LeafNode) (*LeafNode, error) {
	if l.Left == nilBlock {
		return nil, nil
	}
	return t.ReadLeaf(l.Left)
}

// RightSibling returns l's right sibling leaf, or nil if l is the
// rightmost leaf.
func (t *Tree) RightSibling(l *LeafNode) (*LeafNode, error) {
	if l.Right == nilBlock {
		return nil, nil
	}
	return t.ReadLeaf(l.Right)
}
