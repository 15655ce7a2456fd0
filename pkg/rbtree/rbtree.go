// Package rbtree provides the interval index of a simulated memory allocator:
// a red-black tree keyed by interval start address that tells allocated
// intervals from free ones.
//
// The tree answers "which interval satisfies this query"; deciding how to
// split or reuse an interval is left to the caller. An RBTree is not safe for
// concurrent use. Rotations may touch any node between the mutation point and
// the root, so callers sharing a tree must guard it with a single lock.
package rbtree

import (
	"io"
	"log/slog"
)

// Stats counts structural work performed by a tree since creation.
type Stats struct {
	Inserts           int64
	Deletes           int64
	Rotations         int64
	RedRedFixups      int64
	DoubleBlackFixups int64
	PayloadSwaps      int64
	RangeDeletes      int64
	MalformedNodes    int64
}

// Option configures an RBTree.
type Option func(*RBTree)

// WithLogger sets the logger used for diagnostics. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(tree *RBTree) {
		if logger != nil {
			tree.logger = logger
		}
	}
}

// WithAllocatedOnInsert controls the state of newly inserted intervals.
// By default new intervals are free.
func WithAllocatedOnInsert(allocated bool) Option {
	return func(tree *RBTree) {
		tree.allocatedOnInsert = allocated
	}
}

// RBTree is a red-black tree of non-overlapping address intervals.
//
// The tree handle owns the root; every node is owned by its parent and holds
// a non-owning pointer back to it.
type RBTree struct {
	root *Node

	// Number of nodes under root, including the root.
	count int

	allocatedOnInsert bool
	logger            *slog.Logger
	stats             Stats
}

// NewRBTree creates an empty interval tree.
func NewRBTree(opts ...Option) *RBTree {
	tree := &RBTree{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(tree)
	}

	return tree
}

// Len returns the number of intervals in the tree.
func (tree *RBTree) Len() int {
	return tree.count
}

// Empty reports whether the tree holds no intervals.
func (tree *RBTree) Empty() bool {
	return tree.root == nil
}

// Stats returns a snapshot of the structural counters.
func (tree *RBTree) Stats() Stats {
	return tree.stats
}

// Min returns the interval with the lowest address, or nil.
func (tree *RBTree) Min() *Node {
	if tree.root == nil {
		return nil
	}

	return leftmost(tree.root)
}

// Max returns the interval with the highest address, or nil.
func (tree *RBTree) Max() *Node {
	if tree.root == nil {
		return nil
	}

	return rightmost(tree.root)
}

// Walk visits intervals in address order until fn returns false.
// fn must not modify the tree.
func (tree *RBTree) Walk(fn func(*Node) bool) {
	if tree.root == nil {
		return
	}

	for n := leftmost(tree.root); n != nil; n = successor(n) {
		if !fn(n) {
			return
		}
	}
}

// Height returns the number of nodes on the longest root-to-leaf path.
func (tree *RBTree) Height() int {
	return subtreeHeight(tree.root)
}

func subtreeHeight(n *Node) int {
	if n == nil {
		return 0
	}

	return 1 + max(subtreeHeight(n.child[left]), subtreeHeight(n.child[right]))
}
