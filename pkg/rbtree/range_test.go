package rbtree //nolint:testpackage // tests require access to unexported fields.

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSteppedTree(tb testing.TB, count int) *RBTree {
	tb.Helper()

	tree := NewRBTree()
	for i := range uint64(count) {
		tree.Insert((i+1)*10, 5)
	}

	return tree
}

func TestDeleteFreeInRangeKeepsAllocated(t *testing.T) {
	t.Parallel()

	tree := newSteppedTree(t, 10)
	tree.FindExact(50).SetAllocated(true)

	removed := tree.DeleteFreeInRange(25, 50)

	assert.Equal(t, 4, removed)
	assert.Equal(t, []uint64{10, 20, 50, 80, 90, 100}, addresses(tree))
	assert.Equal(t, int64(1), tree.Stats().RangeDeletes)
	requireWellFormed(t, tree)
}

func TestDeleteFreeInRangeBounds(t *testing.T) {
	t.Parallel()

	tree := newSteppedTree(t, 5)

	// The lower bound is exclusive and the upper bound inclusive.
	assert.Equal(t, 1, tree.DeleteFreeInRange(10, 10))
	assert.Equal(t, []uint64{10, 30, 40, 50}, addresses(tree))
	assert.Equal(t, 0, tree.DeleteFreeInRange(50, 1000))
	requireWellFormed(t, tree)
}

func TestDeleteFreeInRangeEverything(t *testing.T) {
	t.Parallel()

	tree := newSteppedTree(t, 200)

	require.Equal(t, 200, tree.DeleteFreeInRange(1, 10_000))
	assert.True(t, tree.Empty())
	assert.Equal(t, int64(200), tree.Stats().Deletes)
}

func TestDeleteFreeInRangeThroughInnerNodes(t *testing.T) {
	t.Parallel()

	tree := newSteppedTree(t, 64)

	// Removing a contiguous run deletes nodes with two children, which
	// relocates payloads while the range is being walked.
	removed := tree.DeleteFreeInRange(100, 300)

	assert.Equal(t, 30, removed)
	assert.Positive(t, tree.Stats().PayloadSwaps)
	assert.Nil(t, tree.FindFreeOverlap(100, 300))
	assert.NotNil(t, tree.FindExact(100))
	assert.NotNil(t, tree.FindExact(410))
	assert.Equal(t, 34, tree.Len())
	requireWellFormed(t, tree)
}

func TestDeleteFreeInRangeSaturates(t *testing.T) {
	t.Parallel()

	tree := NewRBTree()
	tree.Insert(^uint64(0)-1, 1)
	tree.Insert(10, 1)

	assert.Equal(t, 2, tree.DeleteFreeInRange(5, ^uint64(0)))
	assert.True(t, tree.Empty())
}
