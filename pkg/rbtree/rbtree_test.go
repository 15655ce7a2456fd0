package rbtree //nolint:testpackage // tests require access to unexported fields (root, color, child, etc.)

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireWellFormed(tb testing.TB, tree *RBTree) {
	tb.Helper()
	require.NoError(tb, tree.Verify())
	require.True(tb, tree.IsWellFormed())
	require.NotEqual(tb, invalidBlackHeight, tree.BlackHeight())
}

func addresses(tree *RBTree) []uint64 {
	var out []uint64

	tree.Walk(func(n *Node) bool {
		out = append(out, n.Address())

		return true
	})

	return out
}

func TestEmpty(t *testing.T) {
	t.Parallel()

	tree := NewRBTree()
	assert.True(t, tree.Empty())
	assert.Equal(t, 0, tree.Len())
	assert.Nil(t, tree.Min())
	assert.Nil(t, tree.Max())
	assert.Nil(t, tree.FindExact(10))
	assert.Nil(t, tree.FindContaining(10, false))
	assert.Nil(t, tree.FindFreeOverlap(0, 100))
	assert.Equal(t, 0, tree.DeleteFreeInRange(0, 100))
	assert.Equal(t, 0, tree.Height())
	assert.Equal(t, 0, tree.BlackHeight())
	requireWellFormed(t, tree)
}

func TestInsertFirstIsBlackRoot(t *testing.T) {
	t.Parallel()

	tree := NewRBTree()
	n, inserted := tree.Insert(100, 10)
	require.True(t, inserted)
	require.Same(t, tree.root, n)
	assert.False(t, n.IsRed())
	assert.True(t, n.Free())
	assert.Equal(t, uint64(110), n.End())
	requireWellFormed(t, tree)
}

func TestInsertDuplicateKeepsOriginal(t *testing.T) {
	t.Parallel()

	tree := NewRBTree()
	_, inserted := tree.Insert(100, 10)
	require.True(t, inserted)

	existing, inserted := tree.Insert(100, 99)
	require.False(t, inserted)
	assert.Equal(t, uint64(10), existing.Length())
	assert.Equal(t, 1, tree.Len())
	assert.Equal(t, uint64(10), tree.FindExact(100).Length())
}

func TestInsertNullAddress(t *testing.T) {
	t.Parallel()

	tree := NewRBTree()
	n, inserted := tree.Insert(NullAddress, 10)
	assert.Nil(t, n)
	assert.False(t, inserted)
	assert.True(t, tree.Empty())
}

func TestInsertAllocatedOption(t *testing.T) {
	t.Parallel()

	tree := NewRBTree(WithAllocatedOnInsert(true))
	n, _ := tree.Insert(100, 10)
	assert.True(t, n.Allocated())

	n.SetAllocated(false)
	assert.True(t, tree.FindExact(100).Free())
}

func TestInsertRedRedCases(t *testing.T) {
	t.Parallel()

	// Each order ends in one of the LL, LR, RL, RR shapes under the root.
	orders := map[string][]uint64{
		"left-left":   {30, 20, 10},
		"left-right":  {30, 10, 20},
		"right-left":  {10, 30, 20},
		"right-right": {10, 20, 30},
	}

	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			tree := NewRBTree()
			for _, a := range order {
				tree.Insert(a, 1)
			}

			requireWellFormed(t, tree)
			assert.Equal(t, uint64(20), tree.root.address)
			assert.True(t, tree.root.child[left].IsRed())
			assert.True(t, tree.root.child[right].IsRed())
			assert.Equal(t, int64(1), tree.Stats().RedRedFixups)
		})
	}
}

func TestInsertUncleRedPropagates(t *testing.T) {
	t.Parallel()

	tree := NewRBTree()
	for _, a := range []uint64{20, 10, 30, 5} {
		tree.Insert(a, 1)
	}

	requireWellFormed(t, tree)
	assert.Equal(t, int64(0), tree.Stats().Rotations)
	assert.False(t, tree.FindExact(10).IsRed())
	assert.False(t, tree.FindExact(30).IsRed())
	assert.True(t, tree.FindExact(5).IsRed())
}

func TestAscendingInsertStaysBalanced(t *testing.T) {
	t.Parallel()

	const count = 1000

	tree := NewRBTree()
	for i := range uint64(count) {
		_, inserted := tree.Insert((i+1)*16, 8)
		require.True(t, inserted)
	}

	requireWellFormed(t, tree)
	assert.Equal(t, count, tree.Len())

	// A red-black tree of n nodes is at most 2*log2(n+1) high.
	assert.LessOrEqual(t, tree.Height(), 20)
	assert.LessOrEqual(t, tree.BlackHeight(), 10)
	assert.GreaterOrEqual(t, tree.BlackHeight(), 5)
	assert.True(t, slices.IsSorted(addresses(tree)))
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	tree := NewRBTree()
	tree.Insert(4096, 64)

	n := tree.FindExact(4096)
	require.NotNil(t, n)
	assert.Equal(t, uint64(4096), n.Address())
	assert.Equal(t, uint64(64), n.Length())

	require.NoError(t, tree.Delete(4096))
	assert.Nil(t, tree.FindExact(4096))
	assert.True(t, tree.Empty())
}

func TestWalkStopsEarly(t *testing.T) {
	t.Parallel()

	tree := NewRBTree()
	for _, a := range []uint64{50, 10, 40, 20, 30} {
		tree.Insert(a, 1)
	}

	var seen []uint64

	tree.Walk(func(n *Node) bool {
		seen = append(seen, n.Address())

		return len(seen) < 3
	})

	assert.Equal(t, []uint64{10, 20, 30}, seen)
	assert.Equal(t, uint64(10), tree.Min().Address())
	assert.Equal(t, uint64(50), tree.Max().Address())
}

// oracle tracks the expected set of intervals in a sorted slice.
type oracle struct {
	keys []uint64
	free map[uint64]bool
}

func newOracle() *oracle {
	return &oracle{free: make(map[uint64]bool)}
}

func (o *oracle) Insert(key uint64) bool {
	idx, found := slices.BinarySearch(o.keys, key)
	if found {
		return false
	}

	o.keys = slices.Insert(o.keys, idx, key)
	o.free[key] = true

	return true
}

func (o *oracle) Delete(key uint64) bool {
	idx, found := slices.BinarySearch(o.keys, key)
	if !found {
		return false
	}

	o.keys = slices.Delete(o.keys, idx, idx+1)
	delete(o.free, key)

	return true
}

// DeleteFreeInRange mirrors the tree operation over (address, address+length].
func (o *oracle) DeleteFreeInRange(address, length uint64) int {
	removed := 0

	for _, key := range slices.Clone(o.keys) {
		if key > address && key <= address+length && o.free[key] {
			o.Delete(key)
			removed++
		}
	}

	return removed
}

func (o *oracle) RandomExistingKey(rng *rand.Rand) uint64 {
	return o.keys[rng.IntN(len(o.keys))]
}

func compareContents(tb testing.TB, orc *oracle, tree *RBTree) {
	tb.Helper()

	got := addresses(tree)
	if len(orc.keys) == 0 {
		require.Empty(tb, got)
	} else {
		require.Equal(tb, orc.keys, got)
	}

	require.Equal(tb, len(orc.keys), tree.Len())

	tree.Walk(func(n *Node) bool {
		require.Equal(tb, orc.free[n.Address()], n.Free(), "state of 0x%X", n.Address())

		return true
	})
}

func TestRandomized(t *testing.T) {
	t.Parallel()

	const numKeys = 1000

	orc := newOracle()
	tree := NewRBTree()
	rng := rand.New(rand.NewPCG(0, 0))

	for range 10000 {
		op := rng.IntN(100)

		switch {
		case op < 50:
			key := uint64(rng.IntN(numKeys)) + 1
			_, inserted := tree.Insert(key, 1)
			require.Equal(t, orc.Insert(key), inserted)

			if rng.IntN(2) == 0 {
				tree.FindExact(key).SetAllocated(true)
				orc.free[key] = false
			}
		case op < 85 && len(orc.keys) > 0:
			key := orc.RandomExistingKey(rng)
			orc.Delete(key)
			require.NoError(t, tree.Delete(key), "delete existing %d", key)
		case op < 95:
			address := uint64(rng.IntN(numKeys))
			length := uint64(rng.IntN(20))
			require.Equal(t, orc.DeleteFreeInRange(address, length), tree.DeleteFreeInRange(address, length))
		default:
			key := uint64(rng.IntN(numKeys)) + 1
			_, found := slices.BinarySearch(orc.keys, key)
			assert.Equal(t, found, tree.FindExact(key) != nil)
		}

		requireWellFormed(t, tree)
		compareContents(t, orc, tree)
	}
}
