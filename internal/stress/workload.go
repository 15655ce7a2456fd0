package stress

import (
	"math/rand/v2"

	"github.com/Sumatoshi-tech/memtree/pkg/rbtree"
)

// Workload operation names, shared with the scenario vocabulary.
const (
	OpInsert            = "insert"
	OpDelete            = "delete"
	OpMark              = "mark"
	OpFindExact         = "find_exact"
	OpFindContaining    = "find_containing"
	OpFindFreeOverlap   = "find_free_overlap"
	OpDeleteFreeInRange = "delete_free_in_range"
)

type weightedOp struct {
	name   string
	weight int
}

// opMix favors inserts so the tree grows until deletes balance it out.
var opMix = []weightedOp{
	{OpInsert, 40},
	{OpDelete, 20},
	{OpMark, 10},
	{OpFindExact, 8},
	{OpFindContaining, 8},
	{OpFindFreeOverlap, 8},
	{OpDeleteFreeInRange, 6},
}

var opMixTotal = func() int {
	total := 0
	for _, op := range opMix {
		total += op.weight
	}

	return total
}()

func pickOp(rng *rand.Rand) string {
	roll := rng.IntN(opMixTotal)

	for _, op := range opMix {
		if roll < op.weight {
			return op.name
		}

		roll -= op.weight
	}

	return OpInsert
}

// liveSet mirrors the addresses stored in the tree so that deletes and marks
// can target existing intervals.
type liveSet struct {
	addrs []uint64
	index map[uint64]int
}

func newLiveSet() *liveSet {
	return &liveSet{index: make(map[uint64]int)}
}

func (s *liveSet) len() int { return len(s.addrs) }

func (s *liveSet) add(address uint64) {
	if _, ok := s.index[address]; ok {
		return
	}

	s.index[address] = len(s.addrs)
	s.addrs = append(s.addrs, address)
}

func (s *liveSet) remove(address uint64) {
	pos, ok := s.index[address]
	if !ok {
		return
	}

	last := len(s.addrs) - 1
	s.addrs[pos] = s.addrs[last]
	s.index[s.addrs[pos]] = pos
	s.addrs = s.addrs[:last]
	delete(s.index, address)
}

// pick returns a random live address, or false when the set is empty.
func (s *liveSet) pick(rng *rand.Rand) (uint64, bool) {
	if len(s.addrs) == 0 {
		return 0, false
	}

	return s.addrs[rng.IntN(len(s.addrs))], true
}

// resync rebuilds the set from the tree after bulk removals.
func (s *liveSet) resync(tree *rbtree.RBTree) {
	s.addrs = s.addrs[:0]
	clear(s.index)

	tree.Walk(func(n *rbtree.Node) bool {
		s.add(n.Address())

		return true
	})
}
