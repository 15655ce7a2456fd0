package rbtree

// DeleteFreeInRange removes every free interval starting inside
// (address, address+length] and returns how many were removed.
//
// Allocated intervals in the range are kept. Candidates are visited in
// address order; every removal is followed by a fresh descent from the root,
// so payload relocation inside the tree cannot skip a candidate.
func (tree *RBTree) DeleteFreeInRange(address, length uint64) int {
	end := spanEnd(address, length)
	cursor := address
	removed := 0

	for {
		n := tree.firstAfter(cursor)
		if n == nil || n.address > end {
			break
		}

		cursor = n.address

		if n.Allocated() {
			continue
		}

		tree.deleteNode(n)
		tree.stats.Deletes++
		removed++
	}

	if removed > 0 {
		tree.stats.RangeDeletes++
		tree.logger.Debug("rbtree: coalesced free intervals",
			"address", address, "length", length, "removed", removed)
	}

	return removed
}
