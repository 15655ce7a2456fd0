package rbtree

// FindExact returns the interval starting at address, or nil.
//
// A node carrying the null address cannot be ordered; the descent stops there
// with a warning and reports nothing found.
func (tree *RBTree) FindExact(address uint64) *Node {
	if address == NullAddress {
		return nil
	}

	n := tree.root

	for n != nil {
		if n.address == NullAddress {
			tree.stats.MalformedNodes++
			tree.logger.Warn("rbtree: encountered a bad node", "searching", address)

			return nil
		}

		switch {
		case address == n.address:
			return n
		case address < n.address:
			n = n.child[left]
		default:
			n = n.child[right]
		}
	}

	return nil
}

// FindContaining returns the interval whose closed range contains point,
// provided its allocation state equals wantAllocated.
//
// Intervals do not overlap, so the first containing node is the only
// candidate: on a state mismatch the search ends with nil.
func (tree *RBTree) FindContaining(point uint64, wantAllocated bool) *Node {
	n := tree.root

	for n != nil {
		switch {
		case n.Contains(point):
			if n.allocated == wantAllocated {
				return n
			}

			return nil
		case point < n.address:
			n = n.child[left]
		default:
			n = n.child[right]
		}
	}

	return nil
}

// FindFreeOverlap returns a free interval starting inside (address, address+length].
//
// The lower bound is exclusive, so a node starting exactly at address never
// matches itself; the descent continues right where larger addresses live.
func (tree *RBTree) FindFreeOverlap(address, length uint64) *Node {
	end := spanEnd(address, length)
	n := tree.root

	for n != nil {
		if n.address > address && n.address <= end && n.Free() {
			return n
		}

		if address < n.address {
			n = n.child[left]
		} else {
			n = n.child[right]
		}
	}

	return nil
}

// firstAfter returns the interval with the smallest address greater than key.
func (tree *RBTree) firstAfter(key uint64) *Node {
	var best *Node

	for n := tree.root; n != nil; {
		if n.address > key {
			best = n
			n = n.child[left]
		} else {
			n = n.child[right]
		}
	}

	return best
}
