package rbtree

import "fmt"

// Delete removes the interval starting at address.
//
// It returns ErrInvalidAddress for the null address and an error wrapping
// ErrNotFound when no interval starts at address.
func (tree *RBTree) Delete(address uint64) error {
	if address == NullAddress {
		return ErrInvalidAddress
	}

	n := tree.FindExact(address)
	if n == nil {
		return fmt.Errorf("%w: 0x%X", ErrNotFound, address)
	}

	tree.deleteNode(n)
	tree.stats.Deletes++

	return nil
}

// replacement returns the node that takes n's place in BST order: the
// in-order successor for two children, the only child for one, nil for a leaf.
func replacement(n *Node) *Node {
	switch {
	case n.child[left] != nil && n.child[right] != nil:
		return leftmost(n.child[right])
	case n.child[left] != nil:
		return n.child[left]
	default:
		return n.child[right]
	}
}

func (tree *RBTree) deleteNode(n *Node) {
	for {
		r := replacement(n)
		bothBlack := getColor(r) == black && n.color == black

		if r == nil {
			tree.deleteLeaf(n, bothBlack)

			return
		}

		if n.child[left] == nil || n.child[right] == nil {
			tree.deleteSingleChild(n, r, bothBlack)

			return
		}

		// Two children: take over the successor's payload and remove the
		// successor, which has at most one child.
		tree.swapPayload(r, n)
		n = r
	}
}

func (tree *RBTree) deleteLeaf(n *Node, bothBlack bool) {
	if n == tree.root {
		tree.root = nil
	} else {
		if bothBlack {
			// n is still attached so the fixup can walk its parent and sibling.
			tree.fixDoubleBlack(n)
		} else if s := sibling(n); s != nil {
			s.color = red
		}

		n.parent.child[childDir(n)] = nil
	}

	tree.count--
	release(n)
}

func (tree *RBTree) deleteSingleChild(n, r *Node, bothBlack bool) {
	if n == tree.root {
		// The root keeps its identity and absorbs the child's payload.
		n.address = r.address
		n.length = r.length
		n.allocated = r.allocated
		n.child = [2]*Node{}

		tree.count--
		release(r)

		return
	}

	n.parent.child[childDir(n)] = r
	r.parent = n.parent

	tree.count--
	release(n)

	if bothBlack {
		tree.fixDoubleBlack(r)
	} else {
		r.color = black
	}
}

// fixDoubleBlack rebalances after a black node was removed from the path
// through x.
func (tree *RBTree) fixDoubleBlack(x *Node) {
	for x != tree.root {
		tree.stats.DoubleBlackFixups++

		parent := x.parent
		s := sibling(x)

		// No sibling: push the double black up.
		if s == nil {
			x = parent

			continue
		}

		// Red sibling: rotate it above the parent so x gets a black sibling.
		if s.color == red {
			parent.color = red
			s.color = black
			tree.rotate(parent, childDir(x))

			continue
		}

		if hasRedChild(s) {
			tree.absorbDoubleBlack(parent, s)

			return
		}

		// Black sibling with two black children.
		s.color = red

		if parent.color == red {
			parent.color = black

			return
		}

		x = parent
	}
}

// absorbDoubleBlack resolves the LL, LR, RL and RR shapes, where black
// sibling s has a red child that takes over the missing black.
func (tree *RBTree) absorbDoubleBlack(parent, s *Node) {
	sDir := childDir(s)

	redDir := right
	if isRedNode(s.child[left]) {
		redDir = left
	}

	if redDir == sDir {
		// Outer red child (LL or RR): one rotation at the parent.
		s.child[redDir].color = s.color
		s.color = parent.color
		tree.rotate(parent, sDir.opposite())
	} else {
		// Inner red child (LR or RL): straighten at the sibling first.
		s.child[redDir].color = parent.color
		tree.rotate(s, sDir)
		tree.rotate(parent, sDir.opposite())
	}

	parent.color = black
}
