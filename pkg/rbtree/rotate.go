package rbtree

// moveDown moves n one level down and puts newParent in its slot.
func (tree *RBTree) moveDown(n, newParent *Node) {
	if n.parent != nil {
		n.parent.child[childDir(n)] = newParent
	}

	newParent.parent = n.parent
	n.parent = newParent
}

// rotate performs a tree rotation moving pivot down toward dir.
// dir=left promotes the right child, dir=right promotes the left child.
//
// Left rotation:
//
//	  X              Y
//	A   Y    =>    X   C
//	  B C        A B
//
// Right rotation:
//
//	    Y            X
//	  X   C  =>    A   Y
//	A B              B C
//
//nolint:dupword // ASCII art diagrams contain intentional repeated letters.
func (tree *RBTree) rotate(pivot *Node, dir direction) {
	promoted := pivot.child[dir.opposite()]
	doAssert(promoted != nil)

	if pivot == tree.root {
		tree.root = promoted
	}

	tree.moveDown(pivot, promoted)

	// Move the inner subtree.
	inner := promoted.child[dir]
	pivot.child[dir.opposite()] = inner

	if inner != nil {
		inner.parent = pivot
	}

	promoted.child[dir] = pivot
	tree.stats.Rotations++
}

func swapColors(a, b *Node) {
	a.color, b.color = b.color, a.color
}

// swapPayload exchanges the interval data of two nodes, leaving their
// structural positions and colors untouched.
func (tree *RBTree) swapPayload(a, b *Node) {
	a.address, b.address = b.address, a.address
	a.length, b.length = b.length, a.length
	a.allocated, b.allocated = b.allocated, a.allocated
	tree.stats.PayloadSwaps++
}
