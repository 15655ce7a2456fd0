package rbtree

// Insert registers the interval [address, address+length].
//
// If an interval already starts at address the tree is left untouched and the
// existing node is returned with false: insertion never overwrites, callers
// delete first to replace. The null address is never stored; inserting it is a
// no-op returning (nil, false).
func (tree *RBTree) Insert(address, length uint64) (*Node, bool) {
	if address == NullAddress {
		tree.logger.Warn("rbtree: refusing to insert the null address", "length", length)

		return nil, false
	}

	if tree.root == nil {
		tree.root = tree.newNode(address, length)
		tree.root.color = black
		tree.count++
		tree.stats.Inserts++

		return tree.root, true
	}

	parent := tree.searchSlot(address)
	if parent.address == address {
		return parent, false
	}

	n := tree.newNode(address, length)
	n.parent = parent

	if address < parent.address {
		parent.child[left] = n
	} else {
		parent.child[right] = n
	}

	tree.count++
	tree.stats.Inserts++
	tree.fixRedRed(n)

	return n, true
}

func (tree *RBTree) newNode(address, length uint64) *Node {
	return &Node{
		address:   address,
		length:    length,
		allocated: tree.allocatedOnInsert,
		color:     red,
	}
}

// searchSlot returns the node holding address, or the node under which an
// interval starting at address would be attached. The tree must not be empty.
func (tree *RBTree) searchSlot(address uint64) *Node {
	n := tree.root

	for {
		var dir direction

		switch {
		case address == n.address:
			return n
		case address < n.address:
			dir = left
		default:
			dir = right
		}

		if n.child[dir] == nil {
			return n
		}

		n = n.child[dir]
	}
}

// fixRedRed restores the red-black properties after n was attached red.
func (tree *RBTree) fixRedRed(n *Node) {
	for {
		// Case 1: n is at the root.
		if n == tree.root {
			n.color = black

			return
		}

		parent := n.parent

		// Case 2: the parent is black, so the tree already satisfies the RB properties.
		if parent.color == black {
			return
		}

		tree.stats.RedRedFixups++

		// A red parent is never the root, so the grandparent exists.
		grandparent := parent.parent
		doAssert(grandparent != nil)

		// Case 3: parent and uncle are both red. Paint both black, make the
		// grandparent red and continue from there.
		if u := uncle(n); isRedNode(u) {
			parent.color = black
			u.color = black
			grandparent.color = red
			n = grandparent

			continue
		}

		// Case 4: uncle is black. LL and RR swap the parent's color with the
		// grandparent; LR and RL first rotate n into the parent's place.
		parentDir := childDir(parent)

		if childDir(n) == parentDir {
			swapColors(parent, grandparent)
		} else {
			tree.rotate(parent, parentDir)
			swapColors(n, grandparent)
		}

		tree.rotate(grandparent, parentDir.opposite())

		return
	}
}
