package rbtree

import "math"

// NullAddress is the address no interval may start at.
const NullAddress uint64 = 0

const (
	red   = false
	black = true
)

type direction uint8

const (
	left direction = iota
	right
)

func (d direction) opposite() direction {
	return 1 - d
}

func (d direction) String() string {
	if d == left {
		return "left"
	}

	return "right"
}

// Node is one interval registered in the tree.
//
// A *Node returned by a query stays valid until the next deleting call on the
// same tree (Delete or DeleteFreeInRange): deleting a node with two children
// moves its in-order successor's payload into it.
type Node struct {
	address   uint64
	length    uint64
	allocated bool

	color  bool // Black or red.
	parent *Node
	child  [2]*Node
}

// Address returns the start of the interval.
func (n *Node) Address() uint64 { return n.address }

// Length returns the interval size in bytes.
func (n *Node) Length() uint64 { return n.length }

// End returns address+length, saturating at math.MaxUint64.
func (n *Node) End() uint64 {
	return spanEnd(n.address, n.length)
}

// Allocated reports whether the interval is currently handed out.
func (n *Node) Allocated() bool { return n.allocated }

// Free reports whether the interval is available for reuse.
func (n *Node) Free() bool { return !n.allocated }

// SetAllocated flips the allocation state. The tree never changes it itself.
func (n *Node) SetAllocated(allocated bool) { n.allocated = allocated }

// Contains reports whether point lies in the closed range [address, address+length].
func (n *Node) Contains(point uint64) bool {
	return point >= n.address && point <= n.End()
}

// IsRed reports the balance color of the node.
func (n *Node) IsRed() bool { return n.color == red }

func spanEnd(address, length uint64) uint64 {
	if length > math.MaxUint64-address {
		return math.MaxUint64
	}

	return address + length
}

// Internal node attribute accessors.
func getColor(n *Node) bool {
	if n == nil {
		return black
	}

	return n.color
}

func isRedNode(n *Node) bool {
	return getColor(n) == red
}

func hasRedChild(n *Node) bool {
	return isRedNode(n.child[left]) || isRedNode(n.child[right])
}

// childDir returns which slot of its parent n occupies.
func childDir(n *Node) direction {
	doAssert(n.parent != nil)

	if n.parent.child[left] == n {
		return left
	}

	doAssert(n.parent.child[right] == n)

	return right
}

func sibling(n *Node) *Node {
	if n == nil || n.parent == nil {
		return nil
	}

	return n.parent.child[childDir(n).opposite()]
}

func uncle(n *Node) *Node {
	if n.parent == nil || n.parent.parent == nil {
		return nil
	}

	return sibling(n.parent)
}

// leftmost returns the node without a left child in the subtree of n.
func leftmost(n *Node) *Node {
	for n.child[left] != nil {
		n = n.child[left]
	}

	return n
}

func rightmost(n *Node) *Node {
	for n.child[right] != nil {
		n = n.child[right]
	}

	return n
}

// successor returns the in-order successor of n, or nil.
func successor(n *Node) *Node {
	if n.child[right] != nil {
		return leftmost(n.child[right])
	}

	for n.parent != nil {
		if childDir(n) == left {
			return n.parent
		}

		n = n.parent
	}

	return nil
}

// release unlinks a detached node so stale handles cannot reach the tree.
func release(n *Node) {
	*n = Node{}
}

func doAssert(condition bool) {
	if !condition {
		panic("rbtree internal assertion failed")
	}
}
