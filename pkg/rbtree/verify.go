package rbtree

import (
	"errors"
	"fmt"
)

// invalidBlackHeight is returned by BlackHeight for unbalanced trees.
const invalidBlackHeight = -1

// Verify checks the structural properties of the tree and returns the first
// violation as a *ValidationError. An empty tree is valid.
//
// Rules are checked in a fixed order: address ordering over the whole tree,
// then the root (parent link, color), then per node parent links, red-red
// and black heights. A tree breaking several rules reports the earliest.
func (tree *RBTree) Verify() error {
	if tree.root == nil {
		return nil
	}

	orderErr := verifyOrder(tree.root, bounds{})
	if orderErr != nil {
		return orderErr
	}

	if tree.root.parent != nil {
		return &ValidationError{
			Rule:    RuleParentLink,
			Message: "root has a parent",
			Address: tree.root.address,
		}
	}

	if tree.root.color != black {
		return &ValidationError{
			Rule:    RuleRootColor,
			Message: "root is red",
			Address: tree.root.address,
		}
	}

	_, err := verifySubtree(tree.root)

	return err
}

// bounds holds the exclusive address limits inherited from ancestors.
type bounds struct {
	low, high       uint64
	hasLow, hasHigh bool
}

func (b bounds) admits(address uint64) bool {
	if b.hasLow && address <= b.low {
		return false
	}

	if b.hasHigh && address >= b.high {
		return false
	}

	return true
}

func verifyOrder(n *Node, b bounds) error {
	if n == nil {
		return nil
	}

	if !b.admits(n.address) {
		return &ValidationError{
			Rule:    RuleBSTOrder,
			Message: "address out of order with an ancestor",
			Address: n.address,
		}
	}

	leftBounds := b
	leftBounds.high, leftBounds.hasHigh = n.address, true

	leftErr := verifyOrder(n.child[left], leftBounds)
	if leftErr != nil {
		return leftErr
	}

	rightBounds := b
	rightBounds.low, rightBounds.hasLow = n.address, true

	return verifyOrder(n.child[right], rightBounds)
}

// verifySubtree returns the black height of n, counting nil leaves as zero.
func verifySubtree(n *Node) (int, error) {
	if n == nil {
		return 0, nil
	}

	for dir, c := range n.child {
		if c == nil {
			continue
		}

		if c.parent != n {
			return 0, &ValidationError{
				Rule:    RuleParentLink,
				Message: fmt.Sprintf("%s child does not point back to its parent", direction(dir)),
				Address: c.address,
			}
		}

		if n.color == red && c.color == red {
			return 0, &ValidationError{
				Rule:    RuleRedRed,
				Message: fmt.Sprintf("red node has a red %s child", direction(dir)),
				Address: n.address,
			}
		}
	}

	leftHeight, err := verifySubtree(n.child[left])
	if err != nil {
		return 0, err
	}

	rightHeight, err := verifySubtree(n.child[right])
	if err != nil {
		return 0, err
	}

	if leftHeight != rightHeight {
		return 0, &ValidationError{
			Rule:    RuleBlackHeight,
			Message: fmt.Sprintf("left black height %d, right %d", leftHeight, rightHeight),
			Address: n.address,
		}
	}

	if n.color == black {
		leftHeight++
	}

	return leftHeight, nil
}

// IsWellFormed reports whether Verify passes, logging the violated rule.
func (tree *RBTree) IsWellFormed() bool {
	err := tree.Verify()
	if err == nil {
		return true
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		tree.logger.Error("rbtree: tree is not well formed",
			"rule", string(verr.Rule), "address", verr.Address, "detail", verr.Message)
	} else {
		tree.logger.Error("rbtree: tree is not well formed", "error", err)
	}

	return false
}

// BlackHeight returns the number of black nodes on every path from the root
// to a nil leaf, or -1 if the paths disagree anywhere.
func (tree *RBTree) BlackHeight() int {
	return blackHeight(tree.root)
}

func blackHeight(n *Node) int {
	if n == nil {
		return 0
	}

	leftHeight := blackHeight(n.child[left])
	rightHeight := blackHeight(n.child[right])

	if leftHeight == invalidBlackHeight || rightHeight == invalidBlackHeight || leftHeight != rightHeight {
		return invalidBlackHeight
	}

	if n.color == black {
		return leftHeight + 1
	}

	return leftHeight
}
