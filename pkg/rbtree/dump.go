package rbtree

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes the tree in address order, one interval per line. Each line is
// prefixed with one dot per level of depth and shows the offset from the
// lowest address, the color (R/B), the state (A/F) and the length.
func (tree *RBTree) Dump(w io.Writer) error {
	if tree.root == nil {
		_, err := io.WriteString(w, "(empty)\n")

		return err
	}

	base := leftmost(tree.root).address

	return dumpSubtree(w, tree.root, 0, base)
}

func dumpSubtree(w io.Writer, n *Node, depth int, base uint64) error {
	if n == nil {
		return nil
	}

	err := dumpSubtree(w, n.child[left], depth+1, base)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "%soffset: %d %s %s size: %d\n",
		strings.Repeat(".", depth), n.address-base, colorTag(n), stateTag(n), n.length)
	if err != nil {
		return fmt.Errorf("dump 0x%X: %w", n.address, err)
	}

	return dumpSubtree(w, n.child[right], depth+1, base)
}

func colorTag(n *Node) string {
	if n.color == red {
		return "R"
	}

	return "B"
}

func stateTag(n *Node) string {
	if n.allocated {
		return "A"
	}

	return "F"
}
