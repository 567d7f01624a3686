package tree

import (
	"math/bits"

	"github.com/pbanos/pollard/feature"
)

// RootID is the ID of the root node of every tree.
const RootID = 1

/*
Node is a node of the tree, a region of the partition of the
training data.
*/
type Node struct {
	// An ID to identify the node. The root has ID 1 and the
	// children of a node with ID i have IDs 2i and 2i+1.
	ID int
	// The number of training samples that reached the node.
	N int
	// The prediction for samples reaching the node: the mean of
	// the label over its training samples.
	Value float64
	// The sum of squared deviations from Value of the label over
	// the training samples of the node.
	Deviance float64
	// The decrease in deviance obtained by the node's split.
	Improvement float64
	// The constraint this node imposes on samples: the side of the
	// parent's Rule that selects it. Nil for the root.
	Criterion feature.Criterion
	// The rule that sends samples to the children of the node.
	// Nil for leaves.
	Rule feature.SplitRule
	// Indices of the training records owned by the node on the
	// frame it was grown from. Nil for trees that were loaded.
	Records []int
}

// LeftID returns the ID of the left child of the node with the given ID.
func LeftID(id int) int {
	return 2 * id
}

// RightID returns the ID of the right child of the node with the given ID.
func RightID(id int) int {
	return 2*id + 1
}

// ParentID returns the ID of the parent of the node with the given ID.
// The root's parent ID is 0.
func ParentID(id int) int {
	return id / 2
}

// Depth returns the depth of the node with the given ID, 0 for the root.
func Depth(id int) int {
	return bits.Len(uint(id)) - 1
}

// IsLeaf returns whether the node has no split.
func (n *Node) IsLeaf() bool {
	return n.Rule == nil
}
