package tree

import (
	"context"
	"fmt"
	"strings"

	"github.com/pbanos/pollard/feature"
)

// MissingPolicy decides what happens when a sample being predicted lacks
// the value a split needs.
type MissingPolicy int

const (
	// FailOnMissing makes predictions fail with a *MissingFieldError.
	FailOnMissing MissingPolicy = iota
	// MajorityBranch sends the sample to the child that received
	// more training samples (the left one on ties).
	MajorityBranch
)

// Tree represents a regression tree. Its nodes are kept in a flat
// slice in preorder, addressed by their ID through an index.
type Tree struct {
	// Label is the feature the tree predicts.
	Label feature.Feature
	// Missing is the policy applied to samples lacking a split value.
	Missing MissingPolicy
	nodes   []*Node
	index   map[int]int
}

/*
New takes a label feature and the nodes of a tree and returns the tree
they compose. It returns an error if there is no root node, if IDs are
repeated, if a node with a rule lacks one of its children or if a node is
not reachable from the root.

The Criterion of every non-root node is set from its parent's rule when
missing.
*/
func New(label feature.Feature, nodes []*Node) (*Tree, error) {
	byID := make(map[int]*Node, len(nodes))
	for _, n := range nodes {
		if n.ID < RootID {
			return nil, fmt.Errorf("invalid node id %d", n.ID)
		}
		if _, ok := byID[n.ID]; ok {
			return nil, fmt.Errorf("node id %d is repeated", n.ID)
		}
		byID[n.ID] = n
	}
	root, ok := byID[RootID]
	if !ok {
		return nil, ErrEmptyTree
	}
	t := &Tree{Label: label, nodes: make([]*Node, 0, len(nodes)), index: make(map[int]int, len(nodes))}
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		t.index[n.ID] = len(t.nodes)
		t.nodes = append(t.nodes, n)
		if n.IsLeaf() {
			continue
		}
		l, lok := byID[LeftID(n.ID)]
		r, rok := byID[RightID(n.ID)]
		if !lok || !rok {
			return nil, fmt.Errorf("node %d has a split but lacks children", n.ID)
		}
		lc, rc := n.Rule.Criteria()
		if l.Criterion == nil {
			l.Criterion = lc
		}
		if r.Criterion == nil {
			r.Criterion = rc
		}
		stack = append(stack, r, l)
	}
	if len(t.nodes) != len(nodes) {
		return nil, fmt.Errorf("%d nodes are not reachable from the root", len(nodes)-len(t.nodes))
	}
	return t, nil
}

// Root returns the root node of the tree.
func (t *Tree) Root() *Node {
	if t == nil || len(t.nodes) == 0 {
		return nil
	}
	return t.nodes[0]
}

// Node returns the node with the given ID or nil if the tree has none.
func (t *Tree) Node(id int) *Node {
	i, ok := t.index[id]
	if !ok {
		return nil
	}
	return t.nodes[i]
}

// Nodes returns the nodes of the tree in preorder. The slice must not
// be modified.
func (t *Tree) Nodes() []*Node {
	return t.nodes
}

// Children returns the left and right children of the given node, nil
// for leaves.
func (t *Tree) Children(n *Node) (*Node, *Node) {
	if n.IsLeaf() {
		return nil, nil
	}
	return t.Node(LeftID(n.ID)), t.Node(RightID(n.ID))
}

// Len returns the number of nodes on the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Splits returns the number of nodes with a split.
func (t *Tree) Splits() int {
	var splits int
	for _, n := range t.nodes {
		if !n.IsLeaf() {
			splits++
		}
	}
	return splits
}

// Leaves returns the leaves of the tree in preorder.
func (t *Tree) Leaves() []*Node {
	leaves := make([]*Node, 0, len(t.nodes)/2+1)
	for _, n := range t.nodes {
		if n.IsLeaf() {
			leaves = append(leaves, n)
		}
	}
	return leaves
}

// Deviance returns the sum of the deviance of the leaves of the tree.
func (t *Tree) Deviance() float64 {
	var d float64
	for _, n := range t.Leaves() {
		d += n.Deviance
	}
	return d
}

/*
Collapse returns a new tree in which the nodes with the given IDs have
been turned into leaves, dropping every node below them. The receiver is
not modified; surviving nodes are copied.
*/
func (t *Tree) Collapse(ids ...int) *Tree {
	cut := make(map[int]bool, len(ids))
	for _, id := range ids {
		cut[id] = true
	}
	result := &Tree{Label: t.Label, Missing: t.Missing, nodes: make([]*Node, 0, len(t.nodes)), index: make(map[int]int, len(t.nodes))}
	for _, n := range t.nodes {
		if underAny(n.ID, cut) {
			continue
		}
		c := *n
		if cut[n.ID] {
			c.Rule = nil
			c.Improvement = 0
		}
		result.index[c.ID] = len(result.nodes)
		result.nodes = append(result.nodes, &c)
	}
	return result
}

func underAny(id int, cut map[int]bool) bool {
	for a := ParentID(id); a >= RootID; a = ParentID(a) {
		if cut[a] {
			return true
		}
	}
	return false
}

// Traverse takes a context, bottomup boolean and an
// error-returning function that takes a context and a node
// as parameters, and goes through the tree running the
// function with the context and every traversed node.
// Traverse will call the function with a parent node before
// calling it for its children if bottomup is false, and
// call it after its children if bottomup is true. Left
// children are always visited before right ones.
// If the given context times out or is cancelled, the context
// error is returned. If the call to the function returns an
// error, the traversing is aborted and the error is returned.
func (t *Tree) Traverse(ctx context.Context, bottomup bool, f func(context.Context, *Node) error) error {
	root := t.Root()
	if root == nil {
		return ErrEmptyTree
	}
	return t.traverse(ctx, root, bottomup, f)
}

func (t *Tree) traverse(ctx context.Context, n *Node, bottomup bool, f func(context.Context, *Node) error) error {
	err := ctx.Err()
	if err != nil {
		return err
	}
	if !bottomup {
		err = f(ctx, n)
		if err != nil {
			return err
		}
	}
	if !n.IsLeaf() {
		l, r := t.Children(n)
		for _, c := range []*Node{l, r} {
			err = t.traverse(ctx, c, bottomup, f)
			if err != nil {
				return err
			}
		}
	}
	if bottomup {
		err = f(ctx, n)
	}
	return err
}

// String returns an indented listing of the tree with a line per node
// showing its ID, criterion, number of training samples, deviance and
// predicted value. Leaves are marked with an asterisk.
func (t *Tree) String() string {
	root := t.Root()
	if root == nil {
		return ""
	}
	var b strings.Builder
	t.writeSubtree(&b, root, "", "")
	return b.String()
}

func (t *Tree) writeSubtree(b *strings.Builder, n *Node, prefix, childPrefix string) {
	b.WriteString(prefix)
	b.WriteString(nodeLine(n))
	b.WriteString("\n")
	if n.IsLeaf() {
		return
	}
	l, r := t.Children(n)
	t.writeSubtree(b, l, childPrefix+"|__", childPrefix+"|  ")
	t.writeSubtree(b, r, childPrefix+"|__", childPrefix+"   ")
}

func nodeLine(n *Node) string {
	criterion := "root"
	if n.Criterion != nil {
		criterion = fmt.Sprintf("%v", n.Criterion)
	}
	line := fmt.Sprintf("[%d] %s n=%d deviance=%.6g value=%.6g", n.ID, criterion, n.N, n.Deviance, n.Value)
	if n.IsLeaf() {
		line += " *"
	}
	return line
}
