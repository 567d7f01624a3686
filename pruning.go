package pollard

import (
	"fmt"
	"math"

	"github.com/pbanos/pollard/tree"
)

// Step is a member of the sequence of subtrees obtained by weakest-link
// pruning.
type Step struct {
	// Alpha is the smallest complexity penalty for which Tree
	// has the lowest cost, deviance + alpha * leaves.
	Alpha float64
	// CP is Alpha relative to the deviance of the root.
	CP       float64
	Splits   int
	Leaves   int
	Deviance float64
	Tree     *tree.Tree
}

/*
Sequence takes a tree and returns the nested sequence of its subtrees
obtained by weakest-link pruning, from the tree itself at alpha 0 to the
root alone.

Each step collapses every internal node t whose
g(t) = (R(t) - R(Tt)) / (|Tt| - 1) is minimal, where R(t) is the deviance
of t, R(Tt) the deviance of the leaves below t and |Tt| how many there
are. Nodes whose g is within rounding distance of the minimum are collapsed
together. The alpha of a step is that minimum, never below the previous
step's.
*/
func Sequence(t *tree.Tree) []*Step {
	root := t.Root()
	if root == nil {
		return nil
	}
	tolerance := root.Deviance * 1e-12
	steps := []*Step{newStep(t, 0, root.Deviance)}
	current := t
	for !current.Root().IsLeaf() {
		g := weakestLinks(current)
		minG := math.Inf(1)
		for _, v := range g {
			minG = math.Min(minG, v)
		}
		var collapse []int
		for id, v := range g {
			if v <= minG+tolerance {
				collapse = append(collapse, id)
			}
		}
		current = current.Collapse(collapse...)
		alpha := math.Max(minG, steps[len(steps)-1].Alpha)
		steps = append(steps, newStep(current, alpha, root.Deviance))
	}
	return steps
}

func newStep(t *tree.Tree, alpha, rootDeviance float64) *Step {
	s := &Step{
		Alpha:    alpha,
		Splits:   t.Splits(),
		Leaves:   t.Len() - t.Splits(),
		Deviance: t.Deviance(),
		Tree:     t,
	}
	if rootDeviance > 0 {
		s.CP = alpha / rootDeviance
	}
	return s
}

// weakestLinks returns the g value of every internal node of the tree by ID.
func weakestLinks(t *tree.Tree) map[int]float64 {
	nodes := t.Nodes()
	deviance := make(map[int]float64, len(nodes))
	leaves := make(map[int]int, len(nodes))
	g := make(map[int]float64)
	// children come after their parent in preorder
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		if n.IsLeaf() {
			deviance[n.ID] = n.Deviance
			leaves[n.ID] = 1
			continue
		}
		l, r := tree.LeftID(n.ID), tree.RightID(n.ID)
		deviance[n.ID] = deviance[l] + deviance[r]
		leaves[n.ID] = leaves[l] + leaves[r]
		g[n.ID] = (n.Deviance - deviance[n.ID]) / float64(leaves[n.ID]-1)
	}
	return g
}

/*
Prune takes a tree and a complexity penalty alpha and returns the subtree
minimizing deviance + alpha * leaves: the last member of the tree's
Sequence whose Alpha is not above alpha. The given tree is not modified.
*/
func Prune(t *tree.Tree, alpha float64) *tree.Tree {
	steps := Sequence(t)
	if len(steps) == 0 {
		return t
	}
	return pruneFromSequence(steps, alpha)
}

func pruneFromSequence(steps []*Step, alpha float64) *tree.Tree {
	selected := steps[0]
	for _, s := range steps[1:] {
		if s.Alpha > alpha {
			break
		}
		selected = s
	}
	return selected.Tree
}

// PruneCP prunes the tree with a penalty of cp times the deviance of its root.
func PruneCP(t *tree.Tree, cp float64) *tree.Tree {
	root := t.Root()
	if root == nil {
		return t
	}
	return Prune(t, cp*root.Deviance)
}

// PruneToSplits returns the member of the tree's Sequence with the given
// number of splits, or an error if there is none.
func PruneToSplits(t *tree.Tree, splits int) (*tree.Tree, error) {
	for _, s := range Sequence(t) {
		if s.Splits == splits {
			return s.Tree, nil
		}
	}
	return nil, fmt.Errorf("no subtree with %d splits in the pruning sequence", splits)
}
