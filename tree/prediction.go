package tree

import (
	"context"
	"fmt"

	"github.com/pbanos/pollard/feature"
)

// PredictionError represents an error related with predictions
type PredictionError string

/*
ErrEmptyTree is the error returned when trying to predict with or walk
a tree that has no root node.
*/
const ErrEmptyTree = PredictionError("tree has no root node")

/*
ErrNothingToTest is the error returned when evaluating a tree on a dataset
that has no sample with a value for the tree's label.
*/
const ErrNothingToTest = PredictionError("no samples with a label value to test against")

func (pe PredictionError) Error() string {
	return string(pe)
}

/*
MissingFieldError is the error returned when predicting with the
FailOnMissing policy for a sample that has no usable value for the
feature of a split on its path.
*/
type MissingFieldError struct {
	Feature string
	NodeID  int
}

func (mfe *MissingFieldError) Error() string {
	return fmt.Sprintf("sample has no usable value for feature %s required at node %d", mfe.Feature, mfe.NodeID)
}

/*
Predict takes a context and a sample and returns the value predicted for
it: the Value of the leaf the sample reaches.
*/
func (t *Tree) Predict(ctx context.Context, s feature.Sample) (float64, error) {
	n, err := t.LeafFor(ctx, s)
	if err != nil {
		return 0, err
	}
	return n.Value, nil
}

/*
LeafFor takes a context and a sample and returns the leaf the sample
reaches by descending from the root.

Samples lacking the value a split needs are sent to the child with more
training samples when the tree's Missing policy is MajorityBranch, and
make LeafFor fail with a *MissingFieldError otherwise.
*/
func (t *Tree) LeafFor(ctx context.Context, s feature.Sample) (*Node, error) {
	n := t.Root()
	if n == nil {
		return nil, ErrEmptyTree
	}
	for !n.IsLeaf() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := n.Rule.Branch(ctx, s)
		if err != nil {
			return nil, err
		}
		l, r := t.Children(n)
		switch b {
		case feature.Left:
			n = l
		case feature.Right:
			n = r
		default:
			if t.Missing != MajorityBranch {
				return nil, &MissingFieldError{Feature: n.Rule.Feature().Name(), NodeID: n.ID}
			}
			if r.N > l.N {
				n = r
			} else {
				n = l
			}
		}
	}
	return n, nil
}
