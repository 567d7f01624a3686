package tree

import (
	"context"
	"errors"
	"math"

	"github.com/pbanos/pollard/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

/*
TestResult holds the outcome of evaluating a tree against a dataset.
*/
type TestResult struct {
	// Count is the number of samples predicted.
	Count int
	// Skipped is the number of samples without a label value.
	Skipped int
	// Failed is the number of samples that could not be predicted
	// because they lacked a value required by a split.
	Failed int
	// RMSE is the root mean squared error of the predictions.
	RMSE float64
	// MAE is the mean absolute error of the predictions.
	MAE float64
	// Predictions holds a prediction per sample of the dataset, in the
	// dataset order, NaN for skipped and failed samples.
	Predictions []float64
}

/*
Test takes a context and a dataset and predicts the tree's label for every
sample in it, returning the resulting errors aggregated as a TestResult.
Samples without a label value are skipped. Samples that cannot be predicted
because of a *MissingFieldError are counted as failed. ErrNothingToTest is
returned if no sample could be predicted.
*/
func (t *Tree) Test(ctx context.Context, ds dataset.Dataset) (*TestResult, error) {
	samples, err := ds.Samples(ctx)
	if err != nil {
		return nil, err
	}
	result := &TestResult{Predictions: make([]float64, len(samples))}
	var residuals []float64
	for i, s := range samples {
		result.Predictions[i] = math.NaN()
		v, err := s.ValueFor(ctx, t.Label)
		if err != nil {
			return nil, err
		}
		y, ok := v.(float64)
		if !ok || math.IsNaN(y) {
			result.Skipped++
			continue
		}
		p, err := t.Predict(ctx, s)
		if err != nil {
			var mfe *MissingFieldError
			if errors.As(err, &mfe) {
				result.Failed++
				continue
			}
			return nil, err
		}
		result.Predictions[i] = p
		residuals = append(residuals, y-p)
	}
	result.Count = len(residuals)
	if result.Count == 0 {
		return result, ErrNothingToTest
	}
	squares := make([]float64, len(residuals))
	floats.MulTo(squares, residuals, residuals)
	result.RMSE = math.Sqrt(stat.Mean(squares, nil))
	abs := make([]float64, len(residuals))
	for i, r := range residuals {
		abs[i] = math.Abs(r)
	}
	result.MAE = stat.Mean(abs, nil)
	return result, nil
}

/*
NodeStats holds the statistics of the label over the samples of a dataset
that reach a node.
*/
type NodeStats struct {
	Node  *Node
	Stats dataset.Stats
	// SSE is the sum of squared differences between the label of the
	// samples and the node's Value.
	SSE float64
}

/*
LeafStats takes a context, a tree and a dataset and returns the statistics
of the tree's label over the dataset samples reaching each node, in preorder.
Samples are routed by the split criteria, so samples lacking a split value
stop at the node whose rule cannot place them.
*/
func LeafStats(ctx context.Context, t *Tree, ds dataset.Dataset) ([]*NodeStats, error) {
	root := t.Root()
	if root == nil {
		return nil, ErrEmptyTree
	}
	var result []*NodeStats
	var walk func(n *Node, ds dataset.Dataset) error
	walk = func(n *Node, ds dataset.Dataset) error {
		st, err := ds.Stats(ctx, t.Label)
		if err != nil {
			return err
		}
		d := st.Mean - n.Value
		result = append(result, &NodeStats{Node: n, Stats: st, SSE: st.Deviance + float64(st.Count)*d*d})
		if n.IsLeaf() {
			return nil
		}
		lc, rc := n.Rule.Criteria()
		l, r := t.Children(n)
		lds, err := ds.SubsetWith(ctx, lc)
		if err != nil {
			return err
		}
		if err = walk(l, lds); err != nil {
			return err
		}
		rds, err := ds.SubsetWith(ctx, rc)
		if err != nil {
			return err
		}
		return walk(r, rds)
	}
	if err := walk(root, ds); err != nil {
		return nil, err
	}
	return result, nil
}
