package pollard

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/pbanos/pollard/dataset"
	"github.com/pbanos/pollard/tree"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

/*
ComplexityRow holds the errors of a member of the pruning sequence of
a tree.
*/
type ComplexityRow struct {
	// CP is the complexity parameter from which the subtree is optimal,
	// Alpha relative to the deviance of the root.
	CP    float64
	Alpha float64
	// Splits is the number of splits of the subtree.
	Splits int
	// RelError is the deviance of the subtree relative to the root's.
	RelError float64
	// XError is the cross-validated error of the subtree relative
	// to that of predicting the mean.
	XError float64
	// XStd is the standard error of XError across folds.
	XStd float64
}

func (cr ComplexityRow) String() string {
	return fmt.Sprintf("cp=%.6g nsplit=%d rel error=%.6g xerror=%.6g xstd=%.6g", cr.CP, cr.Splits, cr.RelError, cr.XError, cr.XStd)
}

// ComplexityTable holds a ComplexityRow per member of the pruning sequence
// of a tree, ordered from the smallest subtree to the largest.
type ComplexityTable []ComplexityRow

type foldResult struct {
	n   int
	sse []float64
}

/*
CrossValidate takes a context, the frame a tree was grown from, the tree,
the configuration it was grown with, a random source and options, and
estimates by k-fold cross-validation the error of each member of the tree's
pruning Sequence.

Records are assigned to cfg.Folds folds by a permutation drawn from rnd. For
each fold a tree is grown on the remaining records with cfg and pruned at
a complexity representative of each member of the sequence: the geometric
mean of its CP and the next larger one, or infinity for the root alone. The
squared errors of predicting the held-out records are accumulated per
member. Folds are processed concurrently.

A *DegenerateTreeError is returned if the tree has no split, and an
*InsufficientDataError if a fold has fewer than cfg.MinBucket records.
*/
func CrossValidate(ctx context.Context, fr *dataset.Frame, full *tree.Tree, cfg Config, rnd *rand.Rand, opts ...Option) (ComplexityTable, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	o := newOptions(opts)
	root := full.Root()
	if root == nil {
		return nil, tree.ErrEmptyTree
	}
	if full.Splits() == 0 {
		return nil, &DegenerateTreeError{N: root.N, Deviance: root.Deviance}
	}
	steps := Sequence(full)
	folds, err := assignFolds(fr.Len(), cfg, rnd)
	if err != nil {
		return nil, err
	}
	cps := representativeCPs(steps)
	results := make([]*foldResult, len(folds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for f := range folds {
		f := f
		g.Go(func() error {
			r, err := validateFold(gctx, fr, folds, f, cps, cfg, o)
			if err != nil {
				return fmt.Errorf("cross-validating fold %d: %w", f+1, err)
			}
			results[f] = r
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}
	table := make(ComplexityTable, len(steps))
	n := float64(fr.Len())
	for j, s := range steps {
		var sse float64
		relative := make([]float64, len(results))
		for f, r := range results {
			sse += r.sse[j]
			relative[f] = (r.sse[j] / float64(r.n)) / (root.Deviance / n)
		}
		table[len(steps)-1-j] = ComplexityRow{
			CP:       s.CP,
			Alpha:    s.Alpha,
			Splits:   s.Splits,
			RelError: s.Deviance / root.Deviance,
			XError:   sse / root.Deviance,
			XStd:     stat.StdDev(relative, nil) / math.Sqrt(float64(len(results))),
		}
	}
	return table, nil
}

// assignFolds returns the records held out on each fold.
func assignFolds(n int, cfg Config, rnd *rand.Rand) ([][]int, error) {
	folds := make([][]int, cfg.Folds)
	for i, r := range rnd.Perm(n) {
		folds[i%cfg.Folds] = append(folds[i%cfg.Folds], r)
	}
	for f, fold := range folds {
		if len(fold) < cfg.MinBucket {
			return nil, &InsufficientDataError{Fold: f + 1, Size: len(fold), Required: cfg.MinBucket}
		}
	}
	return folds, nil
}

// representativeCPs returns a complexity parameter per step lying between
// its CP and the following one.
func representativeCPs(steps []*Step) []float64 {
	cps := make([]float64, len(steps))
	for j := range steps {
		if j == len(steps)-1 {
			cps[j] = math.Inf(1)
			continue
		}
		cps[j] = math.Sqrt(steps[j].CP * steps[j+1].CP)
	}
	return cps
}

func validateFold(ctx context.Context, fr *dataset.Frame, folds [][]int, f int, cps []float64, cfg Config, o *options) (*foldResult, error) {
	heldOut := make(map[int]bool, len(folds[f]))
	for _, i := range folds[f] {
		heldOut[i] = true
	}
	train := make([]int, 0, fr.Len()-len(folds[f]))
	for i := 0; i < fr.Len(); i++ {
		if !heldOut[i] {
			train = append(train, i)
		}
	}
	t, err := Grow(ctx, fr.Subset(train), cfg, WithLogger(o.logger), WithPruner(o.pruner))
	if err != nil {
		return nil, err
	}
	steps := Sequence(t)
	rootDeviance := t.Root().Deviance
	result := &foldResult{n: len(folds[f]), sse: make([]float64, len(cps))}
	for j, cp := range cps {
		pruned := pruneFromSequence(steps, cp*rootDeviance)
		for _, i := range folds[f] {
			p, err := pruned.Predict(ctx, fr.Row(i))
			if err != nil {
				return nil, err
			}
			d := fr.Target(i) - p
			result.sse[j] += d * d
		}
	}
	o.logger.Debug("cross-validated fold",
		zap.Int("fold", f+1),
		zap.Int("train", len(train)),
		zap.Int("test", len(folds[f])),
		zap.Int("splits", t.Splits()))
	return result, nil
}

/*
SelectOneSE returns the row of the smallest subtree whose XError is within
one XStd of the minimum XError. The minimum is taken at the smallest subtree
among those reaching it.
*/
func (ct ComplexityTable) SelectOneSE() (ComplexityRow, error) {
	best, err := ct.SelectMin()
	if err != nil {
		return ComplexityRow{}, err
	}
	limit := best.XError + best.XStd
	for _, r := range ct {
		if r.XError <= limit {
			return r, nil
		}
	}
	return best, nil
}

// SelectMin returns the row of the smallest subtree with minimum XError.
func (ct ComplexityTable) SelectMin() (ComplexityRow, error) {
	if len(ct) == 0 {
		return ComplexityRow{}, ErrEmptyTable
	}
	best := ct[0]
	for _, r := range ct[1:] {
		if r.XError < best.XError {
			best = r
		}
	}
	return best, nil
}

/*
Select cross-validates the given tree and returns the subtree chosen by
SelectOneSE along with the complexity table.
*/
func Select(ctx context.Context, fr *dataset.Frame, full *tree.Tree, cfg Config, rnd *rand.Rand, opts ...Option) (*tree.Tree, ComplexityTable, error) {
	table, err := CrossValidate(ctx, fr, full, cfg, rnd, opts...)
	if err != nil {
		return nil, nil, err
	}
	row, err := table.SelectOneSE()
	if err != nil {
		return nil, nil, err
	}
	selected, err := PruneToSplits(full, row.Splits)
	if err != nil {
		return nil, nil, err
	}
	return selected, table, nil
}
