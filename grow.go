/*
Package pollard grows CART regression trees with the sum of squares
criterion, prunes them by cost-complexity and selects a subtree by
cross-validation.
*/
package pollard

import (
	"context"

	"github.com/pbanos/pollard/dataset"
	"github.com/pbanos/pollard/tree"
	"go.uber.org/zap"
)

type grower struct {
	frame        *dataset.Frame
	cfg          Config
	rootDeviance float64
	alpha        float64
	nodes        []*tree.Node
	pruner       Pruner
	logger       *zap.Logger
}

/*
Grow takes a context, a frame, a configuration and options and returns
a regression tree predicting the frame's label from its features.

Starting from the root, which owns every record of the frame, a node
becomes a leaf when it owns fewer than cfg.MinSplit records, when all its
targets are equal, when its deviance is not above cfg.CP times the root's
deviance, when it lies at cfg.MaxDepth or when no split leaves cfg.MinBucket
records on each side. Otherwise the split found by BestPartition is
offered to the Pruner given with WithPruner, and unless it is rejected
the children are grown in turn. The grown tree is finally pruned at
cfg.CP times the root's deviance.

The returned tree sends samples lacking a split value to the majority
branch. An error is returned if the configuration is invalid, the frame
has no records or the context is cancelled.
*/
func Grow(ctx context.Context, fr *dataset.Frame, cfg Config, opts ...Option) (*tree.Tree, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	o := newOptions(opts)
	if fr.Len() == 0 {
		return nil, &InsufficientDataError{Size: 0, Required: 1}
	}
	if cfg.MinSplit < 2*cfg.MinBucket {
		o.logger.Warn("minimum split size is below twice the minimum leaf size, nodes below it will never split",
			zap.Int("minsplit", cfg.MinSplit), zap.Int("minbucket", cfg.MinBucket))
	}
	records := make([]int, fr.Len())
	for i := range records {
		records[i] = i
	}
	rootDeviance := fr.TargetStats(nil).Deviance
	g := &grower{
		frame:        fr,
		cfg:          cfg,
		rootDeviance: rootDeviance,
		alpha:        cfg.CP * rootDeviance,
		pruner:       o.pruner,
		logger:       o.logger,
	}
	err = g.grow(ctx, tree.RootID, records)
	if err != nil {
		return nil, err
	}
	t, err := tree.New(fr.Label(), g.nodes)
	if err != nil {
		return nil, err
	}
	t.Missing = tree.MajorityBranch
	grown := t.Splits()
	if g.alpha > 0 {
		t = Prune(t, g.alpha)
	}
	o.logger.Debug("grew tree",
		zap.Int("records", fr.Len()),
		zap.Int("splits", grown),
		zap.Int("kept", t.Splits()))
	return t, nil
}

func (g *grower) grow(ctx context.Context, id int, records []int) error {
	err := ctx.Err()
	if err != nil {
		return err
	}
	st := g.frame.TargetStats(records)
	n := &tree.Node{
		ID:       id,
		N:        st.Count,
		Value:    st.Mean,
		Deviance: st.Deviance,
		Records:  records,
	}
	g.nodes = append(g.nodes, n)
	if len(records) < g.cfg.MinSplit || tree.Depth(id) >= g.cfg.MaxDepth || st.Deviance <= g.alpha || g.constant(records) {
		return nil
	}
	p, err := BestPartition(g.frame, records, st.Deviance, g.cfg.MinBucket)
	if err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	rejected, err := g.pruner.Prune(ctx, g.frame, p, g.rootDeviance)
	if err != nil {
		return err
	}
	if rejected {
		return nil
	}
	n.Rule = p.Rule
	n.Improvement = p.Improvement
	err = g.grow(ctx, tree.LeftID(id), p.Left)
	if err != nil {
		return err
	}
	return g.grow(ctx, tree.RightID(id), p.Right)
}

func (g *grower) constant(records []int) bool {
	first := g.frame.Target(records[0])
	for _, i := range records[1:] {
		if g.frame.Target(i) != first {
			return false
		}
	}
	return true
}
