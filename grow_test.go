package pollard

import (
	"context"
	"errors"
	"testing"

	"github.com/pbanos/pollard/feature"
	"github.com/pbanos/pollard/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrowStep(t *testing.T) {
	fr := stepFrame(t)
	cfg := Config{MinSplit: 10, MinBucket: 3, CP: 0.01, Folds: 10, Seed: 1, MaxDepth: 30}
	tr, err := Grow(context.Background(), fr, cfg)
	require.NoError(t, err)
	require.Equal(t, 1, tr.Splits())
	root := tr.Root()
	assert.Equal(t, 40, root.N)
	assert.InDelta(t, 4010.0, root.Deviance, 1e-9)
	assert.InDelta(t, 4000.0, root.Improvement, 1e-9)
	assert.Equal(t, 19.5, root.Rule.(*feature.NumericSplit).Threshold())
	l, r := tr.Children(root)
	assert.Equal(t, 2, l.ID)
	assert.Equal(t, 3, r.ID)
	assert.Equal(t, 20, l.N)
	assert.Equal(t, 20, r.N)
	assert.InDelta(t, 10.5, l.Value, 1e-12)
	assert.InDelta(t, 30.5, r.Value, 1e-12)
	assert.Equal(t, tree.MajorityBranch, tr.Missing)
}

func TestGrowWithoutComplexityFilter(t *testing.T) {
	fr := stepFrame(t)
	cfg := Config{MinSplit: 2, MinBucket: 1, CP: 0, Folds: 10, Seed: 1, MaxDepth: 30}
	tr, err := Grow(context.Background(), fr, cfg)
	require.NoError(t, err)
	// every leaf ends up with a constant target
	for _, n := range tr.Leaves() {
		assert.Zero(t, n.Deviance, "leaf %d", n.ID)
	}
	assert.Zero(t, tr.Deviance())
}

func TestGrowLeafConditions(t *testing.T) {
	ctx := context.Background()
	fr := stepFrame(t)
	t.Run("min split", func(t *testing.T) {
		tr, err := Grow(ctx, fr, Config{MinSplit: 41, MinBucket: 1, Folds: 2, MaxDepth: 30})
		require.NoError(t, err)
		assert.Equal(t, 1, tr.Len())
		assert.InDelta(t, 20.5, tr.Root().Value, 1e-12)
	})
	t.Run("max depth", func(t *testing.T) {
		tr, err := Grow(ctx, fr, Config{MinSplit: 2, MinBucket: 1, Folds: 2, MaxDepth: 1})
		require.NoError(t, err)
		assert.Equal(t, 1, tr.Splits())
	})
	t.Run("constant target", func(t *testing.T) {
		rows := make([]row, 30)
		for i := range rows {
			rows[i] = row{"y": 3.0, "x": float64(i)}
		}
		tr, err := Grow(ctx, frameOf(t, []feature.Feature{x}, rows), Config{MinSplit: 2, MinBucket: 1, Folds: 2, MaxDepth: 30})
		require.NoError(t, err)
		assert.Equal(t, 1, tr.Len())
	})
}

func TestGrowErrors(t *testing.T) {
	ctx := context.Background()
	fr := stepFrame(t)
	_, err := Grow(ctx, fr, Config{MinSplit: 1, MinBucket: 1, Folds: 2, MaxDepth: 30})
	var ice *InvalidConfigError
	require.True(t, errors.As(err, &ice))
	assert.Equal(t, "minsplit", ice.Field)

	empty := frameOf(t, []feature.Feature{x}, []row{{"x": 1.0}})
	_, err = Grow(ctx, empty, DefaultConfig())
	var ide *InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, 0, ide.Size)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Grow(cctx, fr, DefaultConfig())
	assert.Equal(t, context.Canceled, err)
}

func TestGrowInvariants(t *testing.T) {
	fr := noisyFrame(t, 300, 7)
	cfg := Config{MinSplit: 10, MinBucket: 3, CP: 0, Folds: 10, Seed: 1, MaxDepth: 30}
	tr, err := Grow(context.Background(), fr, cfg)
	require.NoError(t, err)
	require.True(t, tr.Splits() > 3)
	assert.Equal(t, fr.Len(), tr.Root().N)
	for _, n := range tr.Nodes() {
		require.Len(t, n.Records, n.N)
		st := fr.TargetStats(n.Records)
		assert.InDelta(t, st.Mean, n.Value, 1e-9, "node %d", n.ID)
		assert.InDelta(t, st.Deviance, n.Deviance, 1e-6, "node %d", n.ID)
		if n.IsLeaf() {
			continue
		}
		assert.True(t, n.Improvement > 0)
		l, r := tr.Children(n)
		assert.GreaterOrEqual(t, l.N, cfg.MinBucket)
		assert.GreaterOrEqual(t, r.N, cfg.MinBucket)
		owned := make(map[int]bool, len(n.Records))
		for _, i := range n.Records {
			owned[i] = true
		}
		seen := make(map[int]bool)
		for _, i := range append(append([]int{}, l.Records...), r.Records...) {
			assert.True(t, owned[i], "record %d of node %d is not on its parent", i, n.ID)
			assert.False(t, seen[i], "record %d is on both children of node %d", i, n.ID)
			seen[i] = true
		}
		// only records lacking the split feature are left out
		j := featureIndex(fr.Features(), n.Rule.Feature())
		for _, i := range n.Records {
			if !seen[i] {
				assert.True(t, isNaN(fr.Value(i, j)), "record %d dropped at node %d", i, n.ID)
			}
		}
	}
}

func TestGrowIsDeterministic(t *testing.T) {
	fr := noisyFrame(t, 200, 3)
	cfg := DefaultConfig()
	t1, err := Grow(context.Background(), fr, cfg)
	require.NoError(t, err)
	t2, err := Grow(context.Background(), fr, cfg)
	require.NoError(t, err)
	assert.Equal(t, t1.String(), t2.String())
}

func TestGrowComplexityFilter(t *testing.T) {
	fr := noisyFrame(t, 300, 11)
	full, err := Grow(context.Background(), fr, Config{MinSplit: 10, MinBucket: 3, CP: 0, Folds: 10, MaxDepth: 30})
	require.NoError(t, err)
	cfg := Config{MinSplit: 10, MinBucket: 3, CP: 0.02, Folds: 10, MaxDepth: 30}
	filtered, err := Grow(context.Background(), fr, cfg)
	require.NoError(t, err)
	assert.Equal(t, PruneCP(full, 0.02).String(), filtered.String())
}

func featureIndex(features []feature.Feature, f feature.Feature) int {
	for j, ff := range features {
		if ff.Name() == f.Name() {
			return j
		}
	}
	return -1
}

func isNaN(v float64) bool {
	return v != v
}
