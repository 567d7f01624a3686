package pollard

import (
	"context"
	"testing"

	"github.com/pbanos/pollard/feature"
	"github.com/pbanos/pollard/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handmadeTree(t *testing.T) *tree.Tree {
	tr, err := tree.New(y, []*tree.Node{
		{ID: 1, N: 6, Value: 15, Deviance: 100, Improvement: 68, Rule: feature.NewNumericSplit(x, 25)},
		{ID: 2, N: 4, Value: 20, Deviance: 30, Improvement: 20, Rule: feature.NewCategoricalSplit(group, []string{"A"}, []string{"B", "C"})},
		{ID: 3, N: 2, Value: 5, Deviance: 2},
		{ID: 4, N: 1, Value: 30, Deviance: 0},
		{ID: 5, N: 3, Value: 16, Deviance: 10},
	})
	require.NoError(t, err)
	return tr
}

func TestSequence(t *testing.T) {
	steps := Sequence(handmadeTree(t))
	require.Len(t, steps, 3)
	expected := []struct {
		alpha, cp, deviance float64
		splits, leaves      int
	}{
		{0, 0, 12, 2, 3},
		{20, 0.2, 32, 1, 2},
		{68, 0.68, 100, 0, 1},
	}
	for i, e := range expected {
		assert.InDelta(t, e.alpha, steps[i].Alpha, 1e-9, "step %d", i)
		assert.InDelta(t, e.cp, steps[i].CP, 1e-9, "step %d", i)
		assert.InDelta(t, e.deviance, steps[i].Deviance, 1e-9, "step %d", i)
		assert.Equal(t, e.splits, steps[i].Splits, "step %d", i)
		assert.Equal(t, e.leaves, steps[i].Leaves, "step %d", i)
	}
}

func TestPrune(t *testing.T) {
	tr := handmadeTree(t)
	tests := []struct {
		alpha  float64
		splits int
	}{
		{0, 2}, {19.9, 2}, {20, 1}, {67.9, 1}, {68, 0}, {1000, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.splits, Prune(tr, tt.alpha).Splits(), "alpha %v", tt.alpha)
	}
	assert.Equal(t, 1, PruneCP(tr, 0.2).Splits())
	assert.Equal(t, 2, tr.Splits())

	pruned, err := PruneToSplits(tr, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, nodeIDs(pruned))
	_, err = PruneToSplits(tr, 5)
	assert.Error(t, err)
}

func TestPruneProperties(t *testing.T) {
	fr := noisyFrame(t, 300, 5)
	full, err := Grow(context.Background(), fr, Config{MinSplit: 6, MinBucket: 2, CP: 0, Folds: 10, MaxDepth: 30})
	require.NoError(t, err)
	rootDeviance := full.Root().Deviance
	previous := full.Len()
	for _, cp := range []float64{0, 0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.5, 1} {
		alpha := cp * rootDeviance
		pruned := Prune(full, alpha)
		assert.Equal(t, pruned.String(), Prune(pruned, alpha).String(), "cp %v", cp)
		leaves := len(pruned.Leaves())
		assert.LessOrEqual(t, leaves, previous, "cp %v", cp)
		previous = leaves
	}
	steps := Sequence(full)
	for i := 1; i < len(steps); i++ {
		assert.GreaterOrEqual(t, steps[i].Alpha, steps[i-1].Alpha)
		assert.Less(t, steps[i].Splits, steps[i-1].Splits)
		assert.GreaterOrEqual(t, steps[i].Deviance, steps[i-1].Deviance)
	}
	assert.Equal(t, 0, steps[len(steps)-1].Splits)
}

func nodeIDs(t *tree.Tree) []int {
	var ids []int
	for _, n := range t.Nodes() {
		ids = append(ids, n.ID)
	}
	return ids
}
