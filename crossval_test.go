package pollard

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCrossValidateStep(t *testing.T) {
	fr := stepFrame(t)
	cfg := Config{MinSplit: 10, MinBucket: 3, CP: 0.01, Folds: 10, Seed: 1, MaxDepth: 30}
	full, err := Grow(context.Background(), fr, cfg)
	require.NoError(t, err)
	table, err := CrossValidate(context.Background(), fr, full, cfg, rand.New(rand.NewSource(cfg.Seed)), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	require.Len(t, table, 2)
	assert.Equal(t, 0, table[0].Splits)
	assert.Equal(t, 1, table[1].Splits)
	assert.InDelta(t, 1.0, table[0].RelError, 1e-12)
	assert.InDelta(t, 10.0/4010.0, table[1].RelError, 1e-12)
	assert.Greater(t, table[0].XError, 0.9)
	assert.Less(t, table[1].XError, 0.5)
	assert.Greater(t, table[0].CP, table[1].CP)

	row, err := table.SelectOneSE()
	require.NoError(t, err)
	assert.Equal(t, 1, row.Splits)
}

func TestCrossValidateRootErrors(t *testing.T) {
	fr := stepFrame(t)
	cfg := Config{MinSplit: 10, MinBucket: 3, CP: 0.01, Folds: 3, Seed: 5, MaxDepth: 30}
	full, err := Grow(context.Background(), fr, cfg)
	require.NoError(t, err)
	table, err := CrossValidate(context.Background(), fr, full, cfg, rand.New(rand.NewSource(cfg.Seed)))
	require.NoError(t, err)

	// the root-only subtree predicts the mean of the training records
	folds := make([][]int, cfg.Folds)
	for i, r := range rand.New(rand.NewSource(cfg.Seed)).Perm(fr.Len()) {
		folds[i%cfg.Folds] = append(folds[i%cfg.Folds], r)
	}
	var total float64
	relative := make([]float64, cfg.Folds)
	for f, fold := range folds {
		heldOut := make(map[int]bool)
		for _, i := range fold {
			heldOut[i] = true
		}
		var sum float64
		var count int
		for i := 0; i < fr.Len(); i++ {
			if !heldOut[i] {
				sum += fr.Target(i)
				count++
			}
		}
		mean := sum / float64(count)
		var sse float64
		for _, i := range fold {
			d := fr.Target(i) - mean
			sse += d * d
		}
		total += sse
		relative[f] = (sse / float64(len(fold))) / (4010.0 / 40.0)
	}
	var mean float64
	for _, r := range relative {
		mean += r
	}
	mean /= float64(len(relative))
	var variance float64
	for _, r := range relative {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(relative) - 1)

	require.Equal(t, 0, table[0].Splits)
	assert.InDelta(t, total/4010.0, table[0].XError, 1e-12)
	assert.InDelta(t, math.Sqrt(variance)/math.Sqrt(float64(cfg.Folds)), table[0].XStd, 1e-12)
	assert.Greater(t, table[0].XStd, 0.0)
}

func TestCrossValidateIsDeterministic(t *testing.T) {
	fr := noisyFrame(t, 250, 13)
	cfg := Config{MinSplit: 10, MinBucket: 3, CP: 0.005, Folds: 5, Seed: 42, MaxDepth: 30}
	full, err := Grow(context.Background(), fr, cfg)
	require.NoError(t, err)
	sequential, err := CrossValidate(context.Background(), fr, full, cfg, rand.New(rand.NewSource(cfg.Seed)), WithWorkers(1))
	require.NoError(t, err)
	concurrent, err := CrossValidate(context.Background(), fr, full, cfg, rand.New(rand.NewSource(cfg.Seed)), WithWorkers(4))
	require.NoError(t, err)
	assert.Equal(t, sequential, concurrent)

	require.Len(t, sequential, len(Sequence(full)))
	for i := 1; i < len(sequential); i++ {
		assert.Greater(t, sequential[i].Splits, sequential[i-1].Splits)
	}
	for _, r := range sequential {
		assert.GreaterOrEqual(t, r.XError, 0.0)
		assert.GreaterOrEqual(t, r.XStd, 0.0)
	}
}

func TestCrossValidateErrors(t *testing.T) {
	ctx := context.Background()
	fr := stepFrame(t)
	cfg := Config{MinSplit: 10, MinBucket: 3, CP: 0.01, Folds: 10, Seed: 1, MaxDepth: 30}
	full, err := Grow(ctx, fr, cfg)
	require.NoError(t, err)

	_, err = CrossValidate(ctx, fr, Prune(full, 1e9), cfg, rand.New(rand.NewSource(1)))
	var dte *DegenerateTreeError
	require.True(t, errors.As(err, &dte))
	assert.Equal(t, 40, dte.N)

	tooManyFolds := cfg
	tooManyFolds.Folds = 20
	_, err = CrossValidate(ctx, fr, full, tooManyFolds, rand.New(rand.NewSource(1)))
	var ide *InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, 1, ide.Fold)
	assert.Equal(t, 2, ide.Size)
	assert.Equal(t, 3, ide.Required)

	invalid := cfg
	invalid.Folds = 1
	_, err = CrossValidate(ctx, fr, full, invalid, rand.New(rand.NewSource(1)))
	var ice *InvalidConfigError
	require.True(t, errors.As(err, &ice))
	assert.Equal(t, "xval", ice.Field)
}

func TestSelectOneSE(t *testing.T) {
	table := ComplexityTable{
		{Splits: 0, XError: 1.0, XStd: 0.1},
		{Splits: 1, XError: 0.5, XStd: 0.05},
		{Splits: 2, XError: 0.42, XStd: 0.04},
		{Splits: 3, XError: 0.40, XStd: 0.05},
		{Splits: 5, XError: 0.41, XStd: 0.05},
	}
	row, err := table.SelectOneSE()
	require.NoError(t, err)
	assert.Equal(t, 2, row.Splits)
	row, err = table.SelectMin()
	require.NoError(t, err)
	assert.Equal(t, 3, row.Splits)

	ties := ComplexityTable{
		{Splits: 0, XError: 1.0},
		{Splits: 1, XError: 0.4},
		{Splits: 2, XError: 0.4},
	}
	row, err = ties.SelectMin()
	require.NoError(t, err)
	assert.Equal(t, 1, row.Splits)

	_, err = ComplexityTable{}.SelectOneSE()
	assert.Equal(t, ErrEmptyTable, err)
}

func TestSelect(t *testing.T) {
	fr := noisyFrame(t, 300, 17)
	cfg := Config{MinSplit: 10, MinBucket: 3, CP: 0.001, Folds: 10, Seed: 7, MaxDepth: 30}
	full, err := Grow(context.Background(), fr, cfg)
	require.NoError(t, err)
	selected, table, err := Select(context.Background(), fr, full, cfg, rand.New(rand.NewSource(cfg.Seed)))
	require.NoError(t, err)
	row, err := table.SelectOneSE()
	require.NoError(t, err)
	assert.Equal(t, row.Splits, selected.Splits())
	assert.LessOrEqual(t, selected.Splits(), full.Splits())
	assert.Greater(t, selected.Splits(), 0)
}
