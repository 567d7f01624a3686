package sqlite3adapter

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pbanos/pollard/dataset"
	"github.com/pbanos/pollard/dataset/sqldataset"
	"github.com/pbanos/pollard/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	price    = feature.NewContinuousFeature("Price")
	mileage  = feature.NewContinuousFeature("Mileage")
	kind     = feature.NewDiscreteFeature("Type", []string{"Small", "Compact", "Large"})
	features = []feature.Feature{price, mileage, kind}
)

func TestSQLite3Set(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cars.db")
	adapter, err := New(path, 1)
	require.NoError(t, err)
	defer adapter.Close()

	set, err := sqldataset.Create(ctx, adapter, features)
	require.NoError(t, err)
	n, err := set.Write(ctx, []dataset.Sample{
		dataset.NewSample(map[string]interface{}{"Price": 8.0, "Mileage": 33.0, "Type": "Small"}),
		dataset.NewSample(map[string]interface{}{"Price": 10.0, "Mileage": 30.0, "Type": "Compact"}),
		dataset.NewSample(map[string]interface{}{"Price": 12.0, "Type": "Compact"}),
		dataset.NewSample(map[string]interface{}{"Price": 20.0, "Mileage": 20.0, "Type": "Large"}),
		dataset.NewSample(map[string]interface{}{"Mileage": 21.0}),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	opened, err := sqldataset.Open(ctx, adapter, features)
	require.NoError(t, err)
	count, err := opened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	st, err := opened.Stats(ctx, price)
	require.NoError(t, err)
	assert.Equal(t, 4, st.Count)
	assert.InDelta(t, 12.5, st.Mean, 1e-9)
	assert.InDelta(t, 83.0, st.Deviance, 1e-9)

	compact, err := opened.SubsetWith(ctx, feature.NewDiscreteCriterion(kind, "Compact", "Large"))
	require.NoError(t, err)
	efficient, err := compact.SubsetWith(ctx, feature.NewContinuousCriterion(mileage, 25, 1e300))
	require.NoError(t, err)
	samples, err := efficient.Samples(ctx)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	v, err := samples[0].ValueFor(ctx, kind)
	require.NoError(t, err)
	assert.Equal(t, "Compact", v)
	v, err = samples[0].ValueFor(ctx, price)
	require.NoError(t, err)
	assert.Equal(t, 10.0, v)

	all, err := opened.Samples(ctx)
	require.NoError(t, err)
	require.Len(t, all, 5)
	v, err = all[2].ValueFor(ctx, mileage)
	require.NoError(t, err)
	assert.Nil(t, v)

	stream, errs := opened.Read(ctx)
	var streamed int
	for range stream {
		streamed++
	}
	assert.NoError(t, <-errs)
	assert.Equal(t, 5, streamed)
}
