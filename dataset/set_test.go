package dataset

import (
	"context"
	"math"
	"testing"

	"github.com/pbanos/pollard/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	price   = feature.NewContinuousFeature("Price")
	mileage = feature.NewContinuousFeature("Mileage")
	kind    = feature.NewDiscreteFeature("Type", []string{"Small", "Compact", "Large"})
)

func carSamples() []Sample {
	return []Sample{
		NewSample(map[string]interface{}{"Price": 8.0, "Mileage": 33.0, "Type": "Small"}),
		NewSample(map[string]interface{}{"Price": 10.0, "Mileage": 30.0, "Type": "Compact"}),
		NewSample(map[string]interface{}{"Price": 12.0, "Mileage": nil, "Type": "Compact"}),
		NewSample(map[string]interface{}{"Price": 20.0, "Mileage": 20.0, "Type": "Large"}),
		NewSample(map[string]interface{}{"Price": nil, "Mileage": 21.0, "Type": nil}),
	}
}

func TestDatasetImplementations(t *testing.T) {
	implementations := map[string]func([]Sample) Dataset{
		"memory": NewMemoryIntensive,
		"cpu":    NewCPUIntensive,
	}
	for name, newDataset := range implementations {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ds := newDataset(carSamples())

			count, err := ds.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 5, count)

			st, err := ds.Stats(ctx, price)
			require.NoError(t, err)
			assert.Equal(t, 4, st.Count)
			assert.InDelta(t, 12.5, st.Mean, 1e-12)
			assert.InDelta(t, 4.5*4.5+2.5*2.5+0.5*0.5+7.5*7.5, st.Deviance, 1e-9)

			sub, err := ds.SubsetWith(ctx, feature.NewDiscreteCriterion(kind, "Compact", "Large"))
			require.NoError(t, err)
			count, err = sub.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 3, count)

			sub, err = sub.SubsetWith(ctx, feature.NewContinuousCriterion(mileage, 25, math.Inf(1)))
			require.NoError(t, err)
			samples, err := sub.Samples(ctx)
			require.NoError(t, err)
			require.Len(t, samples, 1)
			v, err := samples[0].ValueFor(ctx, price)
			require.NoError(t, err)
			assert.Equal(t, 10.0, v)

			st, err = sub.Stats(ctx, price)
			require.NoError(t, err)
			assert.Equal(t, Stats{Count: 1, Mean: 10}, st)
		})
	}
}

func TestStatsRejectsNonNumericValues(t *testing.T) {
	ds := New([]Sample{NewSample(map[string]interface{}{"Price": "cheap"})})
	_, err := ds.Stats(context.Background(), price)
	assert.Error(t, err)
}

func TestStatsFromSumsMatchesSummarize(t *testing.T) {
	values := []float64{3, 5, 8, 13, 21}
	var sum, sumsq float64
	for _, v := range values {
		sum += v
		sumsq += v * v
	}
	want := Summarize(values)
	got := StatsFromSums(len(values), sum, sumsq)
	assert.Equal(t, want.Count, got.Count)
	assert.InDelta(t, want.Mean, got.Mean, 1e-12)
	assert.InDelta(t, want.Deviance, got.Deviance, 1e-9)
	assert.Equal(t, Stats{}, StatsFromSums(0, 0, 0))
}
