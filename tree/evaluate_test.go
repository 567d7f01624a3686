package tree

import (
	"context"
	"math"
	"testing"

	"github.com/pbanos/pollard/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSet() dataset.Dataset {
	return dataset.New([]dataset.Sample{
		sampleOf(mapSample{"price": 28.0, "mileage": 20.0, "kind": "Large"}),
		sampleOf(mapSample{"price": 18.0, "mileage": 22.0, "kind": "Small"}),
		sampleOf(mapSample{"price": 5.0, "mileage": 30.0, "kind": "Compact"}),
		sampleOf(mapSample{"mileage": 10.0}),
		sampleOf(mapSample{"price": 10.0, "mileage": 20.0}),
	})
}

func TestTest(t *testing.T) {
	tr := carTree(t)
	result, err := tr.Test(context.Background(), testSet())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Count)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Failed)
	assert.InDelta(t, math.Sqrt(8.0/3.0), result.RMSE, 1e-12)
	assert.InDelta(t, 4.0/3.0, result.MAE, 1e-12)
	require.Len(t, result.Predictions, 5)
	assert.Equal(t, []float64{30, 16, 5}, result.Predictions[:3])
	assert.True(t, math.IsNaN(result.Predictions[3]))
	assert.True(t, math.IsNaN(result.Predictions[4]))

	tr.Missing = MajorityBranch
	result, err = tr.Test(context.Background(), testSet())
	require.NoError(t, err)
	assert.Equal(t, 4, result.Count)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 16.0, result.Predictions[4])
}

func TestTestWithoutLabels(t *testing.T) {
	ds := dataset.New([]dataset.Sample{sampleOf(mapSample{"mileage": 10.0})})
	result, err := carTree(t).Test(context.Background(), ds)
	assert.Equal(t, ErrNothingToTest, err)
	assert.Equal(t, 1, result.Skipped)
}

func TestLeafStats(t *testing.T) {
	tr := carTree(t)
	stats, err := LeafStats(context.Background(), tr, testSet())
	require.NoError(t, err)
	require.Len(t, stats, 5)
	byID := make(map[int]*NodeStats)
	for _, ns := range stats {
		byID[ns.Node.ID] = ns
	}
	assert.Equal(t, 4, byID[1].Stats.Count)
	assert.Equal(t, 3, byID[2].Stats.Count)
	assert.Equal(t, dataset.Stats{Count: 1, Mean: 28}, byID[4].Stats)
	assert.InDelta(t, 4.0, byID[4].SSE, 1e-12)
	assert.InDelta(t, 4.0, byID[5].SSE, 1e-12)
	assert.InDelta(t, 0.0, byID[3].SSE, 1e-12)
}
