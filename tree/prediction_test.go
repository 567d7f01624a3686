package tree

import (
	"context"
	"errors"
	"testing"

	"github.com/pbanos/pollard/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSample map[string]interface{}

func sampleOf(values mapSample) dataset.Sample {
	return dataset.NewSample(values)
}

func TestPredict(t *testing.T) {
	tr := carTree(t)
	tests := []struct {
		name   string
		sample mapSample
		want   float64
	}{
		{"low mileage large", mapSample{"mileage": 20.0, "kind": "Large"}, 30},
		{"low mileage small", mapSample{"mileage": 20.0, "kind": "Small"}, 16},
		{"high mileage", mapSample{"mileage": 30.0}, 5},
		{"threshold goes right", mapSample{"mileage": 25.0, "kind": "Large"}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tr.Predict(context.Background(), sampleOf(tt.sample))
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)
		})
	}
}

func TestPredictMissing(t *testing.T) {
	tr := carTree(t)
	s := sampleOf(mapSample{"mileage": 20.0})

	_, err := tr.Predict(context.Background(), s)
	var mfe *MissingFieldError
	require.True(t, errors.As(err, &mfe))
	assert.Equal(t, "kind", mfe.Feature)
	assert.Equal(t, 2, mfe.NodeID)

	tr.Missing = MajorityBranch
	p, err := tr.Predict(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 16.0, p)

	p, err = tr.Predict(context.Background(), sampleOf(mapSample{"kind": "Large"}))
	require.NoError(t, err)
	assert.Equal(t, 30.0, p)

	p, err = tr.Predict(context.Background(), sampleOf(mapSample{"mileage": 10.0, "kind": "Huge"}))
	require.NoError(t, err)
	assert.Equal(t, 16.0, p)
}

func TestPredictEmptyTree(t *testing.T) {
	_, err := (&Tree{}).Predict(context.Background(), sampleOf(mapSample{}))
	assert.Equal(t, ErrEmptyTree, err)
}
