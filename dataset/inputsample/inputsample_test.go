package inputsample

import (
	"context"
	"strings"
	"testing"

	"github.com/pbanos/pollard/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRequester struct {
	requested []string
	rejected  []interface{}
}

func (rr *recordingRequester) RequestValueFor(f feature.Feature) error {
	rr.requested = append(rr.requested, f.Name())
	return nil
}

func (rr *recordingRequester) RejectValueFor(_ feature.Feature, v interface{}) error {
	rr.rejected = append(rr.rejected, v)
	return nil
}

func TestReadSample(t *testing.T) {
	ctx := context.Background()
	mileage := feature.NewContinuousFeature("Mileage")
	kind := feature.NewDiscreteFeature("Type", []string{"Small", "Large"})
	weight := feature.NewContinuousFeature("Weight")
	rr := &recordingRequester{}
	s := New(strings.NewReader("far\n 27.5\nHuge\nLarge\n?\n"), []feature.Feature{mileage, kind, weight}, rr, "?")

	v, err := s.ValueFor(ctx, mileage)
	require.NoError(t, err)
	assert.Equal(t, 27.5, v)
	v, err = s.ValueFor(ctx, mileage)
	require.NoError(t, err)
	assert.Equal(t, 27.5, v)
	v, err = s.ValueFor(ctx, kind)
	require.NoError(t, err)
	assert.Equal(t, "Large", v)
	v, err = s.ValueFor(ctx, weight)
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.Equal(t, []string{"Mileage", "Type", "Weight"}, rr.requested)
	assert.Equal(t, []interface{}{"far", "Huge"}, rr.rejected)

	_, err = s.ValueFor(ctx, feature.NewContinuousFeature("Price"))
	assert.Error(t, err)
}

func TestReadSampleEOF(t *testing.T) {
	mileage := feature.NewContinuousFeature("Mileage")
	s := New(strings.NewReader(""), []feature.Feature{mileage}, &recordingRequester{}, "?")
	_, err := s.ValueFor(context.Background(), mileage)
	assert.ErrorContains(t, err, "EOF")
}
