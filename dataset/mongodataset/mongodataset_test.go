package mongodataset

import (
	"context"
	"math"
	"testing"

	"github.com/pbanos/pollard/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/mgo.v2/bson"
)

var (
	mileage = feature.NewContinuousFeature("Mileage")
	kind    = feature.NewDiscreteFeature("Type", []string{"Small", "Compact", "Large"})
)

func TestCriteriaQuery(t *testing.T) {
	assert.Equal(t, bson.M{}, criteriaQuery(nil))
	q := criteriaQuery([]feature.Criterion{
		feature.NewDiscreteCriterion(kind, "Small", "Large"),
		feature.NewContinuousCriterion(mileage, math.Inf(-1), 25),
		feature.NewContinuousCriterion(mileage, 20, math.Inf(1)),
	})
	expected := bson.M{"$and": []interface{}{
		bson.M{"Type": bson.M{"$in": []string{"Small", "Large"}}},
		bson.M{"Mileage": bson.M{"$type": "number", "$lt": 25.0}},
		bson.M{"Mileage": bson.M{"$type": "number", "$gte": 20.0}},
	}}
	assert.Equal(t, expected, q)
}

func TestSampleValueFor(t *testing.T) {
	ctx := context.Background()
	s := &sample{bson.M{"Mileage": 30, "Type": "Small", "_id": bson.NewObjectId()}}
	v, err := s.ValueFor(ctx, mileage)
	require.NoError(t, err)
	assert.Equal(t, 30.0, v)
	v, err = s.ValueFor(ctx, kind)
	require.NoError(t, err)
	assert.Equal(t, "Small", v)
	v, err = s.ValueFor(ctx, feature.NewContinuousFeature("Price"))
	require.NoError(t, err)
	assert.Nil(t, v)

	s = &sample{bson.M{"Mileage": "far"}}
	_, err = s.ValueFor(ctx, mileage)
	assert.Error(t, err)
}
