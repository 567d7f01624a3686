package json

import (
	"testing"

	"github.com/pbanos/pollard/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleEncodeDecoder(t *testing.T) {
	price := feature.NewContinuousFeature("Price")
	kind := feature.NewDiscreteFeature("Type", []string{"Small", "Compact", "Large"})
	red := NewRuleEncodeDecoder([]feature.Feature{price, kind})

	data, err := red.Encode(feature.NewNumericSplit(price, 0.1+0.2))
	require.NoError(t, err)
	r, err := red.Decode(data)
	require.NoError(t, err)
	ns, ok := r.(*feature.NumericSplit)
	require.True(t, ok)
	assert.Equal(t, 0.1+0.2, ns.Threshold(), "thresholds must survive exactly")
	assert.Equal(t, price, ns.Feature())

	data, err = red.Encode(feature.NewCategoricalSplit(kind, []string{"Small"}, []string{"Compact", "Large"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":"categorical","f":"Type","l":["Small"],"r":["Compact","Large"]}`, string(data))
	r, err = red.Decode(data)
	require.NoError(t, err)
	cs, ok := r.(*feature.CategoricalSplit)
	require.True(t, ok)
	assert.Equal(t, []string{"Small"}, cs.LeftValues())
	assert.Equal(t, []string{"Compact", "Large"}, cs.RightValues())
}

func TestRuleDecodeErrors(t *testing.T) {
	price := feature.NewContinuousFeature("Price")
	kind := feature.NewDiscreteFeature("Type", []string{"Small"})
	red := NewRuleEncodeDecoder([]feature.Feature{price, kind})
	for _, data := range []string{
		`{"t":"numeric","f":"Weight","v":"1"}`,
		`{"t":"numeric","f":"Type","v":"1"}`,
		`{"t":"categorical","f":"Price","l":["a"]}`,
		`{"t":"categorical","f":"Type","l":["Huge"]}`,
		`{"t":"numeric","f":"Price","v":"abc"}`,
		`{"t":"oblique","f":"Price"}`,
		`not json`,
	} {
		_, err := red.Decode([]byte(data))
		assert.Error(t, err, data)
	}
}
