package json

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pbanos/pollard/feature"
)

/*
RuleEncodeDecoder is an interface for objects
that allow encoding split rules into slices of
bytes and decoding them back to split rules.
*/
type RuleEncodeDecoder interface {

	//Encode receives a feature.SplitRule
	// and returns a slice of bytes with the rule
	//encoded or an error if the encoding could not
	//be performed for some reason.
	Encode(feature.SplitRule) ([]byte, error)

	//Decode receives a slice of bytes
	//and returns a feature.SplitRule decoded from the
	//slice of bytes or an error if the decoding
	//could not be performed for some reason.
	Decode([]byte) (feature.SplitRule, error)
}

type jsonRuleEncodeDecoder []feature.Feature

type jsonRule struct {
	Type      string   `json:"t"`
	Feature   string   `json:"f"`
	Threshold string   `json:"v,omitempty"`
	Left      []string `json:"l,omitempty"`
	Right     []string `json:"r,omitempty"`
}

// NewRuleEncodeDecoder takes a slice of feature.Feature and returns a
// RuleEncodeDecoder that marshals and unmarshals
// split rules into/from slices of bytes as JSON.
// Specifically, rules are encoded as a JSON object
// with an "f" property set to the name of the feature
// of the rule and a "t" property that can be one of
// "numeric" or "categorical":
//   - If the rule is numeric it will have a "v" property
//     with the threshold formatted so that it parses back
//     to the exact same float64
//   - If the rule is categorical it will have "l" and "r"
//     properties with the labels sent to each side
func NewRuleEncodeDecoder(features []feature.Feature) RuleEncodeDecoder {
	return jsonRuleEncodeDecoder(features)
}

func (jred jsonRuleEncodeDecoder) Encode(r feature.SplitRule) ([]byte, error) {
	switch r := r.(type) {
	case *feature.NumericSplit:
		return json.Marshal(&jsonRule{
			Type:      "numeric",
			Feature:   r.Feature().Name(),
			Threshold: strconv.FormatFloat(r.Threshold(), 'g', -1, 64),
		})
	case *feature.CategoricalSplit:
		return json.Marshal(&jsonRule{
			Type:    "categorical",
			Feature: r.Feature().Name(),
			Left:    r.LeftValues(),
			Right:   r.RightValues(),
		})
	default:
		return nil, fmt.Errorf("unknown type of feature.SplitRule %T", r)
	}
}

func (jred jsonRuleEncodeDecoder) Decode(data []byte) (feature.SplitRule, error) {
	jr := &jsonRule{}
	err := json.Unmarshal(data, jr)
	if err != nil {
		return nil, err
	}
	return jr.SplitRule(jred)
}

func (jr *jsonRule) SplitRule(features []feature.Feature) (feature.SplitRule, error) {
	f := feature.Find(features, jr.Feature)
	if f == nil {
		return nil, fmt.Errorf("unknown feature '%s'", jr.Feature)
	}
	switch jr.Type {
	case "numeric":
		cf, ok := f.(*feature.ContinuousFeature)
		if !ok {
			return nil, fmt.Errorf("expected continuous feature for numeric split but found %T feature %v", f, f.Name())
		}
		threshold, err := strconv.ParseFloat(jr.Threshold, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing threshold of split on %s: %v", f.Name(), err)
		}
		return feature.NewNumericSplit(cf, threshold), nil
	case "categorical":
		df, ok := f.(*feature.DiscreteFeature)
		if !ok {
			return nil, fmt.Errorf("expected discrete feature for categorical split but found %T feature %v", f, f.Name())
		}
		for _, v := range append(append([]string{}, jr.Left...), jr.Right...) {
			if _, ok := df.IndexOf(v); !ok {
				return nil, fmt.Errorf("unknown value %q for feature %s in categorical split", v, f.Name())
			}
		}
		return feature.NewCategoricalSplit(df, jr.Left, jr.Right), nil
	}
	return nil, fmt.Errorf("unknown split rule type '%s'", jr.Type)
}
