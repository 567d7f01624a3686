package sqldataset

import (
	"context"
	"fmt"

	"github.com/pbanos/pollard/feature"
)

/*
Sample is a dataset.Sample read from the samples table. Its Values are
indexed by column, and discrete values are held as the ID of their label on
the discrete values table.
*/
type Sample struct {
	Values                map[string]interface{}
	DiscreteFeatureValues map[int]string
	FeatureNamesColumns   map[string]string
}

func (s *Sample) ValueFor(_ context.Context, f feature.Feature) (interface{}, error) {
	column, ok := s.FeatureNamesColumns[f.Name()]
	if !ok {
		return nil, nil
	}
	v := s.Values[column]
	if v == nil {
		return nil, nil
	}
	if _, ok = f.(*feature.DiscreteFeature); ok {
		id, ok := v.(int)
		if !ok {
			return nil, fmt.Errorf("expected discrete value id for feature %s, got %T", f.Name(), v)
		}
		label, ok := s.DiscreteFeatureValues[id]
		if !ok {
			return nil, fmt.Errorf("unknown discrete value id %d for feature %s", id, f.Name())
		}
		return label, nil
	}
	return v, nil
}
