package dataset

import (
	"context"
	"fmt"
	"math"

	"github.com/pbanos/pollard/feature"
)

/*
Frame is a read-only, column oriented copy of the samples of a dataset
restricted to a continuous label and a list of features, as needed to
grow a regression tree on them.

Samples without a value for the label are not copied; Dropped returns how
many of them were left out. Missing feature values are kept as NaN, and
discrete values are kept as the index of their label in the feature's
available values.
*/
type Frame struct {
	label     *feature.ContinuousFeature
	features  []feature.Feature
	positions map[string]int
	target    []float64
	columns   [][]float64
	dropped   int
}

/*
NewFrame takes a context, a dataset, a label feature and a slice of features
and returns a Frame with the values of the dataset samples for them. The label
is removed from the features if present. An error is returned if the label is
not continuous, if the dataset cannot be read or if a sample holds a value
that does not fit its feature.
*/
func NewFrame(ctx context.Context, ds Dataset, label feature.Feature, features []feature.Feature) (*Frame, error) {
	cl, ok := label.(*feature.ContinuousFeature)
	if !ok {
		return nil, fmt.Errorf("label feature %s must be continuous, got %T", label.Name(), label)
	}
	fr := &Frame{label: cl, positions: make(map[string]int)}
	for _, f := range features {
		if f.Name() == label.Name() {
			continue
		}
		switch f.(type) {
		case *feature.ContinuousFeature, *feature.DiscreteFeature:
		default:
			return nil, fmt.Errorf("unknown feature type %T for feature %v", f, f.Name())
		}
		fr.positions[f.Name()] = len(fr.features)
		fr.features = append(fr.features, f)
	}
	fr.columns = make([][]float64, len(fr.features))
	samples, err := ds.Samples(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading dataset samples: %w", err)
	}
	for i, s := range samples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		y, defined, err := floatValue(ctx, s, cl)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		if !defined {
			fr.dropped++
			continue
		}
		row := make([]float64, len(fr.features))
		for j, f := range fr.features {
			row[j], err = cellValue(ctx, s, f)
			if err != nil {
				return nil, fmt.Errorf("sample %d: %w", i, err)
			}
		}
		fr.target = append(fr.target, y)
		for j, v := range row {
			fr.columns[j] = append(fr.columns[j], v)
		}
	}
	return fr, nil
}

func cellValue(ctx context.Context, s Sample, f feature.Feature) (float64, error) {
	v, err := s.ValueFor(ctx, f)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return math.NaN(), nil
	}
	switch f := f.(type) {
	case *feature.DiscreteFeature:
		sv, ok := v.(string)
		if !ok {
			return 0, fmt.Errorf("expected string value for discrete feature %s, got %T", f.Name(), v)
		}
		i, ok := f.IndexOf(sv)
		if !ok {
			return 0, fmt.Errorf("unknown value %q for discrete feature %s", sv, f.Name())
		}
		return float64(i), nil
	default:
		fv, ok := v.(float64)
		if !ok {
			return 0, fmt.Errorf("expected float64 value for continuous feature %s, got %T", f.Name(), v)
		}
		return fv, nil
	}
}

// Label returns the feature whose values are the target of the frame.
func (fr *Frame) Label() *feature.ContinuousFeature {
	return fr.label
}

// Features returns the features of the frame in schema order.
func (fr *Frame) Features() []feature.Feature {
	return fr.features
}

// Len returns the number of records in the frame.
func (fr *Frame) Len() int {
	return len(fr.target)
}

// Dropped returns the number of samples left out for not having a label value.
func (fr *Frame) Dropped() int {
	return fr.dropped
}

// Target returns the label value of the i-th record.
func (fr *Frame) Target(i int) float64 {
	return fr.target[i]
}

// Value returns the value of the i-th record for the j-th feature: NaN when
// missing, the label index for discrete features.
func (fr *Frame) Value(i, j int) float64 {
	return fr.columns[j][i]
}

// TargetStats summarizes the label values of the given records, or of all
// records if indices is nil.
func (fr *Frame) TargetStats(indices []int) Stats {
	if indices == nil {
		return Summarize(fr.target)
	}
	values := make([]float64, len(indices))
	for k, i := range indices {
		values[k] = fr.target[i]
	}
	return Summarize(values)
}

/*
Subset returns a new frame holding the records with the given indices,
in the given order.
*/
func (fr *Frame) Subset(indices []int) *Frame {
	sub := &Frame{
		label:     fr.label,
		features:  fr.features,
		positions: fr.positions,
		target:    make([]float64, len(indices)),
		columns:   make([][]float64, len(fr.columns)),
	}
	for k, i := range indices {
		sub.target[k] = fr.target[i]
	}
	for j, column := range fr.columns {
		sub.columns[j] = make([]float64, len(indices))
		for k, i := range indices {
			sub.columns[j][k] = column[i]
		}
	}
	return sub
}

// Row returns the i-th record as a Sample.
func (fr *Frame) Row(i int) Sample {
	return &frameRow{fr, i}
}

type frameRow struct {
	frame *Frame
	i     int
}

func (r *frameRow) ValueFor(_ context.Context, f feature.Feature) (interface{}, error) {
	if f.Name() == r.frame.label.Name() {
		return r.frame.target[r.i], nil
	}
	j, ok := r.frame.positions[f.Name()]
	if !ok {
		return nil, nil
	}
	v := r.frame.columns[j][r.i]
	if math.IsNaN(v) {
		return nil, nil
	}
	if df, ok := r.frame.features[j].(*feature.DiscreteFeature); ok {
		return df.AvailableValues()[int(v)], nil
	}
	return v, nil
}
