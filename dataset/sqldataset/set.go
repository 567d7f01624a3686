package sqldataset

import (
	"context"
	"fmt"
	"math"

	"github.com/pbanos/pollard/dataset"
	"github.com/pbanos/pollard/feature"
)

/*
Set is a dataset.Dataset backed by a SQL database to which samples can be
written and from which they can be streamed.

Its Write method takes a slice of dataset.Sample and adds them to the
database, returning how many were added and an error if not all of them
could be.

Its Read method streams the samples of the set over a channel, sending any
error found on a second channel.
*/
type Set interface {
	dataset.Dataset
	Write(context.Context, []dataset.Sample) (int, error)
	Read(context.Context) (<-chan dataset.Sample, <-chan error)
}

type dbSet struct {
	db                    Adapter
	features              []feature.Feature
	criteria              []*FeatureCriterion
	featureNamesColumns   map[string]string
	columnFeatures        map[string]feature.Feature
	discreteValues        map[int]string
	inverseDiscreteValues map[string]int
	dfColumns             []string
	cfColumns             []string
	count                 *int
	stats                 map[string]dataset.Stats
}

/*
Open takes an Adapter to a db backend and a slice of feature.Feature
and returns a Set backed by the given adapter or an error if no dataset is
available through the given adapter.

This function expects the adapter to have the samples and discrete value
tables already created, and the discrete value table initialized with all
the values of the discrete features in the features slice.
*/
func Open(ctx context.Context, dbAdapter Adapter, features []feature.Feature) (Set, error) {
	ss := &dbSet{db: dbAdapter, features: features, stats: make(map[string]dataset.Stats)}
	err := ss.initFeatureColumns()
	if err != nil {
		return nil, err
	}
	err = ss.init(ctx)
	if err != nil {
		return nil, err
	}
	return ss, nil
}

/*
Create takes an Adapter and a slice of feature.Feature and returns a Set
backed by the given adapter or an error.

This function will ensure that the samples and discrete value tables are
created on the database, and that the discrete value table has all the
values for the discrete features on the features slice.
*/
func Create(ctx context.Context, dbAdapter Adapter, features []feature.Feature) (Set, error) {
	ss := &dbSet{db: dbAdapter, features: features, stats: make(map[string]dataset.Stats)}
	err := ss.initFeatureColumns()
	if err != nil {
		return nil, err
	}
	err = ss.initDB(ctx)
	if err != nil {
		return nil, err
	}
	return ss, nil
}

func (ss *dbSet) Count(ctx context.Context) (int, error) {
	if ss.count != nil {
		return *ss.count, nil
	}
	result, err := ss.db.CountSamples(ctx, ss.criteria)
	if err == nil {
		ss.count = &result
	}
	return result, err
}

func (ss *dbSet) Stats(ctx context.Context, f feature.Feature) (dataset.Stats, error) {
	if st, ok := ss.stats[f.Name()]; ok {
		return st, nil
	}
	column, ok := ss.featureNamesColumns[f.Name()]
	if !ok {
		return dataset.Stats{}, fmt.Errorf("unknown feature %s", f.Name())
	}
	if _, ok = f.(*feature.ContinuousFeature); !ok {
		return dataset.Stats{}, fmt.Errorf("cannot compute statistics of discrete feature %s", f.Name())
	}
	count, sum, sumOfSquares, err := ss.db.SumSamples(ctx, column, ss.criteria)
	if err != nil {
		return dataset.Stats{}, err
	}
	st := dataset.StatsFromSums(count, sum, sumOfSquares)
	ss.stats[f.Name()] = st
	return st, nil
}

func (ss *dbSet) Samples(ctx context.Context) ([]dataset.Sample, error) {
	rawSamples, err := ss.db.ListSamples(ctx, ss.criteria, ss.dfColumns, ss.cfColumns)
	if err != nil {
		return nil, err
	}
	samples := make([]dataset.Sample, 0, len(rawSamples))
	for _, s := range rawSamples {
		samples = append(samples, ss.sample(s))
	}
	return samples, nil
}

func (ss *dbSet) SubsetWith(ctx context.Context, fc feature.Criterion) (dataset.Dataset, error) {
	rfc, err := NewFeatureCriteria(fc, ss.db.ColumnName, ss.inverseDiscreteValues)
	if err != nil {
		return nil, err
	}
	subsetCriteria := make([]*FeatureCriterion, 0, len(ss.criteria)+len(rfc))
	subsetCriteria = append(subsetCriteria, ss.criteria...)
	subsetCriteria = append(subsetCriteria, rfc...)
	return &dbSet{
		db:                    ss.db,
		features:              ss.features,
		criteria:              subsetCriteria,
		discreteValues:        ss.discreteValues,
		inverseDiscreteValues: ss.inverseDiscreteValues,
		featureNamesColumns:   ss.featureNamesColumns,
		columnFeatures:        ss.columnFeatures,
		dfColumns:             ss.dfColumns,
		cfColumns:             ss.cfColumns,
		stats:                 make(map[string]dataset.Stats),
	}, nil
}

func (ss *dbSet) Write(ctx context.Context, samples []dataset.Sample) (int, error) {
	if len(samples) == 0 {
		return 0, nil
	}
	rawSamples := make([]map[string]interface{}, 0, len(samples))
	for _, s := range samples {
		rs, err := ss.newRawSample(ctx, s)
		if err != nil {
			return 0, err
		}
		rawSamples = append(rawSamples, rs)
	}
	return ss.db.AddSamples(ctx, rawSamples, ss.dfColumns, ss.cfColumns)
}

func (ss *dbSet) Read(ctx context.Context) (<-chan dataset.Sample, <-chan error) {
	sampleStream := make(chan dataset.Sample)
	errStream := make(chan error)
	go func() {
		err := ss.db.IterateOnSamples(
			ctx,
			ss.criteria,
			ss.dfColumns,
			ss.cfColumns,
			func(n int, rs map[string]interface{}) (bool, error) {
				select {
				case <-ctx.Done():
					return false, nil
				case sampleStream <- ss.sample(rs):
				}
				return true, nil
			})
		if err != nil {
			go func() {
				errStream <- err
				close(errStream)
			}()
		} else {
			close(errStream)
		}
		close(sampleStream)
	}()
	return sampleStream, errStream
}

func (ss *dbSet) sample(rs map[string]interface{}) *Sample {
	return &Sample{
		Values:                rs,
		DiscreteFeatureValues: ss.discreteValues,
		FeatureNamesColumns:   ss.featureNamesColumns,
	}
}

func (ss *dbSet) initDB(ctx context.Context) error {
	err := ss.db.CreateDiscreteValuesTable(ctx)
	if err != nil {
		return err
	}
	err = ss.db.CreateSampleTable(ctx, ss.dfColumns, ss.cfColumns)
	if err != nil {
		return err
	}
	ss.discreteValues, err = ss.db.ListDiscreteValues(ctx)
	if err != nil {
		return err
	}
	_, err = ss.db.AddDiscreteValues(ctx, ss.unavailableDiscreteValues())
	if err != nil {
		return err
	}
	return ss.init(ctx)
}

func (ss *dbSet) unavailableDiscreteValues() []string {
	present := make(map[string]bool)
	for _, v := range ss.discreteValues {
		present[v] = true
	}
	var unavailable []string
	for _, f := range ss.features {
		df, ok := f.(*feature.DiscreteFeature)
		if !ok {
			continue
		}
		for _, fv := range df.AvailableValues() {
			if !present[fv] {
				present[fv] = true
				unavailable = append(unavailable, fv)
			}
		}
	}
	return unavailable
}

func (ss *dbSet) init(ctx context.Context) error {
	var err error
	ss.discreteValues, err = ss.db.ListDiscreteValues(ctx)
	if err != nil {
		return err
	}
	ss.inverseDiscreteValues = make(map[string]int)
	for k, v := range ss.discreteValues {
		ss.inverseDiscreteValues[v] = k
	}
	return nil
}

func (ss *dbSet) newRawSample(ctx context.Context, s dataset.Sample) (map[string]interface{}, error) {
	rs := make(map[string]interface{})
	for _, f := range ss.features {
		v, err := s.ValueFor(ctx, f)
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		column := ss.featureNamesColumns[f.Name()]
		switch f.(type) {
		case *feature.DiscreteFeature:
			vs, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("expected string value for discrete feature %s of sample, got %T", f.Name(), v)
			}
			id, ok := ss.inverseDiscreteValues[vs]
			if !ok {
				return nil, fmt.Errorf("unknown value %q for discrete feature %s", vs, f.Name())
			}
			rs[column] = id
		default:
			fv, ok := v.(float64)
			if !ok {
				return nil, fmt.Errorf("expected float64 value for continuous feature %s of sample, got %T", f.Name(), v)
			}
			if !math.IsNaN(fv) {
				rs[column] = fv
			}
		}
	}
	return rs, nil
}

func (ss *dbSet) initFeatureColumns() error {
	ss.columnFeatures = make(map[string]feature.Feature)
	ss.featureNamesColumns = make(map[string]string)
	for _, f := range ss.features {
		column, err := ss.db.ColumnName(f.Name())
		if err != nil {
			return fmt.Errorf("invalid feature %s: %v", f.Name(), err)
		}
		of, ok := ss.columnFeatures[column]
		if ok {
			return fmt.Errorf("%s and %s feature names translate to the same column name %s", f.Name(), of.Name(), column)
		}
		ss.columnFeatures[column] = f
		ss.featureNamesColumns[f.Name()] = column
	}
	for _, f := range ss.features {
		if _, ok := f.(*feature.DiscreteFeature); ok {
			ss.dfColumns = append(ss.dfColumns, ss.featureNamesColumns[f.Name()])
		} else {
			ss.cfColumns = append(ss.cfColumns, ss.featureNamesColumns[f.Name()])
		}
	}
	return nil
}
