package dataset

import (
	"context"
	"fmt"

	"github.com/pbanos/pollard/feature"
)

const (
	sampleCountThresholdForDatasetImplementation = 1000
)

/*
Dataset represents a collection of samples.

Its Stats method returns the number of samples defining a value for a
continuous feature along the mean and deviance (sum of squared deviations
from the mean) of those values.

Its SubsetWith method takes a feature.Criterion and returns a subset that only
contains samples that satisfy it.

Its Samples method returns the samples it contains and its Count method
how many there are.
*/
type Dataset interface {
	Stats(context.Context, feature.Feature) (Stats, error)
	SubsetWith(context.Context, feature.Criterion) (Dataset, error)
	Samples(context.Context) ([]Sample, error)
	Count(context.Context) (int, error)
}

type memoryIntensiveSubsettingDataset struct {
	stats   map[string]Stats
	samples []Sample
}

type cpuIntensiveSubsettingDataset struct {
	stats    map[string]Stats
	count    *int
	samples  []Sample
	criteria []feature.Criterion
}

/*
New takes a slice of samples and returns a dataset built with them.
The dataset will be a CPU intensive one when the number of samples is
over sampleCountThresholdForDatasetImplementation
*/
func New(samples []Sample) Dataset {
	if len(samples) > sampleCountThresholdForDatasetImplementation {
		return NewCPUIntensive(samples)
	}
	return NewMemoryIntensive(samples)
}

/*
NewMemoryIntensive takes a slice of samples and returns a Dataset
built with them. A memory-intensive dataset is an implementation that
replicates the slice of samples when subsetting to reduce
calculations at the cost of increased memory.
*/
func NewMemoryIntensive(samples []Sample) Dataset {
	return &memoryIntensiveSubsettingDataset{make(map[string]Stats), samples}
}

/*
NewCPUIntensive takes a slice of samples and returns a Dataset
built with them. A cpu-intensive dataset is an implementation that
instead of replicating the samples when subsetting, stores the
applying feature criteria to define the subset and keeps the same
sample slice. Every calculation that goes over the samples of the
dataset applies the feature criteria of the dataset on all original
samples (the ones provided to this method).
*/
func NewCPUIntensive(samples []Sample) Dataset {
	return &cpuIntensiveSubsettingDataset{make(map[string]Stats), nil, samples, nil}
}

func (s *memoryIntensiveSubsettingDataset) Count(ctx context.Context) (int, error) {
	return len(s.samples), nil
}

func (s *cpuIntensiveSubsettingDataset) Count(ctx context.Context) (int, error) {
	if s.count != nil {
		return *s.count, nil
	}
	var length int
	err := s.iterateOnDataset(ctx, func(_ Sample) (bool, error) {
		length++
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	s.count = &length
	return length, nil
}

func (s *memoryIntensiveSubsettingDataset) Stats(ctx context.Context, f feature.Feature) (Stats, error) {
	if st, ok := s.stats[f.Name()]; ok {
		return st, nil
	}
	var values []float64
	for _, sample := range s.samples {
		v, ok, err := floatValue(ctx, sample, f)
		if err != nil {
			return Stats{}, err
		}
		if ok {
			values = append(values, v)
		}
	}
	st := Summarize(values)
	s.stats[f.Name()] = st
	return st, nil
}

func (s *cpuIntensiveSubsettingDataset) Stats(ctx context.Context, f feature.Feature) (Stats, error) {
	if st, ok := s.stats[f.Name()]; ok {
		return st, nil
	}
	var values []float64
	err := s.iterateOnDataset(ctx, func(sample Sample) (bool, error) {
		v, ok, err := floatValue(ctx, sample, f)
		if err != nil {
			return false, err
		}
		if ok {
			values = append(values, v)
		}
		return true, nil
	})
	if err != nil {
		return Stats{}, err
	}
	st := Summarize(values)
	s.stats[f.Name()] = st
	return st, nil
}

func (s *memoryIntensiveSubsettingDataset) SubsetWith(ctx context.Context, fc feature.Criterion) (Dataset, error) {
	var samples []Sample
	for _, sample := range s.samples {
		ok, err := fc.SatisfiedBy(ctx, sample)
		if err != nil {
			return nil, err
		}
		if ok {
			samples = append(samples, sample)
		}
	}
	return NewMemoryIntensive(samples), nil
}

func (s *cpuIntensiveSubsettingDataset) SubsetWith(ctx context.Context, fc feature.Criterion) (Dataset, error) {
	criteria := make([]feature.Criterion, 0, len(s.criteria)+1)
	criteria = append(criteria, s.criteria...)
	criteria = append(criteria, fc)
	return &cpuIntensiveSubsettingDataset{make(map[string]Stats), nil, s.samples, criteria}, nil
}

func (s *memoryIntensiveSubsettingDataset) Samples(ctx context.Context) ([]Sample, error) {
	return s.samples, nil
}

func (s *cpuIntensiveSubsettingDataset) Samples(ctx context.Context) ([]Sample, error) {
	var samples []Sample
	err := s.iterateOnDataset(ctx, func(sample Sample) (bool, error) {
		samples = append(samples, sample)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return samples, nil
}

func (s *cpuIntensiveSubsettingDataset) iterateOnDataset(ctx context.Context, lambda func(Sample) (bool, error)) error {
	for _, sample := range s.samples {
		if err := ctx.Err(); err != nil {
			return err
		}
		skip := false
		for _, criterion := range s.criteria {
			ok, err := criterion.SatisfiedBy(ctx, sample)
			if err != nil {
				return err
			}
			if !ok {
				skip = true
				break
			}
		}
		if !skip {
			ok, err := lambda(sample)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
		}
	}
	return nil
}

// floatValue returns the value of a sample for a continuous feature and
// whether it is defined.
func floatValue(ctx context.Context, s Sample, f feature.Feature) (float64, bool, error) {
	v, err := s.ValueFor(ctx, f)
	if err != nil {
		return 0, false, err
	}
	if v == nil {
		return 0, false, nil
	}
	fv, ok := v.(float64)
	if !ok {
		return 0, false, fmt.Errorf("expected float64 value for feature %s, got %T", f.Name(), v)
	}
	return fv, fv == fv, nil
}
