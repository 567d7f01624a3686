/*
Package mongodataset provides a implementation of dataset.Dataset
that uses a MongoDB database as backend.
*/
package mongodataset

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/pbanos/pollard/dataset"
	"github.com/pbanos/pollard/feature"
	mgo "gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

/*
Dataset is a dataset.Dataset to which samples can be added
and from which samples can be sequentially read
*/
type Dataset interface {
	dataset.Dataset
	Write(context.Context, []dataset.Sample) (int, error)
	Read(context.Context) (<-chan dataset.Sample, <-chan error)
}

type mongodataset struct {
	session  *mgo.Session
	features []feature.Feature
	criteria []feature.Criterion
	stats    map[string]dataset.Stats
}

const (
	samplesCollectionName = "samples"
)

/*
Open takes a MongoDB database session and returns a
dataset.Dataset that works on the default database for
that session or an error if it fails to connect to it.
*/
func Open(ctx context.Context, session *mgo.Session, features []feature.Feature) (Dataset, error) {
	mds := &mongodataset{session: session, features: features, stats: make(map[string]dataset.Stats)}
	err := mds.ensureIndexes()
	if err != nil {
		return nil, err
	}
	return mds, nil
}

func (mds *mongodataset) SubsetWith(ctx context.Context, fc feature.Criterion) (dataset.Dataset, error) {
	criteria := make([]feature.Criterion, 0, len(mds.criteria)+1)
	criteria = append(criteria, mds.criteria...)
	criteria = append(criteria, fc)
	return &mongodataset{mds.session, mds.features, criteria, make(map[string]dataset.Stats)}, nil
}

/*
Stats aggregates the count, sum and sum of squares of the numeric values of
the feature on the samples of the dataset with a $group stage.
*/
func (mds *mongodataset) Stats(ctx context.Context, f feature.Feature) (dataset.Stats, error) {
	if st, ok := mds.stats[f.Name()]; ok {
		return st, nil
	}
	if _, ok := f.(*feature.ContinuousFeature); !ok {
		return dataset.Stats{}, fmt.Errorf("cannot compute statistics of discrete feature %s", f.Name())
	}
	field := fmt.Sprintf("$%s", f.Name())
	iter := mds.samplesCollection().Pipe([]bson.M{
		{"$match": criteriaQuery(mds.criteria)},
		{"$match": bson.M{f.Name(): bson.M{"$type": "number"}}},
		{"$group": bson.M{
			"_id":   nil,
			"count": bson.M{"$sum": 1},
			"sum":   bson.M{"$sum": field},
			"sumsq": bson.M{"$sum": bson.M{"$multiply": []interface{}{field, field}}},
		}},
	}).Iter()
	defer iter.Close()
	var doc bson.M
	var st dataset.Stats
	if iter.Next(&doc) {
		count, err := toFloat(doc["count"])
		if err != nil {
			return dataset.Stats{}, fmt.Errorf("aggregating %s statistics: %v", f.Name(), err)
		}
		sum, err := toFloat(doc["sum"])
		if err != nil {
			return dataset.Stats{}, fmt.Errorf("aggregating %s statistics: %v", f.Name(), err)
		}
		sumsq, err := toFloat(doc["sumsq"])
		if err != nil {
			return dataset.Stats{}, fmt.Errorf("aggregating %s statistics: %v", f.Name(), err)
		}
		st = dataset.StatsFromSums(int(count), sum, sumsq)
	}
	if err := iter.Err(); err != nil {
		return dataset.Stats{}, err
	}
	mds.stats[f.Name()] = st
	return st, nil
}

func (mds *mongodataset) Samples(ctx context.Context) ([]dataset.Sample, error) {
	var samples []dataset.Sample
	count, err := mds.Count(ctx)
	if err == nil {
		samples = make([]dataset.Sample, 0, count)
	}
	sampleChan, errs := mds.Read(ctx)
	for sample := range sampleChan {
		samples = append(samples, sample)
	}
	err = <-errs
	return samples, err
}

func (mds *mongodataset) Count(context.Context) (int, error) {
	return mds.query().Count()
}

func (mds *mongodataset) Write(ctx context.Context, samples []dataset.Sample) (int, error) {
	docs := make([]interface{}, 0, len(samples))
	for _, s := range samples {
		doc := make(bson.M)
		for _, f := range mds.features {
			value, err := s.ValueFor(ctx, f)
			if err != nil {
				return 0, err
			}
			if fv, ok := value.(float64); ok && math.IsNaN(fv) {
				continue
			}
			if value != nil {
				doc[f.Name()] = value
			}
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return 0, nil
	}
	err := mds.samplesCollection().Insert(docs...)
	if err != nil {
		return 0, err
	}
	return len(samples), nil
}

func (mds *mongodataset) Read(ctx context.Context) (<-chan dataset.Sample, <-chan error) {
	samples := make(chan dataset.Sample)
	errs := make(chan error, 1)
	go func() {
		var err error
		iter := mds.query().Iter()
		defer iter.Close()
	loop:
		for {
			doc := make(bson.M)
			if !iter.Next(&doc) {
				break
			}
			select {
			case <-ctx.Done():
				err = ctx.Err()
				break loop
			case samples <- &sample{doc}:
			}
		}
		if err == nil {
			err = iter.Err()
		}
		if err != nil {
			errs <- err
		}
		close(errs)
		close(samples)
	}()
	return samples, errs
}

func (mds *mongodataset) ensureIndexes() error {
	for _, f := range mds.features {
		fName := f.Name()
		if fName == "_id" {
			return fmt.Errorf("invalid feature name %q: reserved collection field", "_id")
		}
		if strings.ContainsAny(fName, ".$") {
			return fmt.Errorf("invalid feature name %q: contains reserved characters %q or %q", fName, ".", "$")
		}
		index := mgo.Index{
			Key:        []string{fName},
			Background: true,
			Sparse:     true,
		}
		err := mds.samplesCollection().EnsureIndex(index)
		if err != nil {
			return err
		}
	}
	return nil
}

func (mds *mongodataset) samplesCollection() *mgo.Collection {
	return mds.session.DB("").C(samplesCollectionName)
}

func (mds *mongodataset) query() *mgo.Query {
	return mds.samplesCollection().Find(criteriaQuery(mds.criteria)).Sort("_id")
}

/*
criteriaQuery translates the criteria into a MongoDB query document, a
conjunction with a condition per criterion.
*/
func criteriaQuery(criteria []feature.Criterion) bson.M {
	if len(criteria) == 0 {
		return bson.M{}
	}
	conditions := make([]interface{}, 0, len(criteria))
	for _, fc := range criteria {
		fName := fc.Feature().Name()
		switch qfc := fc.(type) {
		case feature.DiscreteCriterion:
			conditions = append(conditions, bson.M{fName: bson.M{"$in": qfc.Values()}})
		case feature.ContinuousCriterion:
			a, b := qfc.Interval()
			rangeValue := bson.M{"$type": "number"}
			if !math.IsInf(a, 0) {
				rangeValue["$gte"] = a
			}
			if !math.IsInf(b, 0) {
				rangeValue["$lt"] = b
			}
			conditions = append(conditions, bson.M{fName: rangeValue})
		}
	}
	return bson.M{"$and": conditions}
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case nil:
		return 0, nil
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}

// sample is a dataset.Sample over a document that reads integer numbers
// of continuous features as float64.
type sample struct {
	doc bson.M
}

func (s *sample) ValueFor(_ context.Context, f feature.Feature) (interface{}, error) {
	v := s.doc[f.Name()]
	if v == nil {
		return nil, nil
	}
	if _, ok := f.(*feature.ContinuousFeature); ok {
		return toFloat(v)
	}
	return v, nil
}
