package feature

import (
	"context"
	"fmt"
	"math"
	"strings"
)

/*
Criterion represents a constraint on a feature

Its SatisfiedBy method takes a sample and returns a boolean indicating if
the given value satisfies the feature criterion. Samples without a value
for the feature never satisfy a criterion.

Its Feature method returns the feature on which the criterion is applied.
*/
type Criterion interface {
	Feature() Feature
	SatisfiedBy(ctx context.Context, sample Sample) (bool, error)
}

/*
Sample is an interface for something that can satisfy a Criterion.

Its ValueFor method returns the value corresponding to the feature
passed as parameter, or nil if the sample does not define it.
*/
type Sample interface {
	ValueFor(context.Context, Feature) (interface{}, error)
}

/*
ContinuousCriterion represents a constraint on a continuous feature, a
range [a, b) that delimits which values it may take. The interval can be
open on one end, thus representing -Infinity or +Infinity

Its Interval method returns the start and end of the interval to which the
feature is constrained as a pair of float64 values.
*/
type ContinuousCriterion interface {
	Criterion
	Interval() (float64, float64)
}

/*
DiscreteCriterion represents a constraint on a discrete feature, a
set of labels it may take.

Its Values method returns the labels to which the feature is constrained.
*/
type DiscreteCriterion interface {
	Criterion
	Values() []string
}

type continuousCriterion struct {
	feature *ContinuousFeature
	a, b    float64
}

type discreteCriterion struct {
	feature *DiscreteFeature
	values  []string
}

/*
NewContinuousCriterion takes a ContinuousFeature feature and a pair of
float64 values indicating the start and the end of an interval and return a
ContinuousCriterion with the feature and interval. The interval can be
open on any end by providing -Inf and/or +Inf.
*/
func NewContinuousCriterion(feature *ContinuousFeature, a float64, b float64) ContinuousCriterion {
	return &continuousCriterion{feature, a, b}
}

/*
NewDiscreteCriterion takes a DiscreteFeature and the labels a sample may
take for it and returns a DiscreteCriterion.
*/
func NewDiscreteCriterion(feature *DiscreteFeature, values ...string) DiscreteCriterion {
	return &discreteCriterion{feature, values}
}

/*
Feature returns the feature to which the constraint applies.
*/
func (cfc *continuousCriterion) Feature() Feature {
	return cfc.feature
}

/*
SatisfiedBy receives a sample as parameter and returns a boolean indicating if the
sample satisfies the criterion. Specifically, it returns false if the sample does
not define a value for the feature, true if the value, being a float64, is in the
range defined by the criterion; and false otherwise.
*/
func (cfc *continuousCriterion) SatisfiedBy(ctx context.Context, sample Sample) (bool, error) {
	val, err := sample.ValueFor(ctx, cfc.feature)
	if err != nil {
		return false, err
	}
	floatVal, ok := val.(float64)
	if !ok || math.IsNaN(floatVal) {
		return false, nil
	}
	return (math.IsInf(cfc.a, -1) || cfc.a <= floatVal) && (math.IsInf(cfc.b, 1) || floatVal < cfc.b), nil
}

func (cfc *continuousCriterion) Interval() (float64, float64) {
	return cfc.a, cfc.b
}

func (cfc *continuousCriterion) String() string {
	if math.IsInf(cfc.a, -1) {
		return fmt.Sprintf("%s < %g", cfc.feature.Name(), cfc.b)
	}
	if math.IsInf(cfc.b, 1) {
		return fmt.Sprintf("%s >= %g", cfc.feature.Name(), cfc.a)
	}
	return fmt.Sprintf("%g <= %s < %g", cfc.a, cfc.feature.Name(), cfc.b)
}

/*
Feature returns the feature to which the constraint applies.
*/
func (dfc *discreteCriterion) Feature() Feature {
	return dfc.feature
}

/*
SatisfiedBy receives a sample as parameter and returns a boolean indicating if the
sample satisfies the criterion. Specifically, it returns false if the sample does
not define a value for the feature, true if the value, being a string, is one of
the labels on the criterion; and false otherwise.
*/
func (dfc *discreteCriterion) SatisfiedBy(ctx context.Context, sample Sample) (bool, error) {
	val, err := sample.ValueFor(ctx, dfc.feature)
	if err != nil {
		return false, err
	}
	stringVal, ok := val.(string)
	if !ok {
		return false, nil
	}
	return contains(dfc.values, stringVal), nil
}

func (dfc *discreteCriterion) Values() []string {
	return dfc.values
}

func (dfc *discreteCriterion) String() string {
	return fmt.Sprintf("%s in {%s}", dfc.feature.Name(), strings.Join(dfc.values, ", "))
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
