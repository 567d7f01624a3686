package feature

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Branch is the side of a binary split a sample is sent to.
type Branch int

const (
	// Undefined is returned for samples that do not define
	// a usable value for the feature of a split.
	Undefined Branch = iota
	// Left is the branch for samples satisfying the left criterion.
	Left
	// Right is the branch for samples satisfying the right criterion.
	Right
)

func (b Branch) String() string {
	switch b {
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "undefined"
}

/*
SplitRule divides samples in two groups according to
their value for a feature.

Its Branch method returns the side the given sample goes to, or
Undefined when the sample has no value for the feature (or a label
the rule does not know about).

Its Criteria method returns the criteria equivalent to each side
of the split.
*/
type SplitRule interface {
	Feature() Feature
	Branch(ctx context.Context, s Sample) (Branch, error)
	Criteria() (left, right Criterion)
}

// NumericSplit sends samples whose value is below a threshold to the
// left and the rest to the right.
type NumericSplit struct {
	feature   *ContinuousFeature
	threshold float64
}

// CategoricalSplit sends samples whose label is in its left set to
// the left and those in its right set to the right.
type CategoricalSplit struct {
	feature *DiscreteFeature
	left    []string
	right   []string
}

// NewNumericSplit returns a split rule on the given feature at the given threshold.
func NewNumericSplit(f *ContinuousFeature, threshold float64) *NumericSplit {
	return &NumericSplit{f, threshold}
}

// NewCategoricalSplit returns a split rule on the given feature with the
// given label sets.
func NewCategoricalSplit(f *DiscreteFeature, left, right []string) *CategoricalSplit {
	return &CategoricalSplit{f, left, right}
}

func (ns *NumericSplit) Feature() Feature {
	return ns.feature
}

// Threshold returns the value separating left from right.
func (ns *NumericSplit) Threshold() float64 {
	return ns.threshold
}

func (ns *NumericSplit) Branch(ctx context.Context, s Sample) (Branch, error) {
	v, err := s.ValueFor(ctx, ns.feature)
	if err != nil {
		return Undefined, err
	}
	fv, ok := v.(float64)
	if !ok || math.IsNaN(fv) {
		return Undefined, nil
	}
	if fv < ns.threshold {
		return Left, nil
	}
	return Right, nil
}

func (ns *NumericSplit) Criteria() (Criterion, Criterion) {
	return NewContinuousCriterion(ns.feature, math.Inf(-1), ns.threshold),
		NewContinuousCriterion(ns.feature, ns.threshold, math.Inf(1))
}

func (ns *NumericSplit) String() string {
	return fmt.Sprintf("%s < %g", ns.feature.Name(), ns.threshold)
}

func (cs *CategoricalSplit) Feature() Feature {
	return cs.feature
}

// LeftValues returns the labels sent to the left.
func (cs *CategoricalSplit) LeftValues() []string {
	return cs.left
}

// RightValues returns the labels sent to the right.
func (cs *CategoricalSplit) RightValues() []string {
	return cs.right
}

func (cs *CategoricalSplit) Branch(ctx context.Context, s Sample) (Branch, error) {
	v, err := s.ValueFor(ctx, cs.feature)
	if err != nil {
		return Undefined, err
	}
	sv, ok := v.(string)
	if !ok {
		return Undefined, nil
	}
	if contains(cs.left, sv) {
		return Left, nil
	}
	if contains(cs.right, sv) {
		return Right, nil
	}
	return Undefined, nil
}

func (cs *CategoricalSplit) Criteria() (Criterion, Criterion) {
	return NewDiscreteCriterion(cs.feature, cs.left...), NewDiscreteCriterion(cs.feature, cs.right...)
}

func (cs *CategoricalSplit) String() string {
	return fmt.Sprintf("%s in {%s}", cs.feature.Name(), strings.Join(cs.left, ", "))
}
