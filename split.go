package pollard

import (
	"fmt"
	"math"
	"sort"

	"github.com/pbanos/pollard/dataset"
	"github.com/pbanos/pollard/feature"
)

// minRelativeImprovement is the fraction of a node's deviance a split
// must recover to be distinguishable from rounding noise.
const minRelativeImprovement = 1e-12

/*
Partition represents the best binary split of the records of a node on a
feature of a frame: the records going to each side and the decrease of
deviance it achieves.
*/
type Partition struct {
	Feature     feature.Feature
	Rule        feature.SplitRule
	Left        []int
	Right       []int
	Improvement float64
}

type candidate struct {
	feature     int
	improvement float64
	// numeric splits
	threshold float64
	// categorical splits, as label indices
	left, right []int
}

/*
BestPartition takes a frame, the indices of the records of a node, the
deviance of the node and the minimum number of records per child and
returns the split of those records that decreases deviance the most, or nil
if no split decreases it while leaving minBucket records on each side.

Features are evaluated in frame order over the records that define them.
Ties are resolved in favour of the earlier feature and, within a feature,
of the first cut. Records without a value for the chosen feature belong
to neither side.
*/
func BestPartition(fr *dataset.Frame, records []int, deviance float64, minBucket int) (*Partition, error) {
	var best *candidate
	minImprovement := deviance * minRelativeImprovement
	for j, f := range fr.Features() {
		var c *candidate
		switch f.(type) {
		case *feature.ContinuousFeature:
			c = numericCandidate(fr, j, records, minBucket)
		case *feature.DiscreteFeature:
			c = categoricalCandidate(fr, j, records, minBucket)
		default:
			return nil, fmt.Errorf("unknown feature type %T for feature %v", f, f.Name())
		}
		if c == nil || c.improvement <= minImprovement {
			continue
		}
		if best == nil || better(c.improvement, best.improvement) {
			best = c
		}
	}
	if best == nil {
		return nil, nil
	}
	return best.partition(fr, records), nil
}

func better(a, b float64) bool {
	return a > b+1e-10*math.Abs(b)
}

// present returns the records defining a value for the j-th feature and
// the mean of their targets.
func present(fr *dataset.Frame, j int, records []int) ([]int, float64) {
	result := make([]int, 0, len(records))
	var sum float64
	for _, i := range records {
		if !math.IsNaN(fr.Value(i, j)) {
			result = append(result, i)
			sum += fr.Target(i)
		}
	}
	if len(result) == 0 {
		return result, 0
	}
	return result, sum / float64(len(result))
}

/*
numericCandidate scans the cuts between consecutive distinct values of the
j-th feature. The decrease of deviance of a cut leaving nl records with a
sum s of centered targets on the left and nr on the right is s²/nl + s²/nr.
*/
func numericCandidate(fr *dataset.Frame, j int, records []int, minBucket int) *candidate {
	rs, mean := present(fr, j, records)
	n := len(rs)
	if n < 2*minBucket {
		return nil
	}
	sort.SliceStable(rs, func(a, b int) bool {
		return fr.Value(rs[a], j) < fr.Value(rs[b], j)
	})
	var c *candidate
	var sl float64
	for k := 1; k < n; k++ {
		sl += fr.Target(rs[k-1]) - mean
		nl, nr := k, n-k
		if nl < minBucket {
			continue
		}
		if nr < minBucket {
			break
		}
		prev, next := fr.Value(rs[k-1], j), fr.Value(rs[k], j)
		if prev == next {
			continue
		}
		improvement := sl * sl * (1/float64(nl) + 1/float64(nr))
		if c == nil || better(improvement, c.improvement) {
			threshold := prev + (next-prev)/2
			if threshold <= prev {
				threshold = next
			}
			c = &candidate{feature: j, improvement: improvement, threshold: threshold}
		}
	}
	return c
}

type category struct {
	index int
	n     int
	sum   float64
}

func (c *category) mean() float64 {
	return c.sum / float64(c.n)
}

/*
categoricalCandidate orders the categories present on the records by the
mean of their centered targets and scans the cuts of that order, which
include the best grouping of categories in two for the SS criterion.
*/
func categoricalCandidate(fr *dataset.Frame, j int, records []int, minBucket int) *candidate {
	rs, mean := present(fr, j, records)
	n := len(rs)
	if n < 2*minBucket {
		return nil
	}
	byIndex := make(map[int]*category)
	for _, i := range rs {
		idx := int(fr.Value(i, j))
		c, ok := byIndex[idx]
		if !ok {
			c = &category{index: idx}
			byIndex[idx] = c
		}
		c.n++
		c.sum += fr.Target(i) - mean
	}
	if len(byIndex) < 2 {
		return nil
	}
	categories := make([]*category, 0, len(byIndex))
	for _, c := range byIndex {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(a, b int) bool {
		ma, mb := categories[a].mean(), categories[b].mean()
		if ma != mb {
			return ma < mb
		}
		return categories[a].index < categories[b].index
	})
	var best *candidate
	var sl float64
	var nl int
	for k := 1; k < len(categories); k++ {
		sl += categories[k-1].sum
		nl += categories[k-1].n
		nr := n - nl
		if nl < minBucket || nr < minBucket {
			continue
		}
		improvement := sl * sl * (1/float64(nl) + 1/float64(nr))
		if best == nil || better(improvement, best.improvement) {
			best = &candidate{feature: j, improvement: improvement, left: indices(categories[:k]), right: indices(categories[k:])}
		}
	}
	return best
}

func indices(categories []*category) []int {
	result := make([]int, len(categories))
	for i, c := range categories {
		result[i] = c.index
	}
	sort.Ints(result)
	return result
}

func (c *candidate) partition(fr *dataset.Frame, records []int) *Partition {
	p := &Partition{Feature: fr.Features()[c.feature], Improvement: c.improvement}
	var goesLeft func(v float64) bool
	switch f := p.Feature.(type) {
	case *feature.ContinuousFeature:
		p.Rule = feature.NewNumericSplit(f, c.threshold)
		goesLeft = func(v float64) bool { return v < c.threshold }
	case *feature.DiscreteFeature:
		values := f.AvailableValues()
		left := make(map[int]bool, len(c.left))
		leftLabels := make([]string, len(c.left))
		for i, idx := range c.left {
			left[idx] = true
			leftLabels[i] = values[idx]
		}
		rightLabels := make([]string, len(c.right))
		for i, idx := range c.right {
			rightLabels[i] = values[idx]
		}
		p.Rule = feature.NewCategoricalSplit(f, leftLabels, rightLabels)
		goesLeft = func(v float64) bool { return left[int(v)] }
	}
	for _, i := range records {
		v := fr.Value(i, c.feature)
		if math.IsNaN(v) {
			continue
		}
		if goesLeft(v) {
			p.Left = append(p.Left, i)
		} else {
			p.Right = append(p.Right, i)
		}
	}
	return p
}
