package dataset

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the values a continuous feature takes on a set of samples.
type Stats struct {
	// Count is the number of samples defining the value.
	Count int
	// Mean is the arithmetic mean of the values.
	Mean float64
	// Deviance is the sum of squared deviations from Mean.
	Deviance float64
}

// Summarize computes the Stats of the given values.
func Summarize(values []float64) Stats {
	st := Stats{Count: len(values)}
	switch st.Count {
	case 0:
	case 1:
		st.Mean = values[0]
	default:
		mean, variance := stat.MeanVariance(values, nil)
		st.Mean = mean
		st.Deviance = variance * float64(st.Count-1)
	}
	return st
}

// StatsFromSums builds Stats out of the count, sum and sum of squares of
// the values, as aggregated by database backends.
func StatsFromSums(count int, sum, sumOfSquares float64) Stats {
	if count == 0 {
		return Stats{}
	}
	mean := sum / float64(count)
	return Stats{
		Count:    count,
		Mean:     mean,
		Deviance: math.Max(0, sumOfSquares-sum*mean),
	}
}

func (st Stats) String() string {
	return fmt.Sprintf("n=%d mean=%g deviance=%g", st.Count, st.Mean, st.Deviance)
}
