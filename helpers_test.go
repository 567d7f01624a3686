package pollard

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/pbanos/pollard/dataset"
	"github.com/pbanos/pollard/feature"
	"github.com/stretchr/testify/require"
)

var (
	y     = feature.NewContinuousFeature("y")
	x     = feature.NewContinuousFeature("x")
	x2    = feature.NewContinuousFeature("x2")
	group = feature.NewDiscreteFeature("group", []string{"A", "B", "C", "D"})
)

type row map[string]interface{}

func frameOf(t *testing.T, features []feature.Feature, rows []row) *dataset.Frame {
	samples := make([]dataset.Sample, len(rows))
	for i, r := range rows {
		samples[i] = dataset.NewSample(r)
	}
	fr, err := dataset.NewFrame(context.Background(), dataset.New(samples), y, features)
	require.NoError(t, err)
	return fr
}

// stepFrame returns 40 records whose target jumps from around 10 to
// around 30 when x reaches 20.
func stepFrame(t *testing.T) *dataset.Frame {
	rows := make([]row, 40)
	for i := range rows {
		target := 10.0
		if i >= 20 {
			target = 30
		}
		rows[i] = row{"y": target + float64(i%2), "x": float64(i)}
	}
	return frameOf(t, []feature.Feature{x}, rows)
}

// noisyFrame returns records with a target depending on a continuous and
// a discrete feature plus noise, with some values missing.
func noisyFrame(t *testing.T, n int, seed int64) *dataset.Frame {
	rnd := rand.New(rand.NewSource(seed))
	rows := make([]row, n)
	labels := group.AvailableValues()
	for i := range rows {
		xv := rnd.Float64() * 100
		g := rnd.Intn(len(labels))
		target := 5*math.Sin(xv/15) + float64(g*g) + rnd.NormFloat64()
		r := row{"y": target, "x": xv, "group": labels[g], "x2": math.Floor(rnd.Float64() * 10)}
		switch rnd.Intn(10) {
		case 0:
			delete(r, "x")
		case 1:
			delete(r, "group")
		case 2:
			delete(r, "y")
		}
		rows[i] = r
	}
	return frameOf(t, []feature.Feature{x, group, x2}, rows)
}

func allRecords(fr *dataset.Frame) []int {
	records := make([]int, fr.Len())
	for i := range records {
		records[i] = i
	}
	return records
}
