package tfevents_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandb/tblogger/internal/tfevents"
)

func sum(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total
}

func TestNewHistogram_Stats(t *testing.T) {
	histo, err := tfevents.NewHistogram([]float64{1, 2, 3, -4})

	require.NoError(t, err)
	assert.Equal(t, -4.0, histo.Min)
	assert.Equal(t, 3.0, histo.Max)
	assert.Equal(t, 4.0, histo.Num)
	assert.Equal(t, 2.0, histo.Sum)
	assert.Equal(t, 30.0, histo.SumSquares)
}

func TestNewHistogram_BucketsCountEveryValue(t *testing.T) {
	values := []float64{-1e25, -3, -0.5, 0, 0, 1e-15, 0.25, 7, 7, 1e30}

	histo, err := tfevents.NewHistogram(values)

	require.NoError(t, err)
	assert.Equal(t, float64(len(values)), sum(histo.Bucket))
	assert.Len(t, histo.BucketLimit, len(histo.Bucket))
	assert.True(t, isSorted(histo.BucketLimit))
}

func TestNewHistogram_TrimsEmptyBuckets(t *testing.T) {
	histo, err := tfevents.NewHistogram([]float64{5, 5, 5})

	require.NoError(t, err)
	assert.Equal(t, []float64{0, 3}, histo.Bucket)
	require.Len(t, histo.BucketLimit, 2)
	assert.Less(t, histo.BucketLimit[0], 5.0)
	assert.Greater(t, histo.BucketLimit[1], 5.0)
}

func TestNewHistogram_Empty(t *testing.T) {
	_, err := tfevents.NewHistogram(nil)

	assert.Error(t, err)
}

func TestNewHistogram_NonFinite(t *testing.T) {
	_, err := tfevents.NewHistogram([]float64{1, math.NaN()})

	assert.Error(t, err)
}

func TestRebin_PreservesTotal(t *testing.T) {
	values := make([]float64, 0, 1000)
	for i := range 1000 {
		values = append(values, float64(i)-500)
	}
	histo, err := tfevents.NewHistogram(values)
	require.NoError(t, err)
	require.Greater(t, len(histo.Bucket), 30)

	rebinned, err := tfevents.Rebin(histo, 30)

	require.NoError(t, err)
	assert.Len(t, rebinned.Bucket, 31)
	assert.Len(t, rebinned.BucketLimit, 31)
	assert.Zero(t, rebinned.Bucket[0])
	assert.InDelta(t, 1000, sum(rebinned.Bucket), 1e-6)
	assert.Equal(t, histo.BucketLimit[0], rebinned.BucketLimit[0])
	assert.Equal(t,
		histo.BucketLimit[len(histo.BucketLimit)-1],
		rebinned.BucketLimit[len(rebinned.BucketLimit)-1])
}

func TestRebin_FewBucketsUnchanged(t *testing.T) {
	histo, err := tfevents.NewHistogram([]float64{1, 2})
	require.NoError(t, err)

	rebinned, err := tfevents.Rebin(histo, 512)

	require.NoError(t, err)
	assert.Same(t, histo, rebinned)
}

func TestRebin_InvalidHistogram(t *testing.T) {
	_, err := tfevents.Rebin(&tfevents.Histogram{
		BucketLimit: []float64{1, 2},
		Bucket:      []float64{1},
	}, 10)

	assert.ErrorContains(t, err, "len(BucketLimit) != len(Bucket)")
}

func isSorted(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return false
		}
	}
	return true
}
