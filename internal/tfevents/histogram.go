package tfevents

import (
	"errors"
	"fmt"
	"math"
	"runtime/debug"
	"sort"
	"sync"
)

// defaultEdges returns TensorFlow's default histogram bin edges.
//
// The positive edges are 1e-12 * 1.1^k up to 1e20, mirrored for negative
// values, with 0 in the middle. The result is sorted.
//
// Source: https://github.com/lanpa/tensorboardX/blob/9cb6d7d3a28bd35c5e6ecd8d2b1a2e5d1bf10fd5/tensorboardX/summary.py#L132-L141
var defaultEdges = sync.OnceValue(func() []float64 {
	var positive []float64
	for v := 1e-12; v < 1e20; v *= 1.1 {
		positive = append(positive, v)
	}

	edges := make([]float64, 0, 2*len(positive)+1)
	for i := len(positive) - 1; i >= 0; i-- {
		edges = append(edges, -positive[i])
	}
	edges = append(edges, 0)
	edges = append(edges, positive...)
	return edges
})

// NewHistogram summarizes values into a HistogramProto with TensorFlow's
// default buckets.
//
// Empty buckets before the first and after the last non-empty bucket are
// dropped, except that one empty leading bucket is kept so that the first
// non-empty bucket has a finite lower edge.
//
// Values beyond ±1e20 are counted in the outermost buckets. It is an error
// if values is empty or contains NaN or infinity.
func NewHistogram(values []float64) (*Histogram, error) {
	if len(values) == 0 {
		return nil, errors.New("tfevents: cannot make a histogram of no values")
	}

	edges := defaultEdges()
	counts := make([]float64, len(edges)-1)

	histo := &Histogram{
		Min: math.Inf(1),
		Max: math.Inf(-1),
		Num: float64(len(values)),
	}

	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("tfevents: histogram value is not finite: %v", v)
		}

		histo.Min = min(histo.Min, v)
		histo.Max = max(histo.Max, v)
		histo.Sum += v
		histo.SumSquares += v * v

		// Bin i is [edges[i], edges[i+1]).
		bin := sort.Search(len(edges), func(k int) bool { return edges[k] > v }) - 1
		bin = min(max(bin, 0), len(counts)-1)
		counts[bin]++
	}

	first, last := 0, len(counts)-1
	for counts[first] == 0 {
		first++
	}
	for counts[last] == 0 {
		last--
	}

	// Each bucket is paired with its right edge; the leading empty
	// bucket's right edge is the left edge of the first non-empty bin.
	histo.BucketLimit = append([]float64{edges[first]}, edges[first+1:last+2]...)
	histo.Bucket = append([]float64{0}, counts[first:last+1]...)

	return histo, nil
}

// Rebin returns a copy of the histogram with at most maxBins non-empty
// buckets, preserving the total count.
//
// Histograms that already have few enough buckets are returned unchanged.
func Rebin(histo *Histogram, maxBins int) (*Histogram, error) {
	if maxBins < 1 {
		return nil, fmt.Errorf("tfevents: invalid bin count %d", maxBins)
	}

	edges, weights, err := histo.binEdges()
	if err != nil {
		return nil, err
	}

	if len(weights) <= maxBins {
		return histo, nil
	}

	newEdges, newWeights, err := reduceHistogram(maxBins, edges, weights)
	if err != nil {
		return nil, fmt.Errorf("tfevents: error rebinning histogram: %v", err)
	}

	rebinned := *histo
	rebinned.BucketLimit = newEdges
	rebinned.Bucket = append([]float64{0}, newWeights...)
	return &rebinned, nil
}

// binEdges converts TensorBoard's bucket limits into adjacent finite bins.
//
// TB defines the first bucket as (-inf, BucketLimit[0]]. If it is empty it
// is dropped; otherwise Min is used as its left edge.
func (h *Histogram) binEdges() (edges []float64, weights []float64, err error) {
	limits, counts := h.BucketLimit, h.Bucket

	switch {
	case len(limits) == 0:
		return nil, nil, errors.New("tfevents: invalid histogram: no buckets")
	case len(limits) != len(counts):
		return nil, nil, errors.New("tfevents: invalid histogram: len(BucketLimit) != len(Bucket)")
	case counts[0] == 0:
		return limits, counts[1:], nil
	case h.Min < limits[0]:
		return append([]float64{h.Min}, limits...), counts, nil
	default:
		return nil, nil, errors.New("tfevents: invalid histogram: Min >= BucketLimit[0]")
	}
}

// reduceHistogram returns a histogram with fewer bins preserving their total
// and the bin edge distribution.
func reduceHistogram(
	desiredBins int,
	oldEdges []float64,
	oldWeights []float64,
) (newEdges []float64, newWeights []float64, err error) {
	// Index arithmetic below is safe for non-obvious reasons, so turn any
	// panic into an error.
	defer func() {
		if recovered := recover(); recovered != nil {
			newEdges = nil
			newWeights = nil
			err = fmt.Errorf("panic: %v\n%s", recovered, string(debug.Stack()))
		}
	}()

	newEdges, err = reduceEdges(desiredBins, oldEdges)
	if err != nil {
		return nil, nil, err
	}

	newWeights = make([]float64, desiredBins)
	oldBinIdx := 0

	for newBinIdx := 0; newBinIdx < desiredBins; newBinIdx++ {
		// Whole old bins that end before the new bin's right edge.
		for oldEdges[oldBinIdx+1] < newEdges[newBinIdx+1] {
			newWeights[newBinIdx] += oldWeights[oldBinIdx]
			oldBinIdx++
		}

		// An old bin straddling the new right edge is split proportionally.
		oldLeftEdge := oldEdges[oldBinIdx]
		oldRightEdge := oldEdges[oldBinIdx+1]
		newRightEdge := newEdges[newBinIdx+1]

		if newRightEdge <= oldRightEdge {
			frac := (newRightEdge - oldLeftEdge) / (oldRightEdge - oldLeftEdge)

			newWeights[newBinIdx] += frac * oldWeights[oldBinIdx]
			newWeights[min(newBinIdx+1, len(newWeights)-1)] +=
				(1 - frac) * oldWeights[oldBinIdx]

			oldBinIdx++
		}
	}

	return newEdges, newWeights, nil
}

// reduceEdges picks desiredBins+1 edges spread evenly by index over the old
// edges, interpolating between them.
func reduceEdges(desiredBins int, oldEdges []float64) ([]float64, error) {
	if len(oldEdges) < 1 {
		return nil, errors.New("invalid histogram")
	}

	oldBinCount := len(oldEdges) - 1
	if desiredBins >= oldBinCount {
		return nil, fmt.Errorf("%d is not smaller than %d", desiredBins, oldBinCount)
	}

	step := oldBinCount / desiredBins
	fracStep := oldBinCount % desiredBins

	newEdges := make([]float64, desiredBins+1)
	newEdges[0] = oldEdges[0]
	newEdges[desiredBins] = oldEdges[oldBinCount]

	// The position in oldEdges is idx + frac/desiredBins, tracked with
	// integers so that idx = floor(newIdx * oldBinCount / desiredBins) is
	// always below oldBinCount.
	idx := step
	frac := fracStep

	for newIdx := 1; newIdx < desiredBins; newIdx++ {
		left := oldEdges[idx]
		right := oldEdges[idx+1]

		newEdges[newIdx] = left + (right-left)*(float64(frac)/float64(desiredBins))

		idx += step
		frac += fracStep
		if frac >= desiredBins {
			idx++
			frac -= desiredBins
		}
	}

	return newEdges, nil
}
