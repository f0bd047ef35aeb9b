package stats

import (
	"math"
	"slices"

	mfstats "github.com/montanaflynn/stats"
)

// CalculateMedianContinuous finds the median value in a slice of floats.
func CalculateMedianContinuous(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	median, err := mfstats.Median(values)
	if err != nil {
		return 0
	}
	return median
}

// quantile interpolates linearly between order statistics of a logical
// array made of the sorted stored values plus zeros implicit zeros.
func quantile(sorted []float64, zeros int, q float64) float64 {
	n := len(sorted) + zeros
	if n == 0 {
		return 0
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)

	// Implicit zeros sit after the negative stored values.
	negatives, _ := slices.BinarySearch(sorted, 0)
	at := func(i int) float64 {
		switch {
		case i < negatives:
			return sorted[i]
		case i < negatives+zeros:
			return 0
		default:
			return sorted[i-zeros]
		}
	}
	return at(lo) + frac*(at(hi)-at(lo))
}
