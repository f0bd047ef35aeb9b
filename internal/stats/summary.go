package stats

import (
	"slices"

	mfstats "github.com/montanaflynn/stats"

	"ccm/internal/sample"
)

// Summary describes a zero-inflated sample set. Percentiles interpolate over
// the full logical set, zeros included.
type Summary struct {
	N              int     `json:"n"`
	Mean           float64 `json:"mean"`
	Median         float64 `json:"median"`
	P5             float64 `json:"p5"`
	P25            float64 `json:"p25"`
	P75            float64 `json:"p75"`
	P95            float64 `json:"p95"`
	Min            float64 `json:"min"`
	Max            float64 `json:"max"`
	ZeroProportion float64 `json:"zero_proportion"`
	// NonZeroMedian is the median of the stored samples alone.
	NonZeroMedian float64 `json:"non_zero_median"`
}

func Summarize(z sample.ZeroInflated) Summary {
	n := z.Len()
	if n == 0 {
		return Summary{}
	}
	sorted := slices.Clone(z.Values)
	slices.Sort(sorted)

	s := Summary{
		N:              n,
		Mean:           z.Mean(),
		Median:         quantile(sorted, z.Zeros, 0.5),
		P5:             quantile(sorted, z.Zeros, 0.05),
		P25:            quantile(sorted, z.Zeros, 0.25),
		P75:            quantile(sorted, z.Zeros, 0.75),
		P95:            quantile(sorted, z.Zeros, 0.95),
		ZeroProportion: z.ZeroProportion(),
		NonZeroMedian:  CalculateMedianContinuous(sorted),
	}
	if len(sorted) > 0 {
		s.Min, _ = mfstats.Min(sorted)
		s.Max, _ = mfstats.Max(sorted)
	}
	if z.Zeros > 0 {
		s.Min = min(s.Min, 0)
		s.Max = max(s.Max, 0)
	}
	return s
}

// SummarizeSparse summarises the logical array of s.
func SummarizeSparse(s sample.Sparse) Summary {
	return Summarize(s.ZeroInflated())
}

// SummarizeDense summarises a plain sample vector.
func SummarizeDense(values []float64) Summary {
	return Summarize(sample.ZeroInflated{Values: values})
}
