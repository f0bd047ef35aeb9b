package sample

import (
	"math/rand/v2"
)

// ZeroInflated is a sample set of len(Values)+Zeros logical draws, of which
// Zeros are implicit zeros. It is also the wire shape of estimates.
type ZeroInflated struct {
	Values []float64 `json:"samples"`
	Zeros  int       `json:"num_zeros"`
}

// Len is the logical number of draws.
func (z ZeroInflated) Len() int {
	return len(z.Values) + z.Zeros
}

func (z ZeroInflated) Sum() float64 {
	return Sum(z.Values)
}

// Mean averages over every logical draw, implicit zeros included.
func (z ZeroInflated) Mean() float64 {
	if z.Len() == 0 {
		return 0
	}
	return z.Sum() / float64(z.Len())
}

func (z ZeroInflated) ZeroProportion() float64 {
	if z.Len() == 0 {
		return 0
	}
	return float64(z.Zeros) / float64(z.Len())
}

// Mul multiplies the stored values by factors, which must match their length.
func (z ZeroInflated) Mul(factors []float64) ZeroInflated {
	return ZeroInflated{Values: Mul(z.Values, factors), Zeros: z.Zeros}
}

// Resize returns a set with exactly target stored values while keeping the
// zero proportion. Short sets are padded with explicit zeros taken out of the
// implicit count; long sets are subsampled without replacement and the
// implicit count is scaled down with them.
func (z ZeroInflated) Resize(rng *rand.Rand, target int) ZeroInflated {
	n := len(z.Values)
	switch {
	case n < target:
		values := make([]float64, target)
		copy(values, z.Values)
		zeros := z.Zeros - (target - n)
		if zeros < 0 {
			zeros = 0
		}
		return ZeroInflated{Values: values, Zeros: zeros}
	case n > target:
		values := Choose(rng, z.Values, target)
		zeros := int(float64(z.Zeros) * float64(target) / float64(n))
		return ZeroInflated{Values: values, Zeros: zeros}
	}
	values := make([]float64, n)
	copy(values, z.Values)
	return ZeroInflated{Values: values, Zeros: z.Zeros}
}
