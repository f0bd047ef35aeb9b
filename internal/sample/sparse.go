package sample

import (
	"fmt"
	"math/rand/v2"

	"ccm/internal/apperr"
)

// Sparse is a logical array of Length entries that stores Data at Positions
// and is zero everywhere else. Stored entries may themselves be zero.
type Sparse struct {
	Data      []float64
	Positions []int
	Length    int
}

// Scatter places values at distinct random positions of a logical array of
// len(values)+zeros entries.
func Scatter(rng *rand.Rand, values []float64, zeros int) Sparse {
	if zeros < 0 {
		zeros = 0
	}
	length := len(values) + zeros
	data := make([]float64, len(values))
	copy(data, values)
	return Sparse{
		Data:      data,
		Positions: distinctPositions(rng, length, len(values)),
		Length:    length,
	}
}

// distinctPositions draws k distinct indices in [0, n). Logical lengths can
// be far larger than memory allows to permute, so sparse draws use Floyd's
// algorithm.
func distinctPositions(rng *rand.Rand, n, k int) []int {
	if k == 0 {
		return []int{}
	}
	if n <= 4*k {
		return rng.Perm(n)[:k]
	}
	seen := make(map[int]struct{}, k)
	out := make([]int, 0, k)
	for j := n - k; j < n; j++ {
		t := rng.IntN(j + 1)
		if _, ok := seen[t]; ok {
			t = j
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	rng.Shuffle(len(out), func(a, b int) { out[a], out[b] = out[b], out[a] })
	return out
}

func (s Sparse) NNZ() int {
	return len(s.Data)
}

// Zeros counts the logical entries that are not stored.
func (s Sparse) Zeros() int {
	return s.Length - len(s.Data)
}

// WithData returns a copy of s sharing its layout with new stored values.
func (s Sparse) WithData(data []float64) Sparse {
	if len(data) != len(s.Data) {
		panic(fmt.Sprintf("sample: WithData length %d does not match nnz %d", len(data), len(s.Data)))
	}
	positions := make([]int, len(s.Positions))
	copy(positions, s.Positions)
	return Sparse{Data: data, Positions: positions, Length: s.Length}
}

func (s Sparse) Copy() Sparse {
	data := make([]float64, len(s.Data))
	copy(data, s.Data)
	return s.WithData(data)
}

func (s Sparse) Sum() float64 {
	return Sum(s.Data)
}

// Mean averages over the full logical length.
func (s Sparse) Mean() float64 {
	if s.Length == 0 {
		return 0
	}
	return s.Sum() / float64(s.Length)
}

// Dense materialises the logical array. Only sensible for small lengths.
func (s Sparse) Dense() []float64 {
	out := make([]float64, s.Length)
	for i, p := range s.Positions {
		out[p] = s.Data[i]
	}
	return out
}

func (s Sparse) ZeroInflated() ZeroInflated {
	values := make([]float64, len(s.Data))
	copy(values, s.Data)
	return ZeroInflated{Values: values, Zeros: s.Zeros()}
}

// MatchLengths brings two sparse arrays with the same number of stored values
// onto the shorter logical length. The longer array keeps a random subset of
// its values proportional to its density, padded with stored zeros, and takes
// over the shorter array's positions. Inputs are not modified.
func MatchLengths(rng *rand.Rand, a, b Sparse) (Sparse, Sparse, error) {
	if a.NNZ() != b.NNZ() {
		return Sparse{}, Sparse{}, apperr.Validation("cannot match lengths of arrays with %d and %d stored values", a.NNZ(), b.NNZ())
	}
	switch {
	case a.Length > b.Length:
		return shrinkOnto(rng, a, b), b.Copy(), nil
	case b.Length > a.Length:
		return a.Copy(), shrinkOnto(rng, b, a), nil
	}
	return a.Copy(), b.Copy(), nil
}

func shrinkOnto(rng *rand.Rand, bigger, smaller Sparse) Sparse {
	density := float64(bigger.NNZ()) / float64(bigger.Length)
	keep := int(density * float64(smaller.Length))
	data := make([]float64, smaller.NNZ())
	copy(data, Choose(rng, bigger.Data, keep))
	return smaller.WithData(data)
}
