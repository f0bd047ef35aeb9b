// Package sample holds the sample-vector representations shared by the
// estimators: plain vectors, zero-inflated sets and positioned sparse arrays.
package sample

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

func mustMatch(op string, a, b []float64) {
	if len(a) != len(b) {
		panic(fmt.Sprintf("sample: %s on mismatched lengths %d and %d", op, len(a), len(b)))
	}
}

// Mul multiplies a and b elementwise into a new slice.
func Mul(a, b []float64) []float64 {
	mustMatch("Mul", a, b)
	return floats.MulTo(make([]float64, len(a)), a, b)
}

func Add(a, b []float64) []float64 {
	mustMatch("Add", a, b)
	return floats.AddTo(make([]float64, len(a)), a, b)
}

func Sub(a, b []float64) []float64 {
	mustMatch("Sub", a, b)
	return floats.SubTo(make([]float64, len(a)), a, b)
}

func Div(a, b []float64) []float64 {
	mustMatch("Div", a, b)
	return floats.DivTo(make([]float64, len(a)), a, b)
}

func Scale(a []float64, k float64) []float64 {
	return floats.ScaleTo(make([]float64, len(a)), k, a)
}

func Full(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func Ones(n int) []float64 {
	return Full(n, 1)
}

// Uniform01 draws n values from U[0, 1).
func Uniform01(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()
	}
	return out
}

// Bernoulli returns 1 where an independent uniform draw is below p[i], else 0.
func Bernoulli(rng *rand.Rand, p []float64) []float64 {
	out := make([]float64, len(p))
	for i, pi := range p {
		if rng.Float64() < pi {
			out[i] = 1
		}
	}
	return out
}

func Sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func Sum(a []float64) float64 {
	return floats.Sum(a)
}

func Mean(a []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	return Sum(a) / float64(len(a))
}

// Max is -Inf for an empty slice.
func Max(a []float64) float64 {
	if len(a) == 0 {
		return math.Inf(-1)
	}
	return floats.Max(a)
}

// NonZero returns the non-zero entries of a, in order.
func NonZero(a []float64) []float64 {
	out := make([]float64, 0, len(a))
	for _, v := range a {
		if v != 0 {
			out = append(out, v)
		}
	}
	return out
}

func CountNonZero(a []float64) int {
	n := 0
	for _, v := range a {
		if v != 0 {
			n++
		}
	}
	return n
}

// Choose picks k values of a without replacement. k is capped at len(a).
func Choose(rng *rand.Rand, a []float64, k int) []float64 {
	if k > len(a) {
		k = len(a)
	}
	perm := rng.Perm(len(a))
	out := make([]float64, k)
	for i := 0; i < k; i++ {
		out[i] = a[perm[i]]
	}
	return out
}

// EnforceMinAbs pushes values inside (-min, min) out to the nearest bound,
// keeping the sign. Zero maps to +min.
func EnforceMinAbs(a []float64, min float64) []float64 {
	out := make([]float64, len(a))
	for i, v := range a {
		switch {
		case v <= -min || v >= min:
			out[i] = v
		case v < 0:
			out[i] = -min
		default:
			out[i] = min
		}
	}
	return out
}
