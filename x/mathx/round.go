package mathx

import (
	"math"

	"golang.org/x/exp/constraints"
)

// RoundTo rounds v to n decimal places, half away from zero. NaN and Inf
// pass through.
func RoundTo[T constraints.Float](v T, n int) T {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return v
	}
	p := math.Pow(10, float64(n))
	return T(math.Round(f*p) / p)
}

// RoundSig rounds v to n significant digits.
func RoundSig[T constraints.Float](v T, n int) T {
	f := float64(v)
	if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return v
	}
	mag := int(math.Floor(math.Log10(math.Abs(f)))) + 1
	return RoundTo(v, n-mag)
}
