package utils

import "golang.org/x/exp/constraints"

// Version from source control
var Version string = "unknown"

// If is the ternary operator (eager evaluation)
func If[T any](cond bool, t, f T) T {
	if cond {
		return t
	} else {
		return f
	}
}

// Ratio returns a/b as a float, or zero when b is zero.
func Ratio[A, B constraints.Integer](a A, b B) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
