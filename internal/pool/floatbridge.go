package pool

import (
	stdmath "math"
	"strconv"
)

// stdPow and trimFloat isolate the one stdlib float64 dependency this
// package has (rational-exponent weighted-pool swaps, see powRational in
// weighted.go) behind names that don't collide with cosmossdk.io/math's
// package identifier.
func stdPow(base, exponent float64) float64 {
	return stdmath.Pow(base, exponent)
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 18, 64)
}
