package engine

import (
	"math/big"
	stdmath "math"
	"strconv"

	"cosmossdk.io/math"
)

// decToFloat and floatToDec bridge LegacyDec through big.Float the same way
// internal/pool's powRational does, for the optimizer's float64 objective
// function — an off-chain search does not need consensus-grade precision.
func decToFloat(d math.LegacyDec) float64 {
	f, _ := new(big.Float).SetString(d.String())
	v, _ := f.Float64()
	return v
}

func floatToDec(f float64) math.LegacyDec {
	if stdmath.IsNaN(f) || stdmath.IsInf(f, 0) || f < 0 {
		return math.LegacyZeroDec()
	}
	return math.LegacyMustNewDecFromStr(strconv.FormatFloat(f, 'f', 18, 64))
}
