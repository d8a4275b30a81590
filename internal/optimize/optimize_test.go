package optimize

import (
	stdmath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/arb/internal/errs"
)

// cpQuote mimics a constant-product AMM quote f(x) = r_out*x/(r_in+x) minus
// input x, a concave function on x > 0 with a single interior maximum.
func cpQuote(rIn, rOut float64) ObjectiveFunc {
	return func(x float64) float64 {
		return rOut*x/(rIn+x) - x
	}
}

func TestSolveFindsArgmaxOfConcaveObjective(t *testing.T) {
	f := cpQuote(1_000_000, 2_000_000)
	x, ok := Solve(f, 1000, Options{})
	require.True(t, ok)
	assert.True(t, x > 0)

	// the true argmax of r_out*x/(r_in+x) - x is x* = sqrt(r_in*r_out) - r_in
	want := stdmath.Sqrt(1_000_000*2_000_000) - 1_000_000
	assert.InDelta(t, want, x, want*0.01)
}

func TestNewtonRejectsNegativeIterate(t *testing.T) {
	// a monotonically decreasing function has no interior maximum on x>0;
	// Newton should fail rather than walk into a negative iterate.
	f := func(x float64) float64 { return -x }
	_, ok := newton(f, 10, Options{}.withDefaults())
	assert.False(t, ok)
}

func TestBisectionFindsArgmaxOfConcaveObjective(t *testing.T) {
	f := cpQuote(1_000_000, 2_000_000)
	x, ok := bisection(f, 1000, Options{}.withDefaults())
	require.True(t, ok)
	want := stdmath.Sqrt(1_000_000*2_000_000) - 1_000_000
	assert.InDelta(t, want, x, want*0.05)
}

func TestSolveOrErrWrapsFailureInOptimizationError(t *testing.T) {
	f := func(x float64) float64 { return -x }
	_, err := SolveOrErr(f, 10, Options{})
	require.Error(t, err)
	require.ErrorIs(t, err, errs.ErrOptimizationError)
}
