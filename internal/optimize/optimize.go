// Package optimize finds the profit-maximizing input amount for a route
// (spec.md §4.9): f(x) = route.quote(x, reverse) - x on x > 0. Newton's
// method with central finite differences runs first; bisection on f' is the
// fallback when Newton's concavity assumption is violated, the same
// two-tier iterate-then-bound-then-fall-back shape the teacher uses for its
// LegacyDec approximations (x/dex/keeper/overflow_protection.go's
// ApproxSqrt-based calculations).
package optimize

import (
	stdmath "math"

	errorsmod "cosmossdk.io/errors"

	"github.com/paw-chain/arb/internal/errs"
)

// MaxIterations bounds both solvers (spec.md §4.9: "max_iter=100").
const MaxIterations = 100

// DefaultTolerance is the default |Δx| stopping threshold.
const DefaultTolerance = 1e-6

// DefaultStep is the default central-difference step dx.
const DefaultStep = 1e-3

// ObjectiveFunc is f(x) = route.quote(x, reverse) - x, evaluated as a plain
// float64 bridge the way WeightedPool's powRational bridges LegacyDec to
// float64 for off-chain estimation: the optimizer searches for an input
// amount, it does not need consensus-grade determinism.
type ObjectiveFunc func(x float64) float64

// Options configures a solve; zero-value Options gets sane defaults applied
// by Solve.
type Options struct {
	Tolerance float64
	Step      float64
	MaxIter   int
}

func (o Options) withDefaults() Options {
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.Step <= 0 {
		o.Step = DefaultStep
	}
	if o.MaxIter <= 0 {
		o.MaxIter = MaxIterations
	}
	return o
}

func firstDerivative(f ObjectiveFunc, x, dx float64) float64 {
	return (f(x+dx) - f(x-dx)) / (2 * dx)
}

func secondDerivative(f ObjectiveFunc, x, dx float64) float64 {
	return (f(x+dx) - 2*f(x) + f(x-dx)) / (dx * dx)
}

// Solve runs Newton's method first; on any failure (negative iterate,
// non-convergence, degenerate second derivative) it falls back to bisection
// on f'. Returns the argmax and false if both solvers failed.
func Solve(f ObjectiveFunc, x0 float64, opts Options) (float64, bool) {
	opts = opts.withDefaults()
	if x, ok := newton(f, x0, opts); ok {
		return x, true
	}
	return bisection(f, x0, opts)
}

// newton implements the primary solver (spec.md §4.9): iterate
// x ← x − f′(x)/f″(x) with central differences at step dx; stop when
// |Δx| < tol; reject negative iterates.
func newton(f ObjectiveFunc, x0 float64, opts Options) (float64, bool) {
	if x0 <= 0 {
		return 0, false
	}
	x := x0
	for i := 0; i < opts.MaxIter; i++ {
		fp := firstDerivative(f, x, opts.Step)
		fpp := secondDerivative(f, x, opts.Step)
		if fpp == 0 || stdmath.IsNaN(fpp) || stdmath.IsInf(fpp, 0) {
			return 0, false
		}
		next := x - fp/fpp
		if next <= 0 {
			return 0, false
		}
		if stdmath.Abs(next-x) < opts.Tolerance {
			return next, true
		}
		x = next
	}
	return 0, false
}

// bisection implements the fallback solver (spec.md §4.9): search
// [x0, 2·x0] for a zero of f'; contract the left bound to x0/10 if f'(x0) is
// negative, failing if still negative (concavity violated); expand the
// right bound while f'(right) > 0; bisect otherwise.
func bisection(f ObjectiveFunc, x0 float64, opts Options) (float64, bool) {
	if x0 <= 0 {
		return 0, false
	}
	left, right := x0, 2*x0

	if firstDerivative(f, left, opts.Step) < 0 {
		left = x0 / 10
		if firstDerivative(f, left, opts.Step) < 0 {
			return 0, false
		}
	}
	for i := 0; i < opts.MaxIter && firstDerivative(f, right, opts.Step) > 0; i++ {
		right *= 2
	}

	for i := 0; i < opts.MaxIter; i++ {
		mid := (left + right) / 2
		fpMid := firstDerivative(f, mid, opts.Step)
		if stdmath.Abs(right-left) < opts.Tolerance {
			return mid, true
		}
		if fpMid > 0 {
			left = mid
		} else {
			right = mid
		}
	}
	return 0, false
}

// SolveOrErr wraps Solve with the error-kind taxonomy, for callers that need
// an error value rather than a boolean (spec.md's OptimizationError).
func SolveOrErr(f ObjectiveFunc, x0 float64, opts Options) (float64, error) {
	x, ok := Solve(f, x0, opts)
	if !ok {
		return 0, errorsmod.Wrap(errs.ErrOptimizationError, "newton and bisection both failed to converge")
	}
	return x, nil
}
