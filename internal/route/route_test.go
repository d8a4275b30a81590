package route_test

import (
	"context"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/arb/internal/amount"
	"github.com/paw-chain/arb/internal/pool"
	"github.com/paw-chain/arb/internal/route"
)

func mustToken(t *testing.T, denom string) amount.Token {
	t.Helper()
	tok, err := amount.NewNativeToken(denom, denom, 0)
	require.NoError(t, err)
	return tok
}

// TestTwoHopCycleIsCycle reproduces spec.md §8 scenario 2: tokens
// [UST, LUNA, UST] over a CP-AMM pool and a native market pool.
func TestTwoHopCycleIsCycle(t *testing.T) {
	ust := mustToken(t, "uusd")
	luna := mustToken(t, "uluna")

	p1 := pool.NewConstantProductPool(pool.Identity{Address: "p1"}, ust, luna, math.NewInt(1_000_000), math.NewInt(1_000_000), math.LegacyMustNewDecFromStr("0.003"))
	p2 := pool.NewNativePool(pool.Identity{Address: "market"}, luna, ust, math.LegacyNewDec(1), math.LegacyNewDec(1_000_000), math.LegacyMustNewDecFromStr("0.002"))

	r := route.Route{
		Tokens: []amount.Token{ust, luna, ust},
		Pools:  []pool.Pool{p1, p2},
	}
	require.True(t, r.IsCycle())
}

func TestQuoteChainsHopsInOrder(t *testing.T) {
	a := mustToken(t, "a")
	b := mustToken(t, "b")
	c := mustToken(t, "c")

	p1 := pool.NewConstantProductPool(pool.Identity{Address: "p1"}, a, b, math.NewInt(1_000_000), math.NewInt(1_000_000), math.LegacyZeroDec())
	p2 := pool.NewConstantProductPool(pool.Identity{Address: "p2"}, b, c, math.NewInt(1_000_000), math.NewInt(2_000_000), math.LegacyZeroDec())

	r := route.Route{Tokens: []amount.Token{a, b, c}, Pools: []pool.Pool{p1, p2}}

	in := amount.NewTokenAmount(a, math.LegacyNewDec(1_000))
	out, err := r.Quote(context.Background(), in, false, pool.NoSafety)
	require.NoError(t, err)
	require.True(t, out.Amount.IsPositive())
}

func TestShouldReverseTieIsFalse(t *testing.T) {
	a := mustToken(t, "a")
	b := mustToken(t, "b")

	// symmetric pool: forward and reverse quotes are identical, so a tie
	// must resolve to false (prefer forward) per spec.md §8.
	p1 := pool.NewConstantProductPool(pool.Identity{Address: "p1"}, a, b, math.NewInt(1_000_000), math.NewInt(1_000_000), math.LegacyZeroDec())

	r := route.Route{Tokens: []amount.Token{a, b, a}, Pools: []pool.Pool{p1, p1}}
	reverse, err := r.ShouldReverse(context.Background(), amount.NewTokenAmount(a, math.LegacyNewDec(100)))
	require.NoError(t, err)
	require.False(t, reverse)
}

func TestBuildOpsEmitsOneMessagePerHopWithoutRouter(t *testing.T) {
	a := mustToken(t, "a")
	b := mustToken(t, "b")
	c := mustToken(t, "c")
	p1 := pool.NewConstantProductPool(pool.Identity{Address: "p1"}, a, b, math.NewInt(1_000_000), math.NewInt(1_000_000), math.LegacyZeroDec())
	p2 := pool.NewConstantProductPool(pool.Identity{Address: "p2"}, b, c, math.NewInt(1_000_000), math.NewInt(2_000_000), math.LegacyZeroDec())

	r := route.Route{Tokens: []amount.Token{a, b, c}, Pools: []pool.Pool{p1, p2}}
	_, msgs, err := r.BuildOps("sender1", amount.NewTokenAmount(a, math.LegacyNewDec(1_000)), false, amount.Zero(c))
	require.NoError(t, err)
	require.Len(t, msgs, 2)
}

func TestBuildOpsPrefersRouterWhenAvailable(t *testing.T) {
	a := mustToken(t, "a")
	b := mustToken(t, "b")
	c := mustToken(t, "c")
	p1 := pool.NewConstantProductPool(pool.Identity{Address: "p1"}, a, b, math.NewInt(1_000_000), math.NewInt(1_000_000), math.LegacyZeroDec())
	p2 := pool.NewConstantProductPool(pool.Identity{Address: "p2"}, b, c, math.NewInt(1_000_000), math.NewInt(2_000_000), math.LegacyZeroDec())

	r := route.Route{
		Tokens: []amount.Token{a, b, c},
		Pools:  []pool.Pool{p1, p2},
		Router: &route.RouterInfo{Address: "astroport-router"},
	}
	_, msgs, err := r.BuildOps("sender1", amount.NewTokenAmount(a, math.LegacyNewDec(1_000)), false, amount.Zero(c))
	require.NoError(t, err)
	require.Len(t, msgs, 1, "router form produces a single atomic message")
}
