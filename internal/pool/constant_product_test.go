package pool_test

import (
	"context"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/arb/internal/amount"
	"github.com/paw-chain/arb/internal/pool"
)

func mustToken(t *testing.T, denom string, decimals uint32) amount.Token {
	t.Helper()
	tok, err := amount.NewNativeToken(denom, denom, decimals)
	require.NoError(t, err)
	return tok
}

// TestQuoteOutMatchesSpecScenario reproduces spec.md §8 scenario 1 exactly:
// r_in=1,000,000 r_out=2,000,000 fee=0.003 in=10,000 → int_amount=19742.
func TestQuoteOutMatchesSpecScenario(t *testing.T) {
	ust := mustToken(t, "uusd", 0)
	luna := mustToken(t, "uluna", 0)
	id := pool.Identity{ChainID: "columbus-5", Address: "terra1pool"}
	p := pool.NewConstantProductPool(id, ust, luna, math.NewInt(1_000_000), math.NewInt(2_000_000), math.LegacyMustNewDecFromStr("0.003"))

	in := amount.NewTokenAmount(ust, math.LegacyNewDec(10_000))
	out, err := p.QuoteOut(context.Background(), in, luna, pool.NoSafety)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(19742), out.IntAmount())
}

func TestQuoteOutWithSafetyMarginIsSmaller(t *testing.T) {
	ust := mustToken(t, "uusd", 0)
	luna := mustToken(t, "uluna", 0)
	id := pool.Identity{ChainID: "columbus-5", Address: "terra1pool"}
	p := pool.NewConstantProductPool(id, ust, luna, math.NewInt(1_000_000), math.NewInt(2_000_000), math.LegacyMustNewDecFromStr("0.003"))

	in := amount.NewTokenAmount(ust, math.LegacyNewDec(10_000))
	exact, err := p.QuoteOut(context.Background(), in, luna, pool.NoSafety)
	require.NoError(t, err)
	safe, err := p.QuoteOut(context.Background(), in, luna, pool.DefaultSafety)
	require.NoError(t, err)

	cmp, err := safe.Cmp(exact)
	require.NoError(t, err)
	require.Equal(t, -1, cmp)
}

func TestSimulateReserveChangeLeavesOriginalUnchanged(t *testing.T) {
	ust := mustToken(t, "uusd", 0)
	luna := mustToken(t, "uluna", 0)
	id := pool.Identity{ChainID: "columbus-5", Address: "terra1pool"}
	p := pool.NewConstantProductPool(id, ust, luna, math.NewInt(1_000_000), math.NewInt(1_000_000), math.LegacyMustNewDecFromStr("0.003"))

	delta := []amount.TokenAmount{
		amount.NewTokenAmount(ust, math.LegacyNewDec(5_000)),
		amount.NewTokenAmount(luna, math.LegacyNewDec(-4_975)),
	}
	fork, err := p.SimulateReserveChange(delta)
	require.NoError(t, err)
	require.True(t, fork.StopUpdates())

	forkReserves, err := fork.GetReserves(context.Background())
	require.NoError(t, err)
	// reserves come back in canonical token order: uluna first, uusd second
	require.Equal(t, math.NewInt(1_005_000), forkReserves[1].IntAmount())

	originalReserves, err := p.GetReserves(context.Background())
	require.NoError(t, err)
	require.Equal(t, math.NewInt(1_000_000), originalReserves[0].IntAmount())
	require.False(t, p.StopUpdates())
}

func TestQuoteOutRejectsZeroReserves(t *testing.T) {
	ust := mustToken(t, "uusd", 0)
	luna := mustToken(t, "uluna", 0)
	id := pool.Identity{ChainID: "columbus-5", Address: "terra1pool"}
	p := pool.NewConstantProductPool(id, ust, luna, math.ZeroInt(), math.NewInt(1_000_000), math.LegacyMustNewDecFromStr("0.003"))

	_, err := p.QuoteOut(context.Background(), amount.NewTokenAmount(ust, math.LegacyNewDec(1)), luna, pool.NoSafety)
	require.Error(t, err)
}
