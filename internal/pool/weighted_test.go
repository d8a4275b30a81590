package pool_test

import (
	"context"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/arb/internal/amount"
	"github.com/paw-chain/arb/internal/chain"
	"github.com/paw-chain/arb/internal/pool"
)

func TestWeightedPoolQuoteOutIsPositiveAndBelowSpotPrice(t *testing.T) {
	atom := mustToken(t, "uatom", 0)
	osmo := mustToken(t, "uosmo", 0)
	id := pool.Identity{ChainID: "osmosis-1", Address: "1"}

	p := pool.NewWeightedPool(
		id,
		[]amount.Token{atom, osmo},
		[]math.Int{math.NewInt(1_000_000), math.NewInt(4_000_000)},
		[]math.Int{math.NewInt(5), math.NewInt(5)}, // equal weights = constant product
		math.LegacyMustNewDecFromStr("0.002"),
	)

	in := amount.NewTokenAmount(atom, math.LegacyNewDec(10_000))
	out, err := p.QuoteOut(context.Background(), in, osmo, pool.NoSafety)
	require.NoError(t, err)
	require.True(t, out.Amount.IsPositive())

	// equal-weight pool degenerates to constant product; output must stay
	// below the no-slippage spot-price upper bound (§8 invariant).
	spotUpper := in.Amount.MulInt64(4)
	require.True(t, out.Amount.LT(spotUpper))
}

func TestWeightedPoolReserveDeltaFromSwapOutIsUnsupported(t *testing.T) {
	atom := mustToken(t, "uatom", 0)
	osmo := mustToken(t, "uosmo", 0)
	id := pool.Identity{ChainID: "osmosis-1", Address: "1"}
	p := pool.NewWeightedPool(id, []amount.Token{atom, osmo},
		[]math.Int{math.NewInt(1_000_000), math.NewInt(4_000_000)},
		[]math.Int{math.NewInt(5), math.NewInt(5)},
		math.LegacyMustNewDecFromStr("0.002"))

	tx := chain.DecodedTx{Messages: []chain.Msg{{Kind: chain.MsgOsmosisSwapOut, Contract: "1"}}}
	_, err := p.ReserveDeltaFromTx(tx)
	require.Error(t, err)
}
