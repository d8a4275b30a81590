package strategy

import (
	"context"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/arb/internal/amount"
	"github.com/paw-chain/arb/internal/chain"
	"github.com/paw-chain/arb/internal/engine"
	"github.com/paw-chain/arb/internal/fee"
	"github.com/paw-chain/arb/internal/filter"
	"github.com/paw-chain/arb/internal/logging"
	"github.com/paw-chain/arb/internal/mempool"
	"github.com/paw-chain/arb/internal/pool"
	"github.com/paw-chain/arb/internal/route"
	"github.com/paw-chain/arb/internal/testsupport"
)

type channelWatcher struct {
	ch <-chan mempool.HeightMempool
}

func (w channelWatcher) IterHeightMempool(ctx context.Context, filters map[string]filter.Filter) (<-chan mempool.HeightMempool, error) {
	return w.ch, nil
}

func buildRouteEntry(t *testing.T, key, poolAddr string, minProfit math.LegacyDec) RouteEntry {
	t.Helper()
	ust := testsupport.NativeToken("uusd", 6)
	luna := testsupport.NativeToken("uluna", 6)
	cp := pool.NewConstantProductPool(pool.Identity{ChainID: "columbus-5", Address: poolAddr},
		ust, luna, math.NewInt(1_000_000_000), math.NewInt(1_000_000_000), math.LegacyMustNewDecFromStr("0.003"))
	// the return leg prices LUNA at 2 UST, so the cycle has a profit maximum
	back := pool.NewConstantProductPool(pool.Identity{ChainID: "columbus-5", Address: poolAddr + "-return"},
		luna, ust, math.NewInt(1_000_000_000), math.NewInt(2_000_000_000), math.LegacyMustNewDecFromStr("0.003"))
	r := route.Route{Tokens: []amount.Token{ust, luna, ust}, Pools: []pool.Pool{cp, back}}

	lcd := &testsupport.FakeLCD{
		SimulateFunc: func(ctx context.Context, txBytes []byte) (uint64, error) { return 100000, nil },
	}
	signer := &testsupport.FakeSigner{SeqValue: 1}
	estimator := fee.NewEstimator(lcd, signer, math.LegacyMustNewDecFromStr("1.3"), math.LegacyMustNewDecFromStr("0.015"), "uusd", false,
		func(ctx context.Context, sender string) (bool, error) { return false, nil })
	broadcasterClient := fee.NewBroadcaster(lcd, signer, func(ctx context.Context, sender string) (bool, error) { return false, nil }, nil, logging.Nop())

	cfg := engine.DefaultConfig()
	cfg.MinProfitRef = minProfit
	cfg.SeedAmount = math.LegacyNewDec(10)

	e := engine.New(r, ust, "terra1sender", estimator, broadcasterClient, lcd, cfg, logging.Nop())
	return RouteEntry{Key: key, Engine: e, Filter: filter.Func(func(tx chain.DecodedTx) bool { return true })}
}

func TestDriverDispatchesOnlyRoutesWithMempoolWorkOrPendingTransition(t *testing.T) {
	r1 := buildRouteEntry(t, "route-1", "terra1poolA", math.LegacyNewDec(-1_000_000))
	r2 := buildRouteEntry(t, "route-2", "terra1poolB", math.LegacyNewDec(1_000_000_000)) // impossibly high bar, never plans

	events := make(chan mempool.HeightMempool, 1)
	events <- mempool.HeightMempool{Height: 100, Matches: map[string][]chain.DecodedTx{"route-1": {}}}
	close(events)

	d := New([]RouteEntry{r1, r2}, channelWatcher{ch: events}, nil, logging.Nop())
	require.NoError(t, d.Run(context.Background()))

	assert.Equal(t, engine.StateReadyToBroadcast, r1.Engine.State())
	assert.Equal(t, engine.StateReadyToPlan, r2.Engine.State())
	assert.Equal(t, int64(0), r2.Engine.LastRunHeight()) // never invoked: no mempool work, no pending transition
}

// TestDriverResolvesCrossRoutePoolConflict reproduces spec.md §4.10 step 4:
// two routes sharing a pool both reach ReadyToBroadcast in the same height;
// the one with the larger estimated net profit survives and the other is
// reset to ReadyToPlan.
func TestDriverResolvesCrossRoutePoolConflict(t *testing.T) {
	sharedPool := "terra1shared"
	r1 := buildRouteEntry(t, "route-1", sharedPool, math.LegacyNewDec(-1_000_000))
	r2 := buildRouteEntry(t, "route-2", sharedPool, math.LegacyNewDec(-2_000_000))

	events := make(chan mempool.HeightMempool, 1)
	events <- mempool.HeightMempool{Height: 50, Matches: map[string][]chain.DecodedTx{
		"route-1": {}, "route-2": {},
	}}
	close(events)

	d := New([]RouteEntry{r1, r2}, channelWatcher{ch: events}, nil, logging.Nop())
	require.NoError(t, d.Run(context.Background()))

	winners := 0
	if r1.Engine.State() == engine.StateReadyToBroadcast {
		winners++
	}
	if r2.Engine.State() == engine.StateReadyToBroadcast {
		winners++
	}
	assert.Equal(t, 1, winners, "exactly one route should keep ReadyToBroadcast after conflict resolution")
}
