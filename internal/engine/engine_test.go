package engine

import (
	"context"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/arb/internal/amount"
	"github.com/paw-chain/arb/internal/chain"
	"github.com/paw-chain/arb/internal/fee"
	"github.com/paw-chain/arb/internal/logging"
	"github.com/paw-chain/arb/internal/pool"
	"github.com/paw-chain/arb/internal/route"
	"github.com/paw-chain/arb/internal/testsupport"
)

func buildTestEngine(t *testing.T, lcd *testsupport.FakeLCD) (*Engine, amount.Token, amount.Token, *pool.ConstantProductPool) {
	t.Helper()
	ust := testsupport.NativeToken("uusd", 6)
	luna := testsupport.NativeToken("uluna", 6)

	cp := pool.NewConstantProductPool(pool.Identity{ChainID: "columbus-5", Address: "terra1pool"},
		ust, luna, math.NewInt(1_000_000_000), math.NewInt(1_000_000_000), math.LegacyMustNewDecFromStr("0.003"))
	// the return leg prices LUNA at 2 UST, so the UST->LUNA->UST cycle has an
	// interior profit maximum for the optimizer to find
	back := pool.NewConstantProductPool(pool.Identity{ChainID: "columbus-5", Address: "terra1pool2"},
		luna, ust, math.NewInt(1_000_000_000), math.NewInt(2_000_000_000), math.LegacyMustNewDecFromStr("0.003"))

	r := route.Route{Tokens: []amount.Token{ust, luna, ust}, Pools: []pool.Pool{cp, back}}

	signer := &testsupport.FakeSigner{SeqValue: 1}
	estimator := fee.NewEstimator(lcd, signer, math.LegacyMustNewDecFromStr("1.3"), math.LegacyMustNewDecFromStr("0.015"), "uusd", false,
		func(ctx context.Context, sender string) (bool, error) { return false, nil })
	broadcaster := fee.NewBroadcaster(lcd, signer, func(ctx context.Context, sender string) (bool, error) { return false, nil }, nil, logging.Nop())

	cfg := DefaultConfig()
	cfg.MinProfitRef = math.LegacyNewDec(-1_000_000) // accept any non-negative swap for this plumbing test
	cfg.SeedAmount = math.LegacyNewDec(10)

	e := New(r, ust, "terra1sender", estimator, broadcaster, lcd, cfg, logging.Nop())
	return e, ust, luna, cp
}

func TestStateDerivationFromArbitrageData(t *testing.T) {
	var d ArbitrageData
	assert.Equal(t, StateReadyToPlan, d.State())

	d.Params = &ArbParams{}
	assert.Equal(t, StateReadyToBroadcast, d.State())

	d.Txs = []ArbTx{{TxHash: "abc"}}
	assert.Equal(t, StateWaitingConfirmation, d.State())

	d.Results = []ArbResult{{TxStatus: TxSucceeded}}
	assert.Equal(t, StateFinished, d.State())
}

// TestEngineFourStateTransitions reproduces spec.md §8 scenario 6's shape:
// a fresh route progresses ReadyToPlan -> ReadyToBroadcast -> WaitingConfirmation,
// sees IsBusy for several heights, then reaches a terminal confirmation and
// resets to ReadyToPlan within that same call.
func TestEngineFourStateTransitions(t *testing.T) {
	var broadcastCount int
	lcd := &testsupport.FakeLCD{
		SimulateFunc: func(ctx context.Context, txBytes []byte) (uint64, error) { return 100000, nil },
		BroadcastSyncFunc: func(ctx context.Context, txBytes []byte) (chain.TxInfo, error) {
			broadcastCount++
			return chain.TxInfo{Found: true, Height: 100, RawLog: "hash-1"}, nil
		},
		TxInfoFunc: func(ctx context.Context, hash string) (chain.TxInfo, error) {
			return chain.TxInfo{Found: false}, nil
		},
	}
	e, _, _, _ := buildTestEngine(t, lcd)

	// Height H: plans params, enters ReadyToBroadcast.
	require.NoError(t, e.Run(context.Background(), 100, nil))
	assert.Equal(t, StateReadyToBroadcast, e.State())

	// Height H (second run): broadcasts, enters WaitingConfirmation.
	require.NoError(t, e.Run(context.Background(), 100, nil))
	assert.Equal(t, StateWaitingConfirmation, e.State())
	assert.True(t, broadcastCount > 0)

	// Heights H+1..H+3: tx not found yet, but within MAX_BLOCKS_WAIT_RECEIPT -> busy, stays.
	for h := int64(101); h <= 103; h++ {
		require.NoError(t, e.Run(context.Background(), h, nil))
		assert.Equal(t, StateWaitingConfirmation, e.State())
	}

	// Height H+4: still not found; if delay has crossed the threshold, the
	// engine records not_found and resets to ReadyToPlan.
	lcd.TxInfoFunc = func(ctx context.Context, hash string) (chain.TxInfo, error) {
		return chain.TxInfo{Found: false}, nil
	}
	e.cfg.MaxBlocksWaitReceipt = 3
	require.NoError(t, e.Run(context.Background(), 104, nil))
	assert.Equal(t, StateReadyToPlan, e.State())
}

func TestEngineResetsOnStaleBroadcastWindow(t *testing.T) {
	lcd := &testsupport.FakeLCD{
		SimulateFunc: func(ctx context.Context, txBytes []byte) (uint64, error) { return 100000, nil },
	}
	e, _, _, _ := buildTestEngine(t, lcd)
	e.cfg.MaxBlockBroadcastDelay = 1

	require.NoError(t, e.Run(context.Background(), 100, nil))
	require.Equal(t, StateReadyToBroadcast, e.State())

	require.NoError(t, e.Run(context.Background(), 105, nil))
	assert.Equal(t, StateReadyToPlan, e.State())
}

func TestEngineIgnoresStaleHeight(t *testing.T) {
	lcd := &testsupport.FakeLCD{}
	e, _, _, _ := buildTestEngine(t, lcd)
	e.lastRunHeight = 50

	require.NoError(t, e.Run(context.Background(), 10, nil))
	assert.Equal(t, int64(50), e.LastRunHeight())
	assert.Equal(t, StateReadyToPlan, e.State())
}

// TestBuildSimulationScopeReflectsPendingSwap reproduces spec.md §8
// scenario 3: reserves (1e6, 1e6), a pending 5000 UST->LUNA swap on P1
// yields simulated reserves (1 005 000, ~995 025) inside the scope, and the
// original pool is unchanged after the scope ends.
func TestBuildSimulationScopeReflectsPendingSwap(t *testing.T) {
	ust := testsupport.NativeToken("uusd", 6)
	luna := testsupport.NativeToken("uluna", 6)
	cp := pool.NewConstantProductPool(pool.Identity{ChainID: "columbus-5", Address: "terra1pool"},
		ust, luna, math.NewInt(1_000_000), math.NewInt(1_000_000), math.LegacyMustNewDecFromStr("0.003"))

	tx := chain.DecodedTx{
		Hash:   "pending-1",
		Height: 0,
		Messages: []chain.Msg{{
			Kind:       chain.MsgContractSwap,
			Contract:   "terra1pool",
			OfferDenom: "uusd",
			AskDenom:   "uluna",
			OfferAmt:   math.NewInt(5000),
		}},
	}

	forks, err := BuildSimulationScope([]pool.Pool{cp}, []chain.DecodedTx{tx}, logging.Nop())
	require.NoError(t, err)
	fork, ok := forks[cp.Identity().String()]
	require.True(t, ok)

	reserves, err := fork.GetReserves(context.Background())
	require.NoError(t, err)
	ustReserve := reserveFor(t, reserves, ust)
	lunaReserve := reserveFor(t, reserves, luna)
	assert.Equal(t, "1005000", ustReserve.IntAmount().String())
	assert.InDelta(t, 995025, float64(lunaReserve.IntAmount().Int64()), 50)

	originalReserves, err := cp.GetReserves(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1000000", reserveFor(t, originalReserves, ust).IntAmount().String())
	assert.Equal(t, "1000000", reserveFor(t, originalReserves, luna).IntAmount().String())
}

func reserveFor(t *testing.T, reserves []amount.TokenAmount, tok amount.Token) amount.TokenAmount {
	t.Helper()
	for _, r := range reserves {
		if r.Token.Equal(tok) {
			return r
		}
	}
	t.Fatalf("no reserve for token %s", tok)
	return amount.TokenAmount{}
}
