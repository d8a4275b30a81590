package engine

import (
	"context"
	stdmath "math"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/paw-chain/arb/internal/amount"
	"github.com/paw-chain/arb/internal/chain"
	"github.com/paw-chain/arb/internal/errs"
	"github.com/paw-chain/arb/internal/fee"
	"github.com/paw-chain/arb/internal/logging"
	"github.com/paw-chain/arb/internal/optimize"
	"github.com/paw-chain/arb/internal/pool"
	"github.com/paw-chain/arb/internal/route"
	"github.com/paw-chain/arb/internal/telemetry"
)

var tracer = otel.Tracer("github.com/paw-chain/arb/internal/engine")

// Config holds the per-engine tunables named but left unspecified by
// spec.md §4.8: MAX_BLOCK_BROADCAST_DELAY, MAX_BLOCKS_WAIT_RECEIPT,
// MIN_CONFIRMATIONS, MIN_PROFIT_REF, N_max, and max_single_amount.
type Config struct {
	MaxBlockBroadcastDelay int64
	MaxBlocksWaitReceipt   int64
	MinConfirmations       int64
	MinProfitRef           math.LegacyDec
	NMax                   int
	MaxSingleAmount        math.LegacyDec
	SeedAmount             math.LegacyDec // small probe used by ShouldReverse
}

// DefaultConfig returns reasonable defaults grounded on the teacher's
// conservative-by-default app params style.
func DefaultConfig() Config {
	return Config{
		MaxBlockBroadcastDelay: 2,
		MaxBlocksWaitReceipt:   10,
		MinConfirmations:       1,
		MinProfitRef:           math.LegacyNewDec(1), // 1 unit of the reference token
		NMax:                   3,
		MaxSingleAmount:        math.LegacyNewDec(1_000_000),
		SeedAmount:             math.LegacyNewDec(100),
	}
}

// Engine is the per-route arbitrage state machine (spec.md §4.8).
type Engine struct {
	route          route.Route
	referenceToken amount.Token
	sender         string
	estimator      *fee.Estimator
	broadcaster    *fee.Broadcaster
	lcd            chain.LCDClient
	cfg            Config
	log            logging.Logger

	data          ArbitrageData
	lastRunHeight int64
}

// New builds an Engine for one route.
func New(r route.Route, referenceToken amount.Token, sender string, estimator *fee.Estimator, broadcaster *fee.Broadcaster, lcd chain.LCDClient, cfg Config, log logging.Logger) *Engine {
	return &Engine{
		route:          r,
		referenceToken: referenceToken,
		sender:         sender,
		estimator:      estimator,
		broadcaster:    broadcaster,
		lcd:            lcd,
		cfg:            cfg,
		log:            log,
	}
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State { return e.data.State() }

// LastRunHeight returns the last height this engine was run at.
func (e *Engine) LastRunHeight() int64 { return e.lastRunHeight }

// Params returns the current planning params, or nil outside ReadyToBroadcast/
// WaitingConfirmation. Used by the strategy driver's cross-route pool-conflict
// resolution (spec.md §4.10 step 4).
func (e *Engine) Params() *ArbParams { return e.data.Params }

// Pools returns the pools this engine's route touches, used to
// detect cross-route pool conflicts.
func (e *Engine) Pools() []pool.Pool { return e.route.Pools }

// Reset clears this engine back to ReadyToPlan, discarding any in-flight
// params/txs/results. Used when a sibling route wins a shared-pool conflict
// (spec.md §4.10 step 4).
func (e *Engine) Reset() { e.data = ArbitrageData{} }

// routeLabel names this engine's route for metric/span attribution.
func (e *Engine) routeLabel() string {
	if len(e.route.Tokens) == 0 {
		return "unknown"
	}
	first := e.route.Tokens[0].ID()
	last := e.route.Tokens[len(e.route.Tokens)-1].ID()
	return first + "->" + last
}

// Run advances the engine exactly one transition for the given
// (height, filtered_mempool) event (spec.md §4.8's invariant). last_run_height
// must be monotonically non-decreasing; a stale height is a no-op.
func (e *Engine) Run(ctx context.Context, height int64, txs []chain.DecodedTx) error {
	if height < e.lastRunHeight {
		return nil
	}
	e.lastRunHeight = height

	switch e.data.State() {
	case StateReadyToPlan:
		return e.runReadyToPlan(ctx, height, txs)
	case StateReadyToBroadcast:
		return e.runReadyToBroadcast(ctx, height)
	case StateWaitingConfirmation:
		return e.runWaitingConfirmation(ctx, height)
	default:
		e.data = ArbitrageData{}
		return nil
	}
}

func (e *Engine) runReadyToPlan(ctx context.Context, height int64, txs []chain.DecodedTx) error {
	label := e.routeLabel()
	ctx, span := tracer.Start(ctx, "engine.ReadyToPlan", trace.WithAttributes(attribute.String("route", label)))
	defer span.End()
	start := time.Now()
	defer func() {
		telemetry.PlanningLatency.WithLabelValues(label).Observe(float64(time.Since(start).Milliseconds()))
	}()

	forks, err := BuildSimulationScope(e.route.Pools, txs, e.log)
	if err != nil {
		return err
	}
	simulatedRoute := e.route
	simulatedRoute.Pools = ApplyForks(e.route.Pools, forks)

	reverse := false
	if simulatedRoute.IsCycle() {
		seed := amount.NewTokenAmount(simulatedRoute.Tokens[0], e.cfg.SeedAmount)
		reverse, err = simulatedRoute.ShouldReverse(ctx, seed)
		if err != nil {
			e.log.Debug("should_reverse failed, staying in ReadyToPlan", "route", e.route.Tokens, "error", err)
			return nil
		}
	}

	params, err := e.planSingleRoute(ctx, height, simulatedRoute, reverse)
	if err != nil {
		if errorsmod.IsOf(err, errs.ErrUnprofitableArbitrage) {
			telemetry.UnprofitableOpportunities.WithLabelValues(label).Inc()
			e.log.Debug("unprofitable arbitrage, staying in ReadyToPlan", "route", e.route.Tokens, "error", err)
			return nil
		}
		return err
	}

	telemetry.RoutesPlanned.WithLabelValues(label).Inc()
	telemetry.NetProfitRef.WithLabelValues(label).Set(decToFloat(params.EstimatedNetProfit.Amount))
	e.data = ArbitrageData{Params: params}
	return nil
}

// planSingleRoute solves argmax_x[route.quote(x, reverse) - x] and builds
// the resulting ArbParams (spec.md §4.8 step 2).
func (e *Engine) planSingleRoute(ctx context.Context, height int64, r route.Route, reverse bool) (*ArbParams, error) {
	inToken := r.Tokens[0]
	if reverse {
		inToken = r.Tokens[len(r.Tokens)-1]
	}

	objective := func(x float64) float64 {
		in := amount.NewTokenAmount(inToken, floatToDec(x))
		out, err := r.Quote(ctx, in, reverse, pool.DefaultSafety)
		if err != nil {
			return -x // penalize infeasible/negative regions so Newton steps away
		}
		return decToFloat(out.Amount) - x
	}

	x0 := decToFloat(e.cfg.SeedAmount) * 10
	xStar, err := optimize.SolveOrErr(objective, x0, optimize.Options{})
	if err != nil {
		return nil, err
	}
	if xStar <= 0 {
		return nil, errorsmod.Wrap(errs.ErrUnprofitableArbitrage, "optimizer returned a non-positive input")
	}

	inputAmount := amount.NewTokenAmount(inToken, floatToDec(xStar))
	minOut := amount.Zero(r.Tokens[len(r.Tokens)-1])
	if reverse {
		minOut = amount.Zero(r.Tokens[0])
	}
	finalAmount, messages, err := r.BuildOps(e.sender, inputAmount, reverse, minOut)
	if err != nil {
		return nil, err
	}

	netProfitDec := finalAmount.Amount.Sub(inputAmount.Amount)
	if netProfitDec.LT(e.cfg.MinProfitRef) {
		return nil, errorsmod.Wrap(errs.ErrUnprofitableArbitrage, "net profit below MIN_PROFIT_REF")
	}

	nRepeat := 1
	if inputAmount.Amount.GT(e.cfg.MaxSingleAmount) && e.cfg.MaxSingleAmount.IsPositive() {
		ratio := inputAmount.Amount.Quo(e.cfg.MaxSingleAmount)
		nRepeat = int(stdmath.Ceil(decToFloat(ratio)))
	}
	if nRepeat > e.cfg.NMax {
		nRepeat = e.cfg.NMax
	}
	if nRepeat < 1 {
		nRepeat = 1
	}

	txFee, err := e.estimator.EstimateFee(ctx, messages, inputAmount.IntAmount())
	if err != nil {
		return nil, err
	}

	gasCostRef := math.LegacyNewDecFromInt(txFee.Amount)
	netProfit := netProfitDec.Sub(gasCostRef)
	if netProfit.LT(e.cfg.MinProfitRef) {
		return nil, errorsmod.Wrap(errs.ErrUnprofitableArbitrage, "net profit below MIN_PROFIT_REF after gas")
	}

	return &ArbParams{
		Timestamp:          time.Now(),
		BlockFound:         height,
		Route:              r,
		Reverse:            reverse,
		InputAmount:        inputAmount,
		Messages:           messages,
		NRepeat:            nRepeat,
		EstimatedOutput:    finalAmount,
		EstimatedFee:       txFee,
		EstimatedNetProfit: amount.NewTokenAmount(e.referenceToken, netProfit),
	}, nil
}

func (e *Engine) runReadyToBroadcast(ctx context.Context, height int64) error {
	label := e.routeLabel()
	ctx, span := tracer.Start(ctx, "engine.ReadyToBroadcast", trace.WithAttributes(attribute.String("route", label)))
	defer span.End()

	params := e.data.Params
	if height > params.BlockFound+e.cfg.MaxBlockBroadcastDelay {
		e.log.Info("blockchain advanced past broadcast window, resetting", "route", e.route.Tokens, "block_found", params.BlockFound, "height", height)
		e.data = ArbitrageData{}
		return nil
	}

	var txsOut []ArbTx
	for i := 0; i < params.NRepeat; i++ {
		info, err := e.broadcaster.Broadcast(ctx, params.Messages, params.EstimatedFee)
		if err != nil {
			if errorsmod.IsOf(err, errs.ErrTxAlreadyBroadcasted) {
				e.log.Info("tx already broadcasted, resetting", "route", e.route.Tokens)
				e.data = ArbitrageData{}
				return nil
			}
			telemetry.TxBroadcasted.WithLabelValues(label, "failure").Inc()
			return err
		}
		telemetry.TxBroadcasted.WithLabelValues(label, "success").Inc()
		txsOut = append(txsOut, ArbTx{TimestampSent: time.Now(), TxHash: txHash(info)})
	}

	e.data.Txs = txsOut
	return nil
}

// txHash derives the identifier recorded for a just-submitted tx from the
// node's BroadcastSync response: it is the response's RawLog, since
// chain.TxInfo carries no separate hash field.
func txHash(info chain.TxInfo) string {
	return info.RawLog
}

func (e *Engine) runWaitingConfirmation(ctx context.Context, height int64) error {
	label := e.routeLabel()
	ctx, span := tracer.Start(ctx, "engine.WaitingConfirmation", trace.WithAttributes(attribute.String("route", label)))
	defer span.End()

	params := e.data.Params
	results := make([]ArbResult, 0, len(e.data.Txs))
	succeeded, failed := 0, 0
	var totalNetProfit math.LegacyDec = math.LegacyZeroDec()

	for _, tx := range e.data.Txs {
		info, err := e.lcd.TxInfo(ctx, tx.TxHash)
		if err != nil {
			return err
		}

		blockDelay := height - params.BlockFound
		switch {
		case !info.Found && blockDelay < e.cfg.MaxBlocksWaitReceipt:
			return nil // IsBusy: retry next block, no transition yet
		case !info.Found:
			results = append(results, ArbResult{TxStatus: TxNotFound, BlockReceived: height})
			telemetry.TxConfirmed.WithLabelValues(label, string(TxNotFound)).Inc()
		case height-info.Height < e.cfg.MinConfirmations:
			return nil // IsBusy: not enough confirmations yet
		case info.LogsNull:
			gasCost := amount.NewTokenAmount(e.referenceToken, math.LegacyNewDecFromInt(params.EstimatedFee.Amount))
			results = append(results, ArbResult{
				TxStatus:      TxFailed,
				ErrLog:        info.RawLog,
				GasUsed:       info.GasUsed,
				GasCost:       gasCost,
				BlockReceived: info.Height,
				NetProfitRef:  amount.NewTokenAmount(e.referenceToken, gasCost.Amount.Neg()),
			})
			failed++
			telemetry.TxConfirmed.WithLabelValues(label, string(TxFailed)).Inc()
		default:
			finalAmount, netProfit := parseConfirmedOutcome(info, params, e.referenceToken)
			results = append(results, ArbResult{
				TxStatus:          TxSucceeded,
				GasUsed:           info.GasUsed,
				InclusionDelay:    info.Height - params.BlockFound,
				TimestampReceived: time.Now(),
				BlockReceived:     info.Height,
				FinalAmount:       finalAmount,
				NetProfitRef:      netProfit,
			})
			succeeded++
			totalNetProfit = totalNetProfit.Add(netProfit.Amount)
			telemetry.TxConfirmed.WithLabelValues(label, string(TxSucceeded)).Inc()
		}
	}

	e.data.Results = results
	e.log.Info("arbitrage outcome",
		"route", e.route.Tokens,
		"succeeded", succeeded,
		"failed", failed,
		"total_net_profit", totalNetProfit.String(),
	)
	e.data = ArbitrageData{}
	return nil
}

// parseConfirmedOutcome reads the confirmed tx's balance-change events to
// recover the realized output amount and net profit. The concrete event
// attribute schema is chain/protocol-specific (wasm "transfer" events vs
// bank "coin_received"); this reads a generic "amount" attribute the way
// the teacher's keeper tests assert on emitted event attributes.
func parseConfirmedOutcome(info chain.TxInfo, params *ArbParams, referenceToken amount.Token) (amount.TokenAmount, amount.TokenAmount) {
	outToken := params.Route.Tokens[len(params.Route.Tokens)-1]
	if params.Reverse {
		outToken = params.Route.Tokens[0]
	}
	for _, ev := range info.Events {
		if raw, ok := ev.Attributes["amount"]; ok {
			if n, ok := math.NewIntFromString(raw); ok {
				finalAmount := amount.FromInt(outToken, n)
				netProfit := finalAmount.Amount.Sub(params.InputAmount.Amount).Sub(math.LegacyNewDecFromInt(params.EstimatedFee.Amount))
				return finalAmount, amount.NewTokenAmount(referenceToken, netProfit)
			}
		}
	}
	return params.EstimatedOutput, params.EstimatedNetProfit
}
