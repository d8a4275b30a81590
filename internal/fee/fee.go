// Package fee implements fee estimation and sequence-mismatch retry
// (component G, spec.md §4.7): simulate gas via the node, fall back to a
// fixed estimate when simulation is unavailable, and recover from
// account-sequence races the way the teacher's nonce manager recovers from
// replay races — read the authoritative value back and retry, bounded.
package fee

import (
	"context"
	"regexp"
	"strconv"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"

	"github.com/paw-chain/arb/internal/chain"
	"github.com/paw-chain/arb/internal/errs"
)

// maxEstimateRetries bounds estimate_fee's sequence-mismatch retry loop
// (spec.md §4.7 step 3: "up to 5 times").
const maxEstimateRetries = 5

// maxBroadcastRetries bounds broadcast's sequence-mismatch retry loop
// (spec.md §4.7 step 2 / §8 scenario 5: "at most 10 retries total").
const maxBroadcastRetries = 10

// fallbackGasSlack is added to gas_adjustment for the conservative fallback
// estimate when simulation fails and use_fallback_estimate is set
// (spec.md §4.7 step 4).
const fallbackGasSlack = "0.20"

var sequenceMismatchPattern = regexp.MustCompile(`account sequence mismatch, expected (\d+)`)

// ParseExpectedSequence extracts the expected sequence number from a node
// error message of the form "account sequence mismatch, expected K", or
// returns (0, false) if errMsg isn't that shape.
func ParseExpectedSequence(errMsg string) (uint64, bool) {
	m := sequenceMismatchPattern.FindStringSubmatch(errMsg)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Estimator owns gas simulation and the fallback gas-price schedule.
type Estimator struct {
	lcd             chain.LCDClient
	signer          chain.Signer
	gasAdjustment   math.LegacyDec
	gasPrice        math.LegacyDec
	feeDenom        string
	useFallback     bool
	mempoolContains func(ctx context.Context, sender string) (bool, error)
}

// NewEstimator builds an Estimator. mempoolContains reports whether a tx
// from sender is already present in the mempool, used to distinguish a
// genuine race from a prior broadcast that already landed.
func NewEstimator(
	lcd chain.LCDClient,
	signer chain.Signer,
	gasAdjustment, gasPrice math.LegacyDec,
	feeDenom string,
	useFallback bool,
	mempoolContains func(ctx context.Context, sender string) (bool, error),
) *Estimator {
	return &Estimator{
		lcd:             lcd,
		signer:          signer,
		gasAdjustment:   gasAdjustment,
		gasPrice:        gasPrice,
		feeDenom:        feeDenom,
		useFallback:     useFallback,
		mempoolContains: mempoolContains,
	}
}

// EstimateFee builds a dry-run transaction, simulates it, and returns a
// sized Fee, retrying on account-sequence mismatch and falling back to a
// conservative fixed estimate on other errors when configured to do so
// (spec.md §4.7 steps 1-4).
func (e *Estimator) EstimateFee(ctx context.Context, msgs []chain.Msg, nativeAmount math.Int) (chain.Fee, error) {
	var lastErr error
	for attempt := 0; attempt < maxEstimateRetries; attempt++ {
		seq := e.signer.Sequence()
		dryRun, err := e.signer.SignTx(ctx, msgs, chain.Fee{}, seq)
		if err != nil {
			return chain.Fee{}, err
		}

		gasUsed, err := e.lcd.Simulate(ctx, dryRun)
		if err == nil {
			return e.sizeFromSimulation(gasUsed), nil
		}

		if expected, ok := ParseExpectedSequence(err.Error()); ok {
			alreadyBroadcast, checkErr := e.mempoolContains(ctx, e.signer.Address())
			if checkErr == nil && alreadyBroadcast {
				return chain.Fee{}, errorsmod.Wrap(errs.ErrTxAlreadyBroadcasted, "prior tx already present in mempool")
			}
			e.signer.SetSequence(expected)
			lastErr = err
			continue
		}

		if e.useFallback {
			return e.fallbackFee(nativeAmount)
		}
		return chain.Fee{}, errorsmod.Wrap(errs.ErrFeeEstimationError, err.Error())
	}
	return chain.Fee{}, errorsmod.Wrapf(errs.ErrFeeEstimationError, "exhausted %d sequence-mismatch retries: %v", maxEstimateRetries, lastErr)
}

func (e *Estimator) sizeFromSimulation(gasUsed uint64) chain.Fee {
	gas := ceilMulDec(gasUsed, e.gasAdjustment)
	amount := ceilPrice(gas, e.gasPrice)
	return chain.Fee{Gas: gas, Amount: amount, FeeDenom: e.feeDenom}
}

func (e *Estimator) fallbackFee(nativeAmount math.Int) (chain.Fee, error) {
	slack, err := math.LegacyNewDecFromStr(fallbackGasSlack)
	if err != nil {
		return chain.Fee{}, err
	}
	adjustment := e.gasAdjustment.Add(slack)

	// no simulated gas available; use a fixed conservative base gas, scaled
	// by the gas adjustment plus the fallback slack.
	const conservativeBaseGas = 200000
	gas := ceilMulDec(conservativeBaseGas, adjustment)
	amount := ceilPrice(gas, e.gasPrice)

	var tax math.Int
	if !nativeAmount.IsNil() && nativeAmount.IsPositive() {
		taxRate, err := e.lcd.TaxRate(context.Background())
		if err == nil {
			tax = taxRate.MulInt(nativeAmount).TruncateInt()
		}
	}
	if !tax.IsNil() {
		amount = amount.Add(tax)
	}
	return chain.Fee{Gas: gas, Amount: amount, FeeDenom: e.feeDenom}, nil
}

func ceilMulDec(gasUsed uint64, adjustment math.LegacyDec) uint64 {
	scaled := adjustment.MulInt64(int64(gasUsed))
	return scaled.Ceil().TruncateInt().Uint64()
}

func ceilPrice(gas uint64, gasPrice math.LegacyDec) math.Int {
	return gasPrice.MulInt64(int64(gas)).Ceil().TruncateInt()
}
