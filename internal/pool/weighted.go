package pool

import (
	"context"
	"math/big"
	"sync"

	"cosmossdk.io/math"

	"github.com/paw-chain/arb/internal/amount"
	"github.com/paw-chain/arb/internal/chain"
	"github.com/paw-chain/arb/internal/errs"
)

// WeightedPool is the Osmosis GAMM weighted-product model: N tokens, each
// with a reserve and a weight, swapping via a rational-power invariant
// rather than the plain `x*y=k` curve.
type WeightedPool struct {
	id Identity

	mu          sync.RWMutex
	tokens      []amount.Token
	reserves    []math.Int
	weights     []math.Int // normalized against their sum, not necessarily 1-summing ints
	swapFee     math.LegacyDec
	stopUpdates bool
}

// NewWeightedPool builds a pool from parallel tokens/reserves/weights
// slices, grounded on the Osmosis GAMM pool-asset shape.
func NewWeightedPool(id Identity, tokens []amount.Token, reserves, weights []math.Int, swapFee math.LegacyDec) *WeightedPool {
	return &WeightedPool{id: id, tokens: tokens, reserves: reserves, weights: weights, swapFee: swapFee}
}

func (p *WeightedPool) Identity() Identity { return p.id }

func (p *WeightedPool) Tokens() []amount.Token { return p.tokens }

func (p *WeightedPool) StopUpdates() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stopUpdates
}

func (p *WeightedPool) GetReserves(ctx context.Context) ([]amount.TokenAmount, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]amount.TokenAmount, len(p.tokens))
	for i, tok := range p.tokens {
		out[i] = amount.FromInt(tok, p.reserves[i])
	}
	return out, nil
}

func (p *WeightedPool) indexOf(token amount.Token) int {
	for i, t := range p.tokens {
		if t.Equal(token) {
			return i
		}
	}
	return -1
}

// powRational computes base^exponent for a non-integer exponent by bridging
// through float64, the way an off-chain belief-price estimator can afford
// to (unlike the on-chain module, this does not need bit-exact consensus
// determinism — only to stay within the safety margin the caller applies
// afterward). Grounded on the shape of osmomath.Pow's call sites in the
// weighted-pool swap formula, substituting a float64 bridge for the
// on-chain binomial-series implementation this module does not import.
func powRational(base, exponent math.LegacyDec) math.LegacyDec {
	baseF, _ := new(big.Float).SetString(base.String())
	expF, _ := new(big.Float).SetString(exponent.String())
	b, _ := baseF.Float64()
	e, _ := expF.Float64()
	result := stdPow(b, e)
	return math.LegacyMustNewDecFromStr(trimFloat(result))
}

func (p *WeightedPool) swapQuote(reserveIn, reserveOut, weightIn, weightOut math.Int, in, fee math.LegacyDec) (math.LegacyDec, error) {
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return math.LegacyDec{}, errs.ErrInsufficientLiquidity.Wrap("pool reserves are zero")
	}
	inAfterFee := in.Mul(math.LegacyOneDec().Sub(fee))
	reserveInDec := math.LegacyNewDecFromInt(reserveIn)
	y := reserveInDec.Quo(reserveInDec.Add(inAfterFee))

	weightRatio := math.LegacyNewDecFromInt(weightIn).Quo(math.LegacyNewDecFromInt(weightOut))
	yPow := powRational(y, weightRatio)

	reserveOutDec := math.LegacyNewDecFromInt(reserveOut)
	out := reserveOutDec.Mul(math.LegacyOneDec().Sub(yPow))
	return out, nil
}

// weightedSafetyMargin implements spec.md §4.2's weighted-pool correction:
// `2·(r_out/w_out)/(r_in/w_in)^1.7 · 10^-decimals`, capped at `10^-5 · amount_out`.
func weightedSafetyMargin(reserveIn, reserveOut, weightIn, weightOut math.Int, decimals uint32, amountOut math.LegacyDec) math.LegacyDec {
	rOutOverWOut := math.LegacyNewDecFromInt(reserveOut).Quo(math.LegacyNewDecFromInt(weightOut))
	rInOverWIn := math.LegacyNewDecFromInt(reserveIn).Quo(math.LegacyNewDecFromInt(weightIn))
	denom := powRational(rInOverWIn, math.LegacyMustNewDecFromStr("1.7"))
	if denom.IsZero() {
		return math.LegacyZeroDec()
	}
	scale := math.LegacyNewDec(10).Power(uint64(decimals))
	margin := math.LegacyNewDec(2).Mul(rOutOverWOut).Quo(denom).Quo(scale)

	cap := amountOut.Mul(math.LegacyNewDecWithPrec(1, 5)) // 10^-5 * amount_out
	if margin.GT(cap) {
		margin = cap
	}
	return margin
}

func (p *WeightedPool) QuoteOut(ctx context.Context, in amount.TokenAmount, tokenOut amount.Token, safety Safety) (amount.TokenAmount, error) {
	p.mu.RLock()
	iIn := p.indexOf(in.Token)
	iOut := p.indexOf(tokenOut)
	var reserveIn, reserveOut, weightIn, weightOut math.Int
	fee := p.swapFee
	if iIn >= 0 && iOut >= 0 {
		reserveIn, reserveOut = p.reserves[iIn], p.reserves[iOut]
		weightIn, weightOut = p.weights[iIn], p.weights[iOut]
	}
	p.mu.RUnlock()
	if iIn < 0 || iOut < 0 {
		return amount.TokenAmount{}, errs.ErrMismatchedTokens.Wrapf("token pair not in weighted pool %s", p.id)
	}

	outDec, err := p.swapQuote(reserveIn, reserveOut, weightIn, weightOut, in.Amount, fee)
	if err != nil {
		return amount.TokenAmount{}, err
	}

	margin := weightedSafetyMargin(reserveIn, reserveOut, weightIn, weightOut, tokenOut.Decimals(), outDec)
	outDec = outDec.Sub(margin)

	if safety.Enabled {
		bps := safety.ExplicitBps
		if bps == 0 {
			bps = defaultCPMarginBps
		}
		outDec = outDec.Mul(math.LegacyOneDec().Sub(math.LegacyNewDec(int64(bps)).QuoInt64(10000)))
	}
	if outDec.IsNegative() {
		outDec = math.LegacyZeroDec()
	}
	return amount.NewTokenAmount(tokenOut, outDec), nil
}

func (p *WeightedPool) SimulateReserveChange(deltas []amount.TokenAmount) (Pool, error) {
	p.mu.RLock()
	fork := &WeightedPool{
		id:          p.id,
		tokens:      p.tokens,
		reserves:    append([]math.Int(nil), p.reserves...),
		weights:     p.weights,
		swapFee:     p.swapFee,
		stopUpdates: true,
	}
	p.mu.RUnlock()

	for _, d := range deltas {
		i := fork.indexOf(d.Token)
		if i < 0 {
			return nil, errs.ErrMismatchedTokens.Wrapf("delta token %s not in weighted pool %s", d.Token, p.id)
		}
		r, err := fork.reserves[i].SafeAdd(d.IntAmount())
		if err != nil {
			return nil, errs.ErrInsufficientLiquidity.Wrapf("reserve delta overflow: %v", err)
		}
		if r.IsNegative() {
			return nil, errs.ErrInsufficientLiquidity.Wrap("simulated reserves would go negative")
		}
		fork.reserves[i] = r
	}
	return fork, nil
}

func (p *WeightedPool) ReserveDeltaFromTx(tx chain.DecodedTx) ([]amount.TokenAmount, error) {
	var deltas []amount.TokenAmount
	for _, msg := range tx.Messages {
		switch msg.Kind {
		case chain.MsgOsmosisSwapIn:
			iIn := p.findDenomIndex(msg.OfferDenom)
			iOut := p.findDenomIndex(msg.AskDenom)
			if iIn < 0 || iOut < 0 {
				continue
			}
			offerAmtDec := math.LegacyNewDecFromInt(msg.OfferAmt)
			out, err := p.QuoteOut(context.Background(), amount.NewTokenAmount(p.tokens[iIn], offerAmtDec), p.tokens[iOut], NoSafety)
			if err != nil {
				continue
			}
			// same unit conversion as ConstantProductPool.ReserveDeltaFromTx:
			// integer msg units in, decimal TokenAmounts out
			outScale := math.LegacyNewDec(10).Power(uint64(p.tokens[iOut].Decimals()))
			deltas = append(deltas,
				amount.FromInt(p.tokens[iIn], msg.OfferAmt),
				amount.NewTokenAmount(p.tokens[iOut], out.Amount.Neg().Quo(outScale)),
			)
		case chain.MsgOsmosisSwapOut:
			// Known gap carried forward from original_source (spec.md §9
			// Open Questions #3): reserve-delta extraction for
			// MsgSwapExactAmountOut is not implemented.
			return nil, errs.ErrUnsupportedTxShape.Wrap("MsgSwapExactAmountOut reserve-delta extraction is not implemented")
		}
	}
	return deltas, nil
}

func (p *WeightedPool) findDenomIndex(denom string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for i, t := range p.tokens {
		if t.ID() == denom {
			return i
		}
	}
	return -1
}

func (p *WeightedPool) BuildSwapOps(sender string, in amount.TokenAmount, minOut amount.TokenAmount) (amount.TokenAmount, []chain.Msg, error) {
	p.mu.RLock()
	iIn := p.indexOf(in.Token)
	p.mu.RUnlock()
	if iIn < 0 {
		return amount.TokenAmount{}, nil, errs.ErrMismatchedTokens.Wrapf("token %s not in weighted pool %s", in.Token, p.id)
	}
	// single-hop GAMM swap only; multi-hop composition lives in internal/route
	var outToken amount.Token
	for i, t := range p.tokens {
		if i != iIn {
			outToken = t
			break
		}
	}
	out, err := p.QuoteOut(context.Background(), in, outToken, NoSafety)
	if err != nil {
		return amount.TokenAmount{}, nil, err
	}
	if !minOut.IsZero() {
		if cmp, cerr := out.Cmp(minOut); cerr == nil && cmp < 0 {
			return amount.TokenAmount{}, nil, errs.ErrInsufficientLiquidity.Wrap("quoted output below min_out")
		}
	}
	msg := chain.Msg{
		Kind:       chain.MsgOsmosisSwapIn,
		Sender:     sender,
		Contract:   p.id.Address,
		OfferDenom: in.Token.ID(),
		AskDenom:   outToken.ID(),
		OfferAmt:   in.IntAmount(),
	}
	return out, []chain.Msg{msg}, nil
}
