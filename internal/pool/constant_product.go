package pool

import (
	"context"
	"sync"

	"cosmossdk.io/math"

	"github.com/paw-chain/arb/internal/amount"
	"github.com/paw-chain/arb/internal/chain"
	"github.com/paw-chain/arb/internal/errs"
)

// defaultCPMarginBps is the default safety margin for constant-product
// quotes when Safety.Enabled is set without an explicit override.
const defaultCPMarginBps = 10 // 0.10%

// NativeTax describes the Terra native-denom output tax deducted after the
// pool fee (spec.md §3: "tax on native-token output deducted after fee").
type NativeTax struct {
	Rate math.LegacyDec
	Cap  math.Int
}

// ConstantProductPool is the `x*y=k` AMM model shared by Terraswap, Loop,
// and Astroport-style contracts, grounded on the overflow-checked swap
// formula in overflow_protection.go's SafeCalculateSwapOutput.
type ConstantProductPool struct {
	id Identity

	mu          sync.RWMutex
	token0      amount.Token
	token1      amount.Token
	reserve0    math.Int
	reserve1    math.Int
	feeRate     math.LegacyDec
	lpToken     *amount.Token
	nativeTax   *NativeTax
	stopUpdates bool
}

// NewConstantProductPool builds a pool from a token pair and its reserves.
// tokenA/tokenB need not be pre-sorted; CanonicalPair orders them.
func NewConstantProductPool(id Identity, tokenA, tokenB amount.Token, reserveA, reserveB math.Int, feeRate math.LegacyDec) *ConstantProductPool {
	t0, t1 := amount.CanonicalPair(tokenA, tokenB)
	r0, r1 := reserveA, reserveB
	if !t0.Equal(tokenA) {
		r0, r1 = reserveB, reserveA
	}
	return &ConstantProductPool{
		id:       id,
		token0:   t0,
		token1:   t1,
		reserve0: r0,
		reserve1: r1,
		feeRate:  feeRate,
	}
}

// WithNativeTax attaches a native-denom output tax, returning the receiver
// for chaining at construction time.
func (p *ConstantProductPool) WithNativeTax(tax NativeTax) *ConstantProductPool {
	p.nativeTax = &tax
	return p
}

func (p *ConstantProductPool) Identity() Identity { return p.id }

func (p *ConstantProductPool) Tokens() []amount.Token {
	return []amount.Token{p.token0, p.token1}
}

func (p *ConstantProductPool) StopUpdates() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stopUpdates
}

func (p *ConstantProductPool) GetReserves(ctx context.Context) ([]amount.TokenAmount, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return []amount.TokenAmount{
		amount.FromInt(p.token0, p.reserve0),
		amount.FromInt(p.token1, p.reserve1),
	}, nil
}

// reservesFor returns (reserveIn, reserveOut, outToken) oriented for a swap
// from tokenIn to the other pool token.
func (p *ConstantProductPool) reservesFor(tokenIn amount.Token) (math.Int, math.Int, amount.Token, error) {
	switch {
	case tokenIn.Equal(p.token0):
		return p.reserve0, p.reserve1, p.token1, nil
	case tokenIn.Equal(p.token1):
		return p.reserve1, p.reserve0, p.token0, nil
	default:
		return math.Int{}, math.Int{}, amount.Token{}, errs.ErrMismatchedTokens.Wrapf("token %s not in pool %s", tokenIn, p.id)
	}
}

// quoteOutRational is the shared pure calculation used by QuoteOut and
// ReserveDeltaFromTx's max-spread pre-check: `out = reserveOut*in / (reserveIn+in) * (1-fee)`.
func quoteOutRational(reserveIn, reserveOut math.Int, in, feeRate math.LegacyDec) (math.LegacyDec, error) {
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return math.LegacyDec{}, errs.ErrInsufficientLiquidity.Wrap("pool reserves are zero")
	}
	numerator := math.LegacyNewDecFromInt(reserveOut).Mul(in)
	denominator := math.LegacyNewDecFromInt(reserveIn).Add(in)
	outBeforeFee := numerator.Quo(denominator)
	return outBeforeFee.Mul(math.LegacyOneDec().Sub(feeRate)), nil
}

func (p *ConstantProductPool) QuoteOut(ctx context.Context, in amount.TokenAmount, tokenOut amount.Token, safety Safety) (amount.TokenAmount, error) {
	p.mu.RLock()
	reserveIn, reserveOut, resolvedOut, err := p.reservesFor(in.Token)
	feeRate := p.feeRate
	tax := p.nativeTax
	p.mu.RUnlock()
	if err != nil {
		return amount.TokenAmount{}, err
	}
	if !resolvedOut.Equal(tokenOut) {
		return amount.TokenAmount{}, errs.ErrMismatchedTokens.Wrapf("requested out token %s, pool produces %s", tokenOut, resolvedOut)
	}
	if in.IsNegative() || in.IsZero() {
		return amount.TokenAmount{}, errs.ErrInvalidAmount.Wrap("amount_in must be positive")
	}

	outDec, err := quoteOutRational(reserveIn, reserveOut, in.Amount, feeRate)
	if err != nil {
		return amount.TokenAmount{}, err
	}

	if tax != nil && resolvedOut.Kind() == amount.NativeDenom {
		taxAmt := outDec.Mul(tax.Rate)
		capDec := math.LegacyNewDecFromInt(tax.Cap)
		if taxAmt.GT(capDec) {
			taxAmt = capDec
		}
		outDec = outDec.Sub(taxAmt)
	}

	if safety.Enabled {
		bps := safety.ExplicitBps
		if bps == 0 {
			bps = defaultCPMarginBps
		}
		marginFactor := math.LegacyOneDec().Sub(math.LegacyNewDec(int64(bps)).QuoInt64(10000))
		outDec = outDec.Mul(marginFactor)
	}

	if outDec.IsZero() || outDec.IsNegative() || outDec.GTE(math.LegacyNewDecFromInt(reserveOut)) {
		return amount.TokenAmount{}, errs.ErrInsufficientLiquidity.Wrap("output too small or would exceed reserves")
	}

	return amount.NewTokenAmount(resolvedOut, outDec), nil
}

func (p *ConstantProductPool) SimulateReserveChange(deltas []amount.TokenAmount) (Pool, error) {
	p.mu.RLock()
	fork := &ConstantProductPool{
		id:          p.id,
		token0:      p.token0,
		token1:      p.token1,
		reserve0:    p.reserve0,
		reserve1:    p.reserve1,
		feeRate:     p.feeRate,
		lpToken:     p.lpToken,
		nativeTax:   p.nativeTax,
		stopUpdates: true,
	}
	p.mu.RUnlock()

	for _, d := range deltas {
		delta := d.IntAmount()
		switch {
		case d.Token.Equal(fork.token0):
			r, err := fork.reserve0.SafeAdd(delta)
			if err != nil {
				return nil, errs.ErrInsufficientLiquidity.Wrapf("reserve0 delta overflow: %v", err)
			}
			fork.reserve0 = r
		case d.Token.Equal(fork.token1):
			r, err := fork.reserve1.SafeAdd(delta)
			if err != nil {
				return nil, errs.ErrInsufficientLiquidity.Wrapf("reserve1 delta overflow: %v", err)
			}
			fork.reserve1 = r
		default:
			return nil, errs.ErrMismatchedTokens.Wrapf("delta token %s not in pool %s", d.Token, p.id)
		}
	}
	if fork.reserve0.IsNegative() || fork.reserve1.IsNegative() {
		return nil, errs.ErrInsufficientLiquidity.Wrap("simulated reserves would go negative")
	}
	return fork, nil
}

// checkMaxSpread returns errs.ErrMaxSpreadAssertion when a swap's realized
// price would deviate from its declared belief price by more than max_spread,
// matching the on-chain assertion so we never simulate a tx that will fail.
func checkMaxSpread(beliefPrice, maxSpread *math.LegacyDec, offerAmt, outAmt math.LegacyDec) error {
	if beliefPrice == nil || maxSpread == nil || offerAmt.IsZero() {
		return nil
	}
	expectedOut := offerAmt.Quo(*beliefPrice)
	if outAmt.GTE(expectedOut) {
		return nil
	}
	deviation := expectedOut.Sub(outAmt).Quo(expectedOut)
	if deviation.GT(*maxSpread) {
		return errs.ErrMaxSpreadAssertion.Wrapf("deviation %s exceeds max_spread %s", deviation, *maxSpread)
	}
	return nil
}

func (p *ConstantProductPool) ReserveDeltaFromTx(tx chain.DecodedTx) ([]amount.TokenAmount, error) {
	var deltas []amount.TokenAmount
	for _, msg := range tx.Messages {
		if msg.Kind != chain.MsgContractSwap && msg.Kind != chain.MsgContractSend {
			continue
		}
		if msg.Contract != p.id.Address {
			continue
		}
		offerToken, outToken, err := p.tokensForDenoms(msg.OfferDenom, msg.AskDenom)
		if err != nil {
			continue // not this pool's pair, e.g. a router hop landing elsewhere
		}
		offerAmtDec := math.LegacyNewDecFromInt(msg.OfferAmt)

		p.mu.RLock()
		reserveIn, reserveOut, _, _ := p.reservesFor(offerToken)
		feeRate := p.feeRate
		p.mu.RUnlock()

		outDec, err := quoteOutRational(reserveIn, reserveOut, offerAmtDec, feeRate)
		if err != nil {
			continue
		}
		if err := checkMaxSpread(msg.BeliefPrice, msg.MaxSpread, offerAmtDec, outDec); err != nil {
			return nil, err
		}

		// msg amounts and the quote are in on-chain integer units; deltas are
		// decimal TokenAmounts, which SimulateReserveChange scales back with IntAmount.
		outScale := math.LegacyNewDec(10).Power(uint64(outToken.Decimals()))
		deltas = append(deltas,
			amount.FromInt(offerToken, msg.OfferAmt),
			amount.NewTokenAmount(outToken, outDec.Neg().Quo(outScale)),
		)
	}
	return deltas, nil
}

func (p *ConstantProductPool) tokensForDenoms(offerDenom, askDenom string) (amount.Token, amount.Token, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	switch {
	case p.token0.ID() == offerDenom && p.token1.ID() == askDenom:
		return p.token0, p.token1, nil
	case p.token1.ID() == offerDenom && p.token0.ID() == askDenom:
		return p.token1, p.token0, nil
	default:
		return amount.Token{}, amount.Token{}, errs.ErrMismatchedTokens.Wrap("denoms do not match this pool")
	}
}

func (p *ConstantProductPool) BuildSwapOps(sender string, in amount.TokenAmount, minOut amount.TokenAmount) (amount.TokenAmount, []chain.Msg, error) {
	_, _, outToken, err := p.reservesFor(in.Token)
	if err != nil {
		return amount.TokenAmount{}, nil, err
	}
	out, err := p.QuoteOut(context.Background(), in, outToken, NoSafety)
	if err != nil {
		return amount.TokenAmount{}, nil, err
	}
	if !minOut.IsZero() {
		cmp, err := out.Cmp(minOut)
		if err != nil {
			return amount.TokenAmount{}, nil, err
		}
		if cmp < 0 {
			return amount.TokenAmount{}, nil, errs.ErrInsufficientLiquidity.Wrap("quoted output below min_out")
		}
	}
	msg := chain.Msg{
		Kind:       chain.MsgContractSwap,
		Sender:     sender,
		Contract:   p.id.Address,
		OfferDenom: in.Token.ID(),
		AskDenom:   outToken.ID(),
		OfferAmt:   in.IntAmount(),
	}
	return out, []chain.Msg{msg}, nil
}
