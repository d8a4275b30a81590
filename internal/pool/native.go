package pool

import (
	"context"
	"sync"

	"cosmossdk.io/math"

	"github.com/paw-chain/arb/internal/amount"
	"github.com/paw-chain/arb/internal/chain"
	"github.com/paw-chain/arb/internal/errs"
)

// NativePool models the Terra market module's synthetic LUNA/stablecoin
// pool: there is no on-chain reserve pair, only an oracle exchange rate and
// a virtual pool depth parameter. Per spec.md §3,
// `simulate_reserve_change` accumulates a `pool_delta` scalar instead of
// forking a reserve pair.
type NativePool struct {
	id Identity

	mu          sync.RWMutex
	luna        amount.Token
	stable      amount.Token
	oracleRate  math.LegacyDec // LUNA price denominated in stable
	basePool    math.LegacyDec // virtual pool depth from x/market params
	minSpread   math.LegacyDec
	poolDelta   math.LegacyDec
	stopUpdates bool
}

// NewNativePool builds a native virtual pool from the current oracle rate
// and the market module's base_pool/min_stability_spread parameters.
func NewNativePool(id Identity, luna, stable amount.Token, oracleRate, basePool, minSpread math.LegacyDec) *NativePool {
	return &NativePool{
		id:         id,
		luna:       luna,
		stable:     stable,
		oracleRate: oracleRate,
		basePool:   basePool,
		minSpread:  minSpread,
		poolDelta:  math.LegacyZeroDec(),
	}
}

func (p *NativePool) Identity() Identity { return p.id }

func (p *NativePool) Tokens() []amount.Token { return []amount.Token{p.luna, p.stable} }

func (p *NativePool) StopUpdates() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stopUpdates
}

// virtualReserves returns the (stable, luna) virtual reserve pair implied by
// basePool, poolDelta and the oracle rate.
func (p *NativePool) virtualReserves() (math.LegacyDec, math.LegacyDec) {
	stableReserve := p.basePool.Add(p.poolDelta)
	lunaReserve := p.basePool.Quo(p.oracleRate).Sub(p.poolDelta.Quo(p.oracleRate))
	return stableReserve, lunaReserve
}

func (p *NativePool) GetReserves(ctx context.Context) ([]amount.TokenAmount, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	stableReserve, lunaReserve := p.virtualReserves()
	return []amount.TokenAmount{
		amount.NewTokenAmount(p.luna, lunaReserve),
		amount.NewTokenAmount(p.stable, stableReserve),
	}, nil
}

func (p *NativePool) resolveSide(token amount.Token) (isLuna bool, err error) {
	switch {
	case token.Equal(p.luna):
		return true, nil
	case token.Equal(p.stable):
		return false, nil
	default:
		return false, errs.ErrMismatchedTokens.Wrapf("token %s not native pool side", token)
	}
}

// quoteNative is the shared pure swap calculation: a constant-product
// formula over the virtual reserves, with the spread the on-chain module
// imposes as its own "fee" equivalent.
func quoteNative(reserveIn, reserveOut, in, spread math.LegacyDec) (math.LegacyDec, error) {
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return math.LegacyDec{}, errs.ErrInsufficientLiquidity.Wrap("virtual reserves are zero")
	}
	outBeforeSpread := reserveOut.Mul(in).Quo(reserveIn.Add(in))
	return outBeforeSpread.Mul(math.LegacyOneDec().Sub(spread)), nil
}

func (p *NativePool) QuoteOut(ctx context.Context, in amount.TokenAmount, tokenOut amount.Token, safety Safety) (amount.TokenAmount, error) {
	p.mu.RLock()
	inIsLuna, err := p.resolveSide(in.Token)
	if err == nil {
		_, err = p.resolveSide(tokenOut)
	}
	stableReserve, lunaReserve := p.virtualReserves()
	spread := p.minSpread
	p.mu.RUnlock()
	if err != nil {
		return amount.TokenAmount{}, err
	}

	var reserveIn, reserveOut math.LegacyDec
	if inIsLuna {
		reserveIn, reserveOut = lunaReserve, stableReserve
	} else {
		reserveIn, reserveOut = stableReserve, lunaReserve
	}

	outDec, err := quoteNative(reserveIn, reserveOut, in.Amount, spread)
	if err != nil {
		return amount.TokenAmount{}, err
	}
	if safety.Enabled {
		bps := safety.ExplicitBps
		if bps == 0 {
			bps = defaultCPMarginBps
		}
		outDec = outDec.Mul(math.LegacyOneDec().Sub(math.LegacyNewDec(int64(bps)).QuoInt64(10000)))
	}
	return amount.NewTokenAmount(tokenOut, outDec), nil
}

// SimulateReserveChange accumulates the stable-denominated delta into
// pool_delta rather than forking a reserve pair, per spec.md §3.
func (p *NativePool) SimulateReserveChange(deltas []amount.TokenAmount) (Pool, error) {
	p.mu.RLock()
	fork := &NativePool{
		id:          p.id,
		luna:        p.luna,
		stable:      p.stable,
		oracleRate:  p.oracleRate,
		basePool:    p.basePool,
		minSpread:   p.minSpread,
		poolDelta:   p.poolDelta,
		stopUpdates: true,
	}
	p.mu.RUnlock()

	for _, d := range deltas {
		switch {
		case d.Token.Equal(fork.stable):
			fork.poolDelta = fork.poolDelta.Add(d.Amount)
		case d.Token.Equal(fork.luna):
			fork.poolDelta = fork.poolDelta.Sub(d.Amount.Mul(fork.oracleRate))
		default:
			return nil, errs.ErrMismatchedTokens.Wrapf("delta token %s not in native pool %s", d.Token, p.id)
		}
	}
	return fork, nil
}

func (p *NativePool) ReserveDeltaFromTx(tx chain.DecodedTx) ([]amount.TokenAmount, error) {
	var deltas []amount.TokenAmount
	for _, msg := range tx.Messages {
		if msg.Kind != chain.MsgNativeSwap {
			continue
		}
		offerIsLuna := msg.OfferDenom == p.luna.ID()
		offerIsStable := msg.OfferDenom == p.stable.ID()
		if !offerIsLuna && !offerIsStable {
			continue
		}
		offerToken := p.stable
		outToken := p.luna
		if offerIsLuna {
			offerToken, outToken = p.luna, p.stable
		}
		offerAmtDec := math.LegacyNewDecFromInt(msg.OfferAmt)

		out, err := p.QuoteOut(context.Background(), amount.NewTokenAmount(offerToken, offerAmtDec), outToken, NoSafety)
		if err != nil {
			continue
		}
		if err := checkMaxSpread(msg.BeliefPrice, msg.MaxSpread, offerAmtDec, out.Amount); err != nil {
			return nil, err
		}
		deltas = append(deltas,
			amount.NewTokenAmount(offerToken, offerAmtDec),
			amount.NewTokenAmount(outToken, out.Amount.Neg()),
		)
	}
	return deltas, nil
}

func (p *NativePool) BuildSwapOps(sender string, in amount.TokenAmount, minOut amount.TokenAmount) (amount.TokenAmount, []chain.Msg, error) {
	outToken := p.stable
	if in.Token.Equal(p.stable) {
		outToken = p.luna
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
		Kind:       chain.MsgNativeSwap,
		Sender:     sender,
		OfferDenom: in.Token.ID(),
		AskDenom:   outToken.ID(),
		OfferAmt:   in.IntAmount(),
	}
	return out, []chain.Msg{msg}, nil
}
