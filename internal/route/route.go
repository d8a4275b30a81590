// Package route implements multi-hop routes over pools: quoting,
// message-building (preferring an atomic router contract when available),
// and cycle-direction selection.
package route

import (
	"context"

	"github.com/paw-chain/arb/internal/amount"
	"github.com/paw-chain/arb/internal/chain"
	"github.com/paw-chain/arb/internal/errs"
	"github.com/paw-chain/arb/internal/pool"
)

// RouterInfo describes an atomic multi-hop router contract, when this
// protocol offers one (e.g. Astroport's router), per spec.md §4.3: "when
// the underlying protocol offers a router contract that executes the whole
// multi-hop atomically, that form is preferred and a single message is
// produced."
type RouterInfo struct {
	Address string
}

// Route is an ordered walk Tᵢ -(Pᵢ₊₁)-> Tᵢ₊₁ over pools. IsCycle holds when
// T0 == Tn.
type Route struct {
	Tokens []amount.Token
	Pools  []pool.Pool
	Router *RouterInfo // nil when no atomic router is available for this protocol
}

// IsCycle reports whether the route starts and ends on the same token.
func (r Route) IsCycle() bool {
	if len(r.Tokens) < 2 {
		return false
	}
	return r.Tokens[0].Equal(r.Tokens[len(r.Tokens)-1])
}

// hopOrder returns the tokens and pools in traversal order for the
// requested direction, without mutating the route's own slices.
func (r Route) hopOrder(reverse bool) ([]amount.Token, []pool.Pool) {
	if !reverse {
		return r.Tokens, r.Pools
	}
	n := len(r.Tokens)
	tokens := make([]amount.Token, n)
	for i, t := range r.Tokens {
		tokens[n-1-i] = t
	}
	m := len(r.Pools)
	pools := make([]pool.Pool, m)
	for i, p := range r.Pools {
		pools[m-1-i] = p
	}
	return tokens, pools
}

// Quote sequentially calls each pool's QuoteOut, threading the output as
// the next hop's input (spec.md §4.3).
func (r Route) Quote(ctx context.Context, amountIn amount.TokenAmount, reverse bool, safety pool.Safety) (amount.TokenAmount, error) {
	tokens, pools := r.hopOrder(reverse)
	if len(pools) == 0 {
		return amount.TokenAmount{}, errs.ErrInvalidAmount.Wrap("route has no pools")
	}
	current := amountIn
	for i, p := range pools {
		outToken := tokens[i+1]
		out, err := p.QuoteOut(ctx, current, outToken, safety)
		if err != nil {
			return amount.TokenAmount{}, err
		}
		current = out
	}
	return current, nil
}

// ShouldReverse quotes both directions at a small seed input and reports
// whether the reverse direction is strictly more profitable. A tie prefers
// forward, per spec.md §8.
func (r Route) ShouldReverse(ctx context.Context, seed amount.TokenAmount) (bool, error) {
	if !r.IsCycle() {
		return false, nil
	}
	forward, err := r.Quote(ctx, seed, false, pool.NoSafety)
	if err != nil {
		return false, err
	}
	reverseSeed := amount.NewTokenAmount(r.Tokens[len(r.Tokens)-1], seed.Amount)
	reverseQuote, err := r.Quote(ctx, reverseSeed, true, pool.NoSafety)
	if err != nil {
		return false, err
	}
	cmp, err := reverseQuote.Cmp(forward)
	if err != nil {
		return false, err
	}
	return cmp > 0, nil
}

// BuildOps builds the concatenated on-chain message sequence for this
// route. When a RouterInfo is present, a single atomic router message is
// produced; otherwise one message is emitted per hop (spec.md §4.3).
func (r Route) BuildOps(sender string, amountIn amount.TokenAmount, reverse bool, minOut amount.TokenAmount) (amount.TokenAmount, []chain.Msg, error) {
	tokens, pools := r.hopOrder(reverse)
	if len(pools) == 0 {
		return amount.TokenAmount{}, nil, errs.ErrInvalidAmount.Wrap("route has no pools")
	}

	if r.Router != nil && len(pools) > 1 {
		return r.buildRouterOps(sender, amountIn, tokens, pools, minOut)
	}

	current := amountIn
	var msgs []chain.Msg
	for i, p := range pools {
		hopMinOut := amount.Zero(tokens[i+1])
		if i == len(pools)-1 {
			hopMinOut = minOut
		}
		out, hopMsgs, err := p.BuildSwapOps(sender, current, hopMinOut)
		if err != nil {
			return amount.TokenAmount{}, nil, err
		}
		msgs = append(msgs, hopMsgs...)
		current = out
	}
	return current, msgs, nil
}

func (r Route) buildRouterOps(sender string, amountIn amount.TokenAmount, tokens []amount.Token, pools []pool.Pool, minOut amount.TokenAmount) (amount.TokenAmount, []chain.Msg, error) {
	hops := make([]chain.RouterHop, len(pools))
	current := amountIn
	for i, p := range pools {
		out, err := p.QuoteOut(context.Background(), current, tokens[i+1], pool.NoSafety)
		if err != nil {
			return amount.TokenAmount{}, nil, err
		}
		hops[i] = chain.RouterHop{
			PoolAddress: p.Identity().Address,
			OfferDenom:  tokens[i].ID(),
			AskDenom:    tokens[i+1].ID(),
		}
		current = out
	}
	if !minOut.IsZero() {
		if cmp, err := current.Cmp(minOut); err == nil && cmp < 0 {
			return amount.TokenAmount{}, nil, errs.ErrInsufficientLiquidity.Wrap("router quote below min_out")
		}
	}
	msg := chain.Msg{
		Kind:       chain.MsgRouterSwap,
		Sender:     sender,
		Contract:   r.Router.Address,
		OfferDenom: tokens[0].ID(),
		AskDenom:   tokens[len(tokens)-1].ID(),
		OfferAmt:   amountIn.IntAmount(),
		RouterHops: hops,
	}
	return current, []chain.Msg{msg}, nil
}
