package filter_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paw-chain/arb/internal/amount"
	"github.com/paw-chain/arb/internal/chain"
	"github.com/paw-chain/arb/internal/filter"
	"github.com/paw-chain/arb/internal/pool"
)

func tok(t *testing.T, denom string) amount.Token {
	tk, err := amount.NewNativeToken(denom, denom, 6)
	require.NoError(t, err)
	return tk
}

func TestMsgCountIs(t *testing.T) {
	f := filter.MsgCountIs(1)
	require.True(t, f.Match(chain.DecodedTx{Messages: []chain.Msg{{}}}))
	require.False(t, f.Match(chain.DecodedTx{Messages: []chain.Msg{{}, {}}}))
}

func TestContractSwapMatchesDirectAndRouter(t *testing.T) {
	id := pool.Identity{Address: "terra1pool"}
	f := filter.ContractSwapMatches(id)

	direct := chain.DecodedTx{Messages: []chain.Msg{{Kind: chain.MsgContractSwap, Contract: "terra1pool"}}}
	require.True(t, f.Match(direct))

	routed := chain.DecodedTx{Messages: []chain.Msg{{Kind: chain.MsgRouterSwap, RouterHops: []chain.RouterHop{{PoolAddress: "terra1pool"}}}}}
	require.True(t, f.Match(routed))

	unrelated := chain.DecodedTx{Messages: []chain.Msg{{Kind: chain.MsgContractSwap, Contract: "terra1other"}}}
	require.False(t, f.Match(unrelated))
}

func TestNativeSwapMatchesEitherDirection(t *testing.T) {
	ust := tok(t, "uusd")
	luna := tok(t, "uluna")
	f := filter.NativeSwapMatches(ust, luna)

	a := chain.DecodedTx{Messages: []chain.Msg{{Kind: chain.MsgNativeSwap, OfferDenom: "uusd", AskDenom: "uluna"}}}
	b := chain.DecodedTx{Messages: []chain.Msg{{Kind: chain.MsgNativeSwap, OfferDenom: "uluna", AskDenom: "uusd"}}}
	require.True(t, f.Match(a))
	require.True(t, f.Match(b))
}

func TestAndOrCombinators(t *testing.T) {
	always := filter.Func(func(chain.DecodedTx) bool { return true })
	never := filter.Func(func(chain.DecodedTx) bool { return false })

	require.True(t, filter.And(always, always).Match(chain.DecodedTx{}))
	require.False(t, filter.And(always, never).Match(chain.DecodedTx{}))
	require.True(t, filter.Or(never, always).Match(chain.DecodedTx{}))
	require.False(t, filter.Or(never, never).Match(chain.DecodedTx{}))
}

func TestRouterSwapMatchesRestrictsToKnownRouters(t *testing.T) {
	pools := []pool.Identity{{Address: "p1"}}
	f := filter.RouterSwapMatches(pools, []string{"router1"})

	ok := chain.DecodedTx{Messages: []chain.Msg{{Kind: chain.MsgRouterSwap, Contract: "router1", RouterHops: []chain.RouterHop{{PoolAddress: "p1"}}}}}
	wrongRouter := chain.DecodedTx{Messages: []chain.Msg{{Kind: chain.MsgRouterSwap, Contract: "router2", RouterHops: []chain.RouterHop{{PoolAddress: "p1"}}}}}

	require.True(t, f.Match(ok))
	require.False(t, f.Match(wrongRouter))
}
