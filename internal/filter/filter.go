// Package filter implements the Tx Filter DSL: composable predicates over
// decoded pending transactions, used by the mempool watcher and strategy
// driver to route mempool deltas to the routes they are relevant to.
package filter

import (
	"github.com/paw-chain/arb/internal/amount"
	"github.com/paw-chain/arb/internal/chain"
	"github.com/paw-chain/arb/internal/pool"
)

// Filter is a predicate over a decoded transaction. Per-route filters are
// built once and shared by reference (spec.md §4.4).
type Filter interface {
	Match(tx chain.DecodedTx) bool
}

// Func adapts a plain function to Filter.
type Func func(tx chain.DecodedTx) bool

func (f Func) Match(tx chain.DecodedTx) bool { return f(tx) }

// MsgCountIs matches transactions containing exactly n messages.
func MsgCountIs(n int) Filter {
	return Func(func(tx chain.DecodedTx) bool {
		return len(tx.Messages) == n
	})
}

// ContractSwapMatches matches when the first message is a direct swap on
// id, a CW20-wrapped swap hook targeting id, or a router payload whose
// operations include a hop on id.
func ContractSwapMatches(id pool.Identity) Filter {
	return Func(func(tx chain.DecodedTx) bool {
		if len(tx.Messages) == 0 {
			return false
		}
		first := tx.Messages[0]
		switch first.Kind {
		case chain.MsgContractSwap, chain.MsgContractSend:
			return first.Contract == id.Address
		case chain.MsgRouterSwap:
			for _, hop := range first.RouterHops {
				if hop.PoolAddress == id.Address {
					return true
				}
			}
		}
		return false
	})
}

// NativeSwapMatches matches a native LUNA<>stablecoin market swap between
// the two denoms, in either direction.
func NativeSwapMatches(a, b amount.Token) Filter {
	return Func(func(tx chain.DecodedTx) bool {
		if len(tx.Messages) == 0 {
			return false
		}
		m := tx.Messages[0]
		if m.Kind != chain.MsgNativeSwap {
			return false
		}
		return (m.OfferDenom == a.ID() && m.AskDenom == b.ID()) ||
			(m.OfferDenom == b.ID() && m.AskDenom == a.ID())
	})
}

// RouterSwapMatches decodes a router "execute_swap_operations" payload and
// matches any hop against pools, restricted to payloads targeting one of
// routerAddresses.
func RouterSwapMatches(pools []pool.Identity, routerAddresses []string) Filter {
	poolSet := make(map[string]struct{}, len(pools))
	for _, p := range pools {
		poolSet[p.Address] = struct{}{}
	}
	routerSet := make(map[string]struct{}, len(routerAddresses))
	for _, r := range routerAddresses {
		routerSet[r] = struct{}{}
	}
	return Func(func(tx chain.DecodedTx) bool {
		if len(tx.Messages) == 0 {
			return false
		}
		m := tx.Messages[0]
		if m.Kind != chain.MsgRouterSwap {
			return false
		}
		if _, ok := routerSet[m.Contract]; !ok {
			return false
		}
		for _, hop := range m.RouterHops {
			if _, ok := poolSet[hop.PoolAddress]; ok {
				return true
			}
		}
		return false
	})
}

// And matches iff every filter matches.
func And(filters ...Filter) Filter {
	return Func(func(tx chain.DecodedTx) bool {
		for _, f := range filters {
			if !f.Match(tx) {
				return false
			}
		}
		return true
	})
}

// Or matches iff at least one filter matches.
func Or(filters ...Filter) Filter {
	return Func(func(tx chain.DecodedTx) bool {
		for _, f := range filters {
			if f.Match(tx) {
				return true
			}
		}
		return false
	})
}
