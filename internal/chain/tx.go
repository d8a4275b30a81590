// Package chain holds the decoded-transaction shapes and the external
// collaborator interfaces (LCD, gRPC, mempool HTTP, WebSocket, signer) that
// spec.md keeps out of scope: only their interfaces are specified here, no
// concrete transport.
package chain

import (
	"encoding/json"

	"cosmossdk.io/math"
)

// MsgKind classifies a decoded message for the filter DSL and the pool
// reserve-delta extraction, without needing the full wasm/bank msg type.
type MsgKind string

const (
	MsgContractSwap    MsgKind = "contract_swap"    // direct pool swap execute_msg
	MsgContractSend    MsgKind = "contract_send"    // CW20 Send wrapping a swap hook
	MsgNativeSwap      MsgKind = "native_swap"       // native market-module swap (Terra LUNA<>stablecoin)
	MsgRouterSwap      MsgKind = "router_swap"       // router "execute_swap_operations"
	MsgOsmosisSwapIn   MsgKind = "osmosis_swap_in"   // MsgSwapExactAmountIn
	MsgOsmosisSwapOut  MsgKind = "osmosis_swap_out"  // MsgSwapExactAmountOut
	MsgOther           MsgKind = "other"
)

// RouterHop is one leg of a decoded router "execute_swap_operations" payload.
type RouterHop struct {
	PoolAddress string
	OfferDenom  string
	AskDenom    string
}

// Msg is a decoded, engine-relevant transaction message. Only the fields the
// filter DSL and pool reserve-delta extraction need are populated; anything
// else (memos, unrelated bank sends) is represented as MsgOther and ignored.
type Msg struct {
	Kind     MsgKind
	Sender   string
	Contract string // target contract address, or module route for native swaps

	OfferDenom string
	AskDenom   string
	OfferAmt   math.Int

	BeliefPrice *math.LegacyDec // nil when the tx declared none
	MaxSpread   *math.LegacyDec

	RouterHops []RouterHop

	Raw json.RawMessage
}

// DecodedTx is a pending or confirmed transaction after decoding, as stored
// in the mempool cache (spec.md §3 MempoolCache, §4.5).
type DecodedTx struct {
	Hash     string
	Height   int64 // 0 when still pending
	Messages []Msg
	RawLen   int
}

// ChannelInfo is a read-only IBC channel descriptor, carried only so a
// CW20-over-IBC token's origin chain is inspectable for logging (SPEC_FULL
// §3) — no transfer logic is implemented.
type ChannelInfo struct {
	ChannelID            string
	PortID                string
	CounterpartyChainID  string
	CounterpartyChannelID string
}
