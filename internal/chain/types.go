package chain

import (
	"cosmossdk.io/math"

	"github.com/paw-chain/arb/internal/amount"
)

// ContractInfo mirrors the subset of wasmd's contract_info response the
// engine needs to validate an address-book entry is really a contract.
type ContractInfo struct {
	Address string
	CodeID  uint64
	Admin   string
	Label   string
}

// AccountInfo mirrors the auth module account query used for fee/sequence
// management (component G).
type AccountInfo struct {
	Address       string
	AccountNumber uint64
	Sequence      uint64
}

// BlockInfo is the minimal latest-block shape used by peer-election height
// probes and the mempool watcher's WebSocket subscription loop.
type BlockInfo struct {
	Height int64
	Synced bool // false while the node reports itself as catching up
}

// Event is one attribute-bag entry from a confirmed transaction's events,
// used to parse the balance-change log on confirmation (§4.8 WaitingConfirmation).
type Event struct {
	Type       string
	Attributes map[string]string
}

// TxInfo is the confirmation-query result for a previously broadcast tx.
type TxInfo struct {
	Found      bool
	Height     int64
	GasWanted  int64
	GasUsed    int64
	RawLog     string
	LogsNull   bool // true when info.logs == null, signaling a failed tx
	Events     []Event
}

// Fee is a gas/fee-amount pair ready to attach to a broadcast.
type Fee struct {
	Gas       uint64
	Amount    math.Int
	FeeDenom  string
}

// GammPoolInfo mirrors the subset of an Osmosis GAMM weighted-pool query
// the engine needs to construct a pool.Pool instance.
type GammPoolInfo struct {
	PoolID   uint64
	Tokens   []amount.Token
	Reserves []math.Int
	Weights  []math.Int
	SwapFee  math.LegacyDec
}

// MarketParams mirrors the Terra native market module's parameters used by
// NativePool to size its virtual reserves.
type MarketParams struct {
	BasePool   math.LegacyDec
	PoolRecoveryPeriod uint64
	MinStabilitySpread math.LegacyDec
}
