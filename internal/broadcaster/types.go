// Package broadcaster implements the replicated broadcaster fleet: the HTTP
// peer contract, duplicate-intent detection, and active-peer election, per
// spec.md §4.6.
package broadcaster

import (
	"time"

	"github.com/paw-chain/arb/internal/chain"
)

// Result is the reply status the peer HTTP contract returns.
type Result string

const (
	ResultBroadcasted Result = "broadcasted"
	ResultRepeatedTx  Result = "repeated_tx"
	ResultNewBlock    Result = "new_block"
)

// Payload is the JSON body of `POST /{chain}/txs` (spec.md §6).
type Payload struct {
	Height   int64       `json:"height"`
	Msgs     []chain.Msg `json:"msgs"`
	NRepeat  int         `json:"n_repeat"`
	Fee      *chain.Fee  `json:"fee"`
	FeeDenom string      `json:"fee_denom"`
}

// TxOutcome is one (timestamp, tx_result) pair in the response's data array.
type TxOutcome struct {
	Timestamp time.Time     `json:"timestamp"`
	TxResult  chain.TxInfo  `json:"tx_result"`
}

// Response is the JSON reply of `POST /{chain}/txs`.
type Response struct {
	Result Result      `json:"result"`
	Data   []TxOutcome `json:"data"`
}
