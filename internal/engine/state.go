// Package engine implements the per-route arbitrage state machine
// (component H, spec.md §4.8): a four-state machine whose state is a pure
// function of which optional fields are present, a reserve-simulation
// scope, and the optimizer-driven planning step.
package engine

import (
	"time"

	"github.com/paw-chain/arb/internal/amount"
	"github.com/paw-chain/arb/internal/chain"
	"github.com/paw-chain/arb/internal/route"
)

// State is one of the four arbitrage-lifecycle states, derived from
// ArbitrageData rather than stored directly (spec.md §4.8).
type State string

const (
	StateReadyToPlan         State = "ReadyToPlan"
	StateReadyToBroadcast    State = "ReadyToBroadcast"
	StateWaitingConfirmation State = "WaitingConfirmation"
	StateFinished            State = "Finished"
)

// TxStatus is the terminal classification of one broadcast tx.
type TxStatus string

const (
	TxSucceeded TxStatus = "succeeded"
	TxFailed    TxStatus = "failed"
	TxNotFound  TxStatus = "not_found"
)

// ArbParams is the planning output of ReadyToPlan: the chosen route,
// direction, sizing, and pre-built messages (spec.md §3).
type ArbParams struct {
	Timestamp          time.Time
	BlockFound         int64
	Route              route.Route
	Reverse            bool
	InputAmount        amount.TokenAmount
	Messages           []chain.Msg
	NRepeat            int
	EstimatedOutput    amount.TokenAmount
	EstimatedFee       chain.Fee
	EstimatedNetProfit amount.TokenAmount
}

// ArbTx records one broadcast copy (spec.md §3).
type ArbTx struct {
	TimestampSent time.Time
	TxHash        string
}

// ArbResult is the confirmation outcome of one ArbTx (spec.md §3).
type ArbResult struct {
	TxStatus          TxStatus
	ErrLog            string
	GasUsed           int64
	GasCost           amount.TokenAmount
	InclusionDelay    int64
	TimestampReceived time.Time
	BlockReceived     int64
	FinalAmount       amount.TokenAmount
	NetProfitRef      amount.TokenAmount
}

// ArbitrageData is the optional (params, txs, results) triple whose presence
// determines the current State (spec.md §4.8's derivation table).
type ArbitrageData struct {
	Params  *ArbParams
	Txs     []ArbTx
	Results []ArbResult
}

// State derives the current lifecycle state from which fields are present.
func (d ArbitrageData) State() State {
	switch {
	case d.Params == nil:
		return StateReadyToPlan
	case len(d.Txs) == 0:
		return StateReadyToBroadcast
	case len(d.Results) == 0:
		return StateWaitingConfirmation
	default:
		return StateFinished
	}
}
