// Package errs defines the arbitrage engine's error-kind taxonomy.
//
// Kinds are registered the way the teacher's x/dex/types/errors.go registers
// module errors, under this engine's own "arb" codespace even though it is
// an off-chain client rather than a chain module — each kind is a
// cosmossdk.io/errors sentinel so callers can still use errors.Is/As and
// %w-wrapping idiomatically.
package errs

import (
	"cosmossdk.io/errors"
)

// codespace groups every sentinel below under one errors.Register namespace.
const codespace = "arb"

// Kind sentinels, one per row of spec.md §7's error taxonomy table.
var (
	ErrNodeSyncing           = errors.Register(codespace, 1, "node is syncing behind the network")
	ErrBlockchainNewState    = errors.Register(codespace, 2, "parameters computed for a stale height")
	ErrTxAlreadyBroadcasted  = errors.Register(codespace, 3, "duplicate broadcast intent detected")
	ErrIsBusy                = errors.Register(codespace, 4, "confirmation not yet available")
	ErrInsufficientLiquidity = errors.Register(codespace, 5, "pool reserves are zero or would underflow")
	ErrMaxSpreadAssertion    = errors.Register(codespace, 6, "pending swap would violate its own belief price")
	ErrFeeEstimationError    = errors.Register(codespace, 7, "gas simulation failed and no fallback was permitted")
	ErrOptimizationError     = errors.Register(codespace, 8, "optimizer search region rejected by both methods")
	ErrUnprofitableArbitrage = errors.Register(codespace, 9, "best-case net profit below threshold")
	ErrNotContract           = errors.Register(codespace, 10, "address is not a contract")
	ErrUnsupportedTxShape    = errors.Register(codespace, 11, "transaction shape has no reserve-delta extraction")
	ErrMismatchedTokens      = errors.Register(codespace, 12, "operands reference different tokens")
	ErrInvalidAmount         = errors.Register(codespace, 13, "amount is invalid for this operation")
	ErrBroadcastExhausted    = errors.Register(codespace, 14, "exhausted broadcast sequence-mismatch retries")
)

// IsBusy reports whether err (or any error it wraps) signals IsBusy, which
// callers treat as "leave state, retry next block" rather than a failure.
func IsBusy(err error) bool { return errors.IsOf(err, ErrIsBusy) }

// IsRetryableQuery reports whether err is safe to retry for idempotent
// queries (simulation, tx-info, account lookups) per spec.md §7: "Retries
// are only applied to idempotent operations ... never to broadcast."
func IsRetryableQuery(err error) bool {
	return errors.IsOf(err, ErrNodeSyncing, ErrIsBusy)
}
