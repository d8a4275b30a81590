// Package pool implements the AMM math and reserve-simulation layer:
// constant-product, native virtual-market, and weighted pools, plus the
// singleton registry that owns their canonical instances.
package pool

import (
	"context"

	"github.com/paw-chain/arb/internal/amount"
	"github.com/paw-chain/arb/internal/chain"
)

// Identity identifies a pool within a chain — a contract address for
// Terraswap/Loop/Astroport pools, or a numeric pool id (stringified) for
// Osmosis GAMM pools and the Terra market module's synthetic pool.
type Identity struct {
	ChainID string
	Address string
}

func (id Identity) String() string { return id.ChainID + "/" + id.Address }

// Safety controls the margin QuoteOut subtracts so the on-chain execution
// can never return less than the quoted amount due to integer rounding —
// spec.md §4.2 describes the argument as `bool|int`; Enabled is the bool,
// ExplicitBps lets a caller override the pool-type default in basis points.
type Safety struct {
	Enabled     bool
	ExplicitBps uint32
}

// NoSafety returns the unquoted, exact rational value.
var NoSafety = Safety{}

// DefaultSafety enables the pool-type's default margin.
var DefaultSafety = Safety{Enabled: true}

// Pool is the sealed-variant interface every pool model implements, per
// spec.md §9's "small trait/interface" note.
type Pool interface {
	Identity() Identity
	Tokens() []amount.Token
	StopUpdates() bool

	// GetReserves returns the reserves held by this pool value (for a fork,
	// the frozen simulation-fork reserves). The implementations in this
	// package do not re-read reserves from the chain.
	GetReserves(ctx context.Context) ([]amount.TokenAmount, error)

	// QuoteOut is a pure function of the pool's current reserves.
	QuoteOut(ctx context.Context, in amount.TokenAmount, tokenOut amount.Token, safety Safety) (amount.TokenAmount, error)

	// SimulateReserveChange returns a shallow fork with stop_updates=true and
	// reserves at current+delta; the receiver is left unchanged.
	SimulateReserveChange(deltas []amount.TokenAmount) (Pool, error)

	// ReserveDeltaFromTx parses a previously observed pending transaction and
	// returns how much it would move this pool's reserves if it lands. It
	// returns errs.ErrMaxSpreadAssertion if the tx's declared belief price
	// would cause on-chain rejection.
	ReserveDeltaFromTx(tx chain.DecodedTx) ([]amount.TokenAmount, error)

	// BuildSwapOps returns the estimated output and the message sequence to
	// execute this single-hop swap.
	BuildSwapOps(sender string, in amount.TokenAmount, minOut amount.TokenAmount) (amount.TokenAmount, []chain.Msg, error)
}
