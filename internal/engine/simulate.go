package engine

import (
	"errors"

	"github.com/paw-chain/arb/internal/amount"
	"github.com/paw-chain/arb/internal/chain"
	"github.com/paw-chain/arb/internal/errs"
	"github.com/paw-chain/arb/internal/logging"
	"github.com/paw-chain/arb/internal/pool"
)

// BuildSimulationScope implements the reserve-simulation scope of spec.md
// §4.8 step 1: for each pool, accumulate the reserve delta of every pending
// tx that would move it, skipping txs that would themselves fail their
// on-chain max-spread/belief-price assertion or whose shape this pool model
// doesn't yet parse (logged, not fatal — a known gap stays a known gap
// rather than aborting the whole planning cycle). Pools with no accumulated
// delta are omitted from the result; the caller substitutes the returned
// forks for the live pools only for the lifetime of this planning pass.
func BuildSimulationScope(pools []pool.Pool, txs []chain.DecodedTx, log logging.Logger) (map[string]pool.Pool, error) {
	forks := make(map[string]pool.Pool, len(pools))
	for _, p := range pools {
		totals := map[string]amount.TokenAmount{}
		for _, tx := range txs {
			deltas, err := p.ReserveDeltaFromTx(tx)
			if err != nil {
				if errors.Is(err, errs.ErrMaxSpreadAssertion) || errors.Is(err, errs.ErrUnsupportedTxShape) {
					log.Debug("skipping tx in reserve-simulation scope", "pool", p.Identity(), "tx", tx.Hash, "error", err)
					continue
				}
				return nil, err
			}
			for _, d := range deltas {
				key := d.Token.Key()
				if existing, ok := totals[key]; ok {
					sum, err := existing.Add(d)
					if err != nil {
						return nil, err
					}
					totals[key] = sum
				} else {
					totals[key] = d
				}
			}
		}
		if len(totals) == 0 {
			continue
		}
		deltaSlice := make([]amount.TokenAmount, 0, len(totals))
		for _, d := range totals {
			deltaSlice = append(deltaSlice, d)
		}
		fork, err := p.SimulateReserveChange(deltaSlice)
		if err != nil {
			return nil, err
		}
		forks[p.Identity().String()] = fork
	}
	return forks, nil
}

// ApplyForks returns a copy of pools with every entry that has a fork in
// forks replaced by that fork, leaving the original pools slice untouched.
func ApplyForks(pools []pool.Pool, forks map[string]pool.Pool) []pool.Pool {
	out := make([]pool.Pool, len(pools))
	for i, p := range pools {
		if fork, ok := forks[p.Identity().String()]; ok {
			out[i] = fork
		} else {
			out[i] = p
		}
	}
	return out
}
