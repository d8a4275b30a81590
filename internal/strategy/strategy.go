// Package strategy implements the Strategy Driver (component I, spec.md
// §4.10): owns a set of per-route engines, pumps the mempool watcher, fans
// work out across routes concurrently per block, and resolves cross-route
// pool conflicts, the way the teacher's cmd/pawd bootstraps a top-level run
// loop around cooperating subsystems.
package strategy

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/paw-chain/arb/internal/broadcaster"
	"github.com/paw-chain/arb/internal/engine"
	"github.com/paw-chain/arb/internal/filter"
	"github.com/paw-chain/arb/internal/logging"
	"github.com/paw-chain/arb/internal/mempool"
)

// RouteEntry binds one engine to the filter key the mempool watcher uses to
// select the pending transactions relevant to it.
type RouteEntry struct {
	Key    string
	Engine *engine.Engine
	Filter filter.Filter
}

// Driver owns N engines and dispatches per-block work across them.
type Driver struct {
	routes  []RouteEntry
	watcher *Watcher
	fleet   *broadcaster.Fleet
	log     logging.Logger
}

// Watcher is the subset of *mempool.Watcher the driver depends on, named so
// tests can substitute a channel directly.
type Watcher interface {
	IterHeightMempool(ctx context.Context, filters map[string]filter.Filter) (<-chan mempool.HeightMempool, error)
}

// New builds a Driver over the given routes.
func New(routes []RouteEntry, watcher Watcher, fleet *broadcaster.Fleet, log logging.Logger) *Driver {
	return &Driver{routes: routes, watcher: watcher, fleet: fleet, log: log}
}

// filterMap returns the {key: filter} map the watcher needs to tag matches
// per route.
func (d *Driver) filterMap() map[string]filter.Filter {
	m := make(map[string]filter.Filter, len(d.routes))
	for _, r := range d.routes {
		m[r.Key] = r.Filter
	}
	return m
}

// Run pumps the watcher until ctx is canceled, dispatching each
// (height, filtered_mempool) event to the relevant engines (spec.md §4.10).
func (d *Driver) Run(ctx context.Context) error {
	events, err := d.watcher.IterHeightMempool(ctx, d.filterMap())
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := d.dispatch(ctx, event); err != nil {
				return err
			}
		}
	}
}

// dispatch implements one (height, filtered_mempool) cycle: new-block
// detection, concurrent per-route fan-out, and cross-route pool-conflict
// resolution (spec.md §4.10 steps 1-4).
func (d *Driver) dispatch(ctx context.Context, event mempool.HeightMempool) error {
	isNewBlock := false
	for _, r := range d.routes {
		if event.Height > r.Engine.LastRunHeight() {
			isNewBlock = true
			break
		}
	}
	if isNewBlock && d.fleet != nil {
		go func(height int64) {
			if _, ok := d.fleet.Elect(context.Background(), height); !ok {
				d.log.Warn("no healthy broadcaster peer, falling back to local LCD", "height", height)
			}
		}(event.Height)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range d.routes {
		r := r
		txs, hasMempoolWork := event.Matches[r.Key]
		pendingTransition := r.Engine.State() != engine.StateReadyToPlan
		if !hasMempoolWork && !pendingTransition {
			continue
		}
		g.Go(func() error {
			return r.Engine.Run(gctx, event.Height, txs)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	d.resolvePoolConflicts(event.Height)
	return nil
}

// resolvePoolConflicts implements spec.md §4.10 step 4: when multiple
// routes reaching ReadyToBroadcast this height share a pool, keep the one
// with the largest estimated net profit and reset the others, preventing
// two routes from consuming the same liquidity.
func (d *Driver) resolvePoolConflicts(height int64) {
	ready := make([]RouteEntry, 0)
	for _, r := range d.routes {
		if r.Engine.State() == engine.StateReadyToBroadcast && r.Engine.Params() != nil && r.Engine.Params().BlockFound == height {
			ready = append(ready, r)
		}
	}
	if len(ready) < 2 {
		return
	}

	poolOwner := make(map[string]RouteEntry)
	for _, r := range ready {
		for _, p := range r.Engine.Pools() {
			key := p.Identity().String()
			owner, exists := poolOwner[key]
			if !exists {
				poolOwner[key] = r
				continue
			}
			winner := moreProfitable(owner, r)
			loser := r
			if winner.Key == r.Key {
				loser = owner
			}
			poolOwner[key] = winner
			d.log.Info("resolving cross-route pool conflict", "pool", key, "winner", winner.Key, "loser", loser.Key)
			loser.Engine.Reset()
		}
	}
}

func moreProfitable(a, b RouteEntry) RouteEntry {
	ap, bp := a.Engine.Params(), b.Engine.Params()
	if ap == nil {
		return b
	}
	if bp == nil {
		return a
	}
	cmp, err := ap.EstimatedNetProfit.Cmp(bp.EstimatedNetProfit)
	if err != nil || cmp >= 0 {
		return a
	}
	return b
}
