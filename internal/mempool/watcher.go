package mempool

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/paw-chain/arb/internal/chain"
	"github.com/paw-chain/arb/internal/filter"
	"github.com/paw-chain/arb/internal/logging"
)

// HeightMempool is one event of the IterHeightMempool stream: the observed
// height and, per filter key, the pending transactions newly matched at
// this height (spec.md §4.5).
type HeightMempool struct {
	Height  int64
	Matches map[string][]chain.DecodedTx
}

// Watcher maintains the mempool cache and emits (height, filtered-by-route)
// events, per spec.md §4.5. A background task subscribes to new block
// headers and sets current_height; a polling loop fetches unconfirmed tx
// hashes and decodes newly observed ones.
type Watcher struct {
	cache       *Cache
	mempool     chain.MempoolClient
	subscriber  chain.BlockSubscriber
	lcd         chain.LCDClient
	pollPeriod  time.Duration
	limiter     *rate.Limiter
	log         logging.Logger
}

// NewWatcher wires a Watcher from its external collaborators. pollPeriod is
// the polling loop interval (spec.md §5: "≈1 ms for aggressive nodes,
// configurable").
func NewWatcher(mempoolClient chain.MempoolClient, subscriber chain.BlockSubscriber, lcd chain.LCDClient, pollPeriod time.Duration, log logging.Logger) *Watcher {
	return &Watcher{
		cache:      NewCache(),
		mempool:    mempoolClient,
		subscriber: subscriber,
		lcd:        lcd,
		pollPeriod: pollPeriod,
		limiter:    rate.NewLimiter(rate.Every(pollPeriod), 1),
		log:        log,
	}
}

// Height returns the last height observed by the block-header subscription,
// or 0 until the first header arrives.
func (w *Watcher) Height() int64 { return w.cache.Height() }

// IterHeightMempool runs the subscription and polling loops until ctx is
// canceled, emitting HeightMempool events on the returned channel whenever
// either the height advances or at least one filter newly matches a tx not
// previously emitted — the ordering guarantee of spec.md §4.5.
func (w *Watcher) IterHeightMempool(ctx context.Context, filters map[string]filter.Filter) (<-chan HeightMempool, error) {
	out := make(chan HeightMempool, 16)

	heights, err := w.subscriber.SubscribeNewBlockHeader(ctx)
	if err != nil {
		return nil, err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case h, ok := <-heights:
				if !ok {
					return nil
				}
				if w.cache.ObserveHeight(h) {
					select {
					case out <- HeightMempool{Height: h, Matches: map[string][]chain.DecodedTx{}}:
					case <-ctx.Done():
						return ctx.Err()
					}
				}
			}
		}
	})

	g.Go(func() error {
		return w.pollLoop(ctx, filters, out)
	})

	go func() {
		_ = g.Wait()
		close(out)
	}()

	return out, nil
}

func (w *Watcher) pollLoop(ctx context.Context, filters map[string]filter.Filter, out chan<- HeightMempool) error {
	for {
		if err := w.limiter.Wait(ctx); err != nil {
			return ctx.Err()
		}

		rawTxs, err := w.mempool.UnconfirmedTxs(ctx)
		if err != nil {
			w.log.Warn("mempool poll failed", "error", err)
			continue
		}

		w.cache.ReconcileKeys(rawTxs)

		matches := make(map[string][]chain.DecodedTx)
		for _, raw := range rawTxs {
			if len(raw) > maxRawTxLen {
				continue
			}
			tx, ok := w.cache.GetOrDecode(raw, func(raw string) (chain.DecodedTx, error) {
				return w.lcd.DecodeTx(ctx, raw)
			})
			if !ok {
				continue
			}
			if !w.cache.MarkRead(raw) {
				continue // already delivered to this consumer
			}
			for key, f := range filters {
				if f.Match(tx) {
					matches[key] = append(matches[key], tx)
				}
			}
		}

		if len(matches) > 0 {
			select {
			case out <- HeightMempool{Height: w.cache.Height(), Matches: matches}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}
