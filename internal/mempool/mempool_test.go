package mempool_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/paw-chain/arb/internal/chain"
	"github.com/paw-chain/arb/internal/filter"
	"github.com/paw-chain/arb/internal/logging"
	"github.com/paw-chain/arb/internal/mempool"
	"github.com/paw-chain/arb/internal/testsupport"
)

func TestCacheClearsOnHeightAdvance(t *testing.T) {
	c := mempool.NewCache()
	tx, ok := c.GetOrDecode("raw1", func(raw string) (chain.DecodedTx, error) {
		return chain.DecodedTx{Hash: "h1"}, nil
	})
	require.True(t, ok)
	require.Equal(t, "h1", tx.Hash)

	require.True(t, c.ObserveHeight(100))
	redecoded := false
	_, ok = c.GetOrDecode("raw1", func(raw string) (chain.DecodedTx, error) {
		redecoded = true
		return chain.DecodedTx{Hash: "h1"}, nil
	})
	require.True(t, ok)
	require.True(t, redecoded, "cache was cleared so raw1 must be re-decoded")
}

func TestCacheDoesNotRedecodeSuccessfulEntries(t *testing.T) {
	c := mempool.NewCache()
	calls := 0
	decode := func(raw string) (chain.DecodedTx, error) {
		calls++
		return chain.DecodedTx{Hash: "h1"}, nil
	}
	_, _ = c.GetOrDecode("raw1", decode)
	_, _ = c.GetOrDecode("raw1", decode)
	require.Equal(t, 1, calls, "a tx that decodes successfully and is re-inserted is not re-decoded")
}

func TestCacheDoesNotRetryFailedDecodes(t *testing.T) {
	c := mempool.NewCache()
	calls := 0
	decode := func(raw string) (chain.DecodedTx, error) {
		calls++
		return chain.DecodedTx{}, assertErr
	}
	_, ok1 := c.GetOrDecode("raw1", decode)
	_, ok2 := c.GetOrDecode("raw1", decode)
	require.False(t, ok1)
	require.False(t, ok2)
	require.Equal(t, 1, calls, "decode failures are recorded as null entries so re-polling doesn't re-attempt them")
}

func TestCacheRejectsOversizedRawTx(t *testing.T) {
	c := mempool.NewCache()
	huge := make([]byte, 4*1024)
	_, ok := c.GetOrDecode(string(huge), func(raw string) (chain.DecodedTx, error) {
		t.Fatal("oversized tx strings must be discarded before decoding")
		return chain.DecodedTx{}, nil
	})
	require.False(t, ok)
}

func TestCacheReconcileKeysClearsOnContraction(t *testing.T) {
	c := mempool.NewCache()
	_, _ = c.GetOrDecode("raw1", func(raw string) (chain.DecodedTx, error) { return chain.DecodedTx{}, nil })
	_, _ = c.GetOrDecode("raw2", func(raw string) (chain.DecodedTx, error) { return chain.DecodedTx{}, nil })

	// mempool shrinks: raw2 disappears without a height change.
	cleared := c.ReconcileKeys([]string{"raw1"})
	require.True(t, cleared)
}

func TestMarkReadDeliversEachKeyOnce(t *testing.T) {
	c := mempool.NewCache()
	require.True(t, c.MarkRead("raw1"))
	require.False(t, c.MarkRead("raw1"))
}

func TestIterHeightMempoolEmitsOnHeightAdvance(t *testing.T) {
	heights := make(chan int64, 1)
	heights <- 42
	close(heights)

	sub := &testsupport.FakeBlockSubscriber{
		SubscribeFunc: func(ctx context.Context) (<-chan int64, error) { return heights, nil },
	}
	mp := &testsupport.FakeMempoolClient{
		UnconfirmedTxsFunc: func(ctx context.Context) ([]string, error) { return nil, nil },
	}
	lcd := &testsupport.FakeLCD{}

	w := mempool.NewWatcher(mp, sub, lcd, time.Millisecond, logging.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	events, err := w.IterHeightMempool(ctx, map[string]filter.Filter{})
	require.NoError(t, err)

	select {
	case ev := <-events:
		require.Equal(t, int64(42), ev.Height)
	case <-time.After(time.Second):
		t.Fatal("expected a height-advance event")
	}
}

var assertErr = &testError{"decode failed"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
