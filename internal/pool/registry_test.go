package pool_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/arb/internal/amount"
	"github.com/paw-chain/arb/internal/pool"
)

func TestGetOrBuildRunsBuilderOnce(t *testing.T) {
	reg := pool.NewRegistry()
	id := pool.Identity{ChainID: "columbus-5", Address: "terra1pool"}

	var calls int32
	builder := func(ctx context.Context, id pool.Identity) (pool.Pool, error) {
		atomic.AddInt32(&calls, 1)
		ust := mustToken(t, "uusd", 0)
		luna := mustToken(t, "uluna", 0)
		return pool.NewConstantProductPool(id, ust, luna, math.NewInt(1), math.NewInt(1), math.LegacyZeroDec()), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.GetOrBuild(context.Background(), id, builder)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.Equal(t, 1, reg.Len())
}

func TestGetOrBuildCachesError(t *testing.T) {
	reg := pool.NewRegistry()
	id := pool.Identity{ChainID: "columbus-5", Address: "terra1badpool"}
	wantErr := errors.New("construction failed")

	var calls int32
	builder := func(ctx context.Context, id pool.Identity) (pool.Pool, error) {
		atomic.AddInt32(&calls, 1)
		return nil, wantErr
	}

	_, err1 := reg.GetOrBuild(context.Background(), id, builder)
	_, err2 := reg.GetOrBuild(context.Background(), id, builder)

	require.ErrorIs(t, err1, wantErr)
	require.ErrorIs(t, err2, wantErr)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls), "failed builder must not be retried silently")
}

func TestAmountEqualHelper(t *testing.T) {
	require.True(t, amount.Token{}.IsZero())
}
