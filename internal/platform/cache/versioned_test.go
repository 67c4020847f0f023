package cache_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/elmeel/warehouse/internal/platform/cache"
)

type payload struct {
	Count int `json:"count"`
}

func TestVersionedFetchAndBump(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := cache.NewVersioned(client, "dashboard", time.Minute)
	ctx := context.Background()

	var calls int32
	loader := func(context.Context) (any, error) {
		n := atomic.AddInt32(&calls, 1)
		return payload{Count: int(n)}, nil
	}

	var got payload
	require.NoError(t, c.FetchJSON(ctx, &got, loader, "kpi"))
	require.Equal(t, 1, got.Count)

	require.NoError(t, c.FetchJSON(ctx, &got, loader, "kpi"))
	require.Equal(t, 1, got.Count)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))

	require.NoError(t, c.Bump(ctx))
	require.NoError(t, c.FetchJSON(ctx, &got, loader, "kpi"))
	require.Equal(t, 2, got.Count)

	key, err := c.BuildKey(ctx, "kpi")
	require.NoError(t, err)
	require.Equal(t, "dashboard:kpi:2", key)
	require.True(t, mr.Exists(key))
}

func TestVersionedWithoutClientAlwaysLoads(t *testing.T) {
	c := cache.NewVersioned(nil, "dashboard", time.Minute)
	var calls int
	loader := func(context.Context) (any, error) {
		calls++
		return payload{Count: calls}, nil
	}
	var got payload
	require.NoError(t, c.FetchJSON(context.Background(), &got, loader, "kpi"))
	require.NoError(t, c.FetchJSON(context.Background(), &got, loader, "kpi"))
	require.Equal(t, 2, got.Count)
	require.NoError(t, c.Bump(context.Background()))
}

func TestNewFailsWithoutServer(t *testing.T) {
	_, err := cache.New(context.Background(), "127.0.0.1:1")
	require.Error(t, err)
}
