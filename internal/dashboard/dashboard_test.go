package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	calls int
	stats Stats
}

func (s *countingStore) Stats(_ context.Context, _ int64, now time.Time) (Stats, error) {
	s.calls++
	out := s.stats
	out.GeneratedAt = now
	return out, nil
}

func newCachedService(t *testing.T, store Store, ttl time.Duration) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &Service{
		Store:             store,
		Cache:             &Cache{R: client, TTL: ttl},
		LowStockThreshold: 10,
		Log:               zerolog.Nop(),
	}, mr
}

func TestStatsServedFromCache(t *testing.T) {
	store := &countingStore{stats: Stats{SalesToday: 7000, OrdersToday: 3}}
	svc, _ := newCachedService(t, store, time.Minute)

	first, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(7000), int64(first.SalesToday))
	require.Equal(t, 1, store.calls)

	second, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, first.SalesToday, second.SalesToday)
	require.Equal(t, 1, store.calls)
}

func TestStatsRecomputedAfterTTL(t *testing.T) {
	store := &countingStore{stats: Stats{SalesToday: 100}}
	svc, mr := newCachedService(t, store, 30*time.Second)

	_, err := svc.Stats(context.Background())
	require.NoError(t, err)
	mr.FastForward(time.Minute)

	_, err = svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, store.calls)
}

func TestStatsWorksWithoutCache(t *testing.T) {
	store := &countingStore{stats: Stats{OrdersToday: 1}}
	svc := &Service{Store: store, LowStockThreshold: 10, Log: zerolog.Nop()}

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.OrdersToday)
}
