package kv

import (
	"context"
	"testing"
	"time"

	"lintang/campusnav/pkg/datastructure"

	"github.com/cockroachdb/pebble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T, dir string) *KVDB {
	t.Helper()
	db, err := pebble.Open(dir, &pebble.Options{})
	require.NoError(t, err)
	k, err := NewKVDB(db)
	require.NoError(t, err)
	return k
}

func TestRouteHistory(t *testing.T) {
	ctx := context.Background()
	k := openTestDB(t, t.TempDir())
	defer k.Close()

	at := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	k.now = func() time.Time { return at }

	for i, stops := range [][]string{
		{"mainEntrance", "main"},
		{"main", "gaff", "spencer"},
		{"storm", "fore"},
	} {
		rec, err := k.AppendRoute(ctx, datastructure.RouteRecord{
			From:     stops[0],
			To:       stops[len(stops)-1],
			Stops:    stops,
			Distance: float64(i + 1),
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(i+1), rec.ID)
		assert.Equal(t, at, rec.CreatedAt)
	}

	t.Run("newest first", func(t *testing.T) {
		routes, err := k.RecentRoutes(ctx, 10)
		require.NoError(t, err)
		require.Len(t, routes, 3)
		assert.Equal(t, uint64(3), routes[0].ID)
		assert.Equal(t, []string{"storm", "fore"}, routes[0].Stops)
		assert.Equal(t, uint64(1), routes[2].ID)
		assert.Equal(t, at, routes[2].CreatedAt)
	})

	t.Run("limit", func(t *testing.T) {
		routes, err := k.RecentRoutes(ctx, 2)
		require.NoError(t, err)
		require.Len(t, routes, 2)
		assert.Equal(t, "main", routes[1].From)
		assert.Equal(t, "spencer", routes[1].To)

		routes, err = k.RecentRoutes(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, routes)
	})

	t.Run("get by id", func(t *testing.T) {
		rec, ok, err := k.GetRoute(ctx, 2)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []string{"main", "gaff", "spencer"}, rec.Stops)
		assert.Equal(t, 2.0, rec.Distance)

		_, ok, err = k.GetRoute(ctx, 99)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := k.AppendRoute(cctx, datastructure.RouteRecord{From: "a", To: "b", Stops: []string{"a", "b"}})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRouteHistorySequenceSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	k := openTestDB(t, dir)
	for i := 0; i < 2; i++ {
		_, err := k.AppendRoute(ctx, datastructure.RouteRecord{From: "a", To: "b", Stops: []string{"a", "b"}})
		require.NoError(t, err)
	}
	require.NoError(t, k.Close())

	k = openTestDB(t, dir)
	defer k.Close()
	rec, err := k.AppendRoute(ctx, datastructure.RouteRecord{From: "b", To: "c", Stops: []string{"b", "c"}})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), rec.ID)
}

func TestCompressRoute(t *testing.T) {
	rec := datastructure.RouteRecord{
		ID:        7,
		From:      "zenith",
		To:        "shipInCampus",
		Stops:     []string{"zenith", "wulfruna", "shipInCampus"},
		Distance:  23.5,
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 6, time.UTC),
	}
	bb, err := CompressRoute(rec)
	require.NoError(t, err)

	got, err := LoadRoute(bb)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	_, err = LoadRoute([]byte("not zstd"))
	assert.Error(t, err)
}
