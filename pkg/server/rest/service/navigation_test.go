package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"lintang/campusnav/pkg/campus"
	"lintang/campusnav/pkg/datastructure"
	"lintang/campusnav/pkg/engine/routingalgorithm"
	"lintang/campusnav/pkg/occupancy"
	"lintang/campusnav/pkg/recommendation"
	"lintang/campusnav/pkg/server"
	"lintang/campusnav/pkg/server/rest/service"
	"lintang/campusnav/pkg/session"
	"lintang/campusnav/pkg/spatial"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryHistory struct {
	mu     sync.Mutex
	routes []datastructure.RouteRecord
	err    error
}

func (m *memoryHistory) AppendRoute(ctx context.Context, rec datastructure.RouteRecord) (datastructure.RouteRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return datastructure.RouteRecord{}, m.err
	}
	rec.ID = uint64(len(m.routes) + 1)
	m.routes = append(m.routes, rec)
	return rec, nil
}

func (m *memoryHistory) RecentRoutes(ctx context.Context, limit int) ([]datastructure.RouteRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []datastructure.RouteRecord{}
	for i := len(m.routes) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.routes[i])
	}
	return out, nil
}

func newService(t *testing.T, history *memoryHistory) *service.NavigationService {
	t.Helper()
	g, err := campus.LoadEmbedded()
	require.NoError(t, err)
	rt := routingalgorithm.NewRouteAlgorithm(g)
	feed := occupancy.NewSimulator(map[string]datastructure.Occupancy{
		"gaff":   {Level: datastructure.CrowdHigh, Count: 85},
		"zenith": {Level: datastructure.CrowdHigh, Count: 120},
	}, 1)
	policy := recommendation.NewPolicy(recommendation.DefaultConfig(), g, feed)
	return service.NewNavigationService(g, rt, feed, history, spatial.NewIndex(g.All()), policy, session.NewStore(rt))
}

func codeOf(t *testing.T, err error) error {
	t.Helper()
	var serr *server.Error
	require.True(t, errors.As(err, &serr))
	return serr.Code()
}

func TestLocations(t *testing.T) {
	svc := newService(t, &memoryHistory{})
	ctx := context.Background()

	assert.Len(t, svc.Locations(ctx), 28)

	loc, occ, err := svc.Location(ctx, "Dallan")
	require.NoError(t, err)
	assert.Equal(t, "dalian", loc.ID)
	assert.Equal(t, datastructure.DefaultOccupancy(), occ)

	_, occ, err = svc.Location(ctx, "gaff")
	require.NoError(t, err)
	assert.Equal(t, datastructure.CrowdHigh, occ.Level)

	_, _, err = svc.Location(ctx, "ghost")
	assert.Equal(t, server.ErrNotFound, codeOf(t, err))
}

func TestNearestLocation(t *testing.T) {
	svc := newService(t, &memoryHistory{})
	g, err := campus.LoadEmbedded()
	require.NoError(t, err)
	zenith, ok := g.GetByID("zenith")
	require.True(t, ok)

	loc, dist, err := svc.NearestLocation(context.Background(), zenith.X, zenith.Y)
	require.NoError(t, err)
	assert.Equal(t, "zenith", loc.ID)
	assert.Equal(t, 0.0, dist)
}

func TestShortestPath(t *testing.T) {
	svc := newService(t, &memoryHistory{})
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		route, locs, found, err := svc.ShortestPath(ctx, "mainEntrance", "shipInCampus", datastructure.PreferenceFastest)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "mainEntrance", route.Origin())
		assert.Equal(t, "shipInCampus", route.Destination())
		assert.Contains(t, route.Stops, "zenith")
		require.Len(t, locs, len(route.Stops))
		assert.Equal(t, route.Stops[1], locs[1].ID)
	})

	t.Run("alias ids", func(t *testing.T) {
		route, _, found, err := svc.ShortestPath(ctx, "main", "dallan", datastructure.PreferenceFastest)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "dalian", route.Destination())
	})

	t.Run("same location is not found", func(t *testing.T) {
		_, locs, found, err := svc.ShortestPath(ctx, "main", "main", datastructure.PreferenceFastest)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Empty(t, locs)
	})

	t.Run("unknown location", func(t *testing.T) {
		_, _, _, err := svc.ShortestPath(ctx, "main", "ghost", datastructure.PreferenceFastest)
		assert.Equal(t, server.ErrNotFound, codeOf(t, err))
	})

	t.Run("least crowded still ends at destination", func(t *testing.T) {
		route, _, found, err := svc.ShortestPath(ctx, "mainEntrance", "shipInCampus", datastructure.PreferenceLeastCrowded)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "shipInCampus", route.Destination())
	})
}

func TestDistanceMatrix(t *testing.T) {
	svc := newService(t, &memoryHistory{})
	ctx := context.Background()

	m, err := svc.DistanceMatrix(ctx, []string{"main", "gaff", "storm"})
	require.NoError(t, err)
	route, _, found, err := svc.ShortestPath(ctx, "main", "gaff", datastructure.PreferenceFastest)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, route, m["main"]["gaff"])

	_, err = svc.DistanceMatrix(ctx, []string{"main", "ghost"})
	assert.Equal(t, server.ErrNotFound, codeOf(t, err))
}

func TestSessionFlow(t *testing.T) {
	history := &memoryHistory{}
	svc := newService(t, history)
	ctx := context.Background()

	id, st := svc.CreateSession(ctx)
	assert.Equal(t, session.Empty, st.Phase)

	st, err := svc.SelectLocation(ctx, id, "mainEntrance")
	require.NoError(t, err)
	assert.Equal(t, session.OriginSet, st.Phase)
	assert.Empty(t, history.routes)

	st, err = svc.SelectLocation(ctx, id, "shipInCampus")
	require.NoError(t, err)
	assert.Equal(t, session.Complete, st.Phase)
	require.NotNil(t, st.Path)

	routes, err := svc.RouteHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "mainEntrance", routes[0].From)
	assert.Equal(t, "shipInCampus", routes[0].To)
	assert.Equal(t, st.Path, routes[0].Stops)
	assert.Greater(t, routes[0].Distance, 0.0)

	g, err := campus.LoadEmbedded()
	require.NoError(t, err)
	want, found := routingalgorithm.NewRouteAlgorithm(g).ShortestPath("mainEntrance", "shipInCampus")
	require.True(t, found)
	assert.InDelta(t, want.Distance, routes[0].Distance, 1e-9)

	msg, err := svc.Recommendation(ctx, id, recommendation.Morning, "")
	require.NoError(t, err)
	assert.Contains(t, msg, "Optimal route: Main Entrance")

	msg, err = svc.Recommendation(ctx, id, recommendation.Morning, "GAFF")
	require.NoError(t, err)
	assert.Equal(t, recommendation.DefaultConfig().CrowdedAlternatives["gaff"], msg)

	got, err := svc.SessionState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, st, got)

	st, err = svc.ClearSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, session.State{}, st)

	_, err = svc.SelectLocation(ctx, id, "ghost")
	assert.Equal(t, server.ErrNotFound, codeOf(t, err))
	_, err = svc.SelectLocation(ctx, "missing", "main")
	assert.Equal(t, server.ErrNotFound, codeOf(t, err))
	_, err = svc.Recommendation(ctx, "missing", recommendation.Evening, "")
	assert.Equal(t, server.ErrNotFound, codeOf(t, err))
}

func TestSelectLocationHistoryFailure(t *testing.T) {
	history := &memoryHistory{err: errors.New("disk full")}
	svc := newService(t, history)
	ctx := context.Background()

	id, _ := svc.CreateSession(ctx)
	_, err := svc.SelectLocation(ctx, id, "main")
	require.NoError(t, err)
	st, err := svc.SelectLocation(ctx, id, "gaff")
	assert.Equal(t, server.ErrInternalServerError, codeOf(t, err))
	assert.Equal(t, session.Complete, st.Phase)
}

func TestOccupancy(t *testing.T) {
	svc := newService(t, &memoryHistory{})
	snap, updates := svc.Occupancy(context.Background())
	assert.Len(t, snap, 2)
	assert.Empty(t, updates)
}

func TestRecommendationSelectedFallsBackToSession(t *testing.T) {
	svc := newService(t, &memoryHistory{})
	ctx := context.Background()
	id, _ := svc.CreateSession(ctx)

	_, err := svc.SelectLocation(ctx, id, "gaff")
	require.NoError(t, err)

	msg, err := svc.Recommendation(ctx, id, recommendation.Morning, "")
	require.NoError(t, err)
	assert.Equal(t, recommendation.DefaultConfig().CrowdedAlternatives["gaff"], msg)

	msg, err = svc.Recommendation(ctx, id, recommendation.Morning, "zenith")
	require.NoError(t, err)
	assert.Equal(t, recommendation.DefaultConfig().DefaultMessage, msg)
}
