package service

import (
	"context"

	"lintang/campusnav/pkg/datastructure"
	"lintang/campusnav/pkg/engine/routingalgorithm"
	"lintang/campusnav/pkg/recommendation"
	"lintang/campusnav/pkg/server"
	"lintang/campusnav/pkg/session"
)

type LocationGraph interface {
	All() []datastructure.Location
	GetByID(id string) (datastructure.Location, bool)
	Canonicalize(id string) string
	Audit() datastructure.DataQualityReport
}

type RoutingAlgorithm interface {
	ShortestPathWithPreference(fromID, toID string, pref datastructure.RoutePreference,
		occ routingalgorithm.OccupancyReader) (datastructure.Route, bool)
	DistanceMatrix(ctx context.Context, ids []string) (map[string]map[string]datastructure.Route, error)
	PathDistance(stops []string) (float64, bool)
}

type OccupancyFeed interface {
	Occupancy(locationID string) datastructure.Occupancy
	Snapshot() map[string]datastructure.Occupancy
	Updates() []datastructure.OccupancyUpdate
}

type KVDB interface {
	AppendRoute(ctx context.Context, rec datastructure.RouteRecord) (datastructure.RouteRecord, error)
	RecentRoutes(ctx context.Context, limit int) ([]datastructure.RouteRecord, error)
}

type SpatialIndex interface {
	Nearest(x, y float64) (datastructure.Location, float64, bool)
}

type Recommender interface {
	Recommend(s recommendation.Situation) string
}

type SessionStore interface {
	Create() (string, *session.RouteSession)
	Get(id string) (*session.RouteSession, bool)
}

type NavigationService struct {
	graph       LocationGraph
	routing     RoutingAlgorithm
	occupancy   OccupancyFeed
	kv          KVDB
	spatial     SpatialIndex
	recommender Recommender
	sessions    SessionStore
}

func NewNavigationService(graph LocationGraph, routing RoutingAlgorithm, occupancy OccupancyFeed, kv KVDB,
	spatial SpatialIndex, recommender Recommender, sessions SessionStore) *NavigationService {
	return &NavigationService{
		graph:       graph,
		routing:     routing,
		occupancy:   occupancy,
		kv:          kv,
		spatial:     spatial,
		recommender: recommender,
		sessions:    sessions,
	}
}

// resolve canonicalizes a location id and reports whether it is known.
func (s *NavigationService) resolve(id string) (datastructure.Location, bool) {
	return s.graph.GetByID(s.graph.Canonicalize(id))
}

func (s *NavigationService) Locations(ctx context.Context) []datastructure.Location {
	return s.graph.All()
}

func (s *NavigationService) Location(ctx context.Context, id string) (datastructure.Location, datastructure.Occupancy, error) {
	loc, ok := s.resolve(id)
	if !ok {
		return datastructure.Location{}, datastructure.Occupancy{}, server.WrapErrorf(nil, server.ErrNotFound, "location %q not found", id)
	}
	return loc, s.occupancy.Occupancy(loc.ID), nil
}

func (s *NavigationService) NearestLocation(ctx context.Context, x, y float64) (datastructure.Location, float64, error) {
	loc, dist, ok := s.spatial.Nearest(x, y)
	if !ok {
		return datastructure.Location{}, 0, server.WrapErrorf(nil, server.ErrNotFound, "no locations loaded")
	}
	return loc, dist, nil
}

func (s *NavigationService) DataQuality(ctx context.Context) datastructure.DataQualityReport {
	return s.graph.Audit()
}

// ShortestPath returns the route and the locations along it. An unknown id is
// an error; from == to or an unreachable destination is found == false.
func (s *NavigationService) ShortestPath(ctx context.Context, fromID, toID string,
	pref datastructure.RoutePreference) (datastructure.Route, []datastructure.Location, bool, error) {
	from, ok := s.resolve(fromID)
	if !ok {
		return datastructure.Route{}, nil, false, server.WrapErrorf(nil, server.ErrNotFound, "location %q not found", fromID)
	}
	to, ok := s.resolve(toID)
	if !ok {
		return datastructure.Route{}, nil, false, server.WrapErrorf(nil, server.ErrNotFound, "location %q not found", toID)
	}

	route, found := s.routing.ShortestPathWithPreference(from.ID, to.ID, pref, s.occupancy)
	if !found {
		return datastructure.Route{}, []datastructure.Location{}, false, nil
	}
	return route, s.locationsOf(route.Stops), true, nil
}

func (s *NavigationService) locationsOf(ids []string) []datastructure.Location {
	locs := make([]datastructure.Location, 0, len(ids))
	for _, id := range ids {
		if l, ok := s.graph.GetByID(id); ok {
			locs = append(locs, l)
		}
	}
	return locs
}

func (s *NavigationService) DistanceMatrix(ctx context.Context, ids []string) (map[string]map[string]datastructure.Route, error) {
	canonical := make([]string, len(ids))
	for i, id := range ids {
		loc, ok := s.resolve(id)
		if !ok {
			return nil, server.WrapErrorf(nil, server.ErrNotFound, "location %q not found", id)
		}
		canonical[i] = loc.ID
	}

	matrix, err := s.routing.DistanceMatrix(ctx, canonical)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, server.MessageInternalServerError)
	}
	return matrix, nil
}

func (s *NavigationService) CreateSession(ctx context.Context) (string, session.State) {
	id, sess := s.sessions.Create()
	return id, sess.State()
}

func (s *NavigationService) session(id string) (*session.RouteSession, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, server.WrapErrorf(nil, server.ErrNotFound, "session %q not found", id)
	}
	return sess, nil
}

func (s *NavigationService) SessionState(ctx context.Context, sessionID string) (session.State, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return session.State{}, err
	}
	return sess.State(), nil
}

// SelectLocation applies a location click to the session. A completed route
// with a path is appended to the route history.
func (s *NavigationService) SelectLocation(ctx context.Context, sessionID, locationID string) (session.State, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return session.State{}, err
	}
	loc, ok := s.resolve(locationID)
	if !ok {
		return session.State{}, server.WrapErrorf(nil, server.ErrNotFound, "location %q not found", locationID)
	}

	st := sess.Select(loc.ID)
	if st.Phase != session.Complete || st.Path == nil {
		return st, nil
	}

	distance, _ := s.routing.PathDistance(st.Path)
	_, err = s.kv.AppendRoute(ctx, datastructure.RouteRecord{
		From:     st.Origin,
		To:       st.Destination,
		Stops:    st.Path,
		Distance: distance,
	})
	if err != nil {
		return st, server.WrapErrorf(err, server.ErrInternalServerError, server.MessageInternalServerError)
	}
	return st, nil
}

func (s *NavigationService) ClearSession(ctx context.Context, sessionID string) (session.State, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return session.State{}, err
	}
	return sess.Clear(), nil
}

// Recommendation builds the advisory line for the session's current path.
// An empty selectedID falls back to the session destination, then its origin.
func (s *NavigationService) Recommendation(ctx context.Context, sessionID string, tod recommendation.TimeOfDay,
	selectedID string) (string, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return "", err
	}
	st := sess.State()
	switch {
	case selectedID != "":
		selectedID = s.graph.Canonicalize(selectedID)
	case st.Destination != "":
		selectedID = st.Destination
	default:
		selectedID = st.Origin
	}
	return s.recommender.Recommend(recommendation.Situation{
		TimeOfDay:        tod,
		SelectedLocation: selectedID,
		Path:             st.Path,
	}), nil
}

func (s *NavigationService) Occupancy(ctx context.Context) (map[string]datastructure.Occupancy, []datastructure.OccupancyUpdate) {
	return s.occupancy.Snapshot(), s.occupancy.Updates()
}

func (s *NavigationService) RouteHistory(ctx context.Context, limit int) ([]datastructure.RouteRecord, error) {
	routes, err := s.kv.RecentRoutes(ctx, limit)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, server.MessageInternalServerError)
	}
	return routes, nil
}
