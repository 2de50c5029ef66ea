package routingalgorithm

import (
	"math"

	"lintang/campusnav/pkg/datastructure"
	"lintang/campusnav/pkg/geo"
	"lintang/campusnav/pkg/util"
)

type LocationGraph interface {
	All() []datastructure.Location
	IndexOf(id string) (int, bool)
}

type OccupancyReader interface {
	Occupancy(locationID string) datastructure.Occupancy
}

type edge struct {
	to     int32
	weight float64
}

// RouteAlgorithm answers shortest path queries over the directed graph
// induced by location connections. The weighted adjacency is built once; the
// struct holds no per-query state and is safe for concurrent use.
type RouteAlgorithm struct {
	g   LocationGraph
	ids []string
	adj [][]edge
}

func NewRouteAlgorithm(g LocationGraph) *RouteAlgorithm {
	locs := g.All()
	rt := &RouteAlgorithm{
		g:   g,
		ids: make([]string, len(locs)),
		adj: make([][]edge, len(locs)),
	}
	for i, l := range locs {
		rt.ids[i] = l.ID
	}
	for i, l := range locs {
		for _, to := range l.Connections {
			j, ok := g.IndexOf(to)
			if !ok {
				// dangling connection, unreachable
				continue
			}
			rt.adj[i] = append(rt.adj[i], edge{
				to:     int32(j),
				weight: geo.EuclideanDistance(l.X, l.Y, locs[j].X, locs[j].Y),
			})
		}
	}
	return rt
}

type weightFunc func(from, to int32, w float64) float64

func euclidean(_, _ int32, w float64) float64 {
	return w
}

// FindPath returns the ids from fromID to toID inclusive along the shortest
// path, or nil when either id is unknown, fromID == toID, or toID is not
// reachable.
func (rt *RouteAlgorithm) FindPath(fromID, toID string) []string {
	r, found := rt.ShortestPath(fromID, toID)
	if !found {
		return nil
	}
	return r.Stops
}

// ShortestPath is FindPath plus the total euclidean distance of the route.
func (rt *RouteAlgorithm) ShortestPath(fromID, toID string) (datastructure.Route, bool) {
	return rt.shortestPath(fromID, toID, euclidean)
}

// ShortestPathWithPreference routes with a crowd-aware cost when pref is
// PreferenceLeastCrowded: every edge costs its length times
// 1 + penalty(crowd level at the edge target). Distance in the result is
// always the euclidean length of the chosen stops.
func (rt *RouteAlgorithm) ShortestPathWithPreference(fromID, toID string, pref datastructure.RoutePreference,
	occ OccupancyReader) (datastructure.Route, bool) {
	if pref != datastructure.PreferenceLeastCrowded || occ == nil {
		return rt.ShortestPath(fromID, toID)
	}
	penalty := make([]float64, len(rt.ids))
	for i, id := range rt.ids {
		penalty[i] = CrowdPenalty(occ.Occupancy(id).Level)
	}
	return rt.shortestPath(fromID, toID, func(_, to int32, w float64) float64 {
		return w * (1 + penalty[to])
	})
}

// CrowdPenalty is the relative extra cost of walking into a location with the
// given crowd level.
func CrowdPenalty(level datastructure.CrowdLevel) float64 {
	switch level {
	case datastructure.CrowdMedium:
		return 0.5
	case datastructure.CrowdHigh:
		return 1.5
	default:
		return 0
	}
}

// EdgeWeight returns the euclidean weight of the declared edge fromID->toID.
func (rt *RouteAlgorithm) EdgeWeight(fromID, toID string) (float64, bool) {
	from, ok := rt.g.IndexOf(fromID)
	if !ok {
		return 0, false
	}
	to, ok := rt.g.IndexOf(toID)
	if !ok {
		return 0, false
	}
	for _, e := range rt.adj[from] {
		if e.to == int32(to) {
			return e.weight, true
		}
	}
	return 0, false
}

// PathDistance sums the edge weights along stops. It reports false when a
// consecutive pair is not a declared edge.
func (rt *RouteAlgorithm) PathDistance(stops []string) (float64, bool) {
	total := 0.0
	for i := 1; i < len(stops); i++ {
		w, ok := rt.EdgeWeight(stops[i-1], stops[i])
		if !ok {
			return 0, false
		}
		total += w
	}
	return total, true
}

func (rt *RouteAlgorithm) shortestPath(fromID, toID string, w weightFunc) (datastructure.Route, bool) {
	if fromID == toID {
		return datastructure.Route{}, false
	}
	from, ok := rt.g.IndexOf(fromID)
	if !ok {
		return datastructure.Route{}, false
	}
	to, ok := rt.g.IndexOf(toID)
	if !ok {
		return datastructure.Route{}, false
	}

	_, prev := rt.dijkstra(int32(from), int32(to), w)
	path := rt.reconstruct(int32(from), int32(to), prev)
	if path == nil {
		return datastructure.Route{}, false
	}
	return rt.toRoute(path), true
}

// dijkstra runs a single source search from src. When dst >= 0 the search
// halts as soon as dst is settled. Nodes with equal tentative distance are
// settled in authoring order; this tie-break is deterministic but otherwise
// unspecified.
func (rt *RouteAlgorithm) dijkstra(src, dst int32, w weightFunc) ([]float64, []int32) {
	n := len(rt.ids)
	dist := make([]float64, n)
	prev := make([]int32, n)
	visited := make([]bool, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		prev[i] = -1
	}
	dist[src] = 0

	pq := newMinHeap()
	pq.Insert(priorityQueueNode{Rank: 0, Item: src})

	for pq.Size() > 0 {
		current := pq.ExtractMin()
		u := current.Item
		if math.IsInf(current.Rank, 1) {
			break
		}
		if u == dst {
			break
		}
		visited[u] = true

		for _, e := range rt.adj[u] {
			if visited[e.to] {
				continue
			}
			alt := dist[u] + w(u, e.to, e.weight)
			if alt < dist[e.to] {
				dist[e.to] = alt
				prev[e.to] = u
				pq.Upsert(priorityQueueNode{Rank: alt, Item: e.to})
			}
		}
	}
	return dist, prev
}

// reconstruct walks predecessors back from dst. It returns nil when the walk
// does not end at src.
func (rt *RouteAlgorithm) reconstruct(src, dst int32, prev []int32) []int32 {
	path := []int32{}
	for curr := dst; curr != -1; curr = prev[curr] {
		path = append(path, curr)
		if len(path) > len(prev) {
			return nil
		}
	}
	if len(path) < 2 || path[len(path)-1] != src {
		return nil
	}
	util.ReverseG(path)
	return path
}

func (rt *RouteAlgorithm) toRoute(path []int32) datastructure.Route {
	stops := make([]string, len(path))
	total := 0.0
	for i, p := range path {
		stops[i] = rt.ids[p]
		if i == 0 {
			continue
		}
		for _, e := range rt.adj[path[i-1]] {
			if e.to == p {
				total += e.weight
				break
			}
		}
	}
	return datastructure.Route{Stops: stops, Distance: total}
}
