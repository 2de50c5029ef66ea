package routingalgorithm

import (
	"context"
	"runtime"

	"lintang/campusnav/pkg/concurrent"
	"lintang/campusnav/pkg/datastructure"
)

type manyToManyJob struct {
	source  int32
	targets []int32
}

type manyToManyResult struct {
	source string
	routes map[string]datastructure.Route
}

// DistanceMatrix computes the shortest route between every ordered pair of
// ids. One full search runs per source on the worker pool. Unknown ids are
// skipped and unreachable pairs are omitted from the result.
func (rt *RouteAlgorithm) DistanceMatrix(ctx context.Context, ids []string) (map[string]map[string]datastructure.Route, error) {
	idx := make([]int32, 0, len(ids))
	seen := make(map[int32]bool, len(ids))
	for _, id := range ids {
		i, ok := rt.g.IndexOf(id)
		if !ok || seen[int32(i)] {
			continue
		}
		seen[int32(i)] = true
		idx = append(idx, int32(i))
	}

	workers := concurrent.NewWorkerPool[manyToManyJob, manyToManyResult](runtime.NumCPU(), len(idx))
	for _, src := range idx {
		workers.AddJob(manyToManyJob{source: src, targets: idx})
	}
	workers.Close()

	workers.Start(func(job manyToManyJob) manyToManyResult {
		res := manyToManyResult{source: rt.ids[job.source], routes: map[string]datastructure.Route{}}
		if ctx.Err() != nil {
			return res
		}
		_, prev := rt.dijkstra(job.source, -1, euclidean)
		for _, dst := range job.targets {
			if dst == job.source {
				continue
			}
			if path := rt.reconstruct(job.source, dst, prev); path != nil {
				res.routes[rt.ids[dst]] = rt.toRoute(path)
			}
		}
		return res
	})
	workers.Wait()

	matrix := make(map[string]map[string]datastructure.Route, len(idx))
	for res := range workers.CollectResults() {
		matrix[res.source] = res.routes
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return matrix, nil
}
