package spatial

import (
	"sort"

	"lintang/campusnav/pkg/datastructure"
	"lintang/campusnav/pkg/geo"

	"github.com/dhconnelly/rtreego"
)

var tol = 0.0001

type locationRect struct {
	point rtreego.Point
	idx   int
	loc   datastructure.Location
}

func (l *locationRect) Bounds() rtreego.Rect {
	return l.point.ToRect(tol)
}

// Index answers nearest-location queries on the normalized map plane.
type Index struct {
	tree *rtreego.Rtree
	size int
}

func NewIndex(locs []datastructure.Location) *Index {
	tree := rtreego.NewTree(2, 25, 50) // 2 dimension, 25 min entries, 50 max entries
	for i, l := range locs {
		c := l.Coordinate()
		tree.Insert(&locationRect{
			point: rtreego.Point{c.X, c.Y},
			idx:   i,
			loc:   l,
		})
	}
	return &Index{tree: tree, size: len(locs)}
}

type candidate struct {
	rect *locationRect
	dist float64
}

// NearestN returns up to k locations closest to (x, y), nearest first. Equal
// distances keep authoring order.
func (ix *Index) NearestN(x, y float64, k int) []datastructure.Location {
	if k <= 0 || ix.size == 0 {
		return []datastructure.Location{}
	}
	// over-fetch so that ties at the cut are decided by authoring order
	fetch := k + 4
	if fetch > ix.size {
		fetch = ix.size
	}

	cands := make([]candidate, 0, fetch)
	for _, s := range ix.tree.NearestNeighbors(fetch, rtreego.Point{x, y}) {
		if s == nil {
			continue
		}
		r := s.(*locationRect)
		cands = append(cands, candidate{rect: r, dist: geo.EuclideanDistance(x, y, r.loc.X, r.loc.Y)})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return cands[i].rect.idx < cands[j].rect.idx
	})
	if len(cands) > k {
		cands = cands[:k]
	}

	out := make([]datastructure.Location, len(cands))
	for i, c := range cands {
		out[i] = c.rect.loc
	}
	return out
}

// Nearest returns the closest location to (x, y) and its distance.
func (ix *Index) Nearest(x, y float64) (datastructure.Location, float64, bool) {
	res := ix.NearestN(x, y, 1)
	if len(res) == 0 {
		return datastructure.Location{}, 0, false
	}
	return res[0], geo.EuclideanDistance(x, y, res[0].X, res[0].Y), true
}
