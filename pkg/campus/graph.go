package campus

import (
	"errors"
	"fmt"

	"lintang/campusnav/pkg/datastructure"
)

var (
	ErrEmptyID          = errors.New("location id is empty")
	ErrDuplicateID      = errors.New("duplicate location id")
	ErrCoordinateBounds = errors.New("location coordinate outside [0,100]")
	ErrEmptyDataset     = errors.New("location dataset is empty")
)

// LocationGraph is the immutable set of campus locations. It is safe for
// concurrent reads once constructed.
type LocationGraph struct {
	locations []datastructure.Location
	idx       map[string]int
}

// NewLocationGraph validates locs and freezes a copy of them. Only broken
// identity or coordinates are rejected; dangling or one-way connections are
// kept as authored and show up in Audit.
func NewLocationGraph(locs []datastructure.Location) (*LocationGraph, error) {
	if len(locs) == 0 {
		return nil, ErrEmptyDataset
	}
	g := &LocationGraph{
		locations: make([]datastructure.Location, len(locs)),
		idx:       make(map[string]int, len(locs)),
	}
	for i, l := range locs {
		if l.ID == "" {
			return nil, fmt.Errorf("location #%d: %w", i, ErrEmptyID)
		}
		if _, ok := g.idx[l.ID]; ok {
			return nil, fmt.Errorf("%q: %w", l.ID, ErrDuplicateID)
		}
		if !inPlane(l.X) || !inPlane(l.Y) {
			return nil, fmt.Errorf("%q (%.2f,%.2f): %w", l.ID, l.X, l.Y, ErrCoordinateBounds)
		}
		g.idx[l.ID] = i
		g.locations[i] = cloneLocation(l)
	}
	return g, nil
}

func inPlane(v float64) bool {
	return v >= 0 && v <= 100
}

func cloneLocation(l datastructure.Location) datastructure.Location {
	l.Connections = append([]string(nil), l.Connections...)
	l.Facilities = append([]string(nil), l.Facilities...)
	l.Floors = append([]datastructure.Floor(nil), l.Floors...)
	return l
}

// GetByID returns the location with the given id. Unknown ids are a normal
// outcome, not an error.
func (g *LocationGraph) GetByID(id string) (datastructure.Location, bool) {
	i, ok := g.idx[id]
	if !ok {
		return datastructure.Location{}, false
	}
	return cloneLocation(g.locations[i]), true
}

// All returns every location in authoring order.
func (g *LocationGraph) All() []datastructure.Location {
	out := make([]datastructure.Location, len(g.locations))
	for i, l := range g.locations {
		out[i] = cloneLocation(l)
	}
	return out
}

// NeighborsOf returns the declared connections of id, or an empty slice when
// id is unknown or has none.
func (g *LocationGraph) NeighborsOf(id string) []string {
	i, ok := g.idx[id]
	if !ok {
		return []string{}
	}
	return append([]string{}, g.locations[i].Connections...)
}

// IndexOf returns the authoring position of id.
func (g *LocationGraph) IndexOf(id string) (int, bool) {
	i, ok := g.idx[id]
	return i, ok
}

func (g *LocationGraph) Len() int {
	return len(g.locations)
}

// Audit reports connections to unknown ids, one-way connections and
// self-loops in authoring order.
func (g *LocationGraph) Audit() datastructure.DataQualityReport {
	report := datastructure.DataQualityReport{
		Dangling:   []datastructure.MissingConnection{},
		Asymmetric: []datastructure.MissingConnection{},
		SelfLoops:  []string{},
	}
	for _, l := range g.locations {
		for _, to := range l.Connections {
			if to == l.ID {
				report.SelfLoops = append(report.SelfLoops, l.ID)
				continue
			}
			j, ok := g.idx[to]
			if !ok {
				report.Dangling = append(report.Dangling, datastructure.MissingConnection{From: l.ID, To: to})
				continue
			}
			if !contains(g.locations[j].Connections, l.ID) {
				report.Asymmetric = append(report.Asymmetric, datastructure.MissingConnection{From: l.ID, To: to})
			}
		}
	}
	return report
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
