// Package occupancy provides crowd-level feeds for campus locations: a seeded
// simulator and a poller for a remote JSON feed. Both answer point-in-time
// reads and keep the most recent level changes.
package occupancy

import (
	"context"
	"sort"
	"sync"
	"time"

	"lintang/campusnav/pkg/datastructure"

	"golang.org/x/exp/rand"
)

// MaxRecentUpdates is the number of level changes kept for presentation.
const MaxRecentUpdates = 5

var levels = []datastructure.CrowdLevel{
	datastructure.CrowdLow,
	datastructure.CrowdMedium,
	datastructure.CrowdHigh,
}

type profile int

const (
	profileOther profile = iota
	profileTower
	profileAcademic
	profileDining
	profileAccommodation
	profileRecreation
)

// countRange yields min + [0, span).
type countRange struct {
	min, span int
}

var countRanges = map[profile]map[datastructure.CrowdLevel]countRange{
	profileTower: {
		datastructure.CrowdHigh:   {80, 60},
		datastructure.CrowdMedium: {40, 40},
		datastructure.CrowdLow:    {10, 30},
	},
	profileAcademic: {
		datastructure.CrowdHigh:   {60, 40},
		datastructure.CrowdMedium: {25, 35},
		datastructure.CrowdLow:    {1, 19},
	},
	profileDining: {
		datastructure.CrowdHigh:   {50, 30},
		datastructure.CrowdMedium: {20, 30},
		datastructure.CrowdLow:    {1, 19},
	},
	profileAccommodation: {
		datastructure.CrowdHigh:   {40, 30},
		datastructure.CrowdMedium: {20, 20},
		datastructure.CrowdLow:    {1, 19},
	},
	profileRecreation: {
		datastructure.CrowdHigh:   {20, 15},
		datastructure.CrowdMedium: {10, 15},
		datastructure.CrowdLow:    {2, 8},
	},
	profileOther: {
		datastructure.CrowdHigh:   {30, 20},
		datastructure.CrowdMedium: {15, 15},
		datastructure.CrowdLow:    {1, 19},
	},
}

func profileOf(id string) profile {
	switch id {
	case "zenith":
		return profileTower
	case "gaff", "wulfruna", "sky", "spencer", "dalian":
		return profileAcademic
	case "storm":
		return profileDining
	case "mizzen":
		return profileAccommodation
	case "basketballCourt", "swimmingPool":
		return profileRecreation
	default:
		return profileOther
	}
}

// CountRange returns the inclusive bounds of simulated head counts for a
// location at the given level.
func CountRange(locationID string, level datastructure.CrowdLevel) (lo, hi int) {
	r, ok := countRanges[profileOf(locationID)][level]
	if !ok {
		return 0, 0
	}
	return r.min, r.min + r.span - 1
}

// Simulator is a pseudo-random occupancy feed. Every Tick moves one location
// to a different crowd level with a head count typical for its kind of
// building.
type Simulator struct {
	mu      sync.RWMutex
	rng     *rand.Rand
	ids     []string
	data    map[string]datastructure.Occupancy
	updates []datastructure.OccupancyUpdate
	now     func() time.Time
}

// NewSimulator simulates the locations present in initial. The same seed and
// initial snapshot produce the same sequence of updates.
func NewSimulator(initial map[string]datastructure.Occupancy, seed uint64) *Simulator {
	s := &Simulator{
		rng:  rand.New(rand.NewSource(seed)),
		ids:  make([]string, 0, len(initial)),
		data: make(map[string]datastructure.Occupancy, len(initial)),
		now:  time.Now,
	}
	for id, o := range initial {
		s.ids = append(s.ids, id)
		s.data[id] = o
	}
	sort.Strings(s.ids)
	return s
}

// Tick applies one random level change. It reports false when there is
// nothing to simulate.
func (s *Simulator) Tick() (datastructure.OccupancyUpdate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.ids) == 0 {
		return datastructure.OccupancyUpdate{}, false
	}
	id := s.ids[s.rng.Intn(len(s.ids))]
	current := s.data[id].Level
	if current == "" {
		current = datastructure.CrowdLow
	}

	next := current
	for next == current {
		next = levels[s.rng.Intn(len(levels))]
	}

	r := countRanges[profileOf(id)][next]
	at := s.now()
	s.data[id] = datastructure.Occupancy{
		Level:     next,
		Count:     r.min + s.rng.Intn(r.span),
		UpdatedAt: at,
	}

	u := datastructure.OccupancyUpdate{LocationID: id, Level: next, Previous: current, At: at}
	s.updates = pushUpdate(s.updates, u)
	return u, true
}

// Run ticks every interval until ctx is done.
func (s *Simulator) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

func (s *Simulator) Occupancy(locationID string) datastructure.Occupancy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if o, ok := s.data[locationID]; ok {
		return o
	}
	return datastructure.DefaultOccupancy()
}

func (s *Simulator) Snapshot() map[string]datastructure.Occupancy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]datastructure.Occupancy, len(s.data))
	for id, o := range s.data {
		out[id] = o
	}
	return out
}

// Updates returns the most recent level changes, newest first.
func (s *Simulator) Updates() []datastructure.OccupancyUpdate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]datastructure.OccupancyUpdate{}, s.updates...)
}

func pushUpdate(updates []datastructure.OccupancyUpdate, u datastructure.OccupancyUpdate) []datastructure.OccupancyUpdate {
	updates = append([]datastructure.OccupancyUpdate{u}, updates...)
	if len(updates) > MaxRecentUpdates {
		updates = updates[:MaxRecentUpdates]
	}
	return updates
}
