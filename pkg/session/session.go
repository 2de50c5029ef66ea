package session

import (
	"sync"
)

type Phase int

const (
	Empty Phase = iota
	OriginSet
	Complete
)

func (p Phase) String() string {
	switch p {
	case OriginSet:
		return "origin_set"
	case Complete:
		return "complete"
	default:
		return "empty"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

type PathFinder interface {
	FindPath(fromID, toID string) []string
}

// State is a snapshot of a route session. An empty Origin or Destination
// means none; a nil Path in the Complete phase means no route was found.
type State struct {
	Phase       Phase    `json:"phase"`
	Origin      string   `json:"origin,omitempty"`
	Destination string   `json:"destination,omitempty"`
	Path        []string `json:"path"`
}

// RouteSession tracks the two-click origin/destination selection. Concurrent
// Selects are serialized; the last one wins.
type RouteSession struct {
	mu     sync.Mutex
	finder PathFinder
	state  State
}

func New(finder PathFinder) *RouteSession {
	return &RouteSession{finder: finder}
}

// Select applies one location click:
//
//	Empty                  -> OriginSet(id)
//	OriginSet(o), id != o  -> Complete(o, id, path)
//	OriginSet(o), id == o  -> OriginSet(id)
//	Complete               -> OriginSet(id)
func (s *RouteSession) Select(id string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.state.Phase == Empty:
		s.state = State{Phase: OriginSet, Origin: id}
	case s.state.Phase == OriginSet && id != s.state.Origin:
		s.state = State{
			Phase:       Complete,
			Origin:      s.state.Origin,
			Destination: id,
			Path:        s.finder.FindPath(s.state.Origin, id),
		}
	default:
		s.state = State{Phase: OriginSet, Origin: id}
	}
	return s.snapshot()
}

// Clear discards origin, destination and path.
func (s *RouteSession) Clear() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{}
	return s.snapshot()
}

func (s *RouteSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *RouteSession) snapshot() State {
	st := s.state
	if st.Path != nil {
		st.Path = append([]string(nil), st.Path...)
	}
	return st
}
