package datastructure

import (
	"github.com/twpayne/go-polyline"
)

// Floor is a per-floor breakdown of a multi-storey building.
type Floor struct {
	Floor       int    `json:"floor"`
	Description string `json:"description"`
	Capacity    int    `json:"capacity"`
}

// Location is a campus building or area. X and Y are percentages of the map
// width/height. Connections are directed edges from this location.
type Location struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	X            float64  `json:"x"`
	Y            float64  `json:"y"`
	Description  string   `json:"description,omitempty"`
	OpeningHours string   `json:"openingHours,omitempty"`
	CurrentEvent string   `json:"currentEvent,omitempty"`
	Category     string   `json:"category,omitempty"`
	Facilities   []string `json:"facilities,omitempty"`
	Connections  []string `json:"connections,omitempty"`
	Floors       []Floor  `json:"floors,omitempty"`
}

func (l Location) Coordinate() Coordinate {
	return NewCoordinate(l.X, l.Y)
}

// Route is an ordered sequence of location ids from origin to destination
// inclusive. Distance is the sum of the euclidean edge weights.
type Route struct {
	Stops    []string `json:"stops"`
	Distance float64  `json:"distance"`
}

func (r Route) Origin() string {
	if len(r.Stops) == 0 {
		return ""
	}
	return r.Stops[0]
}

func (r Route) Destination() string {
	if len(r.Stops) == 0 {
		return ""
	}
	return r.Stops[len(r.Stops)-1]
}

type RoutePreference string

const (
	PreferenceFastest      RoutePreference = "fastest"
	PreferenceLeastCrowded RoutePreference = "least-crowded"
)

// MissingConnection is a connection pointing to an id that is not in the graph.
type MissingConnection struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DataQualityReport lists hand-authoring issues found in a location dataset.
// None of them change routing: asymmetric edges stay directed and dangling
// connections are simply unreachable.
type DataQualityReport struct {
	Dangling   []MissingConnection `json:"dangling"`
	Asymmetric []MissingConnection `json:"asymmetric"`
	SelfLoops  []string            `json:"self_loops"`
}

func (r DataQualityReport) Clean() bool {
	return len(r.Dangling) == 0 && len(r.Asymmetric) == 0 && len(r.SelfLoops) == 0
}

// RenderPath encodes the coordinates of the route stops with the google
// polyline algorithm. Coordinates are the normalized map plane, not lat/lon.
func RenderPath(path []Location) string {
	coords := make([][]float64, 0, len(path))
	for _, p := range path {
		c := p.Coordinate()
		coords = append(coords, []float64{c.Y, c.X})
	}
	return string(polyline.EncodeCoords(coords))
}
