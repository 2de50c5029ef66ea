package datastructure

import "time"

type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func NewCoordinate(x, y float64) Coordinate {
	return Coordinate{
		X: x,
		Y: y,
	}
}

type CrowdLevel string

const (
	CrowdLow    CrowdLevel = "low"
	CrowdMedium CrowdLevel = "medium"
	CrowdHigh   CrowdLevel = "high"
)

func (c CrowdLevel) Valid() bool {
	switch c {
	case CrowdLow, CrowdMedium, CrowdHigh:
		return true
	default:
		return false
	}
}

// Occupancy is a point-in-time crowd reading for one location.
type Occupancy struct {
	Level     CrowdLevel `json:"level"`
	Count     int        `json:"count"`
	UpdatedAt time.Time  `json:"updated_at,omitempty"`
}

// DefaultOccupancy is reported for locations the feed knows nothing about.
func DefaultOccupancy() Occupancy {
	return Occupancy{Level: CrowdLow, Count: 0}
}

type OccupancyUpdate struct {
	LocationID string     `json:"location_id"`
	Level      CrowdLevel `json:"level"`
	Previous   CrowdLevel `json:"previous"`
	At         time.Time  `json:"at"`
}

// RouteRecord is a route that was computed for a user session.
type RouteRecord struct {
	ID        uint64    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Stops     []string  `json:"stops"`
	Distance  float64   `json:"distance"`
	CreatedAt time.Time `json:"created_at"`
}
