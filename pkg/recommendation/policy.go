// Package recommendation derives the single advisory line shown next to the
// campus map from the time of day, the selected location, its crowd level and
// the current route.
package recommendation

import (
	"fmt"
	"strings"
	"time"

	"lintang/campusnav/pkg/datastructure"
)

type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
)

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	switch t := TimeOfDay(strings.ToLower(strings.TrimSpace(s))); t {
	case Morning, Afternoon, Evening:
		return t, nil
	default:
		return "", fmt.Errorf("unknown time of day %q", s)
	}
}

// TimeOfDayAt buckets a wall clock time: before noon is morning, before 18:00
// is afternoon, the rest is evening.
func TimeOfDayAt(t time.Time) TimeOfDay {
	switch h := t.Hour(); {
	case h < 12:
		return Morning
	case h < 18:
		return Afternoon
	default:
		return Evening
	}
}

type OccupancyReader interface {
	Occupancy(locationID string) datastructure.Occupancy
}

type LocationNamer interface {
	GetByID(id string) (datastructure.Location, bool)
}

// Situation is everything the policy looks at for one recommendation.
type Situation struct {
	TimeOfDay        TimeOfDay
	SelectedLocation string
	Path             []string
}

type Config struct {
	EveningMessage string
	// CrowdedAlternatives maps a location id to the message shown when that
	// location is selected and crowded.
	CrowdedAlternatives map[string]string
	// AfternoonHotspots maps a dining location id to the message shown when it
	// is selected in the afternoon.
	AfternoonHotspots map[string]string
	RoutePrefix       string
	RouteSeparator    string
	DefaultMessage    string
}

func DefaultConfig() Config {
	return Config{
		EveningMessage: "Well-lit paths recommended for evening travel. MAIN building area is well-lit",
		CrowdedAlternatives: map[string]string{
			"gaff": "GAFF Library is crowded. Consider ZENITH Building Floor 6 IT Lab for computer work",
		},
		AfternoonHotspots: map[string]string{
			"storm": "STORM Cafe is busy during lunch. Try the Basketball Court for a break",
		},
		RoutePrefix:    "Optimal route: ",
		RouteSeparator: " → ",
		DefaultMessage: "Fastest route shown based on current conditions",
	}
}

type rule func(p *Policy, s Situation) (string, bool)

// Policy evaluates its rules in priority order; the first match wins and the
// last rule always matches.
type Policy struct {
	cfg       Config
	locations LocationNamer
	occupancy OccupancyReader
	rules     []rule
}

// NewPolicy builds a policy from cfg. Empty evening, default and separator
// settings take the DefaultConfig value.
func NewPolicy(cfg Config, locations LocationNamer, occupancy OccupancyReader) *Policy {
	def := DefaultConfig()
	if cfg.EveningMessage == "" {
		cfg.EveningMessage = def.EveningMessage
	}
	if cfg.DefaultMessage == "" {
		cfg.DefaultMessage = def.DefaultMessage
	}
	if cfg.RouteSeparator == "" {
		cfg.RouteSeparator = def.RouteSeparator
	}
	return &Policy{
		cfg:       cfg,
		locations: locations,
		occupancy: occupancy,
		rules: []rule{
			eveningRule,
			crowdedAlternativeRule,
			afternoonHotspotRule,
			optimalRouteRule,
			defaultRule,
		},
	}
}

func (p *Policy) Recommend(s Situation) string {
	for _, r := range p.rules {
		if msg, ok := r(p, s); ok {
			return msg
		}
	}
	return p.cfg.DefaultMessage
}

func eveningRule(p *Policy, s Situation) (string, bool) {
	return p.cfg.EveningMessage, s.TimeOfDay == Evening
}

func crowdedAlternativeRule(p *Policy, s Situation) (string, bool) {
	msg, ok := p.cfg.CrowdedAlternatives[s.SelectedLocation]
	if !ok || msg == "" || p.occupancy == nil {
		return "", false
	}
	return msg, p.occupancy.Occupancy(s.SelectedLocation).Level == datastructure.CrowdHigh
}

func afternoonHotspotRule(p *Policy, s Situation) (string, bool) {
	if s.TimeOfDay != Afternoon {
		return "", false
	}
	msg, ok := p.cfg.AfternoonHotspots[s.SelectedLocation]
	return msg, ok && msg != ""
}

func optimalRouteRule(p *Policy, s Situation) (string, bool) {
	if len(s.Path) <= 2 {
		return "", false
	}
	names := make([]string, len(s.Path))
	for i, id := range s.Path {
		names[i] = id
		if p.locations == nil {
			continue
		}
		if l, ok := p.locations.GetByID(id); ok && l.Name != "" {
			names[i] = l.Name
		}
	}
	return p.cfg.RoutePrefix + strings.Join(names, p.cfg.RouteSeparator), true
}

func defaultRule(p *Policy, _ Situation) (string, bool) {
	return p.cfg.DefaultMessage, true
}
