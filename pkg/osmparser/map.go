package osmparser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"lintang/campusnav/pkg/datastructure"
	"lintang/campusnav/pkg/geo"
	"lintang/campusnav/pkg/util"

	"github.com/golang/geo/s2"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmxml"
)

const (
	tagID         = "campusnav:id"
	tagCategory   = "campusnav:category"
	tagFacilities = "campusnav:facilities"
	tagPath       = "campusnav:path"
)

var ErrNoLocations = errors.New("osm extract has no campusnav:id nodes")

type campusNode struct {
	osmID osm.NodeID
	lat   float64
	lon   float64
	loc   datastructure.Location
}

// LoadOSM reads an OSM XML extract. Nodes tagged campusnav:id become
// locations in file order. Ways tagged campusnav:path=yes connect their
// consecutive location nodes in both directions, or only forward when tagged
// oneway=yes (backward for oneway=-1). Coordinates are normalized to the
// 0..100 plane over the bounding rectangle of all locations, with y growing
// southwards.
func LoadOSM(ctx context.Context, r io.Reader) ([]datastructure.Location, error) {
	scanner := osmxml.New(ctx, r)
	defer scanner.Close()

	nodes := []*campusNode{}
	byOSMID := make(map[osm.NodeID]*campusNode)
	seen := make(map[string]osm.NodeID)
	ways := []*osm.Way{}

	for scanner.Scan() {
		switch o := scanner.Object().(type) {
		case *osm.Node:
			id := o.Tags.Find(tagID)
			if id == "" {
				continue
			}
			if prev, dup := seen[id]; dup {
				return nil, fmt.Errorf("location %q tagged on node %d and node %d", id, prev, o.ID)
			}
			seen[id] = o.ID
			n := &campusNode{osmID: o.ID, lat: o.Lat, lon: o.Lon, loc: nodeLocation(id, o.Tags)}
			nodes = append(nodes, n)
			byOSMID[o.ID] = n
		case *osm.Way:
			if o.Tags.Find(tagPath) == "yes" {
				ways = append(ways, o)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan osm extract: %w", err)
	}
	if len(nodes) == 0 {
		return nil, ErrNoLocations
	}

	for _, w := range ways {
		forward, backward := wayDirections(w.Tags)
		var prev *campusNode
		for _, wn := range w.Nodes {
			n, ok := byOSMID[wn.ID]
			if !ok {
				// geometry only
				continue
			}
			if prev != nil && prev != n {
				if forward {
					connect(prev, n)
				}
				if backward {
					connect(n, prev)
				}
			}
			prev = n
		}
	}

	normalize(nodes)

	locs := make([]datastructure.Location, len(nodes))
	for i, n := range nodes {
		locs[i] = n.loc
	}
	return locs, nil
}

func nodeLocation(id string, tags osm.Tags) datastructure.Location {
	name := tags.Find("name")
	if name == "" {
		name = id
	}
	loc := datastructure.Location{
		ID:           id,
		Name:         name,
		Description:  tags.Find("description"),
		OpeningHours: tags.Find("opening_hours"),
		Category:     tags.Find(tagCategory),
		Facilities:   splitList(tags.Find(tagFacilities)),
		Connections:  []string{},
	}
	return loc
}

// splitList splits an OSM multi-value tag (a;b;c).
func splitList(v string) []string {
	if v == "" {
		return nil
	}
	out := []string{}
	for _, part := range strings.Split(v, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func wayDirections(tags osm.Tags) (forward, backward bool) {
	switch tags.Find("oneway") {
	case "yes", "true", "1":
		return true, false
	case "-1", "reverse":
		return false, true
	default:
		return true, true
	}
}

func connect(from, to *campusNode) {
	for _, c := range from.loc.Connections {
		if c == to.loc.ID {
			return
		}
	}
	from.loc.Connections = append(from.loc.Connections, to.loc.ID)
}

func normalize(nodes []*campusNode) {
	rect := s2.EmptyRect()
	for _, n := range nodes {
		rect = rect.AddPoint(s2.LatLngFromDegrees(n.lat, n.lon))
	}
	lo, hi := rect.Lo(), rect.Hi()
	for _, n := range nodes {
		n.loc.X = util.RoundFloat(geo.Normalize(n.lon, lo.Lng.Degrees(), hi.Lng.Degrees()), 2)
		n.loc.Y = util.RoundFloat(100-geo.Normalize(n.lat, lo.Lat.Degrees(), hi.Lat.Degrees()), 2)
	}
}
