package campus

import "strings"

// Other tables of the campus app spell some buildings differently from the
// map dataset. The map dataset ids are canonical.
var aliases = map[string]string{
	"dallan":  "dalian",
	"dallian": "dalian",
	"wulfrun": "wulfruna",
	"zenth":   "zenith",
}

// Canonicalize maps a known alternate spelling to the canonical location id.
// Matching is case-insensitive against the alias table and the graph itself.
func (g *LocationGraph) Canonicalize(id string) string {
	if _, ok := g.idx[id]; ok {
		return id
	}
	lower := strings.ToLower(id)
	if c, ok := aliases[lower]; ok {
		if _, known := g.idx[c]; known {
			return c
		}
	}
	for _, l := range g.locations {
		if strings.ToLower(l.ID) == lower {
			return l.ID
		}
	}
	return id
}
