package recommendation_test

import (
	"testing"
	"time"

	"lintang/campusnav/pkg/campus"
	"lintang/campusnav/pkg/datastructure"
	"lintang/campusnav/pkg/recommendation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedOccupancy map[string]datastructure.CrowdLevel

func (f fixedOccupancy) Occupancy(id string) datastructure.Occupancy {
	if l, ok := f[id]; ok {
		return datastructure.Occupancy{Level: l, Count: 99}
	}
	return datastructure.DefaultOccupancy()
}

func newPolicy(t *testing.T, occ fixedOccupancy) *recommendation.Policy {
	t.Helper()
	g, err := campus.LoadEmbedded()
	require.NoError(t, err)
	return recommendation.NewPolicy(recommendation.DefaultConfig(), g, occ)
}

func TestRecommend(t *testing.T) {
	cfg := recommendation.DefaultConfig()
	crowded := fixedOccupancy{"gaff": datastructure.CrowdHigh, "storm": datastructure.CrowdHigh}
	longPath := []string{"mainEntrance", "main", "studentRegistration"}

	t.Run("evening wins over everything", func(t *testing.T) {
		p := newPolicy(t, crowded)
		for _, s := range []recommendation.Situation{
			{TimeOfDay: recommendation.Evening},
			{TimeOfDay: recommendation.Evening, SelectedLocation: "gaff", Path: longPath},
			{TimeOfDay: recommendation.Evening, SelectedLocation: "storm"},
		} {
			assert.Equal(t, cfg.EveningMessage, p.Recommend(s))
		}
	})

	t.Run("crowded library suggests alternative", func(t *testing.T) {
		p := newPolicy(t, crowded)
		got := p.Recommend(recommendation.Situation{TimeOfDay: recommendation.Afternoon, SelectedLocation: "gaff", Path: longPath})
		assert.Equal(t, cfg.CrowdedAlternatives["gaff"], got)
	})

	t.Run("library that is not crowded falls through", func(t *testing.T) {
		p := newPolicy(t, fixedOccupancy{"gaff": datastructure.CrowdMedium})
		got := p.Recommend(recommendation.Situation{TimeOfDay: recommendation.Morning, SelectedLocation: "gaff"})
		assert.Equal(t, cfg.DefaultMessage, got)
	})

	t.Run("crowded location without alternative falls through", func(t *testing.T) {
		p := newPolicy(t, fixedOccupancy{"zenith": datastructure.CrowdHigh})
		got := p.Recommend(recommendation.Situation{TimeOfDay: recommendation.Morning, SelectedLocation: "zenith"})
		assert.Equal(t, cfg.DefaultMessage, got)
	})

	t.Run("afternoon at the cafe", func(t *testing.T) {
		p := newPolicy(t, fixedOccupancy{})
		got := p.Recommend(recommendation.Situation{TimeOfDay: recommendation.Afternoon, SelectedLocation: "storm", Path: longPath})
		assert.Equal(t, cfg.AfternoonHotspots["storm"], got)

		got = p.Recommend(recommendation.Situation{TimeOfDay: recommendation.Morning, SelectedLocation: "storm"})
		assert.Equal(t, cfg.DefaultMessage, got)
	})

	t.Run("optimal route uses display names", func(t *testing.T) {
		p := newPolicy(t, fixedOccupancy{})
		got := p.Recommend(recommendation.Situation{TimeOfDay: recommendation.Morning, Path: longPath})
		assert.Equal(t, "Optimal route: Main Entrance → MAIN → Student Registration", got)
	})

	t.Run("unknown ids keep their raw id", func(t *testing.T) {
		p := newPolicy(t, fixedOccupancy{})
		got := p.Recommend(recommendation.Situation{TimeOfDay: recommendation.Morning, Path: []string{"main", "ghost", "gaff"}})
		assert.Equal(t, "Optimal route: MAIN → ghost → GAFF", got)
	})

	t.Run("two stop route is the default message", func(t *testing.T) {
		p := newPolicy(t, fixedOccupancy{})
		got := p.Recommend(recommendation.Situation{TimeOfDay: recommendation.Morning, Path: []string{"main", "storm"}})
		assert.Equal(t, cfg.DefaultMessage, got)
	})

	t.Run("never empty", func(t *testing.T) {
		p := recommendation.NewPolicy(recommendation.DefaultConfig(), nil, nil)
		for _, tod := range []recommendation.TimeOfDay{recommendation.Morning, recommendation.Afternoon, recommendation.Evening, ""} {
			for _, sel := range []string{"", "gaff", "storm", "ghost"} {
				for _, path := range [][]string{nil, {"a", "b"}, {"a", "b", "c"}} {
					assert.NotEmpty(t, p.Recommend(recommendation.Situation{TimeOfDay: tod, SelectedLocation: sel, Path: path}))
				}
			}
		}
	})
}

func TestEmptyConfigFallsBackToDefaults(t *testing.T) {
	def := recommendation.DefaultConfig()
	crowded := fixedOccupancy{"gaff": datastructure.CrowdHigh}
	p := recommendation.NewPolicy(recommendation.Config{
		CrowdedAlternatives: map[string]string{"gaff": ""},
		AfternoonHotspots:   map[string]string{"storm": ""},
	}, nil, crowded)

	assert.Equal(t, def.EveningMessage, p.Recommend(recommendation.Situation{TimeOfDay: recommendation.Evening}))
	assert.Equal(t, def.DefaultMessage, p.Recommend(recommendation.Situation{TimeOfDay: recommendation.Morning}))
	assert.Equal(t, def.DefaultMessage,
		p.Recommend(recommendation.Situation{TimeOfDay: recommendation.Morning, SelectedLocation: "gaff"}))
	assert.Equal(t, def.DefaultMessage,
		p.Recommend(recommendation.Situation{TimeOfDay: recommendation.Afternoon, SelectedLocation: "storm"}))
	assert.Equal(t, "a → b → c",
		p.Recommend(recommendation.Situation{TimeOfDay: recommendation.Morning, Path: []string{"a", "b", "c"}}))
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := recommendation.ParseTimeOfDay(" Evening ")
	require.NoError(t, err)
	assert.Equal(t, recommendation.Evening, tod)

	_, err = recommendation.ParseTimeOfDay("midnight")
	assert.Error(t, err)
}

func TestTimeOfDayAt(t *testing.T) {
	day := func(h int) time.Time { return time.Date(2024, 3, 4, h, 30, 0, 0, time.UTC) }
	assert.Equal(t, recommendation.Morning, recommendation.TimeOfDayAt(day(0)))
	assert.Equal(t, recommendation.Morning, recommendation.TimeOfDayAt(day(11)))
	assert.Equal(t, recommendation.Afternoon, recommendation.TimeOfDayAt(day(12)))
	assert.Equal(t, recommendation.Afternoon, recommendation.TimeOfDayAt(day(17)))
	assert.Equal(t, recommendation.Evening, recommendation.TimeOfDayAt(day(18)))
	assert.Equal(t, recommendation.Evening, recommendation.TimeOfDayAt(day(23)))
}
