package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/shorebound/server/internal/core/system"
	"github.com/shorebound/server/internal/world"
)

// Season cycle order. SeasonProgress runs 0..1 inside each.
var seasonOrder = []string{"Spring", "Summer", "Autumn", "Winter"}

// SeasonSystem advances the world season clock. Plant respawn eligibility
// and the seasonal respawn slowdown both read off it.
type SeasonSystem struct {
	state  *world.State
	length time.Duration // real time per season
	log    *zap.Logger
}

func NewSeasonSystem(s *world.State, length time.Duration, log *zap.Logger) *SeasonSystem {
	if length <= 0 {
		length = 2 * time.Hour
	}
	return &SeasonSystem{state: s, length: length, log: log.Named("season")}
}

func (s *SeasonSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *SeasonSystem) Update(dt time.Duration) {
	s.state.SeasonProgress += dt.Seconds() / s.length.Seconds()
	for s.state.SeasonProgress >= 1 {
		s.state.SeasonProgress -= 1
		s.state.Season = nextSeason(s.state.Season)
		s.log.Info("season turned", zap.String("season", s.state.Season))
	}
}

func nextSeason(cur string) string {
	for i, name := range seasonOrder {
		if name == cur {
			return seasonOrder[(i+1)%len(seasonOrder)]
		}
	}
	return seasonOrder[0]
}
