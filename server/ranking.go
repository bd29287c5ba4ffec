package server

import (
	"cmp"
	"math"
	"slices"

	"github.com/echotools/groupseed/seeding"
	"github.com/intinig/go-openskill/rating"
	"github.com/intinig/go-openskill/types"
	"github.com/samber/lo"
)

type RatingDefaults struct {
	Z     int     `yaml:"z" json:"z"`
	Mu    float64 `yaml:"mu" json:"mu"`
	Sigma float64 `yaml:"sigma" json:"sigma"`
}

var defaultRating = RatingDefaults{
	Z:     3,
	Mu:    10.0,
	Sigma: 10.0 / 3.0,
}

func NewDefaultRating() types.Rating {
	return types.Rating{
		Z:     defaultRating.Z,
		Mu:    defaultRating.Mu,
		Sigma: defaultRating.Sigma,
	}
}

// NewRating creates a rating from the given parameters.
// If z is 0 the default Z is used. If mu is not positive the default Mu is
// used. If sigma is not positive it is derived as mu/z.
func NewRating[T int | int64 | float64](z, mu, sigma T) types.Rating {
	r := NewDefaultRating()
	if zInt := int(z); zInt > 0 {
		r.Z = zInt
	}
	if muFloat := float64(mu); muFloat > 0 {
		r.Mu = muFloat
	}
	if sigmaFloat := float64(sigma); sigmaFloat > 0 {
		r.Sigma = sigmaFloat
	} else {
		r.Sigma = r.Mu / float64(r.Z)
	}
	return r
}

// RatedEntry is a player with an OpenSkill rating instead of a precomputed
// strength. A missing Mu or Sigma takes the default rating's value; explicit
// values, zero included, are used as given.
type RatedEntry struct {
	ID          string   `json:"id" validate:"required"`
	DisplayName string   `json:"display_name,omitempty"`
	Mu          *float64 `json:"mu,omitempty" validate:"omitempty,gte=0"`
	Sigma       *float64 `json:"sigma,omitempty" validate:"omitempty,gte=0"`
}

// Rating builds the entry's rating. Without a sigma, sigma is derived as
// mu/z like NewRating does.
func (e RatedEntry) Rating() types.Rating {
	r := NewDefaultRating()
	if e.Mu != nil {
		r.Mu = *e.Mu
		r.Sigma = r.Mu / float64(r.Z)
	}
	if e.Sigma != nil {
		r.Sigma = *e.Sigma
	}
	return r
}

func (e RatedEntry) Ordinal() float64 {
	return rating.Ordinal(e.Rating())
}

// RankPool converts rated entries into an engine pool ordered strongest
// first by ordinal. Equal ordinals are ordered by ID so the pool is the same
// for any input order.
func RankPool(entries []RatedEntry) []seeding.Player {
	players := lo.Map(entries, func(e RatedEntry, _ int) seeding.Player {
		return seeding.Player{
			ID:          e.ID,
			DisplayName: e.DisplayName,
			Strength:    e.Ordinal(),
		}
	})
	slices.SortStableFunc(players, func(a, b seeding.Player) int {
		if c := cmp.Compare(b.Strength, a.Strength); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return players
}

// RatedTeam is the set of ratings placed in one group.
type RatedTeam []types.Rating

func (t RatedTeam) Strength() float64 {
	s := 0.0
	for _, p := range t {
		s += p.Mu
	}
	return s
}

// Rating combines the team into a single rating with the mean mu and the
// root mean square sigma of its members.
func (t RatedTeam) Rating() types.Rating {
	if len(t) == 0 {
		return NewDefaultRating()
	}
	meanMu := t.Strength() / float64(len(t))
	sumSigmaSquared := 0.0
	for _, p := range t {
		sumSigmaSquared += p.Sigma * p.Sigma
	}
	rmsSigma := math.Sqrt(sumSigmaSquared / float64(len(t)))

	return types.Rating{Z: defaultRating.Z, Mu: meanMu, Sigma: rmsSigma}
}

func (t RatedTeam) Ordinal() float64 {
	return rating.Ordinal(t.Rating())
}

// teamForGroup looks up the ratings of a group's players. Players without an
// entry are skipped.
func teamForGroup(group seeding.Group, entries map[string]RatedEntry) RatedTeam {
	team := make(RatedTeam, 0, len(group.Players))
	for _, p := range group.Players {
		if e, ok := entries[p.ID]; ok {
			team = append(team, e.Rating())
		}
	}
	return team
}
