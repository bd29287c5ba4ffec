package server

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/echotools/groupseed/seeding"
	"github.com/gofrs/uuid/v5"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

var (
	ErrMissingPlayerID  = errors.New("player id is required")
	ErrDuplicatePlayer  = errors.New("duplicate player id")
	ErrAmbiguousPool    = errors.New("players and entries are mutually exclusive")
	ErrSettingsNotReady = errors.New("no distribution settings loaded")
)

// ValidatePool rejects pools the engine would accept but whose results could
// not be told apart by player ID.
func ValidatePool(pool []seeding.Player) error {
	for i, p := range pool {
		if p.ID == "" {
			return fmt.Errorf("%w: index %d", ErrMissingPlayerID, i)
		}
	}
	if dups := lo.FindDuplicatesBy(pool, func(p seeding.Player) string { return p.ID }); len(dups) > 0 {
		return fmt.Errorf("%w: %q", ErrDuplicatePlayer, dups[0].ID)
	}
	return nil
}

// RunDistribution converts settings to an engine configuration and runs it
// over pool. The run is timed and recorded on metrics when it is not nil.
func RunDistribution(logger *zap.Logger, metrics Metrics, settings *DistributionSettings, pool []seeding.Player, opts ...seeding.Option) *seeding.DistributionResult {
	cfg := settings.ToConfig()
	opts = append(settings.Options(), opts...)

	start := time.Now()
	result := seeding.Distribute(logger, cfg, pool, opts...)
	elapsed := time.Since(start)

	if metrics != nil {
		metrics.Distribution(result, elapsed)
	}

	fields := []zap.Field{
		zap.String("strategy", result.Strategy.String()),
		zap.Int("players", len(pool)),
		zap.Int("groups", len(result.Groups)),
		zap.Int("placed", result.TotalPlaced()),
		zap.Int("unassigned", result.Unassigned),
		zap.Int("pruned", len(result.Pruned)),
		zap.Duration("elapsed", elapsed),
	}
	switch {
	case result.Anomaly:
		logger.Warn("Distribution finished with anomaly", fields...)
	case result.Empty():
		logger.Info("Distribution formed no groups", fields...)
	default:
		logger.Debug("Distribution finished", fields...)
	}
	return result
}

// SeededRand returns a reproducible source for the random strategy.
func SeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

type GroupResponse struct {
	ID       uuid.UUID        `json:"id"`
	Tier     seeding.TierKey  `json:"tier"`
	Index    int              `json:"index"`
	Capacity int              `json:"capacity"`
	Players  []seeding.Player `json:"players"`
	Ordinal  *float64         `json:"ordinal,omitempty"`
}

type DistributeResponse struct {
	RunID             uuid.UUID             `json:"run_id"`
	Strategy          seeding.Strategy      `json:"strategy"`
	Deterministic     bool                  `json:"deterministic"`
	Groups            []GroupResponse       `json:"groups"`
	Unassigned        int                   `json:"unassigned"`
	UnassignedPlayers []seeding.Player      `json:"unassigned_players"`
	Pruned            int                   `json:"pruned"`
	Tiers             []seeding.TierSummary `json:"tiers"`
	Anomaly           bool                  `json:"anomaly"`
}

// NewDistributeResponse shapes a result for output. Group IDs are derived
// from runID, the tier and the index, so they are stable for a given run.
// When entries are given each group carries its combined rating ordinal.
func NewDistributeResponse(runID uuid.UUID, result *seeding.DistributionResult, entries []RatedEntry) *DistributeResponse {
	byID := lo.KeyBy(entries, func(e RatedEntry) string { return e.ID })

	groups := lo.Map(result.Groups, func(g seeding.Group, _ int) GroupResponse {
		resp := GroupResponse{
			ID:       GroupID(runID, g.Tier, g.Index),
			Tier:     g.Tier,
			Index:    g.Index,
			Capacity: g.Capacity,
			Players:  g.Players,
		}
		if len(byID) > 0 {
			if team := teamForGroup(g, byID); len(team) > 0 {
				ordinal := team.Ordinal()
				resp.Ordinal = &ordinal
			}
		}
		return resp
	})

	unassigned := result.UnassignedPlayers
	if unassigned == nil {
		unassigned = []seeding.Player{}
	}

	return &DistributeResponse{
		RunID:             runID,
		Strategy:          result.Strategy,
		Deterministic:     result.Strategy.Deterministic(),
		Groups:            groups,
		Unassigned:        result.Unassigned,
		UnassignedPlayers: unassigned,
		Pruned:            len(result.Pruned),
		Tiers:             result.Tiers,
		Anomaly:           result.Anomaly,
	}
}

func GroupID(runID uuid.UUID, tier seeding.TierKey, index int) uuid.UUID {
	return uuid.NewV5(runID, fmt.Sprintf("%s/%d", tier, index))
}
