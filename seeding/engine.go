// Package seeding partitions a ranked player pool into capacity-bounded
// groups across one or more tiers.
//
// A run is a single forward pass: the pool is sequenced for the chosen
// strategy, each selected tier fills its group shells from a shared cursor,
// and groups below the minimum size are pruned. Runs hold no state between
// invocations; the caller is responsible for not sharing a mutable
// DistributionConfig with a run in progress.
package seeding

import (
	"math/rand/v2"

	"go.uber.org/zap"
)

type options struct {
	rng        *rand.Rand
	sweepLimit int
}

type Option func(*options)

// WithRand sets the entropy source used by StrategyRandom.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) {
		o.rng = rng
	}
}

// WithSweepLimit overrides DefaultSweepLimit for snake draft passes.
func WithSweepLimit(limit int) Option {
	return func(o *options) {
		if limit > 0 {
			o.sweepLimit = limit
		}
	}
}

// Distribute runs the engine over pool with cfg. It never fails: missing
// tiers, skipped tiers and empty pools all produce a result without groups,
// with every input player counted as unassigned.
func Distribute(logger *zap.Logger, cfg *DistributionConfig, pool []Player, opts ...Option) *DistributionResult {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := options{sweepLimit: DefaultSweepLimit}
	for _, opt := range opts {
		opt(&o)
	}

	result := &DistributionResult{Groups: []Group{}}
	if cfg == nil {
		return withUnassigned(result, pool)
	}
	result.Strategy = cfg.Strategy

	tiers := cfg.activeTiers()
	if len(tiers) == 0 || len(pool) == 0 {
		logger.Debug("Nothing to distribute", zap.Int("tiers", len(tiers)), zap.Int("players", len(pool)))
		return withUnassigned(result, pool)
	}

	sequenced := Sequence(cfg.Strategy, pool, o.rng)

	var (
		groups = make([]Group, 0, len(tiers)*max(cfg.DefaultGroupCount, 1))
		cursor int
	)
	for _, tier := range tiers {
		tierGroups, fill := allocateTier(cfg, tier, sequenced, cursor, o.sweepLimit)
		summary := TierSummary{
			Tier:          tier,
			GroupsCreated: len(tierGroups),
			Placed:        fill.next - cursor,
			Sweeps:        fill.sweeps,
			Anomaly:       fill.anomaly,
		}
		if fill.anomaly {
			result.Anomaly = true
			logger.Warn("Snake draft sweep limit reached with groups still open",
				zap.String("tier", tier.String()),
				zap.Int("sweep_limit", o.sweepLimit),
				zap.Int("placed", summary.Placed),
				zap.Int("remaining", len(sequenced)-fill.next))
		}
		logger.Debug("Allocated tier",
			zap.String("tier", tier.String()),
			zap.String("strategy", cfg.Strategy.String()),
			zap.Int("groups", summary.GroupsCreated),
			zap.Int("placed", summary.Placed),
			zap.Int("sweeps", summary.Sweeps))

		cursor = fill.next
		groups = append(groups, tierGroups...)
		result.Tiers = append(result.Tiers, summary)
	}

	kept, pruned := Prune(groups, cfg.MinPerGroup)
	result.Groups = kept
	result.Pruned = pruned

	result.UnassignedPlayers = append(result.UnassignedPlayers, sequenced[cursor:]...)
	for _, g := range pruned {
		result.UnassignedPlayers = append(result.UnassignedPlayers, g.Players...)
	}
	result.Unassigned = len(result.UnassignedPlayers)

	for i := range result.Tiers {
		result.Tiers[i].GroupsKept = len(result.GroupsForTier(result.Tiers[i].Tier))
	}

	logger.Debug("Distribution complete",
		zap.Int("players", len(pool)),
		zap.Int("groups", len(result.Groups)),
		zap.Int("pruned", len(pruned)),
		zap.Int("unassigned", result.Unassigned),
		zap.Bool("anomaly", result.Anomaly))

	return result
}

func withUnassigned(result *DistributionResult, pool []Player) *DistributionResult {
	if len(pool) > 0 {
		result.UnassignedPlayers = append([]Player(nil), pool...)
	}
	result.Unassigned = len(pool)
	return result
}
