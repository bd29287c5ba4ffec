package seeding

import (
	"fmt"

	"github.com/samber/lo"
)

// TierSummary describes one tier's allocation pass.
type TierSummary struct {
	Tier          TierKey `json:"tier"`
	GroupsCreated int     `json:"groups_created"`
	GroupsKept    int     `json:"groups_kept"`
	Placed        int     `json:"placed"`
	Sweeps        int     `json:"sweeps"`
	Anomaly       bool    `json:"anomaly,omitempty"`
}

// DistributionResult is the output of a run. Groups are ordered by tier (in
// config order) then index, and only contain groups that survived pruning.
//
// UnassignedPlayers lists players that did not fit any group in sequence
// order, followed by the members of pruned groups.
type DistributionResult struct {
	Groups            []Group       `json:"groups"`
	Unassigned        int           `json:"unassigned"`
	UnassignedPlayers []Player      `json:"unassigned_players,omitempty"`
	Pruned            []Group       `json:"pruned,omitempty"`
	Tiers             []TierSummary `json:"tiers,omitempty"`
	Strategy          Strategy      `json:"strategy"`

	// Anomaly is set when a snake draft pass hit its sweep limit while groups
	// still had room. The groups are the partial result at that point.
	Anomaly bool `json:"anomaly,omitempty"`
}

// Empty reports whether nothing was distributed.
func (r *DistributionResult) Empty() bool {
	return len(r.Groups) == 0
}

// TotalPlaced is the number of players in surviving groups.
func (r *DistributionResult) TotalPlaced() int {
	return lo.SumBy(r.Groups, func(g Group) int { return len(g.Players) })
}

// GroupsForTier returns the surviving groups of a tier in index order.
func (r *DistributionResult) GroupsForTier(tier TierKey) []Group {
	return lo.Filter(r.Groups, func(g Group, _ int) bool { return g.Tier == tier })
}

// Check verifies the result against the configuration it was produced from
// and the size of the input pool.
func (r *DistributionResult) Check(cfg *DistributionConfig, total int) error {
	if placed := r.TotalPlaced(); placed+r.Unassigned != total {
		return fmt.Errorf("placed %d + unassigned %d != %d input players", placed, r.Unassigned, total)
	}
	perTier := make(map[TierKey]int)
	seen := make(map[string]struct{}, total)
	for _, g := range r.Groups {
		if limit := cfg.EffectiveCapacity(g.Tier, g.Index); len(g.Players) > limit {
			return fmt.Errorf("group %s/%d holds %d players, capacity %d", g.Tier, g.Index, len(g.Players), limit)
		}
		if len(g.Players) < cfg.MinPerGroup {
			return fmt.Errorf("group %s/%d holds %d players, below minimum %d", g.Tier, g.Index, len(g.Players), cfg.MinPerGroup)
		}
		perTier[g.Tier]++
		for _, p := range g.Players {
			if _, ok := seen[p.ID]; ok && p.ID != "" {
				return fmt.Errorf("player %q placed more than once", p.ID)
			}
			seen[p.ID] = struct{}{}
		}
	}
	for tier, count := range perTier {
		if limit := cfg.EffectiveGroupCount(tier); count > limit {
			return fmt.Errorf("tier %s has %d groups, limit %d", tier, count, limit)
		}
	}
	return nil
}
