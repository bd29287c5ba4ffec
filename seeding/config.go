package seeding

import "slices"

// TierRule overrides the run defaults for a single tier. A missing rule, or a
// nil field within one, means "use the defaults".
type TierRule struct {
	CustomGroupCount *int `json:"custom_group_count,omitempty" yaml:"custom_group_count,omitempty"`
	CustomCapacity   *int `json:"custom_capacity,omitempty" yaml:"custom_capacity,omitempty"`
	Skip             bool `json:"skip,omitempty" yaml:"skip,omitempty"`
}

// DistributionConfig is the input configuration of one distribution run.
//
// The engine trusts this value and performs no structural validation beyond
// the defaulting rules of EffectiveGroupCount and EffectiveCapacity. Callers
// that share a config between goroutines must pass a Clone to each run.
type DistributionConfig struct {
	Tiers             []TierKey            `json:"tiers" yaml:"tiers"`
	DefaultGroupCount int                  `json:"default_group_count" yaml:"default_group_count"`
	MinPerGroup       int                  `json:"min_per_group" yaml:"min_per_group"`
	MaxPerGroup       int                  `json:"max_per_group" yaml:"max_per_group"`
	Strategy          Strategy             `json:"strategy" yaml:"strategy"`
	Rules             map[TierKey]TierRule `json:"rules,omitempty" yaml:"rules,omitempty"`
}

func (c *DistributionConfig) Clone() *DistributionConfig {
	if c == nil {
		return nil
	}
	cfgCopy := *c
	cfgCopy.Tiers = slices.Clone(c.Tiers)
	if c.Rules != nil {
		cfgCopy.Rules = make(map[TierKey]TierRule, len(c.Rules))
		for tier, rule := range c.Rules {
			if rule.CustomGroupCount != nil {
				count := *rule.CustomGroupCount
				rule.CustomGroupCount = &count
			}
			if rule.CustomCapacity != nil {
				capacity := *rule.CustomCapacity
				rule.CustomCapacity = &capacity
			}
			cfgCopy.Rules[tier] = rule
		}
	}
	return &cfgCopy
}

// Skipped reports whether the tier is configured to produce no groups.
func (c *DistributionConfig) Skipped(tier TierKey) bool {
	rule, ok := c.Rules[tier]
	return ok && rule.Skip
}

// EffectiveGroupCount is the number of group shells created for the tier.
// Skip takes precedence over any configured count.
func (c *DistributionConfig) EffectiveGroupCount(tier TierKey) int {
	rule, ok := c.Rules[tier]
	if ok && rule.Skip {
		return 0
	}
	count := c.DefaultGroupCount
	if ok && rule.CustomGroupCount != nil {
		count = *rule.CustomGroupCount
	}
	return max(count, 0)
}

// EffectiveCapacity is the player limit of the group at index within the
// tier. Every index of a tier currently shares the same capacity. The value
// is clamped into [MinPerGroup, MaxPerGroup]; if the bounds are inverted the
// upper bound wins so a group never holds more than MaxPerGroup.
func (c *DistributionConfig) EffectiveCapacity(tier TierKey, index int) int {
	capacity := c.MaxPerGroup
	if rule, ok := c.Rules[tier]; ok && rule.CustomCapacity != nil {
		capacity = *rule.CustomCapacity
	}
	capacity = min(max(capacity, c.MinPerGroup), c.MaxPerGroup)
	return max(capacity, 0)
}

// activeTiers returns the selected tiers that produce at least one group, in
// caller order, with duplicates removed.
func (c *DistributionConfig) activeTiers() []TierKey {
	seen := make(map[TierKey]struct{}, len(c.Tiers))
	tiers := make([]TierKey, 0, len(c.Tiers))
	for _, tier := range c.Tiers {
		if _, ok := seen[tier]; ok {
			continue
		}
		seen[tier] = struct{}{}
		if c.EffectiveGroupCount(tier) == 0 {
			continue
		}
		tiers = append(tiers, tier)
	}
	return tiers
}
