package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/echotools/groupseed/seeding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/atomic"
	"gopkg.in/yaml.v3"
)

var ErrDuplicateTier = errors.New("duplicate tier key")

var distributionSettings = atomic.NewPointer((*DistributionSettings)(nil))

// DistributionSettingsGet returns the live settings used by requests that do
// not carry their own. The returned value must not be modified.
func DistributionSettingsGet() *DistributionSettings {
	return distributionSettings.Load()
}

func DistributionSettingsSet(settings *DistributionSettings) {
	distributionSettings.Store(settings)
}

var settingsValidate = newSettingsValidator()

func newSettingsValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("strategy", func(fl validator.FieldLevel) bool {
		_, ok := seeding.StrategyFromName(fl.Field().String())
		return ok
	})
	return v
}

// TierSettings describes one tier of a distribution run.
type TierSettings struct {
	Key        string `yaml:"key" json:"key" validate:"required" usage:"Stable tier key, e.g. 'open' or 'u18'."`
	GroupCount *int   `yaml:"group_count,omitempty" json:"group_count,omitempty" validate:"omitempty,gte=0" usage:"Groups to create for this tier. Unset uses default_group_count."`
	Capacity   *int   `yaml:"capacity,omitempty" json:"capacity,omitempty" validate:"omitempty,gte=0" usage:"Player limit per group. Unset uses max_per_group."`
	Skip       bool   `yaml:"skip,omitempty" json:"skip,omitempty" usage:"Create no groups for this tier."`
}

// DistributionSettings is the document form of a distribution run's
// configuration, as produced by an operator or the settings API.
type DistributionSettings struct {
	Tiers             []TierSettings `yaml:"tiers" json:"tiers" validate:"dive" usage:"Tiers in processing order. Earlier tiers take the strongest players."`
	DefaultGroupCount int            `yaml:"default_group_count" json:"default_group_count" validate:"gte=0" usage:"Groups per tier when a tier sets none. Default 1."`
	MinPerGroup       int            `yaml:"min_per_group" json:"min_per_group" validate:"gte=0" usage:"Groups smaller than this are dropped after allocation. Default 0."`
	MaxPerGroup       int            `yaml:"max_per_group" json:"max_per_group" validate:"gte=1,gtefield=MinPerGroup" usage:"Upper bound on every group's capacity. Default 8."`
	Strategy          string         `yaml:"strategy" json:"strategy" validate:"strategy" usage:"One of 'balanced', 'snake_draft', 'top_heavy', 'random'. Default 'balanced'."`
	SweepLimit        int            `yaml:"sweep_limit" json:"sweep_limit" validate:"gte=1" usage:"Maximum snake draft sweeps per tier before the run is flagged. Default 2000."`
}

func NewDistributionSettings() *DistributionSettings {
	s := &DistributionSettings{
		Tiers: []TierSettings{{Key: "open"}},
	}
	s.SetDefaults()
	return s
}

// SetDefaults fills zero values. MinPerGroup and Skip have meaningful zero
// values and are left alone.
func (s *DistributionSettings) SetDefaults() {
	if s.DefaultGroupCount == 0 {
		s.DefaultGroupCount = 1
	}
	if s.MaxPerGroup == 0 {
		s.MaxPerGroup = 8
	}
	if s.Strategy == "" {
		s.Strategy = seeding.StrategyBalanced.String()
	}
	s.Strategy = strings.ToLower(strings.TrimSpace(s.Strategy))
	if s.SweepLimit == 0 {
		s.SweepLimit = seeding.DefaultSweepLimit
	}
	for i := range s.Tiers {
		s.Tiers[i].Key = strings.TrimSpace(s.Tiers[i].Key)
	}
}

func (s *DistributionSettings) Validate() error {
	if s == nil {
		return errors.New("settings are nil")
	}
	if err := settingsValidate.Struct(s); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(s.Tiers))
	for _, tier := range s.Tiers {
		if _, ok := seen[tier.Key]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateTier, tier.Key)
		}
		seen[tier.Key] = struct{}{}
	}
	return nil
}

// ToConfig converts the settings into an engine configuration. The result
// shares no memory with s.
func (s *DistributionSettings) ToConfig() *seeding.DistributionConfig {
	strategy, _ := seeding.StrategyFromName(s.Strategy)
	cfg := &seeding.DistributionConfig{
		Tiers:             make([]seeding.TierKey, 0, len(s.Tiers)),
		DefaultGroupCount: s.DefaultGroupCount,
		MinPerGroup:       s.MinPerGroup,
		MaxPerGroup:       s.MaxPerGroup,
		Strategy:          strategy,
		Rules:             make(map[seeding.TierKey]seeding.TierRule, len(s.Tiers)),
	}
	for _, tier := range s.Tiers {
		key := seeding.TierKey(tier.Key)
		cfg.Tiers = append(cfg.Tiers, key)
		if tier.GroupCount == nil && tier.Capacity == nil && !tier.Skip {
			continue
		}
		cfg.Rules[key] = seeding.TierRule{
			CustomGroupCount: copyInt(tier.GroupCount),
			CustomCapacity:   copyInt(tier.Capacity),
			Skip:             tier.Skip,
		}
	}
	return cfg
}

// Options returns the engine options implied by the settings.
func (s *DistributionSettings) Options() []seeding.Option {
	return []seeding.Option{seeding.WithSweepLimit(s.SweepLimit)}
}

func (s *DistributionSettings) Clone() *DistributionSettings {
	if s == nil {
		return nil
	}
	settingsCopy := *s
	settingsCopy.Tiers = make([]TierSettings, len(s.Tiers))
	for i, tier := range s.Tiers {
		tier.GroupCount = copyInt(tier.GroupCount)
		tier.Capacity = copyInt(tier.Capacity)
		settingsCopy.Tiers[i] = tier
	}
	return &settingsCopy
}

// LoadDistributionSettings reads a settings document from path. Files ending
// in .json are decoded as JSON, anything else as YAML.
func LoadDistributionSettings(path string) (*DistributionSettings, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	settings := &DistributionSettings{}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, settings)
	} else {
		err = yaml.Unmarshal(data, settings)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	settings.SetDefaults()
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return settings, nil
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
