package seeding

// TierKey identifies a tier (skill class, bracket) independently of the
// order it is shown in. Tiers are processed in the order the caller lists them.
type TierKey string

func (k TierKey) String() string {
	return string(k)
}

// Player is a ranked participant. Strength is only used for ordering.
type Player struct {
	ID          string  `json:"id" yaml:"id"`
	DisplayName string  `json:"display_name" yaml:"display_name"`
	Strength    float64 `json:"strength" yaml:"strength"`
}
