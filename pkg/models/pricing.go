package models

// PriceEntry maps a resource shape to its monthly cost. Static reference
// data: loaded once per run and read-only afterwards.
type PriceEntry struct {
	Provider     Provider     `yaml:"provider" json:"provider"`
	ResourceType ResourceType `yaml:"resource_type" json:"resource_type"`
	ShapeID      string       `yaml:"shape" json:"shape"`

	// Family groups shapes that are valid resize targets for each other
	// (e.g. "t3" for t3.nano..t3.2xlarge). When empty, the family is
	// derived from the shape prefix.
	Family string `yaml:"family,omitempty" json:"family,omitempty"`

	MonthlyCost float64 `yaml:"monthly_cost" json:"monthly_cost"`
}

// CostPoint is one day of observed spend for a provider/service pair.
// Consumed by the anomaly detector.
type CostPoint struct {
	Date     string   `yaml:"date" json:"date"` // YYYY-MM-DD
	Provider Provider `yaml:"provider" json:"provider"`
	Service  string   `yaml:"service,omitempty" json:"service,omitempty"`
	Cost     float64  `yaml:"cost" json:"cost"`
}
