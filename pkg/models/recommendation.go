package models

import "time"

// Action represents the kind of optimization recommended
type Action string

const (
	ActionRightsizeDown      Action = "rightsize_down"
	ActionRightsizeUp        Action = "rightsize_up"
	ActionScheduleOffHours   Action = "schedule_off_hours"
	ActionDeleteUnused       Action = "delete_unused"
	ActionPurchaseCommitment Action = "purchase_commitment"
	ActionNoAction           Action = "no_action"
)

// Confidence represents how certain the engine is about a recommendation
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Recommendation is an optimization action for a single resource, produced
// from exactly one utilization profile plus price table lookups. Immutable
// once created.
type Recommendation struct {
	ID           string       `json:"id"`
	ResourceID   string       `json:"resource_id"`
	Provider     Provider     `json:"provider"`
	ResourceType ResourceType `json:"resource_type"`

	Action           Action `json:"action"`
	CurrentShape     string `json:"current_shape"`
	RecommendedShape string `json:"recommended_shape,omitempty"`

	// EstimatedMonthlySavings may be negative for rightsize_up: a cost
	// increase accepted for performance. Negative values are reported,
	// never silently dropped.
	EstimatedMonthlySavings float64 `json:"estimated_monthly_savings"`

	Confidence Confidence `json:"confidence"`
	Rationale  string     `json:"rationale"`

	CreatedAt time.Time `json:"created_at"`
}
