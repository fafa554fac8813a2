package models

import "time"

// Report is the final output of an analysis run. Recommendations are sorted
// by estimated monthly savings descending, ties broken by resource ID
// ascending. TotalPotentialSavings sums only the non-negative savings;
// negative entries stay in the list for transparency.
type Report struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`

	Recommendations       []Recommendation `json:"recommendations"`
	TotalPotentialSavings float64          `json:"total_potential_savings"`

	// Partial marks a run that was cancelled or could not fetch samples
	// for every requested resource. MissingResources lists the gaps.
	Partial          bool     `json:"partial,omitempty"`
	MissingResources []string `json:"missing_resources,omitempty"`
}
