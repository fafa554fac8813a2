package reporter

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/cloudspend/multicloud-cost-advisor/pkg/models"
)

// ReportFormat represents the output format
type ReportFormat string

const (
	FormatCSV      ReportFormat = "csv"
	FormatMarkdown ReportFormat = "markdown"
	FormatJSON     ReportFormat = "json"
)

// Build assembles the final report. Recommendations are sorted by estimated
// monthly savings descending, ties broken by resource ID ascending, so
// output is deterministic and testable.
//
// TotalPotentialSavings sums only non-negative savings. Negative entries
// (rightsize_up cost increases) stay in the list for transparency but do
// not shrink the program total.
func Build(recommendations []models.Recommendation) models.Report {
	sorted := make([]models.Recommendation, len(recommendations))
	copy(sorted, recommendations)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].EstimatedMonthlySavings != sorted[j].EstimatedMonthlySavings {
			return sorted[i].EstimatedMonthlySavings > sorted[j].EstimatedMonthlySavings
		}
		return sorted[i].ResourceID < sorted[j].ResourceID
	})

	total := 0.0
	for _, rec := range sorted {
		if rec.EstimatedMonthlySavings > 0 {
			total += rec.EstimatedMonthlySavings
		}
	}

	return models.Report{
		ID:                    uuid.New().String(),
		GeneratedAt:           time.Now().UTC(),
		Recommendations:       sorted,
		TotalPotentialSavings: total,
	}
}

// BuildPartial marks a report whose run could not cover every requested
// resource (timeouts, cancellation, unreachable sources).
func BuildPartial(recommendations []models.Recommendation, missing []string) models.Report {
	report := Build(recommendations)
	if len(missing) > 0 {
		sorted := make([]string, len(missing))
		copy(sorted, missing)
		sort.Strings(sorted)

		report.Partial = true
		report.MissingResources = sorted
	}
	return report
}
