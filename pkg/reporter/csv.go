package reporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/cloudspend/multicloud-cost-advisor/pkg/models"
)

// WriteCSV renders the report as CSV.
func WriteCSV(report models.Report, writer io.Writer) error {
	w := csv.NewWriter(writer)
	defer w.Flush()

	header := []string{
		"Resource",
		"Provider",
		"Type",
		"Action",
		"Current Shape",
		"Recommended Shape",
		"Monthly Savings ($)",
		"Confidence",
		"Rationale",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, rec := range report.Recommendations {
		row := []string{
			rec.ResourceID,
			string(rec.Provider),
			string(rec.ResourceType),
			string(rec.Action),
			rec.CurrentShape,
			rec.RecommendedShape,
			fmt.Sprintf("%.2f", rec.EstimatedMonthlySavings),
			string(rec.Confidence),
			rec.Rationale,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Write([]string{})
	w.Write([]string{"SUMMARY"})
	w.Write([]string{"Recommendations", fmt.Sprintf("%d", len(report.Recommendations))})
	w.Write([]string{"Total Potential Savings", fmt.Sprintf("$%.2f", report.TotalPotentialSavings)})
	if report.Partial {
		w.Write([]string{"Partial Report", fmt.Sprintf("%d resource(s) missing", len(report.MissingResources))})
	}

	return nil
}
