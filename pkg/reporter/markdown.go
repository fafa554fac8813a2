package reporter

import (
	"fmt"
	"io"

	"github.com/cloudspend/multicloud-cost-advisor/pkg/models"
)

// WriteMarkdown renders the report as a Markdown document.
func WriteMarkdown(report models.Report, writer io.Writer) error {
	fmt.Fprintf(writer, "# Cost Optimization Report\n\n")
	fmt.Fprintf(writer, "Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	if report.Partial {
		fmt.Fprintf(writer, "> **Partial report**: no data for %d resource(s): %v\n\n",
			len(report.MissingResources), report.MissingResources)
	}

	fmt.Fprintf(writer, "**Total potential savings: $%.2f/month** across %d recommendation(s)\n\n",
		report.TotalPotentialSavings, len(report.Recommendations))

	fmt.Fprintln(writer, "| Resource | Provider | Action | Current | Recommended | Savings/mo | Confidence |")
	fmt.Fprintln(writer, "|---|---|---|---|---|---:|---|")

	for _, rec := range report.Recommendations {
		recommended := rec.RecommendedShape
		if recommended == "" {
			recommended = "-"
		}
		fmt.Fprintf(writer, "| %s | %s | %s | %s | %s | $%.2f | %s |\n",
			rec.ResourceID,
			rec.Provider,
			rec.Action,
			rec.CurrentShape,
			recommended,
			rec.EstimatedMonthlySavings,
			rec.Confidence,
		)
	}

	fmt.Fprintln(writer)
	fmt.Fprintln(writer, "## Rationale")
	fmt.Fprintln(writer)
	for _, rec := range report.Recommendations {
		fmt.Fprintf(writer, "- **%s**: %s\n", rec.ResourceID, rec.Rationale)
	}

	return nil
}
