package reporter

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudspend/multicloud-cost-advisor/pkg/models"
)

func sampleReport() models.Report {
	down := rec("i-idle", 30)
	down.CurrentShape = "t3.large"
	down.RecommendedShape = "t3.medium"
	down.Rationale = "mean cpu_pct 12.0% below 20.0% threshold (p95 18.0%)"

	return BuildPartial([]models.Recommendation{down}, []string{"i-silent"})
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(sampleReport(), &buf))

	r := csv.NewReader(&buf)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)

	assert.Equal(t, "Resource", rows[0][0])
	assert.Equal(t, "i-idle", rows[1][0])
	assert.Equal(t, "30.00", rows[1][6])

	// Summary block at the bottom.
	flat := make([]string, 0, len(rows))
	for _, row := range rows {
		flat = append(flat, strings.Join(row, ","))
	}
	joined := strings.Join(flat, "\n")
	assert.Contains(t, joined, "SUMMARY")
	assert.Contains(t, joined, "Total Potential Savings,$30.00")
	assert.Contains(t, joined, "Partial Report")
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(sampleReport(), &buf))
	out := buf.String()

	assert.Contains(t, out, "# Cost Optimization Report")
	assert.Contains(t, out, "**Partial report**")
	assert.Contains(t, out, "$30.00/month")
	assert.Contains(t, out, "| i-idle | aws | rightsize_down | t3.large | t3.medium | $30.00 | medium |")
	assert.Contains(t, out, "## Rationale")
	assert.Contains(t, out, "below 20.0% threshold")
}

func TestWriteMarkdownEmptyShapePlaceholder(t *testing.T) {
	noAction := rec("i-steady", 0)
	noAction.Action = models.ActionNoAction
	report := Build([]models.Recommendation{noAction})

	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(report, &buf))
	assert.Contains(t, buf.String(), "| - |", "empty recommended shape renders as a dash")
}
