package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloudspend/multicloud-cost-advisor/pkg/models"
	"github.com/cloudspend/multicloud-cost-advisor/pkg/policy"
	"github.com/cloudspend/multicloud-cost-advisor/pkg/pricing"
	"github.com/cloudspend/multicloud-cost-advisor/pkg/source"
)

func testTable() *pricing.Table {
	return pricing.NewTable([]models.PriceEntry{
		{Provider: models.ProviderAWS, ResourceType: models.ResourceCompute, ShapeID: "t3.small", MonthlyCost: 15},
		{Provider: models.ProviderAWS, ResourceType: models.ResourceCompute, ShapeID: "t3.medium", MonthlyCost: 30},
		{Provider: models.ProviderAWS, ResourceType: models.ResourceCompute, ShapeID: "t3.large", MonthlyCost: 60},
	})
}

// hourlySamples produces a two-day hourly series with a constant value.
func hourlySamples(id string, start time.Time, hours int, value float64) []models.ResourceSample {
	samples := make([]models.ResourceSample, hours)
	for i := range samples {
		samples[i] = models.ResourceSample{
			ResourceID:   id,
			Provider:     models.ProviderAWS,
			ResourceType: models.ResourceCompute,
			Timestamp:    start.Add(time.Duration(i) * time.Hour),
			Metric:       models.MetricCPUPct,
			Value:        value,
		}
	}
	return samples
}

func computeInfo(id, shape string) models.ResourceInfo {
	return models.ResourceInfo{
		ID:       id,
		Provider: models.ProviderAWS,
		Type:     models.ResourceCompute,
		Shape:    shape,
	}
}

func TestRunEndToEnd(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	window := models.Window{Start: start, End: start.Add(48 * time.Hour)}

	samples := append(
		hourlySamples("i-idle", start, 48, 10),    // well under 20% -> rightsize_down
		hourlySamples("i-busy", start, 48, 90)..., // over 80% -> rightsize_up
	)
	src := source.NewStaticSource("test",
		[]models.ResourceInfo{
			computeInfo("i-idle", "t3.large"),
			computeInfo("i-busy", "t3.medium"),
		}, samples)

	eng := New(src, testTable(), policy.Default())
	report, err := eng.Run(context.Background(), window)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Partial {
		t.Error("Expected a complete report")
	}
	if len(report.Recommendations) != 2 {
		t.Fatalf("Expected 2 recommendations, got %d", len(report.Recommendations))
	}

	byID := make(map[string]models.Recommendation)
	for _, rec := range report.Recommendations {
		byID[rec.ResourceID] = rec
	}

	if byID["i-idle"].Action != models.ActionRightsizeDown {
		t.Errorf("Expected rightsize_down for i-idle, got %s", byID["i-idle"].Action)
	}
	if byID["i-idle"].EstimatedMonthlySavings != 30 {
		t.Errorf("Expected savings 30 for i-idle, got %.2f", byID["i-idle"].EstimatedMonthlySavings)
	}
	if byID["i-busy"].Action != models.ActionRightsizeUp {
		t.Errorf("Expected rightsize_up for i-busy, got %s", byID["i-busy"].Action)
	}

	// Negative upsize savings are excluded from the total.
	if report.TotalPotentialSavings != 30 {
		t.Errorf("Expected total 30, got %.2f", report.TotalPotentialSavings)
	}

	for _, rec := range report.Recommendations {
		if rec.ID == "" || rec.CreatedAt.IsZero() {
			t.Errorf("Recommendation for %s missing identity", rec.ResourceID)
		}
	}
}

func TestRunPartialFetchDegrades(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	window := models.Window{Start: start, End: start.Add(48 * time.Hour)}

	// i-silent is in the inventory but has no samples.
	src := source.NewStaticSource("test",
		[]models.ResourceInfo{
			computeInfo("i-ok", "t3.large"),
			computeInfo("i-silent", "t3.medium"),
		},
		hourlySamples("i-ok", start, 48, 10))

	eng := New(src, testTable(), policy.Default())
	report, err := eng.Run(context.Background(), window)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !report.Partial {
		t.Error("Expected a partial report")
	}
	if len(report.MissingResources) != 1 || report.MissingResources[0] != "i-silent" {
		t.Errorf("Expected missing [i-silent], got %v", report.MissingResources)
	}
	if len(report.Recommendations) != 2 {
		t.Fatalf("Expected 2 recommendations (one degraded), got %d", len(report.Recommendations))
	}

	var degraded models.Recommendation
	for _, rec := range report.Recommendations {
		if rec.ResourceID == "i-silent" {
			degraded = rec
		}
	}
	if degraded.Action != models.ActionNoAction {
		t.Errorf("Expected degraded no_action, got %s", degraded.Action)
	}
	if degraded.Confidence != models.ConfidenceLow {
		t.Errorf("Expected low confidence, got %s", degraded.Confidence)
	}
	if !strings.Contains(degraded.Rationale, "insufficient data") {
		t.Errorf("Rationale should flag missing data: %q", degraded.Rationale)
	}
}

func TestRunEmptyInventory(t *testing.T) {
	src := source.NewStaticSource("test", nil, nil)
	eng := New(src, testTable(), policy.Default())

	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	report, err := eng.Run(context.Background(), models.Window{Start: start, End: start.Add(time.Hour)})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Recommendations) != 0 {
		t.Errorf("Expected empty report, got %d recommendations", len(report.Recommendations))
	}
}

type listFailSource struct{}

func (listFailSource) Name() string { return "broken" }

func (listFailSource) IsAvailable(ctx context.Context) bool { return false }

func (listFailSource) ListResources(ctx context.Context) ([]models.ResourceInfo, error) {
	return nil, source.ErrSourceUnavailable
}

func (listFailSource) Fetch(ctx context.Context, ids []string, window models.Window) ([]models.ResourceSample, error) {
	return nil, source.ErrSourceUnavailable
}

func TestRunInventoryFailureIsFatal(t *testing.T) {
	eng := New(listFailSource{}, testTable(), policy.Default())

	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	_, err := eng.Run(context.Background(), models.Window{Start: start, End: start.Add(time.Hour)})
	if !errors.Is(err, source.ErrSourceUnavailable) {
		t.Errorf("Expected ErrSourceUnavailable, got %v", err)
	}
}

func TestRunCancelledContext(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	window := models.Window{Start: start, End: start.Add(48 * time.Hour)}

	src := source.NewStaticSource("test",
		[]models.ResourceInfo{computeInfo("i-abc", "t3.large")},
		hourlySamples("i-abc", start, 48, 10))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := New(src, testTable(), policy.Default())
	report, err := eng.Run(ctx, window)
	if err != nil {
		t.Fatalf("Cancelled run must still return a report, got error: %v", err)
	}
	if !report.Partial {
		t.Error("Cancelled run must be flagged partial")
	}
}

func TestRunPrefersPrimaryMetric(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	window := models.Window{Start: start, End: start.Add(48 * time.Hour)}

	// Memory pressure is high but cpu, the primary metric, is idle: the
	// cpu profile drives the decision.
	cpu := hourlySamples("i-abc", start, 48, 10)
	mem := hourlySamples("i-abc", start, 48, 95)
	for i := range mem {
		mem[i].Metric = models.MetricMemoryPct
	}

	src := source.NewStaticSource("test",
		[]models.ResourceInfo{computeInfo("i-abc", "t3.large")},
		append(cpu, mem...))

	eng := New(src, testTable(), policy.Default())
	report, err := eng.Run(context.Background(), window)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Recommendations) != 1 {
		t.Fatalf("Expected 1 recommendation per resource, got %d", len(report.Recommendations))
	}
	if report.Recommendations[0].Action != models.ActionRightsizeDown {
		t.Errorf("Expected the cpu profile to drive the decision, got %s", report.Recommendations[0].Action)
	}
}
