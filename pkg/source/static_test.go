package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cloudspend/multicloud-cost-advisor/pkg/models"
)

func fixtureSamples(id string, start time.Time, n int) []models.ResourceSample {
	samples := make([]models.ResourceSample, n)
	for i := range samples {
		samples[i] = models.ResourceSample{
			ResourceID:   id,
			Provider:     models.ProviderAWS,
			ResourceType: models.ResourceCompute,
			Timestamp:    start.Add(time.Duration(i) * time.Hour),
			Metric:       models.MetricCPUPct,
			Value:        10,
		}
	}
	return samples
}

func TestStaticSourceFetch(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	src := NewStaticSource("test", nil, fixtureSamples("i-abc", start, 24))

	window := models.Window{Start: start, End: start.Add(24 * time.Hour)}
	samples, err := src.Fetch(context.Background(), []string{"i-abc"}, window)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(samples) != 24 {
		t.Errorf("Expected 24 samples, got %d", len(samples))
	}
}

func TestStaticSourceWindowHalfOpen(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	src := NewStaticSource("test", nil, fixtureSamples("i-abc", start, 24))

	// End at hour 12: the sample exactly at the end must be excluded.
	window := models.Window{Start: start, End: start.Add(12 * time.Hour)}
	samples, err := src.Fetch(context.Background(), []string{"i-abc"}, window)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(samples) != 12 {
		t.Errorf("Expected 12 samples in half-open window, got %d", len(samples))
	}
	for _, s := range samples {
		if !s.Timestamp.Before(window.End) {
			t.Errorf("Sample at %v violates the exclusive end bound", s.Timestamp)
		}
	}
}

func TestStaticSourceEmptyIDSet(t *testing.T) {
	src := NewStaticSource("test", nil, nil)
	window := models.Window{Start: time.Now().Add(-time.Hour), End: time.Now()}

	if _, err := src.Fetch(context.Background(), nil, window); err == nil {
		t.Error("Expected error for empty id set")
	}
}

func TestStaticSourceInvalidWindow(t *testing.T) {
	src := NewStaticSource("test", nil, nil)
	now := time.Now()

	if _, err := src.Fetch(context.Background(), []string{"i-abc"}, models.Window{Start: now, End: now}); err == nil {
		t.Error("Expected error for empty window")
	}
}

func TestStaticSourcePartialData(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	src := NewStaticSource("test", nil, fixtureSamples("i-present", start, 24))

	window := models.Window{Start: start, End: start.Add(24 * time.Hour)}
	samples, err := src.Fetch(context.Background(), []string{"i-present", "i-absent"}, window)

	var partial *PartialDataError
	if !errors.As(err, &partial) {
		t.Fatalf("Expected PartialDataError, got %v", err)
	}
	if len(partial.Missing) != 1 || partial.Missing[0] != "i-absent" {
		t.Errorf("Expected missing [i-absent], got %v", partial.Missing)
	}
	if len(samples) != 24 {
		t.Errorf("Partial result must still carry the present samples, got %d", len(samples))
	}
}

func TestStaticSourceCancelled(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	src := NewStaticSource("test", nil, fixtureSamples("i-abc", start, 24))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	window := models.Window{Start: start, End: start.Add(24 * time.Hour)}
	if _, err := src.Fetch(ctx, []string{"i-abc"}, window); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestLoadStaticSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.yaml")
	data := `resources:
  - id: i-abc
    provider: aws
    type: compute
    shape: t3.large
samples:
  - resource_id: i-abc
    provider: aws
    resource_type: compute
    timestamp: 2026-03-02T10:00:00Z
    metric: cpu_pct
    value: 12.5
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	src, err := LoadStaticSource(path)
	if err != nil {
		t.Fatalf("LoadStaticSource failed: %v", err)
	}

	infos, err := src.ListResources(context.Background())
	if err != nil {
		t.Fatalf("ListResources failed: %v", err)
	}
	if len(infos) != 1 || infos[0].Shape != "t3.large" {
		t.Errorf("Unexpected inventory: %+v", infos)
	}

	window := models.Window{
		Start: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
	}
	samples, err := src.Fetch(context.Background(), []string{"i-abc"}, window)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(samples) != 1 || samples[0].Value != 12.5 {
		t.Errorf("Unexpected samples: %+v", samples)
	}
}

func TestMissingFrom(t *testing.T) {
	samples := []models.ResourceSample{{ResourceID: "i-a"}}

	missing := MissingFrom([]string{"i-b", "i-a", "i-c"}, samples)
	if len(missing) != 2 || missing[0] != "i-b" || missing[1] != "i-c" {
		t.Errorf("Expected sorted [i-b i-c], got %v", missing)
	}
}
