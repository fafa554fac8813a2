package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cloudspend/multicloud-cost-advisor/pkg/models"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default policy must validate: %v", err)
	}
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Policy)
	}{
		{"missing primary metric", func(p *Policy) { p.PrimaryMetric = "" }},
		{"idle threshold above 100", func(p *Policy) { p.IdleCPUPctBelow = 150 }},
		{"undersized below idle", func(p *Policy) { p.UndersizedCPUPctAbove = 10 }},
		{"oversized below idle", func(p *Policy) { p.OversizedCPUPctBelow = 10 }},
		{"negative observation hours", func(p *Policy) { p.MinObservationHours = -1 }},
		{"delete fraction zero", func(p *Policy) { p.DeleteIdleFraction = 0 }},
		{"delete fraction above one", func(p *Policy) { p.DeleteIdleFraction = 1.5 }},
		{"off hours ratio above one", func(p *Policy) { p.OffHoursRatio = 2 }},
		{"inverted business hours", func(p *Policy) { p.BusinessStartHour = 19; p.BusinessEndHour = 7 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	data := `idle_cpu_pct_below: 25.0
min_observation_hours: 48
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if p.IdleCPUPctBelow != 25.0 {
		t.Errorf("Expected override 25.0, got %.1f", p.IdleCPUPctBelow)
	}
	if p.MinObservationHours != 48 {
		t.Errorf("Expected override 48, got %.0f", p.MinObservationHours)
	}

	// Untouched keys keep their defaults.
	if p.PrimaryMetric != models.MetricCPUPct {
		t.Errorf("Expected default primary metric, got %s", p.PrimaryMetric)
	}
	if p.UndersizedCPUPctAbove != 80.0 {
		t.Errorf("Expected default 80.0, got %.1f", p.UndersizedCPUPctAbove)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("idle_cpu_pct_below: 150\n"), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected error for out-of-range threshold")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
