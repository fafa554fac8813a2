// Package anomaly flags unusual daily spend in a cost series using the
// z-score method: points more than Threshold standard deviations from the
// series mean are reported as spikes or drops.
package anomaly

import (
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cloudspend/multicloud-cost-advisor/pkg/models"
)

// Severity grades how far outside the expected band a point landed.
type Severity string

const (
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Anomaly is one flagged cost point.
type Anomaly struct {
	Point     models.CostPoint
	ZScore    float64
	Expected  float64 // series mean
	Deviation float64 // dollars above/below the mean
	Severity  Severity
	Spike     bool // false means an unexpected drop
}

// Detector holds the detection parameters.
type Detector struct {
	// Threshold in standard deviations; 3.0 covers 99.7% of a normal
	// distribution.
	Threshold float64

	// MinSamples is the minimum series length before detection runs.
	MinSamples int
}

// NewDetector returns a detector with the standard 3-sigma threshold.
func NewDetector() *Detector {
	return &Detector{Threshold: 3.0, MinSamples: 10}
}

// Detect scans the series grouped by provider/service and returns all
// anomalies, ordered by absolute z-score descending.
func (d *Detector) Detect(series []models.CostPoint) []Anomaly {
	groups := make(map[string][]models.CostPoint)
	for _, p := range series {
		key := string(p.Provider) + "/" + p.Service
		groups[key] = append(groups[key], p)
	}

	var out []Anomaly
	for _, group := range groups {
		out = append(out, d.detectGroup(group)...)
	}

	sort.Slice(out, func(i, j int) bool {
		zi, zj := math.Abs(out[i].ZScore), math.Abs(out[j].ZScore)
		if zi != zj {
			return zi > zj
		}
		return out[i].Point.Date < out[j].Point.Date
	})
	return out
}

func (d *Detector) detectGroup(group []models.CostPoint) []Anomaly {
	if len(group) < d.MinSamples {
		return nil
	}

	values := make([]float64, len(group))
	for i, p := range group {
		values[i] = p.Cost
	}

	mean := meanOf(values)
	stdDev := stdDevOf(values, mean)
	if stdDev == 0 {
		return nil
	}

	var out []Anomaly
	for i, v := range values {
		z := (v - mean) / stdDev
		if math.Abs(z) <= d.Threshold {
			continue
		}

		out = append(out, Anomaly{
			Point:     group[i],
			ZScore:    z,
			Expected:  mean,
			Deviation: v - mean,
			Severity:  severityOf(z, d.Threshold),
			Spike:     v > mean,
		})
	}
	return out
}

// LoadSeries reads a yaml cost series file.
func LoadSeries(path string) ([]models.CostPoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cost series: %w", err)
	}

	var f struct {
		Costs []models.CostPoint `yaml:"costs"`
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse cost series %s: %w", path, err)
	}
	return f.Costs, nil
}

func severityOf(z, threshold float64) Severity {
	abs := math.Abs(z)
	switch {
	case abs > threshold*2:
		return SeverityCritical
	case abs > threshold*1.5:
		return SeverityHigh
	default:
		return SeverityModerate
	}
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDevOf(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sumSquares float64
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return math.Sqrt(sumSquares / float64(len(values)-1))
}
