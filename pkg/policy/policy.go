package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cloudspend/multicloud-cost-advisor/pkg/models"
)

// Policy holds the thresholds driving recommendation decisions. All values
// are deliberately configurable: none of them are universal constants, they
// encode how aggressive an organization wants its optimization program to be.
type Policy struct {
	// PrimaryMetric drives the decision rules when a resource has
	// profiles for several metrics.
	PrimaryMetric models.MetricName `yaml:"primary_metric"`

	// IdleThreshold is the raw metric value below which a sample counts
	// as idle, used for idle-fraction computation.
	IdleThreshold float64 `yaml:"idle_threshold"`

	// IdleCPUPctBelow: mean utilization below this triggers rightsize_down.
	IdleCPUPctBelow float64 `yaml:"idle_cpu_pct_below"`

	// OversizedCPUPctBelow is the lower bound for considering an instance
	// oversized when picking the resize confidence.
	OversizedCPUPctBelow float64 `yaml:"oversized_cpu_pct_below"`

	// UndersizedCPUPctAbove: mean utilization above this triggers rightsize_up.
	UndersizedCPUPctAbove float64 `yaml:"undersized_cpu_pct_above"`

	// MinObservationHours is the minimum covered window before any action
	// is recommended.
	MinObservationHours float64 `yaml:"min_observation_hours"`

	// DeleteIdleFraction: disks idle for at least this fraction of the
	// window are flagged delete_unused.
	DeleteIdleFraction float64 `yaml:"delete_idle_fraction"`

	// ScheduleEligibleTag names the resource tag whose presence permits
	// schedule_off_hours recommendations.
	ScheduleEligibleTag string `yaml:"schedule_eligible_tag"`

	// OffHoursIdleFraction: compute resources idle for at least this
	// fraction of off-hours samples qualify for schedule_off_hours.
	OffHoursIdleFraction float64 `yaml:"off_hours_idle_fraction"`

	// OffHoursRatio is the assumed fraction of the month outside business
	// hours, used when estimating schedule_off_hours savings.
	OffHoursRatio float64 `yaml:"off_hours_ratio"`

	// BusinessStartHour/BusinessEndHour bound the business day.
	BusinessStartHour int `yaml:"business_start_hour"`
	BusinessEndHour   int `yaml:"business_end_hour"`

	// Commitment gates for purchase_commitment: sustained mean
	// utilization over a long enough window.
	CommitmentMinMeanPct float64 `yaml:"commitment_min_mean_pct"`
	CommitmentMinHours   float64 `yaml:"commitment_min_hours"`
}

// Default returns the baseline policy. A 12x5 business week leaves
// 108 of 168 hours off, hence the 0.64 off-hours ratio.
func Default() Policy {
	return Policy{
		PrimaryMetric:         models.MetricCPUPct,
		IdleThreshold:         5.0,
		IdleCPUPctBelow:       20.0,
		OversizedCPUPctBelow:  40.0,
		UndersizedCPUPctAbove: 80.0,
		MinObservationHours:   24.0,
		DeleteIdleFraction:    0.95,
		ScheduleEligibleTag:   "schedule-eligible",
		OffHoursIdleFraction:  0.7,
		OffHoursRatio:         0.64,
		BusinessStartHour:     7,
		BusinessEndHour:       19,
		CommitmentMinMeanPct:  60.0,
		CommitmentMinHours:    30 * 24,
	}
}

// Load reads a policy file, layering it over the defaults so partial files
// only override the keys they mention.
func Load(path string) (Policy, error) {
	p := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("failed to read policy file: %w", err)
	}

	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse policy file %s: %w", path, err)
	}

	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("invalid policy in %s: %w", path, err)
	}
	return p, nil
}

// Validate checks threshold sanity.
func (p Policy) Validate() error {
	if p.PrimaryMetric == "" {
		return fmt.Errorf("primary_metric must be set")
	}
	if p.IdleCPUPctBelow < 0 || p.IdleCPUPctBelow > 100 {
		return fmt.Errorf("idle_cpu_pct_below must be within [0,100], got %.1f", p.IdleCPUPctBelow)
	}
	if p.OversizedCPUPctBelow < p.IdleCPUPctBelow || p.OversizedCPUPctBelow > 100 {
		return fmt.Errorf("oversized_cpu_pct_below (%.1f) must lie between idle_cpu_pct_below (%.1f) and 100",
			p.OversizedCPUPctBelow, p.IdleCPUPctBelow)
	}
	if p.UndersizedCPUPctAbove <= p.IdleCPUPctBelow {
		return fmt.Errorf("undersized_cpu_pct_above (%.1f) must exceed idle_cpu_pct_below (%.1f)",
			p.UndersizedCPUPctAbove, p.IdleCPUPctBelow)
	}
	if p.MinObservationHours < 0 {
		return fmt.Errorf("min_observation_hours must be >= 0")
	}
	if p.DeleteIdleFraction <= 0 || p.DeleteIdleFraction > 1 {
		return fmt.Errorf("delete_idle_fraction must be within (0,1], got %.2f", p.DeleteIdleFraction)
	}
	if p.OffHoursRatio < 0 || p.OffHoursRatio > 1 {
		return fmt.Errorf("off_hours_ratio must be within [0,1], got %.2f", p.OffHoursRatio)
	}
	if p.BusinessStartHour < 0 || p.BusinessStartHour > 23 ||
		p.BusinessEndHour < 0 || p.BusinessEndHour > 24 ||
		p.BusinessEndHour <= p.BusinessStartHour {
		return fmt.Errorf("business hours %d..%d are not a valid day span",
			p.BusinessStartHour, p.BusinessEndHour)
	}
	return nil
}
