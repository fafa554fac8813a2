package models

import "time"

// UtilizationProfile holds rolling statistics for one resource and one
// metric over an analysis window. Profiles are derived data: a new analysis
// run replaces the old profile, it is never mutated in place.
type UtilizationProfile struct {
	ResourceID   string
	Provider     Provider
	ResourceType ResourceType
	Metric       MetricName

	WindowStart time.Time
	WindowEnd   time.Time

	Mean float64
	P50  float64
	P95  float64

	// IdleFraction is the fraction of samples below the idle threshold.
	IdleFraction float64

	// OffHoursIdleFraction is the idle fraction restricted to samples that
	// fall outside configured business hours. Drives schedule_off_hours.
	OffHoursIdleFraction float64

	SampleCount int
}

// WindowDuration returns the covered observation span.
func (p *UtilizationProfile) WindowDuration() time.Duration {
	return p.WindowEnd.Sub(p.WindowStart)
}
