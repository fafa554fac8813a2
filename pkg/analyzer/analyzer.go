package analyzer

import (
	"errors"
	"sort"
	"time"

	"github.com/cloudspend/multicloud-cost-advisor/pkg/models"
)

// ErrInsufficientData marks a resource that had no samples in the window.
// Partial failure: other resources still produce profiles.
var ErrInsufficientData = errors.New("insufficient data")

// Options control profile computation.
type Options struct {
	// IdleThreshold is the metric value below which a sample counts as
	// idle (e.g. 5.0 for 5% CPU).
	IdleThreshold float64

	// BusinessStartHour/BusinessEndHour bound the business day (local
	// time of the sample timestamps). Samples outside these hours, and
	// all weekend samples, count as off-hours.
	BusinessStartHour int
	BusinessEndHour   int
}

// DefaultOptions uses a 5% idle threshold and a 7:00-19:00 business day.
func DefaultOptions() Options {
	return Options{
		IdleThreshold:     5.0,
		BusinessStartHour: 7,
		BusinessEndHour:   19,
	}
}

type groupKey struct {
	resourceID string
	metric     models.MetricName
}

// Analyze computes one utilization profile per (resource, metric) pair
// present in samples. Requested resources with no samples at all are
// reported in the error map with ErrInsufficientData instead of aborting
// the batch. Results are ordering-independent: samples are sorted by
// timestamp before statistics are taken, and profiles come back sorted by
// resource ID then metric name.
func Analyze(requested []string, samples []models.ResourceSample, opts Options) ([]models.UtilizationProfile, map[string]error) {
	groups := make(map[groupKey][]models.ResourceSample)
	for _, s := range samples {
		key := groupKey{resourceID: s.ResourceID, metric: s.Metric}
		groups[key] = append(groups[key], s)
	}

	seen := make(map[string]bool)
	var profiles []models.UtilizationProfile

	for key, group := range groups {
		seen[key.resourceID] = true
		profiles = append(profiles, buildProfile(key, group, opts))
	}

	failed := make(map[string]error)
	for _, id := range requested {
		if !seen[id] {
			failed[id] = ErrInsufficientData
		}
	}

	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].ResourceID != profiles[j].ResourceID {
			return profiles[i].ResourceID < profiles[j].ResourceID
		}
		return profiles[i].Metric < profiles[j].Metric
	})

	return profiles, failed
}

func buildProfile(key groupKey, group []models.ResourceSample, opts Options) models.UtilizationProfile {
	sort.Slice(group, func(i, j int) bool {
		return group[i].Timestamp.Before(group[j].Timestamp)
	})

	values := make([]float64, len(group))
	idle := 0
	offHours := 0
	offHoursIdle := 0

	for i, s := range group {
		values[i] = s.Value
		if s.Value < opts.IdleThreshold {
			idle++
		}
		if isOffHours(s.Timestamp, opts) {
			offHours++
			if s.Value < opts.IdleThreshold {
				offHoursIdle++
			}
		}
	}

	profile := models.UtilizationProfile{
		ResourceID:   key.resourceID,
		Provider:     group[0].Provider,
		ResourceType: group[0].ResourceType,
		Metric:       key.metric,
		WindowStart:  group[0].Timestamp,
		WindowEnd:    group[len(group)-1].Timestamp,
		Mean:         Mean(values),
		P50:          Percentile(values, 50),
		P95:          Percentile(values, 95),
		IdleFraction: float64(idle) / float64(len(group)),
		SampleCount:  len(group),
	}

	if offHours > 0 {
		profile.OffHoursIdleFraction = float64(offHoursIdle) / float64(offHours)
	}

	return profile
}

// isOffHours reports whether the timestamp falls outside business hours.
func isOffHours(t time.Time, opts Options) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	h := t.Hour()
	return h < opts.BusinessStartHour || h >= opts.BusinessEndHour
}
