package recommender

import (
	"errors"
	"fmt"

	"github.com/cloudspend/multicloud-cost-advisor/pkg/models"
	"github.com/cloudspend/multicloud-cost-advisor/pkg/policy"
	"github.com/cloudspend/multicloud-cost-advisor/pkg/pricing"
)

// Recommend applies the policy rules to one utilization profile and returns
// a typed recommendation. Rules are evaluated in fixed priority order and
// the first match wins, so the result is deterministic for a given
// (profile, table, policy) triple. ID and CreatedAt are left unset here and
// assigned at the storage boundary, keeping this a pure function.
func Recommend(profile models.UtilizationProfile, info models.ResourceInfo, table *pricing.Table, pol policy.Policy) models.Recommendation {
	rec := models.Recommendation{
		ResourceID:   profile.ResourceID,
		Provider:     profile.Provider,
		ResourceType: profile.ResourceType,
		CurrentShape: info.Shape,
	}

	// Rule 1: too little observation to act on.
	observed := profile.WindowDuration().Hours()
	if observed < pol.MinObservationHours {
		rec.Action = models.ActionNoAction
		rec.Confidence = models.ConfidenceLow
		rec.Rationale = fmt.Sprintf("insufficient observation: %.1fh covered, %.0fh required",
			observed, pol.MinObservationHours)
		return rec
	}

	// Rule 2: storage idle for essentially the whole window.
	if profile.ResourceType == models.ResourceDisk && profile.IdleFraction >= pol.DeleteIdleFraction {
		rec.Action = models.ActionDeleteUnused
		rec.Confidence = models.ConfidenceHigh
		rec.Rationale = fmt.Sprintf("idle %.0f%% of the observation window, appears unused",
			profile.IdleFraction*100)
		return rec
	}

	// Rule 3: sustained low utilization.
	if profile.Mean < pol.IdleCPUPctBelow {
		smaller, err := table.NextSmaller(profile.Provider, profile.ResourceType, info.Shape)
		if err != nil {
			return degradeResize(rec, err)
		}

		rec.Action = models.ActionRightsizeDown
		rec.RecommendedShape = smaller.ShapeID
		rec.Confidence = models.ConfidenceMedium
		if profile.P95 < pol.IdleCPUPctBelow {
			rec.Confidence = models.ConfidenceHigh
		}
		rec.Rationale = fmt.Sprintf("mean %s %.1f%% below %.1f%% threshold (p95 %.1f%%)",
			profile.Metric, profile.Mean, pol.IdleCPUPctBelow, profile.P95)
		return rec
	}

	// Rule 4: sustained high utilization.
	if profile.Mean > pol.UndersizedCPUPctAbove {
		larger, err := table.NextLarger(profile.Provider, profile.ResourceType, info.Shape)
		if err != nil {
			return degradeResize(rec, err)
		}

		rec.Action = models.ActionRightsizeUp
		rec.RecommendedShape = larger.ShapeID
		rec.Confidence = models.ConfidenceHigh
		rec.Rationale = fmt.Sprintf("mean %s %.1f%% above %.1f%% threshold, undersized",
			profile.Metric, profile.Mean, pol.UndersizedCPUPctAbove)
		return rec
	}

	// Rule 5: strong diurnal idle pattern on schedule-eligible compute.
	if profile.ResourceType == models.ResourceCompute &&
		scheduleEligible(info, pol) &&
		profile.OffHoursIdleFraction >= pol.OffHoursIdleFraction {
		rec.Action = models.ActionScheduleOffHours
		rec.Confidence = models.ConfidenceMedium
		rec.Rationale = fmt.Sprintf("idle %.0f%% of off-hours samples, candidate for off-hours shutdown",
			profile.OffHoursIdleFraction*100)
		return rec
	}

	// Steady committed usage: worth covering with a commitment discount.
	if profile.ResourceType == models.ResourceCompute &&
		observed >= pol.CommitmentMinHours &&
		profile.Mean >= pol.CommitmentMinMeanPct {
		rec.Action = models.ActionPurchaseCommitment
		rec.Confidence = models.ConfidenceMedium
		rec.Rationale = fmt.Sprintf("steady %.1f%% mean utilization over %.0fh, eligible for commitment pricing",
			profile.Mean, observed)
		return rec
	}

	rec.Action = models.ActionNoAction
	rec.Confidence = models.ConfidenceMedium
	rec.Rationale = "utilization within configured bounds"
	return rec
}

// degradeResize converts a failed shape selection into no_action instead of
// propagating the error upward.
func degradeResize(rec models.Recommendation, err error) models.Recommendation {
	rec.Action = models.ActionNoAction
	rec.Confidence = models.ConfidenceLow
	if errors.Is(err, pricing.ErrNoSuitableShape) {
		rec.Rationale = fmt.Sprintf("resize indicated but no adjacent shape available: %v", err)
	} else {
		rec.Rationale = fmt.Sprintf("resize indicated but shape lookup failed: %v", err)
	}
	return rec
}

func scheduleEligible(info models.ResourceInfo, pol policy.Policy) bool {
	if pol.ScheduleEligibleTag == "" {
		return false
	}
	_, ok := info.Tags[pol.ScheduleEligibleTag]
	return ok
}
