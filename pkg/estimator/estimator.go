// Package estimator turns recommendations into monthly dollar deltas using
// the price table.
package estimator

import (
	"errors"
	"fmt"

	"github.com/cloudspend/multicloud-cost-advisor/pkg/models"
	"github.com/cloudspend/multicloud-cost-advisor/pkg/policy"
	"github.com/cloudspend/multicloud-cost-advisor/pkg/pricing"
)

// Estimate fills in EstimatedMonthlySavings on a copy of the
// recommendation. Savings may be negative for rightsize_up: a cost increase
// accepted for performance, reported rather than dropped. A missing price is
// never fatal; the recommendation is retained with zero savings and the
// rationale flags the gap.
func Estimate(rec models.Recommendation, table *pricing.Table, pol policy.Policy) models.Recommendation {
	switch rec.Action {
	case models.ActionRightsizeDown, models.ActionRightsizeUp:
		current, err := table.Lookup(rec.Provider, rec.ResourceType, rec.CurrentShape)
		if err != nil {
			return flagMissingPrice(rec, rec.CurrentShape, err)
		}
		target, err := table.Lookup(rec.Provider, rec.ResourceType, rec.RecommendedShape)
		if err != nil {
			return flagMissingPrice(rec, rec.RecommendedShape, err)
		}
		rec.EstimatedMonthlySavings = current.MonthlyCost - target.MonthlyCost

	case models.ActionDeleteUnused:
		current, err := table.Lookup(rec.Provider, rec.ResourceType, rec.CurrentShape)
		if err != nil {
			return flagMissingPrice(rec, rec.CurrentShape, err)
		}
		rec.EstimatedMonthlySavings = current.MonthlyCost

	case models.ActionScheduleOffHours:
		current, err := table.Lookup(rec.Provider, rec.ResourceType, rec.CurrentShape)
		if err != nil {
			return flagMissingPrice(rec, rec.CurrentShape, err)
		}
		rec.EstimatedMonthlySavings = current.MonthlyCost * pol.OffHoursRatio

	case models.ActionPurchaseCommitment, models.ActionNoAction:
		rec.EstimatedMonthlySavings = 0
	}

	return rec
}

func flagMissingPrice(rec models.Recommendation, shape string, err error) models.Recommendation {
	rec.EstimatedMonthlySavings = 0
	if errors.Is(err, pricing.ErrPriceNotFound) {
		rec.Rationale = fmt.Sprintf("%s; savings unknown, no price for shape %q", rec.Rationale, shape)
	} else {
		rec.Rationale = fmt.Sprintf("%s; savings unknown, price lookup failed: %v", rec.Rationale, err)
	}
	return rec
}
