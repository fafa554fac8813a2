package reporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudspend/multicloud-cost-advisor/pkg/models"
)

func rec(id string, savings float64) models.Recommendation {
	return models.Recommendation{
		ResourceID:              id,
		Provider:                models.ProviderAWS,
		ResourceType:            models.ResourceCompute,
		Action:                  models.ActionRightsizeDown,
		EstimatedMonthlySavings: savings,
		Confidence:              models.ConfidenceMedium,
	}
}

func TestBuildSortsBySavingsDescending(t *testing.T) {
	report := Build([]models.Recommendation{
		rec("i-low", 5),
		rec("i-high", 50),
		rec("i-mid", 20),
	})

	require.Len(t, report.Recommendations, 3)
	assert.Equal(t, "i-high", report.Recommendations[0].ResourceID)
	assert.Equal(t, "i-mid", report.Recommendations[1].ResourceID)
	assert.Equal(t, "i-low", report.Recommendations[2].ResourceID)
}

func TestBuildTiesBrokenByResourceID(t *testing.T) {
	report := Build([]models.Recommendation{
		rec("i-bbb", 10),
		rec("i-aaa", 10),
	})

	assert.Equal(t, "i-aaa", report.Recommendations[0].ResourceID)
	assert.Equal(t, "i-bbb", report.Recommendations[1].ResourceID)
}

func TestBuildTotalSkipsNegativeSavings(t *testing.T) {
	upsize := rec("i-up", -30)
	upsize.Action = models.ActionRightsizeUp

	report := Build([]models.Recommendation{
		rec("i-down", 40),
		upsize,
	})

	assert.Equal(t, 40.0, report.TotalPotentialSavings,
		"negative upsize savings must not shrink the total")
	assert.Len(t, report.Recommendations, 2,
		"the upsize entry itself stays in the list")
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	input := []models.Recommendation{rec("i-b", 1), rec("i-a", 2)}
	Build(input)

	assert.Equal(t, "i-b", input[0].ResourceID, "input order must be preserved")
}

func TestBuildAssignsIdentity(t *testing.T) {
	report := Build(nil)

	assert.NotEmpty(t, report.ID)
	assert.False(t, report.GeneratedAt.IsZero())
	assert.False(t, report.Partial)
}

func TestBuildPartial(t *testing.T) {
	report := BuildPartial([]models.Recommendation{rec("i-ok", 10)}, []string{"i-gone-b", "i-gone-a"})

	assert.True(t, report.Partial)
	assert.Equal(t, []string{"i-gone-a", "i-gone-b"}, report.MissingResources,
		"missing list must come back sorted")
}

func TestBuildPartialWithNothingMissing(t *testing.T) {
	report := BuildPartial([]models.Recommendation{rec("i-ok", 10)}, nil)

	assert.False(t, report.Partial)
	assert.Empty(t, report.MissingResources)
}
