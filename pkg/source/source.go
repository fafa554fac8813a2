package source

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudspend/multicloud-cost-advisor/pkg/models"
)

// MetricsSource normalizes provider-specific utilization series into the
// common sample shape. The analyzer and recommender never branch on
// provider identity; provider differences live entirely behind this
// boundary.
type MetricsSource interface {
	// Fetch returns all samples for the given resource IDs inside the
	// half-open window (start inclusive, end exclusive). The set of IDs
	// must be non-empty. A fetch that reached the provider but came back
	// with samples for only some of the resources returns the partial
	// result alongside a *PartialDataError naming the missing IDs.
	Fetch(ctx context.Context, ids []string, window models.Window) ([]models.ResourceSample, error)

	// ListResources returns the inventory this source can report on.
	ListResources(ctx context.Context) ([]models.ResourceInfo, error)

	IsAvailable(ctx context.Context) bool
	Name() string
}

// ErrSourceUnavailable indicates the provider could not be reached at all.
// Fatal for the affected source, recoverable at the run level.
var ErrSourceUnavailable = errors.New("metrics source unavailable")

// PartialDataError annotates a fetch that returned samples for some but not
// all requested resources. The partial result is still usable.
type PartialDataError struct {
	Source  string
	Missing []string
}

func (e *PartialDataError) Error() string {
	return fmt.Sprintf("%s: no samples for %d resource(s): %s",
		e.Source, len(e.Missing), strings.Join(e.Missing, ", "))
}

// NewPartialDataError builds the annotation with a deterministic missing set.
func NewPartialDataError(source string, missing []string) *PartialDataError {
	sorted := make([]string, len(missing))
	copy(sorted, missing)
	sort.Strings(sorted)
	return &PartialDataError{Source: source, Missing: sorted}
}

// MissingFrom compares the requested IDs against the IDs present in the
// returned samples and reports which ones came back empty.
func MissingFrom(ids []string, samples []models.ResourceSample) []string {
	seen := make(map[string]bool, len(samples))
	for _, s := range samples {
		seen[s.ResourceID] = true
	}

	var missing []string
	for _, id := range ids {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return missing
}
