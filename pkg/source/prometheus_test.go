package source

import (
	"strings"
	"testing"

	"github.com/cloudspend/multicloud-cost-advisor/pkg/models"
)

func TestExpandQuerySinglePlaceholder(t *testing.T) {
	got := expandQuery(`up{instance="%s"}`, "node-1:9100")
	if got != `up{instance="node-1:9100"}` {
		t.Errorf("Unexpected expansion: %s", got)
	}
}

func TestExpandQueryRepeatedPlaceholder(t *testing.T) {
	got := expandQuery(DefaultQueries[models.MetricMemoryPct], "node-1:9100")
	if strings.Count(got, "node-1:9100") != 2 {
		t.Errorf("Expected the id in both positions: %s", got)
	}
	if strings.Contains(got, "%s") {
		t.Errorf("Placeholder left unexpanded: %s", got)
	}
}

func TestExpandQueryNoPlaceholder(t *testing.T) {
	if got := expandQuery("up", "node-1"); got != "up" {
		t.Errorf("Template without placeholders must pass through, got %s", got)
	}
}

func TestDefaultQueriesCoverPrimaryMetrics(t *testing.T) {
	for _, metric := range []models.MetricName{models.MetricCPUPct, models.MetricMemoryPct} {
		if _, ok := DefaultQueries[metric]; !ok {
			t.Errorf("No default query for %s", metric)
		}
	}
}
