package source

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"

	"github.com/cloudspend/multicloud-cost-advisor/pkg/models"
)

// DefaultQueries map metric names to range queries. The %s placeholder is
// replaced with the resource ID, which is expected to appear as the
// "instance" label on exported series.
var DefaultQueries = map[models.MetricName]string{
	models.MetricCPUPct:    `100 - (avg(rate(node_cpu_seconds_total{mode="idle",instance="%s"}[5m])) * 100)`,
	models.MetricMemoryPct: `100 * (1 - node_memory_MemAvailable_bytes{instance="%s"} / node_memory_MemTotal_bytes{instance="%s"})`,
}

// PrometheusSource reads utilization series for a known inventory out of a
// Prometheus server. The inventory itself (shapes, regions, tags) comes
// from configuration; Prometheus only supplies the time series.
type PrometheusSource struct {
	client    v1.API
	url       string
	resources []models.ResourceInfo
	queries   map[models.MetricName]string
	step      time.Duration
}

// NewPrometheusSource connects to the given Prometheus URL.
func NewPrometheusSource(url string, resources []models.ResourceInfo, queries map[models.MetricName]string, step time.Duration) (*PrometheusSource, error) {
	client, err := api.NewClient(api.Config{Address: url})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	if queries == nil {
		queries = DefaultQueries
	}
	if step <= 0 {
		step = 5 * time.Minute
	}

	return &PrometheusSource{
		client:    v1.NewAPI(client),
		url:       url,
		resources: resources,
		queries:   queries,
		step:      step,
	}, nil
}

func (p *PrometheusSource) Name() string {
	return "prometheus"
}

func (p *PrometheusSource) IsAvailable(ctx context.Context) bool {
	_, _, err := p.client.Query(ctx, "up", time.Now())
	return err == nil
}

func (p *PrometheusSource) ListResources(ctx context.Context) ([]models.ResourceInfo, error) {
	out := make([]models.ResourceInfo, len(p.resources))
	copy(out, p.resources)
	return out, nil
}

func (p *PrometheusSource) Fetch(ctx context.Context, ids []string, window models.Window) ([]models.ResourceSample, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("prometheus: resource id set must be non-empty")
	}
	if !window.IsValid() {
		return nil, fmt.Errorf("prometheus: invalid window %v..%v", window.Start, window.End)
	}

	infoByID := make(map[string]models.ResourceInfo, len(p.resources))
	for _, info := range p.resources {
		infoByID[info.ID] = info
	}

	rng := v1.Range{Start: window.Start, End: window.End, Step: p.step}

	var out []models.ResourceSample
	for _, id := range ids {
		info, known := infoByID[id]
		if !known {
			continue
		}

		for metric, template := range p.queries {
			query := expandQuery(template, id)
			series, err := p.queryRange(ctx, query, rng)
			if err != nil {
				return nil, fmt.Errorf("%w: query for %s failed: %v", ErrSourceUnavailable, id, err)
			}

			for _, pair := range series {
				ts := pair.Timestamp.Time()
				if !window.Contains(ts) {
					continue
				}
				out = append(out, models.ResourceSample{
					ResourceID:   id,
					Provider:     info.Provider,
					ResourceType: info.Type,
					Timestamp:    ts,
					Metric:       metric,
					Value:        float64(pair.Value),
				})
			}
		}
	}

	if missing := MissingFrom(ids, out); len(missing) > 0 {
		return out, NewPartialDataError(p.Name(), missing)
	}
	return out, nil
}

func (p *PrometheusSource) queryRange(ctx context.Context, query string, rng v1.Range) ([]model.SamplePair, error) {
	result, warnings, err := p.client.QueryRange(ctx, query, rng)
	if err != nil {
		return nil, err
	}
	if len(warnings) > 0 {
		fmt.Printf("[WARN] Prometheus: %v\n", warnings)
	}

	matrix, ok := result.(model.Matrix)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %T for query: %s", result, query)
	}

	var pairs []model.SamplePair
	for _, stream := range matrix {
		pairs = append(pairs, stream.Values...)
	}
	return pairs, nil
}

// expandQuery substitutes the resource ID for every %s in the template.
func expandQuery(template, id string) string {
	count := 0
	for i := 0; i+1 < len(template); i++ {
		if template[i] == '%' && template[i+1] == 's' {
			count++
		}
	}

	args := make([]interface{}, count)
	for i := range args {
		args[i] = id
	}
	return fmt.Sprintf(template, args...)
}
