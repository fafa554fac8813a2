// Package engine runs the full analysis pipeline: fetch samples, build
// utilization profiles, apply policy rules, estimate savings, and assemble
// the report. Every per-resource failure is caught at the resource boundary
// and converted into a degraded recommendation; a run always produces a
// report.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cloudspend/multicloud-cost-advisor/pkg/analyzer"
	"github.com/cloudspend/multicloud-cost-advisor/pkg/estimator"
	"github.com/cloudspend/multicloud-cost-advisor/pkg/models"
	"github.com/cloudspend/multicloud-cost-advisor/pkg/policy"
	"github.com/cloudspend/multicloud-cost-advisor/pkg/pricing"
	"github.com/cloudspend/multicloud-cost-advisor/pkg/recommender"
	"github.com/cloudspend/multicloud-cost-advisor/pkg/reporter"
	"github.com/cloudspend/multicloud-cost-advisor/pkg/source"
)

// Engine wires a metrics source, price table, and policy into one pipeline.
type Engine struct {
	source      source.MetricsSource
	table       *pricing.Table
	policy      policy.Policy
	concurrency int
	logger      *slog.Logger
	metrics     *Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithConcurrency bounds the per-resource worker pool.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics attaches prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New builds an engine.
func New(src source.MetricsSource, table *pricing.Table, pol policy.Policy, opts ...Option) *Engine {
	e := &Engine{
		source:      src,
		table:       table,
		policy:      pol,
		concurrency: 8,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes one analysis over the window and returns the report. The
// returned error is non-nil only when the inventory itself is unreachable;
// per-resource problems degrade to no_action recommendations instead.
// Cancelling the context stops new work and returns whatever is complete,
// tagged as a partial report.
func (e *Engine) Run(ctx context.Context, window models.Window) (models.Report, error) {
	started := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.RunsTotal.Inc()
			e.metrics.RunDuration.Observe(time.Since(started).Seconds())
		}
	}()

	resources, err := e.source.ListResources(ctx)
	if err != nil {
		return reporter.BuildPartial(nil, nil), err
	}
	if len(resources) == 0 {
		e.logger.Info("no resources to analyze")
		return reporter.Build(nil), nil
	}

	infoByID := make(map[string]models.ResourceInfo, len(resources))
	ids := make([]string, 0, len(resources))
	for _, info := range resources {
		infoByID[info.ID] = info
		ids = append(ids, info.ID)
	}

	e.logger.Info("fetching samples",
		slog.Int("resources", len(ids)),
		slog.Time("window_start", window.Start),
		slog.Time("window_end", window.End))

	samples, fetchErr := e.source.Fetch(ctx, ids, window)
	var missing []string
	if fetchErr != nil {
		var partial *source.PartialDataError
		switch {
		case errors.As(fetchErr, &partial):
			missing = partial.Missing
			e.logger.Warn("partial fetch", slog.Int("missing", len(missing)))
		default:
			// Nothing came back at all; every resource degrades.
			e.logger.Warn("fetch failed", slog.String("error", fetchErr.Error()))
		}
	}

	profiles, failed := analyzer.Analyze(ids, samples, analyzer.Options{
		IdleThreshold:     e.policy.IdleThreshold,
		BusinessStartHour: e.policy.BusinessStartHour,
		BusinessEndHour:   e.policy.BusinessEndHour,
	})

	// One driving profile per resource, chosen by the policy's primary
	// metric. Resources that only reported other metrics fall back to
	// whichever profile sorts first, so they are still covered.
	driving := make(map[string]models.UtilizationProfile)
	for _, p := range profiles {
		current, ok := driving[p.ResourceID]
		if !ok || (current.Metric != e.policy.PrimaryMetric && p.Metric == e.policy.PrimaryMetric) {
			driving[p.ResourceID] = p
		}
	}

	recs := make([]models.Recommendation, 0, len(ids))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	cancelled := false
	for id, profile := range driving {
		id, profile := id, profile
		g.Go(func() error {
			if gctx.Err() != nil {
				mu.Lock()
				cancelled = true
				missing = append(missing, id)
				mu.Unlock()
				return nil
			}

			rec := recommender.Recommend(profile, infoByID[id], e.table, e.policy)
			rec = estimator.Estimate(rec, e.table, e.policy)
			rec.ID = uuid.New().String()
			rec.CreatedAt = time.Now().UTC()

			mu.Lock()
			recs = append(recs, rec)
			mu.Unlock()

			if e.metrics != nil {
				e.metrics.ResourcesAnalyzed.Inc()
			}
			return nil
		})
	}
	g.Wait()

	// Resources without any usable samples still appear in the report,
	// flagged rather than omitted.
	for id, ferr := range failed {
		recs = append(recs, e.degraded(infoByID[id], ferr))
	}

	report := reporter.BuildPartial(recs, missing)
	if cancelled || ctx.Err() != nil {
		report.Partial = true
	}

	if e.metrics != nil {
		e.metrics.PotentialSavings.Set(report.TotalPotentialSavings)
	}

	e.logger.Info("run complete",
		slog.Int("recommendations", len(report.Recommendations)),
		slog.Float64("total_savings", report.TotalPotentialSavings),
		slog.Bool("partial", report.Partial),
		slog.Duration("elapsed", time.Since(started)))

	return report, nil
}

func (e *Engine) degraded(info models.ResourceInfo, cause error) models.Recommendation {
	if e.metrics != nil {
		e.metrics.ResourcesDegraded.Inc()
	}

	rationale := "no samples available"
	if errors.Is(cause, analyzer.ErrInsufficientData) {
		rationale = "insufficient data: no samples in the analysis window"
	} else if cause != nil {
		rationale = "no samples available: " + cause.Error()
	}

	return models.Recommendation{
		ID:           uuid.New().String(),
		ResourceID:   info.ID,
		Provider:     info.Provider,
		ResourceType: info.Type,
		Action:       models.ActionNoAction,
		CurrentShape: info.Shape,
		Confidence:   models.ConfidenceLow,
		Rationale:    rationale,
		CreatedAt:    time.Now().UTC(),
	}
}
