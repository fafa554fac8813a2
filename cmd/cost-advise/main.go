package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/cloudspend/multicloud-cost-advisor/pkg/anomaly"
	"github.com/cloudspend/multicloud-cost-advisor/pkg/config"
	"github.com/cloudspend/multicloud-cost-advisor/pkg/engine"
	"github.com/cloudspend/multicloud-cost-advisor/pkg/models"
	"github.com/cloudspend/multicloud-cost-advisor/pkg/policy"
	"github.com/cloudspend/multicloud-cost-advisor/pkg/pricing"
	"github.com/cloudspend/multicloud-cost-advisor/pkg/reporter"
	"github.com/cloudspend/multicloud-cost-advisor/pkg/source"
	"github.com/cloudspend/multicloud-cost-advisor/pkg/storage"
)

var (
	// Analyze flags
	samplesPath   string
	resourcesPath string
	pricesPath    string
	policyPath    string
	prometheusURL string
	useKubernetes bool
	lookbackDays  int
	outputFormat  string
	reportOutput  string
	saveResults   bool
	dryRun        bool
	verbose       bool

	// History flags
	historyLimit int

	// Anomaly flags
	costSeriesPath   string
	anomalyThreshold float64

	// Daemon flags
	cronSchedule string
	listenAddr   string

	cfg   *config.Config
	store storage.Store
)

func logVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Printf("[DEBUG] "+format+"\n", args...)
	}
}

func main() {
	cfg = config.NewConfig()

	rootCmd := &cobra.Command{
		Use:   "cost-advise",
		Short: "Multi-cloud cost optimization advisor",
		Long:  `Analyze resource utilization across cloud providers and recommend rightsizing, scheduling, and cleanup actions with estimated monthly savings.`,
		Run:   runAnalyze,
	}

	rootCmd.Flags().StringVar(&samplesPath, "samples", cfg.SamplesPath, "YAML file with resources and utilization samples")
	rootCmd.Flags().StringVar(&resourcesPath, "resources", "", "YAML file with the resource inventory (for --prometheus)")
	rootCmd.Flags().StringVar(&pricesPath, "prices", cfg.PriceTablePath, "YAML price table")
	rootCmd.Flags().StringVar(&policyPath, "policy", cfg.PolicyPath, "YAML policy file (defaults used when empty)")
	rootCmd.Flags().StringVar(&prometheusURL, "prometheus", cfg.PrometheusURL, "Prometheus base URL to fetch utilization from")
	rootCmd.Flags().BoolVar(&useKubernetes, "kubernetes", false, "Treat cluster nodes as compute resources via metrics-server")
	rootCmd.Flags().IntVar(&lookbackDays, "lookback", cfg.LookbackDays, "Analysis window in days")
	rootCmd.Flags().StringVarP(&outputFormat, "output", "o", cfg.OutputFormat, "Output format: text, json, csv, markdown")
	rootCmd.Flags().StringVar(&reportOutput, "report-output", "", "Write the report to this file instead of stdout")
	rootCmd.Flags().BoolVar(&saveResults, "save", false, "Save the report to the database")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show recommendations without saving")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	historyCmd := &cobra.Command{
		Use:   "history <resource-id>",
		Short: "View past recommendations for a resource",
		Args:  cobra.ExactArgs(1),
		Run:   runHistory,
	}
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of recommendations to show")

	anomaliesCmd := &cobra.Command{
		Use:   "anomalies",
		Short: "Detect unusual daily spend in a cost series",
		Run:   runAnomalies,
	}
	anomaliesCmd.Flags().StringVar(&costSeriesPath, "input", "", "YAML file with daily cost points")
	anomaliesCmd.Flags().Float64Var(&anomalyThreshold, "threshold", 3.0, "Z-score threshold in standard deviations")
	anomaliesCmd.MarkFlagRequired("input")

	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run scheduled analyses and export prometheus metrics",
		Run:   runDaemon,
	}
	daemonCmd.Flags().StringVar(&samplesPath, "samples", cfg.SamplesPath, "YAML file with resources and utilization samples")
	daemonCmd.Flags().StringVar(&resourcesPath, "resources", "", "YAML file with the resource inventory (for --prometheus)")
	daemonCmd.Flags().StringVar(&pricesPath, "prices", cfg.PriceTablePath, "YAML price table")
	daemonCmd.Flags().StringVar(&policyPath, "policy", cfg.PolicyPath, "YAML policy file")
	daemonCmd.Flags().StringVar(&prometheusURL, "prometheus", cfg.PrometheusURL, "Prometheus base URL")
	daemonCmd.Flags().BoolVar(&useKubernetes, "kubernetes", false, "Treat cluster nodes as compute resources")
	daemonCmd.Flags().IntVar(&lookbackDays, "lookback", cfg.LookbackDays, "Analysis window in days")
	daemonCmd.Flags().StringVar(&cronSchedule, "schedule", "0 */6 * * *", "Cron schedule for analysis runs")
	daemonCmd.Flags().StringVar(&listenAddr, "listen", ":9090", "Metrics listen address")
	daemonCmd.Flags().BoolVar(&saveResults, "save", false, "Save each report to the database")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(anomaliesCmd)
	rootCmd.AddCommand(daemonCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildSource assembles the configured adapters behind one MultiSource so
// fetch fan-out, timeouts, and partial-data handling are uniform.
func buildSource(ctx context.Context) (source.MetricsSource, error) {
	var sources []source.MetricsSource

	if samplesPath != "" {
		s, err := source.LoadStaticSource(samplesPath)
		if err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}

	if prometheusURL != "" {
		inventory, err := loadInventory(resourcesPath)
		if err != nil {
			return nil, err
		}
		s, err := source.NewPrometheusSource(prometheusURL, inventory, nil, 5*time.Minute)
		if err != nil {
			return nil, err
		}
		if !s.IsAvailable(ctx) {
			fmt.Println("[WARN] Prometheus not reachable, continuing without it")
		} else {
			sources = append(sources, s)
		}
	}

	if useKubernetes {
		s, err := source.NewKubernetesSource()
		if err != nil {
			fmt.Printf("[WARN] Kubernetes source unavailable: %v\n", err)
		} else {
			sources = append(sources, s)
		}
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no metrics source configured: set --samples, --prometheus, or --kubernetes")
	}

	logVerbose("Using %d metrics source(s)", len(sources))
	return source.NewMultiSource(sources, cfg.FetchTimeout, cfg.Concurrency), nil
}

// loadInventory reads a standalone resource inventory file. The static
// samples format is reused so one fixture can serve both purposes.
func loadInventory(path string) ([]models.ResourceInfo, error) {
	if path == "" {
		return nil, fmt.Errorf("--resources is required with --prometheus")
	}
	s, err := source.LoadStaticSource(path)
	if err != nil {
		return nil, err
	}
	return s.ListResources(context.Background())
}

func loadPolicy() (policy.Policy, error) {
	if policyPath == "" {
		return policy.Default(), nil
	}
	return policy.Load(policyPath)
}

func initStorage() error {
	var err error
	store, err = storage.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if outputFormat == "text" {
		fmt.Println("[INFO] Multi-Cloud Cost Advisor - starting analysis")
	}

	pol, err := loadPolicy()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading policy: %v\n", err)
		os.Exit(1)
	}

	table, err := pricing.LoadTable(pricesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading price table: %v\n", err)
		os.Exit(1)
	}
	logVerbose("Price table: %d entries", table.Len())

	src, err := buildSource(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if saveResults && !dryRun {
		if err := initStorage(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	window := models.Window{
		Start: time.Now().Add(-time.Duration(lookbackDays) * 24 * time.Hour),
		End:   time.Now(),
	}

	eng := engine.New(src, table, pol, engine.WithConcurrency(cfg.Concurrency))
	report, err := eng.Run(ctx, window)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running analysis: %v\n", err)
		os.Exit(1)
	}

	if saveResults && !dryRun && store != nil {
		if err := store.SaveReport(ctx, &report); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] Failed to save report: %v\n", err)
		} else if outputFormat == "text" {
			fmt.Printf("[INFO] Report saved (ID: %s)\n", report.ID)
		}
	}

	if err := writeReport(report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		os.Exit(1)
	}
}

func writeReport(report models.Report) error {
	out := os.Stdout
	if reportOutput != "" {
		file, err := os.Create(reportOutput)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer file.Close()
		out = file
	}

	switch outputFormat {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	case "csv":
		return reporter.WriteCSV(report, out)
	case "markdown", "md":
		return reporter.WriteMarkdown(report, out)
	case "text":
		printText(report)
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}

func printText(report models.Report) {
	if len(report.Recommendations) == 0 {
		fmt.Println("[INFO] No resources analyzed")
		return
	}

	fmt.Println("\n=== Optimization Recommendations ===")
	fmt.Println()

	for i, rec := range report.Recommendations {
		fmt.Printf("%d. %s [%s/%s]\n", i+1, rec.ResourceID, rec.Provider, rec.ResourceType)
		fmt.Printf("   Action: %s (confidence: %s)\n", rec.Action, rec.Confidence)
		if rec.CurrentShape != "" {
			fmt.Printf("   Current shape: %s\n", rec.CurrentShape)
		}
		if rec.RecommendedShape != "" {
			fmt.Printf("   Recommended shape: %s\n", rec.RecommendedShape)
		}
		fmt.Printf("   Savings: $%.2f/month\n", rec.EstimatedMonthlySavings)
		fmt.Printf("   Rationale: %s\n", rec.Rationale)
		fmt.Println()
	}

	if report.Partial {
		fmt.Printf("[WARN] Partial report: no data for %s\n", strings.Join(report.MissingResources, ", "))
	}
	fmt.Printf("Total potential savings: $%.2f/month\n", report.TotalPotentialSavings)
}

func runHistory(cmd *cobra.Command, args []string) {
	resourceID := args[0]

	if err := initStorage(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	recs, err := store.ListRecommendations(ctx, resourceID, historyLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(recs) == 0 {
		fmt.Printf("No recommendations found for resource: %s\n", resourceID)
		return
	}

	fmt.Printf("Recent recommendations for '%s':\n\n", resourceID)
	for i, rec := range recs {
		fmt.Printf("%d. %s (ID: %s)\n", i+1, rec.Action, rec.ID)
		fmt.Printf("   Savings: $%.2f/mo\n", rec.EstimatedMonthlySavings)
		fmt.Printf("   Confidence: %s\n", rec.Confidence)
		fmt.Printf("   Created: %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Println()
	}
}

func runAnomalies(cmd *cobra.Command, args []string) {
	series, err := anomaly.LoadSeries(costSeriesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	detector := anomaly.NewDetector()
	if anomalyThreshold > 0 {
		detector.Threshold = anomalyThreshold
	}

	anomalies := detector.Detect(series)
	if len(anomalies) == 0 {
		fmt.Printf("[INFO] No anomalies in %d cost points\n", len(series))
		return
	}

	fmt.Printf("Found %d anomalie(s) in %d cost points:\n\n", len(anomalies), len(series))
	for i, a := range anomalies {
		direction := "spike"
		if !a.Spike {
			direction = "drop"
		}
		fmt.Printf("%d. %s %s/%s [%s %s]\n", i+1, a.Point.Date, a.Point.Provider, a.Point.Service,
			a.Severity, direction)
		fmt.Printf("   Cost: $%.2f (expected ~$%.2f, z=%.2f)\n", a.Point.Cost, a.Expected, a.ZScore)
	}
}

func runDaemon(cmd *cobra.Command, args []string) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	pol, err := loadPolicy()
	if err != nil {
		logger.Error("failed to load policy", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	src, err := buildSource(ctx)
	if err != nil {
		logger.Error("failed to build source", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if saveResults {
		if err := initStorage(); err != nil {
			logger.Error("failed to init storage", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer store.Close()
	}

	registry := prometheus.NewRegistry()
	metrics := engine.NewMetrics(registry)
	priceCache := pricing.NewCache(24 * time.Hour)

	runOnce := func() {
		table, err := priceCache.LoadCached(pricesPath)
		if err != nil {
			logger.Error("failed to load price table", slog.String("error", err.Error()))
			return
		}

		eng := engine.New(src, table, pol,
			engine.WithConcurrency(cfg.Concurrency),
			engine.WithLogger(logger),
			engine.WithMetrics(metrics))

		window := models.Window{
			Start: time.Now().Add(-time.Duration(lookbackDays) * 24 * time.Hour),
			End:   time.Now(),
		}

		report, err := eng.Run(ctx, window)
		if err != nil {
			logger.Error("analysis run failed", slog.String("error", err.Error()))
			return
		}

		if saveResults && store != nil {
			if err := store.SaveReport(ctx, &report); err != nil {
				logger.Error("failed to save report", slog.String("error", err.Error()))
			}
		}
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cronSchedule, runOnce); err != nil {
		logger.Error("invalid cron schedule", slog.String("schedule", cronSchedule), slog.String("error", err.Error()))
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	logger.Info("daemon started",
		slog.String("schedule", cronSchedule),
		slog.String("listen", listenAddr))

	// First run immediately rather than waiting for the first tick.
	go runOnce()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	if err := http.ListenAndServe(listenAddr, mux); err != nil {
		logger.Error("metrics server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
