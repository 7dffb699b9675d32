// Command clubsync pulls the tracked squad's match performance data from the
// Impect Analysis Portal and writes the season dataset document.
//
// Usage:
//
//	clubsync sync
//	clubsync sync --output data/matches.json --workers 2
//	clubsync sync --dry-run
//	clubsync validate --input data/matches.json
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/clubgpt/clubsync/external/impect"
	"github.com/clubgpt/clubsync/internal/config"
	"github.com/clubgpt/clubsync/internal/domain/matchdata"
	"github.com/clubgpt/clubsync/internal/infrastructure/repository/file"
	"github.com/clubgpt/clubsync/internal/infrastructure/repository/memory"
	"github.com/clubgpt/clubsync/internal/observability"
	"github.com/clubgpt/clubsync/internal/platform/logging"
	"github.com/clubgpt/clubsync/internal/platform/resilience"
	"github.com/clubgpt/clubsync/internal/usecase"
)

func main() {
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:           "clubsync",
		Short:         "Sync squad match performance data from the Impect Analysis Portal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(syncCmd())
	root.AddCommand(validateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func syncCmd() *cobra.Command {
	var (
		output  string
		workers int
		timeout time.Duration
		dryRun  bool
	)
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch, normalize, and persist the squad's match dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg config.Config, logger *logging.Logger) error {
				if output != "" {
					cfg.OutputPath = output
				}
				if workers > 0 {
					cfg.SyncWorkers = workers
				}
				if timeout > 0 {
					cfg.SyncTimeout = timeout
				}

				ctx, cancel := context.WithTimeout(ctx, cfg.SyncTimeout)
				defer cancel()

				var repo matchdata.Repository
				if dryRun {
					logger.Info("dry run, dataset will not be written")
					repo = memory.NewDatasetRepository()
				} else {
					repo = file.NewDatasetRepository(cfg.OutputPath, logger)
				}

				svc := usecase.NewSyncService(buildImpectClient(cfg, logger), repo, usecase.SyncConfig{
					Username: cfg.ImpectUsername,
					Password: cfg.ImpectPassword,
					Workers:  cfg.SyncWorkers,
				}, logger)

				start := time.Now()
				report, err := svc.Run(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "sync failed", "error", err, "stage", report.Stage)
					return err
				}

				logger.InfoContext(ctx, "sync finished",
					"duration", time.Since(start).Round(time.Millisecond),
					"summary", report.Summary(),
				)
				fmt.Println(report.Summary())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&output, "output", "", "Dataset path (default SYNC_OUTPUT_PATH)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent match fetchers (default SYNC_WORKERS)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Overall run deadline (default SYNC_TIMEOUT)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run the full pipeline without writing the dataset file")
	return cmd
}

func validateCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Re-check structural and summary invariants of a dataset file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg config.Config, logger *logging.Logger) error {
				path := input
				if path == "" {
					path = cfg.OutputPath
				}

				ds, err := file.NewDatasetRepository(path, logger).Load(ctx)
				if err != nil {
					return fmt.Errorf("load dataset: %w", err)
				}
				if err := usecase.VerifyDataset(ds); err != nil {
					return fmt.Errorf("dataset %s: %w", path, err)
				}

				logger.InfoContext(ctx, "dataset valid",
					"path", path,
					"matches", len(ds.Matches),
					"last_sync", ds.LastSync,
				)
				fmt.Printf("%s: %d matches, ok\n", path, len(ds.Matches))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "Dataset path to validate (default SYNC_OUTPUT_PATH)")
	return cmd
}

func buildImpectClient(cfg config.Config, logger *logging.Logger) *impect.Client {
	httpClient := &http.Client{Timeout: cfg.ImpectTimeout}
	if cfg.UptraceEnabled {
		httpClient.Transport = otelhttp.NewTransport(http.DefaultTransport)
	}

	return impect.NewClient(impect.ClientConfig{
		HTTPClient:         httpClient,
		BaseURL:            cfg.ImpectBaseURL,
		TokenURL:           cfg.ImpectTokenURL,
		ClientID:           cfg.ImpectClientID,
		Timeout:            cfg.ImpectTimeout,
		MaxRetries:         cfg.ImpectMaxRetries,
		MinRequestInterval: cfg.ImpectMinRequestInterval,
		Logger:             logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.ImpectCircuitEnabled,
			FailureThreshold: cfg.ImpectCircuitFailureCount,
			OpenTimeout:      cfg.ImpectCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.ImpectCircuitHalfOpenMaxReq,
		},
	})
}

// run handles config loading, logging, observability setup, and signal
// cancellation shared by every subcommand.
func run(fn func(ctx context.Context, cfg config.Config, logger *logging.Logger) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return fmt.Errorf("init uptrace: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("uptrace shutdown failed", "error", err)
		}
	}()

	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return fmt.Errorf("init pyroscope: %w", err)
	}
	defer func() {
		if err := stopProfiler(); err != nil {
			logger.Warn("pyroscope stop failed", "error", err)
		}
	}()

	return fn(ctx, cfg, logger)
}
