package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"saharasprout/aigate/pkg/cacheguard"
	"saharasprout/aigate/pkg/guard"
	"saharasprout/aigate/pkg/telemetry/logging"
)

var runFlags struct {
	logLevel string
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the aigate service",
	Long: `Start the aigate service with the specified configuration.

The service opens the configured store backend, schedules the periodic
cache sweep and serves Prometheus metrics.

Examples:
  # Start with built-in defaults
  aigate run

  # Start with custom config
  aigate run --config /etc/aigate/config.yaml

  # Validate config without starting
  aigate run --dry-run`,
	RunE: runService,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the service")
}

func runService(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runFlags.logLevel != "" {
		cfg.Logging.Level = runFlags.logLevel
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
	})
	if err != nil {
		return err
	}

	if runFlags.dryRun {
		fmt.Println("configuration valid")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	policies, err := cfg.PolicyTable()
	if err != nil {
		return err
	}

	manager, err := guard.New(guard.Config{
		Policies:       policies,
		Store:          st,
		CostThreshold:  cfg.Warnings.CostThreshold,
		UsageThreshold: cfg.Warnings.UsageThreshold,
		Logger:         logger,
		Metrics:        guard.NewMetrics(),
		CacheMetrics:   cacheguard.NewMetrics(),
	})
	if err != nil {
		return err
	}
	defer manager.Close()

	var scheduler *cron.Cron
	if cfg.Sweep.Enabled {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.Sweep.Schedule, func() {
			sweepCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()

			if _, err := manager.Sweep(sweepCtx); err != nil {
				logger.Error("scheduled cache sweep failed", "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to schedule cache sweep: %w", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
		logger.Info("cache sweep scheduled", "schedule", cfg.Sweep.Schedule)
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())

		metricsSrv = &http.Server{
			Addr:    cfg.Metrics.ListenAddress,
			Handler: mux,
		}
		go func() {
			logger.Info("metrics endpoint listening", "address", cfg.Metrics.ListenAddress)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	logger.Info("aigate started",
		"store", cfg.Store.Backend,
		"capabilities", len(cfg.Capabilities))

	<-ctx.Done()
	logger.Info("shutting down")

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown failed", "error", err)
		}
	}
	return nil
}
