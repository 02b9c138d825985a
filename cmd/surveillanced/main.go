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

	"go.uber.org/zap"

	"github.com/polymarket-surveillance/insider-detector/clients/notifier"
	"github.com/polymarket-surveillance/insider-detector/config"
	"github.com/polymarket-surveillance/insider-detector/internal/baseline"
	"github.com/polymarket-surveillance/insider-detector/internal/discovery"
	"github.com/polymarket-surveillance/insider-detector/internal/feedback"
	"github.com/polymarket-surveillance/insider-detector/internal/fetch/centralapi"
	"github.com/polymarket-surveillance/insider-detector/internal/fetch/subgraph"
	"github.com/polymarket-surveillance/insider-detector/internal/healthmonitor"
	"github.com/polymarket-surveillance/insider-detector/internal/httpapi"
	"github.com/polymarket-surveillance/insider-detector/internal/ingest"
	"github.com/polymarket-surveillance/insider-detector/internal/investigation"
	"github.com/polymarket-surveillance/insider-detector/internal/monitor"
	"github.com/polymarket-surveillance/insider-detector/internal/patterns"
	"github.com/polymarket-surveillance/insider-detector/internal/pubsub"
	"github.com/polymarket-surveillance/insider-detector/internal/scheduler"
	"github.com/polymarket-surveillance/insider-detector/internal/scoring"
	"github.com/polymarket-surveillance/insider-detector/internal/snapshot"
	"github.com/polymarket-surveillance/insider-detector/internal/store"
	"github.com/polymarket-surveillance/insider-detector/internal/tokenmap"
)

// loadTimeout bounds how long startup waits for the snapshot store before
// falling back to env/defaults.
const loadTimeout = 30 * time.Second

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := config.LoadViper(os.Getenv("CONFIG_FILE")); err != nil {
		logger.Warn("failed to load config file overlay, continuing with env/defaults", zap.Error(err))
	}

	envConfig := config.Load()
	logger.Info("starting surveillance daemon", zap.Bool("isProd", envConfig.IsProd))

	liveConfig := config.NewLiveConfig(envConfig)

	snapshotClient := snapshot.New(logger, envConfig.Snapshot)
	settingsManager := config.NewSettingsManager(logger, snapshotClient, envConfig.Snapshot.SettingsGistID, liveConfig)

	if settingsManager.IsEnabled() {
		logger.Info("loading settings from snapshot store", zap.String("gist_id", envConfig.Snapshot.SettingsGistID))
		loadCtx, loadCancel := context.WithTimeout(context.Background(), loadTimeout)
		cfg, err := settingsManager.LoadSettings(loadCtx, envConfig)
		loadCancel()
		if err != nil {
			logger.Warn("failed to load settings snapshot, using env/defaults", zap.Error(err))
		} else if cfg != nil {
			if err := liveConfig.Update(cfg); err != nil {
				logger.Warn("failed to apply snapshot settings", zap.Error(err))
			} else {
				logger.Info("settings loaded from snapshot store")
			}
		}
	} else {
		logger.Info("snapshot store not configured, using env/defaults")
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg := liveConfig.GetDirect()

	st, err := store.New(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect to store", zap.Error(err))
	}
	defer st.Close()

	ps, err := pubsub.New(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to connect to pubsub", zap.Error(err))
	}
	defer ps.Close()

	capiClient := centralapi.New(logger, cfg.CentralAPI)
	subgraphClient := subgraph.New(logger, cfg.Subgraph)
	tokenBuilder := tokenmap.New(st, subgraphClient, logger)
	ingestor := ingest.New(st, capiClient, subgraphClient, tokenBuilder, logger, cfg.Ingest)

	baselineEngine := baseline.New(st, logger)
	scorer := scoring.New(st, baselineEngine, logger, cfg.Scoring)
	patternsEngine := patterns.New(st, logger)
	discoveryEngine := discovery.New(st, logger)
	investigationEngine := investigation.New(st, logger)
	feedbackEngine := feedback.New(st, baselineEngine, scorer, patternsEngine, discoveryEngine, cfg.Feedback, logger)

	alertSink := notifier.NewMultiSink(notifier.NewLogSink(logger))
	monitorEngine := monitor.New(st, scorer, patternsEngine, ps, alertSink, liveConfig, logger)
	healthMonitor := healthmonitor.New(ps, cfg.Redis.FailoverChannel, logger)

	sched := scheduler.New(liveConfig, logger, ingestor, baselineEngine, discoveryEngine, monitorEngine, healthMonitor, capiClient, subgraphClient)
	if err := sched.Start(ctx); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	apiServer := httpapi.New(cfg.OperatorHTTP, logger, st, ingestor, baselineEngine, scorer, discoveryEngine, investigationEngine, feedbackEngine, healthMonitor)

	var httpServer *http.Server
	if apiServer.IsEnabled() {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.OperatorHTTP.Port),
			Handler: apiServer.Handler(),
		}
		go func() {
			logger.Info("operator http api listening", zap.Int("port", cfg.OperatorHTTP.Port))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("operator http api stopped unexpectedly", zap.Error(err))
			}
		}()
	} else {
		logger.Info("operator http api disabled")
	}

	<-ctx.Done()
	logger.Info("shutdown signal received, draining")

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("operator http api shutdown error", zap.Error(err))
		}
		shutdownCancel()
	}

	if settingsManager.IsEnabled() {
		saveCtx, saveCancel := context.WithTimeout(context.Background(), loadTimeout)
		if err := settingsManager.SaveSettings(saveCtx); err != nil {
			logger.Warn("failed to save settings snapshot on shutdown", zap.Error(err))
		}
		saveCancel()
	}

	logger.Info("surveillance daemon stopped")
}
