// Package scheduler drives every recurring job the pipeline needs outside
// the real-time monitor's own poll loop: a health-probe cadence, periodic
// trade ingestion (feeding internal/monitor's poll loop), periodic
// baseline recomputation, and a periodic discovery run. internal/monitor
// already self-ticks via its own timer loop, so Scheduler only launches
// that engine as a supervised goroutine alongside the cron-scheduled
// one-shot jobs below.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/polymarket-surveillance/insider-detector/config"
	"github.com/polymarket-surveillance/insider-detector/internal/baseline"
	"github.com/polymarket-surveillance/insider-detector/internal/discovery"
	"github.com/polymarket-surveillance/insider-detector/internal/fetch/centralapi"
	"github.com/polymarket-surveillance/insider-detector/internal/fetch/subgraph"
	"github.com/polymarket-surveillance/insider-detector/internal/healthmonitor"
	"github.com/polymarket-surveillance/insider-detector/internal/ingest"
	"github.com/polymarket-surveillance/insider-detector/internal/models"
	"github.com/polymarket-surveillance/insider-detector/internal/monitor"
)

// Scheduler owns the cron runtime plus the monitor's supervised goroutine.
type Scheduler struct {
	cron   *cron.Cron
	live   *config.LiveConfig
	logger *zap.Logger

	ingestor   *ingest.Ingestor
	baseline   *baseline.Engine
	discovery  *discovery.Engine
	monitor    *monitor.Engine
	health     *healthmonitor.Monitor
	centralapi *centralapi.Client
	subgraph   *subgraph.Client

	entries []cron.EntryID
}

// New constructs a Scheduler. Any engine except live/logger may be nil, in
// which case the job it would have driven is simply never scheduled.
func New(
	live *config.LiveConfig,
	logger *zap.Logger,
	ing *ingest.Ingestor,
	be *baseline.Engine,
	de *discovery.Engine,
	me *monitor.Engine,
	hm *healthmonitor.Monitor,
	capi *centralapi.Client,
	sg *subgraph.Client,
) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:       cron.New(),
		live:       live,
		logger:     logger.Named("scheduler"),
		ingestor:   ing,
		baseline:   be,
		discovery:  de,
		monitor:    me,
		health:     hm,
		centralapi: capi,
		subgraph:   sg,
	}
}

// healthProbeSpec runs every 2 minutes; one job per source, each calling
// healthmonitor.RunProbe against that source's own Prober (centralapi.Client
// and subgraph.Client both implement it). The baseline/discovery intervals
// are read from s.live once, in Start, so a change to them takes effect
// after a restart; each job body re-reads its other parameters from s.live
// on every run.
const healthProbeSpec = "@every 2m"

// Start registers every cron job, starts the cron runtime, and launches the
// monitor's own poll loop as a supervised goroutine. Jobs log and continue
// on error rather than ever aborting the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.health != nil && s.centralapi != nil {
		id, err := s.cron.AddFunc(healthProbeSpec, func() { s.health.RunProbe(ctx, healthmonitor.SourceAPI, s.centralapi) })
		if err != nil {
			return err
		}
		s.entries = append(s.entries, id)
	}

	if s.health != nil && s.subgraph != nil {
		id, err := s.cron.AddFunc(healthProbeSpec, func() { s.health.RunProbe(ctx, healthmonitor.SourceSubgraph, s.subgraph) })
		if err != nil {
			return err
		}
		s.entries = append(s.entries, id)
	}

	if s.ingestor != nil && s.health != nil {
		spec := intervalSpec(s.live.Get().Ingest.PollInterval, time.Minute)
		id, err := s.cron.AddFunc(spec, func() { s.runIngestRecent(ctx) })
		if err != nil {
			return err
		}
		s.entries = append(s.entries, id)
	}

	if s.baseline != nil {
		spec := intervalSpec(s.live.Get().Baseline.RecomputeInterval, 24*time.Hour)
		id, err := s.cron.AddFunc(spec, func() { s.runBaselineRecompute(ctx) })
		if err != nil {
			return err
		}
		s.entries = append(s.entries, id)
	}

	if s.discovery != nil {
		spec := intervalSpec(s.live.Get().Discovery.Interval, time.Hour)
		id, err := s.cron.AddFunc(spec, func() { s.runDiscovery(ctx) })
		if err != nil {
			return err
		}
		s.entries = append(s.entries, id)
	}

	s.cron.Start()

	if s.monitor != nil {
		go s.monitor.Run(ctx)
	}

	return nil
}

// Stop stops the cron runtime. It does not stop the monitor's own loop --
// the caller cancels ctx for that, the same shutdown signal both paths
// share.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
}

// intervalSpec converts a duration into cron's "@every" syntax, falling
// back to fallback when the configured interval is non-positive.
func intervalSpec(d, fallback time.Duration) string {
	if d <= 0 {
		d = fallback
	}
	return "@every " + d.String()
}

// runIngestRecent pulls the next page of trades from whichever source
// healthmonitor currently recommends, keeping the monitor's poll loop fed
// without an operator having to trigger internal/httpapi's ingest endpoint
// by hand.
func (s *Scheduler) runIngestRecent(ctx context.Context) {
	cfg := s.live.Get().Ingest
	source := ingest.SourceCentralTrades
	if s.health.RecommendedSource() == healthmonitor.SourceSubgraph {
		source = ingest.SourceSubgraph
	}
	summary := s.ingestor.IngestRecent(ctx, string(source), cfg.BatchSize, cfg.BatchSize)
	if summary.ErrorCount() > 0 {
		s.logger.Warn("scheduled ingest had errors",
			zap.String("source", string(source)),
			zap.Int("inserted", summary.Inserted),
			zap.Int("errors", summary.ErrorCount()))
		return
	}
	s.logger.Debug("scheduled ingest complete", zap.String("source", string(source)), zap.Int("inserted", summary.Inserted))
}

func (s *Scheduler) runBaselineRecompute(ctx context.Context) {
	s.logger.Info("running scheduled baseline recompute")
	summary := s.baseline.RecomputeAll(ctx, models.AllCategories)
	if summary.ErrorCount() > 0 {
		s.logger.Warn("scheduled baseline recompute had errors",
			zap.Int("updated", summary.Updated),
			zap.Int("errors", summary.ErrorCount()))
		return
	}
	s.logger.Info("scheduled baseline recompute complete", zap.Int("updated", summary.Updated))
}

func (s *Scheduler) runDiscovery(ctx context.Context) {
	cfg := s.live.Get().Discovery
	s.logger.Info("running scheduled discovery batch")
	result, err := s.discovery.Run(ctx, discovery.Params{
		MinAnomalyScore:       cfg.MinAnomalyScore,
		MinInsiderProbability: cfg.MinInsiderProbability,
		Limit:                 cfg.DefaultLimit,
	})
	if err != nil {
		s.logger.Warn("scheduled discovery run failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled discovery run complete",
		zap.String("batch_id", result.BatchID),
		zap.Int("candidates", len(result.Candidates)),
		zap.Int("total_evaluated", result.TotalEvaluated))
}
