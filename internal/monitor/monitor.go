// Package monitor runs the real-time polling alert loop: it watches for new
// trades, scores each through internal/scoring and internal/patterns, and
// raises an alert when the combined signal crosses a threshold.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/polymarket-surveillance/insider-detector/clients/notifier"
	"github.com/polymarket-surveillance/insider-detector/config"
	"github.com/polymarket-surveillance/insider-detector/internal/models"
	"github.com/polymarket-surveillance/insider-detector/internal/patterns"
	"github.com/polymarket-surveillance/insider-detector/internal/pubsub"
	"github.com/polymarket-surveillance/insider-detector/internal/scoring"
	"github.com/polymarket-surveillance/insider-detector/internal/store"
)

// AlertsChannel is the Redis pub/sub channel alerts are broadcast on.
const AlertsChannel = "polymarket:alerts"

// pollBatchSize bounds how many new trades one poll tick examines.
const pollBatchSize = 500

// Engine runs the poll-score-threshold-alert loop.
type Engine struct {
	store    *store.Store
	scorer   *scoring.Scorer
	patterns *patterns.Engine
	pubsub   *pubsub.PubSub
	sink     notifier.Sink
	live     *config.LiveConfig
	logger   *zap.Logger

	mu       sync.RWMutex
	lastSeen time.Time
	lastPoll time.Time
	polling  bool
}

// New constructs a monitor Engine. ps and sink may be nil, in which case
// alerts are persisted but neither broadcast nor dispatched.
func New(st *store.Store, sc *scoring.Scorer, pe *patterns.Engine, ps *pubsub.PubSub, sink notifier.Sink, live *config.LiveConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = notifier.NewLogSink(logger)
	}
	return &Engine{
		store:    st,
		scorer:   sc,
		patterns: pe,
		pubsub:   ps,
		sink:     sink,
		live:     live,
		logger:   logger.Named("monitor"),
		lastSeen: time.Now().UTC(),
	}
}

// Status reports the monitor's current runtime state, for the operator
// surface's introspection command.
type Status struct {
	Enabled      bool          `json:"enabled"`
	Polling      bool          `json:"polling"`
	PollInterval time.Duration `json:"poll_interval"`
	LastSeen     time.Time     `json:"last_seen"`
	LastPoll     time.Time     `json:"last_poll"`
}

// GetStatus returns the monitor's current status.
func (e *Engine) GetStatus() Status {
	cfg := e.live.GetDirect().Monitor
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Status{
		Enabled:      cfg.Enabled,
		Polling:      e.polling,
		PollInterval: cfg.PollInterval,
		LastSeen:     e.lastSeen,
		LastPoll:     e.lastPoll,
	}
}

// Run polls on a ticker until ctx is cancelled, re-reading the poll interval
// from LiveConfig on every tick so a runtime config change takes effect on
// the next iteration.
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info("monitor started")
	for {
		interval := e.live.GetDirect().Monitor.PollInterval
		if interval <= 0 {
			interval = 10 * time.Second
		}
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			e.logger.Info("monitor shutting down")
			return
		case <-timer.C:
			if e.live.GetDirect().Monitor.Enabled {
				if _, err := e.Poll(ctx); err != nil {
					e.logger.Warn("poll failed", zap.Error(err))
				}
			}
		}
	}
}

// PollResult summarizes one poll tick.
type PollResult struct {
	TradesExamined int
	AlertsRaised   int
}

// Poll runs one poll tick: list trades newer than last_seen, score and
// pattern-match each, and raise an alert when the dual-threshold rule fires
//. Exposed directly so the operator surface can
// trigger a manual poll.
func (e *Engine) Poll(ctx context.Context) (*PollResult, error) {
	e.mu.Lock()
	e.polling = true
	since := e.lastSeen
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.polling = false
		e.lastPoll = time.Now().UTC()
		e.mu.Unlock()
	}()

	trades, err := e.store.ListRecentTrades(ctx, since, pollBatchSize)
	if err != nil {
		return nil, fmt.Errorf("listing recent trades: %w", err)
	}

	result := &PollResult{TradesExamined: len(trades)}
	var newest time.Time
	cfg := e.live.GetDirect().Monitor

	for _, t := range trades {
		if t.TradeTimestamp.After(newest) {
			newest = t.TradeTimestamp
		}

		market, err := e.store.GetMarketByID(ctx, t.MarketID)
		if err != nil {
			e.logger.Warn("skipping trade with unresolvable market", zap.Int64("trade_id", t.ID), zap.Error(err))
			continue
		}

		score, matched, err := e.scoreWithPatterns(ctx, t, market)
		if err != nil {
			e.logger.Warn("failed to score trade during poll", zap.Int64("trade_id", t.ID), zap.Error(err))
			continue
		}

		if !crossesThreshold(score, cfg) {
			continue
		}
		triggers := triggersFor(score, matched)
		if cfg.PatternAlertOnly && !containsTrigger(triggers, models.AlertTypePatternMatch) {
			continue
		}

		alert := buildAlert(t, market, score, triggers)
		if err := e.raise(ctx, alert); err != nil {
			e.logger.Warn("failed to raise alert", zap.String("alert_id", alert.AlertID), zap.Error(err))
			continue
		}
		result.AlertsRaised++
	}

	if !newest.IsZero() {
		e.mu.Lock()
		e.lastSeen = newest
		e.mu.Unlock()
	}
	return result, nil
}

// scoreWithPatterns runs the two-pass score/match/re-score sequence: an
// initial score with patternScore=0, pattern matching against that score,
// then a final score folding the highest matched pattern's score into
// insider_probability.
func (e *Engine) scoreWithPatterns(ctx context.Context, trade *models.Trade, market *models.Market) (*models.TradeScore, map[string]float64, error) {
	score, err := e.scorer.Score(ctx, trade, market, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("initial scoring: %w", err)
	}

	matched, err := e.patterns.MatchPatterns(ctx, trade, score)
	if err != nil {
		return nil, nil, fmt.Errorf("matching patterns: %w", err)
	}
	if len(matched) == 0 {
		return score, matched, nil
	}

	patternScore := patterns.HighestScore(matched)
	score, err = e.scorer.Score(ctx, trade, market, patternScore)
	if err != nil {
		return nil, nil, fmt.Errorf("re-scoring with pattern score: %w", err)
	}
	score.MatchedPatterns = make(map[string]bool, len(matched))
	for name := range matched {
		score.MatchedPatterns[name] = true
	}
	if _, err := e.store.UpsertTradeScore(ctx, score); err != nil {
		return nil, nil, fmt.Errorf("persisting matched patterns: %w", err)
	}
	return score, matched, nil
}

// triggersFor derives which signals explain an already-gated alert: pattern_match, whale_trade (|z_size| >= 3), timing_suspicious
// (|z_timing| >= 2.5). When none of those specific signals apply, the
// dual-threshold crossing itself is the trigger (anomaly_threshold).
func triggersFor(score *models.TradeScore, matched map[string]float64) []models.AlertType {
	var triggers []models.AlertType
	if len(matched) > 0 {
		triggers = append(triggers, models.AlertTypePatternMatch)
	}
	if score.SizeZScore != nil && abs(*score.SizeZScore) >= 3.0 {
		triggers = append(triggers, models.AlertTypeWhaleTrade)
	}
	if score.TimingZScore != nil && abs(*score.TimingZScore) >= 2.5 {
		triggers = append(triggers, models.AlertTypeTimingSuspicious)
	}
	if len(triggers) == 0 {
		triggers = append(triggers, models.AlertTypeAnomalyThreshold)
	}
	return triggers
}

// crossesThreshold applies the dual-threshold alert rule: anomaly >=
// anomaly_threshold OR probability >= probability_threshold.
func crossesThreshold(score *models.TradeScore, cfg config.MonitorConfig) bool {
	if score.AnomalyScore != nil && *score.AnomalyScore >= cfg.AnomalyThreshold {
		return true
	}
	if score.InsiderProbability != nil && *score.InsiderProbability >= cfg.ProbabilityThreshold {
		return true
	}
	return false
}

func containsTrigger(triggers []models.AlertType, want models.AlertType) bool {
	for _, t := range triggers {
		if t == want {
			return true
		}
	}
	return false
}

// buildAlert assembles the persisted Alert, collapsing multiple triggers
// into "combined" and deriving severity from the same cutoffs as priority.
func buildAlert(trade *models.Trade, market *models.Market, score *models.TradeScore, triggers []models.AlertType) models.Alert {
	alertType := triggers[0]
	if len(triggers) > 1 {
		alertType = models.AlertTypeCombined
	}

	var probability float64
	if score.InsiderProbability != nil {
		probability = *score.InsiderProbability
	}

	tradeID := trade.ID
	marketID := trade.MarketID
	message := fmt.Sprintf("trade %s on %q triggered %s", trade.TransactionHash, marketDisplay(market), joinTriggers(triggers))

	return models.Alert{
		AlertID:       uuid.NewString(),
		Type:          alertType,
		Severity:      severityFromProbability(probability),
		Status:        models.AlertStatusNew,
		TradeID:       &tradeID,
		WalletAddress: trade.WalletAddress,
		MarketID:      &marketID,
		Message:       message,
		Context: map[string]any{
			"anomaly_score":       score.AnomalyScore,
			"insider_probability": score.InsiderProbability,
			"matched_patterns":    score.MatchedPatterns,
			"triggers":            triggers,
		},
		TriggeredAt: time.Now().UTC(),
	}
}

// raise persists the alert, broadcasts it on AlertsChannel, and dispatches
// it to the notification sink.
func (e *Engine) raise(ctx context.Context, alert models.Alert) error {
	if _, err := e.store.InsertAlert(ctx, &alert); err != nil {
		return fmt.Errorf("persisting alert: %w", err)
	}
	if e.pubsub != nil {
		if err := e.pubsub.PublishJSON(ctx, AlertsChannel, alert); err != nil {
			e.logger.Warn("failed to broadcast alert", zap.String("alert_id", alert.AlertID), zap.Error(err))
		}
	}
	e.sink.SendAlert(alert)
	return nil
}

// severityFromProbability buckets probability using the same cutoffs as
// discovery's priority derivation.
func severityFromProbability(p float64) models.Severity {
	switch {
	case p >= 0.9:
		return models.SeverityCritical
	case p >= 0.7:
		return models.SeverityHigh
	case p >= 0.5:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

func joinTriggers(triggers []models.AlertType) string {
	out := ""
	for i, t := range triggers {
		if i > 0 {
			out += ","
		}
		out += string(t)
	}
	return out
}

func marketDisplay(m *models.Market) string {
	if m == nil {
		return ""
	}
	return m.Question
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
