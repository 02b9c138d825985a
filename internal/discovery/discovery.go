// Package discovery turns scored, correct, event-based trades into ranked
// InvestigationCandidate rows: threshold + filter selection, exclusion of
// already-known trades, ranking, and DiscoveryBatch bookkeeping.
package discovery

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/polymarket-surveillance/insider-detector/internal/models"
	"github.com/polymarket-surveillance/insider-detector/internal/store"
)

// Engine runs discovery batches.
type Engine struct {
	store  *store.Store
	logger *zap.Logger
}

// New constructs an Engine.
func New(st *store.Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: st, logger: logger.Named("discovery")}
}

// Params parameterizes one discovery run.
type Params struct {
	MinAnomalyScore       float64
	MinInsiderProbability float64
	Categories            []models.Category
	MinProfit             *float64
	Limit                 int
}

// Result summarizes one completed discovery run.
type Result struct {
	BatchID        string
	Candidates     []*models.InvestigationCandidate
	TotalEvaluated int
}

// Run executes one discovery batch end to end: select, exclude, filter, rank,
// materialize, and update the owning DiscoveryBatch.
func (e *Engine) Run(ctx context.Context, p Params) (*Result, error) {
	batchID := uuid.NewString()
	startedAt := time.Now().UTC()

	batch := &models.DiscoveryBatch{
		BatchID:         batchID,
		MinAnomalyScore: p.MinAnomalyScore,
		Categories:      p.Categories,
		ExcludeKnown:    true,
		StartedAt:       startedAt,
	}
	if err := e.store.InsertDiscoveryBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("recording discovery batch %s: %w", batchID, err)
	}

	tradeIDs, err := e.store.SelectDiscoveryTradeIDs(ctx, p.MinAnomalyScore, p.MinInsiderProbability, p.Categories)
	if err != nil {
		return nil, fmt.Errorf("selecting discovery candidates for batch %s: %w", batchID, err)
	}
	totalEvaluated := len(tradeIDs)

	rows, err := e.store.LoadDiscoveryRows(ctx, tradeIDs)
	if err != nil {
		return nil, fmt.Errorf("loading discovery rows for batch %s: %w", batchID, err)
	}

	if p.MinProfit != nil {
		filtered := rows[:0:0]
		for _, r := range rows {
			if r.Trade.ProfitLoss != nil && *r.Trade.ProfitLoss >= *p.MinProfit {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}

	limit := p.Limit
	if limit <= 0 || limit > len(rows) {
		limit = len(rows)
	}
	rows = rows[:limit]

	candidates := make([]*models.InvestigationCandidate, 0, len(rows))
	now := time.Now().UTC()
	probabilities := make([]float64, 0, len(rows))
	for i, r := range rows {
		c, err := materialize(batchID, i+1, r, now)
		if err != nil {
			e.logger.Warn("skipping discovery row, could not materialize candidate",
				zap.Int64("trade_id", r.Trade.ID), zap.Error(err))
			continue
		}
		if _, _, err := e.store.InsertCandidate(ctx, c); err != nil {
			return nil, fmt.Errorf("inserting candidate for trade %d: %w", r.Trade.ID, err)
		}
		candidates = append(candidates, c)
		if r.Score != nil && r.Score.InsiderProbability != nil {
			probabilities = append(probabilities, *r.Score.InsiderProbability)
		}
	}

	completedAt := time.Now().UTC()
	topScore, medianScore := topAndMedian(probabilities)
	if err := e.store.CompleteDiscoveryBatch(ctx, batchID, len(candidates), totalEvaluated, topScore, medianScore, completedAt); err != nil {
		return nil, fmt.Errorf("completing discovery batch %s: %w", batchID, err)
	}

	return &Result{BatchID: batchID, Candidates: candidates, TotalEvaluated: totalEvaluated}, nil
}

// materialize builds an InvestigationCandidate from a discovery row,
// denormalizing trade/market context and copying the score's anomaly
// breakdown.
func materialize(batchID string, rank int, r store.DiscoveryRow, now time.Time) (*models.InvestigationCandidate, error) {
	if r.Score == nil {
		return nil, fmt.Errorf("trade %d has no score", r.Trade.ID)
	}

	var probability float64
	if r.Score.InsiderProbability != nil {
		probability = *r.Score.InsiderProbability
	}
	var anomaly float64
	if r.Score.AnomalyScore != nil {
		anomaly = *r.Score.AnomalyScore
	}

	context := map[string]any{
		"transaction_hash": r.Trade.TransactionHash,
		"size":             r.Trade.Size,
		"usdc_size":        r.Trade.USDCSize,
		"price":            r.Trade.Price,
		"side":              string(r.Trade.Side),
		"z_size":                     r.Score.SizeZScore,
		"z_usdc_size":                r.Score.USDCSizeZScore,
		"z_timing":                   r.Score.TimingZScore,
		"z_wallet_age":               r.Score.WalletAgeZScore,
		"z_wallet_activity":          r.Score.WalletActivityZScore,
		"z_price_extremity":          r.Score.PriceExtremityZScore,
		"z_position_concentration":   r.Score.PositionConcentrationZScore,
		"z_funding_proximity":        r.Score.FundingProximityZScore,
		"trinity_pattern":            r.Score.TrinityPattern,
		"matched_patterns":           r.Score.MatchedPatterns,
		"severity":                   string(r.Score.Severity),
	}
	if r.Market != nil {
		context["question"] = r.Market.Question
		context["category"] = string(r.Market.Category)
		context["condition_id"] = r.Market.ConditionID
	}

	return &models.InvestigationCandidate{
		BatchID:            batchID,
		TradeID:            r.Trade.ID,
		ScoreID:            r.Score.ID,
		MarketID:           r.Trade.MarketID,
		WalletAddress:      r.Trade.WalletAddress,
		DiscoveryRank:      rank,
		AnomalyScore:       anomaly,
		InsiderProbability: r.Score.InsiderProbability,
		Context:            context,
		Status:             models.StatusUndiscovered,
		Priority:           priorityFromProbability(probability),
		DiscoveredAt:       now,
		UpdatedAt:          now,
	}, nil
}

// priorityFromProbability buckets a candidate's insider probability into a
// triage priority.
func priorityFromProbability(p float64) models.Priority {
	switch {
	case p >= 0.9:
		return models.PriorityCritical
	case p >= 0.7:
		return models.PriorityHigh
	case p >= 0.5:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

// topAndMedian returns the max and median of a set of probabilities, or nil
// for both when the set is empty.
func topAndMedian(values []float64) (top, median *float64) {
	if len(values) == 0 {
		return nil, nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	maxV := sorted[len(sorted)-1]
	top = &maxV

	mid := len(sorted) / 2
	var medianV float64
	if len(sorted)%2 == 0 {
		medianV = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		medianV = sorted[mid]
	}
	median = &medianV
	return top, median
}
