// Package scoring computes per-trade anomaly features against learned
// baselines: seven z-scored signals, a combined anomaly score (legacy RMS or
// weighted-sum mode), a trinity boost, and an insider-probability estimate.
package scoring

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/polymarket-surveillance/insider-detector/config"
	"github.com/polymarket-surveillance/insider-detector/internal/baseline"
	"github.com/polymarket-surveillance/insider-detector/internal/errs"
	"github.com/polymarket-surveillance/insider-detector/internal/models"
	"github.com/polymarket-surveillance/insider-detector/internal/store"
)

// Scorer computes and persists TradeScore rows.
type Scorer struct {
	store    *store.Store
	baseline *baseline.Engine
	logger   *zap.Logger
	cfg      config.ScoringConfig
}

// New constructs a Scorer.
func New(st *store.Store, be *baseline.Engine, logger *zap.Logger, cfg config.ScoringConfig) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{store: st, baseline: be, logger: logger.Named("scoring"), cfg: cfg}
}

// Score computes and persists the TradeScore for a trade against its
// resolved market. patternScore is the highest
// matched-pattern score the pattern engine has computed for this trade so
// far (0 if patterns haven't run yet -- the caller re-scores after pattern
// matching to fold it into insider_probability).
func (sc *Scorer) Score(ctx context.Context, trade *models.Trade, market *models.Market, patternScore float64) (*models.TradeScore, error) {
	zSize := sc.zScoreFor(ctx, market.Category, models.MetricSize, trade.Size)
	zUSDCSize := sc.zScoreFor(ctx, market.Category, models.MetricUSDCSize, trade.USDCSize)
	zTiming := sc.nullableZScoreFor(ctx, market.Category, models.MetricTiming, trade.HoursBeforeResolution)
	zWalletAge := sc.nullableZScoreFor(ctx, market.Category, models.MetricWalletAge, trade.WalletAgeDays)
	zWalletActivity := sc.nullableIntZScoreFor(ctx, market.Category, models.MetricWalletActivity, trade.WalletTradeCount)
	zPriceExtremity := sc.zScoreFor(ctx, market.Category, models.MetricPriceExtremity, trade.PriceExtremity)

	walletTrades, err := sc.store.ListTradesByWallet(ctx, trade.WalletAddress)
	if err != nil {
		return nil, fmt.Errorf("listing wallet trades for concentration: %w", err)
	}
	marketTrades := filterByMarket(walletTrades, trade.MarketID)
	concentration := PositionConcentration(marketTrades)
	concentrationZ := ConcentrationZScore(concentration)

	// Funding proximity (feature 7) is left null until a funding signal is
	// wired in -- this is expected, not an error.
	var zFundingProximity *float64

	var anomaly float64
	if sc.cfg.UseWeightedMode {
		anomaly = WeightedAnomalyScore(zSize, zTiming, zWalletAge, &concentrationZ, zWalletActivity, zPriceExtremity, zFundingProximity)
	} else {
		anomaly = LegacyAnomalyScore([]*float64{zSize, zUSDCSize, zTiming, zWalletAge, &concentrationZ, zWalletActivity, zPriceExtremity})
	}

	threshold := sc.cfg.TrinityThreshold
	if threshold <= 0 {
		threshold = models.TrinityZScoreThreshold
	}
	boost := sc.cfg.TrinityBoost
	if boost <= 0 {
		boost = models.TrinityBoost
	}
	anomaly, trinity := ApplyTrinityBoost(anomaly, zSize, zTiming, zWalletAge, threshold, boost)

	insiderProbability := InsiderProbability(anomaly, patternScore, trade.WasCorrect)
	severity := models.SeverityFromScore(anomaly)

	score := &models.TradeScore{
		TradeID:                     trade.ID,
		SizeZScore:                  zSize,
		USDCSizeZScore:              zUSDCSize,
		TimingZScore:                zTiming,
		WalletAgeZScore:             zWalletAge,
		WalletActivityZScore:        zWalletActivity,
		PriceExtremityZScore:        zPriceExtremity,
		PositionConcentrationZScore: &concentrationZ,
		FundingProximityZScore:      zFundingProximity,
		AnomalyScore:                &anomaly,
		InsiderProbability:          &insiderProbability,
		TrinityPattern:              trinity,
		MatchedPatterns:             map[string]bool{},
		Severity:                    severity,
		ScoredAt:                    time.Now().UTC(),
	}

	id, err := sc.store.UpsertTradeScore(ctx, score)
	if err != nil {
		return nil, fmt.Errorf("upserting score for trade %d: %w", trade.ID, err)
	}
	score.ID = id
	return score, nil
}

func (sc *Scorer) zScoreFor(ctx context.Context, category models.Category, metric models.Metric, value float64) *float64 {
	b, ok := sc.baseline.LookupWithFallback(ctx, category, metric)
	if !ok {
		return nil
	}
	return baseline.ZScore(value, b.Normal)
}

func (sc *Scorer) nullableZScoreFor(ctx context.Context, category models.Category, metric models.Metric, value *float64) *float64 {
	if value == nil {
		return nil
	}
	return sc.zScoreFor(ctx, category, metric, *value)
}

func (sc *Scorer) nullableIntZScoreFor(ctx context.Context, category models.Category, metric models.Metric, value *int) *float64 {
	if value == nil {
		return nil
	}
	return sc.zScoreFor(ctx, category, metric, float64(*value))
}

func filterByMarket(trades []*models.Trade, marketID int64) []*models.Trade {
	out := make([]*models.Trade, 0, len(trades))
	for _, t := range trades {
		if t.MarketID == marketID {
			out = append(out, t)
		}
	}
	return out
}

// ScoreAllUnscored scores every resolved trade that doesn't yet have a
// TradeScore row, returning a batch summary.
func (sc *Scorer) ScoreAllUnscored(ctx context.Context, trades []*models.Trade, marketsByID map[int64]*models.Market) errs.Summary {
	var summary errs.Summary
	for _, t := range trades {
		market, ok := marketsByID[t.MarketID]
		if !ok {
			summary.Skipped++
			continue
		}
		if _, err := sc.Score(ctx, t, market, 0); err != nil {
			summary.AddError(err)
			continue
		}
		summary.Updated++
	}
	return summary
}
