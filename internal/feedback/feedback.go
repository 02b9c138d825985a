// Package feedback orchestrates one closed-loop retraining iteration: newly
// confirmed insiders flow back into the baselines and pattern validation
// that produced them, optionally trigger a full re-score, and are measured
// against a fresh discovery run.
package feedback

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/polymarket-surveillance/insider-detector/config"
	"github.com/polymarket-surveillance/insider-detector/internal/baseline"
	"github.com/polymarket-surveillance/insider-detector/internal/discovery"
	"github.com/polymarket-surveillance/insider-detector/internal/errs"
	"github.com/polymarket-surveillance/insider-detector/internal/models"
	"github.com/polymarket-surveillance/insider-detector/internal/patterns"
	"github.com/polymarket-surveillance/insider-detector/internal/scoring"
	"github.com/polymarket-surveillance/insider-detector/internal/store"
)

type Engine struct {
	store     *store.Store
	baseline  *baseline.Engine
	scorer    *scoring.Scorer
	patterns  *patterns.Engine
	discovery *discovery.Engine
	cfg       config.FeedbackConfig
	logger    *zap.Logger
}

func New(st *store.Store, be *baseline.Engine, sc *scoring.Scorer, pe *patterns.Engine, de *discovery.Engine, cfg config.FeedbackConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: st, baseline: be, scorer: sc, patterns: pe, discovery: de, cfg: cfg, logger: logger.Named("feedback")}
}

// Improvement classifies how a feedback iteration moved the system.
type Improvement string

const (
	ImprovementSignificant Improvement = "significant"
	ImprovementModerate    Improvement = "moderate"
	ImprovementSlight      Improvement = "slight"
	ImprovementNone        Improvement = "none"
	ImprovementRegression  Improvement = "regression"
)

// Params configures one feedback iteration.
type Params struct {
	ConfirmedInsiderIDs []int64
	Categories          []models.Category
	Rescore             bool
	Discovery           discovery.Params
}

// Result is the iteration's summary.
type Result struct {
	NewInsiders         int
	BaselineSummary     errs.Summary
	ValidationResults   []patterns.ValidationResult
	RescoreSummary      *errs.Summary
	DiscoveryResult     *discovery.Result
	PreAvgSeparation    *float64
	PostAvgSeparation   *float64
	SeparationDelta     *float64
	PreAvgF1            *float64
	PostAvgF1           *float64
	F1Delta             *float64
	Improvement         Improvement
}

// Run executes one feedback iteration end to end.
func (e *Engine) Run(ctx context.Context, p Params) (*Result, error) {
	preInsiders, err := e.store.ListConfirmedInsidersForTraining(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing pre-iteration training insiders: %w", err)
	}
	preTotalInsiders := len(preInsiders)

	prePatterns, err := e.store.ListActivePatterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing pre-iteration patterns: %w", err)
	}
	preAvgF1 := avgPatternF1(prePatterns, preTotalInsiders)

	preBaselines, err := e.store.ListBaselines(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing pre-iteration baselines: %w", err)
	}
	preAvgSeparation := avgSeparation(preBaselines)

	if err := e.store.MarkUsedForTraining(ctx, p.ConfirmedInsiderIDs); err != nil {
		return nil, fmt.Errorf("marking %d confirmed insiders for training: %w", len(p.ConfirmedInsiderIDs), err)
	}

	baselineSummary := e.baseline.RecomputeAll(ctx, p.Categories)

	validationResults, err := e.patterns.Validate(ctx)
	if err != nil && !errs.Is(err, errs.KindInsufficientData) {
		return nil, fmt.Errorf("validating patterns: %w", err)
	}

	var rescoreSummary *errs.Summary
	if p.Rescore {
		summary, err := e.rescoreAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("rescoring all trades: %w", err)
		}
		rescoreSummary = summary
	}

	discoveryResult, err := e.discovery.Run(ctx, p.Discovery)
	if err != nil {
		return nil, fmt.Errorf("running fresh discovery: %w", err)
	}

	postBaselines, err := e.store.ListBaselines(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing post-iteration baselines: %w", err)
	}
	postAvgSeparation := avgSeparation(postBaselines)
	postAvgF1 := avgValidationF1(validationResults)

	separationDelta := delta(preAvgSeparation, postAvgSeparation)
	f1Delta := delta(preAvgF1, postAvgF1)

	return &Result{
		NewInsiders:       len(p.ConfirmedInsiderIDs),
		BaselineSummary:   baselineSummary,
		ValidationResults: validationResults,
		RescoreSummary:    rescoreSummary,
		DiscoveryResult:   discoveryResult,
		PreAvgSeparation:  preAvgSeparation,
		PostAvgSeparation: postAvgSeparation,
		SeparationDelta:   separationDelta,
		PreAvgF1:          preAvgF1,
		PostAvgF1:         postAvgF1,
		F1Delta:           f1Delta,
		Improvement:       classifyImprovement(separationDelta, f1Delta),
	}, nil
}

// rescoreAll re-scores every trade that already has a score, batched by
// config.FeedbackConfig.RescoreBatchSize and run concurrently via errgroup.
func (e *Engine) rescoreAll(ctx context.Context) (*errs.Summary, error) {
	scores, err := e.store.ListAllScores(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing scores to rescore: %w", err)
	}
	if len(scores) == 0 {
		return &errs.Summary{}, nil
	}

	tradeIDs := make([]int64, len(scores))
	for i, sc := range scores {
		tradeIDs[i] = sc.TradeID
	}
	trades, err := e.store.ListTradesByIDs(ctx, tradeIDs)
	if err != nil {
		return nil, fmt.Errorf("loading trades to rescore: %w", err)
	}

	marketIDSet := make(map[int64]struct{})
	for _, t := range trades {
		marketIDSet[t.MarketID] = struct{}{}
	}
	marketIDs := make([]int64, 0, len(marketIDSet))
	for id := range marketIDSet {
		marketIDs = append(marketIDs, id)
	}
	markets, err := e.store.ListMarketsByIDs(ctx, marketIDs)
	if err != nil {
		return nil, fmt.Errorf("loading markets to rescore: %w", err)
	}
	marketByID := make(map[int64]*models.Market, len(markets))
	for _, m := range markets {
		marketByID[m.ID] = m
	}

	batchSize := e.cfg.RescoreBatchSize
	if batchSize <= 0 {
		batchSize = 500
	}

	var mu sync.Mutex
	summary := &errs.Summary{}
	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(trades); start += batchSize {
		end := start + batchSize
		if end > len(trades) {
			end = len(trades)
		}
		batch := trades[start:end]
		g.Go(func() error {
			for _, t := range batch {
				market, ok := marketByID[t.MarketID]
				if !ok {
					mu.Lock()
					summary.Skipped++
					mu.Unlock()
					continue
				}
				if _, err := e.scorer.Score(gctx, t, market, 0); err != nil {
					mu.Lock()
					summary.AddError(err)
					mu.Unlock()
					continue
				}
				mu.Lock()
				summary.Updated++
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summary, nil
}

func avgSeparation(baselines []*models.Baseline) *float64 {
	var sum float64
	var n int
	for _, b := range baselines {
		if b.SeparationScore == nil {
			continue
		}
		v := *b.SeparationScore
		if v < 0 {
			v = -v
		}
		sum += v
		n++
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

func avgPatternF1(ps []*models.Pattern, totalInsiders int) *float64 {
	var recall *float64
	var sum float64
	var n int
	for _, p := range ps {
		if totalInsiders > 0 {
			v := float64(p.TruePositives) / float64(totalInsiders)
			recall = &v
		}
		if f1 := p.F1(recall); f1 != nil {
			sum += *f1
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

func avgValidationF1(results []patterns.ValidationResult) *float64 {
	var sum float64
	var n int
	for _, r := range results {
		if r.F1 != nil {
			sum += *r.F1
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

func delta(pre, post *float64) *float64 {
	if pre == nil || post == nil {
		return nil
	}
	d := *post - *pre
	return &d
}

// classifyImprovement buckets the better of the two deltas. A strictly
// negative delta on either axis that is defined is a regression regardless
// of the other axis's gain or of whether the other axis is defined.
func classifyImprovement(separationDelta, f1Delta *float64) Improvement {
	if (separationDelta != nil && *separationDelta < 0) || (f1Delta != nil && *f1Delta < 0) {
		return ImprovementRegression
	}
	best := 0.0
	if separationDelta != nil && *separationDelta > best {
		best = *separationDelta
	}
	if f1Delta != nil && *f1Delta > best {
		best = *f1Delta
	}
	switch {
	case best >= 0.5:
		return ImprovementSignificant
	case best >= 0.2:
		return ImprovementModerate
	case best > 0:
		return ImprovementSlight
	default:
		return ImprovementNone
	}
}
