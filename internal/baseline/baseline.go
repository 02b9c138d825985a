package baseline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/polymarket-surveillance/insider-detector/internal/errs"
	"github.com/polymarket-surveillance/insider-detector/internal/models"
	"github.com/polymarket-surveillance/insider-detector/internal/store"
)

// Engine computes and persists baselines. A single in-flight recompute per
// (category, metric) key is enforced via singleflight rather than a
// distributed lock -- any implementation that keeps writes single-writer
// per key is fine.
type Engine struct {
	store  *store.Store
	logger *zap.Logger
	group  singleflight.Group
}

// New constructs an Engine.
func New(st *store.Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: st, logger: logger.Named("baseline")}
}

// Recompute runs the full procedure for one (category, metric) key: pull
// non-null values from resolved trades, the parallel insider-restricted
// sample, compute distributions + separation score, and upsert. Returns errs.ErrInsufficientData (non-fatal) when the normal
// sample has fewer than models.MinSamplesForBaseline values -- the caller
// treats this as a skip, not a failure.
func (e *Engine) Recompute(ctx context.Context, category models.Category, metric models.Metric) (*models.Baseline, error) {
	key := fmt.Sprintf("%s:%s", category, metric)
	v, err, _ := e.group.Do(key, func() (any, error) {
		return e.recomputeLocked(ctx, category, metric)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Baseline), nil
}

func (e *Engine) recomputeLocked(ctx context.Context, category models.Category, metric models.Metric) (*models.Baseline, error) {
	trades, err := e.store.ListResolvedTradesByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("listing resolved trades for %s/%s: %w", category, metric, err)
	}
	normalValues := metricValues(trades, metric)
	if len(normalValues) < models.MinSamplesForBaseline {
		return nil, errs.NewInsufficientData(fmt.Sprintf(
			"only %d samples for (%s, %s), need %d", len(normalValues), category, metric, models.MinSamplesForBaseline))
	}
	normal := computeDistribution(normalValues)

	b := &models.Baseline{
		Category:     category,
		Metric:       metric,
		Normal:       normal,
		CalculatedAt: time.Now().UTC(),
	}

	// The insider track is only meaningful on the (all, metric) row --
	// it's stored in that row's dedicated insider columns.
	if category == models.CategoryAll {
		insiderTrades, err := e.store.ListConfirmedInsiderTrades(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing confirmed insider trades for %s: %w", metric, err)
		}
		insiderValues := metricValues(insiderTrades, metric)
		if len(insiderValues) > 0 {
			b.Insider = computeDistribution(insiderValues)
			b.SeparationScore = cohensD(normal, b.Insider)
		}
	} else if existing, err := e.store.GetBaseline(ctx, models.CategoryAll, metric); err == nil {
		// Carry the existing all-category insider track forward so a
		// per-category recompute doesn't blank out separation scoring.
		b.Insider = existing.Insider
		b.SeparationScore = existing.SeparationScore
	}

	if _, err := e.store.UpsertBaseline(ctx, b); err != nil {
		return nil, fmt.Errorf("upserting baseline %s/%s: %w", category, metric, err)
	}
	return b, nil
}

// RecomputeAll runs Recompute for every (category, metric) pair, skipping
// (not failing on) insufficient-data results, and returns a batch summary.
func (e *Engine) RecomputeAll(ctx context.Context, categories []models.Category) errs.Summary {
	var summary errs.Summary
	for _, category := range categories {
		for _, metric := range models.AllMetrics {
			_, err := e.Recompute(ctx, category, metric)
			switch {
			case err == nil:
				summary.Updated++
			case errs.Is(err, errs.KindInsufficientData):
				summary.Skipped++
			default:
				summary.AddError(err)
			}
		}
	}
	return summary
}

// LookupWithFallback resolves a baseline for (category, metric), falling
// back to the "all" pseudo-category when the specific one is missing.
func (e *Engine) LookupWithFallback(ctx context.Context, category models.Category, metric models.Metric) (*models.Baseline, bool) {
	if b, err := e.store.GetBaseline(ctx, category, metric); err == nil {
		return b, true
	}
	if category == models.CategoryAll {
		return nil, false
	}
	b, err := e.store.GetBaseline(ctx, models.CategoryAll, metric)
	if err != nil {
		return nil, false
	}
	return b, true
}
