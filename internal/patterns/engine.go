package patterns

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/polymarket-surveillance/insider-detector/internal/errs"
	"github.com/polymarket-surveillance/insider-detector/internal/models"
	"github.com/polymarket-surveillance/insider-detector/internal/store"
)

// Engine matches patterns against scored trades and validates them against
// labeled truth.
type Engine struct {
	store  *store.Store
	logger *zap.Logger
}

// New constructs an Engine.
func New(st *store.Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: st, logger: logger.Named("patterns")}
}

// SeedAll upserts the documented default patterns,
// idempotent on pattern_name.
func (e *Engine) SeedAll(ctx context.Context) errs.Summary {
	var summary errs.Summary
	for _, p := range SeedPatterns() {
		if _, err := e.store.UpsertPattern(ctx, p); err != nil {
			summary.AddError(fmt.Errorf("seeding pattern %s: %w", p.Name, err))
			continue
		}
		summary.Inserted++
	}
	return summary
}

// MatchPatterns evaluates every active pattern against one trade/score pair
// and returns the patterns that fired, keyed by name with their match score.
func (e *Engine) MatchPatterns(ctx context.Context, trade *models.Trade, score *models.TradeScore) (map[string]float64, error) {
	active, err := e.store.ListActivePatterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing active patterns: %w", err)
	}
	f := fields(trade, score)
	matched := make(map[string]float64)
	for _, p := range active {
		if ok, patternScore := evalPattern(p, f); ok {
			matched[p.Name] = patternScore
		}
	}
	return matched, nil
}

// HighestScore returns the highest score among matched patterns, 0 if none
// matched -- this is the pattern_score scoring.Score's InsiderProbability
// formula consumes.
func HighestScore(matched map[string]float64) float64 {
	var best float64
	for _, v := range matched {
		if v > best {
			best = v
		}
	}
	return best
}
