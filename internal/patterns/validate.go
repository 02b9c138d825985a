package patterns

import (
	"context"
	"fmt"
	"time"

	"github.com/polymarket-surveillance/insider-detector/internal/errs"
	"github.com/polymarket-surveillance/insider-detector/internal/models"
)

// ValidationResult is one pattern's freshly computed metrics.
type ValidationResult struct {
	PatternName    string
	TruePositives  int
	FalsePositives int
	Precision      *float64
	Recall         *float64
	F1             *float64
	Lift           *float64
}

// Validate recomputes TP/FP/precision/recall/F1/lift for every active
// pattern against every scored trade, using confirmed insiders marked
// used_for_training as the labeled truth set, and persists the result.
func (e *Engine) Validate(ctx context.Context) ([]ValidationResult, error) {
	scores, err := e.store.ListAllScores(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing all scores: %w", err)
	}
	if len(scores) == 0 {
		return nil, errs.NewInsufficientData("no scored trades to validate patterns against")
	}

	tradeIDs := make([]int64, len(scores))
	scoreByTradeID := make(map[int64]*models.TradeScore, len(scores))
	for i, sc := range scores {
		tradeIDs[i] = sc.TradeID
		scoreByTradeID[sc.TradeID] = sc
	}
	trades, err := e.store.ListTradesByIDs(ctx, tradeIDs)
	if err != nil {
		return nil, fmt.Errorf("listing trades for validation: %w", err)
	}

	confirmed, err := e.store.ListConfirmedInsidersForTraining(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing confirmed insiders: %w", err)
	}
	insiderTradeIDs := make(map[int64]bool)
	for _, c := range confirmed {
		if c.TradeID != nil {
			insiderTradeIDs[*c.TradeID] = true
		}
	}

	patterns, err := e.store.ListActivePatterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing active patterns: %w", err)
	}

	totalTrades := len(trades)
	totalInsiders := len(insiderTradeIDs)
	var baseRate *float64
	if totalTrades > 0 {
		v := float64(totalInsiders) / float64(totalTrades)
		baseRate = &v
	}

	results := make([]ValidationResult, 0, len(patterns))
	for _, p := range patterns {
		tp, fp := 0, 0
		for _, t := range trades {
			f := fields(t, scoreByTradeID[t.ID])
			if ok, _ := evalPattern(p, f); ok {
				if insiderTradeIDs[t.ID] {
					tp++
				} else {
					fp++
				}
			}
		}

		p.TruePositives = tp
		p.FalsePositives = fp
		precision := p.Precision()

		var recall *float64
		if totalInsiders > 0 {
			v := float64(tp) / float64(totalInsiders)
			recall = &v
		}

		now := time.Now().UTC()
		if err := e.store.SetPatternValidation(ctx, p.ID, tp, fp, now); err != nil {
			return nil, fmt.Errorf("persisting validation for pattern %s: %w", p.Name, err)
		}

		results = append(results, ValidationResult{
			PatternName:    p.Name,
			TruePositives:  tp,
			FalsePositives: fp,
			Precision:      precision,
			Recall:         recall,
			F1:             p.F1(recall),
			Lift:           p.Lift(baseRate),
		})
	}
	return results, nil
}
