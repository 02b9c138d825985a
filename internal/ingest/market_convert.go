package ingest

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/polymarket-surveillance/insider-detector/internal/fetch/centralapi"
	"github.com/polymarket-surveillance/insider-detector/internal/models"
)

// marketFromGamma converts a fetched GammaMarket into the canonical
// models.Market shape, resolving the wire-format category string into the
// closed models.Category set.
func marketFromGamma(gm *centralapi.GammaMarket) *models.Market {
	outcomes := gm.GetOutcomes()
	rawPrices := gm.GetOutcomePrices()
	prices := make([]decimal.Decimal, len(rawPrices))
	for i, p := range rawPrices {
		prices[i] = decimal.NewFromFloat(p)
	}

	m := &models.Market{
		ConditionID:   gm.ConditionID,
		Question:      gm.Question,
		Outcomes:      outcomes,
		OutcomePrices: prices,
		Volume:        decimal.NewFromFloat(gm.Volume),
		Volume24h:     decimal.NewFromFloat(gm.Volume24hr),
		Liquidity:     decimal.NewFromFloat(gm.Liquidity),
		Category:      categoryFromWire(gm.Category),
		IsEventBased:  gm.EventBased,
		IsActive:      gm.Active,
		LastSyncedAt:  time.Now().UTC(),
		Meta: map[string]any{
			"clobTokenIds": gm.GetTokenIDs(),
			"slug":         gm.Slug,
		},
	}

	if gm.EndDate != "" {
		if t, err := time.Parse(time.RFC3339, gm.EndDate); err == nil {
			m.EndDate = &t
			m.ResolutionDate = &t
		}
	}

	if gm.Closed {
		outcome, idx := gm.GetWinningOutcome()
		if idx >= 0 {
			m.ResolvedOutcome = &outcome
		}
		if gm.ClosedTime != "" {
			if t, err := time.Parse(time.RFC3339, gm.ClosedTime); err == nil {
				m.ResolutionDate = &t
			}
		}
	}

	return m
}

func categoryFromWire(raw string) models.Category {
	switch models.Category(raw) {
	case models.CategoryPolitics, models.CategoryCorporate, models.CategoryLegal,
		models.CategoryCrypto, models.CategorySports, models.CategoryEntertainment,
		models.CategoryScience:
		return models.Category(raw)
	default:
		return models.CategoryOther
	}
}
