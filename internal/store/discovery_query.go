package store

import (
	"context"
	"fmt"

	"github.com/polymarket-surveillance/insider-detector/internal/models"
)

// DiscoveryRow denormalizes a scored, correct, event-based trade and its
// market for discovery's selection query.
type DiscoveryRow struct {
	Trade  *models.Trade
	Score  *models.TradeScore
	Market *models.Market
}

// SelectDiscoveryTradeIDs returns trade ids, in discovery rank order, where
// insider_probability >= minProbability, anomaly_score >= minAnomaly,
// was_correct = true, and the market is event-based, optionally restricted
// to categories. Excludes trades already present as a ConfirmedInsider or an
// InvestigationCandidate.
func (s *Store) SelectDiscoveryTradeIDs(ctx context.Context, minAnomaly, minProbability float64, categories []models.Category) ([]int64, error) {
	q := `
SELECT t.id
FROM trade_scores sc
JOIN trades t ON t.id = sc.trade_id
JOIN markets m ON m.id = t.market_id
WHERE sc.insider_probability >= $1
	AND sc.anomaly_score >= $2
	AND t.was_correct = true
	AND m.is_event_based = true
	AND NOT EXISTS (SELECT 1 FROM confirmed_insiders ci WHERE ci.trade_id = t.id)
	AND NOT EXISTS (SELECT 1 FROM candidates c WHERE c.trade_id = t.id)`
	args := []any{minProbability, minAnomaly}
	if len(categories) > 0 {
		q += ` AND m.category = ANY($3)`
		catStrings := make([]string, len(categories))
		for i, c := range categories {
			catStrings[i] = string(c)
		}
		args = append(args, catStrings)
	}
	q += ` ORDER BY sc.insider_probability DESC, sc.anomaly_score DESC`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("selecting discovery trade ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning discovery trade id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LoadDiscoveryRows resolves an ordered slice of trade ids (as returned by
// SelectDiscoveryTradeIDs) into full DiscoveryRows, preserving input order.
func (s *Store) LoadDiscoveryRows(ctx context.Context, tradeIDs []int64) ([]DiscoveryRow, error) {
	if len(tradeIDs) == 0 {
		return nil, nil
	}

	trades, err := s.ListTradesByIDs(ctx, tradeIDs)
	if err != nil {
		return nil, fmt.Errorf("loading discovery trades: %w", err)
	}
	tradeByID := make(map[int64]*models.Trade, len(trades))
	marketIDSet := make(map[int64]struct{})
	for _, t := range trades {
		tradeByID[t.ID] = t
		marketIDSet[t.MarketID] = struct{}{}
	}

	scores, err := s.ListScoresByTradeIDs(ctx, tradeIDs)
	if err != nil {
		return nil, fmt.Errorf("loading discovery scores: %w", err)
	}
	scoreByTradeID := make(map[int64]*models.TradeScore, len(scores))
	for _, sc := range scores {
		scoreByTradeID[sc.TradeID] = sc
	}

	marketIDs := make([]int64, 0, len(marketIDSet))
	for id := range marketIDSet {
		marketIDs = append(marketIDs, id)
	}
	markets, err := s.ListMarketsByIDs(ctx, marketIDs)
	if err != nil {
		return nil, fmt.Errorf("loading discovery markets: %w", err)
	}
	marketByID := make(map[int64]*models.Market, len(markets))
	for _, m := range markets {
		marketByID[m.ID] = m
	}

	out := make([]DiscoveryRow, 0, len(tradeIDs))
	for _, id := range tradeIDs {
		t, ok := tradeByID[id]
		if !ok {
			continue
		}
		out = append(out, DiscoveryRow{
			Trade:  t,
			Score:  scoreByTradeID[id],
			Market: marketByID[t.MarketID],
		})
	}
	return out, nil
}
