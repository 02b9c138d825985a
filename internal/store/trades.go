package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/polymarket-surveillance/insider-detector/internal/errs"
	"github.com/polymarket-surveillance/insider-detector/internal/models"
)

// UpsertTrade inserts a trade keyed on transaction_hash. A conflict is
// treated as already-ingested and the existing
// row's id is returned instead of erroring.
func (s *Store) UpsertTrade(ctx context.Context, t *models.Trade) (id int64, wasNew bool, err error) {
	meta, err := json.Marshal(t.Meta)
	if err != nil {
		return 0, false, errs.NewValidation(fmt.Sprintf("marshaling trade meta: %v", err))
	}

	const q = `
INSERT INTO trades (
	transaction_hash, market_id, wallet_address, condition_id, side, outcome,
	outcome_index, size, price, usdc_size, trade_timestamp, hours_before_resolution,
	wallet_age_days, wallet_trade_count, price_extremity, was_correct, profit_loss, meta
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
ON CONFLICT (transaction_hash) DO NOTHING
RETURNING id`

	err = s.pool.QueryRow(ctx, q,
		t.TransactionHash, t.MarketID, t.WalletAddress, t.ConditionID, string(t.Side), t.Outcome,
		t.OutcomeIndex, t.Size, t.Price, t.USDCSize, t.TradeTimestamp, t.HoursBeforeResolution,
		t.WalletAgeDays, t.WalletTradeCount, t.PriceExtremity, t.WasCorrect, t.ProfitLoss, meta,
	).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, fmt.Errorf("inserting trade %s: %w", t.TransactionHash, err)
	}

	// ON CONFLICT DO NOTHING produced no row: re-read the existing one.
	existing, getErr := s.GetTradeByTransactionHash(ctx, t.TransactionHash)
	if getErr != nil {
		return 0, false, fmt.Errorf("re-reading conflicted trade %s: %w", t.TransactionHash, getErr)
	}
	return existing.ID, false, nil
}

// GetTradeByTransactionHash returns the trade with the given hash.
func (s *Store) GetTradeByTransactionHash(ctx context.Context, hash string) (*models.Trade, error) {
	const q = tradeSelectColumns + ` WHERE transaction_hash = $1`
	return scanTrade(s.pool.QueryRow(ctx, q, hash))
}

// GetTradeByID returns the trade with the given internal id.
func (s *Store) GetTradeByID(ctx context.Context, id int64) (*models.Trade, error) {
	const q = tradeSelectColumns + ` WHERE id = $1`
	return scanTrade(s.pool.QueryRow(ctx, q, id))
}

// UpdateDerivedMetrics persists the ingestor's post-resolution updates to a
// trade: was_correct, profit_loss, hours_before_resolution -- the only
// mutation append-only trades permit.
func (s *Store) UpdateDerivedMetrics(ctx context.Context, tradeID int64, wasCorrect *bool, profitLoss, hoursBeforeResolution *float64) error {
	const q = `UPDATE trades SET was_correct = $2, profit_loss = $3, hours_before_resolution = $4 WHERE id = $1`
	if _, err := s.pool.Exec(ctx, q, tradeID, wasCorrect, profitLoss, hoursBeforeResolution); err != nil {
		return fmt.Errorf("updating derived metrics for trade %d: %w", tradeID, err)
	}
	return nil
}

// ListRecentTrades returns up to limit trades ordered by trade_timestamp
// descending, for the monitor's poll loop.
func (s *Store) ListRecentTrades(ctx context.Context, since interface{}, limit int) ([]*models.Trade, error) {
	const q = tradeSelectColumns + ` WHERE trade_timestamp > $1 ORDER BY trade_timestamp DESC LIMIT $2`
	rows, err := s.pool.Query(ctx, q, since, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent trades: %w", err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

// ListTradesByMarket returns every trade for a market, oldest first.
func (s *Store) ListTradesByMarket(ctx context.Context, marketID int64) ([]*models.Trade, error) {
	const q = tradeSelectColumns + ` WHERE market_id = $1 ORDER BY trade_timestamp ASC`
	rows, err := s.pool.Query(ctx, q, marketID)
	if err != nil {
		return nil, fmt.Errorf("listing trades for market %d: %w", marketID, err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

// ListTradesByWallet returns every trade for a wallet, oldest first.
func (s *Store) ListTradesByWallet(ctx context.Context, address string) ([]*models.Trade, error) {
	const q = tradeSelectColumns + ` WHERE wallet_address = $1 ORDER BY trade_timestamp ASC`
	rows, err := s.pool.Query(ctx, q, address)
	if err != nil {
		return nil, fmt.Errorf("listing trades for wallet %s: %w", address, err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

// ListResolvedTradesByCategory returns every trade whose market is resolved
// and, unless category is models.CategoryAll, whose market category matches
// the given category.
func (s *Store) ListResolvedTradesByCategory(ctx context.Context, category models.Category) ([]*models.Trade, error) {
	q := `SELECT t.id, t.transaction_hash, t.market_id, t.wallet_address, t.condition_id, t.side,
		t.outcome, t.outcome_index, t.size, t.price, t.usdc_size, t.trade_timestamp, t.hours_before_resolution,
		t.wallet_age_days, t.wallet_trade_count, t.price_extremity, t.was_correct, t.profit_loss, t.meta
		FROM trades t JOIN markets m ON m.id = t.market_id
		WHERE m.resolved_outcome IS NOT NULL`
	args := []any{}
	if category != models.CategoryAll {
		q += ` AND m.category = $1`
		args = append(args, string(category))
	}
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing resolved trades for category %s: %w", category, err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

// ListConfirmedInsiderTrades returns every trade linked from a confirmed
// insider marked used_for_training.
func (s *Store) ListConfirmedInsiderTrades(ctx context.Context) ([]*models.Trade, error) {
	const q = `SELECT t.id, t.transaction_hash, t.market_id, t.wallet_address, t.condition_id, t.side,
		t.outcome, t.outcome_index, t.size, t.price, t.usdc_size, t.trade_timestamp, t.hours_before_resolution,
		t.wallet_age_days, t.wallet_trade_count, t.price_extremity, t.was_correct, t.profit_loss, t.meta
		FROM trades t JOIN confirmed_insiders ci ON ci.trade_id = t.id
		WHERE ci.used_for_training = true`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing confirmed insider trades: %w", err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

// ListTradesByIDs returns trades matching the given ids, in no particular
// order. Used to batch-resolve trades behind a set of trade scores.
func (s *Store) ListTradesByIDs(ctx context.Context, ids []int64) ([]*models.Trade, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const q = tradeSelectColumns + ` WHERE id = ANY($1)`
	rows, err := s.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, fmt.Errorf("listing trades by id: %w", err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

// ListUnscoredTrades returns every trade that doesn't yet have a
// trade_scores row, the working set for a full rescore-all operator command.
func (s *Store) ListUnscoredTrades(ctx context.Context) ([]*models.Trade, error) {
	const q = `SELECT id, transaction_hash, market_id, wallet_address, condition_id, side,
		outcome, outcome_index, size, price, usdc_size, trade_timestamp, hours_before_resolution,
		wallet_age_days, wallet_trade_count, price_extremity, was_correct, profit_loss, meta
		FROM trades t
		WHERE NOT EXISTS (SELECT 1 FROM trade_scores ts WHERE ts.trade_id = t.id)`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing unscored trades: %w", err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

const tradeSelectColumns = `SELECT id, transaction_hash, market_id, wallet_address, condition_id, side,
	outcome, outcome_index, size, price, usdc_size, trade_timestamp, hours_before_resolution,
	wallet_age_days, wallet_trade_count, price_extremity, was_correct, profit_loss, meta FROM trades`

func scanTrade(row pgx.Row) (*models.Trade, error) {
	var t models.Trade
	var side string
	var metaJSON []byte
	err := row.Scan(&t.ID, &t.TransactionHash, &t.MarketID, &t.WalletAddress, &t.ConditionID, &side,
		&t.Outcome, &t.OutcomeIndex, &t.Size, &t.Price, &t.USDCSize, &t.TradeTimestamp,
		&t.HoursBeforeResolution, &t.WalletAgeDays, &t.WalletTradeCount, &t.PriceExtremity,
		&t.WasCorrect, &t.ProfitLoss, &metaJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NewNotFound("trade not found")
		}
		return nil, fmt.Errorf("scanning trade: %w", err)
	}
	t.Side = models.Side(side)
	if err := json.Unmarshal(metaJSON, &t.Meta); err != nil {
		return nil, fmt.Errorf("unmarshaling trade meta: %w", err)
	}
	return &t, nil
}

func scanTrades(rows pgx.Rows) ([]*models.Trade, error) {
	var out []*models.Trade
	for rows.Next() {
		var t models.Trade
		var side string
		var metaJSON []byte
		err := rows.Scan(&t.ID, &t.TransactionHash, &t.MarketID, &t.WalletAddress, &t.ConditionID, &side,
			&t.Outcome, &t.OutcomeIndex, &t.Size, &t.Price, &t.USDCSize, &t.TradeTimestamp,
			&t.HoursBeforeResolution, &t.WalletAgeDays, &t.WalletTradeCount, &t.PriceExtremity,
			&t.WasCorrect, &t.ProfitLoss, &metaJSON)
		if err != nil {
			return nil, fmt.Errorf("scanning trade row: %w", err)
		}
		t.Side = models.Side(side)
		if err := json.Unmarshal(metaJSON, &t.Meta); err != nil {
			return nil, fmt.Errorf("unmarshaling trade meta: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
