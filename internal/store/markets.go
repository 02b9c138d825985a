package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/polymarket-surveillance/insider-detector/internal/errs"
	"github.com/polymarket-surveillance/insider-detector/internal/models"
)

// UpsertMarket inserts or updates a market keyed on condition_id. Returns the
// assigned id. A conflict on the unique index is not an error: it's treated
// as a retry-safe success path.
func (s *Store) UpsertMarket(ctx context.Context, m *models.Market) (int64, error) {
	outcomes, err := json.Marshal(m.Outcomes)
	if err != nil {
		return 0, errs.NewValidation(fmt.Sprintf("marshaling outcomes: %v", err))
	}
	priceStrings := make([]string, len(m.OutcomePrices))
	for i, p := range m.OutcomePrices {
		priceStrings[i] = p.String()
	}
	prices, err := json.Marshal(priceStrings)
	if err != nil {
		return 0, errs.NewValidation(fmt.Sprintf("marshaling outcome_prices: %v", err))
	}
	meta, err := json.Marshal(m.Meta)
	if err != nil {
		return 0, errs.NewValidation(fmt.Sprintf("marshaling meta: %v", err))
	}

	const q = `
INSERT INTO markets (
	condition_id, question, outcomes, outcome_prices, end_date, resolution_date,
	resolved_outcome, volume, volume_24h, liquidity, category, is_event_based,
	is_active, meta, last_synced_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
ON CONFLICT (condition_id) DO UPDATE SET
	question = EXCLUDED.question,
	outcomes = EXCLUDED.outcomes,
	outcome_prices = EXCLUDED.outcome_prices,
	end_date = EXCLUDED.end_date,
	resolution_date = EXCLUDED.resolution_date,
	-- resolved_outcome is immutable once set
	resolved_outcome = COALESCE(markets.resolved_outcome, EXCLUDED.resolved_outcome),
	volume = EXCLUDED.volume,
	volume_24h = EXCLUDED.volume_24h,
	liquidity = EXCLUDED.liquidity,
	category = EXCLUDED.category,
	is_event_based = EXCLUDED.is_event_based,
	is_active = EXCLUDED.is_active,
	meta = EXCLUDED.meta,
	last_synced_at = EXCLUDED.last_synced_at
RETURNING id`

	lastSynced := m.LastSyncedAt
	if lastSynced.IsZero() {
		lastSynced = time.Now().UTC()
	}

	var id int64
	err = s.pool.QueryRow(ctx, q,
		m.ConditionID, m.Question, outcomes, prices, m.EndDate, m.ResolutionDate,
		m.ResolvedOutcome, decString(m.Volume), decString(m.Volume24h), decString(m.Liquidity),
		string(m.Category), m.IsEventBased, m.IsActive, meta, lastSynced,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting market %s: %w", m.ConditionID, err)
	}
	return id, nil
}

// GetMarketByConditionID returns the market with the given condition id, or
// errs.ErrNotFound if it does not exist.
func (s *Store) GetMarketByConditionID(ctx context.Context, conditionID string) (*models.Market, error) {
	const q = marketSelectColumns + ` WHERE condition_id = $1`
	row := s.pool.QueryRow(ctx, q, conditionID)
	return scanMarket(row)
}

// GetMarketByID returns the market with the given internal id.
func (s *Store) GetMarketByID(ctx context.Context, id int64) (*models.Market, error) {
	const q = marketSelectColumns + ` WHERE id = $1`
	row := s.pool.QueryRow(ctx, q, id)
	return scanMarket(row)
}

// ListStubMarkets returns every market whose condition_id marks it as a stub
// pending enrichment.
func (s *Store) ListStubMarkets(ctx context.Context) ([]*models.Market, error) {
	const q = marketSelectColumns + ` WHERE condition_id LIKE $1 ORDER BY id`
	rows, err := s.pool.Query(ctx, q, models.StubConditionPrefix+"%")
	if err != nil {
		return nil, fmt.Errorf("listing stub markets: %w", err)
	}
	defer rows.Close()

	var out []*models.Market
	for rows.Next() {
		m, err := scanMarketRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListMarkets returns every market, optionally excluding inactive ones.
func (s *Store) ListMarkets(ctx context.Context, includeInactive bool) ([]*models.Market, error) {
	q := marketSelectColumns
	if !includeInactive {
		q += ` WHERE is_active = true`
	}
	q += ` ORDER BY id`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing markets: %w", err)
	}
	defer rows.Close()

	var out []*models.Market
	for rows.Next() {
		m, err := scanMarketRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MergeStubIntoCanonical re-parents a stub's trades onto the canonical
// market and deletes the stub.
func (s *Store) MergeStubIntoCanonical(ctx context.Context, stubID, canonicalID int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning merge transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE trades SET market_id = $1 WHERE market_id = $2`, canonicalID, stubID); err != nil {
		return fmt.Errorf("reparenting trades: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM markets WHERE id = $1`, stubID); err != nil {
		return fmt.Errorf("deleting stub market: %w", err)
	}
	return tx.Commit(ctx)
}

// RewriteStubConditionID rewrites a stub's condition_id to the canonical
// value when no canonical market exists yet, handling the unique-constraint
// race with a NOT EXISTS guard on the UPDATE.
func (s *Store) RewriteStubConditionID(ctx context.Context, stubID int64, canonicalConditionID string) error {
	const q = `UPDATE markets SET condition_id = $1 WHERE id = $2 AND NOT EXISTS (
		SELECT 1 FROM markets WHERE condition_id = $1
	)`
	if _, err := s.pool.Exec(ctx, q, canonicalConditionID, stubID); err != nil {
		return fmt.Errorf("rewriting stub condition_id: %w", err)
	}
	return nil
}

// ListMarketsByIDs returns markets for the given ids, in no particular
// order. Used by discovery to batch-resolve markets behind a selected set
// of trades.
func (s *Store) ListMarketsByIDs(ctx context.Context, ids []int64) ([]*models.Market, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const q = marketSelectColumns + ` WHERE id = ANY($1)`
	rows, err := s.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, fmt.Errorf("listing markets by id: %w", err)
	}
	defer rows.Close()

	var out []*models.Market
	for rows.Next() {
		m, err := scanMarketRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

const marketSelectColumns = `SELECT id, condition_id, question, outcomes, outcome_prices, end_date,
	resolution_date, resolved_outcome, volume, volume_24h, liquidity, category,
	is_event_based, is_active, meta, last_synced_at FROM markets`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMarket(row pgx.Row) (*models.Market, error) {
	return scanMarketRows(row)
}

func scanMarketRows(row rowScanner) (*models.Market, error) {
	var (
		m             models.Market
		outcomesJSON  []byte
		pricesJSON    []byte
		metaJSON      []byte
		volume        string
		volume24h     string
		liquidity     string
		category      string
	)
	err := row.Scan(&m.ID, &m.ConditionID, &m.Question, &outcomesJSON, &pricesJSON, &m.EndDate,
		&m.ResolutionDate, &m.ResolvedOutcome, &volume, &volume24h, &liquidity, &category,
		&m.IsEventBased, &m.IsActive, &metaJSON, &m.LastSyncedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NewNotFound("market not found")
		}
		return nil, fmt.Errorf("scanning market: %w", err)
	}
	m.Category = models.Category(category)
	if err := json.Unmarshal(outcomesJSON, &m.Outcomes); err != nil {
		return nil, fmt.Errorf("unmarshaling outcomes: %w", err)
	}
	var rawPrices []string
	if err := json.Unmarshal(pricesJSON, &rawPrices); err != nil {
		return nil, fmt.Errorf("unmarshaling outcome_prices: %w", err)
	}
	m.OutcomePrices = make([]decimal.Decimal, 0, len(rawPrices))
	for _, p := range rawPrices {
		d, err := decimal.NewFromString(p)
		if err != nil {
			return nil, fmt.Errorf("parsing outcome price %q: %w", p, err)
		}
		m.OutcomePrices = append(m.OutcomePrices, d)
	}
	if err := json.Unmarshal(metaJSON, &m.Meta); err != nil {
		return nil, fmt.Errorf("unmarshaling meta: %w", err)
	}
	m.Volume, _ = decimal.NewFromString(volume)
	m.Volume24h, _ = decimal.NewFromString(volume24h)
	m.Liquidity, _ = decimal.NewFromString(liquidity)
	return &m, nil
}

func decString(d decimal.Decimal) string {
	if d.IsZero() {
		return "0"
	}
	return d.String()
}
