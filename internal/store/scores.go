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

// UpsertTradeScore replaces a trade's score in place, unique on trade_id.
func (s *Store) UpsertTradeScore(ctx context.Context, sc *models.TradeScore) (int64, error) {
	matched, err := json.Marshal(sc.MatchedPatterns)
	if err != nil {
		return 0, errs.NewValidation(fmt.Sprintf("marshaling matched_patterns: %v", err))
	}

	const q = `
INSERT INTO trade_scores (
	trade_id, size_z_score, usdc_size_z_score, timing_z_score, wallet_age_z_score,
	wallet_activity_z_score, price_extremity_z_score, position_concentration_z_score,
	funding_proximity_z_score, anomaly_score, insider_probability, trinity_pattern,
	matched_patterns, severity, scored_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
ON CONFLICT (trade_id) DO UPDATE SET
	size_z_score = EXCLUDED.size_z_score,
	usdc_size_z_score = EXCLUDED.usdc_size_z_score,
	timing_z_score = EXCLUDED.timing_z_score,
	wallet_age_z_score = EXCLUDED.wallet_age_z_score,
	wallet_activity_z_score = EXCLUDED.wallet_activity_z_score,
	price_extremity_z_score = EXCLUDED.price_extremity_z_score,
	position_concentration_z_score = EXCLUDED.position_concentration_z_score,
	funding_proximity_z_score = EXCLUDED.funding_proximity_z_score,
	anomaly_score = EXCLUDED.anomaly_score,
	insider_probability = EXCLUDED.insider_probability,
	trinity_pattern = EXCLUDED.trinity_pattern,
	matched_patterns = EXCLUDED.matched_patterns,
	severity = EXCLUDED.severity,
	scored_at = EXCLUDED.scored_at
RETURNING id`

	var id int64
	err = s.pool.QueryRow(ctx, q, sc.TradeID, sc.SizeZScore, sc.USDCSizeZScore, sc.TimingZScore,
		sc.WalletAgeZScore, sc.WalletActivityZScore, sc.PriceExtremityZScore,
		sc.PositionConcentrationZScore, sc.FundingProximityZScore, sc.AnomalyScore,
		sc.InsiderProbability, sc.TrinityPattern, matched, string(sc.Severity), sc.ScoredAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting score for trade %d: %w", sc.TradeID, err)
	}
	return id, nil
}

// GetTradeScoreByTradeID returns the score for a trade, or errs.ErrNotFound.
func (s *Store) GetTradeScoreByTradeID(ctx context.Context, tradeID int64) (*models.TradeScore, error) {
	const q = scoreSelectColumns + ` WHERE trade_id = $1`
	return scanScore(s.pool.QueryRow(ctx, q, tradeID))
}

// ListScoresAboveThreshold returns every score with anomaly_score >= min,
// used by discovery.
func (s *Store) ListScoresAboveThreshold(ctx context.Context, min float64) ([]*models.TradeScore, error) {
	const q = scoreSelectColumns + ` WHERE anomaly_score >= $1 ORDER BY anomaly_score DESC`
	rows, err := s.pool.Query(ctx, q, min)
	if err != nil {
		return nil, fmt.Errorf("listing scores above threshold: %w", err)
	}
	defer rows.Close()

	var out []*models.TradeScore
	for rows.Next() {
		sc, err := scanScoreRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// ListAllScores returns every persisted trade score, used by pattern
// validation to compute precision/recall/F1/lift.
func (s *Store) ListAllScores(ctx context.Context) ([]*models.TradeScore, error) {
	rows, err := s.pool.Query(ctx, scoreSelectColumns)
	if err != nil {
		return nil, fmt.Errorf("listing all scores: %w", err)
	}
	defer rows.Close()

	var out []*models.TradeScore
	for rows.Next() {
		sc, err := scanScoreRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// ListScoresByTradeIDs returns scores for the given trade ids, in no
// particular order. Used by discovery to batch-resolve scores behind a
// selected set of trades.
func (s *Store) ListScoresByTradeIDs(ctx context.Context, tradeIDs []int64) ([]*models.TradeScore, error) {
	if len(tradeIDs) == 0 {
		return nil, nil
	}
	const q = scoreSelectColumns + ` WHERE trade_id = ANY($1)`
	rows, err := s.pool.Query(ctx, q, tradeIDs)
	if err != nil {
		return nil, fmt.Errorf("listing scores by trade id: %w", err)
	}
	defer rows.Close()

	var out []*models.TradeScore
	for rows.Next() {
		sc, err := scanScoreRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

const scoreSelectColumns = `SELECT id, trade_id, size_z_score, usdc_size_z_score, timing_z_score,
	wallet_age_z_score, wallet_activity_z_score, price_extremity_z_score,
	position_concentration_z_score, funding_proximity_z_score, anomaly_score,
	insider_probability, trinity_pattern, matched_patterns, severity, scored_at FROM trade_scores`

func scanScore(row pgx.Row) (*models.TradeScore, error) {
	return scanScoreRows(row)
}

func scanScoreRows(row rowScanner) (*models.TradeScore, error) {
	var sc models.TradeScore
	var severity string
	var matchedJSON []byte
	err := row.Scan(&sc.ID, &sc.TradeID, &sc.SizeZScore, &sc.USDCSizeZScore, &sc.TimingZScore,
		&sc.WalletAgeZScore, &sc.WalletActivityZScore, &sc.PriceExtremityZScore,
		&sc.PositionConcentrationZScore, &sc.FundingProximityZScore, &sc.AnomalyScore,
		&sc.InsiderProbability, &sc.TrinityPattern, &matchedJSON, &severity, &sc.ScoredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NewNotFound("trade score not found")
		}
		return nil, fmt.Errorf("scanning trade score: %w", err)
	}
	sc.Severity = models.Severity(severity)
	if err := json.Unmarshal(matchedJSON, &sc.MatchedPatterns); err != nil {
		return nil, fmt.Errorf("unmarshaling matched_patterns: %w", err)
	}
	return &sc, nil
}
