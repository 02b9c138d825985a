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

// InsertDiscoveryBatch records a discovery run.
func (s *Store) InsertDiscoveryBatch(ctx context.Context, b *models.DiscoveryBatch) error {
	categories, err := json.Marshal(b.Categories)
	if err != nil {
		return errs.NewValidation(fmt.Sprintf("marshaling categories: %v", err))
	}
	const q = `
INSERT INTO discovery_batches (
	batch_id, min_anomaly_score, categories, exclude_known, candidate_count,
	total_evaluated, top_score, median_score, notes, started_at, completed_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err = s.pool.Exec(ctx, q, b.BatchID, b.MinAnomalyScore, categories, b.ExcludeKnown,
		b.CandidateCount, b.TotalEvaluated, b.TopScore, b.MedianScore, b.Notes, b.StartedAt, b.CompletedAt)
	if err != nil {
		return fmt.Errorf("inserting discovery batch %s: %w", b.BatchID, err)
	}
	return nil
}

// CompleteDiscoveryBatch finalizes a batch's counts and completion time.
func (s *Store) CompleteDiscoveryBatch(ctx context.Context, batchID string, candidateCount, totalEvaluated int, topScore, medianScore *float64, completedAt interface{}) error {
	const q = `UPDATE discovery_batches SET candidate_count = $2, total_evaluated = $3,
		top_score = $4, median_score = $5, completed_at = $6 WHERE batch_id = $1`
	if _, err := s.pool.Exec(ctx, q, batchID, candidateCount, totalEvaluated, topScore, medianScore, completedAt); err != nil {
		return fmt.Errorf("completing discovery batch %s: %w", batchID, err)
	}
	return nil
}

// InsertCandidate inserts a candidate keyed unique on trade_id; a conflict
// (the trade was already promoted by an earlier batch) is not an error.
func (s *Store) InsertCandidate(ctx context.Context, c *models.InvestigationCandidate) (int64, bool, error) {
	context_, err := json.Marshal(c.Context)
	if err != nil {
		return 0, false, errs.NewValidation(fmt.Sprintf("marshaling context: %v", err))
	}
	evidence, err := json.Marshal(c.Evidence)
	if err != nil {
		return 0, false, errs.NewValidation(fmt.Sprintf("marshaling evidence: %v", err))
	}
	notes, err := json.Marshal(c.Notes)
	if err != nil {
		return 0, false, errs.NewValidation(fmt.Sprintf("marshaling notes: %v", err))
	}

	const q = `
INSERT INTO candidates (
	batch_id, trade_id, score_id, market_id, wallet_address, discovery_rank,
	anomaly_score, insider_probability, context, status, priority, assigned_to,
	evidence, notes, resolution, discovered_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
ON CONFLICT (trade_id) DO NOTHING
RETURNING id`

	var id int64
	err = s.pool.QueryRow(ctx, q, c.BatchID, c.TradeID, c.ScoreID, c.MarketID, c.WalletAddress,
		c.DiscoveryRank, c.AnomalyScore, c.InsiderProbability, context_, string(c.Status),
		string(c.Priority), c.AssignedTo, evidence, notes, c.Resolution, c.DiscoveredAt, c.UpdatedAt,
	).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, fmt.Errorf("inserting candidate for trade %d: %w", c.TradeID, err)
	}
	existing, getErr := s.GetCandidateByTradeID(ctx, c.TradeID)
	if getErr != nil {
		return 0, false, fmt.Errorf("re-reading conflicted candidate for trade %d: %w", c.TradeID, getErr)
	}
	return existing.ID, false, nil
}

// GetCandidateByTradeID returns the candidate for a trade, or errs.ErrNotFound.
func (s *Store) GetCandidateByTradeID(ctx context.Context, tradeID int64) (*models.InvestigationCandidate, error) {
	const q = candidateSelectColumns + ` WHERE trade_id = $1`
	return scanCandidate(s.pool.QueryRow(ctx, q, tradeID))
}

// GetCandidateByID returns the candidate with the given internal id.
func (s *Store) GetCandidateByID(ctx context.Context, id int64) (*models.InvestigationCandidate, error) {
	const q = candidateSelectColumns + ` WHERE id = $1`
	return scanCandidate(s.pool.QueryRow(ctx, q, id))
}

// ListCandidatesByStatus returns every candidate with the given status,
// highest anomaly score first.
func (s *Store) ListCandidatesByStatus(ctx context.Context, status models.CandidateStatus) ([]*models.InvestigationCandidate, error) {
	const q = candidateSelectColumns + ` WHERE status = $1 ORDER BY anomaly_score DESC`
	rows, err := s.pool.Query(ctx, q, string(status))
	if err != nil {
		return nil, fmt.Errorf("listing candidates by status %s: %w", status, err)
	}
	defer rows.Close()

	var out []*models.InvestigationCandidate
	for rows.Next() {
		c, err := scanCandidateRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListCandidatesByMarket returns every candidate raised against a market,
// highest anomaly score first, used by investigation-profile aggregation to
// surface other suspicious trades on the same market.
func (s *Store) ListCandidatesByMarket(ctx context.Context, marketID int64) ([]*models.InvestigationCandidate, error) {
	const q = candidateSelectColumns + ` WHERE market_id = $1 ORDER BY anomaly_score DESC`
	rows, err := s.pool.Query(ctx, q, marketID)
	if err != nil {
		return nil, fmt.Errorf("listing candidates for market %d: %w", marketID, err)
	}
	defer rows.Close()

	var out []*models.InvestigationCandidate
	for rows.Next() {
		c, err := scanCandidateRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListCandidatesByWallet returns every candidate raised against a wallet,
// used by investigation-profile aggregation.
func (s *Store) ListCandidatesByWallet(ctx context.Context, address string) ([]*models.InvestigationCandidate, error) {
	const q = candidateSelectColumns + ` WHERE wallet_address = $1 ORDER BY discovered_at DESC`
	rows, err := s.pool.Query(ctx, q, address)
	if err != nil {
		return nil, fmt.Errorf("listing candidates for wallet %s: %w", address, err)
	}
	defer rows.Close()

	var out []*models.InvestigationCandidate
	for rows.Next() {
		c, err := scanCandidateRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateCandidate persists the full mutable state of a candidate (status,
// priority, assignment, evidence, notes, resolution) after a workflow
// operation.
func (s *Store) UpdateCandidate(ctx context.Context, c *models.InvestigationCandidate) error {
	evidence, err := json.Marshal(c.Evidence)
	if err != nil {
		return errs.NewValidation(fmt.Sprintf("marshaling evidence: %v", err))
	}
	notes, err := json.Marshal(c.Notes)
	if err != nil {
		return errs.NewValidation(fmt.Sprintf("marshaling notes: %v", err))
	}

	const q = `UPDATE candidates SET status = $2, priority = $3, assigned_to = $4,
		evidence = $5, notes = $6, resolution = $7, updated_at = $8 WHERE id = $1`
	_, err = s.pool.Exec(ctx, q, c.ID, string(c.Status), string(c.Priority), c.AssignedTo,
		evidence, notes, c.Resolution, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating candidate %d: %w", c.ID, err)
	}
	return nil
}

const candidateSelectColumns = `SELECT id, batch_id, trade_id, score_id, market_id, wallet_address,
	discovery_rank, anomaly_score, insider_probability, context, status, priority, assigned_to,
	evidence, notes, resolution, discovered_at, updated_at FROM candidates`

func scanCandidate(row pgx.Row) (*models.InvestigationCandidate, error) {
	return scanCandidateRows(row)
}

func scanCandidateRows(row rowScanner) (*models.InvestigationCandidate, error) {
	var c models.InvestigationCandidate
	var status, priority string
	var contextJSON, evidenceJSON, notesJSON []byte
	err := row.Scan(&c.ID, &c.BatchID, &c.TradeID, &c.ScoreID, &c.MarketID, &c.WalletAddress,
		&c.DiscoveryRank, &c.AnomalyScore, &c.InsiderProbability, &contextJSON, &status, &priority,
		&c.AssignedTo, &evidenceJSON, &notesJSON, &c.Resolution, &c.DiscoveredAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NewNotFound("candidate not found")
		}
		return nil, fmt.Errorf("scanning candidate: %w", err)
	}
	c.Status = models.CandidateStatus(status)
	c.Priority = models.Priority(priority)
	if err := json.Unmarshal(contextJSON, &c.Context); err != nil {
		return nil, fmt.Errorf("unmarshaling context: %w", err)
	}
	if err := json.Unmarshal(evidenceJSON, &c.Evidence); err != nil {
		return nil, fmt.Errorf("unmarshaling evidence: %w", err)
	}
	if err := json.Unmarshal(notesJSON, &c.Notes); err != nil {
		return nil, fmt.Errorf("unmarshaling notes: %w", err)
	}
	return &c, nil
}
