package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/polymarket-surveillance/insider-detector/internal/errs"
	"github.com/polymarket-surveillance/insider-detector/internal/models"
)

// InsertConfirmedInsider records a labeled truth case.
func (s *Store) InsertConfirmedInsider(ctx context.Context, c *models.ConfirmedInsider) (int64, error) {
	const q = `
INSERT INTO confirmed_insiders (
	wallet_address, condition_id, trade_id, confidence_level, confirmation_source,
	evidence, used_for_training, training_weight, confirmed_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING id`

	var id int64
	err := s.pool.QueryRow(ctx, q, c.WalletAddress, c.ConditionID, c.TradeID, string(c.ConfidenceLevel),
		c.ConfirmationSource, c.Evidence, c.UsedForTraining, c.TrainingWeight, c.ConfirmedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting confirmed insider %s: %w", c.WalletAddress, err)
	}
	return id, nil
}

// MarkUsedForTraining flips used_for_training on a set of confirmed insiders
// ahead of a baseline recompute.
func (s *Store) MarkUsedForTraining(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	const q = `UPDATE confirmed_insiders SET used_for_training = true WHERE id = ANY($1)`
	if _, err := s.pool.Exec(ctx, q, ids); err != nil {
		return fmt.Errorf("marking confirmed insiders for training: %w", err)
	}
	return nil
}

// ListConfirmedInsidersByWallet returns every confirmed-insider row for a
// wallet.
func (s *Store) ListConfirmedInsidersByWallet(ctx context.Context, address string) ([]*models.ConfirmedInsider, error) {
	const q = confirmedInsiderSelectColumns + ` WHERE wallet_address = $1 ORDER BY confirmed_at DESC`
	rows, err := s.pool.Query(ctx, q, address)
	if err != nil {
		return nil, fmt.Errorf("listing confirmed insiders for %s: %w", address, err)
	}
	defer rows.Close()

	var out []*models.ConfirmedInsider
	for rows.Next() {
		c, err := scanConfirmedInsiderRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListConfirmedInsidersForTraining returns every confirmed insider usable as
// a labeled insider sample in the next baseline recompute.
func (s *Store) ListConfirmedInsidersForTraining(ctx context.Context) ([]*models.ConfirmedInsider, error) {
	const q = confirmedInsiderSelectColumns + ` WHERE used_for_training = true ORDER BY confirmed_at`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing confirmed insiders for training: %w", err)
	}
	defer rows.Close()

	var out []*models.ConfirmedInsider
	for rows.Next() {
		c, err := scanConfirmedInsiderRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const confirmedInsiderSelectColumns = `SELECT id, wallet_address, condition_id, trade_id,
	confidence_level, confirmation_source, evidence, used_for_training, training_weight,
	confirmed_at FROM confirmed_insiders`

func scanConfirmedInsiderRows(row rowScanner) (*models.ConfirmedInsider, error) {
	var c models.ConfirmedInsider
	var confidence string
	err := row.Scan(&c.ID, &c.WalletAddress, &c.ConditionID, &c.TradeID, &confidence,
		&c.ConfirmationSource, &c.Evidence, &c.UsedForTraining, &c.TrainingWeight, &c.ConfirmedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NewNotFound("confirmed insider not found")
		}
		return nil, fmt.Errorf("scanning confirmed insider: %w", err)
	}
	c.ConfidenceLevel = models.ConfidenceLevel(confidence)
	return &c, nil
}
