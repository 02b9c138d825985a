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

// InsertAlert records an alert, unique on alert_id.
func (s *Store) InsertAlert(ctx context.Context, a *models.Alert) (int64, error) {
	context_, err := json.Marshal(a.Context)
	if err != nil {
		return 0, errs.NewValidation(fmt.Sprintf("marshaling alert context: %v", err))
	}

	const q = `
INSERT INTO alerts (
	alert_id, type, severity, status, trade_id, wallet_address, market_id,
	message, context, triggered_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (alert_id) DO NOTHING
RETURNING id`

	var id int64
	err = s.pool.QueryRow(ctx, q, a.AlertID, string(a.Type), string(a.Severity), string(a.Status),
		a.TradeID, a.WalletAddress, a.MarketID, a.Message, context_, a.TriggeredAt,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("inserting alert %s: %w", a.AlertID, err)
	}
	existing, getErr := s.GetAlertByAlertID(ctx, a.AlertID)
	if getErr != nil {
		return 0, fmt.Errorf("re-reading conflicted alert %s: %w", a.AlertID, getErr)
	}
	return existing.ID, nil
}

// GetAlertByAlertID returns the alert with the given external id.
func (s *Store) GetAlertByAlertID(ctx context.Context, alertID string) (*models.Alert, error) {
	const q = alertSelectColumns + ` WHERE alert_id = $1`
	return scanAlert(s.pool.QueryRow(ctx, q, alertID))
}

// UpdateAlertStatus transitions an alert's status field.
func (s *Store) UpdateAlertStatus(ctx context.Context, alertID string, status models.AlertStatus) error {
	const q = `UPDATE alerts SET status = $2 WHERE alert_id = $1`
	if _, err := s.pool.Exec(ctx, q, alertID, string(status)); err != nil {
		return fmt.Errorf("updating alert status %s: %w", alertID, err)
	}
	return nil
}

// ListRecentAlerts returns up to limit alerts, most recent first.
func (s *Store) ListRecentAlerts(ctx context.Context, limit int) ([]*models.Alert, error) {
	const q = alertSelectColumns + ` ORDER BY triggered_at DESC LIMIT $1`
	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent alerts: %w", err)
	}
	defer rows.Close()

	var out []*models.Alert
	for rows.Next() {
		a, err := scanAlertRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

const alertSelectColumns = `SELECT id, alert_id, type, severity, status, trade_id, wallet_address,
	market_id, message, context, triggered_at FROM alerts`

func scanAlert(row pgx.Row) (*models.Alert, error) {
	return scanAlertRows(row)
}

func scanAlertRows(row rowScanner) (*models.Alert, error) {
	var a models.Alert
	var alertType, severity, status string
	var contextJSON []byte
	err := row.Scan(&a.ID, &a.AlertID, &alertType, &severity, &status, &a.TradeID, &a.WalletAddress,
		&a.MarketID, &a.Message, &contextJSON, &a.TriggeredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NewNotFound("alert not found")
		}
		return nil, fmt.Errorf("scanning alert: %w", err)
	}
	a.Type = models.AlertType(alertType)
	a.Severity = models.Severity(severity)
	a.Status = models.AlertStatus(status)
	if err := json.Unmarshal(contextJSON, &a.Context); err != nil {
		return nil, fmt.Errorf("unmarshaling alert context: %w", err)
	}
	return &a, nil
}
