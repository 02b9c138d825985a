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

// UpsertPattern inserts or updates a pattern keyed on pattern_name.
func (s *Store) UpsertPattern(ctx context.Context, p *models.Pattern) (int64, error) {
	conditions, err := json.Marshal(patternConditionsDTO{Rules: p.Conditions, Logic: p.Logic, MinMatches: p.MinMatches})
	if err != nil {
		return 0, errs.NewValidation(fmt.Sprintf("marshaling conditions: %v", err))
	}

	const q = `
INSERT INTO patterns (
	pattern_name, description, conditions, alert_threshold, true_positives,
	false_positives, is_active, validated_at, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8, COALESCE($9, now()))
ON CONFLICT (pattern_name) DO UPDATE SET
	description = EXCLUDED.description,
	conditions = EXCLUDED.conditions,
	alert_threshold = EXCLUDED.alert_threshold,
	true_positives = EXCLUDED.true_positives,
	false_positives = EXCLUDED.false_positives,
	is_active = EXCLUDED.is_active,
	validated_at = EXCLUDED.validated_at
RETURNING id`

	var createdAt interface{}
	if !p.CreatedAt.IsZero() {
		createdAt = p.CreatedAt
	}

	var id int64
	err = s.pool.QueryRow(ctx, q, p.Name, p.Description, conditions, p.AlertThreshold,
		p.TruePositives, p.FalsePositives, p.IsActive, p.ValidatedAt, createdAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting pattern %s: %w", p.Name, err)
	}
	return id, nil
}

// IncrementPatternCounts bumps true_positives/false_positives for validation
// bookkeeping.
func (s *Store) IncrementPatternCounts(ctx context.Context, patternID int64, truePositiveDelta, falsePositiveDelta int) error {
	const q = `UPDATE patterns SET true_positives = true_positives + $2, false_positives = false_positives + $3 WHERE id = $1`
	if _, err := s.pool.Exec(ctx, q, patternID, truePositiveDelta, falsePositiveDelta); err != nil {
		return fmt.Errorf("incrementing pattern counts for %d: %w", patternID, err)
	}
	return nil
}

// SetPatternValidation stamps a pattern's true_positives/false_positives and
// validated_at with freshly computed absolute values, replacing whatever was
// there.
func (s *Store) SetPatternValidation(ctx context.Context, patternID int64, truePositives, falsePositives int, validatedAt interface{}) error {
	const q = `UPDATE patterns SET true_positives = $2, false_positives = $3, validated_at = $4 WHERE id = $1`
	if _, err := s.pool.Exec(ctx, q, patternID, truePositives, falsePositives, validatedAt); err != nil {
		return fmt.Errorf("setting pattern validation for %d: %w", patternID, err)
	}
	return nil
}

// GetPatternByName returns the pattern with the given name, or errs.ErrNotFound.
func (s *Store) GetPatternByName(ctx context.Context, name string) (*models.Pattern, error) {
	const q = patternSelectColumns + ` WHERE pattern_name = $1`
	return scanPattern(s.pool.QueryRow(ctx, q, name))
}

// ListActivePatterns returns every pattern with is_active = true.
func (s *Store) ListActivePatterns(ctx context.Context) ([]*models.Pattern, error) {
	rows, err := s.pool.Query(ctx, patternSelectColumns+` WHERE is_active = true ORDER BY pattern_name`)
	if err != nil {
		return nil, fmt.Errorf("listing active patterns: %w", err)
	}
	defer rows.Close()

	var out []*models.Pattern
	for rows.Next() {
		p, err := scanPatternRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const patternSelectColumns = `SELECT id, pattern_name, description, conditions, alert_threshold,
	true_positives, false_positives, is_active, validated_at, created_at FROM patterns`

// patternConditionsDTO is the JSONB shape persisted for a pattern's
// conditions: {rules: [{Field, Operator, Value, ValueHigh}], logic,
// min_matches} (models.Condition carries no json tags).
type patternConditionsDTO struct {
	Rules      []models.Condition `json:"rules"`
	Logic      models.Logic       `json:"logic"`
	MinMatches int                `json:"min_matches"`
}

func scanPattern(row pgx.Row) (*models.Pattern, error) {
	return scanPatternRows(row)
}

func scanPatternRows(row rowScanner) (*models.Pattern, error) {
	var p models.Pattern
	var conditionsJSON []byte
	err := row.Scan(&p.ID, &p.Name, &p.Description, &conditionsJSON, &p.AlertThreshold,
		&p.TruePositives, &p.FalsePositives, &p.IsActive, &p.ValidatedAt, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NewNotFound("pattern not found")
		}
		return nil, fmt.Errorf("scanning pattern: %w", err)
	}
	var dto patternConditionsDTO
	if err := json.Unmarshal(conditionsJSON, &dto); err != nil {
		return nil, fmt.Errorf("unmarshaling conditions: %w", err)
	}
	p.Conditions = dto.Rules
	p.Logic = dto.Logic
	p.MinMatches = dto.MinMatches
	return &p, nil
}
