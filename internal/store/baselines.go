package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/polymarket-surveillance/insider-detector/internal/errs"
	"github.com/polymarket-surveillance/insider-detector/internal/models"
)

// UpsertBaseline inserts or replaces the baseline for a (category, metric)
// pair, unique on that pair.
func (s *Store) UpsertBaseline(ctx context.Context, b *models.Baseline) (int64, error) {
	const q = `
INSERT INTO baselines (
	category, metric, normal_mean, normal_stddev, normal_median, normal_p75,
	normal_p90, normal_p95, normal_p99, normal_sample_count, insider_mean,
	insider_stddev, insider_sample_count, separation_score, calculated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
ON CONFLICT (category, metric) DO UPDATE SET
	normal_mean = EXCLUDED.normal_mean,
	normal_stddev = EXCLUDED.normal_stddev,
	normal_median = EXCLUDED.normal_median,
	normal_p75 = EXCLUDED.normal_p75,
	normal_p90 = EXCLUDED.normal_p90,
	normal_p95 = EXCLUDED.normal_p95,
	normal_p99 = EXCLUDED.normal_p99,
	normal_sample_count = EXCLUDED.normal_sample_count,
	insider_mean = EXCLUDED.insider_mean,
	insider_stddev = EXCLUDED.insider_stddev,
	insider_sample_count = EXCLUDED.insider_sample_count,
	separation_score = EXCLUDED.separation_score,
	calculated_at = EXCLUDED.calculated_at
RETURNING id`

	var id int64
	err := s.pool.QueryRow(ctx, q, string(b.Category), string(b.Metric),
		b.Normal.Mean, b.Normal.StdDev, b.Normal.Median, b.Normal.P75, b.Normal.P90, b.Normal.P95, b.Normal.P99, b.Normal.SampleCount,
		b.Insider.Mean, b.Insider.StdDev, b.Insider.SampleCount, b.SeparationScore, b.CalculatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting baseline %s/%s: %w", b.Category, b.Metric, err)
	}
	return id, nil
}

// GetBaseline returns the baseline for a (category, metric) pair, or
// errs.ErrNotFound.
func (s *Store) GetBaseline(ctx context.Context, category models.Category, metric models.Metric) (*models.Baseline, error) {
	const q = baselineSelectColumns + ` WHERE category = $1 AND metric = $2`
	return scanBaseline(s.pool.QueryRow(ctx, q, string(category), string(metric)))
}

// ListBaselines returns every stored baseline.
func (s *Store) ListBaselines(ctx context.Context) ([]*models.Baseline, error) {
	rows, err := s.pool.Query(ctx, baselineSelectColumns+` ORDER BY category, metric`)
	if err != nil {
		return nil, fmt.Errorf("listing baselines: %w", err)
	}
	defer rows.Close()

	var out []*models.Baseline
	for rows.Next() {
		b, err := scanBaselineRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

const baselineSelectColumns = `SELECT id, category, metric, normal_mean, normal_stddev, normal_median,
	normal_p75, normal_p90, normal_p95, normal_p99, normal_sample_count, insider_mean,
	insider_stddev, insider_sample_count, separation_score, calculated_at FROM baselines`

func scanBaseline(row pgx.Row) (*models.Baseline, error) {
	return scanBaselineRows(row)
}

func scanBaselineRows(row rowScanner) (*models.Baseline, error) {
	var b models.Baseline
	var category, metric string
	err := row.Scan(&b.ID, &category, &metric, &b.Normal.Mean, &b.Normal.StdDev, &b.Normal.Median,
		&b.Normal.P75, &b.Normal.P90, &b.Normal.P95, &b.Normal.P99, &b.Normal.SampleCount,
		&b.Insider.Mean, &b.Insider.StdDev, &b.Insider.SampleCount, &b.SeparationScore, &b.CalculatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NewNotFound("baseline not found")
		}
		return nil, fmt.Errorf("scanning baseline: %w", err)
	}
	b.Category = models.Category(category)
	b.Metric = models.Metric(metric)
	return &b, nil
}
