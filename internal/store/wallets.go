package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/polymarket-surveillance/insider-detector/internal/errs"
	"github.com/polymarket-surveillance/insider-detector/internal/models"
)

// EnsureWalletSeen inserts a bare wallet row on first sighting, or bumps
// last_seen_at forward on an existing one -- the ingestor calls this for
// every trade before attaching derived wallet metrics.
func (s *Store) EnsureWalletSeen(ctx context.Context, address string, seenAt time.Time) error {
	const q = `
INSERT INTO wallets (address, first_seen_at, last_seen_at, last_aggregated_at)
VALUES ($1, $2, $2, $2)
ON CONFLICT (address) DO UPDATE SET
	last_seen_at = GREATEST(wallets.last_seen_at, EXCLUDED.last_seen_at)`
	if _, err := s.pool.Exec(ctx, q, address, seenAt); err != nil {
		return fmt.Errorf("ensuring wallet seen %s: %w", address, err)
	}
	return nil
}

// UpsertWallet inserts a new wallet row or updates the aggregates on an
// existing one, keyed on address.
func (s *Store) UpsertWallet(ctx context.Context, w *models.Wallet) error {
	const q = `
INSERT INTO wallets (
	address, total_trades, total_volume, unique_markets, resolved_positions,
	wins, losses, win_rate, first_seen_at, last_seen_at, last_aggregated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (address) DO UPDATE SET
	total_trades = EXCLUDED.total_trades,
	total_volume = EXCLUDED.total_volume,
	unique_markets = EXCLUDED.unique_markets,
	resolved_positions = EXCLUDED.resolved_positions,
	wins = EXCLUDED.wins,
	losses = EXCLUDED.losses,
	win_rate = EXCLUDED.win_rate,
	last_seen_at = EXCLUDED.last_seen_at,
	last_aggregated_at = EXCLUDED.last_aggregated_at`

	_, err := s.pool.Exec(ctx, q, w.Address, w.TotalTrades, w.TotalVolume, w.UniqueMarkets,
		w.ResolvedPositions, w.Wins, w.Losses, w.WinRate, w.FirstSeenAt, w.LastSeenAt, w.LastAggregatedAt)
	if err != nil {
		return fmt.Errorf("upserting wallet %s: %w", w.Address, err)
	}
	return nil
}

// GetWalletByAddress returns the wallet with the given address, or
// errs.ErrNotFound if it does not exist.
func (s *Store) GetWalletByAddress(ctx context.Context, address string) (*models.Wallet, error) {
	const q = `SELECT address, total_trades, total_volume, unique_markets, resolved_positions,
		wins, losses, win_rate, first_seen_at, last_seen_at, last_aggregated_at
		FROM wallets WHERE address = $1`
	var w models.Wallet
	err := s.pool.QueryRow(ctx, q, address).Scan(&w.Address, &w.TotalTrades, &w.TotalVolume,
		&w.UniqueMarkets, &w.ResolvedPositions, &w.Wins, &w.Losses, &w.WinRate,
		&w.FirstSeenAt, &w.LastSeenAt, &w.LastAggregatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NewNotFound("wallet not found")
		}
		return nil, fmt.Errorf("scanning wallet: %w", err)
	}
	return &w, nil
}
