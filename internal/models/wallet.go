package models

import "time"

// Wallet is an address that has placed at least one trade.
type Wallet struct {
	Address           string
	TotalTrades       int
	TotalVolume       float64
	UniqueMarkets     int
	ResolvedPositions int
	Wins              int
	Losses            int
	WinRate           *float64
	FirstSeenAt       time.Time
	LastSeenAt        time.Time
	LastAggregatedAt  time.Time
}

// RecomputeWinRate recalculates WinRate from Wins/Losses, leaving it nil when
// undefined (no resolved positions yet).
func (w *Wallet) RecomputeWinRate() {
	total := w.Wins + w.Losses
	if total == 0 {
		w.WinRate = nil
		return
	}
	rate := float64(w.Wins) / float64(total)
	w.WinRate = &rate
}

// AgeDays returns the wallet age in days at the given instant, floored at 0
// when the reference time precedes FirstSeenAt.
func (w *Wallet) AgeDays(at time.Time) float64 {
	d := at.Sub(w.FirstSeenAt).Hours() / 24.0
	if d < 0 {
		return 0
	}
	return d
}
