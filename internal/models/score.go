package models

import "time"

// TradeScore is the per-trade anomaly scoring record. Every z-score field is
// nullable: a metric that could not be computed (missing baseline, missing
// input) is never coerced to 0, it's simply left absent.
type TradeScore struct {
	ID                        int64
	TradeID                   int64
	SizeZScore                *float64
	USDCSizeZScore             *float64
	TimingZScore              *float64
	WalletAgeZScore           *float64
	WalletActivityZScore       *float64
	PriceExtremityZScore      *float64
	PositionConcentrationZScore *float64
	FundingProximityZScore    *float64
	AnomalyScore              *float64
	InsiderProbability        *float64
	TrinityPattern            bool
	MatchedPatterns           map[string]bool
	Severity                  Severity
	ScoredAt                  time.Time
}

// Severity buckets the final anomaly score.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityFromScore buckets a combined anomaly score into a Severity using
// fixed thresholds.
func SeverityFromScore(score float64) Severity {
	switch {
	case score >= 0.85:
		return SeverityCritical
	case score >= 0.70:
		return SeverityHigh
	case score >= 0.50:
		return SeverityMedium
	case score >= 0.30:
		return SeverityLow
	default:
		return SeverityNone
	}
}

// TrinityZScoreThreshold is the per-feature z-score floor the trinity boost
// requires on size, timing, and wallet-age simultaneously (section 4.6).
const TrinityZScoreThreshold = 2.0

// TrinityBoost is the multiplicative boost applied to the anomaly score when
// all three trinity features exceed TrinityZScoreThreshold.
const TrinityBoost = 1.25
