package models

import "time"

// Metric is the closed set of metrics a baseline tracks.
type Metric string

const (
	MetricSize            Metric = "size"
	MetricUSDCSize         Metric = "usdc_size"
	MetricTiming          Metric = "timing"
	MetricWalletAge        Metric = "wallet_age"
	MetricWalletActivity    Metric = "wallet_activity"
	MetricPriceExtremity   Metric = "price_extremity"
)

// AllMetrics lists every metric a per-category baseline is computed for.
// All six back the scorer's six baseline-backed z-scores; the usdc_size
// z-score feeds only the legacy RMS score, not the weighted one (the
// seventh and eighth, position_concentration and funding_proximity, are
// computed without a stored baseline -- section 4.6).
var AllMetrics = []Metric{
	MetricSize, MetricUSDCSize, MetricTiming, MetricWalletAge, MetricWalletActivity, MetricPriceExtremity,
}

// DistributionStats holds the descriptive statistics computed over a sample.
type DistributionStats struct {
	Mean        float64
	StdDev      float64
	Median      float64
	P75         float64
	P90         float64
	P95         float64
	P99         float64
	SampleCount int
}

// Baseline is the statistical distribution for one (category, metric) pair,
// tracking both the normal population and the insider population in
// parallel for separation scoring.
type Baseline struct {
	ID              int64
	Category        Category
	Metric          Metric
	Normal          DistributionStats
	Insider         DistributionStats
	SeparationScore *float64
	CalculatedAt    time.Time
}

// MaxSeparationScore is the clamp applied to a baseline's Cohen's d.
const MaxSeparationScore = 9.9999

// MinSamplesForBaseline is the minimum sample count required before a
// baseline is persisted.
const MinSamplesForBaseline = 10
