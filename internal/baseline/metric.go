package baseline

import "github.com/polymarket-surveillance/insider-detector/internal/models"

// metricValue extracts the raw value of a metric from a trade, returning
// ok=false when the underlying field is null.
func metricValue(t *models.Trade, metric models.Metric) (float64, bool) {
	switch metric {
	case models.MetricSize:
		return t.Size, true
	case models.MetricUSDCSize:
		return t.USDCSize, true
	case models.MetricTiming:
		if t.HoursBeforeResolution == nil {
			return 0, false
		}
		return *t.HoursBeforeResolution, true
	case models.MetricWalletAge:
		if t.WalletAgeDays == nil {
			return 0, false
		}
		return *t.WalletAgeDays, true
	case models.MetricWalletActivity:
		if t.WalletTradeCount == nil {
			return 0, false
		}
		return float64(*t.WalletTradeCount), true
	case models.MetricPriceExtremity:
		return t.PriceExtremity, true
	default:
		return 0, false
	}
}

// metricValues extracts every non-null value of metric across trades.
func metricValues(trades []*models.Trade, metric models.Metric) []float64 {
	out := make([]float64, 0, len(trades))
	for _, t := range trades {
		if v, ok := metricValue(t, metric); ok {
			out = append(out, v)
		}
	}
	return out
}
