package baseline

import (
	"testing"

	"github.com/polymarket-surveillance/insider-detector/internal/models"
)

func TestMetricValue_NullFieldsExcluded(t *testing.T) {
	trade := &models.Trade{Size: 100, PriceExtremity: 0.2}

	if _, ok := metricValue(trade, models.MetricTiming); ok {
		t.Error("expected timing to be unavailable when HoursBeforeResolution is nil")
	}
	if v, ok := metricValue(trade, models.MetricSize); !ok || v != 100 {
		t.Errorf("metricValue(size) = (%v, %v), want (100, true)", v, ok)
	}
}

func TestMetricValues_SkipsNulls(t *testing.T) {
	hours := 12.0
	trades := []*models.Trade{
		{HoursBeforeResolution: &hours},
		{HoursBeforeResolution: nil},
		{HoursBeforeResolution: &hours},
	}
	values := metricValues(trades, models.MetricTiming)
	if len(values) != 2 {
		t.Fatalf("len(values) = %d, want 2", len(values))
	}
}
