package monitor

import (
	"testing"

	"github.com/polymarket-surveillance/insider-detector/config"
	"github.com/polymarket-surveillance/insider-detector/internal/models"
)

func ptr(v float64) *float64 { return &v }

func TestCrossesThreshold(t *testing.T) {
	cfg := config.MonitorConfig{AnomalyThreshold: 0.70, ProbabilityThreshold: 0.85}

	cases := []struct {
		name  string
		score *models.TradeScore
		want  bool
	}{
		{"anomaly crosses", &models.TradeScore{AnomalyScore: ptr(0.71)}, true},
		{"probability crosses", &models.TradeScore{InsiderProbability: ptr(0.90)}, true},
		{"neither crosses", &models.TradeScore{AnomalyScore: ptr(0.5), InsiderProbability: ptr(0.5)}, false},
		{"nil fields never coerced to cross", &models.TradeScore{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := crossesThreshold(tc.score, cfg); got != tc.want {
				t.Errorf("crossesThreshold() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTriggersFor(t *testing.T) {
	cases := []struct {
		name    string
		score   *models.TradeScore
		matched map[string]float64
		want    []models.AlertType
	}{
		{
			name:  "pattern match takes precedence in the set",
			score: &models.TradeScore{},
			matched: map[string]float64{"whale_trade": 1.0},
			want:    []models.AlertType{models.AlertTypePatternMatch},
		},
		{
			name:  "whale trade on extreme size z-score",
			score: &models.TradeScore{SizeZScore: ptr(3.5)},
			want:  []models.AlertType{models.AlertTypeWhaleTrade},
		},
		{
			name:  "timing suspicious on extreme timing z-score",
			score: &models.TradeScore{TimingZScore: ptr(-2.6)},
			want:  []models.AlertType{models.AlertTypeTimingSuspicious},
		},
		{
			name:  "multiple signals all recorded",
			score: &models.TradeScore{SizeZScore: ptr(3.1), TimingZScore: ptr(2.6)},
			want:  []models.AlertType{models.AlertTypeWhaleTrade, models.AlertTypeTimingSuspicious},
		},
		{
			name:  "no specific signal falls back to anomaly_threshold",
			score: &models.TradeScore{SizeZScore: ptr(1.0)},
			want:  []models.AlertType{models.AlertTypeAnomalyThreshold},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := triggersFor(tc.score, tc.matched)
			if len(got) != len(tc.want) {
				t.Fatalf("triggersFor() = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("triggersFor()[%d] = %s, want %s", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestBuildAlert_CollapsesMultipleTriggersToCombined(t *testing.T) {
	trade := &models.Trade{ID: 1, MarketID: 2, WalletAddress: "0xabc", TransactionHash: "0xhash"}
	market := &models.Market{ID: 2, Question: "Will X happen?"}
	score := &models.TradeScore{InsiderProbability: ptr(0.95), AnomalyScore: ptr(0.8)}

	alert := buildAlert(trade, market, score, []models.AlertType{models.AlertTypeWhaleTrade, models.AlertTypeTimingSuspicious})
	if alert.Type != models.AlertTypeCombined {
		t.Errorf("expected combined type for multiple triggers, got %s", alert.Type)
	}
	if alert.Severity != models.SeverityCritical {
		t.Errorf("expected critical severity for probability 0.95, got %s", alert.Severity)
	}
	if alert.Status != models.AlertStatusNew {
		t.Errorf("expected new status, got %s", alert.Status)
	}
	if alert.TradeID == nil || *alert.TradeID != 1 {
		t.Errorf("expected trade id 1, got %v", alert.TradeID)
	}
}

func TestBuildAlert_SingleTriggerKeepsItsType(t *testing.T) {
	trade := &models.Trade{ID: 1, MarketID: 2, WalletAddress: "0xabc"}
	market := &models.Market{ID: 2, Question: "Will Y happen?"}
	score := &models.TradeScore{InsiderProbability: ptr(0.4)}

	alert := buildAlert(trade, market, score, []models.AlertType{models.AlertTypePatternMatch})
	if alert.Type != models.AlertTypePatternMatch {
		t.Errorf("expected pattern_match type preserved, got %s", alert.Type)
	}
	if alert.Severity != models.SeverityLow {
		t.Errorf("expected low severity for probability 0.4, got %s", alert.Severity)
	}
}

func TestSeverityFromProbability(t *testing.T) {
	cases := []struct {
		p    float64
		want models.Severity
	}{
		{0.95, models.SeverityCritical},
		{0.9, models.SeverityCritical},
		{0.8, models.SeverityHigh},
		{0.7, models.SeverityHigh},
		{0.6, models.SeverityMedium},
		{0.5, models.SeverityMedium},
		{0.1, models.SeverityLow},
	}
	for _, tc := range cases {
		if got := severityFromProbability(tc.p); got != tc.want {
			t.Errorf("severityFromProbability(%v) = %s, want %s", tc.p, got, tc.want)
		}
	}
}

func TestContainsTrigger(t *testing.T) {
	triggers := []models.AlertType{models.AlertTypeWhaleTrade, models.AlertTypePatternMatch}
	if !containsTrigger(triggers, models.AlertTypePatternMatch) {
		t.Error("expected to find pattern_match trigger")
	}
	if containsTrigger(triggers, models.AlertTypeTimingSuspicious) {
		t.Error("did not expect to find timing_suspicious trigger")
	}
}
