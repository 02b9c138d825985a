package discovery

import (
	"testing"
	"time"

	"github.com/polymarket-surveillance/insider-detector/internal/models"
	"github.com/polymarket-surveillance/insider-detector/internal/store"
)

func ptr(v float64) *float64 { return &v }

func TestPriorityFromProbability(t *testing.T) {
	cases := []struct {
		p    float64
		want models.Priority
	}{
		{0.95, models.PriorityCritical},
		{0.9, models.PriorityCritical},
		{0.8, models.PriorityHigh},
		{0.7, models.PriorityHigh},
		{0.6, models.PriorityMedium},
		{0.5, models.PriorityMedium},
		{0.2, models.PriorityLow},
	}
	for _, tc := range cases {
		if got := priorityFromProbability(tc.p); got != tc.want {
			t.Errorf("priorityFromProbability(%v) = %s, want %s", tc.p, got, tc.want)
		}
	}
}

func TestTopAndMedian(t *testing.T) {
	top, median := topAndMedian(nil)
	if top != nil || median != nil {
		t.Fatal("expected nil/nil for empty input")
	}

	top, median = topAndMedian([]float64{0.5, 0.9, 0.1, 0.7})
	if top == nil || *top != 0.9 {
		t.Errorf("unexpected top: %v", top)
	}
	// sorted: 0.1, 0.5, 0.7, 0.9 -> median of even count averages the middle two
	if median == nil || *median != 0.6 {
		t.Errorf("unexpected median: %v", median)
	}

	_, median = topAndMedian([]float64{0.3, 0.6, 0.9})
	if median == nil || *median != 0.6 {
		t.Errorf("unexpected odd-count median: %v", median)
	}
}

func TestMaterialize_CopiesAnomalyBreakdownAndDerivesPriority(t *testing.T) {
	now := time.Now().UTC()
	row := store.DiscoveryRow{
		Trade: &models.Trade{
			ID:              42,
			MarketID:        7,
			WalletAddress:   "0xabc",
			TransactionHash: "0xhash",
			Side:            models.SideBuy,
			Size:            100,
			Price:           0.9,
			USDCSize:        90,
		},
		Score: &models.TradeScore{
			ID:                 9,
			TradeID:            42,
			SizeZScore:         ptr(3.1),
			AnomalyScore:       ptr(0.82),
			InsiderProbability: ptr(0.91),
			TrinityPattern:     true,
			Severity:           models.SeverityCritical,
		},
		Market: &models.Market{
			ID:          7,
			ConditionID: "cond-1",
			Question:    "Will X happen?",
			Category:    models.CategoryPolitics,
		},
	}

	c, err := materialize("batch-1", 1, row, now)
	if err != nil {
		t.Fatalf("materialize returned error: %v", err)
	}
	if c.Priority != models.PriorityCritical {
		t.Errorf("expected critical priority for probability 0.91, got %s", c.Priority)
	}
	if c.DiscoveryRank != 1 {
		t.Errorf("expected discovery_rank 1, got %d", c.DiscoveryRank)
	}
	if c.AnomalyScore != 0.82 {
		t.Errorf("expected anomaly_score copied from score, got %v", c.AnomalyScore)
	}
	if c.Context["question"] != "Will X happen?" {
		t.Errorf("expected denormalized market question in context, got %v", c.Context["question"])
	}
	if c.Context["z_size"] != row.Score.SizeZScore {
		t.Errorf("expected z_size in context to alias the score's pointer")
	}
}

func TestMaterialize_NilScoreErrors(t *testing.T) {
	row := store.DiscoveryRow{
		Trade: &models.Trade{ID: 1},
	}
	if _, err := materialize("batch-1", 1, row, time.Now().UTC()); err == nil {
		t.Fatal("expected error for a discovery row missing its score")
	}
}
