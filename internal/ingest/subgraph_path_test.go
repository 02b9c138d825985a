package ingest

import (
	"testing"

	"github.com/polymarket-surveillance/insider-detector/internal/fetch/subgraph"
	"github.com/polymarket-surveillance/insider-detector/internal/models"
)

func TestClassifyOrderFilledEvent(t *testing.T) {
	tests := []struct {
		name     string
		evt      subgraph.OrderFilledEvent
		wantSide models.Side
		wantAddr string
		wantTok  string
	}{
		{
			name:     "maker selling outcome token",
			evt:      subgraph.OrderFilledEvent{Maker: "0xmaker", Taker: "0xtaker", MakerAssetID: "12345", TakerAssetID: "0"},
			wantSide: models.SideSell,
			wantAddr: "0xmaker",
			wantTok:  "12345",
		},
		{
			name:     "taker buying with outcome token",
			evt:      subgraph.OrderFilledEvent{Maker: "0xmaker", Taker: "0xtaker", MakerAssetID: "0", TakerAssetID: "67890"},
			wantSide: models.SideBuy,
			wantAddr: "0xtaker",
			wantTok:  "67890",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			side, wallet, tokenID := classifyOrderFilledEvent(tt.evt)
			if side != tt.wantSide || wallet != tt.wantAddr || tokenID != tt.wantTok {
				t.Errorf("classifyOrderFilledEvent() = (%v, %v, %v), want (%v, %v, %v)",
					side, wallet, tokenID, tt.wantSide, tt.wantAddr, tt.wantTok)
			}
		})
	}
}

func TestSyntheticConditionID(t *testing.T) {
	tests := []struct {
		tokenID string
		want    string
	}{
		{"123", "token_123"},
		{"12345678901234567890123456789012345678", "token_12345678901234567890123456789012"},
	}
	for _, tt := range tests {
		got := syntheticConditionID(tt.tokenID)
		if got != tt.want {
			t.Errorf("syntheticConditionID(%q) = %q, want %q", tt.tokenID, got, tt.want)
		}
	}
}

func TestParseWeiAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"5000000", 5.0},
		{"1500000", 1.5},
		{"not-a-number", 0},
	}
	for _, tt := range tests {
		got := parseWeiAmount(tt.raw)
		if got != tt.want {
			t.Errorf("parseWeiAmount(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestRoundTo4(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.123456, 0.1235},
		{0.5, 0.5},
		{0.99995, 1.0},
	}
	for _, tt := range tests {
		if got := roundTo4(tt.in); got != tt.want {
			t.Errorf("roundTo4(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
