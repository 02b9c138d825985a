package ingest

import (
	"testing"

	"github.com/polymarket-surveillance/insider-detector/internal/fetch"
)

func TestParseCentralTradeEvent(t *testing.T) {
	raw := fetch.RawRecord{
		"proxyWallet":     "0xabc",
		"side":            "BUY",
		"size":            100.0,
		"price":           0.62,
		"timestamp":       float64(1700000000),
		"conditionId":     "0xcond",
		"outcome":         "Yes",
		"outcomeIndex":    float64(0),
		"transactionHash": "0xtx",
	}

	evt, err := parseCentralTradeEvent(raw)
	if err != nil {
		t.Fatalf("parseCentralTradeEvent() error = %v", err)
	}
	if evt.ProxyWallet != "0xabc" || evt.Side != "BUY" || evt.ConditionID != "0xcond" {
		t.Errorf("parsed event mismatch: %+v", evt)
	}
	if evt.USDCSize != 100.0*0.62 {
		t.Errorf("derived USDCSize = %v, want %v", evt.USDCSize, 100.0*0.62)
	}
}

func TestParseCentralTradeEvent_MissingRequiredFields(t *testing.T) {
	_, err := parseCentralTradeEvent(fetch.RawRecord{"side": "BUY"})
	if err == nil {
		t.Fatal("expected validation error for missing required fields")
	}
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		in     any
		want   float64
		wantOK bool
	}{
		{float64(1.5), 1.5, true},
		{int(3), 3.0, true},
		{"2.25", 2.25, true},
		{true, 0, false},
	}
	for _, tt := range tests {
		got, ok := toFloat(tt.in)
		if ok != tt.wantOK || (ok && got != tt.want) {
			t.Errorf("toFloat(%v) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
