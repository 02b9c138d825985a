package centralapi

import (
	"encoding/json"
)

// GammaMarket is the external Gamma API's market representation, field
// names read verbatim. Its flexible-encoding parse methods live in
// flexjson.go so every field shares one implementation.
type GammaMarket struct {
	ID            string          `json:"id"`
	Slug          string          `json:"slug"`
	Question      string          `json:"question"`
	ConditionID   string          `json:"conditionId"`
	ClobTokenIDs  json.RawMessage `json:"clobTokenIds"`
	Outcomes      json.RawMessage `json:"outcomes"`
	OutcomePrices json.RawMessage `json:"outcomePrices"`
	Volume        float64         `json:"volumeNum"`
	Volume24hr    float64         `json:"volume24hr"`
	Liquidity     float64         `json:"liquidityNum"`
	Active        bool            `json:"active"`
	Closed        bool            `json:"closed"`
	EndDate       string          `json:"endDate"`
	ClosedTime    string          `json:"closedTime"`
	WinningOutcome string         `json:"winningOutcome,omitempty"`
	Category      string          `json:"category,omitempty"`
	EventBased    bool            `json:"eventBased,omitempty"`
}

// GetOutcomes parses the Outcomes field, handling both native-array and
// JSON-string-encoded-array forms.
func (m *GammaMarket) GetOutcomes() []string {
	return flexStringArray(m.Outcomes)
}

// GetOutcomePrices parses the OutcomePrices field: native float array, native string array, or either wrapped
// in a JSON-encoded string.
func (m *GammaMarket) GetOutcomePrices() []float64 {
	return flexFloatArray(m.OutcomePrices)
}

// GetTokenIDs parses ClobTokenIDs, flattening the Gamma API's occasional
// double-encoding.
func (m *GammaMarket) GetTokenIDs() []string {
	return flexStringArray(m.ClobTokenIDs)
}

// GetWinningOutcome returns the resolved outcome and its index, or ("", -1)
// if the market isn't closed or resolution can't be determined. A price
// above 0.99 marks the winner; if more
// than one outcome clears that bar the resolution is ambiguous and the
// method returns ("", -1) as well.
func (m *GammaMarket) GetWinningOutcome() (string, int) {
	if !m.Closed {
		return "", -1
	}
	outcomes := m.GetOutcomes()
	if m.WinningOutcome != "" {
		for i, o := range outcomes {
			if o == m.WinningOutcome {
				return o, i
			}
		}
	}
	prices := m.GetOutcomePrices()
	if len(prices) == 0 || len(prices) != len(outcomes) {
		return "", -1
	}
	winner := -1
	for i, p := range prices {
		if p > 0.99 {
			if winner != -1 {
				return "", -1 // ambiguous: more than one outcome above 0.99
			}
			winner = i
		}
	}
	if winner == -1 {
		return "", -1
	}
	return outcomes[winner], winner
}
