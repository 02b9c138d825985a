package patterns

import "github.com/polymarket-surveillance/insider-detector/internal/models"

// SeedPatterns returns the documented default patterns for this venue,
// as Go literals. These are the starting rule set;
// Validate tunes their precision/recall over time but never changes their
// conditions.
func SeedPatterns() []*models.Pattern {
	return []*models.Pattern{
		{
			Name:        "whale_trade",
			Description: "Unusually large position size relative to the category baseline.",
			Logic:       models.LogicAND,
			Conditions: []models.Condition{
				{Field: "z_size", Operator: models.OpGTE, Value: 3},
			},
			AlertThreshold: 0.5,
			IsActive:       true,
		},
		{
			Name:        "whale_correct",
			Description: "A whale-sized trade that landed on the winning outcome.",
			Logic:       models.LogicAND,
			Conditions: []models.Condition{
				{Field: "z_size", Operator: models.OpGTE, Value: 3},
				{Field: "was_correct", Operator: models.OpEQ, Value: 1},
			},
			AlertThreshold: 0.5,
			IsActive:       true,
		},
		{
			Name:        "extreme_whale_correct",
			Description: "Extreme-size correct trade placed near a price extreme.",
			Logic:       models.LogicAND,
			Conditions: []models.Condition{
				{Field: "z_size", Operator: models.OpGTE, Value: 4},
				{Field: "was_correct", Operator: models.OpEQ, Value: 1},
				{Field: "price_extremity", Operator: models.OpGTE, Value: 0.4},
			},
			AlertThreshold: 0.5,
			IsActive:       true,
		},
		{
			Name:        "high_anomaly",
			Description: "Combined anomaly score alone clears the high-severity band.",
			Logic:       models.LogicAND,
			Conditions: []models.Condition{
				{Field: "anomaly_score", Operator: models.OpGTE, Value: 0.7},
			},
			AlertThreshold: 0.5,
			IsActive:       true,
		},
		{
			Name:        "high_anomaly_correct",
			Description: "High anomaly score on a trade that turned out correct.",
			Logic:       models.LogicAND,
			Conditions: []models.Condition{
				{Field: "anomaly_score", Operator: models.OpGTE, Value: 0.7},
				{Field: "was_correct", Operator: models.OpEQ, Value: 1},
			},
			AlertThreshold: 0.5,
			IsActive:       true,
		},
		{
			Name:        "extreme_price_correct",
			Description: "Correct trade placed deep in an already-resolved-looking price.",
			Logic:       models.LogicAND,
			Conditions: []models.Condition{
				{Field: "price_extremity", Operator: models.OpGTE, Value: 0.45},
				{Field: "was_correct", Operator: models.OpEQ, Value: 1},
			},
			AlertThreshold: 0.5,
			IsActive:       true,
		},
		{
			Name:        "multi_signal",
			Description: "At least two independent anomaly signals clear threshold together.",
			Logic:       models.LogicOR,
			MinMatches:  2,
			Conditions: []models.Condition{
				{Field: "z_size", Operator: models.OpGTE, Value: 2},
				{Field: "z_timing", Operator: models.OpGTE, Value: 2},
				{Field: "z_wallet_age", Operator: models.OpGTE, Value: 2},
				{Field: "z_price_extremity", Operator: models.OpGTE, Value: 2},
			},
			AlertThreshold: 0.5,
			IsActive:       true,
		},
		{
			Name:        "perfect_storm",
			Description: "Size, timing, and wallet age all clear the trinity threshold at once.",
			Logic:       models.LogicAND,
			Conditions: []models.Condition{
				{Field: "z_size", Operator: models.OpGTE, Value: models.TrinityZScoreThreshold},
				{Field: "z_timing", Operator: models.OpGTE, Value: models.TrinityZScoreThreshold},
				{Field: "z_wallet_age", Operator: models.OpGTE, Value: models.TrinityZScoreThreshold},
			},
			AlertThreshold: 0.5,
			IsActive:       true,
		},
	}
}
