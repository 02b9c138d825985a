// Package patterns evaluates the declarative rule DSL against scored
// trades, and validates each pattern's precision/recall/F1/lift against a
// labeled confirmed-insider set.
package patterns

import "github.com/polymarket-surveillance/insider-detector/internal/models"

// fields merges a trade and its score into the flat metric lookup a
// Condition evaluates against. A metric absent from the map (rather than a
// coerced zero) makes the condition fail -- a missing metric always fails
// the rule.
func fields(trade *models.Trade, score *models.TradeScore) map[string]float64 {
	m := make(map[string]float64, 20)

	putPtr := func(name string, v *float64) {
		if v != nil {
			m[name] = *v
		}
	}

	m["size"] = trade.Size
	m["usdc_size"] = trade.USDCSize
	m["price"] = trade.Price
	m["price_extremity"] = trade.PriceExtremity
	putPtr("hours_before_resolution", trade.HoursBeforeResolution)
	putPtr("wallet_age_days", trade.WalletAgeDays)
	if trade.WalletTradeCount != nil {
		m["wallet_trade_count"] = float64(*trade.WalletTradeCount)
	}
	if trade.WasCorrect != nil {
		if *trade.WasCorrect {
			m["was_correct"] = 1
		} else {
			m["was_correct"] = 0
		}
	}
	putPtr("profit_loss", trade.ProfitLoss)

	if score != nil {
		putPtr("z_size", score.SizeZScore)
		putPtr("z_usdc_size", score.USDCSizeZScore)
		putPtr("z_timing", score.TimingZScore)
		putPtr("z_wallet_age", score.WalletAgeZScore)
		putPtr("z_wallet_activity", score.WalletActivityZScore)
		putPtr("z_price_extremity", score.PriceExtremityZScore)
		putPtr("z_position_concentration", score.PositionConcentrationZScore)
		putPtr("z_funding_proximity", score.FundingProximityZScore)
		putPtr("anomaly_score", score.AnomalyScore)
		putPtr("insider_probability", score.InsiderProbability)
		if score.TrinityPattern {
			m["trinity_pattern"] = 1
		} else {
			m["trinity_pattern"] = 0
		}
	}
	return m
}

// evalCondition applies one rule's operator numerically, using |a-b| < 1e-9
// for equality/inequality to absorb float noise.
func evalCondition(c models.Condition, f map[string]float64) bool {
	v, ok := f[c.Field]
	if !ok {
		return false
	}
	switch c.Operator {
	case models.OpGTE:
		return v >= c.Value
	case models.OpGT:
		return v > c.Value
	case models.OpLTE:
		return v <= c.Value
	case models.OpLT:
		return v < c.Value
	case models.OpEQ:
		return floatsEqual(v, c.Value)
	case models.OpNEQ:
		return !floatsEqual(v, c.Value)
	case models.OpBetween:
		if c.ValueHigh == nil {
			return false
		}
		return v >= c.Value && v <= *c.ValueHigh
	default:
		return false
	}
}

func floatsEqual(a, b float64) bool {
	const eps = 1e-9
	d := a - b
	return d > -eps && d < eps
}

// evalPattern evaluates a pattern's conditions: AND requires
// every condition to pass (score 1.0 on match), OR requires at least
// MinMatches (default 1) to pass (score = matches/total).
func evalPattern(p *models.Pattern, f map[string]float64) (matched bool, score float64) {
	if len(p.Conditions) == 0 {
		return false, 0
	}
	matches := 0
	for _, c := range p.Conditions {
		if evalCondition(c, f) {
			matches++
		}
	}
	switch p.Logic {
	case models.LogicAND:
		if matches == len(p.Conditions) {
			return true, 1.0
		}
		return false, 0
	case models.LogicOR:
		minMatches := p.MinMatches
		if minMatches <= 0 {
			minMatches = 1
		}
		if matches >= minMatches {
			return true, float64(matches) / float64(len(p.Conditions))
		}
		return false, 0
	default:
		return false, 0
	}
}
