package scoring

import "math"

// weight is the fixed per-feature weight in the weighted anomaly-score mode.
var weight = map[string]float64{
	"size":                  0.25,
	"timing":                0.25,
	"wallet_age":            0.20,
	"position_concentration": 0.15,
	"wallet_activity":       0.08,
	"price_extremity":       0.04,
	"funding_proximity":     0.03,
}

// clampUnit clamps zScoreFraction := min(|z|/3, 1), the normalization every
// anomaly-score mode shares.
func clampUnit(z *float64) float64 {
	if z == nil {
		return 0
	}
	f := math.Abs(*z) / 3
	if f > 1 {
		return 1
	}
	return f
}

// WeightedAnomalyScore implements the weighted scoring
// mode: sum of wi * min(|zi|/3, 1) over the seven fixed weights. A nil
// z-score contributes 0, never a substituted value -- it simply drops out
// of the weighted sum (its weight still applies to an input of 0 fraction,
// not a coerced zero z-score feeding some other formula).
func WeightedAnomalyScore(zSize, zTiming, zWalletAge, zConcentration, zWalletActivity, zPriceExtremity, zFundingProximity *float64) float64 {
	score := weight["size"]*clampUnit(zSize) +
		weight["timing"]*clampUnit(zTiming) +
		weight["wallet_age"]*clampUnit(zWalletAge) +
		weight["position_concentration"]*clampUnit(zConcentration) +
		weight["wallet_activity"]*clampUnit(zWalletActivity) +
		weight["price_extremity"]*clampUnit(zPriceExtremity) +
		weight["funding_proximity"]*clampUnit(zFundingProximity)
	if score > 1 {
		return 1
	}
	return score
}

// LegacyAnomalyScore implements the legacy scoring mode:
// RMS of the supplied z-scores normalized by 3 stddev, clamped to [0,1].
func LegacyAnomalyScore(zScores []*float64) float64 {
	var present []*float64
	for _, z := range zScores {
		if z != nil {
			present = append(present, z)
		}
	}
	if len(present) == 0 {
		return 0
	}
	var sumSq float64
	for _, z := range present {
		sumSq += (*z) * (*z)
	}
	rms := math.Sqrt(sumSq / float64(len(present)))
	score := rms / 3
	if score > 1 {
		return 1
	}
	return score
}

// ApplyTrinityBoost multiplies the anomaly score by boost when all three
// trinity features (size, timing, wallet_age) clear threshold in absolute
// value, clamping the result to 1. Returns the
// possibly-boosted score and whether the trinity pattern fired.
func ApplyTrinityBoost(score float64, zSize, zTiming, zWalletAge *float64, threshold, boost float64) (float64, bool) {
	if !clearsThreshold(zSize, threshold) || !clearsThreshold(zTiming, threshold) || !clearsThreshold(zWalletAge, threshold) {
		return score, false
	}
	boosted := score * boost
	if boosted > 1 {
		boosted = 1
	}
	return boosted, true
}

func clearsThreshold(z *float64, threshold float64) bool {
	return z != nil && math.Abs(*z) >= threshold
}

// InsiderProbability computes 0.4*anomaly + 0.4*patternScore + 0.2*(1 if
// wasCorrect else 0), clamped to 1.
func InsiderProbability(anomalyScore, patternScore float64, wasCorrect *bool) float64 {
	correctTerm := 0.0
	if wasCorrect != nil && *wasCorrect {
		correctTerm = 1.0
	}
	p := 0.4*anomalyScore + 0.4*patternScore + 0.2*correctTerm
	if p > 1 {
		return 1
	}
	return p
}
