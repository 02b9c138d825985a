package scoring

import "github.com/polymarket-surveillance/insider-detector/internal/models"

// concentrationMean/StdDev are the fixed empirical parameters used to
// convert position concentration (an already-normalized [0,1] ratio) into a
// z-score, deliberately bypassing the
// data-driven baseline engine.
const (
	concentrationMean   = 0.6
	concentrationStdDev = 0.2
)

// PositionConcentration computes the signed net position per outcome across
// a wallet's trades on one market (BUY adds, SELL subtracts), then derives a
// concentration ratio in [0,1]: D = max|net|, T = sum|net|; raw = D/T in
// [0.5,1] when T>0 else concentration=0; concentration = max(0, (raw-0.5)*2).
func PositionConcentration(trades []*models.Trade) float64 {
	net := make(map[string]float64)
	for _, t := range trades {
		switch t.Side {
		case models.SideBuy:
			net[t.Outcome] += t.Size
		case models.SideSell:
			net[t.Outcome] -= t.Size
		}
	}

	var maxAbs, total float64
	for _, v := range net {
		abs := v
		if abs < 0 {
			abs = -abs
		}
		total += abs
		if abs > maxAbs {
			maxAbs = abs
		}
	}
	if total == 0 {
		return 0
	}
	raw := maxAbs / total
	concentration := (raw - 0.5) * 2
	if concentration < 0 {
		concentration = 0
	}
	return concentration
}

// ConcentrationZScore converts a concentration ratio to a z-score using the
// fixed empirical parameters rather than a learned baseline.
func ConcentrationZScore(concentration float64) float64 {
	return (concentration - concentrationMean) / concentrationStdDev
}
