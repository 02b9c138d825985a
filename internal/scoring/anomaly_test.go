package scoring

import "testing"

func f(v float64) *float64 { return &v }

func TestWeightedAnomalyScore_NilZScoresContributeZero(t *testing.T) {
	score := WeightedAnomalyScore(nil, nil, nil, nil, nil, nil, nil)
	if score != 0 {
		t.Errorf("WeightedAnomalyScore with all nils = %v, want 0", score)
	}
}

func TestWeightedAnomalyScore_ClampedToOne(t *testing.T) {
	big := f(100)
	score := WeightedAnomalyScore(big, big, big, big, big, big, big)
	if score != 1 {
		t.Errorf("WeightedAnomalyScore with all-extreme inputs = %v, want 1", score)
	}
}

func TestLegacyAnomalyScore_EmptyIsZero(t *testing.T) {
	if score := LegacyAnomalyScore(nil); score != 0 {
		t.Errorf("LegacyAnomalyScore(nil) = %v, want 0", score)
	}
}

func TestApplyTrinityBoost_FiresOnlyWhenAllThreeClearThreshold(t *testing.T) {
	threshold, boost := 2.0, 1.25

	boosted, fired := ApplyTrinityBoost(0.5, f(2.5), f(2.1), f(3.0), threshold, boost)
	if !fired {
		t.Fatal("expected trinity pattern to fire")
	}
	if boosted != 0.625 {
		t.Errorf("boosted score = %v, want 0.625", boosted)
	}

	_, fired = ApplyTrinityBoost(0.5, f(1.0), f(2.1), f(3.0), threshold, boost)
	if fired {
		t.Error("expected trinity pattern not to fire when one feature misses threshold")
	}

	_, fired = ApplyTrinityBoost(0.5, f(2.5), nil, f(3.0), threshold, boost)
	if fired {
		t.Error("expected trinity pattern not to fire when one feature is nil")
	}
}

func TestApplyTrinityBoost_ClampedToOne(t *testing.T) {
	boosted, fired := ApplyTrinityBoost(0.9, f(3), f(3), f(3), 2.0, 1.25)
	if !fired || boosted != 1 {
		t.Errorf("boosted = %v, fired = %v, want (1, true)", boosted, fired)
	}
}

func TestInsiderProbability(t *testing.T) {
	wasCorrect := true
	p := InsiderProbability(0.5, 0.5, &wasCorrect)
	if d := p - 0.6; d > 1e-9 || d < -1e-9 {
		t.Errorf("InsiderProbability = %v, want 0.6", p)
	}

	p = InsiderProbability(1, 1, nil)
	if p != 0.8 {
		t.Errorf("InsiderProbability with nil wasCorrect = %v, want 0.8", p)
	}
}
