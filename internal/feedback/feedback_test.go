package feedback

import (
	"testing"

	"github.com/polymarket-surveillance/insider-detector/internal/models"
	"github.com/polymarket-surveillance/insider-detector/internal/patterns"
)

func ptr(v float64) *float64 { return &v }

func TestAvgSeparation_UsesAbsoluteValueAndSkipsNil(t *testing.T) {
	baselines := []*models.Baseline{
		{SeparationScore: ptr(-2.0)},
		{SeparationScore: ptr(4.0)},
		{SeparationScore: nil},
	}
	got := avgSeparation(baselines)
	if got == nil {
		t.Fatal("expected non-nil average")
	}
	if *got != 3.0 {
		t.Errorf("expected avg(|-2|,|4|) = 3.0, got %v", *got)
	}
}

func TestAvgSeparation_EmptyIsNil(t *testing.T) {
	if got := avgSeparation(nil); got != nil {
		t.Errorf("expected nil for no baselines, got %v", *got)
	}
}

func TestAvgPatternF1_ZeroTotalInsidersLeavesRecallNil(t *testing.T) {
	patterns := []*models.Pattern{{TruePositives: 5, FalsePositives: 1}}
	if got := avgPatternF1(patterns, 0); got != nil {
		t.Errorf("expected nil F1 when total insiders is 0 (recall undefined), got %v", *got)
	}
}

func TestAvgPatternF1_ComputesFromPrecisionAndRecall(t *testing.T) {
	ps := []*models.Pattern{{TruePositives: 8, FalsePositives: 2}}
	got := avgPatternF1(ps, 10)
	if got == nil {
		t.Fatal("expected non-nil F1")
	}
	// precision = 8/10 = 0.8, recall = 8/10 = 0.8, f1 = 0.8
	if *got < 0.79 || *got > 0.81 {
		t.Errorf("expected f1 ~0.8, got %v", *got)
	}
}

func TestAvgValidationF1(t *testing.T) {
	results := []patterns.ValidationResult{
		{F1: ptr(0.4)},
		{F1: ptr(0.6)},
		{F1: nil},
	}
	got := avgValidationF1(results)
	if got == nil || *got != 0.5 {
		t.Errorf("expected avg(0.4,0.6) = 0.5, got %v", got)
	}
}

func TestDelta_NilWhenEitherSideUndefined(t *testing.T) {
	if got := delta(nil, ptr(1.0)); got != nil {
		t.Error("expected nil delta when pre is nil")
	}
	if got := delta(ptr(1.0), nil); got != nil {
		t.Error("expected nil delta when post is nil")
	}
}

func TestDelta_ComputesPostMinusPre(t *testing.T) {
	got := delta(ptr(1.0), ptr(1.6))
	if got == nil || *got < 0.59 || *got > 0.61 {
		t.Errorf("expected delta ~0.6, got %v", got)
	}
}

func TestClassifyImprovement(t *testing.T) {
	cases := []struct {
		name       string
		separation *float64
		f1         *float64
		want       Improvement
	}{
		{"both nil is none", nil, nil, ImprovementNone},
		{"negative separation is regression", ptr(-0.1), ptr(0.3), ImprovementRegression},
		{"negative f1 is regression", ptr(0.3), ptr(-0.1), ImprovementRegression},
		{"large gain is significant", ptr(0.6), ptr(0.1), ImprovementSignificant},
		{"moderate gain", ptr(0.25), nil, ImprovementModerate},
		{"slight gain", ptr(0.05), nil, ImprovementSlight},
		{"zero gain is none", ptr(0.0), ptr(0.0), ImprovementNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyImprovement(tc.separation, tc.f1); got != tc.want {
				t.Errorf("classifyImprovement() = %s, want %s", got, tc.want)
			}
		})
	}
}
