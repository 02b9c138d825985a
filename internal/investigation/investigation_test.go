package investigation

import (
	"testing"

	"github.com/polymarket-surveillance/insider-detector/internal/models"
)

func ptr(v float64) *float64 { return &v }

func TestValidResolutionTag(t *testing.T) {
	valid := []models.ResolutionTag{
		models.ResolutionConfirmedInsider, models.ResolutionLikelyInsider,
		models.ResolutionNotInsider, models.ResolutionInsufficientEvidence,
	}
	for _, tag := range valid {
		if !validResolutionTag(tag) {
			t.Errorf("expected %s to be valid", tag)
		}
	}
	if validResolutionTag(models.ResolutionTag("bogus")) {
		t.Error("expected bogus tag to be invalid")
	}
}

func TestAssessRisk_CountsFactorsAndBucketsLevel(t *testing.T) {
	c := &models.InvestigationCandidate{
		Context: map[string]any{
			"z_size":           ptr(3.5),
			"z_timing":         ptr(2.6),
			"z_wallet_age":     ptr(0.1),
			"trinity_pattern":  true,
			"matched_patterns": map[string]bool{"rapid_fire": true, "dormant_wake": false},
		},
	}
	risk := assessRisk(c)
	if risk.Level != RiskHigh {
		t.Errorf("expected high risk level for 4 factors, got %s (%v)", risk.Level, risk.Factors)
	}
	if len(risk.Factors) != 4 {
		t.Errorf("expected 4 factors (z_size, z_timing, trinity_pattern, pattern:rapid_fire), got %d: %v", len(risk.Factors), risk.Factors)
	}
}

func TestAssessRisk_NoFactorsIsLowRisk(t *testing.T) {
	c := &models.InvestigationCandidate{Context: map[string]any{}}
	risk := assessRisk(c)
	if risk.Level != RiskLow {
		t.Errorf("expected low risk level for no factors, got %s", risk.Level)
	}
	if len(risk.Factors) != 0 {
		t.Errorf("expected no factors, got %v", risk.Factors)
	}
}

func TestAssessRisk_NilZScoreNeverCountedAsFactor(t *testing.T) {
	c := &models.InvestigationCandidate{
		Context: map[string]any{"z_size": (*float64)(nil)},
	}
	risk := assessRisk(c)
	if len(risk.Factors) != 0 {
		t.Errorf("expected nil z-score to never count as a risk factor, got %v", risk.Factors)
	}
}

func TestRiskLevelFromCount(t *testing.T) {
	cases := []struct {
		n    int
		want RiskLevel
	}{
		{0, RiskLow}, {1, RiskElevated}, {2, RiskElevated}, {3, RiskHigh}, {4, RiskHigh}, {5, RiskSevere}, {8, RiskSevere},
	}
	for _, tc := range cases {
		if got := riskLevelFromCount(tc.n); got != tc.want {
			t.Errorf("riskLevelFromCount(%d) = %s, want %s", tc.n, got, tc.want)
		}
	}
}

func TestMergeCandidates_DedupsAndExcludesSelf(t *testing.T) {
	self := &models.InvestigationCandidate{ID: 1}
	shared := &models.InvestigationCandidate{ID: 2}
	onlyWallet := &models.InvestigationCandidate{ID: 3}
	onlyMarket := &models.InvestigationCandidate{ID: 4}

	merged := mergeCandidates(
		[]*models.InvestigationCandidate{self, shared, onlyWallet},
		[]*models.InvestigationCandidate{shared, onlyMarket},
		self.ID,
	)

	if len(merged) != 3 {
		t.Fatalf("expected 3 merged candidates (shared deduped, self excluded), got %d", len(merged))
	}
	ids := map[int64]bool{}
	for _, c := range merged {
		ids[c.ID] = true
	}
	if ids[1] {
		t.Error("expected self (id 1) to be excluded")
	}
	if !ids[2] || !ids[3] || !ids[4] {
		t.Errorf("expected ids 2,3,4 present, got %v", ids)
	}
}

func TestExcludeSelf(t *testing.T) {
	candidates := []*models.InvestigationCandidate{{ID: 1}, {ID: 2}, {ID: 3}}
	out := excludeSelf(candidates, 2)
	if len(out) != 2 {
		t.Fatalf("expected 2 remaining, got %d", len(out))
	}
	for _, c := range out {
		if c.ID == 2 {
			t.Error("expected id 2 to be excluded")
		}
	}
}

func TestEvidenceSummary(t *testing.T) {
	c := &models.InvestigationCandidate{}
	if got := evidenceSummary(c); got != "" {
		t.Errorf("expected empty summary for no evidence, got %q", got)
	}
	c.Evidence = []models.EvidenceNote{{Body: "first"}, {Body: "last"}}
	if got := evidenceSummary(c); got != "last" {
		t.Errorf("expected most recent evidence body, got %q", got)
	}
}
