package baseline

import (
	"math"
	"testing"

	"github.com/polymarket-surveillance/insider-detector/internal/models"
)

func floatsEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestComputeDistribution(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	dist := computeDistribution(values)

	if dist.SampleCount != 10 {
		t.Fatalf("SampleCount = %d, want 10", dist.SampleCount)
	}
	if !floatsEqual(dist.Mean, 55, 1e-9) {
		t.Errorf("Mean = %v, want 55", dist.Mean)
	}
	if !floatsEqual(dist.Median, 55, 1e-9) {
		t.Errorf("Median = %v, want 55", dist.Median)
	}
}

func TestComputeDistribution_Empty(t *testing.T) {
	dist := computeDistribution(nil)
	if dist.SampleCount != 0 {
		t.Errorf("SampleCount = %d, want 0", dist.SampleCount)
	}
}

func TestZScore(t *testing.T) {
	dist := models.DistributionStats{Mean: 100, StdDev: 50}
	z := ZScore(300, dist)
	if z == nil {
		t.Fatal("expected non-nil z-score")
	}
	if !floatsEqual(*z, 4.0, 1e-9) {
		t.Errorf("ZScore = %v, want 4.0", *z)
	}
}

func TestZScore_ZeroStdDevIsNil(t *testing.T) {
	dist := models.DistributionStats{Mean: 100, StdDev: 0}
	if z := ZScore(300, dist); z != nil {
		t.Errorf("ZScore with zero stddev = %v, want nil", *z)
	}
}

func TestCohensD(t *testing.T) {
	normal := models.DistributionStats{Mean: 100, StdDev: 50}
	insider := models.DistributionStats{Mean: 300, StdDev: 50}
	d := cohensD(normal, insider)
	if d == nil {
		t.Fatal("expected non-nil separation score")
	}
	if !floatsEqual(*d, 4.0, 1e-9) {
		t.Errorf("cohensD = %v, want 4.0", *d)
	}
}

func TestCohensD_ClampedToMax(t *testing.T) {
	normal := models.DistributionStats{Mean: 0, StdDev: 1}
	insider := models.DistributionStats{Mean: 1000, StdDev: 1}
	d := cohensD(normal, insider)
	if d == nil || *d != models.MaxSeparationScore {
		t.Errorf("cohensD = %v, want clamped to %v", d, models.MaxSeparationScore)
	}
}

func TestCohensD_NilWhenStdDevZero(t *testing.T) {
	normal := models.DistributionStats{Mean: 100, StdDev: 0}
	insider := models.DistributionStats{Mean: 300, StdDev: 50}
	if d := cohensD(normal, insider); d != nil {
		t.Errorf("cohensD = %v, want nil", *d)
	}
}
