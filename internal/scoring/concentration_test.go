package scoring

import (
	"testing"

	"github.com/polymarket-surveillance/insider-detector/internal/models"
)

func TestPositionConcentration(t *testing.T) {
	trades := []*models.Trade{
		{Side: models.SideBuy, Outcome: "Yes", Size: 100},
		{Side: models.SideBuy, Outcome: "Yes", Size: 50},
		{Side: models.SideBuy, Outcome: "No", Size: 30},
	}
	// net Yes=150, No=30; D=150, T=180; raw=150/180=0.8333; concentration=(0.8333-0.5)*2=0.6667
	got := PositionConcentration(trades)
	want := 0.6666666666666667
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("PositionConcentration = %v, want %v", got, want)
	}
}

func TestPositionConcentration_NoTradesIsZero(t *testing.T) {
	if got := PositionConcentration(nil); got != 0 {
		t.Errorf("PositionConcentration(nil) = %v, want 0", got)
	}
}

func TestPositionConcentration_FullyBalancedIsZero(t *testing.T) {
	trades := []*models.Trade{
		{Side: models.SideBuy, Outcome: "Yes", Size: 100},
		{Side: models.SideBuy, Outcome: "No", Size: 100},
	}
	// net Yes=100, No=100; D=100, T=200; raw=0.5; concentration=0
	if got := PositionConcentration(trades); got != 0 {
		t.Errorf("PositionConcentration(balanced) = %v, want 0", got)
	}
}
