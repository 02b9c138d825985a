package patterns

import (
	"testing"

	"github.com/polymarket-surveillance/insider-detector/internal/models"
)

func ptr(v float64) *float64 { return &v }

func TestFields_MissingMetricExcluded(t *testing.T) {
	trade := &models.Trade{Size: 100, Price: 0.9, PriceExtremity: 0.4}
	f := fields(trade, nil)
	if _, ok := f["z_size"]; ok {
		t.Error("z_size should be absent with a nil score")
	}
	if f["size"] != 100 {
		t.Errorf("size = %v, want 100", f["size"])
	}
}

func TestEvalCondition_Operators(t *testing.T) {
	f := map[string]float64{"x": 5}
	cases := []struct {
		op   models.Operator
		val  float64
		high *float64
		want bool
	}{
		{models.OpGTE, 5, nil, true},
		{models.OpGTE, 6, nil, false},
		{models.OpGT, 4, nil, true},
		{models.OpLTE, 5, nil, true},
		{models.OpLT, 5, nil, false},
		{models.OpEQ, 5, nil, true},
		{models.OpNEQ, 5, nil, false},
		{models.OpBetween, 1, ptr(10), true},
		{models.OpBetween, 6, ptr(10), false},
	}
	for _, c := range cases {
		got := evalCondition(models.Condition{Field: "x", Operator: c.op, Value: c.val, ValueHigh: c.high}, f)
		if got != c.want {
			t.Errorf("op %s value %v: got %v, want %v", c.op, c.val, got, c.want)
		}
	}
}

func TestEvalCondition_MissingFieldFails(t *testing.T) {
	f := map[string]float64{}
	if evalCondition(models.Condition{Field: "missing", Operator: models.OpGTE, Value: 0}, f) {
		t.Error("condition on a missing field should fail")
	}
}

func TestEvalPattern_AND(t *testing.T) {
	p := &models.Pattern{
		Logic: models.LogicAND,
		Conditions: []models.Condition{
			{Field: "a", Operator: models.OpGTE, Value: 1},
			{Field: "b", Operator: models.OpGTE, Value: 1},
		},
	}
	matched, score := evalPattern(p, map[string]float64{"a": 2, "b": 2})
	if !matched || score != 1.0 {
		t.Errorf("AND all-pass: matched=%v score=%v, want true/1.0", matched, score)
	}
	matched, _ = evalPattern(p, map[string]float64{"a": 2, "b": 0})
	if matched {
		t.Error("AND should fail when one condition fails")
	}
}

func TestEvalPattern_OR_MinMatches(t *testing.T) {
	p := &models.Pattern{
		Logic:      models.LogicOR,
		MinMatches: 2,
		Conditions: []models.Condition{
			{Field: "a", Operator: models.OpGTE, Value: 1},
			{Field: "b", Operator: models.OpGTE, Value: 1},
			{Field: "c", Operator: models.OpGTE, Value: 1},
		},
	}
	matched, score := evalPattern(p, map[string]float64{"a": 1, "b": 1, "c": 0})
	if !matched || score != 2.0/3.0 {
		t.Errorf("OR two-of-three: matched=%v score=%v, want true/0.667", matched, score)
	}
	matched, _ = evalPattern(p, map[string]float64{"a": 1, "b": 0, "c": 0})
	if matched {
		t.Error("OR should fail below min_matches")
	}
}
