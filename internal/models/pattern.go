package models

import "time"

// Operator is the closed set of comparison operators a rule condition can
// use. Evaluated via switch, not virtual dispatch -- a typed tagged-variant
// enum instead of an interface per condition.
type Operator string

const (
	OpGTE     Operator = "gte"
	OpGT      Operator = "gt"
	OpLTE     Operator = "lte"
	OpLT      Operator = "lt"
	OpEQ      Operator = "eq"
	OpNEQ     Operator = "neq"
	OpBetween Operator = "between"
)

// Logic joins a pattern's conditions.
type Logic string

const (
	LogicAND Logic = "and"
	LogicOR  Logic = "or"
)

// Condition tests one field of a scored trade against a threshold. ValueHigh
// is only set for OpBetween, where [Value, ValueHigh] is the inclusive range.
type Condition struct {
	Field     string
	Operator  Operator
	Value     float64
	ValueHigh *float64
}

// Pattern is a declarative rule matched against scored trades to flag
// known insider-trading shapes.
type Pattern struct {
	ID             int64
	Name           string
	Description    string
	Conditions     []Condition
	Logic          Logic
	MinMatches     int
	AlertThreshold float64
	TruePositives  int
	FalsePositives int
	IsActive       bool
	ValidatedAt    *time.Time
	CreatedAt      time.Time
}

// Precision returns TP/(TP+FP), or nil when undefined (no matches yet).
func (p *Pattern) Precision() *float64 {
	total := p.TruePositives + p.FalsePositives
	if total == 0 {
		return nil
	}
	v := float64(p.TruePositives) / float64(total)
	return &v
}

// F1 returns the harmonic mean of precision and the supplied recall, or nil
// if either is undefined or their sum is zero.
func (p *Pattern) F1(recall *float64) *float64 {
	precision := p.Precision()
	if precision == nil || recall == nil {
		return nil
	}
	denom := *precision + *recall
	if denom == 0 {
		return nil
	}
	v := 2 * (*precision) * (*recall) / denom
	return &v
}

// Lift returns precision divided by the base rate, or nil when either input
// is undefined or the base rate is zero.
func (p *Pattern) Lift(baseRate *float64) *float64 {
	precision := p.Precision()
	if precision == nil || baseRate == nil || *baseRate == 0 {
		return nil
	}
	v := *precision / *baseRate
	return &v
}
