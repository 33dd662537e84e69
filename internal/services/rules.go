package services

import (
	"github.com/adrijusxx/truckpay/internal/models"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// RuleContext carries the per-period figures a rule can reference.
type RuleContext struct {
	GrossPay decimal.Decimal
	Miles    decimal.Decimal
}

// Calculation is a deduction rule's validated calculation variant. The rule
// row stores three nullable columns; CalculationFor collapses them into the
// single variant the calculationType requires, so evaluation never has to
// reason about half-populated rows.
type Calculation interface {
	rawAmount(ctx RuleContext) decimal.Decimal
}

type FixedCalculation struct{ Amount decimal.Decimal }

type PercentageCalculation struct{ Percentage decimal.Decimal }

type PerMileCalculation struct{ Rate decimal.Decimal }

func (c FixedCalculation) rawAmount(RuleContext) decimal.Decimal { return c.Amount }

func (c PercentageCalculation) rawAmount(ctx RuleContext) decimal.Decimal {
	return c.Percentage.Div(oneHundred).Mul(ctx.GrossPay)
}

func (c PerMileCalculation) rawAmount(ctx RuleContext) decimal.Decimal {
	return c.Rate.Mul(ctx.Miles)
}

// CalculationFor validates the rule's value columns against its
// calculationType and returns the matching variant. A missing required value
// or a stray value for another type is a *RuleConfigError, never a silent
// zero.
func CalculationFor(r *models.DeductionRule) (Calculation, error) {
	switch r.CalculationType {
	case models.CalculationFixed:
		if r.Amount == nil {
			return nil, &RuleConfigError{RuleID: r.ID, Name: r.Name, Reason: "FIXED rule has no amount"}
		}
		if r.Percentage != nil || r.PerMileRate != nil {
			return nil, &RuleConfigError{RuleID: r.ID, Name: r.Name, Reason: "FIXED rule carries percentage or per-mile values"}
		}
		return FixedCalculation{Amount: *r.Amount}, nil
	case models.CalculationPercentage:
		if r.Percentage == nil {
			return nil, &RuleConfigError{RuleID: r.ID, Name: r.Name, Reason: "PERCENTAGE rule has no percentage"}
		}
		if r.Amount != nil || r.PerMileRate != nil {
			return nil, &RuleConfigError{RuleID: r.ID, Name: r.Name, Reason: "PERCENTAGE rule carries fixed or per-mile values"}
		}
		return PercentageCalculation{Percentage: *r.Percentage}, nil
	case models.CalculationPerMile:
		if r.PerMileRate == nil {
			return nil, &RuleConfigError{RuleID: r.ID, Name: r.Name, Reason: "PER_MILE rule has no per-mile rate"}
		}
		if r.Amount != nil || r.Percentage != nil {
			return nil, &RuleConfigError{RuleID: r.ID, Name: r.Name, Reason: "PER_MILE rule carries fixed or percentage values"}
		}
		return PerMileCalculation{Rate: *r.PerMileRate}, nil
	default:
		return nil, &RuleConfigError{RuleID: r.ID, Name: r.Name, Reason: "unknown calculation type " + r.CalculationType}
	}
}

// RuleResult is the outcome of evaluating one rule for one settlement run.
type RuleResult struct {
	Amount  decimal.Decimal
	Skipped bool
}

// EvaluateRule computes a rule's dollar amount for the period. Inactive rules
// and rules gated out by minGrossPay are skipped. The raw amount is clipped at
// maxAmount and rounded to cents half-to-even, which keeps the rounding error
// unbiased across many settlements. Frequency gating is the caller's job; the
// evaluator never self-schedules.
func EvaluateRule(r *models.DeductionRule, ctx RuleContext) (RuleResult, error) {
	if !r.IsActive {
		return RuleResult{Skipped: true}, nil
	}
	if r.MinGrossPay != nil && ctx.GrossPay.LessThan(*r.MinGrossPay) {
		return RuleResult{Skipped: true}, nil
	}
	calc, err := CalculationFor(r)
	if err != nil {
		return RuleResult{}, err
	}
	amount := calc.rawAmount(ctx)
	if r.MaxAmount != nil && amount.GreaterThan(*r.MaxAmount) {
		amount = *r.MaxAmount
	}
	return RuleResult{Amount: amount.RoundBank(2)}, nil
}
