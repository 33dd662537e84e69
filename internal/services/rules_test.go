package services

import (
	"errors"
	"testing"

	"github.com/adrijusxx/truckpay/internal/models"

	"github.com/shopspring/decimal"
)

func fixedRule(t *testing.T, amount string) models.DeductionRule {
	return models.DeductionRule{
		ID:              1,
		Name:            "Occupational accident insurance",
		DeductionType:   models.RuleTypeOccAccident,
		CalculationType: models.CalculationFixed,
		Amount:          dp(t, amount),
		Frequency:       models.FrequencyPerSettlement,
		IsActive:        true,
	}
}

func TestEvaluateFixed(t *testing.T) {
	rule := fixedRule(t, "45.50")
	res, err := EvaluateRule(&rule, RuleContext{GrossPay: d(t, "2000")})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Skipped || !res.Amount.Equal(d(t, "45.50")) {
		t.Fatalf("expected 45.50 got skipped=%v amount=%s", res.Skipped, res.Amount)
	}
}

func TestEvaluateInactiveSkipped(t *testing.T) {
	rule := fixedRule(t, "45.50")
	rule.IsActive = false
	res, err := EvaluateRule(&rule, RuleContext{GrossPay: d(t, "2000")})
	if err != nil || !res.Skipped {
		t.Fatalf("expected skip for inactive rule, got %v err=%v", res, err)
	}
}

func TestEvaluateMinGrossPayGate(t *testing.T) {
	rule := fixedRule(t, "45.50")
	rule.MinGrossPay = dp(t, "500")

	res, err := EvaluateRule(&rule, RuleContext{GrossPay: d(t, "499.99")})
	if err != nil || !res.Skipped {
		t.Fatalf("expected skip below gate, got %v err=%v", res, err)
	}

	res, err = EvaluateRule(&rule, RuleContext{GrossPay: d(t, "500")})
	if err != nil || res.Skipped {
		t.Fatalf("expected evaluation at the gate, got %v err=%v", res, err)
	}
	if !res.Amount.Equal(d(t, "45.50")) {
		t.Fatalf("expected 45.50 got %s", res.Amount)
	}
}

func TestEvaluatePercentageCappedAtMax(t *testing.T) {
	rule := models.DeductionRule{
		Name:            "Escrow",
		DeductionType:   models.RuleTypeEscrow,
		CalculationType: models.CalculationPercentage,
		Percentage:      dp(t, "10"),
		MaxAmount:       dp(t, "80"),
		IsActive:        true,
	}
	res, err := EvaluateRule(&rule, RuleContext{GrossPay: d(t, "1000")})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	// 10% of 1000 is 100 but the cap wins.
	if !res.Amount.Equal(d(t, "80")) {
		t.Fatalf("expected capped 80 got %s", res.Amount)
	}
}

func TestEvaluatePerMile(t *testing.T) {
	rule := models.DeductionRule{
		Name:            "Trailer rental",
		DeductionType:   models.RuleTypeOther,
		CalculationType: models.CalculationPerMile,
		PerMileRate:     dp(t, "0.05"),
		IsActive:        true,
	}
	res, err := EvaluateRule(&rule, RuleContext{GrossPay: d(t, "3000"), Miles: d(t, "1240")})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.Amount.Equal(d(t, "62")) {
		t.Fatalf("expected 62 got %s", res.Amount)
	}
}

func TestEvaluateRoundsHalfToEven(t *testing.T) {
	rule := models.DeductionRule{
		Name:            "Admin fee",
		DeductionType:   models.RuleTypeOther,
		CalculationType: models.CalculationPercentage,
		Percentage:      dp(t, "2.5"),
		IsActive:        true,
	}
	// 2.5% of 100.50 = 2.5125 -> 2.51 down; 2.5% of 101 = 2.525 -> 2.52,
	// not 2.53, under half-to-even.
	res, err := EvaluateRule(&rule, RuleContext{GrossPay: d(t, "101")})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.Amount.Equal(d(t, "2.52")) {
		t.Fatalf("expected banker's 2.52 got %s", res.Amount)
	}
	res, err = EvaluateRule(&rule, RuleContext{GrossPay: d(t, "103")})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	// 2.5% of 103 = 2.575 -> 2.58 (rounds to even digit 8).
	if !res.Amount.Equal(d(t, "2.58")) {
		t.Fatalf("expected banker's 2.58 got %s", res.Amount)
	}
}

func TestCalculationForRejectsMismatch(t *testing.T) {
	cases := []struct {
		name string
		rule models.DeductionRule
	}{
		{"fixed without amount", models.DeductionRule{CalculationType: models.CalculationFixed, IsActive: true}},
		{"fixed with percentage", models.DeductionRule{CalculationType: models.CalculationFixed, Amount: dp(t, "10"), Percentage: dp(t, "5"), IsActive: true}},
		{"percentage without percentage", models.DeductionRule{CalculationType: models.CalculationPercentage, Amount: dp(t, "10"), IsActive: true}},
		{"per-mile without rate", models.DeductionRule{CalculationType: models.CalculationPerMile, IsActive: true}},
		{"unknown type", models.DeductionRule{CalculationType: "LUMP_SUM", Amount: dp(t, "10"), IsActive: true}},
	}
	for _, tc := range cases {
		if _, err := CalculationFor(&tc.rule); err == nil {
			t.Fatalf("%s: expected config error", tc.name)
		} else {
			var cfgErr *RuleConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("%s: expected RuleConfigError got %v", tc.name, err)
			}
		}
	}
}

func TestEvaluateSurfacesConfigError(t *testing.T) {
	rule := models.DeductionRule{
		Name:            "Broken",
		CalculationType: models.CalculationFixed,
		IsActive:        true,
	}
	if _, err := EvaluateRule(&rule, RuleContext{GrossPay: decimal.Zero}); err == nil {
		t.Fatal("expected config error, not a silent zero")
	}
}
