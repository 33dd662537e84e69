package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CalculationFixed      = "FIXED"
	CalculationPercentage = "PERCENTAGE"
	CalculationPerMile    = "PER_MILE"
)

const (
	FrequencyPerSettlement = "PER_SETTLEMENT"
	FrequencyWeekly        = "WEEKLY"
	FrequencyBiweekly      = "BIWEEKLY"
	FrequencyMonthly       = "MONTHLY"
	FrequencyOneTime       = "ONE_TIME"
)

// Deduction and addition rule types. Addition types pay the driver; the rest
// withhold from the driver.
const (
	RuleTypeInsurance     = "INSURANCE"
	RuleTypeOccAccident   = "OCCUPATIONAL_ACCIDENT"
	RuleTypeTruckPayment  = "TRUCK_PAYMENT"
	RuleTypeEscrow        = "ESCROW"
	RuleTypeFuelCardFee   = "FUEL_CARD_FEE"
	RuleTypeOther         = "OTHER"
	RuleTypeBonus         = "BONUS"
	RuleTypeOvertime      = "OVERTIME"
	RuleTypeIncentive     = "INCENTIVE"
	RuleTypeReimbursement = "REIMBURSEMENT"
)

// DeductionRule is a company-configured pay adjustment policy. Exactly one of
// Amount/Percentage/PerMileRate must be populated, matching CalculationType;
// services.CalculationFor enforces that and rejects inconsistent rows instead
// of defaulting them to zero.
//
// Scoping: DriverType and DriverID both nil means company-wide; DriverType set
// targets a fleet type; DriverID set targets one driver.
type DeductionRule struct {
	ID              uint   `gorm:"primaryKey"`
	CompanyID       uint   `gorm:"not null;index"`
	Name            string `gorm:"size:100;not null"`
	DeductionType   string `gorm:"not null"`
	IsAddition      bool   `gorm:"not null;default:false"`
	DriverType      *string
	DriverID        *uint            `gorm:"index"`
	CalculationType string           `gorm:"not null"`
	Amount          *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Percentage      *decimal.Decimal `gorm:"type:decimal(6,3)"`
	PerMileRate     *decimal.Decimal `gorm:"type:decimal(8,4)"`
	Frequency       string           `gorm:"not null;default:'PER_SETTLEMENT'"`
	MinGrossPay     *decimal.Decimal `gorm:"type:decimal(12,2)"`
	MaxAmount       *decimal.Decimal `gorm:"type:decimal(12,2)"`
	IsActive        bool             `gorm:"not null;default:true"`
	Notes           string           `gorm:"size:500"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AppliesTo reports whether the rule's scope covers the given driver.
func (r *DeductionRule) AppliesTo(d *Driver) bool {
	if r.DriverID != nil {
		return *r.DriverID == d.ID
	}
	if r.DriverType != nil {
		return *r.DriverType == d.DriverType
	}
	return true
}
