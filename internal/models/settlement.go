package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SettlementStatusPending  = "PENDING"
	SettlementStatusApproved = "APPROVED"
	SettlementStatusPaid     = "PAID"
	SettlementStatusDisputed = "DISPUTED"
)

const (
	ItemCategoryDeduction = "deduction"
	ItemCategoryAddition  = "addition"
)

// Settlement is one driver's pay statement for one period.
// NetPay == GrossPay − Σ Items.Amount, always recomputed by the generator and
// never hand-edited. Rows are deleted only when their OPEN parent batch is
// deleted. The (DriverID, PeriodStart, PeriodEnd) unique index backs the
// duplicate-generation guard at the store level.
type Settlement struct {
	ID               uint            `gorm:"primaryKey"`
	CompanyID        uint            `gorm:"not null;index"`
	DriverID         uint            `gorm:"not null;uniqueIndex:idx_settlement_driver_period"`
	SettlementNumber string          `gorm:"size:32;uniqueIndex"`
	PeriodStart      time.Time       `gorm:"not null;uniqueIndex:idx_settlement_driver_period"`
	PeriodEnd        time.Time       `gorm:"not null;uniqueIndex:idx_settlement_driver_period"`
	GrossPay         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	NetPay           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status           string          `gorm:"not null;default:'PENDING'"`
	ApprovalStatus   string          `gorm:"not null;default:'PENDING'"`
	SalaryBatchID    *uint           `gorm:"index"`
	PaidDate         *time.Time
	Notes            string           `gorm:"size:500"`
	Items            []DeductionItem  `gorm:"foreignKey:SettlementID"`
	Loads            []SettlementLoad `gorm:"foreignKey:SettlementID"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DeductionItem is one settlement line. Amount is the value subtracted from
// gross pay: deductions carry a positive amount, addition lines (bonus, stop
// pay, reimbursements) a negative one, which keeps the net-pay identity a
// single sum. Immutable after generation; deleted only with its settlement.
type DeductionItem struct {
	ID              uint            `gorm:"primaryKey"`
	SettlementID    uint            `gorm:"not null;index"`
	Category        string          `gorm:"not null"` // deduction, addition
	Type            string          `gorm:"not null"`
	Description     string          `gorm:"size:255"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	LoadID          *uint
	DeductionRuleID *uint
	DriverAdvanceID *uint
	CreatedAt       time.Time
}

// SettlementLoad records a contributing load (or handoff segment) in the order
// it was aggregated.
type SettlementLoad struct {
	ID           uint `gorm:"primaryKey"`
	SettlementID uint `gorm:"not null;index"`
	LoadID       uint `gorm:"not null;index"`
	SegmentID    *uint
	Position     int `gorm:"not null"`
}

// SettlementSequence is the per-company-per-year settlement number counter,
// incremented under a row lock inside the generation transaction.
type SettlementSequence struct {
	CompanyID  uint `gorm:"primaryKey;autoIncrement:false"`
	Year       int  `gorm:"primaryKey;autoIncrement:false"`
	NextNumber int  `gorm:"not null;default:1"`
}
