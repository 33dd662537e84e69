package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ExpenseStatusPending  = "PENDING"
	ExpenseStatusApproved = "APPROVED"
	ExpenseStatusRejected = "REJECTED"
)

// Expense types reimbursed to the driver rather than withheld.
const (
	ExpenseTypeToll  = "TOLL"
	ExpenseTypeScale = "SCALE"
	ExpenseTypeFuel  = "FUEL"
	ExpenseTypeOther = "OTHER"
)

const (
	ChargeStatusPending  = "PENDING"
	ChargeStatusApproved = "APPROVED"
	ChargeStatusBilled   = "BILLED"
)

const (
	ChargeTypeAdditionalStop = "ADDITIONAL_STOP"
	ChargeTypeDetention      = "DETENTION"
	ChargeTypeFuelSurcharge  = "FUEL_SURCHARGE"
	ChargeTypeLumper         = "LUMPER"
)

// LoadExpense is a driver-incurred cost on one load, authored and approved
// upstream. Only APPROVED expenses reach a settlement.
type LoadExpense struct {
	ID             uint            `gorm:"primaryKey"`
	LoadID         uint            `gorm:"not null;index"`
	ExpenseType    string          `gorm:"not null"`
	Description    string          `gorm:"size:255"`
	Vendor         string          `gorm:"size:100"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ApprovalStatus string          `gorm:"not null;default:'PENDING'"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AccessorialCharge is extra billed revenue on a load (stop pay, detention,
// fuel surcharge). APPROVED/BILLED stop and detention charges pass through to
// the driver as addition lines; everything else is informational unless a rule
// maps it.
type AccessorialCharge struct {
	ID          uint            `gorm:"primaryKey"`
	LoadID      uint            `gorm:"not null;index"`
	ChargeType  string          `gorm:"not null"`
	Description string          `gorm:"size:255"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status      string          `gorm:"not null;default:'PENDING'"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
