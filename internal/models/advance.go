package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	AdvanceStatusPending  = "PENDING"
	AdvanceStatusApproved = "APPROVED"
	AdvanceStatusRejected = "REJECTED"
)

// DriverAdvance is a pre-paid amount owed back by the driver. It is consumed
// by exactly one settlement: SettlementID and DeductedAt are set together when
// a settlement nets the advance, and nulled together when the batch holding
// that settlement is deleted.
type DriverAdvance struct {
	ID           uint            `gorm:"primaryKey"`
	CompanyID    uint            `gorm:"not null;index"`
	DriverID     uint            `gorm:"not null;index"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Reason       string          `gorm:"size:255"`
	Status       string          `gorm:"not null;default:'PENDING'"`
	IssuedAt     time.Time       `gorm:"not null"`
	SettlementID *uint           `gorm:"index"`
	DeductedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
