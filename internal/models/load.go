package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Load lifecycle states relevant to settlement. Upstream dispatch owns the
// rest of the state machine; the engine only cares whether a load has a
// completion event inside the settlement period.
const (
	LoadStatusAssigned  = "ASSIGNED"
	LoadStatusDelivered = "DELIVERED"
	LoadStatusInvoiced  = "INVOICED"
	LoadStatusPaid      = "PAID"
)

// Load is a completed haul as supplied by dispatch. Revenue and DriverPay are
// computed upstream; the engine aggregates them.
type Load struct {
	ID          uint            `gorm:"primaryKey"`
	CompanyID   uint            `gorm:"not null;index"`
	LoadNumber  string          `gorm:"size:32;uniqueIndex"`
	DriverID    uint            `gorm:"not null;index"`
	TruckID     uint            `gorm:"index"`
	TotalMiles  decimal.Decimal `gorm:"type:decimal(10,1);not null"`
	LoadedMiles decimal.Decimal `gorm:"type:decimal(10,1);not null"`
	EmptyMiles  decimal.Decimal `gorm:"type:decimal(10,1);not null"`
	Revenue     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DriverPay   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status      string          `gorm:"not null;default:'ASSIGNED'"`
	CompletedAt *time.Time      `gorm:"index"`
	// Split marks a load whose accounting now lives on its segments. A split
	// load never contributes to a settlement directly.
	Split     bool `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LoadSegment is one half of a split load after a driver/truck handoff.
// Once created it is a first-class accounting unit: settlement generation
// consumes segments exactly like loads.
type LoadSegment struct {
	ID            uint            `gorm:"primaryKey"`
	LoadID        uint            `gorm:"not null;index"`
	DriverID      uint            `gorm:"not null;index"`
	TruckID       uint            `gorm:"index"`
	Sequence      int             `gorm:"not null"`
	StartLocation string          `gorm:"size:128"`
	EndLocation   string          `gorm:"size:128"`
	Miles         decimal.Decimal `gorm:"type:decimal(10,1);not null"`
	Revenue       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DriverPay     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// ZeroDistance flags administrative reassignments (split at 0 or at the
	// full distance) so review tooling can surface them.
	ZeroDistance bool       `gorm:"not null;default:false"`
	CompletedAt  *time.Time `gorm:"index"`
	Notes        string     `gorm:"size:500"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
