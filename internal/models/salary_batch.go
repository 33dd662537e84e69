package models

import "time"

const (
	BatchStatusOpen     = "OPEN"
	BatchStatusPosted   = "POSTED"
	BatchStatusArchived = "ARCHIVED"
)

// SalaryBatch groups settlements into one payroll run.
// OPEN → POSTED is one-way; only OPEN batches may be deleted; POSTED and
// ARCHIVED are structurally terminal. PostedAt is set only on the transition
// to POSTED.
type SalaryBatch struct {
	ID          uint      `gorm:"primaryKey"`
	CompanyID   uint      `gorm:"not null;index"`
	BatchNumber string    `gorm:"size:32;uniqueIndex"`
	Status      string    `gorm:"not null;default:'OPEN'"`
	PeriodStart time.Time `gorm:"not null"`
	PeriodEnd   time.Time `gorm:"not null"`
	PostedAt    *time.Time
	Notes       string       `gorm:"size:500"`
	Settlements []Settlement `gorm:"foreignKey:SalaryBatchID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
