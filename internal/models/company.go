package models

import "time"

// Company is the tenant boundary. Drivers, loads, rules and batches are all
// scoped to one company; the record itself is owned by the CRM side of the house.
type Company struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null;index"`
	MCNumber  string `gorm:"size:16"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
