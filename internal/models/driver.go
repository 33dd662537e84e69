package models

import "time"

// Driver types
const (
	DriverTypeCompany       = "COMPANY_DRIVER"
	DriverTypeOwnerOperator = "OWNER_OPERATOR"
	DriverTypeLease         = "LEASE"
)

type Driver struct {
	ID           uint   `gorm:"primaryKey"`
	CompanyID    uint   `gorm:"not null;index"`
	DriverNumber string `gorm:"size:32;uniqueIndex"`
	FirstName    string
	LastName     string
	DriverType   string `gorm:"not null;default:'COMPANY_DRIVER'"` // COMPANY_DRIVER, OWNER_OPERATOR, LEASE
	Active       bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
