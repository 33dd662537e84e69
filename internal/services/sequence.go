package services

import (
	"errors"
	"fmt"

	"github.com/adrijusxx/truckpay/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// nextSettlementNumber allocates the next settlement number for a company and
// year inside the caller's transaction. The counter row is read under a row
// lock so two concurrent generations cannot hand out the same number; numbers
// are strictly increasing within a year. On SQLite the lock clause is a no-op
// and the single-writer model provides the same guarantee.
func nextSettlementNumber(tx *gorm.DB, companyID uint, year int) (string, error) {
	var seq models.SettlementSequence
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND year = ?", companyID, year).
		First(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seq = models.SettlementSequence{CompanyID: companyID, Year: year, NextNumber: 1}
		if err := tx.Create(&seq).Error; err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	}
	n := seq.NextNumber
	if err := tx.Model(&models.SettlementSequence{}).
		Where("company_id = ? AND year = ?", companyID, year).
		Update("next_number", n+1).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("SET-%d-%06d", year, n), nil
}
