package services

import (
	"time"

	"github.com/adrijusxx/truckpay/internal/models"

	"gorm.io/gorm"
)

// DriverAdvanceService links advances to the settlements that net them and
// reverses those links when a batch is unwound. All methods run on the
// caller's transaction handle so advance bookkeeping commits or rolls back
// with the settlement work it belongs to.
type DriverAdvanceService struct{}

func NewDriverAdvanceService() *DriverAdvanceService { return &DriverAdvanceService{} }

// Consumable returns the driver's approved advances not yet tied to a
// settlement, issued before the period closes, oldest first.
func (s *DriverAdvanceService) Consumable(tx *gorm.DB, driverID uint, periodEnd time.Time) ([]models.DriverAdvance, error) {
	var advances []models.DriverAdvance
	err := tx.Where("driver_id = ? AND status = ? AND settlement_id IS NULL AND issued_at < ?",
		driverID, models.AdvanceStatusApproved, periodEnd).
		Order("issued_at asc").
		Find(&advances).Error
	return advances, err
}

// MarkDeducted ties the advances to the settlement that consumed them.
func (s *DriverAdvanceService) MarkDeducted(tx *gorm.DB, advanceIDs []uint, settlementID uint, at time.Time) error {
	if len(advanceIDs) == 0 {
		return nil
	}
	return tx.Model(&models.DriverAdvance{}).
		Where("id IN ?", advanceIDs).
		Updates(map[string]any{"settlement_id": settlementID, "deducted_at": at}).Error
}

// Unlink clears the settlement link on every advance consumed by the given
// settlements, returning them to the consumable pool. Batch deletion calls
// this before removing the settlements so no advance ever points at a deleted
// row.
func (s *DriverAdvanceService) Unlink(tx *gorm.DB, settlementIDs []uint) error {
	if len(settlementIDs) == 0 {
		return nil
	}
	return tx.Model(&models.DriverAdvance{}).
		Where("settlement_id IN ?", settlementIDs).
		Updates(map[string]any{"settlement_id": nil, "deducted_at": nil}).Error
}
