package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/adrijusxx/truckpay/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SalaryBatchService owns the payroll-run lifecycle: OPEN batches collect
// settlements, posting is a one-way transition that approves every member,
// and only OPEN batches can be deleted. Every mutation re-checks the batch
// status inside its own transaction, so concurrent post/delete cannot both
// succeed; the loser sees a conflict, never a silent no-op.
type SalaryBatchService struct {
	DB       *gorm.DB
	Advances *DriverAdvanceService
}

func NewSalaryBatchService(db *gorm.DB) *SalaryBatchService {
	return &SalaryBatchService{DB: db, Advances: NewDriverAdvanceService()}
}

type CreateBatchInput struct {
	CompanyID   uint
	PeriodStart time.Time
	PeriodEnd   time.Time
	Notes       string
}

// Create opens a new batch for a payroll period.
func (s *SalaryBatchService) Create(in CreateBatchInput) (*models.SalaryBatch, error) {
	if !in.PeriodStart.Before(in.PeriodEnd) {
		return nil, fmt.Errorf("%w: period start must precede period end", ErrValidation)
	}
	batch := models.SalaryBatch{
		CompanyID:   in.CompanyID,
		Status:      models.BatchStatusOpen,
		PeriodStart: in.PeriodStart,
		PeriodEnd:   in.PeriodEnd,
		Notes:       in.Notes,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&batch).Error; err != nil {
			return err
		}
		number := fmt.Sprintf("PR-%d-%04d", in.PeriodEnd.Year(), batch.ID)
		if err := tx.Model(&batch).Update("batch_number", number).Error; err != nil {
			return err
		}
		batch.BatchNumber = number
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// AddSettlement attaches an unbatched settlement to an OPEN batch.
func (s *SalaryBatchService) AddSettlement(batchID, settlementID uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		batch, err := lockBatch(tx, batchID)
		if err != nil {
			return err
		}
		if batch.Status != models.BatchStatusOpen {
			return fmt.Errorf("%w: batch %s is %s, only OPEN batches accept settlements",
				ErrConflict, batch.BatchNumber, batch.Status)
		}
		res := tx.Model(&models.Settlement{}).
			Where("id = ? AND salary_batch_id IS NULL", settlementID).
			Update("salary_batch_id", batchID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Settlement{}).Where("id = ?", settlementID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return fmt.Errorf("%w: settlement %d", ErrNotFound, settlementID)
			}
			return fmt.Errorf("%w: settlement %d already belongs to a batch", ErrConflict, settlementID)
		}
		return nil
	})
}

// Post closes the batch: status flips to POSTED with postedAt stamped and
// every member settlement becomes APPROVED, all in one transaction. The
// status precondition rides in the UPDATE's WHERE clause, so of two
// concurrent posts exactly one wins.
func (s *SalaryBatchService) Post(batchID uint, requestID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.SalaryBatch{}).
			Where("id = ? AND status = ?", batchID, models.BatchStatusOpen).
			Updates(map[string]any{"status": models.BatchStatusPosted, "posted_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return batchGuardError(tx, batchID, "only OPEN batches can be posted")
		}
		if err := tx.Model(&models.Settlement{}).
			Where("salary_batch_id = ?", batchID).
			Updates(map[string]any{
				"status":          models.SettlementStatusApproved,
				"approval_status": models.SettlementStatusApproved,
			}).Error; err != nil {
			return err
		}
		var batch models.SalaryBatch
		if err := tx.First(&batch, batchID).Error; err != nil {
			return err
		}
		return tx.Create(&models.ActivityLog{
			CompanyID:   batch.CompanyID,
			RequestID:   requestID,
			Action:      models.ActionBatchPosted,
			EntityType:  "SalaryBatch",
			EntityID:    batch.ID,
			Description: fmt.Sprintf("Salary batch %s posted", batch.BatchNumber),
		}).Error
	})
}

// Delete unwinds an OPEN batch. Ordering inside the transaction matters:
// advances consumed by member settlements are unlinked first, so no
// intermediate state holds an advance pointing at a deleted settlement; then
// items, contributing-load rows and settlements go, then the batch itself.
// The cascade is explicit rather than delegated to store-level FK actions.
func (s *SalaryBatchService) Delete(batchID uint, requestID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		batch, err := lockBatch(tx, batchID)
		if err != nil {
			return err
		}
		if batch.Status != models.BatchStatusOpen {
			return fmt.Errorf("%w: batch %s is %s, only OPEN batches can be deleted",
				ErrConflict, batch.BatchNumber, batch.Status)
		}

		var settlementIDs []uint
		if err := tx.Model(&models.Settlement{}).
			Where("salary_batch_id = ?", batchID).
			Pluck("id", &settlementIDs).Error; err != nil {
			return err
		}

		if err := s.Advances.Unlink(tx, settlementIDs); err != nil {
			return err
		}
		if len(settlementIDs) > 0 {
			if err := tx.Where("settlement_id IN ?", settlementIDs).Delete(&models.DeductionItem{}).Error; err != nil {
				return err
			}
			if err := tx.Where("settlement_id IN ?", settlementIDs).Delete(&models.SettlementLoad{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", settlementIDs).Delete(&models.Settlement{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&models.SalaryBatch{}, batchID).Error; err != nil {
			return err
		}
		return tx.Create(&models.ActivityLog{
			CompanyID:   batch.CompanyID,
			RequestID:   requestID,
			Action:      models.ActionBatchDeleted,
			EntityType:  "SalaryBatch",
			EntityID:    batch.ID,
			Description: fmt.Sprintf("Salary batch %s deleted with %d settlements", batch.BatchNumber, len(settlementIDs)),
		}).Error
	})
}

// Archive moves a POSTED batch to ARCHIVED bookkeeping state. ARCHIVED never
// reopens.
func (s *SalaryBatchService) Archive(batchID uint, requestID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.SalaryBatch{}).
			Where("id = ? AND status = ?", batchID, models.BatchStatusPosted).
			Update("status", models.BatchStatusArchived)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return batchGuardError(tx, batchID, "only POSTED batches can be archived")
		}
		var batch models.SalaryBatch
		if err := tx.First(&batch, batchID).Error; err != nil {
			return err
		}
		return tx.Create(&models.ActivityLog{
			CompanyID:   batch.CompanyID,
			RequestID:   requestID,
			Action:      models.ActionBatchArchived,
			EntityType:  "SalaryBatch",
			EntityID:    batch.ID,
			Description: fmt.Sprintf("Salary batch %s archived", batch.BatchNumber),
		}).Error
	})
}

// lockBatch reads the batch under a row lock (no-op on SQLite, where the
// single writer gives the same isolation).
func lockBatch(tx *gorm.DB, batchID uint) (*models.SalaryBatch, error) {
	var batch models.SalaryBatch
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&batch, batchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: salary batch %d", ErrNotFound, batchID)
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// batchGuardError distinguishes a missing batch from one in the wrong state
// after a guarded update matched zero rows.
func batchGuardError(tx *gorm.DB, batchID uint, reason string) error {
	var count int64
	if err := tx.Model(&models.SalaryBatch{}).Where("id = ?", batchID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: salary batch %d", ErrNotFound, batchID)
	}
	return fmt.Errorf("%w: salary batch %d: %s", ErrConflict, batchID, reason)
}
