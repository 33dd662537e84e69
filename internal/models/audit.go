package models

import "time"

// ActivityLog actions emitted by the engine.
const (
	ActionSettlementGenerated = "SETTLEMENT_GENERATED"
	ActionBatchPosted         = "BATCH_POSTED"
	ActionBatchDeleted        = "BATCH_DELETED"
	ActionBatchArchived       = "BATCH_ARCHIVED"
	ActionLoadSplit           = "LOAD_SPLIT"
)

// ActivityLog is the audit trail consumed by notification dispatch and
// reporting. RequestID correlates entries with the HTTP request that caused
// them.
type ActivityLog struct {
	ID          uint   `gorm:"primaryKey"`
	CompanyID   uint   `gorm:"not null;index"`
	RequestID   string `gorm:"size:36;index"`
	Action      string `gorm:"not null;index"`
	EntityType  string `gorm:"not null"`
	EntityID    uint   `gorm:"not null"`
	Description string `gorm:"size:500"`
	CreatedAt   time.Time
}
