package models

import (
	"time"

	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/google/uuid"
)

// SyncQueueModel is one row of the scheduled sync queue. The serial id keeps
// insertion order.
type SyncQueueModel struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	RemoteItemID string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	Synced       bool      `gorm:"not null;default:false;index"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncQueueModel) TableName() string {
	return "sync_queue"
}

// SyncCycleModel is one refill-to-drained pass of the queue
type SyncCycleModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	StartedAt      time.Time `gorm:"not null;index"`
	PreFilterTotal int       `gorm:"not null;default:0"`
	QueuedTotal    int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (SyncCycleModel) TableName() string {
	return "sync_cycles"
}

// ToDomain converts the model and its errors to a domain cycle
func (m *SyncCycleModel) ToDomain(errs []SyncCycleErrorModel) *integration.SyncCycle {
	cycle := &integration.SyncCycle{
		ID:             m.ID,
		StartedAt:      m.StartedAt,
		PreFilterTotal: m.PreFilterTotal,
		QueuedTotal:    m.QueuedTotal,
		Errors:         make([]integration.CycleError, 0, len(errs)),
	}
	for _, e := range errs {
		cycle.Errors = append(cycle.Errors, integration.CycleError{
			RemoteItemID: e.RemoteItemID,
			Name:         e.Name,
			SKU:          e.SKU,
			Message:      e.Message,
			OccurredAt:   e.OccurredAt,
		})
	}
	return cycle
}

// FromDomain populates the model from a domain cycle
func (m *SyncCycleModel) FromDomain(c *integration.SyncCycle) {
	m.ID = c.ID
	m.StartedAt = c.StartedAt
	m.PreFilterTotal = c.PreFilterTotal
	m.QueuedTotal = c.QueuedTotal
}

// SyncCycleErrorModel is the latest failure of an item within a cycle
type SyncCycleErrorModel struct {
	CycleID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	RemoteItemID string    `gorm:"type:varchar(100);primaryKey"`
	Name         string    `gorm:"type:varchar(255)"`
	SKU          string    `gorm:"type:varchar(100)"`
	Message      string    `gorm:"type:text;not null"`
	OccurredAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncCycleErrorModel) TableName() string {
	return "sync_cycle_errors"
}

// SyncSettingModel is one stored settings key
type SyncSettingModel struct {
	Key       string    `gorm:"type:varchar(100);primaryKey"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncSettingModel) TableName() string {
	return "sync_settings"
}

// All returns every model, in dependency order, for schema migration in tests
func All() []any {
	return []any{
		&ProductModel{},
		&ProductVariantModel{},
		&TermModel{},
		&ProductTermModel{},
		&PackLineModel{},
		&OrderModel{},
		&OrderLineModel{},
		&OrderNoteModel{},
		&SyncQueueModel{},
		&SyncCycleModel{},
		&SyncCycleErrorModel{},
		&SyncSettingModel{},
	}
}
