package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/erp/catalogsync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// queueInsertBatchSize bounds the rows of one INSERT statement
const queueInsertBatchSize = 500

// GormQueueRepository implements integration.QueueRepository using GORM
type GormQueueRepository struct {
	db *gorm.DB
}

var _ integration.QueueRepository = (*GormQueueRepository)(nil)

// NewGormQueueRepository creates a new GormQueueRepository
func NewGormQueueRepository(db *gorm.DB) *GormQueueRepository {
	return &GormQueueRepository{db: db}
}

// ---------------------------------------------------------------------------
// Queue rows
// ---------------------------------------------------------------------------

// CountUnsynced returns the number of rows with synced = false
func (r *GormQueueRepository) CountUnsynced(ctx context.Context) (int64, error) {
	return r.count(ctx, false)
}

// CountSynced returns the number of rows with synced = true
func (r *GormQueueRepository) CountSynced(ctx context.Context) (int64, error) {
	return r.count(ctx, true)
}

func (r *GormQueueRepository) count(ctx context.Context, synced bool) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.SyncQueueModel{}).
		Where("synced = ?", synced).
		Count(&n).Error
	return n, err
}

// Truncate removes every row
func (r *GormQueueRepository) Truncate(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.SyncQueueModel{}).Error
}

// InsertPending inserts unsynced rows; ids already queued are ignored
func (r *GormQueueRepository) InsertPending(ctx context.Context, remoteItemIDs []string) error {
	if len(remoteItemIDs) == 0 {
		return nil
	}
	now := time.Now()
	rows := make([]models.SyncQueueModel, len(remoteItemIDs))
	for i, id := range remoteItemIDs {
		rows[i] = models.SyncQueueModel{RemoteItemID: id, CreatedAt: now, UpdatedAt: now}
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "remote_item_id"}},
			DoNothing: true,
		}).
		CreateInBatches(&rows, queueInsertBatchSize).Error
}

// NextUnsynced returns up to limit unsynced rows in insertion order
func (r *GormQueueRepository) NextUnsynced(ctx context.Context, limit int) ([]integration.SyncQueueEntry, error) {
	var rows []models.SyncQueueModel
	if err := r.db.WithContext(ctx).
		Where("synced = ?", false).
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]integration.SyncQueueEntry, len(rows))
	for i, row := range rows {
		entries[i] = integration.SyncQueueEntry{RemoteItemID: row.RemoteItemID, Synced: row.Synced}
	}
	return entries, nil
}

// MarkSynced flips one row to synced
func (r *GormQueueRepository) MarkSynced(ctx context.Context, remoteItemID string) error {
	return r.db.WithContext(ctx).
		Model(&models.SyncQueueModel{}).
		Where("remote_item_id = ?", remoteItemID).
		Updates(map[string]any{"synced": true, "updated_at": time.Now()}).Error
}

// ---------------------------------------------------------------------------
// Cycles
// ---------------------------------------------------------------------------

// LatestCycle returns the most recent cycle with its recorded errors
func (r *GormQueueRepository) LatestCycle(ctx context.Context) (*integration.SyncCycle, error) {
	var model models.SyncCycleModel
	if err := r.db.WithContext(ctx).Order("started_at DESC").Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrCycleNotFound
		}
		return nil, err
	}

	var errs []models.SyncCycleErrorModel
	if err := r.db.WithContext(ctx).
		Where("cycle_id = ?", model.ID).
		Order("occurred_at ASC").
		Find(&errs).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(errs), nil
}

// SaveCycle stores a new cycle
func (r *GormQueueRepository) SaveCycle(ctx context.Context, cycle *integration.SyncCycle) error {
	var model models.SyncCycleModel
	model.FromDomain(cycle)
	return r.db.WithContext(ctx).Create(&model).Error
}

// RecordCycleError upserts the failure of an item; the latest message wins
func (r *GormQueueRepository) RecordCycleError(ctx context.Context, cycleID uuid.UUID, cycleErr integration.CycleError) error {
	occurredAt := cycleErr.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cycle_id"}, {Name: "remote_item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "sku", "message", "occurred_at"}),
		}).
		Create(&models.SyncCycleErrorModel{
			CycleID:      cycleID,
			RemoteItemID: cycleErr.RemoteItemID,
			Name:         cycleErr.Name,
			SKU:          cycleErr.SKU,
			Message:      cycleErr.Message,
			OccurredAt:   occurredAt,
		}).Error
}

// ClearCycleError removes a recorded failure once the item succeeds
func (r *GormQueueRepository) ClearCycleError(ctx context.Context, cycleID uuid.UUID, remoteItemID string) error {
	return r.db.WithContext(ctx).
		Where("cycle_id = ? AND remote_item_id = ?", cycleID, remoteItemID).
		Delete(&models.SyncCycleErrorModel{}).Error
}
