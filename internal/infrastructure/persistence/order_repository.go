package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/erp/catalogsync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOrderRepository implements integration.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

var _ integration.OrderRepository = (*GormOrderRepository)(nil)

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// GetOrder finds an order by id
func (r *GormOrderRepository) GetOrder(ctx context.Context, orderID uuid.UUID) (*integration.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrOrderNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// GetOrderLines returns the lines of an order in display order
func (r *GormOrderRepository) GetOrderLines(ctx context.Context, orderID uuid.UUID) ([]integration.OrderLine, error) {
	var rows []models.OrderLineModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("position ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	lines := make([]integration.OrderLine, len(rows))
	for i := range rows {
		lines[i] = rows[i].ToDomain()
	}
	return lines, nil
}

// SaveExportRecord stores the remote document created for an order
func (r *GormOrderRepository) SaveExportRecord(ctx context.Context, orderID uuid.UUID, record integration.OrderExportRecord) error {
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"remote_document_id":   record.RemoteDocumentID,
			"remote_document_type": record.RemoteDocumentType,
			"updated_at":           time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrOrderNotFound
	}
	return nil
}

// AppendOrderNote adds a private note to an order
func (r *GormOrderRepository) AppendOrderNote(ctx context.Context, orderID uuid.UUID, note string) error {
	return r.db.WithContext(ctx).Create(&models.OrderNoteModel{
		ID:        uuid.New(),
		OrderID:   orderID,
		Note:      note,
		CreatedAt: time.Now(),
	}).Error
}

// ListOrderNotes returns the notes of an order, oldest first
func (r *GormOrderRepository) ListOrderNotes(ctx context.Context, orderID uuid.UUID) ([]string, error) {
	var notes []string
	err := r.db.WithContext(ctx).
		Model(&models.OrderNoteModel{}).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Pluck("note", &notes).Error
	return notes, err
}

// UpdateStatus changes the status of an order
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) error {
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ?", orderID).
		Updates(map[string]any{"status": status, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrOrderNotFound
	}
	return nil
}
