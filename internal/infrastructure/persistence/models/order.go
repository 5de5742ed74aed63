package models

import (
	"time"

	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model of a local order
type OrderModel struct {
	BaseModel
	Number             string                   `gorm:"type:varchar(50);not null;uniqueIndex"`
	Status             string                   `gorm:"type:varchar(30);not null;index"`
	Currency           string                   `gorm:"type:varchar(3);not null;default:'EUR'"`
	Total              decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	CustomerName       string                   `gorm:"type:varchar(200)"`
	CustomerEmail      string                   `gorm:"type:varchar(200)"`
	RemoteDocumentID   *string                  `gorm:"type:varchar(100)"`
	RemoteDocumentType integration.DocumentType `gorm:"type:varchar(20)"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the model to the order seen by the exporter
func (m *OrderModel) ToDomain() *integration.Order {
	return &integration.Order{
		ID:            m.ID,
		Number:        m.Number,
		Status:        m.Status,
		Currency:      m.Currency,
		Total:         m.Total,
		CustomerName:  m.CustomerName,
		CustomerEmail: m.CustomerEmail,
		CreatedAt:     m.CreatedAt,
		Export: integration.OrderExportRecord{
			RemoteDocumentID:   m.RemoteDocumentID,
			RemoteDocumentType: m.RemoteDocumentType,
		},
	}
}

// OrderLineModel is one line of a local order
type OrderLineModel struct {
	ID                   uuid.UUID            `gorm:"type:uuid;primary_key"`
	OrderID              uuid.UUID            `gorm:"type:uuid;not null;index:idx_order_line_position,priority:1"`
	Position             int                  `gorm:"not null;index:idx_order_line_position,priority:2"`
	Kind                 integration.LineKind `gorm:"type:varchar(20);not null;default:'product'"`
	Name                 string               `gorm:"type:varchar(255);not null"`
	SKU                  string               `gorm:"type:varchar(100)"`
	Quantity             int                  `gorm:"not null;default:1"`
	Subtotal             decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	Tax                  decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	IsBundle             bool                 `gorm:"not null;default:false"`
	BundleComponentCount int                  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderLineModel) TableName() string {
	return "order_lines"
}

// ToDomain converts the model to a domain order line
func (m *OrderLineModel) ToDomain() integration.OrderLine {
	return integration.OrderLine{
		ID:                   m.ID,
		Kind:                 m.Kind,
		Position:             m.Position,
		Name:                 m.Name,
		SKU:                  m.SKU,
		Quantity:             m.Quantity,
		Subtotal:             m.Subtotal,
		Tax:                  m.Tax,
		IsBundle:             m.IsBundle,
		BundleComponentCount: m.BundleComponentCount,
	}
}

// OrderNoteModel is a private note appended to an order
type OrderNoteModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Note      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderNoteModel) TableName() string {
	return "order_notes"
}
