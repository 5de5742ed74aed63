package integration

import (
	"context"
	"time"

	"github.com/erp/catalogsync/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentNotCreated is stored as the remote document id of orders that were
// deliberately not exported, so they are never retried
const DocumentNotCreated = "not_created"

// DocumentType is the kind of remote document created for an order
type DocumentType string

const (
	DocumentTypeInvoice      DocumentType = "invoice"
	DocumentTypeSalesReceipt DocumentType = "salesreceipt"
	DocumentTypeSalesOrder   DocumentType = "salesorder"
	DocumentTypeProforma     DocumentType = "proform"
	DocumentTypeWaybill      DocumentType = "waybill"
	// DocumentTypeNoSync disables order export
	DocumentTypeNoSync DocumentType = "nosync"
)

// IsValid returns true if the document type is known
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeInvoice, DocumentTypeSalesReceipt, DocumentTypeSalesOrder,
		DocumentTypeProforma, DocumentTypeWaybill, DocumentTypeNoSync:
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// Order
// ---------------------------------------------------------------------------

// Order is the local order as seen by the exporter
type Order struct {
	ID            uuid.UUID
	Number        string
	Status        string
	Currency      string
	Total         decimal.Decimal
	CustomerName  string
	CustomerEmail string
	CreatedAt     time.Time
	// Export is the idempotence record
	Export OrderExportRecord
}

// OrderExportRecord records the remote document created for an order
type OrderExportRecord struct {
	// RemoteDocumentID is nil until the order has been exported
	RemoteDocumentID   *string
	RemoteDocumentType DocumentType
}

// IsExported reports whether the order must never be submitted again
func (r OrderExportRecord) IsExported() bool {
	return r.RemoteDocumentID != nil && *r.RemoteDocumentID != ""
}

// LineKind distinguishes product and shipping lines
type LineKind string

const (
	LineKindProduct  LineKind = "product"
	LineKindShipping LineKind = "shipping"
)

// OrderLine is one line of a local order, in display order
type OrderLine struct {
	ID       uuid.UUID
	Kind     LineKind
	Position int
	Name     string
	SKU      string
	Quantity int
	// Subtotal is the line total before tax
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	// IsBundle marks a pack line whose components follow it
	IsBundle bool
	// BundleComponentCount is the number of component lines following a bundle line
	BundleComponentCount int
}

// ---------------------------------------------------------------------------
// Remote documents
// ---------------------------------------------------------------------------

// DocumentLine is one line of a remote document
type DocumentLine struct {
	Name       string
	SKU        string
	Units      int
	UnitCost   decimal.Decimal
	Subtotal   decimal.Decimal
	TaxAmount  decimal.Decimal
	TaxPercent decimal.Decimal
}

// DocumentRequest is the payload of a remote document creation
type DocumentRequest struct {
	ContactName  string
	ContactEmail string
	Reference    string
	Currency     string
	Date         time.Time
	Lines        []DocumentLine
}

// DocumentResult is the remote answer to a document creation
type DocumentResult struct {
	ID            string
	InvoiceNumber string
}

// OrderRepository is the order side of the local store
type OrderRepository interface {
	// GetOrder returns ErrOrderNotFound when the order does not exist
	GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error)
	GetOrderLines(ctx context.Context, orderID uuid.UUID) ([]OrderLine, error)
	SaveExportRecord(ctx context.Context, orderID uuid.UUID, record OrderExportRecord) error
	AppendOrderNote(ctx context.Context, orderID uuid.UUID, note string) error
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) error
}

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

// EventTypeOrderStatusChanged is published when an order changes status
const EventTypeOrderStatusChanged = "OrderStatusChanged"

// OrderStatusChanged is the domain event that triggers order export
type OrderStatusChanged struct {
	shared.BaseDomainEvent
	OrderID   uuid.UUID `json:"order_id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
}

// NewOrderStatusChanged builds the event
func NewOrderStatusChanged(orderID uuid.UUID, oldStatus, newStatus string) *OrderStatusChanged {
	return &OrderStatusChanged{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, "Order", orderID),
		OrderID:         orderID,
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}
