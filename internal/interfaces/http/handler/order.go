package handler

import (
	"context"

	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/erp/catalogsync/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderExportRunner creates the remote document of an order
type OrderExportRunner interface {
	ExportOrder(ctx context.Context, orderID uuid.UUID, settings integration.SyncSettings) (string, error)
}

// OrderStatusChanger changes an order status and publishes the change
type OrderStatusChanger interface {
	ChangeStatus(ctx context.Context, orderID uuid.UUID, status string) (bool, error)
}

// SettingsReader returns the current sync settings
type SettingsReader interface {
	Current(ctx context.Context) (integration.SyncSettings, error)
}

// OrderHandler serves the order export endpoints
type OrderHandler struct {
	BaseHandler
	exporter OrderExportRunner
	statuses OrderStatusChanger
	settings SettingsReader
}

// NewOrderHandler creates an OrderHandler
func NewOrderHandler(exporter OrderExportRunner, statuses OrderStatusChanger, settings SettingsReader) *OrderHandler {
	return &OrderHandler{
		exporter: exporter,
		statuses: statuses,
		settings: settings,
	}
}

// Export handles POST /orders/:id/export. Exporting an order twice returns
// the document created the first time.
func (h *OrderHandler) Export(c *gin.Context) {
	orderID, ok := h.ParseID(c)
	if !ok {
		return
	}

	settings, err := h.settings.Current(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	docID, err := h.exporter.ExportOrder(c.Request.Context(), orderID, settings)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ExportOrderResponse{OrderID: orderID.String(), DocumentID: docID})
}

// ChangeStatus handles POST /orders/:id/status. Entering the export status
// triggers the export through the OrderStatusChanged event.
func (h *OrderHandler) ChangeStatus(c *gin.Context) {
	orderID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.ChangeStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	changed, err := h.statuses.ChangeStatus(c.Request.Context(), orderID, req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ChangeStatusResponse{OrderID: orderID.String(), Status: req.Status, Changed: changed})
}
