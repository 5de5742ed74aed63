package integration

import (
	"context"
	"fmt"

	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/erp/catalogsync/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// OrderExporter submits local orders to the ERP as documents, at most once per order
type OrderExporter struct {
	orders  integration.OrderRepository
	remote  integration.RemoteCatalog
	metrics SyncMetrics
	logger  *zap.Logger
}

// OrderExporterOption configures an OrderExporter
type OrderExporterOption func(*OrderExporter)

// WithExportMetrics sets the metrics recorder
func WithExportMetrics(metrics SyncMetrics) OrderExporterOption {
	return func(e *OrderExporter) {
		e.metrics = metrics
	}
}

// NewOrderExporter creates an OrderExporter
func NewOrderExporter(
	orders integration.OrderRepository,
	remote integration.RemoteCatalog,
	logger *zap.Logger,
	opts ...OrderExporterOption,
) *OrderExporter {
	e := &OrderExporter{
		orders:  orders,
		remote:  remote,
		metrics: NoopMetrics(),
		logger:  logger.Named("order_exporter"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExportOrder creates the remote document of an order and returns its id.
//
// An order that already carries a document id is returned unchanged without
// any remote call. An empty id with a nil error means nothing was exported.
func (e *OrderExporter) ExportOrder(ctx context.Context, orderID uuid.UUID, settings integration.SyncSettings) (string, error) {
	order, err := e.orders.GetOrder(ctx, orderID)
	if err != nil {
		return "", err
	}

	if order.Export.IsExported() {
		return *order.Export.RemoteDocumentID, nil
	}

	if err := settings.Validate(); err != nil {
		return "", err
	}
	if !settings.Features.OrderExport {
		return "", integration.ErrFeatureDisabled
	}

	docType := settings.DocumentType
	if docType == "" {
		docType = integration.DocumentTypeInvoice
	}
	if docType == integration.DocumentTypeNoSync {
		return "", nil
	}

	if order.Total.IsZero() && !settings.ExportFreeOrders {
		return e.markNotCreated(ctx, order, docType)
	}

	lines, err := e.orders.GetOrderLines(ctx, order.ID)
	if err != nil {
		return "", err
	}

	req := integration.DocumentRequest{
		ContactName:  order.CustomerName,
		ContactEmail: order.CustomerEmail,
		Reference:    order.Number,
		Currency:     order.Currency,
		Date:         order.CreatedAt,
		Lines:        BuildDocumentLines(lines),
	}

	result, err := e.remote.CreateDocument(ctx, docType, req)
	if err != nil {
		e.logger.Warn("document creation failed, order left unexported",
			zap.String("order_id", order.ID.String()),
			zap.String("doc_type", string(docType)),
			zap.Error(err),
		)
		return "", err
	}

	record := integration.OrderExportRecord{RemoteDocumentID: &result.ID, RemoteDocumentType: docType}
	if err := e.orders.SaveExportRecord(ctx, order.ID, record); err != nil {
		return "", &integration.PersistenceError{Op: "save export record", Err: err}
	}

	note := fmt.Sprintf("ERP %s created (id %s)", docType, result.ID)
	if result.InvoiceNumber != "" {
		note = fmt.Sprintf("ERP %s %s created (id %s)", docType, result.InvoiceNumber, result.ID)
	}
	if err := e.orders.AppendOrderNote(ctx, order.ID, note); err != nil {
		e.logger.Warn("failed to append order note", zap.String("order_id", order.ID.String()), zap.Error(err))
	}

	e.metrics.DocumentExported(ctx, string(docType))
	e.logger.Info("order exported",
		zap.String("order_id", order.ID.String()),
		zap.String("doc_type", string(docType)),
		zap.String("document_id", result.ID),
	)
	return result.ID, nil
}

func (e *OrderExporter) markNotCreated(ctx context.Context, order *integration.Order, docType integration.DocumentType) (string, error) {
	sentinel := integration.DocumentNotCreated
	record := integration.OrderExportRecord{RemoteDocumentID: &sentinel, RemoteDocumentType: docType}
	if err := e.orders.SaveExportRecord(ctx, order.ID, record); err != nil {
		return "", &integration.PersistenceError{Op: "save export record", Err: err}
	}
	e.logger.Info("free order not exported", zap.String("order_id", order.ID.String()))
	return sentinel, nil
}

// ---------------------------------------------------------------------------
// Bundle expansion
// ---------------------------------------------------------------------------

// BuildDocumentLines converts order lines into document lines. A bundle line
// absorbs the subtotal and tax of the component lines that follow it. Shipping
// lines are appended after the product lines.
func BuildDocumentLines(lines []integration.OrderLine) []integration.DocumentLine {
	var (
		out      []integration.DocumentLine
		shipping []integration.DocumentLine
		bundle   *integration.DocumentLine
		pending  int
	)

	flush := func() {
		if bundle == nil {
			return
		}
		finalizeLine(bundle)
		out = append(out, *bundle)
		bundle = nil
	}

	for _, line := range lines {
		if line.Kind == integration.LineKindShipping {
			shipping = append(shipping, documentLine(line))
			continue
		}

		if bundle != nil && pending > 0 {
			bundle.Subtotal = bundle.Subtotal.Add(line.Subtotal)
			bundle.TaxAmount = bundle.TaxAmount.Add(line.Tax)
			pending--
			if pending == 0 {
				flush()
			}
			continue
		}
		flush()

		if line.IsBundle && line.BundleComponentCount > 0 {
			bundle = &integration.DocumentLine{
				Name:      line.Name,
				SKU:       line.SKU,
				Units:     line.Quantity,
				Subtotal:  decimal.Zero,
				TaxAmount: decimal.Zero,
			}
			pending = line.BundleComponentCount
			continue
		}

		out = append(out, documentLine(line))
	}
	flush()

	return append(out, shipping...)
}

func documentLine(line integration.OrderLine) integration.DocumentLine {
	dl := integration.DocumentLine{
		Name:      line.Name,
		SKU:       line.SKU,
		Units:     line.Quantity,
		Subtotal:  line.Subtotal,
		TaxAmount: line.Tax,
	}
	finalizeLine(&dl)
	return dl
}

// finalizeLine derives unit cost and tax percentage from the line totals
func finalizeLine(dl *integration.DocumentLine) {
	if dl.Units <= 0 {
		dl.Units = 1
	}
	dl.UnitCost = dl.Subtotal.Div(decimal.NewFromInt(int64(dl.Units)))
	dl.TaxPercent = decimal.Zero
	if !dl.Subtotal.IsZero() {
		dl.TaxPercent = dl.TaxAmount.Div(dl.Subtotal).Mul(hundred).Round(2)
	}
}

// ---------------------------------------------------------------------------
// Event handler
// ---------------------------------------------------------------------------

// SettingsProvider returns the settings of the current run
type SettingsProvider interface {
	Current(ctx context.Context) (integration.SyncSettings, error)
}

// OrderStatusHandler exports orders when they enter the configured status
type OrderStatusHandler struct {
	exporter *OrderExporter
	settings SettingsProvider
	logger   *zap.Logger
}

var _ shared.EventHandler = (*OrderStatusHandler)(nil)

// NewOrderStatusHandler creates an OrderStatusHandler
func NewOrderStatusHandler(exporter *OrderExporter, settings SettingsProvider, logger *zap.Logger) *OrderStatusHandler {
	return &OrderStatusHandler{
		exporter: exporter,
		settings: settings,
		logger:   logger.Named("order_status_handler"),
	}
}

// EventTypes implements shared.EventHandler
func (h *OrderStatusHandler) EventTypes() []string {
	return []string{integration.EventTypeOrderStatusChanged}
}

// Handle implements shared.EventHandler
func (h *OrderStatusHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	changed, ok := event.(*integration.OrderStatusChanged)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}

	settings, err := h.settings.Current(ctx)
	if err != nil {
		return err
	}
	if !settings.Features.OrderExport || changed.NewStatus != settings.ExportOnStatus {
		return nil
	}

	docID, err := h.exporter.ExportOrder(ctx, changed.OrderID, settings)
	if err != nil {
		h.logger.Error("order export failed",
			zap.String("order_id", changed.OrderID.String()),
			zap.Error(err),
		)
		return err
	}
	h.logger.Debug("order status handled",
		zap.String("order_id", changed.OrderID.String()),
		zap.String("document_id", docID),
	)
	return nil
}
