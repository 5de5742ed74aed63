package telemetry

import (
	"context"
	"errors"
	"strconv"

	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when SyncMetrics is built without a meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// SyncMetrics records sync activity as OpenTelemetry counters
type SyncMetrics struct {
	itemsSynced       *Counter
	itemsFailed       *Counter
	queueRefilled     *Counter
	documentsExported *Counter
}

// NewSyncMetrics creates the sync counters on the given meter
func NewSyncMetrics(meter metric.Meter) (*SyncMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &SyncMetrics{}
	var err error

	m.itemsSynced, err = NewCounter(meter,
		"catalogsync_items_synced_total",
		"Remote items written to the local store",
		"{items}",
	)
	if err != nil {
		return nil, err
	}

	m.itemsFailed, err = NewCounter(meter,
		"catalogsync_items_failed_total",
		"Remote items that failed to sync",
		"{items}",
	)
	if err != nil {
		return nil, err
	}

	m.queueRefilled, err = NewCounter(meter,
		"catalogsync_queue_rows_inserted_total",
		"Rows inserted into the scheduled sync queue",
		"{rows}",
	)
	if err != nil {
		return nil, err
	}

	m.documentsExported, err = NewCounter(meter,
		"catalogsync_documents_exported_total",
		"Remote documents created from local orders",
		"{documents}",
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// ItemSynced counts a successfully synced item
func (m *SyncMetrics) ItemSynced(ctx context.Context, source string, created bool) {
	m.itemsSynced.Inc(ctx,
		AttrSource.String(source),
		AttrCreated.String(strconv.FormatBool(created)),
	)
}

// ItemFailed counts a failed item
func (m *SyncMetrics) ItemFailed(ctx context.Context, source string) {
	m.itemsFailed.Inc(ctx, AttrSource.String(source))
}

// QueueRefilled counts the rows inserted by a refill
func (m *SyncMetrics) QueueRefilled(ctx context.Context, queued int) {
	m.queueRefilled.Add(ctx, int64(queued))
}

// DocumentExported counts a created remote document
func (m *SyncMetrics) DocumentExported(ctx context.Context, docType string) {
	m.documentsExported.Inc(ctx, AttrDocumentType.String(docType))
}
