package integration

import (
	"context"
	"errors"

	"github.com/erp/catalogsync/internal/domain/integration"
)

// ReportFromError builds the notification line for an item failure
func ReportFromError(item integration.RemoteItem, err error) integration.ErrorReport {
	report := integration.ErrorReport{
		RemoteItemID: item.ID,
		Name:         item.Name,
		SKU:          item.SKU,
		Message:      err.Error(),
	}

	var itemErr *integration.ItemError
	if errors.As(err, &itemErr) {
		report.RemoteItemID = itemErr.RemoteItemID
		report.Name = itemErr.Name
		report.SKU = itemErr.SKU
		report.Message = itemErr.Err.Error()
	}
	return report
}

// ErrorBatch accumulates item failures so they are reported once per run
type ErrorBatch struct {
	reports []integration.ErrorReport
}

// Append records an already built report
func (b *ErrorBatch) Append(report integration.ErrorReport) {
	b.reports = append(b.reports, report)
}

// Reports returns the recorded failures
func (b *ErrorBatch) Reports() []integration.ErrorReport {
	return b.reports
}

// ---------------------------------------------------------------------------
// Metrics
// ---------------------------------------------------------------------------

// Sync sources used as metric attributes
const (
	SourceInteractive = "interactive"
	SourceScheduled   = "scheduled"
)

// SyncMetrics records sync activity
type SyncMetrics interface {
	ItemSynced(ctx context.Context, source string, created bool)
	ItemFailed(ctx context.Context, source string)
	QueueRefilled(ctx context.Context, queued int)
	DocumentExported(ctx context.Context, docType string)
}

type noopMetrics struct{}

func (noopMetrics) ItemSynced(context.Context, string, bool) {}
func (noopMetrics) ItemFailed(context.Context, string) {}
func (noopMetrics) QueueRefilled(context.Context, int) {}
func (noopMetrics) DocumentExported(context.Context, string) {}

// NoopMetrics returns a SyncMetrics that records nothing
func NoopMetrics() SyncMetrics {
	return noopMetrics{}
}
