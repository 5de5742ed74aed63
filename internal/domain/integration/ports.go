package integration

import (
	"context"
	"time"
)

// RemoteCatalog is the port to the ERP API.
// Calls are synchronous and never retried by the implementation.
type RemoteCatalog interface {
	// PageSize is the fixed number of items in a full page
	PageSize() int
	// FetchProducts fetches one page of the catalog, or the single item when id is not empty
	FetchProducts(ctx context.Context, id string, page int) ([]RemoteItem, error)
	// FetchAllProducts fetches every page until a short page is returned
	FetchAllProducts(ctx context.Context) ([]RemoteItem, error)
	// CreateDocument creates a remote document of the given type
	CreateDocument(ctx context.Context, docType DocumentType, req DocumentRequest) (*DocumentResult, error)
	// FetchImage downloads the main image of an item
	FetchImage(ctx context.Context, remoteItemID string) ([]byte, string, error)
	// FetchRates lists the price rates defined remotely
	FetchRates(ctx context.Context) ([]Rate, error)
}

// ImageStore persists imported product images and returns their public URL
type ImageStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// ---------------------------------------------------------------------------
// Notifications
// ---------------------------------------------------------------------------

// ErrorReport is one itemized line of a notification
type ErrorReport struct {
	RemoteItemID string
	Name         string
	SKU          string
	Message      string
}

// RunReport is the notification sent at the end of an interactive run
type RunReport struct {
	RunID  string
	Errors []ErrorReport
}

// CycleReport is the notification sent when a scheduled cycle completes
type CycleReport struct {
	CycleID        string
	StartedAt      time.Time
	FinishedAt     time.Time
	PreFilterTotal int
	QueuedTotal    int
	SyncedTotal    int
	Errors         []ErrorReport
}

// Elapsed returns the cycle duration
func (r CycleReport) Elapsed() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Notifier delivers run and cycle reports
type Notifier interface {
	NotifyRunErrors(ctx context.Context, to string, report RunReport) error
	NotifyCycleComplete(ctx context.Context, to string, report CycleReport) error
}
