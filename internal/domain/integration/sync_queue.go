package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SyncQueueEntry is one row of the scheduled sync queue
type SyncQueueEntry struct {
	RemoteItemID string
	Synced       bool
}

// ---------------------------------------------------------------------------
// SyncCycle
// ---------------------------------------------------------------------------

// SyncCycle is one refill-to-drained pass of the scheduled queue
type SyncCycle struct {
	ID        uuid.UUID
	StartedAt time.Time
	// PreFilterTotal is the catalog size before the tag filter
	PreFilterTotal int
	// QueuedTotal is the number of rows inserted after the tag filter
	QueuedTotal int
	// Errors are the item failures recorded during the cycle, one per item
	Errors []CycleError
}

// CycleError is the latest failure recorded for an item in a cycle
type CycleError struct {
	RemoteItemID string
	Name         string
	SKU          string
	Message      string
	OccurredAt   time.Time
}

// NewSyncCycle starts a cycle
func NewSyncCycle(preFilterTotal, queuedTotal int) *SyncCycle {
	return &SyncCycle{
		ID:             uuid.New(),
		StartedAt:      time.Now(),
		PreFilterTotal: preFilterTotal,
		QueuedTotal:    queuedTotal,
	}
}

// Report builds the completion report of the cycle
func (c *SyncCycle) Report(finishedAt time.Time, syncedTotal int) CycleReport {
	errs := make([]ErrorReport, 0, len(c.Errors))
	for _, e := range c.Errors {
		errs = append(errs, ErrorReport{
			RemoteItemID: e.RemoteItemID,
			Name:         e.Name,
			SKU:          e.SKU,
			Message:      e.Message,
		})
	}
	return CycleReport{
		CycleID:        c.ID.String(),
		StartedAt:      c.StartedAt,
		FinishedAt:     finishedAt,
		PreFilterTotal: c.PreFilterTotal,
		QueuedTotal:    c.QueuedTotal,
		SyncedTotal:    syncedTotal,
		Errors:         errs,
	}
}

// ---------------------------------------------------------------------------
// Repository
// ---------------------------------------------------------------------------

// QueueRepository persists the queue and its cycles.
// Row mutations are single statements keyed by remote item id.
type QueueRepository interface {
	// CountUnsynced returns the number of rows with synced = false
	CountUnsynced(ctx context.Context) (int64, error)
	// CountSynced returns the number of rows with synced = true
	CountSynced(ctx context.Context) (int64, error)
	// Truncate removes every row
	Truncate(ctx context.Context) error
	// InsertPending inserts unsynced rows, ignoring ids already queued
	InsertPending(ctx context.Context, remoteItemIDs []string) error
	// NextUnsynced returns up to limit unsynced rows in insertion order
	NextUnsynced(ctx context.Context, limit int) ([]SyncQueueEntry, error)
	// MarkSynced flips one row to synced
	MarkSynced(ctx context.Context, remoteItemID string) error

	// LatestCycle returns the most recent cycle; ErrCycleNotFound when none exists
	LatestCycle(ctx context.Context) (*SyncCycle, error)
	// SaveCycle stores a new cycle
	SaveCycle(ctx context.Context, cycle *SyncCycle) error
	// RecordCycleError upserts the failure of an item in a cycle
	RecordCycleError(ctx context.Context, cycleID uuid.UUID, cycleErr CycleError) error
	// ClearCycleError removes a previously recorded failure once the item succeeds
	ClearCycleError(ctx context.Context, cycleID uuid.UUID, remoteItemID string) error
}
