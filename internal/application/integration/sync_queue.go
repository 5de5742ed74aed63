package integration

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/erp/catalogsync/internal/domain/integration"
	"go.uber.org/zap"
)

// QueuePhase is the branch taken by one DrainOrRefill call
type QueuePhase string

const (
	QueuePhaseRefill QueuePhase = "refill"
	QueuePhaseDrain  QueuePhase = "drain"
)

// QueueRunResult summarizes one DrainOrRefill call
type QueueRunResult struct {
	Phase QueuePhase
	// Refill counters
	PreFilterTotal int
	Queued         int
	// Drain counters
	Processed int
	Synced    int
	Failed    int
	Errors    []integration.ErrorReport
}

// QueueService runs the scheduled sync: it refills the queue from the full
// catalog when every row is synced, and drains one batch otherwise.
type QueueService struct {
	queue    integration.QueueRepository
	remote   integration.RemoteCatalog
	syncer   *ItemSyncer
	notifier integration.Notifier
	metrics  SyncMetrics
	logger   *zap.Logger
	now      func() time.Time

	// mu serializes in-process triggers
	mu sync.Mutex
}

// QueueServiceOption configures a QueueService
type QueueServiceOption func(*QueueService)

// WithQueueMetrics sets the metrics recorder
func WithQueueMetrics(metrics SyncMetrics) QueueServiceOption {
	return func(s *QueueService) {
		s.metrics = metrics
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) QueueServiceOption {
	return func(s *QueueService) {
		s.now = now
	}
}

// NewQueueService creates a QueueService
func NewQueueService(
	queue integration.QueueRepository,
	remote integration.RemoteCatalog,
	syncer *ItemSyncer,
	notifier integration.Notifier,
	logger *zap.Logger,
	opts ...QueueServiceOption,
) *QueueService {
	s := &QueueService{
		queue:    queue,
		remote:   remote,
		syncer:   syncer,
		notifier: notifier,
		metrics:  NoopMetrics(),
		logger:   logger.Named("sync_queue"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DrainOrRefill is the single entry point of the scheduled sync
func (s *QueueService) DrainOrRefill(ctx context.Context, settings integration.SyncSettings) (*QueueRunResult, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.queue.CountUnsynced(ctx)
	if err != nil {
		return nil, &integration.PersistenceError{Op: "count unsynced", Err: err}
	}

	if pending == 0 {
		return s.refill(ctx, settings)
	}
	return s.drain(ctx, settings)
}

// ---------------------------------------------------------------------------
// Refill
// ---------------------------------------------------------------------------

// refill pulls the catalog before touching the table, so a failed pull leaves
// the drained queue and the previous cycle in place for the next trigger
func (s *QueueService) refill(ctx context.Context, settings integration.SyncSettings) (*QueueRunResult, error) {
	items, err := s.remote.FetchAllProducts(ctx)
	if err != nil {
		s.logger.Warn("catalog pull failed, refill postponed", zap.Error(err))
		return nil, err
	}

	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if !settings.PassesTagFilter(item) {
			continue
		}
		if _, dup := seen[item.ID]; dup || item.ID == "" {
			continue
		}
		seen[item.ID] = struct{}{}
		ids = append(ids, item.ID)
	}

	s.notifyPreviousCycle(ctx, settings)

	if err := s.queue.Truncate(ctx); err != nil {
		return nil, &integration.PersistenceError{Op: "truncate queue", Err: err}
	}
	if err := s.queue.InsertPending(ctx, ids); err != nil {
		return nil, &integration.PersistenceError{Op: "insert queue rows", Err: err}
	}

	cycle := integration.NewSyncCycle(len(items), len(ids))
	cycle.StartedAt = s.now()
	if err := s.queue.SaveCycle(ctx, cycle); err != nil {
		return nil, &integration.PersistenceError{Op: "save cycle", Err: err}
	}

	s.metrics.QueueRefilled(ctx, len(ids))
	s.logger.Info("sync queue refilled",
		zap.String("cycle_id", cycle.ID.String()),
		zap.Int("pre_filter_total", len(items)),
		zap.Int("queued", len(ids)),
	)

	return &QueueRunResult{
		Phase:          QueuePhaseRefill,
		PreFilterTotal: len(items),
		Queued:         len(ids),
	}, nil
}

// notifyPreviousCycle reports the cycle that just completed. It runs before
// the table is truncated so the synced count is still observable.
func (s *QueueService) notifyPreviousCycle(ctx context.Context, settings integration.SyncSettings) {
	if !settings.NotificationsEnabled {
		return
	}

	cycle, err := s.queue.LatestCycle(ctx)
	if errors.Is(err, integration.ErrCycleNotFound) {
		return
	}
	if err != nil {
		s.logger.Error("failed to load previous cycle", zap.Error(err))
		return
	}
	// An empty cycle has nothing to report; refills repeat every tick until
	// the filter matches again.
	if cycle.QueuedTotal == 0 && len(cycle.Errors) == 0 {
		s.logger.Debug("skipping notification for empty cycle", zap.String("cycle_id", cycle.ID.String()))
		return
	}

	synced, err := s.queue.CountSynced(ctx)
	if err != nil {
		s.logger.Error("failed to count synced rows", zap.Error(err))
		return
	}

	report := cycle.Report(s.now(), int(synced))
	if err := s.notifier.NotifyCycleComplete(ctx, settings.NotificationEmail, report); err != nil {
		s.logger.Error("failed to send cycle notification",
			zap.String("cycle_id", report.CycleID),
			zap.Error(err),
		)
	}
}

// ---------------------------------------------------------------------------
// Drain
// ---------------------------------------------------------------------------

func (s *QueueService) drain(ctx context.Context, settings integration.SyncSettings) (*QueueRunResult, error) {
	cycle, err := s.currentCycle(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.queue.NextUnsynced(ctx, settings.BatchSize)
	if err != nil {
		return nil, &integration.PersistenceError{Op: "select queue batch", Err: err}
	}

	result := &QueueRunResult{Phase: QueuePhaseDrain}
	var batch ErrorBatch
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			result.Errors = batch.Reports()
			return result, err
		}
		result.Processed++

		report, ok := s.drainOne(ctx, cycle, entry.RemoteItemID, settings)
		if ok {
			result.Synced++
		} else {
			result.Failed++
		}
		if report != nil {
			batch.Append(*report)
		}
	}
	result.Errors = batch.Reports()

	s.logger.Info("sync queue batch drained",
		zap.String("cycle_id", cycle.ID.String()),
		zap.Int("processed", result.Processed),
		zap.Int("synced", result.Synced),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// drainOne syncs one queued item. It returns the error report of the item, if
// any, and whether the row is now synced.
func (s *QueueService) drainOne(
	ctx context.Context,
	cycle *integration.SyncCycle,
	remoteItemID string,
	settings integration.SyncSettings,
) (*integration.ErrorReport, bool) {
	item := integration.RemoteItem{ID: remoteItemID}

	items, err := s.remote.FetchProducts(ctx, remoteItemID, 0)
	if err == nil && len(items) == 0 {
		err = integration.ErrRemoteItemMissing
	}
	if err != nil {
		return s.fail(ctx, cycle, item, err), false
	}
	item = items[0]

	outcome, err := s.syncer.SyncItem(ctx, item, settings)
	if err != nil {
		return s.fail(ctx, cycle, item, err), false
	}
	s.metrics.ItemSynced(ctx, SourceScheduled, outcome.Created)

	if err := s.queue.MarkSynced(ctx, remoteItemID); err != nil {
		perr := &integration.PersistenceError{Op: "mark synced", Err: err}
		return s.fail(ctx, cycle, item, perr), false
	}

	if len(outcome.VariantErrors) > 0 {
		report := s.variantReport(item, outcome.VariantErrors)
		s.record(ctx, cycle, report)
		return &report, true
	}

	if err := s.queue.ClearCycleError(ctx, cycle.ID, remoteItemID); err != nil {
		s.logger.Warn("failed to clear cycle error",
			zap.String("remote_item_id", remoteItemID),
			zap.Error(err),
		)
	}
	return nil, true
}

func (s *QueueService) fail(ctx context.Context, cycle *integration.SyncCycle, item integration.RemoteItem, err error) *integration.ErrorReport {
	report := ReportFromError(item, err)
	s.record(ctx, cycle, report)
	s.metrics.ItemFailed(ctx, SourceScheduled)
	s.logger.Warn("queued item failed",
		zap.String("remote_item_id", report.RemoteItemID),
		zap.String("error", report.Message),
	)
	return &report
}

func (s *QueueService) record(ctx context.Context, cycle *integration.SyncCycle, report integration.ErrorReport) {
	cycleErr := integration.CycleError{
		RemoteItemID: report.RemoteItemID,
		Name:         report.Name,
		SKU:          report.SKU,
		Message:      report.Message,
		OccurredAt:   s.now(),
	}
	if err := s.queue.RecordCycleError(ctx, cycle.ID, cycleErr); err != nil {
		s.logger.Error("failed to record cycle error",
			zap.String("remote_item_id", report.RemoteItemID),
			zap.Error(err),
		)
	}
}

// variantReport folds the variant failures of an item into one report line
func (s *QueueService) variantReport(item integration.RemoteItem, errs []error) integration.ErrorReport {
	messages := make([]string, 0, len(errs))
	for _, err := range errs {
		messages = append(messages, ReportFromError(item, err).Message)
	}
	report := ReportFromError(item, errs[0])
	report.Message = strings.Join(messages, "; ")
	return report
}

// currentCycle returns the cycle being drained, opening one for a queue that
// was filled outside a refill
func (s *QueueService) currentCycle(ctx context.Context) (*integration.SyncCycle, error) {
	cycle, err := s.queue.LatestCycle(ctx)
	if err == nil {
		return cycle, nil
	}
	if !errors.Is(err, integration.ErrCycleNotFound) {
		return nil, &integration.PersistenceError{Op: "load cycle", Err: err}
	}

	pending, err := s.queue.CountUnsynced(ctx)
	if err != nil {
		return nil, &integration.PersistenceError{Op: "count unsynced", Err: err}
	}
	cycle = integration.NewSyncCycle(int(pending), int(pending))
	cycle.StartedAt = s.now()
	if err := s.queue.SaveCycle(ctx, cycle); err != nil {
		return nil, &integration.PersistenceError{Op: "save cycle", Err: err}
	}
	return cycle, nil
}
