package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultStashTTL bounds how long an abandoned interactive run keeps its page
const DefaultStashTTL = time.Hour

// StepRequest is one call of the interactive sync
type StepRequest struct {
	// Cursor is nil on the first step of a run
	Cursor *integration.Cursor
	// SingleItemID restricts a new run to one remote item
	SingleItemID string
}

// StepResult is returned after every step
type StepResult struct {
	Message string
	// NextCursor is nil when the run is finished
	NextCursor *integration.Cursor
	Finished   bool
	// TotalCount is the known lower bound of items in the run
	TotalCount int
	// ItemError is set when the processed item failed
	ItemError *integration.ErrorReport
}

// Orchestrator drives an interactive sync run one item per call.
// All state between calls lives in the cursor and the page stash.
type Orchestrator struct {
	remote   integration.RemoteCatalog
	syncer   *ItemSyncer
	stash    integration.PageStash
	runLog   integration.RunErrorLog
	notifier integration.Notifier
	metrics  SyncMetrics
	stashTTL time.Duration
	logger   *zap.Logger
}

// OrchestratorOption configures an Orchestrator
type OrchestratorOption func(*Orchestrator)

// WithStashTTL overrides DefaultStashTTL
func WithStashTTL(ttl time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.stashTTL = ttl
	}
}

// WithOrchestratorMetrics sets the metrics recorder
func WithOrchestratorMetrics(metrics SyncMetrics) OrchestratorOption {
	return func(o *Orchestrator) {
		o.metrics = metrics
	}
}

// NewOrchestrator creates an Orchestrator
func NewOrchestrator(
	remote integration.RemoteCatalog,
	syncer *ItemSyncer,
	stash integration.PageStash,
	runLog integration.RunErrorLog,
	notifier integration.Notifier,
	logger *zap.Logger,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		remote:   remote,
		syncer:   syncer,
		stash:    stash,
		runLog:   runLog,
		notifier: notifier,
		metrics:  NoopMetrics(),
		stashTTL: DefaultStashTTL,
		logger:   logger.Named("orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Step processes the item the cursor points at and returns the next cursor.
//
// Loop n maps to page n/PageSize+1 and index n%PageSize. The stash is reused
// while it holds that page and refetched otherwise. A page fetch failure is
// returned to the caller; an item failure is recorded for the end-of-run
// notification and the run moves on.
func (o *Orchestrator) Step(ctx context.Context, req StepRequest, settings integration.SyncSettings) (*StepResult, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	cursor, err := o.startOrResume(req)
	if err != nil {
		return nil, err
	}

	page, index := 1, cursor.Loop
	if cursor.SingleItemID == "" {
		page, index = integration.PagePosition(cursor.Loop, o.remote.PageSize())
	}

	stashed, err := o.loadPage(ctx, cursor, page)
	if err != nil {
		return nil, err
	}

	total := o.knownTotal(cursor, stashed)
	if index >= len(stashed.Items) {
		o.finish(ctx, cursor.RunID, settings)
		return &StepResult{
			Message:    fmt.Sprintf("Synchronization finished: %d products processed", cursor.Loop),
			Finished:   true,
			TotalCount: total,
		}, nil
	}

	item := stashed.Items[index]
	result := &StepResult{TotalCount: total}
	o.syncOne(ctx, cursor.RunID, item, settings, result)

	if o.isTerminal(cursor, stashed, index) {
		o.finish(ctx, cursor.RunID, settings)
		result.Finished = true
		return result, nil
	}

	result.NextCursor = &integration.Cursor{
		RunID:        cursor.RunID,
		Loop:         cursor.Loop + 1,
		Page:         stashed.Page,
		Total:        total,
		SingleItemID: cursor.SingleItemID,
	}
	return result, nil
}

// startOrResume returns the cursor of the step, opening a run when needed
func (o *Orchestrator) startOrResume(req StepRequest) (integration.Cursor, error) {
	if req.Cursor == nil {
		return integration.Cursor{
			RunID:        uuid.New().String(),
			SingleItemID: req.SingleItemID,
		}, nil
	}

	cursor := *req.Cursor
	if cursor.Loop < 0 {
		return cursor, fmt.Errorf("%w: negative loop %d", integration.ErrInvalidCursor, cursor.Loop)
	}
	if cursor.RunID == "" {
		if cursor.Loop > 0 {
			return cursor, fmt.Errorf("%w: missing run id", integration.ErrInvalidCursor)
		}
		cursor.RunID = uuid.New().String()
	}
	return cursor, nil
}

// loadPage returns the stashed page, fetching and stashing it when the stash
// is empty, expired or holds another page
func (o *Orchestrator) loadPage(ctx context.Context, cursor integration.Cursor, page int) (*integration.StashedPage, error) {
	if cursor.Loop > 0 {
		stashed, err := o.stash.Load(ctx, cursor.RunID)
		switch {
		case err == nil && stashed.Page == page:
			return stashed, nil
		case err != nil && !errors.Is(err, integration.ErrStashMiss):
			return nil, err
		}
	}

	fetchPage := page
	if cursor.SingleItemID != "" {
		fetchPage = 0
	}
	items, err := o.remote.FetchProducts(ctx, cursor.SingleItemID, fetchPage)
	if err != nil {
		o.logger.Warn("page fetch failed",
			zap.String("run_id", cursor.RunID),
			zap.Int("page", page),
			zap.Error(err),
		)
		return nil, err
	}

	stashed := &integration.StashedPage{Page: page, Items: items}
	if err := o.stash.Save(ctx, cursor.RunID, stashed, o.stashTTL); err != nil {
		return nil, err
	}
	return stashed, nil
}

// knownTotal is the number of items known to exist so far
func (o *Orchestrator) knownTotal(cursor integration.Cursor, stashed *integration.StashedPage) int {
	if cursor.SingleItemID != "" {
		return len(stashed.Items)
	}
	total := (stashed.Page-1)*o.remote.PageSize() + len(stashed.Items)
	if cursor.Total > total {
		return cursor.Total
	}
	return total
}

// isTerminal reports whether index is the last item of the run. A full page
// is never terminal since another page may follow.
func (o *Orchestrator) isTerminal(cursor integration.Cursor, stashed *integration.StashedPage, index int) bool {
	last := index == len(stashed.Items)-1
	if cursor.SingleItemID != "" {
		return last
	}
	return last && len(stashed.Items) < o.remote.PageSize()
}

func (o *Orchestrator) syncOne(
	ctx context.Context,
	runID string,
	item integration.RemoteItem,
	settings integration.SyncSettings,
	result *StepResult,
) {
	outcome, err := o.syncer.SyncItem(ctx, item, settings)
	if err != nil {
		report := ReportFromError(item, err)
		o.recordError(ctx, runID, report)
		o.metrics.ItemFailed(ctx, SourceInteractive)
		result.ItemError = &report
		result.Message = fmt.Sprintf("Error synchronizing %s: %s", item.Name, report.Message)
		return
	}

	for _, verr := range outcome.VariantErrors {
		o.recordError(ctx, runID, ReportFromError(item, verr))
	}
	o.metrics.ItemSynced(ctx, SourceInteractive, outcome.Created)

	verb := "updated"
	if outcome.Created {
		verb = "created"
	}
	result.Message = fmt.Sprintf("Product %s %s", item.Name, verb)
	if n := len(outcome.VariantErrors); n > 0 {
		result.Message += fmt.Sprintf(" (%d variants skipped)", n)
	}
}

func (o *Orchestrator) recordError(ctx context.Context, runID string, report integration.ErrorReport) {
	if err := o.runLog.Append(ctx, runID, report, o.stashTTL); err != nil {
		o.logger.Error("failed to record run error",
			zap.String("run_id", runID),
			zap.String("remote_item_id", report.RemoteItemID),
			zap.Error(err),
		)
	}
}

// finish flushes the accumulated errors as one notification and clears the stash
func (o *Orchestrator) finish(ctx context.Context, runID string, settings integration.SyncSettings) {
	reports, err := o.runLog.Drain(ctx, runID)
	if err != nil {
		o.logger.Error("failed to drain run errors", zap.String("run_id", runID), zap.Error(err))
	}

	if len(reports) > 0 && settings.NotificationsEnabled {
		report := integration.RunReport{RunID: runID, Errors: reports}
		if err := o.notifier.NotifyRunErrors(ctx, settings.NotificationEmail, report); err != nil {
			o.logger.Error("failed to send run error notification", zap.String("run_id", runID), zap.Error(err))
		}
	}

	if err := o.stash.Delete(ctx, runID); err != nil {
		o.logger.Warn("failed to clear page stash", zap.String("run_id", runID), zap.Error(err))
	}

	o.logger.Info("interactive sync finished",
		zap.String("run_id", runID),
		zap.Int("errors", len(reports)),
	)
}
