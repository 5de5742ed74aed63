package handler

import (
	"context"
	"time"

	appintegration "github.com/erp/catalogsync/internal/application/integration"
	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/erp/catalogsync/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// StepRunner runs one step of the interactive sync
type StepRunner interface {
	Step(ctx context.Context, req appintegration.StepRequest, settings integration.SyncSettings) (*appintegration.StepResult, error)
}

// QueueRunner runs one scheduled sync trigger
type QueueRunner interface {
	DrainOrRefill(ctx context.Context, settings integration.SyncSettings) (*appintegration.QueueRunResult, error)
}

// SettingsManager reads and writes the runtime sync settings
type SettingsManager interface {
	Current(ctx context.Context) (integration.SyncSettings, error)
	Update(ctx context.Context, update appintegration.SettingsUpdate) (integration.SyncSettings, error)
	Rates(ctx context.Context) ([]integration.Rate, error)
}

// SyncHandler serves the product sync endpoints
type SyncHandler struct {
	BaseHandler
	steps    StepRunner
	queue    QueueRunner
	settings SettingsManager
}

// NewSyncHandler creates a SyncHandler
func NewSyncHandler(steps StepRunner, queue QueueRunner, settings SettingsManager) *SyncHandler {
	return &SyncHandler{
		steps:    steps,
		queue:    queue,
		settings: settings,
	}
}

// Step handles POST /sync/products/step. The client repeats the call with
// next_cursor until finished is true.
func (h *SyncHandler) Step(c *gin.Context) {
	var req dto.SyncStepRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}

	settings, err := h.settings.Current(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.steps.Step(c.Request.Context(), appintegration.StepRequest{
		Cursor:       req.Cursor,
		SingleItemID: req.SingleItemID,
	}, settings)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := dto.SyncStepResponse{
		Message:    result.Message,
		NextCursor: result.NextCursor,
		Finished:   result.Finished,
		TotalCount: result.TotalCount,
	}
	if result.ItemError != nil {
		report := dto.NewErrorReportResponse(*result.ItemError)
		resp.ItemError = &report
	}
	h.Success(c, resp)
}

// RunScheduled handles POST /sync/scheduled/run, one drain-or-refill pass
// outside the timer
func (h *SyncHandler) RunScheduled(c *gin.Context) {
	settings, err := h.settings.Current(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.queue.DrainOrRefill(c.Request.Context(), settings)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	errs := make([]dto.ErrorReportResponse, 0, len(result.Errors))
	for _, r := range result.Errors {
		errs = append(errs, dto.NewErrorReportResponse(r))
	}
	h.Success(c, dto.QueueRunResponse{
		Phase:          string(result.Phase),
		PreFilterTotal: result.PreFilterTotal,
		Queued:         result.Queued,
		Processed:      result.Processed,
		Synced:         result.Synced,
		Failed:         result.Failed,
		Errors:         errs,
	})
}

// Rates handles GET /sync/rates
func (h *SyncHandler) Rates(c *gin.Context) {
	rates, err := h.settings.Rates(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := make([]dto.RateResponse, 0, len(rates))
	for _, r := range rates {
		resp = append(resp, dto.RateResponse{ID: r.ID, Name: r.Name})
	}
	h.Success(c, resp)
}

// GetSettings handles GET /sync/settings
func (h *SyncHandler) GetSettings(c *gin.Context) {
	settings, err := h.settings.Current(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewSettingsResponse(settings))
}

// UpdateSettings handles PUT /sync/settings
func (h *SyncHandler) UpdateSettings(c *gin.Context) {
	var req dto.SettingsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	interval, err := req.ParseScheduleInterval()
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "schedule_interval is not a duration such as 5m")
		return
	}

	settings, err := h.settings.Update(c.Request.Context(), toSettingsUpdate(req, interval))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewSettingsResponse(settings))
}

func toSettingsUpdate(req dto.SettingsRequest, interval time.Duration) appintegration.SettingsUpdate {
	return appintegration.SettingsUpdate{
		ImportStock:             req.ImportStock,
		DefaultPostStatus:       req.DefaultPostStatus,
		CategorySeparator:       req.CategorySeparator,
		ImportCategoryOnlyOnNew: req.ImportCategoryOnlyOnNew,
		TagFilter:               req.TagFilter,
		RateSelector:            req.RateSelector,
		BatchSize:               req.BatchSize,
		ScheduleInterval:        interval,
		NotificationsEnabled:    req.NotificationsEnabled,
		NotificationEmail:       req.NotificationEmail,
		DocumentType:            req.DocumentType,
		ExportFreeOrders:        req.ExportFreeOrders,
		ExportOnStatus:          req.ExportOnStatus,
	}
}
