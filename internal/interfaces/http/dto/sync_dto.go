package dto

import (
	"time"

	"github.com/erp/catalogsync/internal/domain/integration"
)

// SyncStepRequest is the body of POST /sync/products/step. Both fields are
// optional: an empty body starts a full run.
type SyncStepRequest struct {
	Cursor       *integration.Cursor `json:"cursor"`
	SingleItemID string              `json:"single_item_id" binding:"omitempty,max=100"`
}

// SyncStepResponse is returned after every step
type SyncStepResponse struct {
	Message    string               `json:"message"`
	NextCursor *integration.Cursor  `json:"next_cursor"`
	Finished   bool                 `json:"finished"`
	TotalCount int                  `json:"total_count"`
	ItemError  *ErrorReportResponse `json:"item_error,omitempty"`
}

// ErrorReportResponse is one failed item
type ErrorReportResponse struct {
	RemoteItemID string `json:"remote_item_id"`
	Name         string `json:"name"`
	SKU          string `json:"sku"`
	Message      string `json:"message"`
}

// NewErrorReportResponse converts a domain error report
func NewErrorReportResponse(r integration.ErrorReport) ErrorReportResponse {
	return ErrorReportResponse{
		RemoteItemID: r.RemoteItemID,
		Name:         r.Name,
		SKU:          r.SKU,
		Message:      r.Message,
	}
}

// QueueRunResponse summarizes one scheduled sync trigger
type QueueRunResponse struct {
	Phase          string                `json:"phase"`
	PreFilterTotal int                   `json:"pre_filter_total"`
	Queued         int                   `json:"queued"`
	Processed      int                   `json:"processed"`
	Synced         int                   `json:"synced"`
	Failed         int                   `json:"failed"`
	Errors         []ErrorReportResponse `json:"errors"`
}

// RateResponse is a remote price rate
type RateResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SettingsRequest is the body of PUT /sync/settings. Validation of the
// values happens in the settings service.
type SettingsRequest struct {
	ImportStock             bool     `json:"import_stock"`
	DefaultPostStatus       string   `json:"default_post_status"`
	CategorySeparator       string   `json:"category_separator"`
	ImportCategoryOnlyOnNew bool     `json:"import_category_only_on_new"`
	TagFilter               []string `json:"tag_filter"`
	RateSelector            string   `json:"rate_selector"`
	BatchSize               int      `json:"batch_size"`
	ScheduleInterval        string   `json:"schedule_interval" binding:"required"`
	NotificationsEnabled    bool     `json:"notifications_enabled"`
	NotificationEmail       string   `json:"notification_email"`
	DocumentType            string   `json:"document_type"`
	ExportFreeOrders        bool     `json:"export_free_orders"`
	ExportOnStatus          string   `json:"export_on_status"`
}

// SettingsResponse exposes the effective settings. The API key is never
// returned, only whether one is configured.
type SettingsResponse struct {
	APIKeyConfigured        bool            `json:"api_key_configured"`
	ImportStock             bool            `json:"import_stock"`
	DefaultPostStatus       string          `json:"default_post_status"`
	CategorySeparator       string          `json:"category_separator"`
	ImportCategoryOnlyOnNew bool            `json:"import_category_only_on_new"`
	TagFilter               []string        `json:"tag_filter"`
	RateSelector            string          `json:"rate_selector"`
	BatchSize               int             `json:"batch_size"`
	ScheduleInterval        string          `json:"schedule_interval"`
	NotificationsEnabled    bool            `json:"notifications_enabled"`
	NotificationEmail       string          `json:"notification_email"`
	DocumentType            string          `json:"document_type"`
	ExportFreeOrders        bool            `json:"export_free_orders"`
	ExportOnStatus          string          `json:"export_on_status"`
	Features                FeaturesPayload `json:"features"`
}

// FeaturesPayload is the capability set of the deployment
type FeaturesPayload struct {
	ImageImport   bool `json:"image_import"`
	PackImport    bool `json:"pack_import"`
	RateSelection bool `json:"rate_selection"`
	OrderExport   bool `json:"order_export"`
}

// NewSettingsResponse converts domain settings
func NewSettingsResponse(s integration.SyncSettings) SettingsResponse {
	tags := s.TagFilter
	if tags == nil {
		tags = []string{}
	}
	return SettingsResponse{
		APIKeyConfigured:        s.APIKey != "",
		ImportStock:             s.ImportStock,
		DefaultPostStatus:       string(s.DefaultPostStatus),
		CategorySeparator:       s.CategorySeparator,
		ImportCategoryOnlyOnNew: s.ImportCategoryOnlyOnNew,
		TagFilter:               tags,
		RateSelector:            s.RateSelector,
		BatchSize:               s.BatchSize,
		ScheduleInterval:        s.ScheduleInterval.String(),
		NotificationsEnabled:    s.NotificationsEnabled,
		NotificationEmail:       s.NotificationEmail,
		DocumentType:            string(s.DocumentType),
		ExportFreeOrders:        s.ExportFreeOrders,
		ExportOnStatus:          s.ExportOnStatus,
		Features: FeaturesPayload{
			ImageImport:   s.Features.ImageImport,
			PackImport:    s.Features.PackImport,
			RateSelection: s.Features.RateSelection,
			OrderExport:   s.Features.OrderExport,
		},
	}
}

// ParseScheduleInterval parses the interval of a settings request
func (r SettingsRequest) ParseScheduleInterval() (time.Duration, error) {
	return time.ParseDuration(r.ScheduleInterval)
}
