package integration

import (
	"context"
	"strings"
	"time"
)

// DefaultRateSelector selects the flat variant price
const DefaultRateSelector = "default"

// PostStatus is the publication status given to newly created products
type PostStatus string

const (
	PostStatusPublish PostStatus = "publish"
	PostStatusDraft   PostStatus = "draft"
	PostStatusPending PostStatus = "pending"
	PostStatusPrivate PostStatus = "private"
)

// IsValid returns true if the status is known
func (s PostStatus) IsValid() bool {
	switch s {
	case PostStatusPublish, PostStatusDraft, PostStatusPending, PostStatusPrivate:
		return true
	}
	return false
}

// FeatureSet is the capability set resolved once per run
type FeatureSet struct {
	// ImageImport uploads remote product images for new products
	ImageImport bool
	// PackImport enables syncing of pack items
	PackImport bool
	// RateSelection allows a non-default rate selector
	RateSelection bool
	// OrderExport enables the order exporter
	OrderExport bool
}

// ---------------------------------------------------------------------------
// SyncSettings
// ---------------------------------------------------------------------------

// SyncSettings is loaded once per run and passed to every component.
// It is a value type; components never mutate it.
type SyncSettings struct {
	// APIKey authenticates against the ERP
	APIKey string
	// ImportStock makes the remote stock level authoritative
	ImportStock bool
	// DefaultPostStatus is applied to new products
	DefaultPostStatus PostStatus
	// CategorySeparator splits category path segments (empty disables splitting)
	CategorySeparator string
	// ImportCategoryOnlyOnNew restricts category assignment to new products
	ImportCategoryOnlyOnNew bool
	// TagFilter limits scheduled syncs to items carrying one of these tags
	TagFilter []string
	// RateSelector picks the variant price rate; "default" or empty selects the flat price
	RateSelector string
	// BatchSize is the number of queue rows drained per scheduled trigger
	BatchSize int
	// ScheduleInterval is the delay between scheduled triggers
	ScheduleInterval time.Duration
	// NotificationsEnabled toggles error and cycle emails
	NotificationsEnabled bool
	// NotificationEmail receives the notifications
	NotificationEmail string
	// DocumentType is the remote document created for exported orders
	DocumentType DocumentType
	// ExportFreeOrders exports orders with a zero total
	ExportFreeOrders bool
	// ExportOnStatus is the order status that triggers export
	ExportOnStatus string
	// Features is the resolved capability set
	Features FeatureSet
}

// Validate checks the settings before any network call is made
func (s SyncSettings) Validate() error {
	if strings.TrimSpace(s.APIKey) == "" {
		return &ConfigError{Field: "api_key", Message: "ERP API key is not configured"}
	}
	if s.BatchSize <= 0 {
		return &ConfigError{Field: "batch_size", Message: "must be positive"}
	}
	if s.DefaultPostStatus != "" && !s.DefaultPostStatus.IsValid() {
		return &ConfigError{Field: "default_post_status", Message: "unknown status " + string(s.DefaultPostStatus)}
	}
	if s.DocumentType != "" && !s.DocumentType.IsValid() {
		return &ConfigError{Field: "document_type", Message: "unknown document type " + string(s.DocumentType)}
	}
	if !s.UsesDefaultRate() && !s.Features.RateSelection {
		return &ConfigError{Field: "rate_selector", Message: "rate selection is not enabled"}
	}
	return nil
}

// UsesDefaultRate reports whether variant prices come from the flat price
func (s SyncSettings) UsesDefaultRate() bool {
	return s.RateSelector == "" || s.RateSelector == DefaultRateSelector
}

// HasTagFilter reports whether a tag filter is configured
func (s SyncSettings) HasTagFilter() bool {
	return len(s.TagFilter) > 0
}

// PassesTagFilter reports whether a scheduled sync keeps the item.
// With a filter configured, an item without tags never passes.
func (s SyncSettings) PassesTagFilter(item RemoteItem) bool {
	if !s.HasTagFilter() {
		return true
	}
	return item.HasAnyTag(s.TagFilter)
}

// AssignsCategories decides whether the category path is written for a product
func (s SyncSettings) AssignsCategories(path []string, isNew bool) bool {
	if len(path) == 0 {
		return false
	}
	return (s.ImportCategoryOnlyOnNew && isNew) || (!s.ImportCategoryOnlyOnNew && !isNew)
}

// SettingsRepository stores the settings edited between runs as flat key/value pairs
type SettingsRepository interface {
	LoadAll(ctx context.Context) (map[string]string, error)
	SaveAll(ctx context.Context, values map[string]string) error
}
