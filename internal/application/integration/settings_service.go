package integration

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Keys of the sync_settings table
const (
	SettingImportStock             = "import_stock"
	SettingDefaultPostStatus       = "default_post_status"
	SettingCategorySeparator       = "category_separator"
	SettingImportCategoryOnlyOnNew = "import_category_only_on_new"
	SettingTagFilter               = "tag_filter"
	SettingRateSelector            = "rate_selector"
	SettingBatchSize               = "batch_size"
	SettingScheduleInterval        = "schedule_interval"
	SettingNotificationsEnabled    = "notifications_enabled"
	SettingNotificationEmail       = "notification_email"
	SettingDocumentType            = "document_type"
	SettingExportFreeOrders        = "export_free_orders"
	SettingExportOnStatus          = "export_on_status"
)

// SettingsUpdate is the editable part of SyncSettings
type SettingsUpdate struct {
	ImportStock             bool          `json:"import_stock"`
	DefaultPostStatus       string        `json:"default_post_status" validate:"required,oneof=publish draft pending private"`
	CategorySeparator       string        `json:"category_separator" validate:"max=8"`
	ImportCategoryOnlyOnNew bool          `json:"import_category_only_on_new"`
	TagFilter               []string      `json:"tag_filter" validate:"dive,required"`
	RateSelector            string        `json:"rate_selector" validate:"required"`
	BatchSize               int           `json:"batch_size" validate:"gte=1,lte=500"`
	ScheduleInterval        time.Duration `json:"schedule_interval" validate:"gte=1m"`
	NotificationsEnabled    bool          `json:"notifications_enabled"`
	NotificationEmail       string        `json:"notification_email" validate:"required_if=NotificationsEnabled true,omitempty,email"`
	DocumentType            string        `json:"document_type" validate:"required,oneof=invoice salesreceipt salesorder proform waybill nosync"`
	ExportFreeOrders        bool          `json:"export_free_orders"`
	ExportOnStatus          string        `json:"export_on_status" validate:"required"`
}

// SettingsService loads the run settings from the settings table over the
// configured defaults. The API key and the feature set only come from
// configuration.
type SettingsService struct {
	repo     integration.SettingsRepository
	remote   integration.RemoteCatalog
	defaults integration.SyncSettings
	validate *validator.Validate
	logger   *zap.Logger
}

var _ SettingsProvider = (*SettingsService)(nil)

// NewSettingsService creates a SettingsService
func NewSettingsService(
	repo integration.SettingsRepository,
	remote integration.RemoteCatalog,
	defaults integration.SyncSettings,
	logger *zap.Logger,
) *SettingsService {
	return &SettingsService{
		repo:     repo,
		remote:   remote,
		defaults: defaults,
		validate: validator.New(),
		logger:   logger.Named("settings"),
	}
}

// Current returns the settings for a run
func (s *SettingsService) Current(ctx context.Context) (integration.SyncSettings, error) {
	values, err := s.repo.LoadAll(ctx)
	if err != nil {
		return integration.SyncSettings{}, &integration.PersistenceError{Op: "load settings", Err: err}
	}
	return decodeSettings(s.defaults, values)
}

// Update validates and stores the editable settings and returns the result
func (s *SettingsService) Update(ctx context.Context, update SettingsUpdate) (integration.SyncSettings, error) {
	if err := s.validate.StructCtx(ctx, update); err != nil {
		return integration.SyncSettings{}, err
	}

	values := encodeSettings(update)
	settings, err := decodeSettings(s.defaults, values)
	if err != nil {
		return integration.SyncSettings{}, err
	}
	if err := settings.Validate(); err != nil {
		return integration.SyncSettings{}, err
	}
	if !settings.UsesDefaultRate() {
		if err := s.checkRate(ctx, settings.RateSelector); err != nil {
			return integration.SyncSettings{}, err
		}
	}

	if err := s.repo.SaveAll(ctx, values); err != nil {
		return integration.SyncSettings{}, &integration.PersistenceError{Op: "save settings", Err: err}
	}

	s.logger.Info("sync settings updated",
		zap.String("rate_selector", settings.RateSelector),
		zap.Int("batch_size", settings.BatchSize),
		zap.Strings("tag_filter", settings.TagFilter),
	)
	return settings, nil
}

// Rates lists the remote price rates, for choosing a rate selector
func (s *SettingsService) Rates(ctx context.Context) ([]integration.Rate, error) {
	if strings.TrimSpace(s.defaults.APIKey) == "" {
		return nil, &integration.ConfigError{Field: "api_key", Message: "ERP API key is not configured"}
	}
	return s.remote.FetchRates(ctx)
}

func (s *SettingsService) checkRate(ctx context.Context, rateID string) error {
	rates, err := s.remote.FetchRates(ctx)
	if err != nil {
		return err
	}
	for _, r := range rates {
		if r.ID == rateID {
			return nil
		}
	}
	return &integration.ConfigError{Field: "rate_selector", Message: "unknown rate " + rateID}
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

func encodeSettings(u SettingsUpdate) map[string]string {
	return map[string]string{
		SettingImportStock:             strconv.FormatBool(u.ImportStock),
		SettingDefaultPostStatus:       u.DefaultPostStatus,
		SettingCategorySeparator:       u.CategorySeparator,
		SettingImportCategoryOnlyOnNew: strconv.FormatBool(u.ImportCategoryOnlyOnNew),
		SettingTagFilter:               strings.Join(u.TagFilter, ","),
		SettingRateSelector:            u.RateSelector,
		SettingBatchSize:               strconv.Itoa(u.BatchSize),
		SettingScheduleInterval:        u.ScheduleInterval.String(),
		SettingNotificationsEnabled:    strconv.FormatBool(u.NotificationsEnabled),
		SettingNotificationEmail:       u.NotificationEmail,
		SettingDocumentType:            u.DocumentType,
		SettingExportFreeOrders:        strconv.FormatBool(u.ExportFreeOrders),
		SettingExportOnStatus:          u.ExportOnStatus,
	}
}

// decodeSettings applies the stored values over the defaults. Missing keys
// keep their default.
func decodeSettings(defaults integration.SyncSettings, values map[string]string) (integration.SyncSettings, error) {
	s := defaults
	s.TagFilter = append([]string(nil), defaults.TagFilter...)

	var err error
	for key, raw := range values {
		switch key {
		case SettingImportStock:
			s.ImportStock, err = strconv.ParseBool(raw)
		case SettingDefaultPostStatus:
			s.DefaultPostStatus = integration.PostStatus(raw)
		case SettingCategorySeparator:
			s.CategorySeparator = raw
		case SettingImportCategoryOnlyOnNew:
			s.ImportCategoryOnlyOnNew, err = strconv.ParseBool(raw)
		case SettingTagFilter:
			s.TagFilter = splitTags(raw)
		case SettingRateSelector:
			s.RateSelector = raw
		case SettingBatchSize:
			s.BatchSize, err = strconv.Atoi(raw)
		case SettingScheduleInterval:
			s.ScheduleInterval, err = time.ParseDuration(raw)
		case SettingNotificationsEnabled:
			s.NotificationsEnabled, err = strconv.ParseBool(raw)
		case SettingNotificationEmail:
			s.NotificationEmail = raw
		case SettingDocumentType:
			s.DocumentType = integration.DocumentType(raw)
		case SettingExportFreeOrders:
			s.ExportFreeOrders, err = strconv.ParseBool(raw)
		case SettingExportOnStatus:
			s.ExportOnStatus = raw
		}
		if err != nil {
			return integration.SyncSettings{}, &integration.ConfigError{Field: key, Message: err.Error()}
		}
	}

	s.APIKey = defaults.APIKey
	s.Features = defaults.Features
	return s, nil
}

func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
