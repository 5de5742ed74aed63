package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/erp/catalogsync/internal/domain/integration"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Remote    RemoteConfig
	Sync      SyncConfig
	Features  FeatureConfig
	Storage   StorageConfig
	Mail      MailConfig
	Telemetry TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings. An empty host keeps the page
// stash in process memory.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds the settings used to verify admin tokens
type JWTConfig struct {
	Secret string
	Issuer string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
}

// RemoteConfig holds the ERP API settings
type RemoteConfig struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	PageSize int
}

// SyncConfig holds the defaults of the runtime sync settings and the
// scheduled trigger
type SyncConfig struct {
	ImportStock             bool
	DefaultPostStatus       string
	CategorySeparator       string
	ImportCategoryOnlyOnNew bool
	TagFilter               []string
	RateSelector            string
	BatchSize               int
	ScheduleEnabled         bool
	ScheduleInterval        time.Duration
	NotificationsEnabled    bool
	NotificationEmail       string
	DocumentType            string
	ExportFreeOrders        bool
	ExportOnStatus          string
	StashTTL                time.Duration
}

// FeatureConfig holds the capability set of the deployment
type FeatureConfig struct {
	ImageImport   bool
	PackImport    bool
	RateSelection bool
	OrderExport   bool
}

// StorageConfig holds the S3 settings for imported images
type StorageConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	UsePathStyle    bool
}

// MailConfig holds the SMTP settings for notifications. An empty host logs
// notifications instead of sending them.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	TLS      bool
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	MetricsEnabled    bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	ExportInterval    time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with SYNC_ prefix (e.g., SYNC_REMOTE_API_KEY)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("SYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
			Issuer: v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
		},
		Remote: RemoteConfig{
			BaseURL:  v.GetString("remote.base_url"),
			APIKey:   v.GetString("remote.api_key"),
			Timeout:  v.GetDuration("remote.timeout"),
			PageSize: v.GetInt("remote.page_size"),
		},
		Sync: SyncConfig{
			ImportStock:             v.GetBool("sync.import_stock"),
			DefaultPostStatus:       v.GetString("sync.default_post_status"),
			CategorySeparator:       v.GetString("sync.category_separator"),
			ImportCategoryOnlyOnNew: v.GetBool("sync.import_category_only_on_new"),
			TagFilter:               v.GetStringSlice("sync.tag_filter"),
			RateSelector:            v.GetString("sync.rate_selector"),
			BatchSize:               v.GetInt("sync.batch_size"),
			ScheduleEnabled:         v.GetBool("sync.schedule_enabled"),
			ScheduleInterval:        v.GetDuration("sync.schedule_interval"),
			NotificationsEnabled:    v.GetBool("sync.notifications_enabled"),
			NotificationEmail:       v.GetString("sync.notification_email"),
			DocumentType:            v.GetString("sync.document_type"),
			ExportFreeOrders:        v.GetBool("sync.export_free_orders"),
			ExportOnStatus:          v.GetString("sync.export_on_status"),
			StashTTL:                v.GetDuration("sync.stash_ttl"),
		},
		Features: FeatureConfig{
			ImageImport:   v.GetBool("features.image_import"),
			PackImport:    v.GetBool("features.pack_import"),
			RateSelection: v.GetBool("features.rate_selection"),
			OrderExport:   v.GetBool("features.order_export"),
		},
		Storage: StorageConfig{
			Bucket:          v.GetString("storage.bucket"),
			Region:          v.GetString("storage.region"),
			Endpoint:        v.GetString("storage.endpoint"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			PublicBaseURL:   v.GetString("storage.public_base_url"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
		},
		Mail: MailConfig{
			Host:     v.GetString("mail.host"),
			Port:     v.GetInt("mail.port"),
			Username: v.GetString("mail.username"),
			Password: v.GetString("mail.password"),
			From:     v.GetString("mail.from"),
			TLS:      v.GetBool("mail.tls"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			ExportInterval:    v.GetDuration("telemetry.export_interval"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "catalogsync"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "catalogsync"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "catalogsync"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// a sync step performs remote calls bounded by remote.timeout
		cfg.HTTP.WriteTimeout = 90 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20
	}
	if cfg.Remote.BaseURL == "" {
		cfg.Remote.BaseURL = "https://api.holded.com/api/invoicing/v1"
	}
	if cfg.Remote.Timeout == 0 {
		cfg.Remote.Timeout = 30 * time.Second
	}
	if cfg.Remote.PageSize == 0 {
		cfg.Remote.PageSize = 500
	}
	if cfg.Sync.DefaultPostStatus == "" {
		cfg.Sync.DefaultPostStatus = string(integration.PostStatusDraft)
	}
	if cfg.Sync.RateSelector == "" {
		cfg.Sync.RateSelector = integration.DefaultRateSelector
	}
	if cfg.Sync.BatchSize == 0 {
		cfg.Sync.BatchSize = 20
	}
	if cfg.Sync.ScheduleInterval == 0 {
		cfg.Sync.ScheduleInterval = 5 * time.Minute
	}
	if cfg.Sync.DocumentType == "" {
		cfg.Sync.DocumentType = string(integration.DocumentTypeInvoice)
	}
	if cfg.Sync.ExportOnStatus == "" {
		cfg.Sync.ExportOnStatus = "completed"
	}
	if cfg.Sync.StashTTL == 0 {
		cfg.Sync.StashTTL = time.Hour
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Mail.Port == 0 {
		cfg.Mail.Port = 587
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "catalogsync"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Remote.PageSize < 0 {
		return fmt.Errorf("remote.page_size must be positive")
	}
	if c.Sync.BatchSize < 0 {
		return fmt.Errorf("sync.batch_size must be positive")
	}
	if c.Sync.ScheduleInterval < time.Minute {
		return fmt.Errorf("sync.schedule_interval must be at least 1m, got %s", c.Sync.ScheduleInterval)
	}
	if !integration.PostStatus(c.Sync.DefaultPostStatus).IsValid() {
		return fmt.Errorf("sync.default_post_status %q is not a known status", c.Sync.DefaultPostStatus)
	}
	if !integration.DocumentType(c.Sync.DocumentType).IsValid() {
		return fmt.Errorf("sync.document_type %q is not a known document type", c.Sync.DocumentType)
	}
	if c.Features.ImageImport && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when features.image_import is enabled")
	}

	if c.App.Env == "production" {
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	return nil
}

// SyncDefaults returns the sync settings used when the settings table holds
// no override
func (c *Config) SyncDefaults() integration.SyncSettings {
	return integration.SyncSettings{
		APIKey:                  c.Remote.APIKey,
		ImportStock:             c.Sync.ImportStock,
		DefaultPostStatus:       integration.PostStatus(c.Sync.DefaultPostStatus),
		CategorySeparator:       c.Sync.CategorySeparator,
		ImportCategoryOnlyOnNew: c.Sync.ImportCategoryOnlyOnNew,
		TagFilter:               c.Sync.TagFilter,
		RateSelector:            c.Sync.RateSelector,
		BatchSize:               c.Sync.BatchSize,
		ScheduleInterval:        c.Sync.ScheduleInterval,
		NotificationsEnabled:    c.Sync.NotificationsEnabled,
		NotificationEmail:       c.Sync.NotificationEmail,
		DocumentType:            integration.DocumentType(c.Sync.DocumentType),
		ExportFreeOrders:        c.Sync.ExportFreeOrders,
		ExportOnStatus:          c.Sync.ExportOnStatus,
		Features: integration.FeatureSet{
			ImageImport:   c.Features.ImageImport,
			PackImport:    c.Features.PackImport,
			RateSelection: c.Features.RateSelection,
			OrderExport:   c.Features.OrderExport,
		},
	}
}

// RedisAddr returns host:port, or "" when Redis is not configured
func (r *RedisConfig) RedisAddr() string {
	if r.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
