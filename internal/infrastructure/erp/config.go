package erp

import (
	"errors"
	"net/url"
	"time"
)

const (
	// DefaultBaseURL is the production API endpoint
	DefaultBaseURL = "https://api.holded.com/api/invoicing/v1"
	// DefaultPageSize is the number of products in a full page
	DefaultPageSize = 500
	// DefaultTimeout bounds every remote call
	DefaultTimeout = 30 * time.Second
)

// Errors for client configuration
var (
	ErrConfigInvalidBaseURL = errors.New("erp: base url is invalid")
	ErrConfigInvalidPage    = errors.New("erp: page size must be positive")
)

// Config holds the ERP API settings
type Config struct {
	// BaseURL is the API root, without trailing slash
	BaseURL string
	// APIKey is sent in the "key" header; it may be empty until configured
	APIKey string
	// Timeout is the per-request timeout
	Timeout time.Duration
	// PageSize is the fixed page size of GET /products
	PageSize int
}

// Validate applies defaults and checks the configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
	if c.PageSize < 0 {
		return ErrConfigInvalidPage
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrConfigInvalidBaseURL
	}
	return nil
}
