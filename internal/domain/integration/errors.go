package integration

import (
	"errors"
	"fmt"
)

// Item errors: recorded against the item, the run continues
var (
	ErrMissingSKU           = errors.New("integration: simple item has no SKU")
	ErrUnsupportedKind      = errors.New("integration: unsupported item kind")
	ErrNoVariantSKU         = errors.New("integration: no variant carries a SKU")
	ErrRateNotFound         = errors.New("integration: rate not found for variant")
	ErrVariantMissingFields = errors.New("integration: variant has no category fields")
	ErrUnsupportedNesting   = errors.New("integration: packs of packs are not supported")
	ErrPackComponentMissing = errors.New("integration: pack component not found remotely")
	ErrPackComponentKind    = errors.New("integration: pack components must be simple items")
	ErrRemoteItemMissing    = errors.New("integration: item no longer exists remotely")
)

// Lookup and infrastructure errors
var (
	ErrRemoteAPI         = errors.New("integration: remote API request failed")
	ErrProductNotFound   = errors.New("integration: local product not found")
	ErrTermNotFound      = errors.New("integration: term not found")
	ErrOrderNotFound     = errors.New("integration: order not found")
	ErrCycleNotFound     = errors.New("integration: sync cycle not found")
	ErrStashMiss         = errors.New("integration: no stashed page for run")
	ErrInvalidCursor     = errors.New("integration: invalid cursor")
	ErrFeatureDisabled   = errors.New("integration: feature disabled")
	ErrImageNotAvailable = errors.New("integration: image not available")
)

// RemoteAPIError is returned for non-2xx responses, error payloads and
// transport failures of the ERP API
type RemoteAPIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *RemoteAPIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("integration: remote API error (HTTP %d) %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("integration: remote API error %s: %s", e.Code, e.Message)
}

// Unwrap lets callers match with errors.Is(err, ErrRemoteAPI)
func (e *RemoteAPIError) Unwrap() error {
	return ErrRemoteAPI
}

// PersistenceError wraps a local store write failure
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("integration: persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ConfigError reports missing or invalid sync settings
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("integration: invalid settings %s: %s", e.Field, e.Message)
}

// ItemError attaches item identity to a per-item failure
type ItemError struct {
	RemoteItemID string
	Name         string
	SKU          string
	Err          error
}

// NewItemError builds an ItemError for the given item
func NewItemError(item RemoteItem, err error) *ItemError {
	return &ItemError{
		RemoteItemID: item.ID,
		Name:         item.Name,
		SKU:          item.SKU,
		Err:          err,
	}
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %s (%s, sku %q): %v", e.RemoteItemID, e.Name, e.SKU, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// IsItemError reports whether err is scoped to a single item
func IsItemError(err error) bool {
	var itemErr *ItemError
	return errors.As(err, &itemErr)
}
