package integration

import (
	"context"
	"time"
)

// Cursor is the resumption state of an interactive sync run.
// It is returned to the caller after each step and sent back on the next.
type Cursor struct {
	// RunID keys the server-side page stash
	RunID string `json:"run_id"`
	// Loop is the zero-based index of the next item across all pages
	Loop int `json:"loop"`
	// Page is the one-based page the stash currently holds
	Page int `json:"page"`
	// Total is the known lower bound of the catalog size
	Total int `json:"total"`
	// SingleItemID restricts the run to one remote item
	SingleItemID string `json:"single_item_id,omitempty"`
}

// PagePosition returns the page and in-page index of loop for the given page size
func PagePosition(loop, pageSize int) (page, index int) {
	return loop/pageSize + 1, loop % pageSize
}

// StashedPage is the fetched-but-unprocessed page of an interactive run
type StashedPage struct {
	Page  int
	Items []RemoteItem
}

// PageStash stores pages server-side keyed by run id
type PageStash interface {
	// Load returns the stashed page; ErrStashMiss when nothing is stored
	Load(ctx context.Context, runID string) (*StashedPage, error)
	Save(ctx context.Context, runID string, page *StashedPage, ttl time.Duration) error
	Delete(ctx context.Context, runID string) error
}

// RunErrorLog accumulates item errors across the steps of an interactive run
type RunErrorLog interface {
	Append(ctx context.Context, runID string, report ErrorReport, ttl time.Duration) error
	Drain(ctx context.Context, runID string) ([]ErrorReport, error)
}
