package cache

import (
	"github.com/erp/catalogsync/internal/domain/integration"
)

// RunStore holds the server-side state of interactive runs: the stashed page
// and the accumulated item errors, both keyed by run id
type RunStore interface {
	integration.PageStash
	integration.RunErrorLog
	Close() error
}
