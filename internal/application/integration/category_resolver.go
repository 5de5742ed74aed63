package integration

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// CategoryResolver turns a remote category path into a chain of local term ids
type CategoryResolver struct {
	store  integration.LocalStore
	logger *zap.Logger
}

// NewCategoryResolver creates a CategoryResolver
func NewCategoryResolver(store integration.LocalStore, logger *zap.Logger) *CategoryResolver {
	return &CategoryResolver{
		store:  store,
		logger: logger.Named("category_resolver"),
	}
}

// ResolveCategoryIDs returns one term id per path segment, in order, creating
// missing terms as children of the previous level. Lookup by slug always
// precedes creation, so resolving the same path twice creates nothing new.
func (r *CategoryResolver) ResolveCategoryIDs(ctx context.Context, path []string, separator string) ([]uuid.UUID, error) {
	segments := splitCategoryPath(path, separator)
	ids := make([]uuid.UUID, 0, len(segments))

	var parentID *uuid.UUID
	for _, name := range segments {
		termSlug := slug.Make(name)
		if termSlug == "" {
			continue
		}

		term, err := r.store.FindTermBySlug(ctx, termSlug, parentID)
		if errors.Is(err, integration.ErrTermNotFound) {
			term, err = r.store.CreateTerm(ctx, name, termSlug, parentID)
			if err != nil {
				return nil, &integration.PersistenceError{Op: "create term " + termSlug, Err: err}
			}
			r.logger.Debug("category term created",
				zap.String("slug", termSlug),
				zap.String("term_id", term.ID.String()),
			)
		} else if err != nil {
			return nil, err
		}

		ids = append(ids, term.ID)
		id := term.ID
		parentID = &id
	}

	return ids, nil
}

// splitCategoryPath flattens the path, splitting every entry on separator
func splitCategoryPath(path []string, separator string) []string {
	segments := make([]string, 0, len(path))
	for _, entry := range path {
		parts := []string{entry}
		if separator != "" {
			parts = strings.Split(entry, separator)
		}
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				segments = append(segments, p)
			}
		}
	}
	return segments
}
