package integration

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SyncOutcome is the result of syncing one remote item
type SyncOutcome struct {
	ProductID uuid.UUID
	Created   bool
	// VariantErrors are per-variant failures of an otherwise synced item
	VariantErrors []error
}

// ItemSyncer maps a remote item and applies the plan to the local store.
// It is shared by the interactive orchestrator and the scheduled queue.
type ItemSyncer struct {
	store  integration.LocalStore
	remote integration.RemoteCatalog
	mapper *ItemMapper
	images integration.ImageStore
	logger *zap.Logger
}

// ItemSyncerOption configures an ItemSyncer
type ItemSyncerOption func(*ItemSyncer)

// WithImageStore enables image import into the given store
func WithImageStore(images integration.ImageStore) ItemSyncerOption {
	return func(s *ItemSyncer) {
		s.images = images
	}
}

// NewItemSyncer creates an ItemSyncer
func NewItemSyncer(
	store integration.LocalStore,
	remote integration.RemoteCatalog,
	logger *zap.Logger,
	opts ...ItemSyncerOption,
) *ItemSyncer {
	s := &ItemSyncer{
		store:  store,
		remote: remote,
		logger: logger.Named("item_syncer"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mapper = NewItemMapper(store, NewCategoryResolver(store, logger), s, logger)
	return s
}

// SyncItem syncs one remote item. Every returned error is scoped to the item.
func (s *ItemSyncer) SyncItem(ctx context.Context, item integration.RemoteItem, settings integration.SyncSettings) (*SyncOutcome, error) {
	return s.syncItem(ctx, item, settings, true)
}

func (s *ItemSyncer) syncItem(
	ctx context.Context,
	item integration.RemoteItem,
	settings integration.SyncSettings,
	allowNestedPack bool,
) (*SyncOutcome, error) {
	existingID, err := s.existingByRemoteID(ctx, item.ID)
	if err != nil {
		return nil, integration.NewItemError(item, err)
	}

	plan, err := s.mapper.mapItem(ctx, item, existingID, settings, allowNestedPack)
	if err != nil {
		return nil, err
	}

	if plan.IsNew() {
		s.importImage(ctx, item, plan, settings)
	}

	productID, err := s.apply(ctx, plan)
	if err != nil {
		return nil, integration.NewItemError(item, err)
	}

	outcome := &SyncOutcome{ProductID: productID, Created: plan.IsNew()}
	if plan.Variants != nil {
		for _, verr := range plan.Variants.Errors {
			outcome.VariantErrors = append(outcome.VariantErrors, integration.NewItemError(item, verr))
		}
	}

	s.logger.Debug("item synced",
		zap.String("remote_item_id", item.ID),
		zap.String("product_id", productID.String()),
		zap.Bool("created", outcome.Created),
		zap.Int("variant_errors", len(outcome.VariantErrors)),
	)
	return outcome, nil
}

// ResolvePackComponent fetches a pack component and syncs it as a plain
// product. Only simple items may be components; nested packs and variable
// products are rejected before anything is written.
func (s *ItemSyncer) ResolvePackComponent(
	ctx context.Context,
	component integration.PackComponent,
	settings integration.SyncSettings,
) (uuid.UUID, error) {
	items, err := s.remote.FetchProducts(ctx, component.RemoteItemID, 0)
	if err != nil {
		return uuid.Nil, err
	}
	if len(items) == 0 {
		return uuid.Nil, integration.ErrPackComponentMissing
	}

	switch items[0].Body.(type) {
	case integration.SimpleBody:
	case integration.PackBody:
		return uuid.Nil, integration.NewItemError(items[0], integration.ErrUnsupportedNesting)
	default:
		return uuid.Nil, integration.NewItemError(items[0], integration.ErrPackComponentKind)
	}

	outcome, err := s.syncItem(ctx, items[0], settings, false)
	if err != nil {
		return uuid.Nil, err
	}
	return outcome.ProductID, nil
}

// existingByRemoteID looks the product up by its external-id metadata
func (s *ItemSyncer) existingByRemoteID(ctx context.Context, remoteItemID string) (*uuid.UUID, error) {
	product, err := s.store.FindProductByRemoteID(ctx, remoteItemID)
	if errors.Is(err, integration.ErrProductNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product.ID, nil
}

// apply writes the plan: product, categories, then variants
func (s *ItemSyncer) apply(ctx context.Context, plan *integration.UpsertPlan) (uuid.UUID, error) {
	productID, err := s.store.UpsertProduct(ctx, plan)
	if err != nil {
		return uuid.Nil, &integration.PersistenceError{Op: "upsert product", Err: err}
	}

	if plan.CategoryIDs != nil {
		if err := s.store.AssignCategories(ctx, productID, plan.CategoryIDs); err != nil {
			return uuid.Nil, &integration.PersistenceError{Op: "assign categories", Err: err}
		}
	}

	if plan.Variants == nil {
		return productID, nil
	}

	for _, changes := range [][]integration.VariantChange{plan.Variants.Creates, plan.Variants.Updates} {
		for _, change := range changes {
			if _, err := s.store.UpsertVariant(ctx, productID, change); err != nil {
				return uuid.Nil, &integration.PersistenceError{Op: "upsert variant " + change.SKU, Err: err}
			}
		}
	}
	for _, variantID := range plan.Variants.Deactivate {
		if err := s.store.SetVariantInactive(ctx, variantID); err != nil {
			return uuid.Nil, &integration.PersistenceError{Op: "deactivate variant", Err: err}
		}
	}

	return productID, nil
}

// importImage uploads the remote image of a new product. Failures are logged
// and never fail the item.
func (s *ItemSyncer) importImage(ctx context.Context, item integration.RemoteItem, plan *integration.UpsertPlan, settings integration.SyncSettings) {
	if s.images == nil || !settings.Features.ImageImport || !item.HasImage {
		return
	}

	data, contentType, err := s.remote.FetchImage(ctx, item.ID)
	if err != nil {
		s.logger.Warn("image fetch failed", zap.String("remote_item_id", item.ID), zap.Error(err))
		return
	}

	key := fmt.Sprintf("products/%s%s", item.ID, imageExtension(contentType))
	url, err := s.images.Upload(ctx, key, data, contentType)
	if err != nil {
		s.logger.Warn("image upload failed", zap.String("remote_item_id", item.ID), zap.Error(err))
		return
	}
	plan.ImageURL = url
}

func imageExtension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ""
}
