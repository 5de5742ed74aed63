package integration

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PackComponentResolver syncs a pack component and returns its local product id
type PackComponentResolver interface {
	ResolvePackComponent(ctx context.Context, component integration.PackComponent, settings integration.SyncSettings) (uuid.UUID, error)
}

// ItemMapper converts one remote item into a local upsert plan
type ItemMapper struct {
	store      integration.LocalStore
	categories *CategoryResolver
	packs      PackComponentResolver
	logger     *zap.Logger
}

// NewItemMapper creates an ItemMapper. packs may be nil when pack import is never enabled.
func NewItemMapper(
	store integration.LocalStore,
	categories *CategoryResolver,
	packs PackComponentResolver,
	logger *zap.Logger,
) *ItemMapper {
	return &ItemMapper{
		store:      store,
		categories: categories,
		packs:      packs,
		logger:     logger.Named("item_mapper"),
	}
}

// MapItem maps a remote item, allowing pack items
func (m *ItemMapper) MapItem(
	ctx context.Context,
	item integration.RemoteItem,
	existingLocalID *uuid.UUID,
	settings integration.SyncSettings,
) (*integration.UpsertPlan, error) {
	return m.mapItem(ctx, item, existingLocalID, settings, true)
}

// mapItem is MapItem with explicit pack nesting control. Pack components are
// mapped with allowNestedPack=false, which bounds the recursion to one level.
func (m *ItemMapper) mapItem(
	ctx context.Context,
	item integration.RemoteItem,
	existingLocalID *uuid.UUID,
	settings integration.SyncSettings,
	allowNestedPack bool,
) (*integration.UpsertPlan, error) {
	var (
		plan *integration.UpsertPlan
		err  error
	)

	switch body := item.Body.(type) {
	case integration.SimpleBody:
		plan, err = m.mapSimple(ctx, item, existingLocalID, settings)
	case integration.VariantsBody:
		plan, err = m.mapVariants(ctx, item, body, existingLocalID, settings)
	case integration.PackBody:
		if !allowNestedPack {
			return nil, integration.NewItemError(item, integration.ErrUnsupportedNesting)
		}
		plan, err = m.mapPack(ctx, item, body, existingLocalID, settings)
	default:
		return nil, integration.NewItemError(item, integration.ErrUnsupportedKind)
	}
	if err != nil {
		var itemErr *integration.ItemError
		if errors.As(err, &itemErr) && itemErr.RemoteItemID == item.ID {
			return nil, err
		}
		return nil, integration.NewItemError(item, err)
	}

	if settings.AssignsCategories(item.CategoryPath, plan.IsNew()) {
		ids, err := m.categories.ResolveCategoryIDs(ctx, item.CategoryPath, settings.CategorySeparator)
		if err != nil {
			return nil, integration.NewItemError(item, err)
		}
		plan.CategoryIDs = ids
	}

	return plan, nil
}

// ---------------------------------------------------------------------------
// Kinds
// ---------------------------------------------------------------------------

func (m *ItemMapper) mapSimple(
	ctx context.Context,
	item integration.RemoteItem,
	existingLocalID *uuid.UUID,
	settings integration.SyncSettings,
) (*integration.UpsertPlan, error) {
	if item.SKU == "" {
		return nil, integration.ErrMissingSKU
	}

	existingID, err := m.existingBySKU(ctx, item.SKU, existingLocalID)
	if err != nil {
		return nil, err
	}

	plan := m.basePlan(item, existingID, settings, integration.ProductTypeSimple)
	plan.Policy = integration.ResolveStockPolicy(settings.ImportStock, item.Stock, item.Price)
	return plan, nil
}

func (m *ItemMapper) mapVariants(
	ctx context.Context,
	item integration.RemoteItem,
	body integration.VariantsBody,
	existingLocalID *uuid.UUID,
	settings integration.SyncSettings,
) (*integration.UpsertPlan, error) {
	skus := item.VariantSKUs()
	if len(skus) == 0 {
		return nil, integration.ErrNoVariantSKU
	}

	existingID := existingLocalID
	if existingID == nil {
		parent, err := m.store.FindParentBySKU(ctx, skus)
		switch {
		case err == nil:
			existingID = &parent.ID
		case !errors.Is(err, integration.ErrProductNotFound):
			return nil, err
		}
	}

	var existing []integration.LocalVariant
	if existingID != nil {
		variants, err := m.store.ListVariants(ctx, *existingID)
		if err != nil {
			return nil, err
		}
		existing = variants
	}

	variantPlan, err := ReconcileVariants(existingID, existing, body.Variants, settings.RateSelector, settings)
	if err != nil {
		return nil, err
	}

	plan := m.basePlan(item, existingID, settings, integration.ProductTypeVariable)
	// Parent variable products carry no SKU of their own
	plan.SKU = ""
	plan.Attributes = mergeAttributeLists(plan.Attributes, variantPlan.Attributes)
	plan.Policy = variantsPolicy(variantPlan)
	plan.Variants = variantPlan
	return plan, nil
}

func (m *ItemMapper) mapPack(
	ctx context.Context,
	item integration.RemoteItem,
	body integration.PackBody,
	existingLocalID *uuid.UUID,
	settings integration.SyncSettings,
) (*integration.UpsertPlan, error) {
	if !settings.Features.PackImport || m.packs == nil {
		return nil, integration.ErrFeatureDisabled
	}

	existingID, err := m.existingBySKU(ctx, item.SKU, existingLocalID)
	if err != nil {
		return nil, err
	}

	lines := make([]integration.PackLine, 0, len(body.Components))
	for _, c := range body.Components {
		productID, err := m.packs.ResolvePackComponent(ctx, c, settings)
		if err != nil {
			return nil, fmt.Errorf("pack component %s: %w", c.RemoteItemID, err)
		}
		lines = append(lines, integration.PackLine{ProductID: productID, Quantity: c.Quantity})
	}

	plan := m.basePlan(item, existingID, settings, integration.ProductTypeBundle)
	plan.Policy = integration.ResolveStockPolicy(settings.ImportStock, item.Stock, item.Price)
	plan.PackLines = lines
	plan.FixedPrice = true
	return plan, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// existingBySKU resolves new vs existing for SKU-keyed kinds
func (m *ItemMapper) existingBySKU(ctx context.Context, sku string, existingLocalID *uuid.UUID) (*uuid.UUID, error) {
	if existingLocalID != nil {
		return existingLocalID, nil
	}
	if sku == "" {
		return nil, nil
	}

	product, err := m.store.FindProductBySKU(ctx, sku)
	if errors.Is(err, integration.ErrProductNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product.ID, nil
}

// basePlan fills the fields common to every kind. SKU and status are only
// written for new products.
func (m *ItemMapper) basePlan(
	item integration.RemoteItem,
	existingID *uuid.UUID,
	settings integration.SyncSettings,
	productType integration.ProductType,
) *integration.UpsertPlan {
	plan := &integration.UpsertPlan{
		ExistingID:   existingID,
		RemoteItemID: item.ID,
		Type:         productType,
		Name:         item.Name,
		Description:  item.Description,
		Price:        item.Price,
		Stock:        item.Stock,
	}

	for _, a := range item.Attributes {
		plan.Attributes = mergeAttributeOption(plan.Attributes, a.Name, a.Value)
	}

	if plan.IsNew() {
		plan.SKU = item.SKU
		plan.Status = settings.DefaultPostStatus
		if plan.Status == "" {
			plan.Status = integration.PostStatusPublish
		}
	}
	return plan
}
