package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestMapper(store *fakeStore) *ItemMapper {
	return NewItemMapper(store, NewCategoryResolver(store, zap.NewNop()), nil, zap.NewNop())
}

func TestItemMapper_SimpleMissingSKU(t *testing.T) {
	mapper := newTestMapper(newFakeStore())

	_, err := mapper.MapItem(context.Background(), simpleItem("R1", "", 10, 1), nil, testSettings())
	require.Error(t, err)
	assert.ErrorIs(t, err, integration.ErrMissingSKU)
	assert.True(t, integration.IsItemError(err))

	var itemErr *integration.ItemError
	require.True(t, errors.As(err, &itemErr))
	assert.Equal(t, "R1", itemErr.RemoteItemID)
}

func TestItemMapper_UnknownKind(t *testing.T) {
	mapper := newTestMapper(newFakeStore())
	item := integration.RemoteItem{ID: "R1", SKU: "S1", Body: integration.UnknownBody{Kind: "service"}}

	_, err := mapper.MapItem(context.Background(), item, nil, testSettings())
	assert.ErrorIs(t, err, integration.ErrUnsupportedKind)
}

func TestItemMapper_VariantsMergeTopLevelAttributes(t *testing.T) {
	red := variant("V-RED", 10)
	red.CategoryFields = []integration.Attribute{{Name: "color", Value: "red"}}
	blue := variant("V-BLUE", 10)
	blue.CategoryFields = []integration.Attribute{{Name: "color", Value: "blue"}}
	green := variant("V-GREEN", 10)
	green.CategoryFields = []integration.Attribute{{Name: "color", Value: "green"}}

	item := variantsItem("R1", red, blue, green)
	item.Attributes = []integration.Attribute{{Name: "color", Value: "green"}, {Name: "brand", Value: "Acme"}}

	plan, err := newTestMapper(newFakeStore()).MapItem(context.Background(), item, nil, testSettings())
	require.NoError(t, err)

	assert.Equal(t, integration.ProductTypeVariable, plan.Type)
	assert.Empty(t, plan.SKU)
	assert.Equal(t, []integration.AttributeOptions{
		{Name: "color", Options: []string{"green", "red", "blue"}},
		{Name: "brand", Options: []string{"Acme"}},
	}, plan.Attributes)
	require.NotNil(t, plan.Variants)
	assert.Len(t, plan.Variants.Creates, 3)
}

func TestItemMapper_StockPolicy(t *testing.T) {
	tests := []struct {
		name        string
		importStock bool
		stock       int64
		want        integration.StockPolicy
	}{
		{"no import, no stock", false, 0, integration.StockPolicy{Visible: true, StockStatus: integration.StockStatusInStock, ManageStock: false}},
		{"no import, stock", false, 5, integration.StockPolicy{Visible: true, StockStatus: integration.StockStatusInStock, ManageStock: false}},
		{"import, no stock", true, 0, integration.StockPolicy{Visible: false, StockStatus: integration.StockStatusOutOfStock, ManageStock: true}},
		{"import, stock", true, 5, integration.StockPolicy{Visible: true, StockStatus: integration.StockStatusInStock, ManageStock: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := testSettings()
			settings.ImportStock = tt.importStock

			plan, err := newTestMapper(newFakeStore()).MapItem(context.Background(), simpleItem("R1", "S1", 10, tt.stock), nil, settings)
			require.NoError(t, err)
			assert.Equal(t, tt.want, plan.Policy)
		})
	}
}

func TestItemMapper_NewProductPlan(t *testing.T) {
	settings := testSettings()
	settings.DefaultPostStatus = integration.PostStatusDraft

	item := simpleItem("R1", "S1", 10, 1)
	item.Attributes = []integration.Attribute{{Name: "brand", Value: "Acme"}, {Name: "brand", Value: "Acme"}}

	plan, err := newTestMapper(newFakeStore()).MapItem(context.Background(), item, nil, settings)
	require.NoError(t, err)

	assert.True(t, plan.IsNew())
	assert.Equal(t, "S1", plan.SKU)
	assert.Equal(t, integration.PostStatusDraft, plan.Status)
	assert.Equal(t, integration.ProductTypeSimple, plan.Type)
	assert.Equal(t, []integration.AttributeOptions{{Name: "brand", Options: []string{"Acme"}}}, plan.Attributes)
}

func TestItemMapper_ExistingBySKUKeepsIdentity(t *testing.T) {
	store := newFakeStore()
	id := store.seedProduct(integration.LocalProduct{SKU: "S1"})

	plan, err := newTestMapper(store).MapItem(context.Background(), simpleItem("R1", "S1", 10, 1), nil, testSettings())
	require.NoError(t, err)

	require.NotNil(t, plan.ExistingID)
	assert.Equal(t, id, *plan.ExistingID)
	assert.Empty(t, plan.SKU)
	assert.Empty(t, plan.Status)
}

func TestItemMapper_CategoryAssignment(t *testing.T) {
	tests := []struct {
		name     string
		onlyNew  bool
		existing bool
		assigned bool
	}{
		{"only new, new product", true, false, true},
		{"only new, existing product", true, true, false},
		{"always, existing product", false, true, true},
		{"always, new product", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			var existing *uuid.UUID
			if tt.existing {
				id := store.seedProduct(integration.LocalProduct{SKU: "S1"})
				existing = &id
			}

			settings := testSettings()
			settings.ImportCategoryOnlyOnNew = tt.onlyNew
			item := simpleItem("R1", "S1", 10, 1)
			item.CategoryPath = []string{"Shoes>Men"}

			plan, err := newTestMapper(store).MapItem(context.Background(), item, existing, settings)
			require.NoError(t, err)
			if tt.assigned {
				assert.Len(t, plan.CategoryIDs, 2)
			} else {
				assert.Nil(t, plan.CategoryIDs)
			}
		})
	}
}

func TestItemMapper_PackDisabled(t *testing.T) {
	settings := testSettings()
	settings.Features.PackImport = false
	item := integration.RemoteItem{ID: "P1", SKU: "PK", Body: integration.PackBody{
		Components: []integration.PackComponent{{RemoteItemID: "C1", Quantity: 1}},
	}}

	syncer := NewItemSyncer(newFakeStore(), newMockRemote(10), zap.NewNop())
	_, err := syncer.SyncItem(context.Background(), item, settings)
	assert.ErrorIs(t, err, integration.ErrFeatureDisabled)
}

func TestItemSyncer_PackResolvesComponents(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	remote := newMockRemote(10)
	remote.On("FetchProducts", mock.Anything, "C1", 0).
		Return([]integration.RemoteItem{simpleItem("C1", "COMP-1", 4, 2)}, nil)

	pack := integration.RemoteItem{
		ID:    "P1",
		SKU:   "PK",
		Name:  "Pack",
		Price: decimal.NewFromInt(20),
		Body: integration.PackBody{
			Components: []integration.PackComponent{{RemoteItemID: "C1", Quantity: 3}},
		},
	}

	outcome, err := NewItemSyncer(store, remote, zap.NewNop()).SyncItem(ctx, pack, testSettings())
	require.NoError(t, err)
	assert.True(t, outcome.Created)

	component, err := store.FindProductByRemoteID(ctx, "C1")
	require.NoError(t, err)
	stored := store.product(outcome.ProductID)
	require.NotNil(t, stored)
	assert.Equal(t, integration.ProductTypeBundle, stored.product.Type)
	assert.Equal(t, []integration.PackLine{{ProductID: component.ID, Quantity: 3}}, stored.packLines)

	last := store.plans[len(store.plans)-1]
	assert.True(t, last.FixedPrice)
	remote.AssertExpectations(t)
}

func TestItemSyncer_NestedPackRejected(t *testing.T) {
	remote := newMockRemote(10)
	remote.On("FetchProducts", mock.Anything, "C1", 0).Return([]integration.RemoteItem{{
		ID:  "C1",
		SKU: "INNER",
		Body: integration.PackBody{
			Components: []integration.PackComponent{{RemoteItemID: "C2", Quantity: 1}},
		},
	}}, nil)

	outer := integration.RemoteItem{ID: "P1", SKU: "OUTER", Body: integration.PackBody{
		Components: []integration.PackComponent{{RemoteItemID: "C1", Quantity: 1}},
	}}

	_, err := NewItemSyncer(newFakeStore(), remote, zap.NewNop()).SyncItem(context.Background(), outer, testSettings())
	require.Error(t, err)
	assert.ErrorIs(t, err, integration.ErrUnsupportedNesting)

	report := ReportFromError(outer, err)
	assert.Equal(t, "P1", report.RemoteItemID)
	remote.AssertNotCalled(t, "FetchProducts", mock.Anything, "C2", 0)
}

func TestItemSyncer_VariableComponentRejected(t *testing.T) {
	remote := newMockRemote(10)
	remote.On("FetchProducts", mock.Anything, "C", 0).Return([]integration.RemoteItem{
		variantsItem("C", variant("CV1", 5)),
	}, nil)
	store := newFakeStore()

	pack := integration.RemoteItem{ID: "P1", SKU: "PK", Body: integration.PackBody{
		Components: []integration.PackComponent{{RemoteItemID: "C", Quantity: 2}},
	}}

	outcome, err := NewItemSyncer(store, remote, zap.NewNop()).SyncItem(context.Background(), pack, testSettings())
	require.Error(t, err)
	assert.Nil(t, outcome)
	assert.ErrorIs(t, err, integration.ErrPackComponentKind)
	assert.Empty(t, store.products)

	report := ReportFromError(pack, err)
	assert.Equal(t, "P1", report.RemoteItemID)
}

func TestItemSyncer_PackComponentMissing(t *testing.T) {
	remote := newMockRemote(10)
	remote.On("FetchProducts", mock.Anything, "C1", 0).Return([]integration.RemoteItem{}, nil)

	pack := integration.RemoteItem{ID: "P1", SKU: "PK", Body: integration.PackBody{
		Components: []integration.PackComponent{{RemoteItemID: "C1", Quantity: 1}},
	}}

	_, err := NewItemSyncer(newFakeStore(), remote, zap.NewNop()).SyncItem(context.Background(), pack, testSettings())
	assert.ErrorIs(t, err, integration.ErrPackComponentMissing)
}
