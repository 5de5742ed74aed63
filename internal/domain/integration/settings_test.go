package integration

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() SyncSettings {
	return SyncSettings{
		APIKey:            "key",
		BatchSize:         10,
		DefaultPostStatus: PostStatusPublish,
		DocumentType:      DocumentTypeInvoice,
	}
}

func TestSyncSettings_Validate(t *testing.T) {
	t.Run("valid settings", func(t *testing.T) {
		assert.NoError(t, validSettings().Validate())
	})

	t.Run("missing api key is a config error", func(t *testing.T) {
		s := validSettings()
		s.APIKey = "  "
		err := s.Validate()
		require.Error(t, err)
		var cfgErr *ConfigError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "api_key", cfgErr.Field)
	})

	t.Run("non positive batch size", func(t *testing.T) {
		s := validSettings()
		s.BatchSize = 0
		assert.Error(t, s.Validate())
	})

	t.Run("unknown document type", func(t *testing.T) {
		s := validSettings()
		s.DocumentType = "receipt"
		assert.Error(t, s.Validate())
	})

	t.Run("rate selector requires the feature", func(t *testing.T) {
		s := validSettings()
		s.RateSelector = "wholesale"
		assert.Error(t, s.Validate())

		s.Features.RateSelection = true
		assert.NoError(t, s.Validate())
	})
}

func TestSyncSettings_UsesDefaultRate(t *testing.T) {
	assert.True(t, SyncSettings{}.UsesDefaultRate())
	assert.True(t, SyncSettings{RateSelector: DefaultRateSelector}.UsesDefaultRate())
	assert.False(t, SyncSettings{RateSelector: "r1"}.UsesDefaultRate())
}

func TestSyncSettings_PassesTagFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter []string
		tags   []string
		want   bool
	}{
		{"no filter keeps tagged item", nil, []string{"a"}, true},
		{"no filter keeps untagged item", nil, nil, true},
		{"intersecting tags pass", []string{"web", "shop"}, []string{"shop"}, true},
		{"disjoint tags are excluded", []string{"web"}, []string{"pos"}, false},
		{"empty tag set is excluded when filtering", []string{"web"}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := SyncSettings{TagFilter: tt.filter}
			assert.Equal(t, tt.want, s.PassesTagFilter(RemoteItem{Tags: tt.tags}))
		})
	}
}

func TestSyncSettings_AssignsCategories(t *testing.T) {
	path := []string{"Shoes"}
	tests := []struct {
		name    string
		onlyNew bool
		isNew   bool
		path    []string
		want    bool
	}{
		{"only-new flag and new product", true, true, path, true},
		{"only-new flag never touches existing products", true, false, path, false},
		{"flag off updates existing products", false, false, path, true},
		{"flag off skips new products", false, true, path, false},
		{"empty path never assigns", false, false, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := SyncSettings{ImportCategoryOnlyOnNew: tt.onlyNew}
			assert.Equal(t, tt.want, s.AssignsCategories(tt.path, tt.isNew))
		})
	}
}

func TestResolveStockPolicy(t *testing.T) {
	price := decimal.NewFromInt(10)
	tests := []struct {
		name        string
		importStock bool
		stock       int64
		price       decimal.Decimal
		want        StockPolicy
	}{
		{
			name:  "import off with price is visible and unmanaged",
			price: price,
			want:  StockPolicy{Visible: true, StockStatus: StockStatusInStock, ManageStock: false},
		},
		{
			name:  "import off without price is hidden",
			price: decimal.Zero,
			want:  StockPolicy{Visible: false, StockStatus: StockStatusOutOfStock, ManageStock: true},
		},
		{
			name:        "import on with stock is visible and managed",
			importStock: true,
			stock:       3,
			price:       price,
			want:        StockPolicy{Visible: true, StockStatus: StockStatusInStock, ManageStock: true},
		},
		{
			name:        "import on without stock is hidden",
			importStock: true,
			stock:       0,
			price:       price,
			want:        StockPolicy{Visible: false, StockStatus: StockStatusOutOfStock, ManageStock: true},
		},
		{
			name:        "negative stock is treated as empty",
			importStock: true,
			stock:       -2,
			price:       price,
			want:        StockPolicy{Visible: false, StockStatus: StockStatusOutOfStock, ManageStock: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveStockPolicy(tt.importStock, tt.stock, tt.price))
		})
	}
}
