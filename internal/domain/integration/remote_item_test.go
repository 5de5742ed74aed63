package integration

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteItem_Kind(t *testing.T) {
	assert.Equal(t, ItemKindSimple, RemoteItem{Body: SimpleBody{}}.Kind())
	assert.Equal(t, ItemKindVariants, RemoteItem{Body: VariantsBody{}}.Kind())
	assert.Equal(t, ItemKindPack, RemoteItem{Body: PackBody{}}.Kind())
	assert.Equal(t, ItemKind("service"), RemoteItem{Body: UnknownBody{Kind: "service"}}.Kind())
	assert.Equal(t, ItemKind(""), RemoteItem{}.Kind())

	assert.False(t, ItemKind("service").IsValid())
	assert.True(t, ItemKindPack.IsValid())
}

func TestRemoteItem_VariantSKUs(t *testing.T) {
	item := RemoteItem{Body: VariantsBody{Variants: []RemoteVariant{
		{SKU: "A"}, {SKU: ""}, {SKU: "C"},
	}}}
	assert.Equal(t, []string{"A", "C"}, item.VariantSKUs())
	assert.Nil(t, RemoteItem{Body: SimpleBody{}}.VariantSKUs())
}

func TestRemoteVariant_RateSubtotal(t *testing.T) {
	v := RemoteVariant{Rates: []RateEntry{
		{ID: "retail", Subtotal: decimal.NewFromInt(12)},
		{ID: "wholesale", Subtotal: decimal.NewFromInt(8)},
	}}

	got, ok := v.RateSubtotal("wholesale")
	require.True(t, ok)
	assert.True(t, got.Equal(decimal.NewFromInt(8)))

	_, ok = v.RateSubtotal("vip")
	assert.False(t, ok)
}

func TestItemError(t *testing.T) {
	item := RemoteItem{ID: "r1", Name: "Shirt", SKU: "SH-1"}
	err := fmt.Errorf("sync: %w", NewItemError(item, ErrMissingSKU))

	assert.True(t, errors.Is(err, ErrMissingSKU))
	assert.True(t, IsItemError(err))
	assert.Contains(t, err.Error(), "r1")
	assert.False(t, IsItemError(ErrMissingSKU))
}

func TestRemoteAPIError_Unwrap(t *testing.T) {
	err := &RemoteAPIError{StatusCode: 401, Code: "unauthorized", Message: "bad key"}
	assert.True(t, errors.Is(err, ErrRemoteAPI))
	assert.Contains(t, err.Error(), "HTTP 401")
}

func TestPagePosition(t *testing.T) {
	page, index := PagePosition(0, 50)
	assert.Equal(t, 1, page)
	assert.Equal(t, 0, index)

	page, index = PagePosition(50, 50)
	assert.Equal(t, 2, page)
	assert.Equal(t, 0, index)

	page, index = PagePosition(123, 50)
	assert.Equal(t, 3, page)
	assert.Equal(t, 23, index)
}

func TestOrderExportRecord_IsExported(t *testing.T) {
	id := "doc-1"
	empty := ""
	assert.True(t, OrderExportRecord{RemoteDocumentID: &id}.IsExported())
	assert.False(t, OrderExportRecord{}.IsExported())
	assert.False(t, OrderExportRecord{RemoteDocumentID: &empty}.IsExported())
}
