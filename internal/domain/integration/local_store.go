package integration

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductType is the local product type a remote kind maps onto
type ProductType string

const (
	ProductTypeSimple   ProductType = "simple"
	ProductTypeVariable ProductType = "variable"
	ProductTypeBundle   ProductType = "bundle"
)

// StockStatus is the local stock status
type StockStatus string

const (
	StockStatusInStock    StockStatus = "instock"
	StockStatusOutOfStock StockStatus = "outofstock"
)

// StockPolicy is the visibility and stock handling of a product or variant
type StockPolicy struct {
	Visible     bool
	StockStatus StockStatus
	ManageStock bool
}

// ResolveStockPolicy maps (stock import enabled, stock level, price) onto a policy.
// Every input combination yields exactly one policy.
func ResolveStockPolicy(importStock bool, stock int64, price decimal.Decimal) StockPolicy {
	switch {
	case !importStock && price.IsPositive():
		return StockPolicy{Visible: true, StockStatus: StockStatusInStock, ManageStock: false}
	case importStock && stock > 0:
		return StockPolicy{Visible: true, StockStatus: StockStatusInStock, ManageStock: true}
	default:
		return StockPolicy{Visible: false, StockStatus: StockStatusOutOfStock, ManageStock: true}
	}
}

// ---------------------------------------------------------------------------
// Local records
// ---------------------------------------------------------------------------

// LocalProduct is a product record of the local store
type LocalProduct struct {
	ID uuid.UUID
	// RemoteItemID is the external-id metadata linking the product to the ERP
	RemoteItemID string
	// SKU is set once on creation and never changed by later syncs
	SKU    string
	Name   string
	Type   ProductType
	Status PostStatus
	// Trashed products are ignored by SKU lookups
	Trashed bool
}

// LocalVariant is a child variant of a variable product
type LocalVariant struct {
	ID         uuid.UUID
	ProductID  uuid.UUID
	SKU        string
	Price      decimal.Decimal
	Stock      int64
	Attributes []Attribute
	Active     bool
}

// Term is a local category term
type Term struct {
	ID       uuid.UUID
	Name     string
	Slug     string
	ParentID *uuid.UUID
}

// ---------------------------------------------------------------------------
// Plans
// ---------------------------------------------------------------------------

// AttributeOptions is a product attribute with all distinct option values
type AttributeOptions struct {
	Name    string
	Options []string
}

// PackLine is one resolved pack component
type PackLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// UpsertPlan is the local write produced by mapping one remote item
type UpsertPlan struct {
	// ExistingID is set when the product already exists locally
	ExistingID *uuid.UUID
	// RemoteItemID is written into the external-id metadata
	RemoteItemID string
	Type         ProductType
	Name         string
	Description  string
	// SKU is only set for new simple and pack products
	SKU    string
	Price  decimal.Decimal
	Stock  int64
	Policy StockPolicy
	// Status is only applied to new products
	Status     PostStatus
	Attributes []AttributeOptions
	// CategoryIDs is nil when categories must not be touched
	CategoryIDs []uuid.UUID
	// Variants is set for variable products
	Variants *VariantPlan
	// PackLines is set for bundle products
	PackLines []PackLine
	// FixedPrice makes the bundle price override the component sum
	FixedPrice bool
	// ImageURL is set when an image was imported for a new product
	ImageURL string
}

// IsNew reports whether the plan creates a product
func (p *UpsertPlan) IsNew() bool {
	return p.ExistingID == nil
}

// VariantChange is a variant create or update
type VariantChange struct {
	// ID is uuid.Nil for creates
	ID         uuid.UUID
	SKU        string
	Price      decimal.Decimal
	Stock      int64
	Policy     StockPolicy
	Attributes []Attribute
}

// VariantPlan is the output of variant reconciliation
type VariantPlan struct {
	Creates    []VariantChange
	Updates    []VariantChange
	Deactivate []uuid.UUID
	Attributes []AttributeOptions
	// Errors holds per-variant failures; the rest of the item still syncs
	Errors []error
}

// ---------------------------------------------------------------------------
// LocalStore port
// ---------------------------------------------------------------------------

// LocalStore is the narrow contract the sync engine needs from the local store
type LocalStore interface {
	// FindProductBySKU finds a non-trashed product by exact SKU; ErrProductNotFound when absent
	FindProductBySKU(ctx context.Context, sku string) (*LocalProduct, error)
	// FindProductByRemoteID finds a product by its external-id metadata
	FindProductByRemoteID(ctx context.Context, remoteItemID string) (*LocalProduct, error)
	// FindParentBySKU finds the variable product owning a variant with one of the SKUs
	FindParentBySKU(ctx context.Context, variantSKUs []string) (*LocalProduct, error)
	// UpsertProduct applies the product part of a plan and returns the product id
	UpsertProduct(ctx context.Context, plan *UpsertPlan) (uuid.UUID, error)
	// ListVariants returns all variants of a product, active or not
	ListVariants(ctx context.Context, productID uuid.UUID) ([]LocalVariant, error)
	// UpsertVariant creates or updates a variant and returns its id
	UpsertVariant(ctx context.Context, productID uuid.UUID, change VariantChange) (uuid.UUID, error)
	// SetVariantInactive soft-deletes a variant
	SetVariantInactive(ctx context.Context, variantID uuid.UUID) error
	// FindTermBySlug finds a category term under the given parent; ErrTermNotFound when absent
	FindTermBySlug(ctx context.Context, slug string, parentID *uuid.UUID) (*Term, error)
	// CreateTerm creates a category term
	CreateTerm(ctx context.Context, name, slug string, parentID *uuid.UUID) (*Term, error)
	// AssignCategories replaces the category assignment of a product
	AssignCategories(ctx context.Context, productID uuid.UUID, termIDs []uuid.UUID) error
}
