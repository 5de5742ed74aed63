package models

import (
	"encoding/json"

	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model of a local product
type ProductModel struct {
	BaseModel
	RemoteItemID string                  `gorm:"type:varchar(100);index"`
	SKU          string                  `gorm:"type:varchar(100);index"`
	Name         string                  `gorm:"type:varchar(255);not null"`
	Description  string                  `gorm:"type:text"`
	Type         integration.ProductType `gorm:"type:varchar(20);not null;default:'simple'"`
	Status       integration.PostStatus  `gorm:"type:varchar(20);not null;default:'draft'"`
	Trashed      bool                    `gorm:"not null;default:false"`
	Price        decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	Stock        int64                   `gorm:"not null;default:0"`
	Visible      bool                    `gorm:"not null"`
	StockStatus  integration.StockStatus `gorm:"type:varchar(20);not null;default:'instock'"`
	ManageStock  bool                    `gorm:"not null;default:false"`
	FixedPrice   bool                    `gorm:"not null;default:false"`
	ImageURL     string                  `gorm:"type:varchar(500)"`
	// Attributes is the JSON encoded list of attribute options
	Attributes string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the model to the local product seen by the sync engine
func (m *ProductModel) ToDomain() *integration.LocalProduct {
	return &integration.LocalProduct{
		ID:           m.ID,
		RemoteItemID: m.RemoteItemID,
		SKU:          m.SKU,
		Name:         m.Name,
		Type:         m.Type,
		Status:       m.Status,
		Trashed:      m.Trashed,
	}
}

// ApplyPlan copies the fields every sync rewrites. SKU, status and image are
// only written on creation and are left to the caller.
func (m *ProductModel) ApplyPlan(plan *integration.UpsertPlan) error {
	attrs, err := json.Marshal(plan.Attributes)
	if err != nil {
		return err
	}
	m.RemoteItemID = plan.RemoteItemID
	m.Type = plan.Type
	m.Name = plan.Name
	m.Description = plan.Description
	m.Price = plan.Price
	m.Stock = plan.Stock
	m.Visible = plan.Policy.Visible
	m.StockStatus = plan.Policy.StockStatus
	m.ManageStock = plan.Policy.ManageStock
	m.FixedPrice = plan.FixedPrice
	m.Attributes = string(attrs)
	return nil
}

// AttributeOptions decodes the stored attribute options
func (m *ProductModel) AttributeOptions() []integration.AttributeOptions {
	var attrs []integration.AttributeOptions
	if m.Attributes != "" {
		_ = json.Unmarshal([]byte(m.Attributes), &attrs)
	}
	return attrs
}

// ---------------------------------------------------------------------------
// Variants
// ---------------------------------------------------------------------------

// ProductVariantModel is the persistence model of a child variant
type ProductVariantModel struct {
	BaseModel
	ProductID   uuid.UUID               `gorm:"type:uuid;not null;index"`
	SKU         string                  `gorm:"type:varchar(100);index"`
	Price       decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	Stock       int64                   `gorm:"not null;default:0"`
	Visible     bool                    `gorm:"not null"`
	StockStatus integration.StockStatus `gorm:"type:varchar(20);not null;default:'instock'"`
	ManageStock bool                    `gorm:"not null;default:false"`
	Active      bool                    `gorm:"not null"`
	// Attributes is the JSON encoded list of name/value pairs
	Attributes string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ProductVariantModel) TableName() string {
	return "product_variants"
}

// ToDomain converts the model to a domain variant
func (m *ProductVariantModel) ToDomain() integration.LocalVariant {
	var attrs []integration.Attribute
	if m.Attributes != "" {
		_ = json.Unmarshal([]byte(m.Attributes), &attrs)
	}
	return integration.LocalVariant{
		ID:         m.ID,
		ProductID:  m.ProductID,
		SKU:        m.SKU,
		Price:      m.Price,
		Stock:      m.Stock,
		Attributes: attrs,
		Active:     m.Active,
	}
}

// FromChange populates the model from a variant change and reactivates it
func (m *ProductVariantModel) FromChange(productID uuid.UUID, change integration.VariantChange) error {
	attrs, err := json.Marshal(change.Attributes)
	if err != nil {
		return err
	}
	m.ProductID = productID
	m.SKU = change.SKU
	m.Price = change.Price
	m.Stock = change.Stock
	m.Visible = change.Policy.Visible
	m.StockStatus = change.Policy.StockStatus
	m.ManageStock = change.Policy.ManageStock
	m.Active = true
	m.Attributes = string(attrs)
	return nil
}

// ---------------------------------------------------------------------------
// Categories and packs
// ---------------------------------------------------------------------------

// TermModel is a category term
type TermModel struct {
	BaseModel
	Name     string     `gorm:"type:varchar(200);not null"`
	Slug     string     `gorm:"type:varchar(200);not null;index:idx_term_slug_parent,priority:1"`
	ParentID *uuid.UUID `gorm:"type:uuid;index:idx_term_slug_parent,priority:2"`
}

// TableName returns the table name for GORM
func (TermModel) TableName() string {
	return "terms"
}

// ToDomain converts the model to a domain term
func (m *TermModel) ToDomain() *integration.Term {
	return &integration.Term{
		ID:       m.ID,
		Name:     m.Name,
		Slug:     m.Slug,
		ParentID: m.ParentID,
	}
}

// ProductTermModel assigns a category term to a product
type ProductTermModel struct {
	ProductID uuid.UUID `gorm:"type:uuid;primaryKey"`
	TermID    uuid.UUID `gorm:"type:uuid;primaryKey"`
}

// TableName returns the table name for GORM
func (ProductTermModel) TableName() string {
	return "product_terms"
}

// PackLineModel is one component of a bundle product
type PackLineModel struct {
	BundleID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position    int       `gorm:"primaryKey"`
	ComponentID uuid.UUID `gorm:"type:uuid;not null;index"`
	Quantity    int       `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM
func (PackLineModel) TableName() string {
	return "pack_lines"
}
