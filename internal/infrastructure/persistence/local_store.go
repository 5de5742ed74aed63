package persistence

import (
	"context"
	"errors"

	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/erp/catalogsync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLocalStore implements integration.LocalStore using GORM
type GormLocalStore struct {
	db *gorm.DB
}

var _ integration.LocalStore = (*GormLocalStore)(nil)

// NewGormLocalStore creates a new GormLocalStore
func NewGormLocalStore(db *gorm.DB) *GormLocalStore {
	return &GormLocalStore{db: db}
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// FindProductBySKU finds a non-trashed product by exact SKU
func (r *GormLocalStore) FindProductBySKU(ctx context.Context, sku string) (*integration.LocalProduct, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("sku = ? AND trashed = ?", sku, false).
		Order("created_at ASC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrProductNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindProductByRemoteID finds a non-trashed product by its external id
func (r *GormLocalStore) FindProductByRemoteID(ctx context.Context, remoteItemID string) (*integration.LocalProduct, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("remote_item_id = ? AND trashed = ?", remoteItemID, false).
		Order("created_at ASC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrProductNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindParentBySKU finds the product owning a variant with one of the SKUs
func (r *GormLocalStore) FindParentBySKU(ctx context.Context, variantSKUs []string) (*integration.LocalProduct, error) {
	if len(variantSKUs) == 0 {
		return nil, integration.ErrProductNotFound
	}

	var model models.ProductModel
	if err := r.db.WithContext(ctx).
		Select("products.*").
		Joins("JOIN product_variants ON product_variants.product_id = products.id").
		Where("product_variants.sku IN ? AND products.trashed = ?", variantSKUs, false).
		Order("products.created_at ASC").
		Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrProductNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// UpsertProduct creates or updates the product of a plan. Pack lines are
// replaced in the same transaction.
func (r *GormLocalStore) UpsertProduct(ctx context.Context, plan *integration.UpsertPlan) (uuid.UUID, error) {
	var productID uuid.UUID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.ProductModel
		if plan.IsNew() {
			model.SKU = plan.SKU
			model.Status = plan.Status
		} else if err := tx.First(&model, "id = ?", *plan.ExistingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return integration.ErrProductNotFound
			}
			return err
		}

		if err := model.ApplyPlan(plan); err != nil {
			return err
		}
		if plan.ImageURL != "" {
			model.ImageURL = plan.ImageURL
		}
		if err := tx.Save(&model).Error; err != nil {
			return err
		}
		productID = model.ID

		if plan.Type != integration.ProductTypeBundle {
			return nil
		}
		return replacePackLines(tx, model.ID, plan.PackLines)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return productID, nil
}

func replacePackLines(tx *gorm.DB, bundleID uuid.UUID, lines []integration.PackLine) error {
	if err := tx.Where("bundle_id = ?", bundleID).Delete(&models.PackLineModel{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	rows := make([]models.PackLineModel, len(lines))
	for i, line := range lines {
		rows[i] = models.PackLineModel{
			BundleID:    bundleID,
			Position:    i,
			ComponentID: line.ProductID,
			Quantity:    line.Quantity,
		}
	}
	return tx.Create(&rows).Error
}

// ListPackLines returns the components of a bundle in order
func (r *GormLocalStore) ListPackLines(ctx context.Context, bundleID uuid.UUID) ([]integration.PackLine, error) {
	var rows []models.PackLineModel
	if err := r.db.WithContext(ctx).
		Where("bundle_id = ?", bundleID).
		Order("position ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	lines := make([]integration.PackLine, len(rows))
	for i, row := range rows {
		lines[i] = integration.PackLine{ProductID: row.ComponentID, Quantity: row.Quantity}
	}
	return lines, nil
}

// ---------------------------------------------------------------------------
// Variants
// ---------------------------------------------------------------------------

// ListVariants returns all variants of a product, active or not
func (r *GormLocalStore) ListVariants(ctx context.Context, productID uuid.UUID) ([]integration.LocalVariant, error) {
	var rows []models.ProductVariantModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	variants := make([]integration.LocalVariant, len(rows))
	for i := range rows {
		variants[i] = rows[i].ToDomain()
	}
	return variants, nil
}

// UpsertVariant creates the variant when change.ID is nil, otherwise updates
// and reactivates it
func (r *GormLocalStore) UpsertVariant(ctx context.Context, productID uuid.UUID, change integration.VariantChange) (uuid.UUID, error) {
	var model models.ProductVariantModel
	if change.ID != uuid.Nil {
		if err := r.db.WithContext(ctx).
			First(&model, "id = ? AND product_id = ?", change.ID, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return uuid.Nil, integration.ErrProductNotFound
			}
			return uuid.Nil, err
		}
	}
	if err := model.FromChange(productID, change); err != nil {
		return uuid.Nil, err
	}
	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		return uuid.Nil, err
	}
	return model.ID, nil
}

// SetVariantInactive soft-deletes a variant
func (r *GormLocalStore) SetVariantInactive(ctx context.Context, variantID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.ProductVariantModel{}).
		Where("id = ?", variantID).
		Update("active", false).Error
}

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

// FindTermBySlug finds a term under the given parent; a nil parent means top level
func (r *GormLocalStore) FindTermBySlug(ctx context.Context, slug string, parentID *uuid.UUID) (*integration.Term, error) {
	query := r.db.WithContext(ctx).Where("slug = ?", slug)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}

	var model models.TermModel
	if err := query.Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrTermNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// CreateTerm creates a category term
func (r *GormLocalStore) CreateTerm(ctx context.Context, name, slug string, parentID *uuid.UUID) (*integration.Term, error) {
	model := models.TermModel{Name: name, Slug: slug, ParentID: parentID}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// AssignCategories replaces the category assignment of a product
func (r *GormLocalStore) AssignCategories(ctx context.Context, productID uuid.UUID, termIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", productID).Delete(&models.ProductTermModel{}).Error; err != nil {
			return err
		}
		if len(termIDs) == 0 {
			return nil
		}
		rows := make([]models.ProductTermModel, 0, len(termIDs))
		seen := make(map[uuid.UUID]bool, len(termIDs))
		for _, id := range termIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			rows = append(rows, models.ProductTermModel{ProductID: productID, TermID: id})
		}
		return tx.Create(&rows).Error
	})
}

// ListCategories returns the term ids assigned to a product
func (r *GormLocalStore) ListCategories(ctx context.Context, productID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.ProductTermModel{}).
		Where("product_id = ?", productID).
		Pluck("term_id", &ids).Error
	return ids, err
}
