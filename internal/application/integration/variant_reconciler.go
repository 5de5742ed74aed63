package integration

import (
	"fmt"

	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReconcileVariants diffs the remote variants of an item against the local
// variants of its parent by SKU.
//
// Matching SKUs become updates, unknown SKUs become creates and every local SKU
// not seen remotely is deactivated. A remote variant is marked as seen before it
// is validated, so a variant that fails validation is never deactivated because
// of its own error. Failing variants are reported in VariantPlan.Errors and
// skipped; the remaining variants are still reconciled.
func ReconcileVariants(
	parentID *uuid.UUID,
	existing []integration.LocalVariant,
	remote []integration.RemoteVariant,
	rateSelector string,
	settings integration.SyncSettings,
) (*integration.VariantPlan, error) {
	bySKU := make(map[string]uuid.UUID, len(existing))
	for _, v := range existing {
		if parentID != nil && v.ProductID != *parentID {
			continue
		}
		bySKU[v.SKU] = v.ID
	}

	plan := &integration.VariantPlan{}
	useFlatPrice := rateSelector == "" || rateSelector == integration.DefaultRateSelector
	skuSeen := false

	for i, rv := range remote {
		if rv.SKU == "" {
			plan.Errors = append(plan.Errors, fmt.Errorf("variant #%d: %w", i+1, integration.ErrNoVariantSKU))
			continue
		}
		skuSeen = true

		localID, present := bySKU[rv.SKU]
		if present {
			delete(bySKU, rv.SKU)
		}

		if len(rv.CategoryFields) == 0 {
			plan.Errors = append(plan.Errors, fmt.Errorf("variant %s: %w", rv.SKU, integration.ErrVariantMissingFields))
			continue
		}

		price := rv.Price
		if !useFlatPrice {
			subtotal, ok := rv.RateSubtotal(rateSelector)
			if !ok {
				plan.Errors = append(plan.Errors, fmt.Errorf("variant %s rate %q: %w", rv.SKU, rateSelector, integration.ErrRateNotFound))
				continue
			}
			price = subtotal
		}

		change := integration.VariantChange{
			SKU:        rv.SKU,
			Price:      price,
			Stock:      rv.Stock,
			Policy:     integration.ResolveStockPolicy(settings.ImportStock, rv.Stock, price),
			Attributes: append([]integration.Attribute(nil), rv.CategoryFields...),
		}
		for _, f := range rv.CategoryFields {
			plan.Attributes = mergeAttributeOption(plan.Attributes, f.Name, f.Value)
		}

		if present {
			change.ID = localID
			plan.Updates = append(plan.Updates, change)
		} else {
			plan.Creates = append(plan.Creates, change)
		}
	}

	if !skuSeen {
		return nil, integration.ErrNoVariantSKU
	}

	// Deactivate in local order to keep the plan deterministic
	for _, v := range existing {
		id, leftover := bySKU[v.SKU]
		if !leftover || id != v.ID || !v.Active {
			continue
		}
		plan.Deactivate = append(plan.Deactivate, v.ID)
	}

	return plan, nil
}

// mergeAttributeOption adds value to the attribute named name, creating the
// attribute when needed; values already present are not repeated
func mergeAttributeOption(attrs []integration.AttributeOptions, name, value string) []integration.AttributeOptions {
	if name == "" {
		return attrs
	}
	for i := range attrs {
		if attrs[i].Name != name {
			continue
		}
		if value == "" {
			return attrs
		}
		for _, existing := range attrs[i].Options {
			if existing == value {
				return attrs
			}
		}
		attrs[i].Options = append(attrs[i].Options, value)
		return attrs
	}

	opt := integration.AttributeOptions{Name: name}
	if value != "" {
		opt.Options = []string{value}
	}
	return append(attrs, opt)
}

// mergeAttributeLists merges src into dst by name
func mergeAttributeLists(dst, src []integration.AttributeOptions) []integration.AttributeOptions {
	for _, a := range src {
		if len(a.Options) == 0 {
			dst = mergeAttributeOption(dst, a.Name, "")
			continue
		}
		for _, o := range a.Options {
			dst = mergeAttributeOption(dst, a.Name, o)
		}
	}
	return dst
}

// variantsPolicy is visible as soon as one variant is sellable
func variantsPolicy(plan *integration.VariantPlan) integration.StockPolicy {
	policy := integration.ResolveStockPolicy(true, 0, decimal.Zero)
	for _, changes := range [][]integration.VariantChange{plan.Creates, plan.Updates} {
		for _, c := range changes {
			if c.Policy.Visible {
				return c.Policy
			}
		}
	}
	return policy
}
