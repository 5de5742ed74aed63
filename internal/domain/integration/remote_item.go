package integration

import (
	"github.com/shopspring/decimal"
)

// ItemKind is the discriminant of a remote catalog item
type ItemKind string

const (
	ItemKindSimple   ItemKind = "simple"
	ItemKindVariants ItemKind = "variants"
	ItemKindPack     ItemKind = "pack"
)

// IsValid reports whether the kind is one the mapper understands
func (k ItemKind) IsValid() bool {
	switch k {
	case ItemKindSimple, ItemKindVariants, ItemKindPack:
		return true
	}
	return false
}

// Attribute is a name/value facet of an item or variant
type Attribute struct {
	Name  string
	Value string
}

// RateEntry is one price of a variant under a named remote rate
type RateEntry struct {
	// ID identifies the rate on the remote side
	ID string
	// Subtotal is the variant price under this rate
	Subtotal decimal.Decimal
}

// ---------------------------------------------------------------------------
// RemoteItem
// ---------------------------------------------------------------------------

// RemoteItem is one catalog entry fetched from the ERP
type RemoteItem struct {
	// ID is the remote-stable identifier
	ID string
	// SKU may be empty; required for simple items
	SKU string
	// Name is the display name
	Name string
	// Description is the long description
	Description string
	// Price is the flat price
	Price decimal.Decimal
	// Stock is the remote stock level
	Stock int64
	// Tags is the set of remote tags used by the scheduled tag filter
	Tags []string
	// CategoryPath is the ordered list of category names
	CategoryPath []string
	// Attributes are the top-level facets
	Attributes []Attribute
	// HasImage reports whether the ERP holds an image for the item
	HasImage bool
	// Body carries the kind-specific fields
	Body ItemBody
}

// ItemBody is the kind-specific part of a RemoteItem.
// Implementations: SimpleBody, VariantsBody, PackBody, UnknownBody.
type ItemBody interface {
	itemKind() ItemKind
}

// SimpleBody is the body of a simple item
type SimpleBody struct{}

// VariantsBody is the body of an item with child variants
type VariantsBody struct {
	Variants []RemoteVariant
}

// PackBody is the body of a bundle of other items
type PackBody struct {
	Components []PackComponent
}

// UnknownBody holds an item whose wire kind is not recognized
type UnknownBody struct {
	Kind string
}

func (SimpleBody) itemKind() ItemKind    { return ItemKindSimple }
func (VariantsBody) itemKind() ItemKind  { return ItemKindVariants }
func (PackBody) itemKind() ItemKind      { return ItemKindPack }
func (b UnknownBody) itemKind() ItemKind { return ItemKind(b.Kind) }

// Kind returns the discriminant of the item body
func (i RemoteItem) Kind() ItemKind {
	if i.Body == nil {
		return ""
	}
	return i.Body.itemKind()
}

// VariantSKUs returns the non-empty SKUs of the item's variants
func (i RemoteItem) VariantSKUs() []string {
	body, ok := i.Body.(VariantsBody)
	if !ok {
		return nil
	}
	skus := make([]string, 0, len(body.Variants))
	for _, v := range body.Variants {
		if v.SKU != "" {
			skus = append(skus, v.SKU)
		}
	}
	return skus
}

// HasAnyTag reports whether the item carries at least one of the given tags
func (i RemoteItem) HasAnyTag(tags []string) bool {
	for _, want := range tags {
		for _, have := range i.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// RemoteVariant / PackComponent
// ---------------------------------------------------------------------------

// RemoteVariant is one child variant of a variants item
type RemoteVariant struct {
	SKU   string
	Price decimal.Decimal
	// Rates holds the rate-keyed prices, if the ERP sent any
	Rates []RateEntry
	Stock int64
	// CategoryFields are the ordered facets (size, color, ...) distinguishing the variant
	CategoryFields []Attribute
}

// RateSubtotal returns the subtotal for the given rate id
func (v RemoteVariant) RateSubtotal(rateID string) (decimal.Decimal, bool) {
	for _, r := range v.Rates {
		if r.ID == rateID {
			return r.Subtotal, true
		}
	}
	return decimal.Zero, false
}

// PackComponent is one member of a pack
type PackComponent struct {
	RemoteItemID string
	Quantity     int
}

// Rate describes a remote price rate, used to configure the rate selector
type Rate struct {
	ID   string
	Name string
}
