package erp

import (
	"github.com/shopspring/decimal"

	"github.com/erp/catalogsync/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Catalog payloads
// ---------------------------------------------------------------------------

// wireProduct is one entry of GET /products
type wireProduct struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Desc           string              `json:"desc,omitempty"`
	SKU            string              `json:"sku,omitempty"`
	Kind           string              `json:"kind"`
	Price          decimal.Decimal     `json:"price"`
	Stock          int64               `json:"stock"`
	Tags           []string            `json:"tags,omitempty"`
	CategoryPath   []string            `json:"categoryPath,omitempty"`
	Attributes     []wireAttribute     `json:"attributes,omitempty"`
	HasImage       bool                `json:"hasImage,omitempty"`
	Variants       []wireVariant       `json:"variants,omitempty"`
	PackComponents []wirePackComponent `json:"packComponents,omitempty"`
}

type wireAttribute struct {
	Name  string `json:"name"`
	Field string `json:"field,omitempty"`
	Value string `json:"value"`
}

type wireVariant struct {
	SKU            string          `json:"sku"`
	Price          decimal.Decimal `json:"price"`
	Stock          int64           `json:"stock"`
	Rates          []wireRate      `json:"rates,omitempty"`
	CategoryFields []wireAttribute `json:"categoryFields,omitempty"`
}

type wireRate struct {
	ID       string          `json:"id"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type wirePackComponent struct {
	ProductID string `json:"productId"`
	Units     int    `json:"units"`
}

type wireRateInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ---------------------------------------------------------------------------
// Document payloads
// ---------------------------------------------------------------------------

type wireDocument struct {
	ContactName  string             `json:"contactName"`
	ContactEmail string             `json:"contactEmail,omitempty"`
	Desc         string             `json:"desc,omitempty"`
	Date         int64              `json:"date"`
	Currency     string             `json:"currency,omitempty"`
	Items        []wireDocumentItem `json:"items"`
}

type wireDocumentItem struct {
	Name     string          `json:"name"`
	SKU      string          `json:"sku,omitempty"`
	Units    int             `json:"units"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
}

type wireDocumentResult struct {
	Status     int    `json:"status"`
	ID         string `json:"id"`
	InvoiceNum string `json:"invoiceNum,omitempty"`
}

// wireError is the error envelope of every endpoint
type wireError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ---------------------------------------------------------------------------
// Conversion
// ---------------------------------------------------------------------------

func (p wireProduct) toDomain() integration.RemoteItem {
	item := integration.RemoteItem{
		ID:           p.ID,
		SKU:          p.SKU,
		Name:         p.Name,
		Description:  p.Desc,
		Price:        p.Price,
		Stock:        p.Stock,
		Tags:         p.Tags,
		CategoryPath: p.CategoryPath,
		Attributes:   toAttributes(p.Attributes),
		HasImage:     p.HasImage,
	}

	switch integration.ItemKind(p.Kind) {
	case integration.ItemKindSimple:
		item.Body = integration.SimpleBody{}
	case integration.ItemKindVariants:
		variants := make([]integration.RemoteVariant, 0, len(p.Variants))
		for _, v := range p.Variants {
			variants = append(variants, v.toDomain())
		}
		item.Body = integration.VariantsBody{Variants: variants}
	case integration.ItemKindPack:
		components := make([]integration.PackComponent, 0, len(p.PackComponents))
		for _, c := range p.PackComponents {
			components = append(components, integration.PackComponent{RemoteItemID: c.ProductID, Quantity: c.Units})
		}
		item.Body = integration.PackBody{Components: components}
	default:
		item.Body = integration.UnknownBody{Kind: p.Kind}
	}
	return item
}

func (v wireVariant) toDomain() integration.RemoteVariant {
	rates := make([]integration.RateEntry, 0, len(v.Rates))
	for _, r := range v.Rates {
		rates = append(rates, integration.RateEntry{ID: r.ID, Subtotal: r.Subtotal})
	}
	return integration.RemoteVariant{
		SKU:            v.SKU,
		Price:          v.Price,
		Rates:          rates,
		Stock:          v.Stock,
		CategoryFields: toAttributes(v.CategoryFields),
	}
}

// toAttributes accepts both the "name" and the legacy "field" key
func toAttributes(in []wireAttribute) []integration.Attribute {
	if len(in) == 0 {
		return nil
	}
	out := make([]integration.Attribute, 0, len(in))
	for _, a := range in {
		name := a.Name
		if name == "" {
			name = a.Field
		}
		out = append(out, integration.Attribute{Name: name, Value: a.Value})
	}
	return out
}

func toWireDocument(req integration.DocumentRequest) wireDocument {
	items := make([]wireDocumentItem, 0, len(req.Lines))
	for _, l := range req.Lines {
		items = append(items, wireDocumentItem{
			Name:     l.Name,
			SKU:      l.SKU,
			Units:    l.Units,
			Subtotal: l.UnitCost,
			Tax:      l.TaxPercent,
		})
	}
	return wireDocument{
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		Desc:         req.Reference,
		Date:         req.Date.Unix(),
		Currency:     req.Currency,
		Items:        items,
	}
}
