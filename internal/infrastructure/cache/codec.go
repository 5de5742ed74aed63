package cache

import (
	"encoding/json"
	"fmt"

	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/shopspring/decimal"
)

// Stashed pages are stored as JSON. The item body is an interface in the
// domain, so it is flattened here with an explicit kind tag.

type pageWire struct {
	Page  int        `json:"page"`
	Items []itemWire `json:"items"`
}

type attributeWire struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type rateWire struct {
	ID       string          `json:"id"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type variantWire struct {
	SKU            string          `json:"sku,omitempty"`
	Price          decimal.Decimal `json:"price"`
	Rates          []rateWire      `json:"rates,omitempty"`
	Stock          int64           `json:"stock"`
	CategoryFields []attributeWire `json:"category_fields,omitempty"`
}

type componentWire struct {
	RemoteItemID string `json:"remote_item_id"`
	Quantity     int    `json:"quantity"`
}

type itemWire struct {
	ID           string          `json:"id"`
	Kind         string          `json:"kind"`
	SKU          string          `json:"sku,omitempty"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Stock        int64           `json:"stock"`
	Tags         []string        `json:"tags,omitempty"`
	CategoryPath []string        `json:"category_path,omitempty"`
	Attributes   []attributeWire `json:"attributes,omitempty"`
	HasImage     bool            `json:"has_image,omitempty"`
	Variants     []variantWire   `json:"variants,omitempty"`
	Components   []componentWire `json:"components,omitempty"`
}

func encodePage(page *integration.StashedPage) ([]byte, error) {
	w := pageWire{Page: page.Page, Items: make([]itemWire, len(page.Items))}
	for i, item := range page.Items {
		w.Items[i] = toItemWire(item)
	}
	return json.Marshal(w)
}

func decodePage(data []byte) (*integration.StashedPage, error) {
	var w pageWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to decode stashed page: %w", err)
	}
	page := &integration.StashedPage{Page: w.Page, Items: make([]integration.RemoteItem, len(w.Items))}
	for i, item := range w.Items {
		page.Items[i] = item.toDomain()
	}
	return page, nil
}

func toItemWire(item integration.RemoteItem) itemWire {
	w := itemWire{
		ID:           item.ID,
		Kind:         string(item.Kind()),
		SKU:          item.SKU,
		Name:         item.Name,
		Description:  item.Description,
		Price:        item.Price,
		Stock:        item.Stock,
		Tags:         item.Tags,
		CategoryPath: item.CategoryPath,
		Attributes:   toAttributeWires(item.Attributes),
		HasImage:     item.HasImage,
	}
	switch body := item.Body.(type) {
	case integration.VariantsBody:
		w.Variants = make([]variantWire, len(body.Variants))
		for i, v := range body.Variants {
			rates := make([]rateWire, len(v.Rates))
			for j, r := range v.Rates {
				rates[j] = rateWire{ID: r.ID, Subtotal: r.Subtotal}
			}
			w.Variants[i] = variantWire{
				SKU:            v.SKU,
				Price:          v.Price,
				Rates:          rates,
				Stock:          v.Stock,
				CategoryFields: toAttributeWires(v.CategoryFields),
			}
		}
	case integration.PackBody:
		w.Components = make([]componentWire, len(body.Components))
		for i, c := range body.Components {
			w.Components[i] = componentWire{RemoteItemID: c.RemoteItemID, Quantity: c.Quantity}
		}
	}
	return w
}

func (w itemWire) toDomain() integration.RemoteItem {
	item := integration.RemoteItem{
		ID:           w.ID,
		SKU:          w.SKU,
		Name:         w.Name,
		Description:  w.Description,
		Price:        w.Price,
		Stock:        w.Stock,
		Tags:         w.Tags,
		CategoryPath: w.CategoryPath,
		Attributes:   fromAttributeWires(w.Attributes),
		HasImage:     w.HasImage,
	}
	switch integration.ItemKind(w.Kind) {
	case integration.ItemKindSimple:
		item.Body = integration.SimpleBody{}
	case integration.ItemKindVariants:
		variants := make([]integration.RemoteVariant, len(w.Variants))
		for i, v := range w.Variants {
			var rates []integration.RateEntry
			if len(v.Rates) > 0 {
				rates = make([]integration.RateEntry, len(v.Rates))
				for j, r := range v.Rates {
					rates[j] = integration.RateEntry{ID: r.ID, Subtotal: r.Subtotal}
				}
			}
			variants[i] = integration.RemoteVariant{
				SKU:            v.SKU,
				Price:          v.Price,
				Rates:          rates,
				Stock:          v.Stock,
				CategoryFields: fromAttributeWires(v.CategoryFields),
			}
		}
		item.Body = integration.VariantsBody{Variants: variants}
	case integration.ItemKindPack:
		components := make([]integration.PackComponent, len(w.Components))
		for i, c := range w.Components {
			components[i] = integration.PackComponent{RemoteItemID: c.RemoteItemID, Quantity: c.Quantity}
		}
		item.Body = integration.PackBody{Components: components}
	case "":
	default:
		item.Body = integration.UnknownBody{Kind: w.Kind}
	}
	return item
}

func toAttributeWires(attrs []integration.Attribute) []attributeWire {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]attributeWire, len(attrs))
	for i, a := range attrs {
		out[i] = attributeWire{Name: a.Name, Value: a.Value}
	}
	return out
}

func fromAttributeWires(attrs []attributeWire) []integration.Attribute {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]integration.Attribute, len(attrs))
	for i, a := range attrs {
		out[i] = integration.Attribute{Name: a.Name, Value: a.Value}
	}
	return out
}

func encodeReport(report integration.ErrorReport) ([]byte, error) {
	return json.Marshal(reportWire{
		RemoteItemID: report.RemoteItemID,
		Name:         report.Name,
		SKU:          report.SKU,
		Message:      report.Message,
	})
}

func decodeReport(data []byte) (integration.ErrorReport, error) {
	var w reportWire
	if err := json.Unmarshal(data, &w); err != nil {
		return integration.ErrorReport{}, fmt.Errorf("failed to decode run error: %w", err)
	}
	return integration.ErrorReport{
		RemoteItemID: w.RemoteItemID,
		Name:         w.Name,
		SKU:          w.SKU,
		Message:      w.Message,
	}, nil
}

type reportWire struct {
	RemoteItemID string `json:"remote_item_id"`
	Name         string `json:"name"`
	SKU          string `json:"sku"`
	Message      string `json:"message"`
}
