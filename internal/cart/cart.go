// Package cart implements the cart as pure functions over a line-item list,
// plus an Aggregator that persists the list after every change.
package cart

import (
	"storefront/internal/apperrors"
	"storefront/internal/models"
)

// Summary is the cart as shown to the shopper.
type Summary struct {
	Items     []models.CartLineItem `json:"items"`
	ItemCount int                   `json:"itemCount"`
	Total     float64               `json:"total"`
}

// Summarize computes the derived totals of items.
func Summarize(items []models.CartLineItem) Summary {
	if items == nil {
		items = []models.CartLineItem{}
	}
	return Summary{Items: items, ItemCount: Count(items), Total: Total(items)}
}

// Total is the sum of price times quantity over items.
func Total(items []models.CartLineItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.LineTotal()
	}
	return sum
}

// Count is the number of units in the cart.
func Count(items []models.CartLineItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func indexOf(items []models.CartLineItem, id models.ID) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func clone(items []models.CartLineItem) []models.CartLineItem {
	return append([]models.CartLineItem(nil), items...)
}

// Add appends product with quantity 1. A product already in the cart is
// rejected with apperrors.ErrDuplicateItem and items are returned as is.
func Add(items []models.CartLineItem, product models.Product, size string) ([]models.CartLineItem, error) {
	if indexOf(items, product.ID) >= 0 {
		return items, apperrors.ErrDuplicateItem
	}
	out := clone(items)
	out = append(out, models.CartLineItem{Product: product, Quantity: 1, SelectedSize: size})
	return out, nil
}

// Increase adds one unit to the line item for id.
func Increase(items []models.CartLineItem, id models.ID) ([]models.CartLineItem, error) {
	i := indexOf(items, id)
	if i < 0 {
		return items, apperrors.NotFound("cart item", id.String())
	}
	out := clone(items)
	out[i].Quantity++
	return out, nil
}

// Decrease removes one unit from the line item for id, never going below
// one. Decreasing a single unit leaves the item in place.
func Decrease(items []models.CartLineItem, id models.ID) ([]models.CartLineItem, error) {
	i := indexOf(items, id)
	if i < 0 {
		return items, apperrors.NotFound("cart item", id.String())
	}
	out := clone(items)
	if out[i].Quantity > 1 {
		out[i].Quantity--
	}
	return out, nil
}

// Remove deletes the line item for id.
func Remove(items []models.CartLineItem, id models.ID) ([]models.CartLineItem, error) {
	i := indexOf(items, id)
	if i < 0 {
		return items, apperrors.NotFound("cart item", id.String())
	}
	out := make([]models.CartLineItem, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...), nil
}
