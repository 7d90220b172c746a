package models

import (
	"encoding/json"
	"time"
)

// CartLineItem is a product snapshot plus the quantity held in the cart.
// Serialized flat, the product fields sit next to quantity and selectedSize.
type CartLineItem struct {
	Product
	Quantity     int    `json:"quantity"`
	SelectedSize string `json:"selectedSize,omitempty"`
}

// UnmarshalJSON is needed because Product's decoder would otherwise be
// promoted and swallow quantity and selectedSize.
func (li *CartLineItem) UnmarshalJSON(data []byte) error {
	var p Product
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var extra struct {
		Quantity     int    `json:"quantity"`
		SelectedSize string `json:"selectedSize"`
	}
	if err := json.Unmarshal(data, &extra); err != nil {
		return err
	}
	li.Product = p
	li.Quantity = extra.Quantity
	if li.Quantity < 1 {
		li.Quantity = 1
	}
	li.SelectedSize = extra.SelectedSize
	return nil
}

// LineTotal is price times quantity.
func (li CartLineItem) LineTotal() float64 {
	return li.Price * float64(li.Quantity)
}

// CheckoutSummary is what checkout records about the cart.
type CheckoutSummary struct {
	ID          string         `json:"id"`
	Items       []CartLineItem `json:"items"`
	ItemCount   int            `json:"itemCount"`
	TotalAmount float64        `json:"totalAmount"`
	CapturedAt  time.Time      `json:"capturedAt"`
}
