package models

import (
	"strings"
	"time"
)

// Order statuses. An order without a status is Pending.
const (
	StatusPending   = "Pending"
	StatusShipped   = "Shipped"
	StatusDelivered = "Delivered"
	StatusCancelled = "Cancelled"
)

// ValidStatuses lists the statuses an admin may set.
var ValidStatuses = []string{StatusPending, StatusShipped, StatusDelivered, StatusCancelled}

// OrderItem is one line of an order. Items written by older clients use
// title/image instead of name/images.
type OrderItem struct {
	ID       ID       `json:"id,omitempty"`
	Name     string   `json:"name,omitempty"`
	Title    string   `json:"title,omitempty"`
	Image    string   `json:"image,omitempty"`
	Images   []string `json:"images,omitempty"`
	Price    float64  `json:"price"`
	Quantity int      `json:"quantity"`
}

// DisplayName prefers name over title.
func (i OrderItem) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Title
}

// LineTotal is price times quantity, counting a missing quantity as one.
func (i OrderItem) LineTotal() float64 {
	q := i.Quantity
	if q < 1 {
		q = 1
	}
	return i.Price * float64(q)
}

// PaymentDetails is the masked payment summary kept on an order.
type PaymentDetails struct {
	Method string `json:"method,omitempty"`
	Last4  string `json:"last4,omitempty"`
}

// Order is a placed order. It links to its owner either by userId or by
// userEmail; both schemes occur in stored data.
type Order struct {
	ID              ID              `json:"id"`
	UserID          ID              `json:"userId,omitempty"`
	UserEmail       string          `json:"userEmail,omitempty"`
	Username        string          `json:"username,omitempty"`
	Items           []OrderItem     `json:"items,omitempty"`
	Products        []OrderItem     `json:"products,omitempty"`
	Status          string          `json:"status,omitempty"`
	TotalAmount     float64         `json:"totalAmount,omitempty"`
	Total           float64         `json:"total,omitempty"`
	TotalPrice      float64         `json:"total_price,omitempty"`
	Price           float64         `json:"price,omitempty"`
	Date            string          `json:"date,omitempty"`
	ShippingAddress string          `json:"shippingAddress,omitempty"`
	Address         string          `json:"address,omitempty"`
	ShippingMethod  string          `json:"shippingMethod,omitempty"`
	PaymentDetails  *PaymentDetails `json:"paymentDetails,omitempty"`
}

// EffectiveStatus returns the status, defaulting to Pending.
func (o Order) EffectiveStatus() string {
	if strings.TrimSpace(o.Status) == "" {
		return StatusPending
	}
	return o.Status
}

// LineItems returns items, falling back to the admin-side products list.
func (o Order) LineItems() []OrderItem {
	if len(o.Items) > 0 {
		return o.Items
	}
	return o.Products
}

// Amount is the order total, trying totalAmount, total, total_price and
// price in that order.
func (o Order) Amount() float64 {
	for _, v := range []float64{o.TotalAmount, o.Total, o.TotalPrice, o.Price} {
		if v != 0 {
			return v
		}
	}
	return 0
}

// ComputedTotal sums the line items.
func (o Order) ComputedTotal() float64 {
	var sum float64
	for _, it := range o.LineItems() {
		sum += it.LineTotal()
	}
	return sum
}

// DeliveryAddress returns the shipping address under either key.
func (o Order) DeliveryAddress() string {
	if o.ShippingAddress != "" {
		return o.ShippingAddress
	}
	return o.Address
}

var orderDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006, 3:04:05 PM",
}

// ParsedDate parses the order date. Unparseable or empty dates yield the
// zero time and false.
func (o Order) ParsedDate() (time.Time, bool) {
	raw := strings.TrimSpace(o.Date)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range orderDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsValidStatus reports whether s is one of ValidStatuses.
func IsValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}
