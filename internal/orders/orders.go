// Package orders derives the per-user and admin views of the order
// collection: ownership filtering, newest-first ordering, detail lookup and
// the aggregates shown on the profile and dashboard pages.
package orders

import (
	"sort"
	"strings"
	"time"

	"storefront/internal/apperrors"
	"storefront/internal/models"
)

// Identity is who is asking. Orders link to their owner by id or, in older
// records, by email.
type Identity struct {
	ID    models.ID
	Email string
}

// ForUser returns the orders owned by user, newest first. The id is matched
// when present, otherwise the email, compared exactly; with neither the
// result is empty.
// Orders with the same date keep their relative order.
func ForUser(all []models.Order, user Identity) []models.Order {
	var match func(models.Order) bool
	switch {
	case !user.ID.IsZero():
		match = func(o models.Order) bool { return o.UserID == user.ID }
	case strings.TrimSpace(user.Email) != "":
		match = func(o models.Order) bool { return o.UserEmail == user.Email }
	default:
		return []models.Order{}
	}

	out := make([]models.Order, 0)
	for _, o := range all {
		if match(o) {
			out = append(out, o)
		}
	}
	SortNewestFirst(out)
	return out
}

// SortNewestFirst stably sorts orders by date, descending. Orders whose
// date cannot be parsed sort last.
func SortNewestFirst(list []models.Order) {
	type dated struct {
		order models.Order
		at    time.Time
	}
	tmp := make([]dated, len(list))
	for i, o := range list {
		at, _ := o.ParsedDate()
		tmp[i] = dated{order: o, at: at}
	}
	sort.SliceStable(tmp, func(i, j int) bool { return tmp[i].at.After(tmp[j].at) })
	for i := range tmp {
		list[i] = tmp[i].order
	}
}

// LookupState distinguishes a pending lookup from a settled one.
type LookupState string

const (
	Loading  LookupState = "loading"
	Found    LookupState = "found"
	NotFound LookupState = "not_found"
)

// Lookup is the result of resolving one order id.
type Lookup struct {
	State LookupState   `json:"state"`
	Order *models.Order `json:"order,omitempty"`
}

// Detail resolves id against orders. While the collection has not been
// loaded the lookup is Loading, never NotFound. Ids compare in their
// canonical form, so 7, "7" and 7.0 all match.
func Detail(orders []models.Order, loaded bool, id models.ID) Lookup {
	if !loaded {
		return Lookup{State: Loading}
	}
	want := models.ParseID(id.String())
	for i := range orders {
		if models.ParseID(orders[i].ID.String()) == want {
			o := orders[i]
			return Lookup{State: Found, Order: &o}
		}
	}
	return Lookup{State: NotFound}
}

// DetailView is an order prepared for its detail page.
type DetailView struct {
	models.Order
	LineItems     []models.OrderItem `json:"lineItems"`
	ComputedTotal float64            `json:"computedTotal"`
	Amount        float64            `json:"amount"`
	Status        string             `json:"status"`
	Delivery      string             `json:"deliveryAddress,omitempty"`
}

// View resolves the line items, totals, status and address of o.
func View(o models.Order) DetailView {
	items := o.LineItems()
	if items == nil {
		items = []models.OrderItem{}
	}
	computed := o.ComputedTotal()
	amount := o.Amount()
	if amount == 0 {
		amount = computed
	}
	return DetailView{
		Order:         o,
		LineItems:     items,
		ComputedTotal: computed,
		Amount:        amount,
		Status:        o.EffectiveStatus(),
		Delivery:      o.DeliveryAddress(),
	}
}

// ValidateStatus checks an admin-submitted status. An empty status means
// Pending.
func ValidateStatus(status string) (string, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return models.StatusPending, nil
	}
	if !models.IsValidStatus(status) {
		return "", apperrors.NewValidationError("status", "must be one of "+strings.Join(models.ValidStatuses, ", "))
	}
	return status, nil
}
