package orders

import (
	"sort"

	"storefront/internal/models"
)

// recentLimit is how many orders the dashboard lists.
const recentLimit = 5

// ProfileStats summarizes a shopper's own orders.
type ProfileStats struct {
	TotalOrders int     `json:"totalOrders"`
	TotalSpent  float64 `json:"totalSpent"`
}

// Profile computes the stats for orders already filtered to one user.
func Profile(mine []models.Order) ProfileStats {
	stats := ProfileStats{TotalOrders: len(mine)}
	for _, o := range mine {
		stats.TotalSpent += revenue(o)
	}
	return stats
}

// DayRevenue is the revenue booked on one calendar day.
type DayRevenue struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
}

// Dashboard is the admin overview.
type Dashboard struct {
	Users        int            `json:"users"`
	Products     int            `json:"products"`
	Orders       int            `json:"orders"`
	Revenue      float64        `json:"revenue"`
	RevenueByDay []DayRevenue   `json:"revenueByDay"`
	Recent       []models.Order `json:"recentOrders"`
	ByStatus     map[string]int `json:"byStatus"`
}

// BuildDashboard aggregates the three collections. Orders with an
// unreadable date count toward revenue but not toward any day.
func BuildDashboard(users []models.User, products []models.Product, all []models.Order) Dashboard {
	d := Dashboard{
		Users:        len(users),
		Products:     len(products),
		Orders:       len(all),
		RevenueByDay: []DayRevenue{},
		ByStatus:     map[string]int{},
	}

	perDay := map[string]float64{}
	for _, o := range all {
		r := revenue(o)
		d.Revenue += r
		d.ByStatus[o.EffectiveStatus()]++
		if t, ok := o.ParsedDate(); ok {
			perDay[t.Format("2006-01-02")] += r
		}
	}
	for day, r := range perDay {
		d.RevenueByDay = append(d.RevenueByDay, DayRevenue{Date: day, Revenue: r})
	}
	sort.Slice(d.RevenueByDay, func(i, j int) bool { return d.RevenueByDay[i].Date < d.RevenueByDay[j].Date })

	recent := append([]models.Order(nil), all...)
	SortNewestFirst(recent)
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	if recent == nil {
		recent = []models.Order{}
	}
	d.Recent = recent
	return d
}

// revenue is the stored order amount, or the line-item sum when no amount
// field is set.
func revenue(o models.Order) float64 {
	if a := o.Amount(); a != 0 {
		return a
	}
	return o.ComputedTotal()
}
