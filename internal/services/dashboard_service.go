package services

import (
	"context"

	"storefront/internal/orders"
	"storefront/internal/repositories"
)

// DashboardService builds the admin overview.
type DashboardService struct {
	users    repositories.UserRepository
	products repositories.ProductRepository
	orders   repositories.OrderRepository
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(users repositories.UserRepository, products repositories.ProductRepository, ordersRepo repositories.OrderRepository) *DashboardService {
	return &DashboardService{users: users, products: products, orders: ordersRepo}
}

// Dashboard fetches the three collections and aggregates them.
func (s *DashboardService) Dashboard(ctx context.Context) (orders.Dashboard, error) {
	users, err := s.users.GetAll(ctx)
	if err != nil {
		return orders.Dashboard{}, err
	}
	products, err := s.products.GetAll(ctx)
	if err != nil {
		return orders.Dashboard{}, err
	}
	all, err := s.orders.GetAll(ctx)
	if err != nil {
		return orders.Dashboard{}, err
	}
	return orders.BuildDashboard(users, products, all), nil
}
