package repositories

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/apperrors"
	"storefront/internal/backend"
	"storefront/internal/models"
)

// RESTOrderRepository is an OrderRepository backed by the REST API.
type RESTOrderRepository struct {
	client *backend.Client
}

// NewRESTOrderRepository creates a new instance of RESTOrderRepository.
func NewRESTOrderRepository(client *backend.Client) *RESTOrderRepository {
	return &RESTOrderRepository{client: client}
}

// GetAll fetches every order.
func (r *RESTOrderRepository) GetAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if _, err := r.client.Get(ctx, backend.PathOrders, nil, &orders); err != nil {
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}
	return orders, nil
}

// GetByID fetches a single order.
func (r *RESTOrderRepository) GetByID(ctx context.Context, id models.ID) (*models.Order, error) {
	var order models.Order
	if _, err := r.client.Get(ctx, backend.ResourcePath(backend.PathOrders, id.String()), nil, &order); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("order", id.String())
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// Create posts a new order. The backend assigns the id.
func (r *RESTOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if _, err := r.client.Post(ctx, backend.PathOrders, order, order); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// UpdateStatus patches the status of an order.
func (r *RESTOrderRepository) UpdateStatus(ctx context.Context, id models.ID, status string) (*models.Order, error) {
	var order models.Order
	body := map[string]string{"status": status}
	if _, err := r.client.Patch(ctx, backend.ResourcePath(backend.PathOrders, id.String()), body, &order); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("order", id.String())
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	return &order, nil
}

// Delete removes an order.
func (r *RESTOrderRepository) Delete(ctx context.Context, id models.ID) error {
	if _, err := r.client.Delete(ctx, backend.ResourcePath(backend.PathOrders, id.String())); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("order", id.String())
		}
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}
