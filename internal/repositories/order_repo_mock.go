package repositories

import (
	"context"
	"strconv"
	"sync"

	"storefront/internal/apperrors"
	"storefront/internal/models"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
// It assigns sequential numeric ids like the backend does.
type MockOrderRepository struct {
	orders map[models.ID]models.Order
	order  []models.ID
	nextID int
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository(seed ...models.Order) *MockOrderRepository {
	r := &MockOrderRepository{
		orders: make(map[models.ID]models.Order),
		nextID: 1,
	}
	for i := range seed {
		_ = r.Create(context.Background(), &seed[i])
	}
	return r
}

// GetAll returns all orders in insertion order.
func (r *MockOrderRepository) GetAll(_ context.Context) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.order))
	for _, id := range r.order {
		orderList = append(orderList, r.orders[id])
	}
	return orderList, nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(_ context.Context, id models.ID) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, apperrors.NotFound("order", id.String())
	}
	return &order, nil
}

// Create adds a new order.
func (r *MockOrderRepository) Create(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID.IsZero() {
		order.ID = models.ID(strconv.Itoa(r.nextID))
	}
	if n, err := strconv.Atoi(order.ID.String()); err == nil && n >= r.nextID {
		r.nextID = n + 1
	}
	if _, exists := r.orders[order.ID]; !exists {
		r.order = append(r.order, order.ID)
	}
	r.orders[order.ID] = *order
	return nil
}

// UpdateStatus updates the status of an order.
func (r *MockOrderRepository) UpdateStatus(_ context.Context, id models.ID, status string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, apperrors.NotFound("order", id.String())
	}
	order.Status = status
	r.orders[id] = order
	return &order, nil
}

// Delete removes an order.
func (r *MockOrderRepository) Delete(_ context.Context, id models.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return apperrors.NotFound("order", id.String())
	}
	delete(r.orders, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
