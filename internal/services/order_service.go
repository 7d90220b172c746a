package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"storefront/internal/apperrors"
	"storefront/internal/cart"
	"storefront/internal/models"
	"storefront/internal/orders"
	"storefront/internal/repositories"
)

// OrderPublisher announces order events.
type OrderPublisher interface {
	PublishOrderPlaced(ctx context.Context, order models.Order) error
	PublishOrderStatus(ctx context.Context, order models.Order) error
}

// PlaceOrderInput is what the checkout form submits besides the cart.
type PlaceOrderInput struct {
	ShippingAddress string                 `json:"shippingAddress" validate:"required,min=5"`
	ShippingMethod  string                 `json:"shippingMethod"`
	PaymentDetails  *models.PaymentDetails `json:"paymentDetails"`
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo repositories.OrderRepository
	carts     *cart.Aggregator
	publisher OrderPublisher
	log       *logrus.Entry
	now       func() time.Time
}

// NewOrderService creates a new OrderService. publisher may be nil.
func NewOrderService(orderRepo repositories.OrderRepository, carts *cart.Aggregator, publisher OrderPublisher, log *logrus.Logger) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		carts:     carts,
		publisher: publisher,
		log:       log.WithField("component", "orders"),
		now:       time.Now,
	}
}

// GetAllOrders retrieves all orders, newest first.
func (s *OrderService) GetAllOrders(ctx context.Context) ([]models.Order, error) {
	all, err := s.orderRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	orders.SortNewestFirst(all)
	return all, nil
}

// GetOrderByID retrieves a single order prepared for display.
func (s *OrderService) GetOrderByID(ctx context.Context, id models.ID) (*orders.DetailView, error) {
	o, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := orders.View(*o)
	return &view, nil
}

// OrdersForUser returns the caller's orders, newest first.
func (s *OrderService) OrdersForUser(ctx context.Context, who orders.Identity) ([]models.Order, error) {
	all, err := s.orderRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return orders.ForUser(all, who), nil
}

// OrderDetailForUser resolves one of the caller's orders. Orders owned by
// someone else are reported as not found.
func (s *OrderService) OrderDetailForUser(ctx context.Context, who orders.Identity, id models.ID) (*orders.DetailView, error) {
	mine, err := s.OrdersForUser(ctx, who)
	if err != nil {
		return nil, err
	}
	lookup := orders.Detail(mine, true, id)
	if lookup.State != orders.Found {
		return nil, apperrors.NotFound("order", id.String())
	}
	view := orders.View(*lookup.Order)
	return &view, nil
}

// ProfileStats summarizes the caller's orders.
func (s *OrderService) ProfileStats(ctx context.Context, who orders.Identity) (orders.ProfileStats, error) {
	mine, err := s.OrdersForUser(ctx, who)
	if err != nil {
		return orders.ProfileStats{}, err
	}
	return orders.Profile(mine), nil
}

// PlaceOrder turns owner's cart into an order for user.
func (s *OrderService) PlaceOrder(ctx context.Context, owner string, user models.User, in PlaceOrderInput) (*models.Order, error) {
	in.ShippingAddress = strings.TrimSpace(in.ShippingAddress)
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	view, err := s.carts.View(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(view.Items) == 0 {
		return nil, apperrors.NewValidationError("cart", "cart is empty")
	}

	items := make([]models.OrderItem, 0, len(view.Items))
	for _, li := range view.Items {
		item := models.OrderItem{
			ID:       li.ID,
			Name:     li.DisplayName(),
			Price:    li.Price,
			Quantity: li.Quantity,
		}
		if img := li.PrimaryImage(); img != "" {
			item.Image = img
			item.Images = []string{img}
		}
		items = append(items, item)
	}

	order := &models.Order{
		UserID:          user.ID,
		UserEmail:       user.Email,
		Username:        user.Username,
		Items:           items,
		Status:          models.StatusPending,
		TotalAmount:     view.Total,
		Date:            s.now().UTC().Format(time.RFC3339),
		ShippingAddress: in.ShippingAddress,
		ShippingMethod:  in.ShippingMethod,
		PaymentDetails:  in.PaymentDetails,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishOrderPlaced(ctx, *order); err != nil {
			s.log.WithError(err).WithField("order", order.ID).Warn("failed to publish order placed event")
		}
	}
	return order, nil
}

// UpdateOrderStatus sets the status of an order.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id models.ID, status string) (*models.Order, error) {
	status, err := orders.ValidateStatus(status)
	if err != nil {
		return nil, err
	}
	updated, err := s.orderRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"order": id, "status": status}).Info("order status updated")

	if s.publisher != nil {
		if err := s.publisher.PublishOrderStatus(ctx, *updated); err != nil {
			s.log.WithError(err).WithField("order", id).Warn("failed to publish order status event")
		}
	}
	return updated, nil
}

// DeleteOrder removes an order.
func (s *OrderService) DeleteOrder(ctx context.Context, id models.ID) error {
	return s.orderRepo.Delete(ctx, id)
}
