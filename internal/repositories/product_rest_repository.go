package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"storefront/internal/apperrors"
	"storefront/internal/backend"
	"storefront/internal/models"
)

// RESTProductRepository is a ProductRepository backed by the REST API.
type RESTProductRepository struct {
	client *backend.Client
}

// NewRESTProductRepository creates a new instance of RESTProductRepository.
func NewRESTProductRepository(client *backend.Client) *RESTProductRepository {
	return &RESTProductRepository{client: client}
}

// List fetches one page of products matching q.
func (r *RESTProductRepository) List(ctx context.Context, q ListQuery) (*ProductPage, error) {
	var items []models.Product
	resp, err := r.client.Get(ctx, backend.PathProducts, q.Values(), &items)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	page := &ProductPage{Items: items}
	if raw := strings.TrimSpace(resp.Header.Get(backend.HeaderTotalCount)); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			page.TotalCount = n
			page.HasTotal = true
		}
	}
	return page, nil
}

// GetAll fetches the whole product collection.
func (r *RESTProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	if _, err := r.client.Get(ctx, backend.PathProducts, nil, &items); err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return items, nil
}

// GetByID fetches a single product.
func (r *RESTProductRepository) GetByID(ctx context.Context, id models.ID) (*models.Product, error) {
	var product models.Product
	if _, err := r.client.Get(ctx, backend.ResourcePath(backend.PathProducts, id.String()), nil, &product); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("product", id.String())
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create posts a new product, assigning an id when it has none.
func (r *RESTProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID.IsZero() {
		product.ID = models.ID(uuid.New().String())
	}
	if _, err := r.client.Post(ctx, backend.PathProducts, product, product); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update applies a partial edit and returns the stored product.
func (r *RESTProductRepository) Update(ctx context.Context, id models.ID, fields map[string]interface{}) (*models.Product, error) {
	var product models.Product
	if _, err := r.client.Patch(ctx, backend.ResourcePath(backend.PathProducts, id.String()), fields, &product); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("product", id.String())
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return &product, nil
}

// Replace overwrites a product with a full record.
func (r *RESTProductRepository) Replace(ctx context.Context, product *models.Product) error {
	if _, err := r.client.Put(ctx, backend.ResourcePath(backend.PathProducts, product.ID.String()), product, product); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("product", product.ID.String())
		}
		return fmt.Errorf("failed to replace product: %w", err)
	}
	return nil
}

// Delete removes a product.
func (r *RESTProductRepository) Delete(ctx context.Context, id models.ID) error {
	if _, err := r.client.Delete(ctx, backend.ResourcePath(backend.PathProducts, id.String())); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("product", id.String())
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}
