package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"storefront/internal/apperrors"
	"storefront/internal/models"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
// List follows the backend's filtering, sorting and paging rules.
type MockProductRepository struct {
	products map[models.ID]models.Product
	order    []models.ID
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository(seed ...models.Product) *MockProductRepository {
	r := &MockProductRepository{
		products: make(map[models.ID]models.Product),
	}
	for i := range seed {
		_ = r.Create(context.Background(), &seed[i])
	}
	return r
}

// List returns the page of products matching q, with the unpaginated count.
func (r *MockProductRepository) List(_ context.Context, q ListQuery) (*ProductPage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Product, 0, len(r.order))
	for _, id := range r.order {
		p := r.products[id]
		if matchesAny(p.Category, q.Categories) && matchesAny(p.Gender, q.Genders) &&
			matchesAny(p.Color, q.Colors) && matchesText(p, q.Query) {
			matched = append(matched, p)
		}
	}

	switch q.Sort {
	case "asc":
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Price < matched[j].Price })
	case "desc":
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Price > matched[j].Price })
	}

	total := len(matched)
	if q.Limit > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * q.Limit
		if start > total {
			start = total
		}
		end := start + q.Limit
		if end > total {
			end = total
		}
		matched = matched[start:end]
	}
	return &ProductPage{Items: matched, TotalCount: total, HasTotal: true}, nil
}

func matchesAny(value string, want []string) bool {
	if len(want) == 0 {
		return true
	}
	for _, w := range want {
		if value == w {
			return true
		}
	}
	return false
}

func matchesText(p models.Product, q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	for _, field := range []string{p.Name, p.Title, p.Description, p.Category, p.Brand, p.Color} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// GetAll returns all products in insertion order.
func (r *MockProductRepository) GetAll(_ context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.order))
	for _, id := range r.order {
		productList = append(productList, r.products[id])
	}
	return productList, nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(_ context.Context, id models.ID) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id.String())
	}
	return &product, nil
}

// Create adds a new product.
func (r *MockProductRepository) Create(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID.IsZero() {
		product.ID = models.ID(uuid.New().String())
	}
	if _, exists := r.products[product.ID]; !exists {
		r.order = append(r.order, product.ID)
	}
	r.products[product.ID] = *product
	return nil
}

// Update merges fields into an existing product.
func (r *MockProductRepository) Update(_ context.Context, id models.ID, fields map[string]interface{}) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id.String())
	}
	var updated models.Product
	if err := MergeFields(current, fields, &updated); err != nil {
		return nil, err
	}
	updated.ID = id
	r.products[id] = updated
	return &updated, nil
}

// Replace overwrites an existing product.
func (r *MockProductRepository) Replace(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return apperrors.NotFound("product", product.ID.String())
	}
	r.products[product.ID] = *product
	return nil
}

// Delete removes a product by its ID.
func (r *MockProductRepository) Delete(_ context.Context, id models.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return apperrors.NotFound("product", id.String())
	}
	delete(r.products, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
