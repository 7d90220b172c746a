package repositories

import (
	"context"
	"net/url"
	"strconv"

	"storefront/internal/models"
)

// ListQuery is a filtered, paginated product list request. Categories
// must already use the catalog labels.
type ListQuery struct {
	Categories []string
	Genders    []string
	Colors     []string
	Sort       string
	Query      string
	Page       int
	Limit      int
}

// Values flattens the query into the backend list parameters. Facets become
// repeated keys; sorting is always by price.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	for _, c := range q.Categories {
		v.Add("category", c)
	}
	for _, g := range q.Genders {
		v.Add("gender", g)
	}
	for _, c := range q.Colors {
		v.Add("color", c)
	}
	if q.Limit > 0 {
		v.Set("_limit", strconv.Itoa(q.Limit))
	}
	if q.Page > 0 {
		v.Set("_page", strconv.Itoa(q.Page))
	}
	if q.Sort != "" {
		v.Set("_sort", "price")
		v.Set("_order", q.Sort)
	}
	if q.Query != "" {
		v.Set("q", q.Query)
	}
	return v
}

// ProductPage is one page of a product listing. HasTotal is false when the
// backend did not report the unpaginated count.
type ProductPage struct {
	Items      []models.Product
	TotalCount int
	HasTotal   bool
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	List(ctx context.Context, q ListQuery) (*ProductPage, error)
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id models.ID) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, id models.ID, fields map[string]interface{}) (*models.Product, error)
	Replace(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id models.ID) error
}
