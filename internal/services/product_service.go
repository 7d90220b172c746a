package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"storefront/internal/apperrors"
	"storefront/internal/catalog"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// ProductService handles business logic related to products.
type ProductService struct {
	repo repositories.ProductRepository
	log  *logrus.Entry
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, log *logrus.Logger) *ProductService {
	return &ProductService{
		repo: repo,
		log:  log.WithField("component", "products"),
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id models.ID) (*models.Product, error) {
	if id.IsZero() {
		return nil, apperrors.NewValidationError("id", "is required")
	}
	return s.repo.GetByID(ctx, id)
}

// FilterOptions returns the sidebar vocabulary derived from the catalog.
func (s *ProductService) FilterOptions(ctx context.Context) (catalog.Options, error) {
	products, err := s.repo.GetAll(ctx)
	if err != nil {
		return catalog.Options{}, err
	}
	return catalog.FilterOptions(products), nil
}

// CreateProduct validates and creates a new product.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	product.Normalize()
	trimProduct(product)
	if err := ValidateStruct(product); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return err
	}
	s.log.WithField("product", product.ID).Info("product created")
	return nil
}

// ReplaceProduct validates and fully replaces an existing product.
func (s *ProductService) ReplaceProduct(ctx context.Context, id models.ID, product *models.Product) error {
	product.ID = id
	product.Normalize()
	trimProduct(product)
	if err := ValidateStruct(product); err != nil {
		return err
	}
	return s.repo.Replace(ctx, product)
}

// UpdateProduct applies a partial edit. The edit is validated against the
// merged record before anything is sent.
func (s *ProductService) UpdateProduct(ctx context.Context, id models.ID, fields map[string]interface{}) (*models.Product, error) {
	if len(fields) == 0 {
		return nil, apperrors.NewValidationError("body", "no fields to update")
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var merged models.Product
	if err := repositories.MergeFields(current, fields, &merged); err != nil {
		return nil, apperrors.NewValidationError("body", err.Error())
	}
	if err := ValidateStruct(merged); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update product %s: %w", id, err)
	}
	return updated, nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id models.ID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithField("product", id).Info("product deleted")
	return nil
}

func trimProduct(p *models.Product) {
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	images := p.Images[:0]
	for _, img := range p.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	p.Images = images
}
