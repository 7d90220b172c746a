package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/apperrors"
	"storefront/internal/logging"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
)

func newProductService(seed ...models.Product) (*services.ProductService, *repositories.MockProductRepository) {
	repo := repositories.NewMockProductRepository(seed...)
	return services.NewProductService(repo, logging.Discard()), repo
}

func TestProductService_CreateProduct(t *testing.T) {
	service, repo := newProductService()
	ctx := context.Background()

	product := &models.Product{Title: " Linen Kurta ", Image: "k.png", Category: "Kurtas", Price: 40}
	require.NoError(t, service.CreateProduct(ctx, product))
	assert.False(t, product.ID.IsZero())

	stored, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Linen Kurta", stored.Name)
	assert.Equal(t, []string{"k.png"}, stored.Images)
}

func TestProductService_CreateProductValidation(t *testing.T) {
	service, repo := newProductService()
	ctx := context.Background()

	err := service.CreateProduct(ctx, &models.Product{Name: "X", Price: -1, Images: []string{" "}})
	var vErr *apperrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "Name")
	assert.Contains(t, vErr.Fields, "Images")
	assert.Contains(t, vErr.Fields, "Category")
	assert.Contains(t, vErr.Fields, "Price")

	all, _ := repo.GetAll(ctx)
	assert.Empty(t, all)
}

func TestProductService_UpdateProductValidatesMergedRecord(t *testing.T) {
	service, _ := newProductService(models.Product{ID: "1", Name: "Tee", Images: []string{"a.png"}, Category: "Shirts", Price: 10})
	ctx := context.Background()

	_, err := service.UpdateProduct(ctx, "1", map[string]interface{}{"price": -5})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	updated, err := service.UpdateProduct(ctx, "1", map[string]interface{}{"price": 12.5, "offer": "10% off"})
	require.NoError(t, err)
	assert.Equal(t, 12.5, updated.Price)
	assert.Equal(t, "10% off", updated.Offer)

	_, err = service.UpdateProduct(ctx, "1", map[string]interface{}{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = service.UpdateProduct(ctx, "nope", map[string]interface{}{"price": 1})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProductService_ReplaceAndDelete(t *testing.T) {
	service, repo := newProductService(models.Product{ID: "1", Name: "Tee", Images: []string{"a.png"}, Category: "Shirts", Price: 10})
	ctx := context.Background()

	require.NoError(t, service.ReplaceProduct(ctx, "1", &models.Product{Name: "Polo", Images: []string{"p.png"}, Category: "Shirts", Price: 15}))
	stored, err := repo.GetByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Polo", stored.Name)

	require.NoError(t, service.DeleteProduct(ctx, "1"))
	_, err = service.GetProductByID(ctx, "1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = service.GetProductByID(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestProductService_FilterOptions(t *testing.T) {
	service, _ := newProductService()
	opts, err := service.FilterOptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"shirt", "jeans", "shoes", "kurtas", "sarees"}, opts.Categories)
}

func TestUserService(t *testing.T) {
	repo := repositories.NewMockUserRepository(models.User{ID: "u1", Email: "ann@shop.test", Password: "plain"})
	service := services.NewUserService(repo)
	ctx := context.Background()

	users, err := service.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Empty(t, users[0].Password)

	_, err = service.UpdateUser(ctx, "u1", map[string]interface{}{"password": "123"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = service.UpdateUser(ctx, "u1", map[string]interface{}{"email": "broken"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	updated, err := service.UpdateUser(ctx, "u1", map[string]interface{}{"password": "longer-secret", "name": "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "Ann", updated.Name)
	assert.Empty(t, updated.Password)

	raw, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.NotEqual(t, "longer-secret", raw.Password)
	assert.Len(t, raw.Password, 60)

	require.NoError(t, service.DeleteUser(ctx, "u1"))
	_, err = service.GetUserByID(ctx, "u1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
