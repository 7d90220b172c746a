package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/handlers"
	"storefront/internal/logging"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/internal/storage"
)

const (
	testSession   = "6f1c3a52-8f0e-4b8e-9a3e-2f1d2c3b4a5e"
	adminEmail    = "admin@storefront.local"
	adminPassword = "admin-secret"
)

type testEnv struct {
	app    *fiber.App
	auth   *services.AuthService
	orders *repositories.MockOrderRepository
}

// setupApp builds a Fiber app over in-memory repositories and storage.
func setupApp(t *testing.T, loginBurst int) *testEnv {
	t.Helper()
	log := logging.Discard()

	productRepo := repositories.NewMockProductRepository(seedProducts()...)
	userRepo := repositories.NewMockUserRepository()
	orderRepo := repositories.NewMockOrderRepository()
	store := storage.NewMemoryStore()

	carts := cart.NewAggregator(store, nil, log)
	fetcher := catalog.NewFetcher(productRepo, time.Second, log)
	storefrontService := services.NewStorefrontService(fetcher, 4, log)
	productService := services.NewProductService(productRepo, log)
	orderService := services.NewOrderService(orderRepo, carts, nil, log)
	authService := services.NewAuthService(userRepo, store, services.AuthConfig{
		JWTSecret:     "test_jwt_secret",
		TokenTTL:      time.Hour,
		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
	}, log)

	app := fiber.New(fiber.Config{Immutable: true})
	apiV1 := app.Group("/api/v1", middleware.Session())
	auth := middleware.AuthRequired(authService, log)

	handlers.NewAuthHandler(authService, log).RegisterRoutes(apiV1, middleware.NewRateLimiter(0.001, loginBurst).Handler())
	handlers.NewCatalogHandler(storefrontService, productService, log).RegisterRoutes(apiV1)
	productHandler := handlers.NewProductHandler(productService, log)
	productHandler.RegisterRoutes(apiV1)
	handlers.NewCartHandler(carts, productService, log).RegisterRoutes(apiV1)
	orderHandler := handlers.NewOrderHandler(orderService, log)
	orderHandler.RegisterRoutes(apiV1, auth)

	admin := apiV1.Group("/admin", auth, middleware.AdminRequired())
	productHandler.RegisterAdminRoutes(admin)
	handlers.NewUserHandler(services.NewUserService(userRepo), log).RegisterAdminRoutes(admin)
	orderHandler.RegisterAdminRoutes(admin)
	handlers.NewDashboardHandler(services.NewDashboardService(userRepo, productRepo, orderRepo), log).RegisterAdminRoutes(admin)

	return &testEnv{app: app, auth: authService, orders: orderRepo}
}

func seedProducts() []models.Product {
	var products []models.Product
	for i := 1; i <= 6; i++ {
		products = append(products, models.Product{
			ID:       models.ID(fmt.Sprint(i)),
			Name:     fmt.Sprintf("Shirt %d", i),
			Images:   []string{fmt.Sprintf("shirt-%d.jpg", i)},
			Category: "Shirts",
			Gender:   "male",
			Color:    "Blue",
			Price:    float64(i * 10),
		})
	}
	products = append(products, models.Product{
		ID:       "7",
		Name:     "Denim Jeans",
		Images:   []string{"jeans.jpg"},
		Category: "Jeans",
		Gender:   "female",
		Color:    "Black",
		Price:    55,
	})
	return products
}

// call sends a JSON request with the test session and an optional token.
func (e *testEnv) call(t *testing.T, method, path string, body interface{}, token string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderSessionID, testSession)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	} else if len(raw) > 0 && raw[0] == '[' {
		var list []interface{}
		require.NoError(t, json.Unmarshal(raw, &list))
		out["items"] = list
	}
	return resp.StatusCode, out
}

func (e *testEnv) signupAndLogin(t *testing.T, email string) string {
	t.Helper()
	status, _ := e.call(t, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"name":     "Test User",
		"email":    email,
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusCreated, status)

	status, body := e.call(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, status)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	status, body := e.call(t, http.MethodPost, "/api/v1/auth/admin/login", map[string]string{
		"email":    adminEmail,
		"password": adminPassword,
	}, "")
	require.Equal(t, http.StatusOK, status)
	return body["token"].(string)
}

func TestAuthSignupAndLogin(t *testing.T) {
	env := setupApp(t, 10)

	token := env.signupAndLogin(t, "test@example.com")
	claims, err := env.auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "test@example.com", claims.Email)
	assert.Equal(t, services.RoleUser, claims.Role)
	assert.Equal(t, testSession, claims.Session)

	// Duplicate registration
	status, body := env.call(t, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"name":     "Again",
		"email":    "test@example.com",
		"password": "password123",
	}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["errors"], "Email")

	// Wrong password
	status, _ = env.call(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "test@example.com",
		"password": "nope",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = env.call(t, http.MethodGet, "/api/v1/auth/me", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["isAdmin"])

	status, _ = env.call(t, http.MethodPost, "/api/v1/auth/logout", nil, "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = env.call(t, http.MethodGet, "/api/v1/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestSignupValidation(t *testing.T) {
	env := setupApp(t, 10)
	status, body := env.call(t, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"name":     "X",
		"email":    "not-an-email",
		"password": "123",
	}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	errs, ok := body["errors"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, errs, "Email")
	assert.Contains(t, errs, "Password")
}

func TestLoginRateLimited(t *testing.T) {
	env := setupApp(t, 1)
	creds := map[string]string{"email": "x@example.com", "password": "whatever"}

	status, _ := env.call(t, http.MethodPost, "/api/v1/auth/login", creds, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = env.call(t, http.MethodPost, "/api/v1/auth/login", creds, "")
	assert.Equal(t, http.StatusTooManyRequests, status)
}

func TestCatalogNavigation(t *testing.T) {
	env := setupApp(t, 10)

	status, body := env.call(t, http.MethodGet, "/api/v1/catalog?category=Shirts", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 6, body["totalCount"])
	assert.EqualValues(t, 2, body["totalPages"])
	assert.EqualValues(t, 1, body["page"])
	assert.Len(t, body["products"], 4)

	status, body = env.call(t, http.MethodPost, "/api/v1/catalog/page", map[string]int{"page": 2}, "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, body["page"])
	assert.Equal(t, true, body["scrollToTop"])
	assert.Len(t, body["products"], 2)

	// Toggling a facet starts over at page 1.
	status, body = env.call(t, http.MethodPost, "/api/v1/catalog/toggle", map[string]string{"facet": "category", "value": "Jeans"}, "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["page"])
	assert.EqualValues(t, 7, body["totalCount"])
	assert.Equal(t, "category=Shirts&category=Jeans", body["query"])

	status, body = env.call(t, http.MethodPost, "/api/v1/catalog/sort", map[string]string{"order": "desc"}, "")
	require.Equal(t, http.StatusOK, status)
	products := body["products"].([]interface{})
	assert.EqualValues(t, 60, products[0].(map[string]interface{})["price"])

	status, body = env.call(t, http.MethodPost, "/api/v1/catalog/search", map[string]string{"q": "denim"}, "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["totalCount"])

	status, body = env.call(t, http.MethodPost, "/api/v1/catalog/clear", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 7, body["totalCount"])
	assert.Equal(t, "", body["query"])

	status, _ = env.call(t, http.MethodPost, "/api/v1/catalog/toggle", map[string]string{"facet": "size", "value": "M"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCatalogFilters(t *testing.T) {
	env := setupApp(t, 10)
	status, body := env.call(t, http.MethodGet, "/api/v1/catalog/filters", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.ElementsMatch(t, []interface{}{"Jeans", "Shirts"}, body["categories"])
	assert.ElementsMatch(t, []interface{}{"female", "male"}, body["genders"])
}

func TestProductDetail(t *testing.T) {
	env := setupApp(t, 10)

	status, body := env.call(t, http.MethodGet, "/api/v1/products/7", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Denim Jeans", body["displayName"])
	assert.Equal(t, "jeans.jpg", body["image"])

	status, body = env.call(t, http.MethodGet, "/api/v1/products/999", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "/products", body["escape"])
}

func TestCartFlow(t *testing.T) {
	env := setupApp(t, 10)

	status, body := env.call(t, http.MethodPost, "/api/v1/cart", map[string]string{"productId": "2", "size": "M"}, "")
	require.Equal(t, http.StatusCreated, status)
	assert.EqualValues(t, 1, body["itemCount"])
	assert.EqualValues(t, 20, body["total"])

	status, body = env.call(t, http.MethodPost, "/api/v1/cart", map[string]string{"productId": "2", "size": "L"}, "")
	assert.Equal(t, http.StatusConflict, status)
	assert.NotEmpty(t, body["warning"])

	status, body = env.call(t, http.MethodPost, "/api/v1/cart/2/increase", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, body["itemCount"])
	assert.EqualValues(t, 40, body["total"])

	for i := 0; i < 3; i++ {
		status, body = env.call(t, http.MethodPost, "/api/v1/cart/2/decrease", nil, "")
		require.Equal(t, http.StatusOK, status)
	}
	assert.EqualValues(t, 1, body["itemCount"])

	status, _ = env.call(t, http.MethodPost, "/api/v1/cart/99/increase", nil, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body = env.call(t, http.MethodPost, "/api/v1/cart/checkout", nil, "")
	require.Equal(t, http.StatusCreated, status)
	assert.EqualValues(t, 1, body["itemCount"])

	// Checkout leaves the cart alone.
	status, body = env.call(t, http.MethodGet, "/api/v1/cart", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["itemCount"])

	status, body = env.call(t, http.MethodDelete, "/api/v1/cart/2", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, body["itemCount"])

	status, _ = env.call(t, http.MethodPost, "/api/v1/cart/checkout", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestOrdersRequireAuth(t *testing.T) {
	env := setupApp(t, 10)

	status, _ := env.call(t, http.MethodGet, "/api/v1/orders/mine", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = env.call(t, http.MethodGet, "/api/v1/profile/stats", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestPlaceOrderAndHistory(t *testing.T) {
	env := setupApp(t, 10)
	token := env.signupAndLogin(t, "buyer@example.com")

	status, _ := env.call(t, http.MethodPost, "/api/v1/cart", map[string]string{"productId": "3"}, "")
	require.Equal(t, http.StatusCreated, status)

	status, _ = env.call(t, http.MethodPost, "/api/v1/orders", map[string]string{"shippingAddress": "1"}, token)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := env.call(t, http.MethodPost, "/api/v1/orders", map[string]string{
		"shippingAddress": "12 Market Street",
		"shippingMethod":  "standard",
	}, token)
	require.Equal(t, http.StatusCreated, status)
	orderID := body["id"].(string)
	assert.Equal(t, models.StatusPending, body["status"])
	assert.EqualValues(t, 30, body["totalAmount"])

	// Someone else's order never shows up.
	require.NoError(t, env.orders.Create(context.Background(), &models.Order{UserEmail: "other@example.com", TotalAmount: 5}))

	status, body = env.call(t, http.MethodGet, "/api/v1/orders/mine", nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["items"], 1)

	status, body = env.call(t, http.MethodGet, "/api/v1/orders/mine/"+orderID, nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 30, body["computedTotal"])
	assert.Equal(t, "12 Market Street", body["deliveryAddress"])

	status, body = env.call(t, http.MethodGet, "/api/v1/orders/mine/12345", nil, token)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "/products", body["escape"])

	status, body = env.call(t, http.MethodGet, "/api/v1/profile/stats", nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["totalOrders"])
	assert.EqualValues(t, 30, body["totalSpent"])
}

func TestAdminRoutes(t *testing.T) {
	env := setupApp(t, 10)

	userToken := env.signupAndLogin(t, "shopper@example.com")
	status, _ := env.call(t, http.MethodGet, "/api/v1/admin/dashboard", nil, userToken)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.call(t, http.MethodPost, "/api/v1/auth/admin/login", map[string]string{
		"email": adminEmail, "password": "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	token := env.adminToken(t)

	status, body := env.call(t, http.MethodGet, "/api/v1/admin/users", nil, token)
	require.Equal(t, http.StatusOK, status)
	users := body["items"].([]interface{})
	require.Len(t, users, 1)
	assert.NotContains(t, users[0], "password")

	// Product management
	status, body = env.call(t, http.MethodPost, "/api/v1/admin/products", map[string]interface{}{
		"name":     "Linen Shirt",
		"images":   []string{"linen.jpg"},
		"category": "Shirts",
		"price":    42.5,
	}, token)
	require.Equal(t, http.StatusCreated, status)
	productID := body["id"].(string)

	status, _ = env.call(t, http.MethodPost, "/api/v1/admin/products", map[string]interface{}{"name": "x"}, token)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.call(t, http.MethodPatch, "/api/v1/admin/products/"+productID, map[string]interface{}{"price": 39}, token)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 39, body["price"])

	status, _ = env.call(t, http.MethodDelete, "/api/v1/admin/products/"+productID, nil, token)
	assert.Equal(t, http.StatusOK, status)
	status, _ = env.call(t, http.MethodGet, "/api/v1/products/"+productID, nil, "")
	assert.Equal(t, http.StatusNotFound, status)

	// Order management
	order := &models.Order{UserEmail: "shopper@example.com", TotalAmount: 80, Date: "2024-03-01T10:00:00Z"}
	require.NoError(t, env.orders.Create(context.Background(), order))

	status, _ = env.call(t, http.MethodPatch, "/api/v1/admin/orders/"+order.ID.String()+"/status", map[string]string{"status": "Lost"}, token)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.call(t, http.MethodPatch, "/api/v1/admin/orders/"+order.ID.String()+"/status", map[string]string{"status": models.StatusShipped}, token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.StatusShipped, body["status"])

	status, body = env.call(t, http.MethodGet, "/api/v1/admin/dashboard", nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["orders"])
	assert.EqualValues(t, 80, body["revenue"])
	assert.EqualValues(t, 7, body["products"])

	status, _ = env.call(t, http.MethodDelete, "/api/v1/admin/orders/"+order.ID.String(), nil, token)
	assert.Equal(t, http.StatusOK, status)
	status, _ = env.call(t, http.MethodGet, "/api/v1/admin/orders/"+order.ID.String(), nil, token)
	assert.Equal(t, http.StatusNotFound, status)
}
