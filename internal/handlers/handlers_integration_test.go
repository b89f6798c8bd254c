package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"skateshop/internal/handlers"
	"skateshop/internal/models"
	"skateshop/internal/repositories"
	"skateshop/internal/routes"
	"skateshop/internal/services"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Total   int64           `json:"total"`
}

type authPayload struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Address{},
		&models.Product{},
		&models.ProductVariation{},
		&models.Review{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	)
	assert.NoError(t, err)

	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	authService := services.NewAuthService(userRepo, "integration-test-secret", time.Hour)
	productService := services.NewProductService(productRepo, nil)
	cartService := services.NewCartService(cartRepo, productRepo)
	orderService := services.NewOrderService(orderRepo, productRepo, nil)

	app := fiber.New()
	routes.Register(app, routes.Handlers{
		Auth:    handlers.NewAuthHandler(authService),
		Product: handlers.NewProductHandler(productService),
		Cart:    handlers.NewCartHandler(cartService),
		Order:   handlers.NewOrderHandler(orderService, cartService),
	}, authService)

	return app, db
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func registerUser(t *testing.T, app *fiber.App, email string) (string, models.User) {
	t.Helper()

	status, env := doRequest(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"first_name": "Test",
		"last_name":  "Skater",
		"email":      email,
		"password":   "ollie-360-flip",
	})
	assert.Equal(t, http.StatusCreated, status)

	var payload authPayload
	assert.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.NotEmpty(t, payload.Token)
	return payload.Token, payload.User
}

func registerAdmin(t *testing.T, app *fiber.App, db *gorm.DB, email string) string {
	t.Helper()

	registerUser(t, app, email)
	err := db.Model(&models.User{}).Where("email = ?", email).Update("role", models.RoleAdmin).Error
	assert.NoError(t, err)

	// Log in again so the token carries the admin role
	status, env := doRequest(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    email,
		"password": "ollie-360-flip",
	})
	assert.Equal(t, http.StatusOK, status)

	var payload authPayload
	assert.NoError(t, json.Unmarshal(env.Data, &payload))
	return payload.Token
}

func createProduct(t *testing.T, app *fiber.App, adminToken, name, sku string, basePrice float64, stock int) models.Product {
	t.Helper()

	status, env := doRequest(t, app, http.MethodPost, "/api/products", adminToken, fiber.Map{
		"name":       name,
		"category":   models.CategoryDecks,
		"brand":      "Baker",
		"base_price": basePrice,
		"variations": []fiber.Map{
			{"sku": sku, "size": "8.0", "color": "natural", "stock_quantity": stock},
		},
	})
	assert.Equal(t, http.StatusCreated, status)

	var product models.Product
	assert.NoError(t, json.Unmarshal(env.Data, &product))
	assert.NotEmpty(t, product.ID)
	return product
}

func orderBody(productID, sku string, quantity int) fiber.Map {
	address := fiber.Map{
		"street":   "1 Skate Park Way",
		"city":     "Portland",
		"state":    "OR",
		"zip_code": "97201",
		"country":  "USA",
	}
	return fiber.Map{
		"items": []fiber.Map{
			{"product_id": productID, "sku": sku, "quantity": quantity},
		},
		"shipping_address": address,
		"billing_address":  address,
		"payment_method":   "card",
		"shipping_method":  "standard",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	app, _ := setupTestApp(t)

	token, user := registerUser(t, app, "tony@example.com")
	assert.NotEmpty(t, token)
	assert.Equal(t, models.RoleCustomer, user.Role)

	// Same email again is rejected
	status, env := doRequest(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"first_name": "Tony",
		"last_name":  "Clone",
		"email":      "tony@example.com",
		"password":   "another-pass-1",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "email already registered", env.Error)

	status, _ = doRequest(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "tony@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doRequest(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "tony@example.com",
		"password": "ollie-360-flip",
	})
	assert.Equal(t, http.StatusOK, status)
}

func TestProfileAndAddresses(t *testing.T) {
	app, _ := setupTestApp(t)
	token, _ := registerUser(t, app, "tony@example.com")

	status, _ := doRequest(t, app, http.MethodGet, "/api/auth/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env := doRequest(t, app, http.MethodPut, "/api/auth/profile", token, fiber.Map{
		"first_name": "Anthony",
	})
	assert.Equal(t, http.StatusOK, status)
	var user models.User
	assert.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, "Anthony", user.FirstName)
	assert.Equal(t, "Skater", user.LastName)

	status, env = doRequest(t, app, http.MethodPost, "/api/auth/address", token, fiber.Map{
		"label":      "home",
		"street":     "1 Skate Park Way",
		"city":       "Portland",
		"zip_code":   "97201",
		"country":    "USA",
		"is_default": true,
	})
	assert.Equal(t, http.StatusCreated, status)
	assert.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Len(t, user.Addresses, 1)
	assert.True(t, user.Addresses[0].IsDefault)

	status, _ = doRequest(t, app, http.MethodDelete, "/api/auth/address/"+user.Addresses[0].ID, token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = doRequest(t, app, http.MethodGet, "/api/auth/profile", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Empty(t, user.Addresses)
}

func TestProductCRUDAndVisibility(t *testing.T) {
	app, db := setupTestApp(t)
	adminToken := registerAdmin(t, app, db, "admin@example.com")
	customerToken, _ := registerUser(t, app, "customer@example.com")

	// Customers cannot touch the catalog
	status, _ := doRequest(t, app, http.MethodPost, "/api/products", customerToken, fiber.Map{
		"name":       "Forbidden Deck",
		"category":   models.CategoryDecks,
		"brand":      "Baker",
		"base_price": 10.0,
	})
	assert.Equal(t, http.StatusForbidden, status)

	product := createProduct(t, app, adminToken, "Street Deck 8.0", "DECK-80-NAT", 59.99, 10)

	status, env := doRequest(t, app, http.MethodGet, "/api/products/"+product.ID, "", nil)
	assert.Equal(t, http.StatusOK, status)
	var got models.Product
	assert.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "Street Deck 8.0", got.Name)
	assert.Len(t, got.Variations, 1)

	// Duplicate name rejected
	status, env = doRequest(t, app, http.MethodPost, "/api/products", adminToken, fiber.Map{
		"name":       "Street Deck 8.0",
		"category":   models.CategoryDecks,
		"brand":      "Zero",
		"base_price": 49.99,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Error, "name")

	// Reusing the SKU on another product is rejected
	status, env = doRequest(t, app, http.MethodPost, "/api/products", adminToken, fiber.Map{
		"name":       "Street Deck 8.25",
		"category":   models.CategoryDecks,
		"brand":      "Baker",
		"base_price": 64.99,
		"variations": []fiber.Map{
			{"sku": "DECK-80-NAT", "stock_quantity": 2},
		},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Error, "DECK-80-NAT")

	// Soft delete hides the product from reads and lists
	status, _ = doRequest(t, app, http.MethodDelete, "/api/products/"+product.ID, adminToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = doRequest(t, app, http.MethodGet, "/api/products/"+product.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = doRequest(t, app, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(0), env.Total)
}

func TestProductSearchAndFilters(t *testing.T) {
	app, db := setupTestApp(t)
	adminToken := registerAdmin(t, app, db, "admin@example.com")

	createProduct(t, app, adminToken, "Street Deck 8.0", "DECK-80-NAT", 59.99, 10)
	createProduct(t, app, adminToken, "Ceramic Bearings", "BRG-CER-8", 89.99, 5)

	status, env := doRequest(t, app, http.MethodGet, "/api/products/search?q=deck", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(1), env.Total)

	status, _ = doRequest(t, app, http.MethodGet, "/api/products/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = doRequest(t, app, http.MethodGet, "/api/products?min_price=80", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(1), env.Total)
	var list []models.Product
	assert.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, "Ceramic Bearings", list[0].Name)
}

func TestCartFlow(t *testing.T) {
	app, db := setupTestApp(t)
	adminToken := registerAdmin(t, app, db, "admin@example.com")
	token, _ := registerUser(t, app, "customer@example.com")

	product := createProduct(t, app, adminToken, "Street Deck 8.0", "DECK-80-NAT", 59.99, 5)

	status, _ := doRequest(t, app, http.MethodGet, "/api/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env := doRequest(t, app, http.MethodPost, "/api/cart/items", token, fiber.Map{
		"product_id": product.ID,
		"sku":        "DECK-80-NAT",
		"quantity":   2,
	})
	assert.Equal(t, http.StatusCreated, status)
	var cart models.Cart
	assert.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 119.98, cart.Subtotal)

	// Adding the same variant again merges into the existing line
	status, env = doRequest(t, app, http.MethodPost, "/api/cart/items", token, fiber.Map{
		"product_id": product.ID,
		"sku":        "DECK-80-NAT",
		"quantity":   2,
	})
	assert.Equal(t, http.StatusCreated, status)
	assert.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 4, cart.Items[0].Quantity)

	// The merged quantity cannot exceed stock
	status, env = doRequest(t, app, http.MethodPost, "/api/cart/items", token, fiber.Map{
		"product_id": product.ID,
		"sku":        "DECK-80-NAT",
		"quantity":   2,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "insufficient stock", env.Error)

	// Quantity zero removes the line
	status, env = doRequest(t, app, http.MethodPut, "/api/cart/items/DECK-80-NAT", token, fiber.Map{
		"quantity": 0,
	})
	assert.Equal(t, http.StatusOK, status)
	assert.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.Subtotal)
}

func TestCheckoutFlow(t *testing.T) {
	app, db := setupTestApp(t)
	adminToken := registerAdmin(t, app, db, "admin@example.com")
	token, user := registerUser(t, app, "customer@example.com")

	product := createProduct(t, app, adminToken, "Street Deck 8.0", "DECK-80-NAT", 59.99, 5)

	// Put something in the cart so checkout has something to clear
	status, _ := doRequest(t, app, http.MethodPost, "/api/cart/items", token, fiber.Map{
		"product_id": product.ID,
		"sku":        "DECK-80-NAT",
		"quantity":   2,
	})
	assert.Equal(t, http.StatusCreated, status)

	status, env := doRequest(t, app, http.MethodPost, "/api/orders", token, orderBody(product.ID, "DECK-80-NAT", 2))
	assert.Equal(t, http.StatusCreated, status)
	var order models.Order
	assert.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, user.ID, order.UserID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusUnpaid, order.PaymentStatus)
	assert.Equal(t, 119.98, order.TotalAmount)
	assert.Equal(t, fmt.Sprintf("SK-%s-0001", time.Now().Format("20060102")), order.OrderNumber)

	// Stock went down
	status, env = doRequest(t, app, http.MethodGet, "/api/products/"+product.ID, "", nil)
	assert.Equal(t, http.StatusOK, status)
	var got models.Product
	assert.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, 3, got.Variations[0].StockQuantity)

	// Cart was cleared
	status, env = doRequest(t, app, http.MethodGet, "/api/cart", token, nil)
	assert.Equal(t, http.StatusOK, status)
	var cart models.Cart
	assert.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.Empty(t, cart.Items)

	// The order shows up in the caller's history
	status, env = doRequest(t, app, http.MethodGet, "/api/orders", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(1), env.Total)

	// Another customer cannot read it
	otherToken, _ := registerUser(t, app, "nosy@example.com")
	status, _ = doRequest(t, app, http.MethodGet, "/api/orders/"+order.ID, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// A second order the same day continues the sequence
	status, env = doRequest(t, app, http.MethodPost, "/api/orders", token, orderBody(product.ID, "DECK-80-NAT", 1))
	assert.Equal(t, http.StatusCreated, status)
	assert.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, fmt.Sprintf("SK-%s-0002", time.Now().Format("20060102")), order.OrderNumber)
}

func TestGuestCheckout(t *testing.T) {
	app, db := setupTestApp(t)
	adminToken := registerAdmin(t, app, db, "admin@example.com")
	product := createProduct(t, app, adminToken, "Street Deck 8.0", "DECK-80-NAT", 59.99, 5)

	status, env := doRequest(t, app, http.MethodPost, "/api/orders", "", orderBody(product.ID, "DECK-80-NAT", 1))
	assert.Equal(t, http.StatusCreated, status)

	var order models.Order
	assert.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, models.GuestUserID, order.UserID)
}

func TestCheckoutInsufficientStock(t *testing.T) {
	app, db := setupTestApp(t)
	adminToken := registerAdmin(t, app, db, "admin@example.com")
	token, _ := registerUser(t, app, "customer@example.com")

	product := createProduct(t, app, adminToken, "Street Deck 8.0", "DECK-80-NAT", 59.99, 3)

	status, env := doRequest(t, app, http.MethodPost, "/api/orders", token, orderBody(product.ID, "DECK-80-NAT", 10))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Error, "insufficient stock")

	// A failed checkout leaves stock untouched
	status, env = doRequest(t, app, http.MethodGet, "/api/products/"+product.ID, "", nil)
	assert.Equal(t, http.StatusOK, status)
	var got models.Product
	assert.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, 3, got.Variations[0].StockQuantity)
}

func TestAdminOrderManagement(t *testing.T) {
	app, db := setupTestApp(t)
	adminToken := registerAdmin(t, app, db, "admin@example.com")
	token, _ := registerUser(t, app, "customer@example.com")

	product := createProduct(t, app, adminToken, "Street Deck 8.0", "DECK-80-NAT", 59.99, 5)

	status, env := doRequest(t, app, http.MethodPost, "/api/orders", token, orderBody(product.ID, "DECK-80-NAT", 1))
	assert.Equal(t, http.StatusCreated, status)
	var order models.Order
	assert.NoError(t, json.Unmarshal(env.Data, &order))

	// Customers cannot reach the admin surface
	status, _ = doRequest(t, app, http.MethodPatch, "/api/orders/"+order.ID+"/status", token, fiber.Map{
		"status": models.OrderStatusShipped,
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, env = doRequest(t, app, http.MethodPatch, "/api/orders/"+order.ID+"/status", adminToken, fiber.Map{
		"status": models.OrderStatusShipped,
	})
	assert.Equal(t, http.StatusOK, status)
	assert.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, models.OrderStatusShipped, order.Status)
	assert.NotNil(t, order.ShippedDate)

	status, env = doRequest(t, app, http.MethodPatch, "/api/orders/"+order.ID+"/status", adminToken, fiber.Map{
		"status": "teleported",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Error, "invalid status")

	status, env = doRequest(t, app, http.MethodPatch, "/api/orders/"+order.ID+"/payment", adminToken, fiber.Map{
		"payment_status": models.PaymentStatusPaid,
	})
	assert.Equal(t, http.StatusOK, status)
	assert.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)

	status, env = doRequest(t, app, http.MethodGet, "/api/orders/admin/all", adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(1), env.Total)

	status, env = doRequest(t, app, http.MethodGet, "/api/orders/analytics", adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
	var analytics models.OrderAnalytics
	assert.NoError(t, json.Unmarshal(env.Data, &analytics))
	assert.Equal(t, int64(1), analytics.TotalOrders)
	assert.Equal(t, 59.99, analytics.TotalRevenue)

	status, env = doRequest(t, app, http.MethodGet, "/api/orders/trends?days=3", adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
	var trends []models.OrderTrend
	assert.NoError(t, json.Unmarshal(env.Data, &trends))
	assert.Len(t, trends, 3)
	assert.Equal(t, int64(1), trends[2].Orders)
}

func TestReviewFlow(t *testing.T) {
	app, db := setupTestApp(t)
	adminToken := registerAdmin(t, app, db, "admin@example.com")
	token, _ := registerUser(t, app, "customer@example.com")

	product := createProduct(t, app, adminToken, "Street Deck 8.0", "DECK-80-NAT", 59.99, 5)

	status, _ := doRequest(t, app, http.MethodPost, "/api/products/"+product.ID+"/reviews", "", fiber.Map{
		"rating": 5,
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env := doRequest(t, app, http.MethodPost, "/api/products/"+product.ID+"/reviews", token, fiber.Map{
		"rating":  4,
		"comment": "solid pop",
	})
	assert.Equal(t, http.StatusCreated, status)
	var got models.Product
	assert.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, 4.0, got.RatingAverage)
	assert.Equal(t, 1, got.RatingCount)
}
