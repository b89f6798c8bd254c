package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"skateshop/internal/handlers"
	"skateshop/internal/middleware"
	"skateshop/internal/services"
)

// Handlers bundles the HTTP handlers wired into the route table.
type Handlers struct {
	Auth    *handlers.AuthHandler
	Product *handlers.ProductHandler
	Cart    *handlers.CartHandler
	Order   *handlers.OrderHandler
}

// Register wires up all HTTP routes under /api.
func Register(app *fiber.App, h Handlers, authService *services.AuthService) {
	api := app.Group("/api")

	authRequired := middleware.AuthRequired(authService)
	optionalAuth := middleware.OptionalAuth(authService)
	adminRequired := middleware.AdminRequired()

	// Auth + profile
	auth := api.Group("/auth")
	auth.Post("/register", h.Auth.HandleRegister)
	auth.Post("/login", h.Auth.HandleLogin)
	auth.Get("/profile", authRequired, h.Auth.HandleGetProfile)
	auth.Put("/profile", authRequired, h.Auth.HandleUpdateProfile)
	auth.Post("/change-password", authRequired, h.Auth.HandleChangePassword)
	auth.Post("/address", authRequired, h.Auth.HandleAddAddress)
	auth.Delete("/address/:id", authRequired, h.Auth.HandleRemoveAddress)

	// Catalog
	products := api.Group("/products")
	products.Get("/", h.Product.HandleListProducts)
	products.Get("/search", h.Product.HandleSearchProducts)
	products.Get("/:id", h.Product.HandleGetProduct)
	products.Post("/", authRequired, adminRequired, h.Product.HandleCreateProduct)
	products.Put("/:id", authRequired, adminRequired, h.Product.HandleUpdateProduct)
	products.Delete("/:id", authRequired, adminRequired, h.Product.HandleDeleteProduct)
	products.Post("/:id/reviews", authRequired, h.Product.HandleAddReview)

	// Cart
	cart := api.Group("/cart", authRequired)
	cart.Get("/", h.Cart.HandleGetCart)
	cart.Post("/items", h.Cart.HandleAddItem)
	cart.Put("/items/:sku", h.Cart.HandleUpdateItem)
	cart.Delete("/items/:sku", h.Cart.HandleRemoveItem)
	cart.Delete("/", h.Cart.HandleClearCart)
	cart.Post("/refresh-prices", h.Cart.HandleRefreshPrices)

	// Orders. Creation takes an optional token so guests can check out.
	orders := api.Group("/orders")
	orders.Post("/", optionalAuth, h.Order.HandleCreateOrder)
	orders.Get("/admin/all", authRequired, adminRequired, h.Order.HandleListAllOrders)
	orders.Get("/analytics", authRequired, adminRequired, h.Order.HandleAnalytics)
	orders.Get("/trends", authRequired, adminRequired, h.Order.HandleTrends)
	orders.Get("/", authRequired, h.Order.HandleListOrders)
	orders.Get("/:id", authRequired, h.Order.HandleGetOrder)
	orders.Patch("/:id/status", authRequired, adminRequired, h.Order.HandleUpdateStatus)
	orders.Patch("/:id/payment", authRequired, adminRequired, h.Order.HandleUpdatePayment)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
}
