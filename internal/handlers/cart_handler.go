package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"skateshop/internal/middleware"
	"skateshop/internal/services"
)

// CartHandler handles HTTP requests for the shopping cart.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
	}
}

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	SKU       string `json:"sku" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// HandleGetCart returns the caller's cart, creating it on first use.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	cart, err := h.service.GetCart(userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": cart})
}

// HandleAddItem adds a product variation to the cart.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req addItemRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationError(c, err)
	}

	userID, _ := middleware.CurrentUserID(c)
	cart, err := h.service.AddItem(userID, req.ProductID, req.SKU, req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": cart})
}

// HandleUpdateItem sets a line's quantity; zero removes the line.
func (h *CartHandler) HandleUpdateItem(c *fiber.Ctx) error {
	var req updateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c)
	}

	userID, _ := middleware.CurrentUserID(c)
	cart, err := h.service.UpdateItemQuantity(userID, c.Params("sku"), req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": cart})
}

// HandleRemoveItem drops a line from the cart.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	cart, err := h.service.RemoveItem(userID, c.Params("sku"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": cart})
}

// HandleClearCart empties the cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	cart, err := h.service.ClearCart(userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": cart})
}

// HandleRefreshPrices reconciles cart prices against the catalog and
// reports the lines that moved.
func (h *CartHandler) HandleRefreshPrices(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	cart, changes, err := h.service.RefreshPrices(userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"cart":    cart,
			"changes": changes,
		},
	})
}
