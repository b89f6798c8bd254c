package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"skateshop/internal/middleware"
	"skateshop/internal/services"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service     *services.OrderService
	cartService *services.CartService
	validate    *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, cartService *services.CartService) *OrderHandler {
	return &OrderHandler{
		service:     service,
		cartService: cartService,
		validate:    validator.New(),
	}
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type updatePaymentRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required"`
}

// HandleCreateOrder places an order. With a bearer token the order
// belongs to the caller and their cart is cleared afterwards; without
// one it is recorded as a guest checkout.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var input services.CreateOrderInput
	if err := c.BodyParser(&input); err != nil {
		return respondBadBody(c)
	}
	if err := h.validate.Struct(input); err != nil {
		return respondValidationError(c, err)
	}

	userID, authenticated := middleware.CurrentUserID(c)
	order, err := h.service.CreateOrder(userID, input)
	if err != nil {
		return respondError(c, err)
	}

	if authenticated {
		if _, err := h.cartService.ClearCart(userID); err != nil {
			log.Printf("failed to clear cart for user %s after checkout: %v", userID, err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": order})
}

// HandleGetOrder returns one order, owner or admin only.
func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	order, err := h.service.GetOrder(c.Params("id"), userID, middleware.IsAdmin(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": order})
}

// HandleListOrders returns the caller's order history.
func (h *OrderHandler) HandleListOrders(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)

	orders, total, err := h.service.ListOrders(userID, page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// HandleListAllOrders returns a page over every order. Admin only.
func (h *OrderHandler) HandleListAllOrders(c *fiber.Ctx) error {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)

	orders, total, err := h.service.ListAllOrders(page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// HandleUpdateStatus moves an order to a new status. Admin only.
func (h *OrderHandler) HandleUpdateStatus(c *fiber.Ctx) error {
	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationError(c, err)
	}

	order, err := h.service.UpdateOrderStatus(c.Params("id"), req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": order})
}

// HandleUpdatePayment sets an order's payment status. Admin only.
func (h *OrderHandler) HandleUpdatePayment(c *fiber.Ctx) error {
	var req updatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationError(c, err)
	}

	order, err := h.service.UpdatePaymentStatus(c.Params("id"), req.PaymentStatus)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": order})
}

// HandleAnalytics aggregates order counts and revenue. Admin only.
func (h *OrderHandler) HandleAnalytics(c *fiber.Ctx) error {
	analytics, err := h.service.Analytics()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": analytics})
}

// HandleTrends returns daily order volume and revenue. Admin only.
func (h *OrderHandler) HandleTrends(c *fiber.Ctx) error {
	days := queryInt(c, "days", 7)
	trends, err := h.service.Trends(days)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": trends})
}
