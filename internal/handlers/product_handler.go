package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	apperrors "skateshop/internal/errors"
	"skateshop/internal/middleware"
	"skateshop/internal/models"
	"skateshop/internal/repositories"
	"skateshop/internal/services"
)

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

type reviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"omitempty,max=1000"`
}

// HandleListProducts lists active products with optional filters.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	filter := filterFromQuery(c)
	products, total, err := h.service.ListProducts(filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    products,
		"total":   total,
		"page":    filter.Page,
		"limit":   filter.Limit,
	})
}

// HandleSearchProducts matches a free-text query against the catalog.
func (h *ProductHandler) HandleSearchProducts(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "query parameter 'q' is required",
		})
	}

	filter := filterFromQuery(c)
	products, total, err := h.service.SearchProducts(query, filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    products,
		"total":   total,
		"page":    filter.Page,
		"limit":   filter.Limit,
	})
}

// HandleGetProduct returns one product. Soft-deleted products are not
// visible here.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.service.GetProduct(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if !product.IsActive {
		return respondError(c, apperrors.ErrNotFound)
	}
	return c.JSON(fiber.Map{"success": true, "data": product})
}

// HandleCreateProduct creates a catalog entry. Admin only.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return respondBadBody(c)
	}
	if err := h.validate.Struct(product); err != nil {
		return respondValidationError(c, err)
	}

	if err := h.service.CreateProduct(&product); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": product})
}

// HandleUpdateProduct updates a catalog entry. Admin only.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return respondBadBody(c)
	}
	product.ID = c.Params("id")
	if err := h.validate.Struct(product); err != nil {
		return respondValidationError(c, err)
	}

	if err := h.service.UpdateProduct(&product); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": product})
}

// HandleDeleteProduct soft-deletes a catalog entry. Admin only.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"message": "product deleted"}})
}

// HandleAddReview records a review from the authenticated user.
func (h *ProductHandler) HandleAddReview(c *fiber.Ctx) error {
	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationError(c, err)
	}

	userID, _ := middleware.CurrentUserID(c)
	product, err := h.service.AddReview(c.Params("id"), models.Review{
		UserID:  userID,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": product})
}

func filterFromQuery(c *fiber.Ctx) repositories.ProductFilter {
	return repositories.ProductFilter{
		Category: c.Query("category"),
		Brand:    c.Query("brand"),
		MinPrice: queryFloat(c, "min_price"),
		MaxPrice: queryFloat(c, "max_price"),
		Page:     queryInt(c, "page", 1),
		Limit:    queryInt(c, "limit", 20),
	}
}
