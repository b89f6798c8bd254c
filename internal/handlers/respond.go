package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	apperrors "skateshop/internal/errors"
)

// respondError maps service errors onto the uniform
// {success, error} envelope. Validation and business-rule failures
// are 400s, missing records 404s, everything unexpected a 500.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrVariantNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, apperrors.ErrInsufficientStock),
		errors.Is(err, apperrors.ErrDuplicateEmail),
		errors.Is(err, apperrors.ErrDuplicateName),
		errors.Is(err, apperrors.ErrDuplicateSKU),
		errors.Is(err, apperrors.ErrInvalidStatus):
		status = fiber.StatusBadRequest
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		status = fiber.StatusUnauthorized
	case errors.Is(err, apperrors.ErrAccountLocked), errors.Is(err, apperrors.ErrForbidden):
		status = fiber.StatusForbidden
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}

// respondValidationError formats validator failures field by field.
func respondValidationError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "validation failed",
			"fields":  errorMessages,
		})
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}

// respondBadBody is the shared answer for unparseable request bodies.
func respondBadBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   "invalid request body",
	})
}

// queryInt reads an integer query parameter with a fallback.
func queryInt(c *fiber.Ctx, key string, fallback int) int {
	if parsed, err := strconv.Atoi(c.Query(key)); err == nil {
		return parsed
	}
	return fallback
}

// queryFloat reads an optional float query parameter.
func queryFloat(c *fiber.Ctx, key string) *float64 {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
		return &parsed
	}
	return nil
}
