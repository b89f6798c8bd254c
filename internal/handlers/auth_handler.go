package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"skateshop/internal/middleware"
	"skateshop/internal/models"
	"skateshop/internal/services"
)

// AuthHandler handles HTTP requests for authentication and profiles.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

type registerRequest struct {
	FirstName       string `json:"first_name" validate:"required,min=1,max=100"`
	LastName        string `json:"last_name" validate:"required,min=1,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	NewsletterOptIn bool   `json:"newsletter_opt_in"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type updateProfileRequest struct {
	FirstName       *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName        *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	NewsletterOptIn *bool   `json:"newsletter_opt_in"`
	Currency        *string `json:"currency" validate:"omitempty,len=3"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

type addressRequest struct {
	Label     string `json:"label" validate:"omitempty,max=50"`
	Street    string `json:"street" validate:"required,max=200"`
	City      string `json:"city" validate:"required,max=100"`
	State     string `json:"state" validate:"omitempty,max=100"`
	ZipCode   string `json:"zip_code" validate:"required,max=20"`
	Country   string `json:"country" validate:"required,max=100"`
	IsDefault bool   `json:"is_default"`
}

// HandleRegister handles new user registration and issues a token.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationError(c, err)
	}

	user := models.User{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Password:        req.Password,
		NewsletterOptIn: req.NewsletterOptIn,
	}
	if err := h.authService.Register(&user); err != nil {
		return respondError(c, err)
	}

	token, _, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"user":  user,
			"token": token,
		},
	})
}

// HandleLogin authenticates a user and returns a JWT.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationError(c, err)
	}

	token, user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"user":  user,
			"token": token,
		},
	})
}

// HandleGetProfile returns the authenticated user's profile.
func (h *AuthHandler) HandleGetProfile(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	user, err := h.authService.GetProfile(userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": user})
}

// HandleUpdateProfile applies profile changes.
func (h *AuthHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationError(c, err)
	}

	userID, _ := middleware.CurrentUserID(c)
	user, err := h.authService.UpdateProfile(userID, services.ProfileUpdate{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		NewsletterOptIn: req.NewsletterOptIn,
		Currency:        req.Currency,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": user})
}

// HandleChangePassword verifies and replaces the user's password.
func (h *AuthHandler) HandleChangePassword(c *fiber.Ctx) error {
	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationError(c, err)
	}

	userID, _ := middleware.CurrentUserID(c)
	if err := h.authService.ChangePassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"message": "password updated"}})
}

// HandleAddAddress adds an address to the caller's address book.
func (h *AuthHandler) HandleAddAddress(c *fiber.Ctx) error {
	var req addressRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationError(c, err)
	}

	userID, _ := middleware.CurrentUserID(c)
	user, err := h.authService.AddAddress(userID, models.Address{
		Label:     req.Label,
		Street:    req.Street,
		City:      req.City,
		State:     req.State,
		ZipCode:   req.ZipCode,
		Country:   req.Country,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": user})
}

// HandleRemoveAddress deletes an address from the caller's book.
func (h *AuthHandler) HandleRemoveAddress(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	if err := h.authService.RemoveAddress(userID, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"message": "address removed"}})
}
