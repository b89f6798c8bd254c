package errors

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock is returned when a variation cannot cover the requested quantity.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrVariantNotFound is returned when a product has no variation with the given SKU.
	ErrVariantNotFound = errors.New("product variant not found")
	// ErrDuplicateEmail is returned when registering an email that already exists.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateName is returned when creating a product whose name is already taken.
	ErrDuplicateName = errors.New("product name already exists")
	// ErrDuplicateSKU is returned when a variation SKU collides with another product.
	ErrDuplicateSKU = errors.New("sku already exists")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked is returned while an account sits in its lockout window.
	ErrAccountLocked = errors.New("account temporarily locked")
	// ErrInvalidStatus is returned for unknown order or payment statuses.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrForbidden is returned when the caller may not access the resource.
	ErrForbidden = errors.New("forbidden")
)
