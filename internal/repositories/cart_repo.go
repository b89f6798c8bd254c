package repositories

import (
	"time"

	"skateshop/internal/models"
)

// CartRepository defines the interface for cart data access.
type CartRepository interface {
	GetByUserID(userID string) (*models.Cart, error)
	Create(cart *models.Cart) error
	Save(cart *models.Cart) error
	DeleteExpired(before time.Time) (int64, error)
}
