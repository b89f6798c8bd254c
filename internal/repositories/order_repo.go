package repositories

import (
	"time"

	"skateshop/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id string) (*models.Order, error)
	ListByUser(userID string, page, limit int) ([]models.Order, int64, error)
	List(page, limit int) ([]models.Order, int64, error)
	ListSince(since time.Time) ([]models.Order, error)
	CountSince(since time.Time) (int64, error)
	Update(order *models.Order) error
}
