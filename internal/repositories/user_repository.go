package repositories

import "skateshop/internal/models"

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)
	Update(user *models.User) error
	ReplaceAddresses(userID string, addresses []models.Address) error
	DeleteAddress(userID, addressID string) error
}
