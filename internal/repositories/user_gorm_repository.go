package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "skateshop/internal/errors"
	"skateshop/internal/models"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	for i := range user.Addresses {
		if user.Addresses[i].ID == "" {
			user.Addresses[i].ID = uuid.New().String()
		}
	}
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Preload("Addresses").First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	return &user, nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.Preload("Addresses").First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID %s: %w", id, err)
	}
	return &user, nil
}

// Update persists changes to a user record. Addresses are managed
// separately through ReplaceAddresses.
func (r *GORMUserRepository) Update(user *models.User) error {
	res := r.db.Omit(clause.Associations).Save(user)
	if res.Error != nil {
		return fmt.Errorf("failed to update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ReplaceAddresses swaps the user's address book for the given set.
func (r *GORMUserRepository) ReplaceAddresses(userID string, addresses []models.Address) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.Address{}).Error; err != nil {
			return fmt.Errorf("failed to clear addresses: %w", err)
		}
		if len(addresses) == 0 {
			return nil
		}
		for i := range addresses {
			if addresses[i].ID == "" {
				addresses[i].ID = uuid.New().String()
			}
			addresses[i].UserID = userID
		}
		if err := tx.Create(&addresses).Error; err != nil {
			return fmt.Errorf("failed to save addresses: %w", err)
		}
		return nil
	})
}

// DeleteAddress removes one address from the user's address book.
func (r *GORMUserRepository) DeleteAddress(userID, addressID string) error {
	res := r.db.Where("user_id = ? AND id = ?", userID, addressID).Delete(&models.Address{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete address: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
