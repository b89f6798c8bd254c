package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "skateshop/internal/errors"
	"skateshop/internal/models"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// GetByUserID retrieves the user's cart with its items.
func (r *GORMCartRepository) GetByUserID(userID string) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.Preload("Items").First(&cart, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cart for user %s: %w", userID, err)
	}
	return &cart, nil
}

// Create creates a new cart.
func (r *GORMCartRepository) Create(cart *models.Cart) error {
	if cart.ID == "" {
		cart.ID = uuid.New().String()
	}
	for i := range cart.Items {
		if cart.Items[i].ID == "" {
			cart.Items[i].ID = uuid.New().String()
		}
		cart.Items[i].CartID = cart.ID
	}
	if err := r.db.Create(cart).Error; err != nil {
		return fmt.Errorf("failed to create cart: %w", err)
	}
	return nil
}

// Save persists the cart and replaces its line items so removed lines
// disappear from storage too.
func (r *GORMCartRepository) Save(cart *models.Cart) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Omit(clause.Associations).Save(cart)
		if res.Error != nil {
			return fmt.Errorf("failed to save cart: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear cart items: %w", err)
		}
		if len(cart.Items) == 0 {
			return nil
		}
		for i := range cart.Items {
			if cart.Items[i].ID == "" {
				cart.Items[i].ID = uuid.New().String()
			}
			cart.Items[i].CartID = cart.ID
		}
		if err := tx.Create(&cart.Items).Error; err != nil {
			return fmt.Errorf("failed to save cart items: %w", err)
		}
		return nil
	})
}

// DeleteExpired removes carts whose sliding window has lapsed.
func (r *GORMCartRepository) DeleteExpired(before time.Time) (int64, error) {
	var expired []models.Cart
	if err := r.db.Where("expires_at < ?", before).Find(&expired).Error; err != nil {
		return 0, fmt.Errorf("failed to find expired carts: %w", err)
	}
	if len(expired) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(expired))
	for i := range expired {
		ids = append(ids, expired[i].ID)
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id IN ?", ids).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Cart{}).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired carts: %w", err)
	}
	return int64(len(ids)), nil
}
