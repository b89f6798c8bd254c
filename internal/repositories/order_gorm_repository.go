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

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// Create persists a new order with its item snapshots.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves a single order with its items.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// ListByUser returns a page of the user's orders, newest first.
func (r *GORMOrderRepository) ListByUser(userID string, page, limit int) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders for user %s: %w", userID, err)
	}

	var orders []models.Order
	err := query.Preload("Items").
		Offset(pageOffset(page, limit)).Limit(pageLimit(limit)).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders for user %s: %w", userID, err)
	}
	return orders, total, nil
}

// List returns a page over all orders, newest first.
func (r *GORMOrderRepository) List(page, limit int) ([]models.Order, int64, error) {
	var total int64
	if err := r.db.Model(&models.Order{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []models.Order
	err := r.db.Preload("Items").
		Offset(pageOffset(page, limit)).Limit(pageLimit(limit)).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// ListSince returns all orders created at or after the given time.
func (r *GORMOrderRepository) ListSince(since time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Where("created_at >= ?", since).Order("created_at ASC").Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders since %s: %w", since, err)
	}
	return orders, nil
}

// CountSince counts orders created at or after the given time. Used
// for the daily order-number sequence.
func (r *GORMOrderRepository) CountSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Order{}).Where("created_at >= ?", since).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count orders since %s: %w", since, err)
	}
	return count, nil
}

// Update persists status and payment changes. Item snapshots are
// immutable once written.
func (r *GORMOrderRepository) Update(order *models.Order) error {
	res := r.db.Omit(clause.Associations).Save(order)
	if res.Error != nil {
		return fmt.Errorf("failed to update order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
