package repositories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "skateshop/internal/errors"
	"skateshop/internal/models"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// Create creates a new product with its variations.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	for i := range product.Variations {
		if product.Variations[i].ID == "" {
			product.Variations[i].ID = uuid.New().String()
		}
	}
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update saves product fields and replaces its variation set. Reviews
// are left untouched; they only grow through AddReview.
func (r *GORMProductRepository) Update(product *models.Product) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Omit(clause.Associations).Save(product)
		if res.Error != nil {
			return fmt.Errorf("failed to update product: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}

		if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductVariation{}).Error; err != nil {
			return fmt.Errorf("failed to clear variations: %w", err)
		}
		if len(product.Variations) == 0 {
			return nil
		}
		for i := range product.Variations {
			if product.Variations[i].ID == "" {
				product.Variations[i].ID = uuid.New().String()
			}
			product.Variations[i].ProductID = product.ID
		}
		if err := tx.Create(&product.Variations).Error; err != nil {
			return fmt.Errorf("failed to save variations: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a single product with variations and reviews.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	var product models.Product
	err := r.db.Preload("Variations").Preload("Reviews").First(&product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// List returns active products matching the filter, plus the total count.
func (r *GORMProductRepository) List(filter ProductFilter) ([]models.Product, int64, error) {
	query := r.applyFilter(r.db.Model(&models.Product{}).Where("is_active = ?", true), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	var products []models.Product
	err := query.Preload("Variations").
		Offset(pageOffset(filter.Page, filter.Limit)).Limit(pageLimit(filter.Limit)).
		Order("created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// Search matches the query against product name and description,
// case-insensitively, on top of the regular filters.
func (r *GORMProductRepository) Search(query string, filter ProductFilter) ([]models.Product, int64, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	base := r.applyFilter(r.db.Model(&models.Product{}).Where("is_active = ?", true), filter).
		Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count search results: %w", err)
	}

	var products []models.Product
	err := base.Preload("Variations").
		Offset(pageOffset(filter.Page, filter.Limit)).Limit(pageLimit(filter.Limit)).
		Order("created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search products: %w", err)
	}
	return products, total, nil
}

// CountByName counts products sharing the given name, excluding one ID.
func (r *GORMProductRepository) CountByName(name, excludeID string) (int64, error) {
	var count int64
	query := r.db.Model(&models.Product{}).Where("name = ?", name)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count products by name: %w", err)
	}
	return count, nil
}

// SKUExists reports whether any other product carries the given SKU.
func (r *GORMProductRepository) SKUExists(sku, excludeProductID string) (bool, error) {
	var count int64
	query := r.db.Model(&models.ProductVariation{}).Where("sku = ?", sku)
	if excludeProductID != "" {
		query = query.Where("product_id <> ?", excludeProductID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check SKU existence: %w", err)
	}
	return count > 0, nil
}

// AddReview appends a review row under its product.
func (r *GORMProductRepository) AddReview(review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	if err := r.db.Create(review).Error; err != nil {
		return fmt.Errorf("failed to add review: %w", err)
	}
	return nil
}

// UpdateRating stores the recomputed rating aggregate.
func (r *GORMProductRepository) UpdateRating(productID string, average float64, count int) error {
	res := r.db.Model(&models.Product{}).Where("id = ?", productID).
		Updates(map[string]interface{}{"rating_average": average, "rating_count": count})
	if res.Error != nil {
		return fmt.Errorf("failed to update rating: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DecrementVariantStock takes stock from a variation in a single
// conditional UPDATE. The stock check and the decrement happen in one
// statement, so concurrent checkouts cannot both pass the check and
// oversell the variant.
func (r *GORMProductRepository) DecrementVariantStock(productID, sku string, quantity int) error {
	res := r.db.Model(&models.ProductVariation{}).
		Where("product_id = ? AND sku = ? AND stock_quantity >= ?", productID, sku, quantity).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if res.Error != nil {
		return fmt.Errorf("failed to decrement stock for SKU %s: %w", sku, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrInsufficientStock
	}
	return nil
}

// IncrementVariantStock returns stock to a variation. Used to
// compensate decrements when a later step of order creation fails.
func (r *GORMProductRepository) IncrementVariantStock(productID, sku string, quantity int) error {
	res := r.db.Model(&models.ProductVariation{}).
		Where("product_id = ? AND sku = ?", productID, sku).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", quantity))
	if res.Error != nil {
		return fmt.Errorf("failed to increment stock for SKU %s: %w", sku, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrVariantNotFound
	}
	return nil
}

func (r *GORMProductRepository) applyFilter(query *gorm.DB, filter ProductFilter) *gorm.DB {
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Brand != "" {
		query = query.Where("brand = ?", filter.Brand)
	}
	if filter.MinPrice != nil {
		query = query.Where("base_price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("base_price <= ?", *filter.MaxPrice)
	}
	return query
}

func pageLimit(l int) int {
	if l <= 0 {
		return 20
	}
	return l
}

func pageOffset(page, l int) int {
	if page <= 1 {
		return 0
	}
	return (page - 1) * pageLimit(l)
}
