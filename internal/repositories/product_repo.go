package repositories

import "skateshop/internal/models"

// ProductFilter narrows product listings and searches.
type ProductFilter struct {
	Category string
	Brand    string
	MinPrice *float64
	MaxPrice *float64
	Page     int
	Limit    int
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	Create(product *models.Product) error
	Update(product *models.Product) error
	GetByID(id string) (*models.Product, error)
	List(filter ProductFilter) ([]models.Product, int64, error)
	Search(query string, filter ProductFilter) ([]models.Product, int64, error)
	CountByName(name, excludeID string) (int64, error)
	SKUExists(sku, excludeProductID string) (bool, error)
	AddReview(review *models.Review) error
	UpdateRating(productID string, average float64, count int) error
	DecrementVariantStock(productID, sku string, quantity int) error
	IncrementVariantStock(productID, sku string, quantity int) error
}
