package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"skateshop/internal/cache"
	"skateshop/internal/models"
	"skateshop/internal/repositories"

	apperrors "skateshop/internal/errors"
)

const (
	productCacheKeyPrefix = "product:"
	productCacheTTL       = 5 * time.Minute
)

// ProductService handles business logic related to the catalog.
type ProductService struct {
	repo  repositories.ProductRepository
	cache *cache.Client
}

// NewProductService creates a new ProductService. The cache may be
// nil; reads then always hit the database.
func NewProductService(repo repositories.ProductRepository, cache *cache.Client) *ProductService {
	return &ProductService{
		repo:  repo,
		cache: cache,
	}
}

// CreateProduct validates catalog invariants, rejects duplicate names
// and SKUs, and persists the product as active.
func (s *ProductService) CreateProduct(product *models.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}

	count, err := s.repo.CountByName(product.Name, "")
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.ErrDuplicateName
	}

	for i := range product.Variations {
		exists, err := s.repo.SKUExists(product.Variations[i].SKU, "")
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", apperrors.ErrDuplicateSKU, product.Variations[i].SKU)
		}
	}

	product.IsActive = true
	return s.repo.Create(product)
}

// UpdateProduct revalidates and saves an existing product.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}

	count, err := s.repo.CountByName(product.Name, product.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.ErrDuplicateName
	}

	for i := range product.Variations {
		exists, err := s.repo.SKUExists(product.Variations[i].SKU, product.ID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", apperrors.ErrDuplicateSKU, product.Variations[i].SKU)
		}
	}

	if err := s.repo.Update(product); err != nil {
		return err
	}
	s.invalidate(product.ID)
	return nil
}

// DeleteProduct soft-deletes by flipping is_active off. The row stays
// so past orders and carts can still resolve the reference.
func (s *ProductService) DeleteProduct(id string) error {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	product.IsActive = false
	if err := s.repo.Update(product); err != nil {
		return err
	}
	s.invalidate(id)
	return nil
}

// GetProduct retrieves a single product, cache-aside.
func (s *ProductService) GetProduct(id string) (*models.Product, error) {
	ctx := context.Background()
	key := productCacheKeyPrefix + id

	if data, _ := s.cache.Get(ctx, key); data != nil {
		var product models.Product
		if err := json.Unmarshal(data, &product); err == nil {
			return &product, nil
		}
	}

	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(product); err == nil {
		if err := s.cache.Set(ctx, key, data, productCacheTTL); err != nil {
			log.Printf("failed to cache product %s: %v", id, err)
		}
	}
	return product, nil
}

// ListProducts returns active products matching the filter.
func (s *ProductService) ListProducts(filter repositories.ProductFilter) ([]models.Product, int64, error) {
	return s.repo.List(filter)
}

// SearchProducts matches a free-text query against name and
// description on top of the filter.
func (s *ProductService) SearchProducts(query string, filter repositories.ProductFilter) ([]models.Product, int64, error) {
	return s.repo.Search(query, filter)
}

// AddReview stores a review and recomputes the product's average
// rating over all of its reviews.
func (s *ProductService) AddReview(productID string, review models.Review) (*models.Product, error) {
	if review.Rating < 1 || review.Rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5")
	}

	product, err := s.repo.GetByID(productID)
	if err != nil {
		return nil, err
	}

	review.ProductID = productID
	review.CreatedAt = time.Now()
	if err := s.repo.AddReview(&review); err != nil {
		return nil, err
	}

	product.Reviews = append(product.Reviews, review)
	product.RecalculateRating()
	if err := s.repo.UpdateRating(productID, product.RatingAverage, product.RatingCount); err != nil {
		return nil, err
	}

	s.invalidate(productID)
	return product, nil
}

func (s *ProductService) invalidate(productID string) {
	if err := s.cache.Delete(context.Background(), productCacheKeyPrefix+productID); err != nil {
		log.Printf("failed to invalidate product cache %s: %v", productID, err)
	}
}
