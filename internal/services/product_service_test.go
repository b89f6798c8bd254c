package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	apperrors "skateshop/internal/errors"
	"skateshop/internal/models"
	"skateshop/internal/services"
)

func TestCreateProduct_Success(t *testing.T) {
	repo := new(MockProductRepository)
	service := services.NewProductService(repo, nil)

	product := &models.Product{
		Name:      "Street Deck 8.0",
		Category:  models.CategoryDecks,
		Brand:     "Baker",
		BasePrice: 59.99,
		Variations: []models.ProductVariation{
			{SKU: "DECK-80-NAT", Size: "8.0", Color: "natural", StockQuantity: 10},
		},
	}

	repo.On("CountByName", "Street Deck 8.0", "").Return(int64(0), nil)
	repo.On("SKUExists", "DECK-80-NAT", "").Return(false, nil)
	repo.On("Create", product).Return(nil)

	err := service.CreateProduct(product)

	assert.NoError(t, err)
	assert.True(t, product.IsActive)
	repo.AssertExpectations(t)
}

func TestCreateProduct_DuplicateName(t *testing.T) {
	repo := new(MockProductRepository)
	service := services.NewProductService(repo, nil)

	repo.On("CountByName", "Street Deck 8.0", "").Return(int64(1), nil)

	err := service.CreateProduct(&models.Product{Name: "Street Deck 8.0"})

	assert.ErrorIs(t, err, apperrors.ErrDuplicateName)
	repo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestCreateProduct_DuplicateSKUAcrossCatalog(t *testing.T) {
	repo := new(MockProductRepository)
	service := services.NewProductService(repo, nil)

	product := &models.Product{
		Name:      "Street Deck 8.25",
		BasePrice: 59.99,
		Variations: []models.ProductVariation{
			{SKU: "DECK-80-NAT", StockQuantity: 5},
		},
	}
	repo.On("CountByName", "Street Deck 8.25", "").Return(int64(0), nil)
	repo.On("SKUExists", "DECK-80-NAT", "").Return(true, nil)

	err := service.CreateProduct(product)

	assert.ErrorIs(t, err, apperrors.ErrDuplicateSKU)
	repo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestCreateProduct_DuplicateSKUWithinProduct(t *testing.T) {
	repo := new(MockProductRepository)
	service := services.NewProductService(repo, nil)

	product := &models.Product{
		Name:      "Street Deck 8.0",
		BasePrice: 59.99,
		Variations: []models.ProductVariation{
			{SKU: "DECK-80-NAT", StockQuantity: 10},
			{SKU: "DECK-80-NAT", StockQuantity: 4},
		},
	}

	err := service.CreateProduct(product)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate variation SKU "DECK-80-NAT"`)
	repo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestCreateProduct_NegativeEffectivePrice(t *testing.T) {
	repo := new(MockProductRepository)
	service := services.NewProductService(repo, nil)

	// A discount larger than the base price is rejected
	product := &models.Product{
		Name:      "Clearance Wheels",
		BasePrice: 100,
		Variations: []models.ProductVariation{
			{SKU: "WHL-54-WHT", AdditionalPrice: -150, StockQuantity: 3},
		},
	}

	err := service.CreateProduct(product)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be negative")
	repo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestCreateProduct_DiscountWithinBasePrice(t *testing.T) {
	repo := new(MockProductRepository)
	service := services.NewProductService(repo, nil)

	product := &models.Product{
		Name:      "Clearance Wheels",
		BasePrice: 100,
		Variations: []models.ProductVariation{
			{SKU: "WHL-54-WHT", AdditionalPrice: -50, StockQuantity: 3},
		},
	}
	repo.On("CountByName", "Clearance Wheels", "").Return(int64(0), nil)
	repo.On("SKUExists", "WHL-54-WHT", "").Return(false, nil)
	repo.On("Create", product).Return(nil)

	err := service.CreateProduct(product)

	assert.NoError(t, err)
	assert.Equal(t, 50.0, models.EffectivePrice(product.BasePrice, product.Variations[0].AdditionalPrice))
}

func TestDeleteProduct_SoftDeletes(t *testing.T) {
	repo := new(MockProductRepository)
	service := services.NewProductService(repo, nil)

	product := &models.Product{ID: "p-1", Name: "Street Deck 8.0", IsActive: true}
	repo.On("GetByID", "p-1").Return(product, nil)
	repo.On("Update", product).Return(nil)

	err := service.DeleteProduct("p-1")

	assert.NoError(t, err)
	assert.False(t, product.IsActive)
	repo.AssertExpectations(t)
}

func TestGetProduct_NilCacheFallsThrough(t *testing.T) {
	repo := new(MockProductRepository)
	service := services.NewProductService(repo, nil)

	product := &models.Product{ID: "p-1", Name: "Street Deck 8.0"}
	repo.On("GetByID", "p-1").Return(product, nil)

	got, err := service.GetProduct("p-1")

	assert.NoError(t, err)
	assert.Equal(t, "p-1", got.ID)
}

func TestAddReview_RecalculatesRating(t *testing.T) {
	repo := new(MockProductRepository)
	service := services.NewProductService(repo, nil)

	product := &models.Product{
		ID:   "p-1",
		Name: "Street Deck 8.0",
		Reviews: []models.Review{
			{ID: "r-1", Rating: 5},
			{ID: "r-2", Rating: 4},
		},
		RatingAverage: 4.5,
		RatingCount:   2,
	}
	repo.On("GetByID", "p-1").Return(product, nil)
	repo.On("AddReview", mock.AnythingOfType("*models.Review")).Return(nil)
	repo.On("UpdateRating", "p-1", 3.7, 3).Return(nil)

	got, err := service.AddReview("p-1", models.Review{UserID: "u-1", Rating: 2, Comment: "snapped in a week"})

	assert.NoError(t, err)
	// (5 + 4 + 2) / 3 = 3.666... rounded to one decimal
	assert.Equal(t, 3.7, got.RatingAverage)
	assert.Equal(t, 3, got.RatingCount)
	repo.AssertExpectations(t)
}

func TestAddReview_RejectsOutOfRangeRating(t *testing.T) {
	repo := new(MockProductRepository)
	service := services.NewProductService(repo, nil)

	_, err := service.AddReview("p-1", models.Review{Rating: 6})
	assert.Error(t, err)

	_, err = service.AddReview("p-1", models.Review{Rating: 0})
	assert.Error(t, err)
	repo.AssertNotCalled(t, "AddReview", mock.Anything)
}
