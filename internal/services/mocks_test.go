package services_test

import (
	"time"

	"github.com/stretchr/testify/mock"

	"skateshop/internal/models"
	"skateshop/internal/repositories"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) ReplaceAddresses(userID string, addresses []models.Address) error {
	args := m.Called(userID, addresses)
	return args.Error(0)
}

func (m *MockUserRepository) DeleteAddress(userID, addressID string) error {
	args := m.Called(userID, addressID)
	return args.Error(0)
}

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) GetByID(id string) (*models.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) List(filter repositories.ProductFilter) ([]models.Product, int64, error) {
	args := m.Called(filter)
	return args.Get(0).([]models.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) Search(query string, filter repositories.ProductFilter) ([]models.Product, int64, error) {
	args := m.Called(query, filter)
	return args.Get(0).([]models.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) CountByName(name, excludeID string) (int64, error) {
	args := m.Called(name, excludeID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) SKUExists(sku, excludeProductID string) (bool, error) {
	args := m.Called(sku, excludeProductID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) AddReview(review *models.Review) error {
	args := m.Called(review)
	return args.Error(0)
}

func (m *MockProductRepository) UpdateRating(productID string, average float64, count int) error {
	args := m.Called(productID, average, count)
	return args.Error(0)
}

func (m *MockProductRepository) DecrementVariantStock(productID, sku string, quantity int) error {
	args := m.Called(productID, sku, quantity)
	return args.Error(0)
}

func (m *MockProductRepository) IncrementVariantStock(productID, sku string, quantity int) error {
	args := m.Called(productID, sku, quantity)
	return args.Error(0)
}

// MockCartRepository is a mock implementation of repositories.CartRepository
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) GetByUserID(userID string) (*models.Cart, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cart), args.Error(1)
}

func (m *MockCartRepository) Create(cart *models.Cart) error {
	args := m.Called(cart)
	return args.Error(0)
}

func (m *MockCartRepository) Save(cart *models.Cart) error {
	args := m.Called(cart)
	return args.Error(0)
}

func (m *MockCartRepository) DeleteExpired(before time.Time) (int64, error) {
	args := m.Called(before)
	return args.Get(0).(int64), args.Error(1)
}

// MockOrderRepository is a mock implementation of repositories.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(order *models.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByUser(userID string, page, limit int) ([]models.Order, int64, error) {
	args := m.Called(userID, page, limit)
	return args.Get(0).([]models.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) List(page, limit int) ([]models.Order, int64, error) {
	args := m.Called(page, limit)
	return args.Get(0).([]models.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) ListSince(since time.Time) ([]models.Order, error) {
	args := m.Called(since)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) CountSince(since time.Time) (int64, error) {
	args := m.Called(since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) Update(order *models.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of services.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(routingKey string, body []byte) error {
	args := m.Called(routingKey, body)
	return args.Error(0)
}
