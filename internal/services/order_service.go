package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	apperrors "skateshop/internal/errors"
	"skateshop/internal/models"
	"skateshop/internal/repositories"
)

// EventPublisher publishes order lifecycle events to the message
// queue. *rabbitmq.Client satisfies it.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	events      EventPublisher
}

// NewOrderService creates a new OrderService. The event publisher may
// be nil, in which case events are skipped.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, events EventPublisher) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		events:      events,
	}
}

// OrderItemInput is one requested line of a new order.
type OrderItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	SKU       string `json:"sku" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderInput is the payload for placing an order.
type CreateOrderInput struct {
	Items           []OrderItemInput    `json:"items" validate:"required,min=1,dive"`
	ShippingAddress models.OrderAddress `json:"shipping_address" validate:"required"`
	BillingAddress  models.OrderAddress `json:"billing_address" validate:"required"`
	PaymentMethod   string              `json:"payment_method" validate:"required,max=30"`
	ShippingMethod  string              `json:"shipping_method" validate:"required,max=30"`
}

type stockMovement struct {
	productID string
	sku       string
	quantity  int
}

// CreateOrder places an order for the given user (or the guest user
// when userID is empty). Stock for each line is taken with a single
// conditional decrement, and already-taken stock is returned if a
// later line or the order insert fails, so a failed checkout never
// leaves stock missing.
func (s *OrderService) CreateOrder(userID string, input CreateOrderInput) (*models.Order, error) {
	if userID == "" {
		userID = models.GuestUserID
	}
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("order requires at least one item")
	}

	var (
		items      []models.OrderItem
		movements  []stockMovement
		totalCents float64
	)

	for _, line := range input.Items {
		if line.Quantity <= 0 {
			s.compensate(movements)
			return nil, fmt.Errorf("quantity must be positive for product %s", line.ProductID)
		}

		product, err := s.productRepo.GetByID(line.ProductID)
		if err != nil {
			s.compensate(movements)
			return nil, fmt.Errorf("product %s not found: %w", line.ProductID, err)
		}
		variation := product.Variation(line.SKU)
		if variation == nil {
			s.compensate(movements)
			return nil, fmt.Errorf("product %s: %w: %s", product.Name, apperrors.ErrVariantNotFound, line.SKU)
		}

		if err := s.productRepo.DecrementVariantStock(line.ProductID, line.SKU, line.Quantity); err != nil {
			s.compensate(movements)
			return nil, fmt.Errorf("product %s: %w", product.Name, err)
		}
		movements = append(movements, stockMovement{line.ProductID, line.SKU, line.Quantity})

		price := models.EffectivePrice(product.BasePrice, variation.AdditionalPrice)
		items = append(items, models.OrderItem{
			ProductID:   line.ProductID,
			ProductName: product.Name,
			SKU:         line.SKU,
			Price:       price,
			Quantity:    line.Quantity,
		})
		totalCents += price * float64(line.Quantity)
	}

	orderNumber, err := s.generateOrderNumber(time.Now())
	if err != nil {
		s.compensate(movements)
		return nil, err
	}

	order := &models.Order{
		OrderNumber:     orderNumber,
		UserID:          userID,
		Items:           items,
		TotalAmount:     models.RoundToCents(totalCents),
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusUnpaid,
		PaymentMethod:   input.PaymentMethod,
		ShippingMethod:  input.ShippingMethod,
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  input.BillingAddress,
	}

	if err := s.orderRepo.Create(order); err != nil {
		s.compensate(movements)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.publish("order.created", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"user_id":      order.UserID,
		"status":       order.Status,
		"total":        order.TotalAmount,
	})

	return order, nil
}

// GetOrder retrieves an order, restricted to its owner unless the
// requester is an admin.
func (s *OrderService) GetOrder(orderID, requesterID string, isAdmin bool) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && order.UserID != requesterID {
		return nil, apperrors.ErrForbidden
	}
	return order, nil
}

// ListOrders returns a page of the user's orders, newest first.
func (s *OrderService) ListOrders(userID string, page, limit int) ([]models.Order, int64, error) {
	return s.orderRepo.ListByUser(userID, page, limit)
}

// ListAllOrders returns a page over every order. Admin only.
func (s *OrderService) ListAllOrders(page, limit int) ([]models.Order, int64, error) {
	return s.orderRepo.List(page, limit)
}

// UpdateOrderStatus moves an order to a new status. Becoming shipped
// or delivered stamps the matching date.
func (s *OrderService) UpdateOrderStatus(orderID, status string) (*models.Order, error) {
	if !models.ValidOrderStatuses[status] {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidStatus, status)
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	order.Status = status
	now := time.Now()
	switch status {
	case models.OrderStatusShipped:
		order.ShippedDate = &now
	case models.OrderStatusDelivered:
		order.DeliveredDate = &now
	}

	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}

	s.publish("order.status_changed", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"status":       order.Status,
	})
	return order, nil
}

// UpdatePaymentStatus sets the payment status field.
func (s *OrderService) UpdatePaymentStatus(orderID, paymentStatus string) (*models.Order, error) {
	if !models.ValidPaymentStatuses[paymentStatus] {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidStatus, paymentStatus)
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	order.PaymentStatus = paymentStatus
	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}
	return order, nil
}

// Analytics aggregates order count, revenue, and per-status counts
// over all orders. Cancelled orders are excluded from revenue.
func (s *OrderService) Analytics() (*models.OrderAnalytics, error) {
	orders, err := s.orderRepo.ListSince(time.Time{})
	if err != nil {
		return nil, err
	}

	analytics := &models.OrderAnalytics{
		StatusCounts: make(map[string]int64),
	}
	for i := range orders {
		analytics.TotalOrders++
		analytics.StatusCounts[orders[i].Status]++
		if orders[i].Status != models.OrderStatusCancelled {
			analytics.TotalRevenue += orders[i].TotalAmount
		}
	}
	analytics.TotalRevenue = models.RoundToCents(analytics.TotalRevenue)
	return analytics, nil
}

// Trends returns one entry per day for the last `days` days, oldest
// first, with order counts and revenue.
func (s *OrderService) Trends(days int) ([]models.OrderTrend, error) {
	if days <= 0 {
		days = 7
	}

	now := time.Now()
	start := startOfDay(now).AddDate(0, 0, -(days - 1))
	orders, err := s.orderRepo.ListSince(start)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]*models.OrderTrend, days)
	trends := make([]models.OrderTrend, 0, days)
	for d := 0; d < days; d++ {
		date := start.AddDate(0, 0, d).Format("2006-01-02")
		trends = append(trends, models.OrderTrend{Date: date})
		buckets[date] = &trends[len(trends)-1]
	}

	for i := range orders {
		date := orders[i].CreatedAt.Format("2006-01-02")
		if bucket, ok := buckets[date]; ok {
			bucket.Orders++
			bucket.Revenue = models.RoundToCents(bucket.Revenue + orders[i].TotalAmount)
		}
	}
	return trends, nil
}

// generateOrderNumber builds a date-prefixed number with a daily
// sequence, e.g. SK-20260830-0007.
func (s *OrderService) generateOrderNumber(now time.Time) (string, error) {
	count, err := s.orderRepo.CountSince(startOfDay(now))
	if err != nil {
		return "", fmt.Errorf("failed to generate order number: %w", err)
	}
	return fmt.Sprintf("SK-%s-%04d", now.Format("20060102"), count+1), nil
}

func (s *OrderService) compensate(movements []stockMovement) {
	for _, m := range movements {
		if err := s.productRepo.IncrementVariantStock(m.productID, m.sku, m.quantity); err != nil {
			log.Printf("failed to return stock for %s/%s: %v", m.productID, m.sku, err)
		}
	}
}

func (s *OrderService) publish(routingKey string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", routingKey, err)
		return
	}
	if err := s.events.Publish(routingKey, body); err != nil {
		log.Printf("failed to publish %s event: %v", routingKey, err)
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
