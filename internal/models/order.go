package models

import (
	"time"

	"gorm.io/gorm"
)

// Order statuses.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

// Payment statuses.
const (
	PaymentStatusUnpaid            = "unpaid"
	PaymentStatusPaid              = "paid"
	PaymentStatusRefunded          = "refunded"
	PaymentStatusPartiallyRefunded = "partially_refunded"
)

// GuestUserID is the user id recorded on orders placed without an
// authenticated session.
const GuestUserID = "guest"

// ValidOrderStatuses is the set of statuses an order may be moved to.
var ValidOrderStatuses = map[string]bool{
	OrderStatusPending:    true,
	OrderStatusProcessing: true,
	OrderStatusShipped:    true,
	OrderStatusDelivered:  true,
	OrderStatusCancelled:  true,
	OrderStatusRefunded:   true,
}

// ValidPaymentStatuses is the set of accepted payment statuses.
var ValidPaymentStatuses = map[string]bool{
	PaymentStatusUnpaid:            true,
	PaymentStatusPaid:              true,
	PaymentStatusRefunded:          true,
	PaymentStatusPartiallyRefunded: true,
}

// OrderItem is a purchased line. Name, SKU, and price are captured at
// order time and deliberately decoupled from the live product, so
// later catalog edits never change what a past order says.
type OrderItem struct {
	ID          string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID     string  `json:"order_id" gorm:"index;type:varchar(36)"`
	ProductID   string  `json:"product_id" gorm:"type:varchar(36)"`
	ProductName string  `json:"product_name"`
	SKU         string  `json:"sku" gorm:"type:varchar(64)"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

// OrderAddress is a shipping or billing address frozen into an order.
type OrderAddress struct {
	Street  string `json:"street" validate:"required,max=200"`
	City    string `json:"city" validate:"required,max=100"`
	State   string `json:"state" validate:"omitempty,max=100"`
	ZipCode string `json:"zip_code" validate:"required,max=20"`
	Country string `json:"country" validate:"required,max=100"`
}

// Order represents a placed order.
type Order struct {
	ID              string       `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderNumber     string       `json:"order_number" gorm:"uniqueIndex;type:varchar(30)"`
	UserID          string       `json:"user_id" gorm:"index;type:varchar(36)"`
	Items           []OrderItem  `json:"items"`
	TotalAmount     float64      `json:"total_amount"`
	Status          string       `json:"status" gorm:"type:varchar(20);index"`
	PaymentStatus   string       `json:"payment_status" gorm:"type:varchar(20)"`
	PaymentMethod   string       `json:"payment_method" gorm:"type:varchar(30)"`
	ShippingMethod  string       `json:"shipping_method" gorm:"type:varchar(30)"`
	ShippingAddress OrderAddress `json:"shipping_address" gorm:"embedded;embeddedPrefix:shipping_"`
	BillingAddress  OrderAddress `json:"billing_address" gorm:"embedded;embeddedPrefix:billing_"`
	ShippedDate     *time.Time   `json:"shipped_date,omitempty"`
	DeliveredDate   *time.Time   `json:"delivered_date,omitempty"`
	gorm.Model      // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// OrderAnalytics is the admin aggregate over all orders.
type OrderAnalytics struct {
	TotalOrders  int64            `json:"total_orders"`
	TotalRevenue float64          `json:"total_revenue"`
	StatusCounts map[string]int64 `json:"status_counts"`
}

// OrderTrend is one day's order volume and revenue.
type OrderTrend struct {
	Date    string  `json:"date"`
	Orders  int64   `json:"orders"`
	Revenue float64 `json:"revenue"`
}
