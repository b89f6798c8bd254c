package models

import (
	"time"

	"gorm.io/gorm"
)

// CartTTL is the sliding expiration window of a cart. Every read or
// mutation pushes the expiry forward by this much.
const CartTTL = 7 * 24 * time.Hour

// CartItem is one line in a cart: a product variation plus quantity,
// with the size/color and unit price snapshotted at add time.
type CartItem struct {
	ID        string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CartID    string  `json:"cart_id" gorm:"index;type:varchar(36)"`
	ProductID string  `json:"product_id" gorm:"type:varchar(36)" validate:"required"`
	SKU       string  `json:"sku" gorm:"type:varchar(64)" validate:"required"`
	Size      string  `json:"size"`
	Color     string  `json:"color"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
}

// Cart is the single shopping cart a user owns. It is created lazily
// on first access and cleared after checkout.
type Cart struct {
	ID         string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string     `json:"user_id" gorm:"uniqueIndex;type:varchar(36)"`
	Items      []CartItem `json:"items"`
	Subtotal   float64    `json:"subtotal"`
	ExpiresAt  time.Time  `json:"expires_at"`
	gorm.Model // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// RecalculateSubtotal re-derives the cart subtotal from its lines.
// Called explicitly by the cart service before every save.
func (c *Cart) RecalculateSubtotal() {
	var subtotal float64
	for i := range c.Items {
		subtotal += c.Items[i].Price * float64(c.Items[i].Quantity)
	}
	c.Subtotal = RoundToCents(subtotal)
}

// Item returns the line matching product and SKU, if present.
func (c *Cart) Item(productID, sku string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID && c.Items[i].SKU == sku {
			return &c.Items[i]
		}
	}
	return nil
}

// Touch extends the sliding expiration window from now.
func (c *Cart) Touch(now time.Time) {
	c.ExpiresAt = now.Add(CartTTL)
}

// IsExpired reports whether the cart has outlived its window.
func (c *Cart) IsExpired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}
