package models

import (
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"
)

// Product categories carried by the catalog.
const (
	CategoryDecks       = "decks"
	CategoryTrucks      = "trucks"
	CategoryWheels      = "wheels"
	CategoryBearings    = "bearings"
	CategoryCompletes   = "completes"
	CategoryApparel     = "apparel"
	CategoryAccessories = "accessories"
)

// ProductVariation is a size/color combination of a product with its
// own SKU, stock, and price adjustment on top of the base price.
type ProductVariation struct {
	ID              string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID       string  `json:"product_id" gorm:"index;type:varchar(36)"`
	SKU             string  `json:"sku" gorm:"type:varchar(64)" validate:"required,max=64"`
	Size            string  `json:"size" validate:"omitempty,max=30"`
	Color           string  `json:"color" validate:"omitempty,max=30"`
	AdditionalPrice float64 `json:"additional_price"`
	StockQuantity   int     `json:"stock_quantity" validate:"gte=0"`
}

// Review is a customer review embedded under a product.
type Review struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID string    `json:"product_id" gorm:"index;type:varchar(36)"`
	UserID    string    `json:"user_id" gorm:"type:varchar(36)"`
	Rating    int       `json:"rating" validate:"required,gte=1,lte=5"`
	Comment   string    `json:"comment" validate:"omitempty,max=1000"`
	CreatedAt time.Time `json:"created_at"`
}

// Product represents a catalog entry.
type Product struct {
	ID            string             `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name          string             `json:"name" gorm:"index;type:varchar(150)" validate:"required,min=3,max=150"`
	Description   string             `json:"description" validate:"omitempty,max=2000"`
	Category      string             `json:"category" gorm:"type:varchar(20);index" validate:"required,oneof=decks trucks wheels bearings completes apparel accessories"`
	Brand         string             `json:"brand" gorm:"type:varchar(100);index" validate:"required,max=100"`
	BasePrice     float64            `json:"base_price" validate:"gte=0"`
	IsActive      bool               `json:"is_active" gorm:"default:true"`
	RatingAverage float64            `json:"rating_average"`
	RatingCount   int                `json:"rating_count"`
	Variations    []ProductVariation `json:"variations,omitempty"`
	Reviews       []Review           `json:"reviews,omitempty"`
	gorm.Model    // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// EffectivePrice is the price a variation sells at: base price plus
// the variation's adjustment, rounded to cents.
func EffectivePrice(basePrice, additionalPrice float64) float64 {
	return RoundToCents(basePrice + additionalPrice)
}

// RoundToCents rounds a monetary amount to two decimals.
func RoundToCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// Variation returns the variation with the given SKU, if present.
func (p *Product) Variation(sku string) *ProductVariation {
	for i := range p.Variations {
		if p.Variations[i].SKU == sku {
			return &p.Variations[i]
		}
	}
	return nil
}

// Validate enforces catalog invariants before persistence: variation
// SKUs must be unique within the product, and the effective price of
// every variation must not be negative.
func (p *Product) Validate() error {
	seen := make(map[string]bool, len(p.Variations))
	for i := range p.Variations {
		v := &p.Variations[i]
		if v.SKU == "" {
			return fmt.Errorf("variation %d is missing a SKU", i)
		}
		if seen[v.SKU] {
			return fmt.Errorf("duplicate variation SKU %q", v.SKU)
		}
		seen[v.SKU] = true

		if p.BasePrice+v.AdditionalPrice < 0 {
			return fmt.Errorf("total price for variation %q cannot be negative", v.SKU)
		}
	}
	return nil
}

// RecalculateRating recomputes the average rating from all reviews.
func (p *Product) RecalculateRating() {
	if len(p.Reviews) == 0 {
		p.RatingAverage = 0
		p.RatingCount = 0
		return
	}

	var sum int
	for i := range p.Reviews {
		sum += p.Reviews[i].Rating
	}
	p.RatingCount = len(p.Reviews)
	p.RatingAverage = math.Round(float64(sum)/float64(p.RatingCount)*10) / 10
}
