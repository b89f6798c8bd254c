package services

import (
	"errors"
	"fmt"
	"time"

	apperrors "skateshop/internal/errors"
	"skateshop/internal/models"
	"skateshop/internal/repositories"
)

// CartService handles business logic for the shopping cart.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// PriceChange reports a line whose price moved since it was added.
type PriceChange struct {
	ProductID string  `json:"product_id"`
	SKU       string  `json:"sku"`
	OldPrice  float64 `json:"old_price"`
	NewPrice  float64 `json:"new_price"`
}

// GetCart returns the user's cart, lazily creating one on first
// access. An expired cart comes back emptied, and every access slides
// the expiration window forward.
func (s *CartService) GetCart(userID string) (*models.Cart, error) {
	now := time.Now()

	cart, err := s.cartRepo.GetByUserID(userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		cart = &models.Cart{UserID: userID}
		cart.Touch(now)
		if err := s.cartRepo.Create(cart); err != nil {
			return nil, err
		}
		return cart, nil
	}
	if err != nil {
		return nil, err
	}

	if cart.IsExpired(now) {
		cart.Items = nil
		cart.Subtotal = 0
	}
	cart.Touch(now)
	if err := s.cartRepo.Save(cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// AddItem puts a product variation into the cart. A line with the
// same product and SKU is merged, and the merged quantity is checked
// against stock so the cart can never hold more than the variant has.
func (s *CartService) AddItem(userID, productID, sku string, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}

	product, variation, err := s.lookupVariant(productID, sku)
	if err != nil {
		return nil, err
	}
	price := models.EffectivePrice(product.BasePrice, variation.AdditionalPrice)

	cart, err := s.GetCart(userID)
	if err != nil {
		return nil, err
	}

	if line := cart.Item(productID, sku); line != nil {
		combined := line.Quantity + quantity
		if variation.StockQuantity < combined {
			return nil, apperrors.ErrInsufficientStock
		}
		line.Quantity = combined
		line.Price = price
	} else {
		if variation.StockQuantity < quantity {
			return nil, apperrors.ErrInsufficientStock
		}
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: productID,
			SKU:       sku,
			Size:      variation.Size,
			Color:     variation.Color,
			Price:     price,
			Quantity:  quantity,
		})
	}

	return s.persist(cart)
}

// UpdateItemQuantity sets a line's quantity. Zero or below removes
// the line; otherwise stock is revalidated and the price refreshed
// from the live catalog.
func (s *CartService) UpdateItemQuantity(userID, sku string, quantity int) (*models.Cart, error) {
	cart, err := s.GetCart(userID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range cart.Items {
		if cart.Items[i].SKU == sku {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperrors.ErrNotFound
	}

	if quantity <= 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		return s.persist(cart)
	}

	product, variation, err := s.lookupVariant(cart.Items[idx].ProductID, sku)
	if err != nil {
		return nil, err
	}
	if variation.StockQuantity < quantity {
		return nil, apperrors.ErrInsufficientStock
	}

	cart.Items[idx].Quantity = quantity
	cart.Items[idx].Price = models.EffectivePrice(product.BasePrice, variation.AdditionalPrice)
	return s.persist(cart)
}

// RemoveItem drops a line from the cart.
func (s *CartService) RemoveItem(userID, sku string) (*models.Cart, error) {
	cart, err := s.GetCart(userID)
	if err != nil {
		return nil, err
	}

	kept := cart.Items[:0]
	removed := false
	for _, item := range cart.Items {
		if item.SKU == sku {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	if !removed {
		return nil, apperrors.ErrNotFound
	}
	cart.Items = kept
	return s.persist(cart)
}

// ClearCart empties the cart. Called after checkout.
func (s *CartService) ClearCart(userID string) (*models.Cart, error) {
	cart, err := s.GetCart(userID)
	if err != nil {
		return nil, err
	}
	cart.Items = nil
	return s.persist(cart)
}

// RefreshPrices re-derives every line's price from the current
// catalog and reports the lines that drifted. This is the only place
// the cart reconciles against catalog changes.
func (s *CartService) RefreshPrices(userID string) (*models.Cart, []PriceChange, error) {
	cart, err := s.GetCart(userID)
	if err != nil {
		return nil, nil, err
	}

	var changes []PriceChange
	for i := range cart.Items {
		item := &cart.Items[i]
		product, variation, err := s.lookupVariant(item.ProductID, item.SKU)
		if err != nil {
			// The product or variant is gone; leave the line priced
			// as captured and let checkout surface the error.
			continue
		}
		newPrice := models.EffectivePrice(product.BasePrice, variation.AdditionalPrice)
		if newPrice != item.Price {
			changes = append(changes, PriceChange{
				ProductID: item.ProductID,
				SKU:       item.SKU,
				OldPrice:  item.Price,
				NewPrice:  newPrice,
			})
			item.Price = newPrice
		}
	}

	cart, err = s.persist(cart)
	if err != nil {
		return nil, nil, err
	}
	return cart, changes, nil
}

func (s *CartService) lookupVariant(productID, sku string) (*models.Product, *models.ProductVariation, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, nil, fmt.Errorf("product %s: %w", productID, err)
	}
	if !product.IsActive {
		return nil, nil, apperrors.ErrNotFound
	}
	variation := product.Variation(sku)
	if variation == nil {
		return nil, nil, apperrors.ErrVariantNotFound
	}
	return product, variation, nil
}

func (s *CartService) persist(cart *models.Cart) (*models.Cart, error) {
	cart.RecalculateSubtotal()
	cart.Touch(time.Now())
	if err := s.cartRepo.Save(cart); err != nil {
		return nil, err
	}
	return cart, nil
}
