package service

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"example.com/storefront/internal/model"
)

type CartService interface {
	GetCart(userID uint) (*model.Cart, error)
	AddItem(userID, productID uint, quantity int) (*model.Cart, error)
	UpdateQuantity(userID, productID uint, quantity int) (*model.Cart, error)
	RemoveItem(userID, productID uint) (*model.Cart, error)
	Clear(userID uint) (*model.Cart, error)
}

type cartService struct{ db *gorm.DB }

func NewCartService(db *gorm.DB) CartService { return &cartService{db: db} }

// GetCart is idempotent: the first access creates an empty cart, every
// later call returns the same row.
func (s *cartService) GetCart(userID uint) (*model.Cart, error) {
	var cart model.Cart
	err := s.db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.id asc") }).
		Preload("Items.Product").
		Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = model.Cart{UserID: userID}
		if err := s.db.Create(&cart).Error; err != nil {
			return nil, pkgerrors.Wrap(err, "create cart")
		}
		return &cart, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "load cart")
	}
	return &cart, nil
}

func (s *cartService) AddItem(userID, productID uint, quantity int) (*model.Cart, error) {
	if quantity < 1 {
		return nil, Errorf(KindValidation, "quantity must be at least 1")
	}
	product, err := s.loadProduct(productID)
	if err != nil {
		return nil, err
	}
	if product.Stock < quantity {
		return nil, Errorf(KindInsufficientStock, "insufficient stock for %s", product.Name)
	}

	cart, err := s.GetCart(userID)
	if err != nil {
		return nil, err
	}

	var line model.CartItem
	err = s.db.Where("cart_id = ? AND product_id = ?", cart.ID, productID).First(&line).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		line = model.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity}
		if err := s.db.Create(&line).Error; err != nil {
			return nil, pkgerrors.Wrap(err, "add cart line")
		}
	case err != nil:
		return nil, pkgerrors.Wrap(err, "load cart line")
	default:
		// Same product twice merges into one line.
		line.Quantity += quantity
		if err := s.db.Save(&line).Error; err != nil {
			return nil, pkgerrors.Wrap(err, "merge cart line")
		}
	}
	return s.recalculate(cart.ID, userID)
}

func (s *cartService) UpdateQuantity(userID, productID uint, quantity int) (*model.Cart, error) {
	cart, err := s.GetCart(userID)
	if err != nil {
		return nil, err
	}
	var line model.CartItem
	err = s.db.Where("cart_id = ? AND product_id = ?", cart.ID, productID).First(&line).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, Errorf(KindNotFound, "item not found in cart")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "load cart line")
	}

	if quantity <= 0 {
		if err := s.db.Delete(&line).Error; err != nil {
			return nil, pkgerrors.Wrap(err, "remove cart line")
		}
		return s.recalculate(cart.ID, userID)
	}

	product, err := s.loadProduct(productID)
	if err != nil {
		return nil, err
	}
	if product.Stock < quantity {
		return nil, Errorf(KindInsufficientStock, "insufficient stock for %s", product.Name)
	}
	line.Quantity = quantity
	if err := s.db.Save(&line).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "update cart line")
	}
	return s.recalculate(cart.ID, userID)
}

func (s *cartService) RemoveItem(userID, productID uint) (*model.Cart, error) {
	cart, err := s.GetCart(userID)
	if err != nil {
		return nil, err
	}
	err = s.db.Where("cart_id = ? AND product_id = ?", cart.ID, productID).
		Delete(&model.CartItem{}).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "remove cart line")
	}
	return s.recalculate(cart.ID, userID)
}

func (s *cartService) Clear(userID uint) (*model.Cart, error) {
	cart, err := s.GetCart(userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "clear cart")
	}
	err = s.db.Model(&model.Cart{}).Where("id = ?", cart.ID).
		Updates(map[string]any{"total_items": 0, "total_cents": 0}).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "zero cart totals")
	}
	return s.GetCart(userID)
}

func (s *cartService) loadProduct(productID uint) (*model.Product, error) {
	var p model.Product
	err := s.db.First(&p, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, Errorf(KindNotFound, "product %d not found", productID)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "load product")
	}
	return &p, nil
}

// recalculate walks every line and re-prices it against the current
// catalog, so totals track live prices until checkout freezes them.
func (s *cartService) recalculate(cartID, userID uint) (*model.Cart, error) {
	var items []model.CartItem
	if err := s.db.Preload("Product").Where("cart_id = ?", cartID).Find(&items).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "load cart lines")
	}
	var totalItems int
	var totalCents int64
	for _, it := range items {
		totalItems += it.Quantity
		totalCents += it.Product.PriceCents * int64(it.Quantity)
	}
	err := s.db.Model(&model.Cart{}).Where("id = ?", cartID).
		Updates(map[string]any{"total_items": totalItems, "total_cents": totalCents}).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "store cart totals")
	}
	return s.GetCart(userID)
}
