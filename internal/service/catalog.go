package service

import (
	"errors"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"example.com/storefront/internal/model"
)

type CreateProductInput struct {
	Name               string
	Description        string
	Category           model.Category
	PriceCents         int64
	DiscountPriceCents int64
	Stock              int
	SKU                string
	Images             []string
}

type UpdateProductInput struct {
	Name               *string
	Description        *string
	Category           *model.Category
	PriceCents         *int64
	DiscountPriceCents *int64
	Images             []string
}

type ProductFilters struct {
	Category      model.Category
	MinPriceCents *int64
	MaxPriceCents *int64
	Search        string
	Page          int
	Limit         int
	SortBy        string
}

type CatalogService interface {
	CreateProduct(in CreateProductInput) (*model.Product, error)
	Products(f ProductFilters) ([]model.Product, Pagination, error)
	ProductByID(id uint) (*model.Product, error)
	ProductBySlug(slug string) (*model.Product, error)
	UpdateProduct(id uint, in UpdateProductInput) (*model.Product, error)
	DeleteProduct(id uint) (*model.Product, error)
	DecrementStock(productID uint, quantity int) error
	IncrementStock(productID uint, quantity int) error
	AddReview(productID, userID uint, rating int, comment string) (*model.Product, error)
	LowStockProducts(threshold int) ([]model.Product, error)
}

type catalogService struct{ db *gorm.DB }

func NewCatalogService(db *gorm.DB) CatalogService { return &catalogService{db: db} }

func (s *catalogService) CreateProduct(in CreateProductInput) (*model.Product, error) {
	if in.Name == "" || in.SKU == "" {
		return nil, Errorf(KindValidation, "name and sku are required")
	}
	if !in.Category.Valid() {
		return nil, Errorf(KindValidation, "unknown category %q", in.Category)
	}
	if in.PriceCents < 0 || in.DiscountPriceCents < 0 {
		return nil, Errorf(KindValidation, "price cannot be negative")
	}
	if in.Stock < 0 {
		return nil, Errorf(KindValidation, "stock cannot be negative")
	}

	var count int64
	if err := s.db.Model(&model.Product{}).Where("sku = ?", in.SKU).Count(&count).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "check sku")
	}
	if count > 0 {
		return nil, Errorf(KindDuplicate, "product with sku %s already exists", in.SKU)
	}

	p := model.Product{
		Name:               in.Name,
		Slug:               Slugify(in.Name),
		Description:        in.Description,
		Category:           in.Category,
		PriceCents:         in.PriceCents,
		DiscountPriceCents: in.DiscountPriceCents,
		Stock:              in.Stock,
		SKU:                in.SKU,
		Images:             in.Images,
		Active:             true,
	}
	if err := s.db.Create(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, Errorf(KindDuplicate, "product with slug %s already exists", p.Slug)
		}
		return nil, pkgerrors.Wrap(err, "create product")
	}
	return &p, nil
}

// sortable whitelists the fields listings may order by. Price is the only
// ascending sort; everything else is newest/highest first.
var sortable = map[string]string{
	"price":      "price_cents asc",
	"name":       "name desc",
	"created_at": "created_at desc",
	"rating":     "rating_avg desc",
	"stock":      "stock desc",
}

func (s *catalogService) Products(f ProductFilters) ([]model.Product, Pagination, error) {
	page, limit := normalizePage(f.Page, f.Limit)

	q := s.db.Model(&model.Product{}).Where("active = ?", true)
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.MinPriceCents != nil {
		q = q.Where("price_cents >= ?", *f.MinPriceCents)
	}
	if f.MaxPriceCents != nil {
		q = q.Where("price_cents <= ?", *f.MaxPriceCents)
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, Pagination{}, pkgerrors.Wrap(err, "count products")
	}

	order, ok := sortable[f.SortBy]
	if !ok {
		order = sortable["created_at"]
	}

	var products []model.Product
	if err := q.Order(order).Offset((page - 1) * limit).Limit(limit).Find(&products).Error; err != nil {
		return nil, Pagination{}, pkgerrors.Wrap(err, "list products")
	}
	return products, newPagination(page, limit, total), nil
}

// ProductByID resolves soft-deleted products too, so historical orders can
// still display them.
func (s *catalogService) ProductByID(id uint) (*model.Product, error) {
	var p model.Product
	if err := s.db.Preload("Reviews").First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Errorf(KindNotFound, "product %d not found", id)
		}
		return nil, pkgerrors.Wrap(err, "load product")
	}
	return &p, nil
}

func (s *catalogService) ProductBySlug(slug string) (*model.Product, error) {
	var p model.Product
	if err := s.db.Preload("Reviews").Where("slug = ?", slug).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Errorf(KindNotFound, "product %s not found", slug)
		}
		return nil, pkgerrors.Wrap(err, "load product")
	}
	return &p, nil
}

func (s *catalogService) UpdateProduct(id uint, in UpdateProductInput) (*model.Product, error) {
	p, err := s.ProductByID(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, Errorf(KindValidation, "name cannot be empty")
		}
		updates["name"] = *in.Name
		updates["slug"] = Slugify(*in.Name)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Category != nil {
		if !in.Category.Valid() {
			return nil, Errorf(KindValidation, "unknown category %q", *in.Category)
		}
		updates["category"] = *in.Category
	}
	if in.PriceCents != nil {
		if *in.PriceCents < 0 {
			return nil, Errorf(KindValidation, "price cannot be negative")
		}
		updates["price_cents"] = *in.PriceCents
	}
	if in.DiscountPriceCents != nil {
		if *in.DiscountPriceCents < 0 {
			return nil, Errorf(KindValidation, "discount price cannot be negative")
		}
		updates["discount_price_cents"] = *in.DiscountPriceCents
	}
	if in.Images != nil {
		p.Images = in.Images
		if err := s.db.Model(p).Update("images", p.Images).Error; err != nil {
			return nil, pkgerrors.Wrap(err, "update images")
		}
	}
	if len(updates) > 0 {
		if err := s.db.Model(p).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, Errorf(KindDuplicate, "product with this name already exists")
			}
			return nil, pkgerrors.Wrap(err, "update product")
		}
	}
	return s.ProductByID(id)
}

// DeleteProduct is a soft delete: the row stays so order history keeps
// resolving, it just disappears from listings.
func (s *catalogService) DeleteProduct(id uint) (*model.Product, error) {
	p, err := s.ProductByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(p).Update("active", false).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "deactivate product")
	}
	p.Active = false
	return p, nil
}

func (s *catalogService) DecrementStock(productID uint, quantity int) error {
	return decrementStock(s.db, productID, quantity)
}

func (s *catalogService) IncrementStock(productID uint, quantity int) error {
	return incrementStock(s.db, productID, quantity)
}

// decrementStock is the only way stock goes down: a single conditional
// UPDATE so two concurrent buyers of the last unit can never both pass.
func decrementStock(db *gorm.DB, productID uint, quantity int) error {
	if quantity <= 0 {
		return Errorf(KindValidation, "quantity must be positive")
	}
	res := db.Model(&model.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "decrement stock")
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := db.Model(&model.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
			return pkgerrors.Wrap(err, "check product")
		}
		if count == 0 {
			return Errorf(KindNotFound, "product %d not found", productID)
		}
		return Errorf(KindInsufficientStock, "insufficient stock for product %d", productID)
	}
	return nil
}

func incrementStock(db *gorm.DB, productID uint, quantity int) error {
	if quantity <= 0 {
		return Errorf(KindValidation, "quantity must be positive")
	}
	res := db.Model(&model.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "increment stock")
	}
	if res.RowsAffected == 0 {
		return Errorf(KindNotFound, "product %d not found", productID)
	}
	return nil
}

func (s *catalogService) AddReview(productID, userID uint, rating int, comment string) (*model.Product, error) {
	if rating < 1 || rating > 5 {
		return nil, Errorf(KindValidation, "rating must be between 1 and 5")
	}
	p, err := s.ProductByID(productID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		review := model.Review{ProductID: p.ID, UserID: userID, Rating: rating, Comment: comment}
		if err := tx.Create(&review).Error; err != nil {
			return pkgerrors.Wrap(err, "create review")
		}

		var reviews []model.Review
		if err := tx.Where("product_id = ?", p.ID).Find(&reviews).Error; err != nil {
			return pkgerrors.Wrap(err, "load reviews")
		}
		var sum int
		for _, r := range reviews {
			sum += r.Rating
		}
		avg := float64(sum) / float64(len(reviews))
		return tx.Model(&model.Product{}).Where("id = ?", p.ID).
			Updates(map[string]any{"rating_avg": avg, "rating_count": len(reviews)}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.ProductByID(productID)
}

func (s *catalogService) LowStockProducts(threshold int) ([]model.Product, error) {
	if threshold <= 0 {
		threshold = 10
	}
	var products []model.Product
	err := s.db.Where("stock <= ? AND active = ?", threshold, true).
		Order("stock asc").Find(&products).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list low stock")
	}
	return products, nil
}

// Slugify derives the URL identifier from a product name: lowercase,
// alphanumerics kept, runs of anything else collapsed to single dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
