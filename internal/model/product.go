package model

import "time"

type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryClothing    Category = "Clothing"
	CategoryHomeGarden  Category = "Home & Garden"
	CategoryBooks       Category = "Books"
	CategorySports      Category = "Sports & Outdoors"
	CategoryHealth      Category = "Health & Personal Care"
	CategoryToys        Category = "Toys & Games"
)

var Categories = []Category{
	CategoryElectronics,
	CategoryClothing,
	CategoryHomeGarden,
	CategoryBooks,
	CategorySports,
	CategoryHealth,
	CategoryToys,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Product money fields are integer cents.
type Product struct {
	ID                 uint     `gorm:"primaryKey" json:"id"`
	Name               string   `gorm:"not null" json:"name"`
	Slug               string   `gorm:"uniqueIndex;not null" json:"slug"`
	Description        string   `json:"description"`
	Category           Category `gorm:"not null" json:"category"`
	PriceCents         int64    `gorm:"not null" json:"price_cents"`
	DiscountPriceCents int64    `json:"discount_price_cents"`
	Stock              int      `gorm:"not null;default:0" json:"stock"`
	SKU                string   `gorm:"uniqueIndex;not null" json:"sku"`
	Images             []string `gorm:"serializer:json" json:"images"`
	RatingAvg          float64  `json:"rating_avg"`
	RatingCount        int      `json:"rating_count"`
	Reviews            []Review `json:"reviews,omitempty"`
	Active             bool     `gorm:"not null;default:true" json:"active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"index;not null" json:"product_id"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}
