package model

import "time"

// Cart is created lazily on first access, one per user. Totals are derived
// from live catalog prices and recomputed on every mutation.
type Cart struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	Items      []CartItem `json:"items"`
	TotalItems int        `gorm:"not null;default:0" json:"total_items"`
	TotalCents int64      `gorm:"not null;default:0" json:"total_cents"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// CartItem holds no price: the cart always re-prices against the catalog.
// At most one line per product; adds merge into the existing line.
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CartID    uint      `gorm:"index;not null" json:"cart_id"`
	ProductID uint      `gorm:"not null" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Product   Product   `json:"product"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
