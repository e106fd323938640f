package model

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// CanTransition enforces the linear progression; cancellation is handled
// separately so it can restock.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	switch s {
	case OrderPending:
		return to == OrderConfirmed || to == OrderCancelled
	case OrderConfirmed:
		return to == OrderShipped || to == OrderCancelled
	case OrderShipped:
		return to == OrderDelivered || to == OrderCancelled
	default:
		return false
	}
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentDebitCard  PaymentMethod = "debit_card"
	PaymentNetBanking PaymentMethod = "net_banking"
	PaymentWallet     PaymentMethod = "wallet"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCreditCard, PaymentDebitCard, PaymentNetBanking, PaymentWallet:
		return true
	}
	return false
}

// ShippingAddress is a point-in-time copy, embedded so later edits to the
// user's address book never alter order history.
type ShippingAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

type Order struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	OrderNumber        string          `gorm:"uniqueIndex;not null" json:"order_number"`
	UserID             uint            `gorm:"index;not null" json:"user_id"`
	Items              []OrderItem     `json:"items"`
	ShippingAddress    ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`
	SubtotalCents      int64           `gorm:"not null" json:"subtotal_cents"`
	ShippingCents      int64           `gorm:"not null;default:0" json:"shipping_cents"`
	TaxCents           int64           `gorm:"not null;default:0" json:"tax_cents"`
	DiscountCents      int64           `gorm:"not null;default:0" json:"discount_cents"`
	TotalCents         int64           `gorm:"not null" json:"total_cents"`
	Status             OrderStatus     `gorm:"not null;default:pending" json:"status"`
	PaymentStatus      PaymentStatus   `gorm:"not null;default:pending" json:"payment_status"`
	PaymentMethod      PaymentMethod   `gorm:"not null" json:"payment_method"`
	TrackingNumber     string          `json:"tracking_number,omitempty"`
	EstimatedDelivery  *time.Time      `json:"estimated_delivery,omitempty"`
	ShippedDate        *time.Time      `json:"shipped_date,omitempty"`
	DeliveredDate      *time.Time      `json:"delivered_date,omitempty"`
	CancelledDate      *time.Time      `json:"cancelled_date,omitempty"`
	CancellationReason string          `json:"cancellation_reason,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// OrderItem snapshots name, price and discount at purchase time; it never
// tracks later product edits.
type OrderItem struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	OrderID       uint   `gorm:"index;not null" json:"order_id"`
	ProductID     uint   `gorm:"not null" json:"product_id"`
	Name          string `gorm:"not null" json:"name"`
	PriceCents    int64  `gorm:"not null" json:"price_cents"`
	Quantity      int    `gorm:"not null" json:"quantity"`
	DiscountCents int64  `gorm:"not null;default:0" json:"discount_cents"`
}
