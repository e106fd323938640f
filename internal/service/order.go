package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"example.com/storefront/internal/model"
)

type OrderItemInput struct {
	ProductID     uint
	Quantity      int
	DiscountCents int64
}

type CreateOrderInput struct {
	Items           []OrderItemInput
	ShippingAddress model.ShippingAddress
	PaymentMethod   model.PaymentMethod
	ShippingCents   int64
	TaxCents        int64
	DiscountCents   int64
	Notes           string
}

type OrderFilters struct {
	Status        model.OrderStatus
	PaymentStatus model.PaymentStatus
	StartDate     *time.Time
	EndDate       *time.Time
	Page          int
	Limit         int
}

type OrderStatistics struct {
	TotalOrders            int                         `json:"total_orders"`
	TotalRevenueCents      int64                       `json:"total_revenue_cents"`
	AverageOrderValueCents int64                       `json:"average_order_value_cents"`
	OrdersByStatus         map[model.OrderStatus]int   `json:"orders_by_status"`
	OrdersByPaymentStatus  map[model.PaymentStatus]int `json:"orders_by_payment_status"`
}

type OrderService interface {
	Create(userID uint, in CreateOrderInput) (*model.Order, error)
	CheckoutCart(userID uint, in CreateOrderInput) (*model.Order, error)
	OrderByID(id uint) (*model.Order, error)
	UserOrders(userID uint, page, limit int) ([]model.Order, Pagination, error)
	AllOrders(f OrderFilters) ([]model.Order, Pagination, error)
	UpdateStatus(orderID uint, status model.OrderStatus) (*model.Order, error)
	UpdatePaymentStatus(orderID uint, status model.PaymentStatus) (*model.Order, error)
	CancelOrder(orderID uint, reason string) (*model.Order, error)
	Statistics(startDate, endDate *time.Time) (*OrderStatistics, error)
}

type orderService struct {
	db    *gorm.DB
	email EmailService
	log   *logrus.Logger
}

func NewOrderService(db *gorm.DB, email EmailService, log *logrus.Logger) OrderService {
	return &orderService{db: db, email: email, log: log}
}

// Create runs the whole validate-decrement-persist sequence in one
// transaction: either every stock decrement and the order row commit, or
// none do. A failed check on a later item must not leave earlier items
// consumed.
func (s *orderService) Create(userID uint, in CreateOrderInput) (*model.Order, error) {
	if len(in.Items) == 0 {
		return nil, Errorf(KindValidation, "order must contain at least one item")
	}
	if !in.PaymentMethod.Valid() {
		return nil, Errorf(KindValidation, "unknown payment method %q", in.PaymentMethod)
	}
	if in.ShippingCents < 0 || in.TaxCents < 0 || in.DiscountCents < 0 {
		return nil, Errorf(KindValidation, "charges cannot be negative")
	}

	var order model.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var subtotal int64
		items := make([]model.OrderItem, 0, len(in.Items))
		for _, it := range in.Items {
			if it.Quantity < 1 {
				return Errorf(KindValidation, "quantity must be at least 1")
			}
			var p model.Product
			if err := tx.First(&p, it.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return Errorf(KindNotFound, "product %d not found", it.ProductID)
				}
				return pkgerrors.Wrap(err, "load product")
			}
			if err := decrementStock(tx, p.ID, it.Quantity); err != nil {
				return err
			}
			subtotal += p.PriceCents * int64(it.Quantity)
			items = append(items, model.OrderItem{
				ProductID:     p.ID,
				Name:          p.Name,
				PriceCents:    p.PriceCents,
				Quantity:      it.Quantity,
				DiscountCents: it.DiscountCents,
			})
		}

		order = model.Order{
			OrderNumber:     newOrderNumber(),
			UserID:          userID,
			Items:           items,
			ShippingAddress: in.ShippingAddress,
			SubtotalCents:   subtotal,
			ShippingCents:   in.ShippingCents,
			TaxCents:        in.TaxCents,
			DiscountCents:   in.DiscountCents,
			TotalCents:      subtotal + in.ShippingCents + in.TaxCents - in.DiscountCents,
			Status:          model.OrderPending,
			PaymentStatus:   model.PaymentPending,
			PaymentMethod:   in.PaymentMethod,
			Notes:           in.Notes,
		}
		if err := tx.Create(&order).Error; err != nil {
			return pkgerrors.Wrap(err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(userID, "Order confirmation",
		fmt.Sprintf("Thanks! Your order %s total %s was received.", order.OrderNumber, formatCents(order.TotalCents)))
	return &order, nil
}

// CheckoutCart places an order from the user's cart and clears the cart
// once the order committed.
func (s *orderService) CheckoutCart(userID uint, in CreateOrderInput) (*model.Order, error) {
	var cart model.Cart
	err := s.db.Preload("Items").Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && len(cart.Items) == 0) {
		return nil, Errorf(KindValidation, "cart is empty")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "load cart")
	}

	in.Items = in.Items[:0]
	for _, it := range cart.Items {
		in.Items = append(in.Items, OrderItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	order, err := s.Create(userID, in)
	if err != nil {
		return nil, err
	}

	if err := s.db.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("clear cart after checkout")
	} else if err := s.db.Model(&cart).Updates(map[string]any{"total_items": 0, "total_cents": 0}).Error; err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("zero cart totals after checkout")
	}
	return order, nil
}

func (s *orderService) OrderByID(id uint) (*model.Order, error) {
	var order model.Order
	if err := s.db.Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Errorf(KindNotFound, "order %d not found", id)
		}
		return nil, pkgerrors.Wrap(err, "load order")
	}
	return &order, nil
}

func (s *orderService) UserOrders(userID uint, page, limit int) ([]model.Order, Pagination, error) {
	page, limit = normalizePage(page, limit)
	q := s.db.Model(&model.Order{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, Pagination{}, pkgerrors.Wrap(err, "count orders")
	}
	var orders []model.Order
	err := q.Preload("Items").Order("created_at desc").
		Offset((page - 1) * limit).Limit(limit).Find(&orders).Error
	if err != nil {
		return nil, Pagination{}, pkgerrors.Wrap(err, "list orders")
	}
	return orders, newPagination(page, limit, total), nil
}

func (s *orderService) AllOrders(f OrderFilters) ([]model.Order, Pagination, error) {
	page, limit := normalizePage(f.Page, f.Limit)

	q := s.db.Model(&model.Order{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	if f.StartDate != nil {
		q = q.Where("created_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("created_at <= ?", *f.EndDate)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, Pagination{}, pkgerrors.Wrap(err, "count orders")
	}
	var orders []model.Order
	err := q.Preload("Items").Order("created_at desc").
		Offset((page - 1) * limit).Limit(limit).Find(&orders).Error
	if err != nil {
		return nil, Pagination{}, pkgerrors.Wrap(err, "list orders")
	}
	return orders, newPagination(page, limit, total), nil
}

// UpdateStatus enforces the linear progression. Moving to cancelled goes
// through the cancellation path so stock comes back.
func (s *orderService) UpdateStatus(orderID uint, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, Errorf(KindInvalidState, "invalid order status: %s", status)
	}
	if status == model.OrderCancelled {
		return s.CancelOrder(orderID, "")
	}

	order, err := s.OrderByID(orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransition(status) {
		return nil, Errorf(KindInvalidState, "cannot move order from %s to %s", order.Status, status)
	}

	now := time.Now().UTC()
	updates := map[string]any{"status": status}
	switch status {
	case model.OrderShipped:
		eta := now.Add(7 * 24 * time.Hour)
		updates["shipped_date"] = now
		updates["estimated_delivery"] = eta
	case model.OrderDelivered:
		updates["delivered_date"] = now
	}
	if err := s.db.Model(order).Updates(updates).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "update order status")
	}

	if status == model.OrderShipped {
		s.notify(order.UserID, "Your order has shipped",
			fmt.Sprintf("Order %s is on its way. Estimated delivery in 7 days.", order.OrderNumber))
	}
	return s.OrderByID(orderID)
}

// UpdatePaymentStatus is independent of the order status machine.
func (s *orderService) UpdatePaymentStatus(orderID uint, status model.PaymentStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, Errorf(KindInvalidState, "invalid payment status: %s", status)
	}
	order, err := s.OrderByID(orderID)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(order).Update("payment_status", status).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "update payment status")
	}
	return s.OrderByID(orderID)
}

// CancelOrder restores inventory for every line in the same transaction
// that flips the status.
func (s *orderService) CancelOrder(orderID uint, reason string) (*model.Order, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var order model.Order
		if err := tx.Preload("Items").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return Errorf(KindNotFound, "order %d not found", orderID)
			}
			return pkgerrors.Wrap(err, "load order")
		}
		if order.Status == model.OrderDelivered || order.Status == model.OrderCancelled {
			return Errorf(KindInvalidState, "cannot cancel a %s order", order.Status)
		}

		for _, it := range order.Items {
			if err := incrementStock(tx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		return tx.Model(&order).Updates(map[string]any{
			"status":              model.OrderCancelled,
			"cancellation_reason": reason,
			"cancelled_date":      now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.OrderByID(orderID)
}

func (s *orderService) Statistics(startDate, endDate *time.Time) (*OrderStatistics, error) {
	q := s.db.Model(&model.Order{})
	if startDate != nil {
		q = q.Where("created_at >= ?", *startDate)
	}
	if endDate != nil {
		q = q.Where("created_at <= ?", *endDate)
	}
	var orders []model.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "load orders")
	}

	stats := &OrderStatistics{
		TotalOrders:           len(orders),
		OrdersByStatus:        map[model.OrderStatus]int{},
		OrdersByPaymentStatus: map[model.PaymentStatus]int{},
	}
	for _, o := range orders {
		stats.TotalRevenueCents += o.TotalCents
		stats.OrdersByStatus[o.Status]++
		stats.OrdersByPaymentStatus[o.PaymentStatus]++
	}
	if len(orders) > 0 {
		stats.AverageOrderValueCents = stats.TotalRevenueCents / int64(len(orders))
	}
	return stats, nil
}

// notify sends fire-and-forget mail; a failed notification never rolls an
// order back.
func (s *orderService) notify(userID uint, subject, body string) {
	var u model.User
	if err := s.db.First(&u, userID).Error; err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("load user for notification")
		return
	}
	if err := s.email.Send(u.Email, subject, body); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"user_id": userID, "subject": subject}).
			Warn("send notification")
	}
}

// Order numbers are human readable: the tail of the creation timestamp
// plus random hex. Collisions are possible but vanishingly unlikely.
func newOrderNumber() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if len(ts) > 6 {
		ts = ts[len(ts)-6:]
	}
	return fmt.Sprintf("ORD-%s-%s", ts, uuid.NewString()[:6])
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
