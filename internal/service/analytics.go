package service

import (
	"fmt"
	"sort"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"example.com/storefront/internal/model"
)

type DashboardStats struct {
	TotalCustomers  int64         `json:"total_customers"`
	TotalProducts   int64         `json:"total_products"`
	TotalOrders     int64         `json:"total_orders"`
	CompletedOrders int64         `json:"completed_orders"`
	RevenueCents    int64         `json:"revenue_cents"`
	RecentOrders    []model.Order `json:"recent_orders"`
	TopProducts     []TopProduct  `json:"top_products"`
}

type TopProduct struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	UnitsSold int    `json:"units_sold"`
}

type SalesBucket struct {
	Period            string `json:"period"`
	TotalCents        int64  `json:"total_cents"`
	OrderCount        int    `json:"order_count"`
	AverageOrderCents int64  `json:"average_order_cents"`
}

type CategorySales struct {
	Category   model.Category `json:"category"`
	TotalCents int64          `json:"total_cents"`
	Units      int            `json:"units"`
}

type SalesAnalytics struct {
	Buckets    []SalesBucket   `json:"buckets"`
	ByCategory []CategorySales `json:"by_category"`
}

type TopCustomer struct {
	UserID          uint   `json:"user_id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	TotalSpentCents int64  `json:"total_spent_cents"`
	OrderCount      int    `json:"order_count"`
}

type CustomerAnalytics struct {
	TotalCustomers int64         `json:"total_customers"`
	NewThisMonth   int64         `json:"new_this_month"`
	TopCustomers   []TopCustomer `json:"top_customers"`
}

type InventoryStatus struct {
	LowStock            []model.Product `json:"low_stock"`
	OutOfStock          []model.Product `json:"out_of_stock"`
	TotalInventoryCents int64           `json:"total_inventory_cents"`
}

// AnalyticsService is read-only: everything reflects store state at query
// time, nothing here holds invariants.
type AnalyticsService interface {
	Dashboard() (*DashboardStats, error)
	Sales(period string) (*SalesAnalytics, error)
	Customers() (*CustomerAnalytics, error)
	Inventory(lowStockThreshold int) (*InventoryStatus, error)
}

type analyticsService struct{ db *gorm.DB }

func NewAnalyticsService(db *gorm.DB) AnalyticsService { return &analyticsService{db: db} }

func (s *analyticsService) Dashboard() (*DashboardStats, error) {
	stats := &DashboardStats{}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.TotalCustomers, s.db.Model(&model.User{}).Where("role = ?", model.RoleCustomer)},
		{&stats.TotalProducts, s.db.Model(&model.Product{}).Where("active = ?", true)},
		{&stats.TotalOrders, s.db.Model(&model.Order{})},
		{&stats.CompletedOrders, s.db.Model(&model.Order{}).Where("status = ?", model.OrderDelivered)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, pkgerrors.Wrap(err, "dashboard counts")
		}
	}

	var revenue struct{ Total int64 }
	err := s.db.Model(&model.Order{}).Where("status = ?", model.OrderDelivered).
		Select("COALESCE(SUM(total_cents), 0) as total").Scan(&revenue).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "dashboard revenue")
	}
	stats.RevenueCents = revenue.Total

	err = s.db.Preload("Items").Order("created_at desc").Limit(10).Find(&stats.RecentOrders).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "recent orders")
	}

	err = s.db.Model(&model.OrderItem{}).
		Select("order_items.product_id as product_id, products.name as name, SUM(order_items.quantity) as units_sold").
		Joins("JOIN products ON products.id = order_items.product_id").
		Group("order_items.product_id, products.name").
		Order("units_sold desc").Limit(5).
		Scan(&stats.TopProducts).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "top products")
	}
	return stats, nil
}

// Sales buckets orders in Go rather than SQL date functions, which differ
// between the production and test databases.
func (s *analyticsService) Sales(period string) (*SalesAnalytics, error) {
	var orders []model.Order
	if err := s.db.Preload("Items").Find(&orders).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "load orders")
	}

	bucketKey := func(t time.Time) string {
		switch period {
		case "daily":
			return t.Format("2006-01-02")
		case "weekly":
			y, w := t.ISOWeek()
			return fmt.Sprintf("%d-W%02d", y, w)
		default: // monthly
			return t.Format("2006-01")
		}
	}

	buckets := map[string]*SalesBucket{}
	for _, o := range orders {
		key := bucketKey(o.CreatedAt)
		b, ok := buckets[key]
		if !ok {
			b = &SalesBucket{Period: key}
			buckets[key] = b
		}
		b.TotalCents += o.TotalCents
		b.OrderCount++
	}
	out := make([]SalesBucket, 0, len(buckets))
	for _, b := range buckets {
		b.AverageOrderCents = b.TotalCents / int64(b.OrderCount)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })

	var byCategory []CategorySales
	err := s.db.Model(&model.OrderItem{}).
		Select("products.category as category, SUM(order_items.price_cents * order_items.quantity) as total_cents, SUM(order_items.quantity) as units").
		Joins("JOIN products ON products.id = order_items.product_id").
		Group("products.category").
		Order("total_cents desc").
		Scan(&byCategory).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "category sales")
	}

	return &SalesAnalytics{Buckets: out, ByCategory: byCategory}, nil
}

func (s *analyticsService) Customers() (*CustomerAnalytics, error) {
	out := &CustomerAnalytics{}

	err := s.db.Model(&model.User{}).Where("role = ?", model.RoleCustomer).
		Count(&out.TotalCustomers).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "count customers")
	}

	now := time.Now().UTC()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	err = s.db.Model(&model.User{}).
		Where("role = ? AND created_at >= ?", model.RoleCustomer, startOfMonth).
		Count(&out.NewThisMonth).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "count new customers")
	}

	err = s.db.Model(&model.Order{}).
		Select("orders.user_id as user_id, users.first_name || ' ' || users.last_name as name, users.email as email, SUM(orders.total_cents) as total_spent_cents, COUNT(orders.id) as order_count").
		Joins("JOIN users ON users.id = orders.user_id").
		Group("orders.user_id, users.first_name, users.last_name, users.email").
		Order("total_spent_cents desc").Limit(10).
		Scan(&out.TopCustomers).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "top customers")
	}
	return out, nil
}

func (s *analyticsService) Inventory(lowStockThreshold int) (*InventoryStatus, error) {
	if lowStockThreshold <= 0 {
		lowStockThreshold = 10
	}
	out := &InventoryStatus{}

	err := s.db.Where("stock <= ? AND stock > 0 AND active = ?", lowStockThreshold, true).
		Order("stock asc").Find(&out.LowStock).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "low stock")
	}
	err = s.db.Where("stock = 0 AND active = ?", true).Find(&out.OutOfStock).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "out of stock")
	}

	var value struct{ Total int64 }
	err = s.db.Model(&model.Product{}).Where("active = ?", true).
		Select("COALESCE(SUM(price_cents * stock), 0) as total").Scan(&value).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "inventory value")
	}
	out.TotalInventoryCents = value.Total
	return out, nil
}
