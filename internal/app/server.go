package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"example.com/storefront/internal/handlers"
	"example.com/storefront/internal/model"
	"example.com/storefront/internal/service"
)

func NewServer(cfg Config, log *logrus.Logger) (*gin.Engine, func(), error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, nil, err
	}

	if err := db.AutoMigrate(
		&model.Product{},
		&model.Review{},
		&model.User{},
		&model.Address{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
	); err != nil {
		return nil, nil, err
	}

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	// Services are constructed once and passed explicitly; nothing reaches
	// for a shared singleton.
	email := service.NewEmailService(service.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		From: cfg.SMTPFrom,
	})
	auth := service.NewAuthService(cfg.JWTSecret, cfg.JWTTTL)
	accounts := service.NewAccountService(db)
	catalog := service.NewCatalogService(db)
	carts := service.NewCartService(db)
	orders := service.NewOrderService(db, email, log)
	analytics := service.NewAnalyticsService(db)

	authHTTP := handlers.NewAuthHTTP(accounts, auth, log)
	productHTTP := handlers.NewProductHTTP(catalog, log)
	cartHTTP := handlers.NewCartHTTP(carts, log)
	orderHTTP := handlers.NewOrderHTTP(orders, log)
	adminHTTP := handlers.NewAdminHTTP(analytics, log)

	authed := handlers.Authenticate(auth)
	adminOnly := handlers.RequireRole(model.RoleAdmin)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/register", authHTTP.Register)
		authGroup.POST("/login", authHTTP.Login)
		authGroup.POST("/logout", authed, authHTTP.Logout)
		authGroup.GET("/profile", authed, authHTTP.Profile)
		authGroup.PUT("/profile", authed, authHTTP.UpdateProfile)
		authGroup.PUT("/change-password", authed, authHTTP.ChangePassword)
		authGroup.POST("/addresses", authed, authHTTP.AddAddress)
		authGroup.PUT("/addresses/:addressId", authed, authHTTP.UpdateAddress)
		authGroup.DELETE("/addresses/:addressId", authed, authHTTP.DeleteAddress)
		authGroup.DELETE("/account", authed, authHTTP.DeactivateAccount)
		authGroup.GET("/customers", authed, adminOnly, authHTTP.Customers)
		authGroup.GET("/customers/:id", authed, adminOnly, authHTTP.CustomerByID)
	}

	products := r.Group("/api/products")
	{
		products.GET("", productHTTP.List)
		products.GET("/slug/:slug", productHTTP.GetBySlug)
		products.GET("/admin/low-stock", authed, adminOnly, productHTTP.LowStock)
		products.GET("/:id", productHTTP.Get)
		products.POST("/:id/reviews", authed, productHTTP.AddReview)
		products.POST("", authed, adminOnly, productHTTP.Create)
		products.PUT("/:id", authed, adminOnly, productHTTP.Update)
		products.DELETE("/:id", authed, adminOnly, productHTTP.Delete)
	}

	cart := r.Group("/api/cart", authed)
	{
		cart.GET("", cartHTTP.Get)
		cart.GET("/summary", cartHTTP.Summary)
		cart.POST("/add", cartHTTP.Add)
		cart.POST("/remove", cartHTTP.Remove)
		cart.PUT("/update-quantity", cartHTTP.UpdateQuantity)
		cart.DELETE("/clear", cartHTTP.Clear)
	}

	orderGroup := r.Group("/api/orders", authed)
	{
		orderGroup.POST("", orderHTTP.Create)
		orderGroup.GET("/my-orders", orderHTTP.MyOrders)
		orderGroup.GET("/admin/all", adminOnly, orderHTTP.All)
		orderGroup.GET("/admin/statistics", adminOnly, orderHTTP.Statistics)
		orderGroup.PUT("/admin/:id/status", adminOnly, orderHTTP.UpdateStatus)
		orderGroup.PUT("/admin/:id/payment-status", adminOnly, orderHTTP.UpdatePaymentStatus)
		orderGroup.GET("/:id", orderHTTP.Get)
		orderGroup.PUT("/:id/cancel", orderHTTP.Cancel)
	}

	admin := r.Group("/api/admin", authed, adminOnly)
	{
		admin.GET("/dashboard", adminHTTP.Dashboard)
		admin.GET("/analytics/sales", adminHTTP.Sales)
		admin.GET("/analytics/customers", adminHTTP.Customers)
		admin.GET("/inventory", adminHTTP.Inventory)
	}

	cleanup := func() {
		if s, err := db.DB(); err == nil {
			_ = s.Close()
		}
	}
	return r, cleanup, nil
}
