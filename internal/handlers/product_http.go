package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"example.com/storefront/internal/model"
	"example.com/storefront/internal/service"
)

type ProductHTTP struct {
	catalog service.CatalogService
	log     *logrus.Logger
}

func NewProductHTTP(catalog service.CatalogService, log *logrus.Logger) *ProductHTTP {
	return &ProductHTTP{catalog: catalog, log: log}
}

func (h *ProductHTTP) List(c *gin.Context) {
	page, limit := pageParams(c)
	filters := service.ProductFilters{
		Category: model.Category(c.Query("category")),
		Search:   c.Query("search"),
		SortBy:   c.Query("sort_by"),
		Page:     page,
		Limit:    limit,
	}
	if v := c.Query("min_price_cents"); v != "" {
		if cents, err := strconv.ParseInt(v, 10, 64); err == nil {
			filters.MinPriceCents = &cents
		}
	}
	if v := c.Query("max_price_cents"); v != "" {
		if cents, err := strconv.ParseInt(v, 10, 64); err == nil {
			filters.MaxPriceCents = &cents
		}
	}

	products, pagination, err := h.catalog.Products(filters)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"products": products, "pagination": pagination})
}

func (h *ProductHTTP) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	product, err := h.catalog.ProductByID(id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"product": product})
}

func (h *ProductHTTP) GetBySlug(c *gin.Context) {
	product, err := h.catalog.ProductBySlug(c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"product": product})
}

type createProductReq struct {
	Name               string   `json:"name" binding:"required"`
	Description        string   `json:"description" binding:"required"`
	Category           string   `json:"category" binding:"required"`
	PriceCents         int64    `json:"price_cents" binding:"min=0"`
	DiscountPriceCents int64    `json:"discount_price_cents" binding:"min=0"`
	Stock              int      `json:"stock" binding:"min=0"`
	SKU                string   `json:"sku" binding:"required"`
	Images             []string `json:"images"`
}

func (h *ProductHTTP) Create(c *gin.Context) {
	var req createProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name, description, category and sku are required")
		return
	}
	product, err := h.catalog.CreateProduct(service.CreateProductInput{
		Name:               req.Name,
		Description:        req.Description,
		Category:           model.Category(req.Category),
		PriceCents:         req.PriceCents,
		DiscountPriceCents: req.DiscountPriceCents,
		Stock:              req.Stock,
		SKU:                req.SKU,
		Images:             req.Images,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"product": product})
}

type updateProductReq struct {
	Name               *string  `json:"name"`
	Description        *string  `json:"description"`
	Category           *string  `json:"category"`
	PriceCents         *int64   `json:"price_cents"`
	DiscountPriceCents *int64   `json:"discount_price_cents"`
	Images             []string `json:"images"`
}

func (h *ProductHTTP) Update(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req updateProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	in := service.UpdateProductInput{
		Name:               req.Name,
		Description:        req.Description,
		PriceCents:         req.PriceCents,
		DiscountPriceCents: req.DiscountPriceCents,
		Images:             req.Images,
	}
	if req.Category != nil {
		cat := model.Category(*req.Category)
		in.Category = &cat
	}
	product, err := h.catalog.UpdateProduct(id, in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"product": product})
}

func (h *ProductHTTP) Delete(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	product, err := h.catalog.DeleteProduct(id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "product deactivated", "product": product})
}

type reviewReq struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

func (h *ProductHTTP) AddReview(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req reviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "rating between 1 and 5 is required")
		return
	}
	caller, _ := callerIdentity(c)
	product, err := h.catalog.AddReview(id, caller.UserID, req.Rating, req.Comment)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"product": product})
}

func (h *ProductHTTP) LowStock(c *gin.Context) {
	threshold, _ := strconv.Atoi(c.DefaultQuery("threshold", "10"))
	products, err := h.catalog.LowStockProducts(threshold)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"products": products})
}
