package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"example.com/storefront/internal/service"
)

type CartHTTP struct {
	carts service.CartService
	log   *logrus.Logger
}

func NewCartHTTP(carts service.CartService, log *logrus.Logger) *CartHTTP {
	return &CartHTTP{carts: carts, log: log}
}

func (h *CartHTTP) Get(c *gin.Context) {
	id, _ := callerIdentity(c)
	cart, err := h.carts.GetCart(id.UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"cart": cart})
}

func (h *CartHTTP) Summary(c *gin.Context) {
	id, _ := callerIdentity(c)
	cart, err := h.carts.GetCart(id.UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"total_items": cart.TotalItems,
		"total_cents": cart.TotalCents,
	})
}

type cartItemReq struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

func (h *CartHTTP) Add(c *gin.Context) {
	var req cartItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "product_id and quantity are required")
		return
	}
	id, _ := callerIdentity(c)
	cart, err := h.carts.AddItem(id.UserID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"cart": cart})
}

func (h *CartHTTP) UpdateQuantity(c *gin.Context) {
	var req struct {
		ProductID uint `json:"product_id" binding:"required"`
		Quantity  int  `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "product_id is required")
		return
	}
	id, _ := callerIdentity(c)
	cart, err := h.carts.UpdateQuantity(id.UserID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"cart": cart})
}

func (h *CartHTTP) Remove(c *gin.Context) {
	var req struct {
		ProductID uint `json:"product_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "product_id is required")
		return
	}
	id, _ := callerIdentity(c)
	cart, err := h.carts.RemoveItem(id.UserID, req.ProductID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"cart": cart})
}

func (h *CartHTTP) Clear(c *gin.Context) {
	id, _ := callerIdentity(c)
	cart, err := h.carts.Clear(id.UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"cart": cart})
}
