package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"example.com/storefront/internal/service"
)

type AdminHTTP struct {
	analytics service.AnalyticsService
	log       *logrus.Logger
}

func NewAdminHTTP(analytics service.AnalyticsService, log *logrus.Logger) *AdminHTTP {
	return &AdminHTTP{analytics: analytics, log: log}
}

func (h *AdminHTTP) Dashboard(c *gin.Context) {
	stats, err := h.analytics.Dashboard()
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"statistics": stats})
}

func (h *AdminHTTP) Sales(c *gin.Context) {
	analytics, err := h.analytics.Sales(c.DefaultQuery("period", "monthly"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"analytics": analytics})
}

func (h *AdminHTTP) Customers(c *gin.Context) {
	analytics, err := h.analytics.Customers()
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"analytics": analytics})
}

func (h *AdminHTTP) Inventory(c *gin.Context) {
	threshold, _ := strconv.Atoi(c.DefaultQuery("threshold", "10"))
	status, err := h.analytics.Inventory(threshold)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"inventory": status})
}
