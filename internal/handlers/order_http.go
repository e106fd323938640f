package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"example.com/storefront/internal/model"
	"example.com/storefront/internal/service"
)

type OrderHTTP struct {
	orders service.OrderService
	log    *logrus.Logger
}

func NewOrderHTTP(orders service.OrderService, log *logrus.Logger) *OrderHTTP {
	return &OrderHTTP{orders: orders, log: log}
}

type orderItemReq struct {
	ProductID     uint  `json:"product_id" binding:"required"`
	Quantity      int   `json:"quantity" binding:"required,min=1"`
	DiscountCents int64 `json:"discount_cents" binding:"min=0"`
}

type createOrderReq struct {
	Items           []orderItemReq `json:"items"`
	FromCart        bool           `json:"from_cart"`
	ShippingAddress struct {
		Street  string `json:"street" binding:"required"`
		City    string `json:"city" binding:"required"`
		State   string `json:"state"`
		ZipCode string `json:"zip_code"`
		Country string `json:"country" binding:"required"`
	} `json:"shipping_address" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required"`
	ShippingCents int64  `json:"shipping_cents" binding:"min=0"`
	TaxCents      int64  `json:"tax_cents" binding:"min=0"`
	DiscountCents int64  `json:"discount_cents" binding:"min=0"`
	Notes         string `json:"notes"`
}

func (h *OrderHTTP) Create(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "shipping address and payment method are required")
		return
	}
	in := service.CreateOrderInput{
		ShippingAddress: model.ShippingAddress{
			Street:  req.ShippingAddress.Street,
			City:    req.ShippingAddress.City,
			State:   req.ShippingAddress.State,
			ZipCode: req.ShippingAddress.ZipCode,
			Country: req.ShippingAddress.Country,
		},
		PaymentMethod: model.PaymentMethod(req.PaymentMethod),
		ShippingCents: req.ShippingCents,
		TaxCents:      req.TaxCents,
		DiscountCents: req.DiscountCents,
		Notes:         req.Notes,
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, service.OrderItemInput{
			ProductID:     it.ProductID,
			Quantity:      it.Quantity,
			DiscountCents: it.DiscountCents,
		})
	}

	caller, _ := callerIdentity(c)
	var (
		order *model.Order
		err   error
	)
	if req.FromCart {
		order, err = h.orders.CheckoutCart(caller.UserID, in)
	} else {
		order, err = h.orders.Create(caller.UserID, in)
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"order": order})
}

func (h *OrderHTTP) MyOrders(c *gin.Context) {
	page, limit := pageParams(c)
	caller, _ := callerIdentity(c)
	orders, pagination, err := h.orders.UserOrders(caller.UserID, page, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"orders": orders, "pagination": pagination})
}

func (h *OrderHTTP) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.OrderByID(id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	caller, _ := callerIdentity(c)
	if caller.Role != model.RoleAdmin && order.UserID != caller.UserID {
		respondError(c, h.log, service.Errorf(service.KindForbidden, "not your order"))
		return
	}
	respond(c, http.StatusOK, gin.H{"order": order})
}

type cancelOrderReq struct {
	Reason string `json:"reason"`
}

func (h *OrderHTTP) Cancel(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.OrderByID(id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	caller, _ := callerIdentity(c)
	if caller.Role != model.RoleAdmin && order.UserID != caller.UserID {
		respondError(c, h.log, service.Errorf(service.KindForbidden, "not your order"))
		return
	}

	var req cancelOrderReq
	_ = c.ShouldBindJSON(&req)
	order, err = h.orders.CancelOrder(id, req.Reason)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"order": order})
}

func (h *OrderHTTP) All(c *gin.Context) {
	page, limit := pageParams(c)
	f := service.OrderFilters{
		Status:        model.OrderStatus(c.Query("status")),
		PaymentStatus: model.PaymentStatus(c.Query("payment_status")),
		Page:          page,
		Limit:         limit,
	}
	if v, ok := dateParam(c, "start_date"); ok {
		f.StartDate = v
	}
	if v, ok := dateParam(c, "end_date"); ok {
		f.EndDate = v
	}
	orders, pagination, err := h.orders.AllOrders(f)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"orders": orders, "pagination": pagination})
}

type updateStatusReq struct {
	Status string `json:"status" binding:"required"`
}

func (h *OrderHTTP) UpdateStatus(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}
	order, err := h.orders.UpdateStatus(id, model.OrderStatus(req.Status))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"order": order})
}

func (h *OrderHTTP) UpdatePaymentStatus(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}
	order, err := h.orders.UpdatePaymentStatus(id, model.PaymentStatus(req.Status))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"order": order})
}

func (h *OrderHTTP) Statistics(c *gin.Context) {
	var start, end *time.Time
	if v, ok := dateParam(c, "start_date"); ok {
		start = v
	}
	if v, ok := dateParam(c, "end_date"); ok {
		end = v
	}
	stats, err := h.orders.Statistics(start, end)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"statistics": stats})
}

func dateParam(c *gin.Context, name string) (*time.Time, bool) {
	v := c.Query(name)
	if v == "" {
		return nil, false
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, false
	}
	return &t, true
}
