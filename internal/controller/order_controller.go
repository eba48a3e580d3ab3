package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sourcing-marketplace-service/internal/dto"
	"sourcing-marketplace-service/internal/service"
)

type OrderController struct {
	Service *service.OrderService
}

func NewOrderController(s *service.OrderService) *OrderController {
	return &OrderController{Service: s}
}

// POST /orders
func (ctl *OrderController) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := ctl.Service.CreateOrder(c.Request.Context(), mustIdentity(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GET /orders — lista enriquecida (admin: todas, cliente: las propias)
func (ctl *OrderController) List(c *gin.Context) {
	orders, err := ctl.Service.ListEnriched(c.Request.Context(), mustIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GET /orders/:orderId
func (ctl *OrderController) Get(c *gin.Context) {
	order, err := ctl.Service.GetEnriched(c.Request.Context(), mustIdentity(c), c.Param("orderId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// DELETE /orders/:orderId — solo pre-cotización
func (ctl *OrderController) Delete(c *gin.Context) {
	if err := ctl.Service.DeleteOrder(c.Request.Context(), mustIdentity(c), c.Param("orderId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order deleted"})
}

// POST /orders/:orderId/cancel
func (ctl *OrderController) Cancel(c *gin.Context) {
	if err := ctl.Service.CancelOrder(c.Request.Context(), mustIdentity(c), c.Param("orderId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order cancelled"})
}

// POST /orders/:orderId/payment
func (ctl *OrderController) Pay(c *gin.Context) {
	var req dto.MakePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := ctl.Service.MakePayment(c.Request.Context(), mustIdentity(c), c.Param("orderId"), req.PaymentMethodID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "payment confirmed"})
}

// POST /orders/:orderId/cash-payment
func (ctl *OrderController) ArrangeCash(c *gin.Context) {
	if err := ctl.Service.ArrangeCashPayment(c.Request.Context(), mustIdentity(c), c.Param("orderId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cash payment requested"})
}

// POST /admin/orders/:orderId/quote
func (ctl *OrderController) Quote(c *gin.Context) {
	var req dto.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := ctl.Service.CreateQuote(c.Request.Context(), mustIdentity(c), c.Param("orderId"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// POST /admin/orders/:orderId/confirm-cash
func (ctl *OrderController) ConfirmCash(c *gin.Context) {
	if err := ctl.Service.ConfirmCashPayment(c.Request.Context(), mustIdentity(c), c.Param("orderId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cash payment confirmed"})
}

// POST /admin/orders/:orderId/ship
func (ctl *OrderController) Ship(c *gin.Context) {
	if err := ctl.Service.AdvanceShipment(c.Request.Context(), mustIdentity(c), c.Param("orderId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order shipped"})
}

// POST /admin/orders/:orderId/deliver
func (ctl *OrderController) Deliver(c *gin.Context) {
	if err := ctl.Service.MarkDelivered(c.Request.Context(), mustIdentity(c), c.Param("orderId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order delivered"})
}

// GET /admin/customers
func (ctl *OrderController) Customers(c *gin.Context) {
	customers, err := ctl.Service.Customers(c.Request.Context(), mustIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}
