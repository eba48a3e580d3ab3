package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sourcing-marketplace-service/internal/dto"
	"sourcing-marketplace-service/internal/service"
)

type BillingController struct {
	Service *service.BillingService
}

func NewBillingController(s *service.BillingService) *BillingController {
	return &BillingController{Service: s}
}

// --- Métodos de pago (cliente) ---

// POST /payment-methods
func (ctl *BillingController) AddPaymentMethod(c *gin.Context) {
	var req dto.CreateMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pm, err := ctl.Service.AddPaymentMethod(c.Request.Context(), mustIdentity(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pm)
}

// GET /payment-methods
func (ctl *BillingController) ListPaymentMethods(c *gin.Context) {
	methods, err := ctl.Service.ListPaymentMethods(c.Request.Context(), mustIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, methods)
}

// PATCH /payment-methods/:id
func (ctl *BillingController) UpdatePaymentMethod(c *gin.Context) {
	var req dto.UpdateMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := ctl.Service.UpdatePaymentMethod(c.Request.Context(), mustIdentity(c), c.Param("id"), req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "payment method updated"})
}

// DELETE /payment-methods/:id
func (ctl *BillingController) DeletePaymentMethod(c *gin.Context) {
	if err := ctl.Service.DeletePaymentMethod(c.Request.Context(), mustIdentity(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "payment method deleted"})
}

// --- Métodos de cobro (admin) ---

// POST /admin/payout-methods
func (ctl *BillingController) AddPayoutMethod(c *gin.Context) {
	var req dto.CreateMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pm, err := ctl.Service.AddPayoutMethod(c.Request.Context(), mustIdentity(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pm)
}

// GET /admin/payout-methods
func (ctl *BillingController) ListPayoutMethods(c *gin.Context) {
	methods, err := ctl.Service.ListPayoutMethods(c.Request.Context(), mustIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, methods)
}

// PATCH /admin/payout-methods/:id
func (ctl *BillingController) UpdatePayoutMethod(c *gin.Context) {
	var req dto.UpdateMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := ctl.Service.UpdatePayoutMethod(c.Request.Context(), mustIdentity(c), c.Param("id"), req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "payout method updated"})
}

// DELETE /admin/payout-methods/:id
func (ctl *BillingController) DeletePayoutMethod(c *gin.Context) {
	if err := ctl.Service.DeletePayoutMethod(c.Request.Context(), mustIdentity(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "payout method deleted"})
}

// --- Ledger ---

// GET /transactions[?forAdmin=1]
func (ctl *BillingController) ListTransactions(c *gin.Context) {
	forAdmin := c.Query("forAdmin") == "1" || c.Query("forAdmin") == "true"
	transactions, err := ctl.Service.ListTransactions(c.Request.Context(), mustIdentity(c), forAdmin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactions)
}
