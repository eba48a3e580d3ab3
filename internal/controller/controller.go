package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sourcing-marketplace-service/internal/auth"
	"sourcing-marketplace-service/internal/middleware"
	"sourcing-marketplace-service/internal/repository"
	"sourcing-marketplace-service/internal/service"
)

// respondError mapea los errores de negocio a códigos HTTP. El cuerpo es
// siempre {"error": "..."} como en el resto de los servicios.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, service.ErrAuthRequired):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrAccountBlocked):
		status = http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrFinalState),
		errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrPaymentRejected):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUploadFailed):
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

// mustIdentity asume que el middleware de auth ya corrió.
func mustIdentity(c *gin.Context) auth.Identity {
	ident, _ := middleware.GetIdentity(c)
	return ident
}
