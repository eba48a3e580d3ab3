package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sourcing-marketplace-service/internal/service"
)

type NotificationController struct {
	Service *service.NotificationService
}

func NewNotificationController(s *service.NotificationService) *NotificationController {
	return &NotificationController{Service: s}
}

// GET /notifications — buzón + badge en una sola respuesta
func (ctl *NotificationController) List(c *gin.Context) {
	ident := mustIdentity(c)
	notifications, err := ctl.Service.List(c.Request.Context(), ident)
	if err != nil {
		respondError(c, err)
		return
	}

	unread := 0
	for _, n := range notifications {
		if !n.Read {
			unread++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"unreadCount":   unread,
	})
}

// PATCH /notifications/:id/read — idempotente
func (ctl *NotificationController) MarkRead(c *gin.Context) {
	if err := ctl.Service.MarkAsRead(c.Request.Context(), mustIdentity(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification read"})
}

// POST /notifications/read-all
func (ctl *NotificationController) MarkAllRead(c *gin.Context) {
	if err := ctl.Service.MarkAllAsRead(c.Request.Context(), mustIdentity(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "all notifications read"})
}
