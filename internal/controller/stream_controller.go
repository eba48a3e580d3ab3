package controller

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"sourcing-marketplace-service/internal/service"
	"sourcing-marketplace-service/internal/stream"
)

// StreamController expone los change streams como SSE. Cada endpoint
// filtra los eventos al alcance del que escucha: el cliente solo ve lo
// suyo, el admin ve todo.
type StreamController struct {
	Hub      *stream.Hub
	Messages *service.MessageService
}

func NewStreamController(hub *stream.Hub, messages *service.MessageService) *StreamController {
	return &StreamController{Hub: hub, Messages: messages}
}

// GET /events/orders
func (ctl *StreamController) Orders(c *gin.Context) {
	ident := mustIdentity(c)
	ctl.forward(c, stream.TopicOrders, func(ev stream.Event) bool {
		return ident.IsAdmin() || ev.UserID == "" || ev.UserID == ident.UserID
	})
}

// GET /events/notifications
func (ctl *StreamController) Notifications(c *gin.Context) {
	ident := mustIdentity(c)
	ctl.forward(c, stream.TopicNotifications, func(ev stream.Event) bool {
		return ev.UserID == ident.UserID
	})
}

// GET /events/conversations/:id — mensajes nuevos de una conversación.
// Reutiliza el control de acceso del listado de mensajes: quien no puede
// leer la conversación tampoco puede escucharla.
func (ctl *StreamController) Conversation(c *gin.Context) {
	ident := mustIdentity(c)
	conversationID := c.Param("id")

	if _, err := ctl.Messages.List(c.Request.Context(), ident, conversationID); err != nil {
		respondError(c, err)
		return
	}

	ctl.forward(c, stream.TopicMessages, func(ev stream.Event) bool {
		return ev.ConversationID == conversationID
	})
}

func (ctl *StreamController) forward(c *gin.Context, topic string, keep func(stream.Event) bool) {
	events, cancel := ctl.Hub.Subscribe(topic)
	defer cancel()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Status(http.StatusOK)

	done := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-done:
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			if keep(ev) {
				c.SSEvent("change", ev)
			}
			return true
		}
	})
}
