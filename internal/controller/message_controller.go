package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sourcing-marketplace-service/internal/dto"
	"sourcing-marketplace-service/internal/service"
)

type MessageController struct {
	Service *service.MessageService
}

func NewMessageController(s *service.MessageService) *MessageController {
	return &MessageController{Service: s}
}

// GET /conversations/:conversationId/messages
// Leer el hilo resetea el contador de no-leídos del rol del caller.
func (ctl *MessageController) List(c *gin.Context) {
	messages, err := ctl.Service.List(c.Request.Context(), mustIdentity(c), c.Param("conversationId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// POST /conversations/:conversationId/messages
// JSON {"text": ...} para texto, multipart con campo "file" para adjuntos.
func (ctl *MessageController) Send(c *gin.Context) {
	conversationID := c.Param("conversationId")
	caller := mustIdentity(c)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
			return
		}
		f, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()

		msg, err := ctl.Service.Send(c.Request.Context(), caller, conversationID, "", &service.FileUpload{
			Name:        fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Reader:      f,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, msg)
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg, err := ctl.Service.Send(c.Request.Context(), caller, conversationID, req.Text, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
