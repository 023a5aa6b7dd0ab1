package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/romes311/tourismiq/internal/dto"
	"github.com/romes311/tourismiq/internal/service"
	"github.com/romes311/tourismiq/pkg/apperror"
	"github.com/romes311/tourismiq/pkg/response"
	"github.com/romes311/tourismiq/pkg/validator"
)

type MessageHandler struct {
	service service.MessageService
}

func NewMessageHandler(service service.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

func (h *MessageHandler) Send(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	message, err := h.service.Send(c.Request.Context(), userID, req.RecipientID, req.Body)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": message})
}

func (h *MessageHandler) ListConversation(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	otherID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.Error(c, apperror.ErrInvalidRequest)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	messages, err := h.service.ListConversation(c.Request.Context(), userID, otherID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": messages})
}
