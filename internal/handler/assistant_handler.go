package handler

import (
	"net/http"

	"ksk-service/internal/model"

	"github.com/gin-gonic/gin"
)

// AssistantHandler drives the session's chat with the request assistant.
type AssistantHandler struct{}

func NewAssistantHandler() *AssistantHandler {
	return &AssistantHandler{}
}

func (h *AssistantHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, currentClient(c).Chat.State())
}

func (h *AssistantHandler) SendMessage(c *gin.Context) {
	var req model.ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := currentClient(c).Chat.Send(c.Request.Context(), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

func (h *AssistantHandler) PickLocation(c *gin.Context) {
	var req model.ChatLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := currentClient(c).Chat.PickLocation(c.Request.Context(), *req.Coordinates, req.Address)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

func (h *AssistantHandler) SelectCategory(c *gin.Context) {
	var req model.ChatCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := currentClient(c).Chat.SelectCategory(req.Category)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

func (h *AssistantHandler) Close(c *gin.Context) {
	chat := currentClient(c).Chat
	chat.Close()
	c.JSON(http.StatusOK, chat.State())
}
