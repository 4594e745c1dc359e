package handler

import (
	"net/http"

	"ksk-service/internal/model"
	"ksk-service/internal/service"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	registry *service.Registry
}

func NewSessionHandler(registry *service.Registry) *SessionHandler {
	return &SessionHandler{registry: registry}
}

func (h *SessionHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, currentClient(c).SessionResponse(""))
}

func (h *SessionHandler) Logout(c *gin.Context) {
	if err := h.registry.Logout(c.Request.Context(), currentClient(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *SessionHandler) GetTheme(c *gin.Context) {
	theme, err := currentClient(c).Sessions.Theme(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.ThemeRequest{Theme: theme})
}

func (h *SessionHandler) SetTheme(c *gin.Context) {
	var req model.ThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := currentClient(c).Sessions.SetTheme(c.Request.Context(), req.Theme); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}
