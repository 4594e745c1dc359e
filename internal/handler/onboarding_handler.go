package handler

import (
	"net/http"

	"ksk-service/internal/model"
	"ksk-service/internal/service"

	"github.com/gin-gonic/gin"
)

type OnboardingHandler struct {
	onboardingService *service.OnboardingService
}

func NewOnboardingHandler(onboardingService *service.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{onboardingService: onboardingService}
}

func (h *OnboardingHandler) Start(c *gin.Context) {
	c.JSON(http.StatusCreated, h.onboardingService.Start(currentClient(c)))
}

func (h *OnboardingHandler) Get(c *gin.Context) {
	resp, err := h.onboardingService.Get(c.Param("flow"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *OnboardingHandler) SelectCity(c *gin.Context) {
	var req model.SelectCityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.onboardingService.SelectCity(c.Param("flow"), req.City)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *OnboardingHandler) Back(c *gin.Context) {
	resp, err := h.onboardingService.Back(c.Param("flow"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SubmitIdentifier answers 200 with an inline validation message for a
// malformed identifier; the flow stays open.
func (h *OnboardingHandler) SubmitIdentifier(c *gin.Context) {
	var req model.SubmitIdentifierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.onboardingService.SubmitIdentifier(c.Request.Context(), c.Param("flow"), req.Identifier)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
