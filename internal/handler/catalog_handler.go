package handler

import (
	"net/http"

	"ksk-service/internal/model"
	"ksk-service/internal/repository"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	citizenRepo *repository.CitizenRepository
}

func NewCatalogHandler(citizenRepo *repository.CitizenRepository) *CatalogHandler {
	return &CatalogHandler{citizenRepo: citizenRepo}
}

func (h *CatalogHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *CatalogHandler) GetCategories(c *gin.Context) {
	c.JSON(http.StatusOK, model.Categories)
}

func (h *CatalogHandler) GetCities(c *gin.Context) {
	c.JSON(http.StatusOK, model.Cities)
}

func (h *CatalogHandler) GetCitizen(c *gin.Context) {
	identifier := c.Param("identifier")
	if !model.ValidIdentifier(identifier) {
		c.JSON(http.StatusBadRequest, gin.H{"error": model.ErrInvalidIdentifier.Error()})
		return
	}

	c.JSON(http.StatusOK, h.citizenRepo.Lookup(identifier))
}
