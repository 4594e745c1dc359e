package handler

import (
	"net/http"

	"ksk-service/internal/model"
	"ksk-service/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	maxPhotoSize  = 10 << 20
	citizenAuthor = "Жилец"
)

type RequestHandler struct {
	photoService *service.PhotoService
}

func NewRequestHandler(photoService *service.PhotoService) *RequestHandler {
	return &RequestHandler{photoService: photoService}
}

// refreshedRequests reloads the client's view so reads see other sessions' writes.
func refreshedRequests(c *gin.Context) (*service.RequestStore, bool) {
	store := currentClient(c).Requests
	if err := store.Refresh(c.Request.Context()); err != nil {
		respondError(c, err)
		return nil, false
	}
	return store, true
}

func (h *RequestHandler) GetRequests(c *gin.Context) {
	filter := model.RequestFilter{
		Search:   c.Query("search"),
		Category: c.DefaultQuery("category", model.FilterAll),
		Status:   c.DefaultQuery("status", model.FilterAll),
	}

	store, ok := refreshedRequests(c)
	if !ok {
		return
	}

	requests := store.Query(filter)
	c.JSON(http.StatusOK, model.RequestListResponse{
		Requests: requests,
		Total:    len(requests),
	})
}

func (h *RequestHandler) GetStats(c *gin.Context) {
	store, ok := refreshedRequests(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, store.Stats())
}

func (h *RequestHandler) GetRequestByID(c *gin.Context) {
	store, ok := refreshedRequests(c)
	if !ok {
		return
	}

	req, err := store.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// CreateRequest files a map-pin request on behalf of the session's citizen.
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	var body model.CreateRequestRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	client := currentClient(c)
	session := client.Sessions.Get()
	if session == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	req, err := client.Requests.Add(c.Request.Context(), model.NewRequest{
		Title:       body.Title,
		Description: body.Description,
		Category:    body.Category,
		Status:      model.StatusNew,
		Coordinates: *body.Coordinates,
		Address:     body.Address,
		Author:      citizenAuthor,
		Identifier:  session.Identifier,
		City:        session.City,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, req)
}

func (h *RequestHandler) UpdateRequest(c *gin.Context) {
	var upd model.RequestUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := currentClient(c).Requests.Update(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

func (h *RequestHandler) UploadPhoto(c *gin.Context) {
	header, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file required"})
		return
	}
	if header.Size > maxPhotoSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "photo exceeds 10MB"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	req, err := h.photoService.Upload(c.Request.Context(), currentClient(c).Requests, c.Param("id"), file, header.Size)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}
