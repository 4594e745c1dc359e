package handler

import (
	"net/http"

	"ksk-service/internal/service"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func sessionIdentifier(c *gin.Context) (string, bool) {
	session := currentClient(c).Sessions.Get()
	if session == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return session.Identifier, true
}

func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	identifier, ok := sessionIdentifier(c)
	if !ok {
		return
	}

	response, err := h.notificationService.GetNotifications(c.Request.Context(), identifier)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// StreamEvents pushes live request events over SSE. Browsers pass the
// session token as ?token= since EventSource cannot set headers.
func (h *NotificationHandler) StreamEvents(c *gin.Context) {
	session := currentClient(c).Sessions.Get()
	if session == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	client := h.notificationService.RegisterClient(session)
	defer h.notificationService.UnregisterClient(client)

	c.SSEvent("connected", gin.H{"message": "SSE connection established"})
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()

	for {
		select {
		case <-clientGone:
			return
		case event, ok := <-client.Channel:
			if !ok {
				return
			}
			c.SSEvent(event.Type, event.Payload)
			c.Writer.Flush()
		}
	}
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	identifier, ok := sessionIdentifier(c)
	if !ok {
		return
	}

	if err := h.notificationService.MarkAsRead(c.Request.Context(), c.Param("id"), identifier); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "notification marked as read"})
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	identifier, ok := sessionIdentifier(c)
	if !ok {
		return
	}

	if err := h.notificationService.MarkAllAsRead(c.Request.Context(), identifier); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "all notifications marked as read"})
}
