package handler

import (
	"ksk-service/internal/repository"
	"ksk-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Registry      *service.Registry
	Onboarding    *service.OnboardingService
	Notifications *service.NotificationService
	Photos        *service.PhotoService
	CitizenRepo   *repository.CitizenRepository
	ChatLimiter   *RateLimiter
	Logger        *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	binding.EnableDecoderDisallowUnknownFields = true

	catalogHandler := NewCatalogHandler(deps.CitizenRepo)
	onboardingHandler := NewOnboardingHandler(deps.Onboarding)
	sessionHandler := NewSessionHandler(deps.Registry)
	requestHandler := NewRequestHandler(deps.Photos)
	assistantHandler := NewAssistantHandler()
	notificationHandler := NewNotificationHandler(deps.Notifications)

	r := gin.New()
	r.Use(gin.Recovery(), ZapLogger(deps.Logger))

	// Public endpoints
	r.GET("/health", catalogHandler.Health)
	r.GET("/categories", catalogHandler.GetCategories)
	r.GET("/cities", catalogHandler.GetCities)

	onboarding := r.Group("/onboarding")
	{
		onboarding.POST("", OptionalAuth(deps.Registry), onboardingHandler.Start)
		onboarding.GET("/:flow", onboardingHandler.Get)
		onboarding.POST("/:flow/city", onboardingHandler.SelectCity)
		onboarding.POST("/:flow/back", onboardingHandler.Back)
		onboarding.POST("/:flow/identifier", onboardingHandler.SubmitIdentifier)
	}

	// Session routes
	authed := r.Group("", RequireSession(deps.Registry))
	{
		authed.GET("/me", sessionHandler.Me)
		authed.POST("/logout", sessionHandler.Logout)
		authed.GET("/preferences/theme", sessionHandler.GetTheme)
		authed.PUT("/preferences/theme", sessionHandler.SetTheme)

		authed.GET("/requests", requestHandler.GetRequests)
		authed.GET("/requests/stats", requestHandler.GetStats)
		authed.GET("/requests/:id", requestHandler.GetRequestByID)
		authed.POST("/requests", RequireCitizen(), requestHandler.CreateRequest)
		authed.PATCH("/requests/:id", RequireDispatcher(), requestHandler.UpdateRequest)
		authed.POST("/requests/:id/photos", RequireDispatcher(), requestHandler.UploadPhoto)

		authed.GET("/citizens/:identifier", RequireDispatcher(), catalogHandler.GetCitizen)

		authed.GET("/notifications", notificationHandler.GetNotifications)
		authed.PATCH("/notifications/:id/read", notificationHandler.MarkAsRead)
		authed.PATCH("/notifications/read-all", notificationHandler.MarkAllAsRead)
	}

	r.GET("/events", RequireStreamSession(deps.Registry), notificationHandler.StreamEvents)

	assistant := authed.Group("/assistant", RequireCitizen())
	{
		assistant.GET("", assistantHandler.GetState)
		assistant.POST("/messages", deps.ChatLimiter.Middleware(), assistantHandler.SendMessage)
		assistant.POST("/location", assistantHandler.PickLocation)
		assistant.POST("/category", assistantHandler.SelectCategory)
		assistant.DELETE("", assistantHandler.Close)
	}

	return r
}
