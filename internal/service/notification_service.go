package service

import (
	"context"

	"ksk-service/internal/messaging"
	"ksk-service/internal/model"
	"ksk-service/internal/repository"

	"github.com/google/uuid"
)

type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	sseHub           *messaging.SSEHub
}

func NewNotificationService(notificationRepo *repository.NotificationRepository, sseHub *messaging.SSEHub) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		sseHub:           sseHub,
	}
}

func (s *NotificationService) GetNotifications(ctx context.Context, identifier string) (*model.NotificationListResponse, error) {
	notifications, err := s.notificationRepo.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	unreadCount, err := s.notificationRepo.GetUnreadCount(ctx, identifier)
	if err != nil {
		return nil, err
	}

	return &model.NotificationListResponse{
		Notifications: notifications,
		UnreadCount:   unreadCount,
	}, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, notificationIDStr, identifier string) error {
	notificationID, err := uuid.Parse(notificationIDStr)
	if err != nil {
		return repository.ErrNotificationNotFound
	}

	return s.notificationRepo.MarkAsRead(ctx, notificationID, identifier)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, identifier string) error {
	return s.notificationRepo.MarkAllAsRead(ctx, identifier)
}

func (s *NotificationService) RegisterClient(session *model.Session) *messaging.SSEClient {
	return s.sseHub.RegisterClient(session)
}

func (s *NotificationService) UnregisterClient(client *messaging.SSEClient) {
	s.sseHub.UnregisterClient(client)
}
