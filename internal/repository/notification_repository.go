package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ksk-service/internal/model"

	"github.com/google/uuid"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepository keeps one list of notifications per citizen identifier.
type NotificationRepository struct {
	storage Storage
}

func NewNotificationRepository(storage Storage) *NotificationRepository {
	return &NotificationRepository{storage: storage}
}

func (r *NotificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	return r.modify(ctx, notification.Identifier, func(list []model.Notification) ([]model.Notification, error) {
		return append(list, *notification), nil
	})
}

// GetByIdentifier returns the citizen's notifications, newest first.
func (r *NotificationRepository) GetByIdentifier(ctx context.Context, identifier string) ([]model.Notification, error) {
	list, _, err := r.load(ctx, identifier)
	if err != nil {
		return nil, err
	}

	out := make([]model.Notification, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		out = append(out, list[i])
	}
	return out, nil
}

func (r *NotificationRepository) GetUnreadCount(ctx context.Context, identifier string) (int, error) {
	list, _, err := r.load(ctx, identifier)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, n := range list {
		if !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *NotificationRepository) MarkAsRead(ctx context.Context, notificationID uuid.UUID, identifier string) error {
	return r.modify(ctx, identifier, func(list []model.Notification) ([]model.Notification, error) {
		for i := range list {
			if list[i].ID == notificationID {
				list[i].IsRead = true
				return list, nil
			}
		}
		return nil, ErrNotificationNotFound
	})
}

func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, identifier string) error {
	return r.modify(ctx, identifier, func(list []model.Notification) ([]model.Notification, error) {
		for i := range list {
			list[i].IsRead = true
		}
		return list, nil
	})
}

func (r *NotificationRepository) CreateStatusNotification(ctx context.Context, identifier, requestID, requestTitle string, newStatus model.RequestStatus) (*model.Notification, error) {
	notification := &model.Notification{
		ID:         uuid.New(),
		Identifier: identifier,
		RequestID:  requestID,
		Title:      "Статус заявки обновлён",
		Message:    "Заявка \"" + requestTitle + "\" переведена в статус: " + StatusLabel(newStatus),
		IsRead:     false,
		CreatedAt:  time.Now(),
	}
	if err := r.Create(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

// StatusLabel is the resident-facing name of a status.
func StatusLabel(status model.RequestStatus) string {
	switch status {
	case model.StatusNew:
		return "Новая"
	case model.StatusInProgress:
		return "В работе"
	case model.StatusDone:
		return "Выполнена"
	}
	return string(status)
}

func (r *NotificationRepository) load(ctx context.Context, identifier string) ([]model.Notification, int64, error) {
	rec, err := r.storage.Get(ctx, NotificationsKey(identifier))
	if errors.Is(err, ErrNotFound) {
		return []model.Notification{}, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}

	var list []model.Notification
	if err := json.Unmarshal(rec.Value, &list); err != nil {
		return nil, 0, fmt.Errorf("decode notifications: %w: %w", ErrCorruptRecord, err)
	}
	return list, rec.Version, nil
}

func (r *NotificationRepository) modify(ctx context.Context, identifier string, fn func([]model.Notification) ([]model.Notification, error)) error {
	return RetryOnConflict(ctx, func() error {
		list, version, err := r.load(ctx, identifier)
		if err != nil {
			return err
		}
		next, err := fn(list)
		if err != nil {
			return err
		}
		body, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode notifications: %w", err)
		}
		_, err = r.storage.Put(ctx, NotificationsKey(identifier), body, version)
		return err
	})
}
