package service

import (
	"context"
	"testing"

	"ksk-service/internal/messaging"
	"ksk-service/internal/model"
	"ksk-service/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService(t *testing.T) {
	repo := repository.NewNotificationRepository(repository.NewMemoryStorage())
	svc := NewNotificationService(repo, messaging.NewSSEHub())
	ctx := context.Background()
	identifier := "950101300123"

	empty, err := svc.GetNotifications(ctx, identifier)
	require.NoError(t, err)
	assert.NotNil(t, empty.Notifications)
	assert.Zero(t, empty.UnreadCount)

	n, err := repo.CreateStatusNotification(ctx, identifier, "1", "Фонарь", model.StatusInProgress)
	require.NoError(t, err)
	_, err = repo.CreateStatusNotification(ctx, identifier, "2", "Лифт", model.StatusDone)
	require.NoError(t, err)

	list, err := svc.GetNotifications(ctx, identifier)
	require.NoError(t, err)
	assert.Len(t, list.Notifications, 2)
	assert.Equal(t, 2, list.UnreadCount)

	require.NoError(t, svc.MarkAsRead(ctx, n.ID.String(), identifier))
	assert.ErrorIs(t, svc.MarkAsRead(ctx, "not-a-uuid", identifier), repository.ErrNotificationNotFound)
	assert.ErrorIs(t, svc.MarkAsRead(ctx, n.ID.String(), "880515400234"), repository.ErrNotificationNotFound)

	require.NoError(t, svc.MarkAllAsRead(ctx, identifier))
	list, err = svc.GetNotifications(ctx, identifier)
	require.NoError(t, err)
	assert.Zero(t, list.UnreadCount)
}
