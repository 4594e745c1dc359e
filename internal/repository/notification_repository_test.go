package repository

import (
	"context"
	"testing"
	"time"

	"ksk-service/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRepository(t *testing.T) {
	repo := NewNotificationRepository(NewMemoryStorage())
	ctx := context.Background()
	identifier := "950101300123"

	first := &model.Notification{ID: uuid.New(), Identifier: identifier, Title: "a", CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, first))
	created, err := repo.CreateStatusNotification(ctx, identifier, "42", "Лифт", model.StatusDone)
	require.NoError(t, err)
	assert.Equal(t, "Статус заявки обновлён", created.Title)

	list, err := repo.GetByIdentifier(ctx, identifier)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "42", list[0].RequestID, "newest first")
	assert.Contains(t, list[0].Message, "Выполнена")

	count, err := repo.GetUnreadCount(ctx, identifier)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, repo.MarkAsRead(ctx, first.ID, identifier))
	count, err = repo.GetUnreadCount(ctx, identifier)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	err = repo.MarkAsRead(ctx, uuid.New(), identifier)
	assert.ErrorIs(t, err, ErrNotificationNotFound)

	require.NoError(t, repo.MarkAllAsRead(ctx, identifier))
	count, err = repo.GetUnreadCount(ctx, identifier)
	require.NoError(t, err)
	assert.Zero(t, count)

	other, err := repo.GetByIdentifier(ctx, "880515400234")
	require.NoError(t, err)
	assert.Empty(t, other)
}
