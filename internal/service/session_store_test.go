package service

import (
	"context"
	"testing"

	"ksk-service/internal/model"
	"ksk-service/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSessionStore_SetPersistsAcrossOpen(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	s := env.sessionStore(t, "sid-1")
	assert.Nil(t, s.Get())
	assert.Nil(t, s.CitizenData())

	session := almatySession("950101300123")
	require.NoError(t, s.Set(ctx, session))
	assert.Equal(t, session, s.Get())
	require.NotNil(t, s.CitizenData())
	assert.Equal(t, "Нурбол Серикович Алиев", s.CitizenData().FullName)

	reopened := env.sessionStore(t, "sid-1")
	assert.Equal(t, session, reopened.Get())
	assert.NotNil(t, reopened.CitizenData())

	require.NoError(t, reopened.Set(ctx, nil))
	assert.Nil(t, reopened.Get())
	assert.Nil(t, reopened.CitizenData())
	assert.Nil(t, env.sessionStore(t, "sid-1").Get())
}

func TestSessionStore_GetReturnsCopy(t *testing.T) {
	env := newTestEnv()
	s := env.sessionStore(t, "sid")
	require.NoError(t, s.Set(context.Background(), almatySession("950101300123")))

	got := s.Get()
	got.City = "Астана"
	assert.Equal(t, "Алматы", s.Get().City)
}

func TestSessionStore_Dispatcher(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	roles := NewRoleResolver(nil)

	s := env.sessionStore(t, "sid")
	assert.False(t, s.IsDispatcher())

	dispatcher := almatySession(model.DispatcherIdentifier)
	dispatcher.Role = roles.Resolve(dispatcher.Identifier)
	require.NoError(t, s.Set(ctx, dispatcher))
	assert.True(t, s.IsDispatcher())
	assert.Nil(t, s.CitizenData(), "dispatchers get no directory record")

	citizen := almatySession("880515400234")
	citizen.Role = roles.Resolve(citizen.Identifier)
	require.NoError(t, s.Set(ctx, citizen))
	assert.False(t, s.IsDispatcher())
}

func TestSessionStore_CorruptRecordIsNoSession(t *testing.T) {
	env := newTestEnv()
	_, err := env.storage.Put(context.Background(), repository.SessionKey("sid"), []byte("{oops"), repository.AnyVersion)
	require.NoError(t, err)

	s, err := OpenSessionStore(context.Background(), "sid", env.sessionRepo, env.citizenRepo, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, s.Get())
}

func TestSessionStore_ListenersSeeNewSession(t *testing.T) {
	env := newTestEnv()
	s := env.sessionStore(t, "sid")

	var seen []*model.Session
	s.OnChange(func(_ context.Context, session *model.Session) error {
		seen = append(seen, session)
		return nil
	})

	require.NoError(t, s.Set(context.Background(), almatySession("950101300123")))
	require.NoError(t, s.Set(context.Background(), nil))

	require.Len(t, seen, 2)
	assert.Equal(t, "950101300123", seen[0].Identifier)
	assert.Nil(t, seen[1])
}

func TestSessionStore_Theme(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	s := env.sessionStore(t, "sid")

	theme, err := s.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ThemeDark, theme)

	require.NoError(t, s.SetTheme(ctx, model.ThemeLight))
	theme, err = s.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ThemeLight, theme)

	assert.ErrorIs(t, s.SetTheme(ctx, "sepia"), ErrInvalidTheme)
}

func TestRoleResolver(t *testing.T) {
	def := NewRoleResolver(nil)
	assert.Equal(t, model.RoleDispatcher, def.Resolve("000000000001"))
	assert.Equal(t, model.RoleCitizen, def.Resolve("950101300123"))

	custom := NewRoleResolver([]string{"111111111111"})
	assert.Equal(t, model.RoleDispatcher, custom.Resolve("111111111111"))
	assert.Equal(t, model.RoleCitizen, custom.Resolve("000000000001"))
}
