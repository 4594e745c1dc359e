package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ksk-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func recordingCommit(dst **model.Session) Committer {
	return func(_ context.Context, session *model.Session) error {
		*dst = session
		return nil
	}
}

func TestOnboardingGate_HappyPath(t *testing.T) {
	var committed *model.Session
	g := NewOnboardingGate(nil, NewRoleResolver(nil), recordingCommit(&committed))
	assert.Equal(t, model.StepChoosingCity, g.Step())

	assert.True(t, g.SelectCity("Алматы"))
	assert.Equal(t, model.StepEnteringIdentifier, g.Step())

	ok, err := g.SubmitIdentifier(context.Background(), "950101300123")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, model.StepComplete, g.Step())

	want := &model.Session{
		Identifier:      "950101300123",
		City:            "Алматы",
		CityCoordinates: model.Coordinates{43.238293, 76.889709},
		Role:            model.RoleCitizen,
	}
	assert.Equal(t, want, committed)
	assert.Equal(t, want, g.Session())
}

func TestOnboardingGate_CityValidation(t *testing.T) {
	g := NewOnboardingGate(nil, NewRoleResolver(nil), recordingCommit(new(*model.Session)))

	for _, city := range []string{"", "Шымкент"} {
		assert.False(t, g.SelectCity(city))
		assert.Equal(t, model.StepChoosingCity, g.Step())
		assert.Equal(t, "Выберите город", g.Validation())
	}

	assert.True(t, g.SelectCity("Павлодар"))
	assert.Empty(t, g.Validation())
}

func TestOnboardingGate_IdentifierValidation(t *testing.T) {
	var committed *model.Session
	g := NewOnboardingGate(nil, NewRoleResolver(nil), recordingCommit(&committed))
	require.True(t, g.SelectCity("Астана"))

	for _, value := range []string{"", "12345", "1234567890123", "12345678901a", "１２３４５６７８９０１２", " 95010130012"} {
		ok, err := g.SubmitIdentifier(context.Background(), value)
		require.NoError(t, err)
		assert.False(t, ok, value)
		assert.Equal(t, model.StepEnteringIdentifier, g.Step())
		assert.Equal(t, "ИИН должен состоять из 12 цифр", g.Validation())
	}
	assert.Nil(t, committed, "no session for invalid identifiers")
}

func TestOnboardingGate_BackAndDispatcherRole(t *testing.T) {
	var committed *model.Session
	g := NewOnboardingGate(nil, NewRoleResolver(nil), recordingCommit(&committed))

	g.Back()
	assert.Equal(t, model.StepChoosingCity, g.Step(), "back is only meaningful from identifier entry")

	require.True(t, g.SelectCity("Астана"))
	g.Back()
	assert.Equal(t, model.StepChoosingCity, g.Step())

	require.True(t, g.SelectCity("Павлодар"))
	ok, err := g.SubmitIdentifier(context.Background(), model.DispatcherIdentifier)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, committed.IsDispatcher())
	assert.Equal(t, "Павлодар", committed.City)
}

func TestOnboardingGate_CompleteIsInert(t *testing.T) {
	existing := almatySession("950101300123")
	calls := 0
	g := NewOnboardingGate(existing, NewRoleResolver(nil), func(context.Context, *model.Session) error {
		calls++
		return nil
	})
	assert.Equal(t, model.StepComplete, g.Step())

	assert.False(t, g.SelectCity("Астана"))
	g.Back()
	ok, err := g.SubmitIdentifier(context.Background(), "880515400234")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, model.StepComplete, g.Step())
	assert.Equal(t, existing, g.Session())
	assert.Zero(t, calls)
}

func TestOnboardingGate_CommitFailureStaysPut(t *testing.T) {
	g := NewOnboardingGate(nil, NewRoleResolver(nil), func(context.Context, *model.Session) error {
		return errors.New("storage down")
	})
	require.True(t, g.SelectCity("Алматы"))

	ok, err := g.SubmitIdentifier(context.Background(), "950101300123")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Equal(t, model.StepEnteringIdentifier, g.Step())
	assert.Nil(t, g.Session())
}

func TestOnboardingService_Flow(t *testing.T) {
	env := newTestEnv()
	registry := env.registry(&scriptedAssistant{replies: []model.AssistantReply{{Message: "ok"}}})
	svc := NewOnboardingService(NewRoleResolver(nil), registry, time.Minute, zap.NewNop())
	ctx := context.Background()

	start := svc.Start(nil)
	assert.Equal(t, model.StepChoosingCity, start.Step)
	assert.Len(t, start.Cities, 3)

	resp, err := svc.SelectCity(start.FlowID, "Алматы")
	require.NoError(t, err)
	assert.Equal(t, model.StepEnteringIdentifier, resp.Step)
	assert.Equal(t, "Алматы", resp.SelectedCity)

	resp, err = svc.SubmitIdentifier(ctx, start.FlowID, "95010130012")
	require.NoError(t, err)
	assert.Equal(t, "ИИН должен состоять из 12 цифр", resp.Error)
	assert.Nil(t, resp.Session)

	resp, err = svc.SubmitIdentifier(ctx, start.FlowID, "950101300123")
	require.NoError(t, err)
	assert.Equal(t, model.StepComplete, resp.Step)
	require.NotNil(t, resp.Session)
	assert.NotEmpty(t, resp.Session.Token)
	assert.False(t, resp.Session.IsDispatcher)
	require.NotNil(t, resp.Session.CitizenData)
	assert.Equal(t, 3, resp.Session.CitizenData.RequestsCount)

	client, err := registry.Resolve(ctx, resp.Session.Token)
	require.NoError(t, err)
	assert.Len(t, client.Requests.List(), 4)

	again := svc.Start(client)
	assert.Equal(t, model.StepComplete, again.Step)
	require.NotNil(t, again.Session)
	assert.Empty(t, again.Session.Token)
	assert.Equal(t, "950101300123", again.Session.Session.Identifier)
}

func TestOnboardingService_UnknownAndExpiredFlows(t *testing.T) {
	env := newTestEnv()
	svc := NewOnboardingService(NewRoleResolver(nil), env.registry(nil), time.Minute, zap.NewNop())

	_, err := svc.Get("nope")
	assert.ErrorIs(t, err, ErrFlowNotFound)

	now := time.Now()
	svc.now = func() time.Time { return now }
	flow := svc.Start(nil)

	now = now.Add(30 * time.Second)
	_, err = svc.Back(flow.FlowID)
	require.NoError(t, err)
	assert.Zero(t, svc.Evict())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, svc.Evict())
	_, err = svc.Get(flow.FlowID)
	assert.ErrorIs(t, err, ErrFlowNotFound)
}
