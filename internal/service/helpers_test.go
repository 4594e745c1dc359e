package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"ksk-service/internal/messaging"
	"ksk-service/internal/model"
	"ksk-service/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu      sync.Mutex
	created []messaging.RequestCreatedMessage
	updates []messaging.StatusUpdateMessage
}

func (p *recordingPublisher) PublishRequestCreated(_ context.Context, msg messaging.RequestCreatedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, msg)
	return nil
}

func (p *recordingPublisher) PublishStatusUpdate(_ context.Context, msg messaging.StatusUpdateMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, msg)
	return nil
}

type scriptedAssistant struct {
	mu      sync.Mutex
	replies []model.AssistantReply
	calls   int
	drafts  []model.RequestDraft
	gate    chan struct{}
}

func (a *scriptedAssistant) Reply(_ context.Context, _ []model.ChatTurn, draft model.RequestDraft) model.AssistantReply {
	if a.gate != nil {
		<-a.gate
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.drafts = append(a.drafts, draft)
	reply := a.replies[a.calls%len(a.replies)]
	a.calls++
	return reply
}

type testEnv struct {
	storage     *repository.MemoryStorage
	sessionRepo *repository.SessionRepository
	citizenRepo *repository.CitizenRepository
	requestRepo *repository.RequestRepository
	publisher   *recordingPublisher
	tokens      *TokenService
}

func newTestEnv() *testEnv {
	storage := repository.NewMemoryStorage()
	return &testEnv{
		storage:     storage,
		sessionRepo: repository.NewSessionRepository(storage),
		citizenRepo: repository.NewCitizenRepository(),
		requestRepo: repository.NewRequestRepository(storage, repository.MockRequests()),
		publisher:   &recordingPublisher{},
		tokens:      NewTokenService("test-secret", time.Hour),
	}
}

func (e *testEnv) registry(assistant Assistant) *Registry {
	return NewRegistry(RegistryDeps{
		Tokens:      e.tokens,
		SessionRepo: e.sessionRepo,
		CitizenRepo: e.citizenRepo,
		RequestRepo: e.requestRepo,
		Publisher:   e.publisher,
		Assistant:   assistant,
		IdleTTL:     time.Hour,
		Logger:      zap.NewNop(),
	})
}

func (e *testEnv) sessionStore(t *testing.T, sid string) *SessionStore {
	t.Helper()
	s, err := OpenSessionStore(context.Background(), sid, e.sessionRepo, e.citizenRepo, zap.NewNop())
	require.NoError(t, err)
	return s
}

func (e *testEnv) requestStore(t *testing.T, session *model.Session) *RequestStore {
	t.Helper()
	s := NewRequestStore(e.requestRepo, e.publisher, zap.NewNop())
	require.NoError(t, s.Reload(context.Background(), session))
	return s
}

func almatySession(identifier string) *model.Session {
	city, _ := model.FindCity("Алматы")
	return &model.Session{
		Identifier:      identifier,
		City:            city.Name,
		CityCoordinates: city.Coordinates,
		Role:            model.RoleCitizen,
	}
}
