package service

import (
	"context"
	"sync"
	"time"

	"ksk-service/internal/messaging"
	"ksk-service/internal/model"
	"ksk-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client is the state behind one session token.
type Client struct {
	ID       string
	Sessions *SessionStore
	Requests *RequestStore
	Chat     *ChatService

	mu       sync.Mutex
	lastSeen time.Time
}

func (c *Client) touch(now time.Time) {
	c.mu.Lock()
	c.lastSeen = now
	c.mu.Unlock()
}

func (c *Client) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// SessionResponse describes the client's session; token is included when non-empty.
func (c *Client) SessionResponse(token string) model.SessionResponse {
	return model.SessionResponse{
		Token:        token,
		Session:      c.Sessions.Get(),
		IsDispatcher: c.Sessions.IsDispatcher(),
		CitizenData:  c.Sessions.CitizenData(),
	}
}

type RegistryDeps struct {
	Tokens       *TokenService
	SessionRepo  *repository.SessionRepository
	CitizenRepo  *repository.CitizenRepository
	RequestRepo  *repository.RequestRepository
	Publisher    messaging.Publisher
	Assistant    Assistant
	IdleTTL      time.Duration
	JanitorEvery time.Duration
	Logger       *zap.Logger
}

// Registry owns the per-token clients. Clients are built on first use from
// durable storage, disposed at logout and evicted when idle.
type Registry struct {
	deps    RegistryDeps
	mu      sync.Mutex
	clients map[string]*Client
	now     func() time.Time
}

func NewRegistry(deps RegistryDeps) *Registry {
	if deps.JanitorEvery <= 0 {
		deps.JanitorEvery = time.Minute
	}
	return &Registry{
		deps:    deps,
		clients: make(map[string]*Client),
		now:     time.Now,
	}
}

// Create starts a new client for a freshly onboarded session and returns its token.
func (r *Registry) Create(ctx context.Context, session *model.Session) (*Client, string, error) {
	sid := uuid.NewString()

	client, err := r.open(ctx, sid)
	if err != nil {
		return nil, "", err
	}
	if err := client.Sessions.Set(ctx, session); err != nil {
		return nil, "", err
	}

	token, err := r.deps.Tokens.Issue(sid, session)
	if err != nil {
		return nil, "", err
	}

	r.mu.Lock()
	r.clients[sid] = client
	r.mu.Unlock()

	r.deps.Logger.Info("session started",
		zap.String("sid", sid),
		zap.String("city", session.City),
		zap.String("role", string(session.Role)),
	)
	return client, token, nil
}

// Resolve returns the client named by token, reopening it from durable
// storage after eviction or restart.
func (r *Registry) Resolve(ctx context.Context, token string) (*Client, error) {
	claims, err := r.deps.Tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	client, ok := r.clients[claims.SessionID]
	r.mu.Unlock()
	if ok {
		client.touch(r.now())
		return client, nil
	}

	client, err = r.open(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	session := client.Sessions.Get()
	if session == nil {
		return nil, ErrNoSession
	}
	if session.Identifier != claims.Identifier {
		return nil, ErrInvalidToken
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.clients[claims.SessionID]; ok {
		client.Chat.Close()
		existing.touch(r.now())
		return existing, nil
	}
	r.clients[claims.SessionID] = client
	return client, nil
}

// Logout clears the durable session and disposes the client.
func (r *Registry) Logout(ctx context.Context, client *Client) error {
	r.mu.Lock()
	delete(r.clients, client.ID)
	r.mu.Unlock()

	client.Chat.Close()
	if err := client.Sessions.Set(ctx, nil); err != nil {
		return err
	}

	r.deps.Logger.Info("session ended", zap.String("sid", client.ID))
	return nil
}

// Evict drops clients idle longer than the configured TTL.
func (r *Registry) Evict() int {
	if r.deps.IdleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.deps.IdleTTL)

	r.mu.Lock()
	var idle []*Client
	for sid, client := range r.clients {
		if client.idleSince().Before(cutoff) {
			idle = append(idle, client)
			delete(r.clients, sid)
		}
	}
	r.mu.Unlock()

	for _, client := range idle {
		client.Chat.Close()
	}
	if len(idle) > 0 {
		r.deps.Logger.Debug("evicted idle clients", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// Run evicts idle clients periodically until ctx is done.
func (r *Registry) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.deps.JanitorEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Evict()
		}
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

func (r *Registry) open(ctx context.Context, sid string) (*Client, error) {
	logger := r.deps.Logger.With(zap.String("sid", sid))

	sessions, err := OpenSessionStore(ctx, sid, r.deps.SessionRepo, r.deps.CitizenRepo, logger)
	if err != nil {
		return nil, err
	}

	requests := NewRequestStore(r.deps.RequestRepo, r.deps.Publisher, logger)
	if err := requests.Reload(ctx, sessions.Get()); err != nil {
		return nil, err
	}
	sessions.OnChange(requests.Reload)

	return &Client{
		ID:       sid,
		Sessions: sessions,
		Requests: requests,
		Chat:     NewChatService(r.deps.Assistant, sessions, requests, logger),
		lastSeen: r.now(),
	}, nil
}
