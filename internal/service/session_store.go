package service

import (
	"context"
	"errors"
	"sync"

	"ksk-service/internal/model"
	"ksk-service/internal/repository"

	"go.uber.org/zap"
)

// SessionListener is called after the current session changes.
type SessionListener func(ctx context.Context, session *model.Session) error

// SessionStore holds one client's current session.
type SessionStore struct {
	mu          sync.RWMutex
	sessionID   string
	sessionRepo *repository.SessionRepository
	citizenRepo *repository.CitizenRepository
	logger      *zap.Logger
	session     *model.Session
	citizenData *model.CitizenRecord
	listeners   []SessionListener
}

// OpenSessionStore reconstitutes the session stored under sessionID. A corrupt
// record is logged and treated as no session.
func OpenSessionStore(ctx context.Context, sessionID string, sessionRepo *repository.SessionRepository, citizenRepo *repository.CitizenRepository, logger *zap.Logger) (*SessionStore, error) {
	s := &SessionStore{
		sessionID:   sessionID,
		sessionRepo: sessionRepo,
		citizenRepo: citizenRepo,
		logger:      logger,
	}

	session, err := sessionRepo.Load(ctx, sessionID)
	if errors.Is(err, repository.ErrCorruptRecord) {
		logger.Warn("discarding corrupt session", zap.String("sid", sessionID), zap.Error(err))
		session = nil
	} else if err != nil {
		return nil, err
	}

	s.session = session
	s.refreshCitizenData()
	return s, nil
}

func (s *SessionStore) SessionID() string {
	return s.sessionID
}

// OnChange registers fn to run after every Set.
func (s *SessionStore) OnChange(fn SessionListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Get returns a copy of the current session, or nil.
func (s *SessionStore) Get() *model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return nil
	}
	session := *s.session
	return &session
}

// Set replaces the current session. A nil session removes the durable record
// and clears citizen data.
func (s *SessionStore) Set(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	if session == nil {
		if err := s.sessionRepo.Delete(ctx, s.sessionID); err != nil {
			s.mu.Unlock()
			return err
		}
		s.session = nil
	} else {
		stored := *session
		if err := s.sessionRepo.Save(ctx, s.sessionID, &stored); err != nil {
			s.mu.Unlock()
			return err
		}
		s.session = &stored
	}
	s.refreshCitizenData()
	listeners := append([]SessionListener(nil), s.listeners...)
	s.mu.Unlock()

	current := s.Get()
	for _, fn := range listeners {
		if err := fn(ctx, current); err != nil {
			return err
		}
	}
	return nil
}

func (s *SessionStore) IsDispatcher() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.IsDispatcher()
}

// CitizenData is the directory record for a citizen session, nil otherwise.
func (s *SessionStore) CitizenData() *model.CitizenRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.citizenData == nil {
		return nil
	}
	rec := *s.citizenData
	return &rec
}

func (s *SessionStore) Theme(ctx context.Context) (model.Theme, error) {
	return s.sessionRepo.LoadTheme(ctx, s.sessionID)
}

func (s *SessionStore) SetTheme(ctx context.Context, theme model.Theme) error {
	if !theme.Valid() {
		return ErrInvalidTheme
	}
	return s.sessionRepo.SaveTheme(ctx, s.sessionID, theme)
}

func (s *SessionStore) refreshCitizenData() {
	if s.session == nil || s.session.IsDispatcher() {
		s.citizenData = nil
		return
	}
	rec := s.citizenRepo.Lookup(s.session.Identifier)
	s.citizenData = &rec
}
