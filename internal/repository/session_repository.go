package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ksk-service/internal/model"
)

type SessionRepository struct {
	storage Storage
}

func NewSessionRepository(storage Storage) *SessionRepository {
	return &SessionRepository{storage: storage}
}

// Load returns the stored session, or nil when none exists.
func (r *SessionRepository) Load(ctx context.Context, sessionID string) (*model.Session, error) {
	rec, err := r.storage.Get(ctx, SessionKey(sessionID))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session model.Session
	if err := json.Unmarshal(rec.Value, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w: %w", sessionID, ErrCorruptRecord, err)
	}
	return &session, nil
}

func (r *SessionRepository) Save(ctx context.Context, sessionID string, session *model.Session) error {
	body, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = r.storage.Put(ctx, SessionKey(sessionID), body, AnyVersion)
	return err
}

// Delete removes the session and its preferences.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.storage.Delete(ctx, SessionKey(sessionID)); err != nil {
		return err
	}
	return r.storage.Delete(ctx, ThemeKey(sessionID))
}

func (r *SessionRepository) LoadTheme(ctx context.Context, sessionID string) (model.Theme, error) {
	rec, err := r.storage.Get(ctx, ThemeKey(sessionID))
	if errors.Is(err, ErrNotFound) {
		return model.ThemeDark, nil
	}
	if err != nil {
		return "", err
	}

	theme := model.Theme(rec.Value)
	if !theme.Valid() {
		return model.ThemeDark, nil
	}
	return theme, nil
}

func (r *SessionRepository) SaveTheme(ctx context.Context, sessionID string, theme model.Theme) error {
	_, err := r.storage.Put(ctx, ThemeKey(sessionID), []byte(theme), AnyVersion)
	return err
}
