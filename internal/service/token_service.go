package service

import (
	"errors"
	"time"

	"ksk-service/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

type TokenClaims struct {
	SessionID  string
	Identifier string
	Role       model.Role
}

// TokenService signs the bearer tokens that name a client's session.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *TokenService) Issue(sessionID string, session *model.Session) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sid":        sessionID,
		"identifier": session.Identifier,
		"role":       string(session.Role),
		"exp":        now.Add(s.ttl).Unix(),
		"iat":        now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *TokenService) Validate(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sid, _ := claims["sid"].(string)
	identifier, _ := claims["identifier"].(string)
	role, _ := claims["role"].(string)
	if sid == "" || identifier == "" {
		return nil, ErrInvalidToken
	}

	return &TokenClaims{
		SessionID:  sid,
		Identifier: identifier,
		Role:       model.Role(role),
	}, nil
}
