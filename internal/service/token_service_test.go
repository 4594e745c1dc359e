package service

import (
	"testing"
	"time"

	"ksk-service/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	session := almatySession(model.DispatcherIdentifier)
	session.Role = model.RoleDispatcher

	token, err := svc.Issue("sid-1", session)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, &TokenClaims{SessionID: "sid-1", Identifier: model.DispatcherIdentifier, Role: model.RoleDispatcher}, claims)
}

func TestTokenService_Rejects(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	session := almatySession("950101300123")

	other, err := NewTokenService("other", time.Hour).Issue("sid", session)
	require.NoError(t, err)
	_, err = svc.Validate(other)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong key")

	past := time.Now().Add(-2 * time.Hour)
	expiredSvc := NewTokenService("secret", time.Hour)
	expiredSvc.now = func() time.Time { return past }
	expired, err := expiredSvc.Issue("sid", session)
	require.NoError(t, err)
	_, err = svc.Validate(expired)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sid": "x", "identifier": "y"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Validate(none)
	assert.ErrorIs(t, err, ErrInvalidToken, "unsigned")

	noSid, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"identifier": "950101300123",
		"exp":        time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.Validate(noSid)
	assert.ErrorIs(t, err, ErrInvalidToken, "missing sid")

	_, err = svc.Validate("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
