package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)

	token, expiresAt, err := svc.Issue("u-mgr")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	userID, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u-mgr", userID)
}

func TestTokenService_Rejects(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	token, _, err := svc.Issue("u-mgr")
	require.NoError(t, err)

	_, err = NewTokenService("other", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Verify("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenService("secret", time.Minute)
	expired.clock = func() time.Time { return time.Now().Add(-time.Hour) }
	old, _, err := expired.Issue("u-mgr")
	require.NoError(t, err)
	_, err = svc.Verify(old)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
