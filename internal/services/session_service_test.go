package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authgate/internal/models"
)

func TestSessionIssue_TokensAreDistinct(t *testing.T) {
	repo := &memSessionRepo{}
	svc := NewSessionService(repo)
	user := &models.User{ID: "u1", Email: "user@example.com"}

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		session, err := svc.Issue(user, "127.0.0.1", "test-agent")
		require.NoError(t, err)
		assert.Len(t, session.Token, 64, "32 random bytes hex-encoded")
		assert.False(t, seen[session.Token], "duplicate session token")
		seen[session.Token] = true
	}
}

func TestSessionIssue_Metadata(t *testing.T) {
	repo := &memSessionRepo{}
	svc := NewSessionService(repo)
	user := &models.User{ID: "u1", Email: "user@example.com"}

	session, err := svc.Issue(user, "10.0.0.5", "Mozilla/5.0")
	require.NoError(t, err)
	assert.Equal(t, "u1", session.UserID)
	assert.Equal(t, "10.0.0.5", session.IPAddress)
	assert.Equal(t, "Mozilla/5.0", session.UserAgent)
	assert.WithinDuration(t, time.Now().Add(sessionTTL), session.ExpiresAt, 5*time.Second)
}

func TestSessionValidate(t *testing.T) {
	repo := &memSessionRepo{}
	svc := NewSessionService(repo).(*sessionService)
	user := &models.User{ID: "u1"}

	session, err := svc.Issue(user, "", "")
	require.NoError(t, err)

	got, err := svc.Validate(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)

	_, err = svc.Validate("no-such-token")
	assert.ErrorIs(t, err, ErrSessionInvalid)

	_, err = svc.Validate("")
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestSessionValidate_Expired(t *testing.T) {
	repo := &memSessionRepo{}
	svc := NewSessionService(repo).(*sessionService)
	user := &models.User{ID: "u1"}

	session, err := svc.Issue(user, "", "")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(sessionTTL + time.Hour) }

	_, err = svc.Validate(session.Token)
	assert.ErrorIs(t, err, ErrSessionExpired)

	// протухшая строка удалена сразу
	stored, err := repo.GetByToken(session.Token)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestSessionRevoke(t *testing.T) {
	repo := &memSessionRepo{}
	svc := NewSessionService(repo)
	user := &models.User{ID: "u1"}

	session, err := svc.Issue(user, "", "")
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(session.Token))

	_, err = svc.Validate(session.Token)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestSessionRevokeByID(t *testing.T) {
	repo := &memSessionRepo{}
	svc := NewSessionService(repo)
	user := &models.User{ID: "u1"}

	session, err := svc.Issue(user, "", "")
	require.NoError(t, err)

	require.NoError(t, svc.RevokeByID(session.ID))

	_, err = svc.Validate(session.Token)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}
