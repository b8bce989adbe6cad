package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/samvidha-portal-api/internal/models"
	appErrors "github.com/noah-isme/samvidha-portal-api/pkg/errors"
)

type fakeSessionStore struct {
	sessions map[string]models.Credentials
	nextID   string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]models.Credentials{}, nextID: "session-1"}
}

func (s *fakeSessionStore) Create(ctx context.Context, creds models.Credentials) (string, error) {
	id := s.nextID
	s.sessions[id] = creds
	return id, nil
}

func (s *fakeSessionStore) Resolve(ctx context.Context, sessionID string) (models.Credentials, error) {
	creds, ok := s.sessions[sessionID]
	if !ok {
		return models.Credentials{}, appErrors.ErrSessionExpired
	}
	return creds, nil
}

func (s *fakeSessionStore) Drop(ctx context.Context, sessionID string) error {
	delete(s.sessions, sessionID)
	return nil
}

func newTestAuthService(store *fakeSessionStore, ttl time.Duration) *AuthService {
	return NewAuthService(store, nil, nil, AuthConfig{
		TokenSecret: "test-secret",
		TokenTTL:    ttl,
		Issuer:      "portal-api",
	})
}

func TestAuthSessionRoundTrip(t *testing.T) {
	store := newFakeSessionStore()
	svc := newTestAuthService(store, time.Minute)

	token, err := svc.EstablishSession(context.Background(), models.Credentials{Username: "user", Password: "pw"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	creds, err := svc.ResolveToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user", creds.Username)
	assert.Equal(t, "pw", creds.Password)
}

func TestAuthEstablishSessionValidation(t *testing.T) {
	svc := newTestAuthService(newFakeSessionStore(), time.Minute)

	_, err := svc.EstablishSession(context.Background(), models.Credentials{Username: "user"})

	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAuthResolveTokenRejectsTampering(t *testing.T) {
	store := newFakeSessionStore()
	svc := newTestAuthService(store, time.Minute)

	token, err := svc.EstablishSession(context.Background(), models.Credentials{Username: "user", Password: "pw"})
	require.NoError(t, err)

	other := NewAuthService(store, nil, nil, AuthConfig{TokenSecret: "different-secret", TokenTTL: time.Minute})
	_, err = other.ResolveToken(context.Background(), token)

	assert.ErrorIs(t, err, appErrors.ErrSessionExpired)
}

func TestAuthResolveTokenRejectsExpired(t *testing.T) {
	store := newFakeSessionStore()
	svc := newTestAuthService(store, time.Nanosecond)

	token, err := svc.EstablishSession(context.Background(), models.Credentials{Username: "user", Password: "pw"})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = svc.ResolveToken(context.Background(), token)

	assert.ErrorIs(t, err, appErrors.ErrSessionExpired)
}

func TestAuthResolveTokenRejectsGarbage(t *testing.T) {
	svc := newTestAuthService(newFakeSessionStore(), time.Minute)

	_, err := svc.ResolveToken(context.Background(), "not-a-token")

	assert.ErrorIs(t, err, appErrors.ErrSessionExpired)
}

func TestAuthEndSessionDropsRecord(t *testing.T) {
	store := newFakeSessionStore()
	svc := newTestAuthService(store, time.Minute)

	token, err := svc.EstablishSession(context.Background(), models.Credentials{Username: "user", Password: "pw"})
	require.NoError(t, err)

	require.NoError(t, svc.EndSession(context.Background(), token))

	_, err = svc.ResolveToken(context.Background(), token)
	assert.ErrorIs(t, err, appErrors.ErrSessionExpired)
}
