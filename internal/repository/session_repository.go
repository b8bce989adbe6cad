package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/samvidha-portal-api/internal/models"
	appErrors "github.com/noah-isme/samvidha-portal-api/pkg/errors"
	"github.com/noah-isme/samvidha-portal-api/pkg/secret"
)

const sessionKeyPrefix = "sess:"

// SessionRepository persists server-side portal sessions in the cache. The
// portal password travels sealed; the lab workflows need it back because
// every portal operation re-authenticates.
type SessionRepository struct {
	cache *CacheRepository
	box   *secret.Box
	ttl   time.Duration
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(cache *CacheRepository, box *secret.Box, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionRepository{cache: cache, box: box, ttl: ttl}
}

// Create seals the credentials and stores a new session record, returning
// its ID.
func (r *SessionRepository) Create(ctx context.Context, creds models.Credentials) (string, error) {
	sealed, err := r.box.Seal([]byte(creds.Password))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seal credentials")
	}

	session := models.PortalSession{
		ID:             uuid.NewString(),
		Username:       creds.Username,
		SealedPassword: sealed,
		CreatedAt:      time.Now().UTC(),
	}
	if err := r.cache.Set(ctx, sessionKeyPrefix+session.ID, session, r.ttl); err != nil {
		return "", err
	}
	return session.ID, nil
}

// Resolve loads a session record and unseals the credentials. Expired or
// unknown sessions surface as ErrSessionExpired.
func (r *SessionRepository) Resolve(ctx context.Context, sessionID string) (models.Credentials, error) {
	var session models.PortalSession
	if err := r.cache.Get(ctx, sessionKeyPrefix+sessionID, &session); err != nil {
		return models.Credentials{}, appErrors.ErrSessionExpired
	}

	password, err := r.box.Open(session.SealedPassword)
	if err != nil {
		return models.Credentials{}, appErrors.Wrap(err, appErrors.ErrSessionExpired.Code,
			appErrors.ErrSessionExpired.Status, appErrors.ErrSessionExpired.Message)
	}
	return models.Credentials{Username: session.Username, Password: string(password)}, nil
}

// Drop removes a session record.
func (r *SessionRepository) Drop(ctx context.Context, sessionID string) error {
	return r.cache.Delete(ctx, sessionKeyPrefix+sessionID)
}
